package redis

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Temutjin2k/triplog/internal/domain/types"
	"github.com/Temutjin2k/triplog/pkg/logger"
)

type countingProvider struct {
	calls atomic.Int32
	addr  string
	err   error
	delay time.Duration

	sawCancelled atomic.Bool
}

func (p *countingProvider) Name() string { return "fake" }

func (p *countingProvider) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	p.calls.Add(1)
	if ctx.Err() != nil {
		p.sawCancelled.Store(true)
	}
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	return p.addr, p.err
}

func setup(t *testing.T, p *countingProvider) (*CachedGeocoder, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCachedGeocoder(p, client, time.Hour, logger.Discard()), server
}

func TestCachedGeocoderHit(t *testing.T) {
	p := &countingProvider{addr: "Mannerheimintie 1, Helsinki"}
	cache, server := setup(t, p)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		addr, err := cache.ReverseGeocode(ctx, 60.1699, 24.9384)
		if err != nil {
			t.Fatalf("lookup %d: %v", i, err)
		}
		if addr != p.addr {
			t.Fatalf("unexpected address %q", addr)
		}
	}
	if got := p.calls.Load(); got != 1 {
		t.Fatalf("expected 1 provider call, got %d", got)
	}

	key := cacheKey("fake", 60.1699, 24.9384)
	if !server.Exists(key) {
		t.Fatalf("expected key %s in redis", key)
	}
	if ttl := server.TTL(key); ttl != time.Hour {
		t.Fatalf("unexpected ttl %v", ttl)
	}
}

func TestCachedGeocoderDoesNotCacheFailures(t *testing.T) {
	p := &countingProvider{err: types.ErrProviderUnavailable}
	cache, server := setup(t, p)

	_, err := cache.ReverseGeocode(context.Background(), 1, 2)
	if !errors.Is(err, types.ErrProviderUnavailable) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if len(server.Keys()) != 0 {
		t.Fatalf("failure must not be cached: %v", server.Keys())
	}
}

func TestCachedGeocoderSharesConcurrentLookups(t *testing.T) {
	p := &countingProvider{addr: "Tapiolantie 3, Espoo", delay: 50 * time.Millisecond}
	cache, _ := setup(t, p)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.ReverseGeocode(context.Background(), 60.1756, 24.8053); err != nil {
				t.Errorf("lookup: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := p.calls.Load(); got != 1 {
		t.Fatalf("expected concurrent lookups to share one call, got %d", got)
	}
}

func TestCachedGeocoderRedisDown(t *testing.T) {
	p := &countingProvider{addr: "Somewhere 1"}
	cache, server := setup(t, p)
	server.Close()

	addr, err := cache.ReverseGeocode(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("expected provider answer with redis down: %v", err)
	}
	if addr != "Somewhere 1" {
		t.Fatalf("unexpected address %q", addr)
	}
}

func TestCachedGeocoderDoesNotCacheEmptyAnswer(t *testing.T) {
	p := &countingProvider{}
	cache, server := setup(t, p)

	for i := 0; i < 2; i++ {
		addr, err := cache.ReverseGeocode(context.Background(), 60.1699, 24.9384)
		if err != nil {
			t.Fatalf("lookup %d: %v", i, err)
		}
		if addr != "" {
			t.Fatalf("unexpected address %q", addr)
		}
	}

	if key := cacheKey("fake", 60.1699, 24.9384); server.Exists(key) {
		t.Fatalf("empty answer must not be cached under %s", key)
	}
	if got := p.calls.Load(); got != 2 {
		t.Fatalf("expected every lookup to reach the provider, got %d calls", got)
	}
}

func TestCachedGeocoderIgnoresCallerCancellation(t *testing.T) {
	p := &countingProvider{addr: "Mannerheimintie 1, Helsinki"}
	cache, server := setup(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	addr, err := cache.ReverseGeocode(ctx, 60.1699, 24.9384)
	if err != nil {
		t.Fatalf("lookup with cancelled caller: %v", err)
	}
	if addr != p.addr {
		t.Fatalf("unexpected address %q", addr)
	}
	if p.sawCancelled.Load() {
		t.Fatalf("provider received the caller's cancelled context")
	}
	if key := cacheKey("fake", 60.1699, 24.9384); !server.Exists(key) {
		t.Fatalf("expected key %s in redis", key)
	}
}
