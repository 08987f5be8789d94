package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/Temutjin2k/triplog/internal/service/address"
	"github.com/Temutjin2k/triplog/pkg/logger"
	wrap "github.com/Temutjin2k/triplog/pkg/logger/wrapper"
)

const keyPrefix = "geocode"

// CachedGeocoder puts a redis cache in front of a reverse geocoding provider.
// Concurrent lookups of the same point share one provider call. Failures and empty answers are not cached.
type CachedGeocoder struct {
	next  address.Provider
	rdb   *goredis.Client
	ttl   time.Duration
	group singleflight.Group
	log   logger.Logger
}

func NewCachedGeocoder(next address.Provider, rdb *goredis.Client, ttl time.Duration, log logger.Logger) *CachedGeocoder {
	return &CachedGeocoder{
		next: next,
		rdb:  rdb,
		ttl:  ttl,
		log:  log,
	}
}

func (c *CachedGeocoder) Name() string {
	return c.next.Name()
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	key := cacheKey(c.next.Name(), lat, lng)

	cached, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		return cached, nil
	case !errors.Is(err, goredis.Nil):
		// cache down, the provider still answers
		c.log.Warn(ctx, "geocode cache read failed", "key", key, "error", err.Error())
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// the flight is shared, one caller giving up must not fail the others
		flightCtx := context.WithoutCancel(ctx)
		addr, err := c.next.ReverseGeocode(flightCtx, lat, lng)
		if err != nil {
			return "", err
		}
		if addr == "" {
			return addr, nil
		}
		if setErr := c.rdb.Set(flightCtx, key, addr, c.ttl).Err(); setErr != nil {
			c.log.Warn(flightCtx, "geocode cache write failed", "key", key, "error", setErr.Error())
		}
		return addr, nil
	})
	if err != nil {
		return "", wrap.Error(ctx, err)
	}
	return v.(string), nil
}

// cacheKey rounds to 5 decimals, about one metre.
func cacheKey(provider string, lat, lng float64) string {
	return fmt.Sprintf("%s:%s:%.5f:%.5f", keyPrefix, provider, lat, lng)
}
