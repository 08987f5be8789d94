package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Temutjin2k/triplog/internal/domain/models"
	"github.com/Temutjin2k/triplog/internal/service/geo"
	"github.com/Temutjin2k/triplog/pkg/logger"
)

func newTestReconciler(p DistanceProvider, cfg Config) *Reconciler {
	return NewReconciler(context.Background(), p, cfg, logger.Discard())
}

func waitIdle(t *testing.T, r *Reconciler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Wait(ctx); err != nil {
		t.Fatalf("reconciler did not drain: %v", err)
	}
}

func TestReconcileRemoteDistance(t *testing.T) {
	p := &recordingProvider{distance: 0.42}
	r := newTestReconciler(p, testConfig())
	r.Anchor(fixA)

	r.Reconcile(fixA, fixC)
	waitIdle(t, r)

	if got := r.TotalKm(); got != 0.42 {
		t.Fatalf("total = %v, want 0.42", got)
	}
	last, lastTime := r.LastAccepted()
	if last == nil || last.Latitude != fixC.Latitude || !lastTime.Equal(fixC.Timestamp) {
		t.Fatalf("last accepted = %+v at %v, want C", last, lastTime)
	}
}

func TestReconcileFallbackIsExact(t *testing.T) {
	p := &recordingProvider{err: errors.New("503 service unavailable")}
	r := newTestReconciler(p, testConfig())

	r.Reconcile(fixA, fixC)
	waitIdle(t, r)

	want := geo.GreatCircleDistanceKm(fixA, fixC)
	if got := r.TotalKm(); got != want {
		t.Fatalf("total = %v, want exactly %v", got, want)
	}
	if st := r.State(); st.Fallback != 1 || st.Remote != 0 {
		t.Fatalf("state = %+v", st)
	}
	last, _ := r.LastAccepted()
	if last == nil || last.Timestamp != fixC.Timestamp {
		t.Fatalf("last accepted did not advance to C")
	}
}

func TestReconcileTimeoutFallsBack(t *testing.T) {
	cfg := testConfig()
	cfg.RemoteTimeout = 20 * time.Millisecond
	r := newTestReconciler(hangingProvider{}, cfg)

	start := time.Now()
	r.Reconcile(fixA, fixC)
	waitIdle(t, r)

	if time.Since(start) > 2*time.Second {
		t.Fatalf("timeout was not applied")
	}
	if got, want := r.TotalKm(), geo.GreatCircleDistanceKm(fixA, fixC); got != want {
		t.Fatalf("total = %v, want %v", got, want)
	}
}

func TestReconcileRejectsUnusableDistance(t *testing.T) {
	p := &recordingProvider{distance: -3}
	r := newTestReconciler(p, testConfig())

	r.Reconcile(fixA, fixC)
	waitIdle(t, r)

	if got := r.TotalKm(); got < 0 || got != geo.GreatCircleDistanceKm(fixA, fixC) {
		t.Fatalf("negative remote distance leaked into total: %v", got)
	}
}

func TestReconcileWithoutProvider(t *testing.T) {
	r := newTestReconciler(nil, testConfig())
	r.Reconcile(fixA, fixC)
	waitIdle(t, r)

	if got := r.TotalKm(); got != geo.GreatCircleDistanceKm(fixA, fixC) {
		t.Fatalf("total = %v", got)
	}
}

func TestReconcileFIFOSingleFlight(t *testing.T) {
	p := &recordingProvider{distance: 1, delay: 40 * time.Millisecond}
	r := newTestReconciler(p, testConfig())

	fixes := []models.Position{
		at(60.00, 24.9, 0),
		at(60.01, 24.9, 10000),
		at(60.02, 24.9, 20000),
		at(60.03, 24.9, 30000),
		at(60.04, 24.9, 40000),
	}
	r.Anchor(fixes[0])

	var totals []float64
	for i := 1; i < len(fixes); i++ {
		r.Reconcile(fixes[i-1], fixes[i])
		totals = append(totals, r.TotalKm())
	}
	if st := r.State(); !st.InFlight || st.QueueDepth != 3 {
		t.Fatalf("expected one in flight and three queued, got %+v", st)
	}

	waitIdle(t, r)

	calls := p.Calls()
	if len(calls) != 4 {
		t.Fatalf("calls = %d, want 4", len(calls))
	}
	for i, c := range calls {
		if c.From.Latitude != fixes[i].Latitude || c.To.Latitude != fixes[i+1].Latitude {
			t.Fatalf("call %d = %v -> %v, out of order", i, c.From.Latitude, c.To.Latitude)
		}
	}
	if p.maxIn != 1 {
		t.Fatalf("max concurrent remote calls = %d, want 1", p.maxIn)
	}
	if got := r.TotalKm(); got != 4 {
		t.Fatalf("total = %v, want 4", got)
	}
	for i := 1; i < len(totals); i++ {
		if totals[i] < totals[i-1] {
			t.Fatalf("total decreased: %v", totals)
		}
	}
}

func TestReconcileReanchorsQueuedPairs(t *testing.T) {
	p := &recordingProvider{distance: 1, delay: 40 * time.Millisecond}
	r := newTestReconciler(p, testConfig())

	a, b, c := at(60.00, 24.9, 0), at(60.01, 24.9, 10000), at(60.02, 24.9, 20000)
	r.Anchor(a)

	// the second pair was built while the first was in flight and still starts at a
	r.Reconcile(a, b)
	r.Reconcile(a, c)
	waitIdle(t, r)

	calls := p.Calls()
	if len(calls) != 2 {
		t.Fatalf("calls = %d", len(calls))
	}
	if calls[1].From.Latitude != b.Latitude {
		t.Fatalf("queued pair was not re-anchored: from %v", calls[1].From.Latitude)
	}
}

func TestReconcileCooldownBetweenQueued(t *testing.T) {
	cfg := testConfig()
	cfg.Cooldown = 50 * time.Millisecond
	p := &recordingProvider{distance: 1}
	r := newTestReconciler(p, cfg)

	start := time.Now()
	r.Reconcile(at(60, 24, 0), at(60.01, 24, 10000))
	r.Reconcile(at(60.01, 24, 10000), at(60.02, 24, 20000))
	r.Reconcile(at(60.02, 24, 20000), at(60.03, 24, 30000))
	waitIdle(t, r)

	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Fatalf("queue drained in %v, expected at least two cooldowns", elapsed)
	}
}

func TestWaitHonoursContext(t *testing.T) {
	cfg := testConfig()
	cfg.RemoteTimeout = time.Second
	r := newTestReconciler(hangingProvider{}, cfg)
	r.Reconcile(fixA, fixC)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := r.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait err = %v", err)
	}
	waitIdle(t, r)
}
