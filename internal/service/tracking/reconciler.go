package tracking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/Temutjin2k/triplog/internal/domain/models"
	"github.com/Temutjin2k/triplog/internal/domain/types"
	"github.com/Temutjin2k/triplog/internal/service/geo"
	"github.com/Temutjin2k/triplog/pkg/logger"
	wrap "github.com/Temutjin2k/triplog/pkg/logger/wrapper"
	"github.com/Temutjin2k/triplog/pkg/metrics"
)

// Reconciler owns the running distance of a trip.
// At most one remote request is outstanding; pairs arriving meanwhile wait in a FIFO queue
// and are drained one per cooldown.
type Reconciler struct {
	provider DistanceProvider
	opts     RouteOptions
	timeout  time.Duration
	cooldown time.Duration
	log      logger.Logger

	// ctx carries log values only, it is never cancelled
	ctx context.Context

	mu               sync.Mutex
	total            float64
	lastAccepted     *models.Position
	lastAcceptedTime time.Time
	queue            []models.DistanceRequest
	busy             bool
	idle             chan struct{}
	remote           int
	fallback         int
}

func NewReconciler(ctx context.Context, provider DistanceProvider, cfg Config, log logger.Logger) *Reconciler {
	return &Reconciler{
		provider: provider,
		opts:     RouteOptions{Profile: cfg.Profile, Preference: cfg.Preference},
		timeout:  cfg.RemoteTimeout,
		cooldown: cfg.Cooldown,
		log:      log,
		ctx:      context.WithoutCancel(ctx),
	}
}

// Anchor sets the trip start as the last accepted position.
func (r *Reconciler) Anchor(pos models.Position) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastAccepted = &pos
	r.lastAcceptedTime = pos.Timestamp
}

// LastAccepted returns the current anchor and its time, nil before the trip start.
func (r *Reconciler) LastAccepted() (*models.Position, time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lastAccepted == nil {
		return nil, time.Time{}
	}
	p := *r.lastAccepted
	return &p, r.lastAcceptedTime
}

// Reconcile adds the distance between from and to to the total.
// It returns immediately; the work runs on a single worker goroutine.
func (r *Reconciler) Reconcile(from, to models.Position) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req := models.DistanceRequest{From: from, To: to}
	if r.busy {
		r.queue = append(r.queue, req)
		metrics.ReconcileQueueDepth.Inc()
		return
	}

	r.busy = true
	r.idle = make(chan struct{})
	go r.run(req)
}

func (r *Reconciler) run(req models.DistanceRequest) {
	for {
		km, source := r.measure(req)

		r.mu.Lock()
		r.total += km
		to := req.To
		r.lastAccepted = &to
		r.lastAcceptedTime = to.Timestamp
		if source == "remote" {
			r.remote++
		} else {
			r.fallback++
		}

		if len(r.queue) == 0 {
			r.busy = false
			close(r.idle)
			r.mu.Unlock()
			return
		}
		r.mu.Unlock()

		// stays busy through the cooldown so new pairs keep queueing behind the old ones
		time.Sleep(r.cooldown)

		r.mu.Lock()
		req = r.queue[0]
		r.queue[0] = models.DistanceRequest{}
		r.queue = r.queue[1:]
		// a pair queued against a stale anchor continues from where the previous one ended
		req.From = *r.lastAccepted
		r.mu.Unlock()
		metrics.ReconcileQueueDepth.Dec()
	}
}

// measure asks the provider and falls back to the great-circle distance on any failure.
func (r *Reconciler) measure(req models.DistanceRequest) (float64, string) {
	km, err := r.remoteDistance(req)
	if err == nil {
		metrics.ReconciliationsTotal.WithLabelValues("remote").Inc()
		return km, "remote"
	}

	fallback := geo.GreatCircleDistanceKm(req.From, req.To)
	ctx := wrap.WithAction(wrap.ErrorCtx(r.ctx, err), types.ActionDistanceFallback)
	r.log.Warn(ctx, "remote distance failed, using great-circle distance",
		"error", err.Error(),
		"fallback_km", fallback,
	)
	metrics.ReconciliationsTotal.WithLabelValues("fallback").Inc()
	return fallback, "fallback"
}

func (r *Reconciler) remoteDistance(req models.DistanceRequest) (float64, error) {
	if r.provider == nil {
		return 0, types.ErrProviderUnavailable
	}

	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	start := time.Now()
	route, err := r.provider.Route(ctx, req.From, req.To, r.opts)
	metrics.RemoteDistanceDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, fmt.Errorf("%w: %w", types.ErrProviderTimeout, err)
		}
		return 0, err
	}
	if route.DistanceKm < 0 || math.IsNaN(route.DistanceKm) || math.IsInf(route.DistanceKm, 0) {
		return 0, fmt.Errorf("%w: unusable distance %v", types.ErrRouteNotFound, route.DistanceKm)
	}
	return route.DistanceKm, nil
}

// Wait blocks until no reconciliation is running and the queue is empty.
func (r *Reconciler) Wait(ctx context.Context) error {
	r.mu.Lock()
	if !r.busy {
		r.mu.Unlock()
		return nil
	}
	idle := r.idle
	r.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TotalKm is the distance reconciled so far.
func (r *Reconciler) TotalKm() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}

// ReconcilerState is a consistent read of the reconciler fields
type ReconcilerState struct {
	TotalKm    float64
	QueueDepth int
	InFlight   bool
	Remote     int
	Fallback   int
}

func (r *Reconciler) State() ReconcilerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ReconcilerState{
		TotalKm:    r.total,
		QueueDepth: len(r.queue),
		InFlight:   r.busy,
		Remote:     r.remote,
		Fallback:   r.fallback,
	}
}
