package tracking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Temutjin2k/triplog/internal/domain/models"
	"github.com/Temutjin2k/triplog/internal/domain/types"
	"github.com/Temutjin2k/triplog/pkg/logger"
	wrap "github.com/Temutjin2k/triplog/pkg/logger/wrapper"
	"github.com/Temutjin2k/triplog/pkg/metrics"
)

// Deps are the collaborators of a session. Source, Notifier, Pending and Distance may be nil.
type Deps struct {
	Distance  DistanceProvider
	Addresses AddressResolver
	Sink      TripSink
	Pending   PendingStore
	Source    PositionSource
	Notifier  StatusNotifier
}

// Session is the state machine of one user's trip: Idle -> Tracking -> Stopped -> Idle.
type Session struct {
	userID string
	cfg    Config
	deps   Deps
	filter Filter
	route  *RouteComparison
	log    logger.Logger
	now    func() time.Time

	mu        sync.Mutex
	state     types.SessionState
	tripID    string
	ctx       context.Context
	startTime time.Time
	startPos  *models.Position
	endPos    *models.Position
	speed     *SpeedEstimator
	recon     *Reconciler
	quality   qualityCounter
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewSession(userID string, cfg Config, deps Deps, log logger.Logger) *Session {
	s := &Session{
		userID: userID,
		cfg:    cfg,
		deps:   deps,
		filter: NewFilter(cfg),
		log:    log,
		now:    time.Now,
		state:  types.StateIdle,
	}
	if cfg.CompareRoute {
		s.route = NewRouteComparison(deps.Distance, log)
	}
	return s
}

// Start begins a new trip. ctx bounds the position subscription and the status ticker,
// so it should outlive the request that triggered Start.
func (s *Session) Start(ctx context.Context) (models.Snapshot, error) {
	const op = "Session.Start"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != types.StateIdle {
		return models.Snapshot{}, types.ErrSessionActive
	}

	s.tripID = uuid.NewString()
	s.ctx = wrap.WithTripID(wrap.WithUserID(ctx, s.userID), s.tripID)
	s.startTime = s.now()
	s.startPos = nil
	s.endPos = nil
	s.speed = NewSpeedEstimator(s.cfg.SpeedWindow, s.cfg.DeviceSpeedAccuracy)
	s.recon = NewReconciler(s.ctx, s.deps.Distance, s.cfg, s.log)
	s.quality = qualityCounter{}

	runCtx, cancel := context.WithCancel(s.ctx)

	if s.deps.Source != nil {
		fixes, err := s.deps.Source.Subscribe(runCtx, s.userID)
		if err != nil {
			cancel()
			return models.Snapshot{}, wrap.Error(s.ctx, fmt.Errorf("%s: subscribe to position source: %w", op, err))
		}
		s.wg.Add(1)
		go s.consume(runCtx, fixes)
	}

	if s.deps.Notifier != nil && s.cfg.TickInterval > 0 {
		s.wg.Add(1)
		go s.tick(runCtx)
	}

	s.cancel = cancel
	s.state = types.StateTracking
	metrics.ActiveSessionsGauge.Inc()

	s.log.Info(wrap.WithAction(s.ctx, types.ActionTripStarted), "trip started")

	return s.snapshotLocked(), nil
}

func (s *Session) consume(ctx context.Context, fixes <-chan models.Position) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case fix, ok := <-fixes:
			if !ok {
				return
			}
			if _, err := s.HandleFix(fix); err != nil {
				return
			}
		}
	}
}

func (s *Session) tick(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.deps.Notifier.Notify(ctx, s.userID, s.Snapshot())
		}
	}
}

// HandleFix runs one fix through filter, speed estimator and reconciler.
// Dropped fixes are reported in the result, not as errors.
func (s *Session) HandleFix(fix models.Position) (models.FixResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != types.StateTracking {
		return models.FixResult{}, types.ErrSessionNotTracking
	}

	anchor, anchorTime := s.recon.LastAccepted()
	decision, err := s.filter.Check(fix, anchor, anchorTime)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrSampleTooSoon):
			metrics.FixesTotal.WithLabelValues("deferred").Inc()
		default:
			s.quality.reject(fix)
			metrics.FixesTotal.WithLabelValues("rejected").Inc()
			s.log.Debug(wrap.WithAction(s.ctx, types.ActionFixRejected), "fix rejected",
				"reason", err.Error(),
				"accuracy", fix.AccuracyMeters,
			)
		}
		return models.FixResult{Accepted: false, Reason: err.Error()}, nil
	}

	accepted := fix
	s.endPos = &accepted
	s.quality.accept(fix)
	metrics.FixesTotal.WithLabelValues("accepted").Inc()

	switch decision.Kind {
	case DecisionStart:
		s.startPos = &accepted
		s.recon.Anchor(fix)
	case DecisionAccept:
		s.speed.Push(fix, decision.SpeedKmh)
		s.recon.Reconcile(*anchor, fix)
	}

	return models.FixResult{Accepted: true}, nil
}

// Stop ends the trip, waits for outstanding reconciliations and hands the record to the sink.
// On sink failure the record is retained and returned together with ErrTripNotSaved.
func (s *Session) Stop(ctx context.Context) (*models.TripRecord, error) {
	const op = "Session.Stop"

	s.mu.Lock()
	if s.state != types.StateTracking {
		s.mu.Unlock()
		return nil, types.ErrSessionNotTracking
	}
	s.state = types.StateStopped
	s.cancel()
	logCtx := s.ctx
	s.mu.Unlock()

	// subscription and ticker are gone before finalization starts
	s.wg.Wait()
	metrics.ActiveSessionsGauge.Dec()

	defer func() {
		s.mu.Lock()
		s.state = types.StateIdle
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(wrap.WithLogCtx(context.WithoutCancel(ctx), wrap.FromContext(logCtx)), s.cfg.FinalizeTimeout)
	defer cancel()
	ctx = wrap.WithAction(ctx, types.ActionTripStopped)

	if err := s.recon.Wait(ctx); err != nil {
		s.log.Warn(ctx, "reconciliation did not drain before finalize timeout", "error", err.Error())
	}

	total := s.recon.TotalKm()
	if total == 0 || s.startTime.IsZero() || s.startPos == nil {
		s.log.Info(ctx, "nothing to save", "distance_km", total)
		return nil, types.ErrNothingToSave
	}

	record := s.assemble(ctx, total)

	if err := s.deps.Sink.Save(ctx, record); err != nil {
		metrics.TripsTotal.WithLabelValues("failed").Inc()
		ctx = wrap.WithAction(ctx, types.ActionTripSaveFailed)
		s.log.Error(wrap.ErrorCtx(ctx, err), "failed to save trip, retaining record", err)
		s.retain(ctx, record, err)
		return record, wrap.Error(ctx, fmt.Errorf("%s: %w: %w", op, types.ErrTripNotSaved, err))
	}

	metrics.TripsTotal.WithLabelValues("saved").Inc()
	s.log.Info(wrap.WithAction(ctx, types.ActionTripSaved), "trip saved",
		"distance_km", record.DistanceKm,
		"duration_s", record.DurationSeconds,
	)
	return record, nil
}

func (s *Session) assemble(ctx context.Context, totalKm float64) *models.TripRecord {
	endTime := s.now()
	duration := endTime.Sub(s.startTime)

	start := *s.startPos
	end := *s.endPos

	startAddr := s.deps.Addresses.Resolve(ctx, start.Latitude, start.Longitude)
	if s.cfg.AddressPause > 0 {
		select {
		case <-time.After(s.cfg.AddressPause):
		case <-ctx.Done():
		}
	}
	endAddr := s.deps.Addresses.Resolve(ctx, end.Latitude, end.Longitude)

	var analysis *models.RouteAnalysis
	if s.route != nil {
		analysis = s.route.Compare(ctx, start, end, totalKm)
	}

	var avgKmh float64
	if duration > 0 {
		avgKmh = totalKm / duration.Hours()
	}

	return &models.TripRecord{
		ID:              s.tripID,
		UserID:          s.userID,
		Date:            s.startTime.Format(time.DateOnly),
		StartTime:       s.startTime,
		EndTime:         endTime,
		DurationSeconds: int64(duration.Round(time.Second) / time.Second),
		DistanceKm:      round2(totalKm),
		StartLocation:   models.TripLocation{Address: startAddr, Coordinates: start.Coordinates()},
		EndLocation:     models.TripLocation{Address: endAddr, Coordinates: end.Coordinates()},
		Purpose:         s.cfg.Purpose,
		RouteAnalysis:   analysis,
		TrackingQuality: s.quality.report(s.speed, avgKmh),
	}
}

func (s *Session) retain(ctx context.Context, record *models.TripRecord, cause error) {
	if s.deps.Pending == nil {
		return
	}
	pending := models.PendingTrip{
		Record:    *record,
		LastError: cause.Error(),
		Attempts:  1,
		StoredAt:  s.now(),
	}
	if err := s.deps.Pending.Put(ctx, pending); err != nil {
		s.log.Error(ctx, "failed to retain unsaved trip", err)
	}
}

// Snapshot returns a consistent view of the session.
func (s *Session) Snapshot() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() models.Snapshot {
	snap := models.Snapshot{State: s.state}
	if s.state == types.StateIdle || s.recon == nil {
		return snap
	}

	start := s.startTime
	rs := s.recon.State()

	snap.TripID = s.tripID
	snap.StartTime = &start
	snap.ElapsedSeconds = int64(s.now().Sub(start) / time.Second)
	snap.DistanceKm = rs.TotalKm
	snap.AverageSpeedKmh = s.speed.Average()
	snap.PeakSpeedKmh = s.speed.Peak()
	snap.LastAccuracy = s.quality.lastAcc
	snap.AcceptedPoints = s.quality.accepted
	snap.RejectedPoints = s.quality.rejected
	snap.QueueDepth = rs.QueueDepth
	snap.InFlight = rs.InFlight
	return snap
}

// State returns the lifecycle state.
func (s *Session) State() types.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
