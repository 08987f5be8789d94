package tracking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Temutjin2k/triplog/internal/domain/models"
	"github.com/Temutjin2k/triplog/internal/domain/types"
	"github.com/Temutjin2k/triplog/pkg/logger"
	wrap "github.com/Temutjin2k/triplog/pkg/logger/wrapper"
)

// Service keeps one trip session per user.
type Service struct {
	ctx       context.Context
	cfg       Config
	deps      Deps
	publisher EventPublisher
	log       logger.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewService creates the session registry. ctx is the lifetime of the background work of every session.
func NewService(ctx context.Context, cfg Config, deps Deps, publisher EventPublisher, log logger.Logger) *Service {
	return &Service{
		ctx:       ctx,
		cfg:       cfg,
		deps:      deps,
		publisher: publisher,
		log:       log,
		sessions:  make(map[string]*Session),
	}
}

func (s *Service) session(userID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		sess = NewSession(userID, s.cfg, s.deps, s.log)
		s.sessions[userID] = sess
	}
	return sess
}

func (s *Service) existing(userID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	return sess, ok
}

// Start begins a trip for userID.
func (s *Service) Start(ctx context.Context, userID string) (models.Snapshot, error) {
	// request values are kept for logging, the request's cancellation is not
	runCtx := wrap.WithLogCtx(s.ctx, wrap.FromContext(ctx))
	return s.session(userID).Start(runCtx)
}

// PushFix feeds a fix received over HTTP or websocket into the user's session.
func (s *Service) PushFix(ctx context.Context, userID string, fix models.Position) (models.FixResult, error) {
	sess, ok := s.existing(userID)
	if !ok {
		return models.FixResult{}, types.ErrSessionNotTracking
	}
	return sess.HandleFix(fix)
}

// Current returns the user's session snapshot, Idle when the user never started a trip.
func (s *Service) Current(ctx context.Context, userID string) models.Snapshot {
	sess, ok := s.existing(userID)
	if !ok {
		return models.Snapshot{State: types.StateIdle}
	}
	return sess.Snapshot()
}

// Stop finishes the user's trip. A stored trip is announced to the event publisher.
func (s *Service) Stop(ctx context.Context, userID string) (*models.TripRecord, error) {
	sess, ok := s.existing(userID)
	if !ok {
		return nil, types.ErrSessionNotTracking
	}

	record, err := sess.Stop(ctx)
	if err != nil {
		return record, err
	}

	s.announce(ctx, record)
	return record, nil
}

func (s *Service) announce(ctx context.Context, record *models.TripRecord) {
	if s.publisher == nil {
		return
	}

	event := models.TripCompletedEvent{
		Type:       types.EventTripCompleted,
		TripID:     record.ID,
		UserID:     record.UserID,
		DistanceKm: record.DistanceKm,
		Duration:   record.DurationSeconds,
		StartTime:  record.StartTime,
		EndTime:    record.EndTime,
		Timestamp:  time.Now(),
	}
	if err := s.publisher.PublishTripCompleted(ctx, event); err != nil {
		s.log.Error(wrap.ErrorCtx(wrap.WithTripID(ctx, record.ID), err), "failed to publish trip completed event", err)
	}
}

// Pending lists records the sink refused. Empty userID lists every user's records.
func (s *Service) Pending(ctx context.Context, userID string, filters models.Filters) ([]models.PendingTrip, models.Metadata, error) {
	const op = "Service.Pending"

	if s.deps.Pending == nil {
		return nil, models.CalculateMetadata(0, filters.Page, filters.PageSize), nil
	}

	trips, err := s.deps.Pending.List(ctx, userID)
	if err != nil {
		return nil, models.Metadata{}, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	sortPending(trips, filters)
	page, meta := models.Paginate(trips, filters)
	return page, meta, nil
}

func sortPending(trips []models.PendingTrip, f models.Filters) {
	desc := f.Descending()
	key := f.SortColumn()
	sort.SliceStable(trips, func(i, j int) bool {
		if desc {
			i, j = j, i
		}
		a, b := trips[i], trips[j]
		switch key {
		case "start_time":
			return a.Record.StartTime.Before(b.Record.StartTime)
		case "distance":
			return a.Record.DistanceKm < b.Record.DistanceKm
		default:
			return a.StoredAt.Before(b.StoredAt)
		}
	})
}

// Resubmit retries every retained record of userID, or of all users when userID is empty.
// Saved records leave the pending store; failed ones stay with the attempt counted.
func (s *Service) Resubmit(ctx context.Context, userID string) (models.ResubmitResult, error) {
	const op = "Service.Resubmit"

	result := models.ResubmitResult{Saved: []string{}, Failed: map[string]string{}}
	if s.deps.Pending == nil {
		return result, nil
	}

	trips, err := s.deps.Pending.List(ctx, userID)
	if err != nil {
		return result, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	for _, p := range trips {
		record := p.Record
		tripCtx := wrap.WithAction(wrap.WithTripID(ctx, record.ID), types.ActionTripResubmitted)

		if err := s.deps.Sink.Save(tripCtx, &record); err != nil {
			result.Failed[record.ID] = err.Error()
			p.Attempts++
			p.LastError = err.Error()
			if putErr := s.deps.Pending.Put(tripCtx, p); putErr != nil {
				s.log.Error(tripCtx, "failed to update retained trip", putErr)
			}
			s.log.Warn(tripCtx, "resubmission failed", "error", err.Error(), "attempts", p.Attempts)
			continue
		}

		if err := s.deps.Pending.Delete(tripCtx, record.ID); err != nil {
			s.log.Error(tripCtx, "trip saved but could not be removed from pending store", err)
		}
		result.Saved = append(result.Saved, record.ID)
		s.announce(tripCtx, &record)
		s.log.Info(tripCtx, "trip resubmitted")
	}

	return result, nil
}

// Shutdown stops every tracking session so in-progress trips are finalized.
func (s *Service) Shutdown(ctx context.Context) {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		if sess.State() != types.StateTracking {
			continue
		}
		if _, err := s.Stop(ctx, sess.userID); err != nil && !errors.Is(err, types.ErrNothingToSave) {
			s.log.Error(wrap.ErrorCtx(ctx, err), "failed to finalize trip on shutdown", err, "user_id", sess.userID)
		}
	}
}
