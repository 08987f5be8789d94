package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Temutjin2k/triplog/internal/domain/models"
	"github.com/Temutjin2k/triplog/internal/domain/types"
	"github.com/Temutjin2k/triplog/pkg/logger"
)

func newTestService(deps Deps, pub EventPublisher) *Service {
	if deps.Addresses == nil {
		deps.Addresses = staticResolver{}
	}
	return NewService(context.Background(), testConfig(), deps, pub, logger.Discard())
}

func TestServiceTripAnnounced(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(Deps{Distance: &recordingProvider{distance: 3}, Sink: &fakeSink{}}, pub)
	ctx := context.Background()

	if _, err := svc.PushFix(ctx, "u1", fixA); !errors.Is(err, types.ErrSessionNotTracking) {
		t.Fatalf("PushFix without session: %v", err)
	}
	if snap := svc.Current(ctx, "u1"); snap.State != types.StateIdle {
		t.Fatalf("current = %+v", snap)
	}

	if _, err := svc.Start(ctx, "u1"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := svc.PushFix(ctx, "u1", fixA); err != nil {
		t.Fatalf("PushFix: %v", err)
	}
	if _, err := svc.PushFix(ctx, "u1", fixC); err != nil {
		t.Fatalf("PushFix: %v", err)
	}

	// another user's trip is independent
	if _, err := svc.Start(ctx, "u2"); err != nil {
		t.Fatalf("Start u2: %v", err)
	}

	record, err := svc.Stop(ctx, "u1")
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if record.DistanceKm != 3 {
		t.Fatalf("distance = %v", record.DistanceKm)
	}
	if pub.Count() != 1 {
		t.Fatalf("published %d events", pub.Count())
	}
	if svc.Current(ctx, "u2").State != types.StateTracking {
		t.Fatalf("u2 session affected by u1 stop")
	}

	svc.Shutdown(ctx)
	if svc.Current(ctx, "u2").State != types.StateIdle {
		t.Fatalf("shutdown did not stop u2")
	}
}

// flakySink fails until healed
type flakySink struct {
	fakeSink
	failing bool
}

func (f *flakySink) Save(ctx context.Context, trip *models.TripRecord) error {
	f.mu.Lock()
	failing := f.failing
	f.mu.Unlock()
	if failing {
		return errors.New("db down")
	}
	return f.fakeSink.Save(ctx, trip)
}

func TestServiceResubmit(t *testing.T) {
	pending := newMemPending()
	sink := &flakySink{failing: true}
	pub := &fakePublisher{}
	svc := newTestService(Deps{Sink: sink, Pending: pending}, pub)
	ctx := context.Background()

	for i, id := range []string{"t1", "t2"} {
		_ = pending.Put(ctx, models.PendingTrip{
			Record:   models.TripRecord{ID: id, UserID: "u1", DistanceKm: float64(i + 1)},
			Attempts: 1,
			StoredAt: time.Unix(int64(i), 0),
		})
	}
	_ = pending.Put(ctx, models.PendingTrip{Record: models.TripRecord{ID: "other", UserID: "u2"}, Attempts: 1})

	res, err := svc.Resubmit(ctx, "u1")
	if err != nil {
		t.Fatalf("Resubmit: %v", err)
	}
	if len(res.Failed) != 2 || len(res.Saved) != 0 {
		t.Fatalf("result = %+v", res)
	}
	kept, _ := pending.Get(ctx, "t1")
	if kept.Attempts != 2 {
		t.Fatalf("attempts = %d, want 2", kept.Attempts)
	}

	sink.mu.Lock()
	sink.failing = false
	sink.mu.Unlock()

	res, err = svc.Resubmit(ctx, "u1")
	if err != nil {
		t.Fatalf("Resubmit: %v", err)
	}
	if len(res.Saved) != 2 || len(res.Failed) != 0 {
		t.Fatalf("result = %+v", res)
	}
	if _, err := pending.Get(ctx, "t1"); !errors.Is(err, types.ErrTripNotFound) {
		t.Fatalf("saved trip still pending")
	}
	if _, err := pending.Get(ctx, "other"); err != nil {
		t.Fatalf("other user's trip was touched: %v", err)
	}
	if pub.Count() != 2 {
		t.Fatalf("published %d events", pub.Count())
	}
}

func TestServicePendingPaging(t *testing.T) {
	pending := newMemPending()
	svc := newTestService(Deps{Sink: &fakeSink{}, Pending: pending}, nil)
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c"} {
		_ = pending.Put(ctx, models.PendingTrip{
			Record:   models.TripRecord{ID: id, UserID: "u1"},
			StoredAt: time.Unix(int64(i), 0),
		})
	}

	f, _ := models.NewFilters(1, 2, "-stored_at", []string{"-stored_at", "stored_at"})
	page, meta, err := svc.Pending(ctx, "u1", f)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(page) != 2 || page[0].Record.ID != "c" || page[1].Record.ID != "b" {
		t.Fatalf("page = %+v", page)
	}
	if meta.TotalRecords != 3 || meta.LastPage != 2 {
		t.Fatalf("meta = %+v", meta)
	}
}
