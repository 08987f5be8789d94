package tracking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Temutjin2k/triplog/internal/domain/models"
	"github.com/Temutjin2k/triplog/internal/domain/types"
)

var (
	fixA = models.Position{Latitude: 60.1699, Longitude: 24.9384, Timestamp: time.UnixMilli(0), AccuracyMeters: 10}
	fixB = models.Position{Latitude: 60.1705, Longitude: 24.9390, Timestamp: time.UnixMilli(4000), AccuracyMeters: 20}
	fixC = models.Position{Latitude: 60.1705, Longitude: 24.9390, Timestamp: time.UnixMilli(9000), AccuracyMeters: 20}
)

func at(lat, lng float64, ms int64) models.Position {
	return models.Position{Latitude: lat, Longitude: lng, Timestamp: time.UnixMilli(ms), AccuracyMeters: 10}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Cooldown = time.Millisecond
	cfg.RemoteTimeout = time.Second
	cfg.TickInterval = 0
	cfg.AddressPause = 0
	cfg.CompareRoute = false
	cfg.FinalizeTimeout = 5 * time.Second
	return cfg
}

// recordingProvider records call order and the highest number of concurrent calls
type recordingProvider struct {
	mu       sync.Mutex
	calls    []models.DistanceRequest
	inFlight int
	maxIn    int
	delay    time.Duration
	distance float64
	err      error
}

func (p *recordingProvider) Route(ctx context.Context, from, to models.Position, _ RouteOptions) (models.Route, error) {
	p.mu.Lock()
	p.calls = append(p.calls, models.DistanceRequest{From: from, To: to})
	p.inFlight++
	if p.inFlight > p.maxIn {
		p.maxIn = p.inFlight
	}
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.inFlight--
		p.mu.Unlock()
	}()

	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return models.Route{}, ctx.Err()
		}
	}
	if p.err != nil {
		return models.Route{}, p.err
	}
	return models.Route{DistanceKm: p.distance, DurationMin: 1}, nil
}

func (p *recordingProvider) Calls() []models.DistanceRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.DistanceRequest, len(p.calls))
	copy(out, p.calls)
	return out
}

// hangingProvider never answers before the context ends
type hangingProvider struct{}

func (hangingProvider) Route(ctx context.Context, _, _ models.Position, _ RouteOptions) (models.Route, error) {
	<-ctx.Done()
	return models.Route{}, ctx.Err()
}

type staticResolver struct{}

func (staticResolver) Resolve(_ context.Context, lat, lng float64) string {
	if lat > 60.17 {
		return "Mannerheimintie 1, Helsinki"
	}
	return "Aleksanterinkatu 2, Helsinki"
}

type fakeSink struct {
	mu    sync.Mutex
	saved []models.TripRecord
	err   error
}

func (s *fakeSink) Save(_ context.Context, trip *models.TripRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, *trip)
	return nil
}

func (s *fakeSink) Saved() []models.TripRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.TripRecord(nil), s.saved...)
}

type memPending struct {
	mu    sync.Mutex
	trips map[string]models.PendingTrip
}

func newMemPending() *memPending {
	return &memPending{trips: map[string]models.PendingTrip{}}
}

func (m *memPending) Put(_ context.Context, trip models.PendingTrip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.Record.ID] = trip
	return nil
}

func (m *memPending) List(_ context.Context, userID string) ([]models.PendingTrip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PendingTrip
	for _, t := range m.trips {
		if userID == "" || t.Record.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memPending) Get(_ context.Context, tripID string) (*models.PendingTrip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[tripID]
	if !ok {
		return nil, types.ErrTripNotFound
	}
	return &t, nil
}

func (m *memPending) Delete(_ context.Context, tripID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.trips, tripID)
	return nil
}

type chanSource struct {
	ch chan models.Position
}

func (s *chanSource) Subscribe(_ context.Context, _ string) (<-chan models.Position, error) {
	return s.ch, nil
}

type failingSource struct{}

func (failingSource) Subscribe(context.Context, string) (<-chan models.Position, error) {
	return nil, errors.New("broker down")
}

type countingNotifier struct {
	mu    sync.Mutex
	snaps []models.Snapshot
}

func (n *countingNotifier) Notify(_ context.Context, _ string, snap models.Snapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.snaps = append(n.snaps, snap)
}

func (n *countingNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.snaps)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []models.TripCompletedEvent
}

func (p *fakePublisher) PublishTripCompleted(_ context.Context, e models.TripCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *fakePublisher) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}
