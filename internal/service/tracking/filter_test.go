package tracking

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Temutjin2k/triplog/internal/domain/models"
	"github.com/Temutjin2k/triplog/internal/domain/types"
)

func TestFilterCheck(t *testing.T) {
	f := NewFilter(DefaultConfig())

	tests := []struct {
		name       string
		candidate  models.Position
		anchor     *models.Position
		anchorTime time.Time
		wantKind   DecisionKind
		wantErr    error
	}{
		{
			name:      "first fix starts the trip",
			candidate: fixA,
			wantKind:  DecisionStart,
		},
		{
			name:      "invalid latitude",
			candidate: models.Position{Latitude: 91, Longitude: 0, AccuracyMeters: 5},
			wantErr:   types.ErrInvalidCoordinates,
		},
		{
			name:      "invalid longitude even without anchor",
			candidate: models.Position{Latitude: 0, Longitude: 180.1, AccuracyMeters: 5},
			wantErr:   types.ErrInvalidCoordinates,
		},
		{
			name:      "accuracy above 300m",
			candidate: models.Position{Latitude: 1, Longitude: 1, AccuracyMeters: 300.5},
			wantErr:   types.ErrLowAccuracy,
		},
		{
			name:      "accuracy exactly 300m passes",
			candidate: models.Position{Latitude: 1, Longitude: 1, AccuracyMeters: 300},
			wantKind:  DecisionStart,
		},
		{
			name:      "NaN accuracy",
			candidate: models.Position{Latitude: 1, Longitude: 1, AccuracyMeters: math.NaN()},
			wantErr:   types.ErrLowAccuracy,
		},
		{
			name:       "fast fix before 5s is deferred",
			candidate:  fixB,
			anchor:     &fixA,
			anchorTime: fixA.Timestamp,
			wantErr:    types.ErrSampleTooSoon,
		},
		{
			name:       "slow fix after 9s is accepted",
			candidate:  fixC,
			anchor:     &fixA,
			anchorTime: fixA.Timestamp,
			wantKind:   DecisionAccept,
		},
		{
			name:       "stationary fix at 6s is deferred by the slow interval",
			candidate:  at(60.1699, 24.9384, 6000),
			anchor:     &fixA,
			anchorTime: fixA.Timestamp,
			wantErr:    types.ErrSampleTooSoon,
		},
		{
			name:       "fast fix at 5s is accepted",
			candidate:  at(60.1800, 24.9384, 5000),
			anchor:     &fixA,
			anchorTime: fixA.Timestamp,
			wantKind:   DecisionAccept,
		},
		{
			name:       "fix older than anchor is deferred",
			candidate:  at(60.1800, 24.9384, -1000),
			anchor:     &fixA,
			anchorTime: fixA.Timestamp,
			wantErr:    types.ErrSampleTooSoon,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := f.Check(tt.candidate, tt.anchor, tt.anchorTime)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.Kind != tt.wantKind {
				t.Fatalf("kind = %v, want %v", d.Kind, tt.wantKind)
			}
		})
	}
}

func TestFilterUsesComputedSpeedForInterval(t *testing.T) {
	f := NewFilter(DefaultConfig())

	// device claims to stand still but the displacement says otherwise
	still := 0.0
	b := fixB
	b.SpeedMps = &still
	b.Timestamp = time.UnixMilli(5000)

	d, err := f.Check(b, &fixA, fixA.Timestamp)
	if err != nil {
		t.Fatalf("expected accept with fast interval, got %v", err)
	}
	if d.SpeedKmh <= 30 {
		t.Fatalf("computed speed = %v, want > 30", d.SpeedKmh)
	}
}

func TestMinInterval(t *testing.T) {
	f := NewFilter(DefaultConfig())
	if got := f.MinInterval(30); got != 8*time.Second {
		t.Fatalf("MinInterval(30) = %v", got)
	}
	if got := f.MinInterval(30.01); got != 5*time.Second {
		t.Fatalf("MinInterval(30.01) = %v", got)
	}
}
