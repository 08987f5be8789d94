package tracking

import (
	"time"

	"github.com/Temutjin2k/triplog/internal/domain/models"
	"github.com/Temutjin2k/triplog/internal/domain/types"
	"github.com/Temutjin2k/triplog/internal/service/geo"
)

type DecisionKind int

const (
	// DecisionStart marks the first accepted fix of a trip
	DecisionStart DecisionKind = iota + 1
	// DecisionAccept means the fix passed the adaptive interval and must be reconciled
	DecisionAccept
)

// Decision is the outcome of a fix that was not dropped
type Decision struct {
	Kind     DecisionKind
	SpeedKmh float64
	Elapsed  time.Duration
}

// Filter drops invalid, inaccurate and too frequent fixes.
// It only reads the anchor; moving it is the reconciler's job.
type Filter struct {
	maxAccuracy  float64
	fastSpeedKmh float64
	fastInterval time.Duration
	slowInterval time.Duration
}

func NewFilter(cfg Config) Filter {
	return Filter{
		maxAccuracy:  cfg.MaxAccuracyMeters,
		fastSpeedKmh: cfg.FastSpeedKmh,
		fastInterval: cfg.FastInterval,
		slowInterval: cfg.SlowInterval,
	}
}

// Check classifies candidate against the last accepted fix. anchor is nil before the trip start.
func (f Filter) Check(candidate models.Position, anchor *models.Position, anchorTime time.Time) (Decision, error) {
	if !geo.IsValidCoordinate(candidate.Latitude, candidate.Longitude) {
		return Decision{}, types.ErrInvalidCoordinates
	}
	// written as a negation so NaN accuracy is rejected too
	if !(candidate.AccuracyMeters <= f.maxAccuracy) {
		return Decision{}, types.ErrLowAccuracy
	}

	if anchor == nil {
		return Decision{Kind: DecisionStart}, nil
	}

	elapsed := candidate.Timestamp.Sub(anchorTime)
	speed := geo.SpeedKmh(geo.GreatCircleDistanceKm(*anchor, candidate), elapsed)

	if elapsed < f.MinInterval(speed) {
		return Decision{}, types.ErrSampleTooSoon
	}

	return Decision{Kind: DecisionAccept, SpeedKmh: speed, Elapsed: elapsed}, nil
}

// MinInterval is the adaptive sampling interval for the given speed.
func (f Filter) MinInterval(speedKmh float64) time.Duration {
	if speedKmh > f.fastSpeedKmh {
		return f.fastInterval
	}
	return f.slowInterval
}
