package tracking

import (
	"math"

	"github.com/Temutjin2k/triplog/internal/domain/models"
	"github.com/Temutjin2k/triplog/internal/service/geo"
)

// SpeedEstimator keeps a short moving window of display speeds.
type SpeedEstimator struct {
	window         []float64
	size           int
	deviceAccuracy float64
	peak           float64

	// running moments over every pushed sample
	n    int
	mean float64
	m2   float64
}

func NewSpeedEstimator(size int, deviceAccuracy float64) *SpeedEstimator {
	if size <= 0 {
		size = 5
	}
	return &SpeedEstimator{
		window:         make([]float64, 0, size),
		size:           size,
		deviceAccuracy: deviceAccuracy,
	}
}

// Push records the display speed of an accepted fix and returns it.
// Device speed wins when present, non-negative and the fix is accurate enough.
func (s *SpeedEstimator) Push(fix models.Position, computedKmh float64) float64 {
	speed := computedKmh
	if fix.SpeedMps != nil && *fix.SpeedMps >= 0 && fix.AccuracyMeters < s.deviceAccuracy {
		speed = geo.MpsToKmh(*fix.SpeedMps)
	}
	if !(speed > 0) || math.IsInf(speed, 1) {
		speed = 0
	}

	if len(s.window) == s.size {
		copy(s.window, s.window[1:])
		s.window = s.window[:s.size-1]
	}
	s.window = append(s.window, speed)

	if speed > s.peak {
		s.peak = speed
	}

	s.n++
	delta := speed - s.mean
	s.mean += delta / float64(s.n)
	s.m2 += delta * (speed - s.mean)

	return speed
}

// Average is the arithmetic mean of the window, 0 when empty.
func (s *SpeedEstimator) Average() float64 {
	if len(s.window) == 0 {
		return 0
	}
	var sum float64
	for _, v := range s.window {
		sum += v
	}
	return sum / float64(len(s.window))
}

// Peak is the highest display speed pushed since creation.
func (s *SpeedEstimator) Peak() float64 {
	return s.peak
}

// Variation is the standard deviation of every speed pushed since creation.
func (s *SpeedEstimator) Variation() float64 {
	if s.n < 2 {
		return 0
	}
	return math.Sqrt(s.m2 / float64(s.n))
}

func (s *SpeedEstimator) Len() int {
	return len(s.window)
}

// Samples returns a copy of the window, oldest first.
func (s *SpeedEstimator) Samples() []float64 {
	out := make([]float64, len(s.window))
	copy(out, s.window)
	return out
}
