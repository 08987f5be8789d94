package tracking

import (
	"math"
	"testing"
)

func TestSpeedEstimatorWindow(t *testing.T) {
	s := NewSpeedEstimator(5, 50)

	if s.Average() != 0 {
		t.Fatalf("empty average = %v", s.Average())
	}

	for i, v := range []float64{10, 20, 30, 40, 50, 60, 70} {
		s.Push(at(0, 0, int64(i)), v)
		if s.Len() > 5 {
			t.Fatalf("window grew to %d", s.Len())
		}
	}

	samples := s.Samples()
	want := []float64{30, 40, 50, 60, 70}
	for i := range want {
		if samples[i] != want[i] {
			t.Fatalf("samples = %v, want %v", samples, want)
		}
	}
	if s.Average() != 50 {
		t.Fatalf("average = %v, want 50", s.Average())
	}
	if s.Peak() != 70 {
		t.Fatalf("peak = %v, want 70", s.Peak())
	}
}

func TestSpeedEstimatorDisplaySpeed(t *testing.T) {
	mps := 10.0
	negative := -1.0

	tests := []struct {
		name     string
		speed    *float64
		accuracy float64
		computed float64
		want     float64
	}{
		{"device speed used when accurate", &mps, 10, 99, 36},
		{"computed when device speed missing", nil, 10, 42, 42},
		{"computed when accuracy is 50m", &mps, 50, 42, 42},
		{"computed when device speed negative", &negative, 10, 42, 42},
		{"negative computed clamps to zero", nil, 10, -5, 0},
		{"NaN computed clamps to zero", nil, 10, math.NaN(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSpeedEstimator(5, 50)
			fix := at(0, 0, 0)
			fix.SpeedMps = tt.speed
			fix.AccuracyMeters = tt.accuracy

			got := s.Push(fix, tt.computed)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("Push = %v, want %v", got, tt.want)
			}
			if s.Average() < 0 {
				t.Fatalf("negative average")
			}
		})
	}
}

func TestSpeedEstimatorVariation(t *testing.T) {
	s := NewSpeedEstimator(5, 50)
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		s.Push(at(0, 0, 0), v)
	}
	if math.Abs(s.Variation()-2) > 1e-9 {
		t.Fatalf("variation = %v, want 2", s.Variation())
	}
}
