package geo

import (
	"math"
	"testing"
	"time"

	"github.com/Temutjin2k/triplog/internal/domain/models"
)

func pos(lat, lng float64) models.Position {
	return models.Position{Latitude: lat, Longitude: lng}
}

func TestGreatCircleDistanceKm(t *testing.T) {
	tests := []struct {
		name    string
		a, b    models.Position
		want    float64
		epsilon float64
	}{
		{"identical", pos(60.1699, 24.9384), pos(60.1699, 24.9384), 0, 0},
		{"one degree of latitude", pos(0, 0), pos(1, 0), 111.195, 0.001},
		{"helsinki to tampere", pos(60.1699, 24.9384), pos(61.4978, 23.7610), 160.6, 1},
		{"antipodal", pos(0, 0), pos(0, 180), math.Pi * EarthRadiusMeters / 1000, 1e-6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GreatCircleDistanceKm(tt.a, tt.b)
			if math.Abs(got-tt.want) > tt.epsilon {
				t.Fatalf("GreatCircleDistanceKm = %.6f, want %.6f", got, tt.want)
			}
			if back := GreatCircleDistanceKm(tt.b, tt.a); back != got {
				t.Fatalf("distance not symmetric: %.9f vs %.9f", got, back)
			}
			if got < 0 {
				t.Fatalf("negative distance")
			}
		})
	}
}

func TestIsValidCoordinate(t *testing.T) {
	tests := []struct {
		lat, lng float64
		want     bool
	}{
		{0, 0, true},
		{90, 180, true},
		{-90, -180, true},
		{90.0001, 0, false},
		{0, -180.5, false},
		{math.NaN(), 0, false},
		{0, math.NaN(), false},
	}
	for _, tt := range tests {
		if got := IsValidCoordinate(tt.lat, tt.lng); got != tt.want {
			t.Fatalf("IsValidCoordinate(%v, %v) = %v, want %v", tt.lat, tt.lng, got, tt.want)
		}
	}
}

func TestSpeedKmh(t *testing.T) {
	if got := SpeedKmh(1, 0); got != 0 {
		t.Fatalf("zero elapsed should give 0, got %v", got)
	}
	if got := SpeedKmh(1, -time.Second); got != 0 {
		t.Fatalf("negative elapsed should give 0, got %v", got)
	}
	if got := SpeedKmh(30, 30*time.Minute); math.Abs(got-60) > 1e-9 {
		t.Fatalf("SpeedKmh = %v, want 60", got)
	}
	if got := MpsToKmh(10); math.Abs(got-36) > 1e-9 {
		t.Fatalf("MpsToKmh = %v, want 36", got)
	}
}
