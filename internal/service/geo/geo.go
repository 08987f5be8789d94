package geo

import (
	"math"
	"time"

	"github.com/Temutjin2k/triplog/internal/domain/models"
)

const EarthRadiusMeters = 6371000.0

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// GreatCircleDistanceKm returns the haversine distance between two positions in kilometers.
func GreatCircleDistanceKm(a, b models.Position) float64 {
	return HaversineKm(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

// HaversineKm calculates the Haversine distance between two geographic points.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := degreesToRadians(lat1)
	lat2Rad := degreesToRadians(lat2)
	deltaLat := degreesToRadians(lat2 - lat1)
	deltaLon := degreesToRadians(lon2 - lon1)

	a := math.Pow(math.Sin(deltaLat/2), 2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Pow(math.Sin(deltaLon/2), 2)

	// rounding may push a slightly above 1 for antipodal points
	a = math.Min(1, math.Max(0, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c / 1000
}

// IsValidCoordinate reports whether lat/lng lie within WGS84 bounds. NaN is invalid.
func IsValidCoordinate(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// SpeedKmh converts a displacement over elapsed time to km/h. Zero when elapsed is not positive.
func SpeedKmh(distanceKm float64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return distanceKm / elapsed.Hours()
}

// MpsToKmh converts meters per second to kilometers per hour.
func MpsToKmh(mps float64) float64 {
	return mps * 3.6
}
