package models

import (
	"time"

	"github.com/Temutjin2k/triplog/internal/domain/types"
)

// DefaultPurpose is used when the client does not name one
const DefaultPurpose = "työ"

type Coordinates struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Accuracy float64 `json:"accuracy"`
}

type TripLocation struct {
	Address     string      `json:"address"`
	Coordinates Coordinates `json:"coordinates"`
}

// RouteAnalysis compares the driven distance with the provider's optimal route
type RouteAnalysis struct {
	OptimalDistanceKm        float64      `json:"optimalDistance"`
	ActualDistanceKm         float64      `json:"actualDistance"`
	DifferenceKm             float64      `json:"routeDifference"`
	EfficiencyPercent        float64      `json:"efficiencyPercent"`
	EstimatedDurationMinutes float64      `json:"estimatedDuration"`
	Rating                   types.Rating `json:"routeRating"`
}

// TrackingQuality summarises how reliable the recorded positions were
type TrackingQuality struct {
	AverageAccuracy float64      `json:"averageAccuracy"`
	PositionCount   int          `json:"positionCount"`
	RejectedCount   int          `json:"rejectedCount"`
	SpeedVariation  float64      `json:"speedVariation"`
	MaxSpeed        float64      `json:"maxSpeed"`
	AverageSpeed    float64      `json:"averageSpeed"`
	GPSRating       types.Rating `json:"gpsRating"`
}

// TripRecord is assembled once when a trip stops and is not changed afterwards
type TripRecord struct {
	ID              string           `json:"id"`
	UserID          string           `json:"userId"`
	Date            string           `json:"date"`
	StartTime       time.Time        `json:"startTime"`
	EndTime         time.Time        `json:"endTime"`
	DurationSeconds int64            `json:"duration"`
	DistanceKm      float64          `json:"distance"`
	StartLocation   TripLocation     `json:"startLocation"`
	EndLocation     TripLocation     `json:"endLocation"`
	Purpose         string           `json:"purpose"`
	RouteAnalysis   *RouteAnalysis   `json:"routeAnalysis,omitempty"`
	TrackingQuality *TrackingQuality `json:"trackingQuality,omitempty"`
}

// PendingTrip is a record the trip store refused, kept for resubmission
type PendingTrip struct {
	Record    TripRecord `json:"record"`
	LastError string     `json:"lastError"`
	Attempts  int        `json:"attempts"`
	StoredAt  time.Time  `json:"storedAt"`
}

// ResubmitResult lists the outcome per trip id
type ResubmitResult struct {
	Saved  []string          `json:"saved"`
	Failed map[string]string `json:"failed"`
}
