package models

import (
	"time"

	"github.com/Temutjin2k/triplog/internal/domain/types"
)

// Snapshot is a read-only view of a trip session pushed to status listeners
type Snapshot struct {
	TripID          string             `json:"tripId,omitempty"`
	State           types.SessionState `json:"state"`
	StartTime       *time.Time         `json:"startTime,omitempty"`
	ElapsedSeconds  int64              `json:"elapsed"`
	DistanceKm      float64            `json:"distance"`
	AverageSpeedKmh float64            `json:"averageSpeed"`
	PeakSpeedKmh    float64            `json:"peakSpeed"`
	LastAccuracy    float64            `json:"accuracy"`
	AcceptedPoints  int                `json:"acceptedPoints"`
	RejectedPoints  int                `json:"rejectedPoints"`
	QueueDepth      int                `json:"queueDepth"`
	InFlight        bool               `json:"inFlight"`
}

// FixResult tells the client what happened to a pushed fix
type FixResult struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}
