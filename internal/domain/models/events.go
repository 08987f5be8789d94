package models

import (
	"time"

	"github.com/Temutjin2k/triplog/internal/domain/types"
)

// TripCompletedEvent is published after a trip record is stored
type TripCompletedEvent struct {
	Type       types.TripEvent `json:"type"`
	TripID     string          `json:"trip_id"`
	UserID     string          `json:"user_id"`
	DistanceKm float64         `json:"distance_km"`
	Duration   int64           `json:"duration_seconds"`
	StartTime  time.Time       `json:"start_time"`
	EndTime    time.Time       `json:"end_time"`
	Timestamp  time.Time       `json:"timestamp"`
}

// PositionMessage is a fix published by a telematics unit or a phone through a broker
type PositionMessage struct {
	UserID   string   `json:"user_id"`
	Position Position `json:"position"`
}
