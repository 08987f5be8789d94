package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Temutjin2k/triplog/internal/domain/types"
)

// UnknownAccuracyMeters is assumed when a fix arrives without an accuracy estimate
const UnknownAccuracyMeters = 999.0

// Position is a single GPS fix as reported by the device.
// SpeedMps and HeadingDegrees are optional and nil when the device did not report them.
type Position struct {
	Latitude       float64
	Longitude      float64
	Timestamp      time.Time
	AccuracyMeters float64
	SpeedMps       *float64
	HeadingDegrees *float64
}

// positionWire is the JSON form; timestamp travels as unix milliseconds
type positionWire struct {
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	Timestamp      int64    `json:"timestamp"`
	AccuracyMeters *float64 `json:"accuracy,omitempty"`
	SpeedMps       *float64 `json:"speed,omitempty"`
	HeadingDegrees *float64 `json:"heading,omitempty"`
}

func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal(positionWire{
		Latitude:       &p.Latitude,
		Longitude:      &p.Longitude,
		Timestamp:      p.Timestamp.UnixMilli(),
		AccuracyMeters: &p.AccuracyMeters,
		SpeedMps:       p.SpeedMps,
		HeadingDegrees: p.HeadingDegrees,
	})
}

func (p *Position) UnmarshalJSON(data []byte) error {
	var w positionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	// a missing coordinate would decode as 0, which is a valid point
	if w.Latitude == nil || w.Longitude == nil {
		return fmt.Errorf("%w: latitude and longitude are required", types.ErrInvalidCoordinates)
	}
	accuracy := UnknownAccuracyMeters
	if w.AccuracyMeters != nil && *w.AccuracyMeters > 0 {
		accuracy = *w.AccuracyMeters
	}
	// fixes without a device timestamp are stamped on arrival
	ts := time.Now()
	if w.Timestamp > 0 {
		ts = time.UnixMilli(w.Timestamp)
	}
	*p = Position{
		Latitude:       *w.Latitude,
		Longitude:      *w.Longitude,
		Timestamp:      ts,
		AccuracyMeters: accuracy,
		SpeedMps:       w.SpeedMps,
		HeadingDegrees: w.HeadingDegrees,
	}
	return nil
}

// Coordinates returns the stored form of the position
func (p Position) Coordinates() Coordinates {
	return Coordinates{Lat: p.Latitude, Lng: p.Longitude, Accuracy: p.AccuracyMeters}
}

// DistanceRequest is one pair of accepted fixes waiting for reconciliation
type DistanceRequest struct {
	From Position
	To   Position
}

// Route is the answer of a routing provider
type Route struct {
	DistanceKm  float64
	DurationMin float64
}
