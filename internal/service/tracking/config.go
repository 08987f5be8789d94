package tracking

import (
	"time"

	"github.com/Temutjin2k/triplog/internal/domain/models"
)

// Config holds the tunables of a trip session
type Config struct {
	MaxAccuracyMeters   float64
	FastSpeedKmh        float64
	FastInterval        time.Duration
	SlowInterval        time.Duration
	DeviceSpeedAccuracy float64
	SpeedWindow         int
	Cooldown            time.Duration
	RemoteTimeout       time.Duration
	TickInterval        time.Duration
	AddressPause        time.Duration
	Profile             string
	Preference          string
	CompareRoute        bool
	Purpose             string
	FinalizeTimeout     time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxAccuracyMeters:   300,
		FastSpeedKmh:        30,
		FastInterval:        5 * time.Second,
		SlowInterval:        8 * time.Second,
		DeviceSpeedAccuracy: 50,
		SpeedWindow:         5,
		Cooldown:            time.Second,
		RemoteTimeout:       10 * time.Second,
		TickInterval:        time.Second,
		AddressPause:        time.Second,
		Profile:             "driving-car",
		Preference:          "shortest",
		CompareRoute:        true,
		Purpose:             models.DefaultPurpose,
		FinalizeTimeout:     2 * time.Minute,
	}
}
