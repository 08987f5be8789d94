package types

import "errors"

// Validation: the fix is dropped
var (
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrLowAccuracy        = errors.New("position accuracy too low")
)

// Rate limit deferral: the fix arrived before the adaptive interval elapsed
var ErrSampleTooSoon = errors.New("sample too soon")

// Remote providers
var (
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrProviderTimeout     = errors.New("provider timeout")
	ErrRouteNotFound       = errors.New("route not found")
	ErrAddressNotFound     = errors.New("address not found")
)

// Persistence
var (
	ErrTripNotSaved  = errors.New("trip not saved")
	ErrTripRejected  = errors.New("trip rejected")
	ErrTripNotFound  = errors.New("trip not found")
	ErrNothingToSave = errors.New("nothing to save")
)

// Session lifecycle
var (
	ErrSessionActive      = errors.New("session already tracking")
	ErrSessionNotTracking = errors.New("session is not tracking")
)

var ErrInvalidToken = errors.New("invalid token")
