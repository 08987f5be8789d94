package types

type ServiceMode string

// Tracker - serves the live tracking API and owns in-progress trip sessions
// Resubmit - one-shot run pushing retained trip records to the trip store
const (
	TrackerService  ServiceMode = "tracker"
	ResubmitService ServiceMode = "resubmit"
)

// SessionState is the lifecycle state of a trip session
type SessionState string

func (s SessionState) String() string {
	return string(s)
}

const (
	StateIdle     SessionState = "IDLE"
	StateTracking SessionState = "TRACKING"
	StateStopped  SessionState = "STOPPED"
)

// Rating is the five step scale used for route efficiency and GPS accuracy
type Rating string

const (
	RatingExcellent Rating = "Excellent"
	RatingGood      Rating = "Good"
	RatingFair      Rating = "Fair"
	RatingPoor      Rating = "Poor"
	RatingVeryPoor  Rating = "Very Poor"
)

// SourceKind selects where position fixes come from
type SourceKind string

const (
	SourceWebsocket SourceKind = "websocket"
	SourceRabbitMQ  SourceKind = "rabbitmq"
	SourceMQTT      SourceKind = "mqtt"
)

// TripEvent is published after a trip record is stored
type TripEvent string

func (e TripEvent) String() string {
	return string(e)
}

const (
	EventTripCompleted TripEvent = "TRIP_COMPLETED"
)

// UserRole is read from the access token
type UserRole string

func (r UserRole) String() string {
	return string(r)
}

const (
	DriverRole UserRole = "DRIVER"
	AdminRole  UserRole = "ADMIN"
)
