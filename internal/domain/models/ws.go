package models

// StatusWebSocketMessage is sent to the tracker websocket
type StatusWebSocketMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// TrackerInboundMessage is read from the tracker websocket
type TrackerInboundMessage struct {
	Type     string    `json:"type"`
	Position *Position `json:"position,omitempty"`
}

const (
	MessageTypeStatus = "status"
	MessageTypeFix    = "fix"
	MessageTypeResult = "fix_result"
	MessageTypeError  = "error"
)
