package drone

import "time"

const (
	EventTakeoff  EventType = "TAKEOFF"
	EventLanding  EventType = "LANDING"
	EventMovement EventType = "MOVEMENT"
	EventScan     EventType = "SCAN"
	EventSpraying EventType = "SPRAYING"
)

// EventType classifies flight log entries.
type EventType string

// LogEntry is one record of the append-only flight audit trail. Each entry
// captures the drone's position and resource levels at the moment of the
// event.
type LogEntry struct {
	Timestamp    time.Time
	Event        EventType
	Description  string
	X            float64
	Y            float64
	Altitude     float64
	BatteryLevel float64
	SprayLevel   float64
}
