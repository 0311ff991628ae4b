package telemetry

import (
	"time"
)

// Provider supplies drone status snapshots for publishing. Implementations
// must return torn-free snapshots: position, battery and flags captured
// under one mutual-exclusion boundary.
type Provider interface {
	Get() Snapshot
}

// Snapshot is the status of the drone at one instant, as exposed to the
// presentation and monitoring layer.
type Snapshot struct {
	Timestamp     time.Time `json:"timestamp"`
	X             float64   `json:"x"`
	Y             float64   `json:"y"`
	Altitude      float64   `json:"altitude"`
	BatteryLevel  float64   `json:"battery_level"`
	SprayLevel    float64   `json:"spray_level"`
	IsFlying      bool      `json:"is_flying"`
	IsScanning    bool      `json:"is_scanning"`
	IsSpraying    bool      `json:"is_spraying"`
	MissionActive bool      `json:"mission_active"`
	ZonesScanned  int       `json:"zones_scanned"`
	ActionsTaken  int       `json:"actions_taken"`
}
