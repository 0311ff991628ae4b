package field

import "time"

const (
	Healthy      HealthStatus = "Healthy"
	Diseased     HealthStatus = "Diseased"
	PestAffected HealthStatus = "Pest-affected"
)

// HealthStatus is the agronomic condition of a zone as assessed by the
// last scan.
type HealthStatus string

// Statuses lists all valid health statuses in a fixed order.
var Statuses = []HealthStatus{Healthy, Diseased, PestAffected}

func (s HealthStatus) Valid() bool {
	switch s {
	case Healthy, Diseased, PestAffected:
		return true
	}
	return false
}

// CropTypes are the crops a zone may grow in the simulation.
var CropTypes = []string{"Wheat", "Rice", "Corn", "Soybean", "Cotton"}

// Zone is a fixed-size grid cell of the field carrying its own agronomic
// state. Zones are created once at mission setup and never destroyed;
// Health, NDVI and Moisture are rewritten by scans, LastSprayed by executed
// interventions.
type Zone struct {
	ID       string  // Stable identifier, "Zone_<i>_<j>"
	CenterX  float64 // Center X coordinate in meters
	CenterY  float64 // Center Y coordinate in meters
	Width    float64 // Zone width in meters
	Height   float64 // Zone height in meters
	CropType string  // Crop grown in this zone

	Health      HealthStatus // Last assessed condition
	NDVI        float64      // Vegetation index in [-1, 1]
	Moisture    float64      // Soil moisture in percent, [0, 100]
	LastSprayed time.Time    // Zero until the first executed intervention
}
