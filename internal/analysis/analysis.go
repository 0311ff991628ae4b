// Package analysis defines the crop analysis capabilities the mission core
// consumes. Real implementations wrap an image classification model and an
// NDVI pipeline; the simulator ships deterministic stand-ins driven by a
// seedable random source. The core only ever depends on the interfaces and
// never assumes a specific model format.
package analysis

import (
	"context"
	"time"

	"github.com/smartfarm/agridrone/internal/field"
)

// Frame is a single simulated capture of a zone, standing in for the
// multispectral imagery a real drone camera would produce.
type Frame struct {
	ZoneID     string
	CapturedAt time.Time

	// Ground truth hints the simulation folds into the assessment.
	Health field.HealthStatus
	NDVI   float64
}

// HealthAssessment is the result of classifying a zone capture.
type HealthAssessment struct {
	Status        field.HealthStatus             `json:"status"`
	Confidence    float64                        `json:"confidence"`
	HealthScore   float64                        `json:"health_score"`
	Probabilities map[field.HealthStatus]float64 `json:"probabilities"`
}

// VegetationAssessment is the result of analyzing an NDVI grid.
type VegetationAssessment struct {
	MeanNDVI      float64            `json:"mean_ndvi"`
	Status        string             `json:"health_status"` // "Good" or "Fair"
	VegetationPct float64            `json:"vegetation_percentage"`
	Distribution  map[string]float64 `json:"distribution"`
}

// HealthClassifier assesses crop health from a zone capture.
type HealthClassifier interface {
	Classify(ctx context.Context, frame Frame) (HealthAssessment, error)
}

// VegetationAnalyzer derives vegetation health from an NDVI sample grid.
type VegetationAnalyzer interface {
	Analyze(ctx context.Context, ndvi []float64) (VegetationAssessment, error)
}
