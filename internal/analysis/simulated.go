package analysis

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"

	"github.com/smartfarm/agridrone/internal/field"
)

const (
	// NDVI below this reads as bare soil, above vegetationNDVI as dense cover
	bareSoilNDVI   = 0.2
	vegetationNDVI = 0.5
)

// SimulatedClassifier folds a zone's known condition into a health
// assessment with bounded random perturbation, standing in for an image
// model. The random source is injected so tests can force determinism.
type SimulatedClassifier struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSimulatedClassifier(rng *rand.Rand) (*SimulatedClassifier, error) {
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	return &SimulatedClassifier{rng: rng}, nil
}

func (c *SimulatedClassifier) Classify(_ context.Context, frame Frame) (HealthAssessment, error) {
	c.mu.Lock()
	confidence := 0.7 + c.rng.Float64()*0.25
	perturbation := c.rng.Float64()*0.4 - 0.2
	c.mu.Unlock()

	probabilities := make(map[field.HealthStatus]float64, len(field.Statuses))
	rest := (1 - confidence) / float64(len(field.Statuses)-1)
	for _, s := range field.Statuses {
		if s == frame.Health {
			probabilities[s] = confidence
		} else {
			probabilities[s] = rest
		}
	}

	return HealthAssessment{
		Status:        frame.Health,
		Confidence:    confidence,
		HealthScore:   math.Min(1, math.Max(0, frame.NDVI+perturbation)),
		Probabilities: probabilities,
	}, nil
}

// SimulatedAnalyzer computes vegetation health from an NDVI grid the way
// the reference pipeline does: mean index, Good/Fair status and a coarse
// cover distribution.
type SimulatedAnalyzer struct{}

func NewSimulatedAnalyzer() *SimulatedAnalyzer {
	return &SimulatedAnalyzer{}
}

func (a *SimulatedAnalyzer) Analyze(_ context.Context, ndvi []float64) (VegetationAssessment, error) {
	if len(ndvi) == 0 {
		return VegetationAssessment{}, errors.New("empty NDVI grid")
	}

	var sum float64
	distribution := map[string]float64{"bare": 0, "sparse": 0, "dense": 0}
	for _, v := range ndvi {
		v = math.Min(1, math.Max(-1, v))
		sum += v

		switch {
		case v < bareSoilNDVI:
			distribution["bare"]++
		case v < vegetationNDVI:
			distribution["sparse"]++
		default:
			distribution["dense"]++
		}
	}

	n := float64(len(ndvi))
	for k := range distribution {
		distribution[k] /= n
	}

	mean := sum / n
	status := "Fair"
	if mean > vegetationNDVI {
		status = "Good"
	}

	return VegetationAssessment{
		MeanNDVI:      mean,
		Status:        status,
		VegetationPct: math.Max(0, mean) * 100,
		Distribution:  distribution,
	}, nil
}
