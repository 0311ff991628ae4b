package mission

import (
	"time"

	"github.com/smartfarm/agridrone/internal/field"
)

// Recommendation thresholds over the scanned share of the field.
const (
	diseaseShareThreshold = 0.30
	pestShareThreshold    = 0.20
	lowNDVIThreshold      = 0.4
)

// SprayTotals aggregates executed interventions of one action type.
type SprayTotals struct {
	Count    int     `json:"count"`
	Quantity float64 `json:"total_quantity"`
}

// ResourceDeltas captures resource consumption over a mission.
type ResourceDeltas struct {
	BatteryConsumed float64 `json:"battery_consumed"`
	SprayConsumed   float64 `json:"spray_consumed"`
	SprayRemaining  float64 `json:"spray_remaining"`
}

// Summary is the mission report the reporter aggregates from the collected
// record streams.
type Summary struct {
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`

	ZonesScanned    int `json:"zones_scanned"`
	ZonesSprayed    int `json:"zones_sprayed"`
	SkippedCooldown int `json:"skipped_cooldown"`
	SkippedCapacity int `json:"skipped_capacity"`
	SkippedExhausted int `json:"skipped_exhausted"`

	HealthDistribution map[field.HealthStatus]int `json:"health_distribution"`
	MeanNDVI           float64                    `json:"mean_ndvi"`
	HealthyShare       float64                    `json:"healthy_share"`

	SprayByAction map[ActionType]SprayTotals `json:"spray_by_action"`
	SuccessRate   float64                    `json:"success_rate"`

	ResourceDeltas

	Recommendations []string `json:"recommendations"`
	Interrupted     bool     `json:"interrupted"`
}

// Summarize aggregates the mission's scan and spray record streams into
// summary statistics and textual recommendations.
func Summarize(scans []ScanRecord, sprays []SprayRecord, deltas ResourceDeltas) *Summary {
	s := Summary{
		ZonesScanned:       len(scans),
		HealthDistribution: make(map[field.HealthStatus]int),
		SprayByAction:      make(map[ActionType]SprayTotals),
		ResourceDeltas:     deltas,
	}

	var ndviSum float64
	for _, scan := range scans {
		s.HealthDistribution[scan.Health]++
		ndviSum += scan.NDVI
	}
	if len(scans) > 0 {
		s.MeanNDVI = ndviSum / float64(len(scans))
		s.HealthyShare = float64(s.HealthDistribution[field.Healthy]) / float64(len(scans))
	}

	var successful int
	for _, spray := range sprays {
		totals := s.SprayByAction[spray.Action]
		totals.Count++
		totals.Quantity += spray.Quantity
		s.SprayByAction[spray.Action] = totals

		if spray.Success {
			successful++
			s.ZonesSprayed++
		}
	}
	if len(sprays) > 0 {
		s.SuccessRate = float64(successful) / float64(len(sprays))
	}

	s.Recommendations = recommend(s.HealthDistribution, s.MeanNDVI, len(scans))
	return &s
}

func recommend(distribution map[field.HealthStatus]int, meanNDVI float64, scanned int) []string {
	var out []string
	if scanned == 0 {
		return out
	}

	total := float64(scanned)
	if float64(distribution[field.Diseased])/total > diseaseShareThreshold {
		out = append(out, "High disease prevalence detected - consider field-wide fungicide treatment")
	}
	if float64(distribution[field.PestAffected])/total > pestShareThreshold {
		out = append(out, "Significant pest activity - implement integrated pest management")
	}
	if meanNDVI < lowNDVIThreshold {
		out = append(out, "Low vegetation health - improve irrigation and fertilization")
	}
	return out
}
