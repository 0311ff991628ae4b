package mission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartfarm/agridrone/internal/field"
)

// fixedGauge is a SprayGauge holding a constant level.
type fixedGauge float64

func (g fixedGauge) Spray() float64 { return float64(g) }

func TestDecideRules(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	engine := NewDecisionEngine()

	tests := []struct {
		name     string
		zone     field.Zone
		action   ActionType
		quantity float64
		reason   string
		priority Priority
	}{
		{
			name:     "diseased",
			zone:     field.Zone{ID: "Zone_0_0", Health: field.Diseased, NDVI: 0.6, Moisture: 60},
			action:   ActionPesticide,
			quantity: 0.5,
			reason:   "Disease detected",
			priority: PriorityHigh,
		},
		{
			name:     "pest affected",
			zone:     field.Zone{ID: "Zone_0_1", Health: field.PestAffected, NDVI: 0.6, Moisture: 60},
			action:   ActionPesticide,
			quantity: 0.3,
			reason:   "Pest infestation detected",
			priority: PriorityHigh,
		},
		{
			name:     "nutrient deficiency",
			zone:     field.Zone{ID: "Zone_1_0", Health: field.Healthy, NDVI: 0.25, Moisture: 60},
			action:   ActionFertilizer,
			quantity: 0.2,
			reason:   "Nutrient deficiency detected",
			priority: PriorityLow,
		},
		{
			name:     "water stress",
			zone:     field.Zone{ID: "Zone_1_1", Health: field.Healthy, NDVI: 0.6, Moisture: 20},
			action:   ActionWater,
			quantity: 1.0,
			reason:   "Water stress detected",
			priority: PriorityMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := engine.Decide(tt.zone, fixedGauge(10), now)
			require.True(t, d.Actionable())
			assert.Empty(t, d.Skip)
			assert.Equal(t, tt.zone.ID, d.Proposal.ZoneID)
			assert.Equal(t, tt.action, d.Proposal.Action)
			assert.Equal(t, tt.quantity, d.Proposal.Quantity)
			assert.Equal(t, tt.reason, d.Proposal.Reason)
			assert.Equal(t, tt.priority, d.Proposal.Priority)
		})
	}
}

func TestDecideHealthyZoneNoMatch(t *testing.T) {
	engine := NewDecisionEngine()
	zone := field.Zone{ID: "Zone_0_0", Health: field.Healthy, NDVI: 0.6, Moisture: 60}

	d := engine.Decide(zone, fixedGauge(10), time.Now())
	assert.False(t, d.Actionable())
	assert.Empty(t, d.Skip)
}

func TestDecideFirstMatchWins(t *testing.T) {
	engine := NewDecisionEngine()

	// Diseased and water-stressed at once: the disease rule fires.
	zone := field.Zone{ID: "Zone_0_0", Health: field.Diseased, NDVI: 0.25, Moisture: 20}

	d := engine.Decide(zone, fixedGauge(10), time.Now())
	require.True(t, d.Actionable())
	assert.Equal(t, ActionPesticide, d.Proposal.Action)
	assert.Equal(t, 0.5, d.Proposal.Quantity)
}

func TestDecideCooldown(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	engine := NewDecisionEngine()

	zone := field.Zone{
		ID:          "Zone_0_0",
		Health:      field.Diseased,
		NDVI:        0.6,
		Moisture:    60,
		LastSprayed: now.Add(-2 * time.Hour),
	}

	d := engine.Decide(zone, fixedGauge(10), now)
	assert.False(t, d.Actionable())
	assert.Equal(t, SkipCooldown, d.Skip)

	// Beyond the window the same zone is actionable again.
	zone.LastSprayed = now.Add(-25 * time.Hour)
	d = engine.Decide(zone, fixedGauge(10), now)
	assert.True(t, d.Actionable())
}

func TestDecideCooldownBoundary(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	engine := NewDecisionEngine()

	// Exactly at the window edge the cooldown has elapsed.
	zone := field.Zone{
		ID:          "Zone_0_0",
		Health:      field.Diseased,
		LastSprayed: now.Add(-DefaultCooldown),
	}

	d := engine.Decide(zone, fixedGauge(10), now)
	assert.True(t, d.Actionable())
}

func TestDecideConfiguredCooldown(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	engine := NewDecisionEngine(WithCooldown(time.Hour))

	zone := field.Zone{
		ID:          "Zone_0_0",
		Health:      field.Diseased,
		LastSprayed: now.Add(-90 * time.Minute),
	}

	d := engine.Decide(zone, fixedGauge(10), now)
	assert.True(t, d.Actionable())
}

func TestDecideCapacity(t *testing.T) {
	engine := NewDecisionEngine()
	zone := field.Zone{ID: "Zone_0_0", Health: field.Diseased}

	d := engine.Decide(zone, fixedGauge(0.4), time.Now())
	assert.False(t, d.Actionable())
	assert.Equal(t, SkipCapacity, d.Skip)

	// A lighter action still fits the same tank.
	zone.Health = field.PestAffected
	d = engine.Decide(zone, fixedGauge(0.4), time.Now())
	require.True(t, d.Actionable())
	assert.Equal(t, 0.3, d.Proposal.Quantity)
}

func TestDecideCooldownBeforeCapacity(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	engine := NewDecisionEngine()

	// Both filters apply; cooldown is reported.
	zone := field.Zone{
		ID:          "Zone_0_0",
		Health:      field.Diseased,
		LastSprayed: now.Add(-time.Hour),
	}

	d := engine.Decide(zone, fixedGauge(0), now)
	assert.Equal(t, SkipCooldown, d.Skip)
}

func TestDecideNoMatchNoSkip(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	engine := NewDecisionEngine()

	// A recently sprayed healthy zone produces neither proposal nor skip.
	zone := field.Zone{
		ID:          "Zone_0_0",
		Health:      field.Healthy,
		NDVI:        0.6,
		Moisture:    60,
		LastSprayed: now.Add(-time.Hour),
	}

	d := engine.Decide(zone, fixedGauge(10), now)
	assert.False(t, d.Actionable())
	assert.Empty(t, d.Skip)
}
