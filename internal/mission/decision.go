package mission

import (
	"time"

	"github.com/smartfarm/agridrone/internal/field"
)

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
)

// Priority orders intervention proposals by urgency.
type Priority int

const (
	// SkipCooldown means a rule matched but the zone was treated within
	// the cooldown window
	SkipCooldown SkipReason = "cooldown"

	// SkipCapacity means a rule matched but the tank holds less than the
	// required quantity
	SkipCapacity SkipReason = "capacity"
)

// SkipReason distinguishes why a matched rule produced no proposal. The
// empty value means nothing was suppressed.
type SkipReason string

// Proposal is an intervention the decision engine wants executed. It is
// consumed immediately by the executor and not persisted unless executed.
type Proposal struct {
	ZoneID   string
	Action   ActionType
	Quantity float64 // liters, > 0
	Reason   string
	Priority Priority
}

// Decision is the outcome of evaluating a zone. Either Proposal is set, or
// Skip explains why a matched rule was suppressed, or both are empty when
// no rule matched.
type Decision struct {
	Proposal *Proposal
	Skip     SkipReason
}

// Actionable reports whether the decision carries a proposal to execute.
func (d Decision) Actionable() bool { return d.Proposal != nil }

// SprayGauge exposes the remaining spray level. The decision engine reads
// it for the capacity post-filter but never mutates resources.
type SprayGauge interface {
	Spray() float64
}

// DefaultCooldown is the minimum time between two interventions on the
// same zone.
const DefaultCooldown = 24 * time.Hour

// WithCooldown overrides the per-zone intervention cooldown window.
func WithCooldown(d time.Duration) func(*DecisionEngine) {
	return func(e *DecisionEngine) {
		e.cooldown = d
	}
}

// DecisionEngine is the pure rule-based policy turning zone state into an
// optional intervention proposal. It holds no mutable state and is safe for
// concurrent use.
type DecisionEngine struct {
	cooldown time.Duration
}

func NewDecisionEngine(options ...func(*DecisionEngine)) *DecisionEngine {
	e := DecisionEngine{cooldown: DefaultCooldown}
	for _, option := range options {
		option(&e)
	}
	return &e
}

// Decide evaluates the rules in order, first match wins:
//
//  1. Diseased          -> pesticide 0.5L
//  2. Pest-affected     -> pesticide 0.3L
//  3. NDVI < 0.3, moisture > 50 -> fertilizer 0.2L
//  4. moisture < 30     -> water 1.0L
//
// A matched rule is then post-filtered: suppressed with SkipCooldown when
// the zone was sprayed within the cooldown window, and with SkipCapacity
// when the tank holds less than the required quantity.
func (e *DecisionEngine) Decide(zone field.Zone, spray SprayGauge, now time.Time) Decision {
	proposal := e.match(zone)
	if proposal == nil {
		return Decision{}
	}

	if !zone.LastSprayed.IsZero() && now.Sub(zone.LastSprayed) < e.cooldown {
		return Decision{Skip: SkipCooldown}
	}
	if spray.Spray() < proposal.Quantity {
		return Decision{Skip: SkipCapacity}
	}

	return Decision{Proposal: proposal}
}

func (e *DecisionEngine) match(zone field.Zone) *Proposal {
	switch {
	case zone.Health == field.Diseased:
		return &Proposal{
			ZoneID:   zone.ID,
			Action:   ActionPesticide,
			Quantity: 0.5,
			Reason:   "Disease detected",
			Priority: PriorityHigh,
		}

	case zone.Health == field.PestAffected:
		return &Proposal{
			ZoneID:   zone.ID,
			Action:   ActionPesticide,
			Quantity: 0.3,
			Reason:   "Pest infestation detected",
			Priority: PriorityHigh,
		}

	case zone.NDVI < 0.3 && zone.Moisture > 50:
		return &Proposal{
			ZoneID:   zone.ID,
			Action:   ActionFertilizer,
			Quantity: 0.2,
			Reason:   "Nutrient deficiency detected",
			Priority: PriorityLow,
		}

	case zone.Moisture < 30:
		return &Proposal{
			ZoneID:   zone.ID,
			Action:   ActionWater,
			Quantity: 1.0,
			Reason:   "Water stress detected",
			Priority: PriorityMedium,
		}
	}

	return nil
}
