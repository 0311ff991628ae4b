package drone

import (
	"fmt"
	"math"
	"sync"
)

const fullBattery = 100.0

// Resources tracks the drone's finite consumables: battery charge in
// percent and the spray tank level in liters. Levels never go negative,
// never exceed their ceiling, and only decrease for the lifetime of a
// mission.
type Resources struct {
	mu      sync.Mutex
	battery float64
	spray   float64
	tank    float64
}

// NewResources creates a fully charged battery and a full spray tank of the
// given capacity in liters.
func NewResources(tankCapacity float64) (*Resources, error) {
	if tankCapacity <= 0 {
		return nil, fmt.Errorf("invalid tank capacity %.2f", tankCapacity)
	}

	return &Resources{
		battery: fullBattery,
		spray:   tankCapacity,
		tank:    tankCapacity,
	}, nil
}

// Battery returns the current battery level in percent.
func (r *Resources) Battery() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.battery
}

// Spray returns the current spray tank level in liters.
func (r *Resources) Spray() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.spray
}

// TankCapacity returns the spray tank ceiling in liters.
func (r *Resources) TankCapacity() float64 {
	return r.tank
}

// Levels returns battery and spray as one consistent pair.
func (r *Resources) Levels() (battery, spray float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.battery, r.spray
}

// DrainBattery consumes the given amount of charge, clamping at zero, and
// returns the new level.
func (r *Resources) DrainBattery(amount float64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.battery = math.Max(0, r.battery-math.Max(0, amount))
	return r.battery
}

// ConsumeSpray deducts quantity liters from the tank. It fails with
// ErrResourceExhausted when the request exceeds the remaining level, in
// which case the level is left unchanged.
func (r *Resources) ConsumeSpray(quantity float64) error {
	if quantity <= 0 {
		return fmt.Errorf("invalid spray quantity %.2f", quantity)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if quantity > r.spray {
		return fmt.Errorf("consuming %.2fL of %.2fL: %w", quantity, r.spray, ErrResourceExhausted)
	}

	r.spray = math.Max(0, r.spray-quantity)
	return nil
}
