package field

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"
)

var (
	// ErrZoneNotFound is returned when a zone id does not exist in the registry
	ErrZoneNotFound = errors.New("zone not found")

	// ErrNoZones is returned by selection when the registry holds no zones
	ErrNoZones = errors.New("no zones to select")
)

// Registry owns the immutable grid partition of the field and the mutable
// per-zone agronomic state. All state mutation goes through UpdateHealth
// and MarkSprayed; reads return copies, so callers never observe a zone
// mid-update.
type Registry struct {
	mu    sync.RWMutex
	zones []*Zone
	byID  map[string]*Zone
}

// NewRegistry partitions a fieldWidth x fieldHeight field into square zones
// of zoneSize meters and seeds each zone's initial crop and agronomic state
// from rng.
func NewRegistry(fieldWidth, fieldHeight, zoneSize float64, rng *rand.Rand) (*Registry, error) {
	if zoneSize <= 0 {
		return nil, fmt.Errorf("invalid zone size %.1f", zoneSize)
	}
	if rng == nil {
		return nil, errors.New("random source is required")
	}

	zonesX := int(fieldWidth / zoneSize)
	zonesY := int(fieldHeight / zoneSize)
	if zonesX < 1 || zonesY < 1 {
		return nil, fmt.Errorf("field %0.fx%.0f too small for zone size %.0f", fieldWidth, fieldHeight, zoneSize)
	}

	r := Registry{
		zones: make([]*Zone, 0, zonesX*zonesY),
		byID:  make(map[string]*Zone, zonesX*zonesY),
	}
	for i := 0; i < zonesX; i++ {
		for j := 0; j < zonesY; j++ {
			z := &Zone{
				ID:       fmt.Sprintf("Zone_%d_%d", i, j),
				CenterX:  float64(i)*zoneSize + zoneSize/2,
				CenterY:  float64(j)*zoneSize + zoneSize/2,
				Width:    zoneSize,
				Height:   zoneSize,
				CropType: CropTypes[rng.Intn(len(CropTypes))],
				Health:   Statuses[rng.Intn(len(Statuses))],
				NDVI:     0.2 + rng.Float64()*0.6,
				Moisture: 30 + rng.Float64()*50,
			}
			r.zones = append(r.zones, z)
			r.byID[z.ID] = z
		}
	}

	return &r, nil
}

// Zones returns copies of all zones in stable creation order.
func (r *Registry) Zones() []Zone {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Zone, len(r.zones))
	for i, z := range r.zones {
		out[i] = *z
	}
	return out
}

// Count returns the number of zones in the registry.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.zones)
}

// Zone returns a copy of the zone with the given id.
func (r *Registry) Zone(id string) (Zone, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	z, ok := r.byID[id]
	if !ok {
		return Zone{}, fmt.Errorf("%w: %s", ErrZoneNotFound, id)
	}
	return *z, nil
}

// SelectNext picks the next zone to visit using the given strategy.
func (r *Registry) SelectNext(strategy SelectionStrategy) (Zone, error) {
	return strategy.Next(r.Zones())
}

// UpdateHealth rewrites the agronomic state of a zone after a scan.
// NDVI is clamped to [-1, 1] and moisture to [0, 100].
func (r *Registry) UpdateHealth(id string, status HealthStatus, ndvi, moisture float64) error {
	if !status.Valid() {
		return fmt.Errorf("invalid health status %q", status)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	z, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrZoneNotFound, id)
	}

	z.Health = status
	z.NDVI = clamp(ndvi, -1, 1)
	z.Moisture = clamp(moisture, 0, 100)
	return nil
}

// MarkSprayed records the time of an executed intervention on a zone.
func (r *Registry) MarkSprayed(id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	z, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrZoneNotFound, id)
	}

	z.LastSprayed = at
	return nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
