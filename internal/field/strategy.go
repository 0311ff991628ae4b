package field

import (
	"math"
	"math/rand"
	"sync"
)

// SelectionStrategy decides which zone the drone visits next. Zones are
// passed in stable registry order.
type SelectionStrategy interface {
	Next(zones []Zone) (Zone, error)
}

// RandomStrategy selects a zone uniformly at random from the injected
// random source.
type RandomStrategy struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomStrategy(rng *rand.Rand) *RandomStrategy {
	return &RandomStrategy{rng: rng}
}

func (s *RandomStrategy) Next(zones []Zone) (Zone, error) {
	if len(zones) == 0 {
		return Zone{}, ErrNoZones
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return zones[s.rng.Intn(len(zones))], nil
}

// RoundRobinStrategy walks the zones in registry order, wrapping around at
// the end.
type RoundRobinStrategy struct {
	mu   sync.Mutex
	next int
}

func NewRoundRobinStrategy() *RoundRobinStrategy {
	return &RoundRobinStrategy{}
}

func (s *RoundRobinStrategy) Next(zones []Zone) (Zone, error) {
	if len(zones) == 0 {
		return Zone{}, ErrNoZones
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	z := zones[s.next%len(zones)]
	s.next++
	return z, nil
}

// NearestFirstStrategy selects the zone whose center is closest to the
// drone's current position. Position is queried at selection time so the
// strategy follows the drone as it moves.
type NearestFirstStrategy struct {
	Position func() (x, y float64)
}

func NewNearestFirstStrategy(position func() (x, y float64)) *NearestFirstStrategy {
	return &NearestFirstStrategy{Position: position}
}

func (s *NearestFirstStrategy) Next(zones []Zone) (Zone, error) {
	if len(zones) == 0 {
		return Zone{}, ErrNoZones
	}

	x, y := s.Position()

	best := zones[0]
	bestDist := math.Hypot(best.CenterX-x, best.CenterY-y)
	for _, z := range zones[1:] {
		if d := math.Hypot(z.CenterX-x, z.CenterY-y); d < bestDist {
			best, bestDist = z, d
		}
	}
	return best, nil
}
