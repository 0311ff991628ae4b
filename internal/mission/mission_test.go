package mission

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/smartfarm/agridrone/internal/analysis"
	"github.com/smartfarm/agridrone/internal/drone"
	"github.com/smartfarm/agridrone/internal/field"
)

// captureSink collects everything the mission core pushes through the
// RecordSink interface.
type captureSink struct {
	mu        sync.Mutex
	scans     []ScanRecord
	sprays    []SprayRecord
	flightLog []drone.LogEntry
	summaries []*Summary
}

func (s *captureSink) AppendScan(_ context.Context, rec ScanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scans = append(s.scans, rec)
	return nil
}

func (s *captureSink) AppendSpray(_ context.Context, rec SprayRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sprays = append(s.sprays, rec)
	return nil
}

func (s *captureSink) AppendFlightLog(_ context.Context, entries []drone.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flightLog = append(s.flightLog, entries...)
	return nil
}

func (s *captureSink) StoreSummary(_ context.Context, sum *Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries = append(s.summaries, sum)
	return nil
}

// fakeClock hands out strictly increasing timestamps so mission loops
// bounded by elapsed time terminate without wall-clock sleeps.
type fakeClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func newFakeClock(start time.Time, step time.Duration) *fakeClock {
	return &fakeClock{t: start, step: step}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(c.step)
	return c.t
}

type harness struct {
	registry   *field.Registry
	resources  *drone.Resources
	ctrl       *drone.Controller
	classifier *analysis.SimulatedClassifier
	scanner    *ScanEngine
	executor   *Executor
	sink       *captureSink
	rng        *rand.Rand
}

func newHarness(t *testing.T, tankCapacity float64) *harness {
	t.Helper()

	rng := rand.New(rand.NewSource(42))

	registry, err := field.NewRegistry(300, 300, 100, rng)
	require.NoError(t, err)

	resources, err := drone.NewResources(tankCapacity)
	require.NoError(t, err)

	ctrl, err := drone.NewController(resources)
	require.NoError(t, err)

	classifier, err := analysis.NewSimulatedClassifier(rng)
	require.NoError(t, err)

	sink := &captureSink{}

	scanner, err := NewScanEngine(registry, ctrl, classifier, analysis.NewSimulatedAnalyzer(), rng,
		WithScanSink(sink))
	require.NoError(t, err)

	executor, err := NewExecutor(registry, ctrl, WithExecutorSink(sink))
	require.NoError(t, err)

	return &harness{
		registry:   registry,
		resources:  resources,
		ctrl:       ctrl,
		classifier: classifier,
		scanner:    scanner,
		executor:   executor,
		sink:       sink,
		rng:        rng,
	}
}
