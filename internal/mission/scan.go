package mission

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/smartfarm/agridrone/internal/analysis"
	"github.com/smartfarm/agridrone/internal/drone"
	"github.com/smartfarm/agridrone/internal/field"
)

// ndviGridSize is the number of simulated NDVI samples captured per scan pass
const ndviGridSize = 16

// Assessment is the combined result of one zone scan.
type Assessment struct {
	ZoneID     string
	Health     analysis.HealthAssessment
	Vegetation analysis.VegetationAssessment
	Moisture   float64
	Elapsed    time.Duration // simulated flight + capture time
}

// WithScanLogger sets the logger for the scan engine.
func WithScanLogger(logger *slog.Logger) func(*ScanEngine) {
	return func(e *ScanEngine) {
		e.logger = logger
	}
}

// WithScanClock sets the time source for scan records.
func WithScanClock(now func() time.Time) func(*ScanEngine) {
	return func(e *ScanEngine) {
		e.now = now
	}
}

// WithScanSink sets the sink scan records are appended to.
func WithScanSink(sink RecordSink) func(*ScanEngine) {
	return func(e *ScanEngine) {
		e.sink = sink
	}
}

// ScanEngine produces scan observations for zones. A scan moves the drone
// to the zone center at scanning altitude, runs the injected classification
// capabilities over a simulated capture, writes the result back to the
// registry and appends a ScanRecord.
type ScanEngine struct {
	registry   *field.Registry
	ctrl       *drone.Controller
	classifier analysis.HealthClassifier
	analyzer   analysis.VegetationAnalyzer

	mu  sync.Mutex
	rng *rand.Rand

	sink   RecordSink
	now    func() time.Time
	logger *slog.Logger
}

func NewScanEngine(
	registry *field.Registry,
	ctrl *drone.Controller,
	classifier analysis.HealthClassifier,
	analyzer analysis.VegetationAnalyzer,
	rng *rand.Rand,
	options ...func(*ScanEngine),
) (*ScanEngine, error) {
	if registry == nil || ctrl == nil || classifier == nil || analyzer == nil || rng == nil {
		return nil, fmt.Errorf("registry, controller, capabilities and random source are required")
	}

	e := ScanEngine{
		registry:   registry,
		ctrl:       ctrl,
		classifier: classifier,
		analyzer:   analyzer,
		rng:        rng,
		sink:       DiscardSink(),
		now:        time.Now,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&e)
	}

	return &e, nil
}

// Scan observes a zone. It fails with a StateError while Grounded and with
// ErrZoneNotFound for an unknown id. On success the zone's health, NDVI and
// moisture are rewritten in the registry and a ScanRecord is appended.
func (e *ScanEngine) Scan(ctx context.Context, zoneID string) (Assessment, error) {
	zone, err := e.registry.Zone(zoneID)
	if err != nil {
		return Assessment{}, err
	}

	if !e.ctrl.IsAirborne() {
		return Assessment{}, drone.NewStateError("scan", e.ctrl.State())
	}

	elapsed, err := e.ctrl.MoveTo(zone.CenterX, zone.CenterY, e.ctrl.ScanningAltitude())
	if err != nil {
		return Assessment{}, fmt.Errorf("approaching zone %s: %w", zoneID, err)
	}

	e.ctrl.SetScanning(true)
	defer e.ctrl.SetScanning(false)

	frame := analysis.Frame{
		ZoneID:     zone.ID,
		CapturedAt: e.now(),
		Health:     zone.Health,
		NDVI:       zone.NDVI,
	}

	health, err := e.classifier.Classify(ctx, frame)
	if err != nil {
		return Assessment{}, fmt.Errorf("classifying zone %s: %w", zoneID, err)
	}

	vegetation, err := e.analyzer.Analyze(ctx, e.sampleNDVIGrid(zone.NDVI))
	if err != nil {
		return Assessment{}, fmt.Errorf("analyzing zone %s: %w", zoneID, err)
	}

	moisture := e.sampleMoisture()

	if err = e.registry.UpdateHealth(zone.ID, health.Status, vegetation.MeanNDVI, moisture); err != nil {
		return Assessment{}, fmt.Errorf("updating zone %s: %w", zoneID, err)
	}

	rec := ScanRecord{
		ZoneID:    zone.ID,
		Timestamp: e.now(),
		X:         zone.CenterX,
		Y:         zone.CenterY,
		Health:    health.Status,
		NDVI:      vegetation.MeanNDVI,
		Moisture:  moisture,
	}
	if err = e.sink.AppendScan(ctx, rec); err != nil {
		e.logger.Warn("storing scan record", slog.String("zone", zone.ID), slog.Any("error", err))
	}

	e.ctrl.LogEvent(drone.EventScan, fmt.Sprintf("scanned zone %s: %s", zone.ID, health.Status))
	e.logger.Info("zone scanned",
		slog.String("zone", zone.ID),
		slog.String("status", string(health.Status)),
		slog.Float64("ndvi", vegetation.MeanNDVI))

	return Assessment{
		ZoneID:     zone.ID,
		Health:     health,
		Vegetation: vegetation,
		Moisture:   moisture,
		Elapsed:    elapsed + time.Second, // one second of simulated capture time
	}, nil
}

// sampleNDVIGrid simulates the per-pixel NDVI samples of a capture by
// jittering the zone's known index.
func (e *ScanEngine) sampleNDVIGrid(ndvi float64) []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	grid := make([]float64, ndviGridSize)
	for i := range grid {
		grid[i] = ndvi + e.rng.Float64()*0.1 - 0.05
	}
	return grid
}

// sampleMoisture simulates the moisture probe reading.
func (e *ScanEngine) sampleMoisture() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	return 30 + e.rng.Float64()*50
}
