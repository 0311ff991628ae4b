package mission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/smartfarm/agridrone/internal/drone"
	"github.com/smartfarm/agridrone/internal/field"
)

const (
	// safetyBatteryThreshold is the battery level in percent below which
	// the mission loop stops and the drone lands
	safetyBatteryThreshold = 20.0

	// lowSprayThreshold is the tank level in liters that triggers
	// return-to-base
	lowSprayThreshold = 1.0

	// loopTick is the simulated pause between loop iterations
	loopTick = 500 * time.Millisecond
)

var (
	// ErrMissionActive is returned when a mission start races an already
	// running mission. The failed start has no side effects.
	ErrMissionActive = errors.New("mission already active")

	// ErrNoActiveMission is returned by Stop when nothing is running
	ErrNoActiveMission = errors.New("no active mission")
)

// MissionStatus extends the drone snapshot with mission progress for the
// polling presentation layer.
type MissionStatus struct {
	drone.Status
	MissionActive bool `json:"mission_active"`
	ZonesScanned  int  `json:"zones_scanned"`
	ActionsTaken  int  `json:"actions_taken"`
}

// WithOrchestratorLogger sets the logger for the orchestrator.
func WithOrchestratorLogger(logger *slog.Logger) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithOrchestratorClock sets the time source used to measure elapsed
// mission time.
func WithOrchestratorClock(now func() time.Time) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithPacing sets the function used to pace loop iterations. Pacing is a
// swappable concern separate from correctness; tests inject a no-op.
func WithPacing(sleep func(time.Duration)) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.sleep = sleep
	}
}

// WithSink sets the sink mission artifacts are persisted to.
func WithSink(sink RecordSink) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.sink = sink
	}
}

// Orchestrator drives the scan -> decide -> act loop for a bounded
// duration. It owns cooperative cancellation and guarantees exactly one
// landing on every exit path. At most one mission is active per instance.
type Orchestrator struct {
	registry *field.Registry
	ctrl     *drone.Controller
	scanner  *ScanEngine
	decider  *DecisionEngine
	executor *Executor
	strategy field.SelectionStrategy

	sink   RecordSink
	now    func() time.Time
	sleep  func(time.Duration)
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	scans   []ScanRecord
	sprays  []SprayRecord
	summary *Summary
}

func NewOrchestrator(
	registry *field.Registry,
	ctrl *drone.Controller,
	scanner *ScanEngine,
	decider *DecisionEngine,
	executor *Executor,
	strategy field.SelectionStrategy,
	options ...func(*Orchestrator),
) (*Orchestrator, error) {
	if registry == nil || ctrl == nil || scanner == nil || decider == nil || executor == nil || strategy == nil {
		return nil, fmt.Errorf("all mission components are required")
	}

	o := Orchestrator{
		registry: registry,
		ctrl:     ctrl,
		scanner:  scanner,
		decider:  decider,
		executor: executor,
		strategy: strategy,
		sink:     DiscardSink(),
		now:      time.Now,
		sleep:    time.Sleep,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&o)
	}

	return &o, nil
}

// Run executes one mission synchronously and returns its summary. A second
// Run or Start while a mission is active fails fast with ErrMissionActive
// and has no side effects. Cancelling ctx stops the mission cooperatively:
// the loop observes it at the next checkpoint, lands and reports a partial
// summary with Interrupted set.
func (o *Orchestrator) Run(ctx context.Context, duration time.Duration) (*Summary, error) {
	if err := o.acquire(nil, nil); err != nil {
		return nil, err
	}
	defer o.release()

	return o.fly(ctx, duration)
}

// Start launches a mission in the background and returns immediately. The
// caller polls Status and Report for progress, and Stop to cancel.
func (o *Orchestrator) Start(duration time.Duration) error {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	if err := o.acquire(cancel, done); err != nil {
		cancel()
		return err
	}

	go func() {
		defer close(done)
		defer o.release()

		if _, err := o.fly(ctx, duration); err != nil {
			o.logger.Error("mission failed", slog.Any("error", err))
		}
	}()

	return nil
}

// Stop requests cooperative cancellation of the active mission and blocks
// until the drone has landed. It fails with ErrNoActiveMission when
// nothing is running.
func (o *Orchestrator) Stop() error {
	o.mu.Lock()
	if !o.running || o.cancel == nil {
		o.mu.Unlock()
		return ErrNoActiveMission
	}
	cancel, done := o.cancel, o.done
	o.mu.Unlock()

	cancel()
	if done != nil {
		<-done
	}
	return nil
}

// Status returns a torn-free snapshot of the drone and mission progress.
func (o *Orchestrator) Status() MissionStatus {
	status := o.ctrl.Status()

	o.mu.Lock()
	defer o.mu.Unlock()

	return MissionStatus{
		Status:        status,
		MissionActive: o.running,
		ZonesScanned:  len(o.scans),
		ActionsTaken:  len(o.sprays),
	}
}

// Report returns the last completed mission summary, or nil when no
// mission has finished yet.
func (o *Orchestrator) Report() *Summary {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.summary
}

func (o *Orchestrator) acquire(cancel context.CancelFunc, done chan struct{}) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		return ErrMissionActive
	}

	o.running = true
	o.cancel = cancel
	o.done = done
	o.scans = nil
	o.sprays = nil
	return nil
}

func (o *Orchestrator) release() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.running = false
	o.cancel = nil
	o.done = nil
}

// fly is the mission body. The caller holds the single mission slot.
func (o *Orchestrator) fly(ctx context.Context, duration time.Duration) (*Summary, error) {
	start := o.now()
	resources := o.ctrl.Resources()
	initialBattery, initialSpray := resources.Levels()

	if err := o.ctrl.Takeoff(); err != nil {
		o.logger.Warn("takeoff rejected", slog.Any("error", err))
		summary := o.finish(start, ResourceDeltas{SprayRemaining: initialSpray}, false, 0, 0, 0)
		return summary, err
	}

	// The landing guarantee: exactly one land on every exit path. The
	// loop lands explicitly before the flight log is persisted so the
	// LANDING entry makes the audit trail; the defer only covers panics
	// inside a loop step.
	landed := false
	land := func() {
		if landed {
			return
		}
		landed = true
		if err := o.ctrl.Land(); err != nil {
			o.logger.Error("landing failed", slog.Any("error", err))
		}
	}
	defer land()

	o.logger.Info("mission started", slog.Duration("duration", duration))

	var skippedCooldown, skippedCapacity, skippedExhausted int
	interrupted := false

	for {
		if ctx.Err() != nil {
			o.logger.Info("mission cancelled, returning to base")
			interrupted = true
			break
		}
		if o.now().Sub(start) >= duration {
			break
		}
		if battery := resources.Battery(); battery <= safetyBatteryThreshold {
			o.logger.Warn("battery at safety threshold, returning to base",
				slog.Float64("battery", battery))
			break
		}

		zone, err := o.registry.SelectNext(o.strategy)
		if err != nil {
			return nil, fmt.Errorf("selecting zone: %w", err)
		}

		assessment, err := o.scanner.Scan(ctx, zone.ID)
		if err != nil {
			o.logger.Error("scan failed", slog.String("zone", zone.ID), slog.Any("error", err))
			continue
		}
		o.recordScan(zone, assessment)

		// Decide over the freshly updated zone state.
		zone, err = o.registry.Zone(zone.ID)
		if err != nil {
			return nil, err
		}

		decision := o.decider.Decide(zone, resources, o.now())
		switch {
		case decision.Skip == SkipCooldown:
			skippedCooldown++
			o.logger.Info("intervention skipped: cooldown", slog.String("zone", zone.ID))

		case decision.Skip == SkipCapacity:
			skippedCapacity++
			o.logger.Info("intervention skipped: capacity", slog.String("zone", zone.ID))

		case decision.Actionable():
			result, err := o.executor.Execute(ctx, *decision.Proposal)
			if err != nil {
				o.logger.Error("action failed",
					slog.String("zone", zone.ID),
					slog.Any("error", err))
				break
			}
			if !result.Executed {
				skippedExhausted++
				break
			}
			o.recordSpray(result.Record)
		}

		if spray := resources.Spray(); spray < lowSprayThreshold {
			o.logger.Info("spray tank low, returning to base", slog.Float64("spray", spray))
			break
		}

		o.sleep(loopTick)
	}

	land()

	battery, spray := resources.Levels()
	deltas := ResourceDeltas{
		BatteryConsumed: initialBattery - battery,
		SprayConsumed:   initialSpray - spray,
		SprayRemaining:  spray,
	}

	summary := o.finish(start, deltas, interrupted, skippedCooldown, skippedCapacity, skippedExhausted)
	o.logger.Info("mission complete",
		slog.Int("scanned", summary.ZonesScanned),
		slog.Int("sprayed", summary.ZonesSprayed),
		slog.Bool("interrupted", summary.Interrupted))
	return summary, nil
}

// finish builds the summary, stores it for Report and persists the mission
// artifacts. Persistence uses a detached context so a cancelled mission
// still lands its records.
func (o *Orchestrator) finish(start time.Time, deltas ResourceDeltas, interrupted bool, skippedCooldown, skippedCapacity, skippedExhausted int) *Summary {
	end := o.now()

	o.mu.Lock()
	scans := o.scans
	sprays := o.sprays
	o.mu.Unlock()

	summary := Summarize(scans, sprays, deltas)
	summary.StartTime = start
	summary.EndTime = end
	summary.Duration = end.Sub(start)
	summary.SkippedCooldown = skippedCooldown
	summary.SkippedCapacity = skippedCapacity
	summary.SkippedExhausted = skippedExhausted
	summary.Interrupted = interrupted

	ctx := context.Background()
	if err := o.sink.AppendFlightLog(ctx, o.ctrl.FlightLog()); err != nil {
		o.logger.Warn("storing flight log", slog.Any("error", err))
	}
	if err := o.sink.StoreSummary(ctx, summary); err != nil {
		o.logger.Warn("storing mission summary", slog.Any("error", err))
	}

	o.mu.Lock()
	o.summary = summary
	o.mu.Unlock()

	return summary
}

func (o *Orchestrator) recordScan(zone field.Zone, a Assessment) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.scans = append(o.scans, ScanRecord{
		ZoneID:    zone.ID,
		Timestamp: o.now(),
		X:         zone.CenterX,
		Y:         zone.CenterY,
		Health:    a.Health.Status,
		NDVI:      a.Vegetation.MeanNDVI,
		Moisture:  a.Moisture,
	})
}

func (o *Orchestrator) recordSpray(rec SprayRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.sprays = append(o.sprays, rec)
}
