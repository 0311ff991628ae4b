package mission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/smartfarm/agridrone/internal/drone"
	"github.com/smartfarm/agridrone/internal/field"
)

// ExecResult is the structured outcome of executing a proposal. Ordinary
// spray exhaustion is not an error: it comes back as Executed == false so
// the mission loop can skip the action and carry on.
type ExecResult struct {
	Record   SprayRecord
	Executed bool
	Elapsed  time.Duration // simulated flight + spray time
}

// WithExecutorLogger sets the logger for the executor.
func WithExecutorLogger(logger *slog.Logger) func(*Executor) {
	return func(x *Executor) {
		x.logger = logger
	}
}

// WithExecutorClock sets the time source for spray records.
func WithExecutorClock(now func() time.Time) func(*Executor) {
	return func(x *Executor) {
		x.now = now
	}
}

// WithExecutorSink sets the sink spray records are appended to.
func WithExecutorSink(sink RecordSink) func(*Executor) {
	return func(x *Executor) {
		x.sink = sink
	}
}

// WithActionIDs overrides the action id generator.
func WithActionIDs(newID func() string) func(*Executor) {
	return func(x *Executor) {
		x.newID = newID
	}
}

// Executor applies approved intervention proposals: it moves the drone to
// the zone at spraying altitude, depletes the tank, marks the zone sprayed
// and records the action.
type Executor struct {
	registry *field.Registry
	ctrl     *drone.Controller

	sink   RecordSink
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

func NewExecutor(registry *field.Registry, ctrl *drone.Controller, options ...func(*Executor)) (*Executor, error) {
	if registry == nil || ctrl == nil {
		return nil, fmt.Errorf("registry and controller are required")
	}

	x := Executor{
		registry: registry,
		ctrl:     ctrl,
		sink:     DiscardSink(),
		now:      time.Now,
		newID:    uuid.NewString,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&x)
	}

	return &x, nil
}

// Execute carries out a proposal. It fails with a StateError while
// Grounded and with ErrZoneNotFound for an unknown zone. Spray exhaustion
// is returned as a non-executed result, never as an error, so a race with
// the decision engine's own capacity check cannot abort a mission.
func (x *Executor) Execute(ctx context.Context, p Proposal) (ExecResult, error) {
	if !p.Action.Valid() {
		return ExecResult{}, fmt.Errorf("invalid action type %q", p.Action)
	}
	if p.Quantity <= 0 {
		return ExecResult{}, fmt.Errorf("invalid quantity %.2f", p.Quantity)
	}

	if !x.ctrl.IsAirborne() {
		return ExecResult{}, drone.NewStateError("spray", x.ctrl.State())
	}

	zone, err := x.registry.Zone(p.ZoneID)
	if err != nil {
		return ExecResult{}, err
	}

	elapsed, err := x.ctrl.MoveTo(zone.CenterX, zone.CenterY, x.ctrl.SprayingAltitude())
	if err != nil {
		return ExecResult{}, fmt.Errorf("approaching zone %s: %w", p.ZoneID, err)
	}

	x.ctrl.SetSpraying(true)
	defer x.ctrl.SetSpraying(false)

	if err = x.ctrl.Resources().ConsumeSpray(p.Quantity); err != nil {
		if errors.Is(err, drone.ErrResourceExhausted) {
			x.logger.Warn("spray exhausted, action skipped",
				slog.String("zone", p.ZoneID),
				slog.Float64("quantity", p.Quantity))
			return ExecResult{Elapsed: elapsed}, nil
		}
		return ExecResult{}, fmt.Errorf("consuming spray: %w", err)
	}

	now := x.now()
	if err = x.registry.MarkSprayed(p.ZoneID, now); err != nil {
		return ExecResult{}, fmt.Errorf("marking zone %s: %w", p.ZoneID, err)
	}

	rec := SprayRecord{
		ActionID:  x.newID(),
		ZoneID:    p.ZoneID,
		Timestamp: now,
		Action:    p.Action,
		Quantity:  p.Quantity,
		Success:   true,
		Reason:    p.Reason,
	}
	if err = x.sink.AppendSpray(ctx, rec); err != nil {
		x.logger.Warn("storing spray record", slog.String("zone", p.ZoneID), slog.Any("error", err))
	}

	x.ctrl.LogEvent(drone.EventSpraying, fmt.Sprintf("sprayed %.1fL %s in %s", p.Quantity, p.Action, p.ZoneID))
	x.logger.Info("action executed",
		slog.String("zone", p.ZoneID),
		slog.String("action", string(p.Action)),
		slog.Float64("quantity", p.Quantity))

	// Reference pacing: two seconds of simulated spray time per liter.
	return ExecResult{
		Record:   rec,
		Executed: true,
		Elapsed:  elapsed + time.Duration(p.Quantity*2*float64(time.Second)),
	}, nil
}
