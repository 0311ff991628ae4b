package mission

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartfarm/agridrone/internal/drone"
	"github.com/smartfarm/agridrone/internal/field"
)

func newTestOrchestrator(t *testing.T, h *harness, options ...func(*Orchestrator)) *Orchestrator {
	t.Helper()

	options = append([]func(*Orchestrator){
		WithSink(h.sink),
		WithPacing(func(time.Duration) {}),
	}, options...)

	o, err := NewOrchestrator(h.registry, h.ctrl, h.scanner, NewDecisionEngine(), h.executor,
		field.NewRoundRobinStrategy(), options...)
	require.NoError(t, err)
	return o
}

func TestRunZeroDuration(t *testing.T) {
	h := newHarness(t, 10)
	o := newTestOrchestrator(t, h)

	summary, err := o.Run(context.Background(), 0)
	require.NoError(t, err)

	// The drone takes off and lands without visiting a single zone.
	assert.Equal(t, 0, summary.ZonesScanned)
	assert.Equal(t, 0, summary.ZonesSprayed)
	assert.False(t, summary.Interrupted)
	assert.Equal(t, drone.StateGrounded, h.ctrl.State())

	require.Len(t, h.sink.flightLog, 2)
	assert.Equal(t, drone.EventTakeoff, h.sink.flightLog[0].Event)
	assert.Equal(t, drone.EventLanding, h.sink.flightLog[1].Event)
}

func TestRunVisitsZones(t *testing.T) {
	h := newHarness(t, 10)
	clock := newFakeClock(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC), 100*time.Millisecond)
	o := newTestOrchestrator(t, h, WithOrchestratorClock(clock.Now))

	summary, err := o.Run(context.Background(), 2*time.Second)
	require.NoError(t, err)

	assert.Positive(t, summary.ZonesScanned)
	assert.Equal(t, summary.ZonesScanned, len(h.sink.scans))
	assert.Equal(t, drone.StateGrounded, h.ctrl.State())

	// The persisted audit trail carries the full flight, landing included.
	require.NotEmpty(t, h.sink.flightLog)
	assert.Equal(t, drone.EventTakeoff, h.sink.flightLog[0].Event)
	assert.Equal(t, drone.EventLanding, h.sink.flightLog[len(h.sink.flightLog)-1].Event)

	// The summary reflects actual consumption.
	battery, spray := h.resources.Levels()
	assert.InDelta(t, 100-battery, summary.BatteryConsumed, 1e-9)
	assert.InDelta(t, 10-spray, summary.SprayConsumed, 1e-9)
	assert.InDelta(t, spray, summary.SprayRemaining, 1e-9)

	require.Len(t, h.sink.summaries, 1)
	assert.Equal(t, summary, h.sink.summaries[0])
	assert.Equal(t, summary, o.Report())
}

func TestRunWhileActiveFails(t *testing.T) {
	h := newHarness(t, 10)

	started := make(chan struct{})
	release := make(chan struct{})
	o := newTestOrchestrator(t, h, WithPacing(func(time.Duration) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = o.Run(ctx, time.Minute)
	}()
	<-started

	_, err := o.Run(context.Background(), time.Minute)
	require.ErrorIs(t, err, ErrMissionActive)
	require.ErrorIs(t, o.Start(time.Minute), ErrMissionActive)

	cancel()
	close(release)
	<-done
}

func TestRunCancelledBeforeFirstScan(t *testing.T) {
	h := newHarness(t, 10)
	o := newTestOrchestrator(t, h)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := o.Run(ctx, time.Minute)
	require.NoError(t, err)

	assert.True(t, summary.Interrupted)
	assert.Equal(t, 0, summary.ZonesScanned)
	assert.Equal(t, drone.StateGrounded, h.ctrl.State())
}

func TestRunBatterySafetyThreshold(t *testing.T) {
	h := newHarness(t, 10)
	o := newTestOrchestrator(t, h)

	h.resources.DrainBattery(85)

	summary, err := o.Run(context.Background(), time.Minute)
	require.NoError(t, err)

	// The loop refuses to scan below the safety floor and lands.
	assert.Equal(t, 0, summary.ZonesScanned)
	assert.False(t, summary.Interrupted)
	assert.Equal(t, drone.StateGrounded, h.ctrl.State())
}

func TestRunTakeoffFailure(t *testing.T) {
	h := newHarness(t, 10)
	o := newTestOrchestrator(t, h)

	// Force the takeoff to be rejected.
	require.NoError(t, h.ctrl.Takeoff())

	summary, err := o.Run(context.Background(), time.Minute)
	require.True(t, drone.IsStateError(err))
	require.NotNil(t, summary)
	assert.Equal(t, 0, summary.ZonesScanned)

	// The failed mission releases the slot for the next one.
	require.NoError(t, h.ctrl.Land())
	_, err = o.Run(context.Background(), 0)
	require.NoError(t, err)
}

func TestStartAndStop(t *testing.T) {
	h := newHarness(t, 10)
	clock := newFakeClock(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC), time.Millisecond)
	o := newTestOrchestrator(t, h, WithOrchestratorClock(clock.Now))

	require.NoError(t, o.Start(time.Hour))
	require.NoError(t, o.Stop())

	// Stop blocks until the drone has landed and the report is stored.
	assert.Equal(t, drone.StateGrounded, h.ctrl.State())
	summary := o.Report()
	require.NotNil(t, summary)
	assert.True(t, summary.Interrupted)

	require.ErrorIs(t, o.Stop(), ErrNoActiveMission)
}

func TestStatusProgress(t *testing.T) {
	h := newHarness(t, 10)
	o := newTestOrchestrator(t, h)

	status := o.Status()
	assert.False(t, status.MissionActive)
	assert.False(t, status.IsFlying)
	assert.Equal(t, 0, status.ZonesScanned)
	assert.Equal(t, 0, status.ActionsTaken)
	assert.Equal(t, 100.0, status.BatteryLevel)
	assert.Equal(t, 10.0, status.SprayLevel)

	clock := newFakeClock(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC), 100*time.Millisecond)
	o = newTestOrchestrator(t, h, WithOrchestratorClock(clock.Now))

	summary, err := o.Run(context.Background(), 2*time.Second)
	require.NoError(t, err)

	status = o.Status()
	assert.False(t, status.MissionActive)
	assert.Equal(t, summary.ZonesScanned, status.ZonesScanned)
}

func TestReportBeforeFirstMission(t *testing.T) {
	h := newHarness(t, 10)
	o := newTestOrchestrator(t, h)

	assert.Nil(t, o.Report())
}
