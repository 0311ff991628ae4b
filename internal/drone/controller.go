package drone

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/felixgeelhaar/statekit"
)

const (
	// StateGrounded means the drone is on the ground with motors off
	StateGrounded FlightState = "grounded"

	// StateAirborne means the drone is flying and may move, scan and spray
	StateAirborne FlightState = "airborne"
)

const (
	eventTakeoff = "takeoff"
	eventLand    = "land"
)

// FlightState is the drone's position in the Grounded <-> Airborne state
// machine.
type FlightState string

// Pose is the drone's position. It is owned exclusively by the Controller
// and mutated on every movement.
type Pose struct {
	X         float64
	Y         float64
	Altitude  float64
	Timestamp time.Time
}

// Status is a torn-free snapshot of the drone for the presentation layer.
type Status struct {
	Pose         Pose    `json:"position"`
	BatteryLevel float64 `json:"battery_level"`
	SprayLevel   float64 `json:"spray_level"`
	IsFlying     bool    `json:"is_flying"`
	IsScanning   bool    `json:"is_scanning"`
	IsSpraying   bool    `json:"is_spraying"`
}

type flightContext struct{}

// WithLogger sets the logger for the controller.
func WithLogger(logger *slog.Logger) func(*Controller) {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithClock sets the time source used for pose and log timestamps.
func WithClock(now func() time.Time) func(*Controller) {
	return func(c *Controller) {
		c.now = now
	}
}

// WithSpeed sets the flight speed in m/s.
func WithSpeed(speed float64) func(*Controller) {
	return func(c *Controller) {
		c.speed = speed
	}
}

// WithBatteryRate sets the battery consumption per meter flown, in percent.
func WithBatteryRate(rate float64) func(*Controller) {
	return func(c *Controller) {
		c.batteryRate = rate
	}
}

// WithAltitudes sets the scanning and spraying altitudes in meters.
func WithAltitudes(scanning, spraying float64) func(*Controller) {
	return func(c *Controller) {
		c.scanningAltitude = scanning
		c.sprayingAltitude = spraying
	}
}

// Controller owns the drone pose, the takeoff/land state machine and the
// movement cost model. A single mutex guards pose, flags and the state
// machine so that status reads never observe a torn update.
type Controller struct {
	mu  sync.Mutex
	fsm *statekit.Interpreter[flightContext]

	pose      Pose
	resources *Resources
	scanning  bool
	spraying  bool

	speed            float64 // m/s
	batteryRate      float64 // percent per meter
	scanningAltitude float64 // meters
	sprayingAltitude float64 // meters

	flightLog []LogEntry

	now    func() time.Time
	logger *slog.Logger
}

// NewController creates a grounded drone at the field origin with a discard
// logger and the reference cost model (5 m/s, 1% battery per 100 m, 30 m
// scanning and 5 m spraying altitude).
func NewController(resources *Resources, options ...func(*Controller)) (*Controller, error) {
	if resources == nil {
		return nil, fmt.Errorf("resources are required")
	}

	fsm, err := newFlightMachine()
	if err != nil {
		return nil, err
	}

	c := Controller{
		fsm:              fsm,
		resources:        resources,
		speed:            5.0,
		batteryRate:      0.01,
		scanningAltitude: 30.0,
		sprayingAltitude: 5.0,
		now:              time.Now,
		logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&c)
	}

	c.pose.Timestamp = c.now()
	return &c, nil
}

func newFlightMachine() (*statekit.Interpreter[flightContext], error) {
	builder := statekit.NewMachine[flightContext]("flight").
		WithInitial(statekit.StateID(StateGrounded)).
		WithContext(flightContext{})

	builder.State(statekit.StateID(StateGrounded)).
		On(eventTakeoff).Target(statekit.StateID(StateAirborne)).
		Done()

	builder.State(statekit.StateID(StateAirborne)).
		On(eventLand).Target(statekit.StateID(StateGrounded)).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("building flight state machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()
	return interpreter, nil
}

// transition sends an event to the state machine and reports whether the
// state changed. Caller must hold c.mu.
func (c *Controller) transition(event string) bool {
	before := c.fsm.State().Value
	c.fsm.Send(statekit.Event{Type: statekit.EventType(event)})
	return c.fsm.State().Value != before
}

func (c *Controller) state() FlightState {
	return FlightState(c.fsm.State().Value)
}

// State returns the current flight state.
func (c *Controller) State() FlightState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state()
}

// IsAirborne reports whether the drone is flying.
func (c *Controller) IsAirborne() bool {
	return c.State() == StateAirborne
}

// Takeoff transitions the drone from Grounded to Airborne and raises it to
// scanning altitude. A takeoff while already Airborne fails with a
// StateError and changes no state.
func (c *Controller) Takeoff() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.transition(eventTakeoff) {
		return NewStateError("take off", c.state())
	}

	c.pose.Altitude = c.scanningAltitude
	c.pose.Timestamp = c.now()
	c.appendLog(EventTakeoff, "drone took off")
	c.logger.Info("drone airborne", slog.Float64("altitude", c.pose.Altitude))
	return nil
}

// Land transitions the drone from Airborne to Grounded, drops the altitude
// to zero and clears the scanning and spraying flags. Landing while already
// Grounded fails with a StateError and changes no state.
func (c *Controller) Land() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.transition(eventLand) {
		return NewStateError("land", c.state())
	}

	c.pose.Altitude = 0
	c.pose.Timestamp = c.now()
	c.scanning = false
	c.spraying = false
	c.appendLog(EventLanding, "drone landed")
	c.logger.Info("drone landed")
	return nil
}

// MoveTo flies the drone to (x, y) at the given altitude. It fails with a
// StateError unless Airborne. Battery drains proportionally to the
// Euclidean distance covered, clamped at zero. The returned duration is the
// simulated flight time (distance / speed); callers may use it for pacing
// but correctness never depends on sleeping it off.
func (c *Controller) MoveTo(x, y, altitude float64) (time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state() != StateAirborne {
		return 0, NewStateError("move", c.state())
	}

	distance := math.Hypot(x-c.pose.X, y-c.pose.Y)
	c.resources.DrainBattery(distance * c.batteryRate)

	c.pose.X = x
	c.pose.Y = y
	c.pose.Altitude = altitude
	c.pose.Timestamp = c.now()

	c.appendLog(EventMovement, fmt.Sprintf("moved to (%.1f, %.1f)", x, y))
	c.logger.Debug("moved",
		slog.Float64("x", x),
		slog.Float64("y", y),
		slog.Float64("distance", distance))

	return time.Duration(distance / c.speed * float64(time.Second)), nil
}

// SetScanning flips the scanning flag. It has no effect while Grounded.
func (c *Controller) SetScanning(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state() == StateAirborne {
		c.scanning = on
	}
}

// SetSpraying flips the spraying flag. It has no effect while Grounded.
func (c *Controller) SetSpraying(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state() == StateAirborne {
		c.spraying = on
	}
}

// Pose returns the drone's current pose.
func (c *Controller) Pose() Pose {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.pose
}

// ScanningAltitude returns the altitude used for scan passes.
func (c *Controller) ScanningAltitude() float64 {
	return c.scanningAltitude
}

// SprayingAltitude returns the altitude used for spray passes.
func (c *Controller) SprayingAltitude() float64 {
	return c.sprayingAltitude
}

// Resources returns the drone's consumables.
func (c *Controller) Resources() *Resources {
	return c.resources
}

// Status returns a consistent snapshot of pose, flags and resource levels.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	battery, spray := c.resources.Levels()
	return Status{
		Pose:         c.pose,
		BatteryLevel: battery,
		SprayLevel:   spray,
		IsFlying:     c.state() == StateAirborne,
		IsScanning:   c.scanning,
		IsSpraying:   c.spraying,
	}
}

// LogEvent appends an entry to the flight log and returns it.
func (c *Controller) LogEvent(event EventType, description string) LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.appendLog(event, description)
}

// FlightLog returns a copy of the append-only audit trail.
func (c *Controller) FlightLog() []LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]LogEntry, len(c.flightLog))
	copy(out, c.flightLog)
	return out
}

// appendLog records a flight event with the current pose and resource
// levels. Caller must hold c.mu.
func (c *Controller) appendLog(event EventType, description string) LogEntry {
	battery, spray := c.resources.Levels()
	entry := LogEntry{
		Timestamp:    c.now(),
		Event:        event,
		Description:  description,
		X:            c.pose.X,
		Y:            c.pose.Y,
		Altitude:     c.pose.Altitude,
		BatteryLevel: battery,
		SprayLevel:   spray,
	}
	c.flightLog = append(c.flightLog, entry)
	return entry
}
