package app

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StrategyRandom       = "random"
	StrategyRoundRobin   = "round-robin"
	StrategyNearestFirst = "nearest-first"
)

// Config represents the main application configuration
type Config struct {
	Settings  Settings        `yaml:"settings"`
	Field     FieldConfig     `yaml:"field"`
	Drone     DroneConfig     `yaml:"drone"`
	Mission   MissionConfig   `yaml:"mission"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Storage   StorageConfig   `yaml:"storage"`
	Server    ServerConfig    `yaml:"server"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// SlogLevel parses the configured log level.
func (s Settings) SlogLevel() (slog.Level, error) {
	if s.LogLevel == "" {
		return slog.LevelInfo, nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s.LogLevel, err)
	}
	return level, nil
}

// FieldConfig describes the field partition and the seed for the simulated
// initial conditions. A zero seed means seed from the wall clock.
type FieldConfig struct {
	Width    float64 `yaml:"width"`
	Height   float64 `yaml:"height"`
	ZoneSize float64 `yaml:"zoneSize"`
	Seed     int64   `yaml:"seed"`
}

// DroneConfig describes the drone cost model.
type DroneConfig struct {
	Speed            float64 `yaml:"speed"`            // m/s
	BatteryRate      float64 `yaml:"batteryRate"`      // percent per meter
	ScanningAltitude float64 `yaml:"scanningAltitude"` // meters
	SprayingAltitude float64 `yaml:"sprayingAltitude"` // meters
	TankCapacity     float64 `yaml:"tankCapacity"`     // liters
}

// MissionConfig describes mission policy settings.
type MissionConfig struct {
	Cooldown time.Duration `yaml:"cooldown"` // per-zone intervention cooldown
	Strategy string        `yaml:"strategy"` // zone selection strategy
}

// TelemetryConfig represents MQTT status publishing settings.
type TelemetryConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	ClientID       string        `yaml:"clientID"`
	Topic          string        `yaml:"topic"`
	UpdateInterval time.Duration `yaml:"updateInterval"`
}

// StorageConfig represents storage settings
type StorageConfig struct {
	DataDirectory string `yaml:"dataDirectory"`
}

// ServerConfig represents the control API settings.
type ServerConfig struct {
	ListenAddr string `yaml:"listenAddr"`
}

// LoadConfig reads and validates the YAML configuration at path, filling
// in reference defaults for anything unset.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	var c Config
	if err = yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	c.applyDefaults()
	if err = c.validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Field.Width == 0 {
		c.Field.Width = 1000
	}
	if c.Field.Height == 0 {
		c.Field.Height = 1000
	}
	if c.Field.ZoneSize == 0 {
		c.Field.ZoneSize = 100
	}
	if c.Drone.Speed == 0 {
		c.Drone.Speed = 5.0
	}
	if c.Drone.BatteryRate == 0 {
		c.Drone.BatteryRate = 0.01
	}
	if c.Drone.ScanningAltitude == 0 {
		c.Drone.ScanningAltitude = 30.0
	}
	if c.Drone.SprayingAltitude == 0 {
		c.Drone.SprayingAltitude = 5.0
	}
	if c.Drone.TankCapacity == 0 {
		c.Drone.TankCapacity = 10.0
	}
	if c.Mission.Cooldown == 0 {
		c.Mission.Cooldown = 24 * time.Hour
	}
	if c.Mission.Strategy == "" {
		c.Mission.Strategy = StrategyRandom
	}
	if c.Telemetry.UpdateInterval == 0 {
		c.Telemetry.UpdateInterval = 5 * time.Second
	}
	if c.Telemetry.Topic == "" {
		c.Telemetry.Topic = "agridrone/status"
	}
	if c.Telemetry.ClientID == "" {
		c.Telemetry.ClientID = "agridrone"
	}
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8080"
	}
}

func (c *Config) validate() error {
	if c.Field.ZoneSize <= 0 || c.Field.Width < c.Field.ZoneSize || c.Field.Height < c.Field.ZoneSize {
		return fmt.Errorf("invalid field geometry %.0fx%.0f with zone size %.0f", c.Field.Width, c.Field.Height, c.Field.ZoneSize)
	}
	if c.Drone.Speed <= 0 {
		return fmt.Errorf("invalid drone speed %.1f", c.Drone.Speed)
	}
	if c.Drone.TankCapacity <= 0 {
		return fmt.Errorf("invalid tank capacity %.1f", c.Drone.TankCapacity)
	}

	switch c.Mission.Strategy {
	case StrategyRandom, StrategyRoundRobin, StrategyNearestFirst:
	default:
		return fmt.Errorf("unknown selection strategy %q", c.Mission.Strategy)
	}

	if c.Telemetry.Enabled && c.Telemetry.Host == "" {
		return fmt.Errorf("telemetry enabled without a broker host")
	}
	return nil
}
