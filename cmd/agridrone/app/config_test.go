package app

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	c, err := LoadConfig(writeConfig(t, "settings:\n  logLevel: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, 1000.0, c.Field.Width)
	assert.Equal(t, 1000.0, c.Field.Height)
	assert.Equal(t, 100.0, c.Field.ZoneSize)
	assert.Equal(t, 5.0, c.Drone.Speed)
	assert.Equal(t, 0.01, c.Drone.BatteryRate)
	assert.Equal(t, 30.0, c.Drone.ScanningAltitude)
	assert.Equal(t, 5.0, c.Drone.SprayingAltitude)
	assert.Equal(t, 10.0, c.Drone.TankCapacity)
	assert.Equal(t, 24*time.Hour, c.Mission.Cooldown)
	assert.Equal(t, StrategyRandom, c.Mission.Strategy)
	assert.Equal(t, 5*time.Second, c.Telemetry.UpdateInterval)
	assert.Equal(t, ":8080", c.Server.ListenAddr)

	level, err := c.Settings.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadConfigOverrides(t *testing.T) {
	c, err := LoadConfig(writeConfig(t, `
field:
  width: 500
  height: 500
  zoneSize: 50
  seed: 42
drone:
  tankCapacity: 20
mission:
  cooldown: 1h
  strategy: nearest-first
server:
  listenAddr: ":9090"
`))
	require.NoError(t, err)

	assert.Equal(t, 500.0, c.Field.Width)
	assert.Equal(t, 50.0, c.Field.ZoneSize)
	assert.Equal(t, int64(42), c.Field.Seed)
	assert.Equal(t, 20.0, c.Drone.TankCapacity)
	assert.Equal(t, time.Hour, c.Mission.Cooldown)
	assert.Equal(t, StrategyNearestFirst, c.Mission.Strategy)
	assert.Equal(t, ":9090", c.Server.ListenAddr)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"field smaller than zone", "field:\n  width: 50\n  height: 50\n"},
		{"unknown strategy", "mission:\n  strategy: clockwise\n"},
		{"telemetry without host", "telemetry:\n  enabled: true\n"},
		{"bad log level", "settings:\n  logLevel: loud\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := LoadConfig(writeConfig(t, tt.content))
			if err != nil {
				return
			}
			// Log level parsing happens at use, not load.
			_, err = c.Settings.SlogLevel()
			require.Error(t, err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
