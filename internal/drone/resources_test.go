package drone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResources(t *testing.T) {
	r, err := NewResources(10)
	require.NoError(t, err)

	assert.Equal(t, 100.0, r.Battery())
	assert.Equal(t, 10.0, r.Spray())
	assert.Equal(t, 10.0, r.TankCapacity())
}

func TestNewResourcesInvalidCapacity(t *testing.T) {
	_, err := NewResources(0)
	require.Error(t, err)

	_, err = NewResources(-1)
	require.Error(t, err)
}

func TestDrainBattery(t *testing.T) {
	r, err := NewResources(10)
	require.NoError(t, err)

	assert.Equal(t, 95.0, r.DrainBattery(5))
	assert.Equal(t, 95.0, r.Battery())

	// Negative amounts are ignored.
	assert.Equal(t, 95.0, r.DrainBattery(-10))
}

func TestDrainBatteryClampsAtZero(t *testing.T) {
	r, err := NewResources(10)
	require.NoError(t, err)

	assert.Equal(t, 0.0, r.DrainBattery(150))
	assert.Equal(t, 0.0, r.Battery())
}

func TestConsumeSpray(t *testing.T) {
	r, err := NewResources(10)
	require.NoError(t, err)

	require.NoError(t, r.ConsumeSpray(0.5))
	assert.InDelta(t, 9.5, r.Spray(), 1e-9)

	require.NoError(t, r.ConsumeSpray(9.5))
	assert.Equal(t, 0.0, r.Spray())
}

func TestConsumeSprayExhausted(t *testing.T) {
	r, err := NewResources(1)
	require.NoError(t, err)

	require.NoError(t, r.ConsumeSpray(0.7))

	err = r.ConsumeSpray(0.5)
	require.ErrorIs(t, err, ErrResourceExhausted)

	// A rejected request leaves the level unchanged.
	assert.InDelta(t, 0.3, r.Spray(), 1e-9)
}

func TestConsumeSprayInvalidQuantity(t *testing.T) {
	r, err := NewResources(10)
	require.NoError(t, err)

	require.Error(t, r.ConsumeSpray(0))
	require.Error(t, r.ConsumeSpray(-1))
	assert.Equal(t, 10.0, r.Spray())
}

func TestLevels(t *testing.T) {
	r, err := NewResources(10)
	require.NoError(t, err)

	r.DrainBattery(30)
	require.NoError(t, r.ConsumeSpray(2))

	battery, spray := r.Levels()
	assert.Equal(t, 70.0, battery)
	assert.Equal(t, 8.0, spray)
}
