package push

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terrainwatch/pkg/sim"
)

func newTestClient(start time.Time) (*Client, *time.Time) {
	now := start
	c := NewClient()
	c.now = func() time.Time { return now }
	return c, &now
}

func TestClient_NotConnectedUntilFirstFrame(t *testing.T) {
	c, _ := newTestClient(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	_, err := c.GetTelemetry(context.Background())
	assert.True(t, errors.Is(err, sim.ErrNotConnected))
	assert.Equal(t, sim.StateDisconnected, c.GetState())

	require.NoError(t, c.Push(sim.Telemetry{Latitude: 46.8, Longitude: 9.8, AltitudeMSL: 9000, Heading: -10}, true))

	tel, err := c.GetTelemetry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9000.0, tel.AltitudeMSL)
	assert.Equal(t, 350.0, tel.Heading)
	assert.Equal(t, sim.StateActive, c.GetState())
}

func TestClient_RejectsInvalidFrame(t *testing.T) {
	c, _ := newTestClient(time.Now())
	err := c.Push(sim.Telemetry{Latitude: 120}, true)
	assert.True(t, errors.Is(err, sim.ErrInvalidFrame))

	_, err = c.GetTelemetry(context.Background())
	assert.True(t, errors.Is(err, sim.ErrNotConnected), "rejected frame must not be stored")
}

func TestClient_DerivesVerticalSpeed(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c, _ := newTestClient(start)

	require.NoError(t, c.Push(sim.Telemetry{AltitudeMSL: 6000, Timestamp: start}, false))
	require.NoError(t, c.Push(sim.Telemetry{AltitudeMSL: 5900, Timestamp: start.Add(6 * time.Second)}, false))

	tel, err := c.GetTelemetry(context.Background())
	require.NoError(t, err)
	assert.True(t, math.Abs(tel.VerticalSpeed-(-1000)) < 1, "expected ~-1000 fpm, got %.1f", tel.VerticalSpeed)

	// Reported vertical speed wins over the derived one.
	require.NoError(t, c.Push(sim.Telemetry{AltitudeMSL: 5800, VerticalSpeed: -200, Timestamp: start.Add(7 * time.Second)}, true))
	tel, _ = c.GetTelemetry(context.Background())
	assert.Equal(t, -200.0, tel.VerticalSpeed)
}

func TestClient_GoesInactiveWhenQuiet(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c, now := newTestClient(start)

	require.NoError(t, c.Push(sim.Telemetry{AltitudeMSL: 5000}, true))
	*now = start.Add(sim.StaleAfter + time.Second)
	assert.Equal(t, sim.StateInactive, c.GetState())

	require.NoError(t, c.Close())
	assert.Equal(t, sim.StateDisconnected, c.GetState())
}

func TestClient_DrainFrames(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c, _ := newTestClient(start)

	for i, alt := range []float64{5000, 4200, 4800} {
		// Pushed newest first.
		at := start.Add(time.Duration(2-i) * 100 * time.Millisecond)
		require.NoError(t, c.Push(sim.Telemetry{AltitudeMSL: alt, Timestamp: at}, true))
	}

	frames := c.DrainFrames()
	require.Len(t, frames, 3)
	assert.Equal(t, []float64{4800, 4200, 5000}, []float64{frames[0].AltitudeMSL, frames[1].AltitudeMSL, frames[2].AltitudeMSL})
	assert.Empty(t, c.DrainFrames(), "drain empties the queue")

	tel, err := c.GetTelemetry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4800.0, tel.AltitudeMSL, "latest pushed frame stays readable")
}

func TestClient_QueueDropsOldest(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c, _ := newTestClient(start)
	c.limit = 2

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Push(sim.Telemetry{AltitudeMSL: float64(1000 * (i + 1)), Timestamp: start.Add(time.Duration(i) * time.Second)}, true))
	}

	frames := c.DrainFrames()
	require.Len(t, frames, 2)
	assert.Equal(t, 2000.0, frames[0].AltitudeMSL)
	assert.Equal(t, 3000.0, frames[1].AltitudeMSL)
}
