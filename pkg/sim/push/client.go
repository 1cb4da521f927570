// Package push implements a telemetry source fed by the host over HTTP.
package push

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"terrainwatch/pkg/logging"
	"terrainwatch/pkg/sim"
)

// DefaultQueueSize bounds the frames held between two drains.
const DefaultQueueSize = 256

// Client holds the frames pushed by the host until the scheduler drains them.
type Client struct {
	mu      sync.Mutex
	tel     sim.Telemetry
	pending []sim.Telemetry
	limit   int
	dropped int
	last    time.Time
	vsEst   *sim.VerticalSpeedEstimator
	now     func() time.Time
	logger  *slog.Logger
}

// NewClient creates an empty push client. It reports StateDisconnected until the first frame.
func NewClient() *Client {
	return &Client{
		limit:  DefaultQueueSize,
		vsEst:  sim.NewVerticalSpeedEstimator(5 * time.Second),
		now:    time.Now,
		logger: slog.With("component", "push"),
	}
}

// Push stores a frame. When hasVS is false the vertical speed is derived from recent altitudes.
func (c *Client) Push(tel sim.Telemetry, hasVS bool) error {
	if err := tel.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if tel.Timestamp.IsZero() {
		tel.Timestamp = now
	}
	derived := c.vsEst.Add(tel.Timestamp, tel.AltitudeMSL)
	if !hasVS {
		tel.VerticalSpeed = derived
	}
	tel.Heading = sim.NormalizeHeading(tel.Heading)

	if c.last.IsZero() {
		c.logger.Info("First telemetry frame received", "lat", tel.Latitude, "lon", tel.Longitude)
	}
	logging.Trace(c.logger, "Frame pushed", "alt", tel.AltitudeMSL, "vs", tel.VerticalSpeed)

	if len(c.pending) >= c.limit {
		c.pending = c.pending[1:]
		c.dropped++
		if c.dropped == 1 || c.dropped%100 == 0 {
			c.logger.Warn("Frame queue full, dropping oldest frame", "dropped", c.dropped)
		}
	}
	c.pending = append(c.pending, tel)
	c.tel = tel
	c.last = now
	return nil
}

// DrainFrames returns every frame pushed since the last drain, ordered by timestamp.
func (c *Client) DrainFrames() []sim.Telemetry {
	c.mu.Lock()
	frames := c.pending
	c.pending = nil
	c.mu.Unlock()

	slices.SortStableFunc(frames, func(a, b sim.Telemetry) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return frames
}

// GetTelemetry returns the last pushed frame.
func (c *Client) GetTelemetry(ctx context.Context) (sim.Telemetry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last.IsZero() {
		return sim.Telemetry{}, sim.ErrNotConnected
	}
	return c.tel, nil
}

// GetState reports whether frames are still arriving.
func (c *Client) GetState() sim.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sim.StateFor(c.last, c.now())
}

// Close resets the client.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = time.Time{}
	c.pending = nil
	c.vsEst.Reset()
	return nil
}
