package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrNotConnected is returned when no telemetry has been received yet.
	ErrNotConnected = errors.New("telemetry source not connected")
	// ErrInvalidFrame is returned for frames with out-of-range or non-finite fields.
	ErrInvalidFrame = errors.New("invalid telemetry frame")
)

// Client defines the interface for a telemetry source.
type Client interface {
	// GetTelemetry returns the current state of the aircraft.
	GetTelemetry(ctx context.Context) (Telemetry, error)
	// GetState returns the current source connection/activity state.
	GetState() State
	// Close cleans up resources associated with the client.
	Close() error
}

// FrameQueue is implemented by sources that buffer every delivered frame. Consumers drain
// it instead of sampling GetTelemetry so no frame is skipped between ticks.
type FrameQueue interface {
	// DrainFrames returns the frames received since the last drain, oldest first.
	DrainFrames() []Telemetry
}

// Telemetry represents a snapshot of aircraft state. Frames are consumed once per tick.
type Telemetry struct {
	Latitude      float64   `json:"latitude"`       // Degrees
	Longitude     float64   `json:"longitude"`      // Degrees
	AltitudeMSL   float64   `json:"altitude"`       // Feet MSL
	VerticalSpeed float64   `json:"vertical_speed"` // Feet per minute
	GroundSpeed   float64   `json:"ground_speed"`   // Knots
	Heading       float64   `json:"heading"`        // Degrees True
	Timestamp     time.Time `json:"timestamp,omitempty"`
}

// Validate rejects frames the engine cannot place on the globe.
func (t *Telemetry) Validate() error {
	for name, v := range map[string]float64{
		"latitude":       t.Latitude,
		"longitude":      t.Longitude,
		"altitude":       t.AltitudeMSL,
		"vertical_speed": t.VerticalSpeed,
		"ground_speed":   t.GroundSpeed,
		"heading":        t.Heading,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidFrame, name)
		}
	}
	if t.Latitude < -90 || t.Latitude > 90 {
		return fmt.Errorf("%w: latitude %.4f out of range", ErrInvalidFrame, t.Latitude)
	}
	if t.Longitude < -180 || t.Longitude > 180 {
		return fmt.Errorf("%w: longitude %.4f out of range", ErrInvalidFrame, t.Longitude)
	}
	return nil
}

// NormalizeHeading maps any heading in degrees into [0, 360).
func NormalizeHeading(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}
