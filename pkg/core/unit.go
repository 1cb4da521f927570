package core

import (
	"errors"
	"log/slog"
	"sync"

	"terrainwatch/pkg/altalert"
	"terrainwatch/pkg/engine"
	"terrainwatch/pkg/sim"
)

// Unit serializes access to the engine for the scheduler and the HTTP handlers.
type Unit struct {
	mu       sync.Mutex
	eng      *engine.Engine
	simState sim.State
	dropped  int
	logger   *slog.Logger
}

// NewUnit wraps an engine.
func NewUnit(eng *engine.Engine) *Unit {
	return &Unit{
		eng:      eng,
		simState: sim.StateDisconnected,
		logger:   slog.With("component", "unit"),
	}
}

// Update implements TelemetrySink: one engine tick per frame.
func (u *Unit) Update(t *sim.Telemetry) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, err := u.eng.Tick(*t); err != nil {
		u.dropped++
		if errors.Is(err, sim.ErrInvalidFrame) && u.dropped%100 == 1 {
			u.logger.Warn("Invalid telemetry frames dropped", "count", u.dropped, "error", err)
		}
	}
}

// UpdateState implements TelemetrySink.
func (u *Unit) UpdateState(s sim.State) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if s != u.simState {
		u.logger.Info("Telemetry source state changed", "from", u.simState, "to", s)
	}
	u.simState = s
}

// SimState returns the last reported telemetry source state.
func (u *Unit) SimState() sim.State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.simState
}

// Status returns the engine status snapshot.
func (u *Unit) Status() engine.Status {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.eng.Status()
}

// Last returns the most recent tick output.
func (u *Unit) Last() (engine.Output, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.eng.Last()
}

// SetAssignedAltitude sets or, with nil, clears the assigned altitude.
func (u *Unit) SetAssignedAltitude(ft *float64) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.eng.SetAssignedAltitude(ft)
}

// SetApproachAltitude sets the approach minimum.
func (u *Unit) SetApproachAltitude(ft float64, kind altalert.Kind) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.eng.SetApproachAltitude(ft, kind)
}

// ClearApproachAltitude removes the approach minimum.
func (u *Unit) ClearApproachAltitude() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.eng.ClearApproachAltitude()
}

// SetInhibited toggles terrain alert inhibition.
func (u *Unit) SetInhibited(v bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.eng.SetInhibited(v)
}

// RunTest starts the terrain self-test.
func (u *Unit) RunTest() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.eng.RunTest()
}
