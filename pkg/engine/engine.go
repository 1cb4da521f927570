// Package engine runs one terrain and altitude awareness evaluation per telemetry frame.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"terrainwatch/pkg/altalert"
	"terrainwatch/pkg/clearance"
	"terrainwatch/pkg/config"
	"terrainwatch/pkg/logging"
	"terrainwatch/pkg/notify"
	"terrainwatch/pkg/sim"
	"terrainwatch/pkg/taws"
	"terrainwatch/pkg/terrain"
)

// TerrainState is the terrain alert outcome of a tick.
type TerrainState struct {
	Raw         taws.Class            `json:"raw"`
	Effective   taws.Class            `json:"effective"`
	Result      taws.Result           `json:"result"`
	Suppression taws.SuppressionState `json:"suppression"`
	Inhibited   bool                  `json:"inhibited"`
	SelfTest    bool                  `json:"self_test"`
}

// AltitudeState is the assigned-altitude outcome of a tick.
type AltitudeState struct {
	State     altalert.State `json:"state"`
	Color     string         `json:"color"`
	Assigned  *float64       `json:"assigned,omitempty"`
	Deviation *float64       `json:"deviation,omitempty"`
	Minimums  bool           `json:"minimums"`
}

// Output is everything a tick produces for the host.
type Output struct {
	Clearance clearance.Map `json:"clearance"`
	Terrain   TerrainState  `json:"terrain"`
	Altitude  AltitudeState `json:"altitude"`
	Provider  string        `json:"provider"`
	Time      time.Time     `json:"time"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock used for all timing decisions.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine ties the elevation source, evaluators and alert machines together.
// Not safe for concurrent use; callers serialize Tick and the pilot actions.
type Engine struct {
	provider terrain.ElevationProvider
	cache    *terrain.GridCache
	notifier notify.Notifier
	logger   *slog.Logger
	now      func() time.Time

	radiusNM   float64
	selfTest   time.Duration
	evaluator  *taws.Evaluator
	suppressor *taws.Suppressor
	altitude   *altalert.Machine

	inhibited bool
	testUntil time.Time
	prevClass taws.Class

	last    Output
	hasLast bool
}

// New creates an engine. provider is usually a *terrain.Selector so a dataset attached later is picked up.
func New(cfg *config.Config, provider terrain.ElevationProvider, cache *terrain.GridCache, n notify.Notifier, opts ...Option) *Engine {
	e := &Engine{
		provider:   provider,
		cache:      cache,
		notifier:   n,
		logger:     slog.With("component", "engine"),
		now:        time.Now,
		radiusNM:   cfg.Terrain.Radius.NauticalMiles(),
		selfTest:   cfg.TerrainAlerts.SelfTest.Std(),
		evaluator:  taws.NewEvaluator(TerrainThresholds(&cfg.TerrainAlerts)),
		suppressor: taws.NewSuppressor(cfg.TerrainAlerts.PullUpHold.Std()),
		altitude:   altalert.New(AltitudeThresholds(&cfg.AltitudeAlerts), n),
		prevClass:  taws.ClassClear,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Tick evaluates one frame. Invalid frames are rejected and leave all state untouched.
func (e *Engine) Tick(frame sim.Telemetry) (Output, error) {
	if err := frame.Validate(); err != nil {
		e.logger.Warn("Dropping telemetry frame", "error", err)
		return e.last, err
	}
	now := e.now()

	grid := e.cache.Get(e.provider, frame.Latitude, frame.Longitude, e.radiusNM)
	out := Output{
		Clearance: clearance.ClassifyGrid(grid, frame.AltitudeMSL),
		Provider:  grid.Provider,
		Time:      now,
	}

	out.Terrain = e.tickTerrain(grid, &frame, now)
	out.Altitude = e.tickAltitude(&frame, now)

	logging.Trace(e.logger, "Tick",
		"provider", out.Provider,
		"alt", frame.AltitudeMSL,
		"vs", frame.VerticalSpeed,
		"raw", out.Terrain.Raw,
		"effective", out.Terrain.Effective,
		"altitude_state", out.Altitude.State,
		"bands", out.Clearance.Counts())

	e.last = out
	e.hasLast = true
	return out, nil
}

func (e *Engine) tickTerrain(grid *terrain.ElevationGrid, frame *sim.Telemetry, now time.Time) TerrainState {
	res := e.evaluator.Evaluate(grid.Rotated(frame.Heading), frame)
	st := TerrainState{Raw: res.Class, Result: res}

	if e.testActive(now) {
		st.SelfTest = true
		st.Raw = taws.ClassPullUp
	}

	if e.inhibited {
		st.Inhibited = true
		st.Effective = taws.ClassClear
		st.Suppression = e.suppressor.State()
		return st
	}

	effective, tr := e.suppressor.Tick(st.Raw, now)
	st.Effective = effective
	st.Suppression = e.suppressor.State()

	if effective != e.prevClass {
		e.logger.Debug("Terrain class changed", "from", e.prevClass, "to", effective, "raw", st.Raw, "transition", tr)
		e.emitTerrain(effective, tr)
		e.prevClass = effective
	}
	return st
}

func (e *Engine) emitTerrain(c taws.Class, tr taws.Transition) {
	if e.notifier == nil {
		return
	}
	msg := c.Message()
	if tr == taws.TransitionCleared {
		msg = "Pull up suppressed"
	}
	e.notifier.Notify(notify.SourceTerrain, string(c), msg, terrainSeverity(c))
}

func terrainSeverity(c taws.Class) notify.Severity {
	switch c {
	case taws.ClassPullUp:
		return notify.SeverityCritical
	case taws.ClassTerrain, taws.ClassDontSink, taws.ClassTooLowTerrain:
		return notify.SeverityWarning
	default:
		return notify.SeverityInfo
	}
}

func (e *Engine) tickAltitude(frame *sim.Telemetry, now time.Time) AltitudeState {
	st := AltitudeState{State: e.altitude.Update(frame.AltitudeMSL, frame.VerticalSpeed, now)}
	st.Minimums = e.altitude.CheckApproach(frame.AltitudeMSL, frame.VerticalSpeed, now)
	st.Color = st.State.Color()
	if alt, ok := e.altitude.Assigned(); ok {
		d := frame.AltitudeMSL - alt
		st.Assigned = &alt
		st.Deviation = &d
	}
	return st
}

func (e *Engine) testActive(now time.Time) bool {
	return !e.testUntil.IsZero() && now.Before(e.testUntil)
}

// SetAssignedAltitude sets the assigned altitude, or clears it when ft is nil.
func (e *Engine) SetAssignedAltitude(ft *float64) error {
	if ft == nil {
		e.altitude.ClearAssigned()
		return nil
	}
	if err := e.altitude.SetAssigned(*ft); err != nil {
		return fmt.Errorf("set assigned altitude: %w", err)
	}
	return nil
}

// SetApproachAltitude sets the MDA/DA and re-arms the minimums warning.
func (e *Engine) SetApproachAltitude(ft float64, kind altalert.Kind) error {
	if err := e.altitude.SetApproach(ft, kind); err != nil {
		return fmt.Errorf("set approach altitude: %w", err)
	}
	return nil
}

// ClearApproachAltitude removes the approach minimum.
func (e *Engine) ClearApproachAltitude() {
	e.altitude.ClearApproach()
}

// SetInhibited toggles terrain alert inhibition. Evaluation restarts from a clean slate on the next tick.
func (e *Engine) SetInhibited(v bool) {
	if v == e.inhibited {
		return
	}
	e.inhibited = v
	e.suppressor.Reset()
	e.prevClass = taws.ClassClear
	e.logger.Info("Terrain alerts inhibit changed", "inhibited", v)
}

// Inhibited reports whether terrain alerts are inhibited.
func (e *Engine) Inhibited() bool { return e.inhibited }

// RunTest forces PULL UP for the self-test window starting now.
func (e *Engine) RunTest() {
	e.testUntil = e.now().Add(e.selfTest)
	e.logger.Info("Terrain self-test started", "duration", e.selfTest)
}

// Last returns the output of the most recent successful tick.
func (e *Engine) Last() (Output, bool) {
	return e.last, e.hasLast
}
