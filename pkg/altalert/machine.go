// Package altalert tracks a pilot-assigned altitude and approach minimums.
package altalert

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"terrainwatch/pkg/notify"
)

// ErrInvalidAltitude is returned for negative or non-finite altitudes.
var ErrInvalidAltitude = errors.New("invalid altitude")

// State is the assigned-altitude tracking state.
type State string

const (
	StateIdle        State = "IDLE"
	StateArmed       State = "ARMED"
	StateApproaching State = "APPROACHING"
	StateProximity   State = "PROXIMITY"
	StateCaptured    State = "CAPTURED"
	StateHolding     State = "HOLDING"
	StateDeviation   State = "DEVIATION"
)

// Color returns the display color of the state.
func (s State) Color() string {
	switch s {
	case StateArmed:
		return "white"
	case StateApproaching:
		return "cyan"
	case StateProximity:
		return "amber"
	case StateCaptured, StateHolding:
		return "green"
	case StateDeviation:
		return "red"
	default:
		return "off"
	}
}

// Thresholds holds deviation limits in feet and emission cadence.
type Thresholds struct {
	Approach        float64
	Proximity       float64
	Capture         float64
	Deviation       float64
	Throttle        time.Duration
	DeviationRepeat time.Duration
	MinimumsWindow  float64
	MinimumsSink    float64 // fpm, negative
}

// DefaultThresholds returns the standard limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Approach:        1000,
		Proximity:       200,
		Capture:         100,
		Deviation:       300,
		Throttle:        2 * time.Second,
		DeviationRepeat: 5 * time.Second,
		MinimumsWindow:  100,
		MinimumsSink:    -100,
	}
}

// Machine is the assigned-altitude state machine. Not safe for concurrent use.
type Machine struct {
	th       Thresholds
	notifier notify.Notifier
	logger   *slog.Logger

	state    State
	assigned float64

	lastEmit     time.Time // last non-critical emission
	lastCritical time.Time

	approach approachTarget
}

// New creates an idle machine.
func New(th Thresholds, n notify.Notifier) *Machine {
	return &Machine{
		th:       th,
		notifier: n,
		logger:   slog.With("component", "altalert"),
		state:    StateIdle,
	}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Assigned returns the assigned altitude and whether one is set.
func (m *Machine) Assigned() (float64, bool) {
	return m.assigned, m.state != StateIdle
}

func validAltitude(ft float64) error {
	if math.IsNaN(ft) || math.IsInf(ft, 0) || ft < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidAltitude, ft)
	}
	return nil
}

// SetAssigned arms the machine for a new target. Invalid values leave the machine untouched.
func (m *Machine) SetAssigned(ft float64) error {
	if err := validAltitude(ft); err != nil {
		return err
	}
	m.assigned = ft
	m.state = StateArmed
	m.lastCritical = time.Time{}
	m.logger.Info("Assigned altitude set", "altitude", ft)
	return nil
}

// ClearAssigned returns the machine to IDLE.
func (m *Machine) ClearAssigned() {
	if m.state != StateIdle {
		m.logger.Info("Assigned altitude cleared", "altitude", m.assigned)
	}
	m.state = StateIdle
	m.assigned = 0
}

// Update advances the machine with the current altitude at time now. IDLE ignores updates.
func (m *Machine) Update(alt, vs float64, now time.Time) State {
	if m.state == StateIdle || math.IsNaN(alt) {
		return m.state
	}

	d := math.Abs(alt - m.assigned)
	next := m.next(d)

	if next != m.state {
		m.logger.Debug("Altitude state transition", "from", m.state, "to", next, "deviation", d)
		m.state = next
		m.emitFor(next, d, now)
		return m.state
	}

	if m.state == StateDeviation && now.Sub(m.lastCritical) >= m.th.DeviationRepeat {
		m.emitFor(StateDeviation, d, now)
	}
	return m.state
}

// next evaluates the transition table; the first matching rule wins.
func (m *Machine) next(d float64) State {
	th := m.th
	switch m.state {
	case StateArmed:
		switch {
		case d < th.Capture:
			return StateCaptured
		case d < th.Approach:
			return StateApproaching
		}
	case StateApproaching:
		switch {
		case d < th.Capture:
			return StateCaptured
		case d < th.Proximity:
			return StateProximity
		case d >= th.Approach:
			return StateArmed
		}
	case StateProximity:
		switch {
		case d < th.Capture:
			return StateCaptured
		case d >= th.Approach:
			return StateArmed
		case d >= th.Proximity:
			return StateApproaching
		}
	case StateCaptured:
		switch {
		case d < th.Capture:
			return StateCaptured
		case d < th.Proximity:
			return StateHolding
		case d >= th.Deviation:
			return StateDeviation
		default:
			return StateProximity
		}
	case StateHolding:
		switch {
		case d < th.Capture:
			return StateCaptured
		case d >= th.Deviation:
			return StateDeviation
		case d >= th.Proximity && d < th.Approach:
			return StateApproaching
		}
	case StateDeviation:
		// Below the deviation limit always lands in HOLDING; the proximity rule never matches first.
		if d < th.Deviation {
			return StateHolding
		}
	}
	return m.state
}

func (m *Machine) emitFor(s State, d float64, now time.Time) {
	target := m.assigned
	switch s {
	case StateApproaching:
		m.emit(string(s), fmt.Sprintf("Approaching %.0f ft", target), notify.SeverityInfo, now)
	case StateProximity:
		m.emit(string(s), fmt.Sprintf("%.0f ft to %.0f", d, target), notify.SeverityWarning, now)
	case StateCaptured:
		m.emit(string(s), fmt.Sprintf("Altitude %.0f captured", target), notify.SeveritySuccess, now)
	case StateDeviation:
		m.emit(string(s), fmt.Sprintf("Altitude deviation %.0f ft from %.0f", d, target), notify.SeverityCritical, now)
	}
}

// emit sends an event unless throttled. Critical events bypass the throttle. Reports whether it fired.
func (m *Machine) emit(class, msg string, sev notify.Severity, now time.Time) bool {
	if sev == notify.SeverityCritical {
		m.lastCritical = now
	} else {
		if !m.lastEmit.IsZero() && now.Sub(m.lastEmit) < m.th.Throttle {
			m.logger.Debug("Altitude alert throttled", "class", class)
			return false
		}
		m.lastEmit = now
	}
	if m.notifier != nil {
		m.notifier.Notify(notify.SourceAltitude, class, msg, sev)
	}
	return true
}
