package altalert

import (
	"fmt"
	"time"

	"terrainwatch/pkg/notify"
)

// Kind is the type of approach minimum.
type Kind string

const (
	KindMDA Kind = "MDA"
	KindDA  Kind = "DA"
)

// ClassMinimums is the event class of the approach minimums warning.
const ClassMinimums = "MINIMUMS"

type approachTarget struct {
	set      bool
	altitude float64
	kind     Kind
	warned   bool
}

// Approach describes the active approach minimum.
type Approach struct {
	Altitude float64 `json:"altitude"`
	Kind     Kind    `json:"kind"`
	Warned   bool    `json:"warned"`
}

// SetApproach sets a new MDA/DA and re-arms the one-shot warning.
func (m *Machine) SetApproach(ft float64, kind Kind) error {
	if err := validAltitude(ft); err != nil {
		return err
	}
	if kind != KindMDA && kind != KindDA {
		return fmt.Errorf("unknown approach minimum type '%s'", kind)
	}
	m.approach = approachTarget{set: true, altitude: ft, kind: kind}
	m.logger.Info("Approach minimum set", "altitude", ft, "kind", kind)
	return nil
}

// ClearApproach removes the approach minimum.
func (m *Machine) ClearApproach() {
	m.approach = approachTarget{}
}

// Approach returns the active approach minimum, if any.
func (m *Machine) Approach() (Approach, bool) {
	a := m.approach
	return Approach{Altitude: a.altitude, Kind: a.kind, Warned: a.warned}, a.set
}

// CheckApproach fires the minimums warning once when descending through the window above the target.
// A throttled attempt does not consume the warning.
func (m *Machine) CheckApproach(alt, vs float64, now time.Time) bool {
	a := &m.approach
	if !a.set || a.warned || vs >= m.th.MinimumsSink {
		return false
	}
	if alt < a.altitude || alt > a.altitude+m.th.MinimumsWindow {
		return false
	}
	msg := fmt.Sprintf("MINIMUMS, %s %.0f", a.kind, a.altitude)
	if !m.emit(ClassMinimums, msg, notify.SeverityWarning, now) {
		return false
	}
	a.warned = true
	return true
}
