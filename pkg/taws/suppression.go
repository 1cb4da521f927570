package taws

import "time"

// SuppressionState is the state of the PULL UP debounce machine.
type SuppressionState string

const (
	SuppressionIdle       SuppressionState = "IDLE"
	SuppressionActive     SuppressionState = "ACTIVE"
	SuppressionSuppressed SuppressionState = "SUPPRESSED"
)

// Transition reports what a tick changed.
type Transition int

const (
	TransitionNone Transition = iota
	// TransitionActivated: PULL UP entered, announce it.
	TransitionActivated
	// TransitionCleared: hold window elapsed, announce the clear.
	TransitionCleared
)

// DefaultPullUpHold is how long PULL UP is asserted before being suppressed.
const DefaultPullUpHold = 10 * time.Second

// Suppressor asserts PULL UP for a bounded window, then reports CLEAR until the raw
// condition goes away. SUPPRESSED deliberately reports CLEAR while the hazard may persist.
// Not safe for concurrent use.
type Suppressor struct {
	hold    time.Duration
	state   SuppressionState
	entered time.Time
}

// NewSuppressor creates an idle machine with the given hold window.
func NewSuppressor(hold time.Duration) *Suppressor {
	return &Suppressor{hold: hold, state: SuppressionIdle}
}

// State returns the current state.
func (s *Suppressor) State() SuppressionState { return s.state }

// Reset returns the machine to IDLE.
func (s *Suppressor) Reset() {
	s.state = SuppressionIdle
	s.entered = time.Time{}
}

// Tick advances the machine with the raw class at time now and returns the effective class.
func (s *Suppressor) Tick(raw Class, now time.Time) (Class, Transition) {
	if raw != ClassPullUp {
		s.Reset()
		return raw, TransitionNone
	}

	switch s.state {
	case SuppressionIdle:
		s.state = SuppressionActive
		s.entered = now
		return ClassPullUp, TransitionActivated
	case SuppressionActive:
		if now.Sub(s.entered) < s.hold {
			return ClassPullUp, TransitionNone
		}
		s.state = SuppressionSuppressed
		return ClassClear, TransitionCleared
	default:
		return ClassClear, TransitionNone
	}
}
