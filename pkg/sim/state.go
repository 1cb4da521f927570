// Package sim provides telemetry source interfaces and types.
package sim

import "time"

// State represents the connection and activity state of the telemetry source.
type State string

const (
	// StateDisconnected indicates no telemetry has ever been received.
	StateDisconnected State = "disconnected"
	// StateInactive indicates the source went quiet (host paused or gone).
	StateInactive State = "inactive"
	// StateActive indicates frames are arriving.
	StateActive State = "active"
)

// StaleAfter is how long a source may stay silent before it counts as inactive.
const StaleAfter = 5 * time.Second

// StateFor derives the source state from the time of the last frame.
func StateFor(last, now time.Time) State {
	if last.IsZero() {
		return StateDisconnected
	}
	if now.Sub(last) > StaleAfter {
		return StateInactive
	}
	return StateActive
}
