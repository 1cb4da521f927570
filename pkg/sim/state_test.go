package sim

import (
	"testing"
	"time"
)

func TestStateFor(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		last time.Time
		want State
	}{
		{"never received", time.Time{}, StateDisconnected},
		{"fresh frame", now.Add(-100 * time.Millisecond), StateActive},
		{"at the limit", now.Add(-StaleAfter), StateActive},
		{"stale", now.Add(-StaleAfter - time.Millisecond), StateInactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StateFor(tt.last, now); got != tt.want {
				t.Errorf("StateFor() = %v, want %v", got, tt.want)
			}
		})
	}
}
