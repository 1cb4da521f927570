package altalert

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terrainwatch/pkg/notify"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestMachine() (*Machine, *notify.Recorder) {
	rec := &notify.Recorder{}
	d := notify.NewDispatcher(nil)
	d.AddSink(rec)
	return New(DefaultThresholds(), d), rec
}

func classes(events []notify.Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Class)
	}
	return out
}

// visited feeds altitudes at the given spacing and returns the distinct states in order.
func visited(m *Machine, alts []float64, spacing time.Duration) []State {
	states := []State{m.State()}
	now := t0
	for _, alt := range alts {
		s := m.Update(alt, 0, now)
		if s != states[len(states)-1] {
			states = append(states, s)
		}
		now = now.Add(spacing)
	}
	return states
}

func TestCaptureRoundTrip(t *testing.T) {
	t.Run("ThroughProximity", func(t *testing.T) {
		m, rec := newTestMachine()
		require.NoError(t, m.SetAssigned(5000))

		got := visited(m, []float64{6200, 5800, 5150, 5080, 5000}, 3*time.Second)

		assert.Equal(t, []State{StateArmed, StateApproaching, StateProximity, StateCaptured}, got)
		assert.Equal(t, []string{"APPROACHING", "PROXIMITY", "CAPTURED"}, classes(rec.Events()))
		assert.Equal(t, notify.SeveritySuccess, rec.Events()[2].Severity)
	})

	t.Run("CoarseSteps", func(t *testing.T) {
		// 5300 is outside the proximity band and 5080 inside capture: PROXIMITY is stepped over.
		m, _ := newTestMachine()
		require.NoError(t, m.SetAssigned(5000))

		got := visited(m, []float64{6200, 5800, 5300, 5080, 5000}, 3*time.Second)

		assert.Equal(t, []State{StateArmed, StateApproaching, StateCaptured}, got)
	})
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		name string
		from []float64 // altitudes to reach the starting state
		alt  float64
		want State
	}{
		{"ArmedStaysFar", nil, 6500, StateArmed},
		{"ArmedDirectCapture", nil, 5050, StateCaptured},
		{"ApproachingBackToArmed", []float64{5500}, 6000, StateArmed},
		{"ProximityToApproaching", []float64{5500, 5150}, 5400, StateApproaching},
		{"ProximityToArmed", []float64{5500, 5150}, 3900, StateArmed},
		{"ProximityHolds", []float64{5500, 5150}, 4880, StateProximity},
		{"CapturedStays", []float64{5000}, 5090, StateCaptured},
		{"CapturedToHolding", []float64{5000}, 5150, StateHolding},
		{"CapturedToProximity", []float64{5000}, 4750, StateProximity},
		{"CapturedToDeviation", []float64{5000}, 5300, StateDeviation},
		{"HoldingToCaptured", []float64{5000, 5150}, 5020, StateCaptured},
		{"HoldingToApproaching", []float64{5000, 5150}, 5250, StateApproaching},
		{"HoldingToDeviation", []float64{5000, 5150}, 4600, StateDeviation},
		{"DeviationStays", []float64{5000, 5400}, 5600, StateDeviation},
		{"DeviationToHolding", []float64{5000, 5400}, 5250, StateHolding},
		{"DeviationDeepRecoveryHolds", []float64{5000, 5400}, 5150, StateHolding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestMachine()
			require.NoError(t, m.SetAssigned(5000))
			now := t0
			for _, alt := range tt.from {
				m.Update(alt, 0, now)
				now = now.Add(time.Second)
			}
			assert.Equal(t, tt.want, m.Update(tt.alt, 0, now))
		})
	}
}

func TestThrottle(t *testing.T) {
	m, rec := newTestMachine()
	require.NoError(t, m.SetAssigned(5000))

	m.Update(5800, 0, t0)
	m.Update(5150, 0, t0.Add(100*time.Millisecond))
	m.Update(5050, 0, t0.Add(200*time.Millisecond))

	assert.Equal(t, StateCaptured, m.State(), "state advances even when the alert is dropped")
	assert.Equal(t, []string{"APPROACHING"}, classes(rec.Events()))

	// Critical bypasses the throttle.
	m.Update(5400, 0, t0.Add(300*time.Millisecond))
	assert.Equal(t, []string{"APPROACHING", "DEVIATION"}, classes(rec.Events()))

	// HOLDING is silent; the following APPROACHING info is still inside the window.
	assert.Equal(t, StateHolding, m.Update(5250, 0, t0.Add(400*time.Millisecond)))
	assert.Equal(t, StateApproaching, m.Update(5250, 0, t0.Add(500*time.Millisecond)))
	assert.Len(t, rec.Events(), 2)

	assert.Equal(t, StateCaptured, m.Update(5000, 0, t0.Add(2*time.Second)))
	assert.Equal(t, []string{"APPROACHING", "DEVIATION", "CAPTURED"}, classes(rec.Events()))
}

func TestDeviationRepeatCadence(t *testing.T) {
	m, rec := newTestMachine()
	require.NoError(t, m.SetAssigned(5000))
	require.Equal(t, StateCaptured, m.Update(5000, 0, t0))

	start := t0.Add(100 * time.Millisecond)
	end := start.Add(21 * time.Second)
	for now := start; !now.After(end); now = now.Add(100 * time.Millisecond) {
		assert.Equal(t, StateDeviation, m.Update(5500, 0, now))
	}

	crit := 0
	for _, ev := range rec.Events() {
		if ev.Class == string(StateDeviation) {
			crit++
		}
	}
	// Entry at +0.1s, then +5.1, +10.1, +15.1, +20.1.
	assert.Equal(t, 5, crit)
}

func TestDeviationRepeatIntervals(t *testing.T) {
	var fired []time.Time
	n := &timedNotifier{}
	m := New(DefaultThresholds(), n)
	require.NoError(t, m.SetAssigned(5000))
	m.Update(5000, 0, t0)

	for i := 1; i <= 300; i++ {
		now := t0.Add(time.Duration(i) * 70 * time.Millisecond)
		n.now = now
		m.Update(5500, 0, now)
	}
	for _, c := range n.calls {
		if c.sev == notify.SeverityCritical {
			fired = append(fired, c.at)
		}
	}

	require.GreaterOrEqual(t, len(fired), 4)
	for i := 1; i < len(fired); i++ {
		gap := fired[i].Sub(fired[i-1])
		assert.GreaterOrEqual(t, gap, 5*time.Second, "repeat too soon")
		assert.Less(t, gap, 5*time.Second+70*time.Millisecond, "repeat too late")
	}
}

type notifyCall struct {
	class string
	sev   notify.Severity
	at    time.Time
}

type timedNotifier struct {
	now   time.Time
	calls []notifyCall
}

func (n *timedNotifier) Notify(source notify.Source, class, message string, sev notify.Severity) notify.Event {
	n.calls = append(n.calls, notifyCall{class: class, sev: sev, at: n.now})
	return notify.Event{Class: class, Severity: sev}
}

func TestSetAssigned_Validation(t *testing.T) {
	m, _ := newTestMachine()

	for _, bad := range []float64{-1, math.NaN(), math.Inf(1)} {
		err := m.SetAssigned(bad)
		assert.True(t, errors.Is(err, ErrInvalidAltitude), "value %v", bad)
	}
	assert.Equal(t, StateIdle, m.State())

	require.NoError(t, m.SetAssigned(5000))
	m.Update(5000, 0, t0)
	require.Error(t, m.SetAssigned(-100))

	alt, ok := m.Assigned()
	assert.True(t, ok)
	assert.Equal(t, 5000.0, alt)
	assert.Equal(t, StateCaptured, m.State(), "rejected value keeps previous state")
}

func TestIdleAndClear(t *testing.T) {
	m, rec := newTestMachine()

	assert.Equal(t, StateIdle, m.Update(5000, 0, t0))
	_, ok := m.Assigned()
	assert.False(t, ok)

	require.NoError(t, m.SetAssigned(8000))
	m.Update(7500, 0, t0)
	m.ClearAssigned()

	assert.Equal(t, StateIdle, m.State())
	assert.Equal(t, StateIdle, m.Update(8000, 0, t0.Add(5*time.Second)))
	assert.Len(t, rec.Events(), 1)
	assert.Equal(t, "off", m.State().Color())
}
