package engine

import (
	"time"

	"terrainwatch/pkg/altalert"
	"terrainwatch/pkg/taws"
)

// Status is a read-only snapshot for display.
type Status struct {
	AssignedAltitude *float64           `json:"assigned_altitude"`
	State            altalert.State     `json:"state"`
	Color            string             `json:"color"`
	Approach         *altalert.Approach `json:"approach,omitempty"`
	Inhibited        bool               `json:"inhibited"`
	SelfTest         bool               `json:"self_test"`
	TerrainClass     taws.Class         `json:"terrain_class"`
	Provider         string             `json:"provider"`
	LastTick         time.Time          `json:"last_tick,omitempty"`
}

// Status returns the current snapshot. Values are copies.
func (e *Engine) Status() Status {
	st := e.altitude.State()
	s := Status{
		State:        st,
		Color:        st.Color(),
		Inhibited:    e.inhibited,
		SelfTest:     e.testActive(e.now()),
		TerrainClass: e.prevClass,
		Provider:     e.provider.Name(),
	}
	if e.inhibited {
		s.TerrainClass = taws.ClassClear
	}
	if alt, ok := e.altitude.Assigned(); ok {
		s.AssignedAltitude = &alt
	}
	if a, ok := e.altitude.Approach(); ok {
		s.Approach = &a
	}
	if e.hasLast {
		s.LastTick = e.last.Time
	}
	return s
}
