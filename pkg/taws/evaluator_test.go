package taws

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"

	"terrainwatch/pkg/sim"
	"terrainwatch/pkg/terrain"
)

// flatGrid returns an n × n heading-up grid of uniform elevation.
func flatGrid(n int, elevation float64) *terrain.ElevationGrid {
	g := &terrain.ElevationGrid{Provider: "fixture", RadiusNM: 5, Resolution: n}
	g.Cells = make([][]terrain.GridCell, n)
	for r := range g.Cells {
		g.Cells[r] = make([]terrain.GridCell, n)
		for c := range g.Cells[r] {
			g.Cells[r][c] = terrain.GridCell{Position: orb.Point{8, 46}, ElevationFt: elevation}
		}
	}
	return g
}

func withPeak(g *terrain.ElevationGrid, r, c int, elevation float64) *terrain.ElevationGrid {
	g.Cells[r][c].ElevationFt = elevation
	return g
}

func TestEvaluate_DecisionOrder(t *testing.T) {
	tests := []struct {
		name      string
		grid      *terrain.ElevationGrid
		alt, vs   float64
		gs        float64
		want      Class
		predicted float64
	}{
		{"HighAboveFlat", flatGrid(10, 0), 5000, 0, 120, ClassClear, 5000},
		{"ForwardBelow50", flatGrid(10, 4960), 5000, 0, 120, ClassPullUp, 40},
		{"PredictedBelow100", flatGrid(10, 4000), 5000, -6000, 120, ClassPullUp, 0},
		{"TerrainDescending", flatGrid(10, 4800), 5000, -400, 120, ClassTerrain, 200 - 400.0/6},
		{"TerrainLevelIsTooLow", flatGrid(10, 4800), 5000, 0, 120, ClassTooLowTerrain, 200},
		{"DontSink", flatGrid(10, 500), 900, -600, 120, ClassDontSink, 300},
		{"DontSinkNeedsLowAltitude", flatGrid(10, 4600), 5000, -600, 120, ClassTooLowTerrain, 300},
		{"TooLowTerrain", flatGrid(10, 4600), 5000, 0, 120, ClassTooLowTerrain, 400},
		{"TooLowTerrainSlow", flatGrid(10, 4600), 5000, 0, 40, ClassClear, 400},
		{"ClimbingAway", flatGrid(10, 4900), 5000, 2000, 120, ClassTooLowTerrain, 100 + 2000.0/6},
	}

	e := NewEvaluator(DefaultThresholds())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.Evaluate(tt.grid, &sim.Telemetry{AltitudeMSL: tt.alt, VerticalSpeed: tt.vs, GroundSpeed: tt.gs})
			assert.Equal(t, tt.want, res.Class)
			assert.Equal(t, tt.want.Message(), res.Message)
			assert.InDelta(t, tt.predicted, res.PredictedClearance, 1e-6)
		})
	}
}

func TestEvaluate_Sectors(t *testing.T) {
	e := NewEvaluator(DefaultThresholds())
	tel := &sim.Telemetry{AltitudeMSL: 5000, VerticalSpeed: -400, GroundSpeed: 120}

	t.Run("ForwardCounts", func(t *testing.T) {
		// 10×10: forward rows [0,5), cols [2,8)
		res := e.Evaluate(flatGrid(10, 0), tel)
		assert.Equal(t, 30, res.ForwardCells)
	})

	t.Run("PeakInForwardSectorEdge", func(t *testing.T) {
		res := e.Evaluate(withPeak(flatGrid(10, 0), 4, 2, 4980), tel)
		assert.Equal(t, ClassPullUp, res.Class)
		assert.InDelta(t, 20, res.MinClearanceForward, 1e-9)
		assert.InDelta(t, 5000, res.MinClearanceAhead, 1e-9)
	})

	t.Run("PeakOutsideColumns", func(t *testing.T) {
		res := e.Evaluate(withPeak(flatGrid(10, 0), 0, 1, 4980), tel)
		assert.Equal(t, ClassClear, res.Class)
	})

	t.Run("PeakBehind", func(t *testing.T) {
		res := e.Evaluate(withPeak(flatGrid(10, 0), 5, 5, 4980), tel)
		assert.Equal(t, ClassClear, res.Class)
	})

	t.Run("PeakCloseAhead", func(t *testing.T) {
		// Close-ahead: rows [0,2), cols [3,7)
		res := e.Evaluate(withPeak(flatGrid(10, 0), 1, 6, 4750), tel)
		assert.Equal(t, ClassTerrain, res.Class)
		assert.InDelta(t, 250, res.MinClearanceAhead, 1e-9)
	})

	t.Run("PeakForwardButNotCloseAhead", func(t *testing.T) {
		res := e.Evaluate(withPeak(flatGrid(10, 0), 2, 5, 4750), tel)
		assert.Equal(t, ClassTooLowTerrain, res.Class)
		assert.InDelta(t, 5000, res.MinClearanceAhead, 1e-9)
	})
}

func TestEvaluate_DegenerateGrids(t *testing.T) {
	e := NewEvaluator(DefaultThresholds())
	tel := &sim.Telemetry{AltitudeMSL: 100, VerticalSpeed: -3000, GroundSpeed: 200}

	for _, g := range []*terrain.ElevationGrid{
		{},
		flatGrid(1, 20000),
	} {
		res := e.Evaluate(g, tel)
		assert.Equal(t, ClassClear, res.Class)
		assert.Equal(t, 0, res.ForwardCells)
	}

	// 2×2 has forward cells but no close-ahead rows; ahead falls back to forward.
	res := e.Evaluate(flatGrid(2, 0), &sim.Telemetry{AltitudeMSL: 5000})
	assert.Equal(t, 2, res.ForwardCells)
	assert.Equal(t, res.MinClearanceForward, res.MinClearanceAhead)
}

func TestClass_Rank(t *testing.T) {
	order := []Class{ClassClear, ClassTooLowTerrain, ClassDontSink, ClassTerrain, ClassPullUp}
	for i := 1; i < len(order); i++ {
		assert.Greater(t, order[i].Rank(), order[i-1].Rank())
	}
}
