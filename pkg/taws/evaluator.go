// Package taws derives terrain alert classes from elevation grids and debounces PULL UP.
package taws

import (
	"math"
	"time"

	"terrainwatch/pkg/sim"
	"terrainwatch/pkg/terrain"
)

// Class is a terrain alert classification.
type Class string

const (
	ClassClear         Class = "CLEAR"
	ClassTooLowTerrain Class = "TOO_LOW_TERRAIN"
	ClassDontSink      Class = "DONT_SINK"
	ClassTerrain       Class = "TERRAIN"
	ClassPullUp        Class = "PULL_UP"
)

var classRank = map[Class]int{
	ClassClear:         0,
	ClassTooLowTerrain: 1,
	ClassDontSink:      2,
	ClassTerrain:       3,
	ClassPullUp:        4,
}

// Rank orders classes by ascending severity.
func (c Class) Rank() int { return classRank[c] }

// Message returns the annunciation text for the class.
func (c Class) Message() string {
	switch c {
	case ClassPullUp:
		return "PULL UP"
	case ClassTerrain:
		return "TERRAIN, TERRAIN"
	case ClassDontSink:
		return "DON'T SINK"
	case ClassTooLowTerrain:
		return "TOO LOW, TERRAIN"
	default:
		return "Terrain clear"
	}
}

// Thresholds holds the decision limits. Clearances in feet, rates in fpm, speed in knots.
type Thresholds struct {
	LookAhead          time.Duration
	PullUpPredicted    float64
	PullUpForward      float64
	TerrainAhead       float64
	TerrainSink        float64
	DontSinkAltitude   float64
	DontSinkRate       float64
	LowTerrainForward  float64
	LowTerrainMinSpeed float64
}

// DefaultThresholds returns the standard decision limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LookAhead:          10 * time.Second,
		PullUpPredicted:    100,
		PullUpForward:      50,
		TerrainAhead:       300,
		TerrainSink:        -300,
		DontSinkAltitude:   1000,
		DontSinkRate:       -500,
		LowTerrainForward:  500,
		LowTerrainMinSpeed: 50,
	}
}

// Sector bounds as fractions of the heading-up grid.
const (
	forwardColStart = 0.20
	forwardColEnd   = 0.80
	aheadColStart   = 0.35
	aheadColEnd     = 0.65
)

// Result is the outcome of one evaluation.
type Result struct {
	Class               Class   `json:"class"`
	Message             string  `json:"message"`
	PredictedClearance  float64 `json:"predicted_clearance"`
	MinClearanceForward float64 `json:"min_clearance_forward"`
	MinClearanceAhead   float64 `json:"min_clearance_ahead"`
	ForwardCells        int     `json:"forward_cells"`
}

// Evaluator classifies terrain hazard ahead of the aircraft.
type Evaluator struct {
	th Thresholds
}

// NewEvaluator creates an evaluator with the given thresholds.
func NewEvaluator(th Thresholds) *Evaluator {
	return &Evaluator{th: th}
}

// Evaluate scans a heading-up grid (row 0 = far edge ahead). A grid without forward cells is CLEAR.
func (e *Evaluator) Evaluate(g *terrain.ElevationGrid, tel *sim.Telemetry) Result {
	rows, cols := g.Rows(), g.Cols()
	alt := tel.AltitudeMSL

	fwdRows := rows / 2
	fwdMin, fwdCount := minClearance(g, alt, 0, fwdRows,
		int(math.Floor(forwardColStart*float64(cols))), int(math.Ceil(forwardColEnd*float64(cols))))

	if fwdCount == 0 {
		return Result{Class: ClassClear, Message: ClassClear.Message()}
	}

	aheadMin, aheadCount := minClearance(g, alt, 0, fwdRows/2,
		int(math.Floor(aheadColStart*float64(cols))), int(math.Ceil(aheadColEnd*float64(cols))))
	if aheadCount == 0 {
		aheadMin = fwdMin
	}

	vs := tel.VerticalSpeed
	predicted := aheadMin + (vs/60.0)*e.th.LookAhead.Seconds()

	res := Result{
		PredictedClearance:  predicted,
		MinClearanceForward: fwdMin,
		MinClearanceAhead:   aheadMin,
		ForwardCells:        fwdCount,
	}

	switch {
	case predicted < e.th.PullUpPredicted || fwdMin < e.th.PullUpForward:
		res.Class = ClassPullUp
	case aheadMin < e.th.TerrainAhead && vs < e.th.TerrainSink:
		res.Class = ClassTerrain
	case alt < e.th.DontSinkAltitude && vs < e.th.DontSinkRate && fwdMin < e.th.LowTerrainForward:
		res.Class = ClassDontSink
	case fwdMin < e.th.LowTerrainForward && tel.GroundSpeed > e.th.LowTerrainMinSpeed:
		res.Class = ClassTooLowTerrain
	default:
		res.Class = ClassClear
	}
	res.Message = res.Class.Message()
	return res
}

// minClearance returns the minimum clearance over rows [r0, r1) and cols [c0, c1), and the cell count.
func minClearance(g *terrain.ElevationGrid, alt float64, r0, r1, c0, c1 int) (float64, int) {
	lowest := math.Inf(1)
	n := 0
	for r := r0; r < r1 && r < len(g.Cells); r++ {
		row := g.Cells[r]
		for c := c0; c < c1 && c < len(row); c++ {
			if c < 0 {
				continue
			}
			if cl := alt - row[c].ElevationFt; cl < lowest {
				lowest = cl
			}
			n++
		}
	}
	return lowest, n
}
