// Package clearance maps terrain clearance to display bands.
package clearance

import "terrainwatch/pkg/terrain"

// Band is a clearance severity band.
type Band string

const (
	Immediate Band = "IMMEDIATE" // terrain at or above the aircraft
	Close     Band = "CLOSE"
	Caution   Band = "CAUTION"
	Safe      Band = "SAFE"
	Clear     Band = "CLEAR"
)

// Color is a display color token.
type Color string

const (
	Red        Color = "red"
	Yellow     Color = "yellow"
	Green      Color = "green"
	Background Color = "background"
)

// Threshold ladder in feet of clearance.
const (
	closeBelow   = 0.0
	cautionBelow = 500.0
	safeBelow    = 1000.0
	clearBelow   = 1500.0
)

var bandRank = map[Band]int{
	Immediate: 0,
	Close:     1,
	Caution:   2,
	Safe:      3,
	Clear:     4,
}

// Rank orders bands from most to least hazardous. Unknown bands rank -1.
func (b Band) Rank() int {
	if r, ok := bandRank[b]; ok {
		return r
	}
	return -1
}

// Classify maps aircraft altitude and cell elevation (feet) to a band and color.
func Classify(aircraftAltitude, cellElevation float64) (Band, Color) {
	return ClassifyClearance(aircraftAltitude - cellElevation)
}

// ClassifyClearance maps a clearance value in feet to a band and color.
func ClassifyClearance(c float64) (Band, Color) {
	switch {
	case c < closeBelow:
		return Immediate, Red
	case c < cautionBelow:
		return Close, Red
	case c < safeBelow:
		return Caution, Yellow
	case c < clearBelow:
		return Safe, Green
	default:
		return Clear, Background
	}
}

// Cell is the classification of one grid cell.
type Cell struct {
	Band        Band    `json:"band"`
	Color       Color   `json:"color"`
	ClearanceFt float64 `json:"clearance_ft"`
	ElevationFt float64 `json:"elevation_ft"`
}

// Map is the per-cell classification of a grid for rendering.
type Map struct {
	Provider string   `json:"provider"`
	Rows     int      `json:"rows"`
	Cols     int      `json:"cols"`
	Altitude float64  `json:"altitude"`
	Cells    [][]Cell `json:"cells"`
}

// ClassifyGrid classifies every cell of g for the given aircraft altitude.
func ClassifyGrid(g *terrain.ElevationGrid, altitude float64) Map {
	m := Map{
		Provider: g.Provider,
		Rows:     g.Rows(),
		Cols:     g.Cols(),
		Altitude: altitude,
		Cells:    make([][]Cell, g.Rows()),
	}
	for r, row := range g.Cells {
		out := make([]Cell, len(row))
		for c, cell := range row {
			band, color := Classify(altitude, cell.ElevationFt)
			out[c] = Cell{
				Band:        band,
				Color:       color,
				ClearanceFt: altitude - cell.ElevationFt,
				ElevationFt: cell.ElevationFt,
			}
		}
		m.Cells[r] = out
	}
	return m
}

// Counts tallies cells per band.
func (m Map) Counts() map[Band]int {
	counts := make(map[Band]int, len(bandRank))
	for _, row := range m.Cells {
		for _, c := range row {
			counts[c.Band]++
		}
	}
	return counts
}
