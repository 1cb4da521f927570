package terrain

import (
	"math"

	"github.com/paulmach/orb"
)

// GridCell is one elevation sample of an ElevationGrid.
type GridCell struct {
	Position    orb.Point // lon, lat
	ElevationFt float64
	NMX         float64 // east of center (heading-up grids: right of track)
	NMY         float64 // north of center (heading-up grids: ahead)
}

// ElevationGrid is a square window of elevation samples around a center point.
// Row 0 is the north edge (or the far edge ahead for heading-up grids), column 0 the west edge.
// Grids are never mutated after construction.
type ElevationGrid struct {
	Provider   string
	CenterLat  float64
	CenterLon  float64
	RadiusNM   float64
	Resolution int
	Heading    float64 // 0 for north-up grids
	Cells      [][]GridCell
}

// Rows returns the number of rows.
func (g *ElevationGrid) Rows() int { return len(g.Cells) }

// Cols returns the number of columns.
func (g *ElevationGrid) Cols() int {
	if len(g.Cells) == 0 {
		return 0
	}
	return len(g.Cells[0])
}

// Bound returns the geographic bounding box of the cell centers.
func (g *ElevationGrid) Bound() orb.Bound {
	var mp orb.MultiPoint
	for _, row := range g.Cells {
		for _, c := range row {
			mp = append(mp, c.Position)
		}
	}
	return mp.Bound()
}

// BuildGrid samples a resolution × resolution grid covering radiusNM around (lat, lon).
func BuildGrid(provider string, sample func(lat, lon float64) float64, lat, lon, radiusNM float64, resolution int) *ElevationGrid {
	g := &ElevationGrid{
		Provider:   provider,
		CenterLat:  lat,
		CenterLon:  lon,
		RadiusNM:   radiusNM,
		Resolution: resolution,
	}
	if resolution <= 0 || radiusNM <= 0 {
		return g
	}

	step := 2 * radiusNM / float64(resolution)
	cosLat := math.Cos(lat * math.Pi / 180.0)
	if math.Abs(cosLat) < 0.01 {
		cosLat = 0.01
	}

	g.Cells = make([][]GridCell, resolution)
	for r := 0; r < resolution; r++ {
		row := make([]GridCell, resolution)
		nmY := radiusNM - (float64(r)+0.5)*step
		cellLat := clampLat(lat + nmY/60.0)
		for c := 0; c < resolution; c++ {
			nmX := -radiusNM + (float64(c)+0.5)*step
			cellLon := wrapLon(lon + nmX/(60.0*cosLat))
			row[c] = GridCell{
				Position:    orb.Point{cellLon, cellLat},
				ElevationFt: sample(cellLat, cellLon),
				NMX:         nmX,
				NMY:         nmY,
			}
		}
		g.Cells[r] = row
	}
	return g
}

// Rotated returns a heading-up view of a north-up grid: row 0 is the far edge ahead,
// column 0 the left edge. Cells are resampled from the nearest source cell; corners
// outside the source window take the nearest edge cell.
func (g *ElevationGrid) Rotated(heading float64) *ElevationGrid {
	heading = math.Mod(heading, 360)
	if heading < 0 {
		heading += 360
	}
	if heading == 0 || g.Rows() == 0 || g.Heading != 0 {
		return g
	}

	rows, cols := g.Rows(), g.Cols()
	step := 2 * g.RadiusNM / float64(rows)
	theta := heading * math.Pi / 180.0
	sin, cos := math.Sin(theta), math.Cos(theta)

	out := &ElevationGrid{
		Provider:   g.Provider,
		CenterLat:  g.CenterLat,
		CenterLon:  g.CenterLon,
		RadiusNM:   g.RadiusNM,
		Resolution: g.Resolution,
		Heading:    heading,
		Cells:      make([][]GridCell, rows),
	}

	for r := 0; r < rows; r++ {
		row := make([]GridCell, cols)
		ahead := g.RadiusNM - (float64(r)+0.5)*step
		for c := 0; c < cols; c++ {
			right := -g.RadiusNM + (float64(c)+0.5)*step
			east := right*cos + ahead*sin
			north := -right*sin + ahead*cos

			sr := clampIndex(int(math.Floor((g.RadiusNM-north)/step)), rows)
			sc := clampIndex(int(math.Floor((east+g.RadiusNM)/step)), cols)
			src := g.Cells[sr][sc]

			row[c] = GridCell{
				Position:    src.Position,
				ElevationFt: src.ElevationFt,
				NMX:         right,
				NMY:         ahead,
			}
		}
		out.Cells[r] = row
	}
	return out
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func clampLat(lat float64) float64 {
	return math.Max(-90, math.Min(90, lat))
}

func wrapLon(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}
