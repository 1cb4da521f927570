package terrain

import "fmt"

// GridSource is an in-memory regular lat/lon raster in meters.
// Row 0 is the north edge, column 0 the west edge.
type GridSource struct {
	north, west float64
	step        float64 // degrees between samples
	rows, cols  int
	data        []float64
}

// NewGridSource wraps row-major samples starting at (north, west).
func NewGridSource(north, west, stepDeg float64, rows, cols int, meters []float64) (*GridSource, error) {
	if rows <= 0 || cols <= 0 || stepDeg <= 0 {
		return nil, fmt.Errorf("invalid grid source shape %dx%d step %f", rows, cols, stepDeg)
	}
	if len(meters) != rows*cols {
		return nil, fmt.Errorf("grid source expects %d samples, got %d", rows*cols, len(meters))
	}
	return &GridSource{
		north: north,
		west:  west,
		step:  stepDeg,
		rows:  rows,
		cols:  cols,
		data:  meters,
	}, nil
}

// ElevationMeters returns the nearest sample, or an error outside the covered area.
func (g *GridSource) ElevationMeters(lat, lon float64) (float64, error) {
	r := int((g.north-lat)/g.step + 0.5)
	c := int((lon-g.west)/g.step + 0.5)
	if lat > g.north+g.step/2 || lon < g.west-g.step/2 || r < 0 || r >= g.rows || c < 0 || c >= g.cols {
		return 0, fmt.Errorf("coordinates outside grid source: %f, %f", lat, lon)
	}
	return g.data[r*g.cols+c], nil
}
