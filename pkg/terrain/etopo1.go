package terrain

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// ETOPO1 is cell-registered at 1 arc-minute: 10801 rows × 21601 cols.
const etopo1PerDegree = 60

// ElevationSource yields raw elevation in meters. Implementations may be slow (disk) and may fail.
type ElevationSource interface {
	ElevationMeters(lat, lon float64) (float64, error)
}

// RasterFile reads a global int16 little-endian raster laid out north-to-south, west-to-east.
type RasterFile struct {
	file      *os.File
	perDegree int
	rows      int
	cols      int
}

// OpenETOPO1 opens the ETOPO1 ice-surface binary grid.
func OpenETOPO1(path string) (*RasterFile, error) {
	return openRaster(path, etopo1PerDegree)
}

// openRaster opens a global raster with the given number of samples per degree.
func openRaster(path string, perDegree int) (*RasterFile, error) {
	rows := 180*perDegree + 1
	cols := 360*perDegree + 1
	size := int64(rows) * int64(cols) * 2

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	if info.Size() != size {
		f.Close()
		return nil, fmt.Errorf("invalid elevation file size: expected %d, got %d", size, info.Size())
	}

	return &RasterFile{
		file:      f,
		perDegree: perDegree,
		rows:      rows,
		cols:      cols,
	}, nil
}

// Close closes the file handle.
func (r *RasterFile) Close() error {
	return r.file.Close()
}

// ElevationMeters returns the nearest-sample elevation in meters at the given lat/lon.
func (r *RasterFile) ElevationMeters(lat, lon float64) (float64, error) {
	if lat > 90 || lat < -90 || lon > 180 || lon < -180 {
		return 0, fmt.Errorf("coordinates out of bounds: %f, %f", lat, lon)
	}

	scale := float64(r.perDegree)
	row := int(math.Round((90.0 - lat) * scale))
	col := int(math.Round((lon + 180.0) * scale))

	if row >= r.rows {
		row = r.rows - 1
	}
	if col >= r.cols {
		col %= r.cols
	}

	offset := int64(row*r.cols+col) * 2

	b := make([]byte, 2)
	if _, err := r.file.ReadAt(b, offset); err != nil {
		return 0, fmt.Errorf("read elevation at row %d col %d: %w", row, col, err)
	}

	return float64(int16(binary.LittleEndian.Uint16(b))), nil
}
