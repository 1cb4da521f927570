// Package terrain provides elevation sources, sampled elevation grids and the grid cache.
package terrain

import (
	"errors"
	"log/slog"
	"sync"

	"terrainwatch/pkg/logging"
)

// Provider tags, used in cache keys and status output.
const (
	ProviderProcedural = "procedural"
	ProviderDataset    = "dataset"
)

const metersToFeet = 3.28084

// ErrNotLoaded is returned by DatasetProvider.Lookup before a source is attached.
var ErrNotLoaded = errors.New("elevation dataset not loaded")

// ElevationProvider samples terrain elevation in feet MSL. Missing data reads as 0.
type ElevationProvider interface {
	Name() string
	Sample(lat, lon float64) float64
	AreaGrid(lat, lon, radiusNM float64, resolution int) *ElevationGrid
}

// DatasetProvider serves elevation from a real dataset attached after construction.
type DatasetProvider struct {
	mu     sync.RWMutex
	src    ElevationSource
	name   string
	logger *slog.Logger
}

// NewDatasetProvider creates a provider with no data attached.
func NewDatasetProvider() *DatasetProvider {
	return &DatasetProvider{
		name:   ProviderDataset,
		logger: slog.With("component", "terrain"),
	}
}

// Attach makes src the active dataset. name becomes the provider tag (e.g. "etopo1").
func (d *DatasetProvider) Attach(src ElevationSource, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.src = src
	if name != "" {
		d.name = name
	}
	d.logger.Info("Elevation dataset attached", "provider", d.name)
}

// Loaded reports whether a dataset is attached.
func (d *DatasetProvider) Loaded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.src != nil
}

// Name implements ElevationProvider.
func (d *DatasetProvider) Name() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.name
}

// Lookup returns elevation in feet, clamped at sea level, or ErrNotLoaded.
func (d *DatasetProvider) Lookup(lat, lon float64) (float64, error) {
	d.mu.RLock()
	src := d.src
	d.mu.RUnlock()

	if src == nil {
		return 0, ErrNotLoaded
	}
	m, err := src.ElevationMeters(lat, lon)
	if err != nil {
		return 0, err
	}
	if m < 0 {
		return 0, nil
	}
	return m * metersToFeet, nil
}

// Sample implements ElevationProvider. Unknown elevation reads as sea level.
func (d *DatasetProvider) Sample(lat, lon float64) float64 {
	ft, err := d.Lookup(lat, lon)
	if err != nil {
		if !errors.Is(err, ErrNotLoaded) {
			logging.Trace(d.logger, "Elevation lookup failed", "lat", lat, "lon", lon, "error", err)
		}
		return 0
	}
	return ft
}

// AreaGrid implements ElevationProvider.
func (d *DatasetProvider) AreaGrid(lat, lon, radiusNM float64, resolution int) *ElevationGrid {
	return BuildGrid(d.Name(), d.Sample, lat, lon, radiusNM, resolution)
}

// Selector prefers the dataset once it is loaded and falls back to procedural terrain until then.
type Selector struct {
	dataset  *DatasetProvider
	fallback ElevationProvider
}

// NewSelector creates a selector over a dataset provider and a fallback.
func NewSelector(dataset *DatasetProvider, fallback ElevationProvider) *Selector {
	return &Selector{dataset: dataset, fallback: fallback}
}

// Active returns the provider currently in use.
func (s *Selector) Active() ElevationProvider {
	if s.dataset != nil && s.dataset.Loaded() {
		return s.dataset
	}
	return s.fallback
}

// Dataset returns the real provider, for attaching data.
func (s *Selector) Dataset() *DatasetProvider { return s.dataset }

// Name implements ElevationProvider.
func (s *Selector) Name() string { return s.Active().Name() }

// Sample implements ElevationProvider.
func (s *Selector) Sample(lat, lon float64) float64 { return s.Active().Sample(lat, lon) }

// AreaGrid implements ElevationProvider.
func (s *Selector) AreaGrid(lat, lon, radiusNM float64, resolution int) *ElevationGrid {
	return s.Active().AreaGrid(lat, lon, radiusNM, resolution)
}
