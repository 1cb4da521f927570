package terrain

import "math"

// octave of the procedural terrain: lattice frequency per degree and amplitude in feet.
type octave struct {
	freq float64
	amp  float64
}

var proceduralOctaves = []octave{
	{freq: 2, amp: 4200},
	{freq: 5, amp: 2100},
	{freq: 13, amp: 900},
	{freq: 31, amp: 350},
}

const (
	ridgeFreq      = 3.0
	ridgeAmp       = 5200.0
	proceduralBase = -3600.0
)

// ProceduralProvider synthesizes plausible terrain from (lat, lon) alone.
// It is a pure function of its seed and inputs.
type ProceduralProvider struct {
	seed uint64
}

// NewProceduralProvider creates a procedural provider for the given seed.
func NewProceduralProvider(seed int64) *ProceduralProvider {
	return &ProceduralProvider{seed: uint64(seed)}
}

// Name implements ElevationProvider.
func (p *ProceduralProvider) Name() string { return ProviderProcedural }

// Sample returns the synthetic elevation in feet, never below sea level.
func (p *ProceduralProvider) Sample(lat, lon float64) float64 {
	h := proceduralBase
	for i, o := range proceduralOctaves {
		h += o.amp * p.valueNoise(lat*o.freq, lon*o.freq, uint64(i))
	}

	// Ridged noise: sharp crests where the base noise crosses its midpoint.
	n := p.valueNoise(lat*ridgeFreq+17.3, lon*ridgeFreq-41.9, 99)
	ridge := 1 - math.Abs(2*n-1)
	h += ridgeAmp * ridge * ridge

	if h < 0 {
		return 0
	}
	return h
}

// AreaGrid implements ElevationProvider.
func (p *ProceduralProvider) AreaGrid(lat, lon, radiusNM float64, resolution int) *ElevationGrid {
	return BuildGrid(p.Name(), p.Sample, lat, lon, radiusNM, resolution)
}

// valueNoise interpolates hashed lattice values in [0, 1) with a smoothstep fade.
func (p *ProceduralProvider) valueNoise(x, y float64, layer uint64) float64 {
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := fade(x-x0), fade(y-y0)
	ix, iy := int64(x0), int64(y0)

	v00 := p.lattice(ix, iy, layer)
	v10 := p.lattice(ix+1, iy, layer)
	v01 := p.lattice(ix, iy+1, layer)
	v11 := p.lattice(ix+1, iy+1, layer)

	top := v00 + (v10-v00)*fx
	bottom := v01 + (v11-v01)*fx
	return top + (bottom-top)*fy
}

func (p *ProceduralProvider) lattice(ix, iy int64, layer uint64) float64 {
	h := p.seed ^ (uint64(ix) * 0x9E3779B97F4A7C15) ^ (uint64(iy) * 0xC2B2AE3D27D4EB4F) ^ (layer * 0x165667B19E3779F9)
	h = splitmix64(h)
	return float64(h>>11) / float64(1<<53)
}

func splitmix64(z uint64) uint64 {
	z += 0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

func fade(t float64) float64 {
	return t * t * (3 - 2*t)
}
