package sim

import "time"

// VerticalSpeedEstimator derives vertical speed from altitude samples for hosts
// that do not report it. The rate is the least-squares slope over a trailing
// window, which rejects single-sample altimeter jitter. Not safe for concurrent use.
type VerticalSpeedEstimator struct {
	window  time.Duration
	samples []altSample
}

type altSample struct {
	at  time.Time
	alt float64
}

// NewVerticalSpeedEstimator creates an estimator over the given window (e.g. 5s).
func NewVerticalSpeedEstimator(window time.Duration) *VerticalSpeedEstimator {
	return &VerticalSpeedEstimator{window: window}
}

// Add records an altitude in feet and returns the estimated rate in fpm.
// Samples that do not advance in time replace the previous one.
func (e *VerticalSpeedEstimator) Add(at time.Time, alt float64) float64 {
	if n := len(e.samples); n > 0 && !at.After(e.samples[n-1].at) {
		e.samples[n-1].alt = alt
	} else {
		e.samples = append(e.samples, altSample{at: at, alt: alt})
	}

	cutoff := at.Add(-e.window)
	drop := 0
	for drop < len(e.samples)-2 && e.samples[drop].at.Before(cutoff) {
		drop++
	}
	e.samples = e.samples[drop:]

	return e.rate()
}

func (e *VerticalSpeedEstimator) rate() float64 {
	n := float64(len(e.samples))
	if n < 2 {
		return 0
	}
	origin := e.samples[0].at
	var sx, sy, sxx, sxy float64
	for _, s := range e.samples {
		x := s.at.Sub(origin).Seconds()
		sx += x
		sy += s.alt
		sxx += x * x
		sxy += x * s.alt
	}
	den := n*sxx - sx*sx
	if den <= 0 {
		return 0
	}
	return (n*sxy - sx*sy) / den * 60
}

// Reset drops all samples.
func (e *VerticalSpeedEstimator) Reset() {
	e.samples = nil
}
