package audio

import (
	"math"

	"github.com/gopxl/beep/v2"
)

// biquad holds RBJ cookbook coefficients normalized by a0.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

func lowPassCoeffs(sampleRate, cutoff, q float64) biquad {
	w := 2 * math.Pi * cutoff / sampleRate
	cs, alpha := math.Cos(w), math.Sin(w)/(2*q)
	a0 := 1 + alpha
	return biquad{
		b0: (1 - cs) / 2 / a0,
		b1: (1 - cs) / a0,
		b2: (1 - cs) / 2 / a0,
		a1: -2 * cs / a0,
		a2: (1 - alpha) / a0,
	}
}

func highPassCoeffs(sampleRate, cutoff, q float64) biquad {
	w := 2 * math.Pi * cutoff / sampleRate
	cs, alpha := math.Cos(w), math.Sin(w)/(2*q)
	a0 := 1 + alpha
	return biquad{
		b0: (1 + cs) / 2 / a0,
		b1: -(1 + cs) / a0,
		b2: (1 + cs) / 2 / a0,
		a1: -2 * cs / a0,
		a2: (1 - alpha) / a0,
	}
}

// BiquadFilter is a second-order IIR filter over a stereo streamer (direct form I).
type BiquadFilter struct {
	streamer beep.Streamer
	c        biquad

	// per channel history: previous two inputs and outputs
	x1, x2 [2]float64
	y1, y2 [2]float64
}

// NewLowPass creates a low-pass filter at cutoff Hz.
func NewLowPass(streamer beep.Streamer, sampleRate, cutoff, q float64) *BiquadFilter {
	return &BiquadFilter{streamer: streamer, c: lowPassCoeffs(sampleRate, cutoff, q)}
}

// NewHighPass creates a high-pass filter at cutoff Hz.
func NewHighPass(streamer beep.Streamer, sampleRate, cutoff, q float64) *BiquadFilter {
	return &BiquadFilter{streamer: streamer, c: highPassCoeffs(sampleRate, cutoff, q)}
}

// Stream implements beep.Streamer.
func (f *BiquadFilter) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = f.streamer.Stream(samples)
	c := f.c
	for i := range samples[:n] {
		for ch := range 2 {
			x := samples[i][ch]
			y := c.b0*x + c.b1*f.x1[ch] + c.b2*f.x2[ch] - c.a1*f.y1[ch] - c.a2*f.y2[ch]
			f.x1[ch], f.x2[ch] = x, f.x1[ch]
			f.y1[ch], f.y2[ch] = y, f.y1[ch]
			samples[i][ch] = y
		}
	}
	return n, ok
}

// Err implements beep.Streamer.
func (f *BiquadFilter) Err() error {
	return f.streamer.Err()
}

// NewSpeakerFilter band-limits a streamer to the response of a small cockpit speaker.
// Q=0.707 is a Butterworth response (flat passband).
func NewSpeakerFilter(streamer beep.Streamer, sampleRate, lowCutoff, highCutoff float64) beep.Streamer {
	hp := NewHighPass(streamer, sampleRate, lowCutoff, 0.707)
	return NewLowPass(hp, sampleRate, highCutoff, 0.707)
}

// Envelope ramps a finite streamer of known length in and out linearly so tones start and stop without clicks.
type Envelope struct {
	Streamer beep.Streamer
	total    int
	ramp     int
	pos      int
}

// NewEnvelope wraps a streamer of total samples with ramp samples of attack and release.
func NewEnvelope(s beep.Streamer, total, ramp int) *Envelope {
	if ramp*2 > total {
		ramp = total / 2
	}
	return &Envelope{Streamer: s, total: total, ramp: ramp}
}

// Stream applies the envelope gain.
func (e *Envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.Streamer.Stream(samples)
	for i := 0; i < n; i++ {
		g := e.gain(e.pos)
		samples[i][0] *= g
		samples[i][1] *= g
		e.pos++
	}
	return n, ok
}

func (e *Envelope) gain(pos int) float64 {
	if e.ramp <= 0 {
		return 1
	}
	if pos < e.ramp {
		return float64(pos) / float64(e.ramp)
	}
	if rem := e.total - 1 - pos; rem < e.ramp {
		return math.Max(0, float64(rem)/float64(e.ramp))
	}
	return 1
}

func (e *Envelope) Err() error {
	return e.Streamer.Err()
}
