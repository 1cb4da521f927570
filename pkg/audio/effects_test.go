package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

type dummyStreamer struct {
	samples [][2]float64
	pos     int
}

func (s *dummyStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if s.pos >= len(s.samples) {
		return 0, false
	}
	n = copy(samples, s.samples[s.pos:])
	s.pos += n
	return n, true
}

func (s *dummyStreamer) Err() error { return nil }

func constant(n int, v float64) *dummyStreamer {
	in := make([][2]float64, n)
	for i := range in {
		in[i] = [2]float64{v, v}
	}
	return &dummyStreamer{samples: in}
}

func TestSpeakerFilter_BlocksDC(t *testing.T) {
	filter := NewSpeakerFilter(constant(2000, 1.0), 48000, 300, 3400)

	output := make([][2]float64, 2000)
	n, ok := filter.Stream(output)

	assert.Equal(t, 2000, n)
	assert.True(t, ok)

	last := output[1999][0]
	assert.False(t, math.IsNaN(last))
	assert.Less(t, math.Abs(last), 0.05, "DC should be filtered")
}

func TestBiquadFilter_Consistency(t *testing.T) {
	f := NewLowPass(constant(1, 1.0), 44100, 1000, 0.707)

	samples := make([][2]float64, 1)
	f.Stream(samples)

	assert.NotEqual(t, 1.0, samples[0][0], "LowPass filter did not modify signal")
}

func TestEnvelope(t *testing.T) {
	const total, ramp = 100, 10
	e := NewEnvelope(constant(total, 1.0), total, ramp)

	out := make([][2]float64, total)
	n, _ := e.Stream(out)
	assert.Equal(t, total, n)

	assert.Equal(t, 0.0, out[0][0])
	assert.InDelta(t, 0.5, out[5][1], 1e-9)
	assert.Equal(t, 1.0, out[50][0])
	assert.Equal(t, 0.0, out[total-1][0])
	for i := 1; i < ramp; i++ {
		assert.Greater(t, out[i][0], out[i-1][0], "attack not rising at %d", i)
	}
}

func TestEnvelope_ShortStreamClampsRamp(t *testing.T) {
	e := NewEnvelope(constant(6, 1.0), 6, 10)
	assert.Equal(t, 3, e.ramp)
}

func TestVolumeToPower(t *testing.T) {
	assert.Equal(t, 0.0, volumeToPower(1))
	assert.InDelta(t, -1.0, volumeToPower(0.5), 1e-9)
	assert.Equal(t, -10.0, volumeToPower(0))
}
