package audio

import (
	"errors"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terrainwatch/pkg/config"
	"terrainwatch/pkg/notify"
)

type fakeSpeaker struct {
	inits   int
	played  []beep.Streamer
	clears  int
	initErr error
}

func newFakePlayer(cfg config.AudioConfig) (*TonePlayer, *fakeSpeaker) {
	fs := &fakeSpeaker{}
	p := NewTonePlayer(&cfg)
	p.initFn = func(sr beep.SampleRate, bufferSize int) error {
		fs.inits++
		return fs.initErr
	}
	p.playFn = func(s beep.Streamer) { fs.played = append(fs.played, s) }
	p.clearFn = func() { fs.clears++ }
	return p, fs
}

func drain(s beep.Streamer) int {
	buf := make([][2]float64, 512)
	total := 0
	for {
		n, ok := s.Stream(buf)
		total += n
		if !ok {
			return total
		}
	}
}

func TestRender_LengthMatchesPattern(t *testing.T) {
	cfg := config.DefaultConfig().Audio
	for _, sev := range []notify.Severity{notify.SeverityInfo, notify.SeverityWarning, notify.SeverityCritical, notify.SeveritySuccess} {
		pat := notify.PatternFor(sev)
		s, n, err := Render(pat, &cfg)
		require.NoError(t, err)

		want := SampleRate.N(pat.Length())
		assert.InDelta(t, want, n, float64(len(pat.Tones)*pat.Repeat*2), "pattern %s", pat.ID)
		assert.Equal(t, n, drain(s), "pattern %s", pat.ID)
	}
}

func TestRender_Silent(t *testing.T) {
	cfg := config.DefaultConfig().Audio
	cfg.Volume = 0
	cfg.SpeakerFilter = false

	s, _, err := Render(notify.PatternFor(notify.SeverityInfo), &cfg)
	require.NoError(t, err)

	buf := make([][2]float64, 256)
	s.Stream(buf)
	for _, sample := range buf {
		assert.Equal(t, [2]float64{0, 0}, sample)
	}
}

func TestTonePlayer_Play(t *testing.T) {
	p, fs := newFakePlayer(config.DefaultConfig().Audio)

	require.NoError(t, p.Play(notify.PatternFor(notify.SeverityWarning)))
	require.NoError(t, p.Play(notify.PatternFor(notify.SeverityCritical)))

	assert.Equal(t, 1, fs.inits, "speaker opened once")
	assert.Equal(t, 2, fs.clears, "each pattern replaces the previous")
	assert.Len(t, fs.played, 2)
}

func TestTonePlayer_Disabled(t *testing.T) {
	cfg := config.DefaultConfig().Audio
	cfg.Enabled = false
	p, fs := newFakePlayer(cfg)

	require.NoError(t, p.Play(notify.PatternFor(notify.SeverityCritical)))
	assert.False(t, p.Enabled())
	assert.Equal(t, 0, fs.inits)
	assert.Empty(t, fs.played)
}

func TestTonePlayer_InitFailure(t *testing.T) {
	p, fs := newFakePlayer(config.DefaultConfig().Audio)
	now := new(time.Time)
	*now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return *now }
	fs.initErr = errors.New("no device")

	err := p.Play(notify.PatternFor(notify.SeverityInfo))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no device")
	assert.Empty(t, fs.played)

	// Within the retry window the speaker is not touched and nothing is reported.
	fs.initErr = nil
	*now = now.Add(initRetry / 2)
	require.NoError(t, p.Play(notify.PatternFor(notify.SeverityInfo)))
	assert.Equal(t, 1, fs.inits)
	assert.Empty(t, fs.played)

	// Retried once the window has passed.
	*now = now.Add(initRetry)
	require.NoError(t, p.Play(notify.PatternFor(notify.SeverityInfo)))
	assert.Equal(t, 2, fs.inits)
	assert.Len(t, fs.played, 1)
}

func TestTonePlayer_SetVolume(t *testing.T) {
	p, _ := newFakePlayer(config.DefaultConfig().Audio)
	p.SetVolume(1.5)
	assert.Equal(t, 1.0, p.Volume())
	p.SetVolume(-1)
	assert.Equal(t, 0.0, p.Volume())
}
