// Package audio renders notification patterns as synthesized tones on the system speaker.
package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/generators"
	"github.com/gopxl/beep/v2/speaker"

	"terrainwatch/pkg/config"
	"terrainwatch/pkg/notify"
)

// SampleRate is the fixed output rate of the speaker.
const SampleRate = beep.SampleRate(48000)

const rampDuration = 5 * time.Millisecond

// initRetry is how long a failed speaker init is remembered before the next attempt.
const initRetry = 30 * time.Second

var errSpeakerBackoff = errors.New("speaker unavailable")

// TonePlayer plays notify patterns. A newer pattern replaces whatever is still sounding.
type TonePlayer struct {
	mu          sync.Mutex
	cfg         config.AudioConfig
	initialized bool
	initFailed  time.Time
	logger      *slog.Logger
	now         func() time.Time

	initFn  func(sr beep.SampleRate, bufferSize int) error
	playFn  func(s beep.Streamer)
	clearFn func()
}

// NewTonePlayer creates a player. The speaker is opened on first use.
func NewTonePlayer(cfg *config.AudioConfig) *TonePlayer {
	return &TonePlayer{
		cfg:     *cfg,
		logger:  slog.With("component", "audio"),
		now:     time.Now,
		initFn:  speaker.Init,
		playFn:  func(s beep.Streamer) { speaker.Play(s) },
		clearFn: speaker.Clear,
	}
}

// Enabled reports whether tones are played at all.
func (p *TonePlayer) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg.Enabled
}

// SetVolume sets the output volume, clamped to 0..1.
func (p *TonePlayer) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	p.mu.Lock()
	p.cfg.Volume = v
	p.mu.Unlock()
}

// Volume returns the output volume.
func (p *TonePlayer) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg.Volume
}

// ensureSpeakerInitialized opens the speaker. After a failure it reports errSpeakerBackoff
// until initRetry has passed.
func (p *TonePlayer) ensureSpeakerInitialized() error {
	if p.initialized {
		return nil
	}
	now := p.now()
	if !p.initFailed.IsZero() && now.Sub(p.initFailed) < initRetry {
		return errSpeakerBackoff
	}
	if err := p.initFn(SampleRate, SampleRate.N(time.Second/10)); err != nil {
		p.initFailed = now
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}
	p.initialized = true
	p.initFailed = time.Time{}
	p.logger.Debug("Speaker initialized", "sample_rate", int(SampleRate))
	return nil
}

// Play starts the pattern and returns without waiting for it to finish.
func (p *TonePlayer) Play(pat notify.Pattern) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.cfg.Enabled {
		return nil
	}
	if err := p.ensureSpeakerInitialized(); err != nil {
		if errors.Is(err, errSpeakerBackoff) {
			// Already reported; the pattern is skipped quietly.
			return nil
		}
		return err
	}
	s, _, err := Render(pat, &p.cfg)
	if err != nil {
		return err
	}
	p.clearFn()
	p.playFn(s)
	p.logger.Debug("Playing pattern", "pattern", pat.ID, "length", pat.Length())
	return nil
}

// Render builds the streamer for a pattern and returns it with its length in samples.
func Render(pat notify.Pattern, cfg *config.AudioConfig) (beep.Streamer, int, error) {
	var parts []beep.Streamer
	total := 0
	ramp := SampleRate.N(rampDuration)

	for i := 0; i < pat.Repeat; i++ {
		for _, t := range pat.Tones {
			n := SampleRate.N(t.Duration)
			if n > 0 {
				sine, err := generators.SineTone(SampleRate, t.FreqHz)
				if err != nil {
					return nil, 0, fmt.Errorf("tone %.0f Hz: %w", t.FreqHz, err)
				}
				parts = append(parts, NewEnvelope(beep.Take(n, sine), n, ramp))
				total += n
			}
			if g := SampleRate.N(t.Gap); g > 0 {
				parts = append(parts, beep.Silence(g))
				total += g
			}
		}
	}

	var s beep.Streamer = beep.Seq(parts...)
	if cfg.SpeakerFilter && cfg.LowCutoff > 0 && cfg.HighCutoff > cfg.LowCutoff {
		s = NewSpeakerFilter(s, float64(SampleRate), cfg.LowCutoff, cfg.HighCutoff)
	}
	vol := &effects.Volume{
		Streamer: s,
		Base:     2,
		Volume:   volumeToPower(cfg.Volume),
		Silent:   cfg.Volume <= silentVolume,
	}
	return vol, total, nil
}

// silentVolume is the linear volume at or below which output is muted.
const silentVolume = 0.01

// volumeToPower maps a linear 0..1 volume onto the exponent effects.Volume uses with Base 2.
func volumeToPower(vol float64) float64 {
	if vol <= silentVolume {
		return -10
	}
	return math.Log2(vol)
}
