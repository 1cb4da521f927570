package notify

import "time"

// Tone is one beep of a pattern.
type Tone struct {
	FreqHz   float64
	Duration time.Duration
	Gap      time.Duration // silence after the tone
}

// Pattern is an audible cue: its tones played Repeat times.
type Pattern struct {
	ID     string
	Tones  []Tone
	Repeat int
}

// Pattern IDs.
const (
	PatternInfo     = "chime-info"
	PatternWarning  = "chime-warning"
	PatternCritical = "chime-critical"
	PatternSuccess  = "chime-success"
)

var patterns = map[Severity]Pattern{
	SeverityInfo: {
		ID:     PatternInfo,
		Tones:  []Tone{{FreqHz: 880, Duration: 150 * time.Millisecond}},
		Repeat: 1,
	},
	SeverityWarning: {
		ID:     PatternWarning,
		Tones:  []Tone{{FreqHz: 1320, Duration: 300 * time.Millisecond}},
		Repeat: 1,
	},
	SeverityCritical: {
		ID: PatternCritical,
		Tones: []Tone{
			{FreqHz: 1000, Duration: 200 * time.Millisecond, Gap: 30 * time.Millisecond},
			{FreqHz: 750, Duration: 200 * time.Millisecond, Gap: 120 * time.Millisecond},
		},
		Repeat: 3,
	},
	SeveritySuccess: {
		ID: PatternSuccess,
		Tones: []Tone{
			{FreqHz: 660, Duration: 120 * time.Millisecond, Gap: 40 * time.Millisecond},
			{FreqHz: 880, Duration: 120 * time.Millisecond, Gap: 40 * time.Millisecond},
			{FreqHz: 1100, Duration: 180 * time.Millisecond},
		},
		Repeat: 1,
	},
}

// PatternFor returns the pattern for a severity, falling back to info.
func PatternFor(sev Severity) Pattern {
	if p, ok := patterns[sev]; ok {
		return p
	}
	return patterns[SeverityInfo]
}

// Length returns the total playing time of the pattern.
func (p Pattern) Length() time.Duration {
	var one time.Duration
	for _, t := range p.Tones {
		one += t.Duration + t.Gap
	}
	return one * time.Duration(p.Repeat)
}
