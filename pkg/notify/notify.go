// Package notify turns alert decisions into events, fans them out and triggers audible cues.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Severity selects the audible pattern and display color of an event.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
	SeveritySuccess  Severity = "success"
)

// Color returns the display color for the severity.
func (s Severity) Color() string {
	switch s {
	case SeverityCritical:
		return "red"
	case SeverityWarning:
		return "amber"
	case SeveritySuccess:
		return "green"
	default:
		return "cyan"
	}
}

// Source identifies which subsystem raised an event.
type Source string

const (
	SourceTerrain  Source = "terrain"
	SourceAltitude Source = "altitude"
)

// Event is one discrete alert notification.
type Event struct {
	ID        string    `json:"id"`
	Source    Source    `json:"source"`
	Class     string    `json:"class"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	Color     string    `json:"color"`
	PatternID string    `json:"audible_pattern_id"`
	Time      time.Time `json:"time"`
}

// Notifier emits alert events.
type Notifier interface {
	Notify(source Source, class, message string, sev Severity) Event
}

// Sink receives every emitted event. Publish must not block.
type Sink interface {
	Publish(ev Event)
}

// Player renders an audible pattern. Play must return promptly; playback is asynchronous.
type Player interface {
	Play(p Pattern) error
}

// Dispatcher is the Notifier used by the engine. It retains no history.
type Dispatcher struct {
	mu     sync.RWMutex
	sinks  []Sink
	player Player
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock replaces the wall clock used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// NewDispatcher creates a dispatcher. player may be nil for silent operation.
func NewDispatcher(player Player, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		player: player,
		now:    time.Now,
		logger: slog.With("component", "notify"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// AddSink registers a sink for all future events.
func (d *Dispatcher) AddSink(s Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sinks = append(d.sinks, s)
}

// Notify builds the event, publishes it and plays its pattern. Audio failures are logged only.
func (d *Dispatcher) Notify(source Source, class, message string, sev Severity) Event {
	pattern := PatternFor(sev)
	ev := Event{
		ID:        uuid.NewString(),
		Source:    source,
		Class:     class,
		Message:   message,
		Severity:  sev,
		Color:     sev.Color(),
		PatternID: pattern.ID,
		Time:      d.now(),
	}

	d.mu.RLock()
	sinks := d.sinks
	d.mu.RUnlock()

	for _, s := range sinks {
		s.Publish(ev)
	}

	d.logger.Info("Alert", "source", source, "class", class, "severity", sev, "message", message)

	if d.player != nil {
		if err := d.player.Play(pattern); err != nil {
			d.logger.Warn("Audible alert failed", "pattern", pattern.ID, "error", err)
		}
	}
	return ev
}
