// Package core drives the engine from the telemetry source and runs periodic maintenance.
package core

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"terrainwatch/pkg/config"
	"terrainwatch/pkg/sim"
)

const defaultTickInterval = 100 * time.Millisecond

// TelemetrySink consumes the pulled frame stream. Update is called at most once per frame.
type TelemetrySink interface {
	Update(t *sim.Telemetry)
	UpdateState(s sim.State)
}

// Scheduler pulls frames from the telemetry source on a fixed heartbeat, hands each new
// frame to the sink and fires the registered maintenance jobs.
type Scheduler struct {
	interval time.Duration
	sim      sim.Client
	sink     TelemetrySink
	jobs     []Job
	logger   *slog.Logger

	lastFrame time.Time
	running   sync.WaitGroup
}

// NewScheduler creates a scheduler ticking at cfg.Ticker.TelemetryLoop.
func NewScheduler(cfg *config.Config, simClient sim.Client, sink TelemetrySink) *Scheduler {
	interval := cfg.Ticker.TelemetryLoop.Std()
	if interval <= 0 {
		interval = defaultTickInterval
	}
	return &Scheduler{
		interval: interval,
		sim:      simClient,
		sink:     sink,
		logger:   slog.With("component", "scheduler"),
	}
}

// AddJob registers a job. Not safe to call after Start.
func (s *Scheduler) AddJob(j Job) {
	s.jobs = append(s.jobs, j)
}

// Start runs the heartbeat until ctx is cancelled, then waits for running jobs.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Scheduler started", "interval", s.interval, "jobs", len(s.jobs))
	for {
		select {
		case <-ctx.Done():
			s.running.Wait()
			s.logger.Info("Scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	state := s.sim.GetState()
	if s.sink != nil {
		s.sink.UpdateState(state)
	}

	frames := s.pending(ctx, state)
	var latest *sim.Telemetry
	for i := range frames {
		tel := &frames[i]
		// A frame already seen does not advance the engine again.
		if !tel.Timestamp.IsZero() {
			if !tel.Timestamp.After(s.lastFrame) {
				continue
			}
			s.lastFrame = tel.Timestamp
		}
		if s.sink != nil {
			s.sink.Update(tel)
		}
		latest = tel
	}
	if latest == nil {
		return
	}

	for _, job := range s.jobs {
		if !job.ShouldFire(latest) {
			continue
		}
		s.running.Add(1)
		go func(j Job, t sim.Telemetry) {
			defer s.running.Done()
			j.Run(ctx, &t)
		}(job, *latest)
	}
}

// pending returns the frames to feed this tick: every queued frame for buffering sources,
// else the current sample while the source is active.
func (s *Scheduler) pending(ctx context.Context, state sim.State) []sim.Telemetry {
	if q, ok := s.sim.(sim.FrameQueue); ok {
		return q.DrainFrames()
	}
	if state != sim.StateActive {
		return nil
	}
	tel, err := s.sim.GetTelemetry(ctx)
	if err != nil {
		s.logger.Debug("Failed to read telemetry", "error", err)
		return nil
	}
	return []sim.Telemetry{tel}
}
