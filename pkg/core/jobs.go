package core

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"terrainwatch/pkg/sim"
)

// Job is a maintenance task fired from the scheduler heartbeat.
// ShouldFire is called on the scheduler goroutine, Run on its own goroutine.
type Job interface {
	Name() string
	ShouldFire(t *sim.Telemetry) bool
	Run(ctx context.Context, t *sim.Telemetry)
}

// jobGuard names a job and keeps a second run from starting while one is in flight.
type jobGuard struct {
	name string
	busy atomic.Bool
}

func (g *jobGuard) Name() string { return g.name }

func (g *jobGuard) acquire() bool { return g.busy.CompareAndSwap(false, true) }

func (g *jobGuard) release() { g.busy.Store(false) }

// DistanceJob fires on the first frame and then whenever the aircraft is at least
// threshold meters from where the previous run started.
type DistanceJob struct {
	jobGuard
	threshold float64
	action    func(context.Context, sim.Telemetry)

	mu     sync.Mutex
	anchor orb.Point
	armed  bool
}

// NewDistanceJob creates a distance-triggered job.
func NewDistanceJob(name string, thresholdMeters float64, action func(context.Context, sim.Telemetry)) *DistanceJob {
	return &DistanceJob{
		jobGuard:  jobGuard{name: name},
		threshold: thresholdMeters,
		action:    action,
	}
}

func (j *DistanceJob) ShouldFire(t *sim.Telemetry) bool {
	if j.busy.Load() {
		return false
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.armed {
		return true
	}
	return geo.Distance(j.anchor, orb.Point{t.Longitude, t.Latitude}) >= j.threshold
}

func (j *DistanceJob) Run(ctx context.Context, t *sim.Telemetry) {
	if !j.acquire() {
		return
	}
	defer j.release()

	j.mu.Lock()
	j.anchor = orb.Point{t.Longitude, t.Latitude}
	j.armed = true
	j.mu.Unlock()

	j.action(ctx, *t)
}

// TimeJob fires on the first frame and then once per interval of frame time.
// Frames without a timestamp fall back to the wall clock.
type TimeJob struct {
	jobGuard
	interval time.Duration
	action   func(context.Context, sim.Telemetry)

	mu      sync.Mutex
	lastRun time.Time
}

// NewTimeJob creates a time-triggered job.
func NewTimeJob(name string, interval time.Duration, action func(context.Context, sim.Telemetry)) *TimeJob {
	return &TimeJob{
		jobGuard: jobGuard{name: name},
		interval: interval,
		action:   action,
	}
}

func frameTime(t *sim.Telemetry) time.Time {
	if t.Timestamp.IsZero() {
		return time.Now()
	}
	return t.Timestamp
}

func (j *TimeJob) ShouldFire(t *sim.Telemetry) bool {
	if j.busy.Load() {
		return false
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastRun.IsZero() || frameTime(t).Sub(j.lastRun) >= j.interval
}

func (j *TimeJob) Run(ctx context.Context, t *sim.Telemetry) {
	if !j.acquire() {
		return
	}
	defer j.release()

	j.mu.Lock()
	j.lastRun = frameTime(t)
	j.mu.Unlock()

	j.action(ctx, *t)
}
