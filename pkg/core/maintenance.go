package core

import (
	"context"
	"log/slog"
	"time"

	"terrainwatch/pkg/sim"
)

// SweepDistance is how far the aircraft travels between grid cache sweeps.
const SweepDistance = 20 * 1852.0

// GridSweeper drops expired grids.
type GridSweeper interface {
	Sweep() int
}

// HistoryPruner deletes alert history older than a cutoff.
type HistoryPruner interface {
	PruneAlerts(ctx context.Context, before time.Time) (int64, error)
}

// NewCacheSweepJob drops expired grids every SweepDistance traveled.
// Grids behind the aircraft are never touched again, so lazy expiry alone would keep them until evicted.
func NewCacheSweepJob(c GridSweeper) *DistanceJob {
	return NewDistanceJob("CacheSweep", SweepDistance, func(ctx context.Context, t sim.Telemetry) {
		if n := c.Sweep(); n > 0 {
			slog.Debug("Grid cache swept", "removed", n)
		}
	})
}

// NewHistoryPruneJob deletes alert history older than retention once per interval.
func NewHistoryPruneJob(p HistoryPruner, retention, interval time.Duration) *TimeJob {
	return NewTimeJob("HistoryPrune", interval, func(ctx context.Context, t sim.Telemetry) {
		if retention <= 0 {
			return
		}
		n, err := p.PruneAlerts(ctx, time.Now().Add(-retention))
		if err != nil {
			slog.Warn("Failed to prune alert history", "error", err)
			return
		}
		if n > 0 {
			slog.Info("Alert history pruned", "rows", n, "retention", retention)
		}
	})
}
