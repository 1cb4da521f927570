package main

import (
	"log/slog"
	"time"

	"terrainwatch/pkg/config"
	"terrainwatch/pkg/core"
	"terrainwatch/pkg/sim"
	"terrainwatch/pkg/sim/mocksim"
	"terrainwatch/pkg/sim/push"
)

const (
	historyQueue         = 256
	historyPruneInterval = time.Hour
)

// initializeSimClient returns the configured telemetry source. The push client is
// also returned so the API can feed it; it is nil for every other source.
func initializeSimClient(cfg *config.Config) (sim.Client, *push.Client) {
	switch cfg.Sim.Provider {
	case "push":
		slog.Info("Sim Source: Push (POST /api/telemetry)")
		c := push.NewClient()
		return c, c
	default:
		slog.Info("Sim Source: Mock")
		return mocksim.NewClient(mockConfig(&cfg.Sim.Mock)), nil
	}
}

func mockConfig(m *config.MockSimConfig) mocksim.Config {
	return mocksim.Config{
		StartLat:      m.StartLat,
		StartLon:      m.StartLon,
		StartAlt:      m.StartAlt,
		StartHeading:  m.StartHeading,
		GroundSpeed:   m.GroundSpeed,
		CruiseTime:    m.CruiseTime.Std(),
		DescentRate:   m.DescentRate,
		FloorAltitude: m.FloorAltitude,
	}
}

func setupScheduler(cfg *config.Config, simClient sim.Client, unit *core.Unit, sweeper core.GridSweeper, pruner core.HistoryPruner) *core.Scheduler {
	sched := core.NewScheduler(cfg, simClient, unit)
	sched.AddJob(core.NewCacheSweepJob(sweeper))
	sched.AddJob(core.NewHistoryPruneJob(pruner, cfg.DB.Retention.Std(), historyPruneInterval))
	return sched
}
