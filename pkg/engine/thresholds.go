package engine

import (
	"terrainwatch/pkg/altalert"
	"terrainwatch/pkg/config"
	"terrainwatch/pkg/taws"
)

// TerrainThresholds maps the terrain_alerts config section onto evaluator limits.
func TerrainThresholds(c *config.TerrainAlertsConfig) taws.Thresholds {
	return taws.Thresholds{
		LookAhead:          c.LookAhead.Std(),
		PullUpPredicted:    c.PullUpPredicted,
		PullUpForward:      c.PullUpForward,
		TerrainAhead:       c.TerrainAhead,
		TerrainSink:        c.TerrainSink,
		DontSinkAltitude:   c.DontSinkAltitude,
		DontSinkRate:       c.DontSinkRate,
		LowTerrainForward:  c.LowTerrainForward,
		LowTerrainMinSpeed: c.LowTerrainMinSpeed,
	}
}

// AltitudeThresholds maps the altitude_alerts config section onto machine limits.
func AltitudeThresholds(c *config.AltitudeAlertsConfig) altalert.Thresholds {
	return altalert.Thresholds{
		Approach:        c.Approach,
		Proximity:       c.Proximity,
		Capture:         c.Capture,
		Deviation:       c.Deviation,
		Throttle:        c.Throttle.Std(),
		DeviationRepeat: c.DeviationRepeat.Std(),
		MinimumsWindow:  c.MinimumsWindow,
		MinimumsSink:    c.MinimumsSink,
	}
}
