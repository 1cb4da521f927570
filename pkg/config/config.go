package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Log            LogConfig            `yaml:"log"`
	DB             DBConfig             `yaml:"db"`
	Server         ServerConfig         `yaml:"server"`
	Ticker         TickerConfig         `yaml:"ticker"`
	Sim            SimConfig            `yaml:"sim"`
	Terrain        TerrainConfig        `yaml:"terrain"`
	TerrainAlerts  TerrainAlertsConfig  `yaml:"terrain_alerts"`
	AltitudeAlerts AltitudeAlertsConfig `yaml:"altitude_alerts"`
	Audio          AudioConfig          `yaml:"audio"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path       string `yaml:"path"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path      string   `yaml:"path"`
	Retention Duration `yaml:"retention"` // alert history older than this is pruned
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// TickerConfig holds ticker settings.
type TickerConfig struct {
	TelemetryLoop Duration `yaml:"telemetry_loop"`
}

// SimConfig holds settings for the telemetry source.
type SimConfig struct {
	Provider string        `yaml:"provider"` // "mock", "push"
	Mock     MockSimConfig `yaml:"mock"`
}

// MockSimConfig holds settings for the scripted mock flight.
type MockSimConfig struct {
	StartLat      float64  `yaml:"start_lat"`
	StartLon      float64  `yaml:"start_lon"`
	StartAlt      float64  `yaml:"start_alt"`
	StartHeading  float64  `yaml:"start_heading"`
	GroundSpeed   float64  `yaml:"ground_speed"`
	CruiseTime    Duration `yaml:"cruise_time"`
	DescentRate   float64  `yaml:"descent_rate"`
	FloorAltitude float64  `yaml:"floor_altitude"`
}

// TerrainConfig holds elevation source and grid settings.
type TerrainConfig struct {
	ElevationFile  string   `yaml:"elevation_file"`
	Radius         Distance `yaml:"radius"`
	Resolution     int      `yaml:"resolution"`
	CacheTTL       Duration `yaml:"cache_ttl"`
	CacheSize      int      `yaml:"cache_size"`
	ProceduralSeed int64    `yaml:"procedural_seed"`
}

// TerrainAlertsConfig holds the terrain alert decision thresholds (feet, fpm, knots).
type TerrainAlertsConfig struct {
	LookAhead          Duration `yaml:"look_ahead"`
	PullUpHold         Duration `yaml:"pull_up_hold"`
	SelfTest           Duration `yaml:"self_test"`
	PullUpPredicted    float64  `yaml:"pull_up_predicted"`
	PullUpForward      float64  `yaml:"pull_up_forward"`
	TerrainAhead       float64  `yaml:"terrain_ahead"`
	TerrainSink        float64  `yaml:"terrain_sink"`
	DontSinkAltitude   float64  `yaml:"dont_sink_altitude"`
	DontSinkRate       float64  `yaml:"dont_sink_rate"`
	LowTerrainForward  float64  `yaml:"low_terrain_forward"`
	LowTerrainMinSpeed float64  `yaml:"low_terrain_min_speed"`
}

// AltitudeAlertsConfig holds assigned-altitude thresholds (feet) and emission cadence.
type AltitudeAlertsConfig struct {
	Approach        float64  `yaml:"approach"`
	Proximity       float64  `yaml:"proximity"`
	Capture         float64  `yaml:"capture"`
	Deviation       float64  `yaml:"deviation"`
	Throttle        Duration `yaml:"throttle"`
	DeviationRepeat Duration `yaml:"deviation_repeat"`
	MinimumsWindow  float64  `yaml:"minimums_window"`
	MinimumsSink    float64  `yaml:"minimums_sink"`
}

// AudioConfig holds settings for audible alert cues.
type AudioConfig struct {
	Enabled       bool    `yaml:"enabled"`
	Volume        float64 `yaml:"volume"`
	SpeakerFilter bool    `yaml:"speaker_filter"` // band-limit tones like a cockpit speaker
	LowCutoff     float64 `yaml:"low_cutoff"`
	HighCutoff    float64 `yaml:"high_cutoff"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Server: LogSettings{
				Path:       "./logs/server.log",
				Level:      "INFO",
				MaxSizeMB:  32,
				MaxBackups: 3,
			},
			Requests: LogSettings{
				Path:       "./logs/requests.log",
				Level:      "INFO",
				MaxSizeMB:  16,
				MaxBackups: 1,
			},
		},
		DB: DBConfig{
			Path:      "./data/terrainwatch.db",
			Retention: Duration(30 * 24 * time.Hour),
		},
		Server: ServerConfig{
			Address: "localhost:1930",
		},
		Ticker: TickerConfig{
			TelemetryLoop: Duration(100 * time.Millisecond), // ~10Hz
		},
		Sim: SimConfig{
			Provider: "mock",
			Mock: MockSimConfig{
				StartLat:      46.80,
				StartLon:      9.80,
				StartAlt:      12500,
				StartHeading:  0,
				GroundSpeed:   140,
				CruiseTime:    Duration(60 * time.Second),
				DescentRate:   -1500,
				FloorAltitude: 3000,
			},
		},
		Terrain: TerrainConfig{
			ElevationFile:  "data/etopo1/etopo1_ice_g_i2.bin",
			Radius:         Distance(10 * 1852), // 10nm
			Resolution:     32,
			CacheTTL:       Duration(5 * time.Second),
			CacheSize:      20,
			ProceduralSeed: 1,
		},
		TerrainAlerts: TerrainAlertsConfig{
			LookAhead:          Duration(10 * time.Second),
			PullUpHold:         Duration(10 * time.Second),
			SelfTest:           Duration(5 * time.Second),
			PullUpPredicted:    100,
			PullUpForward:      50,
			TerrainAhead:       300,
			TerrainSink:        -300,
			DontSinkAltitude:   1000,
			DontSinkRate:       -500,
			LowTerrainForward:  500,
			LowTerrainMinSpeed: 50,
		},
		AltitudeAlerts: AltitudeAlertsConfig{
			Approach:        1000,
			Proximity:       200,
			Capture:         100,
			Deviation:       300,
			Throttle:        Duration(2 * time.Second),
			DeviationRepeat: Duration(5 * time.Second),
			MinimumsWindow:  100,
			MinimumsSink:    -100,
		},
		Audio: AudioConfig{
			Enabled:       true,
			Volume:        0.8,
			SpeakerFilter: true,
			LowCutoff:     300,
			HighCutoff:    3400,
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT save back to disk.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}

		applyEnv(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv overlays environment settings. They are never written back to the file.
func applyEnv(cfg *Config) {
	if p := os.Getenv("TERRAINWATCH_ELEVATION_FILE"); p != "" {
		cfg.Terrain.ElevationFile = p
	}
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Terrain.Resolution < 2 || c.Terrain.Resolution > 64 {
		return fmt.Errorf("terrain.resolution must be within [2, 64], got %d", c.Terrain.Resolution)
	}
	if c.Terrain.Radius <= 0 {
		return fmt.Errorf("terrain.radius must be positive")
	}
	if c.Terrain.CacheSize < 1 {
		return fmt.Errorf("terrain.cache_size must be at least 1, got %d", c.Terrain.CacheSize)
	}
	a := c.AltitudeAlerts
	if !(a.Capture < a.Proximity && a.Proximity < a.Deviation && a.Deviation < a.Approach) {
		return fmt.Errorf("altitude_alerts thresholds must satisfy capture < proximity < deviation < approach")
	}
	switch c.Sim.Provider {
	case "mock", "push":
	default:
		return fmt.Errorf("unknown sim.provider '%s'", c.Sim.Provider)
	}
	return nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# terrainwatch Configuration
# -------------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)
#   Distance: m (meters), km (kilometers), nm (nautical miles), ft (feet)
# Altitudes and clearances are in feet, vertical speeds in feet per minute.

`)
	data = append(header, data...)

	reProvider := regexp.MustCompile(`(?m)^(\s+)provider:`)
	data = reProvider.ReplaceAll(data, []byte("${1}# Options: mock, push\n${1}provider:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
