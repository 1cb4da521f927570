// Package mocksim provides a scripted flight for demos and offline runs.
package mocksim

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"terrainwatch/pkg/sim"
)

const (
	// Flight phases
	PhaseCruise  = "CRUISE"
	PhaseDescent = "DESCENT"
	PhaseLevel   = "LEVEL"

	tickRateMs = 100
	knotsToMPS = 0.514444
)

// Config holds the scripted flight profile.
type Config struct {
	StartLat      float64
	StartLon      float64
	StartAlt      float64 // feet MSL
	StartHeading  float64 // degrees true
	GroundSpeed   float64 // knots
	CruiseTime    time.Duration
	DescentRate   float64 // fpm, negative
	FloorAltitude float64 // feet MSL where the descent levels off
}

// MockClient implements sim.Client with a cruise-then-descend profile.
type MockClient struct {
	mu      sync.Mutex
	tel     sim.Telemetry
	config  Config
	phase   string
	elapsed time.Duration
	stopCh  chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
	logger  *slog.Logger
}

// NewClient creates a mock client and starts its physics loop.
func NewClient(cfg Config) *MockClient {
	m := newClient(cfg)
	m.wg.Add(1)
	go m.physicsLoop()
	return m
}

func newClient(cfg Config) *MockClient {
	return &MockClient{
		config: cfg,
		phase:  PhaseCruise,
		stopCh: make(chan struct{}),
		logger: slog.With("component", "mocksim"),
		tel: sim.Telemetry{
			Latitude:    cfg.StartLat,
			Longitude:   cfg.StartLon,
			AltitudeMSL: cfg.StartAlt,
			Heading:     sim.NormalizeHeading(cfg.StartHeading),
			GroundSpeed: cfg.GroundSpeed,
			Timestamp:   time.Now(),
		},
	}
}

// GetTelemetry returns the current state of the simulated aircraft.
func (m *MockClient) GetTelemetry(ctx context.Context) (sim.Telemetry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tel, nil
}

// GetState returns the current source state. Mock is always active.
func (m *MockClient) GetState() sim.State {
	return sim.StateActive
}

// Phase returns the current phase of the scripted profile.
func (m *MockClient) Phase() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Close stops the physics loop and releases resources.
func (m *MockClient) Close() error {
	m.once.Do(func() { close(m.stopCh) })
	m.wg.Wait()
	return nil
}

func (m *MockClient) physicsLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(time.Duration(tickRateMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case now := <-ticker.C:
			m.advance(tickRateMs*time.Millisecond, now)
		}
	}
}

// advance moves the aircraft along the profile by dt.
func (m *MockClient) advance(dt time.Duration, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.elapsed += dt
	secs := dt.Seconds()

	switch m.phase {
	case PhaseCruise:
		m.tel.VerticalSpeed = 0
		if m.elapsed >= m.config.CruiseTime {
			m.phase = PhaseDescent
			m.logger.Info("Mock flight starting descent", "alt", m.tel.AltitudeMSL, "target", m.config.FloorAltitude)
		}
	case PhaseDescent:
		m.tel.VerticalSpeed = m.config.DescentRate
		next := m.tel.AltitudeMSL + (m.config.DescentRate/60.0)*secs
		if next <= m.config.FloorAltitude {
			next = m.config.FloorAltitude
			m.tel.VerticalSpeed = 0
			m.phase = PhaseLevel
			m.logger.Info("Mock flight levelled off", "alt", next)
		}
		m.tel.AltitudeMSL = next
	case PhaseLevel:
		m.tel.VerticalSpeed = 0
	}

	distMeters := m.tel.GroundSpeed * knotsToMPS * secs
	if distMeters > 0 {
		next := geo.PointAtBearingAndDistance(orb.Point{m.tel.Longitude, m.tel.Latitude}, m.tel.Heading, distMeters)
		m.tel.Longitude = next.Lon()
		m.tel.Latitude = next.Lat()
	}
	m.tel.Timestamp = now
}
