package core

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"terrainwatch/pkg/config"
	"terrainwatch/pkg/sim"
	"terrainwatch/pkg/sim/push"
)

// mockSimClient implements sim.Client
type mockSimClient struct {
	mu    sync.Mutex
	tel   sim.Telemetry
	err   error
	state sim.State
}

func (m *mockSimClient) GetTelemetry(ctx context.Context) (sim.Telemetry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tel, m.err
}

func (m *mockSimClient) GetState() sim.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == "" {
		return sim.StateActive
	}
	return m.state
}

func (m *mockSimClient) Close() error { return nil }

func (m *mockSimClient) SetTelemetry(t *sim.Telemetry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tel = *t
}

func (m *mockSimClient) SetState(s sim.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

// mockSink implements TelemetrySink
type mockSink struct {
	mu             sync.Mutex
	updateCount    int
	stateUpdateCnt int
	lastState      sim.State
}

func (m *mockSink) Update(t *sim.Telemetry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCount++
}

func (m *mockSink) UpdateState(s sim.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stateUpdateCnt++
	m.lastState = s
}

func (m *mockSink) counts() (updates, states int, last sim.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateCount, m.stateUpdateCnt, m.lastState
}

func fastConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Ticker.TelemetryLoop = config.Duration(10 * time.Millisecond)
	return cfg
}

func TestScheduler_JobExecution(t *testing.T) {
	mockSim := &mockSimClient{state: sim.StateActive}
	sched := NewScheduler(fastConfig(), mockSim, nil)

	var firedCount int32
	fired := make(chan struct{}, 4)

	job := NewDistanceJob("TestDist", 100, func(ctx context.Context, tel sim.Telemetry) {
		atomic.AddInt32(&firedCount, 1)
		fired <- struct{}{}
	})
	sched.AddJob(job)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sched.Start(ctx)

	// First tick initializes the job.
	select {
	case <-fired:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("Job should have fired once for initialization")
	}

	mockSim.SetTelemetry(&sim.Telemetry{Latitude: 0.00045, Longitude: 0}) // ~50m
	time.Sleep(50 * time.Millisecond)
	if atomic.LoadInt32(&firedCount) > 1 {
		t.Error("Job fired when movement was small")
	}

	mockSim.SetTelemetry(&sim.Telemetry{Latitude: 0.00135, Longitude: 0}) // ~150m
	select {
	case <-fired:
	case <-time.After(200 * time.Millisecond):
		t.Error("Job should have fired after movement")
	}
}

func TestScheduler_SkipsTelemetryWhenInactive(t *testing.T) {
	mockSim := &mockSimClient{state: sim.StateInactive}
	sink := &mockSink{}
	sched := NewScheduler(fastConfig(), mockSim, sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sched.Start(ctx)

	time.Sleep(50 * time.Millisecond)

	updates, states, last := sink.counts()
	if updates > 0 {
		t.Errorf("Telemetry was updated %d times, but should be 0 when inactive", updates)
	}
	if states == 0 || last != sim.StateInactive {
		t.Errorf("State updates = %d, last = %s; want inactive reported", states, last)
	}

	mockSim.SetState(sim.StateActive)
	time.Sleep(50 * time.Millisecond)

	if updates, _, _ := sink.counts(); updates == 0 {
		t.Error("Telemetry was never updated after switching to active")
	}
}

func TestScheduler_StopsOnCancel(t *testing.T) {
	sched := NewScheduler(fastConfig(), &mockSimClient{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestScheduler_OneUpdatePerFrame(t *testing.T) {
	frame := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mockSim := &mockSimClient{state: sim.StateActive}
	mockSim.SetTelemetry(&sim.Telemetry{Latitude: 46.8, Longitude: 9.8, Timestamp: frame})
	sink := &mockSink{}
	sched := NewScheduler(fastConfig(), mockSim, sink)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		sched.tick(ctx)
	}
	updates, states, _ := sink.counts()
	if updates != 1 {
		t.Errorf("updates = %d for a single frame, want 1", updates)
	}
	if states != 5 {
		t.Errorf("state updates = %d, want one per tick", states)
	}

	mockSim.SetTelemetry(&sim.Telemetry{Latitude: 46.8, Longitude: 9.8, Timestamp: frame.Add(100 * time.Millisecond)})
	sched.tick(ctx)
	if updates, _, _ := sink.counts(); updates != 2 {
		t.Errorf("updates = %d after a new frame, want 2", updates)
	}
}

// altitudeSink records the altitude of every frame handed to the engine.
type altitudeSink struct {
	mu   sync.Mutex
	alts []float64
}

func (a *altitudeSink) Update(t *sim.Telemetry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alts = append(a.alts, t.AltitudeMSL)
}

func (a *altitudeSink) UpdateState(sim.State) {}

func TestScheduler_DrainsQueuedFrames(t *testing.T) {
	start := time.Now()
	client := push.NewClient()
	sink := &altitudeSink{}
	sched := NewScheduler(fastConfig(), client, sink)

	// Delivered out of order between two heartbeats.
	frames := []struct {
		alt float64
		at  time.Duration
	}{
		{5000, 0},
		{5000, 60 * time.Millisecond},
		{4200, 30 * time.Millisecond},
	}
	for _, f := range frames {
		tel := sim.Telemetry{Latitude: 46.8, Longitude: 9.8, AltitudeMSL: f.alt, Timestamp: start.Add(f.at)}
		if err := client.Push(tel, true); err != nil {
			t.Fatalf("push: %v", err)
		}
	}

	ctx := context.Background()
	sched.tick(ctx)
	sched.tick(ctx)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	want := []float64{5000, 4200, 5000}
	if len(sink.alts) != len(want) {
		t.Fatalf("engine updates = %d for %d pushed frames, want one each", len(sink.alts), len(want))
	}
	for i := range want {
		if sink.alts[i] != want[i] {
			t.Errorf("update %d altitude = %.0f, want %.0f", i, sink.alts[i], want[i])
		}
	}
}
