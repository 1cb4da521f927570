package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"terrainwatch/pkg/config"
)

func TestInit(t *testing.T) {
	tempDir := t.TempDir()
	serverLog := filepath.Join(tempDir, "logs", "server.log")
	requestLog := filepath.Join(tempDir, "logs", "requests.log")

	prev := slog.Default()
	defer slog.SetDefault(prev)

	cfg := &config.LogConfig{
		Server:   config.LogSettings{Path: serverLog, Level: "DEBUG", MaxSizeMB: 1, MaxBackups: 1},
		Requests: config.LogSettings{Path: requestLog, Level: "INFO", MaxSizeMB: 1},
	}

	cleanup, err := Init(cfg)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	slog.Info("terrain source attached", "provider", "etopo1")
	RequestLogger.Info("request", "path", "/health")
	cleanup()

	data, err := os.ReadFile(serverLog)
	if err != nil {
		t.Fatalf("server log not written: %v", err)
	}
	if !strings.Contains(string(data), "terrain source attached") {
		t.Errorf("server log missing message: %q", string(data))
	}
	if _, err := os.Stat(requestLog); err != nil {
		t.Errorf("request log not written: %v", err)
	}
	if !strings.Contains(GlobalLogCapture.Last(), "provider=etopo1") {
		t.Errorf("capture missing last line, got %q", GlobalLogCapture.Last())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMultiHandler_RespectsLevels(t *testing.T) {
	var debugBuf, warnBuf bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	logger := slog.New(h).With("component", "taws")

	logger.Debug("evaluated")
	logger.Warn("pull up")

	if !strings.Contains(debugBuf.String(), "evaluated") || !strings.Contains(debugBuf.String(), "pull up") {
		t.Errorf("debug handler missing records: %q", debugBuf.String())
	}
	if strings.Contains(warnBuf.String(), "evaluated") {
		t.Error("warn handler received debug record")
	}
	if !strings.Contains(warnBuf.String(), "component=taws") {
		t.Errorf("attrs not propagated: %q", warnBuf.String())
	}
}

func TestTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	SetTrace(false)
	Trace(logger, "hidden")
	SetTrace(true)
	Trace(logger, "shown", "alt", 5000)
	SetTrace(false)

	if strings.Contains(buf.String(), "hidden") {
		t.Error("trace emitted while disabled")
	}
	if !strings.Contains(buf.String(), "shown") || !strings.Contains(buf.String(), "trace=true") {
		t.Errorf("trace not emitted while enabled: %q", buf.String())
	}
}
