// Package api exposes the engine to the host UI over HTTP and websocket.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"terrainwatch/pkg/version"
)

// Handlers groups everything the server routes to. Nil handlers leave their routes unregistered.
type Handlers struct {
	Engine    *EngineHandler
	Telemetry *TelemetryHandler
	Alerts    *AlertsHandler
	Audio     *AudioHandler
}

// NewServer creates and configures the HTTP server.
// shutdown is called asynchronously by POST /api/shutdown.
func NewServer(addr string, h Handlers, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/version", handleVersion)
	mux.HandleFunc("GET /api/log/latest", handleLatestLog)
	mux.HandleFunc("GET /api/log/recent", handleRecentLog)

	if h.Engine != nil {
		mux.HandleFunc("GET /api/status", h.Engine.HandleStatus)
		mux.HandleFunc("GET /api/terrain/clearance", h.Engine.HandleClearance)
		mux.HandleFunc("POST /api/terrain/inhibit", h.Engine.HandleInhibit)
		mux.HandleFunc("POST /api/terrain/test", h.Engine.HandleTest)
		mux.HandleFunc("POST /api/altitude/assigned", h.Engine.HandleAssigned)
		mux.HandleFunc("POST /api/altitude/approach", h.Engine.HandleSetApproach)
		mux.HandleFunc("DELETE /api/altitude/approach", h.Engine.HandleClearApproach)
	}

	if h.Telemetry != nil {
		mux.HandleFunc("POST /api/telemetry", h.Telemetry.HandlePush)
	}

	if h.Alerts != nil {
		mux.HandleFunc("GET /api/alerts/recent", h.Alerts.HandleRecent)
		mux.HandleFunc("GET /api/alerts/ws", h.Alerts.HandleWS)
	}

	if h.Audio != nil {
		mux.HandleFunc("GET /api/audio", h.Audio.HandleStatus)
		mux.HandleFunc("POST /api/audio/volume", h.Audio.HandleVolume)
	}

	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Graceful shutdown initiated via API")
		writeJSON(w, http.StatusOK, map[string]string{"status": "shutting down"})
		// Let the response flush before the listener closes.
		go func() {
			time.Sleep(100 * time.Millisecond)
			shutdown()
		}()
	})

	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": version.Version})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
