package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"terrainwatch/pkg/sim"
)

// Pusher accepts frames from an external host.
type Pusher interface {
	Push(tel sim.Telemetry, hasVS bool) error
}

// TelemetryHandler feeds POST /api/telemetry into the push client.
type TelemetryHandler struct {
	pusher Pusher
}

// NewTelemetryHandler creates a handler. pusher is nil when another source is configured.
func NewTelemetryHandler(p Pusher) *TelemetryHandler {
	return &TelemetryHandler{pusher: p}
}

// TelemetryRequest is a frame as posted by the host. Vertical speed is optional.
type TelemetryRequest struct {
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	Altitude      float64   `json:"altitude"`
	VerticalSpeed *float64  `json:"vertical_speed"`
	GroundSpeed   float64   `json:"ground_speed"`
	Heading       float64   `json:"heading"`
	Timestamp     time.Time `json:"timestamp"`
}

// HandlePush handles POST /api/telemetry
func (h *TelemetryHandler) HandlePush(w http.ResponseWriter, r *http.Request) {
	if h.pusher == nil {
		writeError(w, http.StatusConflict, "telemetry source is not push")
		return
	}

	var req TelemetryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tel := sim.Telemetry{
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		AltitudeMSL: req.Altitude,
		GroundSpeed: req.GroundSpeed,
		Heading:     req.Heading,
		Timestamp:   req.Timestamp,
	}
	if req.VerticalSpeed != nil {
		tel.VerticalSpeed = *req.VerticalSpeed
	}

	if err := h.pusher.Push(tel, req.VerticalSpeed != nil); err != nil {
		if errors.Is(err, sim.ErrInvalidFrame) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.Error("Failed to accept telemetry", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to accept telemetry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
