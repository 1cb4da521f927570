package api

import (
	"encoding/json"
	"net/http"
)

// VolumeControl is the audible alert output.
type VolumeControl interface {
	Enabled() bool
	Volume() float64
	SetVolume(v float64)
}

// AudioHandler handles audio endpoints.
type AudioHandler struct {
	audio VolumeControl
}

// NewAudioHandler creates a new AudioHandler.
func NewAudioHandler(a VolumeControl) *AudioHandler {
	return &AudioHandler{audio: a}
}

// AudioVolumeRequest represents a volume change request.
type AudioVolumeRequest struct {
	Volume float64 `json:"volume"`
}

// AudioStatusResponse represents the audio status.
type AudioStatusResponse struct {
	Enabled bool    `json:"enabled"`
	Volume  float64 `json:"volume"`
}

// HandleStatus handles GET /api/audio
func (h *AudioHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, AudioStatusResponse{Enabled: h.audio.Enabled(), Volume: h.audio.Volume()})
}

// HandleVolume handles POST /api/audio/volume
func (h *AudioHandler) HandleVolume(w http.ResponseWriter, r *http.Request) {
	var req AudioVolumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Volume < 0 || req.Volume > 1 {
		writeError(w, http.StatusBadRequest, "volume must be between 0.0 and 1.0")
		return
	}
	h.audio.SetVolume(req.Volume)
	h.HandleStatus(w, r)
}
