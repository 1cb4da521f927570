package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"terrainwatch/pkg/altalert"
	"terrainwatch/pkg/engine"
	"terrainwatch/pkg/sim"
)

// Controller is the serialized engine surface the handlers drive.
type Controller interface {
	Status() engine.Status
	Last() (engine.Output, bool)
	SimState() sim.State
	SetAssignedAltitude(ft *float64) error
	SetApproachAltitude(ft float64, kind altalert.Kind) error
	ClearApproachAltitude()
	SetInhibited(v bool)
	RunTest()
}

// EngineHandler serves status, clearance and pilot actions.
type EngineHandler struct {
	ctl Controller
}

// NewEngineHandler creates a new EngineHandler.
func NewEngineHandler(ctl Controller) *EngineHandler {
	return &EngineHandler{ctl: ctl}
}

// StatusResponse is the GET /api/status payload.
type StatusResponse struct {
	engine.Status
	SimState sim.State `json:"sim_state"`
}

// AssignedRequest sets or, with a null altitude, clears the assigned altitude.
type AssignedRequest struct {
	Altitude *float64 `json:"altitude"`
}

// ApproachRequest sets the approach minimum.
type ApproachRequest struct {
	Altitude float64       `json:"altitude"`
	Kind     altalert.Kind `json:"kind"`
}

// InhibitRequest toggles terrain alert inhibition.
type InhibitRequest struct {
	Inhibited bool `json:"inhibited"`
}

// HandleStatus handles GET /api/status
func (h *EngineHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: h.ctl.Status(), SimState: h.ctl.SimState()})
}

// HandleClearance handles GET /api/terrain/clearance
func (h *EngineHandler) HandleClearance(w http.ResponseWriter, r *http.Request) {
	out, ok := h.ctl.Last()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no telemetry evaluated yet")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleAssigned handles POST /api/altitude/assigned
func (h *EngineHandler) HandleAssigned(w http.ResponseWriter, r *http.Request) {
	var req AssignedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.ctl.SetAssignedAltitude(req.Altitude); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	h.HandleStatus(w, r)
}

// HandleSetApproach handles POST /api/altitude/approach
func (h *EngineHandler) HandleSetApproach(w http.ResponseWriter, r *http.Request) {
	var req ApproachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Kind == "" {
		req.Kind = altalert.KindMDA
	}
	if err := h.ctl.SetApproachAltitude(req.Altitude, req.Kind); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.HandleStatus(w, r)
}

// HandleClearApproach handles DELETE /api/altitude/approach
func (h *EngineHandler) HandleClearApproach(w http.ResponseWriter, r *http.Request) {
	h.ctl.ClearApproachAltitude()
	h.HandleStatus(w, r)
}

// HandleInhibit handles POST /api/terrain/inhibit
func (h *EngineHandler) HandleInhibit(w http.ResponseWriter, r *http.Request) {
	var req InhibitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.ctl.SetInhibited(req.Inhibited)
	h.HandleStatus(w, r)
}

// HandleTest handles POST /api/terrain/test
func (h *EngineHandler) HandleTest(w http.ResponseWriter, r *http.Request) {
	h.ctl.RunTest()
	writeJSON(w, http.StatusAccepted, StatusResponse{Status: h.ctl.Status(), SimState: h.ctl.SimState()})
}

func statusFor(err error) int {
	if errors.Is(err, altalert.ErrInvalidAltitude) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}
