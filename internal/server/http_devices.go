package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/groblegark/lifeband/internal/engine"
	"github.com/groblegark/lifeband/internal/model"
)

// handlePairDevice handles PUT /v1/devices/{id}.
// Creates the device on first use with status SAFE and baseline vitals.
func (s *DeviceServer) handlePairDevice(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		PairedWearerRef string `json:"paired_wearer_ref"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	device, err := s.PairDevice(r.Context(), id, req.PairedWearerRef)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	s.touchPresence(r)
	writeJSON(w, http.StatusOK, device)
}

// handleGetDevice handles GET /v1/devices/{id}.
func (s *DeviceServer) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	device, err := s.GetDevice(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	s.touchPresence(r)
	writeJSON(w, http.StatusOK, device)
}

// handleUpdateVitals handles PATCH /v1/devices/{id}/vitals.
func (s *DeviceServer) handleUpdateVitals(w http.ResponseWriter, r *http.Request) {
	var vitals model.Vitals
	if err := json.NewDecoder(r.Body).Decode(&vitals); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	device, err := s.UpdateVitals(r.Context(), r.PathValue("id"), vitals)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, device)
}

// handleTransition handles POST /v1/devices/{id}/transitions.
func (s *DeviceServer) handleTransition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string `json:"action"`
		Role   string `json:"role"`
		Actor  string `json:"actor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.Action == "" {
		writeError(w, http.StatusBadRequest, "action is required")
		return
	}
	role := model.ActorRole(req.Role)
	if !role.IsValid() {
		writeError(w, http.StatusBadRequest, "invalid role: "+req.Role)
		return
	}

	result, err := s.Transition(r.Context(), TransitionRequest{
		DeviceID: r.PathValue("id"),
		Action:   engine.Action(req.Action),
		Role:     role,
		Actor:    req.Actor,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	s.touchPresence(r)
	writeJSON(w, http.StatusOK, result)
}

// handleListWatchers handles GET /v1/devices/{id}/watchers.
func (s *DeviceServer) handleListWatchers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"watchers": s.Presence.Roster(r.PathValue("id")),
	})
}
