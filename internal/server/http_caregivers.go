package server

import (
	"encoding/json"
	"net/http"

	"github.com/groblegark/lifeband/internal/model"
)

// handleListCaregivers handles GET /v1/devices/{id}/caregivers.
func (s *DeviceServer) handleListCaregivers(w http.ResponseWriter, r *http.Request) {
	roster, err := s.ListCaregivers(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"caregivers": roster})
}

// handlePutCaregiver handles POST /v1/devices/{id}/caregivers.
func (s *DeviceServer) handlePutCaregiver(w http.ResponseWriter, r *http.Request) {
	var c model.Caregiver
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	c.DeviceID = r.PathValue("id")

	if err := s.PutCaregiver(r.Context(), &c); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &c)
}

// handleRemoveCaregiver handles DELETE /v1/devices/{id}/caregivers/{caregiver_id}.
func (s *DeviceServer) handleRemoveCaregiver(w http.ResponseWriter, r *http.Request) {
	if err := s.RemoveCaregiver(r.Context(), r.PathValue("id"), r.PathValue("caregiver_id")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
