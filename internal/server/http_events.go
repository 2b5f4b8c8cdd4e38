package server

import (
	"net/http"

	"github.com/groblegark/lifeband/internal/model"
)

// handleListEvents handles GET /v1/events. Returns the full tenant log,
// newest first. Filter to one device with ?device=<id>.
func (s *DeviceServer) handleListEvents(w http.ResponseWriter, r *http.Request) {
	all, err := s.store.ListEvents(r.Context(), s.tenant)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if device := r.URL.Query().Get("device"); device != "" {
		all = model.FilterEvents(all, device)
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": all})
}

// handleListDeviceEvents handles GET /v1/devices/{id}/events.
func (s *DeviceServer) handleListDeviceEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.ListEvents(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}
