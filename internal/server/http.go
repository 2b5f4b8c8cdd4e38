package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/groblegark/lifeband/internal/engine"
	"github.com/groblegark/lifeband/internal/model"
	"github.com/groblegark/lifeband/internal/presence"
	"github.com/groblegark/lifeband/internal/store"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *DeviceServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /v1/devices/{id}", s.handlePairDevice)
	mux.HandleFunc("GET /v1/devices/{id}", s.handleGetDevice)
	mux.HandleFunc("PATCH /v1/devices/{id}/vitals", s.handleUpdateVitals)
	mux.HandleFunc("POST /v1/devices/{id}/transitions", s.handleTransition)
	mux.HandleFunc("GET /v1/devices/{id}/events", s.handleListDeviceEvents)
	mux.HandleFunc("GET /v1/devices/{id}/caregivers", s.handleListCaregivers)
	mux.HandleFunc("POST /v1/devices/{id}/caregivers", s.handlePutCaregiver)
	mux.HandleFunc("DELETE /v1/devices/{id}/caregivers/{caregiver_id}", s.handleRemoveCaregiver)
	mux.HandleFunc("GET /v1/devices/{id}/watchers", s.handleListWatchers)
	mux.HandleFunc("GET /v1/events", s.handleListEvents)
	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	return AuthMiddleware(authToken, mux)
}

// handleHealth handles GET /v1/health.
func (s *DeviceServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "tenant": s.tenant})
}

// heartbeatFromRequest extracts the viewer identity headers used for the
// watcher roster. Device ID comes from the path when present, otherwise the
// "device" query param (SSE streams).
func heartbeatFromRequest(r *http.Request) presence.Heartbeat {
	deviceID := r.PathValue("id")
	if deviceID == "" {
		deviceID = r.URL.Query().Get("device")
	}
	return presence.Heartbeat{
		Actor:    r.Header.Get("X-Lifeband-Actor"),
		Role:     r.Header.Get("X-Lifeband-Role"),
		DeviceID: deviceID,
	}
}

// touchPresence records viewer activity for requests carrying identity headers.
func (s *DeviceServer) touchPresence(r *http.Request) {
	s.Presence.Touch(heartbeatFromRequest(r))
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeStoreError maps domain errors onto HTTP status codes.
func writeStoreError(w http.ResponseWriter, err error) {
	var verr *model.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, engine.ErrUnknownAction):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
