package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/groblegark/lifeband/internal/model"
	"github.com/groblegark/lifeband/internal/notify"
	"github.com/groblegark/lifeband/internal/store"
)

// recordingNotifier captures alerts for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	alerts []notify.Alert
}

func (r *recordingNotifier) Notify(_ context.Context, alert notify.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alert)
	return nil
}

func (r *recordingNotifier) snapshot() []notify.Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Alert(nil), r.alerts...)
}

func newTestServer(t *testing.T) (*httptest.Server, *DeviceServer, *recordingNotifier) {
	t.Helper()
	rec := &recordingNotifier{}
	st := store.NewNotifier(store.NewMemoryStore())
	srv := NewDeviceServer(st, nil, "default")

	// Alerts ride on the store subscription, the same wiring serve uses.
	dispatcher := notify.NewDispatcher(st, "default", rec, nil)
	if err := dispatcher.Start(context.Background()); err != nil {
		t.Fatalf("starting dispatcher: %v", err)
	}
	t.Cleanup(dispatcher.Stop)

	ts := httptest.NewServer(srv.NewHTTPHandler(""))
	t.Cleanup(ts.Close)
	return ts, srv, rec
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}

func pairDevice(t *testing.T, ts *httptest.Server, id string) {
	t.Helper()
	resp := doJSON(t, http.MethodPut, ts.URL+"/v1/devices/"+id, map[string]string{"paired_wearer_ref": "wearer-1"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pairing %s: status %d", id, resp.StatusCode)
	}
}

func transition(t *testing.T, ts *httptest.Server, deviceID, action, role string) (*TransitionResult, int) {
	t.Helper()
	resp := doJSON(t, http.MethodPost, ts.URL+"/v1/devices/"+deviceID+"/transitions", map[string]string{
		"action": action, "role": role, "actor": role + "-1",
	})
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, resp.StatusCode
	}
	result := decodeBody[*TransitionResult](t, resp)
	return result, http.StatusOK
}

func TestPairDevice_CreatesWithDefaults(t *testing.T) {
	ts, _, _ := newTestServer(t)
	pairDevice(t, ts, "dv-1")

	resp := doJSON(t, http.MethodGet, ts.URL+"/v1/devices/dv-1", nil)
	device := decodeBody[*model.Device](t, resp)
	if device.Status != model.StatusSafe {
		t.Errorf("status = %s, want SAFE", device.Status)
	}
	if device.Vitals != model.DefaultVitals() {
		t.Errorf("vitals = %+v, want defaults", device.Vitals)
	}
	if device.PairedWearerRef != "wearer-1" {
		t.Errorf("paired_wearer_ref = %q", device.PairedWearerRef)
	}
}

func TestGetDevice_NotFound(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp := doJSON(t, http.MethodGet, ts.URL+"/v1/devices/dv-missing", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestTransition_FullEmergencyFlow(t *testing.T) {
	ts, _, _ := newTestServer(t)
	pairDevice(t, ts, "dv-1")

	// Hardware fall signal puts the device in FALL without logging.
	result, code := transition(t, ts, "dv-1", "fall-signal", "device")
	if code != http.StatusOK {
		t.Fatalf("fall-signal status %d", code)
	}
	if result.Device.Status != model.StatusFall || result.Event != nil {
		t.Fatalf("after fall-signal: status=%s event=%+v", result.Device.Status, result.Event)
	}

	// Countdown expiry escalates to SOS and logs FALL_ESCALATED.
	result, code = transition(t, ts, "dv-1", "escalate", "caregiver")
	if code != http.StatusOK {
		t.Fatalf("escalate status %d", code)
	}
	if result.Device.Status != model.StatusSOS {
		t.Errorf("after escalate: status = %s, want SOS", result.Device.Status)
	}
	if result.Event == nil || result.Event.Type != model.EventFallEscalated {
		t.Fatalf("escalate event = %+v, want FALL_ESCALATED", result.Event)
	}

	// Caregiver requests an ambulance.
	result, code = transition(t, ts, "dv-1", "request-ambulance", "caregiver")
	if code != http.StatusOK {
		t.Fatalf("request-ambulance status %d", code)
	}
	if result.Device.Status != model.StatusAmbulance {
		t.Errorf("status = %s, want AMBULANCE", result.Device.Status)
	}

	// Resolution returns to SAFE and records who resolved.
	result, code = transition(t, ts, "dv-1", "resolve", "caregiver")
	if code != http.StatusOK {
		t.Fatalf("resolve status %d", code)
	}
	if result.Device.Status != model.StatusSafe {
		t.Errorf("status = %s, want SAFE", result.Device.Status)
	}
	if result.Event == nil || result.Event.ResolvedBy != "caregiver-1" {
		t.Errorf("resolve event = %+v, want resolved_by caregiver-1", result.Event)
	}

	// The device event log now holds the full story, newest first.
	resp := doJSON(t, http.MethodGet, ts.URL+"/v1/devices/dv-1/events", nil)
	body := decodeBody[map[string][]*model.Event](t, resp)
	events := body["events"]
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].Type != model.EventEmergencyResolved {
		t.Errorf("newest event = %s, want EMERGENCY_RESOLVED", events[0].Type)
	}
}

func TestTransition_GuardsMapToStatusCodes(t *testing.T) {
	ts, _, _ := newTestServer(t)
	pairDevice(t, ts, "dv-1")

	// Resolve from SAFE is undefined.
	if _, code := transition(t, ts, "dv-1", "resolve", "elderly"); code != http.StatusConflict {
		t.Errorf("resolve from SAFE: status %d, want 409", code)
	}

	// Move to FALL, then verify caregivers cannot cancel.
	if _, code := transition(t, ts, "dv-1", "fall-signal", "device"); code != http.StatusOK {
		t.Fatal("fall-signal failed")
	}
	if _, code := transition(t, ts, "dv-1", "cancel-fall", "caregiver"); code != http.StatusForbidden {
		t.Errorf("caregiver cancel-fall: status %d, want 403", code)
	}

	// Unknown action.
	if _, code := transition(t, ts, "dv-1", "reboot", "device"); code != http.StatusBadRequest {
		t.Errorf("unknown action: status %d, want 400", code)
	}

	// Invalid role.
	resp := doJSON(t, http.MethodPost, ts.URL+"/v1/devices/dv-1/transitions", map[string]string{
		"action": "resolve", "role": "janitor",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid role: status %d, want 400", resp.StatusCode)
	}

	// Missing device.
	if _, code := transition(t, ts, "dv-ghost", "fall-signal", "device"); code != http.StatusNotFound {
		t.Errorf("missing device: status %d, want 404", code)
	}
}

func TestTransition_DuplicateIsNoOpButLogs(t *testing.T) {
	ts, _, _ := newTestServer(t)
	pairDevice(t, ts, "dv-1")
	transition(t, ts, "dv-1", "sos-press", "device")

	first, _ := transition(t, ts, "dv-1", "request-ambulance", "caregiver")
	second, _ := transition(t, ts, "dv-1", "request-ambulance", "caregiver")

	if first.NoOp {
		t.Error("first ambulance request reported NoOp")
	}
	if !second.NoOp {
		t.Error("second ambulance request not reported NoOp")
	}
	if second.Event == nil || second.Event.Type != model.EventAmbulanceRequested {
		t.Error("duplicate request must still log AMBULANCE_REQUESTED")
	}
}

func TestUpdateVitals(t *testing.T) {
	ts, _, _ := newTestServer(t)
	pairDevice(t, ts, "dv-1")

	resp := doJSON(t, http.MethodPatch, ts.URL+"/v1/devices/dv-1/vitals", model.Vitals{HeartRate: 88, SpO2: 95, Battery: 60})
	device := decodeBody[*model.Device](t, resp)
	if device.Vitals.HeartRate != 88 || device.Vitals.Battery != 60 {
		t.Errorf("vitals = %+v", device.Vitals)
	}
	if device.Status != model.StatusSafe {
		t.Errorf("vitals patch changed status to %s", device.Status)
	}
}

func TestCaregiverRoster(t *testing.T) {
	ts, _, _ := newTestServer(t)
	pairDevice(t, ts, "dv-1")

	for i, name := range []string{"Ana", "Ben"} {
		resp := doJSON(t, http.MethodPost, ts.URL+"/v1/devices/dv-1/caregivers", map[string]any{
			"name": name, "phone": fmt.Sprintf("+1555000%04d", i), "priority": i + 1,
		})
		c := decodeBody[*model.Caregiver](t, resp)
		if c.ID == "" {
			t.Fatal("caregiver ID not assigned")
		}
	}

	// Duplicate priority is rejected.
	resp := doJSON(t, http.MethodPost, ts.URL+"/v1/devices/dv-1/caregivers", map[string]any{
		"name": "Cid", "priority": 1,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate priority: status %d, want 409", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/v1/devices/dv-1/caregivers", nil)
	body := decodeBody[map[string][]*model.Caregiver](t, resp)
	roster := body["caregivers"]
	if len(roster) != 2 {
		t.Fatalf("roster size = %d, want 2", len(roster))
	}
	if roster[0].Name != "Ana" || roster[1].Name != "Ben" {
		t.Errorf("roster order = %s, %s; want Ana, Ben", roster[0].Name, roster[1].Name)
	}

	// Remove and verify 404 on repeat.
	url := ts.URL + "/v1/devices/dv-1/caregivers/" + roster[0].ID
	if resp := doJSON(t, http.MethodDelete, url, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: status %d", resp.StatusCode)
	}
	if resp := doJSON(t, http.MethodDelete, url, nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete: status %d, want 404", resp.StatusCode)
	}
}

func TestEmergencyAlertsFanOutInPriorityOrder(t *testing.T) {
	ts, _, rec := newTestServer(t)
	pairDevice(t, ts, "dv-1")

	doJSON(t, http.MethodPost, ts.URL+"/v1/devices/dv-1/caregivers", map[string]any{
		"id": "cg-second", "name": "Second", "priority": 2,
	}).Body.Close()
	doJSON(t, http.MethodPost, ts.URL+"/v1/devices/dv-1/caregivers", map[string]any{
		"id": "cg-first", "name": "First", "priority": 1,
	}).Body.Close()

	transition(t, ts, "dv-1", "manual-sos", "elderly")

	// The dispatcher alerts off the store push, shortly after the
	// transition commits.
	deadline := time.Now().Add(2 * time.Second)
	var alerts []notify.Alert
	for len(alerts) < 2 && time.Now().Before(deadline) {
		alerts = rec.snapshot()
		time.Sleep(5 * time.Millisecond)
	}
	if len(alerts) != 2 {
		t.Fatalf("got %d alerts, want 2", len(alerts))
	}
	if alerts[0].Caregiver.ID != "cg-first" || alerts[1].Caregiver.ID != "cg-second" {
		t.Errorf("alert order = %s, %s; want cg-first, cg-second",
			alerts[0].Caregiver.ID, alerts[1].Caregiver.ID)
	}
	if alerts[0].Event.Type != model.EventManualSOS {
		t.Errorf("alert event type = %s", alerts[0].Event.Type)
	}
}

func TestWatcherRoster(t *testing.T) {
	ts, _, _ := newTestServer(t)
	pairDevice(t, ts, "dv-1")

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/devices/dv-1", nil)
	req.Header.Set("X-Lifeband-Actor", "cg-watcher")
	req.Header.Set("X-Lifeband-Role", "caregiver")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get with identity: %v", err)
	}
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, ts.URL+"/v1/devices/dv-1/watchers", nil)
	body := decodeBody[map[string]json.RawMessage](t, resp)
	var watchers []map[string]any
	if err := json.Unmarshal(body["watchers"], &watchers); err != nil {
		t.Fatalf("decoding watchers: %v", err)
	}
	if len(watchers) != 1 {
		t.Fatalf("got %d watchers, want 1", len(watchers))
	}
	if watchers[0]["actor"] != "cg-watcher" || watchers[0]["role"] != "caregiver" {
		t.Errorf("watcher = %+v", watchers[0])
	}
}

func TestHealth(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp := doJSON(t, http.MethodGet, ts.URL+"/v1/health", nil)
	body := decodeBody[map[string]string](t, resp)
	if body["status"] != "ok" {
		t.Errorf("health = %+v", body)
	}
}
