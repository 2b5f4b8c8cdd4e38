package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/groblegark/lifeband/internal/model"
	"github.com/groblegark/lifeband/internal/server"
	"github.com/groblegark/lifeband/internal/store"
)

// newTestPair spins up a real hub over httptest and a client against it.
func newTestPair(t *testing.T) (*HTTPClient, *server.DeviceServer) {
	t.Helper()
	srv := server.NewDeviceServer(store.NewMemoryStore(), nil, "default")
	ts := httptest.NewServer(srv.NewHTTPHandler(""))
	t.Cleanup(ts.Close)
	return NewHTTPClient(ts.URL, ""), srv
}

func TestHTTPClient_DeviceLifecycle(t *testing.T) {
	c, _ := newTestPair(t)
	ctx := context.Background()

	device, err := c.PairDevice(ctx, "dv-1", "wearer-1")
	if err != nil {
		t.Fatalf("PairDevice: %v", err)
	}
	if device.Status != model.StatusSafe {
		t.Errorf("status = %s, want SAFE", device.Status)
	}

	device, err = c.UpdateVitals(ctx, "dv-1", model.Vitals{HeartRate: 90, SpO2: 97, Battery: 80})
	if err != nil {
		t.Fatalf("UpdateVitals: %v", err)
	}
	if device.Vitals.HeartRate != 90 {
		t.Errorf("heart rate = %d, want 90", device.Vitals.HeartRate)
	}

	got, err := c.GetDevice(ctx, "dv-1")
	if err != nil {
		t.Fatalf("GetDevice: %v", err)
	}
	if got.Vitals.Battery != 80 {
		t.Errorf("battery = %d, want 80", got.Vitals.Battery)
	}
}

func TestHTTPClient_TransitionAndEvents(t *testing.T) {
	c, _ := newTestPair(t)
	ctx := context.Background()

	if _, err := c.PairDevice(ctx, "dv-1", ""); err != nil {
		t.Fatalf("PairDevice: %v", err)
	}

	result, err := c.Transition(ctx, &TransitionRequest{
		DeviceID: "dv-1", Action: "manual-sos", Role: "elderly", Actor: "wearer",
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if result.Device.Status != model.StatusSOS {
		t.Errorf("status = %s, want SOS", result.Device.Status)
	}
	if result.Event == nil || result.Event.Type != model.EventManualSOS {
		t.Fatalf("event = %+v, want MANUAL_SOS", result.Event)
	}

	events, err := c.ListEvents(ctx, "dv-1")
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 || events[0].Type != model.EventManualSOS {
		t.Errorf("events = %+v", events)
	}
}

func TestHTTPClient_GuardErrorsCarryStatusCodes(t *testing.T) {
	c, _ := newTestPair(t)
	ctx := context.Background()

	if _, err := c.PairDevice(ctx, "dv-1", ""); err != nil {
		t.Fatalf("PairDevice: %v", err)
	}

	_, err := c.Transition(ctx, &TransitionRequest{
		DeviceID: "dv-1", Action: "resolve", Role: "elderly",
	})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", apiErr.StatusCode)
	}

	_, err = c.GetDevice(ctx, "dv-missing")
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("missing device error = %v, want 404 APIError", err)
	}
}

func TestHTTPClient_Caregivers(t *testing.T) {
	c, _ := newTestPair(t)
	ctx := context.Background()

	if _, err := c.PairDevice(ctx, "dv-1", ""); err != nil {
		t.Fatalf("PairDevice: %v", err)
	}

	created, err := c.PutCaregiver(ctx, &model.Caregiver{DeviceID: "dv-1", Name: "Ana", Priority: 1})
	if err != nil {
		t.Fatalf("PutCaregiver: %v", err)
	}
	if created.ID == "" {
		t.Fatal("caregiver ID not assigned")
	}

	roster, err := c.ListCaregivers(ctx, "dv-1")
	if err != nil {
		t.Fatalf("ListCaregivers: %v", err)
	}
	if len(roster) != 1 || roster[0].Name != "Ana" {
		t.Errorf("roster = %+v", roster)
	}

	if err := c.RemoveCaregiver(ctx, "dv-1", created.ID); err != nil {
		t.Fatalf("RemoveCaregiver: %v", err)
	}
}

func TestHTTPClient_IdentityShowsOnWatcherRoster(t *testing.T) {
	c, _ := newTestPair(t)
	c.SetIdentity("cg-ana", "caregiver")
	ctx := context.Background()

	if _, err := c.PairDevice(ctx, "dv-1", ""); err != nil {
		t.Fatalf("PairDevice: %v", err)
	}
	if _, err := c.GetDevice(ctx, "dv-1"); err != nil {
		t.Fatalf("GetDevice: %v", err)
	}

	watchers, err := c.ListWatchers(ctx, "dv-1")
	if err != nil {
		t.Fatalf("ListWatchers: %v", err)
	}
	if len(watchers) != 1 || watchers[0].Actor != "cg-ana" {
		t.Errorf("watchers = %+v, want cg-ana", watchers)
	}
}

func TestHTTPClient_StreamEvents(t *testing.T) {
	c, _ := newTestPair(t)
	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()

	ch, cancel, err := c.StreamEvents(ctx, StreamOptions{
		Topics: []string{"lifeband.default.device.*"},
	})
	if err != nil {
		t.Fatalf("StreamEvents: %v", err)
	}
	defer cancel()

	// Give the stream a moment to connect, then trigger a write.
	time.Sleep(50 * time.Millisecond)
	if _, err := c.PairDevice(ctx, "dv-1", ""); err != nil {
		t.Fatalf("PairDevice: %v", err)
	}

	select {
	case evt := <-ch:
		if evt.Topic != "lifeband.default.device.updated" {
			t.Errorf("topic = %q", evt.Topic)
		}
		if evt.ID == 0 {
			t.Error("stream event missing ID")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for stream event")
	}
}

func TestHTTPClient_Health(t *testing.T) {
	c, _ := newTestPair(t)
	status, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if status != "ok" {
		t.Errorf("status = %q, want ok", status)
	}
}
