package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/groblegark/lifeband/internal/client"
	"github.com/groblegark/lifeband/internal/server"
	"github.com/groblegark/lifeband/internal/store"
)

// setTestHub points the CLI at an in-process hub for the duration of a test.
func setTestHub(t *testing.T) {
	t.Helper()
	srv := server.NewDeviceServer(store.NewMemoryStore(), nil, "default")
	ts := httptest.NewServer(srv.NewHTTPHandler(""))
	t.Cleanup(ts.Close)

	prev := hubClient
	hubClient = client.NewHTTPClient(ts.URL, "")
	t.Cleanup(func() { hubClient = prev })
}

func TestRunTransition_ReturnsHubErrors(t *testing.T) {
	setTestHub(t)

	// Missing device: the API error must come back to cobra, not kill
	// the process.
	err := runTransition(sosCmd, "dv-missing", "manual-sos", "elderly")
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", apiErr.StatusCode)
	}

	// Guard rejection on an existing device.
	if _, err := hubClient.PairDevice(context.Background(), "dv-1", ""); err != nil {
		t.Fatalf("pair: %v", err)
	}
	err = runTransition(resolveCmd, "dv-1", "resolve", "caregiver")
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusConflict {
		t.Errorf("resolve from SAFE = %v, want 409 APIError", err)
	}
}
