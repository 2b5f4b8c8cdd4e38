// Package client provides a transport-agnostic interface for the lifeband
// hub and an HTTP/JSON implementation that talks to the hub's REST API.
package client

import (
	"context"
	"encoding/json"

	"github.com/groblegark/lifeband/internal/model"
	"github.com/groblegark/lifeband/internal/presence"
)

// DeviceClient is the interface that all lifeband CLI commands use to
// communicate with the hub. It is implemented by HTTPClient (default) and
// can be backed by any transport.
type DeviceClient interface {
	// Device document
	PairDevice(ctx context.Context, id, wearerRef string) (*model.Device, error)
	GetDevice(ctx context.Context, id string) (*model.Device, error)
	UpdateVitals(ctx context.Context, id string, vitals model.Vitals) (*model.Device, error)

	// State machine
	Transition(ctx context.Context, req *TransitionRequest) (*TransitionResult, error)

	// Event log
	ListEvents(ctx context.Context, deviceID string) ([]*model.Event, error)

	// Caregiver roster
	PutCaregiver(ctx context.Context, caregiver *model.Caregiver) (*model.Caregiver, error)
	RemoveCaregiver(ctx context.Context, deviceID, id string) error
	ListCaregivers(ctx context.Context, deviceID string) ([]*model.Caregiver, error)

	// Watchers
	ListWatchers(ctx context.Context, deviceID string) ([]presence.Entry, error)

	// Streaming
	StreamEvents(ctx context.Context, opts StreamOptions) (<-chan StreamEvent, func(), error)

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// TransitionRequest holds parameters for a state transition.
type TransitionRequest struct {
	DeviceID string `json:"-"`
	Action   string `json:"action"`
	Role     string `json:"role"`
	Actor    string `json:"actor,omitempty"`
}

// TransitionResult is the hub's committed outcome of a transition.
type TransitionResult struct {
	Device *model.Device `json:"device"`
	Event  *model.Event  `json:"event,omitempty"`
	NoOp   bool          `json:"no_op"`
}

// StreamOptions configures an SSE subscription.
type StreamOptions struct {
	// Topics are subject patterns to filter on (NATS-style wildcards).
	// Empty means all topics.
	Topics []string

	// DeviceID identifies the watched device for the hub's watcher roster.
	DeviceID string

	// LastEventID resumes the stream after a previously seen event.
	LastEventID uint64
}

// StreamEvent is one push received over the event stream.
type StreamEvent struct {
	ID    uint64
	Topic string
	Data  json.RawMessage
}
