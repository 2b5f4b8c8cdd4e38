// Package server implements the hub daemon: it owns the store, applies
// status transitions, appends events, and fans changes out to NATS and SSE
// streams. Caregiver alerting hangs off the store's push subscriptions
// (notify.Dispatcher), not off this package.
package server

import (
	"context"
	"log/slog"

	"github.com/groblegark/lifeband/internal/engine"
	"github.com/groblegark/lifeband/internal/events"
	"github.com/groblegark/lifeband/internal/idgen"
	"github.com/groblegark/lifeband/internal/model"
	"github.com/groblegark/lifeband/internal/presence"
	"github.com/groblegark/lifeband/internal/store"
)

// DeviceServer coordinates the shared device document for one tenant.
type DeviceServer struct {
	store     store.Store
	publisher events.Publisher
	sseHub    *sseHub
	tenant    string
	Presence  *presence.Tracker
}

// NewDeviceServer returns a new DeviceServer backed by the given store and
// publisher.
func NewDeviceServer(s store.Store, p events.Publisher, tenant string) *DeviceServer {
	if tenant == "" {
		tenant = "default"
	}
	return &DeviceServer{
		store:     s,
		publisher: p,
		sseHub:    newSSEHub(),
		tenant:    tenant,
		Presence:  presence.New(),
	}
}

// Tenant returns the tenant namespace this server operates in.
func (s *DeviceServer) Tenant() string { return s.tenant }

// TransitionRequest is one client-initiated state change.
type TransitionRequest struct {
	DeviceID string
	Action   engine.Action
	Role     model.ActorRole
	Actor    string // identity recorded on resolution events
}

// TransitionResult is the committed outcome of a transition.
type TransitionResult struct {
	Device *model.Device `json:"device"`
	Event  *model.Event  `json:"event,omitempty"`
	NoOp   bool          `json:"no_op"`
}

// Transition validates and applies one state change. The status write and
// the event append are separate store operations; subscribers may observe
// either first. Duplicate concurrent transitions to the same target are
// accepted as status no-ops that still log their event.
func (s *DeviceServer) Transition(ctx context.Context, req TransitionRequest) (*TransitionResult, error) {
	device, err := s.store.GetDevice(ctx, s.tenant, req.DeviceID)
	if err != nil {
		return nil, err
	}

	outcome, err := engine.Decide(device.Status, req.Action, req.Role)
	if err != nil {
		return nil, err
	}

	if !outcome.NoOp {
		status := outcome.To
		device, err = s.store.PutDevice(ctx, s.tenant, req.DeviceID, store.DevicePatch{Status: &status})
		if err != nil {
			return nil, err
		}
		s.recordAndPublish(ctx, events.TopicDeviceUpdated, req.DeviceID, events.DeviceUpdated{Device: device})
	}

	result := &TransitionResult{Device: device, NoOp: outcome.NoOp}

	if outcome.EventType != "" {
		id, err := idgen.Event()
		if err != nil {
			return nil, err
		}
		event := &model.Event{
			ID:        id,
			DeviceID:  req.DeviceID,
			Type:      outcome.EventType,
			Status:    outcome.EventStatus,
			ActorRole: req.Role,
		}
		if outcome.EventType == model.EventEmergencyResolved || outcome.EventType == model.EventFalseAlarm {
			event.ResolvedBy = req.Actor
		}
		if err := s.store.AppendEvent(ctx, s.tenant, event); err != nil {
			return nil, err
		}
		result.Event = event
		s.recordAndPublish(ctx, events.TopicEventAppended, req.DeviceID, events.EventAppended{Event: event})
	}

	return result, nil
}

// PairDevice creates or updates a device record. New devices start SAFE with
// baseline vitals.
func (s *DeviceServer) PairDevice(ctx context.Context, id, wearerRef string) (*model.Device, error) {
	patch := store.DevicePatch{}
	if wearerRef != "" {
		patch.PairedWearerRef = &wearerRef
	}
	device, err := s.store.PutDevice(ctx, s.tenant, id, patch)
	if err != nil {
		return nil, err
	}
	s.recordAndPublish(ctx, events.TopicDeviceUpdated, id, events.DeviceUpdated{Device: device})
	return device, nil
}

// GetDevice returns the current device state.
func (s *DeviceServer) GetDevice(ctx context.Context, id string) (*model.Device, error) {
	return s.store.GetDevice(ctx, s.tenant, id)
}

// UpdateVitals applies a vitals reading from the device.
func (s *DeviceServer) UpdateVitals(ctx context.Context, id string, vitals model.Vitals) (*model.Device, error) {
	device, err := s.store.PutDevice(ctx, s.tenant, id, store.DevicePatch{Vitals: &vitals})
	if err != nil {
		return nil, err
	}
	s.recordAndPublish(ctx, events.TopicDeviceUpdated, id, events.DeviceUpdated{Device: device})
	return device, nil
}

// ListEvents returns events for one device, newest first.
func (s *DeviceServer) ListEvents(ctx context.Context, deviceID string) ([]*model.Event, error) {
	all, err := s.store.ListEvents(ctx, s.tenant)
	if err != nil {
		return nil, err
	}
	return model.FilterEvents(all, deviceID), nil
}

// PutCaregiver creates or replaces a caregiver roster entry, assigning an
// ID when the caller did not provide one.
func (s *DeviceServer) PutCaregiver(ctx context.Context, c *model.Caregiver) error {
	if c.ID == "" {
		id, err := idgen.Caregiver()
		if err != nil {
			return err
		}
		c.ID = id
	}
	if err := s.store.PutCaregiver(ctx, s.tenant, c); err != nil {
		return err
	}
	s.recordAndPublish(ctx, events.TopicCaregiverUpserted, c.DeviceID, events.CaregiverUpserted{Caregiver: c})
	return nil
}

// RemoveCaregiver deletes a caregiver from a device's roster.
func (s *DeviceServer) RemoveCaregiver(ctx context.Context, deviceID, id string) error {
	if err := s.store.RemoveCaregiver(ctx, s.tenant, deviceID, id); err != nil {
		return err
	}
	s.recordAndPublish(ctx, events.TopicCaregiverRemoved, deviceID, events.CaregiverRemoved{DeviceID: deviceID, CaregiverID: id})
	return nil
}

// ListCaregivers returns a device's roster ordered by priority.
func (s *DeviceServer) ListCaregivers(ctx context.Context, deviceID string) ([]*model.Caregiver, error) {
	return s.store.ListCaregivers(ctx, s.tenant, deviceID)
}

// recordAndPublish fans a committed change out to NATS and SSE. Both are
// best-effort; failures are logged but do not fail the originating request,
// because the store is the source of truth and clients poll as a fallback.
func (s *DeviceServer) recordAndPublish(ctx context.Context, topic, deviceID string, event any) {
	subject := events.Topic(s.tenant, topic)
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, subject, event); err != nil {
			slog.Warn("failed to publish event", "topic", subject, "device_id", deviceID, "error", err)
		}
	}
	s.broadcastEvent(subject, event)
}
