// Package store defines the persistence contract for the shared device
// document, the append-only event log and the caregiver roster.
//
// Every operation takes a tenant identifier: storage is namespaced per
// deployment, threaded as an explicit parameter rather than ambient state.
package store

import (
	"context"
	"errors"

	"github.com/groblegark/lifeband/internal/model"
)

var (
	// ErrNotFound means the requested device or caregiver does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrConflict means a uniqueness constraint was violated, e.g. two
	// caregivers with the same priority on one device.
	ErrConflict = errors.New("store: conflict")

	// ErrUnavailable is a transient connectivity failure. Writes surface it
	// to the caller for a retry decision; the engine never retries writes
	// itself to avoid duplicate escalation storms.
	ErrUnavailable = errors.New("store: unavailable")
)

// DevicePatch is a partial write to a device record. Nil fields are left
// unchanged. The store assigns LastUpdate on every write; callers never
// control it.
type DevicePatch struct {
	Status          *model.DeviceStatus
	Vitals          *model.Vitals
	PairedWearerRef *string
}

// Store is the persistence interface for devices, events and caregivers.
type Store interface {
	// GetDevice returns the device or ErrNotFound.
	GetDevice(ctx context.Context, tenant, id string) (*model.Device, error)

	// PutDevice applies a partial write, creating the device with status
	// SAFE and baseline vitals on first use. LastUpdate is server-assigned
	// and monotonically non-decreasing per device.
	PutDevice(ctx context.Context, tenant, id string, patch DevicePatch) (*model.Device, error)

	// ListDevices returns every device for the tenant ordered by ID.
	ListDevices(ctx context.Context, tenant string) ([]*model.Device, error)

	// AppendEvent durably appends an immutable event, assigning its
	// timestamp and ordering key. Events are never updated or deleted.
	AppendEvent(ctx context.Context, tenant string, event *model.Event) error

	// ListEvents returns the full event set for the tenant. Filtering by
	// device is the consumer's responsibility (model.FilterEvents).
	ListEvents(ctx context.Context, tenant string) ([]*model.Event, error)

	// PutCaregiver creates or replaces a caregiver entry.
	PutCaregiver(ctx context.Context, tenant string, caregiver *model.Caregiver) error

	// RemoveCaregiver deletes a caregiver or returns ErrNotFound.
	RemoveCaregiver(ctx context.Context, tenant, deviceID, id string) error

	// ListCaregivers returns a device's roster ordered by ascending priority.
	ListCaregivers(ctx context.Context, tenant, deviceID string) ([]*model.Caregiver, error)

	// Lifecycle
	Close() error
}

// Realtime extends Store with push subscriptions. Subscribers see writes to
// a given entity in commit order, but a device write and its paired event
// append are separate pushes with no fixed relative order; consumers must
// tolerate observing either first.
type Realtime interface {
	Store

	// SubscribeDevice delivers every committed device state, starting with
	// the current value when the device already exists. Call the returned
	// cancel function to unsubscribe and close the channel.
	SubscribeDevice(tenant, id string) (<-chan *model.Device, func(), error)

	// SubscribeEvents delivers the full current event set on every append.
	SubscribeEvents(tenant string) (<-chan []*model.Event, func(), error)

	// SubscribeCaregivers delivers the full ordered roster on every change.
	SubscribeCaregivers(tenant, deviceID string) (<-chan []*model.Caregiver, func(), error)
}
