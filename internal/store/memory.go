package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/groblegark/lifeband/internal/model"
)

// MemoryStore implements Store with in-process maps. It is the default
// backend for single-hub deployments and for tests.
type MemoryStore struct {
	mu      sync.RWMutex
	tenants map[string]*tenantData
}

type tenantData struct {
	devices    map[string]*model.Device
	events     []*model.Event
	caregivers map[string]*model.Caregiver // keyed by caregiver ID
	nextSeq    int64
}

// Compile-time check that MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tenants: make(map[string]*tenantData)}
}

func (s *MemoryStore) tenant(name string) *tenantData {
	td, ok := s.tenants[name]
	if !ok {
		td = &tenantData{
			devices:    make(map[string]*model.Device),
			caregivers: make(map[string]*model.Caregiver),
		}
		s.tenants[name] = td
	}
	return td
}

func (s *MemoryStore) GetDevice(_ context.Context, tenant, id string) (*model.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	td, ok := s.tenants[tenant]
	if !ok {
		return nil, ErrNotFound
	}
	d, ok := td.devices[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *d
	return &clone, nil
}

func (s *MemoryStore) PutDevice(_ context.Context, tenant, id string, patch DevicePatch) (*model.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	td := s.tenant(tenant)
	d, ok := td.devices[id]
	if !ok {
		// First pairing: status SAFE, baseline vitals.
		d = &model.Device{
			ID:     id,
			Status: model.StatusSafe,
			Vitals: model.DefaultVitals(),
		}
		td.devices[id] = d
	}

	if patch.Status != nil {
		d.Status = *patch.Status
	}
	if patch.Vitals != nil {
		d.Vitals = *patch.Vitals
	}
	if patch.PairedWearerRef != nil {
		d.PairedWearerRef = *patch.PairedWearerRef
	}
	if err := model.ValidateDevice(d); err != nil {
		return nil, err
	}

	// LastUpdate is monotonically non-decreasing per device even if the
	// wall clock steps backwards.
	now := time.Now().UTC()
	if now.Before(d.LastUpdate) {
		now = d.LastUpdate
	}
	d.LastUpdate = now

	clone := *d
	return &clone, nil
}

func (s *MemoryStore) ListDevices(_ context.Context, tenant string) ([]*model.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	td, ok := s.tenants[tenant]
	if !ok {
		return nil, nil
	}
	out := make([]*model.Device, 0, len(td.devices))
	for _, d := range td.devices {
		clone := *d
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) AppendEvent(_ context.Context, tenant string, event *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	td := s.tenant(tenant)
	td.nextSeq++
	event.Seq = td.nextSeq
	event.Timestamp = time.Now().UTC()

	clone := *event
	td.events = append(td.events, &clone)
	return nil
}

func (s *MemoryStore) ListEvents(_ context.Context, tenant string) ([]*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	td, ok := s.tenants[tenant]
	if !ok {
		return nil, nil
	}
	out := make([]*model.Event, len(td.events))
	for i, e := range td.events {
		clone := *e
		out[i] = &clone
	}
	return out, nil
}

func (s *MemoryStore) PutCaregiver(_ context.Context, tenant string, caregiver *model.Caregiver) error {
	if err := model.ValidateCaregiver(caregiver); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	td := s.tenant(tenant)
	for _, existing := range td.caregivers {
		if existing.ID == caregiver.ID {
			continue
		}
		if existing.DeviceID == caregiver.DeviceID && existing.Priority == caregiver.Priority {
			return ErrConflict
		}
	}
	clone := *caregiver
	td.caregivers[caregiver.ID] = &clone
	return nil
}

func (s *MemoryStore) RemoveCaregiver(_ context.Context, tenant, deviceID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	td, ok := s.tenants[tenant]
	if !ok {
		return ErrNotFound
	}
	c, ok := td.caregivers[id]
	if !ok || c.DeviceID != deviceID {
		return ErrNotFound
	}
	delete(td.caregivers, id)
	return nil
}

func (s *MemoryStore) ListCaregivers(_ context.Context, tenant, deviceID string) ([]*model.Caregiver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	td, ok := s.tenants[tenant]
	if !ok {
		return nil, nil
	}
	var out []*model.Caregiver
	for _, c := range td.caregivers {
		if c.DeviceID == deviceID {
			clone := *c
			out = append(out, &clone)
		}
	}
	model.SortCaregivers(out)
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
