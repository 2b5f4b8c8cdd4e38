package store

import (
	"context"
	"sync"

	"github.com/groblegark/lifeband/internal/model"
)

// subscriber channel buffer. A subscriber that falls this far behind has
// its oldest pending value dropped; every push carries full state, so a
// dropped value is superseded by the next one.
const subscriberBuffer = 16

// Notifier decorates any Store with in-process push subscriptions,
// upgrading it to a Realtime store. All pushes happen after the underlying
// write commits, in commit order per entity.
type Notifier struct {
	Store

	mu         sync.Mutex
	devices    map[string]map[int]chan *model.Device      // tenant/id -> subs
	events     map[string]map[int]chan []*model.Event     // tenant -> subs
	caregivers map[string]map[int]chan []*model.Caregiver // tenant/deviceID -> subs
	nextSub    int
}

var _ Realtime = (*Notifier)(nil)

// NewNotifier wraps inner with push subscription support.
func NewNotifier(inner Store) *Notifier {
	return &Notifier{
		Store:      inner,
		devices:    make(map[string]map[int]chan *model.Device),
		events:     make(map[string]map[int]chan []*model.Event),
		caregivers: make(map[string]map[int]chan []*model.Caregiver),
	}
}

func deviceKey(tenant, id string) string       { return tenant + "/" + id }
func caregiverKey(tenant, device string) string { return tenant + "/" + device }

func (n *Notifier) PutDevice(ctx context.Context, tenant, id string, patch DevicePatch) (*model.Device, error) {
	d, err := n.Store.PutDevice(ctx, tenant, id, patch)
	if err != nil {
		return nil, err
	}
	n.mu.Lock()
	for _, ch := range n.devices[deviceKey(tenant, id)] {
		push(ch, d)
	}
	n.mu.Unlock()
	return d, nil
}

func (n *Notifier) AppendEvent(ctx context.Context, tenant string, event *model.Event) error {
	if err := n.Store.AppendEvent(ctx, tenant, event); err != nil {
		return err
	}
	n.mu.Lock()
	subs := n.events[tenant]
	n.mu.Unlock()
	if len(subs) == 0 {
		return nil
	}

	all, err := n.Store.ListEvents(ctx, tenant)
	if err != nil {
		return nil // the append itself succeeded
	}
	n.mu.Lock()
	for _, ch := range n.events[tenant] {
		push(ch, all)
	}
	n.mu.Unlock()
	return nil
}

func (n *Notifier) PutCaregiver(ctx context.Context, tenant string, caregiver *model.Caregiver) error {
	if err := n.Store.PutCaregiver(ctx, tenant, caregiver); err != nil {
		return err
	}
	n.pushRoster(ctx, tenant, caregiver.DeviceID)
	return nil
}

func (n *Notifier) RemoveCaregiver(ctx context.Context, tenant, deviceID, id string) error {
	if err := n.Store.RemoveCaregiver(ctx, tenant, deviceID, id); err != nil {
		return err
	}
	n.pushRoster(ctx, tenant, deviceID)
	return nil
}

func (n *Notifier) pushRoster(ctx context.Context, tenant, deviceID string) {
	n.mu.Lock()
	subs := n.caregivers[caregiverKey(tenant, deviceID)]
	n.mu.Unlock()
	if len(subs) == 0 {
		return
	}

	roster, err := n.Store.ListCaregivers(ctx, tenant, deviceID)
	if err != nil {
		return
	}
	n.mu.Lock()
	for _, ch := range n.caregivers[caregiverKey(tenant, deviceID)] {
		push(ch, roster)
	}
	n.mu.Unlock()
}

// SubscribeDevice registers a device watcher. If the device already exists
// its current state is delivered immediately so the subscriber never starts
// blind.
func (n *Notifier) SubscribeDevice(tenant, id string) (<-chan *model.Device, func(), error) {
	ch := make(chan *model.Device, subscriberBuffer)
	key := deviceKey(tenant, id)

	// Register before reading the snapshot, and read it under the same lock
	// that serializes write pushes. A write racing with the subscribe is then
	// either in the snapshot or pushed afterwards; it can land as both, which
	// full-state consumers tolerate, but it can never be lost.
	n.mu.Lock()
	if n.devices[key] == nil {
		n.devices[key] = make(map[int]chan *model.Device)
	}
	sub := n.nextSub
	n.nextSub++
	n.devices[key][sub] = ch
	if d, err := n.Store.GetDevice(context.Background(), tenant, id); err == nil {
		ch <- d
	}
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if _, ok := n.devices[key][sub]; ok {
			delete(n.devices[key], sub)
			close(ch)
		}
	}
	return ch, cancel, nil
}

// SubscribeEvents registers an event log watcher. Each push carries the
// full event set after an append.
func (n *Notifier) SubscribeEvents(tenant string) (<-chan []*model.Event, func(), error) {
	ch := make(chan []*model.Event, subscriberBuffer)

	n.mu.Lock()
	if n.events[tenant] == nil {
		n.events[tenant] = make(map[int]chan []*model.Event)
	}
	sub := n.nextSub
	n.nextSub++
	n.events[tenant][sub] = ch
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if _, ok := n.events[tenant][sub]; ok {
			delete(n.events[tenant], sub)
			close(ch)
		}
	}
	return ch, cancel, nil
}

// SubscribeCaregivers registers a roster watcher for one device.
func (n *Notifier) SubscribeCaregivers(tenant, deviceID string) (<-chan []*model.Caregiver, func(), error) {
	ch := make(chan []*model.Caregiver, subscriberBuffer)

	key := caregiverKey(tenant, deviceID)
	n.mu.Lock()
	if n.caregivers[key] == nil {
		n.caregivers[key] = make(map[int]chan []*model.Caregiver)
	}
	sub := n.nextSub
	n.nextSub++
	n.caregivers[key][sub] = ch
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if _, ok := n.caregivers[key][sub]; ok {
			delete(n.caregivers[key], sub)
			close(ch)
		}
	}
	return ch, cancel, nil
}

// push delivers v without blocking. When the buffer is full the oldest
// pending value is evicted so a slow subscriber converges on latest state.
func push[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
