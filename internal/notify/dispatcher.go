package notify

import (
	"context"
	"log/slog"
	"sort"

	"github.com/groblegark/lifeband/internal/model"
	"github.com/groblegark/lifeband/internal/store"
)

// Dispatcher turns committed event appends into caregiver alerts. It runs
// off the store's push subscription, so every logged event reaches the
// roster no matter which code path appended it.
type Dispatcher struct {
	store    store.Realtime
	tenant   string
	notifier Notifier
	logger   *slog.Logger

	cancel func()
	done   chan struct{}
}

// NewDispatcher returns a dispatcher that alerts n for every event appended
// to tenant's log in s.
func NewDispatcher(s store.Realtime, tenant string, n Notifier, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{store: s, tenant: tenant, notifier: n, logger: logger}
}

// Start subscribes to event appends and begins alerting. Events already in
// the log count as delivered; only appends after Start alert anyone, so a
// hub restart does not replay the whole history at the roster.
func (d *Dispatcher) Start(ctx context.Context) error {
	existing, err := d.store.ListEvents(ctx, d.tenant)
	if err != nil {
		return err
	}
	var lastSeq int64
	for _, e := range existing {
		if e.Seq > lastSeq {
			lastSeq = e.Seq
		}
	}

	ch, cancel, err := d.store.SubscribeEvents(d.tenant)
	if err != nil {
		return err
	}
	d.cancel = cancel
	d.done = make(chan struct{})
	go d.run(ch, lastSeq)
	return nil
}

// Stop unsubscribes and waits for the in-flight alert, if any, to finish.
func (d *Dispatcher) Stop() {
	if d.cancel == nil {
		return
	}
	d.cancel()
	<-d.done
}

// run alerts for each event not yet seen. Every push carries the full set,
// so a push evicted from a slow subscription buffer is recovered from the
// next one.
func (d *Dispatcher) run(ch <-chan []*model.Event, lastSeq int64) {
	defer close(d.done)
	ctx := context.Background()
	for all := range ch {
		var fresh []*model.Event
		for _, e := range all {
			if e.Seq > lastSeq {
				fresh = append(fresh, e)
			}
		}
		sort.Slice(fresh, func(i, j int) bool { return fresh[i].Seq < fresh[j].Seq })
		for _, e := range fresh {
			lastSeq = e.Seq
			d.alert(ctx, e)
		}
	}
}

func (d *Dispatcher) alert(ctx context.Context, event *model.Event) {
	device, err := d.store.GetDevice(ctx, d.tenant, event.DeviceID)
	if err != nil {
		d.logger.Warn("failed to load device for alert", "device_id", event.DeviceID, "error", err)
		return
	}
	roster, err := d.store.ListCaregivers(ctx, d.tenant, event.DeviceID)
	if err != nil {
		d.logger.Warn("failed to load caregiver roster for alert", "device_id", event.DeviceID, "error", err)
		return
	}
	Fanout(ctx, d.notifier, d.logger, roster, device, event)
}
