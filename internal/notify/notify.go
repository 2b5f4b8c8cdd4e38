// Package notify dispatches emergency alerts to a device's caregiver roster.
//
// Dispatch is an interface so deployments can plug in SMS or pager gateways;
// the built-in implementations log or drop. Alerts go out in roster priority
// order, and a failure for one caregiver never blocks the rest.
package notify

import (
	"context"
	"log/slog"

	"github.com/groblegark/lifeband/internal/model"
)

// Alert is one notification for one caregiver.
type Alert struct {
	Caregiver *model.Caregiver
	Device    *model.Device
	Event     *model.Event
}

// Notifier delivers a single alert.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// Func adapts a function to the Notifier interface.
type Func func(ctx context.Context, alert Alert) error

func (f Func) Notify(ctx context.Context, alert Alert) error { return f(ctx, alert) }

// Noop drops every alert.
type Noop struct{}

func (Noop) Notify(ctx context.Context, alert Alert) error { return nil }

// LogNotifier writes each alert to a slog.Logger. It is the default sink
// when no gateway is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l *LogNotifier) Notify(ctx context.Context, alert Alert) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "caregiver alert",
		"caregiver_id", alert.Caregiver.ID,
		"caregiver_name", alert.Caregiver.Name,
		"priority", alert.Caregiver.Priority,
		"device_id", alert.Device.ID,
		"status", alert.Device.Status,
		"event_type", alert.Event.Type,
	)
	return nil
}

// Fanout sends an alert to every caregiver on the roster in priority order.
// Errors are logged and skipped so one unreachable caregiver cannot starve
// lower-priority ones.
func Fanout(ctx context.Context, n Notifier, logger *slog.Logger, roster []*model.Caregiver, device *model.Device, event *model.Event) {
	if n == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	sorted := make([]*model.Caregiver, len(roster))
	copy(sorted, roster)
	model.SortCaregivers(sorted)

	for _, c := range sorted {
		if err := n.Notify(ctx, Alert{Caregiver: c, Device: device, Event: event}); err != nil {
			logger.WarnContext(ctx, "caregiver notification failed",
				"caregiver_id", c.ID, "device_id", device.ID, "error", err)
		}
	}
}
