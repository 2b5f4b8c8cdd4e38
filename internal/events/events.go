package events

import (
	"context"

	"github.com/groblegark/lifeband/internal/model"
)

// Event topic constants. Subjects are prefixed with "lifeband.<tenant>." so
// a single bus can carry multiple deployments; subscribers filter with NATS
// wildcards, e.g. "lifeband.default.>".
const (
	TopicDeviceUpdated     = "device.updated"
	TopicEventAppended     = "event.appended"
	TopicCaregiverUpserted = "caregiver.upserted"
	TopicCaregiverRemoved  = "caregiver.removed"
)

// Topic builds the full subject for a tenant-scoped topic.
func Topic(tenant, topic string) string {
	return "lifeband." + tenant + "." + topic
}

// Event types

type DeviceUpdated struct {
	Device *model.Device `json:"device"`
}

type EventAppended struct {
	Event *model.Event `json:"event"`
}

type CaregiverUpserted struct {
	Caregiver *model.Caregiver `json:"caregiver"`
}

type CaregiverRemoved struct {
	DeviceID    string `json:"device_id"`
	CaregiverID string `json:"caregiver_id"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
