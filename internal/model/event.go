package model

import (
	"sort"
	"time"
)

// EventType categorizes an audit event. Well-known constants are provided
// below, but the set is extensible; consumers must tolerate unknown types.
type EventType string

const (
	EventManualSOS          EventType = "MANUAL_SOS"
	EventFallEscalated      EventType = "FALL_ESCALATED"
	EventFalseAlarm         EventType = "FALSE_ALARM"
	EventAmbulanceRequested EventType = "AMBULANCE_REQUESTED"
	EventEmergencyResolved  EventType = "EMERGENCY_RESOLVED"
)

// String returns the string representation of the event type.
func (t EventType) String() string {
	return string(t)
}

// IsKnown reports whether the type is one of the well-known values.
// Unknown types are still valid events; they render as-is.
func (t EventType) IsKnown() bool {
	switch t {
	case EventManualSOS, EventFallEscalated, EventFalseAlarm,
		EventAmbulanceRequested, EventEmergencyResolved:
		return true
	}
	return false
}

// EventStatus is the event's own lifecycle tag, distinct from the device
// status it explains. An ACTIVE event stays ACTIVE even after the device
// has moved on.
type EventStatus string

const (
	EventActive     EventStatus = "ACTIVE"
	EventResolved   EventStatus = "RESOLVED"
	EventDispatched EventStatus = "DISPATCHED"
)

// Event is one immutable audit record. Events are append-only; corrections
// are represented as later events, never edits.
type Event struct {
	ID         string      `json:"id"`
	DeviceID   string      `json:"device_id"`
	Type       EventType   `json:"type"`
	Status     EventStatus `json:"status,omitempty"`
	ActorRole  ActorRole   `json:"actor_role,omitempty"`
	ResolvedBy string      `json:"resolved_by,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`

	// Seq is the store-assigned ordering key. Timestamps from a single
	// store are monotonic enough for display; Seq breaks ties.
	Seq int64 `json:"seq,omitempty"`
}

// FilterEvents returns the events belonging to deviceID, newest first.
// Filtering the full set is the consumer's responsibility by contract;
// the store never filters on the read path.
func FilterEvents(events []*Event, deviceID string) []*Event {
	var out []*Event
	for _, e := range events {
		if e.DeviceID == deviceID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Seq > out[j].Seq
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}
