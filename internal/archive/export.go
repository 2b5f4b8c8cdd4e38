package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/groblegark/lifeband/internal/model"
	"github.com/groblegark/lifeband/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version        string    `json:"version"`
	Type           string    `json:"type"`
	Tenant         string    `json:"tenant"`
	Timestamp      time.Time `json:"timestamp"`
	DeviceCount    int       `json:"device_count"`
	EventCount     int       `json:"event_count"`
	CaregiverCount int       `json:"caregiver_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ExportJSONL writes the tenant's devices, events and caregiver rosters as
// JSONL to w. Devices come out sorted by ID, events in append order, and
// each device's roster in priority order.
func ExportJSONL(ctx context.Context, s store.Store, tenant string, w io.Writer) error {
	devices, err := s.ListDevices(ctx, tenant)
	if err != nil {
		return fmt.Errorf("list devices: %w", err)
	}

	events, err := s.ListEvents(ctx, tenant)
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}

	var caregivers []*model.Caregiver
	for _, d := range devices {
		roster, err := s.ListCaregivers(ctx, tenant, d.ID)
		if err != nil {
			return fmt.Errorf("list caregivers for %s: %w", d.ID, err)
		}
		caregivers = append(caregivers, roster...)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:        "1",
		Type:           "header",
		Tenant:         tenant,
		Timestamp:      time.Now().UTC(),
		DeviceCount:    len(devices),
		EventCount:     len(events),
		CaregiverCount: len(caregivers),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, d := range devices {
		if err := enc.Encode(record{Type: "device", Data: d}); err != nil {
			return fmt.Errorf("encode device %s: %w", d.ID, err)
		}
	}
	for _, e := range events {
		if err := enc.Encode(record{Type: "event", Data: e}); err != nil {
			return fmt.Errorf("encode event %s: %w", e.ID, err)
		}
	}
	for _, c := range caregivers {
		if err := enc.Encode(record{Type: "caregiver", Data: c}); err != nil {
			return fmt.Errorf("encode caregiver %s: %w", c.ID, err)
		}
	}

	return nil
}
