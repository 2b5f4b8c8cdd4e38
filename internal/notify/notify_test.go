package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/groblegark/lifeband/internal/model"
)

func TestFanout_PriorityOrder(t *testing.T) {
	var got []string
	n := Func(func(ctx context.Context, alert Alert) error {
		got = append(got, alert.Caregiver.ID)
		return nil
	})

	roster := []*model.Caregiver{
		{ID: "cg-3", DeviceID: "dv-1", Name: "Third", Priority: 3},
		{ID: "cg-1", DeviceID: "dv-1", Name: "First", Priority: 1},
		{ID: "cg-2", DeviceID: "dv-1", Name: "Second", Priority: 2},
	}
	device := &model.Device{ID: "dv-1", Status: model.StatusSOS}
	event := &model.Event{ID: "ev-1", DeviceID: "dv-1", Type: model.EventManualSOS}

	Fanout(context.Background(), n, nil, roster, device, event)

	want := []string{"cg-1", "cg-2", "cg-3"}
	if len(got) != len(want) {
		t.Fatalf("notified %d caregivers, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("notification %d went to %s, want %s", i, got[i], want[i])
		}
	}
}

func TestFanout_ContinuesPastFailures(t *testing.T) {
	var got []string
	n := Func(func(ctx context.Context, alert Alert) error {
		got = append(got, alert.Caregiver.ID)
		if alert.Caregiver.ID == "cg-1" {
			return errors.New("gateway timeout")
		}
		return nil
	})

	roster := []*model.Caregiver{
		{ID: "cg-1", DeviceID: "dv-1", Name: "First", Priority: 1},
		{ID: "cg-2", DeviceID: "dv-1", Name: "Second", Priority: 2},
	}
	device := &model.Device{ID: "dv-1", Status: model.StatusSOS}
	event := &model.Event{ID: "ev-1", DeviceID: "dv-1", Type: model.EventFallEscalated}

	Fanout(context.Background(), n, nil, roster, device, event)

	if len(got) != 2 {
		t.Fatalf("notified %d caregivers, want 2 despite failure", len(got))
	}
}

func TestFanout_DoesNotMutateRoster(t *testing.T) {
	roster := []*model.Caregiver{
		{ID: "cg-2", DeviceID: "dv-1", Name: "Second", Priority: 2},
		{ID: "cg-1", DeviceID: "dv-1", Name: "First", Priority: 1},
	}
	device := &model.Device{ID: "dv-1", Status: model.StatusSOS}
	event := &model.Event{ID: "ev-1", DeviceID: "dv-1", Type: model.EventManualSOS}

	Fanout(context.Background(), Noop{}, nil, roster, device, event)

	if roster[0].ID != "cg-2" {
		t.Error("Fanout reordered the caller's roster slice")
	}
}

func TestLogNotifier_NilLoggerDoesNotPanic(t *testing.T) {
	n := &LogNotifier{}
	err := n.Notify(context.Background(), Alert{
		Caregiver: &model.Caregiver{ID: "cg-1", Name: "Ana", Priority: 1},
		Device:    &model.Device{ID: "dv-1", Status: model.StatusSOS},
		Event:     &model.Event{ID: "ev-1", Type: model.EventManualSOS},
	})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
}
