package main

import (
	"testing"

	"github.com/groblegark/lifeband/internal/model"
)

func TestDiffEvents(t *testing.T) {
	seen := make(map[string]int64)

	first := []*model.Event{
		{ID: "ev-1", Seq: 1, Type: model.EventManualSOS},
		{ID: "ev-2", Seq: 2, Type: model.EventEmergencyResolved},
	}
	changed := diffEvents(first, seen)
	if len(changed) != 2 {
		t.Fatalf("initial diff = %d events, want 2", len(changed))
	}

	// Same set again: nothing new.
	changed = diffEvents(first, seen)
	if len(changed) != 0 {
		t.Fatalf("repeat diff = %d events, want 0", len(changed))
	}

	// One appended event.
	second := append(first, &model.Event{ID: "ev-3", Seq: 3, Type: model.EventManualSOS})
	changed = diffEvents(second, seen)
	if len(changed) != 1 || changed[0].ID != "ev-3" {
		t.Fatalf("appended diff = %+v, want ev-3 only", changed)
	}
}
