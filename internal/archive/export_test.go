package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/groblegark/lifeband/internal/model"
	"github.com/groblegark/lifeband/internal/store"
)

func seedStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	ms := store.NewMemoryStore()
	ctx := context.Background()

	// Devices out of ID order to verify sorting.
	if _, err := ms.PutDevice(ctx, "default", "dv-zzz", store.DevicePatch{}); err != nil {
		t.Fatalf("put dv-zzz: %v", err)
	}
	if _, err := ms.PutDevice(ctx, "default", "dv-aaa", store.DevicePatch{}); err != nil {
		t.Fatalf("put dv-aaa: %v", err)
	}

	if err := ms.AppendEvent(ctx, "default", &model.Event{
		ID: "ev-1", DeviceID: "dv-aaa", Type: model.EventManualSOS,
		Status: model.EventActive, ActorRole: model.RoleElderly,
	}); err != nil {
		t.Fatalf("append event: %v", err)
	}

	if err := ms.PutCaregiver(ctx, "default", &model.Caregiver{
		ID: "cg-1", DeviceID: "dv-aaa", Name: "Ana", Priority: 1,
	}); err != nil {
		t.Fatalf("put caregiver: %v", err)
	}

	return ms
}

func TestExportJSONL_Empty(t *testing.T) {
	ms := store.NewMemoryStore()
	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, "default", &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (header only), got %d", len(lines))
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.Version != "1" || h.Type != "header" || h.Tenant != "default" {
		t.Fatalf("unexpected header: %+v", h)
	}
	if h.DeviceCount != 0 || h.EventCount != 0 || h.CaregiverCount != 0 {
		t.Fatalf("unexpected counts: %+v", h)
	}
}

func TestExportJSONL_FullState(t *testing.T) {
	ms := seedStore(t)

	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, "default", &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	// 1 header + 2 devices + 1 event + 1 caregiver = 5 lines.
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d:\n%s", len(lines), buf.String())
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.DeviceCount != 2 || h.EventCount != 1 || h.CaregiverCount != 1 {
		t.Fatalf("header counts: %+v", h)
	}

	// Devices come first, sorted by ID.
	var rec1, rec2 record
	if err := json.Unmarshal([]byte(lines[1]), &rec1); err != nil {
		t.Fatalf("unmarshal line 1: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[2]), &rec2); err != nil {
		t.Fatalf("unmarshal line 2: %v", err)
	}
	if rec1.Type != "device" || rec2.Type != "device" {
		t.Fatalf("expected device records, got %q and %q", rec1.Type, rec2.Type)
	}
	data1, _ := json.Marshal(rec1.Data)
	data2, _ := json.Marshal(rec2.Data)
	var d1, d2 model.Device
	if err := json.Unmarshal(data1, &d1); err != nil {
		t.Fatalf("unmarshal d1: %v", err)
	}
	if err := json.Unmarshal(data2, &d2); err != nil {
		t.Fatalf("unmarshal d2: %v", err)
	}
	if d1.ID != "dv-aaa" || d2.ID != "dv-zzz" {
		t.Fatalf("devices not sorted: got %q, %q", d1.ID, d2.ID)
	}

	var rec3, rec4 record
	if err := json.Unmarshal([]byte(lines[3]), &rec3); err != nil {
		t.Fatalf("unmarshal line 3: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[4]), &rec4); err != nil {
		t.Fatalf("unmarshal line 4: %v", err)
	}
	if rec3.Type != "event" {
		t.Fatalf("expected event record, got %q", rec3.Type)
	}
	if rec4.Type != "caregiver" {
		t.Fatalf("expected caregiver record, got %q", rec4.Type)
	}
}

func TestExportJSONL_TenantScoped(t *testing.T) {
	ms := seedStore(t)

	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, "other", &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := nonEmptyLines(buf.String())
	if len(lines) != 1 {
		t.Fatalf("expected header only for empty tenant, got %d lines", len(lines))
	}
}

func nonEmptyLines(s string) []string {
	var result []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			result = append(result, line)
		}
	}
	return result
}
