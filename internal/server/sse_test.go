package server

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/groblegark/lifeband/internal/store"
)

func TestMatchTopicPattern(t *testing.T) {
	for _, tc := range []struct {
		pattern string
		topic   string
		want    bool
	}{
		{"lifeband.default.device.updated", "lifeband.default.device.updated", true},
		{"lifeband.default.device.*", "lifeband.default.device.updated", true},
		{"lifeband.default.device.*", "lifeband.default.event.appended", false},
		{"lifeband.default.>", "lifeband.default.device.updated", true},
		{"lifeband.default.>", "lifeband.other.device.updated", false},
		{"lifeband.>", "lifeband.default.event.appended", true},
		{"lifeband.*.device.updated", "lifeband.acme.device.updated", true},
		{"lifeband.default.device.updated", "lifeband.default.device", false},
		{">", "lifeband.default.device.updated", true},
	} {
		if got := matchTopicPattern(tc.pattern, tc.topic); got != tc.want {
			t.Errorf("matchTopicPattern(%q, %q) = %v, want %v", tc.pattern, tc.topic, got, tc.want)
		}
	}
}

func TestSSEHub_BroadcastAndFilter(t *testing.T) {
	h := newSSEHub()

	all := h.subscribe(nil)
	defer h.unsubscribe(all)
	devOnly := h.subscribe([]string{"lifeband.default.device.*"})
	defer h.unsubscribe(devOnly)

	h.broadcast("lifeband.default.device.updated", []byte(`{"a":1}`))
	h.broadcast("lifeband.default.event.appended", []byte(`{"b":2}`))

	if got := len(all.ch); got != 2 {
		t.Errorf("unfiltered client got %d events, want 2", got)
	}
	if got := len(devOnly.ch); got != 1 {
		t.Errorf("filtered client got %d events, want 1", got)
	}
	evt := <-devOnly.ch
	if evt.Topic != "lifeband.default.device.updated" {
		t.Errorf("filtered client got topic %s", evt.Topic)
	}
}

func TestSSEHub_EventsSince(t *testing.T) {
	h := newSSEHub()

	h.broadcast("t.a", []byte("1"))
	h.broadcast("t.b", []byte("2"))
	h.broadcast("t.c", []byte("3"))

	replay := h.eventsSince(1)
	if len(replay) != 2 {
		t.Fatalf("eventsSince(1) returned %d events, want 2", len(replay))
	}
	if replay[0].Topic != "t.b" || replay[1].Topic != "t.c" {
		t.Errorf("replay order = %s, %s", replay[0].Topic, replay[1].Topic)
	}

	if got := h.eventsSince(3); len(got) != 0 {
		t.Errorf("eventsSince(latest) returned %d events, want 0", len(got))
	}
}

func TestSSEHub_SlowClientDoesNotBlockBroadcast(t *testing.T) {
	h := newSSEHub()
	c := h.subscribe(nil)
	defer h.unsubscribe(c)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			h.broadcast("t.x", []byte("payload"))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}
}

func TestEventStream_DeliversTransitions(t *testing.T) {
	srv := NewDeviceServer(store.NewMemoryStore(), nil, "default")
	ts := httptest.NewServer(srv.NewHTTPHandler(""))
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/events/stream?topics=lifeband.default.device.*", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("opening stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	// Trigger a device write after the stream is open.
	go func() {
		time.Sleep(50 * time.Millisecond)
		pr := doJSON(t, http.MethodPut, ts.URL+"/v1/devices/dv-1", nil)
		pr.Body.Close()
	}()

	type frame struct{ event, data string }
	frames := make(chan frame, 1)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		var f frame
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event:"):
				f.event = strings.TrimPrefix(line, "event:")
			case strings.HasPrefix(line, "data:"):
				f.data = strings.TrimPrefix(line, "data:")
			case line == "" && f.event != "":
				frames <- f
				return
			}
		}
	}()

	select {
	case f := <-frames:
		if f.event != "lifeband.default.device.updated" {
			t.Errorf("event = %q", f.event)
		}
		if !strings.Contains(f.data, `"dv-1"`) {
			t.Errorf("data = %q, want device dv-1", f.data)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for SSE frame")
	}
}
