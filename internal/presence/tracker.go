// Package presence tracks which clients are currently watching a device.
//
// The Tracker maintains an in-memory map of connected viewers, updated by
// the server whenever a client opens a stream or issues a request with an
// actor identity. A background reaper goroutine drops viewers that go quiet
// past a configurable threshold, so the roster reflects who would actually
// see an alert right now.
package presence

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Entry represents a single viewer's live presence state.
type Entry struct {
	Actor     string    `json:"actor"`
	Role      string    `json:"role"`
	DeviceID  string    `json:"device_id"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
	IdleSecs  float64   `json:"idle_secs"`
	Streaming bool      `json:"streaming"` // true while an SSE stream is open
}

// Heartbeat is the data the server records on every authenticated touch.
type Heartbeat struct {
	Actor    string // client identity, e.g. "wearer" or a caregiver ID
	Role     string // elderly, caregiver or device
	DeviceID string // the device being watched
}

// ReaperConfig configures the background stale-viewer reaper.
type ReaperConfig struct {
	// StaleThreshold is how long a viewer must be idle before removal.
	// Default: 2 minutes.
	StaleThreshold time.Duration

	// SweepInterval is how often the reaper scans for stale viewers.
	// Default: 30 seconds.
	SweepInterval time.Duration

	// OnGone is called for each viewer removed by the reaper.
	// Called outside the lock.
	OnGone func(actor, deviceID string)
}

// Tracker maintains an in-memory roster of connected viewers.
type Tracker struct {
	mu      sync.RWMutex
	viewers map[string]*viewerState // keyed by deviceID + "/" + actor

	reaperStop chan struct{}
	reaperDone chan struct{}
}

type viewerState struct {
	actor     string
	role      string
	deviceID  string
	firstSeen time.Time
	lastSeen  time.Time
	streams   int // open SSE streams
}

// New creates a new presence tracker.
func New() *Tracker {
	return &Tracker{viewers: make(map[string]*viewerState)}
}

func key(deviceID, actor string) string { return deviceID + "/" + actor }

// Touch records activity from a viewer. Called by the server on every
// authenticated request that carries an actor identity.
func (t *Tracker) Touch(hb Heartbeat) {
	if hb.Actor == "" || hb.DeviceID == "" {
		return
	}

	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.viewers[key(hb.DeviceID, hb.Actor)]
	if !ok {
		state = &viewerState{actor: hb.Actor, deviceID: hb.DeviceID, firstSeen: now}
		t.viewers[key(hb.DeviceID, hb.Actor)] = state
	}
	state.lastSeen = now
	if hb.Role != "" {
		state.role = hb.Role
	}
}

// StreamOpened marks the start of an SSE stream for a viewer. The viewer is
// kept on the roster for as long as the stream is open, regardless of idle
// time, because an open stream still receives pushes.
func (t *Tracker) StreamOpened(hb Heartbeat) {
	t.Touch(hb)

	t.mu.Lock()
	defer t.mu.Unlock()
	if state, ok := t.viewers[key(hb.DeviceID, hb.Actor)]; ok {
		state.streams++
	}
}

// StreamClosed marks the end of an SSE stream for a viewer.
func (t *Tracker) StreamClosed(hb Heartbeat) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if state, ok := t.viewers[key(hb.DeviceID, hb.Actor)]; ok {
		if state.streams > 0 {
			state.streams--
		}
		state.lastSeen = time.Now()
	}
}

// Roster returns a snapshot of viewers for a device, sorted by most recently
// active. Pass an empty deviceID for all devices.
func (t *Tracker) Roster(deviceID string) []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	now := time.Now()
	entries := make([]Entry, 0, len(t.viewers))

	for _, state := range t.viewers {
		if deviceID != "" && state.deviceID != deviceID {
			continue
		}
		entries = append(entries, Entry{
			Actor:     state.actor,
			Role:      state.role,
			DeviceID:  state.deviceID,
			FirstSeen: state.firstSeen,
			LastSeen:  state.lastSeen,
			IdleSecs:  now.Sub(state.lastSeen).Seconds(),
			Streaming: state.streams > 0,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastSeen.After(entries[j].LastSeen)
	})

	return entries
}

// StartReaper launches a background goroutine that periodically removes
// stale viewers. Call Stop() to shut it down.
func (t *Tracker) StartReaper(cfg *ReaperConfig) {
	if cfg == nil {
		cfg = &ReaperConfig{}
	}
	if cfg.StaleThreshold == 0 {
		cfg.StaleThreshold = 2 * time.Minute
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = 30 * time.Second
	}

	t.reaperStop = make(chan struct{})
	t.reaperDone = make(chan struct{})

	go t.reapLoop(cfg)
	slog.Info("presence: reaper started",
		"stale_threshold", cfg.StaleThreshold,
		"sweep_interval", cfg.SweepInterval)
}

// Stop shuts down the reaper goroutine.
func (t *Tracker) Stop() {
	if t.reaperStop != nil {
		close(t.reaperStop)
		<-t.reaperDone
		t.reaperStop = nil
		t.reaperDone = nil
	}
}

func (t *Tracker) reapLoop(cfg *ReaperConfig) {
	defer close(t.reaperDone)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.reaperStop:
			return
		case <-ticker.C:
			t.sweep(cfg)
		}
	}
}

func (t *Tracker) sweep(cfg *ReaperConfig) {
	now := time.Now()

	type goneViewer struct {
		actor    string
		deviceID string
	}
	var gone []goneViewer

	t.mu.Lock()
	for k, state := range t.viewers {
		if state.streams > 0 {
			continue
		}
		if now.Sub(state.lastSeen) > cfg.StaleThreshold {
			delete(t.viewers, k)
			gone = append(gone, goneViewer{actor: state.actor, deviceID: state.deviceID})
		}
	}
	t.mu.Unlock()

	for _, g := range gone {
		slog.Info("presence: viewer went stale",
			"actor", g.actor,
			"device_id", g.deviceID,
			"threshold", cfg.StaleThreshold)
		if cfg.OnGone != nil {
			cfg.OnGone(g.actor, g.deviceID)
		}
	}
}
