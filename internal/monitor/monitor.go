// Package monitor runs the client-side view of one device: it follows the
// hub's push stream, keeps the latest device state, and owns the local
// FALL-to-SOS escalation countdown.
//
// Every monitoring client runs its own countdown from the moment it observes
// FALL; nothing about the countdown is shared or persisted. When the
// countdown expires the session fires the escalate transition itself. A
// status change observed from outside (the wearer cancelled, another
// watcher's countdown won the race) cancels the local countdown silently.
package monitor

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/groblegark/lifeband/internal/client"
	"github.com/groblegark/lifeband/internal/escalate"
	"github.com/groblegark/lifeband/internal/events"
	"github.com/groblegark/lifeband/internal/model"
)

// defaultPollInterval is the fallback refresh cadence when the push stream
// is down.
const defaultPollInterval = 5 * time.Second

// Update is delivered to the session callback on every observed change.
type Update struct {
	Device    *model.Device
	Countdown int  // ticks remaining, -1 when no countdown is running
	Escalated bool // true when this session's countdown fired
}

// Config configures a monitoring session.
type Config struct {
	Client   client.DeviceClient
	DeviceID string
	Tenant   string

	// Role and Actor identify this session on escalate transitions.
	Role  model.ActorRole
	Actor string

	// Countdown parameters. Zero values use the escalate package defaults.
	Ticks    int
	Interval time.Duration

	// PollInterval is the stream-down refresh cadence. Zero uses the default.
	PollInterval time.Duration

	// OnUpdate, when set, receives every state change and countdown tick.
	OnUpdate func(Update)

	Logger *slog.Logger
}

// Session is one running monitor.
type Session struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	current *model.Device
	timer   *escalate.Timer
}

// New creates a session. Call Run to start it.
func New(cfg Config) *Session {
	if cfg.Tenant == "" {
		cfg.Tenant = "default"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{cfg: cfg, logger: logger}
}

// Run follows the device until the context is cancelled. It prefers the push
// stream and falls back to polling while the stream is down; both paths feed
// the same last-writer-wins state handler.
func (s *Session) Run(ctx context.Context) error {
	// Initial fetch so the session never starts blind.
	if device, err := s.cfg.Client.GetDevice(ctx, s.cfg.DeviceID); err == nil {
		s.Observe(ctx, device)
	} else {
		s.logger.Warn("initial device fetch failed", "device_id", s.cfg.DeviceID, "error", err)
	}

	stream, cancel, err := s.cfg.Client.StreamEvents(ctx, client.StreamOptions{
		Topics:   []string{events.Topic(s.cfg.Tenant, "device.*")},
		DeviceID: s.cfg.DeviceID,
	})
	if err != nil {
		s.logger.Warn("event stream unavailable, polling only", "error", err)
	} else {
		defer cancel()
	}

	poll := time.NewTicker(s.cfg.PollInterval)
	defer poll.Stop()
	defer s.stopCountdown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-stream:
			if !ok {
				stream = nil // poll only from here on
				continue
			}
			var payload events.DeviceUpdated
			if err := json.Unmarshal(evt.Data, &payload); err != nil || payload.Device == nil {
				continue
			}
			if payload.Device.ID == s.cfg.DeviceID {
				s.Observe(ctx, payload.Device)
			}
		case <-poll.C:
			device, err := s.cfg.Client.GetDevice(ctx, s.cfg.DeviceID)
			if err != nil {
				s.logger.Warn("poll failed", "device_id", s.cfg.DeviceID, "error", err)
				continue
			}
			s.Observe(ctx, device)
		}
	}
}

// Observe feeds one device state into the session. Stale states (older
// LastUpdate than the current view) are dropped; the hub's clock decides
// who wrote last.
func (s *Session) Observe(ctx context.Context, device *model.Device) {
	s.mu.Lock()
	if s.current != nil && device.LastUpdate.Before(s.current.LastUpdate) {
		s.mu.Unlock()
		return
	}
	s.current = device

	switch {
	case device.Status == model.StatusFall && s.timer == nil:
		s.timer = s.startCountdownLocked(ctx)
	case device.Status != model.StatusFall && s.timer != nil:
		t := s.timer
		s.timer = nil
		s.mu.Unlock()
		t.Cancel()
		s.notify(Update{Device: device, Countdown: -1})
		return
	}
	running := s.timer != nil
	remaining := -1
	if running {
		remaining = s.timer.Remaining()
	}
	s.mu.Unlock()

	s.notify(Update{Device: device, Countdown: remaining})
}

// startCountdownLocked launches the escalation countdown. Called with the
// session lock held.
func (s *Session) startCountdownLocked(ctx context.Context) *escalate.Timer {
	s.logger.Info("fall detected, starting escalation countdown",
		"device_id", s.cfg.DeviceID, "ticks", s.cfg.Ticks)

	return escalate.Start(s.cfg.Ticks, s.cfg.Interval,
		func(remaining int) {
			s.mu.Lock()
			device := s.current
			s.mu.Unlock()
			s.notify(Update{Device: device, Countdown: remaining})
		},
		func() {
			s.escalate(ctx)
		})
}

// escalate fires the FALL-to-SOS transition when the countdown expires.
// Losing the race to another watcher is fine: the hub accepts the duplicate
// as a no-op and still logs it.
func (s *Session) escalate(ctx context.Context) {
	result, err := s.cfg.Client.Transition(ctx, &client.TransitionRequest{
		DeviceID: s.cfg.DeviceID,
		Action:   "escalate",
		Role:     string(s.cfg.Role),
		Actor:    s.cfg.Actor,
	})
	s.mu.Lock()
	s.timer = nil
	s.mu.Unlock()

	if err != nil {
		// A later push or poll restarts the countdown if the device is
		// still in FALL.
		s.logger.Error("escalation transition failed", "device_id", s.cfg.DeviceID, "error", err)
		return
	}

	s.mu.Lock()
	s.current = result.Device
	s.mu.Unlock()

	s.logger.Info("fall escalated to SOS", "device_id", s.cfg.DeviceID, "no_op", result.NoOp)
	s.notify(Update{Device: result.Device, Countdown: -1, Escalated: true})
}

// Current returns the session's latest view of the device.
func (s *Session) Current() *model.Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// CountdownRunning reports whether an escalation countdown is in flight.
func (s *Session) CountdownRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

func (s *Session) stopCountdown() {
	s.mu.Lock()
	t := s.timer
	s.timer = nil
	s.mu.Unlock()
	if t != nil {
		t.Cancel()
	}
}

func (s *Session) notify(u Update) {
	if s.cfg.OnUpdate != nil {
		s.cfg.OnUpdate(u)
	}
}
