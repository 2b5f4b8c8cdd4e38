// Package simulator drives a device the way a real wearable would: it
// reports a random walk of vitals on a fixed cadence and can inject
// hardware-origin signals (fall sensor trip, SOS button press). It exists
// for demos and load checks against a running hub.
package simulator

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/groblegark/lifeband/internal/client"
	"github.com/groblegark/lifeband/internal/model"
)

// defaultReportInterval is the cadence of vitals reports.
const defaultReportInterval = 3 * time.Second

// batteryDrainEvery is how many reports pass between battery decrements.
const batteryDrainEvery = 20

// Config configures a simulated device.
type Config struct {
	Client   client.DeviceClient
	DeviceID string

	// WearerRef is passed through on pairing. Optional.
	WearerRef string

	// ReportInterval is the vitals cadence. Zero uses the default.
	ReportInterval time.Duration

	// FallChance is the per-report probability of a spontaneous fall
	// signal, in the range [0,1). Zero disables spontaneous falls.
	FallChance float64

	// Seed fixes the random walk for reproducible runs. Zero seeds from
	// the clock.
	Seed int64

	Logger *slog.Logger
}

// Simulator is one simulated wearable.
type Simulator struct {
	cfg    Config
	logger *slog.Logger
	rng    *rand.Rand

	vitals  model.Vitals
	reports int
}

// New creates a simulator. Call Run to start reporting.
func New(cfg Config) *Simulator {
	if cfg.ReportInterval <= 0 {
		cfg.ReportInterval = defaultReportInterval
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulator{
		cfg:    cfg,
		logger: logger,
		rng:    rand.New(rand.NewSource(seed)),
		vitals: model.DefaultVitals(),
	}
}

// Run pairs the device and reports vitals until the context is cancelled.
func (s *Simulator) Run(ctx context.Context) error {
	if _, err := s.cfg.Client.PairDevice(ctx, s.cfg.DeviceID, s.cfg.WearerRef); err != nil {
		return err
	}
	s.logger.Info("simulated device paired", "device_id", s.cfg.DeviceID)

	ticker := time.NewTicker(s.cfg.ReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Report(ctx); err != nil {
				s.logger.Warn("vitals report failed", "device_id", s.cfg.DeviceID, "error", err)
				continue
			}
			if s.cfg.FallChance > 0 && s.rng.Float64() < s.cfg.FallChance {
				if err := s.TriggerFall(ctx); err != nil {
					s.logger.Warn("fall signal failed", "device_id", s.cfg.DeviceID, "error", err)
				}
			}
		}
	}
}

// Report sends one step of the vitals random walk to the hub.
func (s *Simulator) Report(ctx context.Context) error {
	s.step()
	_, err := s.cfg.Client.UpdateVitals(ctx, s.cfg.DeviceID, s.vitals)
	return err
}

// TriggerFall injects a fall-sensor signal. The hub moves the device to
// FALL unless an SOS or AMBULANCE emergency is already active.
func (s *Simulator) TriggerFall(ctx context.Context) error {
	s.logger.Info("fall sensor tripped", "device_id", s.cfg.DeviceID)
	_, err := s.cfg.Client.Transition(ctx, &client.TransitionRequest{
		DeviceID: s.cfg.DeviceID,
		Action:   "fall-signal",
		Role:     string(model.RoleDevice),
		Actor:    s.cfg.DeviceID,
	})
	return err
}

// TriggerSOS injects an SOS button press.
func (s *Simulator) TriggerSOS(ctx context.Context) error {
	s.logger.Info("sos button pressed", "device_id", s.cfg.DeviceID)
	_, err := s.cfg.Client.Transition(ctx, &client.TransitionRequest{
		DeviceID: s.cfg.DeviceID,
		Action:   "sos-press",
		Role:     string(model.RoleDevice),
		Actor:    s.cfg.DeviceID,
	})
	return err
}

// Vitals returns the walk's current reading.
func (s *Simulator) Vitals() model.Vitals {
	return s.vitals
}

// step advances the random walk one report. Heart rate drifts around the
// resting baseline, SpO2 stays in the high 90s, battery drains slowly.
func (s *Simulator) step() {
	s.reports++

	s.vitals.HeartRate += s.rng.Intn(7) - 3
	s.vitals.HeartRate = clamp(s.vitals.HeartRate, 45, 160)

	s.vitals.SpO2 += s.rng.Intn(3) - 1
	s.vitals.SpO2 = clamp(s.vitals.SpO2, 90, 100)

	if s.reports%batteryDrainEvery == 0 && s.vitals.Battery > 0 {
		s.vitals.Battery--
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
