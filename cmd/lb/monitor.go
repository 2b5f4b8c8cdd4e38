package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/groblegark/lifeband/internal/config"
	"github.com/groblegark/lifeband/internal/escalate"
	"github.com/groblegark/lifeband/internal/model"
	"github.com/groblegark/lifeband/internal/monitor"
	"github.com/groblegark/lifeband/internal/ui"
)

var monitorCmd = &cobra.Command{
	Use:     "monitor <device-id>",
	Short:   "Follow a device live and run the escalation countdown",
	GroupID: "device",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deviceID := args[0]
		tenant, _ := cmd.Flags().GetString("tenant")
		ticks, _ := cmd.Flags().GetInt("ticks")
		interval, _ := cmd.Flags().GetDuration("interval")

		// Environment settings apply unless overridden on the command line.
		if cfg, err := config.Load(); err == nil {
			if !cmd.Flags().Changed("ticks") {
				ticks = cfg.EscalateTicks
			}
			if !cmd.Flags().Changed("interval") {
				interval = cfg.EscalateInterval
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

		session := monitor.New(monitor.Config{
			Client:   hubClient,
			DeviceID: deviceID,
			Tenant:   tenant,
			Role:     model.ActorRole(role),
			Actor:    actor,
			Ticks:    ticks,
			Interval: interval,
			OnUpdate: printMonitorUpdate,
			Logger:   logger,
		})

		fmt.Printf("monitoring %s (ctrl-c to stop)\n", deviceID)
		if err := session.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

func printMonitorUpdate(u monitor.Update) {
	if u.Device == nil {
		return
	}
	ts := time.Now().Format("15:04:05")
	switch {
	case u.Escalated:
		fmt.Printf("[%s] %s  countdown expired, escalated to SOS\n", ts, ui.RenderStatus(u.Device.Status))
	case u.Countdown >= 0:
		fmt.Printf("[%s] %s  escalating in %d\n", ts, ui.RenderStatus(u.Device.Status), u.Countdown)
	default:
		fmt.Printf("[%s] %s  hr=%d spo2=%d battery=%d\n", ts,
			ui.RenderStatus(u.Device.Status),
			u.Device.Vitals.HeartRate, u.Device.Vitals.SpO2, u.Device.Vitals.Battery)
	}
}

func init() {
	monitorCmd.Flags().String("tenant", "default", "hub tenant namespace")
	monitorCmd.Flags().Int("ticks", escalate.DefaultTicks, "escalation countdown length in ticks")
	monitorCmd.Flags().Duration("interval", escalate.DefaultInterval, "length of one countdown tick")
}
