package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/groblegark/lifeband/internal/simulator"
)

var simulateCmd = &cobra.Command{
	Use:     "simulate <device-id>",
	Short:   "Run a simulated wearable against the hub",
	GroupID: "device",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deviceID := args[0]
		wearer, _ := cmd.Flags().GetString("wearer")
		interval, _ := cmd.Flags().GetDuration("interval")
		fallChance, _ := cmd.Flags().GetFloat64("fall-chance")
		fall, _ := cmd.Flags().GetBool("fall")
		sos, _ := cmd.Flags().GetBool("sos")

		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		sim := simulator.New(simulator.Config{
			Client:         hubClient,
			DeviceID:       deviceID,
			WearerRef:      wearer,
			ReportInterval: interval,
			FallChance:     fallChance,
			Logger:         logger,
		})

		// One-shot triggers skip the reporting loop.
		if fall {
			return sim.TriggerFall(context.Background())
		}
		if sos {
			return sim.TriggerSOS(context.Background())
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		fmt.Printf("simulating %s (ctrl-c to stop)\n", deviceID)
		if err := sim.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

func init() {
	simulateCmd.Flags().String("wearer", "", "opaque reference to the wearer")
	simulateCmd.Flags().Duration("interval", 3*time.Second, "vitals report interval")
	simulateCmd.Flags().Float64("fall-chance", 0, "per-report probability of a spontaneous fall")
	simulateCmd.Flags().Bool("fall", false, "trip the fall sensor once and exit")
	simulateCmd.Flags().Bool("sos", false, "press the SOS button once and exit")
}
