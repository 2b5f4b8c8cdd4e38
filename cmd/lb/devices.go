package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/groblegark/lifeband/internal/model"
)

var pairCmd = &cobra.Command{
	Use:     "pair <device-id>",
	Short:   "Pair a device, creating it in SAFE with baseline vitals",
	GroupID: "device",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wearer, _ := cmd.Flags().GetString("wearer")

		device, err := hubClient.PairDevice(context.Background(), args[0], wearer)
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(device)
			return nil
		}
		fmt.Printf("paired %s\n", device.ID)
		printDevice(device)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:     "status <device-id>",
	Short:   "Show a device's current state and vitals",
	GroupID: "device",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		device, err := hubClient.GetDevice(context.Background(), args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(device)
			return nil
		}
		printDevice(device)
		return nil
	},
}

var vitalsCmd = &cobra.Command{
	Use:     "vitals <device-id>",
	Short:   "Report a vitals reading for a device",
	GroupID: "device",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		heartRate, _ := cmd.Flags().GetInt("heart-rate")
		spo2, _ := cmd.Flags().GetInt("spo2")
		battery, _ := cmd.Flags().GetInt("battery")

		device, err := hubClient.UpdateVitals(context.Background(), args[0], model.Vitals{
			HeartRate: heartRate,
			SpO2:      spo2,
			Battery:   battery,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(device)
			return nil
		}
		printDevice(device)
		return nil
	},
}

func init() {
	pairCmd.Flags().String("wearer", "", "opaque reference to the wearer")

	vitalsCmd.Flags().Int("heart-rate", 72, "heart rate in bpm")
	vitalsCmd.Flags().Int("spo2", 98, "blood oxygen percentage")
	vitalsCmd.Flags().Int("battery", 100, "battery percentage")
}
