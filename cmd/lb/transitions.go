package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/groblegark/lifeband/internal/client"
)

// runTransition sends one transition and prints the committed outcome.
// defaultRole applies unless --role was set explicitly. Errors are returned
// so cobra reports them and Execute exits nonzero.
func runTransition(cmd *cobra.Command, deviceID, action, defaultRole string) error {
	r := role
	if !cmd.Flags().Changed("role") && !rootCmd.PersistentFlags().Changed("role") {
		r = defaultRole
	}

	result, err := hubClient.Transition(context.Background(), &client.TransitionRequest{
		DeviceID: deviceID,
		Action:   action,
		Role:     r,
		Actor:    actor,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(result)
		return nil
	}
	printTransition(result.Device, result.NoOp)
	if result.Event != nil {
		fmt.Printf("event %s logged (%s)\n", result.Event.ID, result.Event.Type)
	}
	return nil
}

var sosCmd = &cobra.Command{
	Use:     "sos <device-id>",
	Short:   "Trigger a manual SOS for a device",
	GroupID: "emergency",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransition(cmd, args[0], "manual-sos", "elderly")
	},
}

var cancelCmd = &cobra.Command{
	Use:     "cancel <device-id>",
	Short:   "Dismiss a detected fall as a false alarm (wearer only)",
	GroupID: "emergency",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransition(cmd, args[0], "cancel-fall", "elderly")
	},
}

var ambulanceCmd = &cobra.Command{
	Use:     "ambulance <device-id>",
	Short:   "Request an ambulance for an active emergency (caregiver only)",
	GroupID: "emergency",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransition(cmd, args[0], "request-ambulance", "caregiver")
	},
}

var resolveCmd = &cobra.Command{
	Use:     "resolve <device-id>",
	Short:   "Close out an active emergency",
	GroupID: "emergency",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransition(cmd, args[0], "resolve", "caregiver")
	},
}
