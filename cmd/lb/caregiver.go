package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/groblegark/lifeband/internal/model"
)

var caregiverCmd = &cobra.Command{
	Use:     "caregiver",
	Short:   "Manage a device's caregiver roster",
	GroupID: "roster",
}

var caregiverAddCmd = &cobra.Command{
	Use:   "add <device-id> <name>",
	Short: "Add or update a caregiver on a device's roster",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		phone, _ := cmd.Flags().GetString("phone")
		priority, _ := cmd.Flags().GetInt("priority")
		id, _ := cmd.Flags().GetString("id")

		caregiver, err := hubClient.PutCaregiver(context.Background(), &model.Caregiver{
			ID:       id,
			DeviceID: args[0],
			Name:     args[1],
			Phone:    phone,
			Priority: priority,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(caregiver)
			return nil
		}
		fmt.Printf("caregiver %s (%s) added at priority %d\n", caregiver.Name, caregiver.ID, caregiver.Priority)
		return nil
	},
}

var caregiverRemoveCmd = &cobra.Command{
	Use:   "remove <device-id> <caregiver-id>",
	Short: "Remove a caregiver from a device's roster",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := hubClient.RemoveCaregiver(context.Background(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("caregiver %s removed\n", args[1])
		return nil
	},
}

var caregiverListCmd = &cobra.Command{
	Use:   "list <device-id>",
	Short: "List a device's caregivers in priority order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roster, err := hubClient.ListCaregivers(context.Background(), args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(roster)
			return nil
		}
		if len(roster) == 0 {
			fmt.Println("no caregivers")
			return nil
		}
		printCaregiverTable(roster)
		return nil
	},
}

func init() {
	caregiverAddCmd.Flags().String("id", "", "caregiver ID (assigned when empty)")
	caregiverAddCmd.Flags().String("phone", "", "contact phone number")
	caregiverAddCmd.Flags().Int("priority", 1, "notification priority (1 = first)")

	caregiverCmd.AddCommand(caregiverAddCmd)
	caregiverCmd.AddCommand(caregiverRemoveCmd)
	caregiverCmd.AddCommand(caregiverListCmd)
}
