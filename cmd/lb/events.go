package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:     "events <device-id>",
	Short:   "Show a device's emergency event log, newest first",
	GroupID: "emergency",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		events, err := hubClient.ListEvents(context.Background(), args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(events)
			return nil
		}
		if len(events) == 0 {
			fmt.Println("no events")
			return nil
		}
		printEventTable(events)
		return nil
	},
}
