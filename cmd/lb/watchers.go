package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var watchersCmd = &cobra.Command{
	Use:     "watchers <device-id>",
	Short:   "List clients currently watching a device",
	GroupID: "roster",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		watchers, err := hubClient.ListWatchers(context.Background(), args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(watchers)
			return nil
		}
		if len(watchers) == 0 {
			fmt.Println("no watchers")
			return nil
		}
		printWatcherTable(watchers)
		return nil
	},
}
