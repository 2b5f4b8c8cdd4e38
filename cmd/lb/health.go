package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check hub server health",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := hubClient.Health(context.Background())
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(map[string]string{"status": status})
			return nil
		}
		fmt.Printf("hub at %s: %s\n", hubURL, status)
		return nil
	},
}
