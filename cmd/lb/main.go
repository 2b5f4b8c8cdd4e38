package main

import (
	"os"
	"os/user"

	"github.com/spf13/cobra"

	"github.com/groblegark/lifeband/internal/client"
	"github.com/groblegark/lifeband/internal/ui"
)

var (
	hubURL     string
	authToken  string
	jsonOutput bool
	actor      string
	role       string

	hubClient client.DeviceClient
)

func defaultActor() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "unknown"
}

func defaultHubURL() string {
	if s := os.Getenv("LIFEBAND_URL"); s != "" {
		return s
	}
	if u := activeRemoteURL(); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func defaultToken() string {
	if s := os.Getenv("LIFEBAND_TOKEN"); s != "" {
		return s
	}
	return activeRemoteToken()
}

var rootCmd = &cobra.Command{
	Use:          "lb <command>",
	Short:        "CLI client for the Lifeband hub",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewHTTPClient(hubURL, authToken)
		c.SetIdentity(actor, role)
		hubClient = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if hubClient != nil {
			hubClient.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&hubURL, "url", defaultHubURL(), "hub server URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", defaultToken(), "bearer token for authentication")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", defaultActor(), "actor identity for transitions and presence")
	rootCmd.PersistentFlags().StringVar(&role, "role", "caregiver", "actor role (elderly, caregiver, device)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "device", Title: "Devices:"},
		&cobra.Group{ID: "emergency", Title: "Emergencies:"},
		&cobra.Group{ID: "roster", Title: "Roster:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false

	if !ui.ShouldUseColor() {
		ui.ForceNoColor()
	}

	// Devices
	rootCmd.AddCommand(pairCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(vitalsCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(simulateCmd)

	// Emergencies
	rootCmd.AddCommand(sosCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(ambulanceCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(watchCmd)

	// Roster
	rootCmd.AddCommand(caregiverCmd)
	rootCmd.AddCommand(watchersCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
