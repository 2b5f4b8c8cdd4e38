package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/groblegark/lifeband/internal/model"
	"github.com/groblegark/lifeband/internal/presence"
	"github.com/groblegark/lifeband/internal/ui"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printDevice(d *model.Device) {
	fmt.Printf("Device:      %s\n", d.ID)
	fmt.Printf("Status:      %s\n", ui.RenderStatus(d.Status))
	fmt.Printf("Heart Rate:  %d bpm\n", d.Vitals.HeartRate)
	fmt.Printf("SpO2:        %d%%\n", d.Vitals.SpO2)
	fmt.Printf("Battery:     %d%%\n", d.Vitals.Battery)
	if d.PairedWearerRef != "" {
		fmt.Printf("Wearer:      %s\n", d.PairedWearerRef)
	}
	if !d.LastUpdate.IsZero() {
		fmt.Printf("Updated:     %s\n", d.LastUpdate.Format("2006-01-02 15:04:05"))
	}
}

func printEventTable(events []*model.Event) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tTIME\tDEVICE\tTYPE\tSTATUS\tROLE\tRESOLVED BY")
	for _, e := range events {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Seq,
			e.Timestamp.Format("2006-01-02 15:04:05"),
			e.DeviceID,
			e.Type,
			e.Status,
			e.ActorRole,
			e.ResolvedBy,
		)
	}
	w.Flush()
	fmt.Printf("\n%d events\n", len(events))
}

func printCaregiverTable(roster []*model.Caregiver) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRIORITY\tID\tNAME\tPHONE")
	for _, c := range roster {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", c.Priority, c.ID, c.Name, c.Phone)
	}
	w.Flush()
	fmt.Printf("\n%d caregivers\n", len(roster))
}

func printWatcherTable(watchers []presence.Entry) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ACTOR\tROLE\tIDLE\tSTREAMING")
	for _, e := range watchers {
		fmt.Fprintf(w, "%s\t%s\t%.0fs\t%t\n", e.Actor, e.Role, e.IdleSecs, e.Streaming)
	}
	w.Flush()
	fmt.Printf("\n%d watchers\n", len(watchers))
}

// printTransition reports a committed transition in human form.
func printTransition(result *model.Device, noOp bool) {
	if noOp {
		fmt.Printf("%s already %s\n", result.ID, ui.RenderStatus(result.Status))
		return
	}
	fmt.Printf("%s is now %s\n", result.ID, ui.RenderStatus(result.Status))
}
