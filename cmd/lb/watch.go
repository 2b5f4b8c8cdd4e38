package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/groblegark/lifeband/internal/events"
	"github.com/groblegark/lifeband/internal/model"
)

var watchCmd = &cobra.Command{
	Use:     "watch <device-id>",
	Short:   "Follow a device's event log as it grows",
	GroupID: "emergency",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deviceID := args[0]
		tenant, _ := cmd.Flags().GetString("tenant")
		interval, _ := cmd.Flags().GetDuration("interval")
		once, _ := cmd.Flags().GetBool("once")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		seen := make(map[string]int64)

		if err := queryAndPrint(ctx, deviceID, seen); err != nil {
			return err
		}
		if once {
			return nil
		}

		// Event-driven when a NATS URL is known, polling otherwise.
		natsURL := os.Getenv("LIFEBAND_NATS_URL")
		if natsURL == "" {
			natsURL = activeRemoteNATSURL()
		}
		if natsURL != "" {
			return watchNATS(ctx, natsURL, tenant, deviceID, seen)
		}
		return watchPoll(ctx, interval, deviceID, seen)
	},
}

// watchNATS subscribes to the event bus and re-queries on changes with debounce.
func watchNATS(ctx context.Context, natsURL, tenant, deviceID string, seen map[string]int64) error {
	// reconnectCh receives a signal when the NATS client reconnects after
	// a disconnect, so we can immediately re-query for missed events.
	reconnectCh := make(chan struct{}, 1)

	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats: disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Printf("nats: reconnected")
			select {
			case reconnectCh <- struct{}{}:
			default:
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe(events.Topic(tenant, events.TopicEventAppended))
	if err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}
	defer cancel()

	debounce := time.NewTimer(0)
	debounce.Stop()
	// Drain the timer channel in case it fired between NewTimer and Stop.
	select {
	case <-debounce.C:
	default:
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			debounce.Reset(200 * time.Millisecond)
		case <-reconnectCh:
			debounce.Reset(0) // immediate re-query
		case <-debounce.C:
			if err := queryAndPrint(ctx, deviceID, seen); err != nil {
				return err
			}
		}
	}
}

// watchPoll polls for changes at the given interval.
func watchPoll(ctx context.Context, interval time.Duration, deviceID string, seen map[string]int64) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
		if err := queryAndPrint(ctx, deviceID, seen); err != nil {
			return err
		}
	}
}

// queryAndPrint lists events, diffs against the seen map, and prints any
// new entries.
func queryAndPrint(ctx context.Context, deviceID string, seen map[string]int64) error {
	evts, err := hubClient.ListEvents(ctx, deviceID)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	changed := diffEvents(evts, seen)
	if len(changed) > 0 {
		if jsonOutput {
			printJSON(changed)
		} else {
			printEventTable(changed)
		}
	}
	return nil
}

// diffEvents returns events not present in the seen map and records them.
// Events are immutable, so identity is enough.
func diffEvents(evts []*model.Event, seen map[string]int64) []*model.Event {
	var changed []*model.Event
	for _, e := range evts {
		if _, ok := seen[e.ID]; !ok {
			changed = append(changed, e)
		}
		seen[e.ID] = e.Seq
	}
	return changed
}

func init() {
	watchCmd.Flags().String("tenant", "default", "hub tenant namespace")
	watchCmd.Flags().Duration("interval", 5*time.Second, "polling interval")
	watchCmd.Flags().Bool("once", false, "exit after first query")
}
