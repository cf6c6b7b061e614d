package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/soundstage/internal/dbus"
)

var watchOpts struct {
	json bool
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow sound state changes in soundstaged",
	Long: `Print every StateChanged signal emitted by soundstaged until interrupted.

Each line shows the time, sound key, new state and mount ID. The daemon does
not need to be running yet; events appear once it starts.

Examples:
  soundstage watch
  soundstage watch --json | jq .state`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&watchOpts.json, "json", false,
		"Output one JSON object per event")
}

type watchEvent struct {
	Time  time.Time `json:"time"`
	ID    string    `json:"id"`
	Key   string    `json:"key"`
	State string    `json:"state"`
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	encoder := json.NewEncoder(os.Stdout)
	monitor := dbus.NewMonitor(logger)
	monitor.SetStateHandler(func(ev dbus.StateEvent) {
		now := time.Now()
		if watchOpts.json {
			if err := encoder.Encode(watchEvent{Time: now, ID: ev.ID, Key: ev.Key, State: ev.State}); err != nil {
				logger.Warn("failed to encode event", "error", err)
			}
			return
		}
		fmt.Printf("%s  %-24s %-10s %s\n", now.Format(time.TimeOnly), ev.Key, ev.State, ev.ID)
	})

	return monitor.Run(ctx)
}
