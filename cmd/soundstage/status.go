package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/soundstage/internal/adapter/output"
	"github.com/jmylchreest/soundstage/internal/playback"
)

var statusOpts struct {
	format   string
	field    string
	template string
	waybar   bool
}

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text       string `json:"text"`
	Alt        string `json:"alt,omitempty"`
	Tooltip    string `json:"tooltip,omitempty"`
	Class      string `json:"class,omitempty"`
	Percentage int    `json:"percentage,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status [index|id]",
	Short: "Show the sounds mounted in soundstaged",
	Long: `Show the sounds mounted in a running soundstaged.

Without arguments every mounted sound is listed. With an index (1-based) or
mount ID, only that sound is shown.

Examples:
  # List sounds
  soundstage status

  # Machine-readable output
  soundstage status --format json

  # State of the first sound
  soundstage status 1 --field state

  # Custom template
  soundstage status --template '{{.Sound.Key}} {{percent .Sound.Volume}}'

With --waybar the output is a Waybar custom module:

  "custom/soundstage": {
    "exec": "soundstage status --waybar",
    "interval": 2,
    "return-type": "json",
    "on-click": "soundstage interact"
  }`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusOpts.format, "format", "f", "plain",
		"Output format (plain, json, yaml, dmenu, ids)")
	statusCmd.Flags().StringVar(&statusOpts.field, "field", "",
		"Output a single field (id, key, source, state, volume, loop, active)")
	statusCmd.Flags().StringVar(&statusOpts.template, "template", "",
		"Custom Go template for output formatting")
	statusCmd.Flags().BoolVar(&statusOpts.waybar, "waybar", false,
		"Output Waybar-compatible JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := connectDaemon()
	if err != nil {
		if statusOpts.waybar {
			return outputWaybar(WaybarStatus{Alt: "offline", Class: "offline", Tooltip: "soundstaged is not running"})
		}
		return err
	}
	defer func() { _ = client.Close() }()

	sounds, err := client.Status()
	if err != nil {
		if statusOpts.waybar {
			return outputWaybar(WaybarStatus{Alt: "error", Class: "error"})
		}
		return err
	}

	if statusOpts.waybar {
		return outputWaybar(generateWaybarStatus(sounds))
	}

	if len(args) > 0 {
		sound, err := lookupSound(sounds, args[0])
		if err != nil {
			return err
		}
		if statusOpts.field != "" {
			fmt.Println(output.FormatField(sound, statusOpts.field))
			return nil
		}
		sounds = []playback.HandleInfo{sound}
	} else if statusOpts.field != "" {
		for _, s := range sounds {
			fmt.Println(output.FormatField(s, statusOpts.field))
		}
		return nil
	}

	format, err := output.ParseFormat(statusOpts.format)
	if err != nil {
		return err
	}
	opts := output.DefaultFormatterOptions()
	opts.Template = statusOpts.template

	return output.NewFormatter(format, opts).Format(os.Stdout, sounds)
}

// lookupSound finds a sound by 1-based index or mount ID.
func lookupSound(sounds []playback.HandleInfo, arg string) (playback.HandleInfo, error) {
	if idx, err := strconv.Atoi(arg); err == nil {
		if idx < 1 || idx > len(sounds) {
			return playback.HandleInfo{}, fmt.Errorf("index %d out of range (1-%d)", idx, len(sounds))
		}
		return sounds[idx-1], nil
	}
	for _, s := range sounds {
		if s.ID == arg {
			return s, nil
		}
	}
	return playback.HandleInfo{}, errors.New("no sound with ID " + arg)
}

// generateWaybarStatus summarizes the daemon state for Waybar.
func generateWaybarStatus(sounds []playback.HandleInfo) WaybarStatus {
	if len(sounds) == 0 {
		return WaybarStatus{Alt: "empty", Class: "empty", Tooltip: "No sounds mounted"}
	}

	var active *playback.HandleInfo
	suspended := 0
	for i := range sounds {
		if sounds[i].Active {
			active = &sounds[i]
		}
		if sounds[i].State == playback.StateSuspended {
			suspended++
		}
	}

	tooltip := buildSoundsTooltip(sounds)

	switch {
	case active != nil:
		return WaybarStatus{
			Text:       active.Key,
			Alt:        "playing",
			Tooltip:    tooltip,
			Class:      "playing",
			Percentage: int(active.Volume*100 + 0.5),
		}
	case suspended > 0:
		// Held by the autoplay policy until the next gesture
		return WaybarStatus{
			Text:    strconv.Itoa(suspended),
			Alt:     "suspended",
			Tooltip: tooltip,
			Class:   "suspended",
		}
	default:
		return WaybarStatus{Alt: "idle", Tooltip: tooltip, Class: "idle"}
	}
}

// buildSoundsTooltip creates a tooltip with one line per sound.
func buildSoundsTooltip(sounds []playback.HandleInfo) string {
	lines := make([]string, 0, len(sounds)+1)
	lines = append(lines, fmt.Sprintf("%d mounted", len(sounds)))
	for _, s := range sounds {
		lines = append(lines, fmt.Sprintf("%s: %s", s.Key, s.State))
	}
	return strings.Join(lines, "\n")
}

// outputWaybar writes the status as JSON.
func outputWaybar(status WaybarStatus) error {
	encoder := json.NewEncoder(os.Stdout)
	return encoder.Encode(status)
}
