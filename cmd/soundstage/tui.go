package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/soundstage/internal/tui"
)

var tuiOpts struct {
	scene string
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive soundboard",
	Long: `Launch the terminal soundboard.

The TUI lists the configured scenes. Entering a scene mounts its background
track and stops the previous one. Every key press and click counts as a user
gesture, so a track held by the autoplay policy starts on the next input.

Key bindings:
  j/k, ↑/↓    Navigate scenes
  enter       Enter the selected scene
  s           Stop all sounds
  +/-         Adjust the scene volume
  l           Toggle looping
  1-5         Play an effect (click, success, error, celebration, pop)
  c           Play the celebration chime
  r           Play the reward clip
  y           Copy the sound status as YAML
  ?           Show help
  q           Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)

	tuiCmd.Flags().StringVar(&tuiOpts.scene, "scene", "",
		"Scene to enter on startup")
}

func runTUI(cmd *cobra.Command, args []string) error {
	if globalOpts.daemon {
		return fmt.Errorf("the TUI plays in-process and does not support --daemon")
	}

	ctx, cancel := signalContext()
	defer cancel()

	svc, err := startLocalService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	return tui.Run(tui.RunOptions{
		Service: svc,
		Scene:   tuiOpts.scene,
	})
}
