package main

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/soundstage/internal/audio"
	"github.com/jmylchreest/soundstage/internal/daemon"
	"github.com/jmylchreest/soundstage/internal/playback"
)

var playOpts struct {
	scene  string
	key    string
	volume float64
	noLoop bool
}

var playCmd = &cobra.Command{
	Use:   "play [SOURCE]",
	Short: "Play a background track",
	Long: `Play a background track from a file or a configured scene.

Only one background track is audible at a time. In-process, play runs in the
foreground until the track ends (or forever when looping) and stops on
Ctrl+C. With --daemon the track is mounted in soundstaged and its mount ID is
printed; use "soundstage unmount ID" to release it.

Examples:
  # Loop a file in the foreground
  soundstage play ~/Music/forest.mp3

  # Play a scene once
  soundstage play --scene home --no-loop

  # Mount in the daemon and remember the ID
  id=$(soundstage -d play --scene home --volume 0.3)`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringVar(&playOpts.scene, "scene", "",
		"Play the track of a configured scene")
	playCmd.Flags().StringVar(&playOpts.key, "key", "",
		"Logical key of the track (default: scene key or source)")
	playCmd.Flags().Float64Var(&playOpts.volume, "volume", 0,
		"Volume 0.0-1.0 (default: scene or playback.volume)")
	playCmd.Flags().BoolVar(&playOpts.noLoop, "no-loop", false,
		"Play once instead of looping")
}

// buildMountConfig resolves the mount configuration from the config file
// and command flags.
func buildMountConfig(cmd *cobra.Command, args []string) (playback.MountConfig, error) {
	p := cfg.Playback
	mc := playback.MountConfig{
		Loop:               p.Loop,
		Volume:             p.Volume,
		Autoplay:           p.Autoplay,
		RetryOnInteraction: p.RetryOnInteraction,
	}

	switch {
	case playOpts.scene != "":
		scene, ok := cfg.Scene(playOpts.scene)
		if !ok {
			return mc, fmt.Errorf("%w: %q", daemon.ErrUnknownScene, playOpts.scene)
		}
		mc.Key = scene.Key
		mc.Source = scene.Source
		if scene.Volume != nil {
			mc.Volume = *scene.Volume
		}
		if scene.Loop != nil {
			mc.Loop = *scene.Loop
		}
	case len(args) > 0:
		mc.Source = args[0]
	default:
		return mc, errors.New("a source file or --scene is required")
	}
	mc.Source = audio.ExpandPath(mc.Source)

	if cmd.Flags().Changed("key") {
		mc.Key = playOpts.key
	}
	if cmd.Flags().Changed("volume") {
		if playOpts.volume < 0 || playOpts.volume > 1 {
			return mc, fmt.Errorf("volume must be between 0 and 1, got %v", playOpts.volume)
		}
		mc.Volume = playOpts.volume
	}
	if playOpts.noLoop {
		mc.Loop = false
	}
	return mc, nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	mc, err := buildMountConfig(cmd, args)
	if err != nil {
		return err
	}

	if globalOpts.daemon {
		client, err := connectDaemon()
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		id, err := client.Mount(mc)
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	}

	ctx, cancel := signalContext()
	defer cancel()

	svc, err := startLocalService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	finished := make(chan playback.HandleInfo, 1)
	svc.SetStateChangeHandler(trackFinished(finished))

	// Running the command is the user's gesture
	svc.Interact(playback.GestureKey)
	c := svc.Mount(mc)
	defer c.Unmount()

	logger.Debug("playing", "key", mc.ResolvedKey(), "source", mc.Source, "loop", mc.Loop)
	return waitForTrack(ctx, finished)
}

// trackFinished returns a state handler that reports the first terminal
// transition on ch. It runs under the controller lock, so it never blocks.
func trackFinished(ch chan<- playback.HandleInfo) func(playback.HandleInfo) {
	var started atomic.Bool
	return func(info playback.HandleInfo) {
		switch info.State {
		case playback.StatePlaying:
			started.Store(true)
			return
		case playback.StateIdle:
			if !started.Load() {
				return
			}
		case playback.StateErrored:
		default:
			return
		}
		select {
		case ch <- info:
		default:
		}
	}
}

func waitForTrack(ctx context.Context, finished <-chan playback.HandleInfo) error {
	select {
	case <-ctx.Done():
		return nil
	case info := <-finished:
		if info.State == playback.StateErrored {
			return fmt.Errorf("failed to play %s", info.Source)
		}
		return nil
	}
}
