package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/soundstage/internal/playback"
)

var stopOpts struct {
	except string
}

var setOpts struct {
	volume float64
	loop   bool
	play   bool
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop every playing sound in soundstaged",
	Long: `Stop every playing background track in a running soundstaged.

Stopped sounds stay mounted and can be restarted with "soundstage set ID
--play". Sounds waiting for a gesture are not affected.

Examples:
  soundstage stop
  soundstage stop --except home-sound`,
	Args: cobra.NoArgs,
	RunE: runStop,
}

var unmountCmd = &cobra.Command{
	Use:   "unmount ID...",
	Short: "Release sounds mounted in soundstaged",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runUnmount,
}

var setCmd = &cobra.Command{
	Use:   "set index|ID",
	Short: "Change the volume or looping of a mounted sound",
	Long: `Change the volume or looping of a sound mounted in soundstaged.

The sound is addressed by its 1-based index in "soundstage status" or by
its mount ID. Flags that are not given keep their current value.

Examples:
  soundstage set 01J9Z3... --volume 0.2
  soundstage set 1 --loop=false
  soundstage set 1 --play`,
	Args: cobra.ExactArgs(1),
	RunE: runSet,
}

var interactCmd = &cobra.Command{
	Use:   "interact [pointer|touch|key]",
	Short: "Report a user gesture to soundstaged",
	Long: `Report a user gesture to a running soundstaged.

The gesture unlocks the autoplay policy and resumes every track waiting for
an interaction. The number of resumed tracks is printed. The default gesture
is "pointer", which suits a bar module's on-click action.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"pointer", "touch", "key"},
	RunE:      runInteract,
}

func init() {
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(unmountCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(interactCmd)

	stopCmd.Flags().StringVar(&stopOpts.except, "except", "",
		"Key of a sound to leave playing")

	setCmd.Flags().Float64Var(&setOpts.volume, "volume", 0,
		"Volume 0.0-1.0")
	setCmd.Flags().BoolVar(&setOpts.loop, "loop", false,
		"Loop the track")
	setCmd.Flags().BoolVar(&setOpts.play, "play", false,
		"Start the track after applying changes")
}

func runStop(cmd *cobra.Command, args []string) error {
	client, err := connectDaemon()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	return client.StopAll(stopOpts.except)
}

func runUnmount(cmd *cobra.Command, args []string) error {
	client, err := connectDaemon()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	var failed int
	for _, id := range args {
		if err := client.Unmount(id); err != nil {
			logger.Warn("failed to unmount", "id", id, "error", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("failed to unmount %d of %d sounds", failed, len(args))
	}
	return nil
}

func runSet(cmd *cobra.Command, args []string) error {
	if setOpts.volume < 0 || setOpts.volume > 1 {
		return fmt.Errorf("volume must be between 0 and 1, got %v", setOpts.volume)
	}

	client, err := connectDaemon()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	sounds, err := client.Status()
	if err != nil {
		return err
	}
	current, err := lookupSound(sounds, args[0])
	if err != nil {
		return err
	}

	volumeSet := cmd.Flags().Changed("volume")
	loopSet := cmd.Flags().Changed("loop")
	if volumeSet || loopSet {
		volume, loop := current.Volume, current.Loop
		if volumeSet {
			volume = setOpts.volume
		}
		if loopSet {
			loop = setOpts.loop
		}
		if err := client.Update(current.ID, volume, loop); err != nil {
			return err
		}
	}

	if setOpts.play {
		return client.Play(current.ID)
	}
	return nil
}

func runInteract(cmd *cobra.Command, args []string) error {
	g := playback.GesturePointer
	if len(args) > 0 {
		var err error
		g, err = playback.ParseGesture(args[0])
		if err != nil {
			return err
		}
	}

	client, err := connectDaemon()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	fired, err := client.Interact(g)
	if err != nil {
		return err
	}
	fmt.Println(fired)
	return nil
}
