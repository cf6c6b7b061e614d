package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/soundstage/internal/playback"
	"github.com/jmylchreest/soundstage/internal/synth"
)

var effectCmd = &cobra.Command{
	Use:   "effect NAME",
	Short: "Play a synthesized feedback effect",
	Long: fmt.Sprintf(`Play a short synthesized feedback tone.

Available effects: %s

Effects never fail: when audio is unavailable the command exits quietly.

Examples:
  soundstage effect success
  soundstage -d effect click`, effectNames()),
	Args:      cobra.ExactArgs(1),
	ValidArgs: effectNameList(),
	RunE:      runEffect,
}

var chimeCmd = &cobra.Command{
	Use:   "chime",
	Short: "Play the celebration chime",
	Long: `Play the ascending celebration chime (C5, E5, G5, C6).

Example:
  soundstage chime`,
	Args: cobra.NoArgs,
	RunE: runChime,
}

var clipCmd = &cobra.Command{
	Use:   "clip [PATH]",
	Short: "Play a one-shot sound clip",
	Long: `Play a one-shot sound file over any background track.

Without PATH the configured reward clip (clips.reward) is played. Clips are
decoded once and cached; a cached clip is reloaded when its file changes.

Examples:
  soundstage clip
  soundstage clip ~/sounds/fanfare.wav`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClip,
}

func init() {
	rootCmd.AddCommand(effectCmd)
	rootCmd.AddCommand(chimeCmd)
	rootCmd.AddCommand(clipCmd)
}

func effectNameList() []string {
	effects := synth.Effects()
	names := make([]string, len(effects))
	for i, e := range effects {
		names[i] = string(e)
	}
	return names
}

func effectNames() string {
	return strings.Join(effectNameList(), ", ")
}

func runEffect(cmd *cobra.Command, args []string) error {
	e, err := synth.ParseEffect(args[0])
	if err != nil {
		return err
	}

	if globalOpts.daemon {
		client, err := connectDaemon()
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		return client.PlayEffect(e)
	}

	ctx, cancel := signalContext()
	defer cancel()

	svc, err := startLocalService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	svc.PlayEffect(e)
	drain(ctx, svc.EffectDuration(e))
	return nil
}

func runChime(cmd *cobra.Command, args []string) error {
	if globalOpts.daemon {
		client, err := connectDaemon()
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		return client.PlayEffectSequence()
	}

	ctx, cancel := signalContext()
	defer cancel()

	svc, err := startLocalService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	svc.PlayEffectSequence()
	drain(ctx, svc.SequenceDuration())
	return nil
}

func runClip(cmd *cobra.Command, args []string) error {
	var path string
	if len(args) > 0 {
		path = args[0]
	}

	if globalOpts.daemon {
		client, err := connectDaemon()
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		return client.PlayClip(path)
	}

	ctx, cancel := signalContext()
	defer cancel()

	svc, err := startLocalService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	// Running the command is the user's gesture
	svc.Interact(playback.GestureKey)
	if err := svc.PlayClip(path); err != nil {
		return err
	}
	drain(ctx, svc.ClipDuration(path))
	return nil
}
