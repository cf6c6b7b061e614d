// Package main provides the CLI entrypoint for soundstage.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/soundstage/internal/config"
	"github.com/jmylchreest/soundstage/internal/daemon"
	"github.com/jmylchreest/soundstage/internal/dbus"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		configPath string
		daemon     bool
	}
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "soundstage",
	Short: "Scene soundtracks, effects and clips for the terminal",
	Long: `soundstage plays background tracks for application scenes, short
synthesized feedback effects and one-shot reward clips.

Only one background track is audible at a time: entering a scene stops the
previous one. When playback must wait for a user gesture, the track is held
and resumes on the next key press or click.

Commands play in-process by default. With --daemon they are sent to a
running soundstaged over D-Bus instead.

Running soundstage without a subcommand launches the interactive TUI.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()

		var err error
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
	// Default to TUI when no subcommand is provided
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/soundstage/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.daemon, "daemon", "d", false,
		"Send the command to a running soundstaged")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, opts)
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// startLocalService starts an in-process sound service. The caller must
// Close it.
func startLocalService(ctx context.Context) (*daemon.Service, error) {
	svc := daemon.NewService(cfg, daemon.Options{Logger: logger})
	if err := svc.Start(ctx); err != nil {
		svc.Close()
		return nil, err
	}
	return svc, nil
}

// connectDaemon connects to soundstaged on the session bus.
func connectDaemon() (*dbus.Client, error) {
	client, err := dbus.Connect()
	if errors.Is(err, dbus.ErrNotRunning) {
		return nil, fmt.Errorf("%w (start soundstaged or drop --daemon)", err)
	}
	return client, err
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// drain waits for d of audio plus the output buffer, or until ctx is done.
func drain(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d + cfg.Output.Buffer.Duration())
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
