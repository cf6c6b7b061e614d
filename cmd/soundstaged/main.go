// Package main is the entry point for the soundstaged sound daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmylchreest/soundstage/internal/config"
	"github.com/jmylchreest/soundstage/internal/daemon"
	"github.com/jmylchreest/soundstage/internal/dbus"
	"github.com/jmylchreest/soundstage/internal/playback"
)

var (
	// Build-time variables
	version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: ~/.config/soundstage/config.toml)")
	quiet := flag.Bool("quiet", false, "Do not play feedback tones for startup and config reloads")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("soundstaged version", version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := run(logger, *configPath, *quiet); err != nil {
		logger.Error("soundstaged failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, configPath string, quiet bool) error {
	logger.Info("starting soundstaged", "version", version)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc := daemon.NewService(cfg, daemon.Options{Logger: logger})
	defer svc.Close()

	server := dbus.NewServer(svc, logger)

	// Runs under a controller lock; emitting only writes to the bus
	svc.SetStateChangeHandler(func(info playback.HandleInfo) {
		if err := server.EmitStateChanged(info); err != nil {
			logger.Debug("failed to emit state change", "id", info.ID, "error", err)
		}
	})

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start sound service: %w", err)
	}

	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start D-Bus server: %w", err)
	}
	defer func() {
		if err := server.Stop(); err != nil {
			logger.Warn("error stopping D-Bus server", "error", err)
		}
	}()

	announcer := daemon.NewAnnouncer(svc.PlayEffect, logger)
	announcer.SetEnabled(!quiet)

	// Initialize config watcher for hot-reload
	configWatcher, err := daemon.NewConfigWatcher(configPath, logger)
	if err != nil {
		logger.Warn("failed to create config watcher", "error", err)
	} else {
		configWatcher.SetReloadCallback(func(newConfig *config.Config) {
			svc.UpdateConfig(newConfig)
			announcer.ConfigReloaded()
		})
		configWatcher.SetErrorCallback(func(err error) {
			logger.Warn("config reload failed", "error", err)
			announcer.ConfigError(err)
		})
		if err := configWatcher.Start(cfg); err != nil {
			logger.Warn("failed to start config watcher", "error", err)
		}
		defer func() {
			if err := configWatcher.Stop(); err != nil {
				logger.Warn("error stopping config watcher", "error", err)
			}
		}()
	}

	announcer.Ready()
	logger.Info("soundstaged ready", "bus_name", dbus.BusName, "scenes", len(cfg.Scenes))

	<-ctx.Done()
	logger.Info("received signal, shutting down")
	return nil
}
