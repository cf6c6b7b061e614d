// Package daemon provides the main orchestration for soundstaged.
// It owns the process-wide sound service (registry, gesture signals,
// background tracks, synthesized effects and clips) and the configuration
// hot-reload functionality.
package daemon
