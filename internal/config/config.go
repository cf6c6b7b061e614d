// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultSettleDelay   = 300 * time.Millisecond
	DefaultVolume        = 0.5
	DefaultSampleRate    = 44100
	DefaultOutputBuffer  = 100 * time.Millisecond
	DefaultEffectsVolume = 1.0
	DefaultSequenceGap   = 100 * time.Millisecond
	DefaultPollInterval  = 2 * time.Second
)

// Config represents the soundstage configuration.
type Config struct {
	Playback PlaybackConfig `toml:"playback"`
	Output   OutputConfig   `toml:"output"`
	Effects  EffectsConfig  `toml:"effects"`
	Clips    ClipsConfig    `toml:"clips"`
	Scenes   []SceneConfig  `toml:"scenes"`
}

// PlaybackConfig holds the defaults applied to background track mounts.
type PlaybackConfig struct {
	SettleDelay        Duration `toml:"settle_delay"`         // Pause before an autoplay attempt
	Volume             float64  `toml:"volume"`               // 0.0-1.0
	Loop               bool     `toml:"loop"`                 // Loop background tracks
	Autoplay           bool     `toml:"autoplay"`             // Start without a deliberate play
	RetryOnInteraction bool     `toml:"retry_on_interaction"` // Retry after a user gesture
	RequireGesture     bool     `toml:"require_gesture"`      // Refuse audio until the first gesture
}

// OutputConfig holds speaker settings.
type OutputConfig struct {
	SampleRate int      `toml:"sample_rate"`
	Buffer     Duration `toml:"buffer"`
}

// EffectsConfig holds synthesized effect settings.
type EffectsConfig struct {
	Enabled     bool     `toml:"enabled"`
	Volume      float64  `toml:"volume"`       // Multiplier on the built-in tone gain
	SequenceGap Duration `toml:"sequence_gap"` // Offset between chime notes
}

// ClipsConfig holds one-shot clip settings.
type ClipsConfig struct {
	Reward       string   `toml:"reward"`
	Volume       float64  `toml:"volume"`
	Watch        bool     `toml:"watch"` // Invalidate cached clips when files change
	PollInterval Duration `toml:"poll_interval"`
}

// SceneConfig maps a screen of the application to its background track.
type SceneConfig struct {
	Name   string   `toml:"name"`
	Key    string   `toml:"key,omitempty"`    // Defaults to the source
	Source string   `toml:"source"`           // Audio file path
	Volume *float64 `toml:"volume,omitempty"` // Defaults to playback.volume
	Loop   *bool    `toml:"loop,omitempty"`   // Defaults to playback.loop
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	sounds := SoundsPath()

	return &Config{
		Playback: PlaybackConfig{
			SettleDelay:        Duration(DefaultSettleDelay),
			Volume:             DefaultVolume,
			Loop:               true,
			Autoplay:           true,
			RetryOnInteraction: true,
			RequireGesture:     true,
		},
		Output: OutputConfig{
			SampleRate: DefaultSampleRate,
			Buffer:     Duration(DefaultOutputBuffer),
		},
		Effects: EffectsConfig{
			Enabled:     true,
			Volume:      DefaultEffectsVolume,
			SequenceGap: Duration(DefaultSequenceGap),
		},
		Clips: ClipsConfig{
			Reward:       filepath.Join(sounds, "reward.mp3"),
			Volume:       0.6,
			Watch:        true,
			PollInterval: Duration(DefaultPollInterval),
		},
		Scenes: []SceneConfig{
			{Name: "splash", Key: "splash-sound", Source: filepath.Join(sounds, "opening.mp3")},
			{Name: "home", Key: "home-sound", Source: filepath.Join(sounds, "opening.mp3")},
			{Name: "forest", Key: "forest-sound", Source: filepath.Join(sounds, "forest.mp3")},
			{Name: "park", Key: "park-sound", Source: filepath.Join(sounds, "park.mp3")},
			{Name: "beach", Key: "beach-sound", Source: filepath.Join(sounds, "beach.mp3")},
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "soundstage", "config.toml")
}

// DataPath returns the path to the data directory.
// Uses XDG_DATA_HOME if set, otherwise ~/.local/share.
func DataPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "soundstage")
}

// SoundsPath returns the directory holding the bundled sound files.
func SoundsPath() string {
	return filepath.Join(DataPath(), "sounds")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	// A file that declares scenes replaces the built-in list entirely
	cfg.Scenes = nil
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.Scenes == nil {
		cfg.Scenes = DefaultConfig().Scenes
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks value ranges and scene consistency.
func (c *Config) Validate() error {
	if !validVolume(c.Playback.Volume) {
		return fmt.Errorf("playback.volume must be between 0 and 1, got %v", c.Playback.Volume)
	}
	if c.Playback.SettleDelay < 0 {
		return errors.New("playback.settle_delay cannot be negative")
	}
	if c.Output.SampleRate <= 0 {
		return fmt.Errorf("output.sample_rate must be positive, got %d", c.Output.SampleRate)
	}
	if !validVolume(c.Effects.Volume) {
		return fmt.Errorf("effects.volume must be between 0 and 1, got %v", c.Effects.Volume)
	}
	if !validVolume(c.Clips.Volume) {
		return fmt.Errorf("clips.volume must be between 0 and 1, got %v", c.Clips.Volume)
	}

	seen := make(map[string]bool, len(c.Scenes))
	for i, s := range c.Scenes {
		if s.Name == "" {
			return fmt.Errorf("scene %d: name cannot be empty", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("scene %q: duplicate name", s.Name)
		}
		seen[s.Name] = true
		if s.Source == "" {
			return fmt.Errorf("scene %q: source cannot be empty", s.Name)
		}
		if s.Volume != nil && !validVolume(*s.Volume) {
			return fmt.Errorf("scene %q: volume must be between 0 and 1, got %v", s.Name, *s.Volume)
		}
	}
	return nil
}

// validVolume rejects NaN, which compares false against both bounds.
func validVolume(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

// Scene returns the scene with the given name.
func (c *Config) Scene(name string) (SceneConfig, bool) {
	for _, s := range c.Scenes {
		if s.Name == name {
			return s, true
		}
	}
	return SceneConfig{}, false
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	path := DataPath()
	if path == "" {
		return errors.New("unable to determine data directory")
	}
	return os.MkdirAll(filepath.Join(path, "sounds"), 0755)
}
