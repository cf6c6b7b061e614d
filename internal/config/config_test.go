package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 300*time.Millisecond, cfg.Playback.SettleDelay.Duration())
	assert.Equal(t, 0.5, cfg.Playback.Volume)
	assert.True(t, cfg.Playback.Loop)
	assert.True(t, cfg.Playback.Autoplay)
	assert.True(t, cfg.Playback.RetryOnInteraction)
	assert.True(t, cfg.Playback.RequireGesture)
	assert.Equal(t, 44100, cfg.Output.SampleRate)
	assert.True(t, cfg.Effects.Enabled)
	assert.Equal(t, 100*time.Millisecond, cfg.Effects.SequenceGap.Duration())
	assert.NotEmpty(t, cfg.Clips.Reward)
	assert.NotEmpty(t, cfg.Scenes)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.toml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Playback, cfg.Playback)
}

func TestLoadConfig_ParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[playback]
settle_delay = "150ms"
volume = 0.8
loop = false
autoplay = false
retry_on_interaction = false
require_gesture = false

[output]
sample_rate = 48000
buffer = 50

[effects]
enabled = false
volume = 0.4
sequence_gap = "80ms"

[clips]
reward = "/tmp/reward.wav"
watch = false

[[scenes]]
name = "garden"
key = "garden-bgm"
source = "/tmp/garden.ogg"
volume = 0.25
loop = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 150*time.Millisecond, cfg.Playback.SettleDelay.Duration())
	assert.Equal(t, 0.8, cfg.Playback.Volume)
	assert.False(t, cfg.Playback.Loop)
	assert.False(t, cfg.Playback.Autoplay)
	assert.False(t, cfg.Playback.RetryOnInteraction)
	assert.False(t, cfg.Playback.RequireGesture)
	assert.Equal(t, 48000, cfg.Output.SampleRate)
	assert.Equal(t, 50*time.Millisecond, cfg.Output.Buffer.Duration())
	assert.False(t, cfg.Effects.Enabled)
	assert.Equal(t, 0.4, cfg.Effects.Volume)
	assert.Equal(t, 80*time.Millisecond, cfg.Effects.SequenceGap.Duration())
	assert.Equal(t, "/tmp/reward.wav", cfg.Clips.Reward)
	assert.False(t, cfg.Clips.Watch)

	require.Len(t, cfg.Scenes, 1)
	scene, ok := cfg.Scene("garden")
	require.True(t, ok)
	assert.Equal(t, "garden-bgm", scene.Key)
	assert.Equal(t, "/tmp/garden.ogg", scene.Source)
	require.NotNil(t, scene.Volume)
	assert.Equal(t, 0.25, *scene.Volume)
	require.NotNil(t, scene.Loop)
	assert.False(t, *scene.Loop)
}

func TestLoadConfig_PartialConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[playback]
volume = 0.9
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 0.9, cfg.Playback.Volume)

	// Unchanged fields keep their defaults
	assert.Equal(t, DefaultSettleDelay, cfg.Playback.SettleDelay.Duration())
	assert.True(t, cfg.Playback.Autoplay)
	assert.Equal(t, DefaultSampleRate, cfg.Output.SampleRate)
	assert.Equal(t, DefaultConfig().Scenes, cfg.Scenes)
}

func TestLoadConfig_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	require.NoError(t, os.WriteFile(path, []byte(`this is not valid toml [`), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[playback]
settle_delay = "soon"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"volume above range", func(c *Config) { c.Playback.Volume = 1.5 }},
		{"negative volume", func(c *Config) { c.Playback.Volume = -0.1 }},
		{"negative settle delay", func(c *Config) { c.Playback.SettleDelay = Duration(-time.Second) }},
		{"zero sample rate", func(c *Config) { c.Output.SampleRate = 0 }},
		{"effects volume above range", func(c *Config) { c.Effects.Volume = 2 }},
		{"NaN volume", func(c *Config) { c.Playback.Volume = math.NaN() }},
		{"NaN effects volume", func(c *Config) { c.Effects.Volume = math.NaN() }},
		{"clips volume above range", func(c *Config) { c.Clips.Volume = 1.1 }},
		{"NaN scene volume", func(c *Config) {
			v := math.NaN()
			c.Scenes = []SceneConfig{{Name: "a", Source: "a.mp3", Volume: &v}}
		}},
		{"scene without name", func(c *Config) { c.Scenes = []SceneConfig{{Source: "a.mp3"}} }},
		{"scene without source", func(c *Config) { c.Scenes = []SceneConfig{{Name: "a"}} }},
		{"duplicate scene", func(c *Config) {
			c.Scenes = []SceneConfig{{Name: "a", Source: "a.mp3"}, {Name: "a", Source: "b.mp3"}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_Save(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "config.toml")

	cfg := DefaultConfig()
	cfg.Playback.SettleDelay = Duration(120 * time.Millisecond)
	cfg.Scenes = append(cfg.Scenes, SceneConfig{Name: "space", Source: "/tmp/space.wav"})

	require.NoError(t, cfg.Save(path))

	_, err := os.Stat(path)
	require.NoError(t, err)

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 120*time.Millisecond, loaded.Playback.SettleDelay.Duration())
	_, ok := loaded.Scene("space")
	assert.True(t, ok)
}

func TestConfig_Scene(t *testing.T) {
	cfg := DefaultConfig()

	scene, ok := cfg.Scene("home")
	require.True(t, ok)
	assert.Equal(t, "home-sound", scene.Key)

	_, ok = cfg.Scene("nonexistent")
	assert.False(t, ok)
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/soundstage/config.toml", ConfigPath())
}

func TestDataPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/custom/data")
	assert.Equal(t, "/custom/data/soundstage", DataPath())
	assert.Equal(t, "/custom/data/soundstage/sounds", SoundsPath())
}

func TestEnsureDataDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	require.NoError(t, EnsureDataDir())

	info, err := os.Stat(filepath.Join(dir, "soundstage", "sounds"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestDuration_MarshalText(t *testing.T) {
	d := Duration(1500 * time.Millisecond)
	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1.5s", string(text))

	var parsed Duration
	require.NoError(t, parsed.UnmarshalText([]byte("250")))
	assert.Equal(t, 250*time.Millisecond, parsed.Duration())
}
