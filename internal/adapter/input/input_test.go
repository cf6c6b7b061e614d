package input

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/soundstage/internal/config"
)

func TestSceneName(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/sounds/forest.mp3", "forest"},
		{"Forest Walk.OGG", "forest-walk"},
		{"  __beach__ (loop).wav", "beach-loop"},
		{"/x/!!!.mp3", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, sceneName(tt.path))
		})
	}
}

func TestNewAdapter(t *testing.T) {
	a, err := NewAdapter("dir", "/tmp/sounds")
	require.NoError(t, err)
	assert.Equal(t, "dir", a.Name())

	a, err = NewAdapter("stdin", "")
	require.NoError(t, err)
	assert.Equal(t, "stdin", a.Name())

	_, err = NewAdapter("dunst", "")
	var adapterErr *AdapterError
	require.ErrorAs(t, err, &adapterErr)
	assert.Equal(t, "dunst", adapterErr.Source)
}

func TestDirAdapter_Import(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"forest.mp3", "Beach Day.ogg", "notes.txt", "park.WAV", "forest.wav"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.mp3"), 0755))

	scenes, err := NewDirAdapter(dir).Import(t.Context())
	require.NoError(t, err)

	names := make([]string, 0, len(scenes))
	for _, s := range scenes {
		names = append(names, s.Name)
	}
	// ReadDir sorts by filename; the duplicate forest.wav is dropped
	assert.Equal(t, []string{"beach-day", "forest", "park"}, names)
	assert.Equal(t, "forest-sound", scenes[1].Key)
	assert.Equal(t, filepath.Join(dir, "forest.mp3"), scenes[1].Source)
}

func TestDirAdapter_Missing(t *testing.T) {
	_, err := NewDirAdapter(filepath.Join(t.TempDir(), "missing")).Import(t.Context())
	var adapterErr *AdapterError
	require.ErrorAs(t, err, &adapterErr)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDirAdapter_Cancelled(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.mp3"), nil, 0644))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := NewDirAdapter(dir).Import(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStdinAdapter_JSON(t *testing.T) {
	in := `[
		{"name": "quiz", "source": "/sounds/quiz.mp3", "volume": 0.3, "loop": false},
		{"name": "broken"},
		{"source": "/sounds/Map Screen.mp3", "key": "map"}
	]`

	scenes, err := NewStdinAdapterWithReader(strings.NewReader(in)).Import(t.Context())
	require.NoError(t, err)
	require.Len(t, scenes, 2)

	assert.Equal(t, "quiz", scenes[0].Name)
	assert.Equal(t, "quiz-sound", scenes[0].Key)
	require.NotNil(t, scenes[0].Volume)
	assert.Equal(t, 0.3, *scenes[0].Volume)
	require.NotNil(t, scenes[0].Loop)
	assert.False(t, *scenes[0].Loop)

	assert.Equal(t, "map-screen", scenes[1].Name)
	assert.Equal(t, "map", scenes[1].Key)
	assert.Nil(t, scenes[1].Volume)
}

func TestStdinAdapter_Lines(t *testing.T) {
	in := "# scenes\nhome = /sounds/opening.mp3\n\n/sounds/park.mp3\nempty=\n"

	scenes, err := NewStdinAdapterWithReader(strings.NewReader(in)).Import(t.Context())
	require.NoError(t, err)
	require.Len(t, scenes, 2)

	assert.Equal(t, config.SceneConfig{Name: "home", Key: "home-sound", Source: "/sounds/opening.mp3"}, scenes[0])
	assert.Equal(t, config.SceneConfig{Name: "park", Key: "park-sound", Source: "/sounds/park.mp3"}, scenes[1])
}

func TestStdinAdapter_Empty(t *testing.T) {
	scenes, err := NewStdinAdapterWithReader(strings.NewReader("  \n")).Import(t.Context())
	require.NoError(t, err)
	assert.Empty(t, scenes)
}

func TestStdinAdapter_InvalidJSON(t *testing.T) {
	_, err := NewStdinAdapterWithReader(strings.NewReader("[{")).Import(t.Context())
	var adapterErr *AdapterError
	require.ErrorAs(t, err, &adapterErr)
	assert.Contains(t, err.Error(), "failed to parse JSON input")
}

func TestMerge(t *testing.T) {
	existing := []config.SceneConfig{
		{Name: "splash", Source: "/a.mp3"},
		{Name: "home", Source: "/b.mp3"},
	}
	imported := []config.SceneConfig{
		{Name: "home", Source: "/c.mp3"},
		{Name: "beach", Source: "/d.mp3"},
	}

	merged, added, updated := Merge(existing, imported)
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, updated)
	assert.Equal(t, []config.SceneConfig{
		{Name: "splash", Source: "/a.mp3"},
		{Name: "home", Source: "/c.mp3"},
		{Name: "beach", Source: "/d.mp3"},
	}, merged)

	// The input slice is untouched
	assert.Equal(t, "/b.mp3", existing[1].Source)
}
