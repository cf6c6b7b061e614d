package input

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jmylchreest/soundstage/internal/audio"
	"github.com/jmylchreest/soundstage/internal/config"
)

// DirAdapter turns every decodable sound file in a directory into a scene.
type DirAdapter struct {
	dir string
}

// NewDirAdapter creates a DirAdapter for dir.
func NewDirAdapter(dir string) *DirAdapter {
	return &DirAdapter{dir: audio.ExpandPath(dir)}
}

// Name returns the adapter identifier.
func (a *DirAdapter) Name() string {
	return "dir"
}

// Import lists the directory. Subdirectories are not descended.
func (a *DirAdapter) Import(ctx context.Context) ([]config.SceneConfig, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, &AdapterError{
			Source:  "dir",
			Message: "failed to read " + a.dir,
			Err:     err,
		}
	}

	var scenes []config.SceneConfig
	seen := make(map[string]bool)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !slices.Contains(audio.SupportedExtensions, ext) {
			continue
		}

		name := sceneName(entry.Name())
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		scenes = append(scenes, config.SceneConfig{
			Name:   name,
			Key:    sceneKey(name),
			Source: filepath.Join(a.dir, entry.Name()),
		})
	}
	return scenes, nil
}
