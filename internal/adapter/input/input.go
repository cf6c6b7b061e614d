// Package input provides scene importers that turn sound files and scene
// lists into config scenes.
package input

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/jmylchreest/soundstage/internal/config"
)

// SceneSource produces scene definitions.
type SceneSource interface {
	// Name returns the adapter identifier (e.g., "dir", "stdin").
	Name() string

	// Import fetches scenes from the source.
	Import(ctx context.Context) ([]config.SceneConfig, error)
}

// NewAdapter creates a SceneSource for the named source. The dir adapter
// scans arg, or the default sounds directory when arg is empty.
func NewAdapter(source, arg string) (SceneSource, error) {
	switch source {
	case "dir", "":
		if arg == "" {
			arg = config.SoundsPath()
		}
		return NewDirAdapter(arg), nil
	case "stdin":
		return NewStdinAdapter(), nil
	default:
		return nil, &AdapterError{
			Source:  source,
			Message: "unknown adapter",
		}
	}
}

// AdapterError represents an adapter-related error.
type AdapterError struct {
	Source  string
	Message string
	Err     error
}

func (e *AdapterError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Source + ": " + e.Message
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// Merge folds imported scenes into existing ones by name. Existing scenes
// keep their position and are replaced in place; new scenes are appended.
func Merge(existing, imported []config.SceneConfig) (merged []config.SceneConfig, added, updated int) {
	merged = append([]config.SceneConfig(nil), existing...)
	index := make(map[string]int, len(merged))
	for i, s := range merged {
		index[s.Name] = i
	}

	for _, s := range imported {
		if i, ok := index[s.Name]; ok {
			merged[i] = s
			updated++
			continue
		}
		index[s.Name] = len(merged)
		merged = append(merged, s)
		added++
	}
	return merged, added, updated
}

// sceneName derives a scene name from a file path: "Forest Walk.mp3"
// becomes "forest-walk".
func sceneName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ToLower(strings.TrimSpace(base))

	var sb strings.Builder
	dash := false
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			dash = false
		case !dash && sb.Len() > 0:
			sb.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}

// sceneKey is the registry key used for imported scenes.
func sceneKey(name string) string {
	return name + "-sound"
}
