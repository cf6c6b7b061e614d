package input

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/jmylchreest/soundstage/internal/audio"
	"github.com/jmylchreest/soundstage/internal/config"
)

// StdinAdapter reads scenes from standard input.
type StdinAdapter struct {
	reader io.Reader
}

// NewStdinAdapter creates a new StdinAdapter reading from os.Stdin.
func NewStdinAdapter() *StdinAdapter {
	return &StdinAdapter{reader: os.Stdin}
}

// NewStdinAdapterWithReader creates a new StdinAdapter with a custom reader.
func NewStdinAdapterWithReader(r io.Reader) *StdinAdapter {
	return &StdinAdapter{reader: r}
}

// Name returns the adapter identifier.
func (a *StdinAdapter) Name() string {
	return "stdin"
}

// Import reads scenes from standard input.
// Supports two formats:
// 1. JSON array of scenes
// 2. One scene per line, either "name=path" or a bare path
func (a *StdinAdapter) Import(ctx context.Context) ([]config.SceneConfig, error) {
	scanner := bufio.NewScanner(a.reader)
	const maxSize = 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxSize)

	var data []byte
	for scanner.Scan() {
		data = append(data, scanner.Bytes()...)
		data = append(data, '\n')
	}

	if err := scanner.Err(); err != nil {
		return nil, &AdapterError{
			Source:  "stdin",
			Message: "failed to read stdin",
			Err:     err,
		}
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		return parseJSONArray(trimmed)
	}
	return parseLines(ctx, string(trimmed))
}

// stdinEntry represents a scene in the JSON format.
type stdinEntry struct {
	Name   string   `json:"name"`
	Key    string   `json:"key,omitempty"`
	Source string   `json:"source"`
	Volume *float64 `json:"volume,omitempty"`
	Loop   *bool    `json:"loop,omitempty"`
}

// parseJSONArray parses a JSON array of scenes. Entries without a source
// are skipped.
func parseJSONArray(data []byte) ([]config.SceneConfig, error) {
	var entries []stdinEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &AdapterError{
			Source:  "stdin",
			Message: "failed to parse JSON input",
			Err:     err,
		}
	}

	var scenes []config.SceneConfig
	for _, entry := range entries {
		if entry.Source == "" {
			continue
		}
		scenes = append(scenes, convertStdinEntry(entry))
	}
	return scenes, nil
}

func parseLines(ctx context.Context, text string) ([]config.SceneConfig, error) {
	var scenes []config.SceneConfig
	for line := range strings.Lines(text) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var entry stdinEntry
		if name, path, ok := strings.Cut(line, "="); ok {
			entry.Name = strings.TrimSpace(name)
			entry.Source = strings.TrimSpace(path)
		} else {
			entry.Source = line
		}
		if entry.Source == "" {
			continue
		}
		scenes = append(scenes, convertStdinEntry(entry))
	}
	return scenes, nil
}

// convertStdinEntry converts a stdin entry to a scene, deriving the name
// and key from the source when missing.
func convertStdinEntry(entry stdinEntry) config.SceneConfig {
	source := audio.ExpandPath(entry.Source)
	name := entry.Name
	if name == "" {
		name = sceneName(source)
	}
	key := entry.Key
	if key == "" {
		key = sceneKey(name)
	}

	return config.SceneConfig{
		Name:   name,
		Key:    key,
		Source: source,
		Volume: entry.Volume,
		Loop:   entry.Loop,
	}
}
