package output

import (
	"encoding/json"
	"io"

	"github.com/jmylchreest/soundstage/internal/playback"
)

// JSONFormatter formats sounds as JSON.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Format writes sounds as a JSON array.
func (f *JSONFormatter) Format(w io.Writer, sounds []playback.HandleInfo) error {
	if sounds == nil {
		sounds = []playback.HandleInfo{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(sounds)
}
