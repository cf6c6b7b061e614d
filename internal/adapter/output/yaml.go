package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/soundstage/internal/playback"
)

// YAMLFormatter formats sounds as a YAML sequence.
type YAMLFormatter struct {
	opts FormatterOptions
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(opts FormatterOptions) *YAMLFormatter {
	return &YAMLFormatter{opts: opts}
}

// Format writes sounds as YAML.
func (f *YAMLFormatter) Format(w io.Writer, sounds []playback.HandleInfo) error {
	if sounds == nil {
		sounds = []playback.HandleInfo{}
	}
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(sounds); err != nil {
		return err
	}
	return encoder.Close()
}
