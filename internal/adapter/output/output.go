// Package output provides output formatters for sound status listings.
package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/soundstage/internal/playback"
)

// Formatter formats registry snapshots for output.
type Formatter interface {
	// Format writes formatted sounds to the writer.
	Format(w io.Writer, sounds []playback.HandleInfo) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatPlain FormatType = "plain"
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
	FormatDmenu FormatType = "dmenu"
	FormatIDs   FormatType = "ids"
)

// FormatTypes lists the accepted format names.
var FormatTypes = []FormatType{FormatPlain, FormatJSON, FormatYAML, FormatDmenu, FormatIDs}

// ParseFormat resolves a format name.
func ParseFormat(name string) (FormatType, error) {
	f := FormatType(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range FormatTypes {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want plain, json, yaml, dmenu or ids)", name)
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts)
	case FormatYAML:
		return NewYAMLFormatter(opts)
	case FormatDmenu:
		return NewDmenuFormatter(opts)
	case FormatIDs:
		return NewIDsFormatter()
	case FormatPlain:
		fallthrough
	default:
		return NewPlainFormatter(opts)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template    string // Custom template for dmenu/plain format
	ShowIndex   bool   // Show 1-based index prefix
	ShowTime    bool   // Show time since mount
	ShowSource  bool   // Show the source path
	SourceMax   int    // Maximum source length (0 = unlimited)
	Separator   string // Field separator for dmenu format
	OutputField string // Field to output (for single-sound mode)
}

// DefaultFormatterOptions returns sensible defaults for terminal output.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		ShowIndex:  true,
		ShowTime:   true,
		ShowSource: true,
		SourceMax:  60,
		Separator:  " | ",
	}
}

// templateData provides data for custom templates.
type templateData struct {
	Index        int
	Sound        playback.HandleInfo
	RelativeTime string
}

func parseTemplate(name, text string) *template.Template {
	if text == "" {
		return nil
	}
	tmpl, err := template.New(name).Funcs(templateFuncs()).Parse(text)
	if err != nil {
		return nil
	}
	return tmpl
}

// templateFuncs returns template helper functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate": truncate,
		"reltime":  relativeTime,
		"percent": func(v float64) string {
			return fmt.Sprintf("%d%%", int(v*100+0.5))
		},
		"activeMark": activeMark,
	}
}

// FormatField outputs a specific field from a sound.
func FormatField(s playback.HandleInfo, field string) string {
	switch strings.ToLower(field) {
	case "id":
		return s.ID
	case "key":
		return s.Key
	case "source", "src":
		return s.Source
	case "state":
		return s.State.String()
	case "volume":
		return fmt.Sprintf("%.2f", s.Volume)
	case "loop":
		return fmt.Sprintf("%t", s.Loop)
	case "active":
		return fmt.Sprintf("%t", s.Active)
	default:
		return s.Key
	}
}

// relativeTime returns a human-readable relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return humanize.Time(t)
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return "..." + s[len(s)-maxLen+3:]
}

func activeMark(active bool) string {
	if active {
		return "*"
	}
	return " "
}
