package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/jmylchreest/soundstage/internal/playback"
)

// PlainFormatter formats sounds as plain text.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	return &PlainFormatter{
		opts:     opts,
		template: parseTemplate("plain", opts.Template),
	}
}

// Format writes sounds as plain text.
func (f *PlainFormatter) Format(w io.Writer, sounds []playback.HandleInfo) error {
	if len(sounds) == 0 {
		_, err := fmt.Fprintln(w, "no sounds mounted")
		return err
	}
	for i, s := range sounds {
		if err := f.formatSound(w, i+1, s); err != nil {
			return err
		}
	}
	return nil
}

// formatSound formats a single sound.
func (f *PlainFormatter) formatSound(w io.Writer, index int, s playback.HandleInfo) error {
	if f.template != nil {
		data := templateData{
			Index:        index,
			Sound:        s,
			RelativeTime: relativeTime(s.MountedAt),
		}
		return f.template.Execute(w, data)
	}

	var sb strings.Builder

	if f.opts.ShowIndex {
		fmt.Fprintf(&sb, "[%d] ", index)
	}

	fmt.Fprintf(&sb, "%s %s %s vol %d%%", activeMark(s.Active), s.Key, s.State, int(s.Volume*100+0.5))
	if s.Loop {
		sb.WriteString(" loop")
	}

	if f.opts.ShowTime {
		fmt.Fprintf(&sb, " (mounted %s)", relativeTime(s.MountedAt))
	}

	sb.WriteString("\n")

	if f.opts.ShowSource && s.Source != "" && s.Source != s.Key {
		sb.WriteString("    " + truncate(s.Source, f.opts.SourceMax) + "\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
