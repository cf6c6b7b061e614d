package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/jmylchreest/soundstage/internal/playback"
)

// DmenuFormatter formats sounds one per line for dmenu, rofi and friends.
type DmenuFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewDmenuFormatter creates a new dmenu formatter.
func NewDmenuFormatter(opts FormatterOptions) *DmenuFormatter {
	return &DmenuFormatter{
		opts:     opts,
		template: parseTemplate("dmenu", opts.Template),
	}
}

// Format writes sounds in dmenu format (one per line).
func (f *DmenuFormatter) Format(w io.Writer, sounds []playback.HandleInfo) error {
	for i, s := range sounds {
		if _, err := fmt.Fprintln(w, f.formatLine(i+1, s)); err != nil {
			return err
		}
	}
	return nil
}

// formatLine formats a single sound line.
func (f *DmenuFormatter) formatLine(index int, s playback.HandleInfo) string {
	if f.template != nil {
		var buf strings.Builder
		data := templateData{
			Index:        index,
			Sound:        s,
			RelativeTime: relativeTime(s.MountedAt),
		}
		if err := f.template.Execute(&buf, data); err == nil {
			return buf.String()
		}
	}

	// Default format: [index] key | state [| time]
	var parts []string
	sep := f.opts.Separator
	if sep == "" {
		sep = " | "
	}

	if f.opts.ShowIndex {
		parts = append(parts, fmt.Sprintf("%d", index))
	}

	parts = append(parts, s.Key, s.State.String())

	if f.opts.ShowTime {
		parts = append(parts, relativeTime(s.MountedAt))
	}

	return strings.Join(parts, sep)
}
