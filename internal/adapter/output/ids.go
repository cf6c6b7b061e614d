package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/soundstage/internal/playback"
)

// IDsFormatter outputs just the mount IDs, one per line.
// Useful for piping to other commands (e.g., soundstage unmount).
type IDsFormatter struct{}

// NewIDsFormatter creates a new IDs formatter.
func NewIDsFormatter() *IDsFormatter {
	return &IDsFormatter{}
}

// Format writes mount IDs to the writer, one per line.
func (f *IDsFormatter) Format(w io.Writer, sounds []playback.HandleInfo) error {
	for _, s := range sounds {
		if _, err := fmt.Fprintln(w, s.ID); err != nil {
			return err
		}
	}
	return nil
}
