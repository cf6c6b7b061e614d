package tui

import (
	"errors"

	"github.com/atotto/clipboard"
)

var errNoClipboard = errors.New("no clipboard utility found (install wl-clipboard, xclip or xsel)")

// copyText copies text to the system clipboard.
func copyText(text string) error {
	if clipboard.Unsupported {
		return errNoClipboard
	}
	return clipboard.WriteAll(text)
}
