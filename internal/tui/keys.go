package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the key bindings for the TUI.
type KeyMap struct {
	// Navigation
	Up   key.Binding
	Down key.Binding
	Home key.Binding
	End  key.Binding

	// Scenes
	Enter      key.Binding
	Stop       key.Binding
	VolumeUp   key.Binding
	VolumeDown key.Binding
	Loop       key.Binding

	// Effects, one binding per synth.Effects() entry
	Effects []key.Binding
	Chime   key.Binding
	Reward  key.Binding

	CopyStatus key.Binding

	// Global
	Back key.Binding
	Quit key.Binding
	Help key.Binding
}

// ShortHelp returns a short help message.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns a full help message.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Home, k.End},
		{k.Enter, k.Stop, k.VolumeUp, k.VolumeDown, k.Loop},
		append(append([]key.Binding{}, k.Effects...), k.Chime, k.Reward),
		{k.CopyStatus, k.Help, k.Quit},
	}
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("home/g", "go to top"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("end/G", "go to bottom"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "go to scene"),
		),
		Stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop all"),
		),
		VolumeUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "volume up"),
		),
		VolumeDown: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "volume down"),
		),
		Loop: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "toggle loop"),
		),
		Effects: []key.Binding{
			key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "click")),
			key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "success")),
			key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "error")),
			key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "celebration")),
			key.NewBinding(key.WithKeys("5"), key.WithHelp("5", "pop")),
		},
		Chime: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "chime"),
		),
		Reward: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reward clip"),
		),
		CopyStatus: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy status as YAML"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}
