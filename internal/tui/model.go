// Package tui provides the BubbleTea-based soundboard.
package tui

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/soundstage/internal/audio"
	"github.com/jmylchreest/soundstage/internal/config"
	"github.com/jmylchreest/soundstage/internal/playback"
	"github.com/jmylchreest/soundstage/internal/synth"
)

const (
	pollInterval = 500 * time.Millisecond
	volumeStep   = 0.1
)

// Soundboard is the sound service driven by the TUI. *daemon.Service
// implements it.
type Soundboard interface {
	Scenes() []config.SceneConfig
	SceneMountConfig(name string) (playback.MountConfig, error)
	Mount(cfg playback.MountConfig) *playback.Controller
	StopAllSounds(except string)
	PlayEffect(e synth.Effect)
	PlayEffectSequence()
	PlayClip(path string) error
	Interact(g playback.Gesture) int
	Status() []playback.HandleInfo
}

// Mode represents the current UI mode.
type Mode int

const (
	ModeBoard Mode = iota
	ModeHelp
)

// Model is the main TUI model.
type Model struct {
	svc Soundboard

	// Current mode
	mode Mode

	list list.Model

	// The scene whose sound this board has mounted
	current *playback.Controller
	scene   string

	// Last polled registry snapshot
	sounds []playback.HandleInfo

	width  int
	height int
	ready  bool

	keys KeyMap

	// Status message
	statusMsg string
	statusErr bool
}

// sceneItem wraps a scene for the list component.
type sceneItem struct {
	scene config.SceneConfig
	info  *playback.HandleInfo
}

func (i sceneItem) Title() string {
	return i.scene.Name
}

func (i sceneItem) Description() string {
	key := i.scene.Key
	if key == "" {
		key = i.scene.Source
	}
	desc := key + " · " + filepath.Base(i.scene.Source)
	if i.info != nil {
		desc += " · " + i.info.State.String()
	}
	return desc
}

func (i sceneItem) FilterValue() string {
	return i.scene.Name
}

// sceneDelegate highlights the scene that is currently audible.
type sceneDelegate struct {
	list.DefaultDelegate
}

func newSceneDelegate() sceneDelegate {
	return sceneDelegate{DefaultDelegate: list.NewDefaultDelegate()}
}

// Render renders a scene with a marker when its track is active.
func (d sceneDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	si, ok := item.(sceneItem)
	if !ok {
		d.DefaultDelegate.Render(w, m, index, item)
		return
	}

	isSelected := index == m.Index()
	isActive := si.info != nil && si.info.Active

	itemWidth := m.Width() - d.DefaultDelegate.Styles.NormalTitle.GetHorizontalPadding()

	titleStyle := d.DefaultDelegate.Styles.NormalTitle
	descStyle := d.DefaultDelegate.Styles.NormalDesc
	if isSelected {
		titleStyle = d.DefaultDelegate.Styles.SelectedTitle
		descStyle = d.DefaultDelegate.Styles.SelectedDesc
	}
	if isActive {
		titleStyle = titleStyle.Foreground(lipgloss.Color("10"))
	}

	title := si.Title()
	if isActive {
		title = "♪ " + title
	}
	if itemWidth > 0 && len(title) > itemWidth {
		title = title[:itemWidth-1] + "…"
	}

	desc := si.Description()
	if itemWidth > 0 && len(desc) > itemWidth {
		desc = desc[:itemWidth-1] + "…"
	}

	fmt.Fprint(w, titleStyle.Render(title))
	fmt.Fprint(w, "\n")
	fmt.Fprint(w, descStyle.Render(desc))
}

// New creates a new TUI model.
func New(svc Soundboard) Model {
	l := list.New(nil, newSceneDelegate(), 0, 0)
	l.Title = "Soundstage"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	m := Model{
		svc:  svc,
		mode: ModeBoard,
		list: l,
		keys: DefaultKeyMap(),
	}
	m.refresh()
	return m
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return tick()
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

type copyResultMsg struct {
	err error
}

func setStatus(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isErr: isErr}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.svc.Interact(playback.GestureKey)
		return m.handleKey(msg)

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress {
			m.svc.Interact(playback.GesturePointer)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.list.SetSize(msg.Width, msg.Height-3)
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tick()

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(t time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			return m, setStatus("Copy failed: "+msg.err.Error(), true)
		}
		return m, setStatus("Copied status to clipboard", false)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.unmount()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		if m.mode == ModeHelp {
			m.mode = ModeBoard
		} else {
			m.mode = ModeHelp
		}
		return m, nil
	}

	if m.mode == ModeHelp {
		if key.Matches(msg, m.keys.Back) {
			m.mode = ModeBoard
		}
		return m, nil
	}

	return m.handleBoardKey(msg)
}

// handleBoardKey handles keys in board mode.
func (m Model) handleBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	for i, binding := range m.keys.Effects {
		if key.Matches(msg, binding) && i < len(synth.Effects()) {
			m.svc.PlayEffect(synth.Effects()[i])
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Enter):
		if item, ok := m.list.SelectedItem().(sceneItem); ok {
			return m.transition(item.scene.Name)
		}
		return m, nil

	case key.Matches(msg, m.keys.Stop):
		m.svc.StopAllSounds("")
		m.refresh()
		return m, setStatus("Stopped all sounds", false)

	case key.Matches(msg, m.keys.VolumeUp):
		return m.adjustVolume(volumeStep)

	case key.Matches(msg, m.keys.VolumeDown):
		return m.adjustVolume(-volumeStep)

	case key.Matches(msg, m.keys.Loop):
		if m.current == nil {
			return m, nil
		}
		loop := !m.current.Info().Loop
		m.current.SetLoop(loop)
		m.refresh()
		return m, setStatus(fmt.Sprintf("Loop %s", onOff(loop)), false)

	case key.Matches(msg, m.keys.Chime):
		m.svc.PlayEffectSequence()
		return m, nil

	case key.Matches(msg, m.keys.Reward):
		if err := m.svc.PlayClip(""); err != nil {
			return m, setStatus("Reward clip: "+err.Error(), true)
		}
		return m, nil

	case key.Matches(msg, m.keys.CopyStatus):
		data, err := yaml.Marshal(m.sounds)
		if err != nil {
			return m, setStatus("Failed to marshal YAML: "+err.Error(), true)
		}
		return m, copyToClipboard(string(data))
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// transition moves the board to a scene: every sound stops, the scene's
// track mounts, then the previous scene unmounts.
func (m Model) transition(name string) (tea.Model, tea.Cmd) {
	cfg, err := m.svc.SceneMountConfig(name)
	if err != nil {
		return m, setStatus(err.Error(), true)
	}

	m.svc.StopAllSounds("")
	prev := m.current
	m.current = m.svc.Mount(cfg)
	m.scene = name
	if prev != nil {
		prev.Unmount()
	}

	m.refresh()
	return m, setStatus(fmt.Sprintf("Scene %s: %s", name, m.current.Info().State), false)
}

func (m Model) adjustVolume(delta float64) (tea.Model, tea.Cmd) {
	if m.current == nil {
		return m, nil
	}
	volume := audio.ClampVolume(m.current.Info().Volume + delta)
	m.current.SetVolume(volume)
	m.refresh()
	return m, setStatus(fmt.Sprintf("Volume %d%%", int(volume*100+0.5)), false)
}

// unmount releases the board's mount.
func (m *Model) unmount() {
	if m.current != nil {
		m.current.Unmount()
		m.current = nil
	}
}

// refresh polls the service and rebuilds the scene list.
func (m *Model) refresh() {
	m.sounds = m.svc.Status()

	byKey := make(map[string]*playback.HandleInfo, len(m.sounds))
	for i := range m.sounds {
		byKey[m.sounds[i].Key] = &m.sounds[i]
	}

	scenes := m.svc.Scenes()
	items := make([]list.Item, len(scenes))
	for i, s := range scenes {
		key := s.Key
		if key == "" {
			key = s.Source
		}
		items[i] = sceneItem{scene: s, info: byKey[key]}
	}
	m.list.SetItems(items)
}

func copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		return copyResultMsg{err: copyText(text)}
	}
}

// View renders the TUI.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.mode == ModeHelp {
		return m.viewHelp()
	}
	return m.viewBoard()
}

func (m Model) viewBoard() string {
	s := m.list.View() + "\n" + m.nowPlaying()

	if m.statusMsg != "" {
		statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
		if m.statusErr {
			statusStyle = statusStyle.Foreground(lipgloss.Color("9"))
		}
		s += "  " + statusStyle.Render(m.statusMsg)
	}

	return s + "\n" + m.buildKeybindBar(m.width)
}

// nowPlaying summarizes the board's own mount.
func (m Model) nowPlaying() string {
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	if m.current == nil {
		return labelStyle.Render("no scene")
	}

	info := m.current.Info()
	return fmt.Sprintf("%s %s  %s %s  %s %d%%  %s %s",
		labelStyle.Render("scene"), m.scene,
		labelStyle.Render("state"), info.State,
		labelStyle.Render("vol"), int(info.Volume*100+0.5),
		labelStyle.Render("loop"), onOff(info.Loop))
}

func (m Model) viewHelp() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		MarginBottom(1)

	sectionStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8"))

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	s := titleStyle.Render("Keyboard Shortcuts") + "\n\n"

	s += sectionStyle.Render("Scenes") + "\n"
	s += keyStyle.Render("  j/k, ↑/↓") + "     Move up/down\n"
	s += keyStyle.Render("  enter") + "        Go to scene (stops everything first)\n"
	s += keyStyle.Render("  s") + "            Stop all sounds\n"
	s += keyStyle.Render("  +/-") + "          Scene volume up/down\n"
	s += keyStyle.Render("  l") + "            Toggle scene loop\n"
	s += "\n"

	s += sectionStyle.Render("Effects") + "\n"
	s += keyStyle.Render("  1-5") + "          Click, success, error, celebration, pop\n"
	s += keyStyle.Render("  c") + "            Celebration chime\n"
	s += keyStyle.Render("  r") + "            Reward clip\n"
	s += "\n"

	s += sectionStyle.Render("General") + "\n"
	s += keyStyle.Render("  y") + "            Copy status as YAML\n"
	s += keyStyle.Render("  ?") + "            Toggle this help\n"
	s += keyStyle.Render("  esc") + "          Back\n"
	s += keyStyle.Render("  q") + "            Quit\n"

	s += "\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(
		"Any key or click counts as a gesture and unlocks audio")

	return s
}

// keybind represents a single keybind with priority for the status bar.
type keybind struct {
	key      string
	desc     string
	priority int // lower = more important (shown first)
}

// buildKeybindBar builds a keybind bar that fits within the given width.
func (m Model) buildKeybindBar(width int) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	binds := []keybind{
		{"q", "quit", 1},
		{"enter", "scene", 2},
		{"?", "help", 3},
		{"s", "stop", 4},
		{"1-5", "effects", 5},
		{"c", "chime", 6},
		{"+/-", "volume", 7},
		{"l", "loop", 8},
		{"r", "reward", 9},
	}

	const separator = "  "
	result := ""
	plainLen := 0
	for _, b := range binds {
		plainItem := b.key + " " + b.desc
		testLen := plainLen + len(plainItem)
		if result != "" {
			testLen += len(separator)
		}
		if width > 0 && testLen > width {
			break
		}
		if result != "" {
			result += separator
		}
		result += keyStyle.Render(b.key) + " " + b.desc
		plainLen = testLen
	}

	return style.Render(result)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// RunOptions configures the TUI.
type RunOptions struct {
	Service Soundboard
	// Scene to enter on startup (empty = none)
	Scene string
}

// Run starts the TUI with the given options.
func Run(opts RunOptions) error {
	m := New(opts.Service)
	if opts.Scene != "" {
		next, _ := m.transition(opts.Scene)
		m = next.(Model)
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()

	// Quit already unmounts; this covers other exits. Unmount is idempotent.
	if fm, ok := final.(Model); ok {
		fm.unmount()
	}
	m.unmount()
	return err
}
