package dbus

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/soundstage/internal/playback"
	"github.com/jmylchreest/soundstage/internal/synth"
)

const (
	// Interface is the soundstage interface name.
	Interface = "io.github.jmylchreest.Soundstage"
	// Path is the soundstage object path.
	Path dbus.ObjectPath = "/io/github/jmylchreest/Soundstage"
	// BusName is the bus name to claim.
	BusName = "io.github.jmylchreest.Soundstage"
)

// Service is the sound service exposed on the bus. *daemon.Service
// implements it.
type Service interface {
	MountRemote(cfg playback.MountConfig) (string, error)
	Unmount(id string) error
	Update(id string, volume float64, loop bool) error
	Play(id string) error
	StopAllSounds(except string)
	PlayEffect(e synth.Effect)
	PlayEffectSequence()
	PlayClip(path string) error
	Interact(g playback.Gesture) int
	Status() []playback.HandleInfo
	ActiveKey() string
}

// Server exports a Service on the session bus.
type Server struct {
	conn   *dbus.Conn
	logger *slog.Logger
	svc    Service

	mu      sync.RWMutex
	running bool
}

// NewServer creates a server for svc.
func NewServer(svc Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		logger: logger,
		svc:    svc,
	}
}

// Start connects to the session bus and exports the service.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.mu.Unlock()

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	if err := conn.Export(s, Path, Interface); err != nil {
		conn.Close()
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: string(Path),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    Interface,
				Methods: soundstageMethods(),
				Signals: soundstageSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), Path,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		conn.Close()
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return fmt.Errorf("bus name %s already taken", BusName)
	}

	s.mu.Lock()
	s.conn = conn
	s.running = true
	s.mu.Unlock()

	s.logger.Info("D-Bus server started", "interface", Interface, "path", Path)
	return nil
}

// Stop releases the bus name and closes the connection.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if _, err := s.conn.ReleaseName(BusName); err != nil {
		s.logger.Warn("failed to release bus name", "error", err)
	}
	err := s.conn.Close()
	s.conn = nil

	s.logger.Info("D-Bus server stopped")
	return err
}

// Running reports whether the server owns the bus name.
func (s *Server) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Mount mounts a background sound and returns its ID.
// An empty key falls back to the source.
func (s *Server) Mount(key, source string, loop bool, volume float64, autoplay, retry bool) (string, *dbus.Error) {
	s.logger.Debug("Mount called", "key", key, "source", source)

	id, err := s.svc.MountRemote(playback.MountConfig{
		Key:                key,
		Source:             source,
		Loop:               loop,
		Volume:             volume,
		Autoplay:           autoplay,
		RetryOnInteraction: retry,
	})
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return id, nil
}

// Unmount tears down a mount.
func (s *Server) Unmount(id string) *dbus.Error {
	if err := s.svc.Unmount(id); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

// Update changes the volume and loop flag of a mount in place.
func (s *Server) Update(id string, volume float64, loop bool) *dbus.Error {
	if err := s.svc.Update(id, volume, loop); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

// Play deliberately starts a mount.
func (s *Server) Play(id string) *dbus.Error {
	if err := s.svc.Play(id); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

// StopAll stops every sound except the one registered under except.
func (s *Server) StopAll(except string) *dbus.Error {
	s.svc.StopAllSounds(except)
	return nil
}

// PlayEffect plays a named feedback tone.
func (s *Server) PlayEffect(name string) *dbus.Error {
	e, err := synth.ParseEffect(name)
	if err != nil {
		return dbus.MakeFailedError(err)
	}
	s.svc.PlayEffect(e)
	return nil
}

// PlayEffectSequence plays the celebration chime.
func (s *Server) PlayEffectSequence() *dbus.Error {
	s.svc.PlayEffectSequence()
	return nil
}

// PlayClip plays a sound file once. An empty path plays the reward clip.
func (s *Server) PlayClip(path string) *dbus.Error {
	if err := s.svc.PlayClip(path); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

// Interact records a user gesture and returns the number of retries it fired.
func (s *Server) Interact(gesture string) (uint32, *dbus.Error) {
	g, err := playback.ParseGesture(gesture)
	if err != nil {
		return 0, dbus.MakeFailedError(err)
	}
	return uint32(s.svc.Interact(g)), nil
}

// GetStatus returns every registered sound.
func (s *Server) GetStatus() ([]Sound, *dbus.Error) {
	return SoundsFromInfo(s.svc.Status()), nil
}

// GetActiveKey returns the key of the audible background track.
func (s *Server) GetActiveKey() (string, *dbus.Error) {
	return s.svc.ActiveKey(), nil
}

func soundstageMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "Mount",
			Args: []introspect.Arg{
				{Name: "key", Type: "s", Direction: "in"},
				{Name: "source", Type: "s", Direction: "in"},
				{Name: "loop", Type: "b", Direction: "in"},
				{Name: "volume", Type: "d", Direction: "in"},
				{Name: "autoplay", Type: "b", Direction: "in"},
				{Name: "retry_on_interaction", Type: "b", Direction: "in"},
				{Name: "id", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "Unmount",
			Args: []introspect.Arg{
				{Name: "id", Type: "s", Direction: "in"},
			},
		},
		{
			Name: "Update",
			Args: []introspect.Arg{
				{Name: "id", Type: "s", Direction: "in"},
				{Name: "volume", Type: "d", Direction: "in"},
				{Name: "loop", Type: "b", Direction: "in"},
			},
		},
		{
			Name: "Play",
			Args: []introspect.Arg{
				{Name: "id", Type: "s", Direction: "in"},
			},
		},
		{
			Name: "StopAll",
			Args: []introspect.Arg{
				{Name: "except", Type: "s", Direction: "in"},
			},
		},
		{
			Name: "PlayEffect",
			Args: []introspect.Arg{
				{Name: "effect", Type: "s", Direction: "in"},
			},
		},
		{
			Name: "PlayEffectSequence",
		},
		{
			Name: "PlayClip",
			Args: []introspect.Arg{
				{Name: "path", Type: "s", Direction: "in"},
			},
		},
		{
			Name: "Interact",
			Args: []introspect.Arg{
				{Name: "gesture", Type: "s", Direction: "in"},
				{Name: "fired", Type: "u", Direction: "out"},
			},
		},
		{
			Name: "GetStatus",
			Args: []introspect.Arg{
				{Name: "sounds", Type: "a(sssdbbsx)", Direction: "out"},
			},
		},
		{
			Name: "GetActiveKey",
			Args: []introspect.Arg{
				{Name: "key", Type: "s", Direction: "out"},
			},
		},
	}
}

func soundstageSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "StateChanged",
			Args: []introspect.Arg{
				{Name: "id", Type: "s"},
				{Name: "key", Type: "s"},
				{Name: "state", Type: "s"},
			},
		},
	}
}
