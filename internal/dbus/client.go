package dbus

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/soundstage/internal/playback"
	"github.com/jmylchreest/soundstage/internal/synth"
)

// ErrNotRunning is returned when no daemon owns the bus name.
var ErrNotRunning = errors.New("soundstaged is not running")

// Client calls a running soundstaged over the session bus.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// Connect opens a session bus connection and checks that the daemon is up.
func Connect() (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	var owned bool
	err = conn.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0, BusName).Store(&owned)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to query bus name: %w", err)
	}
	if !owned {
		conn.Close()
		return nil, ErrNotRunning
	}

	return &Client{
		conn: conn,
		obj:  conn.Object(BusName, Path),
	}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) call(method string, out []any, args ...any) error {
	call := c.obj.Call(Interface+"."+method, 0, args...)
	if call.Err != nil {
		return fmt.Errorf("%s: %w", method, call.Err)
	}
	if len(out) > 0 {
		if err := call.Store(out...); err != nil {
			return fmt.Errorf("%s: %w", method, err)
		}
	}
	return nil
}

// Mount mounts a sound in the daemon and returns its ID.
func (c *Client) Mount(cfg playback.MountConfig) (string, error) {
	var id string
	err := c.call("Mount", []any{&id},
		cfg.Key, cfg.Source, cfg.Loop, cfg.Volume, cfg.Autoplay, cfg.RetryOnInteraction)
	return id, err
}

// Unmount tears down a daemon mount.
func (c *Client) Unmount(id string) error {
	return c.call("Unmount", nil, id)
}

// Update changes the volume and loop flag of a daemon mount.
func (c *Client) Update(id string, volume float64, loop bool) error {
	return c.call("Update", nil, id, volume, loop)
}

// Play deliberately starts a daemon mount.
func (c *Client) Play(id string) error {
	return c.call("Play", nil, id)
}

// StopAll stops every sound except the one under except.
func (c *Client) StopAll(except string) error {
	return c.call("StopAll", nil, except)
}

// PlayEffect plays a feedback tone in the daemon.
func (c *Client) PlayEffect(e synth.Effect) error {
	return c.call("PlayEffect", nil, string(e))
}

// PlayEffectSequence plays the celebration chime in the daemon.
func (c *Client) PlayEffectSequence() error {
	return c.call("PlayEffectSequence", nil)
}

// PlayClip plays a sound file once in the daemon.
func (c *Client) PlayClip(path string) error {
	return c.call("PlayClip", nil, path)
}

// Interact forwards a user gesture and returns the number of retries fired.
func (c *Client) Interact(g playback.Gesture) (int, error) {
	var fired uint32
	err := c.call("Interact", []any{&fired}, g.String())
	return int(fired), err
}

// Status returns every sound registered in the daemon.
func (c *Client) Status() ([]playback.HandleInfo, error) {
	var sounds []Sound
	if err := c.call("GetStatus", []any{&sounds}); err != nil {
		return nil, err
	}

	infos := make([]playback.HandleInfo, 0, len(sounds))
	for _, s := range sounds {
		info, err := s.Info()
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// ActiveKey returns the key of the daemon's audible background track.
func (c *Client) ActiveKey() (string, error) {
	var key string
	err := c.call("GetActiveKey", []any{&key})
	return key, err
}
