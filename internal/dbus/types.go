package dbus

import (
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/soundstage/internal/playback"
)

// Sound is one registry entry as carried on the bus, signature (sssdbbsx).
// Field order is the wire order.
type Sound struct {
	ID        string
	Key       string
	State     string
	Volume    float64
	Loop      bool
	Active    bool
	Source    string
	MountedAt int64 // unix milliseconds
}

// SoundFromInfo converts a registry snapshot entry for the bus.
func SoundFromInfo(info playback.HandleInfo) Sound {
	var mountedAt int64
	if !info.MountedAt.IsZero() {
		mountedAt = info.MountedAt.UnixMilli()
	}
	return Sound{
		ID:        info.ID,
		Key:       info.Key,
		State:     info.State.String(),
		Volume:    info.Volume,
		Loop:      info.Loop,
		Active:    info.Active,
		Source:    info.Source,
		MountedAt: mountedAt,
	}
}

// Info converts a bus entry back into a registry snapshot entry.
func (s Sound) Info() (playback.HandleInfo, error) {
	var state playback.State
	if err := state.UnmarshalText([]byte(s.State)); err != nil {
		return playback.HandleInfo{}, fmt.Errorf("sound %s: %w", s.ID, err)
	}

	info := playback.HandleInfo{
		ID:     s.ID,
		Key:    s.Key,
		Source: s.Source,
		State:  state,
		Volume: s.Volume,
		Loop:   s.Loop,
		Active: s.Active,
	}
	if s.MountedAt > 0 {
		info.MountedAt = time.UnixMilli(s.MountedAt)
	}
	return info, nil
}

// SoundsFromInfo converts a whole snapshot.
func SoundsFromInfo(infos []playback.HandleInfo) []Sound {
	sounds := make([]Sound, 0, len(infos))
	for _, info := range infos {
		sounds = append(sounds, SoundFromInfo(info))
	}
	return sounds
}

// StateEvent is the payload of the StateChanged signal.
type StateEvent struct {
	ID    string
	Key   string
	State string
}

// ParseStateEvent extracts a StateEvent from a StateChanged signal.
func ParseStateEvent(sig *dbus.Signal) (StateEvent, error) {
	if sig == nil {
		return StateEvent{}, fmt.Errorf("nil signal")
	}
	if sig.Name != Interface+".StateChanged" {
		return StateEvent{}, fmt.Errorf("unexpected signal %s", sig.Name)
	}
	if len(sig.Body) != 3 {
		return StateEvent{}, fmt.Errorf("malformed StateChanged: %d args", len(sig.Body))
	}

	var ev StateEvent
	var ok bool
	if ev.ID, ok = sig.Body[0].(string); !ok {
		return StateEvent{}, fmt.Errorf("invalid id type %T", sig.Body[0])
	}
	if ev.Key, ok = sig.Body[1].(string); !ok {
		return StateEvent{}, fmt.Errorf("invalid key type %T", sig.Body[1])
	}
	if ev.State, ok = sig.Body[2].(string); !ok {
		return StateEvent{}, fmt.Errorf("invalid state type %T", sig.Body[2])
	}
	return ev, nil
}
