package playback

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/soundstage/internal/audio"
)

// State is the lifecycle state of a Handle.
type State int

const (
	// StateIdle means the handle is stopped and rewound, ready for a deliberate start.
	StateIdle State = iota
	// StateLoading means the handle was mounted and has not attempted to start yet.
	StateLoading
	// StatePlaying means the track is audible.
	StatePlaying
	// StateSuspended means a start attempt was refused by the autoplay policy.
	StateSuspended
	// StateErrored means the resource failed; the handle is terminal.
	StateErrored
)

// StateNames maps states to their display names.
var StateNames = map[State]string{
	StateIdle:      "idle",
	StateLoading:   "loading",
	StatePlaying:   "playing",
	StateSuspended: "suspended",
	StateErrored:   "errored",
}

func (s State) String() string {
	if name, ok := StateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	name := strings.ToLower(string(text))
	for state, n := range StateNames {
		if n == name {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

var (
	errReleased          = errors.New("handle released")
	errAttemptInProgress = errors.New("start attempt already in progress")
)

// Handle is one mounted sound instance.
type Handle struct {
	mu sync.Mutex

	id        string
	key       string
	source    string
	mountedAt time.Time

	loop   bool
	volume float64
	state  State

	// Set while a start attempt is running or has succeeded
	attempted bool
	released  bool

	track audio.Track
}

// HandleInfo is a point-in-time copy of a handle's public state.
type HandleInfo struct {
	ID        string    `json:"id" yaml:"id"`
	Key       string    `json:"key" yaml:"key"`
	Source    string    `json:"source" yaml:"source"`
	State     State     `json:"state" yaml:"state"`
	Volume    float64   `json:"volume" yaml:"volume"`
	Loop      bool      `json:"loop" yaml:"loop"`
	Active    bool      `json:"active" yaml:"active"`
	MountedAt time.Time `json:"mounted_at" yaml:"mounted_at"`
}

// newHandle creates a handle in the Loading state.
func newHandle(key, source string, loop bool, volume float64) *Handle {
	return &Handle{
		id:        ulid.Make().String(),
		key:       key,
		source:    source,
		mountedAt: time.Now(),
		loop:      loop,
		volume:    audio.ClampVolume(volume),
		state:     StateLoading,
	}
}

// ID returns the handle's unique instance identifier.
func (h *Handle) ID() string {
	return h.id
}

// Key returns the handle's logical key.
func (h *Handle) Key() string {
	return h.key
}

// State returns the current lifecycle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Volume returns the effective (clamped) volume.
func (h *Handle) Volume() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.volume
}

// Loop reports whether the handle loops.
func (h *Handle) Loop() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loop
}

// Released reports whether the underlying track has been closed.
func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Info returns a snapshot of the handle. Active is filled in by the registry.
func (h *Handle) Info() HandleInfo {
	h.mu.Lock()
	defer h.mu.Unlock()

	return HandleInfo{
		ID:        h.id,
		Key:       h.key,
		Source:    h.source,
		State:     h.state,
		Volume:    h.volume,
		Loop:      h.loop,
		MountedAt: h.mountedAt,
	}
}

// attach binds an opened track and applies the current volume and loop settings.
func (h *Handle) attach(track audio.Track) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		_ = track.Close()
		return
	}
	h.track = track
	track.SetVolume(h.volume)
	track.SetLoop(h.loop)
}

// start attempts to make the track audible. A nil error means the handle is Playing.
func (h *Handle) start() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released || h.track == nil || h.state == StateErrored {
		return errReleased
	}
	if h.attempted {
		if h.state == StatePlaying {
			return nil
		}
		return errAttemptInProgress
	}

	h.attempted = true
	if err := h.track.Play(); err != nil {
		h.attempted = false
		return err
	}
	h.state = StatePlaying
	return nil
}

// suspend records a refused start so that a later retry is allowed.
func (h *Handle) suspend() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released || h.state == StateErrored {
		return
	}
	h.attempted = false
	h.state = StateSuspended
}

// stop pauses and rewinds the track. Playing handles become Idle.
func (h *Handle) stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopLocked()
}

func (h *Handle) stopLocked() {
	if h.track == nil || h.released {
		return
	}

	h.track.Pause()
	// Rewind failures only affect where a later restart begins
	_ = h.track.Rewind()

	if h.state == StatePlaying {
		h.state = StateIdle
	}
	h.attempted = false
}

// ended marks the natural end of a non-looping track.
func (h *Handle) ended() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != StatePlaying {
		return false
	}
	h.state = StateIdle
	h.attempted = false
	return true
}

// release stops the track and closes it. Safe to call more than once.
func (h *Handle) release() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return
	}
	h.stopLocked()
	if h.track != nil {
		_ = h.track.Close()
	}
	h.released = true
	if h.state == StatePlaying {
		h.state = StateIdle
	}
}

// fail moves the handle to Errored and releases the track.
func (h *Handle) fail() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.released {
		h.stopLocked()
		if h.track != nil {
			_ = h.track.Close()
		}
		h.released = true
	}
	h.state = StateErrored
}

// setVolume applies a new volume to the live track.
func (h *Handle) setVolume(volume float64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	volume = audio.ClampVolume(volume)
	if volume == h.volume {
		return false
	}
	h.volume = volume
	if h.track != nil && !h.released {
		h.track.SetVolume(volume)
	}
	return true
}

// setLoop applies a new loop flag to the live track.
func (h *Handle) setLoop(loop bool) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if loop == h.loop {
		return false
	}
	h.loop = loop
	if h.track != nil && !h.released {
		h.track.SetLoop(loop)
	}
	return true
}
