package playback

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/soundstage/internal/audio"
)

// DefaultSettleDelay is how long an autoplay attempt waits after the
// exclusivity stop before starting the new track.
const DefaultSettleDelay = 300 * time.Millisecond

// MountConfig is the declarative configuration of one mounted sound.
type MountConfig struct {
	// Key is the logical identity. Empty means the source is used.
	Key    string
	Source string
	Loop   bool
	Volume float64
	// Autoplay starts the track after the settle delay.
	Autoplay bool
	// RetryOnInteraction waits for a user gesture when a start is rejected.
	RetryOnInteraction bool
}

// DefaultMountConfig returns the default configuration for source.
func DefaultMountConfig(source string) MountConfig {
	return MountConfig{
		Source:             source,
		Loop:               true,
		Volume:             0.5,
		Autoplay:           true,
		RetryOnInteraction: true,
	}
}

// ResolvedKey returns the explicit key, or the source when none is set.
// Two mounts of the same source without a key suppress each other.
func (c MountConfig) ResolvedKey() string {
	if c.Key != "" {
		return c.Key
	}
	return c.Source
}

// Backend opens tracks. *audio.Backend implements it.
type Backend interface {
	Open(source string, events audio.TrackEvents) (audio.Track, error)
}

// Deps are the shared collaborators of every controller.
type Deps struct {
	Registry Registry
	Backend  Backend
	Signals  *Signals

	// SettleDelay before autoplay attempts. Zero or less attempts immediately.
	SettleDelay time.Duration

	Logger *slog.Logger

	// OnStateChange observes every handle transition. It runs with the
	// controller locked and must not call back into the controller.
	OnStateChange func(info HandleInfo)
}

// Controller drives one handle from mount to unmount.
type Controller struct {
	mu     sync.Mutex
	deps   Deps
	logger *slog.Logger

	cfg     MountConfig
	key     string
	handle  *Handle
	gate    *Gate
	timer   *time.Timer
	mounted bool
}

// Mount creates a controller and applies cfg: other sounds are stopped, the
// track is opened and registered, and playback is scheduled. Failures are
// logged and leave the handle Errored; they are never returned.
func Mount(cfg MountConfig, deps Deps) *Controller {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Signals == nil {
		deps.Signals = NewSignals()
	}

	c := &Controller{
		deps:   deps,
		logger: deps.Logger,
		cfg:    cfg,
		gate:   NewGate(deps.Signals),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.mountLocked()
	return c
}

func (c *Controller) mountLocked() {
	key := c.cfg.ResolvedKey()
	c.key = key
	c.mounted = true

	h := newHandle(key, c.cfg.Source, c.cfg.Loop, c.cfg.Volume)
	c.handle = h

	if key == "" {
		c.logger.Warn("sound has no source")
		h.fail()
		c.notifyLocked(h)
		return
	}

	// Silence everything else before the new track exists
	c.deps.Registry.StopAllExcept(key)
	c.deps.Registry.Register(key, h)
	c.notifyLocked(h)

	track, err := c.deps.Backend.Open(c.cfg.Source, audio.TrackEvents{
		OnError: func(err error) { c.onTrackError(h, err) },
		OnEnded: func() { c.onTrackEnded(h) },
	})
	if err != nil {
		c.failLocked(h, err)
		return
	}
	h.attach(track)

	c.logger.Debug("sound mounted", "key", key, "id", h.ID(), "source", c.cfg.Source,
		"autoplay", c.cfg.Autoplay, "loop", c.cfg.Loop, "volume", h.Volume())

	switch {
	case c.cfg.Autoplay:
		c.scheduleLocked(h)
	case c.cfg.RetryOnInteraction:
		c.armLocked(h)
	}
}

// scheduleLocked attempts a start once the settle delay has passed.
func (c *Controller) scheduleLocked(h *Handle) {
	c.stopTimerLocked()

	delay := c.deps.SettleDelay
	if delay <= 0 {
		c.attemptLocked(h)
		return
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if c.timer == timer {
			c.timer = nil
		}
		if !c.mounted || c.handle != h {
			return
		}
		c.attemptLocked(h)
	})
	c.timer = timer
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// attemptLocked tries to start h and routes the result.
func (c *Controller) attemptLocked(h *Handle) {
	if h.Released() {
		return
	}

	err := c.deps.Registry.Acquire(c.key, h.start)
	switch {
	case err == nil:
		c.gate.Disarm()
		c.logger.Debug("sound playing", "key", c.key, "id", h.ID())
		c.notifyLocked(h)

	case errors.Is(err, audio.ErrAutoplayRejected):
		h.suspend()
		c.logger.Debug("sound start rejected by autoplay policy", "key", c.key, "retry", c.cfg.RetryOnInteraction)
		c.notifyLocked(h)
		if c.cfg.RetryOnInteraction {
			c.armLocked(h)
		}

	case errors.Is(err, errReleased), errors.Is(err, errAttemptInProgress):
		// Superseded or already starting

	default:
		c.failLocked(h, err)
	}
}

// armLocked waits for the next user gesture and retries once.
func (c *Controller) armLocked(h *Handle) {
	// A pending arm already covers this handle
	if c.gate.Armed() {
		return
	}

	c.gate.ArmOnce(func(g Gesture) {
		c.mu.Lock()
		defer c.mu.Unlock()

		if !c.mounted || c.handle != h {
			return
		}
		c.logger.Debug("retrying sound after interaction", "key", c.key, "gesture", g)
		c.attemptLocked(h)
	})
}

// failLocked handles a resource error. The handle is detached from the
// registry and the failure is only logged.
func (c *Controller) failLocked(h *Handle, err error) {
	c.logger.Warn("sound failed", "key", c.key, "source", c.cfg.Source, "error", err)

	h.fail()
	c.deps.Registry.Unregister(c.key, h)
	if c.handle == h {
		c.gate.Disarm()
		c.stopTimerLocked()
	}
	c.notifyLocked(h)
}

func (c *Controller) onTrackError(h *Handle, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle != h || h.State() == StateErrored {
		return
	}
	c.failLocked(h, err)
}

func (c *Controller) onTrackEnded(h *Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle != h || !h.ended() {
		return
	}
	c.deps.Registry.Deactivate(c.key, h)
	c.logger.Debug("sound ended", "key", c.key, "id", h.ID())
	c.notifyLocked(h)
}

func (c *Controller) notifyLocked(h *Handle) {
	if c.deps.OnStateChange == nil {
		return
	}
	info := h.Info()
	info.Active = c.deps.Registry.ActiveKey() == h.Key() && c.handle == h && h.State() == StatePlaying
	c.deps.OnStateChange(info)
}

// Update applies a new configuration. Volume and loop changes are applied
// to the live track; a new key or source remounts.
func (c *Controller) Update(cfg MountConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.mounted {
		return
	}

	if cfg.ResolvedKey() != c.key || cfg.Source != c.cfg.Source {
		c.logger.Debug("sound source changed, remounting", "old_key", c.key, "new_key", cfg.ResolvedKey())
		c.unmountLocked()
		c.cfg = cfg
		c.mountLocked()
		return
	}

	c.cfg = cfg
	changed := c.handle.setVolume(cfg.Volume)
	if c.handle.setLoop(cfg.Loop) {
		changed = true
	}
	if changed {
		c.notifyLocked(c.handle)
	}
}

// SetVolume changes the volume of the live track.
func (c *Controller) SetVolume(volume float64) {
	c.mu.Lock()
	cfg := c.cfg
	c.mu.Unlock()

	cfg.Volume = volume
	c.Update(cfg)
}

// SetLoop changes the loop flag of the live track.
func (c *Controller) SetLoop(loop bool) {
	c.mu.Lock()
	cfg := c.cfg
	c.mu.Unlock()

	cfg.Loop = loop
	c.Update(cfg)
}

// Play is a deliberate start, used when autoplay is off or the track was
// stopped. It is ignored once unmounted.
func (c *Controller) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.mounted {
		return
	}
	c.stopTimerLocked()
	c.attemptLocked(c.handle)
}

// Unmount stops and releases the track, removes it from the registry, and
// cancels any pending timer or gesture listener. After it returns the
// controller makes no further sound. Calling it again does nothing.
func (c *Controller) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.mounted {
		return
	}
	c.unmountLocked()
}

func (c *Controller) unmountLocked() {
	c.mounted = false
	c.stopTimerLocked()
	c.gate.Disarm()

	h := c.handle
	h.release()
	if !c.deps.Registry.Unregister(c.key, h) {
		c.logger.Debug("unmount of superseded sound", "key", c.key, "id", h.ID())
	}
	c.logger.Debug("sound unmounted", "key", c.key, "id", h.ID())
	c.notifyLocked(h)
}

// Info returns the current handle snapshot.
func (c *Controller) Info() HandleInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	info := c.handle.Info()
	info.Active = c.mounted && c.deps.Registry.ActiveKey() == c.key && info.State == StatePlaying
	return info
}

// Key returns the resolved key of the current mount.
func (c *Controller) Key() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.key
}

// Handle returns the current handle.
func (c *Controller) Handle() *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle
}

// Mounted reports whether Unmount has not yet been called.
func (c *Controller) Mounted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mounted
}
