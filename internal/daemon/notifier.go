package daemon

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/soundstage/internal/synth"
)

// Announcer plays feedback tones for daemon events such as config reloads.
// Repeats of the same event within the minimum interval are dropped.
type Announcer struct {
	mu     sync.Mutex
	logger *slog.Logger

	// Plays the tone for an event
	play func(e synth.Effect)

	// Rate limiting
	lastAnnounce map[string]time.Time // event key -> last announcement
	minInterval  time.Duration

	enabled bool
}

// NewAnnouncer creates an enabled announcer that plays through play.
func NewAnnouncer(play func(e synth.Effect), logger *slog.Logger) *Announcer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Announcer{
		logger:       logger,
		play:         play,
		lastAnnounce: make(map[string]time.Time),
		minInterval:  5 * time.Second,
		enabled:      true,
	}
}

// SetEnabled enables or disables announcements.
func (a *Announcer) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// SetMinInterval sets the minimum interval between repeats of one event.
func (a *Announcer) SetMinInterval(interval time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.minInterval = interval
}

// Announce plays e for the event key unless it is rate limited.
// It reports whether the tone was played.
func (a *Announcer) Announce(key string, e synth.Effect) bool {
	a.mu.Lock()
	if !a.enabled || a.play == nil {
		a.mu.Unlock()
		return false
	}

	if last, ok := a.lastAnnounce[key]; ok && time.Since(last) < a.minInterval {
		a.mu.Unlock()
		a.logger.Debug("announcement rate-limited", "key", key)
		return false
	}
	a.lastAnnounce[key] = time.Now()
	a.mu.Unlock()

	a.logger.Debug("announcing", "key", key, "effect", e)
	a.play(e)
	return true
}

// ConfigReloaded announces a successful config reload.
func (a *Announcer) ConfigReloaded() bool {
	return a.Announce("config-reload", synth.EffectSuccess)
}

// ConfigError announces a config file that failed to load.
func (a *Announcer) ConfigError(err error) bool {
	a.logger.Debug("config error announced", "error", err)
	return a.Announce("config-error", synth.EffectError)
}

// Ready announces that the daemon is accepting requests.
func (a *Announcer) Ready() bool {
	return a.Announce("ready", synth.EffectPop)
}
