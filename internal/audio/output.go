package audio

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

// Output wraps the process-wide beep speaker.
// The speaker is initialized lazily on the first Play so that processes
// without an audio device only fail when they actually try to make noise.
type Output struct {
	mu     sync.Mutex
	logger *slog.Logger

	sampleRate beep.SampleRate
	buffer     time.Duration

	// Whether speaker has been initialized
	initialized bool
}

// NewOutput creates a new speaker output.
func NewOutput(sampleRate int, buffer time.Duration, logger *slog.Logger) *Output {
	if logger == nil {
		logger = slog.Default()
	}
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	if buffer <= 0 {
		buffer = 100 * time.Millisecond
	}

	return &Output{
		logger:     logger,
		sampleRate: beep.SampleRate(sampleRate),
		buffer:     buffer,
	}
}

// SampleRate returns the rate the speaker runs at.
func (o *Output) SampleRate() beep.SampleRate {
	return o.sampleRate
}

// ensureInitialized initializes the speaker if not already done.
func (o *Output) ensureInitialized() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.initialized {
		return nil
	}

	if err := speaker.Init(o.sampleRate, o.sampleRate.N(o.buffer)); err != nil {
		return fmt.Errorf("%w: failed to initialize speaker: %w", ErrOutputUnavailable, err)
	}

	o.initialized = true
	o.logger.Debug("speaker initialized", "sample_rate", o.sampleRate, "buffer", o.buffer)
	return nil
}

// Play hands a streamer to the speaker, resampling from format if necessary.
func (o *Output) Play(s beep.Streamer, format beep.Format) error {
	if err := o.ensureInitialized(); err != nil {
		return err
	}

	if format.SampleRate != 0 && format.SampleRate != o.sampleRate {
		s = beep.Resample(4, format.SampleRate, o.sampleRate, s)
	}

	speaker.Play(s)
	return nil
}

// Lock must be held while mutating a streamer that is already playing.
func (o *Output) Lock() {
	speaker.Lock()
}

// Unlock releases the speaker lock.
func (o *Output) Unlock() {
	speaker.Unlock()
}

// Close stops all playback and releases the device.
func (o *Output) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.initialized {
		speaker.Clear()
		speaker.Close()
		o.initialized = false
	}
	o.logger.Debug("speaker closed")
}

// withVolume wraps s in a volume effect for a linear volume in [0, 1].
func withVolume(s beep.Streamer, volume float64) *effects.Volume {
	v := &effects.Volume{Streamer: s, Base: 2}
	setVolume(v, volume)
	return v
}

// setVolume updates a volume effect. The caller holds the speaker lock if v is playing.
func setVolume(v *effects.Volume, volume float64) {
	volume = ClampVolume(volume)
	v.Silent = volume == 0
	if volume > 0 {
		v.Volume = math.Log2(volume)
	}
}

// ClampVolume limits a volume to [0, 1].
func ClampVolume(volume float64) float64 {
	if math.IsNaN(volume) {
		return 0
	}
	return math.Max(0, math.Min(1, volume))
}
