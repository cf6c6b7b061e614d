package synth

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/jmylchreest/soundstage/internal/audio"
)

// DefaultSequenceGap is the spacing between chime notes.
const DefaultSequenceGap = 100 * time.Millisecond

// Sink plays a finished streamer. *audio.Output implements it.
type Sink interface {
	Play(s beep.Streamer, format beep.Format) error
}

// Synthesizer plays procedurally generated tones. Every call is
// fire-and-forget: failures are logged at debug level and never reach the
// caller.
type Synthesizer struct {
	mu     sync.Mutex
	logger *slog.Logger
	sink   Sink

	sampleRate beep.SampleRate
	enabled    bool
	volume     float64
	gap        time.Duration

	// Pending chime notes, stopped by Close
	timers map[*time.Timer]struct{}
}

// New creates an enabled synthesizer rendering at sampleRate.
func New(sink Sink, sampleRate int, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	if sampleRate <= 0 {
		sampleRate = 44100
	}

	return &Synthesizer{
		logger:     logger,
		sink:       sink,
		sampleRate: beep.SampleRate(sampleRate),
		enabled:    true,
		volume:     1.0,
		gap:        DefaultSequenceGap,
		timers:     make(map[*time.Timer]struct{}),
	}
}

// SetEnabled turns synthesis on or off.
func (s *Synthesizer) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// Enabled reports whether synthesis is on.
func (s *Synthesizer) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// SetVolume scales every tone's gain by volume (0.0 to 1.0).
func (s *Synthesizer) SetVolume(volume float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = audio.ClampVolume(volume)
}

// SetSequenceGap changes the spacing of chime notes.
func (s *Synthesizer) SetSequenceGap(gap time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gap < 0 {
		gap = 0
	}
	s.gap = gap
}

// Format returns the format tones are rendered in.
func (s *Synthesizer) Format() beep.Format {
	return beep.Format{SampleRate: s.sampleRate, NumChannels: 2, Precision: 2}
}

// Play synthesizes and plays the tone for e.
func (s *Synthesizer) Play(e Effect) {
	tone, ok := tones[e]
	if !ok {
		s.logger.Debug("unknown sound effect", "effect", e)
		return
	}
	s.playTone(tone)
}

// PlaySequence plays the celebration chime. Notes start one sequence gap
// apart and each one is played independently.
func (s *Synthesizer) PlaySequence() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, note := range Chime {
		delay := time.Duration(i) * s.gap
		if delay == 0 {
			go s.playTone(note)
			continue
		}

		var timer *time.Timer
		timer = time.AfterFunc(delay, func() {
			s.mu.Lock()
			delete(s.timers, timer)
			s.mu.Unlock()
			s.playTone(note)
		})
		s.timers[timer] = struct{}{}
	}
}

// SequenceDuration returns how long the chime takes from first note to the
// end of the last.
func (s *Synthesizer) SequenceDuration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(Chime) == 0 {
		return 0
	}
	return time.Duration(len(Chime)-1)*s.gap + Chime[len(Chime)-1].Duration
}

// Pending returns the number of chime notes not yet started.
func (s *Synthesizer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Close cancels chime notes that have not started yet.
func (s *Synthesizer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for timer := range s.timers {
		timer.Stop()
	}
	clear(s.timers)
}

func (s *Synthesizer) playTone(tone Tone) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Debug("tone synthesis unavailable", "frequency", tone.Frequency, "panic", r)
		}
	}()

	s.mu.Lock()
	enabled, volume := s.enabled, s.volume
	s.mu.Unlock()

	if !enabled || s.sink == nil {
		return
	}

	tone.Gain *= volume
	if tone.Gain <= 0 {
		return
	}

	if err := s.sink.Play(Render(tone, s.sampleRate), s.Format()); err != nil {
		s.logger.Debug("tone synthesis unavailable", "frequency", tone.Frequency, "error", err)
	}
}
