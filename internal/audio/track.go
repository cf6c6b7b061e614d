package audio

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
)

// Track is one opened background sound.
type Track interface {
	// Play starts or resumes playback. It returns ErrAutoplayRejected while
	// the gesture policy refuses audio.
	Play() error
	// Pause stops playback, keeping the position.
	Pause()
	// Rewind resets the position to the start.
	Rewind() error
	SetVolume(volume float64)
	SetLoop(loop bool)
	// Close releases the decoder and removes the track from the output.
	Close() error
}

// TrackEvents receives asynchronous notifications from a playing track.
// Callbacks run on their own goroutine, never under the speaker lock.
type TrackEvents struct {
	OnError func(err error)
	OnEnded func()
}

// Backend opens streaming tracks on a shared output.
type Backend struct {
	logger *slog.Logger
	output *Output
	policy *GesturePolicy
}

// NewBackend creates a backend. A nil policy never rejects playback.
func NewBackend(output *Output, policy *GesturePolicy, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		logger: logger,
		output: output,
		policy: policy,
	}
}

// Open opens and starts decoding source. The track is silent until Play.
func (b *Backend) Open(source string, events TrackEvents) (Track, error) {
	path := ExpandPath(source)

	decoder, format, err := openDecoder(path)
	if err != nil {
		return nil, err
	}

	t := &track{
		logger:  b.logger.With("source", source),
		output:  b.output,
		policy:  b.policy,
		decoder: decoder,
		format:  format,
	}
	t.stream = &trackStreamer{
		src:    decoder,
		paused: true,
		onEnded: func() {
			if events.OnEnded != nil {
				go events.OnEnded()
			}
		},
		onError: func(err error) {
			if events.OnError != nil {
				go events.OnError(fmt.Errorf("%w: %w", ErrResource, err))
			}
		},
	}
	t.volume = withVolume(t.stream, 1)
	t.ctrl = &beep.Ctrl{Streamer: t.volume, Paused: true}

	b.logger.Debug("track opened", "source", source, "sample_rate", format.SampleRate)
	return t, nil
}

// track implements Track on top of a beep decoder.
type track struct {
	mu     sync.Mutex
	logger *slog.Logger
	output *Output
	policy *GesturePolicy

	decoder beep.StreamSeekCloser
	format  beep.Format

	stream *trackStreamer
	volume *effects.Volume
	ctrl   *beep.Ctrl

	// Whether the ctrl has been handed to the speaker
	started bool
	closed  bool
}

func (t *track) Play() error {
	if err := t.policy.Allow(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("%w: track closed", ErrResource)
	}

	if !t.started {
		t.output.Lock()
		t.ctrl.Paused = false
		t.stream.paused = false
		t.output.Unlock()

		if err := t.output.Play(t.ctrl, t.format); err != nil {
			return err
		}
		t.started = true
		return nil
	}

	t.output.Lock()
	t.ctrl.Paused = false
	t.stream.paused = false
	t.output.Unlock()
	return nil
}

func (t *track) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.output.Lock()
	t.ctrl.Paused = true
	t.output.Unlock()
}

func (t *track) Rewind() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.output.Lock()
	defer t.output.Unlock()
	return t.decoder.Seek(0)
}

func (t *track) SetVolume(volume float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.output.Lock()
	setVolume(t.volume, volume)
	t.output.Unlock()
}

func (t *track) SetLoop(loop bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.output.Lock()
	t.stream.loop = loop
	t.output.Unlock()
}

func (t *track) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	// A nil streamer makes the ctrl report exhaustion, so the mixer drops it
	t.output.Lock()
	t.ctrl.Streamer = nil
	t.output.Unlock()

	err := t.decoder.Close()
	t.logger.Debug("track closed")
	return err
}

// trackStreamer loops or stops at the end of its source and turns decoder
// errors into silence. All fields are guarded by the speaker lock.
type trackStreamer struct {
	src     beep.StreamSeeker
	loop    bool
	paused  bool
	failed  bool
	onEnded func()
	onError func(err error)
}

func (s *trackStreamer) Stream(samples [][2]float64) (int, bool) {
	filled := 0
	for filled < len(samples) && !s.paused && !s.failed {
		n, ok := s.src.Stream(samples[filled:])
		filled += n

		if err := s.src.Err(); err != nil {
			s.failed = true
			s.onError(err)
			break
		}
		if ok && n > 0 {
			continue
		}

		// End of source
		if err := s.src.Seek(0); err != nil {
			s.failed = true
			s.onError(err)
			break
		}
		if !s.loop || s.src.Len() == 0 {
			s.paused = true
			s.onEnded()
		}
	}

	clear(samples[filled:])
	return len(samples), true
}

func (s *trackStreamer) Err() error {
	return nil
}
