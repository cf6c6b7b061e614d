package playback

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jmylchreest/soundstage/internal/audio"
)

// fakeBackend opens in-memory tracks that obey a gesture policy.
type fakeBackend struct {
	mu      sync.Mutex
	policy  *audio.GesturePolicy
	missing map[string]bool
	opened  []*fakeTrack

	// playDelay slows every Play call, like a device that takes a while
	// to start producing sound.
	playDelay time.Duration
}

func newFakeBackend(policy *audio.GesturePolicy) *fakeBackend {
	return &fakeBackend{
		policy:  policy,
		missing: make(map[string]bool),
	}
}

func (b *fakeBackend) Open(source string, events audio.TrackEvents) (audio.Track, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.missing[source] {
		return nil, fmt.Errorf("%w: open %s: no such file", audio.ErrResource, source)
	}
	t := &fakeTrack{backend: b, source: source, events: events}
	b.opened = append(b.opened, t)
	return t, nil
}

// tracks returns every track opened for source, oldest first.
func (b *fakeBackend) tracks(source string) []*fakeTrack {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []*fakeTrack
	for _, t := range b.opened {
		if t.source == source {
			out = append(out, t)
		}
	}
	return out
}

func (b *fakeBackend) last(t *testing.T, source string) *fakeTrack {
	t.Helper()
	tracks := b.tracks(source)
	if len(tracks) == 0 {
		t.Fatalf("no track opened for %q", source)
	}
	return tracks[len(tracks)-1]
}

// audible counts tracks currently producing sound.
func (b *fakeBackend) audible() int {
	b.mu.Lock()
	opened := append([]*fakeTrack(nil), b.opened...)
	b.mu.Unlock()

	n := 0
	for _, t := range opened {
		if t.Playing() {
			n++
		}
	}
	return n
}

type fakeTrack struct {
	mu      sync.Mutex
	backend *fakeBackend
	source  string
	events  audio.TrackEvents

	playing bool
	closed  bool
	plays   int
	rewinds int
	volume  float64
	loop    bool
}

func (t *fakeTrack) Play() error {
	t.backend.mu.Lock()
	delay := t.backend.playDelay
	t.backend.mu.Unlock()
	time.Sleep(delay)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.plays++
	if err := t.backend.policy.Allow(); err != nil {
		return err
	}
	if t.closed {
		return errors.New("track closed")
	}
	t.playing = true
	return nil
}

func (t *fakeTrack) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.playing = false
}

func (t *fakeTrack) Rewind() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rewinds++
	return nil
}

func (t *fakeTrack) SetVolume(volume float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.volume = volume
}

func (t *fakeTrack) SetLoop(loop bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loop = loop
}

func (t *fakeTrack) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.playing = false
	t.closed = true
	return nil
}

func (t *fakeTrack) Playing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.playing
}

func (t *fakeTrack) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *fakeTrack) Plays() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.plays
}

func (t *fakeTrack) Volume() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.volume
}

func (t *fakeTrack) Loop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loop
}

// finish simulates the natural end of the track.
func (t *fakeTrack) finish() {
	t.mu.Lock()
	t.playing = false
	t.mu.Unlock()
	t.events.OnEnded()
}

// corrupt simulates a decode error reported after mount.
func (t *fakeTrack) corrupt() {
	t.mu.Lock()
	t.playing = false
	t.mu.Unlock()
	t.events.OnError(fmt.Errorf("%w: corrupt frame", audio.ErrResource))
}

type fixture struct {
	registry *MemoryRegistry
	backend  *fakeBackend
	signals  *Signals
	policy   *audio.GesturePolicy
	deps     Deps

	mu      sync.Mutex
	changes []HandleInfo
}

// newFixture builds isolated collaborators. Autoplay attempts run
// synchronously inside Mount.
func newFixture(requireGesture bool) *fixture {
	f := &fixture{
		registry: NewRegistry(nil),
		signals:  NewSignals(),
		policy:   audio.NewGesturePolicy(requireGesture),
	}
	f.backend = newFakeBackend(f.policy)
	f.deps = Deps{
		Registry: f.registry,
		Backend:  f.backend,
		Signals:  f.signals,
		OnStateChange: func(info HandleInfo) {
			f.mu.Lock()
			f.changes = append(f.changes, info)
			f.mu.Unlock()
		},
	}
	return f
}

func (f *fixture) mount(key, source string) *Controller {
	cfg := DefaultMountConfig(source)
	cfg.Key = key
	return Mount(cfg, f.deps)
}

// gesture unlocks the policy and then delivers g, like a real interaction.
func (f *fixture) gesture(g Gesture) int {
	f.policy.Unlock()
	return f.signals.Notify(g)
}

func (f *fixture) states() []State {
	f.mu.Lock()
	defer f.mu.Unlock()

	states := make([]State, 0, len(f.changes))
	for _, c := range f.changes {
		states = append(states, c.State)
	}
	return states
}

// playingKeys returns every registered key whose handle is Playing.
func (f *fixture) playingKeys() []string {
	var keys []string
	for _, info := range f.registry.Snapshot() {
		if info.State == StatePlaying {
			keys = append(keys, info.Key)
		}
	}
	return keys
}
