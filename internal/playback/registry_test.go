package playback

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/soundstage/internal/audio"
)

// playingHandle creates a handle with an attached fake track and starts it.
func playingHandle(t *testing.T, b *fakeBackend, key string) (*Handle, *fakeTrack) {
	t.Helper()

	tr, err := b.Open(key+".mp3", audio.TrackEvents{})
	require.NoError(t, err)

	h := newHandle(key, key+".mp3", true, 0.5)
	h.attach(tr)
	require.NoError(t, h.start())
	return h, tr.(*fakeTrack)
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry(nil)
	assert.Zero(t, r.Len())
	assert.Empty(t, r.ActiveKey())
	assert.Empty(t, r.Snapshot())
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	b := newFakeBackend(nil)
	r := NewRegistry(nil)

	old, oldTrack := playingHandle(t, b, "bgm")
	r.Register("bgm", old)
	r.MarkActive("bgm")

	// Registering the same handle again is a no-op
	r.Register("bgm", old)
	assert.False(t, old.Released())
	assert.Equal(t, "bgm", r.ActiveKey())

	replacement, _ := playingHandle(t, b, "bgm")
	r.Register("bgm", replacement)

	assert.True(t, old.Released())
	assert.True(t, oldTrack.Closed())
	assert.Empty(t, r.ActiveKey(), "active key belonged to the replaced handle")

	h, ok := r.Lookup("bgm")
	require.True(t, ok)
	assert.Same(t, replacement, h)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_MarkActive(t *testing.T) {
	b := newFakeBackend(nil)
	r := NewRegistry(nil)

	r.MarkActive("missing")
	assert.Empty(t, r.ActiveKey())

	loading := newHandle("loading", "loading.mp3", true, 0.5)
	r.Register("loading", loading)
	r.MarkActive("loading")
	assert.Empty(t, r.ActiveKey(), "only playing handles become active")

	h, _ := playingHandle(t, b, "bgm")
	r.Register("bgm", h)
	r.MarkActive("bgm")
	assert.Equal(t, "bgm", r.ActiveKey())
}

func TestRegistry_StopAllExcept(t *testing.T) {
	b := newFakeBackend(nil)
	r := NewRegistry(nil)

	handles := map[string]*Handle{}
	tracks := map[string]*fakeTrack{}
	for _, key := range []string{"a", "b", "c"} {
		h, tr := playingHandle(t, b, key)
		r.Register(key, h)
		handles[key] = h
		tracks[key] = tr
	}
	r.MarkActive("b")

	r.StopAllExcept("b")
	assert.Equal(t, StateIdle, handles["a"].State())
	assert.Equal(t, StatePlaying, handles["b"].State())
	assert.Equal(t, StateIdle, handles["c"].State())
	assert.Equal(t, 1, tracks["a"].rewinds)
	assert.Zero(t, tracks["b"].rewinds)
	assert.Equal(t, "b", r.ActiveKey())

	r.StopAllExcept("")
	assert.Equal(t, StateIdle, handles["b"].State())
	assert.False(t, tracks["b"].Playing())
	assert.Empty(t, r.ActiveKey())
	assert.Equal(t, 3, r.Len())
}

func TestRegistry_Acquire(t *testing.T) {
	b := newFakeBackend(nil)
	r := NewRegistry(nil)

	a, trA := playingHandle(t, b, "a")
	r.Register("a", a)
	r.MarkActive("a")

	tr, err := b.Open("b.mp3", audio.TrackEvents{})
	require.NoError(t, err)
	h := newHandle("b", "b.mp3", true, 0.5)
	h.attach(tr)
	r.Register("b", h)

	require.NoError(t, r.Acquire("b", h.start))
	assert.Equal(t, StateIdle, a.State())
	assert.False(t, trA.Playing())
	assert.Equal(t, StatePlaying, h.State())
	assert.Equal(t, "b", r.ActiveKey())

	// A failed start leaves nothing active
	boom := errors.New("device busy")
	assert.ErrorIs(t, r.Acquire("a", func() error { return boom }), boom)
	assert.Equal(t, StateIdle, h.State())
	assert.Empty(t, r.ActiveKey())
}

func TestRegistry_AcquireSerializesStarts(t *testing.T) {
	r := NewRegistry(nil)

	var (
		mu      sync.Mutex
		running int
		peak    int
	)
	start := func() error {
		mu.Lock()
		running++
		peak = max(peak, running)
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		running--
		mu.Unlock()
		return nil
	}

	var wg sync.WaitGroup
	for i := range 8 {
		key := string(rune('a' + i))
		wg.Go(func() { _ = r.Acquire(key, start) })
	}
	wg.Wait()

	assert.Equal(t, 1, peak)
}

func TestRegistry_StopAllExceptClearsStoppedActive(t *testing.T) {
	b := newFakeBackend(nil)
	r := NewRegistry(nil)

	h, _ := playingHandle(t, b, "a")
	r.Register("a", h)
	r.MarkActive("a")

	r.StopAllExcept("b")
	assert.Empty(t, r.ActiveKey())
	assert.Equal(t, StateIdle, h.State())
}

func TestRegistry_UnregisterIdentity(t *testing.T) {
	b := newFakeBackend(nil)
	r := NewRegistry(nil)

	stale, _ := playingHandle(t, b, "bgm")
	current, _ := playingHandle(t, b, "bgm")
	r.Register("bgm", current)
	r.MarkActive("bgm")

	assert.False(t, r.Unregister("bgm", stale))
	assert.Equal(t, "bgm", r.ActiveKey())
	assert.Equal(t, 1, r.Len())

	assert.True(t, r.Unregister("bgm", current))
	assert.Empty(t, r.ActiveKey())
	assert.Zero(t, r.Len())

	assert.False(t, r.Unregister("bgm", current))
}

func TestRegistry_Deactivate(t *testing.T) {
	b := newFakeBackend(nil)
	r := NewRegistry(nil)

	stale, _ := playingHandle(t, b, "bgm")
	h, _ := playingHandle(t, b, "bgm")
	r.Register("bgm", h)
	r.MarkActive("bgm")

	r.Deactivate("bgm", stale)
	assert.Equal(t, "bgm", r.ActiveKey())

	r.Deactivate("other", h)
	assert.Equal(t, "bgm", r.ActiveKey())

	r.Deactivate("bgm", h)
	assert.Empty(t, r.ActiveKey())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_Snapshot(t *testing.T) {
	b := newFakeBackend(nil)
	r := NewRegistry(nil)

	for _, key := range []string{"park", "beach", "forest"} {
		h, _ := playingHandle(t, b, key)
		r.Register(key, h)
	}
	r.StopAllExcept("forest")
	r.MarkActive("forest")

	snap := r.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "beach", snap[0].Key)
	assert.Equal(t, "forest", snap[1].Key)
	assert.Equal(t, "park", snap[2].Key)

	assert.False(t, snap[0].Active)
	assert.True(t, snap[1].Active)
	assert.Equal(t, StatePlaying, snap[1].State)
	assert.Equal(t, StateIdle, snap[2].State)
	assert.Equal(t, "forest.mp3", snap[1].Source)
	assert.Len(t, snap[1].ID, 26)
}

func TestState_Text(t *testing.T) {
	for state, name := range StateNames {
		text, err := state.MarshalText()
		require.NoError(t, err)
		assert.Equal(t, name, string(text))

		var parsed State
		require.NoError(t, parsed.UnmarshalText([]byte(name)))
		assert.Equal(t, state, parsed)
	}

	var s State
	assert.Error(t, s.UnmarshalText([]byte("paused")))
	assert.Equal(t, "state(42)", State(42).String())
}

func TestHandleInfo_JSON(t *testing.T) {
	h := newHandle("bgm", "forest.mp3", false, 0.25)

	data, err := json.Marshal(h.Info())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"state":"loading"`)
	assert.Contains(t, string(data), `"key":"bgm"`)
	assert.Contains(t, string(data), `"volume":0.25`)
}

func TestHandle_StartGuards(t *testing.T) {
	b := newFakeBackend(audio.NewGesturePolicy(true))

	h := newHandle("bgm", "bgm.mp3", true, 0.5)
	assert.ErrorIs(t, h.start(), errReleased, "no track attached yet")

	tr, err := b.Open("bgm.mp3", audio.TrackEvents{})
	require.NoError(t, err)
	h.attach(tr)

	assert.ErrorIs(t, h.start(), audio.ErrAutoplayRejected)
	h.suspend()
	assert.Equal(t, StateSuspended, h.State())

	b.policy.Unlock()
	require.NoError(t, h.start())
	assert.Equal(t, StatePlaying, h.State())

	// A second start on a playing handle does not restart the track
	require.NoError(t, h.start())
	assert.Equal(t, 2, tr.(*fakeTrack).Plays())

	h.release()
	h.release()
	assert.True(t, h.Released())
	assert.Equal(t, StateIdle, h.State())
	assert.ErrorIs(t, h.start(), errReleased)

	h.fail()
	assert.Equal(t, StateErrored, h.State())
}
