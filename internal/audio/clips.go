package audio

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
)

// ClipPlayer plays short one-shot sound files from a decoded buffer cache.
type ClipPlayer struct {
	mu     sync.Mutex
	logger *slog.Logger
	output *Output
	policy *GesturePolicy

	// Volume control (0.0 to 1.0)
	volume float64

	// Sound cache
	cache      map[string]*cachedSound
	cacheMutex sync.RWMutex
}

// cachedSound holds a decoded sound ready for playback.
type cachedSound struct {
	buffer *beep.Buffer
	path   string
}

// NewClipPlayer creates a new clip player.
func NewClipPlayer(output *Output, policy *GesturePolicy, logger *slog.Logger) *ClipPlayer {
	if logger == nil {
		logger = slog.Default()
	}

	return &ClipPlayer{
		logger: logger,
		output: output,
		policy: policy,
		volume: 1.0,
		cache:  make(map[string]*cachedSound),
	}
}

// SetVolume sets the clip volume (0.0 to 1.0).
func (p *ClipPlayer) SetVolume(volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.volume = ClampVolume(volume)
	p.logger.Debug("clip volume set", "volume", p.volume)
}

// Volume returns the current clip volume.
func (p *ClipPlayer) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Play plays a sound file once.
func (p *ClipPlayer) Play(path string) error {
	if path == "" {
		return nil
	}
	if err := p.policy.Allow(); err != nil {
		return err
	}

	buffer, err := p.load(ExpandPath(path))
	if err != nil {
		return err
	}

	p.mu.Lock()
	volume := p.volume
	p.mu.Unlock()

	streamer := buffer.Streamer(0, buffer.Len())
	return p.output.Play(withVolume(streamer, volume), buffer.Format())
}

// Preload loads a sound file into the cache for faster playback.
func (p *ClipPlayer) Preload(path string) error {
	if path == "" {
		return nil
	}

	path = ExpandPath(path)
	if _, err := p.load(path); err != nil {
		return err
	}

	p.logger.Debug("preloaded clip", "path", path)
	return nil
}

// Duration returns how long the clip at path plays, loading it on a miss.
func (p *ClipPlayer) Duration(path string) (time.Duration, error) {
	buffer, err := p.load(ExpandPath(path))
	if err != nil {
		return 0, err
	}
	return buffer.Format().SampleRate.D(buffer.Len()), nil
}

// Cached reports whether path is in the cache.
func (p *ClipPlayer) Cached(path string) bool {
	p.cacheMutex.RLock()
	defer p.cacheMutex.RUnlock()
	_, ok := p.cache[ExpandPath(path)]
	return ok
}

// load returns the cached buffer for path, decoding it on a miss.
func (p *ClipPlayer) load(path string) (*beep.Buffer, error) {
	p.cacheMutex.RLock()
	cached, ok := p.cache[path]
	p.cacheMutex.RUnlock()

	if ok {
		return cached.buffer, nil
	}

	buffer, err := decodeBuffer(path)
	if err != nil {
		p.logger.Warn("failed to load clip", "path", path, "error", err)
		return nil, err
	}

	p.cacheMutex.Lock()
	p.cache[path] = &cachedSound{
		buffer: buffer,
		path:   path,
	}
	p.cacheMutex.Unlock()

	return buffer, nil
}

// ClearCache clears the sound cache.
func (p *ClipPlayer) ClearCache() {
	p.cacheMutex.Lock()
	defer p.cacheMutex.Unlock()
	p.cache = make(map[string]*cachedSound)
	p.logger.Debug("clip cache cleared")
}

// InvalidateCache removes a specific path from the cache.
func (p *ClipPlayer) InvalidateCache(path string) {
	p.cacheMutex.Lock()
	defer p.cacheMutex.Unlock()
	delete(p.cache, path)
}
