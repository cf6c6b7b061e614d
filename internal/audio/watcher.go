package audio

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"
)

// Invalidator drops cached decodes of a file.
type Invalidator interface {
	InvalidateCache(path string)
}

// fingerprint identifies one version of a file on disk.
type fingerprint struct {
	modTime time.Time
	size    int64
	exists  bool
}

func stat(path string) fingerprint {
	info, err := os.Stat(path)
	if err != nil {
		return fingerprint{}
	}
	return fingerprint{modTime: info.ModTime(), size: info.Size(), exists: true}
}

// Watcher polls clip files and invalidates the cache when one is
// rewritten, replaced or removed.
type Watcher struct {
	mu       sync.Mutex
	logger   *slog.Logger
	cache    Invalidator
	files    map[string]fingerprint
	interval time.Duration

	// Wakes the poll loop after an interval change
	reset   chan struct{}
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewWatcher creates a clip watcher polling every interval.
func NewWatcher(cache Invalidator, interval time.Duration, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Watcher{
		logger:   logger,
		cache:    cache,
		files:    make(map[string]fingerprint),
		interval: interval,
		reset:    make(chan struct{}, 1),
	}
}

// SetPollInterval changes the polling interval, including for a running
// watcher. Non-positive values are ignored.
func (w *Watcher) SetPollInterval(interval time.Duration) {
	if interval <= 0 {
		return
	}
	w.mu.Lock()
	changed := w.interval != interval
	w.interval = interval
	w.mu.Unlock()

	if changed {
		select {
		case w.reset <- struct{}{}:
		default:
		}
	}
}

// Watch starts tracking path. The file does not need to exist yet.
func (w *Watcher) Watch(path string) {
	if path == "" {
		return
	}
	path = ExpandPath(path)
	fp := stat(path)

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[path]; !ok {
		w.files[path] = fp
	}
}

// Unwatch stops tracking path.
func (w *Watcher) Unwatch(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.files, ExpandPath(path))
}

// Watched returns the tracked paths in sorted order.
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	paths := make([]string, 0, len(w.files))
	for p := range w.files {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// Start runs the poll loop until Stop is called or ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.stopped = make(chan struct{})
	go w.run(ctx, w.stopped)

	w.logger.Debug("clip watcher started", "interval", w.interval)
	return nil
}

// Stop ends the poll loop and waits for it to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel, stopped := w.cancel, w.stopped
	w.cancel = nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-stopped
	w.logger.Debug("clip watcher stopped")
}

// Running reports whether the poll loop is active.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cancel != nil
}

func (w *Watcher) currentInterval() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.interval
}

func (w *Watcher) run(ctx context.Context, stopped chan<- struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(w.currentInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.reset:
			ticker.Reset(w.currentInterval())
		case <-ticker.C:
			w.scan()
		}
	}
}

// scan invalidates every tracked file whose fingerprint changed and
// returns their paths.
func (w *Watcher) scan() []string {
	w.mu.Lock()
	paths := make([]string, 0, len(w.files))
	for p := range w.files {
		paths = append(paths, p)
	}
	w.mu.Unlock()
	slices.Sort(paths)

	var changed []string
	for _, path := range paths {
		fp := stat(path)

		w.mu.Lock()
		last, tracked := w.files[path]
		if tracked {
			w.files[path] = fp
		}
		w.mu.Unlock()

		// A file that never existed has nothing cached
		if !tracked || fp == last || (!fp.exists && !last.exists) {
			continue
		}
		changed = append(changed, path)
	}

	for _, path := range changed {
		w.logger.Debug("clip file changed, invalidating cache", "path", path)
		if w.cache != nil {
			w.cache.InvalidateCache(path)
		}
	}
	return changed
}
