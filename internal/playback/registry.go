package playback

import (
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// Registry tracks the live handle for every mounted key and which key is
// the sole permitted background track. All mutation goes through these
// operations.
type Registry interface {
	// Register inserts or replaces the entry for key. A different handle
	// already registered under key is stopped and released first.
	Register(key string, h *Handle)
	// StopAllExcept pauses and rewinds every entry whose key differs from
	// key. An empty key exempts nothing. Entries are not removed.
	StopAllExcept(key string)
	// MarkActive records key as the active background track.
	MarkActive(key string)
	// Acquire makes key the active background track. Every other entry is
	// stopped, start runs and, if it succeeds, key is marked active, all
	// under one start lock so concurrent acquisitions cannot both play.
	Acquire(key string, start func() error) error
	// Unregister removes the entry for key only if it is still h.
	// It reports whether anything was removed.
	Unregister(key string, h *Handle) bool
	// Deactivate clears the active key if it is key and still owned by h.
	Deactivate(key string, h *Handle)

	ActiveKey() string
	Lookup(key string) (*Handle, bool)
	Snapshot() []HandleInfo
	Len() int
}

// MemoryRegistry is the in-memory Registry. Its lifetime is the process.
type MemoryRegistry struct {
	// startMu serializes Acquire; it is taken before mu
	startMu sync.Mutex

	mu        sync.RWMutex
	logger    *slog.Logger
	entries   map[string]*Handle
	activeKey string
}

// NewRegistry creates an empty registry with no active key.
func NewRegistry(logger *slog.Logger) *MemoryRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryRegistry{
		logger:  logger,
		entries: make(map[string]*Handle),
	}
}

func (r *MemoryRegistry) Register(key string, h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[key]; ok && existing != h {
		existing.release()
		if r.activeKey == key {
			r.activeKey = ""
		}
		r.logger.Debug("replaced existing sound", "key", key, "old_id", existing.ID(), "new_id", h.ID())
	}
	r.entries[key] = h
}

func (r *MemoryRegistry) StopAllExcept(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, h := range r.entries {
		if k == key {
			continue
		}
		h.stop()
	}

	// The active entry was stopped unless it is the exempted one
	if key == "" || r.activeKey != key {
		r.activeKey = ""
	}
}

func (r *MemoryRegistry) MarkActive(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.entries[key]
	if !ok || h.State() != StatePlaying {
		return
	}
	r.activeKey = key
}

func (r *MemoryRegistry) Acquire(key string, start func() error) error {
	r.startMu.Lock()
	defer r.startMu.Unlock()

	r.StopAllExcept(key)
	if err := start(); err != nil {
		return err
	}
	r.MarkActive(key)
	return nil
}

func (r *MemoryRegistry) Unregister(key string, h *Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.entries[key]; !ok || current != h {
		return false
	}
	delete(r.entries, key)
	if r.activeKey == key {
		r.activeKey = ""
	}
	return true
}

func (r *MemoryRegistry) Deactivate(key string, h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.activeKey == key && r.entries[key] == h {
		r.activeKey = ""
	}
}

// ActiveKey returns the active key, or "" when nothing is active.
func (r *MemoryRegistry) ActiveKey() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeKey
}

// Lookup returns the handle registered under key.
func (r *MemoryRegistry) Lookup(key string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.entries[key]
	return h, ok
}

// Snapshot returns every entry sorted by key.
func (r *MemoryRegistry) Snapshot() []HandleInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]HandleInfo, 0, len(r.entries))
	for key, h := range r.entries {
		info := h.Info()
		info.Active = key == r.activeKey
		infos = append(infos, info)
	}
	slices.SortFunc(infos, func(a, b HandleInfo) int {
		return strings.Compare(a.Key, b.Key)
	})
	return infos
}

// Len returns the number of registered entries.
func (r *MemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
