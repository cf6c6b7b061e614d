package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/jmylchreest/soundstage/internal/audio"
	"github.com/jmylchreest/soundstage/internal/config"
	"github.com/jmylchreest/soundstage/internal/playback"
	"github.com/jmylchreest/soundstage/internal/synth"
)

var (
	// ErrUnknownMount is returned for a mount ID that is not live.
	ErrUnknownMount = errors.New("unknown mount")
	// ErrUnknownScene is returned for a scene name missing from the config.
	ErrUnknownScene = errors.New("unknown scene")
)

// ClipPlayer plays one-shot sound files. *audio.ClipPlayer implements it.
type ClipPlayer interface {
	Play(path string) error
	Preload(path string) error
	SetVolume(volume float64)
}

// Options overrides the collaborators of a Service. Zero values use the
// beep speaker.
type Options struct {
	Logger  *slog.Logger
	Backend playback.Backend
	Sink    synth.Sink
	Clips   ClipPlayer
	// Policy is shared with a custom Backend so gestures unlock it.
	Policy *audio.GesturePolicy
}

// Service is the process-wide audio coordinator. It owns the registry,
// gesture signals, autoplay policy and every output.
type Service struct {
	mu     sync.RWMutex
	logger *slog.Logger
	cfg    *config.Config

	registry *playback.MemoryRegistry
	signals  *playback.Signals
	policy   *audio.GesturePolicy
	output   *audio.Output
	backend  playback.Backend
	synth    *synth.Synthesizer
	clips    ClipPlayer
	watcher  *audio.Watcher

	// Mounts made through ID-addressed calls
	mounts map[string]*playback.Controller

	onStateChange func(playback.HandleInfo)
	closed        bool
}

// NewService creates a service for cfg.
func NewService(cfg *config.Config, opts Options) *Service {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	output := audio.NewOutput(cfg.Output.SampleRate, cfg.Output.Buffer.Duration(), logger)
	policy := opts.Policy
	if policy == nil {
		policy = audio.NewGesturePolicy(cfg.Playback.RequireGesture)
	}

	s := &Service{
		logger:   logger,
		cfg:      cfg,
		registry: playback.NewRegistry(logger),
		signals:  playback.NewSignals(),
		policy:   policy,
		output:   output,
		backend:  opts.Backend,
		clips:    opts.Clips,
		mounts:   make(map[string]*playback.Controller),
	}

	if s.backend == nil {
		s.backend = audio.NewBackend(output, policy, logger)
	}

	var sink synth.Sink = output
	if opts.Sink != nil {
		sink = opts.Sink
	}
	s.synth = synth.New(sink, cfg.Output.SampleRate, logger)

	if s.clips == nil {
		player := audio.NewClipPlayer(output, policy, logger)
		s.clips = player
		s.watcher = audio.NewWatcher(player, cfg.Clips.PollInterval.Duration(), logger)
	}

	s.applyConfig(cfg)
	return s
}

// Start preloads clips and starts the clip watcher.
func (s *Service) Start(ctx context.Context) error {
	s.mu.RLock()
	cfg := s.cfg
	s.mu.RUnlock()

	if reward := cfg.Clips.Reward; reward != "" {
		if err := s.clips.Preload(reward); err != nil {
			s.logger.Warn("failed to preload reward clip", "path", reward, "error", err)
		}
		if s.watcher != nil {
			s.watcher.Watch(reward)
		}
	}

	if s.watcher != nil && cfg.Clips.Watch {
		if err := s.watcher.Start(ctx); err != nil {
			return fmt.Errorf("starting clip watcher: %w", err)
		}
	}

	s.logger.Info("sound service started", "scenes", len(cfg.Scenes), "require_gesture", cfg.Playback.RequireGesture)
	return nil
}

// SetStateChangeHandler sets the observer of handle transitions. It runs
// while a controller is locked and must not call back into the Service.
func (s *Service) SetStateChangeHandler(fn func(playback.HandleInfo)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStateChange = fn
}

func (s *Service) stateChanged(info playback.HandleInfo) {
	s.mu.RLock()
	fn := s.onStateChange
	s.mu.RUnlock()

	if fn != nil {
		fn(info)
	}
}

func (s *Service) deps() playback.Deps {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return playback.Deps{
		Registry:      s.registry,
		Backend:       s.backend,
		Signals:       s.signals,
		SettleDelay:   s.cfg.Playback.SettleDelay.Duration(),
		Logger:        s.logger,
		OnStateChange: s.stateChanged,
	}
}

// MountConfig returns the configured defaults for source.
func (s *Service) MountConfig(source string) playback.MountConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := s.cfg.Playback
	return playback.MountConfig{
		Source:             audio.ExpandPath(source),
		Loop:               p.Loop,
		Volume:             p.Volume,
		Autoplay:           p.Autoplay,
		RetryOnInteraction: p.RetryOnInteraction,
	}
}

// SceneMountConfig returns the mount configuration of a named scene.
func (s *Service) SceneMountConfig(name string) (playback.MountConfig, error) {
	s.mu.RLock()
	scene, ok := s.cfg.Scene(name)
	s.mu.RUnlock()
	if !ok {
		return playback.MountConfig{}, fmt.Errorf("%w: %q", ErrUnknownScene, name)
	}

	cfg := s.MountConfig(scene.Source)
	cfg.Key = scene.Key
	if scene.Volume != nil {
		cfg.Volume = *scene.Volume
	}
	if scene.Loop != nil {
		cfg.Loop = *scene.Loop
	}
	return cfg, nil
}

// Scenes returns the configured scenes.
func (s *Service) Scenes() []config.SceneConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.cfg.Scenes)
}

// Mount mounts a sound owned by the caller, who must Unmount it.
func (s *Service) Mount(cfg playback.MountConfig) *playback.Controller {
	return playback.Mount(cfg, s.deps())
}

// MountRemote mounts a sound owned by the service and returns its ID.
func (s *Service) MountRemote(cfg playback.MountConfig) (string, error) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return "", errors.New("service closed")
	}

	c := s.Mount(cfg)
	id := c.Info().ID

	s.mu.Lock()
	s.mounts[id] = c
	s.mu.Unlock()

	s.pruneMounts()
	return id, nil
}

// owns reports whether c is still the registered mount for its key. A
// controller loses its entry when a newer mount takes the key or when its
// sound fails.
func (s *Service) owns(c *playback.Controller) bool {
	if !c.Mounted() {
		return false
	}
	h, ok := s.registry.Lookup(c.Key())
	return ok && h == c.Handle()
}

// pruneMounts drops remote mounts that were superseded or errored.
// Controllers are inspected outside s.mu since their state callbacks take it.
func (s *Service) pruneMounts() {
	s.mu.RLock()
	snapshot := maps.Clone(s.mounts)
	s.mu.RUnlock()

	dead := make(map[string]*playback.Controller)
	for id, c := range snapshot {
		if !s.owns(c) {
			dead[id] = c
		}
	}
	if len(dead) == 0 {
		return
	}

	s.mu.Lock()
	for id, c := range dead {
		if s.mounts[id] == c {
			delete(s.mounts, id)
		}
	}
	s.mu.Unlock()

	for id, c := range dead {
		s.logger.Debug("dropping stale mount", "id", id, "key", c.Key())
		c.Unmount()
	}
}

func (s *Service) lookup(id string) (*playback.Controller, error) {
	s.mu.RLock()
	c, ok := s.mounts[id]
	s.mu.RUnlock()

	if ok && !s.owns(c) {
		s.pruneMounts()
		ok = false
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMount, id)
	}
	return c, nil
}

// Unmount tears down a mount made with MountRemote.
func (s *Service) Unmount(id string) error {
	s.mu.Lock()
	c, ok := s.mounts[id]
	delete(s.mounts, id)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMount, id)
	}
	c.Unmount()
	return nil
}

// Update changes the volume and loop flag of a remote mount in place.
func (s *Service) Update(id string, volume float64, loop bool) error {
	c, err := s.lookup(id)
	if err != nil {
		return err
	}

	c.SetVolume(volume)
	c.SetLoop(loop)
	return nil
}

// Play deliberately starts a remote mount.
func (s *Service) Play(id string) error {
	c, err := s.lookup(id)
	if err != nil {
		return err
	}
	c.Play()
	return nil
}

// Mounts returns the IDs of live remote mounts.
func (s *Service) Mounts() []string {
	s.pruneMounts()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.mounts))
}

// StopAllSounds stops every background track except the one under except.
// An empty except stops everything.
func (s *Service) StopAllSounds(except string) {
	s.registry.StopAllExcept(except)
	s.logger.Debug("stopped all sounds", "except", except)
}

// PlayEffect plays a synthesized feedback tone. It never fails.
func (s *Service) PlayEffect(e synth.Effect) {
	s.synth.Play(e)
}

// PlayEffectSequence plays the celebration chime. It never fails.
func (s *Service) PlayEffectSequence() {
	s.synth.PlaySequence()
}

// PlayClip plays a one-shot sound file. An empty path plays the reward clip.
func (s *Service) PlayClip(path string) error {
	if path == "" {
		s.mu.RLock()
		path = s.cfg.Clips.Reward
		s.mu.RUnlock()
	}

	if err := s.clips.Play(path); err != nil {
		s.logger.Debug("clip not played", "path", path, "error", err)
		return err
	}
	return nil
}

// clipTimer is implemented by clip players that can report clip lengths.
type clipTimer interface {
	Duration(path string) (time.Duration, error)
}

// ClipDuration returns how long the clip at path plays, or zero when it is
// unknown. An empty path means the reward clip.
func (s *Service) ClipDuration(path string) time.Duration {
	if path == "" {
		s.mu.RLock()
		path = s.cfg.Clips.Reward
		s.mu.RUnlock()
	}

	timer, ok := s.clips.(clipTimer)
	if !ok || path == "" {
		return 0
	}
	d, err := timer.Duration(path)
	if err != nil {
		s.logger.Debug("clip length unknown", "path", path, "error", err)
		return 0
	}
	return d
}

// EffectDuration returns how long a single effect tone sounds.
func (s *Service) EffectDuration(e synth.Effect) time.Duration {
	tone, ok := synth.ToneFor(e)
	if !ok {
		return 0
	}
	return tone.Duration
}

// SequenceDuration returns how long the celebration chime sounds.
func (s *Service) SequenceDuration() time.Duration {
	return s.synth.SequenceDuration()
}

// Interact records a user gesture. The autoplay policy is unlocked before
// armed retries fire. It returns the number of retries triggered.
func (s *Service) Interact(g playback.Gesture) int {
	if s.policy.Unlock() {
		s.logger.Debug("audio unlocked by user gesture", "gesture", g)
	}
	return s.signals.Notify(g)
}

// Status returns every registered sound sorted by key.
func (s *Service) Status() []playback.HandleInfo {
	return s.registry.Snapshot()
}

// ActiveKey returns the key of the audible background track, if any.
func (s *Service) ActiveKey() string {
	return s.registry.ActiveKey()
}

// Unlocked reports whether a user gesture has been seen.
func (s *Service) Unlocked() bool {
	return s.policy.Unlocked()
}

// Config returns the current configuration.
func (s *Service) Config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// UpdateConfig applies a reloaded configuration. New settings affect
// future mounts; live mounts keep their own volume and loop.
func (s *Service) UpdateConfig(cfg *config.Config) {
	s.mu.Lock()
	old := s.cfg
	s.cfg = cfg
	s.mu.Unlock()

	if old.Output != cfg.Output {
		s.logger.Info("output settings change on restart", "sample_rate", cfg.Output.SampleRate)
	}
	if s.watcher != nil {
		if old.Clips.Reward != cfg.Clips.Reward && old.Clips.Reward != "" {
			s.watcher.Unwatch(old.Clips.Reward)
		}
		if cfg.Clips.Reward != "" {
			s.watcher.Watch(cfg.Clips.Reward)
		}
		s.watcher.SetPollInterval(cfg.Clips.PollInterval.Duration())
	}

	s.applyConfig(cfg)
	s.logger.Debug("service config updated")
}

func (s *Service) applyConfig(cfg *config.Config) {
	s.policy.SetRequired(cfg.Playback.RequireGesture)

	s.synth.SetEnabled(cfg.Effects.Enabled)
	s.synth.SetVolume(cfg.Effects.Volume)
	s.synth.SetSequenceGap(cfg.Effects.SequenceGap.Duration())

	s.clips.SetVolume(cfg.Clips.Volume)
}

// Close unmounts everything and releases the output.
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	mounts := s.mounts
	s.mounts = make(map[string]*playback.Controller)
	s.mu.Unlock()

	for _, c := range mounts {
		c.Unmount()
	}
	s.registry.StopAllExcept("")
	s.synth.Close()
	if s.watcher != nil {
		s.watcher.Stop()
	}
	s.output.Close()
	s.logger.Debug("sound service closed")
}
