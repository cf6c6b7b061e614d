package audio

import "sync/atomic"

// GesturePolicy refuses playback until the first user gesture has been seen.
// A nil policy allows everything.
type GesturePolicy struct {
	required atomic.Bool
	unlocked atomic.Bool
}

// NewGesturePolicy creates a policy. When required is false playback is always allowed.
func NewGesturePolicy(required bool) *GesturePolicy {
	p := &GesturePolicy{}
	p.required.Store(required)
	return p
}

// Allow returns ErrAutoplayRejected while a gesture is still required.
func (p *GesturePolicy) Allow() error {
	if p == nil || !p.required.Load() || p.unlocked.Load() {
		return nil
	}
	return ErrAutoplayRejected
}

// Unlock records a user gesture. Returns true only for the call that unlocked the policy.
func (p *GesturePolicy) Unlock() bool {
	if p == nil {
		return false
	}
	return p.unlocked.CompareAndSwap(false, true)
}

// Unlocked reports whether a gesture has been recorded.
func (p *GesturePolicy) Unlocked() bool {
	return p != nil && p.unlocked.Load()
}

// SetRequired changes whether a gesture is required.
func (p *GesturePolicy) SetRequired(required bool) {
	if p == nil {
		return
	}
	p.required.Store(required)
}
