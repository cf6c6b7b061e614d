package playback

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Gesture is a class of user input that counts as an interaction.
type Gesture int

const (
	GesturePointer Gesture = iota + 1
	GestureTouch
	GestureKey
)

// AllGestures lists every gesture class.
var AllGestures = []Gesture{GesturePointer, GestureTouch, GestureKey}

var gestureNames = map[Gesture]string{
	GesturePointer: "pointer",
	GestureTouch:   "touch",
	GestureKey:     "key",
}

func (g Gesture) String() string {
	if name, ok := gestureNames[g]; ok {
		return name
	}
	return fmt.Sprintf("gesture(%d)", int(g))
}

// ParseGesture parses a gesture name.
func ParseGesture(s string) (Gesture, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for g, n := range gestureNames {
		if n == name {
			return g, nil
		}
	}
	return 0, fmt.Errorf("unknown gesture %q (want pointer, touch or key)", s)
}

// Token identifies one arming of a Gate.
type Token uint64

type listener struct {
	token Token
	owner *Gate
	kinds []Gesture
	fire  func(Gesture)
}

// Signals delivers user gestures to armed listeners. It stands in for the
// document-level input events of the presentation layer.
type Signals struct {
	mu        sync.Mutex
	next      Token
	listeners []listener // ordered by token
}

// NewSignals creates a hub with no listeners.
func NewSignals() *Signals {
	return &Signals{}
}

// Notify delivers g to every listener armed for it, oldest first. Each
// listener fires at most once. It returns the number of listeners fired.
func (s *Signals) Notify(g Gesture) int {
	s.mu.Lock()
	var fired []listener
	kept := s.listeners[:0]
	for _, l := range s.listeners {
		if slices.Contains(l.kinds, g) {
			fired = append(fired, l)
		} else {
			kept = append(kept, l)
		}
	}
	clear(s.listeners[len(kept):])
	s.listeners = kept
	s.mu.Unlock()

	// Fire outside the lock so callbacks may arm again
	for _, l := range fired {
		l.fire(g)
	}
	return len(fired)
}

// Pending returns the number of armed listeners.
func (s *Signals) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

func (s *Signals) add(owner *Gate, kinds []Gesture, fire func(Gesture)) Token {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	s.listeners = append(s.listeners, listener{
		token: s.next,
		owner: owner,
		kinds: kinds,
		fire:  fire,
	})
	return s.next
}

func (s *Signals) remove(owner *Gate) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.listeners)
	s.listeners = slices.DeleteFunc(s.listeners, func(l listener) bool {
		return l.owner == owner
	})
	return before - len(s.listeners)
}

func (s *Signals) has(owner *Gate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.ContainsFunc(s.listeners, func(l listener) bool {
		return l.owner == owner
	})
}

// Gate arms one-shot retry callbacks on a Signals hub. Disarming a gate
// only removes its own listeners.
type Gate struct {
	signals *Signals
}

// NewGate creates a gate on signals.
func NewGate(signals *Signals) *Gate {
	return &Gate{signals: signals}
}

// ArmOnce invokes retry exactly once on the first gesture of any class.
func (g *Gate) ArmOnce(retry func(Gesture)) Token {
	return g.signals.add(g, AllGestures, retry)
}

// Disarm removes this gate's pending listeners without firing them.
func (g *Gate) Disarm() int {
	return g.signals.remove(g)
}

// Armed reports whether this gate has a pending listener.
func (g *Gate) Armed() bool {
	return g.signals.has(g)
}
