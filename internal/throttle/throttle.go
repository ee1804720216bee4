// Package throttle gates how often movement intents are emitted, whatever
// the input frequency.
package throttle

import (
	"sync"
	"time"
)

// State of the gate.
type State int

const (
	Idle State = iota
	Emitted
)

func (s State) String() string {
	if s == Emitted {
		return "emitted"
	}
	return "idle"
}

// Intent is one movement request.
type Intent struct {
	Direction Direction
	At        time.Time
}

// Throttle drops intents that arrive inside the window after the last
// emitted one. Dropped intents are never queued.
type Throttle struct {
	mu        sync.Mutex
	window    time.Duration
	last      time.Time
	emitted   bool
	locked    bool
	animating bool
	count     int
}

// New returns a throttle with the given window.
func New(window time.Duration) *Throttle {
	return &Throttle{window: window}
}

// Window returns the configured window.
func (t *Throttle) Window() time.Duration { return t.window }

// CanEmit is a pure query of now - lastEmittedAt >= window. The first
// intent is always eligible.
func (t *Throttle) CanEmit(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.canEmit(now)
}

func (t *Throttle) canEmit(now time.Time) bool {
	return !t.emitted || now.Sub(t.last) >= t.window
}

// State reports the gate state at now.
func (t *Throttle) State(now time.Time) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.emitted && now.Sub(t.last) < t.window {
		return Emitted
	}
	return Idle
}

// Offer tries to emit an intent at now. It returns false when the game is
// locked, an animation is running, or the window has not elapsed. The
// direction has no influence on eligibility.
func (t *Throttle) Offer(now time.Time, dir Direction) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.locked || t.animating || dir == None {
		return false
	}
	if !t.canEmit(now) {
		return false
	}
	t.last = now
	t.emitted = true
	t.count++
	return true
}

// SetLocked blocks every intent, e.g. once the game is over.
func (t *Throttle) SetLocked(v bool) {
	t.mu.Lock()
	t.locked = v
	t.mu.Unlock()
}

// SetAnimating blocks intents while a move animation is in flight.
func (t *Throttle) SetAnimating(v bool) {
	t.mu.Lock()
	t.animating = v
	t.mu.Unlock()
}

// Emitted returns how many intents have passed the gate.
func (t *Throttle) Emitted() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// Reset forgets the last emission.
func (t *Throttle) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.emitted = false
	t.last = time.Time{}
	t.count = 0
}
