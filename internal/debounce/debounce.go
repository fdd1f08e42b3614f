// Package debounce provides a cancellable timer that coalesces bursts of triggers
// into a single callback once a quiet period has elapsed.
package debounce

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Timer runs at most one pending callback. Arming it again before the delay elapses
// replaces the pending callback and restarts the delay.
type Timer struct {
	clock clock.Clock
	delay time.Duration

	mu      sync.Mutex
	timer   *clock.Timer
	gen     uint64
	pending bool
}

func New(c clock.Clock, delay time.Duration) *Timer {
	if c == nil {
		c = clock.New()
	}
	return &Timer{clock: c, delay: delay}
}

// Delay returns the quiet period the timer waits for.
func (t *Timer) Delay() time.Duration {
	return t.delay
}

// Arm schedules fn to run after the delay, superseding any pending callback.
func (t *Timer) Arm(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.pending = true
	t.timer = t.clock.AfterFunc(t.delay, func() {
		if !t.fire(gen) {
			return
		}
		fn()
	})
}

// Cancel drops the pending callback. It reports whether one was pending.
func (t *Timer) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	was := t.pending
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
	t.pending = false
	return was
}

// Pending reports whether a callback is armed and has not fired yet.
func (t *Timer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// fire claims the callback for generation gen. A timer that was stopped too late to
// prevent its goroutine from starting loses here and does nothing.
func (t *Timer) fire(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen || !t.pending {
		return false
	}
	t.pending = false
	t.timer = nil
	return true
}
