package scheduler

import (
	"sync"
	"time"
)

// Timer is a single-slot timer armed to an absolute deadline. Re-arming
// replaces the previous arming, so at most one callback is live. Waits longer
// than maxChunk are split and re-armed toward the same deadline.
type Timer struct {
	clock    Clock
	maxChunk time.Duration

	mu       sync.Mutex
	gen      uint64
	armed    bool
	deadline time.Time
	stopper  Stopper
}

func NewTimer(clock Clock, maxChunk time.Duration) *Timer {
	return &Timer{clock: clock, maxChunk: maxChunk}
}

// Arm schedules fn at deadline, cancelling any previous arming. A deadline in
// the past fires on the next clock tick.
func (t *Timer) Arm(deadline time.Time, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.gen++
	t.armed = true
	t.deadline = deadline
	t.scheduleLocked(t.gen, fn)
}

// Cancel is idempotent.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.gen++
	t.armed = false
	t.deadline = time.Time{}
}

// Deadline returns the armed deadline, if any.
func (t *Timer) Deadline() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.deadline, t.armed
}

func (t *Timer) scheduleLocked(gen uint64, fn func()) {
	wait := t.deadline.Sub(t.clock.Now())
	if wait < 0 {
		wait = 0
	}

	if t.maxChunk > 0 && wait > t.maxChunk {
		t.stopper = t.clock.AfterFunc(t.maxChunk, func() { t.rearm(gen, fn) })
		return
	}
	t.stopper = t.clock.AfterFunc(wait, func() { t.fire(gen, fn) })
}

func (t *Timer) rearm(gen uint64, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.gen || !t.armed {
		return
	}
	t.scheduleLocked(gen, fn)
}

func (t *Timer) fire(gen uint64, fn func()) {
	t.mu.Lock()
	if gen != t.gen || !t.armed {
		t.mu.Unlock()
		return
	}
	t.armed = false
	t.stopper = nil
	t.mu.Unlock()

	fn()
}

func (t *Timer) stopLocked() {
	if t.stopper != nil {
		t.stopper.Stop()
		t.stopper = nil
	}
}
