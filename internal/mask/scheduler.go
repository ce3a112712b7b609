package mask

import (
	"sync"
	"time"
)

// afterFunc arranges for f to run once after d. It matches time.AfterFunc
// without exposing the timer, since pending saves are never cancelled.
type afterFunc func(d time.Duration, f func())

func realAfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}

// Scheduler rate limits a callback with trailing-edge semantics.
//
// The first Trigger after a quiet period arms a timer for the interval.
// Triggers that arrive while the timer is armed are folded into it. When the
// timer fires the callback runs once, so at most one call happens per
// interval, and because the callback reads current state when it runs it
// always sees the effect of the last trigger in the burst.
//
// Scheduler is safe for concurrent use. There is no way to cancel an armed
// timer; callbacks must check for themselves whether their target is still
// alive.
type Scheduler struct {
	interval time.Duration
	fn       func()
	after    afterFunc

	mu        sync.Mutex
	armed     bool
	fired     int
	coalesced int
}

// NewScheduler returns a scheduler that runs fn at most once per interval.
// A negative interval is treated as zero.
func NewScheduler(interval time.Duration, fn func()) *Scheduler {
	return newSchedulerWithAfterFunc(interval, fn, realAfterFunc)
}

// newSchedulerWithAfterFunc allows tests to drive the timer by hand.
func newSchedulerWithAfterFunc(interval time.Duration, fn func(), after afterFunc) *Scheduler {
	if interval < 0 {
		interval = 0
	}
	return &Scheduler{
		interval: interval,
		fn:       fn,
		after:    after,
	}
}

// Trigger requests a run of the callback. It never blocks on the callback.
func (s *Scheduler) Trigger() {
	s.mu.Lock()
	if s.armed {
		s.coalesced++
		s.mu.Unlock()
		return
	}
	s.armed = true
	s.mu.Unlock()

	s.after(s.interval, s.fire)
}

// Pending reports whether a run is armed but has not fired yet.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armed
}

// Stats returns how many times the callback has fired and how many
// triggers were folded into an already armed timer.
func (s *Scheduler) Stats() (fired, coalesced int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fired, s.coalesced
}

// Interval returns the minimum time between runs.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	s.armed = false
	s.fired++
	s.mu.Unlock()

	// Triggers raised from inside fn arm a new window.
	s.fn()
}
