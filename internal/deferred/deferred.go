// internal/deferred/deferred.go
//
// Cancellable delayed actions keyed by session ID.
//
// A memory-match session shows a completed pair for a moment before it is
// resolved. The resolution is scheduled here so that restarting or quitting
// a session discards it instead of letting a stale timer touch a replaced
// session.
//
// Characteristics:
//   - At most one pending action per key; Schedule replaces the previous one.
//   - Each scheduled action carries a token; a timer whose token has been
//     superseded or cancelled does nothing when it fires.
//   - Safe for concurrent use.

package deferred

import (
	"sync"
	"time"
)

type entry struct {
	token uint64
	timer *time.Timer
}

// Scheduler runs at most one delayed action per key.
type Scheduler struct {
	mu      sync.Mutex
	next    uint64
	pending map[string]entry
	stopped bool
}

// New constructs an empty Scheduler.
func New() *Scheduler {
	return &Scheduler{pending: make(map[string]entry)}
}

// Schedule runs fn after delay unless the key is cancelled or rescheduled first.
// Returns false if the scheduler has been stopped.
func (s *Scheduler) Schedule(key string, delay time.Duration, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	if old, ok := s.pending[key]; ok {
		old.timer.Stop()
	}
	s.next++
	token := s.next
	s.pending[key] = entry{
		token: token,
		timer: time.AfterFunc(delay, func() { s.fire(key, token, fn) }),
	}
	return true
}

func (s *Scheduler) fire(key string, token uint64, fn func()) {
	s.mu.Lock()
	e, ok := s.pending[key]
	if !ok || e.token != token {
		s.mu.Unlock()
		return
	}
	delete(s.pending, key)
	s.mu.Unlock()
	fn()
}

// Cancel discards the pending action for key. Reports whether one was pending.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.pending[key]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(s.pending, key)
	return true
}

// Pending reports whether key has an action waiting to run.
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[key]
	return ok
}

// Stop cancels everything and rejects further scheduling.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for k, e := range s.pending {
		e.timer.Stop()
		delete(s.pending, k)
	}
}
