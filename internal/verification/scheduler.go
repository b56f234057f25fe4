package verification

import (
	"sync"
	"time"

	"heirloom/pkg/domain"
)

// Scheduler holds at most one pending timer per nominee. Scheduling again
// replaces the previous timer; a manual review cancels it.
type Scheduler struct {
	mu     sync.Mutex
	timers map[domain.NomineeID]*time.Timer
	closed bool
}

func NewScheduler() *Scheduler {
	return &Scheduler{timers: make(map[domain.NomineeID]*time.Timer)}
}

// Schedule runs fn after delay unless cancelled first.
func (s *Scheduler) Schedule(id domain.NomineeID, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if t, ok := s.timers[id]; ok {
		t.Stop()
	}
	s.timers[id] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, id)
		s.mu.Unlock()
		fn()
	})
}

// Cancel stops a pending timer for id, if any.
func (s *Scheduler) Cancel(id domain.NomineeID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

// Close cancels all pending timers and refuses new ones.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
