package monitor

import (
	"sync"
	"time"
)

// DefaultThreshold is the minimum time between two verification passes on
// the same UTC day.
const DefaultThreshold = 6 * time.Hour

// State rate limits verification passes. The zero value is ready to use and
// allows the first pass immediately.
type State struct {
	// Threshold overrides DefaultThreshold when positive.
	Threshold time.Duration

	mu        sync.Mutex
	verifying bool
	last      time.Time
}

// BeginVerification reports whether a pass may start at now and, if so, marks
// one as running. A pass may start when none is running and either the
// threshold has elapsed or the UTC calendar day changed since the last one.
func (s *State) BeginVerification(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.verifying {
		return false
	}
	threshold := s.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if now.Sub(s.last) > threshold || !sameUTCDay(now, s.last) {
		s.verifying = true
		return true
	}
	return false
}

// EndVerification clears the running mark and records now as the last pass.
func (s *State) EndVerification(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifying = false
	s.last = now
}

// Verifying reports whether a pass is running.
func (s *State) Verifying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verifying
}

// Restore records last as the previous pass when it is later than the one
// already known. Hosts use it to carry the last pass across restarts.
func (s *State) Restore(last time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if last.After(s.last) {
		s.last = last
	}
}

// Last returns the time of the last completed pass, zero when none.
func (s *State) Last() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// abort clears the running mark without counting the pass.
func (s *State) abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifying = false
}

func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
