// Package lockout counts failed logins and locks accounts that reach the
// threshold. A lock lasts for the configured duration; reaching it resets the
// failure count.
package lockout

import (
	"context"
	"sync"
	"time"
)

// Policy is the threshold and lock duration shared by every store.
type Policy struct {
	Threshold int
	Duration  time.Duration
}

// DefaultPolicy locks for 15 minutes after 5 failures.
var DefaultPolicy = Policy{Threshold: 5, Duration: 15 * time.Minute}

type entry struct {
	failures    int
	lockedUntil time.Time
}

// InMemory keeps lockout state in process.
type InMemory struct {
	mu      sync.Mutex
	policy  Policy
	entries map[string]*entry
}

func NewInMemory(policy Policy) *InMemory {
	return &InMemory{policy: policy, entries: make(map[string]*entry)}
}

// Locked reports whether key is locked at now and until when.
func (s *InMemory) Locked(_ context.Context, key string, now time.Time) (bool, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || !now.Before(e.lockedUntil) {
		return false, time.Time{}, nil
	}
	return true, e.lockedUntil, nil
}

// RecordFailure counts one failure and reports whether it locked key.
func (s *InMemory) RecordFailure(_ context.Context, key string, now time.Time) (bool, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	e.failures++
	if e.failures < s.policy.Threshold {
		return false, time.Time{}, nil
	}
	e.failures = 0
	e.lockedUntil = now.Add(s.policy.Duration)
	return true, e.lockedUntil, nil
}

func (s *InMemory) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
