// Package store keeps analytics events in memory or in Postgres through pgx.
// List results are ordered by timestamp, then insertion.
package store

import (
	"context"
	"sort"
	"sync"

	"appetite/internal/analytics/models"
	"appetite/pkg/platform/sentinel"
)

type InMemory struct {
	mu     sync.RWMutex
	events []*models.Event
	ids    map[string]struct{}
}

func NewInMemory() *InMemory {
	return &InMemory{ids: make(map[string]struct{})}
}

// Append stores e; sentinel.ErrConflict if the id was already recorded.
func (s *InMemory) Append(_ context.Context, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.ids[e.ID]; exists {
		return sentinel.ErrConflict
	}
	s.ids[e.ID] = struct{}{}
	s.events = append(s.events, e.Clone())
	return nil
}

// AppendBatch stores every event or none.
func (s *InMemory) AppendBatch(_ context.Context, events []*models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{}, len(events))
	for _, e := range events {
		if _, exists := s.ids[e.ID]; exists {
			return sentinel.ErrConflict
		}
		if _, dup := seen[e.ID]; dup {
			return sentinel.ErrConflict
		}
		seen[e.ID] = struct{}{}
	}
	for _, e := range events {
		s.ids[e.ID] = struct{}{}
		s.events = append(s.events, e.Clone())
	}
	return nil
}

func (s *InMemory) List(_ context.Context, r models.Range) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Event, 0, len(s.events))
	for _, e := range s.events {
		if r.Contains(e.Timestamp) {
			out = append(out, e.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events), nil
}
