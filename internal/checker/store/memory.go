// Package store keeps the append-only submission history.
package store

import (
	"context"
	"sync"

	"appetite/internal/checker/models"
	"appetite/pkg/platform/sentinel"
)

// InMemory is an append-only submission log.
type InMemory struct {
	mu          sync.RWMutex
	submissions []models.Submission
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(_ context.Context, sub *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions = append(s.submissions, *sub)
	return nil
}

// GetByID returns the most recent record for id.
func (s *InMemory) GetByID(_ context.Context, id string) (*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.submissions) - 1; i >= 0; i-- {
		if s.submissions[i].ID == id {
			sub := s.submissions[i]
			return &sub, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// Count returns the number of records, including re-evaluations.
func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.submissions), nil
}
