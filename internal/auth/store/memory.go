// Package store persists user accounts.
package store

import (
	"context"
	"strings"
	"sync"

	"appetite/internal/auth/models"
	"appetite/pkg/domain"
	"appetite/pkg/platform/sentinel"
)

// InMemory keeps users in creation order with an email index.
type InMemory struct {
	mu      sync.RWMutex
	users   map[string]*models.User
	byEmail map[string]string
	order   []string
	seq     domain.Counter
}

func NewInMemory() *InMemory {
	return &InMemory{
		users:   make(map[string]*models.User),
		byEmail: make(map[string]string),
		seq:     domain.NewCounter(domain.PrefixUser),
	}
}

// Create stores u; sentinel.ErrConflict if the id or email is taken.
func (s *InMemory) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(u.Email)
	if _, exists := s.users[u.ID]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.byEmail[email]; exists {
		return sentinel.ErrConflict
	}
	s.users[u.ID] = u.Clone()
	s.byEmail[email] = u.ID
	s.order = append(s.order, u.ID)
	s.seq.Observe(u.ID)
	return nil
}

// NextSequence reserves the next user sequence number.
func (s *InMemory) NextSequence(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq.Next(), nil
}

func (s *InMemory) GetByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return u.Clone(), nil
}

func (s *InMemory) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.users[id].Clone(), nil
}

// Update replaces u. The email is immutable.
func (s *InMemory) Update(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[u.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	updated := u.Clone()
	updated.Email = existing.Email
	s.users[u.ID] = updated
	return nil
}

// Delete removes the user and frees its email. The id is not reissued.
func (s *InMemory) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.users, id)
	delete(s.byEmail, strings.ToLower(u.Email))
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *InMemory) List(_ context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.User, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.users[id].Clone())
	}
	return out, nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}
