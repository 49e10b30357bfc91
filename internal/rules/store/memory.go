// Package store persists underwriting rules in memory or in Postgres. Both
// implementations return rules in creation order.
package store

import (
	"context"
	"strings"
	"sync"

	"appetite/internal/rules/models"
	"appetite/pkg/domain"
	"appetite/pkg/platform/sentinel"
)

// InMemory is a map-backed rule store that remembers insertion order.
type InMemory struct {
	mu    sync.RWMutex
	rules map[string]*models.Rule
	order []string
	seq   domain.Counter
}

func NewInMemory() *InMemory {
	return &InMemory{rules: make(map[string]*models.Rule), seq: domain.NewCounter(domain.PrefixRule)}
}

// Create stores rule; sentinel.ErrConflict if the id is taken.
func (s *InMemory) Create(_ context.Context, rule *models.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rules[rule.ID]; exists {
		return sentinel.ErrConflict
	}
	s.rules[rule.ID] = rule.Clone()
	s.order = append(s.order, rule.ID)
	s.seq.Observe(rule.ID)
	return nil
}

// NextSequence reserves the next rule sequence number. Numbers freed by
// Delete are not reused.
func (s *InMemory) NextSequence(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq.Next(), nil
}

func (s *InMemory) GetByID(_ context.Context, ruleID string) (*models.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rule, ok := s.rules[ruleID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return rule.Clone(), nil
}

func (s *InMemory) Update(_ context.Context, rule *models.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[rule.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.rules[rule.ID] = rule.Clone()
	return nil
}

func (s *InMemory) Delete(_ context.Context, ruleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[ruleID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.rules, ruleID)
	for i, existing := range s.order {
		if existing == ruleID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *InMemory) List(ctx context.Context) ([]*models.Rule, error) {
	return s.Scan(ctx, nil)
}

// Scan returns copies of the rules matching pred. A nil pred matches all.
func (s *InMemory) Scan(ctx context.Context, pred models.Predicate) ([]*models.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Rule, 0, len(s.order))
	for _, ruleID := range s.order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rule := s.rules[ruleID]
		if pred == nil || pred(rule) {
			out = append(out, rule.Clone())
		}
	}
	return out, nil
}

// ScanCovering returns the rules listing both naics and state.
func (s *InMemory) ScanCovering(ctx context.Context, naics, state string) ([]*models.Rule, error) {
	naics = strings.TrimSpace(naics)
	state = strings.TrimSpace(state)
	return s.Scan(ctx, func(r *models.Rule) bool { return r.Covers(naics, state) })
}

func (s *InMemory) Count(_ context.Context, pred models.Predicate) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if pred == nil {
		return len(s.rules), nil
	}
	n := 0
	for _, rule := range s.rules {
		if pred(rule) {
			n++
		}
	}
	return n, nil
}
