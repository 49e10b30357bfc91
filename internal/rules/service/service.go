// Package service implements the rule write path used by admins and carriers.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"appetite/internal/rules/metrics"
	"appetite/internal/rules/models"
	"appetite/internal/search/engine"
	id "appetite/pkg/domain"
	dErrors "appetite/pkg/domain-errors"
	"appetite/pkg/pagination"
	audit "appetite/pkg/platform/audit"
	"appetite/pkg/platform/sentinel"
	pstrings "appetite/pkg/platform/strings"
	"appetite/pkg/requestcontext"
)

// Store persists rules.
type Store interface {
	Create(ctx context.Context, rule *models.Rule) error
	GetByID(ctx context.Context, id string) (*models.Rule, error)
	Update(ctx context.Context, rule *models.Rule) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.Rule, error)
	Count(ctx context.Context, pred models.Predicate) (int, error)
	NextSequence(ctx context.Context) (int, error)
}

// AuditPublisher records compliance events for rule changes.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          Store
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = p
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create assigns the next unused rul-NNN id and stores the rule.
func (s *Service) Create(ctx context.Context, rule *models.Rule) (*models.Rule, error) {
	if err := prepare(rule); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	rule.CreatedAt = now
	rule.UpdatedAt = now
	rule.CreatedBy = requestcontext.UserID(ctx)
	if rule.Status == "" {
		rule.Status = models.StatusDraft
	}

	ruleID, err := id.Allocate(ctx, id.PrefixRule,
		s.store.NextSequence,
		func(ctx context.Context, candidate string) error {
			rule.ID = candidate
			return s.store.Create(ctx, rule)
		},
	)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create rule",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, err
	}
	rule.ID = ruleID

	s.metrics.IncrementCreated()
	s.logAudit(ctx, audit.EventRuleCreated, ruleID)
	s.logger.InfoContext(ctx, "rule created",
		"request_id", requestcontext.RequestID(ctx),
		"rule_id", ruleID,
		"created_by", rule.CreatedBy,
	)
	return rule, nil
}

func (s *Service) Get(ctx context.Context, ruleID string) (*models.Rule, error) {
	rule, err := s.store.GetByID(ctx, ruleID)
	if err != nil {
		return nil, translate(err, ruleID)
	}
	return rule, nil
}

// List pages rules in creation order unless sortBy says otherwise.
func (s *Service) List(ctx context.Context, page, pageSize int, sortBy string) (pagination.Page[*models.Rule], error) {
	rules, err := s.store.List(ctx)
	if err != nil {
		return pagination.Page[*models.Rule]{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list rules")
	}
	if strings.TrimSpace(sortBy) != "" {
		engine.Sort(rules, sortBy)
	}
	return pagination.Paginate(rules, page, pageSize), nil
}

// Update replaces the mutable fields of ruleID. ID, CreatedAt and CreatedBy
// are kept from the stored rule.
func (s *Service) Update(ctx context.Context, ruleID string, rule *models.Rule) (*models.Rule, error) {
	existing, err := s.store.GetByID(ctx, ruleID)
	if err != nil {
		return nil, translate(err, ruleID)
	}
	if err := prepare(rule); err != nil {
		return nil, err
	}
	rule.ID = existing.ID
	rule.CreatedAt = existing.CreatedAt
	rule.CreatedBy = existing.CreatedBy
	rule.UpdatedAt = requestcontext.Now(ctx)
	if rule.Status == "" {
		rule.Status = existing.Status
	}

	if err := s.store.Update(ctx, rule); err != nil {
		return nil, translate(err, ruleID)
	}
	s.metrics.IncrementUpdated()
	s.logAudit(ctx, audit.EventRuleUpdated, ruleID)
	return rule, nil
}

func (s *Service) Delete(ctx context.Context, ruleID string) error {
	if err := s.store.Delete(ctx, ruleID); err != nil {
		return translate(err, ruleID)
	}
	s.metrics.IncrementDeleted()
	s.logAudit(ctx, audit.EventRuleDeleted, ruleID)
	s.logger.InfoContext(ctx, "rule deleted",
		"request_id", requestcontext.RequestID(ctx),
		"rule_id", ruleID,
	)
	return nil
}

// Count returns the number of stored rules.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx, nil)
}

func prepare(rule *models.Rule) error {
	rule.Title = strings.TrimSpace(rule.Title)
	if rule.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	rule.NaicsCodes = pstrings.DedupeAndTrim(rule.NaicsCodes)
	rule.States = pstrings.DedupeAndTrimUpper(rule.States)
	rule.Restrictions = pstrings.DedupeAndTrim(rule.Restrictions)
	rule.Conditions = pstrings.DedupeAndTrim(rule.Conditions)
	if rule.EffectiveFrom != nil && rule.EffectiveTo != nil && rule.EffectiveTo.Before(*rule.EffectiveFrom) {
		return dErrors.New(dErrors.CodeValidation, "effectiveTo must not be before effectiveFrom")
	}
	return rule.CheckRevenueBounds()
}

func translate(err error, ruleID string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "rule "+ruleID+" not found")
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "rule store failure")
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, ruleID string) {
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Timestamp: time.Now(),
		UserID:    requestcontext.UserID(ctx),
		Subject:   ruleID,
		Action:    string(event),
		RequestID: requestcontext.RequestID(ctx),
		IP:        requestcontext.ClientIP(ctx),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", requestcontext.RequestID(ctx),
			"action", string(event),
			"error", err,
		)
	}
}
