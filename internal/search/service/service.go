// Package service exposes the rule search operations on top of the search
// engine and a rule store.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"appetite/internal/rules/models"
	"appetite/internal/search/engine"
	"appetite/internal/search/metrics"
	dErrors "appetite/pkg/domain-errors"
	"appetite/pkg/pagination"
	"appetite/pkg/requestcontext"
)

// Default page sizes per operation.
const (
	DefaultPageSize             = 25
	DefaultKeywordPageSize      = 10
	DefaultNaicsPageSize        = 20
	DefaultBusinessTypePageSize = 20
)

// RuleSource is the read side of the rule store.
type RuleSource interface {
	Scan(ctx context.Context, pred models.Predicate) ([]*models.Rule, error)
}

// CustomFilter is the advanced search request. Page and PageSize are
// expected to be resolved by the caller.
type CustomFilter struct {
	Carrier           string
	Product           string
	States            []string
	NaicsCodes        []string
	BusinessTypes     []string
	Priority          string
	IncludeRestricted *bool
	Page              int
	PageSize          int
	SortBy            string
}

type Service struct {
	rules   RuleSource
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
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

func New(rules RuleSource, opts ...Option) *Service {
	s := &Service{
		rules:  rules,
		logger: slog.Default(),
		tracer: otel.Tracer("appetite/search"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetRules pages every rule, optionally narrowed by a free-text query.
func (s *Service) GetRules(ctx context.Context, page, pageSize int, sortBy, q string) (pagination.Page[*models.Rule], error) {
	return s.search(ctx, "get_rules", engine.Filter{Query: q}, page, pageSize, sortBy)
}

// GetRulesByKeyword matches the keyword against text fields and states.
func (s *Service) GetRulesByKeyword(ctx context.Context, keyword string, page, pageSize int) (pagination.Page[*models.Rule], error) {
	return s.search(ctx, "keyword", engine.Filter{Keyword: keyword}, page, pageSize, "")
}

func (s *Service) GetRulesByNaics(ctx context.Context, naics string, page, pageSize int) (pagination.Page[*models.Rule], error) {
	return s.search(ctx, "naics", engine.Filter{NaicsCodes: []string{strings.TrimSpace(naics)}}, page, pageSize, "")
}

func (s *Service) GetRulesByBusinessType(ctx context.Context, businessType string, page, pageSize int) (pagination.Page[*models.Rule], error) {
	return s.search(ctx, "business_type", engine.Filter{BusinessType: strings.TrimSpace(businessType)}, page, pageSize, "")
}

func (s *Service) GetRulesByCustomFilter(ctx context.Context, f CustomFilter) (pagination.Page[*models.Rule], error) {
	filter := engine.Filter{
		Carrier:           f.Carrier,
		Product:           f.Product,
		States:            f.States,
		NaicsCodes:        f.NaicsCodes,
		BusinessTypes:     f.BusinessTypes,
		Priority:          f.Priority,
		IncludeRestricted: f.IncludeRestricted,
	}
	return s.search(ctx, "custom_filter", filter, f.Page, f.PageSize, f.SortBy)
}

// Search runs an arbitrary filter.
func (s *Service) Search(ctx context.Context, filter engine.Filter, page, pageSize int, sortBy string) (pagination.Page[*models.Rule], error) {
	return s.search(ctx, "search", filter, page, pageSize, sortBy)
}

func (s *Service) search(ctx context.Context, op string, filter engine.Filter, page, pageSize int, sortBy string) (pagination.Page[*models.Rule], error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "search."+op, trace.WithAttributes(
		attribute.Int("search.page", page),
		attribute.Int("search.page_size", pageSize),
		attribute.String("search.sort_by", sortBy),
	))
	defer span.End()

	matched, err := s.rules.Scan(ctx, filter.Predicate())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rule scan failed")
		s.logger.ErrorContext(ctx, "rule search failed",
			"request_id", requestcontext.RequestID(ctx),
			"op", op,
			"error", err,
		)
		return pagination.Page[*models.Rule]{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search rules")
	}

	engine.Sort(matched, sortBy)
	result := pagination.Paginate(matched, page, pageSize)

	span.SetAttributes(attribute.Int("search.matched", len(matched)))
	s.metrics.ObserveSearch(op, start, len(matched))
	s.logger.DebugContext(ctx, "rule search",
		"request_id", requestcontext.RequestID(ctx),
		"op", op,
		"matched", len(matched),
	)
	return result, nil
}
