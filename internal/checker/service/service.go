// Package service implements the eligibility evaluator: decisions,
// confidence scoring, product eligibility, recommendations and summaries.
package service

//go:generate mockgen -source=service.go -destination=../mocks/mocks.go -package=mocks AnalyticsRecorder

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	analyticsmodels "appetite/internal/analytics/models"
	catalogmodels "appetite/internal/catalog/models"
	"appetite/internal/checker/matcher"
	"appetite/internal/checker/metrics"
	"appetite/internal/checker/models"
	"appetite/internal/checker/policy"
	rulemodels "appetite/internal/rules/models"
	id "appetite/pkg/domain"
	dErrors "appetite/pkg/domain-errors"
	audit "appetite/pkg/platform/audit"
	"appetite/pkg/platform/sentinel"
	"appetite/pkg/requestcontext"
)

const (
	notifyStatus  = "ok"
	notifyMessage = "Event logged to analytics"
)

// SubmissionStore keeps every evaluation.
type SubmissionStore interface {
	Append(ctx context.Context, sub *models.Submission) error
	GetByID(ctx context.Context, id string) (*models.Submission, error)
	Count(ctx context.Context) (int, error)
}

// ProductLookup resolves a product for eligibility checks.
type ProductLookup interface {
	GetByID(ctx context.Context, id string) (*catalogmodels.Product, error)
}

// AnalyticsRecorder records decision events.
type AnalyticsRecorder interface {
	AddEvent(ctx context.Context, event *analyticsmodels.Event) (*analyticsmodels.Event, error)
}

// AuditPublisher records evaluation decisions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	submissions    SubmissionStore
	matcher        matcher.RuleMatcher
	products       ProductLookup
	rules          matcher.RuleScanner
	analytics      AnalyticsRecorder
	auditPublisher AuditPublisher
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(*Service)

// WithMatcher replaces the static policy with m.
func WithMatcher(m matcher.RuleMatcher) Option {
	return func(s *Service) {
		s.matcher = m
	}
}

func WithProducts(p ProductLookup) Option {
	return func(s *Service) {
		s.products = p
	}
}

// WithRuleRecommendations derives recommendations from stored rules.
func WithRuleRecommendations(rules matcher.RuleScanner) Option {
	return func(s *Service) {
		s.rules = rules
	}
}

func WithAnalytics(a AnalyticsRecorder) Option {
	return func(s *Service) {
		s.analytics = a
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = p
	}
}

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

func New(submissions SubmissionStore, opts ...Option) *Service {
	s := &Service{
		submissions: submissions,
		matcher:     matcher.StaticPolicy{},
		logger:      slog.Default(),
		tracer:      otel.Tracer("appetite/checker"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate decides a submission and appends it to the submission log.
func (s *Service) Evaluate(ctx context.Context, sub *models.Submission) (*models.Evaluation, error) {
	start := time.Now()
	naics := strings.TrimSpace(sub.NaicsCode)
	state := strings.ToUpper(strings.TrimSpace(sub.Location.State))

	ctx, span := s.tracer.Start(ctx, "checker.evaluate", trace.WithAttributes(
		attribute.String("checker.naics", naics),
		attribute.String("checker.state", state),
	))
	defer span.End()

	match := s.match(ctx, naics, state)
	confidence := policy.Confidence(sub.BusinessDescription, naics)
	reason := policy.Reason(match.Decision, naics, state)

	record := &models.Submission{
		ID:                  strings.TrimSpace(sub.ID),
		BusinessDescription: sub.BusinessDescription,
		NaicsCode:           naics,
		Location:            models.Location{State: state, PostalCode: strings.TrimSpace(sub.Location.PostalCode)},
		Decision:            match.Decision,
		Confidence:          confidence,
		Reason:              reason,
		MatchedRule:         match.RuleID,
		EvaluatedAt:         requestcontext.Now(ctx),
	}
	if record.ID == "" {
		record.ID = id.Random(id.PrefixSubmission)
	}
	if err := s.submissions.Append(ctx, record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission append failed")
		s.logger.ErrorContext(ctx, "failed to store submission",
			"request_id", requestcontext.RequestID(ctx),
			"submission_id", record.ID,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store submission")
	}

	span.SetAttributes(
		attribute.String("checker.decision", match.Decision.String()),
		attribute.String("checker.matched_rule", match.RuleID),
	)
	s.metrics.ObserveEvaluation(match.Decision.String(), start)
	s.logAudit(ctx, record)
	s.logger.InfoContext(ctx, "submission evaluated",
		"request_id", requestcontext.RequestID(ctx),
		"submission_id", record.ID,
		"naics", naics,
		"state", state,
		"decision", match.Decision.String(),
		"matched_rule", match.RuleID,
	)

	return &models.Evaluation{
		SubmissionID: record.ID,
		Decision:     record.Decision,
		MatchedRule:  record.MatchedRule,
		Reason:       record.Reason,
		Confidence:   record.Confidence,
	}, nil
}

// match never fails: a broken matcher falls back to the static policy.
func (s *Service) match(ctx context.Context, naics, state string) models.Match {
	m, ok, err := s.matcher.Match(ctx, naics, state)
	if err == nil && ok {
		return m
	}
	if err != nil {
		s.metrics.IncrementMatcherFallback()
		s.logger.WarnContext(ctx, "rule matcher failed, using static policy",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	m, _, _ = matcher.StaticPolicy{}.Match(ctx, naics, state)
	return m
}

// GetResult returns the latest evaluation of submissionID.
func (s *Service) GetResult(ctx context.Context, submissionID string) (*models.Submission, error) {
	sub, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "submission "+submissionID+" not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load submission")
	}
	return sub, nil
}

// ConfidenceScore scores a description against a NAICS code without
// recording anything.
func (s *Service) ConfidenceScore(_ context.Context, naics, description string) float64 {
	return policy.Confidence(description, strings.TrimSpace(naics))
}

// CheckEligibility reports whether productID is offered for the NAICS code
// in state. Unknown products are allowed.
func (s *Service) CheckEligibility(ctx context.Context, productID, naics, state string) (bool, string) {
	productID = strings.TrimSpace(productID)
	naics = strings.TrimSpace(naics)
	state = strings.ToUpper(strings.TrimSpace(state))

	if policy.Denied(productID, naics, state) {
		s.metrics.IncrementEligibilityCheck(false)
		return false, policy.ReasonProductNotOffered(naics, state)
	}
	if s.products != nil {
		product, err := s.products.GetByID(ctx, productID)
		switch {
		case err == nil:
			if !product.AllowsNaics(naics) {
				s.metrics.IncrementEligibilityCheck(false)
				return false, policy.ReasonNaicsNotAllowed(naics, productID)
			}
		case !errors.Is(err, sentinel.ErrNotFound) && !dErrors.HasCode(err, dErrors.CodeNotFound):
			s.logger.WarnContext(ctx, "product lookup failed, allowing",
				"request_id", requestcontext.RequestID(ctx),
				"product_id", productID,
				"error", err,
			)
		}
	}
	s.metrics.IncrementEligibilityCheck(true)
	return true, policy.ReasonProductAvailable
}

// Recommendations lists alternative NAICS/product combinations for a
// submission. Without rule-backed recommendations, or when no rule fits, the
// static list is returned.
func (s *Service) Recommendations(ctx context.Context, submissionID string) []models.Alternative {
	if s.rules == nil {
		return policy.StaticAlternatives()
	}
	sub, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return policy.StaticAlternatives()
	}
	alts, err := s.ruleAlternatives(ctx, sub)
	if err != nil {
		s.logger.WarnContext(ctx, "rule recommendations failed, using static list",
			"request_id", requestcontext.RequestID(ctx),
			"submission_id", submissionID,
			"error", err,
		)
		return policy.StaticAlternatives()
	}
	if len(alts) == 0 {
		return policy.StaticAlternatives()
	}
	return alts
}

func (s *Service) ruleAlternatives(ctx context.Context, sub *models.Submission) ([]models.Alternative, error) {
	prefix := naicsPrefix(sub.NaicsCode)
	if prefix == "" {
		return nil, nil
	}
	at := requestcontext.Now(ctx)
	rules, err := s.rules.Scan(ctx, func(r *rulemodels.Rule) bool {
		return r.IsActive() && r.InEffect(at)
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var alts []models.Alternative
	for _, r := range rules {
		if !containsFold(r.States, sub.Location.State) {
			continue
		}
		for _, code := range r.NaicsCodes {
			if code == sub.NaicsCode || naicsPrefix(code) != prefix {
				continue
			}
			if _, dup := seen[code]; dup {
				continue
			}
			seen[code] = struct{}{}
			alts = append(alts, models.Alternative{Naics: code, ProductID: r.Product, Description: r.Title})
		}
	}
	return alts, nil
}

// PrepareSummary renders a one-line summary of a decision.
func (s *Service) PrepareSummary(_ context.Context, decision models.Decision, confidence float64, reason string) string {
	return policy.Summary(decision.String(), confidence, reason)
}

// NotifyAnalytics records the decision as an analytics event. Recording
// failures are logged and never returned.
func (s *Service) NotifyAnalytics(ctx context.Context, submissionID string, decision models.Decision, processingTimeMs int64, at time.Time) models.NotifyResult {
	result := models.NotifyResult{Status: notifyStatus, Message: notifyMessage, SubmissionID: submissionID}
	if s.analytics == nil {
		return result
	}
	if at.IsZero() {
		at = requestcontext.Now(ctx)
	}
	_, err := s.analytics.AddEvent(ctx, &analyticsmodels.Event{
		Timestamp: at,
		UserID:    requestcontext.UserID(ctx),
		Action:    analyticsmodels.ActionCheckerDecision,
		Metadata: map[string]any{
			analyticsmodels.MetaDecision:         decision.String(),
			analyticsmodels.MetaProcessingTimeMs: processingTimeMs,
			analyticsmodels.MetaSubmissionID:     submissionID,
		},
	})
	if err != nil {
		s.metrics.IncrementAnalyticsFailure()
		s.logger.WarnContext(ctx, "failed to record decision event",
			"request_id", requestcontext.RequestID(ctx),
			"submission_id", submissionID,
			"error", err,
		)
	}
	return result
}

// CountSubmissions returns the number of stored evaluations.
func (s *Service) CountSubmissions(ctx context.Context) (int, error) {
	return s.submissions.Count(ctx)
}

func (s *Service) logAudit(ctx context.Context, sub *models.Submission) {
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Timestamp: time.Now(),
		UserID:    requestcontext.UserID(ctx),
		Subject:   sub.ID,
		Action:    string(audit.EventDecisionMade),
		Decision:  sub.Decision.String(),
		Reason:    sub.Reason,
		RequestID: requestcontext.RequestID(ctx),
		IP:        requestcontext.ClientIP(ctx),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", requestcontext.RequestID(ctx),
			"action", string(audit.EventDecisionMade),
			"error", err,
		)
	}
}

func naicsPrefix(code string) string {
	if len(code) < 3 {
		return ""
	}
	return code[:3]
}

func containsFold(values []string, v string) bool {
	for _, x := range values {
		if strings.EqualFold(x, v) {
			return true
		}
	}
	return false
}
