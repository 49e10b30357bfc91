// Package service records analytics events and computes the aggregates shown
// on the analytics and canvas dashboards.
package service

//go:generate mockgen -source=service.go -destination=../mocks/mocks.go -package=mocks Publisher

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"appetite/internal/analytics/metrics"
	"appetite/internal/analytics/models"
	authmodels "appetite/internal/auth/models"
	catalogmodels "appetite/internal/catalog/models"
	checkermodels "appetite/internal/checker/models"
	rulemodels "appetite/internal/rules/models"
	id "appetite/pkg/domain"
	dErrors "appetite/pkg/domain-errors"
	"appetite/pkg/platform/middleware/device"
	"appetite/pkg/platform/sentinel"
	"appetite/pkg/requestcontext"
)

const (
	dateLayout          = "2006-01-02"
	defaultRecentWindow = 30 * 24 * time.Hour
	growthDays          = 7

	otherBusinessType = "Other"
	unassignedCarrier = "unassigned"
	roleless          = "user"
)

// EventStore persists analytics events.
type EventStore interface {
	Append(ctx context.Context, e *models.Event) error
	AppendBatch(ctx context.Context, events []*models.Event) error
	List(ctx context.Context, r models.Range) ([]*models.Event, error)
	Count(ctx context.Context) (int, error)
}

// Publisher forwards recorded events to the analytics stream.
type Publisher interface {
	Publish(ctx context.Context, e *models.Event) error
}

type RuleLister interface {
	List(ctx context.Context) ([]*rulemodels.Rule, error)
}

type UserLister interface {
	List(ctx context.Context) ([]*authmodels.User, error)
}

type CarrierLister interface {
	List(ctx context.Context) ([]*catalogmodels.Carrier, error)
}

type ProductLister interface {
	List(ctx context.Context) ([]*catalogmodels.Product, error)
}

type Service struct {
	events    EventStore
	publisher Publisher
	rules     RuleLister
	users     UserLister
	carriers  CarrierLister
	products  ProductLister
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

type Option func(*Service)

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithRules(r RuleLister) Option {
	return func(s *Service) {
		s.rules = r
	}
}

func WithUsers(u UserLister) Option {
	return func(s *Service) {
		s.users = u
	}
}

func WithCarriers(c CarrierLister) Option {
	return func(s *Service) {
		s.carriers = c
	}
}

func WithProducts(p ProductLister) Option {
	return func(s *Service) {
		s.products = p
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

func New(events EventStore, opts ...Option) *Service {
	s := &Service{
		events: events,
		logger: slog.Default(),
		tracer: otel.Tracer("appetite/analytics"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddEvent records e and forwards it to the stream. Missing ids, timestamps,
// user ids and device metadata are filled from the request context.
func (s *Service) AddEvent(ctx context.Context, e *models.Event) (*models.Event, error) {
	if err := s.prepare(ctx, e); err != nil {
		return nil, err
	}
	if err := s.events.Append(ctx, e); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "event "+e.ID+" already recorded")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record event")
	}
	s.metrics.IncrementEvent(e.Action)

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, e); err != nil {
			s.logger.WarnContext(ctx, "failed to publish analytics event",
				"request_id", requestcontext.RequestID(ctx),
				"event_id", e.ID,
				"error", err,
			)
		}
	}
	return e, nil
}

// Import bulk loads events without streaming them.
func (s *Service) Import(ctx context.Context, events []*models.Event) error {
	for _, e := range events {
		if err := s.prepare(ctx, e); err != nil {
			return err
		}
	}
	if err := s.events.AppendBatch(ctx, events); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "batch contains an already recorded event")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to import events")
	}
	for _, e := range events {
		s.metrics.IncrementEvent(e.Action)
	}
	return nil
}

func (s *Service) prepare(ctx context.Context, e *models.Event) error {
	e.Action = strings.TrimSpace(e.Action)
	if e.Action == "" {
		return dErrors.New(dErrors.CodeValidation, "action is required")
	}
	if e.ID = strings.TrimSpace(e.ID); e.ID == "" {
		e.ID = id.Random(id.PrefixEvent)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = requestcontext.Now(ctx)
	}
	e.Timestamp = e.Timestamp.UTC()
	if e.UserID == "" {
		e.UserID = requestcontext.UserID(ctx)
	}
	if _, ok := e.Metadata[models.MetaDevice]; !ok {
		if ua := requestcontext.UserAgent(ctx); ua != "" {
			if e.Metadata == nil {
				e.Metadata = make(map[string]any)
			}
			e.Metadata[models.MetaDevice] = device.Classify(ua)
		}
	}
	return nil
}

func (s *Service) CountEvents(ctx context.Context) (int, error) {
	return s.events.Count(ctx)
}

// Fetch aggregates the events in r together with the rule mix.
func (s *Service) Fetch(ctx context.Context, r models.Range) (*models.Snapshot, error) {
	if !r.Since.IsZero() && !r.Until.IsZero() && r.Since.After(r.Until) {
		return nil, dErrors.New(dErrors.CodeValidation, "since must not be after until")
	}
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "analytics.fetch")
	defer span.End()

	var (
		events []*models.Event
		rules  []*rulemodels.Rule
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		events, err = s.events.List(gctx, r)
		return err
	})
	if s.rules != nil {
		g.Go(func() (err error) {
			rules, err = s.rules.List(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load analytics data")
	}
	span.SetAttributes(attribute.Int("analytics.events", len(events)))

	snap := &models.Snapshot{
		SnapshotAt:              requestcontext.Now(ctx),
		EligibilityDistribution: distribution(events),
		SubmissionsOverTime:     perDay(events),
		AppetiteShare:           appetiteShare(rules),
		RulesByProduct:          byProduct(events),
	}
	s.metrics.ObserveAggregate(time.Since(start).Seconds())
	return snap, nil
}

func distribution(events []*models.Event) models.EligibilityDistribution {
	var d models.EligibilityDistribution
	for _, e := range events {
		if e.Action != models.ActionCheckerDecision {
			continue
		}
		decision, err := checkermodels.ParseDecision(e.MetaString(models.MetaDecision))
		if err != nil {
			continue
		}
		switch decision {
		case checkermodels.DecisionEligible:
			d.Eligible++
		case checkermodels.DecisionDeclined:
			d.Ineligible++
		case checkermodels.DecisionRestricted:
			d.Conditional++
		}
	}
	return d
}

func perDay(events []*models.Event) []models.DailyCount {
	counts := make(map[string]int)
	for _, e := range events {
		counts[e.Timestamp.UTC().Format(dateLayout)]++
	}
	out := make([]models.DailyCount, 0, len(counts))
	for date, n := range counts {
		out = append(out, models.DailyCount{Date: date, Count: n})
	}
	slices.SortFunc(out, func(a, b models.DailyCount) int {
		return strings.Compare(a.Date, b.Date)
	})
	return out
}

func appetiteShare(rules []*rulemodels.Rule) map[string]int {
	share := make(map[string]int)
	for _, r := range rules {
		bt := strings.TrimSpace(r.BusinessType)
		if bt == "" {
			bt = otherBusinessType
		}
		share[bt]++
	}
	return share
}

func byProduct(events []*models.Event) []models.ProductCount {
	counts := make(map[string]int)
	for _, e := range events {
		if e.ProductID != "" {
			counts[e.ProductID]++
		}
	}
	out := make([]models.ProductCount, 0, len(counts))
	for p, n := range counts {
		out = append(out, models.ProductCount{ProductID: p, Count: n})
	}
	slices.SortFunc(out, func(a, b models.ProductCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.ProductID, b.ProductID)
	})
	return out
}

// Dashboard summarizes users, carriers, rules and products. A zero since
// counts rule uploads over the last 30 days.
func (s *Service) Dashboard(ctx context.Context, since time.Time) (*models.Dashboard, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "analytics.dashboard")
	defer span.End()

	now := requestcontext.Now(ctx).UTC()
	if since.IsZero() {
		since = now.Add(-defaultRecentWindow)
	}

	var (
		rules    []*rulemodels.Rule
		users    []*authmodels.User
		carriers []*catalogmodels.Carrier
		products []*catalogmodels.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	if s.rules != nil {
		g.Go(func() (err error) { rules, err = s.rules.List(gctx); return err })
	}
	if s.users != nil {
		g.Go(func() (err error) { users, err = s.users.List(gctx); return err })
	}
	if s.carriers != nil {
		g.Go(func() (err error) { carriers, err = s.carriers.List(gctx); return err })
	}
	if s.products != nil {
		g.Go(func() (err error) { products, err = s.products.List(gctx); return err })
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load dashboard data")
	}

	d := &models.Dashboard{
		SnapshotAt:        now,
		TotalRules:        len(rules),
		TotalUsers:        len(users),
		TotalCarriers:     len(carriers),
		TotalProducts:     len(products),
		RulesByPriority:   make(map[string]int),
		UsersByRole:       make(map[string]int),
		ProductsByCarrier: make(map[string]int),
	}
	for _, r := range rules {
		d.RulesByPriority[r.EffectivePriority()]++
		if !r.CreatedAt.Before(since) {
			d.RecentUploads++
		}
	}
	for _, u := range users {
		if len(u.Roles) == 0 {
			d.UsersByRole[roleless]++
		}
		for _, role := range u.Roles {
			d.UsersByRole[role]++
		}
	}
	for _, p := range products {
		carrier := p.Carrier
		if carrier == "" {
			carrier = unassignedCarrier
		}
		d.ProductsByCarrier[carrier]++
	}
	d.GrowthData = growth(now, users, rules, carriers)

	s.metrics.ObserveAggregate(time.Since(start).Seconds())
	return d, nil
}

// growth counts creations on each of the last seven UTC days, oldest first.
func growth(now time.Time, users []*authmodels.User, rules []*rulemodels.Rule, carriers []*catalogmodels.Carrier) []models.GrowthPoint {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	first := today.AddDate(0, 0, -(growthDays - 1))
	points := make([]models.GrowthPoint, growthDays)
	for i := range points {
		points[i].Date = first.AddDate(0, 0, i).Format(dateLayout)
	}
	slot := func(t time.Time) (int, bool) {
		t = t.UTC()
		if t.Before(first) || !t.Before(today.AddDate(0, 0, 1)) {
			return 0, false
		}
		return int(t.Sub(first) / (24 * time.Hour)), true
	}
	for _, u := range users {
		if i, ok := slot(u.CreatedAt); ok {
			points[i].Users++
		}
	}
	for _, r := range rules {
		if i, ok := slot(r.CreatedAt); ok {
			points[i].Rules++
		}
	}
	for _, c := range carriers {
		if i, ok := slot(c.CreatedAt); ok {
			points[i].Carriers++
		}
	}
	return points
}
