// Package seed loads demo fixtures into empty stores.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	analyticsmodels "appetite/internal/analytics/models"
	authmodels "appetite/internal/auth/models"
	"appetite/internal/auth/password"
	catalogmodels "appetite/internal/catalog/models"
	checkermodels "appetite/internal/checker/models"
	rulemodels "appetite/internal/rules/models"
	"appetite/pkg/requestcontext"
)

type UserStore interface {
	Create(ctx context.Context, u *authmodels.User) error
	Count(ctx context.Context) (int, error)
}

type CarrierStore interface {
	Create(ctx context.Context, c *catalogmodels.Carrier) error
	Count(ctx context.Context) (int, error)
}

type ProductStore interface {
	Create(ctx context.Context, p *catalogmodels.Product) error
	Count(ctx context.Context) (int, error)
}

type RuleStore interface {
	Create(ctx context.Context, r *rulemodels.Rule) error
	Count(ctx context.Context, pred rulemodels.Predicate) (int, error)
}

type SubmissionStore interface {
	Append(ctx context.Context, s *checkermodels.Submission) error
	Count(ctx context.Context) (int, error)
}

// EventImporter bulk loads analytics events.
type EventImporter interface {
	Import(ctx context.Context, events []*analyticsmodels.Event) error
	CountEvents(ctx context.Context) (int, error)
}

// Stores are the seeding targets. Nil stores are skipped.
type Stores struct {
	Users       UserStore
	Carriers    CarrierStore
	Products    ProductStore
	Rules       RuleStore
	Submissions SubmissionStore
	Events      EventImporter
}

// Report counts the records written per store.
type Report struct {
	Users       int `json:"users"`
	Carriers    int `json:"carriers"`
	Products    int `json:"products"`
	Rules       int `json:"rules"`
	Submissions int `json:"submissions"`
	Events      int `json:"events"`
}

// TxFunc runs fn in one transaction spanning the stores that support it.
type TxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

type Seeder struct {
	data   *Data
	stores Stores
	inTx   TxFunc
	logger *slog.Logger
}

type Option func(*Seeder)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Seeder) {
		s.logger = logger
	}
}

// WithTx makes a run all-or-nothing for the transactional stores.
func WithTx(fn TxFunc) Option {
	return func(s *Seeder) {
		s.inTx = fn
	}
}

func New(data *Data, stores Stores, opts ...Option) *Seeder {
	s := &Seeder{
		data:   data,
		stores: stores,
		logger: slog.Default(),
		inTx: func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run writes fixtures into every store that is still empty. Stores that
// already hold records are left alone, so Run is safe to repeat.
func (s *Seeder) Run(ctx context.Context) (*Report, error) {
	var report *Report
	err := s.inTx(ctx, func(ctx context.Context) (err error) {
		report, err = s.run(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	for name, n := range report.counts() {
		if n > 0 {
			s.logger.InfoContext(ctx, "seeded store", "store", name, "records", n)
		}
	}
	return report, nil
}

func (r *Report) counts() map[string]int {
	return map[string]int{
		"users":       r.Users,
		"carriers":    r.Carriers,
		"products":    r.Products,
		"rules":       r.Rules,
		"submissions": r.Submissions,
		"events":      r.Events,
	}
}

func (s *Seeder) run(ctx context.Context) (*Report, error) {
	now := requestcontext.Now(ctx).UTC()
	report := &Report{}

	steps := []struct {
		name string
		fn   func(context.Context) (int, error)
		out  *int
	}{
		{"users", func(ctx context.Context) (int, error) { return s.seedUsers(ctx, now) }, &report.Users},
		{"carriers", func(ctx context.Context) (int, error) { return s.seedCarriers(ctx, now) }, &report.Carriers},
		{"products", func(ctx context.Context) (int, error) { return s.seedProducts(ctx, now) }, &report.Products},
		{"rules", func(ctx context.Context) (int, error) { return s.seedRules(ctx, now) }, &report.Rules},
		{"submissions", func(ctx context.Context) (int, error) { return s.seedSubmissions(ctx, now) }, &report.Submissions},
		{"events", func(ctx context.Context) (int, error) { return s.seedEvents(ctx, now) }, &report.Events},
	}
	for _, step := range steps {
		n, err := step.fn(ctx)
		if err != nil {
			return nil, fmt.Errorf("seed %s: %w", step.name, err)
		}
		*step.out = n
	}
	return report, nil
}

func (s *Seeder) seedUsers(ctx context.Context, now time.Time) (int, error) {
	if s.stores.Users == nil || len(s.data.Users) == 0 {
		return 0, nil
	}
	if n, err := s.stores.Users.Count(ctx); err != nil || n > 0 {
		return 0, err
	}
	hash, err := password.Hash(s.data.Password)
	if err != nil {
		return 0, err
	}
	for _, u := range s.data.Users {
		if err := s.stores.Users.Create(ctx, u.model(now, hash)); err != nil {
			return 0, fmt.Errorf("user %s: %w", u.ID, err)
		}
	}
	return len(s.data.Users), nil
}

func (s *Seeder) seedCarriers(ctx context.Context, now time.Time) (int, error) {
	if s.stores.Carriers == nil || len(s.data.Carriers) == 0 {
		return 0, nil
	}
	if n, err := s.stores.Carriers.Count(ctx); err != nil || n > 0 {
		return 0, err
	}
	for _, c := range s.data.Carriers {
		if err := s.stores.Carriers.Create(ctx, c.model(now)); err != nil {
			return 0, fmt.Errorf("carrier %s: %w", c.ID, err)
		}
	}
	return len(s.data.Carriers), nil
}

func (s *Seeder) seedProducts(ctx context.Context, now time.Time) (int, error) {
	if s.stores.Products == nil || len(s.data.Products) == 0 {
		return 0, nil
	}
	if n, err := s.stores.Products.Count(ctx); err != nil || n > 0 {
		return 0, err
	}
	for _, p := range s.data.Products {
		if err := s.stores.Products.Create(ctx, p.model(now)); err != nil {
			return 0, fmt.Errorf("product %s: %w", p.ID, err)
		}
	}
	return len(s.data.Products), nil
}

func (s *Seeder) seedRules(ctx context.Context, now time.Time) (int, error) {
	if s.stores.Rules == nil || len(s.data.Rules) == 0 {
		return 0, nil
	}
	if n, err := s.stores.Rules.Count(ctx, rulemodels.All); err != nil || n > 0 {
		return 0, err
	}
	for _, r := range s.data.Rules {
		if err := s.stores.Rules.Create(ctx, r.model(now)); err != nil {
			return 0, fmt.Errorf("rule %s: %w", r.ID, err)
		}
	}
	return len(s.data.Rules), nil
}

func (s *Seeder) seedSubmissions(ctx context.Context, now time.Time) (int, error) {
	if s.stores.Submissions == nil || len(s.data.Submissions) == 0 {
		return 0, nil
	}
	if n, err := s.stores.Submissions.Count(ctx); err != nil || n > 0 {
		return 0, err
	}
	for _, sub := range s.data.Submissions {
		if err := s.stores.Submissions.Append(ctx, sub.model(now)); err != nil {
			return 0, fmt.Errorf("submission %s: %w", sub.ID, err)
		}
	}
	return len(s.data.Submissions), nil
}

func (s *Seeder) seedEvents(ctx context.Context, now time.Time) (int, error) {
	if s.stores.Events == nil || len(s.data.Events) == 0 {
		return 0, nil
	}
	if n, err := s.stores.Events.CountEvents(ctx); err != nil || n > 0 {
		return 0, err
	}
	events := make([]*analyticsmodels.Event, len(s.data.Events))
	for i, e := range s.data.Events {
		events[i] = e.model(now)
	}
	if err := s.stores.Events.Import(ctx, events); err != nil {
		return 0, err
	}
	return len(events), nil
}
