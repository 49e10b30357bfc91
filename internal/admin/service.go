// Package admin reports store and backend health and triggers seeding.
package admin

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"appetite/internal/seed"
	dErrors "appetite/pkg/domain-errors"
	"appetite/pkg/requestcontext"
)

const healthTimeout = 2 * time.Second

// Counter returns the number of records in one store.
type Counter func(ctx context.Context) (int, error)

type HealthChecker interface {
	Health(ctx context.Context) error
}

type Seeder interface {
	Run(ctx context.Context) (*seed.Report, error)
}

// Backend is the health of one optional backend.
type Backend struct {
	Healthy bool
	Error   string
}

type Status struct {
	CheckedAt time.Time
	Healthy   bool
	Counts    map[string]int
	Backends  map[string]Backend
}

type Service struct {
	counters map[string]Counter
	backends map[string]HealthChecker
	seeder   Seeder
	logger   *slog.Logger
}

type Option func(*Service)

func WithCounter(name string, fn Counter) Option {
	return func(s *Service) {
		s.counters[name] = fn
	}
}

// WithBackend registers a health check. A nil checker is ignored so optional
// backends can be passed unconditionally.
func WithBackend(name string, hc HealthChecker) Option {
	return func(s *Service) {
		if hc != nil {
			s.backends[name] = hc
		}
	}
}

func WithSeeder(seeder Seeder) Option {
	return func(s *Service) {
		s.seeder = seeder
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(opts ...Option) *Service {
	s := &Service{
		counters: make(map[string]Counter),
		backends: make(map[string]HealthChecker),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status counts every store and pings every backend concurrently. A failing
// count is an error; an unhealthy backend only marks the status unhealthy.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	status := &Status{
		CheckedAt: requestcontext.Now(ctx),
		Healthy:   true,
		Counts:    make(map[string]int, len(s.counters)),
		Backends:  make(map[string]Backend, len(s.backends)),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for name, count := range s.counters {
		g.Go(func() error {
			n, err := count(gctx)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count "+name)
			}
			mu.Lock()
			status.Counts[name] = n
			mu.Unlock()
			return nil
		})
	}
	for name, hc := range s.backends {
		g.Go(func() error {
			hctx, cancel := context.WithTimeout(gctx, healthTimeout)
			defer cancel()
			b := Backend{Healthy: true}
			if err := hc.Health(hctx); err != nil {
				b = Backend{Error: err.Error()}
				s.logger.WarnContext(ctx, "backend unhealthy",
					"request_id", requestcontext.RequestID(ctx),
					"backend", name,
					"error", err,
				)
			}
			mu.Lock()
			status.Backends[name] = b
			if !b.Healthy {
				status.Healthy = false
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return status, nil
}

// Seed loads fixtures into empty stores.
func (s *Service) Seed(ctx context.Context) (*seed.Report, error) {
	if s.seeder == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "seeding is not configured")
	}
	report, err := s.seeder.Run(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to seed stores")
	}
	s.logger.InfoContext(ctx, "seed completed",
		"request_id", requestcontext.RequestID(ctx),
		"users", report.Users,
		"rules", report.Rules,
		"events", report.Events,
	)
	return report, nil
}
