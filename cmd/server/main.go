package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"appetite/internal/admin"
	adminadapters "appetite/internal/admin/adapters"
	analyticshandler "appetite/internal/analytics/handler"
	analyticsmetrics "appetite/internal/analytics/metrics"
	analyticspublisher "appetite/internal/analytics/publisher"
	analyticsservice "appetite/internal/analytics/service"
	analyticsstore "appetite/internal/analytics/store"
	authhandler "appetite/internal/auth/handler"
	"appetite/internal/auth/lockout"
	authservice "appetite/internal/auth/service"
	authstore "appetite/internal/auth/store"
	cataloghandler "appetite/internal/catalog/handler"
	catalogservice "appetite/internal/catalog/service"
	catalogstore "appetite/internal/catalog/store"
	checkerhandler "appetite/internal/checker/handler"
	"appetite/internal/checker/matcher"
	checkermetrics "appetite/internal/checker/metrics"
	checkerservice "appetite/internal/checker/service"
	checkerstore "appetite/internal/checker/store"
	httpapi "appetite/internal/http"
	jwttoken "appetite/internal/jwt_token"
	"appetite/internal/platform/config"
	"appetite/internal/platform/httpserver"
	"appetite/internal/platform/kafka"
	"appetite/internal/platform/logger"
	"appetite/internal/platform/metrics"
	"appetite/internal/platform/postgres"
	"appetite/internal/platform/redis"
	ruleshandler "appetite/internal/rules/handler"
	rulesmetrics "appetite/internal/rules/metrics"
	rulesservice "appetite/internal/rules/service"
	rulestore "appetite/internal/rules/store"
	searchhandler "appetite/internal/search/handler"
	searchmetrics "appetite/internal/search/metrics"
	searchservice "appetite/internal/search/service"
	"appetite/internal/seed"
	"appetite/pkg/platform/audit"
	auditpublisher "appetite/pkg/platform/audit/publisher"
	auditmemory "appetite/pkg/platform/audit/store/memory"
	auditpostgres "appetite/pkg/platform/audit/store/postgres"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("appetite checker exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	infra, err := connect(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("connect backends: %w", err)
	}
	defer infra.close()

	app, err := buildApp(cfg, infra, log)
	if err != nil {
		return fmt.Errorf("build services: %w", err)
	}
	defer app.audit.Close()

	if cfg.SeedOnStart {
		if _, err := app.seeder.Run(ctx); err != nil {
			return fmt.Errorf("seed stores: %w", err)
		}
	}

	srv := httpserver.New(cfg.Addr, app.router,
		httpserver.WithReadTimeout(cfg.HTTP.ReadTimeout),
		httpserver.WithWriteTimeout(cfg.HTTP.WriteTimeout),
		httpserver.WithIdleTimeout(cfg.HTTP.IdleTimeout),
	)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting appetite checker", "addr", cfg.Addr, "env", cfg.Environment, "rule_matching", cfg.RuleMatching)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case serveErr = <-errCh:
		log.Error("server error", "error", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	log.Info("server stopped")
	return serveErr
}

// infra holds the optional backends. A nil field means the in-memory
// implementation is used for that concern.
type infra struct {
	db    *sql.DB
	pool  *pgxpool.Pool
	redis *redis.Client
	kafka *kafka.Client
}

func connect(ctx context.Context, cfg config.Server, log *slog.Logger) (*infra, error) {
	in := &infra{}
	var err error
	if cfg.Database.URL != "" {
		if in.db, err = postgres.Open(ctx, cfg.Database); err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, in.db); err != nil {
			in.close()
			return nil, err
		}
		log.Info("postgres stores enabled")
	}
	if cfg.Analytics.DatabaseURL != "" {
		if in.pool, err = postgres.Connect(ctx, cfg.Analytics); err != nil {
			in.close()
			return nil, err
		}
		log.Info("pgx analytics store enabled")
	}
	if in.redis, err = redis.New(ctx, cfg.Redis); err != nil {
		in.close()
		return nil, err
	}
	if in.redis != nil {
		log.Info("redis lockout store enabled")
	}
	if in.kafka, err = kafka.New(ctx, cfg.Kafka); err != nil {
		in.close()
		return nil, err
	}
	if in.kafka != nil {
		if err := in.kafka.EnsureTopic(ctx); err != nil {
			in.close()
			return nil, err
		}
		log.Info("kafka analytics stream enabled", "topic", in.kafka.Topic())
	}
	return in, nil
}

func (in *infra) close() {
	if in.kafka != nil {
		in.kafka.Close()
	}
	if in.redis != nil {
		_ = in.redis.Close()
	}
	if in.pool != nil {
		in.pool.Close()
	}
	if in.db != nil {
		_ = in.db.Close()
	}
}

type app struct {
	router http.Handler
	seeder *seed.Seeder
	audit  *auditpublisher.Publisher
}

type stores struct {
	users       authservice.UserStore
	lockouts    authservice.LockoutStore
	rules       ruleStore
	carriers    catalogservice.CarrierStore
	products    catalogservice.ProductStore
	submissions checkerservice.SubmissionStore
	events      analyticsservice.EventStore
	audit       audit.Store
}

// ruleStore is satisfied by both rule store implementations.
type ruleStore interface {
	rulesservice.Store
	searchservice.RuleSource
	matcher.CoveringScanner
}

func buildStores(cfg config.Server, in *infra) stores {
	policy := lockout.Policy{Threshold: cfg.Auth.LockoutThreshold, Duration: cfg.Auth.LockoutDuration}
	s := stores{lockouts: lockout.NewInMemory(policy)}
	if in.redis != nil {
		s.lockouts = lockout.NewRedis(in.redis.Client, policy)
	}

	if in.db != nil {
		s.users = authstore.NewPostgres(in.db)
		s.rules = rulestore.NewPostgres(in.db)
		s.carriers = catalogstore.NewCarriersPostgres(in.db)
		s.products = catalogstore.NewProductsPostgres(in.db)
		s.submissions = checkerstore.NewPostgres(in.db)
		s.audit = auditpostgres.New(in.db)
	} else {
		s.users = authstore.NewInMemory()
		s.rules = rulestore.NewInMemory()
		s.carriers = catalogstore.NewCarriersInMemory()
		s.products = catalogstore.NewProductsInMemory()
		s.submissions = checkerstore.NewInMemory()
		s.audit = auditmemory.NewInMemoryStore()
	}

	if in.pool != nil {
		s.events = analyticsstore.NewPgx(in.pool)
	} else {
		s.events = analyticsstore.NewInMemory()
	}
	return s
}

func buildApp(cfg config.Server, in *infra, log *slog.Logger) (*app, error) {
	reg := metrics.NewRegistry()
	platformMetrics := metrics.New(reg)
	st := buildStores(cfg, in)
	rules := st.rules

	auditPub := auditpublisher.NewPublisher(st.audit,
		auditpublisher.WithAsyncBuffer(256),
		auditpublisher.WithLogger(log),
	)
	tokens := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)

	analyticsMetrics := analyticsmetrics.New(reg)
	analyticsOpts := []analyticsservice.Option{
		analyticsservice.WithRules(rules),
		analyticsservice.WithUsers(st.users),
		analyticsservice.WithCarriers(st.carriers),
		analyticsservice.WithProducts(st.products),
		analyticsservice.WithLogger(log),
		analyticsservice.WithMetrics(analyticsMetrics),
	}
	if in.kafka != nil {
		analyticsOpts = append(analyticsOpts, analyticsservice.WithPublisher(analyticspublisher.NewKafka(
			in.kafka.Client, in.kafka.Topic(),
			analyticspublisher.WithLogger(log),
			analyticspublisher.WithMetrics(analyticsMetrics),
		)))
	}
	analytics := analyticsservice.New(st.events, analyticsOpts...)

	checkerOpts := []checkerservice.Option{
		checkerservice.WithProducts(st.products),
		checkerservice.WithAnalytics(analytics),
		checkerservice.WithAuditPublisher(auditPub),
		checkerservice.WithLogger(log),
		checkerservice.WithMetrics(checkermetrics.New(reg)),
	}
	if cfg.RuleMatching == config.RuleMatchingStore {
		checkerOpts = append(checkerOpts,
			checkerservice.WithMatcher(matcher.NewChain(log, matcher.NewStoreMatcher(rules), matcher.StaticPolicy{})),
			checkerservice.WithRuleRecommendations(rules),
		)
	}
	checker := checkerservice.New(st.submissions, checkerOpts...)

	search := searchservice.New(rules,
		searchservice.WithLogger(log),
		searchservice.WithMetrics(searchmetrics.New(reg)),
	)
	ruleSvc := rulesservice.New(rules,
		rulesservice.WithLogger(log),
		rulesservice.WithMetrics(rulesmetrics.New(reg)),
		rulesservice.WithAuditPublisher(auditPub),
	)
	catalog := catalogservice.New(st.carriers, st.products,
		catalogservice.WithLogger(log),
		catalogservice.WithAuditPublisher(auditPub),
	)
	authOpts := []authservice.Option{
		authservice.WithLogger(log),
		authservice.WithMetrics(platformMetrics),
		authservice.WithAuditPublisher(auditPub),
		authservice.WithTokenTTL(cfg.Auth.TokenTTL),
		authservice.WithCarrierProvisioner(catalog),
	}
	if in.db != nil {
		authOpts = append(authOpts, authservice.WithTx(func(ctx context.Context, fn func(context.Context) error) error {
			return postgres.RunInTx(ctx, in.db, fn)
		}))
	}
	auth, err := authservice.New(st.users, st.lockouts, tokens, authOpts...)
	if err != nil {
		return nil, err
	}

	data, err := seed.Load(cfg.SeedFile)
	if err != nil {
		return nil, err
	}
	seedOpts := []seed.Option{seed.WithLogger(log)}
	if in.db != nil {
		seedOpts = append(seedOpts, seed.WithTx(func(ctx context.Context, fn func(context.Context) error) error {
			return postgres.RunInTx(ctx, in.db, fn)
		}))
	}
	seeder := seed.New(data, seed.Stores{
		Users:       st.users,
		Carriers:    st.carriers,
		Products:    st.products,
		Rules:       rules,
		Submissions: st.submissions,
		Events:      analytics,
	}, seedOpts...)

	adminOpts := []admin.Option{
		admin.WithCounter("users", auth.CountUsers),
		admin.WithCounter("carriers", catalog.CountCarriers),
		admin.WithCounter("products", catalog.CountProducts),
		admin.WithCounter("rules", ruleSvc.Count),
		admin.WithCounter("submissions", checker.CountSubmissions),
		admin.WithCounter("events", analytics.CountEvents),
		admin.WithSeeder(seeder),
		admin.WithLogger(log),
	}
	if in.db != nil {
		adminOpts = append(adminOpts, admin.WithBackend("postgres", adminadapters.NewSQLHealth(in.db)))
	}
	if in.pool != nil {
		adminOpts = append(adminOpts, admin.WithBackend("analytics_postgres", adminadapters.NewPoolHealth(in.pool)))
	}
	if in.redis != nil {
		adminOpts = append(adminOpts, admin.WithBackend("redis", in.redis))
	}
	if in.kafka != nil {
		adminOpts = append(adminOpts, admin.WithBackend("kafka", in.kafka))
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:    log,
		Metrics:   platformMetrics,
		Registry:  reg,
		Tokens:    tokens,
		Checker:   checkerhandler.New(checker, log),
		Search:    searchhandler.New(search, log),
		Analytics: analyticshandler.New(analytics, log),
		Auth:      authhandler.New(auth, log),
		Rules:     ruleshandler.New(ruleSvc, log),
		Catalog:   cataloghandler.New(catalog, log),
		Admin:     admin.NewHandler(admin.New(adminOpts...), cfg.AdminAPIToken, log),
	})
	return &app{router: router, seeder: seeder, audit: auditPub}, nil
}
