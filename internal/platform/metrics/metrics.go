package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry returns a registry preloaded with Go runtime and process
// collectors. Module metrics register against it so tests can use their own.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler exposes reg in the Prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Metrics holds the account and transport metrics for the application.
type Metrics struct {
	UsersCreated    prometheus.Counter
	LoginAttempts   *prometheus.CounterVec
	AccountLockouts prometheus.Counter
	RequestDuration *prometheus.HistogramVec
}

// New creates and registers all application-level metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		UsersCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "appetite_users_created_total",
			Help: "Total number of users created in the system",
		}),
		LoginAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "appetite_login_attempts_total",
			Help: "Login attempts by result",
		}, []string{"result"}), // result: "success", "invalid_credentials", "locked"
		AccountLockouts: f.NewCounter(prometheus.CounterOpts{
			Name: "appetite_account_lockouts_total",
			Help: "Accounts locked after repeated login failures",
		}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "appetite_http_request_duration_seconds",
			Help:    "HTTP request duration by route pattern and status",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "status"}),
	}
}

// IncrementUsersCreated increments the users created counter by 1
func (m *Metrics) IncrementUsersCreated() {
	if m != nil {
		m.UsersCreated.Inc()
	}
}

// IncrementLoginAttempt records a login attempt outcome.
func (m *Metrics) IncrementLoginAttempt(result string) {
	if m != nil {
		m.LoginAttempts.WithLabelValues(result).Inc()
	}
}

// IncrementLockouts records an account lockout.
func (m *Metrics) IncrementLockouts() {
	if m != nil {
		m.AccountLockouts.Inc()
	}
}

// Middleware observes request latency labelled by chi route pattern, which
// keeps path parameters out of the label set.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
