package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the eligibility evaluator.
type Metrics struct {
	Decisions         *prometheus.CounterVec
	EvaluateDuration  prometheus.Histogram
	MatcherFallbacks  prometheus.Counter
	AnalyticsFailures prometheus.Counter
	EligibilityChecks *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "appetite_decisions_total",
			Help: "Evaluations by decision",
		}, []string{"decision"}),
		EvaluateDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "appetite_evaluate_duration_seconds",
			Help:    "Duration of Evaluate including rule matching and the submission append",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
		MatcherFallbacks: f.NewCounter(prometheus.CounterOpts{
			Name: "appetite_matcher_fallbacks_total",
			Help: "Evaluations decided by the static policy after the configured matcher failed",
		}),
		AnalyticsFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "appetite_decision_analytics_failures_total",
			Help: "Decision notifications that could not be recorded",
		}),
		EligibilityChecks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "appetite_eligibility_checks_total",
			Help: "Product eligibility checks by result",
		}, []string{"eligible"}),
	}
}

// ObserveEvaluation records one evaluation. Call with time.Now() taken at the start.
func (m *Metrics) ObserveEvaluation(decision string, start time.Time) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(decision).Inc()
	m.EvaluateDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementMatcherFallback() {
	if m != nil {
		m.MatcherFallbacks.Inc()
	}
}

func (m *Metrics) IncrementAnalyticsFailure() {
	if m != nil {
		m.AnalyticsFailures.Inc()
	}
}

func (m *Metrics) IncrementEligibilityCheck(eligible bool) {
	if m == nil {
		return
	}
	label := "false"
	if eligible {
		label = "true"
	}
	m.EligibilityChecks.WithLabelValues(label).Inc()
}
