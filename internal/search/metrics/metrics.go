package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics observes rule search traffic.
type Metrics struct {
	Searches       *prometheus.CounterVec
	SearchDuration prometheus.Histogram
	MatchedRules   prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Searches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "appetite_rule_searches_total",
			Help: "Rule searches by operation",
		}, []string{"op"}),
		SearchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "appetite_rule_search_duration_seconds",
			Help:    "Duration of a rule search including the store scan",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
		MatchedRules: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "appetite_rule_search_matches",
			Help:    "Number of rules matched before pagination",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
}

// ObserveSearch records one search. Call with time.Now() taken at the start.
func (m *Metrics) ObserveSearch(op string, start time.Time, matched int) {
	if m == nil {
		return
	}
	m.Searches.WithLabelValues(op).Inc()
	m.SearchDuration.Observe(time.Since(start).Seconds())
	m.MatchedRules.Observe(float64(matched))
}
