package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts rule write-path operations.
type Metrics struct {
	RuleChanges *prometheus.CounterVec
}

// New registers the rule metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RuleChanges: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "appetite_rule_changes_total",
			Help: "Rule create, update and delete operations",
		}, []string{"op"}),
	}
}

func (m *Metrics) IncrementCreated() { m.inc("create") }
func (m *Metrics) IncrementUpdated() { m.inc("update") }
func (m *Metrics) IncrementDeleted() { m.inc("delete") }

func (m *Metrics) inc(op string) {
	if m != nil {
		m.RuleChanges.WithLabelValues(op).Inc()
	}
}
