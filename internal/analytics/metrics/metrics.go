package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers event ingestion and the stream publisher.
type Metrics struct {
	EventsRecorded *prometheus.CounterVec
	PublishResults *prometheus.CounterVec
	BreakerOpen    prometheus.Gauge
	FetchDuration  prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EventsRecorded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "appetite_analytics_events_total",
			Help: "Analytics events recorded by action",
		}, []string{"action"}),
		PublishResults: f.NewCounterVec(prometheus.CounterOpts{
			Name: "appetite_analytics_publish_total",
			Help: "Stream publish attempts by result",
		}, []string{"result"}), // result: "ok", "error", "skipped"
		BreakerOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "appetite_analytics_publisher_breaker_open",
			Help: "1 while the stream publisher circuit is open",
		}),
		FetchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "appetite_analytics_aggregate_duration_seconds",
			Help:    "Time spent computing analytics aggregates",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncrementEvent(action string) {
	if m != nil {
		m.EventsRecorded.WithLabelValues(action).Inc()
	}
}

func (m *Metrics) IncrementPublish(result string) {
	if m != nil {
		m.PublishResults.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) SetBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.BreakerOpen.Set(1)
		return
	}
	m.BreakerOpen.Set(0)
}

func (m *Metrics) ObserveAggregate(seconds float64) {
	if m != nil {
		m.FetchDuration.Observe(seconds)
	}
}
