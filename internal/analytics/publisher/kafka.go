// Package publisher streams recorded analytics events to Kafka.
package publisher

//go:generate mockgen -source=kafka.go -destination=../mocks/producer.go -package=mocks Producer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"appetite/internal/analytics/metrics"
	"appetite/internal/analytics/models"
	"appetite/pkg/platform/circuit"
	"appetite/pkg/requestcontext"
)

const (
	defaultProduceTimeout = 5 * time.Second
	openProduceTimeout    = 250 * time.Millisecond
)

// Producer is the slice of *kgo.Client the publisher needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Kafka publishes one JSON record per event, keyed by event id. While the
// breaker is open, produce calls get a short deadline so a dead cluster does
// not stall request handling.
type Kafka struct {
	producer Producer
	topic    string
	breaker  *circuit.Breaker
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Kafka)

func WithLogger(logger *slog.Logger) Option {
	return func(k *Kafka) {
		k.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(k *Kafka) {
		k.metrics = m
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(k *Kafka) {
		k.breaker = b
	}
}

func NewKafka(producer Producer, topic string, opts ...Option) *Kafka {
	k := &Kafka{
		producer: producer,
		topic:    topic,
		breaker:  circuit.New("analytics-stream", circuit.WithFailureThreshold(3), circuit.WithSuccessThreshold(1)),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

type eventPayload struct {
	EventID   string         `json:"eventId"`
	Timestamp time.Time      `json:"timestamp"`
	UserID    string         `json:"userId,omitempty"`
	Action    string         `json:"action"`
	RuleID    string         `json:"ruleId,omitempty"`
	ProductID string         `json:"productId,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func (k *Kafka) Publish(ctx context.Context, e *models.Event) error {
	value, err := json.Marshal(eventPayload{
		EventID:   e.ID,
		Timestamp: e.Timestamp,
		UserID:    e.UserID,
		Action:    e.Action,
		RuleID:    e.RuleID,
		ProductID: e.ProductID,
		Metadata:  e.Metadata,
	})
	if err != nil {
		return fmt.Errorf("encode analytics event: %w", err)
	}

	timeout := defaultProduceTimeout
	if k.breaker.IsOpen() {
		timeout = openProduceTimeout
	}
	produceCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	rec := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(e.ID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(e.Action)},
		},
	}
	if err := k.producer.ProduceSync(produceCtx, rec).FirstErr(); err != nil {
		k.metrics.IncrementPublish("error")
		if _, change := k.breaker.RecordFailure(); change.Opened {
			k.metrics.SetBreakerOpen(true)
			k.logger.WarnContext(ctx, "analytics stream circuit opened",
				"request_id", requestcontext.RequestID(ctx),
				"topic", k.topic,
				"error", err,
			)
		}
		return fmt.Errorf("produce analytics event: %w", err)
	}

	k.metrics.IncrementPublish("ok")
	if _, change := k.breaker.RecordSuccess(); change.Closed {
		k.metrics.SetBreakerOpen(false)
		k.logger.InfoContext(ctx, "analytics stream circuit closed",
			"request_id", requestcontext.RequestID(ctx),
			"topic", k.topic,
		)
	}
	return nil
}
