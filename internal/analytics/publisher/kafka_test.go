package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/mock/gomock"

	"appetite/internal/analytics/metrics"
	"appetite/internal/analytics/mocks"
	"appetite/internal/analytics/models"
	"appetite/pkg/platform/circuit"
)

func testEvent() *models.Event {
	return &models.Event{
		ID:        "evt-1",
		Timestamp: time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC),
		Action:    models.ActionCheckerDecision,
		Metadata:  map[string]any{"decision": "Eligible"},
	}
}

func TestPublishEncodesRecord(t *testing.T) {
	ctrl := gomock.NewController(t)
	producer := mocks.NewMockProducer(ctrl)

	producer.EXPECT().ProduceSync(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
			require.Len(t, rs, 1)
			assert.Equal(t, "appetite.analytics", rs[0].Topic)
			assert.Equal(t, []byte("evt-1"), rs[0].Key)

			var payload map[string]any
			require.NoError(t, json.Unmarshal(rs[0].Value, &payload))
			assert.Equal(t, "checker_decision", payload["action"])
			assert.Equal(t, "Eligible", payload["metadata"].(map[string]any)["decision"])
			return kgo.ProduceResults{{Record: rs[0]}}
		})

	k := NewKafka(producer, "appetite.analytics")
	require.NoError(t, k.Publish(context.Background(), testEvent()))
}

func TestPublishOpensAndClosesBreaker(t *testing.T) {
	ctrl := gomock.NewController(t)
	producer := mocks.NewMockProducer(ctrl)
	m := metrics.New(prometheus.NewRegistry())
	breaker := circuit.New("test", circuit.WithFailureThreshold(2), circuit.WithSuccessThreshold(1))
	k := NewKafka(producer, "appetite.analytics",
		WithBreaker(breaker),
		WithMetrics(m),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	failed := kgo.ProduceResults{{Err: errors.New("broker unreachable")}}
	producer.EXPECT().ProduceSync(gomock.Any(), gomock.Any()).Return(failed).Times(2)

	assert.Error(t, k.Publish(context.Background(), testEvent()))
	assert.False(t, breaker.IsOpen())
	assert.Error(t, k.Publish(context.Background(), testEvent()))
	assert.True(t, breaker.IsOpen())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BreakerOpen))

	producer.EXPECT().ProduceSync(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults {
			deadline, ok := ctx.Deadline()
			require.True(t, ok)
			assert.LessOrEqual(t, time.Until(deadline), openProduceTimeout)
			return kgo.ProduceResults{{Record: rs[0]}}
		})
	require.NoError(t, k.Publish(context.Background(), testEvent()))
	assert.False(t, breaker.IsOpen())
	assert.Equal(t, 0.0, testutil.ToFloat64(m.BreakerOpen))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PublishResults.WithLabelValues("error")))
}
