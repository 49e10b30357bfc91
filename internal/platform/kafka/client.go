// Package kafka owns the franz-go client used to stream analytics events.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"appetite/internal/platform/config"
)

// Client wraps a kgo client bound to a default produce topic.
type Client struct {
	*kgo.Client
	topic             string
	partitions        int32
	replicationFactor int16
}

// New connects to the configured brokers. Returns nil if no brokers are
// configured (streaming disabled).
func New(ctx context.Context, cfg config.KafkaConfig) (*Client, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.DefaultProduceTopic(cfg.AnalyticsTopic),
		kgo.ProducerLinger(5*time.Millisecond),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := cl.Ping(pingCtx); err != nil {
		cl.Close()
		return nil, fmt.Errorf("kafka ping failed: %w", err)
	}

	return &Client{
		Client:            cl,
		topic:             cfg.AnalyticsTopic,
		partitions:        cfg.TopicPartitions,
		replicationFactor: cfg.ReplicationFactor,
	}, nil
}

// Topic returns the default produce topic.
func (c *Client) Topic() string {
	return c.topic
}

// EnsureTopic creates the analytics topic if it does not exist yet.
func (c *Client) EnsureTopic(ctx context.Context) error {
	adm := kadm.NewClient(c.Client)
	resp, err := adm.CreateTopic(ctx, c.partitions, c.replicationFactor, nil, c.topic)
	if err == nil {
		err = resp.Err
	}
	if err != nil && !errors.Is(err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", c.topic, err)
	}
	return nil
}

// Health pings the cluster.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx)
}
