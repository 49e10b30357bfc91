package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appetite/internal/platform/config"
)

func TestNewWithoutURL(t *testing.T) {
	c, err := New(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestClientOptions(t *testing.T) {
	opts, err := clientOptions(config.RedisConfig{
		URL:         "redis://cache.internal:6380/2",
		PoolSize:    25,
		DialTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 25, opts.PoolSize)
	assert.Equal(t, 2*time.Second, opts.DialTimeout)

	_, err = clientOptions(config.RedisConfig{URL: "http://not-redis"})
	assert.Error(t, err)
}
