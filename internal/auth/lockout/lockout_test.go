package lockout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryLocksAtThreshold(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	s := NewInMemory(DefaultPolicy)

	for i := 0; i < 4; i++ {
		locked, _, err := s.RecordFailure(ctx, "carrier@example.com", now)
		require.NoError(t, err)
		assert.False(t, locked)
	}
	locked, until, err := s.RecordFailure(ctx, "carrier@example.com", now)
	require.NoError(t, err)
	assert.True(t, locked)
	assert.Equal(t, now.Add(15*time.Minute), until)

	locked, _, err = s.Locked(ctx, "carrier@example.com", now.Add(14*time.Minute))
	require.NoError(t, err)
	assert.True(t, locked)

	locked, _, err = s.Locked(ctx, "carrier@example.com", now.Add(15*time.Minute))
	require.NoError(t, err)
	assert.False(t, locked, "lock expires after the duration")

	locked, _, err = s.Locked(ctx, "other@example.com", now)
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestInMemoryResetClearsFailures(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s := NewInMemory(Policy{Threshold: 2, Duration: time.Minute})

	_, _, err := s.RecordFailure(ctx, "k", now)
	require.NoError(t, err)
	require.NoError(t, s.Reset(ctx, "k"))

	locked, _, err := s.RecordFailure(ctx, "k", now)
	require.NoError(t, err)
	assert.False(t, locked, "count restarted after reset")
}
