package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "appetite/pkg/domain-errors"
	"appetite/pkg/platform/sentinel"
)

func TestSequential(t *testing.T) {
	assert.Equal(t, "rul-001", Sequential(PrefixRule, 1))
	assert.Equal(t, "usr-042", Sequential(PrefixUser, 42))
	assert.Equal(t, "prod-1234", Sequential(PrefixProduct, 1234))
}

func TestSequenceOf(t *testing.T) {
	n, ok := SequenceOf(PrefixRule, "rul-1010")
	require.True(t, ok)
	assert.Equal(t, 1010, n)

	for _, id := range []string{"usr-001", "rul-", "rul-abc", "rul-007x", "rul--1"} {
		_, ok := SequenceOf(PrefixRule, id)
		assert.False(t, ok, id)
	}
}

func TestCounterNeverMovesBackwards(t *testing.T) {
	c := NewCounter(PrefixRule)
	c.Observe("rul-005")
	c.Observe("rul-002")
	c.Observe("usr-900")
	c.Observe("rul-legacy")

	assert.Equal(t, 6, c.Next())
	assert.Equal(t, 7, c.Next())
	c.Observe("rul-003")
	assert.Equal(t, 8, c.Next())
}

func TestAllocate(t *testing.T) {
	ctx := context.Background()
	sequence := func() func(context.Context) (int, error) {
		c := NewCounter(PrefixRule)
		c.Observe("rul-002")
		return func(context.Context) (int, error) { return c.Next(), nil }
	}

	t.Run("uses the next sequence number", func(t *testing.T) {
		var created string
		id, err := Allocate(ctx, PrefixRule, sequence(), func(_ context.Context, id string) error {
			created = id
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "rul-003", id)
		assert.Equal(t, id, created)
	})

	t.Run("reserves a fresh number on conflict", func(t *testing.T) {
		taken := map[string]bool{"rul-003": true, "rul-004": true}
		id, err := Allocate(ctx, PrefixRule, sequence(), func(_ context.Context, id string) error {
			if taken[id] {
				return sentinel.ErrConflict
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "rul-005", id)
	})

	t.Run("wraps reservation errors", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := Allocate(ctx, PrefixRule, func(context.Context) (int, error) { return 0, boom },
			func(context.Context, string) error { return nil })
		assert.ErrorIs(t, err, boom)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})

	t.Run("propagates other errors", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := Allocate(ctx, PrefixRule, sequence(), func(context.Context, string) error { return boom })
		assert.ErrorIs(t, err, boom)
	})

	t.Run("gives up after repeated conflicts", func(t *testing.T) {
		_, err := Allocate(ctx, PrefixRule, sequence(), func(context.Context, string) error { return sentinel.ErrConflict })
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})
}
