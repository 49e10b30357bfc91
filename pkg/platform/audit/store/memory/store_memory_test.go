package memory

import (
	"context"
	"testing"
	"time"

	audit "appetite/pkg/platform/audit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore_ListRecentNewestFirst(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i, action := range []string{"first", "second", "third"} {
		require.NoError(t, s.Append(ctx, audit.Event{
			UserID:    "usr-001",
			Action:    action,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	recent, err := s.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "third", recent[0].Action)
	assert.Equal(t, "second", recent[1].Action)
}

func TestInMemoryStore_ListByUser(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, audit.Event{UserID: "usr-001", Action: "a"}))
	require.NoError(t, s.Append(ctx, audit.Event{UserID: "usr-002", Action: "b"}))

	events, err := s.ListByUser(ctx, "usr-002")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "b", events[0].Action)

	s.Clear()
	events, err = s.ListByUser(ctx, "usr-002")
	require.NoError(t, err)
	assert.Empty(t, events)
}
