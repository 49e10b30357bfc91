package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appetite/internal/catalog/models"
	"appetite/pkg/platform/sentinel"
)

func TestCarriersInMemory(t *testing.T) {
	ctx := context.Background()
	s := NewCarriersInMemory()

	days := 30
	c := &models.Carrier{ID: "car-001", LegalName: "Acme", ProductsOffered: []string{"prod-001"}, RetentionPolicyDays: &days}
	require.NoError(t, s.Create(ctx, c))
	require.ErrorIs(t, s.Create(ctx, c), sentinel.ErrConflict)
	require.NoError(t, s.Create(ctx, &models.Carrier{ID: "car-002", LegalName: "Beta"}))

	c.ProductsOffered[0] = "mutated"
	*c.RetentionPolicyDays = 1
	got, err := s.GetByID(ctx, "car-001")
	require.NoError(t, err)
	assert.Equal(t, []string{"prod-001"}, got.ProductsOffered, "store keeps its own copy")
	assert.Equal(t, 30, *got.RetentionPolicyDays)

	got.LegalName = "Acme Holdings"
	require.NoError(t, s.Update(ctx, got))
	require.ErrorIs(t, s.Update(ctx, &models.Carrier{ID: "car-404"}), sentinel.ErrNotFound)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Acme Holdings", list[0].LegalName)
	assert.Equal(t, "car-002", list[1].ID)

	require.NoError(t, s.Delete(ctx, "car-001"))
	require.ErrorIs(t, s.Delete(ctx, "car-001"), sentinel.ErrNotFound)
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.Delete(ctx, "car-002"))
	next, err := s.NextSequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, next, "deleted carrier ids are not reissued")
}

func TestProductsInMemory(t *testing.T) {
	ctx := context.Background()
	s := NewProductsInMemory()

	require.NoError(t, s.Create(ctx, &models.Product{ID: "prod-001", Name: "GL", NaicsAllowed: []string{"722511"}}))
	require.ErrorIs(t, s.Create(ctx, &models.Product{ID: "prod-001"}), sentinel.ErrConflict)

	_, err := s.GetByID(ctx, "prod-404")
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	got, err := s.GetByID(ctx, "prod-001")
	require.NoError(t, err)
	assert.True(t, got.AllowsNaics("722511"))
	assert.False(t, got.AllowsNaics("445110"))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	next, err := s.NextSequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, next)
	next, err = s.NextSequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, next)
}
