package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "appetite/pkg/domain-errors"
)

func TestPriorityRank(t *testing.T) {
	assert.Equal(t, 3, PriorityRank("High"))
	assert.Equal(t, 2, PriorityRank("medium"))
	assert.Equal(t, 1, PriorityRank("low"))
	assert.Equal(t, 1, PriorityRank(""))
	assert.Equal(t, 1, PriorityRank("urgent"))
}

func TestInEffect(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	r := &Rule{EffectiveFrom: &from, EffectiveTo: &to}

	assert.True(t, r.InEffect(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, r.InEffect(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, r.InEffect(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, (&Rule{}).InEffect(time.Now()), "open window")
}

func TestCovers(t *testing.T) {
	r := &Rule{NaicsCodes: []string{"722511"}, States: []string{"CA", "NV"}}
	assert.True(t, r.Covers("722511", "ca"))
	assert.False(t, r.Covers("722511", "NY"))
	assert.False(t, r.Covers("445110", "CA"))
}

func TestCheckRevenueBounds(t *testing.T) {
	r := &Rule{
		MinRevenue: decimal.NewNullDecimal(decimal.NewFromInt(500)),
		MaxRevenue: decimal.NewNullDecimal(decimal.NewFromInt(100)),
	}
	err := r.CheckRevenueBounds()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	r.MaxRevenue = decimal.NewNullDecimal(decimal.NewFromInt(1000))
	assert.NoError(t, r.CheckRevenueBounds())
}

func TestCloneIsDeep(t *testing.T) {
	r := &Rule{ID: "rul-001", NaicsCodes: []string{"722511"}}
	c := r.Clone()
	c.NaicsCodes[0] = "000000"
	assert.Equal(t, "722511", r.NaicsCodes[0])
}

func TestEffectivePriority(t *testing.T) {
	assert.Equal(t, PriorityMedium, (&Rule{}).EffectivePriority())
	assert.Equal(t, "high", (&Rule{Priority: "high"}).EffectivePriority())
}
