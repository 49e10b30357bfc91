package tx

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithTx(t *testing.T) {
	ctx := context.Background()
	assert.False(t, Active(ctx))
	assert.Equal(t, ctx, WithTx(ctx, nil))

	sqlTx := &sql.Tx{}
	inTx := WithTx(ctx, sqlTx)
	got, ok := From(inTx)
	assert.True(t, ok)
	assert.Same(t, sqlTx, got)
	assert.True(t, Active(inTx))
}
