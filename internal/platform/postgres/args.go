package postgres

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"appetite/pkg/platform/sentinel"
)

// RowScanner is satisfied by *sql.Row and *sql.Rows.
type RowScanner interface {
	Scan(dest ...any) error
}

// StringArray binds values to a TEXT[] column; nil becomes '{}'.
func StringArray(values []string) any {
	if values == nil {
		values = []string{}
	}
	return pq.Array(values)
}

// NullTimeArg binds an optional time.
func NullTimeArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// NullIntArg binds an optional int.
func NullIntArg(i *int) any {
	if i == nil {
		return nil
	}
	return int64(*i)
}

func TimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func IntPtr(i sql.NullInt64) *int {
	if !i.Valid {
		return nil
	}
	v := int(i.Int64)
	return &v
}

// ExpectOneRow maps a zero-row UPDATE or DELETE to sentinel.ErrNotFound.
func ExpectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
