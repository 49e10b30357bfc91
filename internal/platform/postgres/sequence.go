package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// NextSequence reserves the next sequence number for identifiers issued under
// prefix into table. The first reservation for a prefix starts above the
// highest identifier already stored; after that the counter only moves up, so
// a deleted identifier is never issued again. table must be a trusted name.
func NextSequence(ctx context.Context, db *sql.DB, table, prefix string) (int, error) {
	var n int64
	err := Conn(ctx, db).QueryRowContext(ctx, `
		INSERT INTO id_sequences (prefix, last_value)
		SELECT $1::text, COALESCE(MAX(substring(id FROM '^' || $1::text || '-([0-9]+)$')::BIGINT), 0) + 1
		FROM `+table+`
		ON CONFLICT (prefix) DO UPDATE
			SET last_value = GREATEST(id_sequences.last_value + 1, EXCLUDED.last_value)
		RETURNING last_value`,
		prefix,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("next %s sequence: %w", prefix, err)
	}
	return int(n), nil
}
