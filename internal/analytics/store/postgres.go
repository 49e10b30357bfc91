package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"appetite/internal/analytics/models"
	"appetite/internal/platform/postgres"
	"appetite/pkg/platform/sentinel"
)

var eventColumns = []string{"event_id", "ts", "user_id", "action", "rule_id", "product_id", "metadata"}

// PgxStore writes events to analytics_events. Batches go through COPY.
type PgxStore struct {
	pool *pgxpool.Pool
}

func NewPgx(pool *pgxpool.Pool) *PgxStore {
	return &PgxStore{pool: pool}
}

func (s *PgxStore) Append(ctx context.Context, e *models.Event) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO analytics_events (event_id, ts, user_id, action, rule_id, product_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.Timestamp, e.UserID, e.Action, e.RuleID, e.ProductID, metadataArg(e.Metadata),
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert analytics event: %w", err)
	}
	return nil
}

// AppendBatch bulk loads events in one COPY, which is all-or-nothing.
func (s *PgxStore) AppendBatch(ctx context.Context, events []*models.Event) error {
	if len(events) == 0 {
		return nil
	}
	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"analytics_events"},
		eventColumns,
		pgx.CopyFromSlice(len(events), func(i int) ([]any, error) {
			e := events[i]
			return []any{e.ID, e.Timestamp, e.UserID, e.Action, e.RuleID, e.ProductID, metadataArg(e.Metadata)}, nil
		}),
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("copy analytics events: %w", err)
	}
	return nil
}

func (s *PgxStore) List(ctx context.Context, r models.Range) ([]*models.Event, error) {
	var since, until *time.Time
	if !r.Since.IsZero() {
		since = &r.Since
	}
	if !r.Until.IsZero() {
		until = &r.Until
	}
	rows, err := s.pool.Query(ctx, `
		SELECT event_id, ts, user_id, action, rule_id, product_id, metadata
		FROM analytics_events
		WHERE ($1::timestamptz IS NULL OR ts >= $1)
		  AND ($2::timestamptz IS NULL OR ts <= $2)
		ORDER BY ts ASC, event_id ASC`, since, until)
	if err != nil {
		return nil, fmt.Errorf("list analytics events: %w", err)
	}
	defer rows.Close()

	var out []*models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.UserID, &e.Action, &e.RuleID, &e.ProductID, &e.Metadata); err != nil {
			return nil, fmt.Errorf("scan analytics event: %w", err)
		}
		e.Timestamp = e.Timestamp.UTC()
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (s *PgxStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM analytics_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count analytics events: %w", err)
	}
	return n, nil
}

func metadataArg(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
