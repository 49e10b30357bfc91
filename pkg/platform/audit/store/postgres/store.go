package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	audit "appetite/pkg/platform/audit"
)

// Store implements audit.Store on the audit_events table.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectColumns = `category, ts, user_id, subject, action, decision, reason, email, request_id, actor_id, ip`

// Append writes one event. The category is always derived from the action.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	category := audit.AuditEvent(event.Action).Category()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, `+selectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		uuid.New(), string(category), event.Timestamp, event.UserID, event.Subject, event.Action,
		event.Decision, event.Reason, event.Email, event.RequestID, event.ActorID, event.IP,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectColumns+` FROM audit_events
		WHERE user_id = $1
		ORDER BY ts ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return scanEvents(rows)
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectColumns+` FROM audit_events
		ORDER BY ts DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent audit events: %w", err)
	}
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	defer rows.Close()
	var out []audit.Event
	for rows.Next() {
		var e audit.Event
		var category string
		if err := rows.Scan(&category, &e.Timestamp, &e.UserID, &e.Subject, &e.Action,
			&e.Decision, &e.Reason, &e.Email, &e.RequestID, &e.ActorID, &e.IP); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Category = audit.EventCategory(category)
		out = append(out, e)
	}
	return out, rows.Err()
}
