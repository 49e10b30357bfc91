package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"appetite/internal/checker/models"
	"appetite/internal/platform/postgres"
	"appetite/pkg/platform/sentinel"
)

// PostgresStore appends submissions to the submissions table. seq orders
// re-evaluations of the same id.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, sub *models.Submission) error {
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO submissions (submission_id, business_desc, naics_code, state, zipcode,
			decision, confidence, reason, matched_rule, evaluated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		sub.ID, sub.BusinessDescription, sub.NaicsCode, sub.Location.State, sub.Location.PostalCode,
		string(sub.Decision), sub.Confidence, sub.Reason, sub.MatchedRule, sub.EvaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("append submission: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	var (
		sub      models.Submission
		decision string
	)
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT submission_id, business_desc, naics_code, state, zipcode,
			decision, confidence, reason, matched_rule, evaluated_at
		FROM submissions
		WHERE submission_id = $1
		ORDER BY seq DESC
		LIMIT 1`, id,
	).Scan(&sub.ID, &sub.BusinessDescription, &sub.NaicsCode, &sub.Location.State, &sub.Location.PostalCode,
		&decision, &sub.Confidence, &sub.Reason, &sub.MatchedRule, &sub.EvaluatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find submission: %w", err)
	}
	sub.Decision = models.Decision(decision)
	return &sub, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return n, nil
}
