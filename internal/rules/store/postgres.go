package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"appetite/internal/platform/postgres"
	"appetite/internal/rules/models"
	"appetite/pkg/domain"
	"appetite/pkg/platform/sentinel"
)

// PostgresStore persists rules in the rules table. Predicates run in Go over
// the rows returned in creation order; ScanCovering narrows in SQL first.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const ruleColumns = `id, title, description, business_type, naics_codes, states, carrier, product,
	restrictions, priority, outcome, rule_version, status, effective_from, effective_to,
	min_revenue, max_revenue, min_years_in_business, max_years_in_business, prior_claims_allowed,
	conditions, contact_email, created_by, created_at, updated_at, additional_json`

func (s *PostgresStore) Create(ctx context.Context, rule *models.Rule) error {
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO rules (`+ruleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)`,
		ruleArgs(rule)...,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert rule: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (*models.Rule, error) {
	row := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM rules WHERE id = $1`, id)
	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find rule: %w", err)
	}
	return rule, nil
}

func (s *PostgresStore) Update(ctx context.Context, rule *models.Rule) error {
	args := ruleArgs(rule)
	res, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		UPDATE rules SET
			title = $2, description = $3, business_type = $4, naics_codes = $5, states = $6,
			carrier = $7, product = $8, restrictions = $9, priority = $10, outcome = $11,
			rule_version = $12, status = $13, effective_from = $14, effective_to = $15,
			min_revenue = $16, max_revenue = $17, min_years_in_business = $18,
			max_years_in_business = $19, prior_claims_allowed = $20, conditions = $21,
			contact_email = $22, updated_at = $25, additional_json = $26
		WHERE id = $1`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	return postgres.ExpectOneRow(res)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `DELETE FROM rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	return postgres.ExpectOneRow(res)
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Rule, error) {
	return s.Scan(ctx, nil)
}

func (s *PostgresStore) Scan(ctx context.Context, pred models.Predicate) ([]*models.Rule, error) {
	return s.query(ctx, pred, `SELECT `+ruleColumns+` FROM rules ORDER BY seq ASC`)
}

// ScanCovering returns the rules listing both naics and state, in creation
// order. Containment runs in SQL against the GIN indexes; state is matched
// upper-case as stored.
func (s *PostgresStore) ScanCovering(ctx context.Context, naics, state string) ([]*models.Rule, error) {
	return s.query(ctx, nil, `
		SELECT `+ruleColumns+` FROM rules
		WHERE naics_codes @> ARRAY[$1::text] AND states @> ARRAY[$2::text]
		ORDER BY seq ASC`,
		strings.TrimSpace(naics), strings.ToUpper(strings.TrimSpace(state)),
	)
}

func (s *PostgresStore) query(ctx context.Context, pred models.Predicate, query string, args ...any) ([]*models.Rule, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Rule, 0)
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		if pred == nil || pred(rule) {
			out = append(out, rule)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	return out, nil
}

// NextSequence reserves the next rule sequence number.
func (s *PostgresStore) NextSequence(ctx context.Context) (int, error) {
	return postgres.NextSequence(ctx, s.db, "rules", domain.PrefixRule)
}

func (s *PostgresStore) Count(ctx context.Context, pred models.Predicate) (int, error) {
	if pred != nil {
		matched, err := s.Scan(ctx, pred)
		if err != nil {
			return 0, err
		}
		return len(matched), nil
	}
	var n int
	if err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM rules`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rules: %w", err)
	}
	return n, nil
}

func scanRule(row postgres.RowScanner) (*models.Rule, error) {
	var (
		r                          models.Rule
		naics, states              []string
		restrictions, conditions   []string
		effectiveFrom, effectiveTo sql.NullTime
		minYears, maxYears, prior  sql.NullInt64
		additional                 []byte
	)
	err := row.Scan(
		&r.ID, &r.Title, &r.Description, &r.BusinessType, pq.Array(&naics), pq.Array(&states),
		&r.Carrier, &r.Product, pq.Array(&restrictions), &r.Priority, &r.Outcome, &r.RuleVersion,
		&r.Status, &effectiveFrom, &effectiveTo, &r.MinRevenue, &r.MaxRevenue,
		&minYears, &maxYears, &prior, pq.Array(&conditions), &r.ContactEmail, &r.CreatedBy,
		&r.CreatedAt, &r.UpdatedAt, &additional,
	)
	if err != nil {
		return nil, err
	}
	r.NaicsCodes = naics
	r.States = states
	r.Restrictions = restrictions
	r.Conditions = conditions
	r.EffectiveFrom = postgres.TimePtr(effectiveFrom)
	r.EffectiveTo = postgres.TimePtr(effectiveTo)
	r.MinYearsInBusiness = postgres.IntPtr(minYears)
	r.MaxYearsInBusiness = postgres.IntPtr(maxYears)
	r.PriorClaimsAllowed = postgres.IntPtr(prior)
	if len(additional) > 0 {
		r.AdditionalJSON = additional
	}
	return &r, nil
}

func ruleArgs(r *models.Rule) []any {
	var additional any
	if len(r.AdditionalJSON) > 0 {
		additional = []byte(r.AdditionalJSON)
	}
	return []any{
		r.ID, r.Title, r.Description, r.BusinessType, postgres.StringArray(r.NaicsCodes), postgres.StringArray(r.States),
		r.Carrier, r.Product, postgres.StringArray(r.Restrictions), r.Priority, r.Outcome, r.RuleVersion,
		r.Status, postgres.NullTimeArg(r.EffectiveFrom), postgres.NullTimeArg(r.EffectiveTo), r.MinRevenue, r.MaxRevenue,
		postgres.NullIntArg(r.MinYearsInBusiness), postgres.NullIntArg(r.MaxYearsInBusiness), postgres.NullIntArg(r.PriorClaimsAllowed),
		postgres.StringArray(r.Conditions), r.ContactEmail, r.CreatedBy, r.CreatedAt, r.UpdatedAt, additional,
	}
}
