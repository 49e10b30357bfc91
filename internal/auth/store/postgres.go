package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"appetite/internal/auth/models"
	"appetite/internal/platform/postgres"
	"appetite/pkg/domain"
	"appetite/pkg/platform/sentinel"
)

const userColumns = `id, name, email, password_hash, roles, organization_id, organization_name,
	created_at, is_active, last_login_at, auth_provider`

// PostgresStore persists users in the users table. The unique email index
// turns duplicate registrations into sentinel.ErrConflict.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, u *models.User) error {
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		u.ID, u.Name, strings.ToLower(u.Email), u.PasswordHash, postgres.StringArray(u.Roles),
		u.OrganizationID, u.OrganizationName, u.CreatedAt, u.IsActive,
		postgres.NullTimeArg(u.LastLoginAt), u.AuthProvider,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email))
}

func (s *PostgresStore) getOne(ctx context.Context, query string, arg string) (*models.User, error) {
	u, err := scanUser(postgres.Conn(ctx, s.db).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) Update(ctx context.Context, u *models.User) error {
	res, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		UPDATE users SET
			name = $2, password_hash = $3, roles = $4, organization_id = $5,
			organization_name = $6, is_active = $7, last_login_at = $8, auth_provider = $9
		WHERE id = $1`,
		u.ID, u.Name, u.PasswordHash, postgres.StringArray(u.Roles), u.OrganizationID,
		u.OrganizationName, u.IsActive, postgres.NullTimeArg(u.LastLoginAt), u.AuthProvider,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return postgres.ExpectOneRow(res)
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.User, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// Delete removes the user row.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return postgres.ExpectOneRow(res)
}

// NextSequence reserves the next user sequence number.
func (s *PostgresStore) NextSequence(ctx context.Context) (int, error) {
	return postgres.NextSequence(ctx, s.db, "users", domain.PrefixUser)
}

func scanUser(row postgres.RowScanner) (*models.User, error) {
	var (
		u         models.User
		roles     []string
		lastLogin sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, pq.Array(&roles), &u.OrganizationID,
		&u.OrganizationName, &u.CreatedAt, &u.IsActive, &lastLogin, &u.AuthProvider)
	if err != nil {
		return nil, err
	}
	u.Roles = roles
	u.LastLoginAt = postgres.TimePtr(lastLogin)
	return &u, nil
}
