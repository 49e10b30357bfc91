package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"appetite/internal/catalog/models"
	"appetite/internal/platform/postgres"
	"appetite/pkg/domain"
	"appetite/pkg/platform/sentinel"
)

const carrierColumns = `id, legal_name, display_name, country, headquarters_address,
	primary_contact_name, primary_contact_email, primary_contact_phone,
	technical_contact_name, technical_contact_email, auth_method, data_residency,
	products_offered, rule_upload_allowed, rule_upload_method, rule_approval_required,
	default_rule_versioning, use_naics_enrichment, retention_policy_days,
	created_by, created_at, updated_at`

// CarriersPostgres persists carriers in the carriers table.
type CarriersPostgres struct {
	db *sql.DB
}

func NewCarriersPostgres(db *sql.DB) *CarriersPostgres {
	return &CarriersPostgres{db: db}
}

func (s *CarriersPostgres) Create(ctx context.Context, c *models.Carrier) error {
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO carriers (`+carrierColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		        $17, $18, $19, $20, $21, $22)`,
		carrierArgs(c)...,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert carrier: %w", err)
	}
	return nil
}

func (s *CarriersPostgres) GetByID(ctx context.Context, id string) (*models.Carrier, error) {
	row := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `SELECT `+carrierColumns+` FROM carriers WHERE id = $1`, id)
	c, err := scanCarrier(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find carrier: %w", err)
	}
	return c, nil
}

func (s *CarriersPostgres) Update(ctx context.Context, c *models.Carrier) error {
	res, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		UPDATE carriers SET
			legal_name = $2, display_name = $3, country = $4, headquarters_address = $5,
			primary_contact_name = $6, primary_contact_email = $7, primary_contact_phone = $8,
			technical_contact_name = $9, technical_contact_email = $10, auth_method = $11,
			data_residency = $12, products_offered = $13, rule_upload_allowed = $14,
			rule_upload_method = $15, rule_approval_required = $16, default_rule_versioning = $17,
			use_naics_enrichment = $18, retention_policy_days = $19, updated_at = $22
		WHERE id = $1`,
		carrierArgs(c)...,
	)
	if err != nil {
		return fmt.Errorf("update carrier: %w", err)
	}
	return postgres.ExpectOneRow(res)
}

func (s *CarriersPostgres) Delete(ctx context.Context, id string) error {
	res, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `DELETE FROM carriers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete carrier: %w", err)
	}
	return postgres.ExpectOneRow(res)
}

func (s *CarriersPostgres) List(ctx context.Context) ([]*models.Carrier, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, `SELECT `+carrierColumns+` FROM carriers ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("list carriers: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Carrier, 0)
	for rows.Next() {
		c, err := scanCarrier(rows)
		if err != nil {
			return nil, fmt.Errorf("scan carrier: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *CarriersPostgres) Count(ctx context.Context) (int, error) {
	var n int
	if err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM carriers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count carriers: %w", err)
	}
	return n, nil
}

// NextSequence reserves the next carrier sequence number.
func (s *CarriersPostgres) NextSequence(ctx context.Context) (int, error) {
	return postgres.NextSequence(ctx, s.db, "carriers", domain.PrefixCarrier)
}

func scanCarrier(row postgres.RowScanner) (*models.Carrier, error) {
	var (
		c         models.Carrier
		products  []string
		retention sql.NullInt64
	)
	err := row.Scan(
		&c.ID, &c.LegalName, &c.DisplayName, &c.Country, &c.HeadquartersAddress,
		&c.PrimaryContactName, &c.PrimaryContactEmail, &c.PrimaryContactPhone,
		&c.TechnicalContactName, &c.TechnicalContactEmail, &c.AuthMethod, &c.DataResidency,
		pq.Array(&products), &c.RuleUploadAllowed, &c.RuleUploadMethod, &c.RuleApprovalRequired,
		&c.DefaultRuleVersioning, &c.UseNaicsEnrichment, &retention,
		&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.ProductsOffered = products
	c.RetentionPolicyDays = postgres.IntPtr(retention)
	return &c, nil
}

func carrierArgs(c *models.Carrier) []any {
	return []any{
		c.ID, c.LegalName, c.DisplayName, c.Country, c.HeadquartersAddress,
		c.PrimaryContactName, c.PrimaryContactEmail, c.PrimaryContactPhone,
		c.TechnicalContactName, c.TechnicalContactEmail, c.AuthMethod, c.DataResidency,
		postgres.StringArray(c.ProductsOffered), c.RuleUploadAllowed, c.RuleUploadMethod, c.RuleApprovalRequired,
		c.DefaultRuleVersioning, c.UseNaicsEnrichment, postgres.NullIntArg(c.RetentionPolicyDays),
		c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	}
}

const productColumns = `id, name, description, product_type, carrier, per_occurrence, aggregate,
	min_annual_revenue, max_annual_revenue, naics_allowed, created_at`

// ProductsPostgres persists products in the products table.
type ProductsPostgres struct {
	db *sql.DB
}

func NewProductsPostgres(db *sql.DB) *ProductsPostgres {
	return &ProductsPostgres{db: db}
}

func (s *ProductsPostgres) Create(ctx context.Context, p *models.Product) error {
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.Name, p.Description, p.ProductType, p.Carrier, p.PerOccurrence, p.Aggregate,
		p.MinAnnualRevenue, p.MaxAnnualRevenue, postgres.StringArray(p.NaicsAllowed), p.CreatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *ProductsPostgres) GetByID(ctx context.Context, id string) (*models.Product, error) {
	row := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	return p, nil
}

func (s *ProductsPostgres) List(ctx context.Context) ([]*models.Product, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *ProductsPostgres) Count(ctx context.Context) (int, error) {
	var n int
	if err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func (s *ProductsPostgres) NextSequence(ctx context.Context) (int, error) {
	return postgres.NextSequence(ctx, s.db, "products", domain.PrefixProduct)
}

func scanProduct(row postgres.RowScanner) (*models.Product, error) {
	var (
		p     models.Product
		naics []string
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.ProductType, &p.Carrier, &p.PerOccurrence, &p.Aggregate,
		&p.MinAnnualRevenue, &p.MaxAnnualRevenue, pq.Array(&naics), &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.NaicsAllowed = naics
	return &p, nil
}
