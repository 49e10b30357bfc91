// Package service manages the carrier and product catalog.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"appetite/internal/catalog/models"
	id "appetite/pkg/domain"
	dErrors "appetite/pkg/domain-errors"
	"appetite/pkg/pagination"
	audit "appetite/pkg/platform/audit"
	"appetite/pkg/platform/sentinel"
	pstrings "appetite/pkg/platform/strings"
	"appetite/pkg/requestcontext"
)

// CarrierStore persists carriers.
type CarrierStore interface {
	Create(ctx context.Context, c *models.Carrier) error
	GetByID(ctx context.Context, id string) (*models.Carrier, error)
	Update(ctx context.Context, c *models.Carrier) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.Carrier, error)
	Count(ctx context.Context) (int, error)
	NextSequence(ctx context.Context) (int, error)
}

// ProductStore persists products.
type ProductStore interface {
	Create(ctx context.Context, p *models.Product) error
	GetByID(ctx context.Context, id string) (*models.Product, error)
	List(ctx context.Context) ([]*models.Product, error)
	Count(ctx context.Context) (int, error)
	NextSequence(ctx context.Context) (int, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	carriers       CarrierStore
	products       ProductStore
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = p
	}
}

func New(carriers CarrierStore, products ProductStore, opts ...Option) *Service {
	s := &Service{carriers: carriers, products: products, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) GetCarrier(ctx context.Context, carrierID string) (*models.Carrier, error) {
	c, err := s.carriers.GetByID(ctx, carrierID)
	if err != nil {
		return nil, translate(err, "carrier", carrierID)
	}
	return c, nil
}

func (s *Service) ListCarriers(ctx context.Context, page, pageSize int) (pagination.Page[*models.Carrier], error) {
	carriers, err := s.carriers.List(ctx)
	if err != nil {
		return pagination.Page[*models.Carrier]{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list carriers")
	}
	return pagination.Paginate(carriers, page, pageSize), nil
}

// CreateCarrier assigns the next car-NNN id.
func (s *Service) CreateCarrier(ctx context.Context, c *models.Carrier) (*models.Carrier, error) {
	if err := prepareCarrier(c); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.CreatedBy == "" {
		c.CreatedBy = requestcontext.UserID(ctx)
	}

	carrierID, err := id.Allocate(ctx, id.PrefixCarrier,
		s.carriers.NextSequence,
		func(ctx context.Context, candidate string) error {
			c.ID = candidate
			return s.carriers.Create(ctx, c)
		},
	)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create carrier",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, err
	}
	c.ID = carrierID
	s.logAudit(ctx, audit.EventCarrierCreated, carrierID)
	s.logger.InfoContext(ctx, "carrier created",
		"request_id", requestcontext.RequestID(ctx),
		"carrier_id", carrierID,
	)
	return c, nil
}

// UpdateCarrier replaces the mutable fields. ID, CreatedAt and CreatedBy are
// kept from the stored carrier.
func (s *Service) UpdateCarrier(ctx context.Context, carrierID string, c *models.Carrier) (*models.Carrier, error) {
	existing, err := s.carriers.GetByID(ctx, carrierID)
	if err != nil {
		return nil, translate(err, "carrier", carrierID)
	}
	if err := prepareCarrier(c); err != nil {
		return nil, err
	}
	c.ID = existing.ID
	c.CreatedAt = existing.CreatedAt
	c.CreatedBy = existing.CreatedBy
	c.UpdatedAt = requestcontext.Now(ctx)
	if err := s.carriers.Update(ctx, c); err != nil {
		return nil, translate(err, "carrier", carrierID)
	}
	s.logAudit(ctx, audit.EventCarrierUpdated, carrierID)
	return c, nil
}

func (s *Service) DeleteCarrier(ctx context.Context, carrierID string) error {
	if err := s.carriers.Delete(ctx, carrierID); err != nil {
		return translate(err, "carrier", carrierID)
	}
	s.logAudit(ctx, audit.EventCarrierDeleted, carrierID)
	s.logger.InfoContext(ctx, "carrier deleted",
		"request_id", requestcontext.RequestID(ctx),
		"carrier_id", carrierID,
	)
	return nil
}

func (s *Service) CountCarriers(ctx context.Context) (int, error) {
	return s.carriers.Count(ctx)
}

// ListAllCarriers returns every carrier in creation order.
func (s *Service) ListAllCarriers(ctx context.Context) ([]*models.Carrier, error) {
	return s.carriers.List(ctx)
}

func (s *Service) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, translate(err, "product", productID)
	}
	return p, nil
}

// ListProducts pages products, optionally restricted to one carrier.
func (s *Service) ListProducts(ctx context.Context, carrier string, page, pageSize int) (pagination.Page[*models.Product], error) {
	products, err := s.ListAllProducts(ctx)
	if err != nil {
		return pagination.Page[*models.Product]{}, err
	}
	if carrier = strings.TrimSpace(carrier); carrier != "" {
		filtered := make([]*models.Product, 0, len(products))
		for _, p := range products {
			if p.Carrier == carrier {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}
	return pagination.Paginate(products, page, pageSize), nil
}

func (s *Service) ListAllProducts(ctx context.Context) ([]*models.Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list products")
	}
	return products, nil
}

// CreateProduct assigns the next prod-NNN id.
func (s *Service) CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	if err := prepareProduct(p); err != nil {
		return nil, err
	}
	p.CreatedAt = requestcontext.Now(ctx)

	productID, err := id.Allocate(ctx, id.PrefixProduct,
		s.products.NextSequence,
		func(ctx context.Context, candidate string) error {
			p.ID = candidate
			return s.products.Create(ctx, p)
		},
	)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create product",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, err
	}
	p.ID = productID
	s.logAudit(ctx, audit.EventProductCreated, productID)
	return p, nil
}

func (s *Service) CountProducts(ctx context.Context) (int, error) {
	return s.products.Count(ctx)
}

func prepareCarrier(c *models.Carrier) error {
	c.LegalName = strings.TrimSpace(c.LegalName)
	c.DisplayName = strings.TrimSpace(c.DisplayName)
	if c.LegalName == "" {
		return dErrors.New(dErrors.CodeValidation, "legalName is required")
	}
	if c.DisplayName == "" {
		return dErrors.New(dErrors.CodeValidation, "displayName is required")
	}
	c.PrimaryContactEmail = strings.ToLower(strings.TrimSpace(c.PrimaryContactEmail))
	c.TechnicalContactEmail = strings.ToLower(strings.TrimSpace(c.TechnicalContactEmail))
	c.ProductsOffered = pstrings.DedupeAndTrim(c.ProductsOffered)
	if c.RetentionPolicyDays != nil && *c.RetentionPolicyDays < 0 {
		return dErrors.New(dErrors.CodeValidation, "retentionPolicyDays must not be negative")
	}
	return nil
}

func prepareProduct(p *models.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	p.Carrier = strings.TrimSpace(p.Carrier)
	p.NaicsAllowed = pstrings.DedupeAndTrim(p.NaicsAllowed)
	if p.PerOccurrence < 0 || p.Aggregate < 0 || p.MinAnnualRevenue < 0 || p.MaxAnnualRevenue < 0 {
		return dErrors.New(dErrors.CodeValidation, "limits and revenue bounds must not be negative")
	}
	if p.MaxAnnualRevenue > 0 && p.MinAnnualRevenue > p.MaxAnnualRevenue {
		return dErrors.New(dErrors.CodeValidation, "minAnnualRevenue must not exceed maxAnnualRevenue")
	}
	return nil
}

func translate(err error, kind, entityID string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, kind+" "+entityID+" not found")
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, kind+" store failure")
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, subject string) {
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Timestamp: time.Now(),
		UserID:    requestcontext.UserID(ctx),
		Subject:   subject,
		Action:    string(event),
		RequestID: requestcontext.RequestID(ctx),
		IP:        requestcontext.ClientIP(ctx),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", requestcontext.RequestID(ctx),
			"action", string(event),
			"error", err,
		)
	}
}
