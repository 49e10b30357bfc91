package handler

import (
	"strings"
	"time"

	"appetite/internal/catalog/models"
	dErrors "appetite/pkg/domain-errors"
)

// CarrierRequest creates or replaces a carrier. carrierId, createdAt and
// updatedAt are ignored when present.
type CarrierRequest struct {
	CarrierID             string     `json:"carrierId,omitempty"`
	LegalName             string     `json:"legalName"`
	DisplayName           string     `json:"displayName"`
	Country               string     `json:"country"`
	HeadquartersAddress   string     `json:"headquartersAddress"`
	PrimaryContactName    string     `json:"primaryContactName"`
	PrimaryContactEmail   string     `json:"primaryContactEmail"`
	PrimaryContactPhone   string     `json:"primaryContactPhone"`
	TechnicalContactName  string     `json:"technicalContactName"`
	TechnicalContactEmail string     `json:"technicalContactEmail"`
	AuthMethod            string     `json:"authMethod"`
	DataResidency         string     `json:"dataResidency"`
	ProductsOffered       []string   `json:"productsOffered"`
	RuleUploadAllowed     bool       `json:"ruleUploadAllowed"`
	RuleUploadMethod      string     `json:"ruleUploadMethod"`
	RuleApprovalRequired  *bool      `json:"ruleApprovalRequired"`
	DefaultRuleVersioning *bool      `json:"defaultRuleVersioning"`
	UseNaicsEnrichment    bool       `json:"useNaicsEnrichment"`
	RetentionPolicyDays   *int       `json:"retentionPolicyDays"`
	CreatedBy             string     `json:"createdBy,omitempty"`
	CreatedAt             *time.Time `json:"createdAt,omitempty"`
	UpdatedAt             *time.Time `json:"updatedAt,omitempty"`
}

func (r *CarrierRequest) Normalize() {
	r.LegalName = strings.TrimSpace(r.LegalName)
	r.DisplayName = strings.TrimSpace(r.DisplayName)
	r.PrimaryContactEmail = strings.TrimSpace(r.PrimaryContactEmail)
	r.TechnicalContactEmail = strings.TrimSpace(r.TechnicalContactEmail)
	r.Country = strings.ToUpper(strings.TrimSpace(r.Country))
}

func (r *CarrierRequest) Validate() error {
	if r.LegalName == "" {
		return dErrors.New(dErrors.CodeValidation, "legalName is required")
	}
	if r.DisplayName == "" {
		return dErrors.New(dErrors.CodeValidation, "displayName is required")
	}
	for _, email := range []string{r.PrimaryContactEmail, r.TechnicalContactEmail} {
		if email != "" && !strings.Contains(email, "@") {
			return dErrors.New(dErrors.CodeValidation, "contact emails must be valid addresses")
		}
	}
	return nil
}

func (r *CarrierRequest) toModel() *models.Carrier {
	return &models.Carrier{
		LegalName:             r.LegalName,
		DisplayName:           r.DisplayName,
		Country:               r.Country,
		HeadquartersAddress:   r.HeadquartersAddress,
		PrimaryContactName:    r.PrimaryContactName,
		PrimaryContactEmail:   r.PrimaryContactEmail,
		PrimaryContactPhone:   r.PrimaryContactPhone,
		TechnicalContactName:  r.TechnicalContactName,
		TechnicalContactEmail: r.TechnicalContactEmail,
		AuthMethod:            r.AuthMethod,
		DataResidency:         r.DataResidency,
		ProductsOffered:       r.ProductsOffered,
		RuleUploadAllowed:     r.RuleUploadAllowed,
		RuleUploadMethod:      r.RuleUploadMethod,
		RuleApprovalRequired:  boolOr(r.RuleApprovalRequired, true),
		DefaultRuleVersioning: boolOr(r.DefaultRuleVersioning, true),
		UseNaicsEnrichment:    r.UseNaicsEnrichment,
		RetentionPolicyDays:   r.RetentionPolicyDays,
		CreatedBy:             r.CreatedBy,
	}
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

type CarrierResponse struct {
	CarrierID             string     `json:"carrierId"`
	LegalName             string     `json:"legalName"`
	DisplayName           string     `json:"displayName"`
	Country               string     `json:"country,omitempty"`
	HeadquartersAddress   string     `json:"headquartersAddress,omitempty"`
	PrimaryContactName    string     `json:"primaryContactName,omitempty"`
	PrimaryContactEmail   string     `json:"primaryContactEmail,omitempty"`
	PrimaryContactPhone   string     `json:"primaryContactPhone,omitempty"`
	TechnicalContactName  string     `json:"technicalContactName,omitempty"`
	TechnicalContactEmail string     `json:"technicalContactEmail,omitempty"`
	AuthMethod            string     `json:"authMethod,omitempty"`
	DataResidency         string     `json:"dataResidency,omitempty"`
	ProductsOffered       []string   `json:"productsOffered"`
	RuleUploadAllowed     bool       `json:"ruleUploadAllowed"`
	RuleUploadMethod      string     `json:"ruleUploadMethod,omitempty"`
	RuleApprovalRequired  bool       `json:"ruleApprovalRequired"`
	DefaultRuleVersioning bool       `json:"defaultRuleVersioning"`
	UseNaicsEnrichment    bool       `json:"useNaicsEnrichment"`
	RetentionPolicyDays   *int       `json:"retentionPolicyDays,omitempty"`
	CreatedBy             string     `json:"createdBy,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             *time.Time `json:"updatedAt,omitempty"`
}

func FromCarrier(c *models.Carrier) CarrierResponse {
	out := CarrierResponse{
		CarrierID:             c.ID,
		LegalName:             c.LegalName,
		DisplayName:           c.DisplayName,
		Country:               c.Country,
		HeadquartersAddress:   c.HeadquartersAddress,
		PrimaryContactName:    c.PrimaryContactName,
		PrimaryContactEmail:   c.PrimaryContactEmail,
		PrimaryContactPhone:   c.PrimaryContactPhone,
		TechnicalContactName:  c.TechnicalContactName,
		TechnicalContactEmail: c.TechnicalContactEmail,
		AuthMethod:            c.AuthMethod,
		DataResidency:         c.DataResidency,
		ProductsOffered:       c.ProductsOffered,
		RuleUploadAllowed:     c.RuleUploadAllowed,
		RuleUploadMethod:      c.RuleUploadMethod,
		RuleApprovalRequired:  c.RuleApprovalRequired,
		DefaultRuleVersioning: c.DefaultRuleVersioning,
		UseNaicsEnrichment:    c.UseNaicsEnrichment,
		RetentionPolicyDays:   c.RetentionPolicyDays,
		CreatedBy:             c.CreatedBy,
		CreatedAt:             c.CreatedAt,
	}
	if out.ProductsOffered == nil {
		out.ProductsOffered = []string{}
	}
	if !c.UpdatedAt.IsZero() {
		updated := c.UpdatedAt
		out.UpdatedAt = &updated
	}
	return out
}

type CarrierSummary struct {
	CarrierID           string `json:"carrierId"`
	LegalName           string `json:"legalName"`
	DisplayName         string `json:"displayName"`
	Country             string `json:"country,omitempty"`
	PrimaryContactEmail string `json:"primaryContactEmail,omitempty"`
}

func FromCarrierSummary(c *models.Carrier) CarrierSummary {
	return CarrierSummary{
		CarrierID:           c.ID,
		LegalName:           c.LegalName,
		DisplayName:         c.DisplayName,
		Country:             c.Country,
		PrimaryContactEmail: c.PrimaryContactEmail,
	}
}

// ProductRequest creates a product. naicsAllowed is a list of codes.
type ProductRequest struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	ProductType      string   `json:"productType"`
	Carrier          string   `json:"carrier"`
	PerOccurrence    int64    `json:"perOccurrence"`
	Aggregate        int64    `json:"aggregate"`
	MinAnnualRevenue int64    `json:"minAnnualRevenue"`
	MaxAnnualRevenue int64    `json:"maxAnnualRevenue"`
	NaicsAllowed     []string `json:"naicsAllowed"`
}

func (r *ProductRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Carrier = strings.TrimSpace(r.Carrier)
}

func (r *ProductRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if r.Carrier == "" {
		return dErrors.New(dErrors.CodeValidation, "carrier is required")
	}
	return nil
}

func (r *ProductRequest) toModel() *models.Product {
	return &models.Product{
		Name:             r.Name,
		Description:      r.Description,
		ProductType:      r.ProductType,
		Carrier:          r.Carrier,
		PerOccurrence:    r.PerOccurrence,
		Aggregate:        r.Aggregate,
		MinAnnualRevenue: r.MinAnnualRevenue,
		MaxAnnualRevenue: r.MaxAnnualRevenue,
		NaicsAllowed:     r.NaicsAllowed,
	}
}

type ProductResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	ProductType      string    `json:"productType,omitempty"`
	Carrier          string    `json:"carrier"`
	PerOccurrence    int64     `json:"perOccurrence"`
	Aggregate        int64     `json:"aggregate"`
	MinAnnualRevenue int64     `json:"minAnnualRevenue"`
	MaxAnnualRevenue int64     `json:"maxAnnualRevenue"`
	NaicsAllowed     []string  `json:"naicsAllowed"`
	CreatedAt        time.Time `json:"createdAt"`
}

func FromProduct(p *models.Product) ProductResponse {
	out := ProductResponse{
		ID:               p.ID,
		Name:             p.Name,
		Description:      p.Description,
		ProductType:      p.ProductType,
		Carrier:          p.Carrier,
		PerOccurrence:    p.PerOccurrence,
		Aggregate:        p.Aggregate,
		MinAnnualRevenue: p.MinAnnualRevenue,
		MaxAnnualRevenue: p.MaxAnnualRevenue,
		NaicsAllowed:     p.NaicsAllowed,
		CreatedAt:        p.CreatedAt,
	}
	if out.NaicsAllowed == nil {
		out.NaicsAllowed = []string{}
	}
	return out
}

type ProductSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Carrier string `json:"carrier"`
}

func FromProductSummary(p *models.Product) ProductSummary {
	return ProductSummary{ID: p.ID, Name: p.Name, Carrier: p.Carrier}
}
