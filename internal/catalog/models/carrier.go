package models

import (
	"slices"
	"time"
)

// Carrier is an insurance carrier onboarded to the platform.
type Carrier struct {
	ID                    string
	LegalName             string
	DisplayName           string
	Country               string
	HeadquartersAddress   string
	PrimaryContactName    string
	PrimaryContactEmail   string
	PrimaryContactPhone   string
	TechnicalContactName  string
	TechnicalContactEmail string
	AuthMethod            string
	DataResidency         string
	ProductsOffered       []string
	RuleUploadAllowed     bool
	RuleUploadMethod      string
	RuleApprovalRequired  bool
	DefaultRuleVersioning bool
	UseNaicsEnrichment    bool
	RetentionPolicyDays   *int
	CreatedBy             string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (c *Carrier) Clone() *Carrier {
	out := *c
	out.ProductsOffered = slices.Clone(c.ProductsOffered)
	if c.RetentionPolicyDays != nil {
		days := *c.RetentionPolicyDays
		out.RetentionPolicyDays = &days
	}
	return &out
}
