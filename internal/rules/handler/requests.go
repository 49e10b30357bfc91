package handler

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"appetite/internal/rules/models"
	dErrors "appetite/pkg/domain-errors"
)

// RuleRequest is the body for creating or replacing a rule. ruleId,
// createdBy, createdAt and updatedAt are accepted so clients can send back
// what they read, but they are ignored.
type RuleRequest struct {
	RuleID             string              `json:"ruleId,omitempty"`
	Title              string              `json:"title"`
	Description        string              `json:"description"`
	BusinessType       string              `json:"businessType"`
	NaicsCodes         []string            `json:"naicsCodes"`
	States             []string            `json:"states"`
	Carrier            string              `json:"carrier"`
	Product            string              `json:"product"`
	Restrictions       []string            `json:"restrictions"`
	Priority           string              `json:"priority"`
	Outcome            string              `json:"outcome"`
	RuleVersion        string              `json:"ruleVersion"`
	Status             string              `json:"status"`
	EffectiveFrom      *time.Time          `json:"effectiveFrom"`
	EffectiveTo        *time.Time          `json:"effectiveTo"`
	MinRevenue         decimal.NullDecimal `json:"minRevenue"`
	MaxRevenue         decimal.NullDecimal `json:"maxRevenue"`
	MinYearsInBusiness *int                `json:"minYearsInBusiness"`
	MaxYearsInBusiness *int                `json:"maxYearsInBusiness"`
	PriorClaimsAllowed *int                `json:"priorClaimsAllowed"`
	Conditions         []string            `json:"conditions"`
	ContactEmail       string              `json:"contactEmail"`
	AdditionalJSON     json.RawMessage     `json:"additionalJson,omitempty"`
	CreatedBy          string              `json:"createdBy,omitempty"`
	CreatedAt          *time.Time          `json:"createdAt,omitempty"`
	UpdatedAt          *time.Time          `json:"updatedAt,omitempty"`
}

func (r *RuleRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Priority = strings.ToLower(strings.TrimSpace(r.Priority))
	r.ContactEmail = strings.TrimSpace(r.ContactEmail)
}

func (r *RuleRequest) Validate() error {
	if r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if len(r.Title) > 256 {
		return dErrors.New(dErrors.CodeValidation, "title must be at most 256 characters")
	}
	for _, s := range r.States {
		if len(strings.TrimSpace(s)) != 2 {
			return dErrors.New(dErrors.CodeValidation, "states must be two-letter codes")
		}
	}
	if r.ContactEmail != "" && !strings.Contains(r.ContactEmail, "@") {
		return dErrors.New(dErrors.CodeValidation, "contactEmail is invalid")
	}
	return nil
}

func (r *RuleRequest) toModel() *models.Rule {
	return &models.Rule{
		Title:              r.Title,
		Description:        r.Description,
		BusinessType:       r.BusinessType,
		NaicsCodes:         r.NaicsCodes,
		States:             r.States,
		Carrier:            r.Carrier,
		Product:            r.Product,
		Restrictions:       r.Restrictions,
		Priority:           r.Priority,
		Outcome:            r.Outcome,
		RuleVersion:        r.RuleVersion,
		Status:             r.Status,
		EffectiveFrom:      r.EffectiveFrom,
		EffectiveTo:        r.EffectiveTo,
		MinRevenue:         r.MinRevenue,
		MaxRevenue:         r.MaxRevenue,
		MinYearsInBusiness: r.MinYearsInBusiness,
		MaxYearsInBusiness: r.MaxYearsInBusiness,
		PriorClaimsAllowed: r.PriorClaimsAllowed,
		Conditions:         r.Conditions,
		ContactEmail:       r.ContactEmail,
		AdditionalJSON:     r.AdditionalJSON,
	}
}
