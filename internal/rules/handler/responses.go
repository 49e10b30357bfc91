package handler

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"appetite/internal/rules/models"
)

// RuleResponse is the full rule representation.
type RuleResponse struct {
	RuleID             string              `json:"ruleId"`
	Title              string              `json:"title"`
	Description        string              `json:"description"`
	BusinessType       string              `json:"businessType"`
	NaicsCodes         []string            `json:"naicsCodes"`
	States             []string            `json:"states"`
	Carrier            string              `json:"carrier"`
	Product            string              `json:"product"`
	Restrictions       []string            `json:"restrictions"`
	Priority           string              `json:"priority"`
	Outcome            string              `json:"outcome,omitempty"`
	RuleVersion        string              `json:"ruleVersion,omitempty"`
	Status             string              `json:"status"`
	EffectiveFrom      *time.Time          `json:"effectiveFrom,omitempty"`
	EffectiveTo        *time.Time          `json:"effectiveTo,omitempty"`
	MinRevenue         decimal.NullDecimal `json:"minRevenue"`
	MaxRevenue         decimal.NullDecimal `json:"maxRevenue"`
	MinYearsInBusiness *int                `json:"minYearsInBusiness,omitempty"`
	MaxYearsInBusiness *int                `json:"maxYearsInBusiness,omitempty"`
	PriorClaimsAllowed *int                `json:"priorClaimsAllowed,omitempty"`
	Conditions         []string            `json:"conditions"`
	ContactEmail       string              `json:"contactEmail,omitempty"`
	CreatedBy          string              `json:"createdBy,omitempty"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
	AdditionalJSON     json.RawMessage     `json:"additionalJson,omitempty"`
}

// RuleSummary is the list item shape.
type RuleSummary struct {
	RuleID   string `json:"ruleId"`
	Title    string `json:"title"`
	Priority string `json:"priority"`
	Status   string `json:"status"`
}

func FromRule(r *models.Rule) RuleResponse {
	return RuleResponse{
		RuleID:             r.ID,
		Title:              r.Title,
		Description:        r.Description,
		BusinessType:       r.BusinessType,
		NaicsCodes:         nonNil(r.NaicsCodes),
		States:             nonNil(r.States),
		Carrier:            r.Carrier,
		Product:            r.Product,
		Restrictions:       nonNil(r.Restrictions),
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
		Conditions:         nonNil(r.Conditions),
		ContactEmail:       r.ContactEmail,
		CreatedBy:          r.CreatedBy,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
		AdditionalJSON:     r.AdditionalJSON,
	}
}

func FromRuleSummary(r *models.Rule) RuleSummary {
	return RuleSummary{
		RuleID:   r.ID,
		Title:    r.Title,
		Priority: r.Priority,
		Status:   r.Status,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
