package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	dErrors "appetite/pkg/domain-errors"
)

// Rule statuses. Only Active rules take part in store-backed matching.
const (
	StatusDraft  = "Draft"
	StatusActive = "Active"
)

// Priority levels. Comparison is case-insensitive.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Rule is an underwriting appetite rule.
//
// Invariants:
//   - ID and CreatedAt never change after creation
//   - NaicsCodes are trimmed and deduplicated
//   - States are upper-cased and deduplicated
//   - MinRevenue <= MaxRevenue when both are set
type Rule struct {
	ID           string
	Title        string
	Description  string
	BusinessType string
	NaicsCodes   []string
	States       []string
	Carrier      string
	Product      string
	Restrictions []string
	Priority     string

	Outcome       string
	RuleVersion   string
	Status        string
	EffectiveFrom *time.Time
	EffectiveTo   *time.Time

	MinRevenue         decimal.NullDecimal
	MaxRevenue         decimal.NullDecimal
	MinYearsInBusiness *int
	MaxYearsInBusiness *int
	PriorClaimsAllowed *int
	Conditions         []string
	ContactEmail       string

	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	AdditionalJSON json.RawMessage
}

// Predicate selects rules during a store scan.
type Predicate func(*Rule) bool

// All matches every rule.
func All(*Rule) bool { return true }

// PriorityRank orders priorities for sorting: high=3, medium=2, anything else=1.
func PriorityRank(priority string) int {
	switch strings.ToLower(strings.TrimSpace(priority)) {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

// IsActive reports whether the rule is Active.
func (r *Rule) IsActive() bool {
	return strings.EqualFold(r.Status, StatusActive)
}

// InEffect reports whether at falls inside the rule's effective window.
// Open ends of the window are unbounded.
func (r *Rule) InEffect(at time.Time) bool {
	if r.EffectiveFrom != nil && at.Before(*r.EffectiveFrom) {
		return false
	}
	if r.EffectiveTo != nil && at.After(*r.EffectiveTo) {
		return false
	}
	return true
}

// Covers reports whether the rule lists both the NAICS code and the state.
func (r *Rule) Covers(naics, state string) bool {
	return containsFold(r.NaicsCodes, naics) && containsFold(r.States, state)
}

// HasRestrictions reports whether the rule carries any restriction tag.
func (r *Rule) HasRestrictions() bool {
	return len(r.Restrictions) > 0
}

// EffectivePriority returns the rule's priority, or medium when unset.
func (r *Rule) EffectivePriority() string {
	if strings.TrimSpace(r.Priority) == "" {
		return PriorityMedium
	}
	return r.Priority
}

// CheckRevenueBounds rejects an inverted revenue range.
func (r *Rule) CheckRevenueBounds() error {
	if r.MinRevenue.Valid && r.MaxRevenue.Valid && r.MinRevenue.Decimal.GreaterThan(r.MaxRevenue.Decimal) {
		return dErrors.New(dErrors.CodeValidation, "minRevenue must not exceed maxRevenue")
	}
	if r.MinRevenue.Valid && r.MinRevenue.Decimal.IsNegative() {
		return dErrors.New(dErrors.CodeValidation, "minRevenue must not be negative")
	}
	return nil
}

// Clone returns a deep copy so callers never share slices with a store.
func (r *Rule) Clone() *Rule {
	c := *r
	c.NaicsCodes = cloneStrings(r.NaicsCodes)
	c.States = cloneStrings(r.States)
	c.Restrictions = cloneStrings(r.Restrictions)
	c.Conditions = cloneStrings(r.Conditions)
	c.EffectiveFrom = cloneTime(r.EffectiveFrom)
	c.EffectiveTo = cloneTime(r.EffectiveTo)
	c.MinYearsInBusiness = cloneInt(r.MinYearsInBusiness)
	c.MaxYearsInBusiness = cloneInt(r.MaxYearsInBusiness)
	c.PriorClaimsAllowed = cloneInt(r.PriorClaimsAllowed)
	if r.AdditionalJSON != nil {
		c.AdditionalJSON = append(json.RawMessage(nil), r.AdditionalJSON...)
	}
	return &c
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}
