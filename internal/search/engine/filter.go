// Package engine filters, sorts and pages rules. It is pure: callers load the
// candidate rules and the engine never fails on unusual input.
package engine

import (
	"slices"
	"strings"

	"appetite/internal/rules/models"
)

// Filter is the conjunction of search predicates. Zero-valued fields are
// ignored; multi-valued fields match when any value matches.
type Filter struct {
	// Query matches title, description, business type and restriction tags.
	Query string
	// Keyword matches the same fields as Query plus state codes.
	Keyword string

	NaicsCodes []string
	// BusinessType is a single case-insensitive equality match.
	BusinessType string
	// BusinessTypes is exact membership.
	BusinessTypes []string
	Carrier       string
	Product       string
	States        []string
	Priority      string

	// IncludeRestricted defaults to true; false keeps only rules without
	// restriction tags.
	IncludeRestricted *bool
}

// Matches reports whether rule satisfies every set predicate.
func (f Filter) Matches(rule *models.Rule) bool {
	if q := strings.TrimSpace(f.Query); q != "" && !matchesText(rule, strings.ToLower(q), false) {
		return false
	}
	if k := strings.TrimSpace(f.Keyword); k != "" && !matchesText(rule, strings.ToLower(k), true) {
		return false
	}
	if len(f.NaicsCodes) > 0 && !intersects(rule.NaicsCodes, f.NaicsCodes) {
		return false
	}
	if f.BusinessType != "" && !strings.EqualFold(rule.BusinessType, f.BusinessType) {
		return false
	}
	if len(f.BusinessTypes) > 0 && !slices.Contains(f.BusinessTypes, rule.BusinessType) {
		return false
	}
	if f.Carrier != "" && rule.Carrier != f.Carrier {
		return false
	}
	if f.Product != "" && rule.Product != f.Product {
		return false
	}
	if len(f.States) > 0 && !intersects(rule.States, f.States) {
		return false
	}
	if f.Priority != "" && rule.Priority != f.Priority {
		return false
	}
	if f.IncludeRestricted != nil && !*f.IncludeRestricted && rule.HasRestrictions() {
		return false
	}
	return true
}

// Predicate adapts the filter for store scans.
func (f Filter) Predicate() models.Predicate {
	return f.Matches
}

func matchesText(rule *models.Rule, needle string, withStates bool) bool {
	if strings.Contains(strings.ToLower(rule.Title), needle) ||
		strings.Contains(strings.ToLower(rule.Description), needle) ||
		strings.Contains(strings.ToLower(rule.BusinessType), needle) {
		return true
	}
	if withStates && anyContains(rule.States, needle) {
		return true
	}
	return anyContains(rule.Restrictions, needle)
}

func anyContains(values []string, needle string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

func intersects(have, want []string) bool {
	for _, w := range want {
		if slices.Contains(have, w) {
			return true
		}
	}
	return false
}
