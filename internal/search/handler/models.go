package handler

import (
	"strings"
	"time"

	"appetite/internal/rules/models"
	"appetite/internal/search/service"
	dErrors "appetite/pkg/domain-errors"
	"appetite/pkg/pagination"
	pstrings "appetite/pkg/platform/strings"
)

// CustomFilterRequest is the body of getRulesByCustomFilter. Omitted page and
// pageSize take their defaults; explicit non-positive values are rejected.
type CustomFilterRequest struct {
	Carrier           string   `json:"carrier"`
	Product           string   `json:"product"`
	States            []string `json:"states"`
	NaicsCodes        []string `json:"naicsCodes"`
	BusinessTypes     []string `json:"businessTypes"`
	Priority          string   `json:"priority"`
	IncludeRestricted *bool    `json:"includeRestricted"`
	Page              *int     `json:"page"`
	PageSize          *int     `json:"pageSize"`
	SortBy            string   `json:"sortBy"`
}

func (r *CustomFilterRequest) Normalize() {
	r.Carrier = strings.TrimSpace(r.Carrier)
	r.Product = strings.TrimSpace(r.Product)
	r.Priority = strings.TrimSpace(r.Priority)
	r.States = pstrings.DedupeAndTrimUpper(r.States)
	r.NaicsCodes = pstrings.DedupeAndTrim(r.NaicsCodes)
	r.BusinessTypes = pstrings.DedupeAndTrim(r.BusinessTypes)
	if r.Page == nil {
		p := pagination.DefaultPage
		r.Page = &p
	}
	if r.PageSize == nil {
		ps := service.DefaultPageSize
		r.PageSize = &ps
	}
}

func (r *CustomFilterRequest) Validate() error {
	if r.Page == nil || *r.Page < 1 {
		return dErrors.New(dErrors.CodeValidation, "page must be at least 1")
	}
	if r.PageSize == nil || *r.PageSize < 1 {
		return dErrors.New(dErrors.CodeValidation, "pageSize must be at least 1")
	}
	if *r.PageSize > pagination.MaxPageSize {
		return dErrors.New(dErrors.CodeValidation, "pageSize is too large")
	}
	return nil
}

func (r *CustomFilterRequest) toFilter() service.CustomFilter {
	return service.CustomFilter{
		Carrier:           r.Carrier,
		Product:           r.Product,
		States:            r.States,
		NaicsCodes:        r.NaicsCodes,
		BusinessTypes:     r.BusinessTypes,
		Priority:          r.Priority,
		IncludeRestricted: r.IncludeRestricted,
		Page:              *r.Page,
		PageSize:          *r.PageSize,
		SortBy:            r.SortBy,
	}
}

// SearchRule is the search result item.
type SearchRule struct {
	RuleID       string    `json:"ruleId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	BusinessType string    `json:"businessType"`
	NaicsCodes   []string  `json:"naicsCodes"`
	States       []string  `json:"states"`
	Carrier      string    `json:"carrier"`
	Product      string    `json:"product"`
	Restrictions []string  `json:"restrictions"`
	Priority     string    `json:"priority"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func FromRule(r *models.Rule) SearchRule {
	return SearchRule{
		RuleID:       r.ID,
		Title:        r.Title,
		Description:  r.Description,
		BusinessType: r.BusinessType,
		NaicsCodes:   orEmpty(r.NaicsCodes),
		States:       orEmpty(r.States),
		Carrier:      r.Carrier,
		Product:      r.Product,
		Restrictions: orEmpty(r.Restrictions),
		Priority:     r.Priority,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
