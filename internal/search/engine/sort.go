package engine

import (
	"cmp"
	"slices"
	"strings"

	"appetite/internal/rules/models"
)

// Sortable fields.
const (
	FieldPriority  = "priority"
	FieldCreatedAt = "createdat"
)

// SortClause is one "field[:direction]" term of a sortBy expression.
type SortClause struct {
	Field string
	Desc  bool
}

// ParseSort splits a comma-separated sortBy expression. Fields are
// lower-cased; a direction other than "desc" means ascending.
func ParseSort(sortBy string) []SortClause {
	var clauses []SortClause
	for _, part := range strings.Split(sortBy, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		field, dir, _ := strings.Cut(part, ":")
		clauses = append(clauses, SortClause{
			Field: strings.ToLower(strings.TrimSpace(field)),
			Desc:  strings.EqualFold(strings.TrimSpace(dir), "desc"),
		})
	}
	return clauses
}

// Sort orders rules in place by sortBy. Each clause is a stable pass over the
// order left by the clause before it, so the last clause is the primary key
// and earlier clauses only break its ties. An unknown field is a pass by id
// ascending; an empty expression sorts by id ascending.
func Sort(rules []*models.Rule, sortBy string) {
	clauses := ParseSort(sortBy)
	if len(clauses) == 0 {
		clauses = []SortClause{{Field: "id"}}
	}
	for _, c := range clauses {
		slices.SortStableFunc(rules, func(a, b *models.Rule) int {
			return compareBy(c, a, b)
		})
	}
}

func compareBy(c SortClause, a, b *models.Rule) int {
	var n int
	switch c.Field {
	case FieldPriority:
		n = cmp.Compare(models.PriorityRank(a.Priority), models.PriorityRank(b.Priority))
	case FieldCreatedAt:
		n = a.CreatedAt.Compare(b.CreatedAt)
	default:
		return strings.Compare(a.ID, b.ID)
	}
	if c.Desc {
		return -n
	}
	return n
}
