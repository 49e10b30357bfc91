package engine

import (
	"appetite/internal/rules/models"
	"appetite/pkg/pagination"
)

// Search filters, sorts and pages rules. rules is not modified.
func Search(rules []*models.Rule, filter Filter, page, pageSize int, sortBy string) pagination.Page[*models.Rule] {
	matched := make([]*models.Rule, 0, len(rules))
	for _, r := range rules {
		if filter.Matches(r) {
			matched = append(matched, r)
		}
	}
	Sort(matched, sortBy)
	return pagination.Paginate(matched, page, pageSize)
}
