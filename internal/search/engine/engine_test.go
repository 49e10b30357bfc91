package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"appetite/internal/rules/models"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleRules() []*models.Rule {
	now := time.Now().UTC()
	return []*models.Rule{
		{ID: "rul-1001", Title: "No liquor stores in Zone A", Description: "Blocks appetite for retail liquor locations in high-risk zones.",
			BusinessType: "Retail", NaicsCodes: []string{"445310"}, States: []string{"CA", "TX"}, Carrier: "Acme Insurance",
			Product: "General Liability", Restrictions: []string{"no-drive-thru", "no-24hr"}, Priority: "high", CreatedAt: ts("2025-06-15T09:12:00Z")},
		{ID: "rul-1002", Title: "High-risk restaurants - extra premium", Description: "Restaurants with >100 seats require special underwriting.",
			BusinessType: "Restaurant", NaicsCodes: []string{"722511"}, States: []string{"NY"}, Carrier: "Beta Mutual",
			Product: "Property & Liability", Restrictions: []string{"seating-limit"}, Priority: "medium", CreatedAt: ts("2024-11-05T11:00:00Z")},
		{ID: "rul-1010", Title: "Outdoor dining - location sensitivity", Description: "Outdoor dining near busy highways flagged for extra review.",
			BusinessType: "Restaurant", NaicsCodes: []string{"722511", "722513"}, States: []string{"CA", "NV"}, Carrier: "Acme Insurance",
			Product: "General Liability", Restrictions: []string{"no-sidewalk-dining"}, Priority: "low", CreatedAt: ts("2025-01-10T10:00:00Z")},
		{ID: "rul-1003", Title: "Property coverage restrictions", Description: "Limits property coverage in flood zones.",
			BusinessType: "Property", NaicsCodes: []string{"445110"}, States: []string{"FL", "LA"}, Carrier: "Beta Mutual",
			Product: "Property", Restrictions: []string{"flood-zone-restricted"}, Priority: "high", CreatedAt: now.AddDate(0, 0, -10)},
		{ID: "rul-1004", Title: "Workers comp exclusions", Description: "Excludes certain high-risk activities.",
			BusinessType: "Services", NaicsCodes: []string{"561720"}, States: []string{"CA", "NY"}, Carrier: "Beta Mutual",
			Product: "Workers Comp", Restrictions: []string{"no-hazardous-materials"}, Priority: "low", CreatedAt: now.AddDate(0, 0, -3)},
	}
}

func ids(rules []*models.Rule) []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.ID
	}
	return out
}

func boolPtr(b bool) *bool { return &b }

type EngineSuite struct {
	suite.Suite
	rules []*models.Rule
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.rules = sampleRules()
}

func (s *EngineSuite) TestNaicsFilter() {
	page := Search(s.rules, Filter{NaicsCodes: []string{"445310"}}, 1, 20, "")
	s.Equal([]string{"rul-1001"}, ids(page.Data))
	s.Equal(1, page.Pagination.TotalItems)
	s.Equal(1, page.Pagination.TotalPages)
}

func (s *EngineSuite) TestNoMatchesGivesEmptyPage() {
	page := Search(s.rules, Filter{NaicsCodes: []string{"999999"}}, 1, 20, "")
	s.NotNil(page.Data)
	s.Empty(page.Data)
	s.Equal(0, page.Pagination.TotalItems)
	s.Equal(0, page.Pagination.TotalPages)
	s.Equal(1, page.Pagination.Page)
}

func (s *EngineSuite) TestQueryMatchesRestrictionsButNotStates() {
	page := Search(s.rules, Filter{Query: "FLOOD"}, 1, 25, "")
	s.Equal([]string{"rul-1003"}, ids(page.Data))

	page = Search(s.rules, Filter{Query: "nv"}, 1, 25, "")
	s.Empty(page.Data, "query does not look at states")

	page = Search(s.rules, Filter{Keyword: "nv"}, 1, 25, "")
	s.Equal([]string{"rul-1010"}, ids(page.Data), "keyword does")
}

func (s *EngineSuite) TestBusinessTypeSingleIsCaseInsensitive() {
	page := Search(s.rules, Filter{BusinessType: "restaurant"}, 1, 20, "")
	s.Equal([]string{"rul-1002", "rul-1010"}, ids(page.Data))

	page = Search(s.rules, Filter{BusinessTypes: []string{"restaurant"}}, 1, 20, "")
	s.Empty(page.Data, "multi-valued membership is exact")
}

func (s *EngineSuite) TestCustomFilterCombination() {
	page := Search(s.rules, Filter{
		Carrier: "Beta Mutual",
		States:  []string{"NY", "TX"},
	}, 1, 25, "")
	s.Equal([]string{"rul-1002", "rul-1004"}, ids(page.Data))
}

func (s *EngineSuite) TestIncludeRestricted() {
	rules := append(sampleRules(), &models.Rule{ID: "rul-2000", Title: "Open appetite", Priority: "low"})

	nilPage := Search(rules, Filter{}, 1, 25, "")
	truePage := Search(rules, Filter{IncludeRestricted: boolPtr(true)}, 1, 25, "")
	s.Equal(ids(nilPage.Data), ids(truePage.Data), "absent and true are the same")
	s.Len(nilPage.Data, 6)

	falsePage := Search(rules, Filter{IncludeRestricted: boolPtr(false)}, 1, 25, "")
	s.Equal([]string{"rul-2000"}, ids(falsePage.Data))
}

func (s *EngineSuite) TestPriorityDescIsStable() {
	page := Search(s.rules, Filter{}, 1, 25, "priority:desc")
	// ties keep incoming order
	s.Equal([]string{"rul-1001", "rul-1003", "rul-1002", "rul-1010", "rul-1004"}, ids(page.Data))
}

func (s *EngineSuite) TestMultiKeySortLastClausePrimary() {
	tests := []struct {
		sortBy string
		want   []string
	}{
		{"priority:desc,createdAt:desc", []string{"rul-1004", "rul-1003", "rul-1001", "rul-1010", "rul-1002"}},
		{"createdAt:desc,priority:desc", []string{"rul-1003", "rul-1001", "rul-1002", "rul-1004", "rul-1010"}},
		{"createdAt,priority", []string{"rul-1010", "rul-1004", "rul-1002", "rul-1001", "rul-1003"}},
	}
	for _, tc := range tests {
		s.Run(tc.sortBy, func() {
			page := Search(s.rules, Filter{}, 1, 25, tc.sortBy)
			s.Equal(tc.want, ids(page.Data))
		})
	}
}

func (s *EngineSuite) TestUnknownFieldIsAnIDPass() {
	tests := []struct {
		sortBy string
		want   []string
	}{
		{"", []string{"rul-1001", "rul-1002", "rul-1003", "rul-1004", "rul-1010"}},
		{"bogus:desc", []string{"rul-1001", "rul-1002", "rul-1003", "rul-1004", "rul-1010"}},
		{"bogus,priority:desc", []string{"rul-1001", "rul-1003", "rul-1002", "rul-1004", "rul-1010"}},
		{"priority:desc,bogus", []string{"rul-1001", "rul-1002", "rul-1003", "rul-1004", "rul-1010"}},
	}
	for _, tc := range tests {
		s.Run("sortBy="+tc.sortBy, func() {
			page := Search(s.rules, Filter{}, 1, 25, tc.sortBy)
			s.Equal(tc.want, ids(page.Data))
		})
	}
}

func (s *EngineSuite) TestPaginationLaw() {
	all := Search(s.rules, Filter{}, 1, 25, "")
	var collected []string
	for p := 1; p <= 3; p++ {
		page := Search(s.rules, Filter{}, p, 2, "")
		s.Equal(3, page.Pagination.TotalPages)
		s.Equal(5, page.Pagination.TotalItems)
		collected = append(collected, ids(page.Data)...)
	}
	s.Equal(ids(all.Data), collected)

	past := Search(s.rules, Filter{}, 4, 2, "")
	s.Empty(past.Data)
}

func (s *EngineSuite) TestNonPositivePaging() {
	page := Search(s.rules, Filter{}, 0, 10, "")
	s.Empty(page.Data)
	s.Equal(0, page.Pagination.TotalPages)
}

func (s *EngineSuite) TestSearchDoesNotReorderInput() {
	Search(s.rules, Filter{}, 1, 25, "priority:desc")
	s.Equal("rul-1001", s.rules[0].ID)
	s.Equal("rul-1002", s.rules[1].ID)
}

func TestParseSort(t *testing.T) {
	clauses := ParseSort(" priority:DESC , createdAt ,")
	require.Len(t, clauses, 2)
	assert.Equal(t, SortClause{Field: "priority", Desc: true}, clauses[0])
	assert.Equal(t, SortClause{Field: "createdat"}, clauses[1])
	assert.Empty(t, ParseSort(""))
}
