package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"appetite/internal/rules/models"
	"appetite/internal/rules/store"
	"appetite/internal/search/service"
	"appetite/pkg/pagination"
	"appetite/pkg/testutil"
)

type SearchHandlerSuite struct {
	suite.Suite
	router chi.Router
}

func TestSearchHandlerSuite(t *testing.T) {
	suite.Run(t, new(SearchHandlerSuite))
}

func (s *SearchHandlerSuite) SetupTest() {
	rules := store.NewInMemory()
	ctx := context.Background()
	created := time.Date(2025, 6, 15, 9, 12, 0, 0, time.UTC)
	for _, r := range []*models.Rule{
		{ID: "rul-1001", Title: "No liquor stores in Zone A", BusinessType: "Retail", NaicsCodes: []string{"445310"},
			States: []string{"CA", "TX"}, Restrictions: []string{"no-drive-thru"}, Priority: "high", CreatedAt: created},
		{ID: "rul-1002", Title: "High-risk restaurants", BusinessType: "Restaurant", NaicsCodes: []string{"722511"},
			States: []string{"NY"}, Priority: "medium", CreatedAt: created},
	} {
		s.Require().NoError(rules.Create(ctx, r))
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = chi.NewRouter()
	New(service.New(rules, service.WithLogger(logger)), logger).Register(s.router)
}

func (s *SearchHandlerSuite) TestGetRulesByNaics() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/getRulesByNaics/445310"))
	testutil.AssertStatusOK(s.T(), rr)
	page := testutil.UnmarshalResponse[pagination.Page[SearchRule]](s.T(), rr)
	s.Require().Len(page.Data, 1)
	s.Equal("rul-1001", page.Data[0].RuleID)
	s.Equal(pagination.Info{Page: 1, PageSize: 20, TotalPages: 1, TotalItems: 1}, page.Pagination)
}

func (s *SearchHandlerSuite) TestGetRulesDefaults() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/getRules"))
	testutil.AssertStatusOK(s.T(), rr)
	page := testutil.UnmarshalResponse[pagination.Page[SearchRule]](s.T(), rr)
	s.Len(page.Data, 2)
	s.Equal(25, page.Pagination.PageSize)
}

func (s *SearchHandlerSuite) TestKeywordRequired() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/getRulesByKeyword"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")

	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/getRulesByKeyword?keyword=ny"))
	testutil.AssertStatusOK(s.T(), rr)
	page := testutil.UnmarshalResponse[pagination.Page[SearchRule]](s.T(), rr)
	s.Equal(10, page.Pagination.PageSize)
	s.Require().Len(page.Data, 1)
	s.Equal("rul-1002", page.Data[0].RuleID)
}

func (s *SearchHandlerSuite) TestRejectsNonPositivePaging() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/getRules?page=0"))
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)

	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/getRulesByBusinessType/retail?pageSize=-1"))
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
}

func (s *SearchHandlerSuite) TestCustomFilter() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/getRulesByCustomFilter", map[string]any{
		"includeRestricted": false,
	}))
	testutil.AssertStatusOK(s.T(), rr)
	page := testutil.UnmarshalResponse[pagination.Page[SearchRule]](s.T(), rr)
	s.Require().Len(page.Data, 1)
	s.Equal("rul-1002", page.Data[0].RuleID)
	s.Equal(1, page.Pagination.Page)
	s.Equal(25, page.Pagination.PageSize)

	rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/getRulesByCustomFilter", map[string]any{
		"page": 0,
	}))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
}
