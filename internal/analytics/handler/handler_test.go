package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"appetite/internal/analytics/service"
	"appetite/internal/analytics/store"
	rulestore "appetite/internal/rules/store"
	"appetite/pkg/testutil"
)

type AnalyticsHandlerSuite struct {
	suite.Suite
	router chi.Router
	events *store.InMemory
}

func TestAnalyticsHandlerSuite(t *testing.T) {
	suite.Run(t, new(AnalyticsHandlerSuite))
}

func (s *AnalyticsHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.events = store.NewInMemory()
	svc := service.New(s.events, service.WithRules(rulestore.NewInMemory()), service.WithLogger(logger))

	h := New(svc, logger)
	s.router = chi.NewRouter()
	h.Register(s.router)
	h.RegisterDashboard(s.router)
}

func (s *AnalyticsHandlerSuite) addEvent(body map[string]any) *AddEventResponse {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/add", body))
	testutil.AssertStatusOK(s.T(), rr)
	return testutil.UnmarshalResponse[AddEventResponse](s.T(), rr)
}

func (s *AnalyticsHandlerSuite) TestAddEvent() {
	resp := s.addEvent(map[string]any{
		"eventId":   "evt-custom",
		"action":    "checker_decision",
		"productId": "prod-001",
		"metadata":  map[string]any{"decision": "Eligible"},
	})
	s.Equal("success", resp.Status)
	s.Equal("Event recorded", resp.Message)
	s.Equal("evt-custom", resp.EventID)

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/add", map[string]any{
		"eventId": "evt-custom",
		"action":  "rule_view",
	}))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
}

func (s *AnalyticsHandlerSuite) TestAddEventRequiresAction() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/add", map[string]any{
		"action": "  ",
	}))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
}

func (s *AnalyticsHandlerSuite) TestFetch() {
	s.addEvent(map[string]any{
		"action":    "checker_decision",
		"timestamp": "2025-08-01T10:00:00Z",
		"productId": "prod-001",
		"metadata":  map[string]any{"decision": "Eligible"},
	})
	s.addEvent(map[string]any{
		"action":    "checker_decision",
		"timestamp": "2025-08-02T10:00:00Z",
		"productId": "prod-001",
		"metadata":  map[string]any{"decision": "Restricted"},
	})
	s.addEvent(map[string]any{
		"action":    "checker_decision",
		"timestamp": "2025-08-02T11:00:00Z",
		"productId": "prod-002",
		"metadata":  map[string]any{"decision": "Declined"},
	})

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/fetch"))
	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[FetchResponse](s.T(), rr)
	s.Equal(EligibilityDistribution{Eligible: 1, Ineligible: 1, Conditional: 1}, resp.Metrics.EligibilityDistribution)
	s.Equal([]SubmissionOverTime{{Date: "2025-08-01", Count: 1}, {Date: "2025-08-02", Count: 2}}, resp.Metrics.SubmissionsOverTime)
	s.Equal([]RuleByProduct{{ProductID: "prod-001", RuleCount: 2}, {ProductID: "prod-002", RuleCount: 1}}, resp.Metrics.RulesByProduct)

	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/fetch?since=2025-08-02"))
	testutil.AssertStatusOK(s.T(), rr)
	resp = testutil.UnmarshalResponse[FetchResponse](s.T(), rr)
	s.Equal(0, resp.Metrics.EligibilityDistribution.Eligible)
	s.Len(resp.Metrics.SubmissionsOverTime, 1)
}

func (s *AnalyticsHandlerSuite) TestFetchRejectsBadRange() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/fetch?since=yesterday"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")

	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/fetch?since=2025-08-02&until=2025-08-01"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
}

func (s *AnalyticsHandlerSuite) TestDashboard() {
	rr := testutil.DoRequest(s.router, testutil.WithAdmin(testutil.NewRequest(s.T(), http.MethodGet, "/analytics")))
	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[DashboardResponse](s.T(), rr)
	s.Equal(0, resp.Metrics.TotalRules)
	s.Len(resp.Metrics.GrowthData, 7)
}
