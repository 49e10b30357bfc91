package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"appetite/internal/checker/service"
	"appetite/internal/checker/store"
	"appetite/pkg/testutil"
)

type CheckerHandlerSuite struct {
	suite.Suite
	router chi.Router
}

func TestCheckerHandlerSuite(t *testing.T) {
	suite.Run(t, new(CheckerHandlerSuite))
}

func (s *CheckerHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = chi.NewRouter()
	New(service.New(store.NewInMemory(), service.WithLogger(logger)), logger).Register(s.router)
}

func (s *CheckerHandlerSuite) evaluate(body map[string]any) EvaluateResponse {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/evaluate", body))
	testutil.AssertStatusOK(s.T(), rr)
	return *testutil.UnmarshalResponse[EvaluateResponse](s.T(), rr)
}

func (s *CheckerHandlerSuite) TestEvaluateAndFetchResult() {
	resp := s.evaluate(map[string]any{
		"submissionId": "sub-100",
		"businessDesc": "Small family restaurant",
		"naicsCode":    "722511",
		"location":     map[string]any{"state": "CA", "zipcode": "94016"},
	})
	s.Equal("Eligible", resp.Decision)
	s.Equal("Restaurant_FoodService_CA_001", resp.MatchedRule)
	s.InDelta(0.90, resp.Confidence, 1e-9)

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/result/sub-100"))
	testutil.AssertStatusOK(s.T(), rr)
	result := testutil.UnmarshalResponse[ResultResponse](s.T(), rr)
	s.Equal("sub-100", result.SubmissionID)
	s.Equal("Eligible", result.Decision)
	s.Equal("Meets appetite guidelines for NAICS 722511 in CA", result.Reason)
}

func (s *CheckerHandlerSuite) TestEvaluateValidation() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/evaluate", map[string]any{
		"naicsCode": "722511",
	}))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")

	rr = testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/evaluate", "{"))
	s.Equal(http.StatusBadRequest, rr.Code)
}

func (s *CheckerHandlerSuite) TestResultUnknownIs404() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/result/sub-missing"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
}

func (s *CheckerHandlerSuite) TestConfidenceScore() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/confidenceScore?naics=445110&desc=corner%20store"))
	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[ConfidenceScoreResponse](s.T(), rr)
	s.Equal("445110", resp.Naics)
	s.Equal("corner store", resp.Desc)
	s.InDelta(0.87, resp.ConfidenceScore, 1e-9)

	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/confidenceScore"))
	s.Equal(http.StatusBadRequest, rr.Code)
}

func (s *CheckerHandlerSuite) TestEligibilityCheck() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/eligibilityCheck", map[string]any{
		"submissionId": "sub-002",
		"productId":    "prod-101",
		"naicsCode":    "445110",
		"location":     map[string]any{"state": "ny"},
	}))
	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[EligibilityCheckResponse](s.T(), rr)
	s.False(resp.Eligible)
	s.Equal("sub-002", resp.SubmissionID)
	s.Equal("Product not offered for NAICS 445110 in NY", resp.Reason)
}

func (s *CheckerHandlerSuite) TestRecommendations() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/recommendations?submissionId=sub-002"))
	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[RecommendationsResponse](s.T(), rr)
	s.Equal("sub-002", resp.SubmissionID)
	s.Require().Len(resp.Alternatives, 2)
	s.Equal(AlternativeResponse{Naics: "445120", ProductID: "prod-102", Desc: "Convenience Store"}, resp.Alternatives[0])
}

func (s *CheckerHandlerSuite) TestPrepareSummary() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/prepareSummary", map[string]any{
		"submissionId": "sub-001",
		"decision":     "eligible",
		"confidence":   0.92,
		"reason":       "Meets appetite guidelines",
	}))
	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[PrepareSummaryResponse](s.T(), rr)
	s.Equal("This submission is Eligible with high confidence. Meets appetite guidelines", resp.Summary)

	rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/prepareSummary", map[string]any{
		"decision": "Maybe",
	}))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
}

func (s *CheckerHandlerSuite) TestNotifyAnalytics() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/notifyAnalytics", map[string]any{
		"submissionId":     "sub-001",
		"decision":         "Declined",
		"processingTimeMs": 120,
		"timestamp":        "2025-06-01T10:00:00Z",
	}))
	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[NotifyAnalyticsResponse](s.T(), rr)
	s.Equal(NotifyAnalyticsResponse{Status: "ok", Message: "Event logged to analytics", SubmissionID: "sub-001"}, *resp)
}
