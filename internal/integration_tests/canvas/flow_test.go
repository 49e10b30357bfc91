// Package canvas drives the full HTTP surface: a carrier publishes a rule on
// the canvas, the checker and search engine pick it up, and the decision
// shows up in analytics.
package canvas

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	analyticshandler "appetite/internal/analytics/handler"
	analyticsservice "appetite/internal/analytics/service"
	analyticsstore "appetite/internal/analytics/store"
	authhandler "appetite/internal/auth/handler"
	"appetite/internal/auth/lockout"
	authservice "appetite/internal/auth/service"
	authstore "appetite/internal/auth/store"
	checkerhandler "appetite/internal/checker/handler"
	"appetite/internal/checker/matcher"
	checkerservice "appetite/internal/checker/service"
	checkerstore "appetite/internal/checker/store"
	httpapi "appetite/internal/http"
	jwttoken "appetite/internal/jwt_token"
	ruleshandler "appetite/internal/rules/handler"
	rulesservice "appetite/internal/rules/service"
	rulestore "appetite/internal/rules/store"
	searchhandler "appetite/internal/search/handler"
	searchservice "appetite/internal/search/service"
	"appetite/internal/seed"
	"appetite/pkg/pagination"
	"appetite/pkg/testutil"
)

func newServer(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := jwttoken.NewJWTService("flow-signing-key", "appetite", "appetite-api")

	users := authstore.NewInMemory()
	rules := rulestore.NewInMemory()
	events := analyticsstore.NewInMemory()
	analytics := analyticsservice.New(events, analyticsservice.WithRules(rules), analyticsservice.WithUsers(users))

	data, err := seed.Default()
	require.NoError(t, err)
	_, err = seed.New(data, seed.Stores{Users: users, Rules: rules}, seed.WithLogger(logger)).Run(context.Background())
	require.NoError(t, err)

	auth, err := authservice.New(users, lockout.NewInMemory(lockout.DefaultPolicy), tokens)
	require.NoError(t, err)
	checker := checkerservice.New(checkerstore.NewInMemory(),
		checkerservice.WithMatcher(matcher.NewChain(logger, matcher.NewStoreMatcher(rules), matcher.StaticPolicy{})),
		checkerservice.WithAnalytics(analytics),
		checkerservice.WithLogger(logger),
	)

	return httpapi.NewRouter(httpapi.Deps{
		Logger:    logger,
		Tokens:    tokens,
		Checker:   checkerhandler.New(checker, logger),
		Search:    searchhandler.New(searchservice.New(rules), logger),
		Analytics: analyticshandler.New(analytics, logger),
		Auth:      authhandler.New(auth, logger),
		Rules:     ruleshandler.New(rulesservice.New(rules), logger),
	})
}

func TestCarrierRuleDrivesCheckerDecision(t *testing.T) {
	server := newServer(t)
	var token, ruleID string

	testutil.Given(t, "a seeded carrier account", func(t *testing.T) {
		rr := testutil.DoRequest(server, testutil.NewJSONRequest(t, http.MethodPost, "/api/canvas/login", map[string]string{
			"username": "carrier@example.com",
			"password": "Admin123!",
		}))
		testutil.AssertStatusOK(t, rr)
		token = testutil.UnmarshalResponse[authhandler.LoginResponse](t, rr).AccessToken
		require.NotEmpty(t, token)
	})

	testutil.When(t, "the carrier publishes an active declining rule", func(t *testing.T) {
		req := testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodPost, "/api/canvas/rules", map[string]any{
			"title":        "No food trucks in Washington",
			"description":  "Mobile food service is outside appetite in WA.",
			"businessType": "Restaurant",
			"naicsCodes":   []string{"722330"},
			"states":       []string{"WA"},
			"carrier":      "ABC Insurance",
			"priority":     "high",
			"outcome":      "Declined",
			"status":       "Active",
		}), token)
		rr := testutil.DoRequest(server, req)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		ruleID = testutil.UnmarshalResponse[ruleshandler.RuleResponse](t, rr).RuleID
		assert.Equal(t, "rul-1011", ruleID, "numbering continues above the seeded rules")
	})

	testutil.Then(t, "search finds it by NAICS code", func(t *testing.T) {
		rr := testutil.DoRequest(server, testutil.NewRequest(t, http.MethodGet, "/api/search/getRulesByNaics/722330"))
		testutil.AssertStatusOK(t, rr)
		page := testutil.UnmarshalResponse[pagination.Page[searchhandler.SearchRule]](t, rr)
		require.Len(t, page.Data, 1)
		assert.Equal(t, ruleID, page.Data[0].RuleID)
	})

	testutil.Then(t, "the checker declines a matching submission", func(t *testing.T) {
		rr := testutil.DoRequest(server, testutil.NewJSONRequest(t, http.MethodPost, "/api/checker/evaluate", map[string]any{
			"submissionId": "sub-flow-1",
			"businessDesc": "Taco truck",
			"naicsCode":    "722330",
			"location":     map[string]string{"state": "WA"},
		}))
		testutil.AssertStatusOK(t, rr)
		eval := testutil.UnmarshalResponse[checkerhandler.EvaluateResponse](t, rr)
		assert.Equal(t, "Declined", eval.Decision)
		assert.Equal(t, ruleID, eval.MatchedRule)
	})

	testutil.Then(t, "the notified decision is counted by analytics", func(t *testing.T) {
		rr := testutil.DoRequest(server, testutil.NewJSONRequest(t, http.MethodPost, "/api/checker/notifyAnalytics", map[string]any{
			"submissionId":     "sub-flow-1",
			"decision":         "Declined",
			"processingTimeMs": 42,
		}))
		testutil.AssertStatusOK(t, rr)

		rr = testutil.DoRequest(server, testutil.NewRequest(t, http.MethodGet, "/api/analytics/fetch"))
		testutil.AssertStatusOK(t, rr)
		snap := testutil.UnmarshalResponse[analyticshandler.FetchResponse](t, rr)
		assert.Equal(t, 1, snap.Metrics.EligibilityDistribution.Ineligible)
		assert.Equal(t, 3, snap.Metrics.AppetiteShare["Restaurant"])
	})

	testutil.Then(t, "the dashboard requires the bearer token and counts the rule", func(t *testing.T) {
		rr := testutil.DoRequest(server, testutil.NewRequest(t, http.MethodGet, "/api/canvas/analytics"))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")

		rr = testutil.DoRequest(server, testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, "/api/canvas/analytics"), token))
		testutil.AssertStatusOK(t, rr)
		dash := testutil.UnmarshalResponse[analyticshandler.DashboardResponse](t, rr)
		assert.Equal(t, 6, dash.Metrics.TotalRules)
		assert.Equal(t, 3, dash.Metrics.TotalUsers)
	})
}
