package matcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"appetite/internal/checker/models"
	rulemodels "appetite/internal/rules/models"
	rulestore "appetite/internal/rules/store"
	"appetite/pkg/requestcontext"
)

type brokenScanner struct{}

func (brokenScanner) ScanCovering(context.Context, string, string) ([]*rulemodels.Rule, error) {
	return nil, errors.New("store unavailable")
}

// fixedScanner returns its rules for any pair, like a store whose index
// narrowing is coarser than the match.
type fixedScanner struct {
	rules []*rulemodels.Rule
	asked [][2]string
}

func (f *fixedScanner) ScanCovering(_ context.Context, naics, state string) ([]*rulemodels.Rule, error) {
	f.asked = append(f.asked, [2]string{naics, state})
	return f.rules, nil
}

type MatcherSuite struct {
	suite.Suite
	ctx   context.Context
	rules *rulestore.InMemory
}

func TestMatcherSuite(t *testing.T) {
	suite.Run(t, new(MatcherSuite))
}

func (s *MatcherSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	s.rules = rulestore.NewInMemory()
}

func (s *MatcherSuite) addRule(r *rulemodels.Rule) {
	s.Require().NoError(s.rules.Create(context.Background(), r))
}

func (s *MatcherSuite) TestStaticPolicyAlwaysMatches() {
	match, ok, err := StaticPolicy{}.Match(s.ctx, "445110", "NY")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(models.Match{Decision: models.DecisionDeclined, RuleID: "Grocery_Retail_NY_002"}, match)
}

func (s *MatcherSuite) TestStoreMatcherFirstActiveInEffectRuleWins() {
	expired := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.addRule(&rulemodels.Rule{ID: "rul-001", NaicsCodes: []string{"722511"}, States: []string{"CA"}, Status: rulemodels.StatusDraft, Outcome: "Declined"})
	s.addRule(&rulemodels.Rule{ID: "rul-002", NaicsCodes: []string{"722511"}, States: []string{"CA"}, Status: rulemodels.StatusActive, Outcome: "Declined", EffectiveTo: &expired})
	s.addRule(&rulemodels.Rule{ID: "rul-003", NaicsCodes: []string{"722511"}, States: []string{"CA"}, Status: rulemodels.StatusActive, Outcome: "restricted"})
	s.addRule(&rulemodels.Rule{ID: "rul-004", NaicsCodes: []string{"722511"}, States: []string{"CA"}, Status: rulemodels.StatusActive, Outcome: "Declined"})

	match, ok, err := NewStoreMatcher(s.rules).Match(s.ctx, "722511", "CA")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(models.Match{Decision: models.DecisionRestricted, RuleID: "rul-003"}, match)
}

func (s *MatcherSuite) TestStoreMatcherUnparsableOutcomeUsesStaticDecision() {
	s.addRule(&rulemodels.Rule{ID: "rul-1010", NaicsCodes: []string{"445310"}, States: []string{"CA"}, Status: rulemodels.StatusActive})

	match, ok, err := NewStoreMatcher(s.rules).Match(s.ctx, "445310", "CA")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(models.DecisionRestricted, match.Decision)
	s.Equal("rul-1010", match.RuleID)
}

func (s *MatcherSuite) TestStoreMatcherNoMatch() {
	_, ok, err := NewStoreMatcher(s.rules).Match(s.ctx, "722511", "CA")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *MatcherSuite) TestStoreMatcherNarrowsThroughTheStore() {
	scanner := &fixedScanner{rules: []*rulemodels.Rule{
		{ID: "rul-001", NaicsCodes: []string{"722511"}, States: []string{"NV"}, Status: rulemodels.StatusActive, Outcome: "Declined"},
		{ID: "rul-002", NaicsCodes: []string{"722511"}, States: []string{"CA"}, Status: rulemodels.StatusActive, Outcome: "Eligible"},
	}}

	match, ok, err := NewStoreMatcher(scanner).Match(s.ctx, "722511", "CA")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("rul-002", match.RuleID, "rows the store returns are still checked for coverage")
	s.Equal([][2]string{{"722511", "CA"}}, scanner.asked)
}

func (s *MatcherSuite) TestChainFallsBackToStaticPolicy() {
	chain := NewChain(nil, NewStoreMatcher(s.rules))
	match, ok, err := chain.Match(s.ctx, "722511", "CA")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("Restaurant_FoodService_CA_001", match.RuleID)
}

func (s *MatcherSuite) TestChainFailsOpenOnMatcherError() {
	chain := NewChain(nil, NewStoreMatcher(brokenScanner{}))
	match, ok, err := chain.Match(s.ctx, "999999", "ZZ")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(models.Match{Decision: models.DecisionEligible, RuleID: "General_Rule_ZZ_999"}, match)
}
