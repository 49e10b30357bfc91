// Package matcher selects the rule that decides a (NAICS, state) pair.
package matcher

import (
	"context"
	"log/slog"

	"appetite/internal/checker/models"
	"appetite/internal/checker/policy"
	rulemodels "appetite/internal/rules/models"
	"appetite/pkg/requestcontext"
)

// RuleMatcher finds the rule for a submission. ok is false when the matcher
// has no opinion and the next one should be asked.
type RuleMatcher interface {
	Match(ctx context.Context, naics, state string) (match models.Match, ok bool, err error)
}

// StaticPolicy matches every pair using the baseline decision table.
type StaticPolicy struct{}

func (StaticPolicy) Match(_ context.Context, naics, state string) (models.Match, bool, error) {
	return models.Match{
		Decision: policy.Decide(naics, state),
		RuleID:   policy.RuleName(naics, state),
	}, true, nil
}

// RuleScanner is the read side of the rule store.
type RuleScanner interface {
	Scan(ctx context.Context, pred rulemodels.Predicate) ([]*rulemodels.Rule, error)
}

// CoveringScanner returns, in creation order, the rules whose NAICS and
// state sets contain the given pair. Stores narrow with their indexes.
type CoveringScanner interface {
	ScanCovering(ctx context.Context, naics, state string) ([]*rulemodels.Rule, error)
}

// StoreMatcher matches Active, in-effect rules whose NAICS and state sets
// both contain the submission's values. The earliest-created rule wins.
type StoreMatcher struct {
	rules CoveringScanner
}

func NewStoreMatcher(rules CoveringScanner) *StoreMatcher {
	return &StoreMatcher{rules: rules}
}

func (m *StoreMatcher) Match(ctx context.Context, naics, state string) (models.Match, bool, error) {
	at := requestcontext.Now(ctx)
	candidates, err := m.rules.ScanCovering(ctx, naics, state)
	if err != nil {
		return models.Match{}, false, err
	}
	var rule *rulemodels.Rule
	for _, r := range candidates {
		if r.IsActive() && r.InEffect(at) && r.Covers(naics, state) {
			rule = r
			break
		}
	}
	if rule == nil {
		return models.Match{}, false, nil
	}
	decision, err := models.ParseDecision(rule.Outcome)
	if err != nil {
		decision = policy.Decide(naics, state)
	}
	return models.Match{Decision: decision, RuleID: rule.ID}, true, nil
}

// ChainMatcher asks each matcher in turn and falls back to the static
// policy. Matcher errors are logged and skipped, so a match always exists.
type ChainMatcher struct {
	matchers []RuleMatcher
	fallback StaticPolicy
	logger   *slog.Logger
}

func NewChain(logger *slog.Logger, matchers ...RuleMatcher) *ChainMatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChainMatcher{matchers: matchers, logger: logger}
}

func (c *ChainMatcher) Match(ctx context.Context, naics, state string) (models.Match, bool, error) {
	for _, m := range c.matchers {
		match, ok, err := m.Match(ctx, naics, state)
		if err != nil {
			c.logger.WarnContext(ctx, "rule matcher failed, falling through",
				"request_id", requestcontext.RequestID(ctx),
				"naics", naics,
				"state", state,
				"error", err,
			)
			continue
		}
		if ok {
			return match, true, nil
		}
	}
	return c.fallback.Match(ctx, naics, state)
}
