// Package policy holds the fixed appetite policy: the baseline decision
// table, synthesized rule names, reason templates and confidence scoring.
package policy

import (
	"fmt"
	"math"
	"strings"

	"appetite/internal/checker/models"
)

const (
	baseConfidence      = 0.75
	restaurantBonus     = 0.15
	storeBonus          = 0.12
	maxConfidence       = 0.95
	highConfidenceFloor = 0.8
	midConfidenceFloor  = 0.6
)

// Decide is the baseline decision table. Unlisted pairs are Eligible.
func Decide(naics, state string) models.Decision {
	switch {
	case naics == "722511" && state == "CA":
		return models.DecisionEligible
	case naics == "445110" && state == "NY":
		return models.DecisionDeclined
	case naics == "445310":
		return models.DecisionRestricted
	default:
		return models.DecisionEligible
	}
}

// RuleName synthesizes the matched-rule identifier for the baseline table.
func RuleName(naics, state string) string {
	switch naics {
	case "722511":
		return "Restaurant_FoodService_" + state + "_001"
	case "445110":
		return "Grocery_Retail_" + state + "_002"
	case "445310":
		return "Liquor_Retail_" + state + "_003"
	default:
		return "General_Rule_" + state + "_999"
	}
}

// Reason renders the decision reason. It always names the NAICS code and state.
func Reason(d models.Decision, naics, state string) string {
	switch d {
	case models.DecisionDeclined:
		return fmt.Sprintf("Product not offered for NAICS %s in %s", naics, state)
	case models.DecisionRestricted:
		return fmt.Sprintf("Limited appetite for NAICS %s in %s", naics, state)
	default:
		return fmt.Sprintf("Meets appetite guidelines for NAICS %s in %s", naics, state)
	}
}

// Confidence scores how well the description supports the NAICS code. The
// result is in [0.75, 0.95] and rounded to two decimals.
func Confidence(description, naics string) float64 {
	desc := strings.ToLower(description)
	score := baseConfidence
	if strings.Contains(desc, "restaurant") && strings.HasPrefix(naics, "722") {
		score += restaurantBonus
	}
	if strings.Contains(desc, "store") && strings.HasPrefix(naics, "445") {
		score += storeBonus
	}
	return math.Round(math.Min(score, maxConfidence)*100) / 100
}

// ConfidenceLevel buckets a confidence for summaries.
func ConfidenceLevel(confidence float64) string {
	switch {
	case confidence > highConfidenceFloor:
		return "high"
	case confidence > midConfidenceFloor:
		return "medium"
	default:
		return "low"
	}
}

// Summary renders the one-line submission summary.
func Summary(decision string, confidence float64, reason string) string {
	return fmt.Sprintf("This submission is %s with %s confidence. %s", decision, ConfidenceLevel(confidence), reason)
}

type denyKey struct {
	productID, naics, state string
}

// productDenyList holds (product, NAICS, state) triples never offered.
var productDenyList = map[denyKey]struct{}{
	{productID: "prod-101", naics: "445110", state: "NY"}: {},
}

// Denied reports whether the triple is on the product deny-list.
func Denied(productID, naics, state string) bool {
	_, ok := productDenyList[denyKey{productID, naics, state}]
	return ok
}

// Eligibility reasons.
const ReasonProductAvailable = "Product is available for this NAICS code and location"

func ReasonProductNotOffered(naics, state string) string {
	return fmt.Sprintf("Product not offered for NAICS %s in %s", naics, state)
}

func ReasonNaicsNotAllowed(naics, productID string) string {
	return fmt.Sprintf("NAICS %s is not in the allowed list for product %s", naics, productID)
}

// StaticAlternatives are the fallback recommendations.
func StaticAlternatives() []models.Alternative {
	return []models.Alternative{
		{Naics: "445120", ProductID: "prod-102", Description: "Convenience Store"},
		{Naics: "445220", ProductID: "prod-103", Description: "Fish Market"},
	}
}
