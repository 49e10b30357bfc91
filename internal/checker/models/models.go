package models

import (
	"strings"
	"time"

	dErrors "appetite/pkg/domain-errors"
)

// Decision is the outcome of an appetite evaluation.
type Decision string

const (
	DecisionEligible   Decision = "Eligible"
	DecisionDeclined   Decision = "Declined"
	DecisionRestricted Decision = "Restricted"
)

// ParseDecision accepts the three decisions case-insensitively.
func ParseDecision(s string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "eligible":
		return DecisionEligible, nil
	case "declined":
		return DecisionDeclined, nil
	case "restricted":
		return DecisionRestricted, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "decision must be one of Eligible, Declined, Restricted")
	}
}

func (d Decision) String() string { return string(d) }

// Location is where the submitted business operates.
type Location struct {
	State      string
	PostalCode string
}

// Submission is one evaluation record. Re-evaluating an id appends a new
// record; the latest one wins on lookup.
type Submission struct {
	ID                  string
	BusinessDescription string
	NaicsCode           string
	Location            Location
	Decision            Decision
	Confidence          float64
	Reason              string
	MatchedRule         string
	EvaluatedAt         time.Time
}

// Match is the rule a matcher selected for a (NAICS, state) pair.
type Match struct {
	Decision Decision
	RuleID   string
}

// Evaluation is the result of Evaluate.
type Evaluation struct {
	SubmissionID string
	Decision     Decision
	MatchedRule  string
	Reason       string
	Confidence   float64
}

// Alternative is a recommended NAICS/product combination.
type Alternative struct {
	Naics       string
	ProductID   string
	Description string
}

// NotifyResult acknowledges an analytics notification.
type NotifyResult struct {
	Status       string
	Message      string
	SubmissionID string
}
