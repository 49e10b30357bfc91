package models

import (
	"maps"
	"time"
)

// Actions with meaning to the aggregations.
const (
	// ActionCheckerDecision is recorded for every decision notified by the
	// checker; metadata carries "decision" and "processingTimeMs".
	ActionCheckerDecision = "checker_decision"
	ActionRuleView        = "rule_view"
	ActionSubmission      = "submission"
)

// Metadata keys.
const (
	MetaDecision         = "decision"
	MetaProcessingTimeMs = "processingTimeMs"
	MetaDevice           = "device"
	MetaLocation         = "location"
	MetaSubmissionID     = "submissionId"
)

// Event is one analytics record. Events are append-only.
type Event struct {
	ID        string
	Timestamp time.Time
	UserID    string
	Action    string
	RuleID    string
	ProductID string
	Metadata  map[string]any
}

// MetaString returns a string metadata value, or "" when absent or not a string.
func (e *Event) MetaString(key string) string {
	if e.Metadata == nil {
		return ""
	}
	s, _ := e.Metadata[key].(string)
	return s
}

func (e *Event) Clone() *Event {
	c := *e
	if e.Metadata != nil {
		c.Metadata = maps.Clone(e.Metadata)
	}
	return &c
}

// Range bounds a query by timestamp. Zero ends are open; both ends are inclusive.
type Range struct {
	Since time.Time
	Until time.Time
}

func (r Range) Contains(t time.Time) bool {
	if !r.Since.IsZero() && t.Before(r.Since) {
		return false
	}
	if !r.Until.IsZero() && t.After(r.Until) {
		return false
	}
	return true
}
