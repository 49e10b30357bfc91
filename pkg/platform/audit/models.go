package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose so stores and
// sinks can apply different retention and routing.
type EventCategory string

const (
	// CategoryCompliance covers underwriting-relevant changes: rule edits,
	// user provisioning, recorded eligibility decisions.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers authentication failures and lockouts.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity that can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// UserID is the account the event is about.
	UserID   string
	Subject  string
	Action   string
	Decision string
	Reason   string
	Email    string
	// RequestID is the correlation id of the HTTP request that caused the event.
	RequestID string
	// ActorID is set when someone other than UserID performed the action,
	// e.g. an admin creating a user.
	ActorID string
	IP      string
}

type AuditEvent string

const (
	// Account events
	EventUserCreated    AuditEvent = "user_created"
	EventUserRegistered AuditEvent = "user_registered"
	EventLoginSucceeded AuditEvent = "login_succeeded"
	EventAuthFailed     AuditEvent = "auth_failed"
	EventAuthLockout    AuditEvent = "auth_lockout_triggered"

	// Rule events
	EventRuleCreated AuditEvent = "rule_created"
	EventRuleUpdated AuditEvent = "rule_updated"
	EventRuleDeleted AuditEvent = "rule_deleted"

	// Catalog events
	EventCarrierCreated AuditEvent = "carrier_created"
	EventCarrierUpdated AuditEvent = "carrier_updated"
	EventCarrierDeleted AuditEvent = "carrier_deleted"
	EventProductCreated AuditEvent = "product_created"

	// Checker events
	EventDecisionMade AuditEvent = "decision_made"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventUserCreated:    CategoryCompliance,
	EventUserRegistered: CategoryCompliance,
	EventRuleCreated:    CategoryCompliance,
	EventRuleUpdated:    CategoryCompliance,
	EventRuleDeleted:    CategoryCompliance,
	EventCarrierDeleted: CategoryCompliance,
	EventDecisionMade:   CategoryCompliance,

	EventAuthFailed:  CategorySecurity,
	EventAuthLockout: CategorySecurity,

	EventLoginSucceeded: CategoryOperations,
	EventCarrierCreated: CategoryOperations,
	EventCarrierUpdated: CategoryOperations,
	EventProductCreated: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
