package events

import (
	"time"

	"github.com/spec-kit/valuation-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventCaseCreated       EventType = "case_created"
	EventCaseClaimed       EventType = "case_claimed"
	EventCaseStatusChanged EventType = "case_status_changed"
	EventCaseResultsSent   EventType = "case_results_sent"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Role     domain.Role `json:"role"`
	ActorRef string      `json:"actor_ref"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	CaseID    string      `json:"case_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// CaseCreatedPayload payload.
type CaseCreatedPayload struct {
	Priority    domain.CasePriority `json:"priority"`
	Shape       string              `json:"shape"`
	CaratWeight float64             `json:"carat_weight"`
}

// CaseClaimedPayload payload.
type CaseClaimedPayload struct {
	Role     domain.Role `json:"role"`
	OwnerRef string      `json:"owner_ref"`
}

// CaseStatusChangedPayload payload.
type CaseStatusChangedPayload struct {
	OldStatus domain.CaseStatus `json:"old_status"`
	NewStatus domain.CaseStatus `json:"new_status"`
	Action    domain.ActionKey  `json:"action"`
	Note      string            `json:"note,omitempty"`
}

// CaseResultsSentPayload payload.
type CaseResultsSentPayload struct {
	RecipientEmail string   `json:"recipient_email"`
	EstimatedValue *float64 `json:"estimated_value,omitempty"`
}
