package dto

import (
	"time"

	"github.com/spec-kit/valuation-service/internal/domain"
)

// CreateCaseRequest payload.
type CreateCaseRequest struct {
	Contact  ContactRequest      `json:"contact"`
	Spec     DiamondSpecRequest  `json:"diamond_spec"`
	Priority domain.CasePriority `json:"priority"`
}

// ContactRequest describes requester contact input.
type ContactRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// DiamondSpecRequest describes the stone.
type DiamondSpecRequest struct {
	Shape        string  `json:"shape"`
	CaratWeight  float64 `json:"carat_weight"`
	Color        string  `json:"color"`
	Clarity      string  `json:"clarity"`
	Cut          string  `json:"cut"`
	Polish       string  `json:"polish"`
	Symmetry     string  `json:"symmetry"`
	Fluorescence string  `json:"fluorescence"`
}

// TransitionRequest is the optional payload for transition endpoints.
type TransitionRequest struct {
	Note           string   `json:"note"`
	EstimatedValue *float64 `json:"estimated_value"`
	Channel        string   `json:"channel"`
	Message        string   `json:"message"`
}

// CaseSummary is the queue listing shape.
type CaseSummary struct {
	ID            string              `json:"id"`
	Status        domain.CaseStatus   `json:"status"`
	Priority      domain.CasePriority `json:"priority"`
	ContactName   string              `json:"contact_name"`
	Shape         string              `json:"shape"`
	CaratWeight   float64             `json:"carat_weight"`
	ConsultantRef *string             `json:"consultant_ref"`
	AppraiserRef  *string             `json:"appraiser_ref"`
	Progress      int                 `json:"progress"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// CaseProjection is the full authoritative view returned by reads and by
// accepted claims/transitions.
type CaseProjection struct {
	ID             string               `json:"id"`
	Status         domain.CaseStatus    `json:"status"`
	StatusLegacy   string               `json:"status_legacy"`
	Priority       domain.CasePriority  `json:"priority"`
	Contact        ContactRequest       `json:"contact"`
	Spec           DiamondSpecRequest   `json:"diamond_spec"`
	ConsultantRef  *string              `json:"consultant_ref"`
	AppraiserRef   *string              `json:"appraiser_ref"`
	EstimatedValue *float64             `json:"estimated_value"`
	ReceiptNumber  *string              `json:"receipt_number"`
	Progress       int                  `json:"progress"`
	Actions        []domain.ActionKey   `json:"actions"`
	Timeline       []TimelineEntry      `json:"timeline"`
	Communications []CommunicationEntry `json:"communication_log"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// TimelineEntry response shape.
type TimelineEntry struct {
	Timestamp time.Time         `json:"timestamp"`
	Status    domain.CaseStatus `json:"status"`
	ActorRef  string            `json:"actor_ref"`
	Note      string            `json:"note"`
}

// CommunicationEntry response shape.
type CommunicationEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Channel   string    `json:"channel"`
	ActorRef  string    `json:"actor_ref"`
	Message   string    `json:"message"`
}
