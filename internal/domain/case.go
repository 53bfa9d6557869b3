package domain

import "time"

// CasePriority enumerates urgency, independent of workflow status.
type CasePriority string

const (
	PriorityLow    CasePriority = "LOW"
	PriorityNormal CasePriority = "NORMAL"
	PriorityHigh   CasePriority = "HIGH"
	PriorityUrgent CasePriority = "URGENT"
)

// PriorityRank orders priorities for queue sorting; higher sorts first.
// Unknown values rank with NORMAL so malformed records stay visible.
func PriorityRank(p CasePriority) int {
	switch p {
	case PriorityUrgent:
		return 3
	case PriorityHigh:
		return 2
	case PriorityLow:
		return 0
	default:
		return 1
	}
}

// Contact is the requester snapshot captured at intake.
type Contact struct {
	FullName string
	Email    string
	Phone    string
}

// DiamondSpec describes the stone under valuation. Immutable once the case
// is created; this core only reads it.
type DiamondSpec struct {
	Shape        string
	CaratWeight  float64
	Color        string
	Clarity      string
	Cut          string
	Polish       string
	Symmetry     string
	Fluorescence string
}

// Case is the aggregate root for a valuation request.
type Case struct {
	ID             string
	Status         CaseStatus
	Priority       CasePriority
	Contact        Contact
	Spec           DiamondSpec
	ConsultantRef  *string
	AppraiserRef   *string
	EstimatedValue *float64
	ReceiptNumber  *string
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Timeline       []TimelineEntry
	Communications []CommunicationEntry
}

// OwnerRef returns the owner reference for the given role.
func (c *Case) OwnerRef(role Role) *string {
	switch role {
	case RoleConsultant:
		return c.ConsultantRef
	case RoleAppraiser:
		return c.AppraiserRef
	default:
		return nil
	}
}

// OwnedBy reports whether actorRef holds the role's ownership of the case.
func (c *Case) OwnedBy(role Role, actorRef string) bool {
	ref := c.OwnerRef(role)
	return ref != nil && *ref == actorRef
}
