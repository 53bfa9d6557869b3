package dto

import "github.com/spec-kit/valuation-service/internal/domain"

// OperatorSummary is the directory listing shape.
type OperatorSummary struct {
	ID          string      `json:"id"`
	DisplayName string      `json:"display_name"`
	Email       string      `json:"email"`
	Role        domain.Role `json:"role"`
	Active      bool        `json:"active"`
}
