package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/valuation-service/internal/api/dto"
	"github.com/spec-kit/valuation-service/internal/domain"
	"github.com/spec-kit/valuation-service/internal/repository"
	apperrors "github.com/spec-kit/valuation-service/pkg/util"
)

// OperatorsHandler serves the operator directory, used to pick an assignee
// or look up a colleague.
type OperatorsHandler struct {
	operators repository.OperatorRepository
}

// NewOperatorsHandler constructs handler.
func NewOperatorsHandler(operators repository.OperatorRepository) *OperatorsHandler {
	return &OperatorsHandler{operators: operators}
}

// List GET /operators?role=&active=&page=&page_size=.
func (h *OperatorsHandler) List(c *fiber.Ctx) error {
	filter := repository.OperatorFilter{}

	if raw := c.Query("role"); raw != "" {
		role := domain.Role(raw)
		if !domain.KnownRole(role) {
			return apperrors.NewValidationError("unknown role", map[string]any{"role": raw})
		}
		filter.Role = &role
	}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return apperrors.NewValidationError("invalid active flag", map[string]any{"active": raw})
		}
		filter.Active = &active
	}
	page := parseInt(c.Query("page"), 1)
	filter.Limit = parseInt(c.Query("page_size"), 50)
	filter.Offset = (page - 1) * filter.Limit

	operators, err := h.operators.List(c.UserContext(), filter)
	if err != nil {
		return apperrors.NewCollaboratorFailure("operator directory unavailable", err)
	}

	items := make([]dto.OperatorSummary, 0, len(operators))
	for _, op := range operators {
		items = append(items, dto.OperatorSummary{
			ID:          op.ID,
			DisplayName: op.DisplayName,
			Email:       op.Email,
			Role:        op.Role,
			Active:      op.Active,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}
