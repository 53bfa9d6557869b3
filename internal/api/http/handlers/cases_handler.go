package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/valuation-service/internal/api/dto"
	"github.com/spec-kit/valuation-service/internal/cache"
	"github.com/spec-kit/valuation-service/internal/domain"
	"github.com/spec-kit/valuation-service/internal/identity"
	"github.com/spec-kit/valuation-service/internal/queue"
	"github.com/spec-kit/valuation-service/internal/service"
	apperrors "github.com/spec-kit/valuation-service/pkg/util"
)

// CasesHandler serves the case workflow endpoints for both roles.
type CasesHandler struct {
	intake      *service.IntakeService
	queues      *service.QueueService
	claims      *service.ClaimService
	transitions *service.TransitionService
	projections *cache.ProjectionCache
}

// NewCasesHandler constructs handler.
func NewCasesHandler(intake *service.IntakeService, queues *service.QueueService, claims *service.ClaimService, transitions *service.TransitionService, projections *cache.ProjectionCache) *CasesHandler {
	return &CasesHandler{
		intake:      intake,
		queues:      queues,
		claims:      claims,
		transitions: transitions,
		projections: projections,
	}
}

// CreateCase POST /cases.
func (h *CasesHandler) CreateCase(c *fiber.Ctx) error {
	var req dto.CreateCaseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	created, err := h.intake.CreateCase(c.UserContext(), service.IntakeInput{
		Contact: domain.Contact{
			FullName: req.Contact.FullName,
			Email:    req.Contact.Email,
			Phone:    req.Contact.Phone,
		},
		Spec: domain.DiamondSpec{
			Shape:        req.Spec.Shape,
			CaratWeight:  req.Spec.CaratWeight,
			Color:        req.Spec.Color,
			Clarity:      req.Spec.Clarity,
			Cut:          req.Spec.Cut,
			Polish:       req.Spec.Polish,
			Symmetry:     req.Spec.Symmetry,
			Fluorescence: req.Spec.Fluorescence,
		},
		Priority: req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": caseSummary(created)})
}

// ListCases GET /cases?queueKind=&page=&page_size=.
func (h *CasesHandler) ListCases(c *fiber.Ctx) error {
	caller, ok := identity.FromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	kind, ok := queue.ParseKind(c.Query("queueKind", string(queue.KindWorkQueue)))
	if !ok {
		return apperrors.NewValidationError("unknown queue kind", map[string]any{
			"queue_kind": c.Query("queueKind"),
		})
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)

	cases, err := h.queues.ListQueue(c.UserContext(), caller.Role, kind, caller.ActorRef, page, pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.CaseSummary, 0, len(cases))
	for i := range cases {
		items = append(items, caseSummary(&cases[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetCase GET /cases/:id.
func (h *CasesHandler) GetCase(c *fiber.Ctx) error {
	caller, ok := identity.FromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	// Read-through: claims and transitions invalidate the case key, so a
	// hit is a projection the store has not contradicted.
	if cached, hit := h.projections.GetCase(c.UserContext(), c.Params("id")); hit {
		return c.JSON(fiber.Map{"data": caseProjection(cached, caller.Role)})
	}
	// viewTimeline is the universal read action; the transition service
	// guards it and returns the full projection without state change.
	loaded, err := h.transitions.Transition(c.UserContext(), c.Params("id"), caller.Role, caller.ActorRef, service.TransitionInput{
		Action: domain.ActionViewTimeline,
	})
	if err != nil {
		return err
	}
	h.projections.PutCase(c.UserContext(), loaded)
	return c.JSON(fiber.Map{"data": caseProjection(loaded, caller.Role)})
}

// ClaimCase POST /cases/:id/claim.
func (h *CasesHandler) ClaimCase(c *fiber.Ctx) error {
	caller, ok := identity.FromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	claimed, err := h.claims.Claim(c.UserContext(), c.Params("id"), caller.Role, caller.ActorRef)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseProjection(claimed, caller.Role)})
}

// TransitionCase POST /cases/:id/transitions/:action.
func (h *CasesHandler) TransitionCase(c *fiber.Ctx) error {
	caller, ok := identity.FromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("operator required")
	}
	var req dto.TransitionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	updated, err := h.transitions.Transition(c.UserContext(), c.Params("id"), caller.Role, caller.ActorRef, service.TransitionInput{
		Action:         domain.ActionKey(c.Params("action")),
		Note:           req.Note,
		EstimatedValue: req.EstimatedValue,
		Channel:        req.Channel,
		Message:        req.Message,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseProjection(updated, caller.Role)})
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func caseSummary(c *domain.Case) dto.CaseSummary {
	status := domain.NormalizeStatus(string(c.Status))
	return dto.CaseSummary{
		ID:            c.ID,
		Status:        status,
		Priority:      c.Priority,
		ContactName:   c.Contact.FullName,
		Shape:         c.Spec.Shape,
		CaratWeight:   c.Spec.CaratWeight,
		ConsultantRef: c.ConsultantRef,
		AppraiserRef:  c.AppraiserRef,
		Progress:      domain.ProgressOf(status),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func caseProjection(c *domain.Case, role domain.Role) dto.CaseProjection {
	status := domain.NormalizeStatus(string(c.Status))
	timeline := make([]dto.TimelineEntry, 0, len(c.Timeline))
	for _, entry := range c.Timeline {
		timeline = append(timeline, dto.TimelineEntry{
			Timestamp: entry.Timestamp,
			Status:    entry.Status,
			ActorRef:  entry.ActorRef,
			Note:      entry.Note,
		})
	}
	comms := make([]dto.CommunicationEntry, 0, len(c.Communications))
	for _, entry := range c.Communications {
		comms = append(comms, dto.CommunicationEntry{
			Timestamp: entry.Timestamp,
			Channel:   entry.Channel,
			ActorRef:  entry.ActorRef,
			Message:   entry.Message,
		})
	}
	return dto.CaseProjection{
		ID:           c.ID,
		Status:       status,
		StatusLegacy: domain.DenormalizeStatus(status, domain.VocabularyBackend),
		Priority:     c.Priority,
		Contact: dto.ContactRequest{
			FullName: c.Contact.FullName,
			Email:    c.Contact.Email,
			Phone:    c.Contact.Phone,
		},
		Spec: dto.DiamondSpecRequest{
			Shape:        c.Spec.Shape,
			CaratWeight:  c.Spec.CaratWeight,
			Color:        c.Spec.Color,
			Clarity:      c.Spec.Clarity,
			Cut:          c.Spec.Cut,
			Polish:       c.Spec.Polish,
			Symmetry:     c.Spec.Symmetry,
			Fluorescence: c.Spec.Fluorescence,
		},
		ConsultantRef:  c.ConsultantRef,
		AppraiserRef:   c.AppraiserRef,
		EstimatedValue: c.EstimatedValue,
		ReceiptNumber:  c.ReceiptNumber,
		Progress:       domain.ProgressOf(status),
		Actions:        domain.AvailableActions(role, status),
		Timeline:       timeline,
		Communications: comms,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}
