package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/valuation-service/internal/domain"
	"github.com/spec-kit/valuation-service/internal/events"
	"github.com/spec-kit/valuation-service/internal/notify"
	"github.com/spec-kit/valuation-service/internal/repository"
	apperrors "github.com/spec-kit/valuation-service/pkg/util"
)

// IntakeInput describes a customer valuation request.
type IntakeInput struct {
	Contact  domain.Contact
	Spec     domain.DiamondSpec
	Priority domain.CasePriority
}

// IntakeService creates cases from customer requests. Every case enters the
// workflow in NewRequest.
type IntakeService struct {
	cases      repository.CaseRepository
	notifier   notify.Dispatcher
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewIntakeService constructs the service.
func NewIntakeService(cases repository.CaseRepository, notifier notify.Dispatcher, dispatcher events.Dispatcher, logger *zap.Logger) *IntakeService {
	return &IntakeService{
		cases:      cases,
		notifier:   notifier,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// CreateCase validates and persists a new case.
func (s *IntakeService) CreateCase(ctx context.Context, input IntakeInput) (*domain.Case, error) {
	input.Contact.FullName = strings.TrimSpace(input.Contact.FullName)
	input.Contact.Email = strings.TrimSpace(input.Contact.Email)
	input.Contact.Phone = strings.TrimSpace(input.Contact.Phone)

	if input.Contact.FullName == "" {
		return nil, apperrors.NewValidationError("contact full name required", nil)
	}
	if input.Contact.Email == "" {
		return nil, apperrors.NewValidationError("contact email required", nil)
	}
	if input.Spec.CaratWeight <= 0 {
		return nil, apperrors.NewValidationError("carat weight must be positive", map[string]any{
			"carat_weight": input.Spec.CaratWeight,
		})
	}

	c := &domain.Case{
		Status:   domain.StatusNewRequest,
		Priority: input.Priority,
		Contact:  input.Contact,
		Spec:     input.Spec,
	}
	if c.Priority == "" {
		c.Priority = domain.PriorityNormal
	}

	if err := s.cases.Create(ctx, c); err != nil {
		return nil, apperrors.NewCollaboratorFailure("case store unavailable", err)
	}

	if s.notifier != nil {
		if err := s.notifier.Send(ctx, c.Contact.Email, notify.TemplateCaseReceived, map[string]any{
			"case_id":   c.ID,
			"full_name": c.Contact.FullName,
		}); err != nil {
			s.logger.Warn("intake notification failed", zap.String("case_id", c.ID), zap.Error(err))
		}
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventCaseCreated,
			CaseID:    c.ID,
			Timestamp: time.Now(),
			Payload: events.CaseCreatedPayload{
				Priority:    c.Priority,
				Shape:       c.Spec.Shape,
				CaratWeight: c.Spec.CaratWeight,
			},
		})
	}
	s.logger.Info("case created", zap.String("case_id", c.ID), zap.String("priority", string(c.Priority)))
	return c, nil
}
