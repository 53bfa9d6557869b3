package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/valuation-service/internal/cache"
	"github.com/spec-kit/valuation-service/internal/domain"
	"github.com/spec-kit/valuation-service/internal/events"
	"github.com/spec-kit/valuation-service/internal/notify"
	"github.com/spec-kit/valuation-service/internal/repository"
	apperrors "github.com/spec-kit/valuation-service/pkg/util"
)

// TransitionInput carries the action and its optional payload.
type TransitionInput struct {
	Action         domain.ActionKey
	Note           string
	EstimatedValue *float64
	Channel        string
	Message        string
}

// TransitionService orchestrates every state-changing workflow action. The
// status guard table decides admissibility; side effects run before the
// commit; every accepted transition appends exactly one timeline entry and
// persists atomically under an optimistic version check.
type TransitionService struct {
	cases       repository.CaseRepository
	receipts    ReceiptIssuer
	notifier    notify.Dispatcher
	projections *cache.ProjectionCache
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// TransitionDependencies bundles collaborators for the service.
type TransitionDependencies struct {
	CaseRepo    repository.CaseRepository
	Receipts    ReceiptIssuer
	Notifier    notify.Dispatcher
	Projections *cache.ProjectionCache
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewTransitionService constructs the service.
func NewTransitionService(deps TransitionDependencies) *TransitionService {
	return &TransitionService{
		cases:       deps.CaseRepo,
		receipts:    deps.Receipts,
		notifier:    deps.Notifier,
		projections: deps.Projections,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
	}
}

// Transition executes a workflow action for the actor. Rejections
// (validation, guard, version conflict) leave the case untouched and append
// nothing.
func (s *TransitionService) Transition(ctx context.Context, caseID string, role domain.Role, actorRef string, input TransitionInput) (*domain.Case, error) {
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("case", map[string]any{"case_id": caseID})
		}
		return nil, apperrors.NewCollaboratorFailure("case store unavailable", err)
	}

	// Tolerate legacy records: decisions run on the normalized status.
	current := domain.NormalizeStatus(string(c.Status))
	c.Status = current

	if !domain.ActionAllowed(role, current, input.Action) {
		return nil, apperrors.NewInvalidTransition(
			fmt.Sprintf("action %s not permitted in status %s", input.Action, current),
			map[string]any{
				"case_id": caseID,
				"status":  current,
				"action":  input.Action,
				"role":    role,
			})
	}

	if input.Action == domain.ActionViewTimeline {
		return s.withProjections(ctx, c)
	}

	expectedVersion := c.Version
	comms, note, err := s.applySideEffects(ctx, c, role, actorRef, input)
	if err != nil {
		return nil, err
	}

	newStatus, changed := domain.NextStatus(input.Action, current)
	if changed {
		c.Status = newStatus
	}

	entry := domain.TimelineEntry{
		Timestamp: time.Now(),
		Status:    entryStatus(input.Action, newStatus),
		ActorRef:  actorRef,
		Note:      note,
	}

	if err := s.cases.ApplyTransition(ctx, c, expectedVersion, entry, comms); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			// A concurrent transition won; surface it, never overwrite.
			return nil, apperrors.NewConflict("case changed concurrently, reload and retry", map[string]any{
				"case_id": caseID,
			})
		}
		return nil, apperrors.NewCollaboratorFailure("case store unavailable", err)
	}

	s.projections.InvalidateCase(ctx, c.ID)
	s.publish(ctx, events.Event{
		Type:   events.EventCaseStatusChanged,
		CaseID: c.ID,
		Actor:  events.Actor{Role: role, ActorRef: actorRef},
		Payload: events.CaseStatusChangedPayload{
			OldStatus: current,
			NewStatus: c.Status,
			Action:    input.Action,
			Note:      note,
		},
	})
	s.logger.Info("case transition accepted",
		zap.String("case_id", c.ID),
		zap.String("action", string(input.Action)),
		zap.String("old_status", string(current)),
		zap.String("new_status", string(c.Status)),
		zap.String("actor_ref", actorRef))

	return s.withProjections(ctx, c)
}

// applySideEffects validates the payload and runs collaborator calls before
// the commit. Load-bearing failures abort the transition; advisory ones are
// logged and swallowed.
func (s *TransitionService) applySideEffects(ctx context.Context, c *domain.Case, role domain.Role, actorRef string, input TransitionInput) ([]domain.CommunicationEntry, string, error) {
	note := strings.TrimSpace(input.Note)

	switch input.Action {
	case domain.ActionContactCustomer:
		channel := strings.TrimSpace(input.Channel)
		if channel == "" {
			channel = "phone"
		}
		comm := domain.CommunicationEntry{
			Timestamp: time.Now(),
			Channel:   channel,
			ActorRef:  actorRef,
			Message:   strings.TrimSpace(input.Message),
		}
		if note == "" {
			note = "customer contacted via " + channel
		}
		return []domain.CommunicationEntry{comm}, note, nil

	case domain.ActionCreateReceipt:
		if c.Spec.CaratWeight <= 0 {
			return nil, "", apperrors.NewValidationError("carat weight must be positive", map[string]any{
				"carat_weight": c.Spec.CaratWeight,
			})
		}
		// Set exactly once; repeated attempts keep the original number.
		if c.ReceiptNumber == nil {
			number, err := s.receipts.Issue(ctx, c)
			if err != nil {
				// Load-bearing: no receipt, no status change.
				return nil, "", apperrors.NewCollaboratorFailure("receipt issuing failed", err)
			}
			c.ReceiptNumber = &number
		}
		if note == "" {
			note = "receipt " + *c.ReceiptNumber
		}
		return nil, note, nil

	case domain.ActionFinishValuation:
		if c.Spec.CaratWeight <= 0 {
			return nil, "", apperrors.NewValidationError("carat weight must be positive", map[string]any{
				"carat_weight": c.Spec.CaratWeight,
			})
		}
		if input.EstimatedValue == nil || *input.EstimatedValue <= 0 {
			return nil, "", apperrors.NewValidationError("estimated value must be positive", map[string]any{
				"estimated_value": input.EstimatedValue,
			})
		}
		c.EstimatedValue = input.EstimatedValue
		return nil, note, nil

	case domain.ActionSendResults:
		// Advisory: a failed notification never blocks the transition.
		s.sendAdvisory(ctx, c.Contact.Email, notify.TemplateValuationResults, map[string]any{
			"case_id":         c.ID,
			"full_name":       c.Contact.FullName,
			"estimated_value": c.EstimatedValue,
		})
		comm := domain.CommunicationEntry{
			Timestamp: time.Now(),
			Channel:   "email",
			ActorRef:  actorRef,
			Message:   "valuation results sent",
		}
		s.publish(ctx, events.Event{
			Type:   events.EventCaseResultsSent,
			CaseID: c.ID,
			Actor:  events.Actor{Role: role, ActorRef: actorRef},
			Payload: events.CaseResultsSentPayload{
				RecipientEmail: c.Contact.Email,
				EstimatedValue: c.EstimatedValue,
			},
		})
		return []domain.CommunicationEntry{comm}, note, nil

	case domain.ActionMarkComplete:
		s.sendAdvisory(ctx, c.Contact.Email, notify.TemplateCaseCompleted, map[string]any{
			"case_id":   c.ID,
			"full_name": c.Contact.FullName,
		})
		return nil, note, nil

	case domain.ActionPlaceOnHold:
		if note == "" {
			note = "placed on hold"
		}
		return nil, note, nil

	case domain.ActionResumeCase:
		if note == "" {
			note = "resumed"
		}
		return nil, note, nil

	case domain.ActionCancelCase:
		if note == "" {
			note = "cancelled by consultant"
		}
		return nil, note, nil

	default:
		return nil, note, nil
	}
}

// entryStatus picks the status recorded on the timeline entry. Hold is the
// one action whose entry carries a status the case itself never takes: the
// workflow position is preserved while the pause is still auditable.
func entryStatus(action domain.ActionKey, newStatus domain.CaseStatus) domain.CaseStatus {
	if action == domain.ActionPlaceOnHold {
		return domain.StatusOnHold
	}
	return newStatus
}

func (s *TransitionService) sendAdvisory(ctx context.Context, to string, template notify.Template, data map[string]any) {
	if s.notifier == nil || to == "" {
		return
	}
	if err := s.notifier.Send(ctx, to, template, data); err != nil {
		s.logger.Warn("advisory notification failed",
			zap.String("template", string(template)),
			zap.Error(err))
	}
}

// withProjections returns the full authoritative projection: the case plus
// its ordered timeline and communication log. Callers re-derive progress,
// actions, and queue membership from it.
func (s *TransitionService) withProjections(ctx context.Context, c *domain.Case) (*domain.Case, error) {
	timeline, err := s.cases.Timeline(ctx, c.ID)
	if err != nil {
		return nil, apperrors.NewCollaboratorFailure("case store unavailable", err)
	}
	comms, err := s.cases.Communications(ctx, c.ID)
	if err != nil {
		return nil, apperrors.NewCollaboratorFailure("case store unavailable", err)
	}
	c.Timeline = timeline
	c.Communications = comms
	return c, nil
}

func (s *TransitionService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
