package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/valuation-service/internal/cache"
	"github.com/spec-kit/valuation-service/internal/domain"
	"github.com/spec-kit/valuation-service/internal/events"
	"github.com/spec-kit/valuation-service/internal/repository"
	apperrors "github.com/spec-kit/valuation-service/pkg/util"
)

// ClaimService turns claim intents into atomic ownership assignments. The
// compare-and-set happens at the store in a single statement; this layer
// never assumes success before the store confirms it.
type ClaimService struct {
	cases       repository.CaseRepository
	projections *cache.ProjectionCache
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// NewClaimService constructs the service.
func NewClaimService(cases repository.CaseRepository, projections *cache.ProjectionCache, dispatcher events.Dispatcher, logger *zap.Logger) *ClaimService {
	return &ClaimService{
		cases:       cases,
		projections: projections,
		dispatcher:  dispatcher,
		logger:      logger,
	}
}

// Claim attempts to make actorRef the exclusive owner of the case for the
// role. Idempotent for the same actor; a different owner of the same role
// yields OwnershipConflict and leaves ownership untouched. Claims for the
// two roles are independent and never conflict with each other. A claim
// never changes status.
func (s *ClaimService) Claim(ctx context.Context, caseID string, role domain.Role, actorRef string) (*domain.Case, error) {
	if !domain.KnownRole(role) {
		return nil, apperrors.NewForbidden("unknown role")
	}

	c, err := s.cases.Claim(ctx, caseID, role, actorRef)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrClaimConflict):
			// Stale queue view; force the next read to the store.
			s.projections.EvictQueues(ctx, role)
			return nil, apperrors.NewOwnershipConflict("case already claimed", map[string]any{
				"case_id": caseID,
				"role":    role,
			})
		case errors.Is(err, pgx.ErrNoRows):
			return nil, apperrors.NewNotFound("case", map[string]any{"case_id": caseID})
		default:
			return nil, apperrors.NewCollaboratorFailure("case store unavailable", err)
		}
	}

	// Confirmed: patch the local projections so the case moves queues
	// immediately; the authoritative reload reconciles behind this.
	s.projections.PatchClaim(ctx, c, role, actorRef)

	s.publish(ctx, events.Event{
		Type:   events.EventCaseClaimed,
		CaseID: c.ID,
		Actor:  events.Actor{Role: role, ActorRef: actorRef},
		Payload: events.CaseClaimedPayload{
			Role:     role,
			OwnerRef: actorRef,
		},
	})
	s.logger.Info("case claimed",
		zap.String("case_id", c.ID),
		zap.String("role", string(role)),
		zap.String("actor_ref", actorRef))
	return c, nil
}

func (s *ClaimService) publish(ctx context.Context, event events.Event) {
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
