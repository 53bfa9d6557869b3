package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/valuation-service/internal/cache"
	"github.com/spec-kit/valuation-service/internal/domain"
	"github.com/spec-kit/valuation-service/internal/queue"
	"github.com/spec-kit/valuation-service/internal/repository"
	apperrors "github.com/spec-kit/valuation-service/pkg/util"
)

// QueueService builds the per-role queue views served to callers. Listing
// pushes the coarse membership filters into the store query; the segmenter
// applies the precise rules and the canonical ordering.
type QueueService struct {
	cases       repository.CaseRepository
	projections *cache.ProjectionCache
	logger      *zap.Logger
}

// NewQueueService constructs the service.
func NewQueueService(cases repository.CaseRepository, projections *cache.ProjectionCache, logger *zap.Logger) *QueueService {
	return &QueueService{cases: cases, projections: projections, logger: logger}
}

// ListQueue returns the requested view, ordered and paginated.
func (s *QueueService) ListQueue(ctx context.Context, role domain.Role, kind queue.Kind, actorRef string, page, pageSize int) ([]domain.Case, error) {
	if !domain.KnownRole(role) {
		return nil, apperrors.NewForbidden("unknown role")
	}

	filter := repository.CaseFilter{Limit: 500}
	switch kind {
	case queue.KindMyTasks:
		switch role {
		case domain.RoleConsultant:
			filter.ConsultantRef = &actorRef
		case domain.RoleAppraiser:
			filter.AppraiserRef = &actorRef
		}
	case queue.KindWorkQueue:
		filter.Statuses = queue.WorkStatuses(role)
		if role == domain.RoleConsultant {
			filter.UnassignedRole = domain.RoleConsultant
		}
	case queue.KindPendingAppraisal:
		filter.Statuses = queue.WorkStatuses(domain.RoleAppraiser)
		switch role {
		case domain.RoleConsultant:
			filter.ConsultantRef = &actorRef
		case domain.RoleAppraiser:
			filter.AppraiserRef = &actorRef
		}
	default:
		return nil, apperrors.NewValidationError("unknown queue kind", map[string]any{"queue_kind": kind})
	}

	cases, err := s.cases.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.NewCollaboratorFailure("case store unavailable", err)
	}

	view := queue.Segment(cases, role, kind, actorRef)
	if kind == queue.KindMyTasks {
		view = s.reconcileMine(ctx, view, role, actorRef)
	}

	// Refresh the cached membership to match the served view.
	if kind == queue.KindWorkQueue || kind == queue.KindMyTasks {
		ids := make([]string, 0, len(view))
		for _, c := range view {
			ids = append(ids, c.ID)
		}
		s.projections.PutQueue(ctx, role, actorRef, kind == queue.KindMyTasks, ids)
	}

	return paginate(view, page, pageSize), nil
}

// reconcileMine folds the claim-patched projection into the my-tasks view:
// a case the cache says the caller claimed but the listing missed is
// re-read authoritatively and included only if ownership still holds. The
// store always wins; the cache can only prompt a re-read.
func (s *QueueService) reconcileMine(ctx context.Context, view []domain.Case, role domain.Role, actorRef string) []domain.Case {
	cachedIDs, ok := s.projections.QueueMembers(ctx, role, actorRef, true)
	if !ok {
		return view
	}
	present := make(map[string]struct{}, len(view))
	for _, c := range view {
		present[c.ID] = struct{}{}
	}
	merged := false
	for _, id := range cachedIDs {
		if _, seen := present[id]; seen {
			continue
		}
		c, err := s.cases.GetByID(ctx, id)
		if err != nil || !c.OwnedBy(role, actorRef) {
			continue
		}
		view = append(view, *c)
		merged = true
	}
	if merged {
		queue.SortCases(view)
	}
	return view
}

func paginate(cases []domain.Case, page, pageSize int) []domain.Case {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= len(cases) {
		return []domain.Case{}
	}
	end := start + pageSize
	if end > len(cases) {
		end = len(cases)
	}
	return cases[start:end]
}
