package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/valuation-service/internal/domain"
	"github.com/spec-kit/valuation-service/internal/notify"
	"github.com/spec-kit/valuation-service/internal/repository"
)

// fakeCaseRepo is an in-memory CaseRepository with the same compare-and-set
// semantics as the Postgres implementation: claim and transition writes are
// atomic under the mutex, so racing goroutines resolve exactly like racing
// connections do at the store.
type fakeCaseRepo struct {
	mu      sync.Mutex
	nextID  int
	nextSeq int64
	cases   map[string]*domain.Case
	tl      map[string][]domain.TimelineEntry
	comms   map[string][]domain.CommunicationEntry
}

func newFakeCaseRepo() *fakeCaseRepo {
	return &fakeCaseRepo{
		cases: make(map[string]*domain.Case),
		tl:    make(map[string][]domain.TimelineEntry),
		comms: make(map[string][]domain.CommunicationEntry),
	}
}

func (r *fakeCaseRepo) Create(_ context.Context, c *domain.Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c.ID = fmt.Sprintf("case-%d", r.nextID)
	c.Version = 1
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	clone := *c
	r.cases[c.ID] = &clone
	return nil
}

func (r *fakeCaseRepo) GetByID(_ context.Context, id string) (*domain.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.cases[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *stored
	return &clone, nil
}

func (r *fakeCaseRepo) ListWithFilter(_ context.Context, filter repository.CaseFilter) ([]domain.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Case
	for _, c := range r.cases {
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, c.Status) {
			continue
		}
		if filter.ConsultantRef != nil && (c.ConsultantRef == nil || *c.ConsultantRef != *filter.ConsultantRef) {
			continue
		}
		if filter.AppraiserRef != nil && (c.AppraiserRef == nil || *c.AppraiserRef != *filter.AppraiserRef) {
			continue
		}
		switch filter.UnassignedRole {
		case domain.RoleConsultant:
			if c.ConsultantRef != nil {
				continue
			}
		case domain.RoleAppraiser:
			if c.AppraiserRef != nil {
				continue
			}
		}
		out = append(out, *c)
	}
	return out, nil
}

func (r *fakeCaseRepo) Claim(_ context.Context, caseID string, role domain.Role, actorRef string) (*domain.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.cases[caseID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	ref := stored.OwnerRef(role)
	if ref != nil && *ref != actorRef {
		return nil, repository.ErrClaimConflict
	}
	switch role {
	case domain.RoleConsultant:
		stored.ConsultantRef = &actorRef
	case domain.RoleAppraiser:
		stored.AppraiserRef = &actorRef
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
	stored.Version++
	stored.UpdatedAt = time.Now()
	clone := *stored
	return &clone, nil
}

func (r *fakeCaseRepo) ApplyTransition(_ context.Context, c *domain.Case, expectedVersion int64, entry domain.TimelineEntry, comms []domain.CommunicationEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.cases[c.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	stored.Status = c.Status
	stored.EstimatedValue = c.EstimatedValue
	stored.ReceiptNumber = c.ReceiptNumber
	stored.Version++
	stored.UpdatedAt = time.Now()
	// Seq is assigned at accept time, like the BIGSERIAL column.
	r.nextSeq++
	entry.Seq = r.nextSeq
	entry.CaseID = c.ID
	r.tl[c.ID] = append(r.tl[c.ID], entry)
	for i := range comms {
		r.nextSeq++
		comms[i].Seq = r.nextSeq
		comms[i].CaseID = c.ID
	}
	r.comms[c.ID] = append(r.comms[c.ID], comms...)
	c.Version = stored.Version
	c.UpdatedAt = stored.UpdatedAt
	c.Timeline = append(c.Timeline, entry)
	c.Communications = append(c.Communications, comms...)
	return nil
}

func (r *fakeCaseRepo) Timeline(_ context.Context, caseID string) ([]domain.TimelineEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.TimelineEntry{}, r.tl[caseID]...), nil
}

func (r *fakeCaseRepo) Communications(_ context.Context, caseID string) ([]domain.CommunicationEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.CommunicationEntry{}, r.comms[caseID]...), nil
}

func containsStatus(statuses []domain.CaseStatus, status domain.CaseStatus) bool {
	normalized := domain.NormalizeStatus(string(status))
	for _, s := range statuses {
		if s == normalized {
			return true
		}
	}
	return false
}

// recordingNotifier captures advisory sends and can be told to fail.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Template
	fail bool
}

func (n *recordingNotifier) Send(_ context.Context, _ string, template notify.Template, _ map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("gateway unreachable")
	}
	n.sent = append(n.sent, template)
	return nil
}

func (n *recordingNotifier) sentTemplates() []notify.Template {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Template{}, n.sent...)
}

// failingReceiptIssuer simulates the receipt collaborator being down.
type failingReceiptIssuer struct{}

func (failingReceiptIssuer) Issue(context.Context, *domain.Case) (string, error) {
	return "", errors.New("sequence service down")
}
