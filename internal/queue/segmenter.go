package queue

import (
	"sort"

	"github.com/spec-kit/valuation-service/internal/domain"
)

// Kind selects which per-role view of the case collection to build.
type Kind string

const (
	KindMyTasks          Kind = "myTasks"
	KindWorkQueue        Kind = "workQueue"
	KindPendingAppraisal Kind = "pendingAppraisal"
)

// ParseKind validates a raw queue kind string.
func ParseKind(raw string) (Kind, bool) {
	switch Kind(raw) {
	case KindMyTasks, KindWorkQueue, KindPendingAppraisal:
		return Kind(raw), true
	default:
		return "", false
	}
}

// consultantWorkStatuses are the statuses eligible for consultant claiming.
var consultantWorkStatuses = statusSet(
	domain.StatusNewRequest,
	domain.StatusConsultantAssigned,
	domain.StatusCustomerContacted,
	domain.StatusConsultantReview,
	domain.StatusResultsSent,
)

// appraiserWorkStatuses are the valuation-phase statuses.
var appraiserWorkStatuses = statusSet(
	domain.StatusValuationAssigned,
	domain.StatusValuationInProgress,
	domain.StatusValuationCompleted,
)

func statusSet(statuses ...domain.CaseStatus) map[domain.CaseStatus]struct{} {
	set := make(map[domain.CaseStatus]struct{}, len(statuses))
	for _, s := range statuses {
		set[s] = struct{}{}
	}
	return set
}

// WorkStatuses returns the claim-eligible status set for a role. Exposed so
// listings can push the membership test into the store query.
func WorkStatuses(role domain.Role) []domain.CaseStatus {
	var set map[domain.CaseStatus]struct{}
	switch role {
	case domain.RoleConsultant:
		set = consultantWorkStatuses
	case domain.RoleAppraiser:
		set = appraiserWorkStatuses
	default:
		return nil
	}
	statuses := make([]domain.CaseStatus, 0, len(set))
	for _, s := range domain.AllStatuses() {
		if _, ok := set[s]; ok {
			statuses = append(statuses, s)
		}
	}
	return statuses
}

// Segment partitions cases into the requested per-role view. Statuses are
// normalized defensively so legacy records segment the same as canonical
// ones. The result is ordered by priority descending, then createdAt
// ascending; the sort is stable, so full ties retain arrival order.
func Segment(cases []domain.Case, role domain.Role, kind Kind, actorRef string) []domain.Case {
	if !domain.KnownRole(role) {
		return nil
	}
	out := make([]domain.Case, 0, len(cases))
	for _, c := range cases {
		if member(&c, role, kind, actorRef) {
			out = append(out, c)
		}
	}
	SortCases(out)
	return out
}

func member(c *domain.Case, role domain.Role, kind Kind, actorRef string) bool {
	status := domain.NormalizeStatus(string(c.Status))
	switch kind {
	case KindMyTasks:
		return c.OwnedBy(role, actorRef)
	case KindWorkQueue:
		switch role {
		case domain.RoleConsultant:
			_, eligible := consultantWorkStatuses[status]
			return eligible && c.ConsultantRef == nil
		case domain.RoleAppraiser:
			_, eligible := appraiserWorkStatuses[status]
			return eligible && (c.AppraiserRef == nil || *c.AppraiserRef == actorRef)
		}
	case KindPendingAppraisal:
		// Consultant-facing view of cases sent out for valuation.
		_, pending := appraiserWorkStatuses[status]
		return pending && c.OwnedBy(role, actorRef)
	}
	return false
}

// SortCases orders cases by priority descending, tie-broken by createdAt
// ascending (oldest first). Stable and total.
func SortCases(cases []domain.Case) {
	sort.SliceStable(cases, func(i, j int) bool {
		ri, rj := domain.PriorityRank(cases[i].Priority), domain.PriorityRank(cases[j].Priority)
		if ri != rj {
			return ri > rj
		}
		return cases[i].CreatedAt.Before(cases[j].CreatedAt)
	})
}
