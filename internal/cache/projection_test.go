package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/valuation-service/internal/domain"
)

func newTestCache(t *testing.T) *ProjectionCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewProjectionCache(client, time.Minute, zap.NewNop())
}

func TestPatchClaimMovesQueueMembership(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	cache.PutQueue(ctx, domain.RoleAppraiser, "", false, []string{"case-1", "case-2"})

	c := &domain.Case{ID: "case-1", Status: domain.StatusValuationInProgress}
	cache.PatchClaim(ctx, c, domain.RoleAppraiser, "app-1")

	mine, ok := cache.QueueMembers(ctx, domain.RoleAppraiser, "app-1", true)
	require.True(t, ok)
	assert.Contains(t, mine, "case-1")

	work, ok := cache.QueueMembers(ctx, domain.RoleAppraiser, "", false)
	require.True(t, ok)
	assert.NotContains(t, work, "case-1")
	assert.Contains(t, work, "case-2")
}

func TestGetCaseRoundTrip(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	ref := "cons-1"
	stored := &domain.Case{
		ID:            "case-1",
		Status:        domain.StatusReceiptCreated,
		Priority:      domain.PriorityHigh,
		ConsultantRef: &ref,
		Timeline: []domain.TimelineEntry{
			{Seq: 1, CaseID: "case-1", Status: domain.StatusCustomerContacted, ActorRef: ref},
		},
	}
	cache.PutCase(ctx, stored)

	got, hit := cache.GetCase(ctx, "case-1")
	require.True(t, hit)
	assert.Equal(t, stored.Status, got.Status)
	require.NotNil(t, got.ConsultantRef)
	assert.Equal(t, ref, *got.ConsultantRef)
	require.Len(t, got.Timeline, 1)
	assert.Equal(t, int64(1), got.Timeline[0].Seq)

	_, hit = cache.GetCase(ctx, "missing")
	assert.False(t, hit)
}

func TestPatchClaimDropsCaseProjection(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	c := &domain.Case{ID: "case-1", Status: domain.StatusValuationInProgress}
	cache.PutCase(ctx, c)
	cache.PatchClaim(ctx, c, domain.RoleAppraiser, "app-1")

	// The claim changed the case; the stale projection must not survive.
	_, hit := cache.GetCase(ctx, "case-1")
	assert.False(t, hit)
}

func TestInvalidateCaseDropsProjectionAndWorkQueues(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	c := &domain.Case{ID: "case-1", Status: domain.StatusReceiptCreated}
	cache.PutCase(ctx, c)
	cache.PutQueue(ctx, domain.RoleConsultant, "", false, []string{"case-1"})

	cache.InvalidateCase(ctx, "case-1")

	_, hit := cache.GetCase(ctx, "case-1")
	assert.False(t, hit)
	_, ok := cache.QueueMembers(ctx, domain.RoleConsultant, "", false)
	assert.False(t, ok)
}

func TestNilCacheIsInert(t *testing.T) {
	var cache *ProjectionCache
	ctx := context.Background()

	cache.PutCase(ctx, &domain.Case{ID: "case-1"})
	cache.PatchClaim(ctx, &domain.Case{ID: "case-1"}, domain.RoleConsultant, "cons-1")
	_, hit := cache.GetCase(ctx, "case-1")
	assert.False(t, hit)
	_, ok := cache.QueueMembers(ctx, domain.RoleConsultant, "cons-1", true)
	assert.False(t, ok)
}
