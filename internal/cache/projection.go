package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/valuation-service/internal/domain"
)

// ProjectionCache keeps case projections and queue membership in Redis so a
// successful claim can move a case between queue views without waiting for
// the authoritative reload. It is strictly best-effort: every miss or Redis
// error falls back to the store, and authoritative responses always win
// (writes here are either a fresh store read or an eviction).
type ProjectionCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewProjectionCache creates the cache. A nil client disables caching.
func NewProjectionCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ProjectionCache {
	return &ProjectionCache{client: client, ttl: ttl, logger: logger}
}

func caseKey(id string) string {
	return "case:" + id
}

func workQueueKey(role domain.Role) string {
	return fmt.Sprintf("queue:work:%s", role)
}

func myTasksKey(role domain.Role, actorRef string) string {
	return fmt.Sprintf("queue:mine:%s:%s", role, actorRef)
}

// GetCase returns a cached projection, if present.
func (p *ProjectionCache) GetCase(ctx context.Context, id string) (*domain.Case, bool) {
	if p == nil || p.client == nil {
		return nil, false
	}
	raw, err := p.client.Get(ctx, caseKey(id)).Bytes()
	if err != nil {
		return nil, false
	}
	var c domain.Case
	if err := json.Unmarshal(raw, &c); err != nil {
		p.drop(ctx, caseKey(id))
		return nil, false
	}
	return &c, true
}

// PutCase stores an authoritative projection.
func (p *ProjectionCache) PutCase(ctx context.Context, c *domain.Case) {
	if p == nil || p.client == nil || c == nil {
		return
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return
	}
	if err := p.client.Set(ctx, caseKey(c.ID), raw, p.ttl).Err(); err != nil {
		p.logger.Debug("projection cache put failed", zap.String("case_id", c.ID), zap.Error(err))
	}
}

// PatchClaim applies the optimistic local projection update after a
// confirmed claim: the case leaves the role's work-queue view and enters
// the caller's my-tasks view, without waiting for a full reload. The case
// key itself is dropped so the next read re-fetches the claimed state.
func (p *ProjectionCache) PatchClaim(ctx context.Context, c *domain.Case, role domain.Role, actorRef string) {
	if p == nil || p.client == nil || c == nil {
		return
	}
	pipe := p.client.TxPipeline()
	pipe.SRem(ctx, workQueueKey(role), c.ID)
	pipe.SAdd(ctx, myTasksKey(role, actorRef), c.ID)
	pipe.Expire(ctx, myTasksKey(role, actorRef), p.ttl)
	pipe.Del(ctx, caseKey(c.ID))
	if _, err := pipe.Exec(ctx); err != nil {
		p.logger.Debug("projection claim patch failed", zap.String("case_id", c.ID), zap.Error(err))
	}
}

// QueueMembers returns the cached membership of a queue view. The second
// return is false when the cache is unavailable or the view is absent;
// callers treat that as "nothing to reconcile", never as an empty queue.
func (p *ProjectionCache) QueueMembers(ctx context.Context, role domain.Role, actorRef string, mine bool) ([]string, bool) {
	if p == nil || p.client == nil {
		return nil, false
	}
	key := workQueueKey(role)
	if mine {
		key = myTasksKey(role, actorRef)
	}
	ids, err := p.client.SMembers(ctx, key).Result()
	if err != nil || len(ids) == 0 {
		return nil, false
	}
	return ids, true
}

// PutQueue replaces a cached queue membership set after an authoritative
// listing.
func (p *ProjectionCache) PutQueue(ctx context.Context, role domain.Role, actorRef string, mine bool, caseIDs []string) {
	if p == nil || p.client == nil {
		return
	}
	key := workQueueKey(role)
	if mine {
		key = myTasksKey(role, actorRef)
	}
	pipe := p.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(caseIDs) > 0 {
		members := make([]any, len(caseIDs))
		for i, id := range caseIDs {
			members[i] = id
		}
		pipe.SAdd(ctx, key, members...)
	}
	pipe.Expire(ctx, key, p.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		p.logger.Debug("projection queue put failed", zap.Error(err))
	}
}

// EvictQueues clears the cached queue views for a role; the next read goes
// to the store. Called when a claim conflict reveals a stale view.
func (p *ProjectionCache) EvictQueues(ctx context.Context, role domain.Role) {
	if p == nil || p.client == nil {
		return
	}
	p.drop(ctx, workQueueKey(role))
}

// InvalidateCase drops a cached projection after a transition; queue views
// for both roles are evicted since membership may have changed.
func (p *ProjectionCache) InvalidateCase(ctx context.Context, id string) {
	if p == nil || p.client == nil {
		return
	}
	p.drop(ctx, caseKey(id), workQueueKey(domain.RoleConsultant), workQueueKey(domain.RoleAppraiser))
}

func (p *ProjectionCache) drop(ctx context.Context, keys ...string) {
	if err := p.client.Del(ctx, keys...).Err(); err != nil {
		p.logger.Debug("projection cache evict failed", zap.Error(err))
	}
}
