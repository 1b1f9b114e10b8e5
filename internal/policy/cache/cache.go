// Package cache is a read-through Redis cache for policy aggregates. Cache
// misses and Redis failures both fall back to the store; entries are
// invalidated on every state change so reads never serve a stale state.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"coverbase/internal/policy/models"
)

const defaultTTL = 5 * time.Minute

type Cache struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

func New(client *redis.Client, logger *slog.Logger) *Cache {
	return &Cache{client: client, logger: logger, ttl: defaultTTL}
}

func key(policyID int64) string {
	return fmt.Sprintf("policy:%d", policyID)
}

// Get returns the cached aggregate, or false on miss or Redis failure.
func (c *Cache) Get(ctx context.Context, policyID int64) (*models.Aggregate, bool) {
	payload, err := c.client.Get(ctx, key(policyID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WarnContext(ctx, "policy cache read failed", "policy_id", policyID, "error", err)
		}
		return nil, false
	}

	var aggregate models.Aggregate
	if err := json.Unmarshal(payload, &aggregate); err != nil {
		c.logger.WarnContext(ctx, "policy cache entry corrupt", "policy_id", policyID, "error", err)
		return nil, false
	}
	return &aggregate, true
}

// Set stores the aggregate. Failures are logged and swallowed; the cache is
// an optimization, not a source of truth.
func (c *Cache) Set(ctx context.Context, aggregate *models.Aggregate) {
	payload, err := json.Marshal(aggregate)
	if err != nil {
		c.logger.WarnContext(ctx, "policy cache marshal failed", "policy_id", aggregate.Policy.ID, "error", err)
		return
	}
	if err := c.client.Set(ctx, key(aggregate.Policy.ID), payload, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "policy cache write failed", "policy_id", aggregate.Policy.ID, "error", err)
	}
}

// Invalidate drops the cached aggregate after a state change.
func (c *Cache) Invalidate(ctx context.Context, policyID int64) {
	if err := c.client.Del(ctx, key(policyID)).Err(); err != nil {
		c.logger.WarnContext(ctx, "policy cache invalidation failed", "policy_id", policyID, "error", err)
	}
}
