package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
)

const keyPrefix = "complaints:perms:"

// PermissionCache is a read-through Redis cache in front of a PermissionRepository.
// With a nil client or a zero TTL every call goes straight to the repository.
// Redis failures degrade to the repository and are only logged.
type PermissionCache struct {
	next   repository.PermissionRepository
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

var _ repository.PermissionRepository = (*PermissionCache)(nil)

// NewPermissionCache wraps next.
func NewPermissionCache(next repository.PermissionRepository, client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *PermissionCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PermissionCache{next: next, client: client, ttl: ttl, logger: logger}
}

func (c *PermissionCache) enabled() bool {
	return c.client != nil && c.ttl > 0
}

// ListByUser returns the cached grant set, loading it from the repository on a miss.
func (c *PermissionCache) ListByUser(ctx context.Context, userID string) ([]domain.Permission, error) {
	if !c.enabled() {
		return c.next.ListByUser(ctx, userID)
	}
	key := keyPrefix + userID
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var perms []domain.Permission
		if jsonErr := json.Unmarshal(raw, &perms); jsonErr == nil {
			return perms, nil
		}
		c.logger.Warn("discarding corrupt permission cache entry", zap.String("user_id", userID))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("permission cache read failed", zap.String("user_id", userID), zap.Error(err))
	}

	perms, err := c.next.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if encoded, err := json.Marshal(perms); err == nil {
		if err := c.client.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
			c.logger.Warn("permission cache write failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return perms, nil
}

// Grant writes through to the repository and drops the cached entry.
func (c *PermissionCache) Grant(ctx context.Context, userID string, perms ...domain.Permission) error {
	if err := c.next.Grant(ctx, userID, perms...); err != nil {
		return err
	}
	c.Invalidate(ctx, userID)
	return nil
}

// Invalidate removes the cached grant set of userID.
func (c *PermissionCache) Invalidate(ctx context.Context, userID string) {
	if !c.enabled() {
		return
	}
	if err := c.client.Del(ctx, keyPrefix+userID).Err(); err != nil {
		c.logger.Warn("permission cache invalidate failed", zap.String("user_id", userID), zap.Error(err))
	}
}
