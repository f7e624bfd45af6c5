package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache stores the last computed report for list views. It is never read as truth.
type Cache interface {
	Get(ctx context.Context, projectID int) (*Report, bool)
	Set(ctx context.Context, r *Report)
	Delete(ctx context.Context, projectID int)
}

func CacheKey(projectID int) string {
	return fmt.Sprintf("health:project:%d", projectID)
}

type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, projectID int) (*Report, bool) {
	raw, err := c.rdb.Get(ctx, CacheKey(projectID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Health cache read failed", zap.Int("project_id", projectID), zap.Error(err))
		}
		return nil, false
	}
	var r Report
	if err := json.Unmarshal(raw, &r); err != nil {
		c.logger.Warn("Health cache entry unreadable", zap.Int("project_id", projectID), zap.Error(err))
		return nil, false
	}
	return &r, true
}

func (c *RedisCache) Set(ctx context.Context, r *Report) {
	raw, err := json.Marshal(r)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, CacheKey(r.ProjectID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("Health cache write failed", zap.Int("project_id", r.ProjectID), zap.Error(err))
	}
}

func (c *RedisCache) Delete(ctx context.Context, projectID int) {
	if err := c.rdb.Del(ctx, CacheKey(projectID)).Err(); err != nil {
		c.logger.Warn("Health cache delete failed", zap.Int("project_id", projectID), zap.Error(err))
	}
}

// NopCache is used when Redis is not configured.
type NopCache struct{}

func (NopCache) Get(context.Context, int) (*Report, bool) { return nil, false }
func (NopCache) Set(context.Context, *Report)             {}
func (NopCache) Delete(context.Context, int)              {}
