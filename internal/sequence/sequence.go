// Package sequence hands out human-facing reference numbers (RISK-001, PCR-004).
package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	StrategyCount = "count"
	StrategyRedis = "redis"
)

// Source reads the current state of a numbered collection.
type Source struct {
	// Count is the number of live records in the scope.
	Count func(ctx context.Context) (int, error)
	// Max is the highest number ever stored in the scope, used to seed persistent counters.
	Max func(ctx context.Context) (int, error)
}

// Allocator returns the next number for scope.
type Allocator interface {
	Next(ctx context.Context, scope string, src Source) (int, error)
}

// CountAllocator numbers a record count+1. Deleting and re-adding may reuse a number.
type CountAllocator struct{}

func (CountAllocator) Next(ctx context.Context, _ string, src Source) (int, error) {
	n, err := src.Count(ctx)
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}

// RedisAllocator keeps a monotonic counter per scope, seeded from the stored maximum on first use.
type RedisAllocator struct {
	rdb *redis.Client
}

func NewRedisAllocator(rdb *redis.Client) *RedisAllocator {
	return &RedisAllocator{rdb: rdb}
}

func Key(scope string) string {
	return "seq:" + scope
}

func (a *RedisAllocator) Next(ctx context.Context, scope string, src Source) (int, error) {
	key := Key(scope)

	exists, err := a.rdb.Exists(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("sequence exists %s: %w", key, err)
	}
	if exists == 0 {
		seed, err := src.Max(ctx)
		if err != nil {
			return 0, err
		}
		// a concurrent seeder may win; either value is the same stored maximum
		if err := a.rdb.SetNX(ctx, key, seed, time.Duration(0)).Err(); err != nil {
			return 0, fmt.Errorf("sequence seed %s: %w", key, err)
		}
	}

	n, err := a.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("sequence incr %s: %w", key, err)
	}
	return int(n), nil
}

// New picks the allocator for strategy. Redis is required for StrategyRedis.
func New(strategy string, rdb *redis.Client) (Allocator, error) {
	switch strategy {
	case "", StrategyCount:
		return CountAllocator{}, nil
	case StrategyRedis:
		if rdb == nil {
			return nil, fmt.Errorf("sequence strategy %q needs a redis client", strategy)
		}
		return NewRedisAllocator(rdb), nil
	default:
		return nil, fmt.Errorf("unknown sequence strategy %q", strategy)
	}
}

func RiskScope(projectID int, entryType string) string {
	return fmt.Sprintf("register:%d:%s", projectID, entryType)
}

func ChangeRequestScope(projectID int) string {
	return fmt.Sprintf("pcr:%d", projectID)
}
