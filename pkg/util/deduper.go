package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Deduper struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewDeduper(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Deduper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deduper{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

// DedupKey is the Redis key claimed for a handler and message id.
func DedupKey(handler, messageID string) string {
	return fmt.Sprintf("dedup:%s:%s", handler, messageID)
}

// AcquireOnce returns true the first time a (handler, messageID) pair is seen.
// When Redis is unavailable processing is allowed.
func (d *Deduper) AcquireOnce(ctx context.Context, handler, messageID string) bool {
	key := DedupKey(handler, messageID)

	ok, err := d.rdb.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		d.logger.Warn("Redis dedup check failed, allowing processing",
			zap.String("handler", handler),
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		return true
	}

	if !ok {
		d.logger.Info("Skipped duplicated event",
			zap.String("handler", handler),
			zap.String("message_id", messageID),
			zap.String("dedup_key", key),
		)
	}
	return ok
}

// Release drops the claim so a failed delivery can be retried.
func (d *Deduper) Release(ctx context.Context, handler, messageID string) {
	if err := d.rdb.Del(ctx, DedupKey(handler, messageID)).Err(); err != nil {
		d.logger.Warn("Failed to release dedup key",
			zap.String("handler", handler),
			zap.String("message_id", messageID),
			zap.Error(err),
		)
	}
}
