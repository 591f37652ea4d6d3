package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deduper 基于 Redis SETNX 的一次性锁
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

// Key 返回去重 key
func Key(handler, emailID string) string {
	return fmt.Sprintf("dedup:%s:%s", handler, emailID)
}

// AcquireOnce 首次处理返回 true，重复返回 false
// Redis 不可用时放行（fail-open）
func (d *Deduper) AcquireOnce(ctx context.Context, handler string, emailID string) bool {
	if d == nil || d.rdb == nil {
		return true
	}

	key := Key(handler, emailID)
	ok, err := d.rdb.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		d.logger.Warn("Redis dedup check failed, allowing processing",
			zap.String("handler", handler),
			zap.String("email_id", emailID),
			zap.Error(err),
		)
		return true
	}

	if !ok {
		d.logger.Info("Skipped duplicated email",
			zap.String("handler", handler),
			zap.String("email_id", emailID),
			zap.String("dedup_key", key),
		)
	}
	return ok
}

// Release 释放锁，发送失败时调用以便下次重试
func (d *Deduper) Release(ctx context.Context, handler string, emailID string) {
	if d == nil || d.rdb == nil {
		return
	}
	if err := d.rdb.Del(ctx, Key(handler, emailID)).Err(); err != nil {
		d.logger.Warn("Redis dedup release failed",
			zap.String("handler", handler),
			zap.String("email_id", emailID),
			zap.Error(err),
		)
	}
}
