package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Limiter is a redis-backed fixed-window rate limiter.
type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
	logger *zap.Logger
}

// Result reports the outcome of a rate limit check.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// NewLimiter builds a limiter allowing `limit` calls per window per key.
func NewLimiter(client *redis.Client, prefix string, limit int, window time.Duration, logger *zap.Logger) *Limiter {
	return &Limiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: prefix,
		logger: logger,
	}
}

// Check counts the caller's hits in the current window. When redis is
// unreachable the limiter fails open; the verification pipeline must keep
// working without it.
func (l *Limiter) Check(ctx context.Context, key string) Result {
	if l == nil {
		return Result{Allowed: true}
	}
	if l.client == nil {
		return Result{Allowed: true, Remaining: l.limit}
	}

	windowKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, time.Now().Unix()/int64(l.window.Seconds()))

	pipe := l.client.TxPipeline()
	count := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.Warn("rate limiter unavailable; allowing request", zap.Error(err))
		return Result{Allowed: true, Remaining: l.limit}
	}

	hits := int(count.Val())
	if hits > l.limit {
		return Result{Allowed: false, Remaining: 0, RetryAfter: l.window}
	}
	return Result{Allowed: true, Remaining: l.limit - hits}
}
