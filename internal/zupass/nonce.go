package zupass

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const noncePrefix = "zupass:nonce:"

// NonceRegistry enforces single use of proof watermarks within their validity
// window, rejecting literal replay of an intercepted proof payload. Like
// ProofSystem, the registry is constructed once and injected.
type NonceRegistry interface {
	// Register claims the watermark for this attempt. Returns false when the
	// watermark was already used inside the validity window.
	Register(ctx context.Context, watermark string) bool
}

// RedisNonceRegistry is the redis-backed registry used in production.
type RedisNonceRegistry struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewNonceRegistry builds a redis-backed registry.
func NewNonceRegistry(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisNonceRegistry {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisNonceRegistry{client: client, ttl: ttl, logger: logger}
}

// Register claims the watermark via SetNX. When redis is unreachable the
// registry degrades to pass-through: watermark enforcement is a hardening
// layer, not an availability dependency.
func (n *RedisNonceRegistry) Register(ctx context.Context, watermark string) bool {
	if n == nil || n.client == nil {
		return true
	}

	ok, err := n.client.SetNX(ctx, noncePrefix+watermark, 1, n.ttl).Result()
	if err != nil {
		n.logger.Warn("nonce registry unavailable; skipping replay check", zap.Error(err))
		return true
	}
	return ok
}
