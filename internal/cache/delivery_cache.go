// Package cache tracks successfully processed webhook deliveries so a
// redelivered event can be short-circuited before touching the datastore. The
// state machine's conditional writes remain the authoritative idempotence
// guard; this is an optimization, not a correctness dependency.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/agentmeet/agentmeet-service/pkg/logger"
	"github.com/agentmeet/agentmeet-service/pkg/redis"
	"go.uber.org/zap"
)

// DeliveryCache deduplicates webhook deliveries by body digest. Only
// deliveries whose dispatch completed are recorded: a failed or rejected
// delivery must stay unknown so the platform's redelivery can reach the
// service again.
type DeliveryCache struct {
	redis redis.RedisServiceInterface
	ttl   time.Duration
}

// NewDeliveryCache creates a delivery cache. A nil redis service is allowed;
// the cache then reports every delivery as unseen.
func NewDeliveryCache(redisSvc redis.RedisServiceInterface, ttl time.Duration) *DeliveryCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DeliveryCache{redis: redisSvc, ttl: ttl}
}

// Seen reports whether an identical body was already processed successfully.
// Redis failures degrade to unseen so a cache outage never drops webhooks.
func (c *DeliveryCache) Seen(ctx context.Context, body []byte) bool {
	if c.redis == nil {
		return false
	}

	_, err := c.redis.GetValue(ctx, c.key(body))
	if err != nil {
		if !errors.Is(err, redis.ErrKeyNotExist) {
			logger.Base().Warn("delivery cache unavailable, treating as unseen", zap.Error(err))
		}
		return false
	}
	return true
}

// MarkProcessed records the body as successfully processed. Callers invoke it
// only after dispatch succeeded; failures are logged and otherwise ignored.
func (c *DeliveryCache) MarkProcessed(ctx context.Context, body []byte) {
	if c.redis == nil {
		return
	}

	if err := c.redis.SetValue(ctx, c.key(body), "1", c.ttl); err != nil {
		logger.Base().Warn("failed to record processed delivery", zap.Error(err))
	}
}

func (c *DeliveryCache) key(body []byte) string {
	digest := sha256.Sum256(body)
	return c.redis.GenerateKey(redis.WEBHOOK_DELIVERY, hex.EncodeToString(digest[:]))
}
