package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyPrefix = "idem:"
	idempotencyKeyTTL    = 24 * time.Hour
)

// RedisIdempotency claims order-submission idempotency keys with SetNX so a
// retried request is rejected instead of creating a second order.
type RedisIdempotency struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisIdempotency(client *redis.Client) *RedisIdempotency {
	return &RedisIdempotency{client: client, ttl: idempotencyKeyTTL}
}

// Register claims the key for the TTL window. Returns false if the key was
// already claimed.
func (r *RedisIdempotency) Register(ctx context.Context, key string) (bool, error) {
	return r.client.SetNX(ctx, idempotencyKeyPrefix+key, 1, r.ttl).Result()
}
