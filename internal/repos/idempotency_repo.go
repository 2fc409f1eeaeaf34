package repos

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyPrefix = "farmfresh:idem:"
	idempotencyKeyTTL    = 24 * time.Hour
)

// IdempotencyRepo remembers request keys in Redis so a retried order
// creation is not placed twice.
type IdempotencyRepo struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyRepo(client *redis.Client) *IdempotencyRepo {
	return &IdempotencyRepo{client: client, ttl: idempotencyKeyTTL}
}

// Claim returns false if key was already claimed within the TTL.
func (r *IdempotencyRepo) Claim(ctx context.Context, key string) (bool, error) {
	return r.client.SetNX(ctx, idempotencyKeyPrefix+key, 1, r.ttl).Result()
}

// Release forgets key so a failed request can be retried with it.
func (r *IdempotencyRepo) Release(ctx context.Context, key string) error {
	return r.client.Del(ctx, idempotencyKeyPrefix+key).Err()
}
