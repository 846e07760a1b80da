package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const guardPrefix = "idempotency:"

// Guard claims request keys in Redis so a replayed submission is rejected
// until the TTL lapses.
type Guard struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewGuard constructs Guard.
func NewGuard(client redis.UniversalClient, ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Guard{client: client, ttl: ttl}
}

// Acquire reports false when the key is already held.
func (g *Guard) Acquire(ctx context.Context, key string) (bool, error) {
	if g == nil || g.client == nil {
		return false, errors.New("platform/cache: guard not initialised")
	}
	if key == "" {
		return false, errors.New("platform/cache: empty idempotency key")
	}
	ok, err := g.client.SetNX(ctx, guardPrefix+key, time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("platform/cache: acquire: %w", err)
	}
	return ok, nil
}

// Release frees the key so a failed request can be retried.
func (g *Guard) Release(ctx context.Context, key string) error {
	if g == nil || g.client == nil {
		return nil
	}
	if err := g.client.Del(ctx, guardPrefix+key).Err(); err != nil {
		return fmt.Errorf("platform/cache: release: %w", err)
	}
	return nil
}
