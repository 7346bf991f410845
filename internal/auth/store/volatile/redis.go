package volatile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by a Redis key namespace. Values are JSON-encoded
// and expiry is delegated to Redis TTLs, so no sweeper is needed.
type Redis[V any] struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis returns a Store that keeps its records under "<namespace>:<key>".
func NewRedis[V any](client redis.UniversalClient, namespace string) *Redis[V] {
	return &Redis[V]{
		client: client,
		prefix: namespace + ":",
	}
}

// Create implements Store.
func (r *Redis[V]) Create(ctx context.Context, key string, val V, ttl time.Duration) error {
	payload, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := r.client.Set(ctx, r.prefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Find implements Store.
func (r *Redis[V]) Find(ctx context.Context, key string) (V, bool, error) {
	var zero V

	payload, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var val V
	if err := json.Unmarshal(payload, &val); err != nil {
		return zero, false, fmt.Errorf("decode record: %w", err)
	}
	return val, true, nil
}

// Revoke implements Store.
func (r *Redis[V]) Revoke(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
