package securestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores credentials in Redis under "<prefix>:<device>:<key>".
//
//	Performance: 1 Redis command per operation.
type Redis struct {
	redis  redis.UniversalClient
	prefix string
	device string
	ttl    time.Duration
}

// NewRedis returns a Redis backend. ttl <= 0 stores values without expiry; a positive ttl
// bounds how long an abandoned device's cache survives.
func NewRedis(client redis.UniversalClient, prefix, device string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = "gs"
	}
	if device == "" {
		device = "0"
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Redis{
		redis:  client,
		prefix: prefix,
		device: device,
		ttl:    ttl,
	}
}

func (r *Redis) key(key string) string {
	return r.prefix + ":" + r.device + ":" + key
}

// Get returns the value stored under key.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	data, err := r.redis.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return data, nil
}

// Set replaces the value stored under key.
func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrInvalidKey
	}
	if err := r.redis.Set(ctx, r.key(key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key succeeds.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if err := r.redis.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (r *Redis) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := r.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return time.Since(start), nil
}
