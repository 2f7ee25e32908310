package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds limiter tuning.
type Config struct {
	Prefix      string
	MaxAttempts int
	Window      time.Duration
}

// Limiter counts failed attempts per identifier in Redis.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New returns a Limiter. Zero values default to 5 attempts per 15 minutes under "gsrl".
func New(client redis.UniversalClient, cfg Config) *Limiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "gsrl"
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	return &Limiter{redis: client, config: cfg}
}

func (l *Limiter) key(id string) string {
	return l.config.Prefix + ":" + id
}

// Check fails with ErrRateLimited when id has no attempts left.
func (l *Limiter) Check(ctx context.Context, id string) error {
	count, err := l.redis.Get(ctx, l.key(id)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count >= int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}
	return nil
}

// Fail records a failed attempt and reports ErrRateLimited when it used the last one.
func (l *Limiter) Fail(ctx context.Context, id string) error {
	key := l.key(id)
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	if count >= int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}
	return nil
}

// Reset clears the counter of id after a successful attempt.
func (l *Limiter) Reset(ctx context.Context, id string) error {
	if err := l.redis.Del(ctx, l.key(id)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Attempts returns the failures counted for id in the current window.
func (l *Limiter) Attempts(ctx context.Context, id string) (int, error) {
	count, err := l.redis.Get(ctx, l.key(id)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}
