package local

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goSession/identity"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/redis/go-redis/v9"
)

// AttemptLimiter counts failed sign-ins per normalized email.
type AttemptLimiter interface {
	Check(ctx context.Context, email string) error
	Fail(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}

// NewRedisLimiter returns an AttemptLimiter that allows maxAttempts failures per window,
// counted in Redis. Zero values pick 5 attempts per 15 minutes.
func NewRedisLimiter(client redis.UniversalClient, maxAttempts int, window time.Duration) AttemptLimiter {
	return rate.New(client, rate.Config{Prefix: "gsrl:signin", MaxAttempts: maxAttempts, Window: window})
}

func limiterErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rate.ErrRateLimited):
		return identity.ErrRateLimited
	case errors.Is(err, rate.ErrRedisUnavailable):
		return fmt.Errorf("%w: %v", identity.ErrUnavailable, err)
	}
	return err
}
