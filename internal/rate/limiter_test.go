package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLimiter(t *testing.T, max int) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, Config{MaxAttempts: max, Window: time.Minute}), mr
}

func TestLimiterBlocksAfterMaxAttempts(t *testing.T) {
	l, mr := newLimiter(t, 3)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := l.Fail(ctx, "ada"); err != nil {
			t.Fatalf("attempt %d: unexpected %v", i, err)
		}
	}
	if err := l.Check(ctx, "ada"); err != nil {
		t.Fatalf("expected attempts left, got %v", err)
	}
	if err := l.Fail(ctx, "ada"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited on last attempt, got %v", err)
	}
	if err := l.Check(ctx, "ada"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if err := l.Check(ctx, "bob"); err != nil {
		t.Fatalf("other identifiers must be unaffected, got %v", err)
	}
	if ttl := mr.TTL("gsrl:ada"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("expected window ttl, got %s", ttl)
	}

	mr.FastForward(2 * time.Minute)
	if err := l.Check(ctx, "ada"); err != nil {
		t.Fatalf("expected window to expire, got %v", err)
	}
}

func TestLimiterReset(t *testing.T) {
	l, _ := newLimiter(t, 2)
	ctx := context.Background()

	_ = l.Fail(ctx, "ada")
	if n, _ := l.Attempts(ctx, "ada"); n != 1 {
		t.Fatalf("expected 1 attempt, got %d", n)
	}
	if err := l.Reset(ctx, "ada"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if n, _ := l.Attempts(ctx, "ada"); n != 0 {
		t.Fatalf("expected 0 attempts after reset, got %d", n)
	}
}

func TestLimiterRedisDown(t *testing.T) {
	l, mr := newLimiter(t, 2)
	mr.Close()
	if err := l.Check(context.Background(), "ada"); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}
