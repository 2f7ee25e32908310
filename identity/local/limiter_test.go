package local

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/identity"
	"github.com/MrEthical07/goSession/token"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSignInThrottledAfterFailures(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	p, err := New(Config{
		Token: token.Config{
			AccessTTL:     time.Minute,
			SigningMethod: token.MethodHS256,
			PrivateKey:    []byte("local-provider-test-signing-key-32b"),
		},
		Hash:    HashParams{Memory: 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16},
		Limiter: NewRedisLimiter(rdb, 2, time.Minute),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	if err := p.AddUser("gina@example.com", "long-enough-pw"); err != nil {
		t.Fatalf("AddUser: %v", err)
	}

	// Success resets the counter.
	if _, err := p.SignInWithPassword(ctx, "gina@example.com", "bad-password"); !errors.Is(err, identity.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := p.SignInWithPassword(ctx, "gina@example.com", "long-enough-pw"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := p.SignInWithPassword(ctx, "Gina@example.com", "bad-password"); !errors.Is(err, identity.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}
	if _, err := p.SignInWithPassword(ctx, "gina@example.com", "long-enough-pw"); !errors.Is(err, identity.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := p.SignInWithPassword(ctx, "gina@example.com", "long-enough-pw"); err != nil {
		t.Fatalf("expected sign-in after window, got %v", err)
	}

	mr.Close()
	if _, err := p.SignInWithPassword(ctx, "gina@example.com", "long-enough-pw"); !errors.Is(err, identity.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable with redis down, got %v", err)
	}
}
