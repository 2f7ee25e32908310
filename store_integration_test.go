package goSession

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/securestore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestManagerRestoresFromEncryptedRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := securestore.DefaultSealerConfig([]byte("device-secret-0123456789"), []byte("0123456789abcdef"))
	cfg.Memory = 8 * 1024
	cfg.Time = 1
	sealer, err := securestore.NewSealer(cfg)
	if err != nil {
		t.Fatalf("sealer: %v", err)
	}
	store := securestore.NewEncrypted(securestore.NewRedis(rdb, "gs", "phone-1", time.Hour), sealer)

	s := newSession(t, "u1", time.Now().Add(time.Hour))
	id := &fakeIdentity{}

	first := buildManager(t, store, id, nil)
	startReady(t, first)
	id.emit(Notification{Kind: EventSignedIn, Session: s})
	deadline := time.Now().Add(2 * time.Second)
	for !first.Snapshot().Authenticated() {
		if time.Now().After(deadline) {
			t.Fatal("sign-in notification not applied")
		}
		time.Sleep(5 * time.Millisecond)
	}
	first.Close()

	raw, err := rdb.Get(context.Background(), "gs:phone-1:"+testKey).Bytes()
	if err != nil {
		t.Fatalf("raw read: %v", err)
	}
	if bytes.Contains(raw, []byte("at-u1")) {
		t.Fatal("stored value must be sealed")
	}

	// A fresh process restores the same session from the sealed cache.
	second := buildManager(t, store, &fakeIdentity{}, nil)
	snap := startReady(t, second)
	if !snap.Authenticated() || !snap.Session.Equal(s) {
		t.Fatalf("expected restored session, got %+v", snap)
	}
}
