package securestore

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	if _, err := b.Get(ctx, "slot"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty store, got %v", err)
	}
	if err := b.Delete(ctx, "slot"); err != nil {
		t.Fatalf("delete of missing key must succeed, got %v", err)
	}

	first := []byte(`{"expires_at":1}`)
	if err := b.Set(ctx, "slot", first); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := b.Get(ctx, "slot")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, first) {
		t.Fatalf("expected %q, got %q", first, got)
	}

	second := []byte{0x00, 0xff, 0x10}
	if err := b.Set(ctx, "slot", second); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	got, err = b.Get(ctx, "slot")
	if err != nil {
		t.Fatalf("Get after overwrite failed: %v", err)
	}
	if !bytes.Equal(got, second) {
		t.Fatalf("expected %v, got %v", second, got)
	}

	if err := b.Delete(ctx, "slot"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := b.Get(ctx, "slot"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	if err := b.Set(ctx, "", first); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestMemoryBackend(t *testing.T) {
	m := NewMemory()
	exerciseBackend(t, m)
	if m.Len() != 0 {
		t.Fatalf("expected empty memory store, got %d keys", m.Len())
	}
}

func TestMemoryBackendHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMemory().Get(ctx, "slot"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFileBackend(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "creds")
	f, err := NewFile(dir)
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	exerciseBackend(t, f)
}

func TestFileBackendWritesPrivateFiles(t *testing.T) {
	f, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	if err := f.Set(context.Background(), "slot", []byte("v")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	info, err := os.Stat(f.path("slot"))
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600, got %o", perm)
	}

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one file (no temp leftovers), got %d", len(entries))
	}
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func TestRedisBackend(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()
	defer rdb.Close()

	r := NewRedis(rdb, "gs", "device-1", 0)
	exerciseBackend(t, r)

	if _, err := r.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestRedisBackendScopesKeysByDevice(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()
	defer rdb.Close()

	a := NewRedis(rdb, "gs", "device-a", time.Hour)
	b := NewRedis(rdb, "gs", "device-b", time.Hour)

	if err := a.Set(context.Background(), "slot", []byte("a")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := b.Get(context.Background(), "slot"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected other device to see nothing, got %v", err)
	}
	if !mr.Exists("gs:device-a:slot") {
		t.Fatal("expected device-scoped key layout")
	}
	if ttl := mr.TTL("gs:device-a:slot"); ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %v", ttl)
	}
}

func TestRedisBackendUnavailable(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer rdb.Close()

	r := NewRedis(rdb, "gs", "device-1", 0)
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := r.Get(ctx, "slot"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if err := r.Set(ctx, "slot", []byte("v")); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestSQLiteBackend(t *testing.T) {
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "creds.db"))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer s.Close()

	exerciseBackend(t, s)
}

func TestSQLiteBackendPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.db")
	ctx := context.Background()

	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	if err := s.Set(ctx, "slot", []byte("persisted")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s, err = OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	got, err := s.Get(ctx, "slot")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "persisted" {
		t.Fatalf("expected persisted value, got %q", got)
	}
}
