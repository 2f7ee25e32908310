package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/identity/local"
	"github.com/MrEthical07/goSession/securestore"
	"github.com/MrEthical07/goSession/token"
)

func newManager(t *testing.T) (*goSession.Manager, *local.Provider) {
	t.Helper()
	p, err := local.New(local.Config{
		Token: token.Config{
			AccessTTL:     time.Hour,
			SigningMethod: token.MethodHS256,
			PrivateKey:    []byte("middleware-test-signing-key-0123"),
		},
		Hash: local.HashParams{Memory: 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16},
	})
	if err != nil {
		t.Fatalf("local.New: %v", err)
	}
	if err := p.AddUser("ada@example.com", "correct-horse"); err != nil {
		t.Fatalf("AddUser: %v", err)
	}

	m, err := goSession.New().WithStore(securestore.NewMemory()).WithIdentity(p).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(m.Close)
	return m, p
}

func start(t *testing.T, m *goSession.Manager) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.WaitReady(ctx); err != nil {
		t.Fatalf("WaitReady: %v", err)
	}
}

func serve(h http.Handler) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec
}

func TestRequireSession(t *testing.T) {
	m, _ := newManager(t)

	var admitted goSession.Snapshot
	h := RequireSession(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admitted, _ = SnapshotFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	if rec := serve(h); rec.Code != http.StatusServiceUnavailable || rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected 503 before start, got %d", rec.Code)
	}

	start(t, m)
	if rec := serve(h); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rec.Code)
	}

	if _, err := m.SignIn(context.Background(), "ada@example.com", "correct-horse"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if rec := serve(h); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 with session, got %d", rec.Code)
	}
	if admitted.Identity() != "ada@example.com" {
		t.Fatalf("expected admitted snapshot in context, got %+v", admitted)
	}

	if rec := serve(RequireSession(nil)(h)); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for nil manager, got %d", rec.Code)
	}
}

func TestWithManagerAndRequireReady(t *testing.T) {
	m, _ := newManager(t)
	start(t, m)

	var got *goSession.Manager
	h := WithManager(m)(RequireReady(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = goSession.FromContext(r.Context())
	})))
	if rec := serve(h); rec.Code != http.StatusOK || got != m {
		t.Fatalf("expected manager in context, code=%d", rec.Code)
	}
}

func TestRequireReadyTimesOut(t *testing.T) {
	m, _ := newManager(t)
	h := RequireReady(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run before ready")
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestTransportAddsBearer(t *testing.T) {
	m, _ := newManager(t)
	start(t, m)

	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	client := &http.Client{Transport: &Transport{Manager: m}}

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if auth != "" {
		t.Fatalf("expected no header without session, got %q", auth)
	}

	snap, err := m.SignIn(context.Background(), "ada@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	resp, err = client.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if auth != "Bearer "+snap.Session.AccessToken() {
		t.Fatalf("unexpected Authorization %q", auth)
	}
}
