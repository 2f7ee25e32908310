package goSession

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/record"
	"github.com/MrEthical07/goSession/securestore"
)

const testKey = DefaultStoreKey

func newSession(t testing.TB, identity string, expiresAt time.Time) *record.Session {
	t.Helper()
	payload := fmt.Sprintf(
		`{"access_token":"at-%s","refresh_token":"rt-%s","expires_at":%d,"user":{"id":"%s-id","email":"%s"}}`,
		identity, identity, expiresAt.Unix(), identity, identity,
	)
	s, err := record.Parse([]byte(payload))
	if err != nil {
		t.Fatalf("parse session: %v", err)
	}
	return s
}

type fakeIdentity struct {
	mu          sync.Mutex
	current     func(ctx context.Context) (*record.Session, error)
	setCalls    []*record.Session
	setErr      error
	signOutErr  error
	signOuts    int
	callback    func(Notification)
	unsubscribe int
}

func (f *fakeIdentity) CurrentSession(ctx context.Context) (*record.Session, error) {
	f.mu.Lock()
	fn := f.current
	f.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(ctx)
}

func (f *fakeIdentity) SetSession(_ context.Context, s *record.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls = append(f.setCalls, s)
	return f.setErr
}

func (f *fakeIdentity) SignOut(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOuts++
	return f.signOutErr
}

func (f *fakeIdentity) Subscribe(fn func(Notification)) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callback = fn
	return SubscriptionFunc(func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.callback = nil
		f.unsubscribe++
	}), nil
}

// emit delivers n like the identity client would. It reports false when nobody is subscribed.
func (f *fakeIdentity) emit(n Notification) bool {
	f.mu.Lock()
	fn := f.callback
	f.mu.Unlock()
	if fn == nil {
		return false
	}
	fn(n)
	return true
}

func (f *fakeIdentity) setCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.setCalls)
}

type fakeAuthIdentity struct {
	fakeIdentity
	signIn func(email, password string) (*record.Session, error)
}

func (f *fakeAuthIdentity) SignInWithPassword(_ context.Context, email, password string) (*record.Session, error) {
	return f.signIn(email, password)
}

func (f *fakeAuthIdentity) SignUp(_ context.Context, email, password string) (*record.Session, error) {
	return f.signIn(email, password)
}

// hookStore wraps a memory backend with injectable failures and call hooks.
type hookStore struct {
	*securestore.Memory

	mu       sync.Mutex
	getErr   error
	setErr   error
	delErr   error
	blockGet bool
	onSet    func(value []byte)
	onDelete func()
}

func newHookStore() *hookStore {
	return &hookStore{Memory: securestore.NewMemory()}
}

func (h *hookStore) Get(ctx context.Context, key string) ([]byte, error) {
	h.mu.Lock()
	err, block := h.getErr, h.blockGet
	h.mu.Unlock()
	if block {
		<-ctx.Done()
		return nil, fmt.Errorf("%w: %v", securestore.ErrUnavailable, ctx.Err())
	}
	if err != nil {
		return nil, err
	}
	return h.Memory.Get(ctx, key)
}

func (h *hookStore) Set(ctx context.Context, key string, value []byte) error {
	h.mu.Lock()
	err, hook := h.setErr, h.onSet
	h.mu.Unlock()
	if hook != nil {
		hook(value)
	}
	if err != nil {
		return err
	}
	return h.Memory.Set(ctx, key, value)
}

func (h *hookStore) Delete(ctx context.Context, key string) error {
	h.mu.Lock()
	err, hook := h.delErr, h.onDelete
	h.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err != nil {
		return err
	}
	return h.Memory.Delete(ctx, key)
}

func (h *hookStore) cached(t testing.TB) []byte {
	t.Helper()
	data, err := h.Memory.Get(context.Background(), testKey)
	if errors.Is(err, securestore.ErrNotFound) {
		return nil
	}
	if err != nil {
		t.Fatalf("read cache: %v", err)
	}
	return data
}

func (h *hookStore) put(t testing.TB, data []byte) {
	t.Helper()
	if err := h.Memory.Set(context.Background(), testKey, data); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
}

// recorder collects observed snapshots.
type recorder struct {
	mu    sync.Mutex
	snaps []Snapshot
	ch    chan Snapshot
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan Snapshot, 1024)}
}

func (r *recorder) observe(s Snapshot) {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
	r.ch <- s
}

// next waits for the next observed snapshot.
func (r *recorder) next(t testing.TB) Snapshot {
	t.Helper()
	select {
	case s := <-r.ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot{}
	}
}

// waitFor consumes snapshots until pred matches.
func (r *recorder) waitFor(t testing.TB, pred func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-r.ch:
			if pred(s) {
				return s
			}
		case <-deadline:
			t.Fatal("timed out waiting for matching snapshot")
			return Snapshot{}
		}
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Init.StoreTimeout = time.Second
	cfg.Init.RemoteTimeout = time.Second
	cfg.Store.OpTimeout = time.Second
	cfg.Identity.OpTimeout = time.Second
	return cfg
}

func buildManager(t testing.TB, store CredentialStore, id IdentityService, mutate func(*Builder)) *Manager {
	t.Helper()
	b := New().WithConfig(testConfig()).WithStore(store).WithIdentity(id)
	if mutate != nil {
		mutate(b)
	}
	m, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

func startReady(t testing.TB, m *Manager) Snapshot {
	t.Helper()
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := m.WaitReady(ctx); err != nil {
		t.Fatalf("wait ready: %v", err)
	}
	return m.Snapshot()
}
