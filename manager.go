package goSession

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/mailbox"
	"github.com/MrEthical07/goSession/record"
	"go.opentelemetry.io/otel/trace"
)

// Manager owns the authentication state of one client.
//
// All mutations run on a single writer goroutine fed by an unbounded FIFO mailbox: the
// initialization sequence first, then notifications, sign-in results and sign-outs in
// arrival order. Readers load the current [Snapshot] through an atomic pointer.
type Manager struct {
	config   Config
	store    CredentialStore
	identity IdentityService
	logger   *slog.Logger
	tracer   trace.Tracer
	audit    *internalaudit.Dispatcher
	metrics  *Metrics
	now      func() time.Time

	current atomic.Pointer[Snapshot]
	// version is owned by the writer goroutine.
	version uint64
	// signOuts counts transitions to Unauthenticated caused by sign-out or a "none"
	// notification. Only the writer increments it.
	signOuts atomic.Uint64

	inbox    *mailbox.Queue[command]
	ready    chan struct{}
	stopping chan struct{}
	done     chan struct{}

	lifecycleMu sync.Mutex
	started     bool
	closed      bool
	sub         Subscription

	obsMu     sync.Mutex
	observers map[uint64]*observer
	nextObs   uint64
	obsWG     sync.WaitGroup
}

type commandKind uint8

const (
	cmdNotification commandKind = iota
	cmdSignOut
	cmdApplySession
)

type command struct {
	kind    commandKind
	ctx     context.Context
	note    Notification
	session *record.Session
	source  string
	// signOuts is the sign-out count seen before an authentication call started.
	signOuts uint64
	reply    chan Snapshot
	err      chan error
}

// Start registers the notification subscription and launches the writer goroutine, which
// runs initialization before anything else. It returns once both are in place; use
// [Manager.Ready] or [Manager.WaitReady] to wait for the first reconciliation.
//
// ctx scopes the subscription registration only. Initialization is bounded by
// Config.Init timeouts and cannot be cancelled.
func (m *Manager) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	if m.closed {
		return ErrManagerClosed
	}
	if m.started {
		return ErrManagerStarted
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	sub, err := m.identity.Subscribe(m.enqueueNotification)
	if err != nil {
		return err
	}
	m.sub = sub
	m.started = true

	go m.run()

	return nil
}

func (m *Manager) enqueueNotification(n Notification) {
	m.inbox.Push(command{kind: cmdNotification, note: n})
}

func (m *Manager) run() {
	defer close(m.done)

	m.initialize()
	close(m.ready)

	for {
		select {
		case <-m.inbox.Ready():
			m.handleAll(m.inbox.Drain())
		case <-m.stopping:
			m.handleAll(m.inbox.Drain())
			return
		}
	}
}

func (m *Manager) handleAll(cmds []command) {
	for _, c := range cmds {
		switch c.kind {
		case cmdNotification:
			m.applyNotification(c.note)
		case cmdSignOut:
			c.reply <- m.signOut(c.ctx)
		case cmdApplySession:
			snap, err := m.applySession(c.ctx, c.session, c.source, c.signOuts)
			c.err <- err
			c.reply <- snap
		}
	}
}

// Ready is closed once initialization has published its result.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// WaitReady blocks until initialization completes, ctx ends, or the manager closes before
// it started.
func (m *Manager) WaitReady(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-m.ready:
		return nil
	default:
	}

	m.lifecycleMu.Lock()
	started, closed := m.started, m.closed
	m.lifecycleMu.Unlock()
	if !started {
		if closed {
			return ErrManagerClosed
		}
		return ErrManagerNotStarted
	}

	select {
	case <-m.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the current authentication state. It never blocks.
func (m *Manager) Snapshot() Snapshot {
	return *m.current.Load()
}

// Close unsubscribes from the identity service, lets the writer finish work that is already
// queued, stops observer delivery and flushes the audit dispatcher. No observer callback
// runs after Close returns. Close must not be called from an observer callback.
//
// Close is idempotent.
func (m *Manager) Close() {
	m.lifecycleMu.Lock()
	if m.closed {
		m.lifecycleMu.Unlock()
		return
	}
	m.closed = true
	started := m.started
	sub := m.sub
	m.sub = nil
	m.lifecycleMu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	m.inbox.Close()
	close(m.stopping)
	if started {
		<-m.done
	}

	m.stopObservers()
	m.audit.Close()

	m.logger.Debug("goSession: manager closed")
}

// send enqueues c and waits for the writer's reply.
func (m *Manager) send(ctx context.Context, c command) (Snapshot, error) {
	m.lifecycleMu.Lock()
	started, closed := m.started, m.closed
	m.lifecycleMu.Unlock()
	if closed {
		return Snapshot{}, ErrManagerClosed
	}
	if !started {
		return Snapshot{}, ErrManagerNotStarted
	}

	c.reply = make(chan Snapshot, 1)
	c.err = make(chan error, 1)
	if !m.inbox.Push(c) {
		return Snapshot{}, ErrManagerClosed
	}

	select {
	case snap := <-c.reply:
		return snap, replyErr(c.err)
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-m.done:
		// The writer drains queued commands before exiting.
		select {
		case snap := <-c.reply:
			return snap, replyErr(c.err)
		default:
			return Snapshot{}, ErrManagerClosed
		}
	}
}

// replyErr reads the error the writer sent ahead of its snapshot reply.
func replyErr(ch chan error) error {
	select {
	case err := <-ch:
		return err
	default:
		return nil
	}
}

// publish stores a new snapshot and fans it out to observers. Writer goroutine only.
func (m *Manager) publish(state State, s *record.Session, loading bool) Snapshot {
	if state != StateAuthenticated {
		s = nil
	}
	m.version++
	snap := Snapshot{
		State:   state,
		Session: s,
		Loading: loading,
		Version: m.version,
		At:      m.now(),
	}

	m.obsMu.Lock()
	m.current.Store(&snap)
	for _, o := range m.observers {
		o.queue.Push(snap)
	}
	m.obsMu.Unlock()

	return snap
}
