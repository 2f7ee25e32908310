package goSession

import (
	"sync"

	"github.com/MrEthical07/goSession/internal/mailbox"
)

type observer struct {
	fn       func(Snapshot)
	queue    *mailbox.Queue[Snapshot]
	stop     chan struct{}
	stopOnce sync.Once
}

// Observe registers fn to receive the current snapshot immediately and then every
// published snapshot, in publish order and without collapsing. Each observer runs on its
// own goroutine, so a slow observer delays only itself.
//
// The returned stop function unregisters fn; it may be called from inside fn. After the
// manager is closed, Observe registers nothing and returns a no-op stop.
func (m *Manager) Observe(fn func(Snapshot)) (stop func()) {
	if fn == nil {
		return func() {}
	}

	o := &observer{
		fn:    fn,
		queue: mailbox.New[Snapshot](),
		stop:  make(chan struct{}),
	}

	m.lifecycleMu.Lock()
	closed := m.closed
	m.lifecycleMu.Unlock()
	if closed {
		return func() {}
	}

	m.obsMu.Lock()
	if m.observers == nil {
		m.obsMu.Unlock()
		return func() {}
	}
	id := m.nextObs
	m.nextObs++
	o.queue.Push(*m.current.Load())
	m.observers[id] = o
	m.obsWG.Add(1)
	m.obsMu.Unlock()

	go func() {
		defer m.obsWG.Done()
		o.run()
	}()

	return func() {
		m.obsMu.Lock()
		delete(m.observers, id)
		m.obsMu.Unlock()
		o.halt()
	}
}

func (o *observer) halt() {
	o.stopOnce.Do(func() {
		o.queue.Close()
		close(o.stop)
	})
}

func (o *observer) run() {
	for {
		select {
		case <-o.stop:
			return
		case <-o.queue.Ready():
			for _, snap := range o.queue.Drain() {
				select {
				case <-o.stop:
					return
				default:
				}
				o.fn(snap)
			}
		}
	}
}

// stopObservers halts every observer and waits for in-flight callbacks to return.
func (m *Manager) stopObservers() {
	m.obsMu.Lock()
	observers := m.observers
	m.observers = nil
	m.obsMu.Unlock()

	for _, o := range observers {
		o.halt()
	}
	m.obsWG.Wait()
}
