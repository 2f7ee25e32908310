package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering.
type Config struct {
	Enabled    bool
	BufferSize int
	// DropIfFull discards events that do not fit the buffer instead of blocking Emit.
	DropIfFull bool
}

// Dispatcher relays events to one sink from a single goroutine, in emit order. A nil
// *Dispatcher is valid and does nothing.
type Dispatcher struct {
	sink       Sink
	dropIfFull bool

	// mu orders Emit against closing the queue.
	mu       sync.RWMutex
	closed   bool
	queue    chan Event
	finished chan struct{}
	once     sync.Once

	seq       atomic.Uint64
	dropped   atomic.Uint64
	delivered atomic.Uint64
}

// NewDispatcher starts the relay goroutine. It returns nil when cfg.Enabled is false.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		queue:      make(chan Event, max(cfg.BufferSize, 1)),
		finished:   make(chan struct{}),
	}
	go d.relay()
	return d
}

func (d *Dispatcher) relay() {
	defer close(d.finished)
	for event := range d.queue {
		d.sink.Emit(context.Background(), event)
		d.delivered.Add(1)
	}
}

// Emit stamps a sequence number on event and queues it. Without DropIfFull it waits for
// buffer space until ctx ends. Events emitted after Close are ignored.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	event.Sequence = d.seq.Add(1)
	if d.dropIfFull {
		select {
		case d.queue <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}
	select {
	case d.queue <- event:
	case <-ctx.Done():
		d.dropped.Add(1)
	}
}

// Close rejects new events and returns after everything queued reached the sink.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
	})
	<-d.finished
}

// Dropped counts discarded events.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// Delivered counts events handed to the sink.
func (d *Dispatcher) Delivered() uint64 {
	if d == nil {
		return 0
	}
	return d.delivered.Load()
}
