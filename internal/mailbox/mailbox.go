// Package mailbox implements the unbounded FIFO that feeds single-consumer goroutines.
//
// Producers never block and nothing is dropped: Push appends under a mutex and signals a
// one-slot channel. The consumer waits on Ready and takes everything queued with Drain, in
// push order. Close rejects further pushes; items already queued stay drainable.
package mailbox

import "sync"

// Queue is an unbounded multi-producer, single-consumer FIFO.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	ready  chan struct{}
	closed bool
}

// New returns an empty open queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{ready: make(chan struct{}, 1)}
}

// Push appends v. It returns false when the queue is closed.
func (q *Queue[T]) Push(v T) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, v)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
	return true
}

// Ready receives a value whenever items may be available.
func (q *Queue[T]) Ready() <-chan struct{} {
	return q.ready
}

// Drain removes and returns all queued items in push order.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

// Close stops accepting pushes. It is safe to call more than once.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
