package identity

import (
	"slices"
	"sync"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/record"
	"github.com/google/uuid"
)

// Hub delivers notifications to every subscriber in publish order. Callbacks run
// synchronously on the publishing goroutine and must not block.
type Hub struct {
	mu   sync.Mutex
	subs map[uint64]func(goSession.Notification)
	next uint64

	// pubMu serializes Publish so all subscribers observe one order.
	pubMu sync.Mutex
	now   func() time.Time
}

// NewHub returns an empty Hub. now may be nil.
func NewHub(now func() time.Time) *Hub {
	if now == nil {
		now = time.Now
	}
	return &Hub{
		subs: make(map[uint64]func(goSession.Notification)),
		now:  now,
	}
}

// Subscribe registers fn until the returned subscription is cancelled.
func (h *Hub) Subscribe(fn func(goSession.Notification)) (goSession.Subscription, error) {
	if fn == nil {
		return goSession.SubscriptionFunc(nil), nil
	}

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return goSession.SubscriptionFunc(func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}), nil
}

// Publish builds a notification with a fresh ID and delivers it. It returns the
// notification sent.
func (h *Hub) Publish(kind goSession.EventKind, s *record.Session) goSession.Notification {
	n := goSession.Notification{
		ID:      uuid.NewString(),
		Kind:    kind,
		Session: s,
		At:      h.now(),
	}

	h.pubMu.Lock()
	defer h.pubMu.Unlock()

	h.mu.Lock()
	ids := make([]uint64, 0, len(h.subs))
	for id := range h.subs {
		ids = append(ids, id)
	}
	h.mu.Unlock()
	slices.Sort(ids)

	for _, id := range ids {
		h.mu.Lock()
		fn, ok := h.subs[id]
		h.mu.Unlock()
		if ok {
			fn(n)
		}
	}
	return n
}

// Len returns the number of active subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
