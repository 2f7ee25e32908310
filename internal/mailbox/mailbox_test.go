package mailbox

import (
	"sync"
	"testing"
	"time"
)

func TestQueuePreservesOrder(t *testing.T) {
	q := New[int]()
	for i := 0; i < 100; i++ {
		if !q.Push(i) {
			t.Fatalf("push %d rejected", i)
		}
	}

	select {
	case <-q.Ready():
	case <-time.After(time.Second):
		t.Fatal("expected ready signal")
	}

	items := q.Drain()
	if len(items) != 100 {
		t.Fatalf("expected 100 items, got %d", len(items))
	}
	for i, v := range items {
		if v != i {
			t.Fatalf("item %d out of order: %d", i, v)
		}
	}
	if q.Drain() != nil {
		t.Fatal("expected empty drain")
	}
}

func TestQueueRejectsAfterClose(t *testing.T) {
	q := New[string]()
	q.Push("a")
	q.Close()
	q.Close()

	if q.Push("b") {
		t.Fatal("expected push after close to be rejected")
	}
	if got := q.Drain(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("expected queued item to survive close, got %v", got)
	}
}

func TestQueueConcurrentProducersLoseNothing(t *testing.T) {
	q := New[int]()
	const producers, per = 8, 500

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < per; i++ {
				q.Push(i)
			}
		}()
	}

	done := make(chan struct{})
	total := 0
	go func() {
		defer close(done)
		for total < producers*per {
			<-q.Ready()
			total += len(q.Drain())
		}
	}()

	wg.Wait()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer stalled")
	}
}
