package identity

import (
	"sync"
	"testing"

	goSession "github.com/MrEthical07/goSession"
)

func TestHubDeliversInOrder(t *testing.T) {
	h := NewHub(nil)

	var mu sync.Mutex
	var got []goSession.EventKind
	sub, err := h.Subscribe(func(n goSession.Notification) {
		mu.Lock()
		got = append(got, n.Kind)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	h.Publish(goSession.EventSignedIn, nil)
	h.Publish(goSession.EventTokenRefreshed, nil)
	h.Publish(goSession.EventSignedOut, nil)

	want := []goSession.EventKind{goSession.EventSignedIn, goSession.EventTokenRefreshed, goSession.EventSignedOut}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != len(want) {
		t.Fatalf("expected %d notifications, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	sub.Unsubscribe()
	sub.Unsubscribe()
	if h.Len() != 0 {
		t.Fatal("expected no subscribers after unsubscribe")
	}
}

func TestHubNotificationIDsUnique(t *testing.T) {
	h := NewHub(nil)
	a := h.Publish(goSession.EventSignedIn, nil)
	b := h.Publish(goSession.EventSignedIn, nil)
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected distinct ids, got %q and %q", a.ID, b.ID)
	}
	if a.At.IsZero() {
		t.Fatal("expected timestamp")
	}
}
