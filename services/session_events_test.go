package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionEventBus_DeliversInOrder(t *testing.T) {
	bus := NewSessionEventBus()
	defer bus.Close()

	var mu sync.Mutex
	var got []string
	done := make(chan struct{})

	sub := bus.Subscribe(func(e SessionEvent) {
		mu.Lock()
		got = append(got, e.SessionID)
		if len(got) == 3 {
			close(done)
		}
		mu.Unlock()
	})
	defer sub.Unsubscribe()

	bus.Publish(SessionEvent{Type: "session.created", SessionID: "a"})
	bus.Publish(SessionEvent{Type: "session.created", SessionID: "b"})
	bus.Publish(SessionEvent{Type: "session.ended", SessionID: "c"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for events")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestSessionEventBus_UnsubscribeStopsDelivery(t *testing.T) {
	bus := NewSessionEventBus()
	defer bus.Close()

	first := make(chan SessionEvent, 1)
	sub := bus.Subscribe(func(e SessionEvent) {
		first <- e
	})

	bus.Publish(SessionEvent{Type: "session.created", SessionID: "a"})

	select {
	case e := <-first:
		require.Equal(t, "a", e.SessionID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first event")
	}

	sub.Unsubscribe()
	bus.Publish(SessionEvent{Type: "session.created", SessionID: "b"})

	// A second subscriber proves the bus kept processing events while the
	// cancelled one stayed silent. Depending on timing the witness may
	// also see "b", so wait until "c" arrives.
	second := make(chan SessionEvent, 4)
	witness := bus.Subscribe(func(e SessionEvent) {
		second <- e
	})
	defer witness.Unsubscribe()

	bus.Publish(SessionEvent{Type: "session.created", SessionID: "c"})

	deadline := time.After(2 * time.Second)
	for sawC := false; !sawC; {
		select {
		case e := <-second:
			sawC = e.SessionID == "c"
		case <-deadline:
			t.Fatal("timed out waiting for witness event")
		}
	}

	select {
	case e := <-first:
		t.Fatalf("unsubscribed handler received event %s", e.SessionID)
	default:
	}
}

func TestSessionEventBus_CloseDrainsQueue(t *testing.T) {
	bus := NewSessionEventBus()

	var mu sync.Mutex
	count := 0
	sub := bus.Subscribe(func(e SessionEvent) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	defer sub.Unsubscribe()

	for i := 0; i < 10; i++ {
		bus.Publish(SessionEvent{Type: "session.created", SessionID: "s"})
	}

	bus.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 10, count)
}
