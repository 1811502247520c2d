package services

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// SessionEvent mirrors a session change pushed by the identity provider:
// a session was established, refreshed, or cleared.
type SessionEvent struct {
	Type      string // session.created, session.ended, session.removed
	SessionID string
	UserID    string
	At        time.Time
}

type SessionEventHandler func(SessionEvent)

// SessionEventBus fans session changes out to subscribers. A single
// dispatch goroutine drains the queue, so handlers see events in the order
// they were published and are never invoked concurrently with each other.
type SessionEventBus struct {
	mu          sync.Mutex
	subscribers map[int]SessionEventHandler
	nextID      int
	queue       chan SessionEvent
	stopChan    chan struct{}
	wg          sync.WaitGroup
}

// SessionSubscription is the cancellation handle Subscribe returns. After
// Unsubscribe returns, no further events are delivered to the handler.
type SessionSubscription struct {
	bus *SessionEventBus
	id  int
}

func (s *SessionSubscription) Unsubscribe() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	delete(s.bus.subscribers, s.id)
}

func NewSessionEventBus() *SessionEventBus {
	bus := &SessionEventBus{
		subscribers: make(map[int]SessionEventHandler),
		queue:       make(chan SessionEvent, 100),
		stopChan:    make(chan struct{}),
	}

	bus.wg.Add(1)
	go bus.dispatch()

	return bus
}

func (b *SessionEventBus) Subscribe(handler SessionEventHandler) *SessionSubscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subscribers[id] = handler

	return &SessionSubscription{bus: b, id: id}
}

// Publish enqueues an event. Drops the event if the queue is full rather
// than block the webhook handler.
func (b *SessionEventBus) Publish(event SessionEvent) {
	select {
	case b.queue <- event:
	default:
		log.Warnf("session event queue full, dropping %s for session %s", event.Type, event.SessionID)
	}
}

func (b *SessionEventBus) dispatch() {
	defer b.wg.Done()
	for {
		select {
		case event := <-b.queue:
			b.deliver(event)
		case <-b.stopChan:
			// Drain what is already queued before stopping.
			for {
				select {
				case event := <-b.queue:
					b.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (b *SessionEventBus) deliver(event SessionEvent) {
	b.mu.Lock()
	handlers := make([]SessionEventHandler, 0, len(b.subscribers))
	for _, h := range b.subscribers {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(event)
	}
}

// Close stops dispatching after draining queued events.
func (b *SessionEventBus) Close() {
	close(b.stopChan)
	b.wg.Wait()
}
