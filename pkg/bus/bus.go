package bus

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity is the per-subscriber buffer size used when Subscribe is
// called without an explicit override.
const DefaultCapacity = 256

// Bus is a broadcast fan-out of Envelopes to any number of subscribers. The
// zero value is not usable; construct with New.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]*subscriberState
}

type subscriberState struct {
	ch       chan Envelope
	lagged   int
	capacity int
}

// New returns an empty Bus ready to accept subscribers and publishes.
func New() *Bus {
	return &Bus{
		subscribers: make(map[string]*subscriberState),
	}
}

// Subscription is a handle returned by Subscribe. Receive() yields envelopes
// published after the call to Subscribe; Unsubscribe releases the handle.
type Subscription struct {
	id   string
	ch   <-chan Envelope
	bus  *Bus
}

// Receive returns the channel of envelopes for this subscription. A Lagged
// marker event (EventType "Lagged") is delivered in place of dropped entries,
// carrying the drop count in Event.Data["lagged_count"].
func (s *Subscription) Receive() <-chan Envelope {
	return s.ch
}

// Unsubscribe removes the subscription and closes its channel. Safe to call
// more than once.
func (s *Subscription) Unsubscribe() {
	s.bus.unsubscribe(s.id)
}

// Subscribe registers a new subscriber with the default buffer capacity and
// returns a Subscription seeing only events published from this point
// forward.
func (b *Bus) Subscribe() *Subscription {
	return b.SubscribeWithCapacity(DefaultCapacity)
}

// SubscribeWithCapacity is Subscribe with an explicit per-subscriber buffer
// size, mainly useful in tests that want to force lag deterministically.
func (b *Bus) SubscribeWithCapacity(capacity int) *Subscription {
	id := uuid.New().String()
	state := &subscriberState{
		ch:       make(chan Envelope, capacity),
		capacity: capacity,
	}

	b.mu.Lock()
	b.subscribers[id] = state
	b.mu.Unlock()

	return &Subscription{id: id, ch: state.ch, bus: b}
}

func (b *Bus) unsubscribe(id string) {
	b.mu.Lock()
	state, ok := b.subscribers[id]
	if ok {
		delete(b.subscribers, id)
	}
	b.mu.Unlock()

	if ok {
		close(state.ch)
	}
}

// Publish fans an event out to every current subscriber. It never blocks:
// a subscriber whose buffer is full has its oldest entry dropped to make
// room, and the drop is counted so the next successful delivery can carry a
// Lagged marker first. If there are no subscribers the event is silently
// discarded, per the published-event-is-a-hint contract.
func (b *Bus) Publish(event Event) Envelope {
	env := Envelope{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Event:     event,
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, state := range b.subscribers {
		b.deliver(id, state, env)
	}

	return env
}

func (b *Bus) deliver(id string, state *subscriberState, env Envelope) {
	if state.lagged > 0 {
		// A full buffer gives up its oldest entry so the marker can go in
		// ahead of env.
		if len(state.ch) == cap(state.ch) {
			select {
			case <-state.ch:
				state.lagged++
			default:
			}
		}
		select {
		case state.ch <- laggedEnvelope(state.lagged):
			state.lagged = 0
		default:
			state.lagged++
			slog.Warn("event bus subscriber lagging, dropping lag marker too", "subscriber_id", id, "lagged", state.lagged)
		}
	}

	select {
	case state.ch <- env:
		return
	default:
	}

	// Buffer full: drop the oldest entry (counted toward the next Lagged
	// marker) and retry once, mirroring a broadcast channel's drop-oldest
	// lag behavior rather than blocking the publisher.
	select {
	case <-state.ch:
		state.lagged++
	default:
	}

	select {
	case state.ch <- env:
	default:
		state.lagged++
		slog.Warn("event bus subscriber buffer full after eviction, dropping event", "subscriber_id", id, "event_type", env.Event.Type)
	}
}

func laggedEnvelope(n int) Envelope {
	return Envelope{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Event: Event{
			Type: "Lagged",
			Data: map[string]any{"lagged_count": n},
		},
	}
}

// SubscriberCount reports the number of active subscribers, mainly for
// health/metrics reporting.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
