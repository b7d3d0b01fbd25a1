package identity

import (
	"sync"

	"github.com/google/uuid"
)

// EventKind is the kind of authentication event emitted by the provider.
type EventKind int

const (
	// EventSignedIn is emitted after a successful password sign-in.
	EventSignedIn EventKind = iota
	// EventSignedOut is emitted after a sign-out; consumers must treat the
	// session as gone immediately, regardless of any in-flight lookups.
	EventSignedOut
)

// Event is a single authentication event for one identity.
type Event struct {
	Kind       EventKind
	IdentityID uuid.UUID
}

// EventBus fans authentication events out to per-identity subscribers.
// Delivery is best-effort: a subscriber that stops draining its channel
// loses events rather than blocking the provider.
type EventBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[uuid.UUID]map[int]chan Event
}

// NewEventBus creates an empty event bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[uuid.UUID]map[int]chan Event)}
}

// Subscribe registers a listener for events concerning identityID. The
// returned function releases the subscription and closes the channel; it is
// safe to call more than once.
func (b *EventBus) Subscribe(identityID uuid.UUID) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID

	ch := make(chan Event, 16)
	if b.subs[identityID] == nil {
		b.subs[identityID] = make(map[int]chan Event)
	}
	b.subs[identityID][id] = ch

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if listeners, ok := b.subs[identityID]; ok {
				delete(listeners, id)
				if len(listeners) == 0 {
					delete(b.subs, identityID)
				}
			}
			close(ch)
		})
	}

	return ch, unsubscribe
}

// Publish delivers ev to all current subscribers of ev.IdentityID.
func (b *EventBus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs[ev.IdentityID] {
		select {
		case ch <- ev:
		default:
			// subscriber is not draining; drop rather than block
		}
	}
}
