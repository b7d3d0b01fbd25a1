package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestEventBusDeliversPerIdentity(t *testing.T) {
	bus := NewEventBus()
	alice := uuid.New()
	bob := uuid.New()

	aliceCh, unsubAlice := bus.Subscribe(alice)
	defer unsubAlice()
	bobCh, unsubBob := bus.Subscribe(bob)
	defer unsubBob()

	bus.Publish(Event{Kind: EventSignedIn, IdentityID: alice})

	select {
	case ev := <-aliceCh:
		if ev.IdentityID != alice {
			t.Errorf("wrong identity on event: %s", ev.IdentityID)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive its event")
	}

	select {
	case ev := <-bobCh:
		t.Fatalf("event leaked to the wrong subscriber: %+v", ev)
	default:
	}
}

func TestEventBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewEventBus()
	id := uuid.New()

	ch, unsubscribe := bus.Subscribe(id)
	unsubscribe()
	unsubscribe() // safe to call twice

	if _, open := <-ch; open {
		t.Fatal("expected a closed channel after unsubscribe")
	}

	// Publishing to a topic with no subscribers must not panic.
	bus.Publish(Event{Kind: EventSignedOut, IdentityID: id})
}
