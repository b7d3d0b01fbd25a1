// Package session tracks the authenticated state of one client session and
// derives the capability tier a view may render with. Two asynchronous
// sources feed the same state: the initial identity/profile resolution and
// the provider's authentication event stream. Resolutions carry a sequence
// token; only the latest issued resolution may apply its result, so a
// sign-out or a newer sign-in always wins over a slower, older lookup.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"rockford-panel/internal/identity"
	"rockford-panel/internal/models"
)

// State is the lifecycle state of a tracked session.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent view of the tracker's state. Identity and Profile
// always come from the same resolution; consumers never see a mixed pair.
type Snapshot struct {
	State    State
	Identity *models.Identity
	Profile  *models.Profile
}

// IdentitySource is the slice of the identity provider the tracker needs.
type IdentitySource interface {
	CurrentIdentity(ctx context.Context, token string) (*models.Identity, error)
	SignOut(ctx context.Context, identityID uuid.UUID) error
}

// ProfileSource looks up the profile for an identity. Errors and missing
// rows are recovered with a fallback profile, never surfaced.
type ProfileSource interface {
	ProfileByID(ctx context.Context, identityID uuid.UUID) (*models.Profile, error)
}

// EventSource is the authentication event stream the tracker subscribes to.
type EventSource interface {
	Subscribe(identityID uuid.UUID) (<-chan identity.Event, func())
}

// Tracker owns the cached identity/profile pair for one bearer token. It is
// the sole writer of that state; everything else only reads snapshots.
type Tracker struct {
	token      string
	boundID    uuid.UUID
	identities IdentitySource
	profiles   ProfileSource
	events     EventSource

	mu          sync.Mutex
	state       State
	ident       *models.Identity
	profile     *models.Profile
	seq         uint64 // latest issued resolution token
	settled     chan struct{}
	closed      bool
	unsubscribe func()
	wg          sync.WaitGroup
}

// NewTracker creates a tracker for the given token. boundID is the identity
// the token was issued to; it scopes the event subscription.
func NewTracker(token string, boundID uuid.UUID, identities IdentitySource, profiles ProfileSource, events EventSource) *Tracker {
	return &Tracker{
		token:      token,
		boundID:    boundID,
		identities: identities,
		profiles:   profiles,
		events:     events,
		state:      StateUninitialized,
		settled:    make(chan struct{}),
	}
}

// Start subscribes to the event stream and kicks off the initial resolution.
// Both run until Close.
func (t *Tracker) Start(ctx context.Context) {
	ch, unsubscribe := t.events.Subscribe(t.boundID)

	t.mu.Lock()
	t.unsubscribe = unsubscribe
	t.state = StateLoading
	t.seq++
	seq := t.seq
	t.mu.Unlock()

	go t.resolve(ctx, seq)

	t.wg.Add(1)
	go t.watch(ctx, ch)
}

// resolve performs one identity+profile resolution and tries to apply it
// under the given sequence token. It is safe to run concurrently with
// itself; only the resolution holding the latest token lands.
func (t *Tracker) resolve(ctx context.Context, seq uint64) {
	ident, err := t.identities.CurrentIdentity(ctx, t.token)
	if err != nil {
		t.apply(seq, StateUnauthenticated, nil, nil)
		return
	}

	profile, err := t.profiles.ProfileByID(ctx, ident.ID)
	if err != nil || profile == nil {
		// Missing or unreadable profile must never fail the session check.
		profile = models.FallbackProfile(ident.ID, ident.Email)
	}

	t.apply(seq, StateReady, ident, profile)
}

// apply installs a resolution result if it is still the latest one.
func (t *Tracker) apply(seq uint64, state State, ident *models.Identity, profile *models.Profile) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || seq != t.seq {
		return // stale completion, a newer resolution or a sign-out superseded it
	}

	t.state = state
	t.ident = ident
	t.profile = profile
	t.settleLocked()
}

// settleLocked wakes WaitReady callers. Caller must hold t.mu.
func (t *Tracker) settleLocked() {
	select {
	case <-t.settled:
	default:
		close(t.settled)
	}
}

// watch consumes the authentication event stream until the subscription is
// released.
func (t *Tracker) watch(ctx context.Context, ch <-chan identity.Event) {
	defer t.wg.Done()

	for ev := range ch {
		switch ev.Kind {
		case identity.EventSignedOut:
			t.mu.Lock()
			if t.closed {
				t.mu.Unlock()
				return
			}
			t.seq++ // invalidate any in-flight resolution
			t.state = StateUnauthenticated
			t.ident = nil
			t.profile = nil
			t.settleLocked()
			t.mu.Unlock()

		case identity.EventSignedIn:
			// A sign-in may carry a different identity than the cached one;
			// re-run the full resolution.
			t.mu.Lock()
			if t.closed {
				t.mu.Unlock()
				return
			}
			t.seq++
			seq := t.seq
			t.state = StateLoading
			t.settled = make(chan struct{})
			t.mu.Unlock()

			go t.resolve(ctx, seq)
		}
	}
}

// Snapshot returns the current state, identity and profile as one unit.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{State: t.state, Identity: t.ident, Profile: t.profile}
}

// WaitReady blocks until the session has settled into ready or
// unauthenticated, or the context expires. Views must not render protected
// content before this returns.
func (t *Tracker) WaitReady(ctx context.Context) Snapshot {
	for {
		t.mu.Lock()
		state := t.state
		settled := t.settled
		t.mu.Unlock()

		if state == StateReady || state == StateUnauthenticated {
			return t.Snapshot()
		}

		select {
		case <-settled:
		case <-ctx.Done():
			return Snapshot{State: state}
		}
	}
}

// Logout signs the bound identity out at the provider. The state transition
// happens via the resulting EventSignedOut, not here, so a consumer never
// navigates twice.
func (t *Tracker) Logout(ctx context.Context) error {
	return t.identities.SignOut(ctx, t.boundID)
}

// Close releases the event subscription. Resolutions completing afterwards
// are discarded; the tracker mutates nothing once closed.
func (t *Tracker) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	unsubscribe := t.unsubscribe
	t.settleLocked()
	t.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	t.wg.Wait()
}
