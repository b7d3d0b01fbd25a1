package session

import (
	"context"
	"sync"
	"time"
)

// sweepInterval is how often cached sessions are re-checked against their
// credentials. Tokens that expired or were revoked between requests are
// evicted on the next sweep at the latest.
const sweepInterval = time.Minute

// Manager hands out one Tracker per bearer token. Trackers outlive the
// request that created them; their background work runs on the manager's
// context, not the request's.
type Manager struct {
	identities IdentitySource
	profiles   ProfileSource
	events     EventSource

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	trackers map[string]*Tracker
}

// NewManager creates a Manager over the given collaborator boundaries and
// starts the eviction sweep.
func NewManager(identities IdentitySource, profiles ProfileSource, events EventSource) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		identities: identities,
		profiles:   profiles,
		events:     events,
		ctx:        ctx,
		cancel:     cancel,
		trackers:   make(map[string]*Tracker),
	}

	m.wg.Add(1)
	go m.sweepLoop()

	return m
}

// Acquire returns the tracker for token, creating and starting one on first
// sight. The token is validated against the identity provider on every call,
// cache hit or not: a cached session must never outlive its credentials, so
// an expired or revoked token evicts its tracker and fails the acquire.
func (m *Manager) Acquire(ctx context.Context, token string) (*Tracker, error) {
	m.mu.Lock()
	cached, hit := m.trackers[token]
	m.mu.Unlock()

	ident, err := m.identities.CurrentIdentity(ctx, token)
	if err != nil {
		if hit {
			m.Release(token)
		}
		return nil, err
	}
	if hit {
		return cached, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.trackers[token]; ok {
		return t, nil
	}

	t := NewTracker(token, ident.ID, m.identities, m.profiles, m.events)
	t.Start(m.ctx)
	m.trackers[token] = t
	return t, nil
}

// Release closes and forgets the tracker for token, if any.
func (m *Manager) Release(token string) {
	m.mu.Lock()
	t, ok := m.trackers[token]
	delete(m.trackers, token)
	m.mu.Unlock()

	if ok {
		t.Close()
	}
}

// sweepLoop evicts trackers whose tokens no longer resolve, until Close.
func (m *Manager) sweepLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

// sweep re-validates every cached token and releases the stale ones.
func (m *Manager) sweep() {
	m.mu.Lock()
	tokens := make([]string, 0, len(m.trackers))
	for token := range m.trackers {
		tokens = append(tokens, token)
	}
	m.mu.Unlock()

	for _, token := range tokens {
		if _, err := m.identities.CurrentIdentity(m.ctx, token); err != nil {
			m.Release(token)
		}
	}
}

// Close tears down every tracker and stops background resolution.
func (m *Manager) Close() {
	m.cancel()
	m.wg.Wait()

	m.mu.Lock()
	trackers := m.trackers
	m.trackers = make(map[string]*Tracker)
	m.mu.Unlock()

	for _, t := range trackers {
		t.Close()
	}
}
