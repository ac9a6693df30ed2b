package appstate

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultCapacity = 10_000
	defaultIdleTTL  = 2 * time.Hour
)

// Manager hands out sessions by id. Sessions are created lazily, hydrate
// from the store in the background and are dropped from memory once idle.
type Manager struct {
	store    Store
	onChange func(Snapshot)
	capacity int
	idleTTL  time.Duration

	mu    sync.Mutex
	cache *expirable.LRU[string, *Session]

	// draining holds evicted sessions until their pending saves land, so a
	// quick return reuses them instead of loading a stale row.
	drainMu  sync.Mutex
	draining map[string]*Session
	drains   sync.WaitGroup
}

type ManagerOption func(*Manager)

// WithCapacity bounds how many sessions stay in memory and how long an
// unused one is kept.
func WithCapacity(size int, idleTTL time.Duration) ManagerOption {
	return func(m *Manager) {
		if size > 0 {
			m.capacity = size
		}
		if idleTTL > 0 {
			m.idleTTL = idleTTL
		}
	}
}

// NewManager returns a manager backed by store. onChange, when set, receives
// every committed snapshot.
func NewManager(store Store, onChange func(Snapshot), opts ...ManagerOption) *Manager {
	m := &Manager{
		store:    store,
		onChange: onChange,
		capacity: defaultCapacity,
		idleTTL:  defaultIdleTTL,
		draining: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.cache = expirable.NewLRU[string, *Session](m.capacity, m.evicted, m.idleTTL)
	return m
}

// evicted runs under the cache lock and must not call back into it.
func (m *Manager) evicted(id string, s *Session) {
	m.drainMu.Lock()
	m.draining[id] = s
	m.drainMu.Unlock()

	m.drains.Add(1)
	go func() {
		defer m.drains.Done()
		s.Flush()

		m.drainMu.Lock()
		if m.draining[id] == s {
			delete(m.draining, id)
		}
		m.drainMu.Unlock()
	}()
}

// Create starts a fresh session that needs no hydration.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	id := uuid.NewString()
	s := newSession(id, m.store, m.onChange)
	s.markHydrated()

	m.mu.Lock()
	m.cache.Add(id, s)
	m.mu.Unlock()

	if _, err := s.Apply(ctx, func(st State) (State, error) { return st, nil }); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the session for id, starting its hydration on first use.
func (m *Manager) Get(id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.cache.Get(id); ok {
		return s, nil
	}

	m.drainMu.Lock()
	s, ok := m.draining[id]
	delete(m.draining, id)
	m.drainMu.Unlock()
	if ok {
		m.cache.Add(id, s)
		return s, nil
	}

	s = newSession(id, m.store, m.onChange)
	m.cache.Add(id, s)
	go s.hydrate(context.Background())
	return s, nil
}

// Len reports how many sessions are held in memory.
func (m *Manager) Len() int {
	return m.cache.Len()
}

// Close waits for every scheduled save to finish.
func (m *Manager) Close() error {
	for _, s := range m.cache.Values() {
		s.Flush()
	}
	m.drains.Wait()
	return nil
}
