package appstate

import (
	"context"
	"sync"
	"time"

	"github.com/yashy10/golden-gate-quest/internal/logger"
	"github.com/yashy10/golden-gate-quest/internal/metrics"
	"github.com/yashy10/golden-gate-quest/internal/quest"
)

const saveTimeout = 5 * time.Second

// Snapshot is a read of a session at one point in time.
type Snapshot struct {
	ID       string        `json:"id"`
	State    State         `json:"state"`
	Hydrated bool          `json:"hydrated"`
	Route    Route         `json:"route"`
	Progress quest.Summary `json:"progress"`
	Version  uint64        `json:"version"`
}

// Session serializes every mutation of one user's state. It starts
// unhydrated; mutations wait until the first load attempt has finished.
type Session struct {
	id       string
	store    Store
	onChange func(Snapshot)

	// pubMu keeps onChange calls in commit order.
	pubMu sync.Mutex

	mu       sync.Mutex
	state    State
	hydrated bool
	seq      uint64
	version  uint64
	ready    chan struct{}

	saveMu       sync.Mutex
	savedVersion uint64
	saves        sync.WaitGroup
}

func newSession(id string, store Store, onChange func(Snapshot)) *Session {
	return &Session{
		id:       id,
		store:    store,
		onChange: onChange,
		state:    Initial(),
		ready:    make(chan struct{}),
	}
}

func (s *Session) ID() string { return s.id }

// hydrate loads the stored state once. A load failure keeps the initial
// state and still marks the session hydrated.
func (s *Session) hydrate(ctx context.Context) {
	st, found, err := s.store.Load(ctx, s.id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hydrated {
		return
	}
	switch {
	case err != nil:
		metrics.PersistenceFailures.WithLabelValues("load").Inc()
		logger.FromContext(ctx).Warn("loading session state failed, starting fresh", "session_id", s.id, "error", err)
	case found:
		if st.SelectedCategories == nil {
			st.SelectedCategories = []quest.Category{}
		}
		if st.OnboardingStep < 1 {
			st.OnboardingStep = 1
		}
		s.state = st
	}
	s.hydrated = true
	close(s.ready)
}

// markHydrated is used for brand new sessions that have nothing to load.
func (s *Session) markHydrated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hydrated {
		s.hydrated = true
		close(s.ready)
	}
}

// WaitHydrated blocks until the first load attempt has finished.
func (s *Session) WaitHydrated(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	st := clone(s.state)
	return Snapshot{
		ID:       s.id,
		State:    st,
		Hydrated: s.hydrated,
		Route:    Decide(st, s.hydrated),
		Progress: Progress(st),
		Version:  s.version,
	}
}

// Apply runs fn against the current state and, when it succeeds, stores the
// result and schedules a save. fn must not block.
func (s *Session) Apply(ctx context.Context, fn func(State) (State, error)) (Snapshot, error) {
	if err := s.WaitHydrated(ctx); err != nil {
		return Snapshot{}, err
	}

	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	next, err := fn(clone(s.state))
	if err != nil {
		s.mu.Unlock()
		return Snapshot{}, err
	}
	snap := s.commitLocked(ctx, next)
	s.mu.Unlock()

	if s.onChange != nil {
		s.onChange(snap)
	}
	return snap, nil
}

// Reset clears the state and invalidates any generation in flight.
func (s *Session) Reset(ctx context.Context) (Snapshot, error) {
	return s.Apply(ctx, func(st State) (State, error) {
		s.seq++
		return Reset(st), nil
	})
}

// BeginGeneration returns the token a later CommitQuest must present. Each
// call supersedes every earlier token.
func (s *Session) BeginGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// CommitQuest installs q unless a newer generation began after token was
// issued, in which case it fails with ErrStaleGeneration.
func (s *Session) CommitQuest(ctx context.Context, token uint64, q quest.Quest) (Snapshot, error) {
	return s.Apply(ctx, func(st State) (State, error) {
		if token != s.seq {
			metrics.StaleGenerations.Inc()
			logger.FromContext(ctx).Warn("dropping stale quest", "session_id", s.id, "quest_id", q.ID)
			return st, ErrStaleGeneration
		}
		return SetQuest(st, q), nil
	})
}

func (s *Session) commitLocked(ctx context.Context, next State) Snapshot {
	s.state = next
	s.version++
	snap := s.snapshotLocked()

	version := s.version
	state := snap.State
	s.saves.Add(1)
	go func() {
		defer s.saves.Done()
		s.persist(context.WithoutCancel(ctx), version, state)
	}()
	return snap
}

// persist writes state unless a newer version has already been written.
// Failures are logged and counted; the in-memory state stays authoritative.
func (s *Session) persist(ctx context.Context, version uint64, st State) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if version <= s.savedVersion {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()
	if err := s.store.Save(ctx, s.id, st); err != nil {
		metrics.PersistenceFailures.WithLabelValues("save").Inc()
		logger.FromContext(ctx).Warn("saving session state failed", "session_id", s.id, "error", err)
		return
	}
	s.savedVersion = version
}

// Flush waits for scheduled saves to finish.
func (s *Session) Flush() {
	s.saves.Wait()
}
