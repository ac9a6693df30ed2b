package appstate

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

// Store is the durable side of the persistence boundary. Load reports false
// when nothing has been saved for id.
type Store interface {
	Load(ctx context.Context, id string) (State, bool, error)
	Save(ctx context.Context, id string, s State) error
}

// SQLStore keeps one JSONB document per session in the app_state table.
type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

func (s *SQLStore) Load(ctx context.Context, id string) (State, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM app_state WHERE id = ?`, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, err
	}

	var st State
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return State{}, false, err
	}
	return st, true, nil
}

func (s *SQLStore) Save(ctx context.Context, id string, st State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO app_state (id, data, updated_at) VALUES (?, jsonb(?), ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		id, string(data), s.now().UTC().Format(time.RFC3339),
	)
	return err
}

// MemoryStore keeps snapshots in process, as JSON so loads never alias
// saved state.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (m *MemoryStore) Load(_ context.Context, id string) (State, bool, error) {
	m.mu.Lock()
	data, ok := m.docs[id]
	m.mu.Unlock()
	if !ok {
		return State{}, false, nil
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, false, err
	}
	return st, true, nil
}

func (m *MemoryStore) Save(_ context.Context, id string, st State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.docs[id] = data
	m.mu.Unlock()
	return nil
}
