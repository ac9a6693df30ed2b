package server

import (
	"encoding/json"
	"sync"

	"github.com/yashy10/golden-gate-quest/internal/appstate"
	"github.com/yashy10/golden-gate-quest/internal/quest"
)

// StateEvent is the payload pushed to a session's subscribers after every
// committed change.
type StateEvent struct {
	Type     string         `json:"type"`
	Route    appstate.Route `json:"route"`
	Progress quest.Summary  `json:"progress"`
	QuestID  string         `json:"questId,omitempty"`
	Version  uint64         `json:"version"`
}

// Broker is an in-process pub/sub for SSE events, keyed by session ID.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for the session.
func (b *Broker) Subscribe(sessionID string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[chan []byte]struct{})
	}
	b.subs[sessionID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(sessionID string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[sessionID], ch)
	if len(b.subs[sessionID]) == 0 {
		delete(b.subs, sessionID)
	}
	b.mu.Unlock()
}

// Publish turns a snapshot into a state event for its session. It matches
// the appstate.Manager change hook.
func (b *Broker) Publish(snap appstate.Snapshot) {
	data := encodeEvent(snap)

	b.mu.RLock()
	for ch := range b.subs[snap.ID] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}

func encodeEvent(snap appstate.Snapshot) []byte {
	ev := StateEvent{Type: "state", Route: snap.Route, Progress: snap.Progress, Version: snap.Version}
	if q := snap.State.CurrentQuest; q != nil {
		ev.QuestID = q.ID
	}
	data, _ := json.Marshal(ev)
	return data
}
