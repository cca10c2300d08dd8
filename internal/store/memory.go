package store

import (
	"context"
	"sync"
	"time"

	"facility-intake-backend/internal/chat"
	"facility-intake-backend/internal/types"
)

// SessionStore maps browser sessions to their chat aggregators. Sessions idle
// longer than the TTL are dropped on the next sweep.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	ttl      time.Duration
	create   func() *chat.Aggregator
	now      func() time.Time
}

type sessionEntry struct {
	agg      *chat.Aggregator
	lastSeen time.Time
}

func NewSessionStore(ttl time.Duration, create func() *chat.Aggregator) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
		create:   create,
		now:      time.Now,
	}
}

// Aggregator returns the session's aggregator, creating one on first use.
func (m *SessionStore) Aggregator(sessionID string) *chat.Aggregator {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[sessionID]
	if !ok {
		e = &sessionEntry{agg: m.create()}
		m.sessions[sessionID] = e
	}
	e.lastSeen = m.now()
	return e.agg
}

func (m *SessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops idle sessions and reports how many were removed. Sessions with
// a reply still streaming are kept.
func (m *SessionStore) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, e := range m.sessions {
		if m.now().Sub(e.lastSeen) <= m.ttl {
			continue
		}
		if s := e.agg.State(); s == chat.StateSending || s == chat.StateStreaming {
			continue
		}
		delete(m.sessions, id)
		removed++
	}
	return removed
}

// MemoryRecoveryStore keeps the recovery copy in process memory.
type MemoryRecoveryStore struct {
	mu   sync.RWMutex
	last *types.SurveyPayload
}

func NewMemoryRecoveryStore() *MemoryRecoveryStore {
	return &MemoryRecoveryStore{}
}

func (m *MemoryRecoveryStore) SaveLastSubmission(_ context.Context, p types.SurveyPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = &p
	return nil
}

func (m *MemoryRecoveryStore) LoadLastSubmission(_ context.Context) (*types.SurveyPayload, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.last == nil {
		return nil, nil
	}
	out := *m.last
	return &out, nil
}
