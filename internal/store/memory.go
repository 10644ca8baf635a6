package store

import (
	"context"
	"sync"
)

// Memory is an in-process Store used by tests and as a fallback when no
// DATABASE_URL is configured. Durable only for the lifetime of the process.
type Memory struct {
	mu      sync.Mutex
	matches map[string]MatchRecord
	ratings map[string]PlayerRating // principal id -> row
}

func NewMemory() *Memory {
	return &Memory{
		matches: make(map[string]MatchRecord),
		ratings: make(map[string]PlayerRating),
	}
}

// SaveMatchRecord archives a finished session. The first write for a session
// id wins; replays of the same finalize are ignored.
func (m *Memory) SaveMatchRecord(_ context.Context, rec MatchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.matches[rec.ID]; ok {
		return nil
	}
	m.matches[rec.ID] = rec
	return nil
}

func (m *Memory) GetMatchRecord(_ context.Context, id string) (MatchRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.matches[id]
	if !ok {
		return MatchRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *Memory) GetPlayerRating(_ context.Context, principalID string) (PlayerRating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pr, ok := m.ratings[principalID]
	if !ok {
		return PlayerRating{}, ErrNotFound
	}
	return pr, nil
}

func (m *Memory) SavePlayerRating(_ context.Context, pr PlayerRating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratings[pr.PrincipalID] = pr
	return nil
}

// MatchCount reports how many records are archived. Test helper.
func (m *Memory) MatchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.matches)
}
