package session

import (
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/fleetduel/fleetduel/internal/board"
	"github.com/fleetduel/fleetduel/internal/models"
	"github.com/fleetduel/fleetduel/internal/store"
)

var ErrSessionNotFound = errors.New("session: session not found")

// Manager indexes live sessions by id and by participant. Its mutex only
// guards the maps; session mutations take each session's own lock, so
// unrelated sessions never serialise on each other.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	byPlayer map[string]string // principal id -> session id
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		byPlayer: make(map[string]string),
	}
}

// Create builds a session for a confirmed pairing and registers both
// participants.
func (m *Manager) Create(principals [2]models.Principal, fleets [2]board.Layout, cfg Config, events Events, st store.Store) *Session {
	s := New(uuid.NewString(), principals, fleets, cfg, events, st)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.byPlayer[principals[0].ID] = s.ID
	m.byPlayer[principals[1].ID] = s.ID
	m.mu.Unlock()
	log.Printf("session %s: created p1=%s p2=%s", s.ID, principals[0].ID, principals[1].ID)
	return s
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// ForPrincipal finds the live session a principal participates in.
func (m *Manager) ForPrincipal(principalID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byPlayer[principalID]
	if !ok {
		return nil, false
	}
	s, ok := m.sessions[id]
	return s, ok
}

// Remove drops a finished session from the live index. The archived record
// remains in the store.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return
	}
	delete(m.sessions, id)
	for _, ps := range s.players {
		if m.byPlayer[ps.Principal.ID] == id {
			delete(m.byPlayer, ps.Principal.ID)
		}
	}
}

func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Each visits every live session. Used by the debug inventory endpoint.
func (m *Manager) Each(fn func(s *Session)) {
	m.mu.Lock()
	list := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	m.mu.Unlock()
	for _, s := range list {
		fn(s)
	}
}
