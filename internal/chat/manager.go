package chat

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/mindspark-app/mindspark/internal/llm"
)

// Manager hands out sessions by id. Sessions evicted from memory are
// restored from the store when one is configured.
type Manager struct {
	provider llm.Provider
	settings Settings
	store    *Store
	logger   *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager. store may be nil.
func NewManager(provider llm.Provider, settings Settings, store *Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		provider: provider,
		settings: settings.withDefaults(),
		store:    store,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// New starts a fresh session.
func (m *Manager) New() *Session {
	s := NewSession(m.provider, m.settings, m.store, m.logger)
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	return s
}

// Get returns the session with the given id, or ErrSessionNotFound.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	if m.store == nil {
		return nil, ErrSessionNotFound
	}
	entries, err := m.store.LoadTranscript(ctx, id)
	if err != nil {
		return nil, err
	}
	s := newSession(id, m.provider, m.settings, m.store, m.logger, entries)
	m.sessions[id] = s
	return s, nil
}

// Open returns the session with id, or a new one when id is empty or unknown.
func (m *Manager) Open(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return m.New(), nil
	}
	s, err := m.Get(ctx, id)
	if errors.Is(err, ErrSessionNotFound) {
		return m.New(), nil
	}
	return s, err
}

// Forget drops a session from memory. Its stored transcript is kept.
func (m *Manager) Forget(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Delete drops a session from memory and removes its stored transcript.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.Forget(id)
	if m.store == nil {
		return nil
	}
	return m.store.DeleteSession(ctx, id)
}

// Stored returns the number of persisted sessions, or 0 without a store.
func (m *Manager) Stored(ctx context.Context) (int, error) {
	if m.store == nil {
		return 0, nil
	}
	return m.store.CountSessions(ctx)
}

// Len returns the number of sessions held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
