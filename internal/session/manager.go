package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yousuf/stackbraid/internal/content"
)

// Manager manages session contexts
type Manager struct {
	sessions map[string]*Context
	mu       sync.RWMutex
	provider content.Provider
}

// NewManager creates a new session manager whose sessions fetch content
// through provider
func NewManager(provider content.Provider) *Manager {
	return &Manager{
		sessions: make(map[string]*Context),
		provider: provider,
	}
}

// GetOrCreateSession gets an existing session or creates a new one
func (m *Manager) GetOrCreateSession(ctx context.Context, sessionID string) (*Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	session, exists := m.sessions[sessionID]
	m.mu.RUnlock()

	if exists {
		return session, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if session, exists := m.sessions[sessionID]; exists {
		return session, nil
	}

	session = NewContext(sessionID, m.provider)
	m.sessions[sessionID] = session

	return session, nil
}

// GetSession retrieves an existing session
func (m *Manager) GetSession(sessionID string) *Context {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[sessionID]
}

// DeleteSession removes a session
func (m *Manager) DeleteSession(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[sessionID]; !exists {
		return fmt.Errorf("session %q not found", sessionID)
	}

	delete(m.sessions, sessionID)
	return nil
}

// Expire removes sessions idle for longer than maxIdle and returns their ids
func (m *Manager) Expire(maxIdle time.Duration) []string {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()

	var expired []string
	for id, session := range m.sessions {
		if session.LastAccessed().Before(cutoff) {
			expired = append(expired, id)
			delete(m.sessions, id)
		}
	}
	return expired
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll drops all sessions
func (m *Manager) CloseAll() {
	m.mu.Lock()
	m.sessions = make(map[string]*Context)
	m.mu.Unlock()
}
