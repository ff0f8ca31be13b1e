package session

import (
	"sync"
	"time"

	"github.com/yousuf/stackbraid/internal/content"
)

// Context represents a session context with its associated resources
type Context struct {
	SessionID string
	// Content caches fetched sources and maps for the lifetime of the session.
	Content *content.Cache

	mu           sync.Mutex
	lastAccessed time.Time
}

// NewContext creates a new session context reading content through provider
func NewContext(sessionID string, provider content.Provider) *Context {
	return &Context{
		SessionID:    sessionID,
		Content:      content.NewCache(provider),
		lastAccessed: time.Now(),
	}
}

// UpdateLastAccessed marks the session as used now
func (c *Context) UpdateLastAccessed() {
	c.mu.Lock()
	c.lastAccessed = time.Now()
	c.mu.Unlock()
}

// LastAccessed returns when the session was last used
func (c *Context) LastAccessed() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastAccessed
}
