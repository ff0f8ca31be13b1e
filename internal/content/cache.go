package content

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache remembers successful fetches and collapses concurrent requests for
// the same location into one. Failures are not cached.
type Cache struct {
	next  Provider
	group singleflight.Group
	mu    sync.RWMutex
	items map[string]string
}

// NewCache wraps next with a cache.
func NewCache(next Provider) *Cache {
	return &Cache{next: next, items: make(map[string]string)}
}

func (c *Cache) Fetch(ctx context.Context, location string) (string, error) {
	c.mu.RLock()
	text, ok := c.items[location]
	c.mu.RUnlock()
	if ok {
		return text, nil
	}

	// The fetch ignores caller cancellation; each caller waits on its own ctx.
	ch := c.group.DoChan(location, func() (any, error) {
		text, err := c.next.Fetch(context.WithoutCancel(ctx), location)
		if err != nil {
			return "", err
		}
		c.mu.Lock()
		c.items[location] = text
		c.mu.Unlock()
		return text, nil
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Len reports the number of cached locations.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
