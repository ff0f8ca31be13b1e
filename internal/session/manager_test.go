package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yousuf/stackbraid/internal/content"
)

var noContent = content.ProviderFunc(func(context.Context, string) (string, error) {
	return "", content.ErrNotHandled
})

func TestGetOrCreateSession(t *testing.T) {
	m := NewManager(noContent)
	ctx := context.Background()

	var wg sync.WaitGroup
	got := make([]*Context, 10)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := m.GetOrCreateSession(ctx, "s1")
			assert.NoError(t, err)
			got[i] = s
		}(i)
	}
	wg.Wait()

	for _, s := range got {
		assert.Same(t, got[0], s)
	}
	assert.Equal(t, 1, m.Len())
	assert.Same(t, got[0], m.GetSession("s1"))
	assert.Nil(t, m.GetSession("s2"))
}

func TestDeleteSession(t *testing.T) {
	m := NewManager(noContent)
	_, err := m.GetOrCreateSession(context.Background(), "s1")
	require.NoError(t, err)

	require.NoError(t, m.DeleteSession("s1"))
	assert.Error(t, m.DeleteSession("s1"))
	assert.Zero(t, m.Len())
}

func TestExpire(t *testing.T) {
	m := NewManager(noContent)
	old, err := m.GetOrCreateSession(context.Background(), "old")
	require.NoError(t, err)
	_, err = m.GetOrCreateSession(context.Background(), "fresh")
	require.NoError(t, err)

	old.mu.Lock()
	old.lastAccessed = time.Now().Add(-time.Hour)
	old.mu.Unlock()

	assert.Equal(t, []string{"old"}, m.Expire(time.Minute))
	assert.Nil(t, m.GetSession("old"))
	assert.NotNil(t, m.GetSession("fresh"))

	m.CloseAll()
	assert.Zero(t, m.Len())
}

func TestSessionsCacheContent(t *testing.T) {
	calls := 0
	m := NewManager(content.ProviderFunc(func(context.Context, string) (string, error) {
		calls++
		return "src", nil
	}))
	s, err := m.GetOrCreateSession(context.Background(), "s1")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		text, err := s.Content.Fetch(context.Background(), "a.js")
		require.NoError(t, err)
		assert.Equal(t, "src", text)
	}
	assert.Equal(t, 1, calls)
}

func TestGetOrCreateSessionCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewManager(noContent).GetOrCreateSession(ctx, "s1")
	assert.ErrorIs(t, err, context.Canceled)
}
