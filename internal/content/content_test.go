package content

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yousuf/stackbraid/internal/client"
	"github.com/yousuf/stackbraid/internal/config"
)

func TestHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/a.js":
			fmt.Fprint(w, "console.log(1);")
		case "/big.js":
			fmt.Fprint(w, "0123456789")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	h := NewHTTP(time.Second, 5)
	ctx := context.Background()

	_, err := h.Fetch(ctx, srv.URL+"/big.js")
	assert.ErrorContains(t, err, "exceeds 5 bytes")

	h.MaxBytes = 0
	text, err := h.Fetch(ctx, srv.URL+"/a.js")
	require.NoError(t, err)
	assert.Equal(t, "console.log(1);", text)

	_, err = h.Fetch(ctx, srv.URL+"/missing.js")
	var re *RetrievalError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, srv.URL+"/missing.js", re.Location)

	_, err = h.Fetch(ctx, "/local/a.js")
	assert.ErrorIs(t, err, ErrNotHandled)
}

func TestDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "lib", "a.js"), []byte("a"), 0o600))

	d := &Dir{Root: root}
	ctx := context.Background()
	rootSlash := filepath.ToSlash(root)

	tests := []struct {
		name     string
		location string
		want     string
	}{
		{"relative", "lib/a.js", "a"},
		{"absolute under root", rootSlash + "/lib/a.js", "a"},
		{"file url", "file://" + rootSlash + "/lib/a.js", "a"},
		{"absolute elsewhere", "/lib/a.js", "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := d.Fetch(ctx, tt.location)
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)
		})
	}

	_, err := d.Fetch(ctx, "../outside.js")
	var re *RetrievalError
	assert.ErrorAs(t, err, &re)

	_, err = d.Fetch(ctx, "http://x.com/a.js")
	assert.ErrorIs(t, err, ErrNotHandled)
}

func TestChain(t *testing.T) {
	boom := errors.New("boom")
	skip := ProviderFunc(func(context.Context, string) (string, error) { return "", ErrNotHandled })
	fail := ProviderFunc(func(context.Context, string) (string, error) { return "", boom })
	ok := ProviderFunc(func(_ context.Context, loc string) (string, error) { return "found " + loc, nil })

	text, err := Chain{skip, fail, ok}.Fetch(context.Background(), "a.js")
	require.NoError(t, err)
	assert.Equal(t, "found a.js", text)

	_, err = Chain{skip, fail}.Fetch(context.Background(), "a.js")
	assert.ErrorIs(t, err, boom)

	_, err = Chain{skip}.Fetch(context.Background(), "a.js")
	assert.ErrorIs(t, err, ErrNotHandled)
}

func TestCacheCollapsesFetches(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	slow := ProviderFunc(func(_ context.Context, loc string) (string, error) {
		calls.Add(1)
		<-release
		return "text of " + loc, nil
	})
	c := NewCache(slow)

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.Fetch(context.Background(), "a.js")
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, "text of a.js", r)
	}
	_, err := c.Fetch(context.Background(), "a.js")
	require.NoError(t, err)
	assert.LessOrEqual(t, calls.Load(), int32(8))
	assert.Equal(t, 1, c.Len())
	before := calls.Load()
	_, _ = c.Fetch(context.Background(), "a.js")
	assert.Equal(t, before, calls.Load())
}

func TestCacheCancelledCallerDoesNotFailOthers(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	c := NewCache(ProviderFunc(func(ctx context.Context, loc string) (string, error) {
		once.Do(func() { close(started) })
		select {
		case <-release:
			return "text of " + loc, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}))

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Fetch(first, "a.js")
		firstErr <- err
	}()
	<-started

	type result struct {
		text string
		err  error
	}
	second := make(chan result, 1)
	go func() {
		text, err := c.Fetch(context.Background(), "a.js")
		second <- result{text, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, "text of a.js", res.text)
}

func TestCacheSkipsFailures(t *testing.T) {
	var calls atomic.Int32
	c := NewCache(ProviderFunc(func(context.Context, string) (string, error) {
		calls.Add(1)
		return "", errors.New("down")
	}))
	_, err := c.Fetch(context.Background(), "a.js")
	assert.Error(t, err)
	_, err = c.Fetch(context.Background(), "a.js")
	assert.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Zero(t, c.Len())
}

type fetchArgs struct {
	URI string `json:"uri"`
}

func TestMCP(t *testing.T) {
	server := mcp.NewServer(&mcp.Implementation{Name: "files", Version: "1.0.0"}, nil)
	mcp.AddTool(server, &mcp.Tool{Name: "fetch"},
		func(ctx context.Context, req *mcp.CallToolRequest, args fetchArgs) (*mcp.CallToolResult, any, error) {
			return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: "src:" + args.URI}}}, nil, nil
		})
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	ss, err := server.Connect(context.Background(), serverTransport, nil)
	require.NoError(t, err)
	defer ss.Close()

	c, err := client.Dial(context.Background(), "files", clientTransport, nil)
	require.NoError(t, err)
	hub := client.NewHub(nil)
	hub.Add(c)
	defer hub.Close()

	p := &MCP{Hub: hub, Server: "files", Tool: "fetch", PathArgument: "uri"}
	text, err := p.Fetch(context.Background(), "/app/a.js")
	require.NoError(t, err)
	assert.Equal(t, "src:/app/a.js", text)

	_, err = (&MCP{Hub: hub, Server: "other", Tool: "fetch"}).Fetch(context.Background(), "/a.js")
	var re *RetrievalError
	assert.ErrorAs(t, err, &re)
}

func TestNew(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.js"), []byte("a"), 0o600))

	p, err := New(config.ContentConfig{Root: root}, nil)
	require.NoError(t, err)
	text, err := p.Fetch(context.Background(), "a.js")
	require.NoError(t, err)
	assert.Equal(t, "a", text)

	_, err = New(config.ContentConfig{McpServers: map[string]config.McpServerConfig{"x": {Type: "sse", URL: "http://x", Tool: "t"}}}, nil)
	assert.Error(t, err)
}
