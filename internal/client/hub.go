package client

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/yousuf/stackbraid/internal/config"
	"github.com/yousuf/stackbraid/internal/logging"
	"go.uber.org/zap"
)

// Hub manages the connections to the MCP servers that serve file contents.
type Hub struct {
	clients map[string]*McpClient
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewHub creates an empty Hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*McpClient),
		logger:  logging.OrNop(logger),
	}
}

// Connect establishes connections to all configured MCP servers and checks
// that each one lists its configured tool.
func (h *Hub) Connect(ctx context.Context, servers map[string]config.McpServerConfig) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for name, serverCfg := range servers {
		client, err := NewMcpClient(ctx, name, serverCfg, h.handleToolsChanged)
		if err != nil {
			return fmt.Errorf("failed to connect to server %q: %w", name, err)
		}
		h.clients[name] = client
		if !client.HasTool(serverCfg.Tool) {
			return fmt.Errorf("server %q does not provide tool %q", name, serverCfg.Tool)
		}
	}

	return nil
}

// Add registers an already connected client under its name.
func (h *Hub) Add(c *McpClient) {
	h.mu.Lock()
	h.clients[c.name] = c
	h.mu.Unlock()
}

// CallTool calls a tool on a specific MCP server
func (h *Hub) CallTool(ctx context.Context, serverName, toolName string, args map[string]any) (*mcp.CallToolResult, error) {
	h.mu.RLock()
	client, exists := h.clients[serverName]
	h.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("server %q not found", serverName)
	}

	return client.CallTool(ctx, toolName, args)
}

// ReadText calls a tool and joins the text content of its result. A result
// flagged as an error is returned as an error.
func (h *Hub) ReadText(ctx context.Context, serverName, toolName string, args map[string]any) (string, error) {
	res, err := h.CallTool(ctx, serverName, toolName, args)
	if err != nil {
		return "", err
	}
	text := ResultText(res)
	if res.IsError {
		return "", fmt.Errorf("tool %q on %q failed: %s", toolName, serverName, text)
	}
	return text, nil
}

// ResultText concatenates the text items of a tool result.
func ResultText(res *mcp.CallToolResult) string {
	var b strings.Builder
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

// Servers returns the connected server names in sorted order
func (h *Hub) Servers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.clients))
	for name := range h.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// handleToolsChanged refreshes a server's tool list after it announced a
// change. It runs in its own goroutine to keep the notification handler
// unblocked.
func (h *Hub) handleToolsChanged(serverName string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		h.mu.RLock()
		client, ok := h.clients[serverName]
		h.mu.RUnlock()
		if !ok {
			return
		}
		if err := client.refreshTools(ctx); err != nil {
			h.logger.Warn("failed to refresh tools", zap.String("server", serverName), zap.Error(err))
			return
		}
		h.logger.Debug("refreshed tools", zap.String("server", serverName))
	}()
}

// Close closes all client connections
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var errs []error
	for name, client := range h.clients {
		if err := client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close client %q: %w", name, err))
		}
	}
	h.clients = make(map[string]*McpClient)

	return errors.Join(errs...)
}
