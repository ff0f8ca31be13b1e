package client

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/yousuf/stackbraid/internal/config"
)

// McpClient wraps an MCP client connection
type McpClient struct {
	name    string
	session *mcp.ClientSession

	mu    sync.RWMutex
	tools []*mcp.Tool
}

// NewMcpClient creates a new MCP client based on the configuration.
// onToolsChanged is called when the server announces a new tool list.
func NewMcpClient(ctx context.Context, name string, cfg config.McpServerConfig, onToolsChanged func(name string)) (*McpClient, error) {
	var transport mcp.Transport
	var err error

	switch cfg.Type {
	case "stdio":
		transport, err = createStdioTransport(cfg)
	case "http":
		transport, err = createHttpTransport(cfg)
	case "sse":
		transport, err = createSSETransport(cfg)
	default:
		return nil, fmt.Errorf("unsupported transport type: %s", cfg.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	return Dial(ctx, name, transport, onToolsChanged)
}

// Dial connects over an already built transport and lists the server's tools.
func Dial(ctx context.Context, name string, transport mcp.Transport, onToolsChanged func(name string)) (*McpClient, error) {
	opts := &mcp.ClientOptions{}
	if onToolsChanged != nil {
		opts.ToolListChangedHandler = func(context.Context, *mcp.ToolListChangedRequest) {
			onToolsChanged(name)
		}
	}
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "stackbraid-content-client",
		Version: "1.0.0",
	}, opts)

	session, err := client.Connect(ctx, transport, &mcp.ClientSessionOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	c := &McpClient{name: name, session: session}
	if err := c.refreshTools(ctx); err != nil {
		_ = session.Close()
		return nil, err
	}
	return c, nil
}

// createStdioTransport creates a stdio transport
func createStdioTransport(cfg config.McpServerConfig) (mcp.Transport, error) {
	cmd := exec.Command(cfg.Command, cfg.Args...)

	if cfg.Cwd != "" {
		cmd.Dir = cfg.Cwd
	}

	if len(cfg.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range cfg.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	return &mcp.CommandTransport{Command: cmd}, nil
}

// headerRoundTripper adds the configured headers to every request
type headerRoundTripper struct {
	headers map[string]string
	next    http.RoundTripper
}

// RoundTrip implements the http.RoundTripper interface
func (h *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range h.headers {
		req.Header.Set(k, v)
	}
	return h.next.RoundTrip(req)
}

func headerClient(headers map[string]string) *http.Client {
	if len(headers) == 0 {
		return nil
	}
	return &http.Client{Transport: &headerRoundTripper{headers: headers, next: http.DefaultTransport}}
}

func createHttpTransport(cfg config.McpServerConfig) (mcp.Transport, error) {
	return &mcp.StreamableClientTransport{
		Endpoint:   cfg.URL,
		HTTPClient: headerClient(cfg.Headers),
		MaxRetries: 0,
	}, nil
}

func createSSETransport(cfg config.McpServerConfig) (mcp.Transport, error) {
	return &mcp.SSEClientTransport{
		Endpoint:   cfg.URL,
		HTTPClient: headerClient(cfg.Headers),
	}, nil
}

func (c *McpClient) refreshTools(ctx context.Context) error {
	res, err := c.session.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		return fmt.Errorf("failed to list tools: %w", err)
	}
	c.mu.Lock()
	c.tools = res.Tools
	c.mu.Unlock()
	return nil
}

// CallTool calls a tool on this MCP client
func (c *McpClient) CallTool(ctx context.Context, toolName string, args map[string]any) (*mcp.CallToolResult, error) {
	return c.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
}

// HasTool reports whether the server currently lists toolName
func (c *McpClient) HasTool(toolName string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.tools {
		if t.Name == toolName {
			return true
		}
	}
	return false
}

// Name returns the client name
func (c *McpClient) Name() string {
	return c.name
}

// Close closes the client connection
func (c *McpClient) Close() error {
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}
