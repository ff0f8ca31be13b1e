package content

import (
	"context"

	"github.com/yousuf/stackbraid/internal/client"
)

// MCP reads files through a tool on a downstream MCP server.
type MCP struct {
	Hub    *client.Hub
	Server string
	Tool   string
	// PathArgument names the tool argument holding the location ("path" if empty).
	PathArgument string
}

func (m *MCP) Fetch(ctx context.Context, location string) (string, error) {
	arg := m.PathArgument
	if arg == "" {
		arg = "path"
	}
	text, err := m.Hub.ReadText(ctx, m.Server, m.Tool, map[string]any{arg: location})
	if err != nil {
		return "", &RetrievalError{Location: location, Err: err}
	}
	return text, nil
}
