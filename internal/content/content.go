// Package content fetches the text of source files and source maps that
// stack frames point at.
package content

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/yousuf/stackbraid/internal/client"
	"github.com/yousuf/stackbraid/internal/config"
)

// ErrNotHandled is returned by a provider asked for a location it does not
// serve, such as an http URL given to a directory provider.
var ErrNotHandled = errors.New("location not handled")

// Provider returns the text content found at a URL or path.
type Provider interface {
	Fetch(ctx context.Context, location string) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, location string) (string, error)

func (f ProviderFunc) Fetch(ctx context.Context, location string) (string, error) {
	return f(ctx, location)
}

// RetrievalError reports that the content at Location could not be fetched.
type RetrievalError struct {
	Location string
	Err      error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("failed to retrieve %q: %v", e.Location, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// Chain asks each provider in turn and returns the first content found.
type Chain []Provider

func (c Chain) Fetch(ctx context.Context, location string) (string, error) {
	var errs []error
	for _, p := range c {
		text, err := p.Fetch(ctx, location)
		if err == nil {
			return text, nil
		}
		if !errors.Is(err, ErrNotHandled) {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return "", &RetrievalError{Location: location, Err: ErrNotHandled}
	}
	return "", &RetrievalError{Location: location, Err: errors.Join(errs...)}
}

// New builds the provider chain described by cfg: the local root first, then
// http(s), then each MCP server in name order. hub may be nil when cfg
// configures no MCP servers.
func New(cfg config.ContentConfig, hub *client.Hub) (Provider, error) {
	var chain Chain
	if cfg.Root != "" {
		chain = append(chain, &Dir{Root: cfg.Root})
	}
	if cfg.HTTP.Enabled {
		timeout, err := cfg.HTTP.TimeoutDuration()
		if err != nil {
			return nil, fmt.Errorf("invalid http timeout: %w", err)
		}
		chain = append(chain, NewHTTP(timeout, cfg.HTTP.MaxBytes))
	}

	names := make([]string, 0, len(cfg.McpServers))
	for name := range cfg.McpServers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if hub == nil {
			return nil, fmt.Errorf("server %q configured without a client hub", name)
		}
		s := cfg.McpServers[name]
		chain = append(chain, &MCP{Hub: hub, Server: name, Tool: s.Tool, PathArgument: s.PathArgument})
	}
	return NewCache(chain), nil
}
