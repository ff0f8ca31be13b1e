package main

import (
	"context"

	"github.com/yousuf/stackbraid/internal/client"
	"github.com/yousuf/stackbraid/internal/config"
	"github.com/yousuf/stackbraid/internal/content"
	"go.uber.org/zap"
)

// newProvider connects the configured MCP servers and builds the content
// provider chain over them. The returned func closes the connections.
func newProvider(ctx context.Context, cfg *config.Config, logger *zap.Logger) (content.Provider, func(), error) {
	hub := client.NewHub(logger)
	closeHub := func() {
		if err := hub.Close(); err != nil {
			logger.Warn("failed to close MCP clients", zap.Error(err))
		}
	}

	if len(cfg.Content.McpServers) > 0 {
		if err := hub.Connect(ctx, cfg.Content.McpServers); err != nil {
			closeHub()
			return nil, nil, err
		}
		logger.Info("connected to MCP servers", zap.Strings("servers", hub.Servers()))
	}

	provider, err := content.New(cfg.Content, hub)
	if err != nil {
		closeHub()
		return nil, nil, err
	}
	return provider, closeHub, nil
}
