package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"github.com/yousuf/stackbraid/internal/server"
	"github.com/yousuf/stackbraid/internal/session"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the stack trace tools over MCP (streamable HTTP)",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().String("addr", "", "listen address (default from config)")
	cmd.Flags().Duration("session-idle", 30*time.Minute, "drop sessions idle for longer than this")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.Server.Addr
	}
	idle, _ := cmd.Flags().GetDuration("session-idle")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	provider, closeProvider, err := newProvider(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeProvider()

	sessionMgr := session.NewManager(provider)
	opts := server.Options{
		Logger:      logger,
		Window:      cfg.Enrich.Window,
		Concurrency: cfg.Batch.Concurrency,
		WasmPath:    cfg.Sandbox.WasmPath,
	}

	handler := mcp.NewStreamableHTTPHandler(func(req *http.Request) *mcp.Server {
		// A server per request lets the SDK manage sessions
		return server.NewMcpServer(sessionMgr, opts)
	}, &mcp.StreamableHTTPOptions{
		SessionTimeout: idle,
	})

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go expireSessions(ctx, sessionMgr, idle, logger)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("stackbraid MCP server listening", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	logger.Info("shutting down server")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	sessionMgr.CloseAll()

	logger.Info("server stopped")
	return nil
}

// expireSessions drops idle sessions until ctx is done.
func expireSessions(ctx context.Context, mgr *session.Manager, idle time.Duration, logger *zap.Logger) {
	if idle <= 0 {
		return
	}
	ticker := time.NewTicker(min(idle, time.Minute))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ids := mgr.Expire(idle); len(ids) > 0 {
				logger.Debug("expired sessions", zap.Strings("sessions", ids))
			}
		}
	}
}
