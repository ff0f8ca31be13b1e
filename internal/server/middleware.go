package server

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/yousuf/stackbraid/internal/session"
	"go.uber.org/zap"
)

// sessionContextKey is the context key for storing session context
type contextKey string

const sessionContextKey contextKey = "session"

// getSessionFromContext retrieves the session context from the request context.
func getSessionFromContext(ctx context.Context) (*session.Context, error) {
	sessionCtx, ok := ctx.Value(sessionContextKey).(*session.Context)
	if !ok || sessionCtx == nil {
		return nil, fmt.Errorf("session context not found in request context")
	}
	return sessionCtx, nil
}

// createSessionInjectionMiddleware stores the caller's session context in the
// request context, creating the session on first use.
func createSessionInjectionMiddleware(sessionMgr *session.Manager) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(
			ctx context.Context,
			method string,
			req mcp.Request,
		) (mcp.Result, error) {
			sessionID := req.GetSession().ID()

			sessionCtx, err := sessionMgr.GetOrCreateSession(ctx, sessionID)
			if err != nil {
				return nil, fmt.Errorf("failed to get/create session: %w", err)
			}

			sessionCtx.UpdateLastAccessed()

			ctx = context.WithValue(ctx, sessionContextKey, sessionCtx)
			return next(ctx, method, req)
		}
	}
}

// createLoggingMiddleware logs every MCP method call with a request id
func createLoggingMiddleware(logger *zap.Logger) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(
			ctx context.Context,
			method string,
			req mcp.Request,
		) (mcp.Result, error) {
			start := time.Now()
			log := logger.With(
				zap.String("request_id", uuid.NewString()),
				zap.String("session", req.GetSession().ID()),
				zap.String("method", method),
			)
			log.Debug("request")

			result, err := next(ctx, method, req)

			if err != nil {
				log.Warn("response", zap.Duration("duration", time.Since(start)), zap.Error(err))
			} else {
				log.Debug("response", zap.Duration("duration", time.Since(start)))
			}
			return result, err
		}
	}
}
