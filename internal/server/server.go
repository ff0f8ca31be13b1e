package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/yousuf/stackbraid/internal/enrich"
	"github.com/yousuf/stackbraid/internal/logging"
	"github.com/yousuf/stackbraid/internal/sandbox"
	"github.com/yousuf/stackbraid/internal/session"
	"github.com/yousuf/stackbraid/internal/sourcemap"
	"github.com/yousuf/stackbraid/internal/stacktrace"
	"go.uber.org/zap"
)

// ErrorArgs describes a raised error. Text is pasted stack text and is
// used when none of the other fields is set.
type ErrorArgs struct {
	Text               string `json:"text,omitempty" jsonschema:"Stack trace text as printed by the engine"`
	Name               string `json:"name,omitempty" jsonschema:"Error name, e.g. TypeError"`
	Message            string `json:"message,omitempty" jsonschema:"Error message (Opera keeps its backtrace here)"`
	Stack              string `json:"stack,omitempty" jsonschema:"Value of error.stack"`
	Stacktrace         string `json:"stacktrace,omitempty" jsonschema:"Value of the Opera error.stacktrace property"`
	StacktraceDisabled bool   `json:"stacktraceDisabled,omitempty" jsonschema:"Set when error.stacktrace is false"`
}

func (a ErrorArgs) input() stacktrace.Input {
	if a.Name == "" && a.Message == "" && a.Stack == "" && a.Stacktrace == "" && !a.StacktraceDisabled {
		return stacktrace.InputFromText(a.Text)
	}
	in := stacktrace.Input{Name: a.Name, Message: a.Message, Stack: a.Stack}
	switch {
	case a.StacktraceDisabled:
		in.Stacktrace = stacktrace.Stacktrace{Disabled: true, Set: true}
	case a.Stacktrace != "":
		in.Stacktrace = stacktrace.StacktraceText(a.Stacktrace)
	}
	return in
}

// ParseStackArgs represents the arguments for the parse_stack tool
type ParseStackArgs struct {
	ErrorArgs
	Full bool `json:"full,omitempty" jsonschema:"Return the whole error report instead of only the frames"`
}

// ConvertStackArgs represents the arguments for the convert_stack tool
type ConvertStackArgs struct {
	ErrorArgs
	Target string `json:"target" jsonschema:"Browser, runtime or engine to render the frames for, e.g. Firefox"`
}

// EnrichStackArgs represents the arguments for the enrich_stack tool
type EnrichStackArgs struct {
	ErrorArgs
	Window int `json:"window,omitempty" jsonschema:"Lines of context above and below each frame"`
}

// ExecuteCodeArgs represents the arguments for the execute_code tool
type ExecuteCodeArgs struct {
	Code      string `json:"code" jsonschema:"JavaScript code to execute in the sandbox"`
	SourceMap string `json:"sourceMap,omitempty" jsonschema:"Source map of the code, used to map thrown errors"`
}

// Options configures NewMcpServer
type Options struct {
	Logger      *zap.Logger
	Window      int
	Concurrency int
	WasmPath    string
}

// NewMcpServer creates and configures the MCP server
func NewMcpServer(sessionMgr *session.Manager, opts Options) *mcp.Server {
	logger := logging.OrNop(opts.Logger)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "stackbraid",
		Version: "1.0.0",
	}, &mcp.ServerOptions{
		Instructions: `
JavaScript Stack Trace Toolkit

Stackbraid reads stack traces printed by V8 (Chrome, Node.js, Deno, Bun),
SpiderMonkey (Firefox, Safari), Internet Explorer / legacy Edge, Opera
(carakan and linear-b) and Espruino, and turns them into structured frames.

Pass an error either as pasted text ("text") or as its properties
("name", "message", "stack", "stacktrace").

Available Tools:
1. "detect_format" - Tell which engine printed a stack trace
2. "parse_stack" - Parse a stack trace into frames
3. "convert_stack" - Re-print a stack trace as another engine would
4. "map_stack" - Resolve frames through the source maps next to their scripts
5. "enrich_stack" - Attach surrounding source lines to each frame
6. "execute_code" - Run JavaScript in a sandbox and get structured frames for thrown errors
`,
	})

	server.AddReceivingMiddleware(createSessionInjectionMiddleware(sessionMgr))
	server.AddReceivingMiddleware(createLoggingMiddleware(logger))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "detect_format",
		Description: "Detect the stack trace dialect (V8, SpiderMonkey, IE, carakan, linear-b or Espruino) of an error.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ErrorArgs) (*mcp.CallToolResult, any, error) {
		format, err := stacktrace.Detect(args.input())
		if err != nil {
			return nil, nil, err
		}
		return textResult(string(format)), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "parse_stack",
		Description: "Parse an error's stack trace into structured frames. Set full to also get the error's name, message and extra properties.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ParseStackArgs) (*mcp.CallToolResult, any, error) {
		in := args.input()
		if err := stacktrace.Validate(in); err != nil {
			return nil, nil, err
		}
		if args.Full {
			report, err := stacktrace.ParseReport(in, stacktrace.Options{})
			if err != nil {
				return nil, nil, err
			}
			return jsonResult(report)
		}
		frames, err := stacktrace.Parse(in, stacktrace.Options{})
		if err != nil {
			return nil, nil, err
		}
		return jsonResult(frames)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "convert_stack",
		Description: "Re-print a stack trace the way another browser, runtime or engine would (e.g. Chrome, Firefox, Safari, Internet Explorer, Opera Presto, Espruino).",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ConvertStackArgs) (*mcp.CallToolResult, any, error) {
		frames, err := parseArgs(args.ErrorArgs)
		if err != nil {
			return nil, nil, err
		}
		text, err := stacktrace.Convert(frames, args.Target)
		if err != nil {
			return nil, nil, err
		}
		return textResult(text), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "map_stack",
		Description: "Resolve each frame through the source map published next to its script (script URL + \".map\"). Frames whose map cannot be fetched are left out.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ErrorArgs) (*mcp.CallToolResult, any, error) {
		sessionCtx, err := getSessionFromContext(ctx)
		if err != nil {
			return nil, nil, err
		}
		frames, err := parseArgs(args)
		if err != nil {
			return nil, nil, err
		}
		mapper := &sourcemap.Mapper{Provider: sessionCtx.Content, Concurrency: opts.Concurrency, Logger: logger}
		mapped, err := mapper.Map(ctx, frames)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("mapped stack",
			zap.Int("frames", len(frames)),
			zap.Int("mapped", len(mapped)),
			zap.Int("cached", sessionCtx.Content.Len()))
		return jsonResult(mapped)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "enrich_stack",
		Description: "Attach the source lines around each frame. Frames in minified, missing or too short files are left out.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args EnrichStackArgs) (*mcp.CallToolResult, any, error) {
		sessionCtx, err := getSessionFromContext(ctx)
		if err != nil {
			return nil, nil, err
		}
		frames, err := parseArgs(args.ErrorArgs)
		if err != nil {
			return nil, nil, err
		}
		window := args.Window
		if window <= 0 {
			window = opts.Window
		}
		e := &enrich.Enricher{Provider: sessionCtx.Content, Window: window, Concurrency: opts.Concurrency, Logger: logger}
		enriched, err := e.Enrich(ctx, frames)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("enriched stack",
			zap.Int("frames", len(frames)),
			zap.Int("enriched", len(enriched)),
			zap.Int("cached", sessionCtx.Content.Len()))
		return jsonResult(enriched)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name: "execute_code",
		Description: `Execute JavaScript in a sandboxed environment.

The value of the last expression is returned. If the code throws, the
error's message, raw stack and parsed frames are returned instead. Pass the
code's source map to get frames that point at the original sources.

Runtime Environment:
- No access to Node.js built-ins or filesystem
- No access to DOM or browser APIs
`,
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ExecuteCodeArgs) (*mcp.CallToolResult, any, error) {
		if opts.WasmPath == "" {
			return nil, nil, fmt.Errorf("sandbox is not configured")
		}
		sb, err := sandbox.NewSandbox(ctx, opts.WasmPath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create sandbox: %w", err)
		}
		defer sb.Close()

		result, err := sb.ExecuteCode(ctx, args.Code, args.SourceMap)
		if err != nil {
			return nil, nil, fmt.Errorf("execution failed: %w", err)
		}
		return jsonResult(result)
	})

	return server
}

// parseArgs parses the error described by args, failing on input without
// any stack data.
func parseArgs(args ErrorArgs) ([]stacktrace.Frame, error) {
	in := args.input()
	if err := stacktrace.Validate(in); err != nil {
		return nil, err
	}
	return stacktrace.Parse(in, stacktrace.Options{})
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return textResult(string(data)), nil, nil
}
