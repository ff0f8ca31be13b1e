package sandbox

import (
	"context"
	"encoding/json"
	"fmt"

	extism "github.com/extism/go-sdk"
	"github.com/yousuf/stackbraid/internal/content"
	"github.com/yousuf/stackbraid/internal/logging"
	"github.com/yousuf/stackbraid/internal/sourcemap"
	"github.com/yousuf/stackbraid/internal/stacktrace"
	"go.uber.org/zap"
)

// caller is the part of an extism plugin the sandbox uses.
type caller interface {
	Call(name string, data []byte) (uint32, []byte, error)
}

// Sandbox provides a WebAssembly execution environment for JavaScript
type Sandbox struct {
	plugin caller
	close  func()
	logger *zap.Logger
}

// Result is the outcome of one execution. A thrown error leaves Value
// empty and is described by Error, Stack and the parsed Frames.
type Result struct {
	Value  json.RawMessage    `json:"value,omitempty"`
	Error  string             `json:"error,omitempty"`
	Stack  string             `json:"stack,omitempty"`
	Format stacktrace.Format  `json:"format,omitempty"`
	Frames []stacktrace.Frame `json:"frames,omitempty"`
}

type pluginOutput struct {
	Error  string          `json:"error"`
	Stack  string          `json:"stack"`
	Result json.RawMessage `json:"result"`
}

// NewSandbox creates a new sandbox instance from the plugin at wasmPath
func NewSandbox(ctx context.Context, wasmPath string, logger *zap.Logger) (*Sandbox, error) {
	manifest := extism.Manifest{
		Wasm: []extism.Wasm{
			extism.WasmFile{
				Path: wasmPath,
			},
		},
	}

	config := extism.PluginConfig{
		EnableWasi: true,
	}

	plugin, err := extism.NewPlugin(ctx, manifest, config, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create plugin: %w", err)
	}

	sb := newSandbox(plugin, logger)
	sb.close = func() { _ = plugin.Close(ctx) }
	return sb, nil
}

func newSandbox(plugin caller, logger *zap.Logger) *Sandbox {
	return &Sandbox{plugin: plugin, logger: logging.OrNop(logger)}
}

// ExecuteCode runs code in the sandbox. When sourceMap is not empty, the
// frames of a thrown error are resolved against it.
func (s *Sandbox) ExecuteCode(ctx context.Context, code, sourceMap string) (*Result, error) {
	exit, output, err := s.plugin.Call("executeCode", []byte(code))
	if err != nil {
		return nil, fmt.Errorf("plugin execution failed: %w", err)
	}
	if exit != 0 {
		return nil, fmt.Errorf("plugin exited with code %d", exit)
	}

	var out pluginOutput
	if err := json.Unmarshal(output, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal output: %w", err)
	}
	if out.Error == "" {
		return &Result{Value: out.Result}, nil
	}

	res := &Result{Error: out.Error, Stack: out.Stack}
	report, err := stacktrace.ParseReport(stacktrace.Input{Message: out.Error, Stack: out.Stack}, stacktrace.Options{})
	if err != nil {
		s.logger.Debug("unparsed sandbox stack", zap.Error(err))
		return res, nil
	}
	if report == nil {
		return res, nil
	}
	res.Format = report.Format
	res.Frames = report.Frames

	if sourceMap != "" && len(res.Frames) > 0 {
		mapper := &sourcemap.Mapper{
			Provider: content.ProviderFunc(func(context.Context, string) (string, error) {
				return sourceMap, nil
			}),
			Logger: s.logger,
		}
		if res.Frames, err = mapper.Map(ctx, res.Frames); err != nil {
			return nil, fmt.Errorf("failed to map error stack trace: %w", err)
		}
	}
	return res, nil
}

// Close closes the sandbox and frees resources
func (s *Sandbox) Close() {
	if s.close != nil {
		s.close()
	}
}
