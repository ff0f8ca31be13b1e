package callsite

import (
	"sync"

	"github.com/dop251/goja"
	"github.com/yousuf/stackbraid/internal/stacktrace"
)

// Capture is one recorded call stack.
type Capture struct {
	Stack string
	Sites []stacktrace.CallSite
}

// Input returns the captured stack as parser input.
func (c *Capture) Input() stacktrace.Input {
	return stacktrace.Input{Stack: c.Stack}
}

// Provider hands the capture to the parser as call-site data.
func (c *Capture) Provider() stacktrace.CallSiteProvider {
	return func(stacktrace.Input) (string, []stacktrace.CallSite, bool) {
		return c.Stack, c.Sites, true
	}
}

// Recorder captures call stacks from a goja runtime.
type Recorder struct {
	rt   *goja.Runtime
	hook Hook

	mu   sync.Mutex
	last *Capture
}

// NewRecorder returns a Recorder for rt.
func NewRecorder(rt *goja.Runtime) *Recorder {
	return &Recorder{rt: rt}
}

// With runs fn with f as the formatter for captured stacks.
func (r *Recorder) With(f Formatter, fn func() error) error {
	return r.hook.With(f, fn)
}

// Capture records the runtime's current call stack. Frames of Go functions
// are left out.
func (r *Recorder) Capture(header string) *Capture {
	frames := r.rt.CaptureCallStack(0, nil)
	sites := make([]stacktrace.CallSite, 0, len(frames))
	for i := range frames {
		f := &frames[i]
		if f.SrcName() == "<native>" {
			continue
		}
		pos := f.Position()
		name := f.FuncName()
		if name == "<anonymous>" {
			name = ""
		}
		line, column := pos.Line, pos.Column
		sites = append(sites, stacktrace.CallSite{
			Function: stacktrace.CallSiteFunction{
				Name:     name,
				TopLevel: name == "",
			},
			Location: stacktrace.CallSiteLocation{
				SourceURL: f.SrcName(),
				Line:      &line,
				Column:    &column,
			},
		})
	}
	return &Capture{
		Stack: r.hook.Formatter()(header, sites),
		Sites: sites,
	}
}

// Install exposes a global JavaScript function name(message) that records
// the calling stack under the header "Error: message".
func (r *Recorder) Install(name string) error {
	return r.rt.Set(name, func(call goja.FunctionCall) goja.Value {
		c := r.Capture("Error: " + call.Argument(0).String())
		r.mu.Lock()
		r.last = c
		r.mu.Unlock()
		return goja.Undefined()
	})
}

// Last returns the most recent capture made through an installed function.
func (r *Recorder) Last() *Capture {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}
