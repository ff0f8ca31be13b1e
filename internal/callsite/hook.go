// Package callsite captures structured call sites from an embedded
// JavaScript runtime and renders them as V8 stack text.
package callsite

import (
	"strconv"
	"strings"
	"sync"

	"github.com/yousuf/stackbraid/internal/stacktrace"
)

// Formatter renders a header line and call sites as stack text.
type Formatter func(header string, sites []stacktrace.CallSite) string

// Hook holds the formatter used to render captured stacks. The zero value
// renders with FormatV8.
type Hook struct {
	mu sync.Mutex
	f  Formatter
}

// Formatter returns the installed formatter.
func (h *Hook) Formatter() Formatter {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.f == nil {
		return FormatV8
	}
	return h.f
}

// With installs f while fn runs. The previous formatter is restored when fn
// returns, fails or panics.
func (h *Hook) With(f Formatter, fn func() error) error {
	h.mu.Lock()
	prev := h.f
	h.f = f
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.f = prev
		h.mu.Unlock()
	}()
	return fn()
}

// FormatV8 renders sites the way V8 prints Error.prototype.stack.
func FormatV8(header string, sites []stacktrace.CallSite) string {
	var b strings.Builder
	b.WriteString(header)
	for _, s := range sites {
		b.WriteString("\n    at ")
		b.WriteString(siteText(s))
	}
	return b.String()
}

func siteText(s stacktrace.CallSite) string {
	loc := s.Location.SourceURL
	if s.Function.Native {
		loc = "native"
	}
	if s.Location.Line != nil {
		loc += ":" + strconv.Itoa(*s.Location.Line)
		if s.Location.Column != nil {
			loc += ":" + strconv.Itoa(*s.Location.Column)
		}
	}

	name := s.Function.Name
	if name != "" && s.Function.TypeName != "" && !s.Function.TopLevel {
		name = s.Function.TypeName + "." + name
	}
	switch {
	case name == "":
		return loc
	case s.Function.Constructor:
		name = "new " + name
	case s.Function.Async:
		name = "async " + name
	}
	return name + " (" + loc + ")"
}
