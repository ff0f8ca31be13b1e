package callsite

import (
	"errors"
	"strings"
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yousuf/stackbraid/internal/stacktrace"
)

const script = `function inner() {
  captureStack("boom");
}
function outer() {
  inner();
}
outer();
`

func record(t *testing.T) (*Recorder, *Capture) {
	t.Helper()
	rt := goja.New()
	rec := NewRecorder(rt)
	require.NoError(t, rec.Install("captureStack"))
	_, err := rt.RunScript("app.js", script)
	require.NoError(t, err)
	c := rec.Last()
	require.NotNil(t, c)
	return rec, c
}

func TestCaptureSites(t *testing.T) {
	_, c := record(t)

	require.Len(t, c.Sites, 3)
	var names []string
	var lines []int
	for _, s := range c.Sites {
		names = append(names, s.Function.Name)
		lines = append(lines, *s.Location.Line)
		assert.Equal(t, "app.js", s.Location.SourceURL)
	}
	assert.Equal(t, []string{"inner", "outer", ""}, names)
	assert.Equal(t, []int{2, 5, 7}, lines)
	assert.True(t, c.Sites[2].Function.TopLevel)

	assert.True(t, strings.HasPrefix(c.Stack, "Error: boom\n    at inner (app.js:2:"))
}

func TestCaptureParsesWithCallSites(t *testing.T) {
	_, c := record(t)

	frames, err := stacktrace.Parse(c.Input(), stacktrace.Options{CallSites: c.Provider()})
	require.NoError(t, err)
	require.Len(t, frames, 3)

	assert.Equal(t, "inner", frames[0].Func.Name)
	assert.Equal(t, "app.js", frames[0].Location.SourceURL)
	assert.Equal(t, 2, *frames[0].Location.Line)
	require.NotNil(t, frames[0].CallSite)
	assert.Equal(t, c.Sites[0], *frames[0].CallSite)

	assert.True(t, frames[2].Func.Anonymous)
	assert.Equal(t, 7, *frames[2].Location.Line)
}

func TestCaptureWithoutProviderMatchesText(t *testing.T) {
	_, c := record(t)

	withSites, err := stacktrace.Parse(c.Input(), stacktrace.Options{CallSites: c.Provider()})
	require.NoError(t, err)
	textOnly, err := stacktrace.Parse(c.Input(), stacktrace.Options{})
	require.NoError(t, err)

	require.Len(t, textOnly, len(withSites))
	for i := range textOnly {
		assert.Nil(t, textOnly[i].CallSite)
		assert.Equal(t, withSites[i].Location, textOnly[i].Location)
	}
}

func TestHookWithRestores(t *testing.T) {
	var h Hook
	custom := func(header string, _ []stacktrace.CallSite) string { return "custom " + header }

	err := h.With(custom, func() error {
		assert.Equal(t, "custom x", h.Formatter()("x", nil))
		return errors.New("failed")
	})
	assert.EqualError(t, err, "failed")
	assert.Equal(t, "x", h.Formatter()("x", nil))

	assert.Panics(t, func() {
		_ = h.With(custom, func() error { panic("boom") })
	})
	assert.Equal(t, "x", h.Formatter()("x", nil))
}

func TestRecorderWithFormatter(t *testing.T) {
	rt := goja.New()
	rec := NewRecorder(rt)
	require.NoError(t, rec.Install("captureStack"))

	err := rec.With(func(header string, sites []stacktrace.CallSite) string {
		return header + " (" + sites[0].Function.Name + ")"
	}, func() error {
		_, err := rt.RunScript("app.js", script)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "Error: boom (inner)", rec.Last().Stack)
}

func TestFormatV8(t *testing.T) {
	line, col := 3, 4
	sites := []stacktrace.CallSite{
		{Function: stacktrace.CallSiteFunction{Name: "run", TypeName: "Job"}, Location: stacktrace.CallSiteLocation{SourceURL: "job.js", Line: &line, Column: &col}},
		{Function: stacktrace.CallSiteFunction{Name: "Job", Constructor: true}, Location: stacktrace.CallSiteLocation{SourceURL: "job.js", Line: &line}},
		{Function: stacktrace.CallSiteFunction{Name: "main", Async: true}, Location: stacktrace.CallSiteLocation{SourceURL: "main.js"}},
		{Function: stacktrace.CallSiteFunction{Name: "push", Native: true}},
		{Function: stacktrace.CallSiteFunction{TopLevel: true}, Location: stacktrace.CallSiteLocation{SourceURL: "main.js", Line: &line, Column: &col}},
	}
	want := strings.Join([]string{
		"TypeError: x",
		"    at Job.run (job.js:3:4)",
		"    at new Job (job.js:3)",
		"    at async main (main.js)",
		"    at push (native)",
		"    at main.js:3:4",
	}, "\n")
	assert.Equal(t, want, FormatV8("TypeError: x", sites))
}
