package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/yousuf/stackbraid/internal/stacktrace"
)

const firefoxStack = "foo@http://x.com/a.js:3:5\nbar@http://x.com/a.js:7:1\n"

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CONFIG_PATH", "")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDetect(t *testing.T) {
	out, err := execute(t, firefoxStack, "detect")
	require.NoError(t, err)
	assert.Equal(t, "SpiderMonkey\n", out)

	_, err = execute(t, "not a stack", "detect")
	assert.ErrorIs(t, err, stacktrace.ErrUnsupportedFormat)
}

func TestParseText(t *testing.T) {
	out, err := execute(t, firefoxStack, "parse", "--color", "off")
	require.NoError(t, err)
	assert.Equal(t, "  foo  http://x.com/a.js:3:5\n  bar  http://x.com/a.js:7:1\n", out)
}

func TestParseFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stack.txt")
	require.NoError(t, os.WriteFile(path, []byte(firefoxStack), 0o600))

	out, err := execute(t, "", "parse", "-o", "json", path)
	require.NoError(t, err)
	var frames []stacktrace.Frame
	require.NoError(t, json.Unmarshal([]byte(out), &frames))
	require.Len(t, frames, 2)
	assert.Equal(t, "bar", frames[1].Func.Name)
}

func TestParseOutputFormats(t *testing.T) {
	out, err := execute(t, firefoxStack, "parse", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: foo")
	assert.Contains(t, out, "sourceURL: http://x.com/a.js")

	out, err = execute(t, firefoxStack, "parse", "-o", "msgpack")
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, msgpack.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 2)
	fn, ok := decoded[0]["func"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "foo", fn["name"])

	_, err = execute(t, firefoxStack, "parse", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestParseFullJSONInput(t *testing.T) {
	in := `{"name":"TypeError","message":"bad","stack":"TypeError: bad\n    at f (a.js:1:2)","code":"E_BAD"}`

	out, err := execute(t, in, "parse", "--json", "--full", "--color", "off")
	require.NoError(t, err)
	assert.Equal(t, "TypeError: bad\n(V8)\n  f  a.js:1:2\n", out)

	out, err = execute(t, in, "parse", "--json", "--full", "-o", "json")
	require.NoError(t, err)
	var report stacktrace.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "TypeError", report.Name)
	assert.Equal(t, "E_BAD", report.Extra["code"])
	require.Len(t, report.Frames, 1)
}

func TestParseDialect(t *testing.T) {
	stack := "Error: boom\n    at foo (app.js:3:7)\n    foo();\n"

	out, err := execute(t, stack, "parse", "--dialect", "espruino", "-o", "json")
	require.NoError(t, err)
	var frames []stacktrace.Frame
	require.NoError(t, json.Unmarshal([]byte(out), &frames))
	require.Len(t, frames, 1)
	assert.Equal(t, stacktrace.FormatEspruino, frames[0].Environment.Format)
	assert.Equal(t, "foo();", frames[0].Location.Context)

	_, err = execute(t, stack, "parse", "--dialect", "rhino")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown dialect "rhino"`)

	_, err = execute(t, stack, "parse", "--dialect", "V8", "--full")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be combined")
}

func TestParseEmptyInput(t *testing.T) {
	_, err := execute(t, "", "parse")
	assert.ErrorIs(t, err, stacktrace.ErrInvalidInput)
}

func TestConvert(t *testing.T) {
	out, err := execute(t, firefoxStack, "convert", "--to", "chrome")
	require.NoError(t, err)
	assert.Equal(t, "    at foo (http://x.com/a.js:3:5)\n    at bar (http://x.com/a.js:7:1)\n", out)

	_, err = execute(t, firefoxStack, "convert", "--to", "mosaic")
	assert.ErrorIs(t, err, stacktrace.ErrUnknownTarget)

	_, err = execute(t, firefoxStack, "convert")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"to"`)
}

func writeSource(t *testing.T, root, name string, n int) {
	t.Helper()
	lines := make([]string, n)
	for i := range lines {
		lines[i] = "line " + string(rune('a'+i))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(strings.Join(lines, "\n")), 0o600))
}

func TestEnrich(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "a.js", 12)
	t.Setenv("STACKBRAID_CONTENT_ROOT", root)

	out, err := execute(t, "foo@/a.js:3:5\n", "enrich", "--window", "1", "--color", "off")
	require.NoError(t, err)
	assert.Equal(t, "  foo  /a.js:3:5\n    2 | line b\n  > 3 | line c\n    4 | line d\n", out)

	out, err = execute(t, "foo@/a.js:3:5\nbar@/missing.js:1:1\n", "enrich", "-o", "json")
	require.NoError(t, err)
	var frames []stacktrace.Frame
	require.NoError(t, json.Unmarshal([]byte(out), &frames))
	require.Len(t, frames, 1)
	require.NotNil(t, frames[0].Source)
	assert.Equal(t, "line c", frames[0].Source.Line)
	assert.Len(t, frames[0].Source.Above, 2)
}

func TestMap(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.js.map"),
		[]byte(`{"version":3,"sources":["/src/a.ts"],"names":["start"],"mappings":";;IAAIA"}`), 0o600))
	t.Setenv("STACKBRAID_CONTENT_ROOT", root)

	out, err := execute(t, "foo@/a.js:3:5\n", "map", "-o", "json")
	require.NoError(t, err)
	var frames []stacktrace.Frame
	require.NoError(t, json.Unmarshal([]byte(out), &frames))
	require.Len(t, frames, 1)
	assert.True(t, frames[0].SourceMapped)
	assert.Equal(t, "start", frames[0].Func.Name)
	assert.Equal(t, "/src/a.ts", frames[0].Location.SourceURL)
	assert.Equal(t, 1, *frames[0].Location.Line)
	assert.Equal(t, 5, *frames[0].Location.Column)
}

func TestTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.js")
	require.NoError(t, os.WriteFile(path, []byte(`function inner() {
  captureStack("boom");
}
function outer() {
  inner();
}
outer();
`), 0o600))

	out, err := execute(t, "", "trace", "-o", "json", path)
	require.NoError(t, err)
	var frames []stacktrace.Frame
	require.NoError(t, json.Unmarshal([]byte(out), &frames))
	require.Len(t, frames, 3)
	assert.Equal(t, "inner", frames[0].Func.Name)
	assert.Equal(t, "outer", frames[1].Func.Name)
	require.NotNil(t, frames[0].CallSite)
	assert.Equal(t, "app.js", frames[0].CallSite.Location.SourceURL)

	_, err = execute(t, "", "trace", "--hook", "record", path)
	require.Error(t, err)

	out, err = execute(t, "", "trace", "--limit", "2", "-o", "json", path)
	require.NoError(t, err)
	frames = nil
	require.NoError(t, json.Unmarshal([]byte(out), &frames))
	require.Len(t, frames, 2)
	assert.Equal(t, "inner", frames[0].Func.Name)
	assert.Equal(t, "outer", frames[1].Func.Name)
}
