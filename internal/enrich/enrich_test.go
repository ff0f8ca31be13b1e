package enrich

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yousuf/stackbraid/internal/content"
	"github.com/yousuf/stackbraid/internal/stacktrace"
	"go.uber.org/goleak"
)

func numberedSource(n int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i+1)
	}
	return strings.Join(lines, "\n")
}

func TestWindow(t *testing.T) {
	lines := strings.Split(numberedSource(20), "\n")

	sc := Window(lines, 10, 2)
	assert.Equal(t, []string{"line 8", "line 9"}, sc.Above)
	assert.Equal(t, "line 10", sc.Line)
	assert.Equal(t, []string{"line 11", "line 12"}, sc.Below)

	sc = Window(lines, 1, 3)
	assert.Empty(t, sc.Above)
	assert.Equal(t, "line 1", sc.Line)
	assert.Len(t, sc.Below, 3)

	sc = Window(lines, 20, 3)
	assert.Equal(t, "line 20", sc.Line)
	assert.Empty(t, sc.Below)

	sc = Window(lines, 25, 3)
	assert.Equal(t, "", sc.Line)
	assert.Empty(t, sc.Above)

	sc = Window(lines, 5, 0)
	assert.Empty(t, sc.Above)
	assert.Equal(t, "line 5", sc.Line)
	assert.Empty(t, sc.Below)
}

func TestMinified(t *testing.T) {
	plain := numberedSource(3)
	tests := []struct {
		name     string
		fileName string
		text     string
		want     bool
	}{
		{"plain", "app.js", plain, false},
		{"min in name", "app.min.js", plain, true},
		{"source mapping comment", "app.js", plain + "\n//# sourceMappingURL=app.js.map", true},
		{"long lines", "app.js", strings.Repeat("x", 300) + "\n" + strings.Repeat("y", 300), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Minified(tt.fileName, tt.text, splitLines(tt.text)))
		})
	}
}

func TestEnrichPreservesOrderAndDropsFailures(t *testing.T) {
	defer goleak.VerifyNone(t)

	files := map[string]string{
		"http://x.com/a.js":     numberedSource(30),
		"http://x.com/short.js": numberedSource(4),
		"http://x.com/b.min.js": numberedSource(30),
	}
	provider := content.ProviderFunc(func(_ context.Context, loc string) (string, error) {
		text, ok := files[loc]
		if !ok {
			return "", &content.RetrievalError{Location: loc, Err: content.ErrNotHandled}
		}
		return text, nil
	})

	frames, err := stacktrace.Parse(stacktrace.Input{Stack: `    at one (http://x.com/a.js:3:1)
    at two (http://x.com/gone.js:1:1)
    at three (http://x.com/a.js:15:1)
    at four (http://x.com/short.js:2:1)
    at five (http://x.com/b.min.js:2:1)
    at six (native)
    at seven (http://x.com/a.js:30:2)`}, stacktrace.Options{})
	require.NoError(t, err)
	require.Len(t, frames, 7)

	e := &Enricher{Provider: provider, Window: 2, Concurrency: 3}
	out, err := e.Enrich(context.Background(), frames)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, "one", out[0].Func.Name)
	assert.Equal(t, &stacktrace.SourceContext{
		Above: []string{"line 1", "line 2"},
		Line:  "line 3",
		Below: []string{"line 4", "line 5"},
	}, out[0].Source)

	assert.Equal(t, "three", out[1].Func.Name)
	assert.Equal(t, "line 15", out[1].Source.Line)

	assert.Equal(t, "seven", out[2].Func.Name)
	assert.Equal(t, "line 30", out[2].Source.Line)
	assert.Empty(t, out[2].Source.Below)

	assert.Nil(t, frames[0].Source, "input frames are not modified")
}

func TestEnrichCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := &Enricher{Provider: content.ProviderFunc(func(context.Context, string) (string, error) { return "", nil })}
	_, err := e.Enrich(ctx, []stacktrace.Frame{{}})
	assert.ErrorIs(t, err, context.Canceled)
}
