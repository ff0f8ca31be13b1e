package sourcemap

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yousuf/stackbraid/internal/content"
	"github.com/yousuf/stackbraid/internal/stacktrace"
	"go.uber.org/goleak"
)

func mapDocument(t *testing.T, source string) string {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"version":  3,
		"sources":  []string{source},
		"names":    []string{"renderApp"},
		"mappings": encodeMappings([][][]int{{{0, 0, 9, 2, 0}, {40, 0, 20, 0}}}),
	})
	require.NoError(t, err)
	return string(data)
}

func v8Frames(t *testing.T, stack string) []stacktrace.Frame {
	t.Helper()
	frames, err := stacktrace.Parse(stacktrace.Input{Stack: stack}, stacktrace.Options{})
	require.NoError(t, err)
	return frames
}

func TestMapperMapsFrame(t *testing.T) {
	defer goleak.VerifyNone(t)

	docs := map[string]string{
		"http://x.com/app.min.js.map": mapDocument(t, "src/app.ts"),
	}
	m := &Mapper{Provider: content.ProviderFunc(func(_ context.Context, loc string) (string, error) {
		if d, ok := docs[loc]; ok {
			return d, nil
		}
		return "", &content.RetrievalError{Location: loc, Err: content.ErrNotHandled}
	})}

	frames := v8Frames(t, "    at a (http://x.com/app.min.js:1:1)\n    at b (http://x.com/app.min.js:1:50)")
	out, err := m.Map(context.Background(), frames)
	require.NoError(t, err)
	require.Len(t, out, 2)

	first := out[0]
	assert.True(t, first.SourceMapped)
	assert.Equal(t, "renderApp", first.Func.Name)
	assert.Equal(t, "http://x.com/src/app.ts", first.Location.SourceURL)
	assert.Equal(t, "app.ts", first.Location.FileName)
	assert.Equal(t, 10, *first.Location.Line)
	assert.Equal(t, 3, *first.Location.Column)
	assert.Equal(t, "    at renderApp (http://x.com/src/app.ts:10:3)", first.Raw)

	second := out[1]
	assert.Equal(t, "b", second.Func.Name, "segments without a name keep the frame's")
	assert.Equal(t, 21, *second.Location.Line)
	assert.Equal(t, 1, *second.Location.Column)
}

func TestMapperDropsFailedFrames(t *testing.T) {
	defer goleak.VerifyNone(t)

	doc := `{"version":3,"sources":["/src/app.ts"],"mappings":"AAAA"}`
	m := &Mapper{
		Concurrency: 2,
		Provider: content.ProviderFunc(func(_ context.Context, loc string) (string, error) {
			if loc == "http://x.com/broken.js.map" {
				return "", &content.RetrievalError{Location: loc, Err: content.ErrNotHandled}
			}
			return doc, nil
		}),
	}

	frames := v8Frames(t, `    at one (http://x.com/a.js:1:1)
    at two (http://x.com/broken.js:1:1)
    at three (http://x.com/a.js:1:1)
    at four (http://x.com/a.js:1:1)
    at five (http://x.com/a.js:1:1)`)
	require.Len(t, frames, 5)

	out, err := m.Map(context.Background(), frames)
	require.NoError(t, err)
	require.Len(t, out, 4)
	for i, want := range []string{"one", "three", "four", "five"} {
		assert.Equal(t, want, out[i].Func.Name, "frame %d", i)
	}
}

func TestMapperKeepsUncoveredFrames(t *testing.T) {
	m := &Mapper{Provider: content.ProviderFunc(func(context.Context, string) (string, error) {
		return `{"version":3,"sources":["a.ts"],"mappings":"EAAA"}`, nil
	})}
	frames := v8Frames(t, "    at f (http://x.com/a.js:1:1)")

	out, err := m.Map(context.Background(), frames)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.False(t, out[0].SourceMapped)
	assert.Equal(t, frames[0], out[0])
}

func TestMapperDropsMalformedMaps(t *testing.T) {
	m := &Mapper{Provider: content.ProviderFunc(func(context.Context, string) (string, error) {
		return `{"version":3,"sources":["a.ts"],"mappings":"A#"}`, nil
	})}
	out, err := m.Map(context.Background(), v8Frames(t, "    at f (http://x.com/a.js:1:1)\n    at native (native)"))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestMapperCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := &Mapper{Provider: content.ProviderFunc(func(context.Context, string) (string, error) { return "", nil })}
	_, err := m.Map(ctx, v8Frames(t, "    at f (http://x.com/a.js:1:1)"))
	assert.ErrorIs(t, err, context.Canceled)
}
