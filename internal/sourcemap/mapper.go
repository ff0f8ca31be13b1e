package sourcemap

import (
	"context"
	"net/url"
	"path"
	"strings"

	"github.com/yousuf/stackbraid/internal/content"
	"github.com/yousuf/stackbraid/internal/logging"
	"github.com/yousuf/stackbraid/internal/stacktrace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Mapper resolves frames against the source maps published next to their
// scripts (sourceURL + ".map").
type Mapper struct {
	Provider content.Provider
	// Concurrency bounds the number of frames resolved at once; zero or
	// less means unbounded.
	Concurrency int
	Logger      *zap.Logger
}

// Map resolves every frame concurrently. Frames whose map cannot be
// fetched or decoded are dropped; frames the map does not cover are kept
// as they are. The result keeps input order. The only error returned is
// the context's.
func (m *Mapper) Map(ctx context.Context, frames []stacktrace.Frame) ([]stacktrace.Frame, error) {
	logger := logging.OrNop(m.Logger)

	results := make([]*stacktrace.Frame, len(frames))
	var g errgroup.Group
	if m.Concurrency > 0 {
		g.SetLimit(m.Concurrency)
	}
	for i := range frames {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			f, err := m.mapFrame(ctx, frames[i])
			if err != nil {
				logger.Debug("dropping unmapped frame",
					zap.String("url", frames[i].Location.SourceURL),
					zap.Error(err))
				return nil
			}
			results[i] = &f
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]stacktrace.Frame, 0, len(frames))
	for _, f := range results {
		if f != nil {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (m *Mapper) mapFrame(ctx context.Context, f stacktrace.Frame) (stacktrace.Frame, error) {
	src := f.Location.SourceURL
	if src == "" || f.Location.Line == nil {
		return f, &content.RetrievalError{Location: src, Err: content.ErrNotHandled}
	}

	mapURL := src + ".map"
	text, err := m.Provider.Fetch(ctx, mapURL)
	if err != nil {
		return f, err
	}
	sm, err := Parse([]byte(text))
	if err != nil {
		return f, err
	}

	column := 0
	if f.Location.Column != nil && *f.Location.Column > 0 {
		column = *f.Location.Column - 1
	}
	pos, ok := sm.OriginalPositionFor(*f.Location.Line, column)
	if !ok {
		return f, nil
	}

	if pos.Name != "" {
		alias := f.Func.Alias
		f.Func = stacktrace.ParseFunctionName(pos.Name, pos.Name, alias)
	}
	source := sm.resolveSource(mapURL, pos.Source)
	line, col := pos.Line, pos.Column+1
	f.Location = stacktrace.Location{
		SourceURL: source,
		FileName:  stacktrace.FileName(source),
		Line:      &line,
		Column:    &col,
		Anonymous: source == "",
	}
	f.Raw = f.String()
	f.SourceMapped = true
	return f, nil
}

// resolveSource applies sourceRoot and resolves a relative source against
// the map's own URL.
func (m *SourceMap) resolveSource(mapURL, source string) string {
	if source == "" {
		return ""
	}
	if m.SourceRoot != "" && !strings.Contains(source, "://") && !strings.HasPrefix(source, "/") {
		source = strings.TrimSuffix(m.SourceRoot, "/") + "/" + source
	}
	if strings.Contains(source, "://") || strings.HasPrefix(source, "/") {
		return source
	}

	base, err := url.Parse(mapURL)
	if err != nil || (base.Scheme == "" && !strings.HasPrefix(mapURL, "/")) {
		// Plain relative paths resolve against the map's directory.
		dir := path.Dir(mapURL)
		if dir == "." {
			return path.Clean(source)
		}
		return path.Join(dir, source)
	}
	ref, err := url.Parse(source)
	if err != nil {
		return source
	}
	return base.ResolveReference(ref).String()
}
