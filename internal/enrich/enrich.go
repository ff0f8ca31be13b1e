// Package enrich attaches the surrounding source lines to stack frames.
package enrich

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/yousuf/stackbraid/internal/content"
	"github.com/yousuf/stackbraid/internal/logging"
	"github.com/yousuf/stackbraid/internal/stacktrace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultWindow is the number of lines kept above and below a frame's line.
const DefaultWindow = 5

var (
	errNoSource = errors.New("frame has no source file")
	errMinified = errors.New("source is minified")
	errTooShort = errors.New("source is shorter than the context window")
)

var sourceMappingComment = regexp.MustCompile(`(?m)^\s*//#\s*sourceMappingURL=.+`)

// Enricher fetches each frame's source file and records Window lines on
// either side of the frame's line.
type Enricher struct {
	Provider    content.Provider
	Window      int
	Concurrency int
	Logger      *zap.Logger
}

// Enrich returns the frames that could be given source context, in input
// order. Frames without a named source file or a line, frames whose file
// cannot be fetched, and frames whose file is minified or too short for the
// window are dropped. The only error returned is the context's.
func (e *Enricher) Enrich(ctx context.Context, frames []stacktrace.Frame) ([]stacktrace.Frame, error) {
	logger := logging.OrNop(e.Logger)

	results := make([]*stacktrace.Frame, len(frames))
	var g errgroup.Group
	if e.Concurrency > 0 {
		g.SetLimit(e.Concurrency)
	}
	for i := range frames {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			f, err := e.enrichFrame(ctx, frames[i])
			if err != nil {
				logger.Debug("dropping frame without context",
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

func (e *Enricher) enrichFrame(ctx context.Context, f stacktrace.Frame) (stacktrace.Frame, error) {
	loc := f.Location
	if loc.FileName == "" || loc.Anonymous || loc.Line == nil {
		return f, errNoSource
	}

	text, err := e.Provider.Fetch(ctx, loc.SourceURL)
	if err != nil {
		return f, err
	}
	lines := splitLines(text)
	if Minified(loc.FileName, text, lines) {
		return f, errMinified
	}
	if len(lines) < 2*e.Window+1 {
		return f, errTooShort
	}

	f.Source = Window(lines, *loc.Line, e.Window)
	return f, nil
}

// Minified reports whether a source file looks machine generated.
func Minified(fileName, text string, lines []string) bool {
	if sourceMappingComment.MatchString(text) || strings.Contains(fileName, ".min.") {
		return true
	}
	return len(lines) > 0 && len(text)/len(lines) > 100
}

// Window returns the line at the one-based index line together with up to
// n lines above and below it. A line past the end yields an empty Line.
func Window(lines []string, line, n int) *stacktrace.SourceContext {
	idx := line - 1
	sc := &stacktrace.SourceContext{
		Above: lines[clamp(idx-n, 0, len(lines)):clamp(idx, 0, len(lines))],
		Below: lines[clamp(line, 0, len(lines)):clamp(line+n, 0, len(lines))],
	}
	if idx >= 0 && idx < len(lines) {
		sc.Line = lines[idx]
	}
	return sc
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}
