package stacktrace

import (
	"fmt"
	"strings"
)

// Options tunes Parse.
type Options struct {
	// CallSites, when set, is asked for structured call sites before any
	// text parsing happens.
	CallSites CallSiteProvider
}

// Report is the full-error view of a parse: the error's own properties
// next to its frames.
type Report struct {
	Name       string         `json:"name,omitempty"`
	Message    string         `json:"message,omitempty"`
	Header     string         `json:"header,omitempty"`
	Stack      string         `json:"stack,omitempty"`
	Stacktrace Stacktrace     `json:"stacktrace"`
	Format     Format         `json:"format,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
	Frames     []Frame        `json:"frames"`
}

var dialectParsers = map[Format]func(string) []Frame{
	FormatV8:           parseV8,
	FormatSpiderMonkey: parseSpiderMonkey,
	FormatIE:           parseIE,
	FormatCarakan:      parseCarakan,
	FormatLinearB:      parseLinearB,
	FormatEspruino:     parseEspruino,
}

// Parse turns a raised error into frames. Input without any stack data
// yields a nil slice and a nil error.
func Parse(in Input, opts Options) ([]Frame, error) {
	if Validate(in) != nil {
		return nil, nil
	}
	frames, _, err := parse(in, opts)
	return frames, err
}

// ParseReport is Parse in full-error mode.
func ParseReport(in Input, opts Options) (*Report, error) {
	if err := Validate(in); err != nil {
		return nil, nil
	}
	frames, format, err := parse(in, opts)
	if err != nil {
		return nil, err
	}
	if frames == nil {
		frames = []Frame{}
	}
	return &Report{
		Name:       in.Name,
		Message:    in.Message,
		Header:     in.Header(),
		Stack:      in.Stack,
		Stacktrace: in.Stacktrace,
		Format:     format,
		Extra:      in.Extra,
		Frames:     frames,
	}, nil
}

func parse(in Input, opts Options) ([]Frame, Format, error) {
	if opts.CallSites != nil {
		if stack, sites, ok := opts.CallSites(in); ok {
			return parseWithCallSites(stack, sites), FormatV8, nil
		}
	}

	format, err := Detect(in)
	if err != nil {
		return nil, "", err
	}
	frames, err := parseAs(format, in)
	return frames, format, err
}

// ParseAs parses in as the given dialect, skipping detection. Input without
// any stack data yields a nil slice and a nil error.
func ParseAs(format Format, in Input) ([]Frame, error) {
	if Validate(in) != nil {
		return nil, nil
	}
	return parseAs(format, in)
}

func parseAs(format Format, in Input) ([]Frame, error) {
	p, ok := dialectParsers[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	stack := in.stripHeader()
	if format == FormatCarakan || format == FormatLinearB {
		var err error
		if stack, err = operaStack(in); err != nil {
			return nil, err
		}
	}
	return p(stack), nil
}

// parseWithCallSites parses a V8 stack whose frame lines line up with
// sites, one to one, after the header line.
func parseWithCallSites(stack string, sites []CallSite) []Frame {
	lines := strings.Split(strings.ReplaceAll(stack, "\r\n", "\n"), "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}
	var frames []Frame
	for i, line := range lines {
		var site *CallSite
		if i < len(sites) {
			s := sites[i]
			site = &s
		}
		if f, ok := parseV8Frame(line, site); ok {
			frames = append(frames, f)
		}
	}
	return frames
}
