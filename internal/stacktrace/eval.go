package stacktrace

import (
	"regexp"
	"strconv"
	"strings"
)

var v8TrailingPosition = regexp.MustCompile(`, ([^,]+:\d+:\d+)$`)

// parseV8Eval reads a V8 eval origin such as
// "eval at f (eval at g (file.js:1:1)), <anonymous>:9:9".
//
// There is one link per "eval at". The head link is the outermost and
// carries the trailing position (where execution currently is inside the
// evaluated code); the deepest link carries the concrete position the
// evaluation started from. A single link keeps only the trailing position.
func parseV8Eval(path string) Location {
	var trailing string
	if m := v8TrailingPosition.FindStringSubmatchIndex(path); m != nil {
		trailing = path[m[2]:m[3]]
		path = path[:m[0]]
	}

	type link struct {
		name  string
		inner string
	}
	var parts []link
	rest := path
	for strings.HasPrefix(rest, "eval at ") {
		rest = rest[len("eval at "):]
		open := strings.Index(rest, " (")
		if open < 0 {
			parts = append(parts, link{name: rest})
			rest = ""
			break
		}
		parts = append(parts, link{name: rest[:open]})
		rest = enclosed(rest[open+2:])
	}
	if len(parts) == 0 {
		return Location{Anonymous: true}
	}
	parts[len(parts)-1].inner = rest

	links := make([]*Location, len(parts))
	for i, p := range parts {
		links[i] = &Location{Name: p.name, Anonymous: true}
		if p.inner != "" {
			fillV8EvalPosition(links[i], p.inner)
		}
	}
	if trailing != "" {
		fillV8EvalPosition(links[0], trailing)
	}
	for i := len(links) - 2; i >= 0; i-- {
		links[i].Eval = links[i+1]
	}
	return *links[0]
}

// enclosed returns the text up to the parenthesis closing an already
// opened one.
func enclosed(s string) string {
	depth := 1
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[:i]
			}
		}
	}
	return strings.TrimSuffix(s, ")")
}

func fillV8EvalPosition(l *Location, text string) {
	src, line, column := splitPosition(text)
	l.SourceURL = src
	l.FileName = ""
	l.Line = line
	l.Column = column
	l.Anonymous = src == "" || src == "<anonymous>"
	if !l.Anonymous {
		l.FileName = fileNameOf(src)
	}
}

func formatV8EvalLink(l *Location) string {
	switch {
	case l.Eval == nil:
		return "eval at " + l.Name + " (" + l.SourceURL + lineColumn(l) + ")"
	default:
		return "eval at " + l.Name + " (" + formatV8EvalLink(l.Eval) + ")"
	}
}

func formatV8Eval(l *Location) string {
	out := formatV8EvalLink(l)
	if l.Eval != nil && l.positioned() {
		out += ", " + l.SourceURL + lineColumn(l)
	}
	return out
}

var (
	smEvalLine     = regexp.MustCompile(`^(.*) line (\d+)$`)
	smEvalPosition = regexp.MustCompile(`^(.*):(\d+):(\d+)$`)
)

// parseSpiderMonkeyEval reads a chain such as
// "http://x/a.js line 2 > eval line 1 > Function:1:5". The head is the
// outermost (real) script; each link's Eval is the next inner evaluation.
func parseSpiderMonkeyEval(path string) (Location, bool) {
	var links []*Location
	for _, seg := range strings.Split(path, " > ") {
		l := &Location{}
		var src string
		if m := smEvalLine.FindStringSubmatch(seg); m != nil {
			src, l.Line = m[1], atoiPtr(m[2])
		} else if m := smEvalPosition.FindStringSubmatch(seg); m != nil {
			src, l.Line, l.Column = m[1], atoiPtr(m[2]), atoiPtr(m[3])
		} else {
			continue
		}
		if isConcretePath(src) {
			l.SourceURL = src
			l.FileName = fileNameOf(src)
			l.Type = "file"
		} else {
			l.Type = src
			l.Anonymous = true
		}
		links = append(links, l)
	}
	if len(links) == 0 {
		return Location{}, false
	}
	for i := len(links) - 2; i >= 0; i-- {
		links[i].Eval = links[i+1]
	}
	return *links[0], true
}

// terminal returns the innermost link of an eval chain.
func (l *Location) terminal() *Location {
	for l.Eval != nil {
		l = l.Eval
	}
	return l
}

func formatSpiderMonkeyEval(l *Location) string {
	src := l.SourceURL
	if src == "" {
		src = l.Type
	}
	if src == "" {
		src = "eval"
	}
	line := 0
	if l.Line != nil {
		line = *l.Line
	}
	if l.Eval != nil {
		return src + " line " + strconv.Itoa(line) + " > " + formatSpiderMonkeyEval(l.Eval)
	}
	if l.Column == nil {
		return src + " line " + strconv.Itoa(line)
	}
	return src + lineColumn(l)
}
