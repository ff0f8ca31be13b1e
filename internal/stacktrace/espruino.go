package stacktrace

import (
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

var (
	espruinoFrame     = regexp.MustCompile(`^ {4}at (.*?) \((.+)\)$`)
	espruinoBareFrame = regexp.MustCompile(`^ {4}at (.+)$`)
)

type espruinoPair struct {
	frame   string
	context string
	caret   string
}

func isCaretLine(line string) bool {
	return strings.Contains(line, "  ^") && strings.TrimSpace(line) == "^"
}

// espruinoPairs groups each "    at" line with the source line and the
// caret line printed under it.
func espruinoPairs(stack string) []espruinoPair {
	var pairs []espruinoPair
	for _, line := range splitLines(stack) {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, "    at ") {
			pairs = append(pairs, espruinoPair{frame: line})
			continue
		}
		if len(pairs) == 0 {
			continue
		}
		last := &pairs[len(pairs)-1]
		switch {
		case isCaretLine(line):
			if last.caret == "" {
				last.caret = line
			}
		case strings.HasPrefix(line, "    ") && last.context == "" && last.caret == "":
			last.context = line[4:]
		}
	}
	return pairs
}

// looksLikeEspruino reports whether a caret line sits right under a frame
// line or under that frame's source line.
func looksLikeEspruino(lines []string) bool {
	for i, line := range lines {
		if !isCaretLine(line) {
			continue
		}
		for back := 1; back <= 2 && i-back >= 0; back++ {
			if strings.HasPrefix(lines[i-back], "    at ") {
				return true
			}
		}
	}
	return false
}

// caretFor synthesizes a caret line for a source line printed without one.
func caretFor(context string) string {
	return strings.Repeat(" ", runewidth.StringWidth(context)+1) + "^"
}

func parseEspruino(stack string) []Frame {
	var frames []Frame
	for _, p := range espruinoPairs(stack) {
		if f, ok := parseEspruinoFrame(p); ok {
			frames = append(frames, f)
		}
	}
	return frames
}

func parseEspruinoFrame(p espruinoPair) (Frame, bool) {
	var rawName, loc string
	if m := espruinoFrame.FindStringSubmatch(p.frame); m != nil {
		rawName, loc = m[1], m[2]
	} else if m := espruinoBareFrame.FindStringSubmatch(p.frame); m != nil {
		loc = m[1]
	} else {
		return Frame{}, false
	}
	location := fileLocation(loc)
	location.Context = p.context
	location.Caret = p.caret
	if location.Caret == "" && location.Context != "" {
		location.Caret = caretFor(location.Context)
	}

	fn := ParseFunctionName(rawName, rawName, "")
	if location.FileName == "" && location.Line != nil && location.Column != nil && fn.Name == "REPL" {
		fn.Flags = fn.Flags.Add(FlagREPL)
	}

	return Frame{
		Raw:         p.frame,
		Func:        fn,
		Location:    location,
		Environment: Environment{Host: HostMicrocontrol, Format: FormatEspruino, Type: EnvInterpreter},
	}, true
}

func formatEspruino(f *Frame) string {
	l := &f.Location
	var b strings.Builder
	if callee := v8Callee(&f.Func); callee != "" {
		b.WriteString("    at " + callee + " (" + l.SourceURL + lineColumn(l) + ")")
	} else {
		b.WriteString("    at " + l.SourceURL + lineColumn(l))
	}
	if l.Context != "" {
		b.WriteString("\n    " + l.Context)
	}
	switch {
	case l.Caret != "":
		b.WriteString("\n" + l.Caret)
	case l.Context != "":
		b.WriteString("\n" + caretFor(l.Context))
	}
	return b.String()
}
