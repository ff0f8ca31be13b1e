package stacktrace

import (
	"regexp"
	"strings"
)

var ieFrame = regexp.MustCompile(`^ {3}at\s+(.*?)\s+\((.*?)\)$`)

// Chakra location labels for code that has no script URL.
var ieCodeTypes = []struct {
	label string
	tag   string
}{
	{"eval code", "eval"},
	{"Function code", "function"},
	{"Unknown script code", "unknown"},
}

func parseIE(stack string) []Frame {
	var frames []Frame
	for _, line := range splitLines(stack) {
		if f, ok := parseIEFrame(line); ok {
			frames = append(frames, f)
		}
	}
	return frames
}

func parseIEFrame(line string) (Frame, bool) {
	m := ieFrame.FindStringSubmatch(strings.TrimRight(line, " \t\r"))
	if m == nil {
		return Frame{}, false
	}
	rawName, loc := m[1], m[2]

	location := ieLocation(loc)

	var fn Function
	switch {
	case strings.Contains(rawName, "Global code"):
		fn = Function{Anonymous: true, Flags: Flags{FlagGlobal}}
	case strings.Contains(rawName, "Anonymous function"):
		fn = Function{Anonymous: true, Flags: Flags{FlagAnonymous}}
	default:
		fn = ParseFunctionName(rawName, rawName, "")
	}

	return Frame{
		Raw:         line,
		Func:        fn,
		Location:    location,
		Environment: Environment{Host: HostIE, Format: FormatIE, Type: EnvBrowser},
	}, true
}

func ieLocation(loc string) Location {
	if loc == "native code" {
		return Location{Anonymous: true, Type: "native"}
	}
	for _, ct := range ieCodeTypes {
		if strings.HasPrefix(loc, ct.label) {
			_, l, c := splitPosition(loc)
			return Location{Anonymous: true, Type: ct.tag, Line: l, Column: c}
		}
	}
	return fileLocation(loc)
}

func formatIE(f *Frame) string {
	return "   at " + ieCallee(&f.Func) + " (" + formatIELocation(&f.Location) + ")"
}

func ieCallee(fn *Function) string {
	switch {
	case fn.Flags.Has(FlagGlobal) && fn.Name == "":
		return "Global code"
	case fn.Anonymous && fn.Name == "" && fn.RawName == "":
		return "Anonymous function"
	}
	return fn.calleeText()
}

func formatIELocation(l *Location) string {
	if l.SourceURL == "" {
		if l.Type == "native" {
			return "native code"
		}
		for _, ct := range ieCodeTypes {
			if l.Type == ct.tag {
				return ct.label + lineColumn(l)
			}
		}
	}
	return l.SourceURL + lineColumn(l)
}
