package stacktrace

import (
	"regexp"
	"strings"
)

var (
	v8Frame     = regexp.MustCompile(`^ {4}at (.+?)(?: \[as ([^\]]+)\])?\s*\((.+)\)\s*$`)
	v8BareFrame = regexp.MustCompile(`^ {4}at (.+)$`)
)

// Location texts V8 prints when a frame has no script.
var v8Sentinels = map[string]bool{
	"native":           true,
	"unknown location": true,
	"<anonymous>":      true,
}

// Bun prints these in place of a function name.
var v8ReservedNames = map[string]bool{
	"global code": true,
	"module code": true,
	"eval code":   true,
}

func parseV8(stack string) []Frame {
	var frames []Frame
	for _, line := range splitLines(stack) {
		if f, ok := parseV8Frame(line, nil); ok {
			frames = append(frames, f)
		}
	}
	return frames
}

func parseV8Frame(line string, site *CallSite) (Frame, bool) {
	if !strings.HasPrefix(line, "    at ") {
		return Frame{}, false
	}
	text := strings.TrimRight(line, " \t\r")

	var rawName, alias, loc string
	if m := v8Frame.FindStringSubmatch(text); m != nil {
		rawName, alias, loc = m[1], m[2], m[3]
	} else if m := v8BareFrame.FindStringSubmatch(text); m != nil {
		loc = m[1]
	} else {
		return Frame{}, false
	}

	env := Environment{Host: HostChromium, Format: FormatV8, Type: EnvBrowser}
	bun := func() { env.Host, env.Type = HostBun, EnvRuntime }

	var location Location
	switch {
	case loc == "" || v8Sentinels[loc]:
		location = Location{Anonymous: true, Type: loc}
	case strings.HasPrefix(loc, "native:") || strings.HasPrefix(loc, "<anonymous>:"):
		label, _, _ := strings.Cut(loc, ":")
		_, l, c := splitPosition(loc)
		location = Location{Anonymous: true, Type: label, Line: l, Column: c}
		if label == "native" {
			bun()
		}
	case loc == "unknown":
		location = Location{Anonymous: true, Type: loc}
		bun()
	case strings.HasPrefix(loc, "eval at "):
		location = parseV8Eval(loc)
	default:
		if strings.HasPrefix(loc, "node:") {
			env.Host, env.Type = HostNode, EnvRuntime
		}
		location = fileLocation(loc)
	}

	var fn Function
	if v8ReservedNames[rawName] {
		fn = Function{Name: rawName}
		bun()
	} else {
		fn = ParseFunctionName(rawName, rawName, alias)
	}

	return Frame{
		Raw:         line,
		Func:        fn,
		Location:    location,
		Environment: env,
		CallSite:    site,
	}, true
}

func formatV8(f *Frame) string {
	loc := formatV8Location(&f.Location)
	callee := v8Callee(&f.Func)
	if callee == "" && f.Func.Alias == "" {
		return "    at " + loc
	}
	if callee == "" {
		callee = "<anonymous>"
	}
	if f.Func.Alias != "" {
		callee += " [as " + f.Func.Alias + "]"
	}
	return "    at " + callee + " (" + loc + ")"
}

func v8Callee(fn *Function) string {
	if fn.Anonymous && fn.RawName == "" {
		if fn.Name != "" {
			return fn.Name + ".<anonymous>"
		}
		return ""
	}
	return fn.calleeText()
}

func formatV8Location(l *Location) string {
	switch {
	case l.Name != "":
		return formatV8Eval(l)
	case l.SourceURL == "" && l.Type != "":
		return l.Type + lineColumn(l)
	default:
		return l.SourceURL + lineColumn(l)
	}
}
