package stacktrace

import (
	"regexp"
	"strings"
)

var nestedIndex = regexp.MustCompile(`\[(\d+)\]<`)

// JavaScriptCore prints these instead of a function name.
var safariNames = map[string]Flag{
	"global code": FlagGlobal,
	"module code": FlagModule,
	"eval code":   FlagEval,
}

func parseSpiderMonkey(stack string) []Frame {
	var frames []Frame
	for _, line := range splitLines(stack) {
		if f, ok := parseSpiderMonkeyFrame(line); ok {
			frames = append(frames, f)
		}
	}
	return frames
}

func parseSpiderMonkeyFrame(line string) (Frame, bool) {
	line = strings.TrimRight(line, " \t\r")
	if len(line) < 2 {
		return Frame{}, false
	}
	rawName, path := "", line
	if at := strings.LastIndex(line, "@"); at >= 0 {
		rawName, path = line[:at], line[at+1:]
	} else if !trailingPosition.MatchString(line) {
		return Frame{}, false
	}

	env := Environment{Host: HostFirefox, Format: FormatSpiderMonkey, Type: EnvBrowser}

	var location Location
	switch {
	case strings.Contains(path, " line ") && strings.Contains(path, " > "):
		if l, ok := parseSpiderMonkeyEval(path); ok {
			location = l
		} else {
			location = fileLocation(path)
		}
	case strings.HasPrefix(path, "javascript:"):
		src, l, c := splitPosition(path)
		location = Location{
			InlineSource: strings.TrimPrefix(src, "javascript:"),
			Line:         l,
			Column:       c,
			Anonymous:    true,
			Type:         "JSUrl",
		}
	case strings.Contains(path, "[native code]"), strings.Contains(path, "[wasm code]"), !trailingPosition.MatchString(path):
		env.Host = HostSafari
		src, l, c := splitPosition(path)
		location = Location{SourceURL: src, Line: l, Column: c, Anonymous: true}
		switch {
		case strings.Contains(path, "[native code]"):
			location.Type = "native"
		case strings.Contains(path, "[wasm code]"):
			location.Type = "wasm"
		}
	default:
		location = fileLocation(path)
	}

	var fn Function
	switch {
	case rawName == "":
		fn = Function{Anonymous: true}
	case strings.Contains(rawName, "/"):
		fn = nestedFunction(rawName)
	case strings.Contains(rawName, "*"):
		label, name, _ := strings.Cut(rawName, "*")
		fn = ParseFunctionName(name, name, "")
		fn.Label = label
		switch label {
		case "setTimeout handler":
			fn.Flags = fn.Flags.Add(FlagTimeoutHandler)
		case "promise callback":
			fn.Flags = fn.Flags.Add(FlagPromiseCB)
		}
		fn.Flags = fn.Flags.Add(FlagAsync)
	case safariNames[rawName] != "":
		env.Host = HostSafari
		fn = Function{Anonymous: true, Flags: Flags{safariNames[rawName]}}
	default:
		fn = ParseFunctionName(rawName, rawName, "")
	}

	// new Function(...) bodies are reported as "anonymous".
	if rawName == "anonymous" && location.Eval != nil && location.terminal().Type == "Function" {
		fn.Anonymous = true
	}

	return Frame{Raw: line, Func: fn, Location: location, Environment: env}, true
}

// nestedFunction parses "outer/inner/<" into a chain of Functions.
func nestedFunction(raw string) Function {
	segs := strings.Split(raw, "/")
	var next *Function
	for i := len(segs) - 1; i >= 0; i-- {
		seg := segs[i]
		var f Function
		if strings.Contains(seg, "<") {
			f = Function{Name: seg, Anonymous: true, Flags: Flags{FlagNestedAnon}}
			if m := nestedIndex.FindStringSubmatch(seg); m != nil {
				f.Index = atoiPtr(m[1])
			}
		} else {
			f = ParseFunctionName(seg, seg, "")
		}
		f.Func = next
		next = &f
	}
	return *next
}

func formatSpiderMonkey(f *Frame) string {
	l := &f.Location
	if l.Eval != nil && strings.Contains(l.SourceURL, "<anonymous>") {
		return ""
	}

	var loc string
	switch {
	case l.Eval != nil:
		loc = formatSpiderMonkeyEval(l)
	case l.Type == "JSUrl":
		loc = "javascript:" + l.InlineSource + lineColumn(l)
	case l.SourceURL == "":
		loc = "debugger eval code" + lineColumn(l)
	default:
		loc = l.SourceURL + lineColumn(l)
	}
	return spiderMonkeyCallee(&f.Func) + "@" + loc
}

func spiderMonkeyCallee(fn *Function) string {
	var segs []string
	for s := fn; s != nil; s = s.Func {
		segs = append(segs, spiderMonkeySegment(s))
	}
	out := strings.Join(segs, "/")
	if fn.Label != "" {
		out = fn.Label + "*" + out
	}
	return out
}

func spiderMonkeySegment(fn *Function) string {
	if fn.Flags.Has(FlagNestedAnon) {
		return fn.Name
	}
	if fn.Anonymous && fn.Name == "" && fn.RawName == "" {
		for phrase, flag := range safariNames {
			if fn.Flags.Has(flag) {
				return phrase
			}
		}
		return ""
	}
	return fn.calleeText()
}
