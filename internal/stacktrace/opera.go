package stacktrace

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	backtraceMarker  = regexp.MustCompile(`(?:^|\n)\s*Backtrace:\s*\n?`)
	stacktraceMarker = regexp.MustCompile(`(?:^|\n)\s*stacktrace:\s*\n?`)
)

// operaStack extracts the backtrace an Opera error carries in its
// stacktrace property or message. An empty result means the error is not
// an Opera error.
func operaStack(in Input) (string, error) {
	backtrace := textAfter(backtraceMarker, in.Message)
	if strings.Contains(in.Stacktrace.Text, "opera:config#UserPrefs") {
		return backtrace, nil
	}
	if in.Stacktrace.Disabled {
		return "", ErrStackTracesDisabled
	}
	if in.Stacktrace.Text != "" {
		return in.Stacktrace.Text, nil
	}
	if s := textAfter(stacktraceMarker, in.Message); s != "" {
		return s, nil
	}
	return backtrace, nil
}

func textAfter(re *regexp.Regexp, s string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return ""
	}
	return s[loc[1]:]
}

var carakanOpenings = []string{"called via ", "called from ", "called as ", "Error thrown ", "Error created ", "Error initially "}

// operaDialect tells carakan from linear-b by the first frame line.
func operaDialect(stack string) Format {
	lines := splitLines(stack)
	if len(lines) == 0 {
		return FormatLinearB
	}
	first := strings.TrimSpace(lines[0])
	for _, p := range carakanOpenings {
		if strings.HasPrefix(first, p) {
			return FormatCarakan
		}
	}
	return FormatLinearB
}

type operaPair struct {
	frame   string
	context string
}

// operaPairs groups each frame line with the four-space indented source
// line that follows it, if any.
func operaPairs(stack string) []operaPair {
	var pairs []operaPair
	for _, line := range strings.Split(strings.ReplaceAll(stack, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, "    ") && len(pairs) > 0 && pairs[len(pairs)-1].context == "" {
			pairs[len(pairs)-1].context = line[4:]
			continue
		}
		pairs = append(pairs, operaPair{frame: strings.TrimPrefix(line, "  ")})
	}
	return pairs
}

var carakanPhrases = []struct {
	phrase string
	tag    Tag
}{
	{"Error thrown at", TagThrown},
	{"Error created at", TagConstructed},
	{"Error initially occurred at", TagRethrown},
	{"called via ToPrimitive() from", TagToPrimitive},
	{"called via Function.prototype.apply() from", TagFunctionPrototypeApply},
	{"called via Function.prototype.call() from", TagFunctionPrototypeCall},
	{"called as bound function from", TagFunctionPrototypeBind},
	{"called from", TagFunctionCall},
}

var (
	carakanNamed    = regexp.MustCompile(`in (.+?) in (.+)`)
	carakanUnnamed  = regexp.MustCompile(`(?:at|from) (.*?) in (.*)`)
	carakanPosition = regexp.MustCompile(`line (\d+), column (\d+)`)
)

func parseCarakan(stack string) []Frame {
	var frames []Frame
	for _, p := range operaPairs(stack) {
		frames = append(frames, parseCarakanFrame(p.frame, p.context))
	}
	return frames
}

func parseCarakanFrame(line, context string) Frame {
	tag := TagThrown
	for _, p := range carakanPhrases {
		if strings.HasPrefix(line, p.phrase+" ") {
			tag = p.tag
			break
		}
	}

	var rawName, src string
	if m := carakanNamed.FindStringSubmatch(line); m != nil {
		rawName, src = m[1], m[2]
	} else if m := carakanUnnamed.FindStringSubmatch(line); m != nil {
		src = m[2]
	}
	src = strings.TrimSuffix(src, ":")

	location := Location{
		SourceURL: src,
		Context:   context,
		Anonymous: src == "" || strings.Contains(line, "unknown location") || strings.Contains(src, " "),
	}
	if !strings.Contains(src, " ") {
		location.FileName = fileNameOf(src)
	}
	if m := carakanPosition.FindStringSubmatch(line); m != nil {
		location.Line, location.Column = atoiPtr(m[1]), atoiPtr(m[2])
	}

	var fn Function
	switch {
	case rawName == "" || rawName == "<anonymous function>":
		fn = Function{Anonymous: true}
	case strings.HasPrefix(rawName, "<anonymous function: "):
		inner := strings.Replace(strings.TrimPrefix(rawName, "<anonymous function: "), ">", "", 1)
		fn = ParseFunctionName(inner, inner, "")
		fn.Anonymous = true
	default:
		fn = ParseFunctionName(rawName, rawName, "")
	}

	return Frame{
		Raw:         line,
		Func:        fn,
		Location:    location,
		Environment: Environment{Host: HostOpera, Format: FormatCarakan, Type: EnvBrowser},
		Type:        tag,
	}
}

func formatCarakan(f *Frame) string {
	phrase := "called from"
	for _, p := range carakanPhrases {
		if p.tag == f.Type {
			phrase = p.phrase
			break
		}
	}

	var b strings.Builder
	b.WriteString(phrase)
	l := &f.Location
	switch {
	case l.Line != nil:
		column := 0
		if l.Column != nil {
			column = *l.Column
		}
		b.WriteString(" line " + strconv.Itoa(*l.Line) + ", column " + strconv.Itoa(column))
	case l.Anonymous:
		b.WriteString(" unknown location")
	}
	b.WriteString(" in " + carakanCallee(&f.Func) + " in " + l.SourceURL + ":")
	if l.Context != "" {
		b.WriteString("\n    " + l.Context)
	}
	return b.String()
}

func carakanCallee(fn *Function) string {
	if !fn.Anonymous {
		return fn.calleeText()
	}
	if fn.Name == "" {
		return "<anonymous function>"
	}
	return "<anonymous function: " + fn.displayName() + ">" + fn.argList()
}

var linearBFrame = regexp.MustCompile(`^Line (\d+) of ([a-z]+)(?:#(\d+))? script(?: in (.*?))?(?:: In function (.*))?$`)

const noSourceAvailable = "/* no source available */"

func parseLinearB(stack string) []Frame {
	var frames []Frame
	for _, p := range operaPairs(stack) {
		if f, ok := parseLinearBFrame(p.frame, p.context); ok {
			frames = append(frames, f)
		}
	}
	return frames
}

func parseLinearBFrame(line, context string) (Frame, bool) {
	m := linearBFrame.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Frame{}, false
	}
	if context == noSourceAvailable {
		context = ""
	}

	script := &Script{Type: m[2]}
	if m[3] != "" {
		script.Index = atoiPtr(m[3])
	}
	location := Location{
		SourceURL: m[4],
		FileName:  fileNameOf(m[4]),
		Line:      atoiPtr(m[1]),
		Anonymous: m[4] == "",
		Script:    script,
		Context:   context,
	}

	fn := Function{Anonymous: true}
	if m[5] != "" {
		fn = ParseFunctionName(m[5], m[5], "")
	}

	return Frame{
		Raw:         line,
		Func:        fn,
		Location:    location,
		Environment: Environment{Host: HostOpera, Format: FormatLinearB, Type: EnvBrowser},
	}, true
}

func formatLinearB(f *Frame) string {
	l := &f.Location
	line := 0
	if l.Line != nil {
		line = *l.Line
	}
	script := Script{Type: "linked"}
	if l.Script != nil {
		script = *l.Script
	}

	var b strings.Builder
	b.WriteString("  Line " + strconv.Itoa(line) + " of " + script.Type)
	if script.Index != nil {
		b.WriteString("#" + strconv.Itoa(*script.Index))
	}
	b.WriteString(" script")
	if l.SourceURL != "" {
		b.WriteString(" in " + l.SourceURL)
	}
	if !f.Func.Anonymous || f.Func.Name != "" {
		b.WriteString(": In function " + f.Func.calleeText())
	}
	context := l.Context
	if context == "" {
		context = noSourceAvailable
	}
	b.WriteString("\n    " + context)
	return b.String()
}
