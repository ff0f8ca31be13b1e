package stacktrace

import (
	"regexp"
	"strings"
)

var (
	bracketAccess = regexp.MustCompile(`\[(.*?)\]`)
	callArgs      = regexp.MustCompile(`^(.+?)\((.*)\)$`)
)

var prefixFlags = []struct {
	word string
	flag Flag
}{
	{"get", FlagGetter},
	{"set", FlagSetter},
	{"new", FlagConstructor},
	{"async", FlagAsync},
}

// ParseFunctionName decomposes a callee label such as "a.b.c(1, 2)",
// "get foo" or "Object.<anonymous>" into a Function.
func ParseFunctionName(name, rawName, alias string) Function {
	switch {
	case name == "" || name == "<anonymous>":
		return Function{Anonymous: true, Alias: alias}
	case strings.HasSuffix(name, ".<anonymous>"):
		return Function{Name: strings.TrimSuffix(name, ".<anonymous>"), Anonymous: true, Alias: alias}
	case strings.Contains(name, "<anonymous>"):
		return Function{Anonymous: true, Alias: alias}
	}

	fn := Function{RawName: rawName, Alias: alias}

	callee := name
	if m := callArgs.FindStringSubmatch(name); m != nil {
		callee = m[1]
		fn.Args = parseArgs(m[2])
		fn.Flags = fn.Flags.Add(FlagArgs)
	}
	callee = bracketAccess.ReplaceAllString(callee, ".$1")

	switch {
	case strings.HasPrefix(callee, "./"):
		fn.Anonymous = true
	case hasPrefixWord(callee):
		word, rest, _ := strings.Cut(callee, " ")
		fn.Prefix = word
		fn.Name, fn.Method = splitMethod(rest)
		fn.Anonymous = fn.Name == ""
		fn.Flags = fn.Flags.Add(FlagPrefix, prefixFlag(word))
	case strings.Contains(callee, "."):
		fn.Name, fn.Method = splitMethod(callee)
		fn.Anonymous = fn.Name == ""
		fn.Flags = fn.Flags.Add(FlagDirect)
	default:
		fn.Name = callee
	}

	if fn.RawName == fn.Name {
		fn.RawName = ""
	}
	if fn.Name == "eval" {
		fn.Flags = fn.Flags.Add(FlagEval)
	}
	return fn
}

func hasPrefixWord(s string) bool {
	for _, p := range prefixFlags {
		if strings.HasPrefix(s, p.word+" ") {
			return true
		}
	}
	return false
}

func prefixFlag(word string) Flag {
	for _, p := range prefixFlags {
		if p.word == word {
			return p.flag
		}
	}
	return ""
}

// splitMethod splits "a.b.c" into ("a.b", "c").
func splitMethod(s string) (name, method string) {
	i := strings.LastIndex(s, ".")
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+1:]
}

// displayName renders the callee label back, without arguments.
func (fn *Function) displayName() string {
	name := fn.Name
	if name == "" {
		name = fn.RawName
	}
	if fn.Method != "" {
		name += "." + fn.Method
	}
	if fn.Prefix != "" {
		name = fn.Prefix + " " + name
	}
	return name
}

// argList renders "(a, b)" when the callee was recorded with arguments.
func (fn *Function) argList() string {
	if !fn.Flags.Has(FlagArgs) {
		return ""
	}
	parts := make([]string, len(fn.Args))
	for i, a := range fn.Args {
		parts[i] = formatArg(a)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// calleeText is the callee as it appeared in the source line when known,
// otherwise a rendering of the parsed parts.
func (fn *Function) calleeText() string {
	if fn.RawName != "" {
		return fn.RawName
	}
	return fn.displayName() + fn.argList()
}
