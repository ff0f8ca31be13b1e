package stacktrace

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var trailingPosition = regexp.MustCompile(`:(\d+)(?::(\d+))?$`)

// splitPosition strips a trailing ":line" or ":line:column" from path.
func splitPosition(path string) (rest string, line, column *int) {
	m := trailingPosition.FindStringSubmatchIndex(path)
	if m == nil {
		return path, nil, nil
	}
	line = atoiPtr(path[m[2]:m[3]])
	if m[4] >= 0 {
		column = atoiPtr(path[m[4]:m[5]])
	}
	return path[:m[0]], line, column
}

func atoiPtr(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

// fileNameOf returns the decoded last path segment of a URL or path.
func fileNameOf(path string) string {
	if path == "" {
		return ""
	}
	name := path[strings.LastIndex(path, "/")+1:]
	if decoded, err := url.PathUnescape(name); err == nil {
		return decoded
	}
	return name
}

// isConcretePath reports whether s names a real resource rather than an
// engine label such as "eval" or "Function".
func isConcretePath(s string) bool {
	return strings.Contains(s, "://") || strings.HasPrefix(s, "/")
}

// fileLocation builds the location of an ordinary "path:line:column" string.
func fileLocation(path string) Location {
	rest, line, column := splitPosition(path)
	rest = strings.ReplaceAll(rest, `\`, "/")
	return Location{
		SourceURL: rest,
		FileName:  fileNameOf(rest),
		Line:      line,
		Column:    column,
		Anonymous: rest == "",
	}
}

// lineColumn renders ":line:column", ":line" or nothing.
func lineColumn(l *Location) string {
	if l.Line == nil {
		return ""
	}
	out := ":" + strconv.Itoa(*l.Line)
	if l.Column != nil {
		out += ":" + strconv.Itoa(*l.Column)
	}
	return out
}

// FileName returns the decoded last path segment of a URL or path.
func FileName(path string) string {
	return fileNameOf(path)
}
