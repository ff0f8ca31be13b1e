package stacktrace

import (
	"regexp"
	"strings"
)

var spiderMonkeyLine = regexp.MustCompile(`^.*?@.+?(:\d+)?(?::\d+)?$`)

// Detect classifies the dialect of in's stack. Opera errors are checked
// first since their frames live in the message or stacktrace property.
func Detect(in Input) (Format, error) {
	opera, err := operaStack(in)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(opera) != "" {
		return operaDialect(opera), nil
	}

	stack := in.stripHeader()
	return detectText(stack)
}

func detectText(stack string) (Format, error) {
	lines := splitLines(stack)
	switch {
	case looksLikeEspruino(lines):
		return FormatEspruino, nil
	case everyFrameIndented(lines, 4):
		return FormatV8, nil
	case everyFrameIndented(lines, 3):
		return FormatIE, nil
	}
	for _, line := range lines {
		if spiderMonkeyLine.MatchString(line) {
			return FormatSpiderMonkey, nil
		}
	}
	return "", &UnsupportedFormatError{Text: stack}
}

// everyFrameIndented reports whether there is at least one "at" frame line
// and every such line is indented by exactly n spaces.
func everyFrameIndented(lines []string, n int) bool {
	want := strings.Repeat(" ", n) + "at "
	found := false
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		if !strings.HasPrefix(trimmed, "at ") {
			continue
		}
		if !strings.HasPrefix(line, want) || len(line)-len(trimmed) != n {
			return false
		}
		found = true
	}
	return found
}
