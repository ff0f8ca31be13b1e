package stacktrace

import "strings"

var dialectFormatters = map[Format]func(*Frame) string{
	FormatV8:           formatV8,
	FormatSpiderMonkey: formatSpiderMonkey,
	FormatIE:           formatIE,
	FormatCarakan:      formatCarakan,
	FormatLinearB:      formatLinearB,
	FormatEspruino:     formatEspruino,
}

// String renders the frame in the dialect named by its environment. Some
// frames render to nothing, e.g. anonymous eval frames in SpiderMonkey.
func (f Frame) String() string {
	render, ok := dialectFormatters[f.Environment.Format]
	if !ok {
		return f.Raw
	}
	return render(&f)
}

// Stringify renders frames in their own dialects, one per line, skipping
// frames that render empty.
func Stringify(frames []Frame) string {
	lines := make([]string, 0, len(frames))
	for i := range frames {
		if s := frames[i].String(); s != "" {
			lines = append(lines, s)
		}
	}
	return strings.Join(lines, "\n")
}
