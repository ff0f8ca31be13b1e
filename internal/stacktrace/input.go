package stacktrace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// extraProps are the error properties kept in Input.Extra when decoding JSON.
var extraProps = []string{
	"cause", "errors", "error", "suppressed", "code", "errno", "syscall",
	"address", "port", "path", "dest", "spawnargs", "fileName", "lineNumber",
	"columnNumber", "sourceURL", "line", "column", "number", "description",
	"arguments", "opera#sourceloc",
}

// Stacktrace is the Opera-only stacktrace property: either text or an
// explicit false meaning stack traces were switched off.
type Stacktrace struct {
	Text     string
	Disabled bool
	Set      bool
}

// StacktraceText returns a set Stacktrace holding s.
func StacktraceText(s string) Stacktrace {
	return Stacktrace{Text: s, Set: true}
}

func (s Stacktrace) MarshalJSON() ([]byte, error) {
	switch {
	case s.Disabled:
		return []byte("false"), nil
	case s.Set:
		return json.Marshal(s.Text)
	default:
		return []byte("null"), nil
	}
}

func (s *Stacktrace) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "null":
		*s = Stacktrace{}
		return nil
	case "false":
		*s = Stacktrace{Disabled: true, Set: true}
		return nil
	case "true":
		*s = Stacktrace{Set: true}
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("stacktrace must be a string or false: %w", err)
	}
	*s = StacktraceText(text)
	return nil
}

// Input is a raised error as the parser sees it.
type Input struct {
	Name       string         `json:"name,omitempty"`
	Message    string         `json:"message,omitempty"`
	Stack      string         `json:"stack,omitempty"`
	Stacktrace Stacktrace     `json:"stacktrace"`
	Extra      map[string]any `json:"-"`
}

func (in *Input) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode error object: %w", err)
	}

	*in = Input{}
	fields := map[string]*string{"name": &in.Name, "message": &in.Message, "stack": &in.Stack}
	for key, dst := range fields {
		if v, ok := raw[key]; ok && string(v) != "null" {
			if err := json.Unmarshal(v, dst); err != nil {
				return fmt.Errorf("field %q: %w", key, err)
			}
		}
	}
	if v, ok := raw["stacktrace"]; ok {
		if err := in.Stacktrace.UnmarshalJSON(v); err != nil {
			return err
		}
	}

	for _, key := range extraProps {
		v, ok := raw[key]
		if !ok {
			continue
		}
		var decoded any
		if err := json.Unmarshal(v, &decoded); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		if in.Extra == nil {
			in.Extra = make(map[string]any)
		}
		in.Extra[key] = decoded
	}
	return nil
}

// Validate reports ErrInvalidInput when in carries none of stack,
// stacktrace or message.
func Validate(in Input) error {
	if in.Stack == "" && in.Message == "" && !in.Stacktrace.Set {
		return ErrInvalidInput
	}
	return nil
}

// Header is the "Name: message" line engines put on top of a stack.
func (in Input) Header() string {
	name, msg := in.Name, in.Message
	if name == "" && msg == "" {
		return ""
	}
	if name == "" {
		name = "Error"
	}
	if msg == "" {
		return name
	}
	return name + ": " + msg
}

// stripHeader removes the first occurrence of the header line from stack.
func (in Input) stripHeader() string {
	header := in.Header()
	if header == "" {
		return in.Stack
	}
	return strings.Replace(in.Stack, header+"\n", "", 1)
}

var operaMarker = regexp.MustCompile(`(?m)^\s*(?:Backtrace|stacktrace):`)

// InputFromText builds an Input from pasted stack text. Opera embeds its
// backtrace in the message, so text carrying a backtrace marker is routed
// there.
func InputFromText(text string) Input {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if operaMarker.MatchString(text) {
		return Input{Message: text}
	}
	return Input{Stack: text}
}

// splitLines splits text into lines, dropping empty ones.
func splitLines(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}
