package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/yousuf/stackbraid/internal/stacktrace"
	"gopkg.in/yaml.v3"
)

// printer renders command results in the format chosen with --output.
type printer struct {
	w      io.Writer
	format string

	name     *color.Color
	location *color.Color
	dim      *color.Color
	mark     *color.Color
}

func newPrinter(cmd *cobra.Command) (*printer, error) {
	format, err := cmd.Root().PersistentFlags().GetString("output")
	if err != nil {
		return nil, fmt.Errorf("failed to get output flag: %w", err)
	}
	switch format {
	case "text", "json", "yaml", "msgpack":
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}

	p := &printer{
		w:        cmd.OutOrStdout(),
		format:   format,
		name:     color.New(color.FgYellow, color.Bold),
		location: color.New(color.FgCyan),
		dim:      color.New(color.Faint),
		mark:     color.New(color.FgRed, color.Bold),
	}
	enabled := useColor(cmd)
	for _, c := range []*color.Color{p.name, p.location, p.dim, p.mark} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p, nil
}

// encode writes v in a structured format. Field names follow the JSON tags
// in every format.
func (p *printer) encode(v any) error {
	switch p.format {
	case "yaml":
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	case "msgpack":
		enc := msgpack.NewEncoder(p.w)
		enc.SetCustomStructTag("json")
		return enc.Encode(v)
	default:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

// text writes s followed by a newline in text mode and encodes it as a
// scalar otherwise.
func (p *printer) text(s string) error {
	if p.format != "text" {
		return p.encode(s)
	}
	_, err := fmt.Fprintln(p.w, s)
	return err
}

func (p *printer) frames(frames []stacktrace.Frame) error {
	if p.format != "text" {
		if frames == nil {
			frames = []stacktrace.Frame{}
		}
		return p.encode(frames)
	}
	for i := range frames {
		if err := p.frame(&frames[i]); err != nil {
			return err
		}
	}
	return nil
}

func (p *printer) report(r *stacktrace.Report) error {
	if p.format != "text" {
		return p.encode(r)
	}
	if r.Header != "" {
		if _, err := p.mark.Fprintln(p.w, r.Header); err != nil {
			return err
		}
	}
	if r.Format != "" {
		if _, err := p.dim.Fprintf(p.w, "(%s)\n", r.Format); err != nil {
			return err
		}
	}
	return p.frames(r.Frames)
}

// frame prints "name  location" followed by any attached source context.
func (p *printer) frame(f *stacktrace.Frame) error {
	name := f.Func.Name
	if name == "" {
		name = "<anonymous>"
	}
	loc := f.Location.SourceURL
	if f.Location.Line != nil {
		loc += ":" + strconv.Itoa(*f.Location.Line)
		if f.Location.Column != nil {
			loc += ":" + strconv.Itoa(*f.Location.Column)
		}
	}
	line := "  " + p.name.Sprint(name)
	if loc != "" {
		line += "  " + p.location.Sprint(loc)
	}
	if f.SourceMapped {
		line += p.dim.Sprint("  (mapped)")
	}
	if _, err := fmt.Fprintln(p.w, line); err != nil {
		return err
	}

	if f.Source == nil || f.Location.Line == nil {
		return nil
	}
	n := *f.Location.Line - len(f.Source.Above)
	width := len(strconv.Itoa(*f.Location.Line + len(f.Source.Below)))
	var b strings.Builder
	for _, l := range f.Source.Above {
		b.WriteString(p.dim.Sprintf("    %*d | %s", width, n, l) + "\n")
		n++
	}
	b.WriteString(p.mark.Sprintf("  > %*d | ", width, n) + f.Source.Line + "\n")
	n++
	for _, l := range f.Source.Below {
		b.WriteString(p.dim.Sprintf("    %*d | %s", width, n, l) + "\n")
		n++
	}
	_, err := io.WriteString(p.w, b.String())
	return err
}
