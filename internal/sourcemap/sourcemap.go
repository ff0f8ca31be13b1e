// Package sourcemap decodes version 3 source maps and resolves stack frames
// against them.
package sourcemap

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Segment links one generated position to an original one. Source,
// SourceLine, SourceColumn and Name are nil when the segment omits them.
type Segment struct {
	// GeneratedLine is one-based, like stack frame lines.
	GeneratedLine   int
	GeneratedColumn int
	Source          *int
	SourceLine      *int
	SourceColumn    *int
	Name            *int
}

// SourceMap is a decoded source map.
type SourceMap struct {
	File       string
	SourceRoot string
	Sources    []string
	Names      []string
	// Lines holds the segments of each generated line, sorted by column.
	Lines [][]Segment
}

type rawMap struct {
	Version    int      `json:"version"`
	File       string   `json:"file"`
	SourceRoot string   `json:"sourceRoot"`
	Sources    []string `json:"sources"`
	Names      []string `json:"names"`
	Mappings   string   `json:"mappings"`
}

// Parse decodes a source map document.
func Parse(data []byte) (*SourceMap, error) {
	var raw rawMap
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode source map: %w", err)
	}
	if raw.Version != 0 && raw.Version != 3 {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformed, raw.Version)
	}
	lines, err := DecodeMappings(raw.Mappings)
	if err != nil {
		return nil, err
	}
	return &SourceMap{
		File:       raw.File,
		SourceRoot: raw.SourceRoot,
		Sources:    raw.Sources,
		Names:      raw.Names,
		Lines:      lines,
	}, nil
}

// DecodeMappings decodes a mappings string into per-line segments. The
// generated column restarts on every line; the other four counters carry
// over the whole string. Each line's segments are sorted by generated
// column, keeping the order of equal columns.
func DecodeMappings(mappings string) ([][]Segment, error) {
	var lines [][]Segment
	var line []Segment
	var column, source, srcLine, srcCol, name int
	endLine := func() {
		sort.SliceStable(line, func(a, b int) bool { return line[a].GeneratedColumn < line[b].GeneratedColumn })
		lines = append(lines, line)
		line = nil
		column = 0
	}

	for i := 0; i < len(mappings); {
		switch mappings[i] {
		case ';':
			endLine()
			i++
			continue
		case ',':
			i++
			continue
		}

		var fields [5]int
		n := 0
		for i < len(mappings) && mappings[i] != ',' && mappings[i] != ';' {
			if n == len(fields) {
				return nil, &MalformedError{Offset: i, Reason: "segment has more than five fields"}
			}
			v, next, err := decodeVLQ(mappings, i)
			if err != nil {
				return nil, err
			}
			fields[n] = v
			n++
			i = next
		}

		column += fields[0]
		seg := Segment{GeneratedLine: len(lines) + 1, GeneratedColumn: column}
		if n > 1 {
			source += fields[1]
			seg.Source = intPtr(source)
		}
		if n > 2 {
			srcLine += fields[2]
			seg.SourceLine = intPtr(srcLine)
		}
		if n > 3 {
			srcCol += fields[3]
			seg.SourceColumn = intPtr(srcCol)
		}
		if n > 4 {
			name += fields[4]
			seg.Name = intPtr(name)
		}
		line = append(line, seg)
	}
	endLine()
	return lines, nil
}

// Position is an original source position. Line is one-based and Column
// zero-based.
type Position struct {
	Source string
	Line   int
	Column int
	Name   string
}

// OriginalPositionFor resolves a generated position (one-based line,
// zero-based column) to the segment with the greatest column not past it.
// It reports false when the line has no such segment or the segment names
// no source.
func (m *SourceMap) OriginalPositionFor(line, column int) (Position, bool) {
	if line < 1 || line > len(m.Lines) {
		return Position{}, false
	}
	var match *Segment
	for i, s := range m.Lines[line-1] {
		if s.GeneratedColumn > column {
			break
		}
		match = &m.Lines[line-1][i]
	}
	if match == nil || match.Source == nil {
		return Position{}, false
	}

	pos := Position{Source: m.source(*match.Source)}
	if match.SourceLine != nil {
		pos.Line = *match.SourceLine + 1
	}
	if match.SourceColumn != nil {
		pos.Column = *match.SourceColumn
	}
	if match.Name != nil && *match.Name >= 0 && *match.Name < len(m.Names) {
		pos.Name = m.Names[*match.Name]
	}
	return pos, true
}

func (m *SourceMap) source(i int) string {
	if i < 0 || i >= len(m.Sources) {
		return ""
	}
	return m.Sources[i]
}

func intPtr(v int) *int { return &v }
