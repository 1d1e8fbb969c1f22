// Package output renders command results as tables, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Formatter writes data to w in one format.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// FormatterFunc adapts a function to Formatter.
type FormatterFunc func(io.Writer, any) error

// Format calls f.
func (f FormatterFunc) Format(w io.Writer, data any) error {
	return f(w, data)
}

// NewFormatter returns the formatter for format. Unknown formats render
// tables.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return FormatterFunc(writeJSON)
	case FormatYAML:
		return FormatterFunc(writeYAML)
	case FormatNone:
		return FormatterFunc(func(io.Writer, any) error { return nil })
	default:
		return FormatterFunc(writeTables)
	}
}

func writeJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func writeYAML(w io.Writer, data any) error {
	b, err := yaml.MarshalWithOptions(data, yaml.Indent(2), yaml.IndentSequence(false))
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// writeTables renders Data or []Data, separating tables with a blank line.
// Anything else is written as JSON.
func writeTables(w io.Writer, data any) error {
	var tables []Data
	switch v := data.(type) {
	case Data:
		tables = []Data{v}
	case []Data:
		tables = v
	default:
		return writeJSON(w, data)
	}

	for i, d := range tables {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := d.render(w); err != nil {
			return err
		}
	}
	return nil
}

// Align is a column alignment.
type Align int

// Column alignments. AlignDefault leaves the choice to the renderer.
const (
	AlignDefault Align = iota
	AlignLeft
	AlignCenter
	AlignRight
)

var twAligns = map[Align]tw.Align{
	AlignLeft:   tw.AlignLeft,
	AlignCenter: tw.AlignCenter,
	AlignRight:  tw.AlignRight,
}

// Data is one table: a header, rows, and optional per-column alignment.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align
}

func (d Data) render(w io.Writer) error {
	var cfg tablewriter.Config
	if len(d.ColumnAlignment) > 0 {
		per := make([]tw.Align, len(d.ColumnAlignment))
		for i, a := range d.ColumnAlignment {
			if mapped, ok := twAligns[a]; ok {
				per[i] = mapped
			} else {
				per[i] = tw.Skip
			}
		}
		cfg.Header.Alignment = tw.CellAlignment{PerColumn: per}
		cfg.Row.Alignment = tw.CellAlignment{PerColumn: per}
	}

	table := tablewriter.NewTable(w, tablewriter.WithConfig(cfg))
	if len(d.Headers) > 0 {
		table.Header(cells(d.Headers)...)
	}
	for _, row := range d.Rows {
		if err := table.Append(cells(row)...); err != nil {
			return err
		}
	}
	return table.Render()
}

func cells(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
