package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/eventmerge"
	"github.com/agentstation/eventmerge/pkg/provenance"
)

// ResultToTableData renders a run summary as a key-value table.
func ResultToTableData(res *eventmerge.Result) Data {
	output := res.OutputFile
	if !res.Written {
		output = "(dry run)"
	}
	rows := [][]string{
		{"Run ID", res.RunID},
		{"Sheet", res.SheetURL},
		{"Base File", res.BaseFile},
		{"Output File", output},
		{"Columns", strings.Join(res.Columns, ", ")},
		{"Duration", res.Duration.Round(time.Millisecond).String()},
	}
	return Data{
		Headers: []string{"Property", "Value"},
		Rows:    rows,
	}
}

// CountsToTableData renders the per-stage row counts.
func CountsToTableData(c eventmerge.Counts) Data {
	entries := []struct {
		name  string
		value int
	}{
		{"base_loaded", c.BaseLoaded},
		{"base_kept", c.BaseKept},
		{"overlay_loaded", c.OverlayLoaded},
		{"overlay_kept", c.OverlayKept},
		{"matched", c.Matched},
		{"base_unmatched", c.BaseUnmatched},
		{"overlay_unmatched", c.OverlayUnmatched},
		{"base_duplicates", c.BaseDuplicates},
		{"overlay_duplicates", c.OverlayDuplicates},
		{"output", c.Output},
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{label(e.name), strconv.Itoa(e.value)})
	}
	return Data{
		Headers:         []string{"Stage", "Rows"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
}

// FieldsToTableData renders how many values each source supplied per field.
func FieldsToTableData(s provenance.Summary) Data {
	rows := make([][]string, 0, len(s))
	for _, field := range s.Fields() {
		bySource := s[field]
		rows = append(rows, []string{
			field,
			strconv.Itoa(bySource["overlay"]),
			strconv.Itoa(bySource["base"]),
			strconv.Itoa(bySource["default"]),
		})
	}
	return Data{
		Headers:         []string{"Field", "Overlay", "Base", "Default"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight, AlignRight, AlignRight},
	}
}

// Summary returns the tables that describe a run.
func Summary(res *eventmerge.Result) []Data {
	tables := []Data{ResultToTableData(res), CountsToTableData(res.Counts)}
	if len(res.Fields) > 0 {
		tables = append(tables, FieldsToTableData(res.Fields))
	}
	return tables
}

// FormatResult writes a run summary in the given format.
func FormatResult(w io.Writer, format Format, res *eventmerge.Result) error {
	var data any = res
	if format == FormatTable || format == "" {
		data = Summary(res)
	}
	if err := NewFormatter(format).Format(w, data); err != nil {
		return fmt.Errorf("formatting result: %w", err)
	}
	return nil
}

func label(key string) string {
	caser := cases.Title(language.English)
	return caser.String(strings.ReplaceAll(key, "_", " "))
}
