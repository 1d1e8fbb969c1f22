// Package table provides the in-memory tabular model used by every merge
// stage: an ordered list of column names and rows of nullable string cells.
//
// Cells are loosely typed. An empty CSV field, or one of DefaultNullValues
// such as "N/A" or "None", is read as a null cell, so "missing" and "empty"
// are the same thing to the pipeline. A null cell is written back out as an
// empty field.
package table

import (
	"fmt"
	"slices"
	"strings"

	"github.com/agentstation/eventmerge/pkg/errors"
)

// Value is a nullable cell.
type Value struct {
	str   string
	valid bool
}

// String returns a non-null cell holding s.
func String(s string) Value {
	return Value{str: s, valid: true}
}

// Null returns a null cell.
func Null() Value {
	return Value{}
}

// FromField converts a raw CSV field into a cell. Empty fields are null.
func FromField(s string) Value {
	if s == "" {
		return Null()
	}
	return String(s)
}

// Valid reports whether the cell holds a value.
func (v Value) Valid() bool { return v.valid }

// String returns the cell text, or "" for a null cell.
func (v Value) String() string { return v.str }

// IsBlank reports whether the cell is null or only whitespace.
func (v Value) IsBlank() bool {
	return !v.valid || strings.TrimSpace(v.str) == ""
}

// Coalesce returns the first non-null value, or null if there is none.
func Coalesce(values ...Value) Value {
	for _, v := range values {
		if v.valid {
			return v
		}
	}
	return Null()
}

// Row is one record, positionally aligned with the table's columns.
type Row []Value

// Table is an ordered set of named columns and their rows.
type Table struct {
	name    string
	columns []string
	index   map[string]int
	rows    []Row
}

// New creates an empty table. The name is used in error messages.
func New(name string, columns []string) *Table {
	t := &Table{name: name}
	t.setColumns(slices.Clone(columns))
	return t
}

func (t *Table) setColumns(columns []string) {
	t.columns = columns
	t.index = make(map[string]int, len(columns))
	for i, c := range columns {
		// first occurrence wins for duplicated names
		if _, ok := t.index[c]; !ok {
			t.index[c] = i
		}
	}
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string { return slices.Clone(t.columns) }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Rows returns the rows. Callers must not modify them.
func (t *Table) Rows() []Row { return t.rows }

// Row returns row i.
func (t *Table) Row(i int) Row { return t.rows[i] }

// Has reports whether the table has a column with the given name.
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Index returns the position of a column, or a ColumnError if absent.
func (t *Table) Index(column string) (int, error) {
	i, ok := t.index[column]
	if !ok {
		return -1, errors.NewColumnError(t.name, column)
	}
	return i, nil
}

// Get returns the cell at row i in the named column.
func (t *Table) Get(i int, column string) (Value, error) {
	idx, err := t.Index(column)
	if err != nil {
		return Null(), err
	}
	return t.rows[i][idx], nil
}

// Append adds a row. Short rows are padded with nulls; long rows are rejected.
func (t *Table) Append(row Row) error {
	if len(row) > len(t.columns) {
		return fmt.Errorf("row has %d fields, %s table has %d columns", len(row), t.name, len(t.columns))
	}
	for len(row) < len(t.columns) {
		row = append(row, Null())
	}
	t.rows = append(t.rows, row)
	return nil
}

// RenameColumns returns a copy of the table with every column name passed
// through fn. Rows are shared with the receiver.
func (t *Table) RenameColumns(fn func(string) string) *Table {
	renamed := make([]string, len(t.columns))
	for i, c := range t.columns {
		renamed[i] = fn(c)
	}
	out := &Table{name: t.name, rows: t.rows}
	out.setColumns(renamed)
	return out
}

// Filter returns a table holding the rows for which keep returns true,
// in their original order.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := &Table{name: t.name}
	out.setColumns(slices.Clone(t.columns))
	for _, r := range t.rows {
		if keep(r) {
			out.rows = append(out.rows, r)
		}
	}
	return out
}

// Select returns a table restricted to the given columns in the given order.
func (t *Table) Select(columns []string) (*Table, error) {
	idx := make([]int, len(columns))
	for i, c := range columns {
		j, err := t.Index(c)
		if err != nil {
			return nil, err
		}
		idx[i] = j
	}

	out := &Table{name: t.name, rows: make([]Row, 0, len(t.rows))}
	out.setColumns(slices.Clone(columns))
	for _, r := range t.rows {
		nr := make(Row, len(idx))
		for i, j := range idx {
			nr[i] = r[j]
		}
		out.rows = append(out.rows, nr)
	}
	return out, nil
}

// Drop returns a table without the named columns. Unknown names are ignored.
func (t *Table) Drop(columns ...string) *Table {
	keep := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		if !slices.Contains(columns, c) {
			keep = append(keep, c)
		}
	}
	out, _ := t.Select(keep)
	return out
}

// SetColumn replaces the named column's values, appending the column if it
// does not exist yet. values must have one entry per row.
func (t *Table) SetColumn(column string, values []Value) error {
	if len(values) != len(t.rows) {
		return fmt.Errorf("column %s has %d values, %s table has %d rows", column, len(values), t.name, len(t.rows))
	}
	// rows may be shared with the table this one was derived from, so they
	// are copied rather than written in place
	i, ok := t.index[column]
	if !ok {
		i = len(t.columns)
		t.setColumns(append(slices.Clone(t.columns), column))
	}
	rows := make([]Row, len(t.rows))
	for r, row := range t.rows {
		nr := make(Row, len(t.columns))
		copy(nr, row)
		nr[i] = values[r]
		rows[r] = nr
	}
	t.rows = rows
	return nil
}

// Column returns every value of the named column in row order.
func (t *Table) Column(column string) ([]Value, error) {
	i, err := t.Index(column)
	if err != nil {
		return nil, err
	}
	out := make([]Value, len(t.rows))
	for r, row := range t.rows {
		out[r] = row[i]
	}
	return out, nil
}
