package table

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"

	"github.com/agentstation/eventmerge/pkg/errors"
)

// utf8BOM is stripped from the first header cell; spreadsheet exports often
// carry one.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadOption configures ReadCSV.
type ReadOption func(*readOptions)

type readOptions struct {
	nullValues map[string]struct{}
}

// DefaultNullValues are the field texts read as null besides the empty
// field. Matching is exact and case sensitive.
var DefaultNullValues = []string{
	"NA", "N/A", "n/a", "#N/A", "#N/A N/A", "#NA", "<NA>",
	"NULL", "null", "None",
	"NaN", "nan", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "-1.#IND", "-1.#QNAN",
}

// WithNullValues treats the given field texts as null in addition to the
// empty field and DefaultNullValues.
func WithNullValues(values ...string) ReadOption {
	return func(o *readOptions) {
		for _, v := range values {
			o.nullValues[v] = struct{}{}
		}
	}
}

func newReadOptions(opts []ReadOption) *readOptions {
	o := &readOptions{nullValues: make(map[string]struct{}, len(DefaultNullValues))}
	WithNullValues(DefaultNullValues...)(o)
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *readOptions) cell(field string) Value {
	if _, ok := o.nullValues[field]; ok {
		return Null()
	}
	return FromField(field)
}

// ReadCSV parses a header row followed by records. name labels the table in
// errors. Header cells are taken verbatim; only record fields are checked
// against the null values. Records shorter than the header are padded with nulls.
func ReadCSV(name string, r io.Reader, opts ...ReadOption) (*Table, error) {
	o := newReadOptions(opts)

	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.NewParseError("csv", name, "no header row", err)
	}
	if err != nil {
		return nil, errors.WrapParse("csv", name, err)
	}

	t := New(name, header)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WrapParse("csv", name, err)
		}

		row := make(Row, len(record))
		for i, field := range record {
			row[i] = o.cell(field)
		}
		if err := t.Append(row); err != nil {
			line, _ := cr.FieldPos(0)
			return nil, &errors.ParseError{Format: "csv", File: name, Line: line, Column: 1, Message: err.Error(), Err: err}
		}
	}

	return t, nil
}

// WriteCSV writes the header row and every record. Null cells are written
// as empty fields.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.columns); err != nil {
		return err
	}

	record := make([]string, len(t.columns))
	for _, row := range t.rows {
		for i := range record {
			record[i] = row[i].String()
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
