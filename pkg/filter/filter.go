// Package filter keeps the rows of a table that satisfy a set of
// column predicates. Predicates are bound to a table before use so a
// missing column fails once, up front, instead of per row.
package filter

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/agentstation/eventmerge/pkg/table"
)

// Predicate decides whether a row is kept.
type Predicate interface {
	// Bind resolves column names against t and returns the row test.
	Bind(t *table.Table) (func(table.Row) bool, error)

	// String describes the predicate for logs.
	String() string
}

// Result is the outcome of applying predicates to a table.
type Result struct {
	Table   *table.Table
	Kept    int
	Dropped int
}

// Apply returns the rows of t that satisfy every predicate, in order.
func Apply(t *table.Table, preds ...Predicate) (*Result, error) {
	keep, err := All(preds...).Bind(t)
	if err != nil {
		return nil, err
	}

	out := t.Filter(keep)
	return &Result{
		Table:   out,
		Kept:    out.Len(),
		Dropped: t.Len() - out.Len(),
	}, nil
}

// contains matches a case-insensitive literal substring.
type contains struct {
	column string
	marker string
	folder cases.Caser
}

// Contains keeps rows whose column contains marker, ignoring case. Null
// cells never match.
func Contains(column, marker string) Predicate {
	folder := cases.Fold()
	return &contains{column: column, marker: folder.String(marker), folder: folder}
}

func (c *contains) Bind(t *table.Table) (func(table.Row) bool, error) {
	i, err := t.Index(c.column)
	if err != nil {
		return nil, err
	}
	return func(r table.Row) bool {
		v := r[i]
		if !v.Valid() {
			return false
		}
		return strings.Contains(c.folder.String(v.String()), c.marker)
	}, nil
}

func (c *contains) String() string {
	return fmt.Sprintf("%s contains %q", c.column, c.marker)
}

// notBlank keeps rows with a non-null, non-whitespace value.
type notBlank struct {
	column string
}

// NotBlank keeps rows whose column is present and non-empty after trimming.
func NotBlank(column string) Predicate {
	return &notBlank{column: column}
}

func (n *notBlank) Bind(t *table.Table) (func(table.Row) bool, error) {
	i, err := t.Index(n.column)
	if err != nil {
		return nil, err
	}
	return func(r table.Row) bool { return !r[i].IsBlank() }, nil
}

func (n *notBlank) String() string {
	return n.column + " is not blank"
}

// all is the conjunction of its predicates.
type all []Predicate

// All keeps rows that satisfy every predicate. With no predicates every row
// is kept.
func All(preds ...Predicate) Predicate {
	return all(preds)
}

func (a all) Bind(t *table.Table) (func(table.Row) bool, error) {
	tests := make([]func(table.Row) bool, 0, len(a))
	for _, p := range a {
		test, err := p.Bind(t)
		if err != nil {
			return nil, err
		}
		tests = append(tests, test)
	}
	return func(r table.Row) bool {
		for _, test := range tests {
			if !test(r) {
				return false
			}
		}
		return true
	}, nil
}

func (a all) String() string {
	parts := make([]string, len(a))
	for i, p := range a {
		parts[i] = p.String()
	}
	return strings.Join(parts, " and ")
}
