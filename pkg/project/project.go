// Package project shapes the reconciled table into the published column
// order.
package project

import (
	"slices"

	"github.com/agentstation/eventmerge/pkg/table"
)

// Columns returns the output column order: every name in reference that
// t still carries, in reference order, followed by each trailing column
// not already listed. Trailing columns must exist in t.
func Columns(t *table.Table, reference []string, trailing ...string) []string {
	order := make([]string, 0, len(reference)+len(trailing))
	for _, c := range reference {
		if slices.Contains(trailing, c) || slices.Contains(order, c) {
			continue
		}
		if t.Has(c) {
			order = append(order, c)
		}
	}
	for _, c := range trailing {
		if !slices.Contains(order, c) {
			order = append(order, c)
		}
	}
	return order
}

// Apply selects t's columns in the order Columns computes. A missing
// trailing column is reported as a column error.
func Apply(t *table.Table, reference []string, trailing ...string) (*table.Table, error) {
	return t.Select(Columns(t, reference, trailing...))
}
