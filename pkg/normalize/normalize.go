// Package normalize canonicalizes column names so the two tables can be
// addressed by the same lexical form. It never renames semantically and
// never touches row values.
package normalize

import (
	"strings"

	"github.com/agentstation/eventmerge/pkg/table"
)

// Rule rewrites a single column name.
type Rule func(string) string

// Trim removes surrounding whitespace.
func Trim(s string) string { return strings.TrimSpace(s) }

// Lower lower-cases the name.
func Lower(s string) string { return strings.ToLower(s) }

// SpacesToUnderscores replaces every space with an underscore.
func SpacesToUnderscores(s string) string { return strings.ReplaceAll(s, " ", "_") }

// Chain applies rules left to right.
func Chain(rules ...Rule) Rule {
	return func(s string) string {
		for _, r := range rules {
			s = r(s)
		}
		return s
	}
}

// BaseRule is applied to the locally stored table.
var BaseRule = Chain(Trim, Lower)

// OverlayRule is applied to the spreadsheet table.
var OverlayRule = Chain(Trim, Lower, SpacesToUnderscores)

// Columns returns t with every column name rewritten by rule.
func Columns(t *table.Table, rule Rule) *table.Table {
	return t.RenameColumns(rule)
}

// Base normalizes the base table's column names.
func Base(t *table.Table) *table.Table { return Columns(t, BaseRule) }

// Overlay normalizes the overlay table's column names.
func Overlay(t *table.Table) *table.Table { return Columns(t, OverlayRule) }
