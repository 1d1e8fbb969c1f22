// Package join performs an inner equi-join between two tables.
//
// Column layout follows the usual relational-merge convention: every left
// column, then every right column. A non-key name present on both sides is
// emitted twice, suffixed "_x" for the left copy and "_y" for the right, so
// the reconciler can decide between them. When both key columns share a
// name the key is emitted once.
package join

import (
	"strings"

	"github.com/agentstation/eventmerge/pkg/constants"
	"github.com/agentstation/eventmerge/pkg/errors"
	"github.com/agentstation/eventmerge/pkg/table"
)

// Cardinality controls how repeated keys are matched.
type Cardinality int

const (
	// OneToOne matches only the first occurrence of a key on each side.
	// The output can never have more rows than either input.
	OneToOne Cardinality = iota

	// ManyToMany emits one output row per matching pair.
	ManyToMany
)

// String returns the cardinality name.
func (c Cardinality) String() string {
	switch c {
	case OneToOne:
		return "one-to-one"
	case ManyToMany:
		return "many-to-many"
	default:
		return "unknown"
	}
}

// ParseCardinality parses a cardinality name as printed by String.
func ParseCardinality(s string) (Cardinality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "one-to-one":
		return OneToOne, nil
	case "many-to-many":
		return ManyToMany, nil
	default:
		return OneToOne, errors.NewValidationError("cardinality", s, "must be one-to-one or many-to-many")
	}
}

// Result describes a completed join.
type Result struct {
	Table *table.Table

	// Matched is the number of output rows.
	Matched int

	// LeftUnmatched and RightUnmatched count rows that found no partner.
	LeftUnmatched  int
	RightUnmatched int

	// LeftDuplicates and RightDuplicates count rows skipped because their
	// key already appeared earlier on the same side (OneToOne only).
	LeftDuplicates  int
	RightDuplicates int
}

type options struct {
	leftSuffix  string
	rightSuffix string
	cardinality Cardinality
	name        string
}

// Option configures Inner.
type Option func(*options)

// WithSuffixes overrides the "_x"/"_y" suffixes for overlapping columns.
func WithSuffixes(left, right string) Option {
	return func(o *options) {
		o.leftSuffix = left
		o.rightSuffix = right
	}
}

// WithCardinality selects how repeated keys are handled.
func WithCardinality(c Cardinality) Option {
	return func(o *options) {
		o.cardinality = c
	}
}

// WithName names the joined table.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// Inner joins left and right where left[leftOn] == right[rightOn]. Null
// keys never match. Output rows follow left order, and for one left row
// its partners follow right order.
func Inner(left, right *table.Table, leftOn, rightOn string, opts ...Option) (*Result, error) {
	o := &options{
		leftSuffix:  constants.LeftSuffix,
		rightSuffix: constants.RightSuffix,
		cardinality: OneToOne,
		name:        "merged",
	}
	for _, opt := range opts {
		opt(o)
	}

	li, err := left.Index(leftOn)
	if err != nil {
		return nil, err
	}
	ri, err := right.Index(rightOn)
	if err != nil {
		return nil, err
	}

	columns, rightKeep := layout(left.Columns(), right.Columns(), leftOn, rightOn, o)
	out := table.New(o.name, columns)
	res := &Result{Table: out}

	// key -> right row positions, in right order
	partners := make(map[string][]int)
	for r, row := range right.Rows() {
		key := row[ri]
		if !key.Valid() {
			continue
		}
		k := key.String()
		if o.cardinality == OneToOne && len(partners[k]) > 0 {
			res.RightDuplicates++
			continue
		}
		partners[k] = append(partners[k], r)
	}

	matchedRight := make(map[int]bool)
	seenLeft := make(map[string]bool)
	for _, lrow := range left.Rows() {
		key := lrow[li]
		if !key.Valid() {
			res.LeftUnmatched++
			continue
		}
		k := key.String()
		if o.cardinality == OneToOne {
			if seenLeft[k] {
				res.LeftDuplicates++
				continue
			}
			seenLeft[k] = true
		}

		rs := partners[k]
		if len(rs) == 0 {
			res.LeftUnmatched++
			continue
		}
		for _, r := range rs {
			matchedRight[r] = true
			row := make(table.Row, 0, len(columns))
			row = append(row, lrow...)
			rrow := right.Row(r)
			for _, j := range rightKeep {
				row = append(row, rrow[j])
			}
			if err := out.Append(row); err != nil {
				return nil, err
			}
		}
	}

	res.Matched = out.Len()
	for _, rs := range partners {
		for _, r := range rs {
			if !matchedRight[r] {
				res.RightUnmatched++
			}
		}
	}
	return res, nil
}

// layout returns the joined column names and the right-hand column
// positions that are carried into the output.
func layout(left, right []string, leftOn, rightOn string, o *options) ([]string, []int) {
	sharedKey := leftOn == rightOn

	inLeft := make(map[string]bool, len(left))
	for _, c := range left {
		inLeft[c] = true
	}
	overlap := make(map[string]bool)
	for _, c := range right {
		if inLeft[c] && !(sharedKey && c == rightOn) {
			overlap[c] = true
		}
	}

	columns := make([]string, 0, len(left)+len(right))
	for _, c := range left {
		if overlap[c] {
			c += o.leftSuffix
		}
		columns = append(columns, c)
	}

	var keep []int
	for j, c := range right {
		if sharedKey && c == rightOn {
			continue
		}
		if overlap[c] {
			c += o.rightSuffix
		}
		columns = append(columns, c)
		keep = append(keep, j)
	}
	return columns, keep
}
