package reconcile

import (
	"github.com/agentstation/eventmerge/pkg/provenance"
	"github.com/agentstation/eventmerge/pkg/table"
)

// Result represents the outcome of a reconciliation operation
type Result struct {
	// Table is the reconciled table
	Table *table.Table

	// Strategy names the strategy that resolved the fields
	Strategy string

	// Fields lists the resolved fields in resolution order
	Fields []string

	// Dropped lists the columns removed from the joined table
	Dropped []string

	// Provenance records which source supplied each resolved value
	Provenance provenance.Tracker
}

// Summary returns per-field source counts.
func (r *Result) Summary() provenance.Summary {
	if r == nil || r.Provenance == nil {
		return provenance.Summary{}
	}
	return r.Provenance.Summary()
}
