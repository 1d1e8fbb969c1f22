// Package sources defines the inputs of a merge run. A source knows how to
// check that it is reachable and how to load itself as a table.
package sources

import (
	"context"

	"github.com/agentstation/eventmerge/pkg/table"
)

// ID identifies the role a source plays in a merge.
type ID string

// String returns the string representation of a source ID.
func (id ID) String() string {
	return string(id)
}

// Source roles.
const (
	BaseID    ID = "base"
	OverlayID ID = "overlay"
)

// Source is a loadable CSV input.
type Source interface {
	// ID returns the role of this source.
	ID() ID

	// Location describes where the data comes from, for logs.
	Location() string

	// Check verifies the source exists without loading it.
	Check(ctx context.Context) error

	// Load reads the source as a table.
	Load(ctx context.Context) (*table.Table, error)
}
