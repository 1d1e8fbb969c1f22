package errors_test

import (
	"fmt"

	"github.com/agentstation/eventmerge/pkg/errors"
)

// Example demonstrates basic error creation and checking.
func Example() {
	err := errors.NewIOError("open", "events.csv", errors.NewNotFoundError("file", "events.csv"))

	if errors.IsNotFound(err) {
		fmt.Println("Input file missing")
	}

	// Output: Input file missing
}

// Example_columnError demonstrates checking for a missing column.
func Example_columnError() {
	err := fmt.Errorf("filter overlay: %w", errors.NewColumnError("overlay", "registration"))

	var colErr *errors.ColumnError
	if errors.As(err, &colErr) {
		fmt.Printf("missing %s in %s\n", colErr.Column, colErr.Table)
	}

	// Output: missing registration in overlay
}
