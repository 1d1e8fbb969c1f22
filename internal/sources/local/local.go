// Package local loads a source table from a CSV file on disk.
package local

import (
	"context"
	"os"

	"github.com/agentstation/eventmerge/internal/sources"
	"github.com/agentstation/eventmerge/pkg/errors"
	"github.com/agentstation/eventmerge/pkg/logging"
	"github.com/agentstation/eventmerge/pkg/table"
)

// Source loads a table from a file path.
type Source struct {
	id         sources.ID
	path       string
	nullValues []string
}

// Option configures a local source.
type Option func(*Source)

// WithNullValues treats extra field texts as null.
func WithNullValues(values ...string) Option {
	return func(s *Source) {
		s.nullValues = append(s.nullValues, values...)
	}
}

// New creates a new local source for path.
func New(id sources.ID, path string, opts ...Option) *Source {
	s := &Source{id: id, path: path}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the role of this source.
func (s *Source) ID() sources.ID {
	return s.id
}

// Location returns the file path.
func (s *Source) Location() string {
	return s.path
}

// Check reports an IOError wrapping a NotFoundError when the file is
// missing, so callers can fail before any other work.
func (s *Source) Check(_ context.Context) error {
	info, err := os.Stat(s.path)
	if os.IsNotExist(err) {
		return &errors.IOError{
			Operation: "open",
			Path:      s.path,
			Message:   "file not found",
			Err:       errors.NewNotFoundError("file", s.path),
		}
	}
	if err != nil {
		return errors.WrapIO("stat", s.path, err)
	}
	if info.IsDir() {
		return &errors.IOError{Operation: "open", Path: s.path, Message: "is a directory"}
	}
	return nil
}

// Load reads and parses the file.
func (s *Source) Load(ctx context.Context) (*table.Table, error) {
	if err := s.Check(ctx); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, errors.WrapIO("open", s.path, err)
	}
	defer func() { _ = f.Close() }()

	t, err := table.ReadCSV(s.id.String(), f, table.WithNullValues(s.nullValues...))
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Debug().
		Str("source", s.id.String()).
		Str("file", s.path).
		Int("rows", t.Len()).
		Int("columns", len(t.Columns())).
		Msg("Loaded local CSV")
	return t, nil
}
