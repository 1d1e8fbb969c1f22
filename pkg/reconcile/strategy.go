package reconcile

import (
	"github.com/agentstation/eventmerge/pkg/table"
)

// Candidate is one source's value for a field.
type Candidate struct {
	Source   SourceName
	Value    table.Value
	Priority int
}

// Strategy defines how reconciliation should be performed
type Strategy interface {
	// Name returns the strategy name
	Name() string

	// Description returns a human-readable description
	Description() string

	// Resolve picks the winning candidate for a field. Candidates arrive
	// in authority order. ok is false when no candidate qualifies.
	Resolve(field string, candidates []Candidate) (winner Candidate, reason string, ok bool)
}

// baseStrategy provides common strategy functionality
type baseStrategy struct {
	name        string
	description string
}

// Name returns the strategy name
func (s *baseStrategy) Name() string {
	return s.name
}

// Description returns a human-readable description
func (s *baseStrategy) Description() string {
	return s.description
}

// AuthorityBasedStrategy takes the first non-null value in authority order.
// A blank but present string still wins over a lower priority source.
type AuthorityBasedStrategy struct {
	baseStrategy
}

// NewAuthorityBasedStrategy creates a new authority-based strategy
func NewAuthorityBasedStrategy() Strategy {
	return &AuthorityBasedStrategy{
		baseStrategy: baseStrategy{
			name:        "authority-based",
			description: "first non-null value by field authority priority",
		},
	}
}

// Resolve returns the highest priority candidate holding a value.
func (s *AuthorityBasedStrategy) Resolve(field string, candidates []Candidate) (Candidate, string, bool) {
	for i, c := range candidates {
		if !c.Value.Valid() {
			continue
		}
		if i == 0 {
			return c, "authority", true
		}
		return c, "fallback: higher priority value missing", true
	}
	return Candidate{}, "", false
}

// SourcePriorityStrategy uses a fixed source order for every field,
// ignoring per-field priorities.
type SourcePriorityStrategy struct {
	baseStrategy
	priority []SourceName
}

// NewSourcePriorityStrategy creates a new source priority strategy
func NewSourcePriorityStrategy(priority ...SourceName) Strategy {
	return &SourcePriorityStrategy{
		baseStrategy: baseStrategy{
			name:        "source-priority",
			description: "first non-null value in fixed source order",
		},
		priority: priority,
	}
}

// Resolve walks the configured source order.
func (s *SourcePriorityStrategy) Resolve(field string, candidates []Candidate) (Candidate, string, bool) {
	for _, src := range s.priority {
		for _, c := range candidates {
			if c.Source == src && c.Value.Valid() {
				return c, "source priority", true
			}
		}
	}
	return Candidate{}, "", false
}

// ConflictResolver is a function that resolves conflicts
type ConflictResolver func(field string, candidates []Candidate) (Candidate, string, bool)

// CustomStrategy allows custom conflict resolution logic
type CustomStrategy struct {
	baseStrategy
	resolver ConflictResolver
}

// NewCustomStrategy creates a new custom strategy
func NewCustomStrategy(name, description string, resolver ConflictResolver) Strategy {
	return &CustomStrategy{
		baseStrategy: baseStrategy{name: name, description: description},
		resolver:     resolver,
	}
}

// Resolve uses the custom resolver
func (s *CustomStrategy) Resolve(field string, candidates []Candidate) (Candidate, string, bool) {
	if s.resolver == nil {
		return Candidate{}, "", false
	}
	return s.resolver(field, candidates)
}
