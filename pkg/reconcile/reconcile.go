// Package reconcile collapses the suffixed column pairs a join produces into
// single fields, choosing each value by per-field source authority.
package reconcile

import (
	"context"
	"slices"
	"strconv"

	"github.com/agentstation/eventmerge/pkg/constants"
	"github.com/agentstation/eventmerge/pkg/errors"
	"github.com/agentstation/eventmerge/pkg/logging"
	"github.com/agentstation/eventmerge/pkg/provenance"
	"github.com/agentstation/eventmerge/pkg/table"
)

// SourceName represents the name/type of a data source
type SourceName string

// String returns the string representation of a source name
func (sn SourceName) String() string {
	return string(sn)
}

// Common source names
const (
	Base    SourceName = constants.SourceNameBase
	Overlay SourceName = constants.SourceNameOverlay

	// Default marks values filled in because no source had one.
	Default SourceName = "default"
)

// Source tells the reconciler where a source's copy of a field lives in
// the joined table: the suffixed column, or the plain column when only
// this source carried the field. A nil Columns claims any plain column.
type Source struct {
	Name    SourceName
	Suffix  string
	Columns []string
}

// column returns the joined column holding this source's value for field.
func (s Source) column(t *table.Table, field string) (string, bool) {
	if s.Suffix != "" && t.Has(field+s.Suffix) {
		return field + s.Suffix, true
	}
	if !t.Has(field) {
		return "", false
	}
	if s.Columns == nil || slices.Contains(s.Columns, field) {
		return field, true
	}
	return "", false
}

// Reconciler resolves authority fields on a joined table.
type Reconciler interface {
	Reconcile(ctx context.Context, t *table.Table) (*Result, error)
}

// reconciler is the default implementation of Reconciler
type reconciler struct {
	strategy    Strategy
	authorities AuthorityProvider
	sources     map[SourceName]Source
	defaults    map[string]table.Value
	drop        []string
	key         string
	tracking    bool
}

// Option configures a Reconciler
type Option func(*reconciler) error

// New creates a new Reconciler with options
func New(opts ...Option) (Reconciler, error) {
	r := &reconciler{
		strategy:    NewAuthorityBasedStrategy(),
		authorities: NewAuthorityProvider(),
		sources: map[SourceName]Source{
			Base:    {Name: Base, Suffix: constants.LeftSuffix},
			Overlay: {Name: Overlay, Suffix: constants.RightSuffix},
		},
		defaults: make(map[string]table.Value),
		key:      constants.ColumnBaseLink,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// WithStrategy sets the conflict resolution strategy
func WithStrategy(strategy Strategy) Option {
	return func(r *reconciler) error {
		if strategy == nil {
			return errors.NewValidationError("strategy", nil, "strategy cannot be nil")
		}
		r.strategy = strategy
		return nil
	}
}

// WithAuthorities replaces the field authorities
func WithAuthorities(authorities AuthorityProvider) Option {
	return func(r *reconciler) error {
		if authorities == nil {
			return errors.NewValidationError("authorities", nil, "authority provider cannot be nil")
		}
		r.authorities = authorities
		return nil
	}
}

// WithSource registers or replaces a source's column binding. columns
// lists the fields the source carried before the join.
func WithSource(name SourceName, suffix string, columns []string) Option {
	return func(r *reconciler) error {
		if columns == nil {
			columns = []string{}
		}
		r.sources[name] = Source{Name: name, Suffix: suffix, Columns: slices.Clone(columns)}
		return nil
	}
}

// WithDefault fills field with value when no source supplies one.
func WithDefault(field string, value table.Value) Option {
	return func(r *reconciler) error {
		r.defaults[field] = value
		return nil
	}
}

// WithDrop removes extra columns from the result.
func WithDrop(columns ...string) Option {
	return func(r *reconciler) error {
		r.drop = append(r.drop, columns...)
		return nil
	}
}

// WithKey names the column whose value identifies a row in provenance
// records. Rows without it are identified by position.
func WithKey(column string) Option {
	return func(r *reconciler) error {
		r.key = column
		return nil
	}
}

// WithProvenance enables per-row provenance history
func WithProvenance() Option {
	return func(r *reconciler) error {
		r.tracking = true
		return nil
	}
}

// Reconcile resolves every authority field of t and drops the columns the
// resolved fields replace. The input table is not modified.
func (r *reconciler) Reconcile(ctx context.Context, t *table.Table) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := logging.Ctx(ctx)

	tracker := provenance.NewTracker(r.tracking)
	fields := r.authorities.Fields()
	for field := range r.defaults {
		if !slices.Contains(fields, field) {
			fields = append(fields, field)
		}
	}
	// defaults-only fields come from a map; keep them ordered
	slices.Sort(fields[len(r.authorities.Fields()):])

	keyIdx := -1
	if idx, err := t.Index(r.key); err == nil {
		keyIdx = idx
	}
	resourceID := func(i int) string {
		if keyIdx >= 0 {
			if v := t.Row(i)[keyIdx]; v.Valid() {
				return v.String()
			}
		}
		return "row:" + strconv.Itoa(i)
	}

	resolved := make(map[string][]table.Value, len(fields))
	var drop []string
	for _, field := range fields {
		auths := r.authorities.Authorities(field)

		type binding struct {
			auth FieldAuthority
			idx  int
		}
		var bindings []binding
		for _, a := range auths {
			src, ok := r.sources[a.Source]
			if !ok {
				return nil, errors.NewConfigError("reconcile", "field "+field+" names unknown source "+a.Source.String(), nil)
			}
			col, found := src.column(t, field)
			if !found {
				continue
			}
			idx, _ := t.Index(col)
			bindings = append(bindings, binding{auth: a, idx: idx})
			if col != field {
				drop = append(drop, col)
			}
		}

		values := make([]table.Value, t.Len())
		for i, row := range t.Rows() {
			candidates := make([]Candidate, len(bindings))
			for j, b := range bindings {
				candidates[j] = Candidate{Source: b.auth.Source, Value: row[b.idx], Priority: b.auth.Priority}
			}

			winner, reason, ok := r.strategy.Resolve(field, candidates)
			if !ok {
				def, hasDefault := r.defaults[field]
				if !hasDefault {
					values[i] = table.Null()
					continue
				}
				winner = Candidate{Source: Default, Value: def}
				reason = "no source value"
			}
			values[i] = winner.Value
			tracker.Track(resourceID(i), field, provenance.Provenance{
				Source:   winner.Source.String(),
				Value:    winner.Value.String(),
				Priority: winner.Priority,
				Reason:   reason,
			})
		}
		resolved[field] = values

		logger.Debug().
			Str("field", field).
			Int("sources", len(bindings)).
			Str("strategy", r.strategy.Name()).
			Msg("Resolved field")
	}

	drop = append(drop, r.drop...)

	// resolved fields are appended in resolution order
	out := t.Drop(append(slices.Clone(drop), fields...)...)
	for _, field := range fields {
		if err := out.SetColumn(field, resolved[field]); err != nil {
			return nil, errors.NewMergeError(Base.String(), Overlay.String(), "reconcile", err)
		}
	}

	return &Result{
		Table:      out,
		Strategy:   r.strategy.Name(),
		Fields:     fields,
		Dropped:    dropped(t, drop),
		Provenance: tracker,
	}, nil
}

// dropped lists the requested drops that actually existed in t.
func dropped(t *table.Table, requested []string) []string {
	var out []string
	for _, c := range requested {
		if t.Has(c) && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}
