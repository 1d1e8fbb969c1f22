package reconcile

import (
	"sort"

	"github.com/agentstation/eventmerge/pkg/constants"
)

// AuthorityProvider determines which source is authoritative for each field
type AuthorityProvider interface {
	// Authorities returns the authorities for a field, highest priority first
	Authorities(field string) []FieldAuthority

	// Fields returns every field with at least one authority, in
	// registration order
	Fields() []string
}

// FieldAuthority defines source priority for a specific field
type FieldAuthority struct {
	Field    string     `json:"field" yaml:"field"`
	Source   SourceName `json:"source" yaml:"source"`
	Priority int        `json:"priority" yaml:"priority"` // Higher = more authoritative
}

// DefaultAuthorities lets the enrichment sheet override the base listing
// for the fields it curates. Categories exist only on the sheet.
var DefaultAuthorities = []FieldAuthority{
	{Field: constants.ColumnDescription, Source: Overlay, Priority: 100},
	{Field: constants.ColumnDescription, Source: Base, Priority: 90},

	{Field: constants.ColumnAttendees, Source: Overlay, Priority: 100},
	{Field: constants.ColumnAttendees, Source: Base, Priority: 90},

	{Field: constants.ColumnCategories, Source: Overlay, Priority: 100},
}

// authorityProvider is the default AuthorityProvider.
type authorityProvider struct {
	byField map[string][]FieldAuthority
	order   []string
}

// NewAuthorityProvider builds a provider from the given authorities.
// With no arguments it uses DefaultAuthorities.
func NewAuthorityProvider(authorities ...FieldAuthority) AuthorityProvider {
	if len(authorities) == 0 {
		authorities = DefaultAuthorities
	}

	p := &authorityProvider{byField: make(map[string][]FieldAuthority)}
	for _, a := range authorities {
		if _, ok := p.byField[a.Field]; !ok {
			p.order = append(p.order, a.Field)
		}
		p.byField[a.Field] = append(p.byField[a.Field], a)
	}
	for field := range p.byField {
		sort.SliceStable(p.byField[field], func(i, j int) bool {
			return p.byField[field][i].Priority > p.byField[field][j].Priority
		})
	}
	return p
}

// Authorities returns a copy of the field's authorities, highest priority first.
func (p *authorityProvider) Authorities(field string) []FieldAuthority {
	return append([]FieldAuthority(nil), p.byField[field]...)
}

// Fields returns the configured fields in registration order.
func (p *authorityProvider) Fields() []string {
	return append([]string(nil), p.order...)
}

// AuthorityByField returns the highest priority authority for a field.
func AuthorityByField(p AuthorityProvider, field string) *FieldAuthority {
	auths := p.Authorities(field)
	if len(auths) == 0 {
		return nil
	}
	return &auths[0]
}
