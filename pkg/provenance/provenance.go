// Package provenance records which source supplied each reconciled field of
// each merged event.
package provenance

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/eventmerge/pkg/constants"
	"github.com/agentstation/eventmerge/pkg/errors"
)

// Provenance describes the origin of one resolved field value.
type Provenance struct {
	Source   string `yaml:"source" json:"source"`                   // Source that provided the value ("overlay", "base", "default")
	Field    string `yaml:"field" json:"field"`                     // Field name
	Value    string `yaml:"value,omitempty" json:"value,omitempty"` // The resolved value
	Priority int    `yaml:"priority" json:"priority"`               // Authority priority of the winning source
	Reason   string `yaml:"reason,omitempty" json:"reason,omitempty"`
}

// Map tracks provenance per event. Keys are "resourceID:field".
type Map map[string][]Provenance

// Tracker manages provenance tracking during reconciliation.
type Tracker interface {
	// Track records provenance for a field of one resource
	Track(resourceID string, field string, p Provenance)

	// FindByField retrieves provenance for a specific field
	FindByField(resourceID string, field string) []Provenance

	// FindByResource retrieves all provenance for a resource
	FindByResource(resourceID string) map[string][]Provenance

	// Summary counts, per field, how many values each source supplied
	Summary() Summary

	// Map returns the complete provenance map
	Map() Map

	// Clear removes all provenance data
	Clear()
}

// Summary maps field -> source -> number of values.
type Summary map[string]map[string]int

// tracker is the default implementation.
type tracker struct {
	provenance Map
	counts     Summary
	enabled    bool
}

// NewTracker creates a new provenance tracker. A disabled tracker still
// counts sources for the summary but keeps no per-row history.
func NewTracker(enabled bool) Tracker {
	return &tracker{
		provenance: make(Map),
		counts:     make(Summary),
		enabled:    enabled,
	}
}

// Track records provenance for a field.
func (p *tracker) Track(resourceID string, field string, history Provenance) {
	if p.counts[field] == nil {
		p.counts[field] = make(map[string]int)
	}
	p.counts[field][history.Source]++

	if !p.enabled {
		return
	}
	if history.Field == "" {
		history.Field = field
	}
	key := makeKey(resourceID, field)
	p.provenance[key] = append(p.provenance[key], history)
}

// FindByField retrieves provenance for a specific field.
func (p *tracker) FindByField(resourceID string, field string) []Provenance {
	if !p.enabled {
		return nil
	}
	return p.provenance[makeKey(resourceID, field)]
}

// FindByResource retrieves all provenance for a resource.
func (p *tracker) FindByResource(resourceID string) map[string][]Provenance {
	if !p.enabled {
		return nil
	}

	result := make(map[string][]Provenance)
	prefix := resourceID + ":"
	for key, info := range p.provenance {
		if field, found := strings.CutPrefix(key, prefix); found {
			result[field] = info
		}
	}
	return result
}

// Summary returns a copy of the per-field source counts.
func (p *tracker) Summary() Summary {
	out := make(Summary, len(p.counts))
	for field, bySource := range p.counts {
		out[field] = make(map[string]int, len(bySource))
		for src, n := range bySource {
			out[field][src] = n
		}
	}
	return out
}

// Map returns the complete provenance map.
func (p *tracker) Map() Map {
	if !p.enabled {
		return nil
	}

	// Return a copy to prevent external modification
	result := make(Map)
	for k, v := range p.provenance {
		result[k] = append([]Provenance{}, v...)
	}
	return result
}

// Clear removes all provenance data.
func (p *tracker) Clear() {
	p.provenance = make(Map)
	p.counts = make(Summary)
}

// makeKey creates a unique key for provenance tracking. Resource IDs are
// registration links, which contain colons, so the field is split off the
// last colon when reading keys back.
func makeKey(resourceID string, field string) string {
	return resourceID + ":" + field
}

// Fields returns the summary's field names in sorted order.
func (s Summary) Fields() []string {
	fields := make([]string, 0, len(s))
	for f := range s {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// String renders the summary as one line per field, e.g.
// "description: overlay=12".
func (s Summary) String() string {
	var sb strings.Builder
	for _, field := range s.Fields() {
		sources := make([]string, 0, len(s[field]))
		for src := range s[field] {
			sources = append(sources, src)
		}
		sort.Strings(sources)

		parts := make([]string, len(sources))
		for i, src := range sources {
			parts[i] = fmt.Sprintf("%s=%d", src, s[field][src])
		}
		fmt.Fprintf(&sb, "%s: %s\n", field, strings.Join(parts, " "))
	}
	return sb.String()
}

// File is the on-disk provenance document.
type File struct {
	Summary    Summary `yaml:"summary"`
	Provenance Map     `yaml:"provenance,omitempty"`
}

// Save writes the tracker's summary and history as YAML.
func Save(path string, t Tracker) error {
	data, err := yaml.MarshalWithOptions(&File{Summary: t.Summary(), Provenance: t.Map()},
		yaml.Indent(2),
		yaml.IndentSequence(false),
	)
	if err != nil {
		return errors.WrapParse("yaml", path, err)
	}
	if err := os.WriteFile(path, data, constants.FilePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

// Load reads a provenance file written by Save.
// Returns nil, nil if the file doesn't exist.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator-supplied
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return &f, nil
}
