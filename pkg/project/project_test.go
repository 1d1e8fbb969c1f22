package project_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/eventmerge/pkg/errors"
	"github.com/agentstation/eventmerge/pkg/project"
	"github.com/agentstation/eventmerge/pkg/table"
)

func TestColumns(t *testing.T) {
	merged := table.New("merged", []string{"registration_url", "name", "categories", "description", "extra"})

	tests := []struct {
		name      string
		reference []string
		trailing  []string
		want      []string
	}{
		{
			name:      "reference order then categories",
			reference: []string{"name", "registration_url", "description"},
			trailing:  []string{"categories"},
			want:      []string{"name", "registration_url", "description", "categories"},
		},
		{
			name:      "reference columns the table lost are skipped",
			reference: []string{"name", "registration_url", "gone"},
			trailing:  []string{"categories"},
			want:      []string{"name", "registration_url", "categories"},
		},
		{
			name:      "categories in reference appears once at the end",
			reference: []string{"categories", "name"},
			trailing:  []string{"categories"},
			want:      []string{"name", "categories"},
		},
		{
			name:      "columns outside the reference are dropped",
			reference: []string{"name"},
			want:      []string{"name"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, project.Columns(merged, tt.reference, tt.trailing...))
		})
	}
}

func TestApply(t *testing.T) {
	merged := table.New("merged", []string{"b", "a", "categories"})
	require.NoError(t, merged.Append(table.Row{table.String("2"), table.String("1"), table.String("")}))

	out, err := project.Apply(merged, []string{"a", "b"}, "categories")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "categories"}, out.Columns())
	assert.Equal(t, "1", out.Row(0)[0].String())

	_, err = project.Apply(table.New("merged", []string{"a"}), []string{"a"}, "categories")
	assert.True(t, errors.IsMissingColumn(err))
}
