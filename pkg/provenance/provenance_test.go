package provenance

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsHistory(t *testing.T) {
	tr := NewTracker(true)
	tr.Track("https://lu.ma/a", "description", Provenance{Source: "overlay", Value: "new", Priority: 100})
	tr.Track("https://lu.ma/a", "categories", Provenance{Source: "default", Value: ""})
	tr.Track("https://lu.ma/b", "description", Provenance{Source: "base", Value: "old", Priority: 90})

	got := tr.FindByField("https://lu.ma/a", "description")
	require.Len(t, got, 1)
	assert.Equal(t, "overlay", got[0].Source)
	assert.Equal(t, "description", got[0].Field)

	fields := tr.FindByResource("https://lu.ma/a")
	assert.Len(t, fields, 2)
	assert.Contains(t, fields, "categories")

	summary := tr.Summary()
	assert.Equal(t, 1, summary["description"]["overlay"])
	assert.Equal(t, 1, summary["description"]["base"])
	assert.Equal(t, []string{"categories", "description"}, summary.Fields())
	assert.Equal(t, "categories: default=1\ndescription: base=1 overlay=1\n", summary.String())

	tr.Clear()
	assert.Empty(t, tr.Map())
	assert.Empty(t, tr.Summary())
}

func TestDisabledTrackerOnlyCounts(t *testing.T) {
	tr := NewTracker(false)
	tr.Track("r", "description", Provenance{Source: "base"})

	assert.Nil(t, tr.FindByField("r", "description"))
	assert.Nil(t, tr.FindByResource("r"))
	assert.Nil(t, tr.Map())
	assert.Equal(t, 1, tr.Summary()["description"]["base"])
}

func TestMapIsACopy(t *testing.T) {
	tr := NewTracker(true)
	tr.Track("r", "f", Provenance{Source: "base"})

	m := tr.Map()
	m["r:f"][0].Source = "tampered"
	assert.Equal(t, "base", tr.FindByField("r", "f")[0].Source)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "provenance.yaml")

	tr := NewTracker(true)
	tr.Track("https://lu.ma/a", "description", Provenance{Source: "overlay", Value: "x", Priority: 100})
	require.NoError(t, Save(path, tr))

	f, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, 1, f.Summary["description"]["overlay"])
	require.Len(t, f.Provenance["https://lu.ma/a:description"], 1)
	assert.Equal(t, "x", f.Provenance["https://lu.ma/a:description"][0].Value)

	missing, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.NoError(t, err)
	assert.Nil(t, missing)
}
