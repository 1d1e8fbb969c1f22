package reconcile_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/eventmerge/pkg/errors"
	"github.com/agentstation/eventmerge/pkg/join"
	"github.com/agentstation/eventmerge/pkg/reconcile"
	"github.com/agentstation/eventmerge/pkg/table"
)

func joined(t *testing.T, base, overlay string) (*table.Table, []string, []string) {
	t.Helper()
	b, err := table.ReadCSV("base", strings.NewReader(base))
	require.NoError(t, err)
	o, err := table.ReadCSV("overlay", strings.NewReader(overlay))
	require.NoError(t, err)

	res, err := join.Inner(b, o, "registration_url", "registration")
	require.NoError(t, err)
	return res.Table, b.Columns(), o.Columns()
}

func newReconciler(t *testing.T, baseCols, overlayCols []string, opts ...reconcile.Option) reconcile.Reconciler {
	t.Helper()
	all := append([]reconcile.Option{
		reconcile.WithSource(reconcile.Base, "_x", baseCols),
		reconcile.WithSource(reconcile.Overlay, "_y", overlayCols),
		reconcile.WithDefault("categories", table.String("")),
		reconcile.WithDrop("registration"),
	}, opts...)
	r, err := reconcile.New(all...)
	require.NoError(t, err)
	return r
}

func get(t *testing.T, tbl *table.Table, row int, column string) table.Value {
	t.Helper()
	v, err := tbl.Get(row, column)
	require.NoError(t, err)
	return v
}

func TestReconcileOverlayWins(t *testing.T) {
	tbl, bc, oc := joined(t,
		"name,registration_url,description,attendees_shown\nA,https://lu.ma/a,Old A,10\n",
		"registration,description,attendees_shown,categories\nhttps://lu.ma/a,New A,,DeFi\n",
	)

	res, err := newReconciler(t, bc, oc, reconcile.WithProvenance()).Reconcile(context.Background(), tbl)
	require.NoError(t, err)

	out := res.Table
	assert.Equal(t, []string{"name", "registration_url", "description", "attendees_shown", "categories"}, out.Columns())
	assert.Equal(t, "New A", get(t, out, 0, "description").String())
	assert.Equal(t, "10", get(t, out, 0, "attendees_shown").String(), "falls back to base when overlay is null")
	assert.Equal(t, "DeFi", get(t, out, 0, "categories").String())

	assert.ElementsMatch(t, []string{"description_x", "description_y", "attendees_shown_x", "attendees_shown_y", "registration"}, res.Dropped)
	assert.Equal(t, "authority-based", res.Strategy)

	summary := res.Summary()
	assert.Equal(t, 1, summary["description"]["overlay"])
	assert.Equal(t, 1, summary["attendees_shown"]["base"])

	hist := res.Provenance.FindByField("https://lu.ma/a", "attendees_shown")
	require.Len(t, hist, 1)
	assert.Equal(t, "base", hist[0].Source)
	assert.Equal(t, 90, hist[0].Priority)
}

func TestReconcileCategoriesDefault(t *testing.T) {
	tbl, bc, oc := joined(t,
		"registration_url,description\nhttps://lu.ma/a,d\n",
		"registration,description,categories\nhttps://lu.ma/a,e,\n",
	)

	res, err := newReconciler(t, bc, oc).Reconcile(context.Background(), tbl)
	require.NoError(t, err)

	v := get(t, res.Table, 0, "categories")
	assert.True(t, v.Valid())
	assert.Equal(t, "", v.String())
	assert.Equal(t, 1, res.Summary()["categories"]["default"])
}

func TestReconcileMissingCategoriesColumn(t *testing.T) {
	tbl, bc, oc := joined(t,
		"registration_url,description\nhttps://lu.ma/a,d\n",
		"registration,description\nhttps://lu.ma/a,e\n",
	)

	res, err := newReconciler(t, bc, oc).Reconcile(context.Background(), tbl)
	require.NoError(t, err)
	assert.Equal(t, "", get(t, res.Table, 0, "categories").String())
	assert.Equal(t, "e", get(t, res.Table, 0, "description").String())
}

func TestReconcileFieldOnlyInBase(t *testing.T) {
	tbl, bc, oc := joined(t,
		"registration_url,description,attendees_shown\nhttps://lu.ma/a,d,5\n",
		"registration,description\nhttps://lu.ma/a,e\n",
	)

	res, err := newReconciler(t, bc, oc, reconcile.WithProvenance()).Reconcile(context.Background(), tbl)
	require.NoError(t, err)
	assert.Equal(t, "5", get(t, res.Table, 0, "attendees_shown").String())
	assert.Equal(t, "base", res.Provenance.FindByField("https://lu.ma/a", "attendees_shown")[0].Source)
}

func TestReconcileBothNullStaysNull(t *testing.T) {
	tbl, bc, oc := joined(t,
		"registration_url,attendees_shown\nhttps://lu.ma/a,\n",
		"registration,attendees_shown\nhttps://lu.ma/a,\n",
	)

	res, err := newReconciler(t, bc, oc).Reconcile(context.Background(), tbl)
	require.NoError(t, err)
	assert.False(t, get(t, res.Table, 0, "attendees_shown").Valid())
}

func TestReconcileDoesNotModifyInput(t *testing.T) {
	tbl, bc, oc := joined(t,
		"registration_url,description\nhttps://lu.ma/a,d\n",
		"registration,description\nhttps://lu.ma/a,e\n",
	)
	before := tbl.Columns()

	_, err := newReconciler(t, bc, oc).Reconcile(context.Background(), tbl)
	require.NoError(t, err)
	assert.Equal(t, before, tbl.Columns())
}

func TestReconcileUnknownSource(t *testing.T) {
	tbl, _, _ := joined(t, "registration_url\nu\n", "registration\nu\n")

	r, err := reconcile.New(reconcile.WithAuthorities(reconcile.NewAuthorityProvider(
		reconcile.FieldAuthority{Field: "description", Source: "wiki", Priority: 1},
	)))
	require.NoError(t, err)

	_, err = r.Reconcile(context.Background(), tbl)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestReconcileCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := reconcile.New()
	require.NoError(t, err)
	_, err = r.Reconcile(ctx, table.New("t", nil))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRejectsNil(t *testing.T) {
	_, err := reconcile.New(reconcile.WithStrategy(nil))
	assert.True(t, errors.IsValidationError(err))

	_, err = reconcile.New(reconcile.WithAuthorities(nil))
	assert.True(t, errors.IsValidationError(err))
}

func TestStrategies(t *testing.T) {
	candidates := []reconcile.Candidate{
		{Source: reconcile.Overlay, Value: table.Null(), Priority: 100},
		{Source: reconcile.Base, Value: table.String("b"), Priority: 90},
	}

	tests := []struct {
		name       string
		strategy   reconcile.Strategy
		wantSource reconcile.SourceName
		wantOK     bool
	}{
		{"authority falls back", reconcile.NewAuthorityBasedStrategy(), reconcile.Base, true},
		{"source priority", reconcile.NewSourcePriorityStrategy(reconcile.Base, reconcile.Overlay), reconcile.Base, true},
		{"source priority without match", reconcile.NewSourcePriorityStrategy(reconcile.Overlay), "", false},
		{"custom", reconcile.NewCustomStrategy("last", "last candidate", func(_ string, c []reconcile.Candidate) (reconcile.Candidate, string, bool) {
			return c[len(c)-1], "last", true
		}), reconcile.Base, true},
		{"custom without resolver", reconcile.NewCustomStrategy("nil", "", nil), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, ok := tt.strategy.Resolve("description", candidates)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantSource, got.Source)
		})
	}
}

func TestAuthorityBasedPrefersBlankOverLowerPriority(t *testing.T) {
	s := reconcile.NewAuthorityBasedStrategy()
	got, reason, ok := s.Resolve("description", []reconcile.Candidate{
		{Source: reconcile.Overlay, Value: table.String(" ")},
		{Source: reconcile.Base, Value: table.String("b")},
	})
	require.True(t, ok)
	assert.Equal(t, reconcile.Overlay, got.Source)
	assert.Equal(t, "authority", reason)
}

func TestAuthorityProvider(t *testing.T) {
	p := reconcile.NewAuthorityProvider()
	assert.Equal(t, []string{"description", "attendees_shown", "categories"}, p.Fields())

	top := reconcile.AuthorityByField(p, "description")
	require.NotNil(t, top)
	assert.Equal(t, reconcile.Overlay, top.Source)
	assert.Nil(t, reconcile.AuthorityByField(p, "name"))

	custom := reconcile.NewAuthorityProvider(
		reconcile.FieldAuthority{Field: "f", Source: reconcile.Overlay, Priority: 1},
		reconcile.FieldAuthority{Field: "f", Source: reconcile.Base, Priority: 5},
	)
	assert.Equal(t, reconcile.Base, custom.Authorities("f")[0].Source)
}
