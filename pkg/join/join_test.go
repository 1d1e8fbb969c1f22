package join_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/eventmerge/pkg/errors"
	"github.com/agentstation/eventmerge/pkg/join"
	"github.com/agentstation/eventmerge/pkg/table"
)

func read(t *testing.T, name, data string) *table.Table {
	t.Helper()
	tbl, err := table.ReadCSV(name, strings.NewReader(data))
	require.NoError(t, err)
	return tbl
}

func cell(t *testing.T, tbl *table.Table, row int, column string) table.Value {
	t.Helper()
	v, err := tbl.Get(row, column)
	require.NoError(t, err)
	return v
}

func TestInnerLayout(t *testing.T) {
	base := read(t, "base", "name,registration_url,description,attendees_shown\nA,u1,x,10\nB,u2,y,20\n")
	overlay := read(t, "overlay", "registration,description,attendees_shown,categories\nu1,new,,DeFi\n")

	res, err := join.Inner(base, overlay, "registration_url", "registration")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"name", "registration_url", "description_x", "attendees_shown_x",
		"registration", "description_y", "attendees_shown_y", "categories",
	}, res.Table.Columns())

	require.Equal(t, 1, res.Matched)
	assert.Equal(t, "A", cell(t, res.Table, 0, "name").String())
	assert.Equal(t, "x", cell(t, res.Table, 0, "description_x").String())
	assert.Equal(t, "new", cell(t, res.Table, 0, "description_y").String())
	assert.False(t, cell(t, res.Table, 0, "attendees_shown_y").Valid())
	assert.Equal(t, "u1", cell(t, res.Table, 0, "registration").String())
	assert.Equal(t, 1, res.LeftUnmatched)
	assert.Equal(t, 0, res.RightUnmatched)
}

func TestInnerSharedKeyName(t *testing.T) {
	left := read(t, "l", "id,v\n1,a\n2,b\n")
	right := read(t, "r", "id,v\n2,B\n3,C\n")

	res, err := join.Inner(left, right, "id", "id")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "v_x", "v_y"}, res.Table.Columns())
	require.Equal(t, 1, res.Matched)
	assert.Equal(t, "B", cell(t, res.Table, 0, "v_y").String())
	assert.Equal(t, 1, res.RightUnmatched)
}

func TestInnerPreservesLeftOrder(t *testing.T) {
	left := read(t, "l", "k\nc\na\nb\n")
	right := read(t, "r", "key\na\nb\nc\n")

	res, err := join.Inner(left, right, "k", "key")
	require.NoError(t, err)

	got, err := res.Table.Column("k")
	require.NoError(t, err)
	assert.Equal(t, []table.Value{table.String("c"), table.String("a"), table.String("b")}, got)
}

func TestInnerExactKeyEquality(t *testing.T) {
	left := read(t, "l", "k\nhttps://lu.ma/a\nhttps://lu.ma/b \n")
	right := read(t, "r", "key\nHTTPS://LU.MA/A\nhttps://lu.ma/b\n")

	res, err := join.Inner(left, right, "k", "key")
	require.NoError(t, err)
	assert.Zero(t, res.Matched, "case and whitespace differences do not match")
}

func TestInnerNullKeysNeverMatch(t *testing.T) {
	left := read(t, "l", "k,v\n,a\n")
	right := read(t, "r", "key,w\n,b\n")

	res, err := join.Inner(left, right, "k", "key")
	require.NoError(t, err)
	assert.Zero(t, res.Matched)
	assert.Equal(t, 1, res.LeftUnmatched)
}

func TestInnerCardinality(t *testing.T) {
	left := read(t, "l", "k,v\na,1\na,2\nb,3\n")
	right := read(t, "r", "key,w\na,x\na,y\nb,z\n")

	t.Run("one-to-one keeps first occurrences", func(t *testing.T) {
		res, err := join.Inner(left, right, "k", "key")
		require.NoError(t, err)
		require.Equal(t, 2, res.Matched)
		assert.Equal(t, "1", cell(t, res.Table, 0, "v").String())
		assert.Equal(t, "x", cell(t, res.Table, 0, "w").String())
		assert.Equal(t, 1, res.LeftDuplicates)
		assert.Equal(t, 1, res.RightDuplicates)
		assert.LessOrEqual(t, res.Matched, min(left.Len(), right.Len()))
	})

	t.Run("many-to-many emits every pair", func(t *testing.T) {
		res, err := join.Inner(left, right, "k", "key", join.WithCardinality(join.ManyToMany))
		require.NoError(t, err)
		require.Equal(t, 5, res.Matched)
		pairs := make([]string, res.Matched)
		for i := range pairs {
			pairs[i] = cell(t, res.Table, i, "v").String() + cell(t, res.Table, i, "w").String()
		}
		assert.Equal(t, []string{"1x", "1y", "2x", "2y", "3z"}, pairs)
		assert.Zero(t, res.LeftDuplicates)
	})
}

func TestInnerMissingKey(t *testing.T) {
	left := read(t, "base", "k\na\n")
	right := read(t, "overlay", "key\na\n")

	_, err := join.Inner(left, right, "registration_url", "key")
	assert.True(t, errors.IsMissingColumn(err))

	_, err = join.Inner(left, right, "k", "registration")
	var colErr *errors.ColumnError
	require.ErrorAs(t, err, &colErr)
	assert.Equal(t, "overlay", colErr.Table)
}

func TestOptions(t *testing.T) {
	left := read(t, "l", "k,v\na,1\n")
	right := read(t, "r", "k2,v\na,2\n")

	res, err := join.Inner(left, right, "k", "k2", join.WithSuffixes("_base", "_sheet"), join.WithName("joined"))
	require.NoError(t, err)
	assert.Equal(t, []string{"k", "v_base", "k2", "v_sheet"}, res.Table.Columns())
	assert.Equal(t, "joined", res.Table.Name())
	assert.Equal(t, "one-to-one", join.OneToOne.String())
	assert.Equal(t, "many-to-many", join.ManyToMany.String())
}

func TestParseCardinality(t *testing.T) {
	c, err := join.ParseCardinality("Many-To-Many")
	require.NoError(t, err)
	assert.Equal(t, join.ManyToMany, c)

	c, err = join.ParseCardinality("")
	require.NoError(t, err)
	assert.Equal(t, join.OneToOne, c)

	_, err = join.ParseCardinality("sideways")
	require.Error(t, err)
}
