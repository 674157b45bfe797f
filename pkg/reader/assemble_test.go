package reader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tabula/pkg/table"
)

func TestAssembleRenamesDuplicates(t *testing.T) {
	tbl, err := Assemble([]Record{
		{{{Key: "x", Value: 1.5}}, {{Key: "x", Value: 2.5}}, {{Key: "x", Value: 3.5}}},
		{{{Key: "x", Value: 7.0}}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "x 2", "x 3"}, tbl.Columns())
	x2, _ := tbl.Column("x 2")
	assert.Equal(t, []table.Value{2.5, int64(0)}, x2)
}

func TestAssembleFillsAndCleans(t *testing.T) {
	tbl, err := Assemble([]Record{
		{{{Key: "comp", Value: "  mt322 "}, {Key: "n", Value: int64(1)}}},
		{},
		{{{Key: "n", Value: int64(2)}}},
		{{{Key: "list", Value: []table.Value{" a  b ", "c"}}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len(), "empty records are dropped")
	comp, _ := tbl.Column("comp")
	assert.Equal(t, []table.Value{"mt322", "", ""}, comp)
	n, _ := tbl.Column("n")
	assert.Equal(t, []table.Value{int64(1), int64(2), int64(0)}, n)
	list, _ := tbl.Column("list")
	assert.Equal(t, []table.Value{"a b", "c"}, list[2])
}

func TestAssembleBroadcastsOnce(t *testing.T) {
	common := []table.Value{1.1, 2.2}
	tbl, err := Assemble([]Record{
		{{{Key: "common", Value: common, Once: true}}, {{Key: "v", Value: int64(1)}}},
		{{{Key: "v", Value: int64(2)}}},
	})
	require.NoError(t, err)
	col, _ := tbl.Column("common")
	assert.Equal(t, []table.Value{common, common}, col)
}

func TestAssembleDerivesLogColumns(t *testing.T) {
	tbl, err := Assemble([]Record{{{{Key: "log_rho", Value: []table.Value{1.0, nil}}}}})
	require.NoError(t, err)
	rho, ok := tbl.Column("rho")
	require.True(t, ok)
	assert.Equal(t, []table.Value{10.0, nil}, rho[0])
}
