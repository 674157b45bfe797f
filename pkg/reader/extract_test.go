package reader

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ajitpratap0/tabula/pkg/structure"
	"github.com/ajitpratap0/tabula/pkg/table"
)

func lineSpec(fields ...structure.Field) *structure.LineSpec {
	return &structure.LineSpec{Fields: fields}
}

func field(name string, t structure.Type, loc structure.Location) structure.Field {
	return structure.Field{Name: name, Type: t, Location: loc}
}

func TestExtractIndex(t *testing.T) {
	ls := lineSpec(
		field("label", structure.TypeString, structure.Index(0)),
		field("Z", structure.TypeInt, structure.Index(1)),
	)
	assert.Equal(t, LineValues{
		{Key: "label", Value: "H"},
		{Key: "Z", Value: int64(1)},
	}, ExtractLine("H 1", ls, ""))

	// Missing tokens are absent.
	assert.Equal(t, LineValues{
		{Key: "label", Value: "H"},
		{Key: "Z", Value: nil},
	}, ExtractLine("H", ls, ""))

	assert.Equal(t, LineValues{
		{Key: "label", Value: "H"},
		{Key: "Z", Value: int64(1)},
	}, ExtractLine("H;1", ls, ";"))
}

func TestExtractSingleIndexDoesNotBroadcast(t *testing.T) {
	ls := lineSpec(field("v", structure.TypeString, structure.Index(1)))
	assert.Equal(t, LineValues{{Key: "v", Value: "b"}}, ExtractLine("a b c", ls, ""))
}

func TestExtractWhole(t *testing.T) {
	ls := lineSpec(field("label", structure.TypeString, structure.Whole()))
	assert.Equal(t, LineValues{{Key: "label", Value: "phrase  #1 "}}, ExtractLine("phrase  #1 ", ls, ""))

	num := lineSpec(field("n", structure.TypeFloat, structure.Whole()))
	assert.Equal(t, LineValues{{Key: "n", Value: -1e39}}, ExtractLine("  -1e39 ", num, ""))
	assert.Empty(t, ExtractLine("abc", num, ""), "all-absent line yields nothing")
}

func TestExtractRange(t *testing.T) {
	ls := lineSpec(
		field("comp", structure.TypeString, structure.Range(0, 4)),
		field("q", structure.TypeFloat, structure.Range(5, 16)),
		field("far", structure.TypeInt, structure.Range(40, 45)),
	)
	got := ExtractLine("p    -1.18800E+00", ls, "")
	assert.Equal(t, LineValues{
		{Key: "comp", Value: "p    "},
		{Key: "q", Value: -1.188},
		{Key: "far", Value: nil},
	}, got)
}

func TestExtractRangeCountsCharacters(t *testing.T) {
	ls := lineSpec(
		field("name", structure.TypeString, structure.Range(0, 2)),
		field("Z", structure.TypeInt, structure.Range(4, 5)),
	)
	assert.Equal(t, LineValues{
		{Key: "name", Value: "Åbc"},
		{Key: "Z", Value: int64(12)},
	}, ExtractLine("Åbc 12", ls, ""))

	// A slice never splits a multi-byte character.
	short := lineSpec(field("name", structure.TypeString, structure.Range(0, 0)))
	assert.Equal(t, LineValues{{Key: "name", Value: "β"}}, ExtractLine("βeta", short, ""))
}

func TestExtractSplitAll(t *testing.T) {
	one := lineSpec(field("list", structure.TypeString, structure.SplitAll()))
	assert.Equal(t, LineValues{{Key: "list", Value: []table.Value{"a", "b", "c", "d"}}},
		ExtractLine("a b  c d", one, ""))
	assert.Equal(t, LineValues{{Key: "list", Value: []table.Value{"a"}}},
		ExtractLine("a", one, ""), "a single token is still an array")
	assert.Empty(t, ExtractLine("   ", one, ""))

	nums := lineSpec(field("v", structure.TypeFloat, structure.SplitAll()))
	assert.Empty(t, ExtractLine("1.1 x 3", nums, ""), "any failed element makes the array absent")

	pos := lineSpec(
		field("a", structure.TypeInt, structure.SplitAll()),
		field("b", structure.TypeString, structure.SplitAll()),
	)
	assert.Equal(t, LineValues{{Key: "a", Value: int64(1)}, {Key: "b", Value: "x"}},
		ExtractLine("1 x y", pos, ""))
}

func TestExtractInvalid(t *testing.T) {
	mixed := lineSpec(
		field("a", structure.TypeInt, structure.Index(0)),
		field("b", structure.TypeInt, structure.Range(2, 3)),
	)
	mixed.Invalid = true
	assert.Empty(t, ExtractLine("1 2", mixed, ""))

	bad := lineSpec(
		field("a", structure.TypeInt, structure.Index(0)),
		structure.Field{Name: "b", Type: structure.TypeInvalid, Location: structure.Whole()},
	)
	assert.Equal(t, LineValues{{Key: "a", Value: int64(1)}, {Key: "b", Value: nil}},
		ExtractLine("1 2", bad, ""))
}

func TestExtractOnceFlag(t *testing.T) {
	f := field("common", structure.TypeFloat, structure.SplitAll())
	f.Once = true
	got := ExtractLine("1 2", lineSpec(f), "")
	assert.True(t, got[0].Once)
}
