package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tabula/pkg/errors"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Clause
	}{
		{"number = 0.100445", Clause{Left: "number", Op: OpEq, Right: "0.100445", Number: 0.100445, HasNumber: true}},
		{"  A   >=   3 ", Clause{Left: "A", Op: OpGe, Right: "3", Number: 3, HasNumber: true}},
		{"A != 3", Clause{Left: "A", Op: OpNe, Right: "3", Number: 3, HasNumber: true}},
		{"A<=-1e3", Clause{Left: "A", Op: OpLe, Right: "-1e3", Number: -1000, HasNumber: true}},
		{"A > x", Clause{Left: "A", Op: OpGt, Right: "x"}},
		{"A < 2", Clause{Left: "A", Op: OpLt, Right: "2", Number: 2, HasNumber: true}},
		{"ne22 in reaction", Clause{Left: "ne22", Op: OpIn, Right: "reaction"}},
		{"li8 he4 not in reaction", Clause{Left: "li8 he4", Op: OpNotIn, Right: "reaction"}},
		{"k in string", Clause{Left: "k", Op: OpIn, Right: "string"}},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		require.NoError(t, err, tc.in)
		got.Text = ""
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseOperatorPrecedence(t *testing.T) {
	c, err := Parse("A >= 3")
	require.NoError(t, err)
	assert.Equal(t, OpGe, c.Op)

	c, err = Parse("A != 3")
	require.NoError(t, err)
	assert.Equal(t, OpNe, c.Op)

	c, err = Parse("A <= 3")
	require.NoError(t, err)
	assert.Equal(t, OpLe, c.Op)
}

func TestParseErrors(t *testing.T) {
	bad := []string{
		"",
		"A 3",
		"A == 3",
		"A >= 3 < 4",
		"a not in in b",
		"a in not in b",
		"a not in not in b",
		"a in in b",
		"= 3",
		"A =",
		"a in b in c",
	}
	for _, in := range bad {
		_, err := Parse(in)
		require.Error(t, err, in)
		assert.True(t, errors.IsType(err, errors.ErrorTypeFilter), in)
	}
}

func TestFindOperatorsDoubleWordCases(t *testing.T) {
	assert.Equal(t, []Operator{OpNotIn, OpIn}, findOperators("a not in in b"))
	assert.Equal(t, []Operator{OpNotIn, OpIn}, findOperators("a in not in b"))
	assert.Equal(t, []Operator{OpNotIn, OpNotIn}, findOperators("a not in not in b"))
	assert.Equal(t, []Operator{OpIn, OpIn}, findOperators("a in in b"))
}
