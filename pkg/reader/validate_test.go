package reader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tabula/pkg/errors"
	"github.com/ajitpratap0/tabula/pkg/table"
)

func TestParseTestFile(t *testing.T) {
	exp, err := ParseTestFile([]string{
		"i_entry: 0",
		"label: str,  phrase   #1",
		"T9: float, [1e-3, 2e-3]",
		"",
		"i_entry: 1",
		"Z: int, 2",
		"empty: str, []",
	})
	require.NoError(t, err)
	assert.Equal(t, []Expectation{
		{Entry: 0, Values: []Expected{
			{Column: "label", Value: "phrase #1"},
			{Column: "T9", Value: []table.Value{1e-3, 2e-3}},
		}},
		{Entry: 1, Values: []Expected{
			{Column: "Z", Value: int64(2)},
			{Column: "empty", Value: []table.Value{}},
		}},
	}, exp)
}

func TestParseTestFileErrors(t *testing.T) {
	bad := [][]string{
		{"label: str, H"},
		{"i_entry: x"},
		{"i_entry: 0", "Z int 1"},
		{"i_entry: 0", "Z: int 1"},
		{"i_entry: 0", "Z: int, one"},
		{"i_entry: 0", "T9: float, [1, 2"},
		{"i_entry: 0", "Z: complex, 1"},
	}
	for _, lines := range bad {
		_, err := ParseTestFile(lines)
		assert.Error(t, err, "%v", lines)
	}
}

func TestValidate(t *testing.T) {
	tbl := table.MustNew([]string{"Z", "value"}, map[string][]table.Value{
		"Z":     {int64(1), int64(2)},
		"value": {1.0, []table.Value{0.5, int64(2)}},
	})

	ok := []Expectation{{Entry: 1, Values: []Expected{
		{Column: "Z", Value: 2.0},
		{Column: "value", Value: []table.Value{0.5, 2.0}},
	}}}
	assert.NoError(t, Validate(tbl, ok))

	cases := [][]Expectation{
		{{Entry: 5}},
		{{Entry: 0, Values: []Expected{{Column: "missing", Value: int64(1)}}}},
		{{Entry: 0, Values: []Expected{{Column: "Z", Value: int64(3)}}}},
	}
	for _, c := range cases {
		err := Validate(tbl, c)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	}
}
