package json

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tabula/pkg/table"
)

type V = table.Value

func sampleTable() *table.Table {
	return table.MustNew([]string{"label", "Z", "value", "list"}, map[string][]V{
		"label": {"H", "He"},
		"Z":     {int64(1), int64(2)},
		"value": {7.0, nil},
		"list":  {[]V{1.5, 2.0}, []V{}},
	})
}

func TestBytes(t *testing.T) {
	data, err := Bytes(sampleTable())
	require.NoError(t, err)
	assert.Equal(t,
		`{"columns":["label","Z","value","list"],"rows":[["H",1,7.0,[1.5,2.0]],["He",2,null,[]]]}`,
		string(data))
}

func TestEncodeDecodeTable(t *testing.T) {
	for _, pretty := range []bool{false, true} {
		var buf bytes.Buffer
		require.NoError(t, EncodeTable(&buf, sampleTable(), pretty))

		got, err := DecodeTable(&buf)
		require.NoError(t, err)
		assert.True(t, sampleTable().Equal(got, 0))
		assert.Equal(t, []string{"label", "Z", "value", "list"}, got.Columns())
		assert.IsType(t, int64(0), got.Value("Z", 0))
		assert.IsType(t, float64(0), got.Value("value", 0))
	}
}

func TestEncodeLines(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeLines(&buf, sampleTable()))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"label":"H","Z":1,"value":7.0,"list":[1.5,2.0]}`, lines[0])
	assert.Equal(t, `{"label":"He","Z":2,"value":null,"list":[]}`, lines[1])
}

func TestNonFiniteFloats(t *testing.T) {
	tbl := table.MustNew([]string{"x"}, map[string][]V{"x": {math.NaN(), math.Inf(-1)}})
	data, err := Bytes(tbl)
	require.NoError(t, err)
	assert.Equal(t, `{"columns":["x"],"rows":[["nan"],["-inf"]]}`, string(data))
}

func TestDecodeTableErrors(t *testing.T) {
	_, err := DecodeTable(strings.NewReader(`{"columns":["a","b"],"rows":[[1]]}`))
	assert.Error(t, err)

	_, err = DecodeTable(strings.NewReader(`{"columns":["a"],"rows":[[{"k":1}]]}`))
	assert.Error(t, err)

	_, err = DecodeTable(strings.NewReader(`not json`))
	assert.Error(t, err)
}

func TestBufferPool(t *testing.T) {
	buf := GetBuffer()
	buf.WriteString("data")
	PutBuffer(buf)
	assert.Equal(t, 0, GetBuffer().Len())
}
