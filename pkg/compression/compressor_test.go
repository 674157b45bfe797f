package compression

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		name string
		algo Algorithm
		base string
	}{
		{"rates.dat", None, "rates.dat"},
		{"rates.dat.gz", Gzip, "rates.dat"},
		{"rates.dat.ZST", Zstd, "rates.dat"},
		{"s3://bucket/rates.lz4", LZ4, "s3://bucket/rates"},
		{"rates.sz", Snappy, "rates"},
		{"rates.s2", S2, "rates"},
		{"rates.deflate", Deflate, "rates"},
	}
	for _, tc := range cases {
		algo, base := Detect(tc.name)
		assert.Equal(t, tc.algo, algo, tc.name)
		assert.Equal(t, tc.base, base, tc.name)
	}
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, Default, l)
	l, err = ParseLevel("Best")
	require.NoError(t, err)
	assert.Equal(t, Best, l)
	_, err = ParseLevel("max")
	assert.Error(t, err)
}

func TestRoundTripAllAlgorithms(t *testing.T) {
	data := bytes.Repeat([]byte("element Z value\nH 1 1.0E+00\n"), 100)
	for _, algo := range []Algorithm{None, Gzip, Snappy, LZ4, Zstd, S2, Deflate} {
		t.Run(string(algo), func(t *testing.T) {
			comp, err := NewCompressor(&Config{Algorithm: algo})
			require.NoError(t, err)
			assert.Equal(t, algo, comp.Algorithm())
			assert.Equal(t, Default, comp.Level())

			compressed, err := comp.Compress(data)
			require.NoError(t, err)
			out, err := comp.Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, data, out)

			var buf bytes.Buffer
			w, err := comp.NewWriter(&buf)
			require.NoError(t, err)
			_, err = w.Write(data)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			r, err := comp.NewReader(&buf)
			require.NoError(t, err)
			streamed, err := io.ReadAll(r)
			require.NoError(t, err)
			require.NoError(t, r.Close())
			assert.Equal(t, data, streamed)
		})
	}
}

func TestUnsupportedAlgorithm(t *testing.T) {
	_, err := NewCompressor(&Config{Algorithm: "brotli"})
	assert.Error(t, err)
}
