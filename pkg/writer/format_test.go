package writer

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ajitpratap0/tabula/pkg/table"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		name       string
		in         float64
		scientific bool
		decimals   int
		want       string
	}{
		{"scientific", 1234.5, true, 3, "1.234E+03"},
		{"scientific negative exponent", -0.00125, true, 2, "-1.25E-03"},
		{"scientific zero", 0, true, 3, "0.000E+00"},
		{"integral", 3, false, 3, "3.0"},
		{"plain", 0.001, false, 3, "0.001"},
		{"small", 1e-05, false, 3, "1e-05"},
		{"large", 1e16, false, 3, "1e+16"},
		{"below large", 123456789012345.0, false, 3, "123456789012345.0"},
		{"negative zero", math.Copysign(0, -1), false, 3, "-0.0"},
		{"nan", math.NaN(), false, 3, "nan"},
		{"inf", math.Inf(1), true, 3, "inf"},
		{"negative inf", math.Inf(-1), false, 3, "-inf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFloat(tt.in, tt.scientific, tt.decimals))
		})
	}
}

func TestFormatFloatParsesBack(t *testing.T) {
	for _, f := range []float64{0.1, 1.0 / 3, 2.5e-7, 6.02214076e23, -42.125, 9999.99} {
		got, err := strconv.ParseFloat(FormatFloat(f, false, 0), 64)
		assert.NoError(t, err)
		assert.Equal(t, f, got)
	}
}

func TestFormatterScalar(t *testing.T) {
	f := formatter{emptyChar: "&", spacing: " ", scientific: true}

	s, ok := f.scalar(nil, 3)
	assert.True(t, ok)
	assert.Equal(t, "&", s)

	s, ok = f.scalar(int64(-7), 0)
	assert.True(t, ok)
	assert.Equal(t, "-7", s)

	s, ok = f.scalar([]table.Value{1.5, nil, int64(2)}, 1)
	assert.True(t, ok)
	assert.Equal(t, "1.5E+00 & 2", s)

	_, ok = f.scalar(1.5, 0)
	assert.False(t, ok, "no room for decimals")

	s, ok = f.token("  ", 3)
	assert.True(t, ok)
	assert.Equal(t, "&", s)
}
