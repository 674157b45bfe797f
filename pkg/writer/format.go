package writer

import (
	"math"
	"strconv"
	"strings"

	"github.com/ajitpratap0/tabula/pkg/table"
)

// FormatFloat renders f the way the reader expects floats back. With
// scientific set, f is written as %.<decimals>E. Otherwise it gets the
// shortest text that parses back to f, with a ".0" suffix for integral
// values and exponent form outside [1e-4, 1e16).
func FormatFloat(f float64, scientific bool, decimals int) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	if scientific {
		return strconv.FormatFloat(f, 'E', decimals, 64)
	}
	if f == 0 {
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}
	exp := int(math.Floor(math.Log10(math.Abs(f))))
	if exp < -4 || exp >= 16 {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

// formatter turns table values into output text.
type formatter struct {
	emptyChar  string
	spacing    string
	scientific bool
}

// scalar formats one value with the given decimal budget. ok is false when a
// float has no room for a single decimal in scientific mode.
func (f formatter) scalar(v table.Value, decimals int) (string, bool) {
	switch x := v.(type) {
	case nil:
		return f.emptyChar, true
	case string:
		return x, true
	case int64:
		return strconv.FormatInt(x, 10), true
	case int:
		return strconv.Itoa(x), true
	case float64:
		if f.scientific && decimals <= 0 {
			return "", false
		}
		return FormatFloat(x, f.scientific, decimals), true
	case []table.Value:
		return f.join(x, decimals)
	default:
		return table.Format(v), true
	}
}

// join formats every item of an array and separates them with the spacing.
func (f formatter) join(items []table.Value, decimals int) (string, bool) {
	parts := make([]string, len(items))
	ok := true
	for i, item := range items {
		s, fit := f.scalar(item, decimals)
		if !fit {
			s, ok = f.emptyChar, false
		}
		parts[i] = s
	}
	return strings.Join(parts, f.spacing), ok
}

// token formats a value that must stay a single whitespace-separated token.
func (f formatter) token(v table.Value, decimals int) (string, bool) {
	if s, isText := v.(string); isText && strings.TrimSpace(s) == "" {
		return f.emptyChar, true
	}
	return f.scalar(v, decimals)
}
