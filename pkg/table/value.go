package table

import (
	"math"
	"strconv"
)

// Value is one cell: nil (absent), int64, float64, string or []Value.
type Value = interface{}

// ToFloat returns the numeric value of v for int64 and float64 cells.
func ToFloat(v Value) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

// IsNumeric reports whether v is a scalar number.
func IsNumeric(v Value) bool {
	_, ok := ToFloat(v)
	return ok
}

// AsArray returns v as an array cell.
func AsArray(v Value) ([]Value, bool) {
	a, ok := v.([]Value)
	return a, ok
}

// IsText reports whether v is a string cell.
func IsText(v Value) bool {
	_, ok := v.(string)
	return ok
}

// TypeName names the runtime type of a cell for diagnostics.
func TypeName(v Value) string {
	switch v.(type) {
	case nil:
		return "none"
	case int64, int:
		return "int"
	case float64:
		return "float"
	case string:
		return "str"
	case []Value:
		return "array"
	default:
		return "unknown"
	}
}

// Format renders a cell for display. Arrays render as [a, b].
func Format(v Value) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return x
	case []Value:
		out := []byte{'['}
		for i, e := range x {
			if i > 0 {
				out = append(out, ", "...)
			}
			out = append(out, Format(e)...)
		}
		return string(append(out, ']'))
	default:
		return "?"
	}
}

// ValuesEqual compares two cells. Numbers compare across int64 and float64
// within the relative tolerance tol; everything else compares exactly.
func ValuesEqual(a, b Value, tol float64) bool {
	if fa, ok := ToFloat(a); ok {
		fb, ok := ToFloat(b)
		if !ok {
			return false
		}
		return floatsEqual(fa, fb, tol)
	}
	switch x := a.(type) {
	case nil:
		return b == nil
	case string:
		y, ok := b.(string)
		return ok && x == y
	case []Value:
		y, ok := b.([]Value)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !ValuesEqual(x[i], y[i], tol) {
				return false
			}
		}
		return true
	}
	return false
}

func floatsEqual(a, b, tol float64) bool {
	if a == b {
		return true
	}
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	scale := math.Max(math.Abs(a), math.Abs(b))
	return math.Abs(a-b) <= tol*scale
}
