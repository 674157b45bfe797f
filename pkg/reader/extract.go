package reader

import (
	"strconv"
	"strings"

	"github.com/ajitpratap0/tabula/pkg/structure"
	"github.com/ajitpratap0/tabula/pkg/table"
)

// Pair is one extracted field value.
type Pair struct {
	Key   string
	Value table.Value
	Once  bool
}

// LineValues holds the values one line-spec produced, in field order.
type LineValues []Pair

// ExtractLine slices line according to ls and converts every field to its
// declared type. Conversion failures become absent values. The result is
// empty when the line-spec is invalid, the line has no tokens for a split-all
// line-spec, or every value is absent.
func ExtractLine(line string, ls *structure.LineSpec, splitChar string) LineValues {
	if ls == nil || ls.Invalid || len(ls.Fields) == 0 {
		return nil
	}

	out := make(LineValues, 0, len(ls.Fields))
	switch ls.Kind() {
	case structure.LocationWhole:
		for _, f := range ls.Fields {
			out = append(out, pair(f, convert(f.Type, line)))
		}

	case structure.LocationIndex:
		tokens := split(line, splitChar)
		for _, f := range ls.Fields {
			var v table.Value
			if f.Valid() && f.Location.Kind == structure.LocationIndex && f.Location.Index < len(tokens) {
				v = convert(f.Type, tokens[f.Location.Index])
			}
			out = append(out, pair(f, v))
		}

	case structure.LocationRange:
		runes := []rune(line)
		for _, f := range ls.Fields {
			var v table.Value
			if f.Valid() && f.Location.Kind == structure.LocationRange {
				v = convert(f.Type, clip(runes, f.Location.Lo, f.Location.Hi))
			}
			out = append(out, pair(f, v))
		}

	case structure.LocationSplitAll:
		tokens := split(line, splitChar)
		if len(tokens) == 0 {
			return nil
		}
		if len(ls.Fields) == 1 {
			out = append(out, pair(ls.Fields[0], convertAll(ls.Fields[0].Type, tokens)))
			break
		}
		for i, f := range ls.Fields {
			var v table.Value
			if i < len(tokens) {
				v = convert(f.Type, tokens[i])
			}
			out = append(out, pair(f, v))
		}
	}

	for _, p := range out {
		if p.Value != nil {
			return out
		}
	}
	return nil
}

func pair(f structure.Field, v table.Value) Pair {
	return Pair{Key: f.Name, Value: v, Once: f.Once}
}

func split(line, splitChar string) []string {
	if splitChar == "" {
		return strings.Fields(line)
	}
	return strings.Split(line, splitChar)
}

// clip returns the inclusive character slice [lo, hi] clipped to line.
func clip(line []rune, lo, hi int) string {
	if lo >= len(line) {
		return ""
	}
	if hi+1 > len(line) {
		return string(line[lo:])
	}
	return string(line[lo : hi+1])
}

func convert(t structure.Type, raw string) table.Value {
	switch t {
	case structure.TypeString:
		return raw
	case structure.TypeInt:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil
		}
		return n
	case structure.TypeFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil
		}
		return f
	default:
		return nil
	}
}

// convertAll converts every token, returning nil if any fails.
func convertAll(t structure.Type, tokens []string) table.Value {
	arr := make([]table.Value, len(tokens))
	for i, tok := range tokens {
		v := convert(t, tok)
		if v == nil {
			return nil
		}
		arr[i] = v
	}
	return arr
}
