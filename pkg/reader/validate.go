package reader

import (
	"strconv"
	"strings"

	"github.com/ajitpratap0/tabula/pkg/errors"
	tstrings "github.com/ajitpratap0/tabula/pkg/strings"
	"github.com/ajitpratap0/tabula/pkg/structure"
	"github.com/ajitpratap0/tabula/pkg/table"
)

// EntryKey starts a new expected record in a test file.
const EntryKey = "i_entry"

// Expectation lists the expected values of one record.
type Expectation struct {
	Entry  int
	Values []Expected
}

// Expected is one asserted cell.
type Expected struct {
	Column string
	Value  table.Value
}

// ParseTestFile parses the lines of a validation test file:
//
//	i_entry: 0
//	element: str, H
//	T9: float, [0.001, 0.002]
func ParseTestFile(lines []string) ([]Expectation, error) {
	var out []Expectation
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		name, rest, ok := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		if !ok {
			return nil, testFileError(i, "missing ':'")
		}
		if name == EntryKey {
			n, err := strconv.Atoi(strings.TrimSpace(rest))
			if err != nil || n < 0 {
				return nil, testFileError(i, "invalid entry index")
			}
			out = append(out, Expectation{Entry: n})
			continue
		}
		if len(out) == 0 {
			return nil, testFileError(i, "value before the first "+EntryKey)
		}
		typeName, raw, ok := strings.Cut(rest, ",")
		if !ok {
			return nil, testFileError(i, "missing ',' between type and value")
		}
		v, err := parseExpected(structure.ParseType(tstrings.StripAll(typeName)), tstrings.TrimLeading(raw))
		if err != nil {
			return nil, testFileError(i, err.Error())
		}
		last := &out[len(out)-1]
		last.Values = append(last.Values, Expected{Column: name, Value: v})
	}
	return out, nil
}

func testFileError(i int, msg string) error {
	return errors.Newf(errors.ErrorTypeValidation, "test file line %d: %s", i+1, msg).WithDetail("line", i)
}

func parseExpected(t structure.Type, raw string) (table.Value, error) {
	if t == structure.TypeInvalid {
		return nil, errors.New(errors.ErrorTypeValidation, "unknown value type")
	}
	if strings.HasPrefix(raw, "[") {
		raw = tstrings.StripAll(raw)
		if !strings.HasSuffix(raw, "]") {
			return nil, errors.New(errors.ErrorTypeValidation, "unterminated list")
		}
		inner := raw[1 : len(raw)-1]
		if inner == "" {
			return []table.Value{}, nil
		}
		items := strings.Split(inner, ",")
		arr := make([]table.Value, len(items))
		for i, item := range items {
			v := convert(t, item)
			if v == nil {
				return nil, errors.Newf(errors.ErrorTypeValidation, "cannot parse %q as %s", item, t)
			}
			arr[i] = v
		}
		return arr, nil
	}
	raw = tstrings.CollapseSpaces(raw)
	v := convert(t, raw)
	if v == nil {
		return nil, errors.Newf(errors.ErrorTypeValidation, "cannot parse %q as %s", raw, t)
	}
	return v, nil
}

// Validate compares tbl against the expectations. Numbers compare across
// int and float, text compares after whitespace collapsing.
func Validate(tbl *table.Table, expectations []Expectation) error {
	for _, exp := range expectations {
		if exp.Entry >= tbl.Len() {
			return errors.Newf(errors.ErrorTypeValidation, "record %d expected but only %d read", exp.Entry, tbl.Len()).
				WithDetail("entry", exp.Entry)
		}
		for _, e := range exp.Values {
			if !tbl.Has(e.Column) {
				return errors.Newf(errors.ErrorTypeValidation, "column %q expected but not read", e.Column).
					WithDetail("entry", exp.Entry).
					WithDetail("column", e.Column)
			}
			got := tbl.Value(e.Column, exp.Entry)
			if !table.ValuesEqual(clean(got), e.Value, 0) {
				return errors.Newf(errors.ErrorTypeValidation, "record %d column %q: expected %s, read %s",
					exp.Entry, e.Column, table.Format(e.Value), table.Format(got)).
					WithDetail("entry", exp.Entry).
					WithDetail("column", e.Column)
			}
		}
	}
	return nil
}
