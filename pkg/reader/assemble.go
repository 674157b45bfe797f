package reader

import (
	"strconv"

	tstrings "github.com/ajitpratap0/tabula/pkg/strings"
	"github.com/ajitpratap0/tabula/pkg/table"
)

// DuplicateKey names the nth occurrence (n >= 2) of key within one record.
func DuplicateKey(key string, n int) string {
	if n < 2 {
		return key
	}
	return key + " " + strconv.Itoa(n)
}

type keyInfo struct {
	text bool
	once bool
}

// Assemble merges each record's line values into one row and transposes the
// rows into a table. Repeated keys within a record are renamed "key N".
// Missing values are filled with "" for text columns and 0 otherwise, and
// write-once columns are broadcast to every record.
func Assemble(records []Record) (*table.Table, error) {
	var (
		order []string
		info  = map[string]*keyInfo{}
		rows  = make([]map[string]table.Value, 0, len(records))
	)

	for _, rec := range records {
		counts := map[string]int{}
		row := map[string]table.Value{}
		for _, vals := range rec {
			for _, p := range vals {
				counts[p.Key]++
				key := DuplicateKey(p.Key, counts[p.Key])
				row[key] = clean(p.Value)
				ki, ok := info[key]
				if !ok {
					ki = &keyInfo{text: table.IsText(p.Value)}
					info[key] = ki
					order = append(order, key)
				}
				ki.once = ki.once || p.Once
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}

	data := make(map[string][]table.Value, len(order))
	for _, key := range order {
		col := make([]table.Value, len(rows))
		ki := info[key]
		if ki.once {
			var v table.Value
			for _, row := range rows {
				if rv, ok := row[key]; ok {
					v = rv
					break
				}
			}
			for i := range col {
				col[i] = v
			}
			data[key] = col
			continue
		}
		for i, row := range rows {
			v, ok := row[key]
			switch {
			case ok:
				col[i] = v
			case ki.text:
				col[i] = ""
			default:
				col[i] = int64(0)
			}
		}
		data[key] = col
	}
	return table.New(order, data)
}

// clean collapses whitespace in text values, including array elements.
func clean(v table.Value) table.Value {
	switch x := v.(type) {
	case string:
		return tstrings.CollapseSpaces(x)
	case []table.Value:
		out := make([]table.Value, len(x))
		for i, e := range x {
			out[i] = clean(e)
		}
		return out
	default:
		return v
	}
}
