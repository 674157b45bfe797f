// Package condition parses "left operator right" filter clauses and applies
// them to tables, narrowing array-valued columns element-wise.
package condition

import (
	"strconv"
	"strings"

	"github.com/ajitpratap0/tabula/pkg/errors"
	tstrings "github.com/ajitpratap0/tabula/pkg/strings"
)

// Operator is a clause operator.
type Operator string

const (
	OpIn    Operator = "in"
	OpNotIn Operator = "not in"
	OpNe    Operator = "!="
	OpGe    Operator = ">="
	OpLe    Operator = "<="
	OpEq    Operator = "="
	OpGt    Operator = ">"
	OpLt    Operator = "<"
)

// Word reports whether op is a membership operator.
func (op Operator) Word() bool {
	return op == OpIn || op == OpNotIn
}

// Clause is one parsed condition.
type Clause struct {
	Left  string
	Op    Operator
	Right string
	// Number is Right parsed as a float, set for arithmetic operators when
	// it parses.
	Number    float64
	HasNumber bool
	Text      string
}

func (c Clause) String() string {
	return c.Left + " " + string(c.Op) + " " + c.Right
}

// Parse splits a clause into its sides and its single operator.
func Parse(clause string) (Clause, error) {
	text := tstrings.CollapseSpaces(clause)
	ops := findOperators(text)
	switch {
	case len(ops) == 0:
		return Clause{}, errors.Newf(errors.ErrorTypeFilter,
			"no operator found in %q, valid operators are =, !=, >=, >, <=, <, in, not in", text).
			WithDetail("clause", clause)
	case len(ops) > 1:
		return Clause{}, errors.Newf(errors.ErrorTypeFilter, "too many operators %v in %q", distinct(ops), text).
			WithDetail("clause", clause)
	}

	op := ops[0]
	sep := string(op)
	if op.Word() {
		sep = " " + sep + " "
	}
	parts := strings.Split(text, sep)
	if len(parts) != 2 {
		return Clause{}, errors.Newf(errors.ErrorTypeFilter, "side(s) missing in %q", text).
			WithDetail("clause", clause)
	}
	c := Clause{
		Left:  tstrings.CollapseSpaces(parts[0]),
		Op:    op,
		Right: tstrings.CollapseSpaces(parts[1]),
		Text:  text,
	}
	if c.Left == "" || c.Right == "" {
		return Clause{}, errors.Newf(errors.ErrorTypeFilter, "side(s) missing in %q", text).
			WithDetail("clause", clause)
	}
	if !op.Word() {
		if f, err := strconv.ParseFloat(c.Right, 64); err == nil {
			c.Number, c.HasNumber = f, true
		}
	}
	return c, nil
}

// findOperators counts every operator occurrence. Composite operators are
// subtracted from their prefixes, and the doubled membership forms are
// recognised as fixed pairs only.
func findOperators(text string) []Operator {
	var found []Operator
	switch {
	case strings.Contains(text, " not in in "), strings.Contains(text, " in not in "):
		found = append(found, OpNotIn, OpIn)
	case strings.Contains(text, " not in not in "):
		found = append(found, OpNotIn, OpNotIn)
	case strings.Contains(text, " in in "):
		found = append(found, OpIn, OpIn)
	default:
		found = add(found, text, OpNotIn, " not in ")
		found = add(found, text, OpIn, " in ", " not ")
	}
	found = add(found, text, OpNe, "!=")
	found = add(found, text, OpGe, ">=")
	found = add(found, text, OpLe, "<=")
	found = add(found, text, OpEq, "=", "!=", ">=", "<=")
	found = add(found, text, OpGt, ">", ">=")
	found = add(found, text, OpLt, "<", "<=")
	return found
}

func add(found []Operator, text string, op Operator, pattern string, exclude ...string) []Operator {
	n := strings.Count(text, pattern)
	if n == 0 {
		return found
	}
	for _, ex := range exclude {
		n -= strings.Count(text, ex)
	}
	for i := 0; i < n; i++ {
		found = append(found, op)
	}
	return found
}

func distinct(ops []Operator) []Operator {
	var out []Operator
	seen := map[Operator]bool{}
	for _, op := range ops {
		if !seen[op] {
			seen[op] = true
			out = append(out, op)
		}
	}
	return out
}
