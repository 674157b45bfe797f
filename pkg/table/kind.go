package table

// Kind summarises the values of a column for typed exporters.
type Kind int

const (
	// KindNull is a column with only absent values.
	KindNull Kind = iota
	KindInt
	KindFloat
	KindText
	KindIntList
	KindFloatList
	KindTextList
	// KindMixed columns mix text with numbers, scalars with arrays, or
	// nest arrays. Exporters render them as text.
	KindMixed
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindIntList:
		return "int[]"
	case KindFloatList:
		return "float[]"
	case KindTextList:
		return "text[]"
	default:
		return "mixed"
	}
}

// IsList reports whether k is an array kind.
func (k Kind) IsList() bool {
	return k == KindIntList || k == KindFloatList || k == KindTextList
}

// Elem returns the scalar kind of an array kind.
func (k Kind) Elem() Kind {
	switch k {
	case KindIntList:
		return KindInt
	case KindFloatList:
		return KindFloat
	case KindTextList:
		return KindText
	default:
		return k
	}
}

// Kind returns the kind of a column, KindNull for unknown columns.
func (t *Table) Kind(column string) Kind {
	col, ok := t.data[column]
	if !ok {
		return KindNull
	}
	return kindOf(col)
}

func kindOf(values []Value) Kind {
	scalar, elem := KindNull, KindNull
	sawScalar, sawList := false, false
	for _, v := range values {
		switch x := v.(type) {
		case nil:
		case []Value:
			sawList = true
			for _, e := range x {
				if _, nested := e.([]Value); nested {
					return KindMixed
				}
				elem = merge(elem, scalarKind(e))
			}
		default:
			sawScalar = true
			scalar = merge(scalar, scalarKind(v))
		}
	}
	switch {
	case sawScalar && sawList:
		return KindMixed
	case sawList:
		switch elem {
		case KindInt:
			return KindIntList
		case KindText:
			return KindTextList
		case KindMixed:
			return KindMixed
		default:
			return KindFloatList
		}
	default:
		return scalar
	}
}

func scalarKind(v Value) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case int64, int:
		return KindInt
	case float64:
		return KindFloat
	case string:
		return KindText
	default:
		return KindMixed
	}
}

func merge(a, b Kind) Kind {
	switch {
	case a == b, b == KindNull:
		return a
	case a == KindNull:
		return b
	case (a == KindInt && b == KindFloat) || (a == KindFloat && b == KindInt):
		return KindFloat
	default:
		return KindMixed
	}
}
