package structure

import (
	"strconv"
	"strings"
)

// Type is the declared type of a field.
type Type int

const (
	// TypeInvalid marks a field whose descriptor could not be compiled.
	// Extraction always yields an absent value for it.
	TypeInvalid Type = iota
	TypeInt
	TypeFloat
	TypeString
)

// ParseType maps a descriptor type name to a Type.
func ParseType(name string) Type {
	switch name {
	case "int":
		return TypeInt
	case "float":
		return TypeFloat
	case "str":
		return TypeString
	default:
		return TypeInvalid
	}
}

func (t Type) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "str"
	default:
		return "invalid"
	}
}

// LocationKind discriminates the Location variant.
type LocationKind int

const (
	// LocationWhole takes the entire line.
	LocationWhole LocationKind = iota
	// LocationIndex takes one whitespace (or split character) token.
	LocationIndex
	// LocationRange takes an inclusive character range.
	LocationRange
	// LocationSplitAll takes every token as an array.
	LocationSplitAll
)

func (k LocationKind) String() string {
	switch k {
	case LocationWhole:
		return "whole"
	case LocationIndex:
		return "index"
	case LocationRange:
		return "range"
	case LocationSplitAll:
		return "split"
	default:
		return "unknown"
	}
}

// Location says where a field lives on its line. Only the members of its
// Kind are meaningful; build values with Whole, Index, Range and SplitAll.
type Location struct {
	Kind  LocationKind
	Index int
	Lo    int
	Hi    int
}

// Whole returns the whole-line location.
func Whole() Location { return Location{Kind: LocationWhole} }

// Index returns the token location i.
func Index(i int) Location { return Location{Kind: LocationIndex, Index: i} }

// Range returns the inclusive character range [lo, hi].
func Range(lo, hi int) Location { return Location{Kind: LocationRange, Lo: lo, Hi: hi} }

// SplitAll returns the all-tokens location.
func SplitAll() Location { return Location{Kind: LocationSplitAll} }

func (l Location) String() string {
	switch l.Kind {
	case LocationIndex:
		return strconv.Itoa(l.Index)
	case LocationRange:
		return strconv.Itoa(l.Lo) + "-" + strconv.Itoa(l.Hi)
	case LocationSplitAll:
		return "multicolumn"
	default:
		return ""
	}
}

// Field is one compiled field descriptor.
type Field struct {
	Name     string
	Type     Type
	Location Location
	// Extra is the raw optional third descriptor part.
	Extra string
	// Once marks a write-once field, read from the first record only and
	// broadcast to every record.
	Once bool
}

// Valid reports whether the field compiled cleanly.
func (f Field) Valid() bool {
	return f.Type != TypeInvalid
}

// Multiline makes a line-spec repeat over consecutive lines. A non-empty
// Terminator selects dynamic mode, otherwise Count lines are read.
type Multiline struct {
	Count      int
	Terminator string
}

// Dynamic reports whether the group ends on a terminator line.
func (m Multiline) Dynamic() bool {
	return m.Terminator != ""
}

// LineSpec holds the extraction instructions for one data line.
type LineSpec struct {
	Fields    []Field
	Multiline *Multiline
	// Invalid line-specs mix location kinds. They consume their line and
	// yield nothing.
	Invalid bool
}

// Kind returns the location kind shared by the valid fields.
func (ls *LineSpec) Kind() LocationKind {
	for _, f := range ls.Fields {
		if f.Valid() {
			return f.Location.Kind
		}
	}
	if len(ls.Fields) > 0 {
		return ls.Fields[0].Location.Kind
	}
	return LocationWhole
}

// Once reports whether the line-spec is write-once, which is decided by its
// first field.
func (ls *LineSpec) Once() bool {
	return len(ls.Fields) > 0 && ls.Fields[0].Once
}

// Repeat expands a bloc either a literal number of times or by the value of
// a field read earlier in the same record.
type Repeat struct {
	Count int
	Field string
}

// Bloc is an ordered group of line-specs, optionally repeated.
type Bloc struct {
	Repeat *Repeat
	Lines  []*LineSpec
}

// Spec is a compiled structure file. It is immutable and safe to share.
type Spec struct {
	Blocs []*Bloc
}

// Header holds file-level directives.
type Header struct {
	Start  string
	Ignore []string
	// Extra keeps directives the reader does not interpret.
	Extra map[string]string
}

// ShouldIgnore reports whether line contains one of the IGNORE literals.
func (h *Header) ShouldIgnore(line string) bool {
	if h == nil {
		return false
	}
	for _, ign := range h.Ignore {
		if strings.Contains(line, ign) {
			return true
		}
	}
	return false
}

// String renders the plan in structure-file syntax.
func (s *Spec) String() string {
	var b strings.Builder
	for i, bloc := range s.Blocs {
		if i > 0 {
			b.WriteString("\n")
		}
		switch {
		case bloc.Repeat != nil && bloc.Repeat.Field != "":
			b.WriteString("$REPEAT: " + bloc.Repeat.Field + "\n")
		case bloc.Repeat != nil:
			b.WriteString("$REPEAT: " + strconv.Itoa(bloc.Repeat.Count) + "\n")
		case i > 0:
			b.WriteString("$BLOC\n")
		}
		for j, ls := range bloc.Lines {
			if j > 0 {
				b.WriteString("\n")
			}
			if ls.Invalid {
				b.WriteString("# invalid: mixed locations\n")
			}
			once := false
			for _, f := range ls.Fields {
				if f.Once && !once {
					b.WriteString("$ONCE\n")
					once = true
				}
				b.WriteString(f.Name + ": " + f.Type.String())
				if loc := f.Location.String(); loc != "" {
					b.WriteString("," + loc)
				}
				if f.Extra != "" {
					b.WriteString("," + f.Extra)
				}
				b.WriteString("\n")
			}
			if ls.Multiline != nil {
				if ls.Multiline.Dynamic() {
					b.WriteString("$MULTILINE: " + ls.Multiline.Terminator + "\n")
				} else {
					b.WriteString("$MULTILINE: " + strconv.Itoa(ls.Multiline.Count) + "\n")
				}
			}
		}
	}
	return b.String()
}
