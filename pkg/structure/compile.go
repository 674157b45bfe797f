// Package structure compiles structure files into the bloc plan that drives
// reading and writing of flat text data files.
//
// A structure file starts with an optional header of file-level directives
// followed by line-specs separated by blank lines:
//
//	$START: BEGIN
//	$IGNORE: #
//
//	label: str,0
//	Z: int,1
//
//	$MULTILINE: 3
//	T9: float,0-9
//	rate: float,10-20
//
// Bloc-scoped directives ($ONCE, $MULTILINE, $REPEAT, $BLOC) are attached to
// the plan as structured fields rather than kept in field names.
package structure

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tabula/pkg/errors"
	"github.com/ajitpratap0/tabula/pkg/logger"
	"github.com/ajitpratap0/tabula/pkg/metrics"
	"github.com/ajitpratap0/tabula/pkg/observability"
	"github.com/ajitpratap0/tabula/pkg/storage"
	tstrings "github.com/ajitpratap0/tabula/pkg/strings"
)

// Directive names.
const (
	DirectiveStart     = "START"
	DirectiveIgnore    = "IGNORE"
	DirectiveMultiline = "MULTILINE"
	DirectiveOnce      = "ONCE"
	DirectiveRepeat    = "REPEAT"
	DirectiveBloc      = "BLOC"
)

// Compile reads and compiles the structure file at path. Paths may be local,
// s3:// or gs:// and may carry a compression suffix.
func Compile(ctx context.Context, path string) (*Spec, *Header, error) {
	return CompileWith(ctx, storage.Default(), path)
}

// CompileWith compiles the structure file at path read through store.
func CompileWith(ctx context.Context, store *storage.Store, path string) (*Spec, *Header, error) {
	ctx = logger.ContextWith(ctx, logger.StructureKey, path)
	ctx, span := observability.StartSpan(ctx, "structure.compile", attribute.String("structure.path", path))
	timer := metrics.NewTimer("compile")
	defer timer.ObserveDuration()

	data, err := store.ReadFile(ctx, path)
	if err != nil {
		span.End(err)
		return nil, nil, err
	}
	spec, header, err := compile(ctx, storage.SplitLines(data))
	if err != nil {
		err = errors.Wrap(err, errors.TypeOf(err), "failed to compile structure").WithDetail("path", path)
	}
	span.End(err)
	return spec, header, err
}

// Parse compiles a structure read from r.
func Parse(r io.Reader) (*Spec, *Header, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read structure")
	}
	return compile(context.Background(), storage.SplitLines(buf.Bytes()))
}

// ParseString compiles a structure held in memory.
func ParseString(s string) (*Spec, *Header, error) {
	return compile(context.Background(), storage.SplitLines([]byte(s)))
}

type compiler struct {
	log    *zap.Logger
	lines  []string
	spec   *Spec
	bloc   *Bloc
	line   *LineSpec
	once   bool
	warned int
}

func compile(ctx context.Context, lines []string) (*Spec, *Header, error) {
	c := &compiler{
		log:   logger.WithContext(ctx),
		lines: lines,
		spec:  &Spec{},
	}
	i, header := c.readHeader()
	c.readBody(i)

	if len(c.spec.Blocs) == 0 {
		return nil, nil, errors.New(errors.ErrorTypeSpec, "structure defines no fields")
	}
	c.log.Debug("structure compiled",
		zap.Int("blocs", len(c.spec.Blocs)),
		zap.Int("warnings", c.warned))
	return c.spec, header, nil
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// splitDirective splits "$NAME: value" into the upper-cased name and the
// value with leading spaces removed.
func splitDirective(line string) (string, string) {
	line = tstrings.TrimLeading(line)
	name, value, _ := strings.Cut(strings.TrimPrefix(line, "$"), ":")
	return strings.ToUpper(strings.TrimSpace(name)), tstrings.TrimLeading(value)
}

func isDirective(line string) bool {
	return strings.HasPrefix(tstrings.TrimLeading(line), "$")
}

func blocScoped(name string) bool {
	switch name {
	case DirectiveMultiline, DirectiveOnce, DirectiveRepeat, DirectiveBloc:
		return true
	}
	return false
}

func (c *compiler) warn(msg string, fields ...zap.Field) {
	c.warned++
	metrics.Errors.WithLabelValues(string(errors.ErrorTypeSpec)).Inc()
	c.log.Warn(msg, fields...)
}

// readHeader consumes the leading directive run and returns the index of the
// first body line.
func (c *compiler) readHeader() (int, *Header) {
	header := &Header{Extra: map[string]string{}}
	i := 0
	for i < len(c.lines) && isBlank(c.lines[i]) {
		i++
	}
	for i < len(c.lines) && isDirective(c.lines[i]) {
		name, value := splitDirective(c.lines[i])
		if blocScoped(name) {
			break
		}
		switch name {
		case DirectiveStart:
			header.Start = value
		case DirectiveIgnore:
			header.Ignore = append(header.Ignore, value)
		default:
			c.warn("unknown header directive", zap.String("directive", name), zap.Int("line", i+1))
			header.Extra[name] = value
		}
		i++
		if i < len(c.lines) && isBlank(c.lines[i]) {
			break
		}
	}
	return i, header
}

func (c *compiler) readBody(i int) {
	for ; i < len(c.lines); i++ {
		raw := c.lines[i]
		switch {
		case isBlank(raw):
			c.closeLine()
		case isDirective(raw):
			c.directive(raw, i)
		default:
			c.field(raw, i)
		}
	}
	c.closeBloc()
}

func (c *compiler) directive(raw string, i int) {
	name, value := splitDirective(raw)
	switch name {
	case DirectiveOnce:
		c.once = true
	case DirectiveMultiline:
		ml, ok := parseMultiline(value)
		if !ok {
			c.warn("empty multiline directive", zap.Int("line", i+1))
			return
		}
		c.current().Multiline = &ml
	case DirectiveRepeat:
		c.closeBloc()
		rp, ok := parseRepeat(value)
		if !ok {
			c.warn("invalid repeat directive", zap.String("value", value), zap.Int("line", i+1))
			return
		}
		c.bloc = &Bloc{Repeat: &rp}
	case DirectiveBloc:
		c.closeBloc()
		c.bloc = &Bloc{}
	default:
		c.warn("directive not allowed in body", zap.String("directive", name), zap.Int("line", i+1))
	}
}

func parseMultiline(value string) (Multiline, bool) {
	if digits := tstrings.StripAll(value); digits != "" {
		if n, err := strconv.Atoi(digits); err == nil && n >= 0 {
			return Multiline{Count: n}, true
		}
	}
	// Only leading blanks were removed; trailing ones are part of the terminator.
	if value == "" {
		return Multiline{}, false
	}
	return Multiline{Terminator: value}, true
}

func parseRepeat(value string) (Repeat, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Repeat{}, false
	}
	if n, err := strconv.Atoi(value); err == nil {
		if n < 0 {
			return Repeat{}, false
		}
		return Repeat{Count: n}, true
	}
	return Repeat{Field: value}, true
}

func (c *compiler) field(raw string, i int) {
	name, desc, ok := strings.Cut(raw, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		c.warn("field line without name", zap.String("text", raw), zap.Int("line", i+1))
		return
	}
	f, err := ParseDescriptor(desc)
	if err != nil {
		c.warn("invalid field descriptor",
			zap.String("field", name),
			zap.Int("line", i+1),
			zap.Error(err))
	}
	f.Name = name
	f.Once = c.once
	ls := c.current()
	ls.Fields = append(ls.Fields, f)
}

// ParseDescriptor parses "type[,location[,extra]]". On error the returned
// field has TypeInvalid and whatever location could be parsed.
func ParseDescriptor(desc string) (Field, error) {
	parts := strings.Split(desc, ",")
	f := Field{Type: ParseType(tstrings.CollapseSpaces(parts[0])), Location: Whole()}
	var err error
	if f.Type == TypeInvalid {
		err = errors.Newf(errors.ErrorTypeSpec, "unknown type %q", tstrings.CollapseSpaces(parts[0]))
	}
	if len(parts) > 1 {
		loc, lerr := parseLocation(parts[1])
		if lerr != nil {
			f.Type = TypeInvalid
			err = lerr
		} else {
			f.Location = loc
		}
	}
	if len(parts) > 2 {
		f.Extra = tstrings.TrimLeading(parts[2])
	}
	if len(parts) > 3 {
		f.Type = TypeInvalid
		err = errors.Newf(errors.ErrorTypeSpec, "descriptor %q has %d parts, at most 3 allowed", desc, len(parts))
	}
	return f, err
}

func parseLocation(s string) (Location, error) {
	tok := strings.ToLower(tstrings.StripAll(s))
	switch {
	case strings.Contains(tok, "multicolumn"), tok == "split":
		return SplitAll(), nil
	case strings.Contains(tok, "-"):
		lo, hi, _ := strings.Cut(tok, "-")
		l, err1 := strconv.Atoi(lo)
		h, err2 := strconv.Atoi(hi)
		if err1 != nil || err2 != nil || l < 0 || h < l {
			return Location{}, errors.Newf(errors.ErrorTypeSpec, "invalid character range %q", s)
		}
		return Range(l, h), nil
	default:
		n, err := strconv.Atoi(tok)
		if err != nil || n < 0 {
			return Location{}, errors.Newf(errors.ErrorTypeSpec, "invalid location %q", s)
		}
		return Index(n), nil
	}
}

func (c *compiler) current() *LineSpec {
	if c.line == nil {
		c.line = &LineSpec{}
	}
	return c.line
}

// closeLine finishes the pending line-spec and resets $ONCE.
func (c *compiler) closeLine() {
	ls := c.line
	c.line = nil
	c.once = false
	if ls == nil {
		return
	}
	if len(ls.Fields) == 0 {
		if ls.Multiline != nil {
			c.warn("multiline directive without fields")
		}
		return
	}
	kind, mixed := ls.Kind(), false
	for _, f := range ls.Fields {
		if f.Valid() && f.Location.Kind != kind {
			mixed = true
		}
	}
	if mixed {
		names := make([]string, len(ls.Fields))
		for i, f := range ls.Fields {
			names[i] = f.Name + "=" + f.Location.Kind.String()
		}
		c.warn("line-spec mixes location kinds", zap.Strings("fields", names))
		ls.Invalid = true
	}
	if c.bloc == nil {
		c.bloc = &Bloc{}
	}
	c.bloc.Lines = append(c.bloc.Lines, ls)
}

func (c *compiler) closeBloc() {
	c.closeLine()
	if c.bloc != nil && len(c.bloc.Lines) > 0 {
		c.spec.Blocs = append(c.spec.Blocs, c.bloc)
	}
	c.bloc = nil
}
