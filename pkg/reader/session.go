package reader

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/tabula/pkg/errors"
	"github.com/ajitpratap0/tabula/pkg/logger"
	"github.com/ajitpratap0/tabula/pkg/structure"
	"github.com/ajitpratap0/tabula/pkg/table"
)

// State is the position of a Session in its lifecycle.
type State int

const (
	// StateSeekStart looks for the first line to parse.
	StateSeekStart State = iota
	// StateReading drives the bloc plan over the lines.
	StateReading
	// StateDone is reached at end of file.
	StateDone
)

func (s State) String() string {
	switch s {
	case StateSeekStart:
		return "seek-start"
	case StateReading:
		return "reading"
	default:
		return "done"
	}
}

// Record is the raw line values collected for one logical record.
type Record []LineValues

// Session holds the state of one read of one data file. A Session is not
// reused; every read builds its own.
type Session struct {
	spec      *structure.Spec
	header    *structure.Header
	lines     []string
	ignored   map[int]struct{}
	splitChar string

	state    State
	cursor   int
	applied  map[*structure.LineSpec]struct{}
	records  []Record
	consumed int
}

// NewSession prepares a read of lines. ignoreLines lists line indices that
// are never parsed.
func NewSession(spec *structure.Spec, header *structure.Header, lines []string, ignoreLines []int, splitChar string) *Session {
	if header == nil {
		header = &structure.Header{}
	}
	ignored := make(map[int]struct{}, len(ignoreLines))
	for _, i := range ignoreLines {
		ignored[i] = struct{}{}
	}
	return &Session{
		spec:      spec,
		header:    header,
		lines:     lines,
		ignored:   ignored,
		splitChar: splitChar,
		applied:   make(map[*structure.LineSpec]struct{}),
	}
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// Records returns the raw records collected so far.
func (s *Session) Records() []Record { return s.records }

// LinesConsumed returns how many lines were handed to line-specs.
func (s *Session) LinesConsumed() int { return s.consumed }

// Run drives the plan over every line until end of file.
func (s *Session) Run(ctx context.Context) error {
	log := logger.WithContext(ctx)
	if err := s.seekStart(); err != nil {
		return err
	}
	for s.state == StateReading {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.ErrorTypeRead, "read cancelled")
		}
		if err := s.readRecord(); err != nil {
			return err
		}
	}
	log.Debug("data file parsed",
		zap.Int("lines", len(s.lines)),
		zap.Int("consumed", s.consumed),
		zap.Int("records", len(s.records)))
	return nil
}

func (s *Session) line() string {
	return s.lines[s.cursor]
}

func (s *Session) skippable(i int) bool {
	if _, ok := s.ignored[i]; ok {
		return true
	}
	return s.header.ShouldIgnore(s.lines[i])
}

func (s *Session) seekStart() error {
	s.state = StateSeekStart
	if s.header.Start != "" {
		for i, l := range s.lines {
			if strings.Contains(l, s.header.Start) {
				s.cursor = i
				s.state = StateReading
				return nil
			}
		}
		return errors.Newf(errors.ErrorTypeRead, "START marker %q not found", s.header.Start).
			WithDetail("start", s.header.Start)
	}
	for i, l := range s.lines {
		if strings.TrimSpace(l) != "" && !s.skippable(i) {
			s.cursor = i
			s.state = StateReading
			return nil
		}
	}
	s.state = StateDone
	return nil
}

// advance moves the cursor to the next parsable line. A non-empty stop makes
// the skip loop halt on a line containing it, even an ignored one.
func (s *Session) advance(stop string) {
	s.cursor++
	for s.cursor < len(s.lines) && s.skippable(s.cursor) {
		if stop != "" && strings.Contains(s.lines[s.cursor], stop) {
			break
		}
		s.cursor++
	}
	if s.cursor >= len(s.lines) {
		s.state = StateDone
	}
}

func (s *Session) readRecord() error {
	s.records = append(s.records, nil)
	rec := &s.records[len(s.records)-1]
	start := s.cursor

	for _, bloc := range s.spec.Blocs {
		n, err := s.repeatCount(bloc, *rec)
		if err != nil {
			return err
		}
		for r := 0; r < n; r++ {
			for _, ls := range bloc.Lines {
				if _, seen := s.applied[ls]; seen && ls.Once() {
					continue
				}
				s.applied[ls] = struct{}{}

				if !ls.Invalid {
					if ls.Multiline != nil {
						if vals := s.readMultiline(ls); len(vals) > 0 {
							*rec = append(*rec, vals)
						}
					} else if vals := ExtractLine(s.line(), ls, s.splitChar); len(vals) > 0 {
						*rec = append(*rec, vals)
					}
					s.consumed++
				}
				s.advance("")
				if s.state == StateDone {
					return nil
				}
			}
		}
	}
	// A pass that applies no line-spec (every one write-once and already
	// applied, or every bloc repeated zero times) would never reach the end.
	if s.cursor == start {
		s.records = s.records[:len(s.records)-1]
		s.state = StateDone
	}
	return nil
}

// readMultiline collects the values of a multiline line-spec into arrays.
// The cursor is left on the last line read, or on the terminator line.
func (s *Session) readMultiline(ls *structure.LineSpec) LineValues {
	acc := &accumulator{}
	ml := ls.Multiline
	if !ml.Dynamic() {
		for i := 0; i < ml.Count; i++ {
			acc.add(ExtractLine(s.line(), ls, s.splitChar))
			if i == ml.Count-1 {
				break
			}
			s.advance("")
			if s.state == StateDone {
				break
			}
			s.consumed++
		}
		return acc.values
	}

	for !strings.Contains(s.line(), ml.Terminator) {
		acc.add(ExtractLine(s.line(), ls, s.splitChar))
		if s.cursor == len(s.lines)-1 {
			break
		}
		s.advance(ml.Terminator)
		if s.state == StateDone {
			// Trailing ignored lines ran past the end. Park on the last
			// line so the caller's advance finishes the read.
			s.cursor = len(s.lines) - 1
			s.state = StateReading
			break
		}
		s.consumed++
	}
	return acc.values
}

// accumulator appends per-line values to one array per key.
type accumulator struct {
	values LineValues
}

func (a *accumulator) add(vals LineValues) {
	for _, p := range vals {
		found := false
		for i := range a.values {
			if a.values[i].Key == p.Key {
				a.values[i].Value = append(a.values[i].Value.([]table.Value), p.Value)
				found = true
				break
			}
		}
		if !found {
			a.values = append(a.values, Pair{Key: p.Key, Value: []table.Value{p.Value}, Once: p.Once})
		}
	}
}

// repeatCount resolves how many times bloc runs for the record built so far.
func (s *Session) repeatCount(bloc *structure.Bloc, rec Record) (int, error) {
	if bloc.Repeat == nil {
		return 1, nil
	}
	if bloc.Repeat.Field == "" {
		return bloc.Repeat.Count, nil
	}
	name := bloc.Repeat.Field
	for i := len(rec) - 1; i >= 0; i-- {
		for j := len(rec[i]) - 1; j >= 0; j-- {
			p := rec[i][j]
			if p.Key != name {
				continue
			}
			if n, ok := integral(p.Value); ok && n >= 0 {
				return n, nil
			}
			return 0, errors.Newf(errors.ErrorTypeRead, "repeat field %q holds %s value %s, expected a non-negative integer",
				name, table.TypeName(p.Value), table.Format(p.Value)).
				WithDetail("field", name).
				WithDetail("line", s.cursor)
		}
	}
	return 0, errors.Newf(errors.ErrorTypeRead, "repeat field %q not found in record", name).
		WithDetail("field", name).
		WithDetail("line", s.cursor)
}

func integral(v table.Value) (int, bool) {
	switch x := v.(type) {
	case int64:
		return int(x), true
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return int(x), true
		}
	}
	return 0, false
}
