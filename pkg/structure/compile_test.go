package structure

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tabula/pkg/errors"
	"github.com/ajitpratap0/tabula/pkg/storage"
	"github.com/ajitpratap0/tabula/pkg/testutil"
)

func TestParseDescriptor(t *testing.T) {
	cases := []struct {
		desc  string
		want  Field
		valid bool
	}{
		{" str", Field{Type: TypeString, Location: Whole()}, true},
		{" int,1", Field{Type: TypeInt, Location: Index(1)}, true},
		{" float, 0-9", Field{Type: TypeFloat, Location: Range(0, 9)}, true},
		{" str,multicolumn", Field{Type: TypeString, Location: SplitAll()}, true},
		{" str,split", Field{Type: TypeString, Location: SplitAll()}, true},
		{" float,3, end", Field{Type: TypeFloat, Location: Index(3), Extra: "end"}, true},
		{" complex,1", Field{Type: TypeInvalid, Location: Index(1)}, false},
		{" int,x", Field{Type: TypeInvalid, Location: Whole()}, false},
		{" int,9-2", Field{Type: TypeInvalid, Location: Whole()}, false},
		{" int,1,a,b", Field{Type: TypeInvalid, Location: Index(1), Extra: "a"}, false},
	}
	for _, tc := range cases {
		got, err := ParseDescriptor(tc.desc)
		assert.Equal(t, tc.want, got, tc.desc)
		if tc.valid {
			assert.NoError(t, err, tc.desc)
		} else {
			assert.True(t, errors.IsType(err, errors.ErrorTypeSpec), tc.desc)
		}
	}
}

func TestParseHeaderAndFields(t *testing.T) {
	testutil.TestLogger(t)

	spec, header, err := ParseString(`
$START: BEGIN
$IGNORE: #
$IGNORE: //
$AUTHOR: someone

label: str,0
Z: int,1
`)
	require.NoError(t, err)
	assert.Equal(t, "BEGIN", header.Start)
	assert.Equal(t, []string{"#", "//"}, header.Ignore)
	assert.Equal(t, map[string]string{"AUTHOR": "someone"}, header.Extra)

	require.Len(t, spec.Blocs, 1)
	require.Len(t, spec.Blocs[0].Lines, 1)
	ls := spec.Blocs[0].Lines[0]
	assert.Equal(t, []Field{
		{Name: "label", Type: TypeString, Location: Index(0)},
		{Name: "Z", Type: TypeInt, Location: Index(1)},
	}, ls.Fields)
	assert.Equal(t, LocationIndex, ls.Kind())
	assert.False(t, ls.Invalid)
	assert.Nil(t, ls.Multiline)
}

func TestHeaderStopsAtBlocDirective(t *testing.T) {
	spec, header, err := ParseString(`$ONCE
common: float,multicolumn

a: int,0
`)
	require.NoError(t, err)
	assert.Empty(t, header.Start)
	require.Len(t, spec.Blocs[0].Lines, 2)
	assert.True(t, spec.Blocs[0].Lines[0].Once())
	assert.False(t, spec.Blocs[0].Lines[1].Once(), "$ONCE is reset by a blank line")
}

func TestMultilineDirective(t *testing.T) {
	spec, _, err := ParseString(`label: str

$MULTILINE: 3
T9: float,0-9
rate: float,10-20

$MULTILINE: END
value: str,multicolumn
`)
	require.NoError(t, err)
	lines := spec.Blocs[0].Lines
	require.Len(t, lines, 3)
	assert.Nil(t, lines[0].Multiline)
	assert.Equal(t, &Multiline{Count: 3}, lines[1].Multiline)
	assert.False(t, lines[1].Multiline.Dynamic())
	assert.Equal(t, &Multiline{Terminator: "END"}, lines[2].Multiline)
	assert.True(t, lines[2].Multiline.Dynamic())
	assert.Equal(t, LocationRange, lines[1].Kind())
}

func TestMultilineTerminatorKeepsTrailingBlanks(t *testing.T) {
	spec, _, err := ParseString("label: str\n\n$MULTILINE:   END \nT: float,0\n")
	require.NoError(t, err)
	assert.Equal(t, &Multiline{Terminator: "END "}, spec.Blocs[0].Lines[1].Multiline)
}

func TestRepeatAndBlocDirectives(t *testing.T) {
	spec, _, err := ParseString(`n: int,0

$REPEAT: n
a: int,0
z: int,1

$repeat: 2
x: float

$Bloc
tail: str
`)
	require.NoError(t, err)
	require.Len(t, spec.Blocs, 4)
	assert.Nil(t, spec.Blocs[0].Repeat)
	assert.Equal(t, &Repeat{Field: "n"}, spec.Blocs[1].Repeat)
	assert.Equal(t, &Repeat{Count: 2}, spec.Blocs[2].Repeat)
	assert.Nil(t, spec.Blocs[3].Repeat)
	assert.Len(t, spec.Blocs[1].Lines, 1)
	assert.Equal(t, "tail", spec.Blocs[3].Lines[0].Fields[0].Name)
}

func TestMixedLocationsInvalidateLineSpec(t *testing.T) {
	testutil.TestLogger(t)

	spec, _, err := ParseString(`a: int,0
b: float,3-9
`)
	require.NoError(t, err)
	assert.True(t, spec.Blocs[0].Lines[0].Invalid)
}

func TestInvalidDescriptorDoesNotMixKinds(t *testing.T) {
	spec, _, err := ParseString(`a: int,0
b: float,zz
`)
	require.NoError(t, err)
	ls := spec.Blocs[0].Lines[0]
	assert.False(t, ls.Invalid)
	assert.False(t, ls.Fields[1].Valid())
}

func TestEmptyStructureIsAnError(t *testing.T) {
	_, _, err := ParseString("$START: x\n\n")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSpec))
}

func TestSpecStringRoundTrips(t *testing.T) {
	src := `$ONCE
common: float,multicolumn

n: int,0

$REPEAT: n
a: int,0
z: int,1

$MULTILINE: END
v: str,0-4
`
	spec, _, err := ParseString(src)
	require.NoError(t, err)
	again, _, err := ParseString(spec.String())
	require.NoError(t, err)
	assert.Equal(t, spec, again)
}

func TestCompileFromFile(t *testing.T) {
	ctx := testutil.TestContext(t)
	path := testutil.WriteFile(t, "element.struct", "label: str,0\nZ: int,1\n")

	spec, header, err := Compile(ctx, path)
	require.NoError(t, err)
	assert.NotNil(t, header)
	assert.Len(t, spec.Blocs[0].Lines[0].Fields, 2)

	_, _, err = Compile(ctx, path+".missing")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}

func TestCacheRecompilesOnChange(t *testing.T) {
	ctx := testutil.TestContext(t)
	path := testutil.WriteFile(t, "s.struct", "label: str,0\n")
	cache := NewCache(storage.New(storage.Options{}))

	first, _, err := cache.Get(ctx, path)
	require.NoError(t, err)
	second, _, err := cache.Get(ctx, path)
	require.NoError(t, err)
	assert.Same(t, first, second)

	require.NoError(t, os.WriteFile(path, []byte("label: str,0\nZ: int,1\n"), 0o600))
	later := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, later, later))

	third, _, err := cache.Get(ctx, path)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Len(t, third.Blocs[0].Lines[0].Fields, 2)

	hits, misses := cache.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 2, misses)
}

func TestHeaderShouldIgnore(t *testing.T) {
	h := &Header{Ignore: []string{"#"}}
	assert.True(t, h.ShouldIgnore("# comment"))
	assert.False(t, h.ShouldIgnore("H 1"))
	var none *Header
	assert.False(t, none.ShouldIgnore("#"))
	assert.True(t, strings.Contains(SplitAll().String(), "multicolumn"))
}
