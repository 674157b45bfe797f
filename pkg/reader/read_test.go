package reader

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tabula/pkg/errors"
	"github.com/ajitpratap0/tabula/pkg/structure"
	"github.com/ajitpratap0/tabula/pkg/table"
	"github.com/ajitpratap0/tabula/pkg/testutil"
)

func fixture(name string) string {
	return filepath.Join("testdata", name)
}

func readFixture(t *testing.T, name string, opts ...Option) *table.Table {
	t.Helper()
	ctx := context.Background()
	spec, header, err := structure.Compile(ctx, fixture(name+".struct"))
	require.NoError(t, err)
	tbl, err := Read(ctx, fixture(name+".dat"), spec, header, opts...)
	require.NoError(t, err)
	return tbl
}

func column(t *testing.T, tbl *table.Table, name string) []table.Value {
	t.Helper()
	col, ok := tbl.Column(name)
	require.True(t, ok, "column %s", name)
	return col
}

func TestReadElements(t *testing.T) {
	testutil.TestLogger(t)
	tbl := readFixture(t, "elements", WithTestFile(fixture("elements.test")))

	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, []string{"element", "Z", "value"}, tbl.Columns())
	assert.Equal(t, []table.Value{"H", "He", "Li"}, column(t, tbl, "element"))
	assert.Equal(t, []table.Value{int64(1), int64(2), int64(3)}, column(t, tbl, "Z"))
	assert.Equal(t, []table.Value{0.001, 0.002, 0.003}, column(t, tbl, "value"))
}

func TestReadValidationFailureReturnsEmptyTable(t *testing.T) {
	testutil.TestLogger(t)
	ctx := context.Background()
	spec, header, err := structure.Compile(ctx, fixture("elements.struct"))
	require.NoError(t, err)

	tbl, err := Read(ctx, fixture("elements.dat"), spec, header, WithTestFile(fixture("elements_bad.test")))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	require.NotNil(t, tbl)
	assert.True(t, tbl.IsEmpty())
}

func TestReadUnparsableTestFilePasses(t *testing.T) {
	testutil.TestLogger(t)
	tbl := readFixture(t, "elements", WithTestFile(fixture("elements.struct")))
	assert.Equal(t, 3, tbl.Len())
}

func TestReadElementsLog(t *testing.T) {
	tbl := readFixture(t, "elements_log")
	assert.Len(t, tbl.Columns(), 4)
	for i, want := range []float64{0.001, 0.002, 0.003} {
		got, ok := table.ToFloat(tbl.Value("value", i))
		require.True(t, ok)
		assert.InDelta(t, want, got, 1e-12)
	}
}

func TestReadMulticolumn(t *testing.T) {
	testutil.TestLogger(t)
	tbl := readFixture(t, "multicolumn", WithTestFile(fixture("multicolumn.test")))

	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{"banner", "id", "label1", "label2", "list", "label3"}, tbl.Columns())
	assert.Equal(t, []table.Value{"BEGIN table", "BEGIN table"}, column(t, tbl, "banner"))
	assert.Equal(t, []table.Value{int64(11), int64(22)}, column(t, tbl, "id"))
	assert.Equal(t, []table.Value{"multicolumn", "Multicolumn"}, column(t, tbl, "label1"))
	assert.Equal(t, []table.Value{1.1, 2.2}, column(t, tbl, "label2"))
	assert.Equal(t, []table.Value{
		[]table.Value{"a", "b", "c", "d"},
		[]table.Value{"e", "f", "g", "h"},
	}, column(t, tbl, "list"))
	assert.Equal(t, []table.Value{"ok1", "ok2"}, column(t, tbl, "label3"))
}

func TestReadFixedMultiline(t *testing.T) {
	testutil.TestLogger(t)
	tbl := readFixture(t, "rates", WithTestFile(fixture("rates.test")))

	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, []table.Value{"p", "t"}, column(t, tbl, "comp1"))
	assert.Equal(t, []table.Value{"gd134", "he3"}, column(t, tbl, "comp2"))
	assert.Equal(t, []table.Value{-1.188, 0.018591}, column(t, tbl, "q_value"))
	assert.Equal(t, []table.Value{
		[]table.Value{1e-3, 2e-3, 3e-3},
		[]table.Value{1.1e-3, 2.2e-3, 3.3e-3},
	}, column(t, tbl, "T9"))
	assert.Equal(t, []table.Value{
		[]table.Value{0.0, 0.0, 1.0},
		[]table.Value{0.123e-9, 3.783e-9, 1.543e-9},
	}, column(t, tbl, "rate"))
}

func TestReadDynamicMultiline(t *testing.T) {
	tbl := readFixture(t, "terminated")

	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, []table.Value{"the line 1", "the line 2", "the line 3"}, column(t, tbl, "label"))
	assert.Equal(t, []table.Value{
		[]table.Value{"a", "b", "c", "d"},
		[]table.Value{"e", "f"},
		[]table.Value{"g"},
	}, column(t, tbl, "value1"))
	assert.Equal(t, []table.Value{
		[]table.Value{"aa", "bb", "cc", "dd"},
		[]table.Value{"ee", "ff"},
		[]table.Value{"gg"},
	}, column(t, tbl, "value2"))
}

func TestReadOnceWithAbsentValues(t *testing.T) {
	tbl := readFixture(t, "common")

	assert.Equal(t, 4, tbl.Len())
	assert.Len(t, tbl.Columns(), 8)
	common := []table.Value{1.1, 2.2, 3.3, 4.4, -1e10}
	assert.Equal(t, []table.Value{common, common, common, common}, column(t, tbl, "common"))
	assert.Equal(t, []table.Value{
		[]table.Value{int64(6), int64(6)},
		[]table.Value{int64(7), int64(7)},
		[]table.Value{int64(8), int64(8)},
		[]table.Value{int64(52), int64(52)},
	}, column(t, tbl, "a"))
	assert.Equal(t, []table.Value{
		[]table.Value{nil, 1.1},
		[]table.Value{nil, nil},
		[]table.Value{2.2, nil},
		[]table.Value{4.847, 4.233},
	}, column(t, tbl, "r1"))
	assert.Equal(t, []table.Value{-59.098, -54.914}, column(t, tbl, "r2")[1])

	rho := column(t, tbl, "rho")
	logRho := column(t, tbl, "log_rho")
	for i := range rho {
		for j, v := range rho[i].([]table.Value) {
			lv, _ := table.ToFloat(logRho[i].([]table.Value)[j])
			got, _ := table.ToFloat(v)
			assert.InDelta(t, math.Pow(10, lv), got, 1e-6)
		}
	}
}

func TestReadRepeatByField(t *testing.T) {
	tbl := readFixture(t, "repeat")

	assert.Equal(t, []string{"n", "x", "x 2"}, tbl.Columns())
	assert.Equal(t, []table.Value{int64(2), int64(1)}, column(t, tbl, "n"))
	assert.Equal(t, []table.Value{1.5, 7.0}, column(t, tbl, "x"))
	assert.Equal(t, []table.Value{2.5, int64(0)}, column(t, tbl, "x 2"))
}

func TestReadIgnoreLines(t *testing.T) {
	tbl := readFixture(t, "elements", WithIgnoreLines(1))
	assert.Equal(t, []table.Value{"H", "Li"}, column(t, tbl, "element"))
}

func TestReadSplitChar(t *testing.T) {
	ctx := context.Background()
	spec, header, err := structure.ParseString("element: str,0\nZ: int,1\n")
	require.NoError(t, err)
	path := testutil.WriteFile(t, "elements.csv", "H,1\nHe,2\n")

	tbl, err := Read(ctx, path, spec, header, WithSplitChar(","))
	require.NoError(t, err)
	assert.Equal(t, []table.Value{int64(1), int64(2)}, column(t, tbl, "Z"))
}

func TestReadMissingFile(t *testing.T) {
	spec, header, err := structure.ParseString("element: str,0\n")
	require.NoError(t, err)
	_, err = Read(context.Background(), fixture("nope.dat"), spec, header)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}
