package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tabula/pkg/errors"
	"github.com/ajitpratap0/tabula/pkg/table"
	"github.com/ajitpratap0/tabula/pkg/testutil"
)

type V = table.Value

func sampleTable() *table.Table {
	return table.MustNew([]string{"label", "Z", "mass", "T9", "tags"}, map[string][]V{
		"label": {"H", "He \"quoted\""},
		"Z":     {int64(1), nil},
		"mass":  {1.008, int64(4)},
		"T9":    {[]V{0.1, nil, 2.0}, []V{}},
		"tags":  {[]V{"a", "b"}, nil},
	})
}

func TestExportLoadRoundTrip(t *testing.T) {
	testutil.TestLogger(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.db")

	require.NoError(t, Export(ctx, path, "", sampleTable()))
	got, err := Load(ctx, path, DefaultTable)
	require.NoError(t, err)

	assert.Equal(t, sampleTable().Columns(), got.Columns())
	assert.True(t, sampleTable().Equal(got, 0))
	assert.IsType(t, float64(0), got.Value("mass", 1))
	assert.Equal(t, []V{0.1, nil, 2.0}, got.Value("T9", 0))
}

func TestMixedColumnStoredAsText(t *testing.T) {
	testutil.TestLogger(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.db")

	tbl := table.MustNew([]string{"mixed"}, map[string][]V{"mixed": {int64(1), "x", []V{int64(2)}}})
	require.NoError(t, Export(ctx, path, "m", tbl))
	got, err := Load(ctx, path, "m")
	require.NoError(t, err)
	col, _ := got.Column("mixed")
	assert.Equal(t, []V{"1", "x", "[2]"}, col)
}

func TestExportReplacesTable(t *testing.T) {
	testutil.TestLogger(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.db")

	require.NoError(t, Export(ctx, path, "elements", sampleTable()))
	small := table.MustNew([]string{"x"}, map[string][]V{"x": {int64(7)}})
	require.NoError(t, Export(ctx, path, "elements", small))
	require.NoError(t, Export(ctx, path, "other", sampleTable()))

	got, err := Load(ctx, path, "elements")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, got.Columns())
	assert.Equal(t, 1, got.Len())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "other"`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestExportEmptyTable(t *testing.T) {
	testutil.TestLogger(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.db")

	empty := table.MustNew([]string{"a"}, map[string][]V{"a": {}})
	require.NoError(t, Export(ctx, path, "t", empty))
	got, err := Load(ctx, path, "t")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
	assert.Equal(t, []string{"a"}, got.Columns())
}

func TestLoadUnknownTable(t *testing.T) {
	testutil.TestLogger(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.db")
	require.NoError(t, Export(ctx, path, "t", sampleTable()))

	_, err := Load(ctx, path, "missing")
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}

func TestExportRemoteRejected(t *testing.T) {
	err := Export(context.Background(), "s3://bucket/out.db", "t", sampleTable())
	assert.True(t, errors.IsType(err, errors.ErrorTypeCapability))
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"x 2"`, quote("x 2"))
	assert.Equal(t, `"a""b"`, quote(`a"b`))
}
