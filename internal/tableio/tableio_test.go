package tableio

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablekit/tablekit/internal/errors"
	"github.com/tablekit/tablekit/internal/series"
	"github.com/tablekit/tablekit/internal/table"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"data.csv", FormatCSV},
		{"data.CSV", FormatCSV},
		{"book.xlsx", FormatExcel},
		{"book.XLS", FormatExcel},
		{"cols.parquet", FormatParquet},
		{"noext", FormatCSV},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectFormat(tt.path), tt.path)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadCSVInfersTypes(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "typed.csv",
		"name,age,score,active\nalice,30,1.5,true\nbob,25,2.5,false\n")

	tbl, err := Load("test", path, DefaultOptions(), memory.NewGoAllocator())
	require.NoError(t, err)
	defer tbl.Release()

	assert.Equal(t, []string{"name", "age", "score", "active"}, tbl.Columns())
	assert.Equal(t, 2, tbl.Len())

	name, _ := tbl.Column("name")
	age, _ := tbl.Column("age")
	score, _ := tbl.Column("score")
	active, _ := tbl.Column("active")
	assert.Equal(t, arrow.STRING, name.DataType().ID())
	assert.Equal(t, arrow.INT64, age.DataType().ID())
	assert.Equal(t, arrow.FLOAT64, score.DataType().ID())
	assert.Equal(t, arrow.BOOL, active.DataType().ID())
}

func TestLoadCSVMissingMarkers(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "missing.csv",
		"age,city\n30,oslo\nNA,\nnan,NULL\n25,lima\n")

	tbl, err := Load("test", path, DefaultOptions(), memory.NewGoAllocator())
	require.NoError(t, err)
	defer tbl.Release()

	age, _ := tbl.Column("age")
	city, _ := tbl.Column("city")

	// Markers become nulls; the column stays typed from the valid cells.
	assert.Equal(t, arrow.INT64, age.DataType().ID())
	assert.Equal(t, 2, age.NullCount())
	assert.Equal(t, 2, city.NullCount())
	assert.True(t, age.IsNull(1))
	assert.True(t, city.IsNull(2))
}

func TestCSVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	mem := memory.NewGoAllocator()

	original := table.New(
		series.New("name", []string{"alice", "bob"}, mem),
		series.NewWithNulls("age", []int64{30, 0}, []bool{true, false}, mem),
		series.New("score", []float64{1.5, 2.25}, mem),
	)
	defer original.Release()

	path := filepath.Join(dir, "roundtrip.csv")
	require.NoError(t, Persist("test", original, path, DefaultOptions()))

	loaded, err := Load("test", path, DefaultOptions(), mem)
	require.NoError(t, err)
	defer loaded.Release()

	assert.Equal(t, original.Columns(), loaded.Columns())
	assert.Equal(t, original.Len(), loaded.Len())

	age, _ := loaded.Column("age")
	assert.True(t, age.IsNull(1))

	score, _ := loaded.Column("score")
	values, _, ok := table.FloatValues(score)
	require.True(t, ok)
	assert.Equal(t, []float64{1.5, 2.25}, values)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("test", "/nope/gone.csv", DefaultOptions(), memory.NewGoAllocator())
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.Error{Kind: errors.KindNotFound}))
}

func TestLoadMalformedCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.csv", "a,b\n\"unterminated\n")

	_, err := Load("test", path, DefaultOptions(), memory.NewGoAllocator())
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.Error{Kind: errors.KindParse}))
}

func TestLoadCSVWithoutHeader(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "raw.csv", "1,a\n2,b\n")

	opts := DefaultOptions()
	opts.Header = false

	tbl, err := Load("test", path, opts, memory.NewGoAllocator())
	require.NoError(t, err)
	defer tbl.Release()

	assert.Equal(t, []string{"column_0", "column_1"}, tbl.Columns())
	assert.Equal(t, 2, tbl.Len())
}

func TestCustomDelimiter(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "semi.csv", "a;b\n1;2\n")

	opts := DefaultOptions()
	opts.Delimiter = ';'

	tbl, err := Load("test", path, opts, memory.NewGoAllocator())
	require.NoError(t, err)
	defer tbl.Release()

	assert.Equal(t, []string{"a", "b"}, tbl.Columns())
}

func TestRaggedCSVIsParseError(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "ragged.csv", "a,b,c\n1,2,3\n4\n")

	_, err := Load("test", path, DefaultOptions(), memory.NewGoAllocator())
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.Error{Kind: errors.KindParse}))
}

func TestExcelRoundTrip(t *testing.T) {
	dir := t.TempDir()
	mem := memory.NewGoAllocator()

	original := table.New(
		series.New("city", []string{"oslo", "lima"}, mem),
		series.New("pop", []int64{700000, 11000000}, mem),
	)
	defer original.Release()

	path := filepath.Join(dir, "cities.xlsx")
	require.NoError(t, Persist("test", original, path, DefaultOptions()))

	loaded, err := Load("test", path, DefaultOptions(), mem)
	require.NoError(t, err)
	defer loaded.Release()

	assert.Equal(t, []string{"city", "pop"}, loaded.Columns())
	assert.Equal(t, 2, loaded.Len())

	pop, _ := loaded.Column("pop")
	values, _, ok := table.FloatValues(pop)
	require.True(t, ok)
	assert.Equal(t, []float64{700000, 11000000}, values)
}

func TestParquetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	mem := memory.NewGoAllocator()

	original := table.New(
		series.New("id", []int64{1, 2, 3}, mem),
		series.NewWithNulls("v", []float64{0.5, 0, 1.5}, []bool{true, false, true}, mem),
		series.New("tag", []string{"a", "b", "c"}, mem),
	)
	defer original.Release()

	path := filepath.Join(dir, "data.parquet")
	require.NoError(t, Persist("test", original, path, DefaultOptions()))

	loaded, err := Load("test", path, DefaultOptions(), mem)
	require.NoError(t, err)
	defer loaded.Release()

	assert.Equal(t, original.Columns(), loaded.Columns())
	assert.Equal(t, 3, loaded.Len())

	v, _ := loaded.Column("v")
	assert.True(t, v.IsNull(1))
}
