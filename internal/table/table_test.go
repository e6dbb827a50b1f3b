package table

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablekit/tablekit/internal/series"
)

func sampleTable(mem memory.Allocator) *Table {
	return New(
		series.New("name", []string{"alice", "bob", "carol"}, mem),
		series.New("age", []int64{30, 25, 35}, mem),
		series.New("score", []float64{1.5, 2.5, 3.5}, mem),
	)
}

func TestNewAndShape(t *testing.T) {
	mem := memory.NewGoAllocator()
	tbl := sampleTable(mem)
	defer tbl.Release()

	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, 3, tbl.Width())
	assert.Equal(t, []string{"name", "age", "score"}, tbl.Columns())
	assert.True(t, tbl.HasColumn("age"))
	assert.False(t, tbl.HasColumn("missing"))
}

func TestMissingColumns(t *testing.T) {
	mem := memory.NewGoAllocator()
	tbl := sampleTable(mem)
	defer tbl.Release()

	missing := tbl.MissingColumns([]string{"age", "foo", "bar", "name"})
	assert.Equal(t, []string{"foo", "bar"}, missing)
	assert.Nil(t, tbl.MissingColumns([]string{"age"}))
}

func TestSelectPreservesRequestedOrder(t *testing.T) {
	mem := memory.NewGoAllocator()
	tbl := sampleTable(mem)
	defer tbl.Release()

	selected := tbl.Select("score", "name")
	assert.Equal(t, []string{"score", "name"}, selected.Columns())
	assert.Equal(t, 3, selected.Len())
}

func TestDrop(t *testing.T) {
	mem := memory.NewGoAllocator()
	tbl := sampleTable(mem)
	defer tbl.Release()

	dropped := tbl.Drop("age")
	assert.Equal(t, []string{"name", "score"}, dropped.Columns())
}

func TestWithColumnAppendsOrReplaces(t *testing.T) {
	mem := memory.NewGoAllocator()
	tbl := sampleTable(mem)
	defer tbl.Release()

	extended := tbl.WithColumn(series.New("bonus", []float64{1, 2, 3}, mem))
	assert.Equal(t, []string{"name", "age", "score", "bonus"}, extended.Columns())

	replaced := extended.WithColumn(series.New("age", []int64{1, 2, 3}, mem))
	// Replacement keeps the original position.
	assert.Equal(t, []string{"name", "age", "score", "bonus"}, replaced.Columns())
	s, ok := replaced.Column("age")
	require.True(t, ok)
	assert.Equal(t, int64(1), s.(*series.Series[int64]).Value(0))
}

func TestRename(t *testing.T) {
	mem := memory.NewGoAllocator()
	tbl := sampleTable(mem)
	defer tbl.Release()

	renamed := tbl.Rename(map[string]string{"name": "full_name"})
	assert.Equal(t, []string{"full_name", "age", "score"}, renamed.Columns())

	s, ok := renamed.Column("full_name")
	require.True(t, ok)
	values, valid := StringValues(s)
	assert.Equal(t, []string{"alice", "bob", "carol"}, values)
	assert.Equal(t, []bool{true, true, true}, valid)
}

func TestFilterMask(t *testing.T) {
	mem := memory.NewGoAllocator()
	tbl := sampleTable(mem)
	defer tbl.Release()

	filtered := tbl.FilterMask([]bool{true, false, true})
	defer filtered.Release()

	assert.Equal(t, 2, filtered.Len())
	s, _ := filtered.Column("name")
	values, _ := StringValues(s)
	assert.Equal(t, []string{"alice", "carol"}, values)
}

func TestGatherNegativeIndexYieldsNullRow(t *testing.T) {
	mem := memory.NewGoAllocator()
	tbl := sampleTable(mem)
	defer tbl.Release()

	gathered := tbl.Gather([]int{2, -1, 0})
	defer gathered.Release()

	require.Equal(t, 3, gathered.Len())
	s, _ := gathered.Column("age")
	assert.False(t, s.IsNull(0))
	assert.True(t, s.IsNull(1))
	assert.False(t, s.IsNull(2))
}

func TestIsNumeric(t *testing.T) {
	mem := memory.NewGoAllocator()
	tbl := sampleTable(mem)
	defer tbl.Release()

	name, _ := tbl.Column("name")
	age, _ := tbl.Column("age")
	score, _ := tbl.Column("score")

	assert.False(t, IsNumeric(name))
	assert.True(t, IsNumeric(age))
	assert.True(t, IsNumeric(score))
}

func TestFloatValues(t *testing.T) {
	mem := memory.NewGoAllocator()

	s := series.NewWithNulls("v", []int64{10, 0, 30}, []bool{true, false, true}, mem)
	defer s.Release()

	values, valid, ok := FloatValues(s)
	require.True(t, ok)
	assert.Equal(t, []float64{10, 0, 30}, values)
	assert.Equal(t, []bool{true, false, true}, valid)

	assert.Equal(t, []float64{10, 30}, CompactFloats(values, valid))

	text := series.New("t", []string{"x"}, mem)
	defer text.Release()
	_, _, ok = FloatValues(text)
	assert.False(t, ok)
}

func TestRenderCell(t *testing.T) {
	mem := memory.NewGoAllocator()

	tbl := New(
		series.New("s", []string{"hi"}, mem),
		series.New("i", []int64{42}, mem),
		series.New("f", []float64{2.5}, mem),
		series.New("b", []bool{true}, mem),
		series.NewWithNulls("n", []string{""}, []bool{false}, mem),
	)
	defer tbl.Release()

	tests := []struct {
		column string
		want   string
		valid  bool
	}{
		{"s", "hi", true},
		{"i", "42", true},
		{"f", "2.5", true},
		{"b", "true", true},
		{"n", "", false},
	}
	for _, tt := range tests {
		s, _ := tbl.Column(tt.column)
		got, ok := RenderCell(s, 0)
		assert.Equal(t, tt.want, got, tt.column)
		assert.Equal(t, tt.valid, ok, tt.column)
	}
}

func TestEmptyTable(t *testing.T) {
	tbl := New()
	assert.Equal(t, 0, tbl.Len())
	assert.Equal(t, 0, tbl.Width())
	assert.Equal(t, "Table[empty]", tbl.String())
}
