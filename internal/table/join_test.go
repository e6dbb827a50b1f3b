package table

import (
	stderrors "errors"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablekit/tablekit/internal/errors"
	"github.com/tablekit/tablekit/internal/series"
)

func joinFixtures(mem memory.Allocator) (*Table, *Table) {
	left := New(
		series.New("id", []int64{1, 2, 3}, mem),
		series.New("name", []string{"alice", "bob", "carol"}, mem),
		series.New("v", []float64{0.1, 0.2, 0.3}, mem),
	)
	right := New(
		series.New("id", []int64{2, 3, 4}, mem),
		series.New("city", []string{"oslo", "lima", "kyiv"}, mem),
		series.New("v", []float64{9.2, 9.3, 9.4}, mem),
	)
	return left, right
}

func TestInnerJoinCardinality(t *testing.T) {
	mem := memory.NewGoAllocator()
	left, right := joinFixtures(mem)
	defer left.Release()
	defer right.Release()

	joined, err := Join("join_files", left, right, JoinOptions{
		On: "id", Type: InnerJoin, LeftSuffix: "_file1", RightSuffix: "_file2",
	})
	require.NoError(t, err)
	defer joined.Release()

	// Unique keys on both sides: result size is the key intersection.
	assert.Equal(t, 2, joined.Len())
	assert.Equal(t, []string{"id", "name", "v_file1", "city", "v_file2"}, joined.Columns())

	id, _ := joined.Column("id")
	values, _, _ := FloatValues(id)
	assert.Equal(t, []float64{2, 3}, values)
}

func TestLeftJoinKeepsUnmatchedRows(t *testing.T) {
	mem := memory.NewGoAllocator()
	left, right := joinFixtures(mem)
	defer left.Release()
	defer right.Release()

	joined, err := Join("join_files", left, right, JoinOptions{
		On: "id", Type: LeftJoin, LeftSuffix: "_file1", RightSuffix: "_file2",
	})
	require.NoError(t, err)
	defer joined.Release()

	require.Equal(t, 3, joined.Len())
	city, _ := joined.Column("city")
	assert.True(t, city.IsNull(0)) // id=1 has no right match
	assert.False(t, city.IsNull(1))
}

func TestRightJoinKeepsUnmatchedRight(t *testing.T) {
	mem := memory.NewGoAllocator()
	left, right := joinFixtures(mem)
	defer left.Release()
	defer right.Release()

	joined, err := Join("join_files", left, right, JoinOptions{
		On: "id", Type: RightJoin, LeftSuffix: "_file1", RightSuffix: "_file2",
	})
	require.NoError(t, err)
	defer joined.Release()

	require.Equal(t, 3, joined.Len())
	name, _ := joined.Column("name")
	// id=4 row: no left contribution.
	assert.True(t, name.IsNull(2))

	// The key itself is taken from whichever side contributed the row.
	id, _ := joined.Column("id")
	values, valid, _ := FloatValues(id)
	assert.Equal(t, []bool{true, true, true}, valid)
	assert.Equal(t, []float64{2, 3, 4}, values)
}

func TestFullOuterJoin(t *testing.T) {
	mem := memory.NewGoAllocator()
	left, right := joinFixtures(mem)
	defer left.Release()
	defer right.Release()

	joined, err := Join("join_files", left, right, JoinOptions{
		On: "id", Type: FullOuterJoin, LeftSuffix: "_file1", RightSuffix: "_file2",
	})
	require.NoError(t, err)
	defer joined.Release()

	// 2 matches + 1 left-only + 1 right-only.
	assert.Equal(t, 4, joined.Len())
}

func TestJoinFanOutOnDuplicateKeys(t *testing.T) {
	mem := memory.NewGoAllocator()

	left := New(
		series.New("k", []string{"a", "a"}, mem),
		series.New("l", []int64{1, 2}, mem),
	)
	defer left.Release()
	right := New(
		series.New("k", []string{"a", "a", "a"}, mem),
		series.New("r", []int64{10, 20, 30}, mem),
	)
	defer right.Release()

	joined, err := Join("join_files", left, right, JoinOptions{On: "k", Type: InnerJoin})
	require.NoError(t, err)
	defer joined.Release()

	assert.Equal(t, 6, joined.Len())
}

func TestJoinNullKeysNeverMatch(t *testing.T) {
	mem := memory.NewGoAllocator()

	left := New(series.NewWithNulls("k", []string{"a", ""}, []bool{true, false}, mem))
	defer left.Release()
	right := New(series.NewWithNulls("k", []string{"a", ""}, []bool{true, false}, mem))
	defer right.Release()

	joined, err := Join("join_files", left, right, JoinOptions{On: "k", Type: InnerJoin})
	require.NoError(t, err)
	defer joined.Release()

	assert.Equal(t, 1, joined.Len())
}

func TestJoinMissingKeyColumn(t *testing.T) {
	mem := memory.NewGoAllocator()
	left, right := joinFixtures(mem)
	defer left.Release()
	defer right.Release()

	_, err := Join("join_files", left, right, JoinOptions{On: "Nonexistent", Type: InnerJoin})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.Error{Kind: errors.KindColumnNotFound}))
	assert.Contains(t, err.Error(), "Nonexistent")
	assert.Contains(t, err.Error(), "id, name, v")
}
