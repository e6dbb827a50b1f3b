package table

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/tablekit/tablekit/internal/errors"
	"github.com/tablekit/tablekit/internal/series"
)

// JoinType represents the type of join operation.
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
	FullOuterJoin
)

// JoinOptions specifies parameters for a single-key equality join.
type JoinOptions struct {
	On          string   // Join key, must exist in both tables
	Type        JoinType //
	LeftSuffix  string   // Suffix for overlapping non-key columns from the left
	RightSuffix string   // Suffix for overlapping non-key columns from the right
}

// joinPair is one output row: indices into the left and right tables,
// -1 meaning the side contributed no row.
type joinPair struct {
	l, r int
}

// Join performs a hash join of left and right on equality of the key
// column. Duplicate keys fan out; overlapping non-key column names are
// disambiguated with the configured suffixes.
func Join(op string, left, right *Table, opts JoinOptions) (*Table, error) {
	if missing := left.MissingColumns([]string{opts.On}); len(missing) > 0 {
		return nil, errors.NewColumnNotFoundError(op, missing, left.Columns())
	}
	if missing := right.MissingColumns([]string{opts.On}); len(missing) > 0 {
		return nil, errors.NewColumnNotFoundError(op, missing, right.Columns())
	}

	leftKey, _ := left.Column(opts.On)
	rightKey, _ := right.Column(opts.On)

	leftKeys, leftValid := StringValues(leftKey)
	rightKeys, rightValid := StringValues(rightKey)

	// Hash buckets over the build side. Null keys never match.
	buckets := make(map[string][]int, len(rightKeys))
	for i, k := range rightKeys {
		if rightValid[i] {
			buckets[k] = append(buckets[k], i)
		}
	}

	var pairs []joinPair
	switch opts.Type {
	case InnerJoin:
		for i, k := range leftKeys {
			if !leftValid[i] {
				continue
			}
			for _, j := range buckets[k] {
				pairs = append(pairs, joinPair{l: i, r: j})
			}
		}
	case LeftJoin:
		for i, k := range leftKeys {
			matches := []int(nil)
			if leftValid[i] {
				matches = buckets[k]
			}
			if len(matches) == 0 {
				pairs = append(pairs, joinPair{l: i, r: -1})
				continue
			}
			for _, j := range matches {
				pairs = append(pairs, joinPair{l: i, r: j})
			}
		}
	case RightJoin:
		leftBuckets := make(map[string][]int, len(leftKeys))
		for i, k := range leftKeys {
			if leftValid[i] {
				leftBuckets[k] = append(leftBuckets[k], i)
			}
		}
		for j, k := range rightKeys {
			matches := []int(nil)
			if rightValid[j] {
				matches = leftBuckets[k]
			}
			if len(matches) == 0 {
				pairs = append(pairs, joinPair{l: -1, r: j})
				continue
			}
			for _, i := range matches {
				pairs = append(pairs, joinPair{l: i, r: j})
			}
		}
	case FullOuterJoin:
		matchedRight := make([]bool, len(rightKeys))
		for i, k := range leftKeys {
			matches := []int(nil)
			if leftValid[i] {
				matches = buckets[k]
			}
			if len(matches) == 0 {
				pairs = append(pairs, joinPair{l: i, r: -1})
				continue
			}
			for _, j := range matches {
				matchedRight[j] = true
				pairs = append(pairs, joinPair{l: i, r: j})
			}
		}
		for j := range rightKeys {
			if !matchedRight[j] {
				pairs = append(pairs, joinPair{l: -1, r: j})
			}
		}
	default:
		return nil, errors.NewInvalidArgumentError(op, "join type", "unknown",
			[]string{"inner", "left", "right", "outer"})
	}

	leftIdx := make([]int, len(pairs))
	rightIdx := make([]int, len(pairs))
	for i, p := range pairs {
		leftIdx[i] = p.l
		rightIdx[i] = p.r
	}

	var cols []ISeries
	for _, name := range left.Columns() {
		if name == opts.On {
			cols = append(cols, buildKeyColumn(opts.On, leftKey, rightKey, pairs))
			continue
		}
		s, _ := left.Column(name)
		out := gatherSeries(s, leftIdx)
		if right.HasColumn(name) {
			renamed := renameSeries(out, name+opts.LeftSuffix)
			out.Release()
			out = renamed
		}
		cols = append(cols, out)
	}
	for _, name := range right.Columns() {
		if name == opts.On {
			continue
		}
		s, _ := right.Column(name)
		out := gatherSeries(s, rightIdx)
		if left.HasColumn(name) {
			renamed := renameSeries(out, name+opts.RightSuffix)
			out.Release()
			out = renamed
		}
		cols = append(cols, out)
	}

	return New(cols...), nil
}

// buildKeyColumn materializes the join key, taking each row's value from
// whichever side actually contributed it (left preferred).
func buildKeyColumn(name string, leftKey, rightKey ISeries, pairs []joinPair) ISeries {
	mem := memory.NewGoAllocator()
	target := unifiedPair(leftKey, rightKey)

	switch target {
	case arrow.INT64:
		leftArr := leftKey.Array()
		rightArr := rightKey.Array()
		defer leftArr.Release()
		defer rightArr.Release()
		lt := leftArr.(*array.Int64)
		rt := rightArr.(*array.Int64)

		values := make([]int64, len(pairs))
		valid := make([]bool, len(pairs))
		for i, p := range pairs {
			switch {
			case p.l >= 0 && !lt.IsNull(p.l):
				values[i] = lt.Value(p.l)
				valid[i] = true
			case p.r >= 0 && !rt.IsNull(p.r):
				values[i] = rt.Value(p.r)
				valid[i] = true
			}
		}
		return series.NewWithNulls(name, values, valid, mem)

	case arrow.FLOAT64:
		lVals, lValid, _ := FloatValues(leftKey)
		rVals, rValid, _ := FloatValues(rightKey)

		values := make([]float64, len(pairs))
		valid := make([]bool, len(pairs))
		for i, p := range pairs {
			switch {
			case p.l >= 0 && lValid[p.l]:
				values[i] = lVals[p.l]
				valid[i] = true
			case p.r >= 0 && rValid[p.r]:
				values[i] = rVals[p.r]
				valid[i] = true
			}
		}
		return series.NewWithNulls(name, values, valid, mem)

	default:
		lVals, lValid := StringValues(leftKey)
		rVals, rValid := StringValues(rightKey)

		values := make([]string, len(pairs))
		valid := make([]bool, len(pairs))
		for i, p := range pairs {
			switch {
			case p.l >= 0 && lValid[p.l]:
				values[i] = lVals[p.l]
				valid[i] = true
			case p.r >= 0 && rValid[p.r]:
				values[i] = rVals[p.r]
				valid[i] = true
			}
		}
		return series.NewWithNulls(name, values, valid, mem)
	}
}

func unifiedPair(left, right ISeries) arrow.Type {
	l := left.DataType().ID()
	r := right.DataType().ID()
	if l == r && l != arrow.BOOL {
		return l
	}
	if (l == arrow.INT64 || l == arrow.FLOAT64) && (r == arrow.INT64 || r == arrow.FLOAT64) {
		return arrow.FLOAT64
	}
	return arrow.STRING
}
