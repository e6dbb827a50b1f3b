package table

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/tablekit/tablekit/internal/errors"
	"github.com/tablekit/tablekit/internal/series"
)

// CombineReport describes how a multi-file combination reconciled its
// inputs.
type CombineReport struct {
	// DroppedColumns maps input index to the columns dropped from that
	// input under the common-columns policy.
	DroppedColumns map[int][]string
	// FilledColumns lists columns that were absent from at least one input
	// and null-filled under the union policy.
	FilledColumns []string
	// PaddedRows is the total number of null rows added to shorter inputs
	// during horizontal combination.
	PaddedRows int
}

// CombineVertical stacks the rows of all tables, aligning columns by name.
// With keepOnlyCommon, only columns present in every input survive (order
// taken from the first input) and per-input drops are reported; otherwise
// the column union is kept and missing cells become nulls.
func CombineVertical(op string, tables []*Table, keepOnlyCommon bool) (*Table, *CombineReport, error) {
	report := &CombineReport{DroppedColumns: make(map[int][]string)}

	if keepOnlyCommon {
		common := make(map[string]bool)
		for _, name := range tables[0].Columns() {
			common[name] = true
		}
		for _, t := range tables[1:] {
			for name := range common {
				if !t.HasColumn(name) {
					delete(common, name)
				}
			}
		}
		if len(common) == 0 {
			return nil, nil, errors.NewSchemaConflictError(op, "no common columns found across all files")
		}

		for i, t := range tables {
			for _, name := range t.Columns() {
				if !common[name] {
					report.DroppedColumns[i] = append(report.DroppedColumns[i], name)
				}
			}
		}

		var order []string
		for _, name := range tables[0].Columns() {
			if common[name] {
				order = append(order, name)
			}
		}
		return stackColumns(order, tables), report, nil
	}

	// Union policy: first input's order, then new columns as encountered.
	var order []string
	seen := make(map[string]bool)
	for _, t := range tables {
		for _, name := range t.Columns() {
			if !seen[name] {
				seen[name] = true
				order = append(order, name)
			}
		}
	}
	for _, name := range order {
		for _, t := range tables {
			if !t.HasColumn(name) {
				report.FilledColumns = append(report.FilledColumns, name)
				break
			}
		}
	}
	return stackColumns(order, tables), report, nil
}

// CombineHorizontal concatenates the columns of all tables positionally.
// Shorter inputs are padded with null rows; duplicate column names get a
// positional suffix so names stay unique.
func CombineHorizontal(_ string, tables []*Table) (*Table, *CombineReport, error) {
	report := &CombineReport{DroppedColumns: make(map[int][]string)}

	maxLen := 0
	for _, t := range tables {
		if t.Len() > maxLen {
			maxLen = t.Len()
		}
	}

	used := make(map[string]bool)
	var cols []ISeries
	for _, t := range tables {
		report.PaddedRows += maxLen - t.Len()

		indices := make([]int, maxLen)
		for i := range indices {
			if i < t.Len() {
				indices[i] = i
			} else {
				indices[i] = -1
			}
		}

		for _, name := range t.Columns() {
			src, _ := t.Column(name)
			outName := name
			for n := 2; used[outName]; n++ {
				outName = fmt.Sprintf("%s_%d", name, n)
			}
			used[outName] = true

			padded := gatherSeries(src, indices)
			if outName != name {
				renamed := renameSeries(padded, outName)
				padded.Release()
				padded = renamed
			}
			cols = append(cols, padded)
		}
	}

	return New(cols...), report, nil
}

// stackColumns builds one output column per name by concatenating that
// column from every table, null-filling where a table lacks it and
// unifying types across contributions.
func stackColumns(order []string, tables []*Table) *Table {
	cols := make([]ISeries, 0, len(order))
	for _, name := range order {
		cols = append(cols, stackColumn(name, tables))
	}
	return New(cols...)
}

func stackColumn(name string, tables []*Table) ISeries {
	mem := memory.NewGoAllocator()
	target := unifiedType(name, tables)

	switch target {
	case arrow.INT64:
		var values []int64
		var valid []bool
		for _, t := range tables {
			s, ok := t.Column(name)
			if !ok {
				values = append(values, make([]int64, t.Len())...)
				valid = append(valid, make([]bool, t.Len())...)
				continue
			}
			arr := s.Array()
			typed := arr.(*array.Int64)
			for i := 0; i < typed.Len(); i++ {
				values = append(values, typed.Value(i))
				valid = append(valid, !typed.IsNull(i))
			}
			arr.Release()
		}
		return series.NewWithNulls(name, values, valid, mem)

	case arrow.FLOAT64:
		var values []float64
		var valid []bool
		for _, t := range tables {
			s, ok := t.Column(name)
			if !ok {
				values = append(values, make([]float64, t.Len())...)
				valid = append(valid, make([]bool, t.Len())...)
				continue
			}
			vals, vmask, _ := FloatValues(s)
			values = append(values, vals...)
			valid = append(valid, vmask...)
		}
		return series.NewWithNulls(name, values, valid, mem)

	case arrow.BOOL:
		var values []bool
		var valid []bool
		for _, t := range tables {
			s, ok := t.Column(name)
			if !ok {
				values = append(values, make([]bool, t.Len())...)
				valid = append(valid, make([]bool, t.Len())...)
				continue
			}
			arr := s.Array()
			typed := arr.(*array.Boolean)
			for i := 0; i < typed.Len(); i++ {
				values = append(values, typed.Value(i))
				valid = append(valid, !typed.IsNull(i))
			}
			arr.Release()
		}
		return series.NewWithNulls(name, values, valid, mem)

	default:
		var values []string
		var valid []bool
		for _, t := range tables {
			s, ok := t.Column(name)
			if !ok {
				values = append(values, make([]string, t.Len())...)
				valid = append(valid, make([]bool, t.Len())...)
				continue
			}
			vals, vmask := StringValues(s)
			values = append(values, vals...)
			valid = append(valid, vmask...)
		}
		return series.NewWithNulls(name, values, valid, mem)
	}
}

// unifiedType picks the narrowest Arrow type all contributions of a column
// can share: identical types keep theirs, int64/float64 mixes widen to
// float64, anything else falls back to string.
func unifiedType(name string, tables []*Table) arrow.Type {
	var types []arrow.Type
	for _, t := range tables {
		if s, ok := t.Column(name); ok {
			types = append(types, s.DataType().ID())
		}
	}
	if len(types) == 0 {
		return arrow.STRING
	}

	same := true
	numeric := true
	for _, id := range types {
		if id != types[0] {
			same = false
		}
		if id != arrow.INT64 && id != arrow.FLOAT64 {
			numeric = false
		}
	}
	if same {
		return types[0]
	}
	if numeric {
		return arrow.FLOAT64
	}
	return arrow.STRING
}
