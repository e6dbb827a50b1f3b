// Package table provides the in-memory table model all primitives operate
// on: an ordered set of named, equal-length, Arrow-backed columns.
package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/tablekit/tablekit/internal/series"
)

// ISeries is the type-erased interface over series.Series[T].
type ISeries interface {
	Name() string
	Len() int
	NullCount() int
	DataType() arrow.DataType
	IsNull(index int) bool
	String() string
	Array() arrow.Array
	Release()
}

// Table represents a table of data with typed columns. Column order is
// preserved across operations unless an operation explicitly reorders or
// drops columns.
type Table struct {
	columns map[string]ISeries
	order   []string
}

// New creates a new Table from a slice of ISeries.
func New(cols ...ISeries) *Table {
	columns := make(map[string]ISeries, len(cols))
	order := make([]string, 0, len(cols))

	for _, s := range cols {
		name := s.Name()
		columns[name] = s
		order = append(order, name)
	}

	return &Table{
		columns: columns,
		order:   order,
	}
}

// Columns returns the names of all columns in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.order...)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if len(t.order) == 0 {
		return 0
	}
	if s, exists := t.columns[t.order[0]]; exists {
		return s.Len()
	}
	return 0
}

// Width returns the number of columns.
func (t *Table) Width() int {
	return len(t.columns)
}

// Column returns the series for the given column name.
func (t *Table) Column(name string) (ISeries, bool) {
	s, exists := t.columns[name]
	return s, exists
}

// HasColumn checks if a column exists.
func (t *Table) HasColumn(name string) bool {
	_, exists := t.columns[name]
	return exists
}

// MissingColumns returns every name in names absent from the table,
// preserving the order of names.
func (t *Table) MissingColumns(names []string) []string {
	var missing []string
	for _, name := range names {
		if !t.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Select returns a new Table with only the specified columns, in the
// order given by names. Unknown names are skipped; callers validate first.
func (t *Table) Select(names ...string) *Table {
	newColumns := make(map[string]ISeries, len(names))
	newOrder := make([]string, 0, len(names))

	for _, name := range names {
		if s, exists := t.columns[name]; exists {
			newColumns[name] = s
			newOrder = append(newOrder, name)
		}
	}

	return &Table{
		columns: newColumns,
		order:   newOrder,
	}
}

// Drop returns a new Table without the specified columns.
func (t *Table) Drop(names ...string) *Table {
	dropSet := make(map[string]bool, len(names))
	for _, name := range names {
		dropSet[name] = true
	}

	newColumns := make(map[string]ISeries, len(t.order))
	newOrder := make([]string, 0, len(t.order))

	for _, name := range t.order {
		if !dropSet[name] {
			newColumns[name] = t.columns[name]
			newOrder = append(newOrder, name)
		}
	}

	return &Table{
		columns: newColumns,
		order:   newOrder,
	}
}

// WithColumn returns a new Table with s appended; when a column of the
// same name exists it is replaced in place.
func (t *Table) WithColumn(s ISeries) *Table {
	newColumns := make(map[string]ISeries, len(t.order)+1)
	for name, col := range t.columns {
		newColumns[name] = col
	}

	name := s.Name()
	newColumns[name] = s

	newOrder := append([]string(nil), t.order...)
	if !t.HasColumn(name) {
		newOrder = append(newOrder, name)
	}

	return &Table{
		columns: newColumns,
		order:   newOrder,
	}
}

// Rename returns a new Table with columns renamed per mapping. Names not
// present in the mapping are kept as-is.
func (t *Table) Rename(mapping map[string]string) *Table {
	newColumns := make(map[string]ISeries, len(t.order))
	newOrder := make([]string, 0, len(t.order))

	for _, name := range t.order {
		s := t.columns[name]
		newName := name
		if renamed, ok := mapping[name]; ok {
			newName = renamed
			s = renameSeries(s, renamed)
		}
		newColumns[newName] = s
		newOrder = append(newOrder, newName)
	}

	return &Table{
		columns: newColumns,
		order:   newOrder,
	}
}

// FilterMask returns a new Table containing the rows where mask is true,
// preserving row order.
func (t *Table) FilterMask(mask []bool) *Table {
	indices := make([]int, 0, len(mask))
	for i, keep := range mask {
		if keep {
			indices = append(indices, i)
		}
	}
	return t.Gather(indices)
}

// Gather returns a new Table assembled from the given row indices. An
// index of -1 produces a null row in every column.
func (t *Table) Gather(indices []int) *Table {
	gathered := make([]ISeries, 0, len(t.order))
	for _, name := range t.order {
		gathered = append(gathered, gatherSeries(t.columns[name], indices))
	}
	return New(gathered...)
}

// String returns a short representation of the table.
func (t *Table) String() string {
	if len(t.columns) == 0 {
		return "Table[empty]"
	}

	parts := []string{fmt.Sprintf("Table[%dx%d]", t.Len(), t.Width())}
	for _, name := range t.order {
		parts = append(parts, fmt.Sprintf("  %s: %s", name, t.columns[name].DataType().String()))
	}
	return strings.Join(parts, "\n")
}

// Release releases all underlying Arrow memory.
func (t *Table) Release() {
	for _, s := range t.columns {
		s.Release()
	}
}

// IsNumeric reports whether the series holds int64 or float64 data.
func IsNumeric(s ISeries) bool {
	switch s.DataType().ID() {
	case arrow.INT64, arrow.FLOAT64:
		return true
	default:
		return false
	}
}

// FloatValues extracts a numeric column as float64 values plus a validity
// mask. The second return is false when the column is not numeric.
func FloatValues(s ISeries) ([]float64, []bool, bool) {
	arr := s.Array()
	defer arr.Release()

	values := make([]float64, arr.Len())
	valid := make([]bool, arr.Len())

	switch typed := arr.(type) {
	case *array.Int64:
		for i := 0; i < typed.Len(); i++ {
			if !typed.IsNull(i) {
				values[i] = float64(typed.Value(i))
				valid[i] = true
			}
		}
	case *array.Float64:
		for i := 0; i < typed.Len(); i++ {
			if !typed.IsNull(i) {
				values[i] = typed.Value(i)
				valid[i] = true
			}
		}
	default:
		return nil, nil, false
	}

	return values, valid, true
}

// CompactFloats returns only the valid values of a (values, valid) pair.
func CompactFloats(values []float64, valid []bool) []float64 {
	out := make([]float64, 0, len(values))
	for i, v := range values {
		if valid[i] {
			out = append(out, v)
		}
	}
	return out
}

// RenderCell renders the cell at row i as text, the way the CSV codec
// serializes it. The second return is false for a missing cell.
func RenderCell(s ISeries, i int) (string, bool) {
	arr := s.Array()
	defer arr.Release()

	if arr.IsNull(i) {
		return "", false
	}

	switch typed := arr.(type) {
	case *array.String:
		return typed.Value(i), true
	case *array.Int64:
		return strconv.FormatInt(typed.Value(i), 10), true
	case *array.Float64:
		return strconv.FormatFloat(typed.Value(i), 'g', -1, 64), true
	case *array.Boolean:
		if typed.Value(i) {
			return "true", true
		}
		return "false", true
	default:
		return "", false
	}
}

// StringValues renders every cell of the column as text plus a validity
// mask.
func StringValues(s ISeries) ([]string, []bool) {
	arr := s.Array()
	defer arr.Release()

	values := make([]string, arr.Len())
	valid := make([]bool, arr.Len())

	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			continue
		}
		valid[i] = true
		switch typed := arr.(type) {
		case *array.String:
			values[i] = typed.Value(i)
		case *array.Int64:
			values[i] = strconv.FormatInt(typed.Value(i), 10)
		case *array.Float64:
			values[i] = strconv.FormatFloat(typed.Value(i), 'g', -1, 64)
		case *array.Boolean:
			if typed.Value(i) {
				values[i] = "true"
			} else {
				values[i] = "false"
			}
		}
	}

	return values, valid
}

// gatherSeries assembles a new series from row indices of s; index -1
// yields a null cell. The copy is independent of the source memory.
func gatherSeries(s ISeries, indices []int) ISeries {
	arr := s.Array()
	defer arr.Release()

	mem := memory.NewGoAllocator()

	switch typed := arr.(type) {
	case *array.String:
		return gatherTyped(s.Name(), indices, mem, typed.Len(), typed.IsNull, typed.Value)
	case *array.Int64:
		return gatherTyped(s.Name(), indices, mem, typed.Len(), typed.IsNull, typed.Value)
	case *array.Float64:
		return gatherTyped(s.Name(), indices, mem, typed.Len(), typed.IsNull, typed.Value)
	case *array.Boolean:
		return gatherTyped(s.Name(), indices, mem, typed.Len(), typed.IsNull, typed.Value)
	default:
		return series.New(s.Name(), []string{}, mem)
	}
}

// gatherTyped is the generic helper behind gatherSeries.
func gatherTyped[T any](
	name string, indices []int, mem memory.Allocator,
	length int, isNull func(int) bool, value func(int) T,
) ISeries {
	values := make([]T, len(indices))
	valid := make([]bool, len(indices))
	for i, idx := range indices {
		if idx >= 0 && idx < length && !isNull(idx) {
			values[i] = value(idx)
			valid[i] = true
		}
	}
	return series.NewWithNulls(name, values, valid, mem)
}

// renameSeries rebuilds s under a new name.
func renameSeries(s ISeries, name string) ISeries {
	arr := s.Array()
	defer arr.Release()

	mem := memory.NewGoAllocator()

	switch typed := arr.(type) {
	case *array.String:
		return gatherAll(name, mem, typed.Len(), typed.IsNull, typed.Value)
	case *array.Int64:
		return gatherAll(name, mem, typed.Len(), typed.IsNull, typed.Value)
	case *array.Float64:
		return gatherAll(name, mem, typed.Len(), typed.IsNull, typed.Value)
	case *array.Boolean:
		return gatherAll(name, mem, typed.Len(), typed.IsNull, typed.Value)
	default:
		return series.New(name, []string{}, mem)
	}
}

func gatherAll[T any](
	name string, mem memory.Allocator,
	length int, isNull func(int) bool, value func(int) T,
) ISeries {
	values := make([]T, length)
	valid := make([]bool, length)
	for i := 0; i < length; i++ {
		if !isNull(i) {
			values[i] = value(i)
			valid[i] = true
		}
	}
	return series.NewWithNulls(name, values, valid, mem)
}
