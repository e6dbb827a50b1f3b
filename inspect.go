package tablekit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/tablekit/tablekit/internal/errors"
	"github.com/tablekit/tablekit/internal/series"
	"github.com/tablekit/tablekit/internal/stats"
	"github.com/tablekit/tablekit/internal/table"
)

// ColumnNames returns the ordered column names of the table at path.
func (r *Runner) ColumnNames(path string) (*Result, error) {
	const op = "column_names"

	t, err := r.load(op, path)
	if err != nil {
		return nil, err
	}
	defer t.Release()

	names := t.Columns()
	return &Result{
		Op:          op,
		Rows:        t.Len(),
		Columns:     t.Width(),
		ColumnNames: names,
		Message:     fmt.Sprintf("Columns in %s: %s", path, strings.Join(names, ", ")),
	}, nil
}

// Preview returns the first n rows of the table at path. A non-positive n
// falls back to the configured preview size.
func (r *Runner) Preview(path string, n int) (*Result, error) {
	const op = "preview"

	t, err := r.load(op, path)
	if err != nil {
		return nil, err
	}
	defer t.Release()

	if n <= 0 {
		n = r.cfg.PreviewRows
	}
	if n > t.Len() {
		n = t.Len()
	}

	cells := renderRows(t, firstN(t.Len(), n))
	return &Result{
		Op:          op,
		Rows:        t.Len(),
		Columns:     t.Width(),
		ColumnNames: t.Columns(),
		Cells:       cells,
		Message:     fmt.Sprintf("First %d of %d rows in %s", len(cells), t.Len(), path),
	}, nil
}

// Info reports per-column dtype, non-null and missing counts.
func (r *Runner) Info(path string) (*Result, error) {
	const op = "info"

	t, err := r.load(op, path)
	if err != nil {
		return nil, err
	}
	defer t.Release()

	header := []string{"column", "dtype", "non_null", "missing"}
	cells := make([][]string, 0, t.Width())
	for _, name := range t.Columns() {
		s, _ := t.Column(name)
		nulls := s.NullCount()
		cells = append(cells, []string{
			name,
			s.DataType().String(),
			strconv.Itoa(s.Len() - nulls),
			strconv.Itoa(nulls),
		})
	}

	return &Result{
		Op:          op,
		Rows:        t.Len(),
		Columns:     t.Width(),
		ColumnNames: header,
		Cells:       cells,
		Message:     fmt.Sprintf("%s: %d rows, %d columns", path, t.Len(), t.Width()),
	}, nil
}

// Describe computes count, mean, std, min, quartiles and max for every
// numeric column.
func (r *Runner) Describe(path string) (*Result, error) {
	const op = "describe"

	t, err := r.load(op, path)
	if err != nil {
		return nil, err
	}
	defer t.Release()

	numeric := numericColumns(t)
	header := append([]string{"stat"}, numeric...)

	statRows := []struct {
		name string
		fn   func([]float64) float64
	}{
		{"count", func(xs []float64) float64 { return float64(len(xs)) }},
		{"mean", stats.Mean[float64]},
		{"std", stats.Std},
		{"min", stats.Min[float64]},
		{"25%", func(xs []float64) float64 { return stats.Quantile(xs, 0.25) }},
		{"50%", func(xs []float64) float64 { return stats.Quantile(xs, 0.5) }},
		{"75%", func(xs []float64) float64 { return stats.Quantile(xs, 0.75) }},
		{"max", stats.Max[float64]},
	}

	columnValues := make(map[string][]float64, len(numeric))
	for _, name := range numeric {
		s, _ := t.Column(name)
		values, valid, _ := table.FloatValues(s)
		columnValues[name] = table.CompactFloats(values, valid)
	}

	cells := make([][]string, 0, len(statRows))
	for _, row := range statRows {
		line := make([]string, 0, len(header))
		line = append(line, row.name)
		for _, name := range numeric {
			line = append(line, strconv.FormatFloat(row.fn(columnValues[name]), 'g', -1, 64))
		}
		cells = append(cells, line)
	}

	return &Result{
		Op:          op,
		Rows:        t.Len(),
		Columns:     t.Width(),
		ColumnNames: header,
		Cells:       cells,
		Message:     fmt.Sprintf("Summary statistics for %d numeric columns in %s", len(numeric), path),
	}, nil
}

// SearchRows returns the first n rows whose column matches value as a
// case-insensitive substring of the cell's text rendering.
func (r *Runner) SearchRows(path, column, value string, n int) (*Result, error) {
	const op = "search_rows"

	t, err := r.load(op, path)
	if err != nil {
		return nil, err
	}
	defer t.Release()

	if err := requireColumns(op, t, []string{column}); err != nil {
		return nil, err
	}

	if n <= 0 {
		n = r.cfg.PreviewRows
	}

	s, _ := t.Column(column)
	rendered, valid := table.StringValues(s)
	needle := strings.ToLower(value)

	var indices []int
	for i := range rendered {
		if len(indices) == n {
			break
		}
		if valid[i] && strings.Contains(strings.ToLower(rendered[i]), needle) {
			indices = append(indices, i)
		}
	}

	cells := renderRows(t, indices)
	return &Result{
		Op:          op,
		Rows:        t.Len(),
		Columns:     t.Width(),
		ColumnNames: t.Columns(),
		Cells:       cells,
		Message: fmt.Sprintf("Found %d rows in %s where %s contains '%s'",
			len(cells), path, column, value),
	}, nil
}

// AppendRow appends one row to the file at path, matching values by
// column name; absent columns become nulls. Cell values must coerce to the
// column's type.
func (r *Runner) AppendRow(path string, values map[string]string) (*Result, error) {
	const op = "append_row"

	t, err := r.load(op, path)
	if err != nil {
		return nil, err
	}
	defer t.Release()

	if missing := unknownKeys(t, values); len(missing) > 0 {
		return nil, errors.NewColumnNotFoundError(op, missing, t.Columns())
	}

	appended := make([]table.ISeries, 0, t.Width())
	for _, name := range t.Columns() {
		s, _ := t.Column(name)
		cell, present := values[name]
		out, appendErr := appendCell(op, s, cell, present, r.allocator())
		if appendErr != nil {
			for _, done := range appended {
				done.Release()
			}
			return nil, appendErr
		}
		appended = append(appended, out)
	}

	result := table.New(appended...)
	defer result.Release()

	if err := r.persist(op, result, path); err != nil {
		return nil, err
	}

	return &Result{
		Op:          op,
		OutputPath:  path,
		Rows:        result.Len(),
		Columns:     result.Width(),
		ColumnNames: result.Columns(),
		Message:     fmt.Sprintf("Appended 1 row to %s", path),
	}, nil
}

// renderRows renders the given row indices of t as text cells.
func renderRows(t *table.Table, indices []int) [][]string {
	names := t.Columns()
	rows := make([][]string, 0, len(indices))
	for _, idx := range indices {
		row := make([]string, len(names))
		for j, name := range names {
			s, _ := t.Column(name)
			if text, ok := table.RenderCell(s, idx); ok {
				row[j] = text
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func firstN(total, n int) []int {
	if n > total {
		n = total
	}
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return indices
}

// unknownKeys returns map keys naming columns absent from t.
func unknownKeys(t *table.Table, values map[string]string) []string {
	var missing []string
	for _, name := range sortedKeys(values) {
		if !t.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// appendCell rebuilds s with one extra cell parsed per the column's type.
// An absent or unparseable-empty cell appends a null.
func appendCell(op string, s table.ISeries, cell string, present bool, mem memory.Allocator) (table.ISeries, error) {
	name := s.Name()

	addNull := !present || cell == ""

	switch {
	case isBool(s):
		arr := s.Array()
		defer arr.Release()
		typed := arr.(*array.Boolean)

		values := make([]bool, 0, typed.Len()+1)
		valid := make([]bool, 0, typed.Len()+1)
		for i := 0; i < typed.Len(); i++ {
			values = append(values, !typed.IsNull(i) && typed.Value(i))
			valid = append(valid, !typed.IsNull(i))
		}
		if addNull {
			return series.NewWithNulls(name, append(values, false), append(valid, false), mem), nil
		}
		parsed, err := strconv.ParseBool(cell)
		if err != nil {
			return nil, errors.NewValueCoercionError(op, name, cell)
		}
		return series.NewWithNulls(name, append(values, parsed), append(valid, true), mem), nil

	case table.IsNumeric(s):
		values, valid, _ := table.FloatValues(s)
		if isInt64(s) {
			ints := make([]int64, 0, len(values)+1)
			mask := make([]bool, 0, len(values)+1)
			for i, v := range values {
				ints = append(ints, int64(v))
				mask = append(mask, valid[i])
			}
			if addNull {
				return series.NewWithNulls(name, append(ints, 0), append(mask, false), mem), nil
			}
			parsed, err := strconv.ParseInt(cell, 10, 64)
			if err != nil {
				return nil, errors.NewValueCoercionError(op, name, cell)
			}
			return series.NewWithNulls(name, append(ints, parsed), append(mask, true), mem), nil
		}
		if addNull {
			return series.NewWithNulls(name, append(values, 0), append(valid, false), mem), nil
		}
		parsed, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, errors.NewValueCoercionError(op, name, cell)
		}
		return series.NewWithNulls(name, append(values, parsed), append(valid, true), mem), nil

	default:
		values, valid := table.StringValues(s)
		if addNull {
			return series.NewWithNulls(name, append(values, ""), append(valid, false), mem), nil
		}
		return series.NewWithNulls(name, append(values, cell), append(valid, true), mem), nil
	}
}
