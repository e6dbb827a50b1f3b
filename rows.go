package tablekit

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/tablekit/tablekit/internal/errors"
	"github.com/tablekit/tablekit/internal/series"
	"github.com/tablekit/tablekit/internal/stats"
	"github.com/tablekit/tablekit/internal/table"
)

// FilterRows keeps the rows of src where column satisfies the condition
// against value and writes them to out, preserving row order. Conditions:
// equals, not_equals, contains (case-insensitive substring over the text
// rendering), greater_than, less_than (numeric). A missing cell fails
// every condition except not_equals. An empty result is valid.
func (r *Runner) FilterRows(src, out, column, condition, value string) (*Result, error) {
	const op = "filter_rows"

	t, err := r.load(op, src)
	if err != nil {
		return nil, err
	}
	defer t.Release()

	if err := requireColumns(op, t, []string{column}); err != nil {
		return nil, err
	}

	s, _ := t.Column(column)
	mask, err := filterMask(op, s, condition, value)
	if err != nil {
		return nil, err
	}

	result := t.FilterMask(mask)
	defer result.Release()

	if err := r.persist(op, result, out); err != nil {
		return nil, err
	}

	return &Result{
		Op:          op,
		OutputPath:  out,
		Rows:        result.Len(),
		Columns:     result.Width(),
		ColumnNames: result.Columns(),
		RemovedRows: t.Len() - result.Len(),
		Message: fmt.Sprintf("Kept %d of %d rows where %s %s '%s'",
			result.Len(), t.Len(), column, condition, value),
	}, nil
}

// filterMask computes the per-row keep mask for one condition.
func filterMask(op string, s table.ISeries, condition, value string) ([]bool, error) {
	switch condition {
	case "equals", "not_equals":
		return equalityMask(s, value, condition == "not_equals"), nil

	case "contains":
		rendered, valid := table.StringValues(s)
		needle := strings.ToLower(value)
		mask := make([]bool, len(rendered))
		for i := range rendered {
			mask[i] = valid[i] && strings.Contains(strings.ToLower(rendered[i]), needle)
		}
		return mask, nil

	case "greater_than", "less_than":
		if !table.IsNumeric(s) {
			return nil, errors.NewTypeMismatchError(op, []string{s.Name()})
		}
		threshold, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, errors.NewValueCoercionError(op, s.Name(), value)
		}

		values, valid, _ := table.FloatValues(s)
		greater := condition == "greater_than"
		mask := make([]bool, len(values))
		for i, v := range values {
			if !valid[i] {
				continue
			}
			if greater {
				mask[i] = v > threshold
			} else {
				mask[i] = v < threshold
			}
		}
		return mask, nil

	default:
		return nil, errors.NewInvalidArgumentError(op, "condition", condition,
			[]string{"equals", "not_equals", "contains", "greater_than", "less_than"})
	}
}

// equalityMask compares numerically when both the column and the value
// are numeric, by text rendering otherwise. Missing cells are unequal to
// everything.
func equalityMask(s table.ISeries, value string, negate bool) []bool {
	if table.IsNumeric(s) {
		if target, err := strconv.ParseFloat(value, 64); err == nil {
			values, valid, _ := table.FloatValues(s)
			mask := make([]bool, len(values))
			for i, v := range values {
				equal := valid[i] && v == target
				mask[i] = equal != negate
			}
			return mask
		}
	}

	rendered, valid := table.StringValues(s)
	mask := make([]bool, len(rendered))
	for i := range rendered {
		equal := valid[i] && rendered[i] == value
		mask[i] = equal != negate
	}
	return mask
}

// ImputeMissing fills the missing cells of the named numeric columns and
// writes the result to out. A nil columns means every numeric column.
// Strategies: mean, median, most_frequent, constant (uses fillValue).
// Mean and median promote integer columns to float64.
func (r *Runner) ImputeMissing(src, out string, columns []string, strategy string, fillValue float64) (*Result, error) {
	const op = "impute_missing"

	switch strategy {
	case "mean", "median", "most_frequent", "constant":
	default:
		return nil, errors.NewInvalidArgumentError(op, "strategy", strategy,
			[]string{"mean", "median", "most_frequent", "constant"})
	}

	t, err := r.load(op, src)
	if err != nil {
		return nil, err
	}
	defer t.Release()

	if columns == nil {
		columns = numericColumns(t)
	} else {
		if err := requireColumns(op, t, columns); err != nil {
			return nil, err
		}
		if err := requireNumeric(op, t, columns); err != nil {
			return nil, err
		}
	}

	imputed := 0
	result := t
	for _, name := range columns {
		s, _ := result.Column(name)
		if s.NullCount() == 0 {
			continue
		}

		values, valid, _ := table.FloatValues(s)
		compact := table.CompactFloats(values, valid)

		var fill float64
		switch strategy {
		case "mean":
			fill = stats.Mean(compact)
		case "median":
			fill = stats.Median(compact)
		case "most_frequent":
			fill = stats.Mode(compact)
		case "constant":
			fill = fillValue
		}

		// A fully-missing column has no statistic to impute from.
		if len(compact) == 0 && strategy != "constant" {
			continue
		}

		imputed += s.NullCount()
		result = result.WithColumn(filledColumn(s, values, valid, fill, strategy, r.allocator()))
	}

	if err := r.persist(op, result, out); err != nil {
		return nil, err
	}

	return &Result{
		Op:          op,
		OutputPath:  out,
		Rows:        result.Len(),
		Columns:     result.Width(),
		ColumnNames: result.Columns(),
		Message: fmt.Sprintf("Imputed %d missing cells with %s in columns: %s",
			imputed, strategy, strings.Join(columns, ", ")),
	}, nil
}

// filledColumn rebuilds s with missing cells set to fill. An integer
// column keeps its type only when the strategy and the fill value allow
// an exact integer; otherwise the column widens to float64.
func filledColumn(s table.ISeries, values []float64, valid []bool, fill float64, strategy string, mem memory.Allocator) table.ISeries {
	name := s.Name()

	keepInt := isInt64(s) &&
		(strategy == "most_frequent" || strategy == "constant") &&
		fill == math.Trunc(fill)

	if keepInt {
		ints := make([]int64, len(values))
		for i, v := range values {
			if valid[i] {
				ints[i] = int64(v)
			} else {
				ints[i] = int64(fill)
			}
		}
		return series.New(name, ints, mem)
	}

	filled := make([]float64, len(values))
	for i, v := range values {
		if valid[i] {
			filled[i] = v
		} else {
			filled[i] = fill
		}
	}
	return series.New(name, filled, mem)
}

// HandleOutliers drops the rows of src that are out of bounds on any of
// the named numeric columns and writes the survivors to out. Methods:
// "iqr" keeps rows within [Q1-1.5*IQR, Q3+1.5*IQR] per column, "zscore"
// keeps rows with |z| < 3. A row survives only if in bounds on every
// nominated column; missing cells count as out of bounds.
func (r *Runner) HandleOutliers(src, out string, columns []string, method string) (*Result, error) {
	const op = "handle_outliers"

	if method != "iqr" && method != "zscore" {
		return nil, errors.NewInvalidArgumentError(op, "method", method,
			[]string{"iqr", "zscore"})
	}

	t, err := r.load(op, src)
	if err != nil {
		return nil, err
	}
	defer t.Release()

	if err := requireColumns(op, t, columns); err != nil {
		return nil, err
	}
	if err := requireNumeric(op, t, columns); err != nil {
		return nil, err
	}

	mask := make([]bool, t.Len())
	for i := range mask {
		mask[i] = true
	}

	for _, name := range columns {
		s, _ := t.Column(name)
		values, valid, _ := table.FloatValues(s)
		compact := table.CompactFloats(values, valid)

		inBounds := boundsCheck(compact, method)
		for i, v := range values {
			if !valid[i] || !inBounds(v) {
				mask[i] = false
			}
		}
	}

	result := t.FilterMask(mask)
	defer result.Release()

	if err := r.persist(op, result, out); err != nil {
		return nil, err
	}

	removed := t.Len() - result.Len()
	return &Result{
		Op:          op,
		OutputPath:  out,
		Rows:        result.Len(),
		Columns:     result.Width(),
		ColumnNames: result.Columns(),
		RemovedRows: removed,
		Message: fmt.Sprintf("Removed %d outlier rows with %s on columns: %s",
			removed, method, strings.Join(columns, ", ")),
	}, nil
}

// boundsCheck fits the method's bounds on the non-missing values and
// returns the in-bounds predicate.
func boundsCheck(compact []float64, method string) func(float64) bool {
	if method == "iqr" {
		q1 := stats.Quantile(compact, 0.25)
		q3 := stats.Quantile(compact, 0.75)
		iqr := q3 - q1
		lower := q1 - 1.5*iqr
		upper := q3 + 1.5*iqr
		return func(v float64) bool { return v >= lower && v <= upper }
	}

	mean := stats.Mean(compact)
	std := stats.Std(compact)
	if std == 0 {
		return func(float64) bool { return true }
	}
	return func(v float64) bool { return math.Abs((v-mean)/std) < 3 }
}
