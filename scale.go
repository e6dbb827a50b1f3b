package tablekit

import (
	"fmt"
	"strings"

	"github.com/tablekit/tablekit/internal/errors"
	"github.com/tablekit/tablekit/internal/series"
	"github.com/tablekit/tablekit/internal/stats"
	"github.com/tablekit/tablekit/internal/table"
)

// Suffixes for the scaled columns each transform appends. Originals are
// always kept.
const (
	suffixNormalized   = "_normalized"
	suffixScaled       = "_scaled"
	suffixRobustScaled = "_robust_scaled"
)

// NormalizeColumn appends a '<column>_normalized' column computed with the
// given method: "min_max" rescales into [0,1], "z_score" centers on the
// mean in standard deviations. A constant column normalizes to 0.
func (r *Runner) NormalizeColumn(src, out, column, method string) (*Result, error) {
	const op = "normalize_column"

	var scale scaleFunc
	switch method {
	case "min_max":
		scale = minMaxScaler(0, 1)
	case "z_score":
		scale = zScoreScaler()
	default:
		return nil, errors.NewInvalidArgumentError(op, "method", method,
			[]string{"min_max", "z_score"})
	}

	return r.scaleColumns(op, src, out, []string{column}, suffixNormalized, scale,
		fmt.Sprintf("Normalized '%s' with %s", column, method))
}

// StandardScale appends a '<column>_scaled' z-score column for every named
// column. A zero-variance column scales to 0.
func (r *Runner) StandardScale(src, out string, columns []string) (*Result, error) {
	const op = "standard_scale"
	return r.scaleColumns(op, src, out, columns, suffixScaled, zScoreScaler(),
		fmt.Sprintf("Standard-scaled columns: %s", strings.Join(columns, ", ")))
}

// MinMaxScale appends a '<column>_scaled' column rescaled into [lo, hi]
// for every named column. A constant column scales to lo.
func (r *Runner) MinMaxScale(src, out string, columns []string, lo, hi float64) (*Result, error) {
	const op = "min_max_scale"

	if hi <= lo {
		return nil, errors.NewInvalidArgumentError(op, "range",
			fmt.Sprintf("[%g, %g]", lo, hi), []string{"lo < hi"})
	}

	return r.scaleColumns(op, src, out, columns, suffixScaled, minMaxScaler(lo, hi),
		fmt.Sprintf("Min-max scaled columns into [%g, %g]: %s",
			lo, hi, strings.Join(columns, ", ")))
}

// RobustScale appends a '<column>_robust_scaled' column, centering on the
// median in IQR units, for every named column. A column with zero IQR
// scales to 0.
func (r *Runner) RobustScale(src, out string, columns []string) (*Result, error) {
	const op = "robust_scale"
	return r.scaleColumns(op, src, out, columns, suffixRobustScaled, robustScaler(),
		fmt.Sprintf("Robust-scaled columns: %s", strings.Join(columns, ", ")))
}

// scaleFunc maps the non-missing values of one column to their scaled
// values, given the full set of non-missing values for parameter fitting.
type scaleFunc func(compact []float64) func(x float64) float64

func minMaxScaler(lo, hi float64) scaleFunc {
	return func(compact []float64) func(float64) float64 {
		minVal := stats.Min(compact)
		maxVal := stats.Max(compact)
		if maxVal == minVal {
			return func(float64) float64 { return lo }
		}
		return func(x float64) float64 {
			return lo + (x-minVal)/(maxVal-minVal)*(hi-lo)
		}
	}
}

func zScoreScaler() scaleFunc {
	return func(compact []float64) func(float64) float64 {
		mean := stats.Mean(compact)
		std := stats.Std(compact)
		if std == 0 {
			return func(float64) float64 { return 0 }
		}
		return func(x float64) float64 { return (x - mean) / std }
	}
}

func robustScaler() scaleFunc {
	return func(compact []float64) func(float64) float64 {
		median := stats.Median(compact)
		iqr := stats.Quantile(compact, 0.75) - stats.Quantile(compact, 0.25)
		if iqr == 0 {
			return func(float64) float64 { return 0 }
		}
		return func(x float64) float64 { return (x - median) / iqr }
	}
}

// scaleColumns is the shared load-validate-scale-persist loop. Each named
// column must exist and be numeric; each gains a suffixed float64 column
// with nulls preserved.
func (r *Runner) scaleColumns(
	op, src, out string, columns []string, suffix string, scale scaleFunc, message string,
) (*Result, error) {
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

	result := t
	for _, name := range columns {
		s, _ := result.Column(name)
		values, valid, _ := table.FloatValues(s)
		compact := table.CompactFloats(values, valid)

		scaled := make([]float64, len(values))
		if len(compact) > 0 {
			apply := scale(compact)
			for i, v := range values {
				if valid[i] {
					scaled[i] = apply(v)
				}
			}
		}

		col := series.NewWithNulls(name+suffix, scaled, valid, r.allocator())
		result = result.WithColumn(col)
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
		Message:     message,
	}, nil
}
