package tablekit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/cespare/xxhash/v2"

	"github.com/tablekit/tablekit/internal/errors"
	"github.com/tablekit/tablekit/internal/series"
	"github.com/tablekit/tablekit/internal/table"
)

// Suffixes for the encoded columns. One-hot, binary and hash encoding
// replace the original column; the rest keep it.
const (
	suffixEncoded       = "_encoded"
	suffixOrdinal       = "_ordinal"
	suffixTargetEncoded = "_target_encoded"
	suffixFreqEncoded   = "_freq_encoded"
)

const defaultHashComponents = 8

// OneHotEncode expands each named column into one '<column>_<value>'
// indicator column per distinct value and drops the original. Missing
// cells get 0 in every indicator.
func (r *Runner) OneHotEncode(src, out string, columns []string) (*Result, error) {
	const op = "one_hot_encode"

	t, err := r.load(op, src)
	if err != nil {
		return nil, err
	}
	defer t.Release()

	if err := requireColumns(op, t, columns); err != nil {
		return nil, err
	}

	result := t
	for _, name := range columns {
		s, _ := result.Column(name)
		values, valid := table.StringValues(s)
		distinct := sortedDistinct(values, valid)

		result = result.Drop(name)
		for _, category := range distinct {
			indicator := make([]int64, len(values))
			for i, v := range values {
				if valid[i] && v == category {
					indicator[i] = 1
				}
			}
			col := series.New(fmt.Sprintf("%s_%s", name, category), indicator, r.allocator())
			result = result.WithColumn(col)
		}
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
		Message:     fmt.Sprintf("One-hot encoded columns: %s", strings.Join(columns, ", ")),
	}, nil
}

// LabelEncode appends a '<column>_encoded' integer column assigning each
// distinct value its rank among the sorted distinct values. Sorting makes
// the code-to-category mapping reproducible across runs.
func (r *Runner) LabelEncode(src, out string, columns []string) (*Result, error) {
	const op = "label_encode"

	t, err := r.load(op, src)
	if err != nil {
		return nil, err
	}
	defer t.Release()

	if err := requireColumns(op, t, columns); err != nil {
		return nil, err
	}

	result := t
	for _, name := range columns {
		s, _ := result.Column(name)
		values, valid := table.StringValues(s)

		codes := make(map[string]int64, len(values))
		for i, category := range sortedDistinct(values, valid) {
			codes[category] = int64(i)
		}

		result = result.WithColumn(codeColumn(name+suffixEncoded, values, valid, codes, r.allocator()))
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
		Message:     fmt.Sprintf("Label encoded columns: %s", strings.Join(columns, ", ")),
	}, nil
}

// OrdinalEncode appends a '<column>_ordinal' integer column. When
// categories supplies an explicit order for a column, codes follow that
// order and a value outside it is an error; otherwise codes follow the
// sorted distinct values, same as label encoding.
func (r *Runner) OrdinalEncode(src, out string, columns []string, categories map[string][]string) (*Result, error) {
	const op = "ordinal_encode"

	t, err := r.load(op, src)
	if err != nil {
		return nil, err
	}
	defer t.Release()

	if err := requireColumns(op, t, columns); err != nil {
		return nil, err
	}

	result := t
	for _, name := range columns {
		s, _ := result.Column(name)
		values, valid := table.StringValues(s)

		order, explicit := categories[name]
		if !explicit {
			order = sortedDistinct(values, valid)
		}

		codes := make(map[string]int64, len(order))
		for i, category := range order {
			codes[category] = int64(i)
		}

		if explicit {
			for i, v := range values {
				if !valid[i] {
					continue
				}
				if _, known := codes[v]; !known {
					return nil, errors.NewInvalidArgumentError(op,
						fmt.Sprintf("category for column '%s'", name), v, order)
				}
			}
		}

		result = result.WithColumn(codeColumn(name+suffixOrdinal, values, valid, codes, r.allocator()))
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
		Message:     fmt.Sprintf("Ordinal encoded columns: %s", strings.Join(columns, ", ")),
	}, nil
}

// TargetEncode appends a '<column>_target_encoded' column replacing each
// category with the mean of target over all source rows sharing that
// category. The full-table mean is intentional; correcting the leakage it
// implies is the caller's concern.
func (r *Runner) TargetEncode(src, out, column, target string) (*Result, error) {
	const op = "target_encode"

	t, err := r.load(op, src)
	if err != nil {
		return nil, err
	}
	defer t.Release()

	if err := requireColumns(op, t, []string{column, target}); err != nil {
		return nil, err
	}
	if err := requireNumeric(op, t, []string{target}); err != nil {
		return nil, err
	}

	s, _ := t.Column(column)
	values, valid := table.StringValues(s)

	targetCol, _ := t.Column(target)
	targetValues, targetValid, _ := table.FloatValues(targetCol)

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for i, v := range values {
		if valid[i] && targetValid[i] {
			sums[v] += targetValues[i]
			counts[v]++
		}
	}

	encoded := make([]float64, len(values))
	outValid := make([]bool, len(values))
	for i, v := range values {
		if valid[i] && counts[v] > 0 {
			encoded[i] = sums[v] / float64(counts[v])
			outValid[i] = true
		}
	}

	col := series.NewWithNulls(column+suffixTargetEncoded, encoded, outValid, r.allocator())
	result := t.WithColumn(col)

	if err := r.persist(op, result, out); err != nil {
		return nil, err
	}

	return &Result{
		Op:          op,
		OutputPath:  out,
		Rows:        result.Len(),
		Columns:     result.Width(),
		ColumnNames: result.Columns(),
		Message:     fmt.Sprintf("Target encoded '%s' against '%s'", column, target),
	}, nil
}

// FrequencyEncode appends a '<column>_freq_encoded' integer column
// replacing each value with its occurrence count in the source table.
func (r *Runner) FrequencyEncode(src, out string, columns []string) (*Result, error) {
	const op = "frequency_encode"

	t, err := r.load(op, src)
	if err != nil {
		return nil, err
	}
	defer t.Release()

	if err := requireColumns(op, t, columns); err != nil {
		return nil, err
	}

	result := t
	for _, name := range columns {
		s, _ := result.Column(name)
		values, valid := table.StringValues(s)

		counts := make(map[string]int64, len(values))
		for i, v := range values {
			if valid[i] {
				counts[v]++
			}
		}

		result = result.WithColumn(codeColumn(name+suffixFreqEncoded, values, valid, counts, r.allocator()))
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
		Message:     fmt.Sprintf("Frequency encoded columns: %s", strings.Join(columns, ", ")),
	}, nil
}

// BinaryEncode replaces each named column with binary digit columns
// '<column>_0'.. holding the bits (most significant first) of a 1-based
// ordinal code over the sorted distinct values. Suited to
// high-cardinality categories where one-hot would explode the width.
func (r *Runner) BinaryEncode(src, out string, columns []string) (*Result, error) {
	const op = "binary_encode"

	t, err := r.load(op, src)
	if err != nil {
		return nil, err
	}
	defer t.Release()

	if err := requireColumns(op, t, columns); err != nil {
		return nil, err
	}

	result := t
	for _, name := range columns {
		s, _ := result.Column(name)
		values, valid := table.StringValues(s)
		distinct := sortedDistinct(values, valid)

		codes := make(map[string]int64, len(distinct))
		for i, category := range distinct {
			codes[category] = int64(i + 1)
		}

		digits := bitWidth(int64(len(distinct)))

		result = result.Drop(name)
		for d := 0; d < digits; d++ {
			shift := uint(digits - 1 - d)
			bit := make([]int64, len(values))
			for i, v := range values {
				if valid[i] {
					bit[i] = (codes[v] >> shift) & 1
				}
			}
			col := series.NewWithNulls(fmt.Sprintf("%s_%d", name, d), bit, valid, r.allocator())
			result = result.WithColumn(col)
		}
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
		Message:     fmt.Sprintf("Binary encoded columns: %s", strings.Join(columns, ", ")),
	}, nil
}

// HashEncode replaces each named column with components indicator columns
// '<column>_hash_0'.., bucketing values by xxhash. Collisions are
// accepted; the width stays fixed no matter the cardinality. A
// non-positive components falls back to the default of 8.
func (r *Runner) HashEncode(src, out string, columns []string, components int) (*Result, error) {
	const op = "hash_encode"

	t, err := r.load(op, src)
	if err != nil {
		return nil, err
	}
	defer t.Release()

	if err := requireColumns(op, t, columns); err != nil {
		return nil, err
	}

	if components <= 0 {
		components = defaultHashComponents
	}

	result := t
	for _, name := range columns {
		s, _ := result.Column(name)
		values, valid := table.StringValues(s)

		buckets := make([]int, len(values))
		for i, v := range values {
			if valid[i] {
				buckets[i] = int(xxhash.Sum64String(v) % uint64(components))
			}
		}

		result = result.Drop(name)
		for j := 0; j < components; j++ {
			indicator := make([]int64, len(values))
			for i := range values {
				if valid[i] && buckets[i] == j {
					indicator[i] = 1
				}
			}
			col := series.New(fmt.Sprintf("%s_hash_%d", name, j), indicator, r.allocator())
			result = result.WithColumn(col)
		}
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
		Message: fmt.Sprintf("Hash encoded columns into %d components: %s",
			components, strings.Join(columns, ", ")),
	}, nil
}

// sortedDistinct returns the distinct non-missing values in sorted order.
func sortedDistinct(values []string, valid []bool) []string {
	seen := make(map[string]bool, len(values))
	var distinct []string
	for i, v := range values {
		if valid[i] && !seen[v] {
			seen[v] = true
			distinct = append(distinct, v)
		}
	}
	sort.Strings(distinct)
	return distinct
}

// codeColumn builds an integer column mapping each value through codes,
// preserving nulls.
func codeColumn(name string, values []string, valid []bool, codes map[string]int64, mem memory.Allocator) table.ISeries {
	encoded := make([]int64, len(values))
	for i, v := range values {
		if valid[i] {
			encoded[i] = codes[v]
		}
	}
	return series.NewWithNulls(name, encoded, valid, mem)
}

// bitWidth returns the number of bits needed to represent n.
func bitWidth(n int64) int {
	width := 0
	for n > 0 {
		width++
		n >>= 1
	}
	if width == 0 {
		width = 1
	}
	return width
}
