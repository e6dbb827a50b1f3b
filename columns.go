package tablekit

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/tablekit/tablekit/internal/errors"
	"github.com/tablekit/tablekit/internal/expr"
)

// SelectColumns projects src to the given columns, in the order given,
// and writes the result to out. Every requested column must exist.
func (r *Runner) SelectColumns(src, out string, columns []string) (*Result, error) {
	const op = "select_columns"

	t, err := r.load(op, src)
	if err != nil {
		return nil, err
	}
	defer t.Release()

	if err := requireColumns(op, t, columns); err != nil {
		return nil, err
	}

	selected := t.Select(columns...)
	if err := r.persist(op, selected, out); err != nil {
		return nil, err
	}

	return &Result{
		Op:          op,
		OutputPath:  out,
		Rows:        selected.Len(),
		Columns:     selected.Width(),
		ColumnNames: selected.Columns(),
		Message:     fmt.Sprintf("Selected %d columns from %s", len(columns), src),
	}, nil
}

// DropColumns removes the given columns from src and writes the rest to
// out.
func (r *Runner) DropColumns(src, out string, columns []string) (*Result, error) {
	const op = "drop_columns"

	t, err := r.load(op, src)
	if err != nil {
		return nil, err
	}
	defer t.Release()

	if err := requireColumns(op, t, columns); err != nil {
		return nil, err
	}

	dropped := t.Drop(columns...)
	if err := r.persist(op, dropped, out); err != nil {
		return nil, err
	}

	return &Result{
		Op:          op,
		OutputPath:  out,
		Rows:        dropped.Len(),
		Columns:     dropped.Width(),
		ColumnNames: dropped.Columns(),
		Message:     fmt.Sprintf("Dropped %d columns from %s", len(columns), src),
	}, nil
}

// RenameColumns renames columns per mapping (old name to new name) and
// writes the result to out. Every old name must exist.
func (r *Runner) RenameColumns(src, out string, mapping map[string]string) (*Result, error) {
	const op = "rename_columns"

	t, err := r.load(op, src)
	if err != nil {
		return nil, err
	}
	defer t.Release()

	if err := requireColumns(op, t, sortedKeys(mapping)); err != nil {
		return nil, err
	}

	// renamed shares unrenamed series with t; only t is released.
	renamed := t.Rename(mapping)

	if err := r.persist(op, renamed, out); err != nil {
		return nil, err
	}

	return &Result{
		Op:          op,
		OutputPath:  out,
		Rows:        renamed.Len(),
		Columns:     renamed.Width(),
		ColumnNames: renamed.Columns(),
		Message:     fmt.Sprintf("Renamed %d columns in %s", len(mapping), src),
	}, nil
}

// CreateColumn evaluates expression row-wise against the columns of src
// and appends the result as a new column named name.
//
// The expression grammar is deliberately small: arithmetic operators,
// unary minus, parentheses, numeric and quoted string literals, bare
// column identifiers, and a fixed numeric function set. Identifiers bind
// only to the table's own columns; the expression cannot reach anything
// else. '+' concatenates when both sides are text.
func (r *Runner) CreateColumn(src, out, name, expression string) (*Result, error) {
	const op = "create_column"

	t, err := r.load(op, src)
	if err != nil {
		return nil, err
	}
	defer t.Release()

	parsed, err := expr.Parse(expression)
	if err != nil {
		return nil, errors.NewExpressionError(op, expression, err)
	}

	columns := make(map[string]arrow.Array, t.Width())
	for _, colName := range t.Columns() {
		s, _ := t.Column(colName)
		arr := s.Array()
		defer arr.Release()
		columns[colName] = arr
	}

	evaluator := expr.NewEvaluator(r.mem)
	resultArr, err := evaluator.Evaluate(parsed, columns, t.Len())
	if err != nil {
		return nil, errors.NewExpressionError(op, expression, err)
	}
	defer resultArr.Release()

	newCol, err := seriesFromArray(op, name, resultArr, r.mem)
	if err != nil {
		return nil, err
	}

	extended := t.WithColumn(newCol)
	if err := r.persist(op, extended, out); err != nil {
		return nil, err
	}

	return &Result{
		Op:          op,
		OutputPath:  out,
		Rows:        extended.Len(),
		Columns:     extended.Width(),
		ColumnNames: extended.Columns(),
		Message: fmt.Sprintf("Created column '%s' = %s in %s",
			name, strings.TrimSpace(expression), src),
	}, nil
}
