package tablekit

import (
	"fmt"
	"strconv"

	"github.com/tablekit/tablekit/internal/errors"
	"github.com/tablekit/tablekit/internal/table"
)

// Overlapping non-key columns in a join carry a file-provenance suffix.
const (
	leftJoinSuffix  = "_file1"
	rightJoinSuffix = "_file2"
)

// CombineFiles combines two or more files into out. Axis "vertical"
// stacks rows aligned by column name: with keepOnlyCommon only columns
// present in every file survive (order from the first file, per-file
// drops reported), otherwise the column union is kept and missing cells
// become nulls. Axis "horizontal" concatenates columns positionally,
// null-padding shorter files.
func (r *Runner) CombineFiles(files []string, out, axis string, keepOnlyCommon bool) (*Result, error) {
	const op = "combine_files"

	if len(files) < 2 {
		return nil, errors.NewInvalidArgumentError(op, "files",
			strconv.Itoa(len(files))+" paths", []string{"2 or more paths"})
	}
	if axis != "vertical" && axis != "horizontal" {
		return nil, errors.NewInvalidArgumentError(op, "axis", axis,
			[]string{"vertical", "horizontal"})
	}

	tables := make([]*table.Table, 0, len(files))
	defer func() {
		for _, t := range tables {
			t.Release()
		}
	}()
	for _, path := range files {
		t, err := r.load(op, path)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}

	var combined *table.Table
	var report *table.CombineReport
	var err error
	if axis == "vertical" {
		combined, report, err = table.CombineVertical(op, tables, keepOnlyCommon)
	} else {
		combined, report, err = table.CombineHorizontal(op, tables)
	}
	if err != nil {
		return nil, err
	}
	defer combined.Release()

	if err := r.persist(op, combined, out); err != nil {
		return nil, err
	}

	dropped := make(map[string][]string, len(report.DroppedColumns))
	for idx, cols := range report.DroppedColumns {
		dropped[files[idx]] = cols
	}

	return &Result{
		Op:             op,
		OutputPath:     out,
		Rows:           combined.Len(),
		Columns:        combined.Width(),
		ColumnNames:    combined.Columns(),
		DroppedColumns: dropped,
		FilledColumns:  report.FilledColumns,
		PaddedRows:     report.PaddedRows,
		Message: fmt.Sprintf("Combined %d files %sly into %s",
			len(files), axis, out),
	}, nil
}

// JoinFiles joins file1 and file2 on equality of joinColumn and writes
// the result to out. Join types: inner, left, right, outer. Duplicate
// keys fan out; non-key columns present in both files get the _file1 and
// _file2 suffixes.
func (r *Runner) JoinFiles(file1, file2, out, joinColumn, joinType string) (*Result, error) {
	const op = "join_files"

	var jt table.JoinType
	switch joinType {
	case "inner":
		jt = table.InnerJoin
	case "left":
		jt = table.LeftJoin
	case "right":
		jt = table.RightJoin
	case "outer":
		jt = table.FullOuterJoin
	default:
		return nil, errors.NewInvalidArgumentError(op, "join type", joinType,
			[]string{"inner", "left", "right", "outer"})
	}

	left, err := r.load(op, file1)
	if err != nil {
		return nil, err
	}
	defer left.Release()

	right, err := r.load(op, file2)
	if err != nil {
		return nil, err
	}
	defer right.Release()

	joined, err := table.Join(op, left, right, table.JoinOptions{
		On:          joinColumn,
		Type:        jt,
		LeftSuffix:  leftJoinSuffix,
		RightSuffix: rightJoinSuffix,
	})
	if err != nil {
		return nil, err
	}
	defer joined.Release()

	if err := r.persist(op, joined, out); err != nil {
		return nil, err
	}

	return &Result{
		Op:          op,
		OutputPath:  out,
		Rows:        joined.Len(),
		Columns:     joined.Width(),
		ColumnNames: joined.Columns(),
		Message: fmt.Sprintf("Joined %s and %s on '%s' (%s join)",
			file1, file2, joinColumn, joinType),
	}, nil
}
