package tablekit

import (
	"fmt"
	"strings"
)

// Result is the structured outcome every primitive returns on success.
// Render turns it into the human-readable convention; callers that need
// machine-readable detail use the fields directly.
type Result struct {
	// Op is the primitive name, e.g. "select_columns".
	Op string
	// OutputPath is where the transformed table was written; empty for
	// read-only inspection primitives.
	OutputPath string
	// Rows and Columns describe the resulting table.
	Rows    int
	Columns int
	// ColumnNames lists the resulting column names in order.
	ColumnNames []string
	// RemovedRows is the number of rows dropped by filtering or outlier
	// handling.
	RemovedRows int
	// DroppedColumns maps an input path to the columns dropped from it
	// under the common-columns combination policy.
	DroppedColumns map[string][]string
	// FilledColumns lists columns null-filled under the union combination
	// policy.
	FilledColumns []string
	// PaddedRows is the number of null rows added during horizontal
	// combination of unequal-length inputs.
	PaddedRows int
	// Cells holds rendered rows for inspection primitives (preview, info,
	// describe, search); missing cells render as empty strings.
	Cells [][]string
	// Message is a one-line summary of what happened.
	Message string
}

// Render formats the result for human consumption: the summary line,
// shape and output path, any combination bookkeeping, and an aligned grid
// for inspection primitives.
func (r *Result) Render() string {
	var sb strings.Builder

	sb.WriteString(r.Message)
	sb.WriteString("\n")

	if r.OutputPath != "" {
		sb.WriteString(fmt.Sprintf("Output: %s (%d rows, %d columns)\n",
			r.OutputPath, r.Rows, r.Columns))
	}

	if r.RemovedRows > 0 {
		sb.WriteString(fmt.Sprintf("Removed rows: %d\n", r.RemovedRows))
	}

	for _, path := range sortedKeys(r.DroppedColumns) {
		sb.WriteString(fmt.Sprintf("Dropped from %s: %s\n",
			path, strings.Join(r.DroppedColumns[path], ", ")))
	}

	if len(r.FilledColumns) > 0 {
		sb.WriteString(fmt.Sprintf("Null-filled columns: %s\n",
			strings.Join(r.FilledColumns, ", ")))
	}

	if r.PaddedRows > 0 {
		sb.WriteString(fmt.Sprintf("Padded rows: %d\n", r.PaddedRows))
	}

	if len(r.Cells) > 0 {
		sb.WriteString(renderGrid(r.ColumnNames, r.Cells))
	}

	return sb.String()
}

// renderGrid renders header + rows as a left-aligned text table.
func renderGrid(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		for i, w := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			if i > 0 {
				sb.WriteString("  ")
			}
			sb.WriteString(cell)
			sb.WriteString(strings.Repeat(" ", w-len(cell)))
		}
		sb.WriteString("\n")
	}

	writeRow(header)
	for _, row := range rows {
		writeRow(row)
	}
	return sb.String()
}
