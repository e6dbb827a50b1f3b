package tableio

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/xuri/excelize/v2"

	"github.com/tablekit/tablekit/internal/errors"
	"github.com/tablekit/tablekit/internal/table"
)

// loadExcel reads the first sheet of a workbook, header row mandatory.
func loadExcel(op, path string, mem memory.Allocator) (*table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewParseError(op, path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.NewParseError(op, path, err)
	}

	if len(rows) == 0 {
		return table.New(), nil
	}

	headers := rows[0]
	dataRows := rows[1:]

	// GetRows trims trailing empty cells; square the rows off.
	for i, row := range dataRows {
		for len(row) < len(headers) {
			row = append(row, "")
		}
		dataRows[i] = row
	}

	return buildTable(headers, dataRows, mem), nil
}

// persistExcel writes the table as the single sheet of a new workbook.
func persistExcel(op string, t *table.Table, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	header := make([]interface{}, 0, t.Width())
	for _, name := range t.Columns() {
		header = append(header, name)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.NewInternalError(op, err)
	}

	names := t.Columns()
	for i := 0; i < t.Len(); i++ {
		row := make([]interface{}, len(names))
		for j, name := range names {
			col, _ := t.Column(name)
			if text, valid := table.RenderCell(col, i); valid {
				row[j] = text
			}
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.NewInternalError(op, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.NewInternalError(op, err)
	}
	return nil
}
