package tableio

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/tablekit/tablekit/internal/errors"
	"github.com/tablekit/tablekit/internal/series"
	"github.com/tablekit/tablekit/internal/table"
)

const (
	trueStr  = "true"
	falseStr = "false"
)

func loadCSV(op, path string, opts Options, mem memory.Allocator) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewNotFoundError(op, path)
	}
	defer f.Close()

	csvReader := csv.NewReader(f)
	csvReader.Comma = opts.Delimiter

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, errors.NewParseError(op, path, err)
	}

	if len(records) == 0 {
		return table.New(), nil
	}

	var headers []string
	var dataRows [][]string
	if opts.Header {
		headers = records[0]
		dataRows = records[1:]
	} else {
		headers = make([]string, len(records[0]))
		for i := range headers {
			headers[i] = "column_" + strconv.Itoa(i)
		}
		dataRows = records
	}

	return buildTable(headers, dataRows, mem), nil
}

func persistCSV(op string, t *table.Table, path string, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.NewInternalError(op, err)
	}
	defer f.Close()

	csvWriter := csv.NewWriter(f)
	csvWriter.Comma = opts.Delimiter
	defer csvWriter.Flush()

	if opts.Header {
		if err := csvWriter.Write(t.Columns()); err != nil {
			return errors.NewInternalError(op, err)
		}
	}

	names := t.Columns()
	for i := 0; i < t.Len(); i++ {
		row := make([]string, len(names))
		for j, name := range names {
			col, _ := t.Column(name)
			if text, valid := table.RenderCell(col, i); valid {
				row[j] = text
			}
		}
		if err := csvWriter.Write(row); err != nil {
			return errors.NewInternalError(op, err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// buildTable transposes string records into typed columns, inferring the
// narrowest type that fits every non-missing cell.
func buildTable(headers []string, dataRows [][]string, mem memory.Allocator) *table.Table {
	numCols := len(headers)
	columns := make([][]string, numCols)
	for i := 0; i < numCols; i++ {
		columns[i] = make([]string, len(dataRows))
		for j, row := range dataRows {
			if i < len(row) {
				columns[i][j] = row[i]
			}
		}
	}

	cols := make([]table.ISeries, 0, numCols)
	for i, header := range headers {
		cols = append(cols, buildColumn(header, columns[i], mem))
	}
	return table.New(cols...)
}

func buildColumn(name string, data []string, mem memory.Allocator) table.ISeries {
	valid := make([]bool, len(data))
	for i, value := range data {
		valid[i] = !missingMarkers[value]
	}

	switch inferDataType(data, valid) {
	case "bool":
		values := make([]bool, len(data))
		for i, value := range data {
			if valid[i] {
				values[i] = strings.EqualFold(value, trueStr)
			}
		}
		return series.NewWithNulls(name, values, valid, mem)
	case "int":
		values := make([]int64, len(data))
		for i, value := range data {
			if valid[i] {
				values[i], _ = strconv.ParseInt(value, 10, 64)
			}
		}
		return series.NewWithNulls(name, values, valid, mem)
	case "float":
		values := make([]float64, len(data))
		for i, value := range data {
			if valid[i] {
				values[i], _ = strconv.ParseFloat(value, 64)
			}
		}
		return series.NewWithNulls(name, values, valid, mem)
	default:
		// Missing markers become nulls in text columns too; they
		// serialize back to empty cells.
		return series.NewWithNulls(name, data, valid, mem)
	}
}

// inferDataType determines the most specific type for the column,
// skipping missing cells.
func inferDataType(data []string, valid []bool) string {
	canBeInt := true
	canBeFloat := true
	canBeBool := true
	hasValue := false

	for i, value := range data {
		if !valid[i] {
			continue
		}
		hasValue = true

		if canBeBool {
			lower := strings.ToLower(value)
			if lower != trueStr && lower != falseStr {
				canBeBool = false
			}
		}
		if canBeInt {
			if _, err := strconv.ParseInt(value, 10, 64); err != nil {
				canBeInt = false
			}
		}
		if canBeFloat {
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				canBeFloat = false
			}
		}
	}

	if !hasValue {
		return "string"
	}
	if canBeBool {
		return "bool"
	}
	if canBeInt {
		return "int"
	}
	if canBeFloat {
		return "float"
	}
	return "string"
}
