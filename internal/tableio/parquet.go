package tableio

import (
	"context"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/tablekit/tablekit/internal/errors"
	"github.com/tablekit/tablekit/internal/series"
	"github.com/tablekit/tablekit/internal/table"
)

// loadParquet reads a whole parquet file into a table. Narrow integer and
// float types widen to int64/float64; anything else is read as text.
func loadParquet(op, path string, mem memory.Allocator) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewNotFoundError(op, path)
	}
	defer f.Close()

	pqReader, err := file.NewParquetReader(f)
	if err != nil {
		return nil, errors.NewParseError(op, path, err)
	}

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, errors.NewParseError(op, path, err)
	}

	arrowTable, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, errors.NewParseError(op, path, err)
	}
	defer arrowTable.Release()

	schema := arrowTable.Schema()
	cols := make([]table.ISeries, 0, int(arrowTable.NumCols()))
	for i := 0; i < int(arrowTable.NumCols()); i++ {
		s, convErr := chunkedToSeries(schema.Field(i).Name, arrowTable.Column(i).Data(), mem)
		if convErr != nil {
			return nil, errors.NewParseError(op, path, convErr)
		}
		cols = append(cols, s)
	}

	return table.New(cols...), nil
}

// persistParquet writes the table with snappy compression.
func persistParquet(op string, t *table.Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.NewInternalError(op, err)
	}
	defer f.Close()

	mem := memory.NewGoAllocator()

	fields := make([]arrow.Field, 0, t.Width())
	columns := make([]arrow.Column, 0, t.Width())
	for _, name := range t.Columns() {
		col, _ := t.Column(name)
		arr := col.Array()

		fld := arrow.Field{Name: name, Type: arr.DataType(), Nullable: true}
		fields = append(fields, fld)

		chunked := arrow.NewChunked(arr.DataType(), []arrow.Array{arr})
		columns = append(columns, *arrow.NewColumn(fld, chunked))
		arr.Release()
	}

	schema := arrow.NewSchema(fields, nil)
	arrowTable := array.NewTable(schema, columns, int64(t.Len()))
	defer arrowTable.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(mem))

	writer, err := pqarrow.NewFileWriter(schema, f, props, arrowProps)
	if err != nil {
		return errors.NewInternalError(op, err)
	}

	if err := writer.WriteTable(arrowTable, int64(t.Len())); err != nil {
		_ = writer.Close()
		return errors.NewInternalError(op, err)
	}
	return writer.Close()
}

// chunkedToSeries flattens a chunked column into one of the four
// supported series types.
func chunkedToSeries(name string, chunked *arrow.Chunked, mem memory.Allocator) (table.ISeries, error) {
	switch chunked.DataType().ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64:
		var values []int64
		var valid []bool
		for _, chunk := range chunked.Chunks() {
			for i := 0; i < chunk.Len(); i++ {
				values = append(values, intAt(chunk, i))
				valid = append(valid, !chunk.IsNull(i))
			}
		}
		return series.NewWithNulls(name, values, valid, mem), nil
	case arrow.FLOAT32, arrow.FLOAT64:
		var values []float64
		var valid []bool
		for _, chunk := range chunked.Chunks() {
			for i := 0; i < chunk.Len(); i++ {
				values = append(values, floatAt(chunk, i))
				valid = append(valid, !chunk.IsNull(i))
			}
		}
		return series.NewWithNulls(name, values, valid, mem), nil
	case arrow.BOOL:
		var values []bool
		var valid []bool
		for _, chunk := range chunked.Chunks() {
			typed := chunk.(*array.Boolean)
			for i := 0; i < typed.Len(); i++ {
				values = append(values, !typed.IsNull(i) && typed.Value(i))
				valid = append(valid, !typed.IsNull(i))
			}
		}
		return series.NewWithNulls(name, values, valid, mem), nil
	case arrow.STRING:
		var values []string
		var valid []bool
		for _, chunk := range chunked.Chunks() {
			typed := chunk.(*array.String)
			for i := 0; i < typed.Len(); i++ {
				if typed.IsNull(i) {
					values = append(values, "")
					valid = append(valid, false)
				} else {
					values = append(values, typed.Value(i))
					valid = append(valid, true)
				}
			}
		}
		return series.NewWithNulls(name, values, valid, mem), nil
	default:
		return nil, fmt.Errorf("unsupported parquet column type %s for column %s", chunked.DataType(), name)
	}
}

func intAt(arr arrow.Array, i int) int64 {
	if arr.IsNull(i) {
		return 0
	}
	switch typed := arr.(type) {
	case *array.Int8:
		return int64(typed.Value(i))
	case *array.Int16:
		return int64(typed.Value(i))
	case *array.Int32:
		return int64(typed.Value(i))
	case *array.Int64:
		return typed.Value(i)
	default:
		return 0
	}
}

func floatAt(arr arrow.Array, i int) float64 {
	if arr.IsNull(i) {
		return 0
	}
	switch typed := arr.(type) {
	case *array.Float32:
		return float64(typed.Value(i))
	case *array.Float64:
		return typed.Value(i)
	default:
		return 0
	}
}
