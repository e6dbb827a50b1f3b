// Package tableio provides format-dispatching load and persist for tables.
//
// The trailing path extension selects the codec: .csv (delimited text,
// UTF-8), .xlsx/.xls (first-sheet spreadsheet), .parquet. Unknown
// extensions are treated as CSV. Persist overwrites the destination
// unconditionally and does not create parent directories; no atomic
// temp-file-then-rename behavior is guaranteed.
package tableio

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/tablekit/tablekit/internal/errors"
	"github.com/tablekit/tablekit/internal/table"
)

// Format identifies an on-disk table encoding.
type Format int

const (
	FormatCSV Format = iota
	FormatExcel
	FormatParquet
)

// missingMarkers are the cell renderings treated as missing on read.
var missingMarkers = map[string]bool{
	"":     true,
	"NA":   true,
	"NaN":  true,
	"nan":  true,
	"null": true,
	"NULL": true,
}

// DetectFormat returns the codec for a path based on its extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		return FormatExcel
	case ".parquet":
		return FormatParquet
	default:
		return FormatCSV
	}
}

// Options carries the configurable dialect knobs shared by the codecs.
type Options struct {
	// Delimiter is the CSV field delimiter (default comma).
	Delimiter rune
	// Header indicates whether the first row contains column names.
	// The primitive library always requires headers; this exists for the
	// codec layer's own tests.
	Header bool
}

// DefaultOptions returns the default dialect.
func DefaultOptions() Options {
	return Options{
		Delimiter: ',',
		Header:    true,
	}
}

// Load reads the table at path, dispatching on the extension. The op name
// is carried into any structured error.
func Load(op, path string, opts Options, mem memory.Allocator) (*table.Table, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.NewNotFoundError(op, path)
	}

	switch DetectFormat(path) {
	case FormatExcel:
		return loadExcel(op, path, mem)
	case FormatParquet:
		return loadParquet(op, path, mem)
	default:
		return loadCSV(op, path, opts, mem)
	}
}

// Persist writes the table to path, dispatching on the extension.
func Persist(op string, t *table.Table, path string, opts Options) error {
	switch DetectFormat(path) {
	case FormatExcel:
		return persistExcel(op, t, path)
	case FormatParquet:
		return persistParquet(op, t, path)
	default:
		return persistCSV(op, t, path, opts)
	}
}
