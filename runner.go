// Package tablekit is a library of deterministic tabular transformation
// primitives designed to be driven by an external orchestrator, typically
// an LLM agent translating natural-language instructions into calls.
//
// Every primitive is file-path based: it loads its source file(s), performs
// a pure in-memory transformation, and persists the result to an explicit
// output path. No state survives a call; composition happens by chaining
// file paths. A failed primitive writes nothing.
//
// Basic usage:
//
//	runner := tablekit.NewRunner()
//	result, err := runner.SelectColumns("train.csv", "slim.csv",
//		[]string{"Name", "Age", "Sex"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(result.Render())
package tablekit

import (
	"fmt"
	"sort"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	"github.com/tablekit/tablekit/internal/config"
	"github.com/tablekit/tablekit/internal/errors"
	"github.com/tablekit/tablekit/internal/series"
	"github.com/tablekit/tablekit/internal/table"
	"github.com/tablekit/tablekit/internal/tableio"
)

// Runner executes tabular primitives. It carries no table state across
// calls; it only holds configuration, logging and the Arrow allocator.
// Construct it explicitly with NewRunner and pass it by reference.
type Runner struct {
	cfg config.Config
	log *zap.Logger
	mem memory.Allocator
}

// Option configures a Runner.
type Option func(*Runner)

// WithConfig sets the runner configuration.
func WithConfig(cfg config.Config) Option {
	return func(r *Runner) {
		r.cfg = cfg
	}
}

// WithLogger sets the structured logger. The default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Runner) {
		r.log = log
	}
}

// WithAllocator sets the Arrow memory allocator.
func WithAllocator(mem memory.Allocator) Option {
	return func(r *Runner) {
		r.mem = mem
	}
}

// NewRunner creates a Runner with the given options.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		cfg: config.NewConfig(),
		log: zap.NewNop(),
		mem: memory.NewGoAllocator(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// load reads the table at path, logging its shape.
func (r *Runner) load(op, path string) (*table.Table, error) {
	opts := tableio.DefaultOptions()
	opts.Delimiter = r.cfg.Delimiter()

	t, err := tableio.Load(op, path, opts, r.mem)
	if err != nil {
		r.log.Debug("load failed",
			zap.String("op", op), zap.String("path", path), zap.Error(err))
		return nil, err
	}

	r.log.Debug("loaded table",
		zap.String("op", op), zap.String("path", path),
		zap.Int("rows", t.Len()), zap.Int("columns", t.Width()))
	return t, nil
}

// persist writes the table to path. It is only called after the transform
// fully succeeded, so a failed primitive never leaves a partial output.
func (r *Runner) persist(op string, t *table.Table, path string) error {
	opts := tableio.DefaultOptions()
	opts.Delimiter = r.cfg.Delimiter()

	if err := tableio.Persist(op, t, path, opts); err != nil {
		return err
	}

	r.log.Info("persisted table",
		zap.String("op", op), zap.String("path", path),
		zap.Int("rows", t.Len()), zap.Int("columns", t.Width()))
	return nil
}

// requireColumns fails with a ColumnNotFound error enumerating every
// missing name plus the available set.
func requireColumns(op string, t *table.Table, names []string) error {
	if missing := t.MissingColumns(names); len(missing) > 0 {
		return errors.NewColumnNotFoundError(op, missing, t.Columns())
	}
	return nil
}

// requireNumeric fails with a TypeMismatch error listing every named
// column that is not numeric.
func requireNumeric(op string, t *table.Table, names []string) error {
	var bad []string
	for _, name := range names {
		s, _ := t.Column(name)
		if !table.IsNumeric(s) {
			bad = append(bad, name)
		}
	}
	if len(bad) > 0 {
		return errors.NewTypeMismatchError(op, bad)
	}
	return nil
}

// allocator returns the allocator new derived series are built with.
func (r *Runner) allocator() memory.Allocator {
	return r.mem
}

func isInt64(s table.ISeries) bool {
	return s.DataType().ID() == arrow.INT64
}

func isBool(s table.ISeries) bool {
	return s.DataType().ID() == arrow.BOOL
}

// sortedKeys returns the map keys in sorted order for deterministic
// iteration.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// numericColumns returns the names of all numeric columns in order.
func numericColumns(t *table.Table) []string {
	var names []string
	for _, name := range t.Columns() {
		s, _ := t.Column(name)
		if table.IsNumeric(s) {
			names = append(names, name)
		}
	}
	return names
}

// seriesFromArray wraps an Arrow array produced by the expression
// evaluator into a named series.
func seriesFromArray(op, name string, arr arrow.Array, mem memory.Allocator) (table.ISeries, error) {
	switch typed := arr.(type) {
	case *array.String:
		values := make([]string, typed.Len())
		valid := make([]bool, typed.Len())
		for i := 0; i < typed.Len(); i++ {
			if !typed.IsNull(i) {
				values[i] = typed.Value(i)
				valid[i] = true
			}
		}
		return series.NewWithNulls(name, values, valid, mem), nil
	case *array.Int64:
		values := make([]int64, typed.Len())
		valid := make([]bool, typed.Len())
		for i := 0; i < typed.Len(); i++ {
			if !typed.IsNull(i) {
				values[i] = typed.Value(i)
				valid[i] = true
			}
		}
		return series.NewWithNulls(name, values, valid, mem), nil
	case *array.Float64:
		values := make([]float64, typed.Len())
		valid := make([]bool, typed.Len())
		for i := 0; i < typed.Len(); i++ {
			if !typed.IsNull(i) {
				values[i] = typed.Value(i)
				valid[i] = true
			}
		}
		return series.NewWithNulls(name, values, valid, mem), nil
	case *array.Boolean:
		values := make([]bool, typed.Len())
		valid := make([]bool, typed.Len())
		for i := 0; i < typed.Len(); i++ {
			if !typed.IsNull(i) {
				values[i] = typed.Value(i)
				valid[i] = true
			}
		}
		return series.NewWithNulls(name, values, valid, mem), nil
	default:
		return nil, errors.NewInternalError(op,
			fmt.Errorf("unsupported expression result type %s", arr.DataType()))
	}
}
