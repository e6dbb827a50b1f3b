// Command tablekit exposes the tabular transformation primitives as a
// non-interactive CLI. One subcommand per primitive; every invocation is
// a single load-transform-persist call.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tablekit/tablekit"
	"github.com/tablekit/tablekit/internal/config"
	"github.com/tablekit/tablekit/internal/version"
)

var (
	flagConfig  string
	flagVerbose bool
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tablekit",
		Short:         "Tabular data transformation primitives",
		Long:          "tablekit applies deterministic transformations to CSV, Excel and Parquet files: column selection, derived columns, scaling, encoding, filtering, imputation, outlier handling, combination and joins.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (YAML or JSON)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose logging")

	root.AddCommand(
		newVersionCmd(),
		newCatalogCmd(),
		newColumnsCmd(),
		newPreviewCmd(),
		newInfoCmd(),
		newDescribeCmd(),
		newSearchCmd(),
		newAppendCmd(),
		newSelectCmd(),
		newDropCmd(),
		newRenameCmd(),
		newCreateCmd(),
		newNormalizeCmd(),
		newScaleCmd(),
		newEncodeCmd(),
		newFilterCmd(),
		newImputeCmd(),
		newOutliersCmd(),
		newCombineCmd(),
		newJoinCmd(),
	)
	return root
}

// newRunner builds a Runner from the config file, environment overrides
// and flags.
func newRunner() (*tablekit.Runner, error) {
	cfg := config.NewConfig()
	if flagConfig != "" {
		loaded, err := config.LoadFromFile(flagConfig)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg = cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := zap.NewNop()
	if flagVerbose {
		dev, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		log = dev
	}

	return tablekit.NewRunner(
		tablekit.WithConfig(cfg),
		tablekit.WithLogger(log),
	), nil
}

// run executes fn with a fresh Runner and prints the rendered result.
func run(fn func(*tablekit.Runner) (*tablekit.Result, error)) error {
	runner, err := newRunner()
	if err != nil {
		return err
	}
	result, err := fn(runner)
	if err != nil {
		return err
	}
	fmt.Print(result.Render())
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Print(version.Info().String())
		},
	}
}

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List every primitive and its parameters",
		Run: func(_ *cobra.Command, _ []string) {
			for _, tool := range tablekit.Catalog() {
				fmt.Printf("%s\n  %s\n", tool.Name, tool.Description)
				for _, p := range tool.Params {
					required := "optional"
					if p.Required {
						required = "required"
					}
					fmt.Printf("    %s (%s, %s): %s\n", p.Name, p.Type, required, p.Description)
				}
			}
		},
	}
}

func newColumnsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "columns <file>",
		Short: "List column names",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return run(func(r *tablekit.Runner) (*tablekit.Result, error) {
				return r.ColumnNames(args[0])
			})
		},
	}
}

func newPreviewCmd() *cobra.Command {
	var rows int
	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Show the first rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return run(func(r *tablekit.Runner) (*tablekit.Result, error) {
				return r.Preview(args[0], rows)
			})
		},
	}
	cmd.Flags().IntVarP(&rows, "rows", "n", 0, "number of rows")
	return cmd
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Per-column dtype and missing counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return run(func(r *tablekit.Runner) (*tablekit.Result, error) {
				return r.Info(args[0])
			})
		},
	}
}

func newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <file>",
		Short: "Summary statistics for numeric columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return run(func(r *tablekit.Runner) (*tablekit.Result, error) {
				return r.Describe(args[0])
			})
		},
	}
}

func newSearchCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <file> <column> <value>",
		Short: "Find rows where a column contains a value",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			return run(func(r *tablekit.Runner) (*tablekit.Result, error) {
				return r.SearchRows(args[0], args[1], args[2], limit)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "match limit")
	return cmd
}

func newAppendCmd() *cobra.Command {
	var values map[string]string
	cmd := &cobra.Command{
		Use:   "append <file>",
		Short: "Append one row, matching values by column name",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return run(func(r *tablekit.Runner) (*tablekit.Result, error) {
				return r.AppendRow(args[0], values)
			})
		},
	}
	cmd.Flags().StringToStringVar(&values, "values", nil, "column=value cells")
	_ = cmd.MarkFlagRequired("values")
	return cmd
}

func newSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <src> <out> <column>...",
		Short: "Project to the given columns",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			return run(func(r *tablekit.Runner) (*tablekit.Result, error) {
				return r.SelectColumns(args[0], args[1], args[2:])
			})
		},
	}
}

func newDropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop <src> <out> <column>...",
		Short: "Remove the given columns",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			return run(func(r *tablekit.Runner) (*tablekit.Result, error) {
				return r.DropColumns(args[0], args[1], args[2:])
			})
		},
	}
}

func newRenameCmd() *cobra.Command {
	var mapping map[string]string
	cmd := &cobra.Command{
		Use:   "rename <src> <out>",
		Short: "Rename columns",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return run(func(r *tablekit.Runner) (*tablekit.Result, error) {
				return r.RenameColumns(args[0], args[1], mapping)
			})
		},
	}
	cmd.Flags().StringToStringVarP(&mapping, "map", "m", nil, "old=new column renames")
	_ = cmd.MarkFlagRequired("map")
	return cmd
}

func newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <src> <out> <name> <expression>",
		Short: "Append a computed column",
		Args:  cobra.ExactArgs(4),
		RunE: func(_ *cobra.Command, args []string) error {
			return run(func(r *tablekit.Runner) (*tablekit.Result, error) {
				return r.CreateColumn(args[0], args[1], args[2], args[3])
			})
		},
	}
}

func newNormalizeCmd() *cobra.Command {
	var method string
	cmd := &cobra.Command{
		Use:   "normalize <src> <out> <column>",
		Short: "Append a normalized column",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			return run(func(r *tablekit.Runner) (*tablekit.Result, error) {
				return r.NormalizeColumn(args[0], args[1], args[2], method)
			})
		},
	}
	cmd.Flags().StringVar(&method, "method", "min_max", "min_max | z_score")
	return cmd
}

func newScaleCmd() *cobra.Command {
	var method string
	var lo, hi float64
	cmd := &cobra.Command{
		Use:   "scale <src> <out> <column>...",
		Short: "Append scaled columns",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			return run(func(r *tablekit.Runner) (*tablekit.Result, error) {
				src, out, columns := args[0], args[1], args[2:]
				switch method {
				case "standard":
					return r.StandardScale(src, out, columns)
				case "minmax":
					return r.MinMaxScale(src, out, columns, lo, hi)
				case "robust":
					return r.RobustScale(src, out, columns)
				default:
					return nil, fmt.Errorf("unknown scale method %q (use: standard, minmax, robust)", method)
				}
			})
		},
	}
	cmd.Flags().StringVar(&method, "method", "standard", "standard | minmax | robust")
	cmd.Flags().Float64Var(&lo, "lo", 0, "minmax range lower bound")
	cmd.Flags().Float64Var(&hi, "hi", 1, "minmax range upper bound")
	return cmd
}

func newEncodeCmd() *cobra.Command {
	var method, target string
	var components int
	cmd := &cobra.Command{
		Use:   "encode <src> <out> <column>...",
		Short: "Encode categorical columns",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			return run(func(r *tablekit.Runner) (*tablekit.Result, error) {
				src, out, columns := args[0], args[1], args[2:]
				switch method {
				case "onehot":
					return r.OneHotEncode(src, out, columns)
				case "label":
					return r.LabelEncode(src, out, columns)
				case "ordinal":
					return r.OrdinalEncode(src, out, columns, nil)
				case "target":
					if len(columns) != 1 {
						return nil, fmt.Errorf("target encoding takes exactly one column")
					}
					return r.TargetEncode(src, out, columns[0], target)
				case "frequency":
					return r.FrequencyEncode(src, out, columns)
				case "binary":
					return r.BinaryEncode(src, out, columns)
				case "hash":
					return r.HashEncode(src, out, columns, components)
				default:
					return nil, fmt.Errorf("unknown encode method %q (use: onehot, label, ordinal, target, frequency, binary, hash)", method)
				}
			})
		},
	}
	cmd.Flags().StringVar(&method, "method", "label", "onehot | label | ordinal | target | frequency | binary | hash")
	cmd.Flags().StringVar(&target, "target", "", "numeric target column for target encoding")
	cmd.Flags().IntVar(&components, "components", 0, "bucket count for hash encoding")
	return cmd
}

func newFilterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "filter <src> <out> <column> <condition> <value>",
		Short: "Keep rows satisfying a condition",
		Args:  cobra.ExactArgs(5),
		RunE: func(_ *cobra.Command, args []string) error {
			return run(func(r *tablekit.Runner) (*tablekit.Result, error) {
				return r.FilterRows(args[0], args[1], args[2], args[3], args[4])
			})
		},
	}
}

func newImputeCmd() *cobra.Command {
	var strategy string
	var fillValue float64
	var columns []string
	cmd := &cobra.Command{
		Use:   "impute <src> <out>",
		Short: "Fill missing cells in numeric columns",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return run(func(r *tablekit.Runner) (*tablekit.Result, error) {
				return r.ImputeMissing(args[0], args[1], columns, strategy, fillValue)
			})
		},
	}
	cmd.Flags().StringVar(&strategy, "strategy", "mean", "mean | median | most_frequent | constant")
	cmd.Flags().Float64Var(&fillValue, "fill", 0, "fill value for the constant strategy")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "columns to impute (default all numeric)")
	return cmd
}

func newOutliersCmd() *cobra.Command {
	var method string
	cmd := &cobra.Command{
		Use:   "outliers <src> <out> <column>...",
		Short: "Drop outlier rows",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			return run(func(r *tablekit.Runner) (*tablekit.Result, error) {
				return r.HandleOutliers(args[0], args[1], args[2:], method)
			})
		},
	}
	cmd.Flags().StringVar(&method, "method", "iqr", "iqr | zscore")
	return cmd
}

func newCombineCmd() *cobra.Command {
	var axis string
	var keepOnlyCommon bool
	cmd := &cobra.Command{
		Use:   "combine <out> <file1> <file2>...",
		Short: "Combine two or more files",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			return run(func(r *tablekit.Runner) (*tablekit.Result, error) {
				return r.CombineFiles(args[1:], args[0], axis, keepOnlyCommon)
			})
		},
	}
	cmd.Flags().StringVar(&axis, "axis", "vertical", "vertical | horizontal")
	cmd.Flags().BoolVar(&keepOnlyCommon, "common", false, "keep only columns common to every file")
	return cmd
}

func newJoinCmd() *cobra.Command {
	var joinType string
	cmd := &cobra.Command{
		Use:   "join <file1> <file2> <out> <column>",
		Short: "Join two files on a key column",
		Args:  cobra.ExactArgs(4),
		RunE: func(_ *cobra.Command, args []string) error {
			return run(func(r *tablekit.Runner) (*tablekit.Result, error) {
				return r.JoinFiles(args[0], args[1], args[2], args[3], joinType)
			})
		},
	}
	cmd.Flags().StringVar(&joinType, "type", "inner", "inner | left | right | outer")
	return cmd
}
