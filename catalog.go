package tablekit

// ParamSpec describes one parameter of a primitive. Names and types are
// part of the external contract; an orchestrator must honor them
// literally.
type ParamSpec struct {
	Name        string
	Type        string
	Required    bool
	Description string
}

// ToolSpec describes one primitive for an external orchestrator, such as
// an LLM agent choosing its next call from the catalog.
type ToolSpec struct {
	Name        string
	Description string
	Params      []ParamSpec
}

// Catalog returns the full primitive catalog.
func Catalog() []ToolSpec {
	src := ParamSpec{Name: "src", Type: "string", Required: true, Description: "source file path"}
	out := ParamSpec{Name: "out", Type: "string", Required: true, Description: "output file path"}
	cols := ParamSpec{Name: "columns", Type: "[]string", Required: true, Description: "column names"}

	return []ToolSpec{
		{
			Name:        "column_names",
			Description: "List the column names of a file.",
			Params: []ParamSpec{
				{Name: "path", Type: "string", Required: true, Description: "file path"},
			},
		},
		{
			Name:        "preview",
			Description: "Show the first n rows of a file.",
			Params: []ParamSpec{
				{Name: "path", Type: "string", Required: true, Description: "file path"},
				{Name: "n", Type: "int", Required: false, Description: "row count, default from config"},
			},
		},
		{
			Name:        "info",
			Description: "Per-column dtype, non-null and missing counts.",
			Params: []ParamSpec{
				{Name: "path", Type: "string", Required: true, Description: "file path"},
			},
		},
		{
			Name:        "describe",
			Description: "Count, mean, std, min, quartiles and max for numeric columns.",
			Params: []ParamSpec{
				{Name: "path", Type: "string", Required: true, Description: "file path"},
			},
		},
		{
			Name:        "search_rows",
			Description: "First n rows where a column contains a value (case-insensitive).",
			Params: []ParamSpec{
				{Name: "path", Type: "string", Required: true, Description: "file path"},
				{Name: "column", Type: "string", Required: true, Description: "column to search"},
				{Name: "value", Type: "string", Required: true, Description: "substring to match"},
				{Name: "n", Type: "int", Required: false, Description: "match limit"},
			},
		},
		{
			Name:        "append_row",
			Description: "Append one row to a file, matching values by column name.",
			Params: []ParamSpec{
				{Name: "path", Type: "string", Required: true, Description: "file path, updated in place"},
				{Name: "values", Type: "map[string]string", Required: true, Description: "column name to cell value"},
			},
		},
		{
			Name:        "select_columns",
			Description: "Project to the given columns, in the given order.",
			Params:      []ParamSpec{src, out, cols},
		},
		{
			Name:        "drop_columns",
			Description: "Remove the given columns.",
			Params:      []ParamSpec{src, out, cols},
		},
		{
			Name:        "rename_columns",
			Description: "Rename columns per an old-name to new-name mapping.",
			Params: []ParamSpec{
				src, out,
				{Name: "mapping", Type: "map[string]string", Required: true, Description: "old name to new name"},
			},
		},
		{
			Name:        "create_column",
			Description: "Append a column computed from an arithmetic/string expression over existing columns.",
			Params: []ParamSpec{
				src, out,
				{Name: "name", Type: "string", Required: true, Description: "new column name"},
				{Name: "expression", Type: "string", Required: true, Description: "e.g. Price + Tax, Name + \"_suffix\""},
			},
		},
		{
			Name:        "normalize_column",
			Description: "Append <column>_normalized using min_max or z_score.",
			Params: []ParamSpec{
				src, out,
				{Name: "column", Type: "string", Required: true, Description: "numeric column"},
				{Name: "method", Type: "string", Required: true, Description: "min_max | z_score"},
			},
		},
		{
			Name:        "standard_scale",
			Description: "Append <column>_scaled z-score columns.",
			Params:      []ParamSpec{src, out, cols},
		},
		{
			Name:        "min_max_scale",
			Description: "Append <column>_scaled columns rescaled into [lo, hi].",
			Params: []ParamSpec{
				src, out, cols,
				{Name: "lo", Type: "float64", Required: true, Description: "range lower bound"},
				{Name: "hi", Type: "float64", Required: true, Description: "range upper bound"},
			},
		},
		{
			Name:        "robust_scale",
			Description: "Append <column>_robust_scaled columns ((x - median) / IQR).",
			Params:      []ParamSpec{src, out, cols},
		},
		{
			Name:        "one_hot_encode",
			Description: "Replace columns with <column>_<value> indicator columns.",
			Params:      []ParamSpec{src, out, cols},
		},
		{
			Name:        "label_encode",
			Description: "Append <column>_encoded integer codes over sorted distinct values.",
			Params:      []ParamSpec{src, out, cols},
		},
		{
			Name:        "ordinal_encode",
			Description: "Append <column>_ordinal codes, optionally under an explicit category order.",
			Params: []ParamSpec{
				src, out, cols,
				{Name: "categories", Type: "map[string][]string", Required: false, Description: "explicit category order per column"},
			},
		},
		{
			Name:        "target_encode",
			Description: "Append <column>_target_encoded with full-table category means of a numeric target.",
			Params: []ParamSpec{
				src, out,
				{Name: "column", Type: "string", Required: true, Description: "categorical column"},
				{Name: "target", Type: "string", Required: true, Description: "numeric target column"},
			},
		},
		{
			Name:        "frequency_encode",
			Description: "Append <column>_freq_encoded occurrence counts.",
			Params:      []ParamSpec{src, out, cols},
		},
		{
			Name:        "binary_encode",
			Description: "Replace columns with binary digit columns <column>_0.. over ordinal codes.",
			Params:      []ParamSpec{src, out, cols},
		},
		{
			Name:        "hash_encode",
			Description: "Replace columns with <column>_hash_0.. bucket indicators (xxhash).",
			Params: []ParamSpec{
				src, out, cols,
				{Name: "components", Type: "int", Required: false, Description: "bucket count, default 8"},
			},
		},
		{
			Name:        "filter_rows",
			Description: "Keep rows where a column satisfies a condition.",
			Params: []ParamSpec{
				src, out,
				{Name: "column", Type: "string", Required: true, Description: "column to test"},
				{Name: "condition", Type: "string", Required: true, Description: "equals | not_equals | contains | greater_than | less_than"},
				{Name: "value", Type: "string", Required: true, Description: "comparison value"},
			},
		},
		{
			Name:        "impute_missing",
			Description: "Fill missing cells in numeric columns.",
			Params: []ParamSpec{
				src, out,
				{Name: "columns", Type: "[]string", Required: false, Description: "numeric columns, default all numeric"},
				{Name: "strategy", Type: "string", Required: true, Description: "mean | median | most_frequent | constant"},
				{Name: "fill_value", Type: "float64", Required: false, Description: "fill for the constant strategy"},
			},
		},
		{
			Name:        "handle_outliers",
			Description: "Drop rows out of bounds on any named column.",
			Params: []ParamSpec{
				src, out, cols,
				{Name: "method", Type: "string", Required: true, Description: "iqr | zscore"},
			},
		},
		{
			Name:        "combine_files",
			Description: "Stack rows (vertical) or concatenate columns (horizontal) of two or more files.",
			Params: []ParamSpec{
				{Name: "files", Type: "[]string", Required: true, Description: "two or more input paths"},
				out,
				{Name: "axis", Type: "string", Required: true, Description: "vertical | horizontal"},
				{Name: "keep_only_common", Type: "bool", Required: false, Description: "vertical: keep only columns common to every file"},
			},
		},
		{
			Name:        "join_files",
			Description: "Relational join of two files on a key column.",
			Params: []ParamSpec{
				{Name: "file1", Type: "string", Required: true, Description: "left input path"},
				{Name: "file2", Type: "string", Required: true, Description: "right input path"},
				out,
				{Name: "join_column", Type: "string", Required: true, Description: "key column, present in both files"},
				{Name: "join_type", Type: "string", Required: true, Description: "inner | left | right | outer"},
			},
		},
	}
}
