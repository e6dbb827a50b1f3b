// Package errors provides standardized error types for tabular primitives.
// Every primitive converts its internal failures into an *Error carrying a
// Kind, so callers (including LLM-driven orchestrators) receive an
// actionable, structured description instead of a raw runtime error.
package errors

import (
	"fmt"
	"strings"
)

// Kind classifies a primitive failure.
type Kind int

const (
	// KindInternal is an unclassified internal failure.
	KindInternal Kind = iota
	// KindNotFound means a referenced file does not exist.
	KindNotFound
	// KindColumnNotFound means one or more referenced columns are absent.
	KindColumnNotFound
	// KindTypeMismatch means an operation got non-numeric data where
	// numeric data is required, or a comparison value could not be coerced.
	KindTypeMismatch
	// KindExpression means a derived-column expression failed to parse or
	// evaluate.
	KindExpression
	// KindInvalidArgument means an enum-like parameter received a value
	// outside its recognized set.
	KindInvalidArgument
	// KindSchemaConflict means multi-file combination found no common
	// columns under a common-columns policy.
	KindSchemaConflict
	// KindParse means a file exists but its content could not be decoded.
	KindParse
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindColumnNotFound:
		return "ColumnNotFound"
	case KindTypeMismatch:
		return "TypeMismatch"
	case KindExpression:
		return "Expression"
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindSchemaConflict:
		return "SchemaConflict"
	case KindParse:
		return "Parse"
	default:
		return "Internal"
	}
}

// Error represents a standardized failure across all primitives.
type Error struct {
	Kind    Kind   // Failure classification
	Op      string // Operation name (e.g. "select_columns", "join_files")
	Column  string // Column name if applicable
	Message string // Human-readable description
	Cause   error  // Underlying cause
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s: %s failed on column '%s': %s", e.Kind, e.Op, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s failed: %s", e.Kind, e.Op, e.Message)
}

// Unwrap returns the underlying cause for error wrapping support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on Kind so callers can probe with sentinel kinds, e.g.
// errors.Is(err, &Error{Kind: KindColumnNotFound}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Op != "" && t.Op != e.Op {
		return false
	}
	if t.Column != "" && t.Column != e.Column {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return KindInternal
}

// NewNotFoundError creates an error for a missing input file.
func NewNotFoundError(op, path string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Op:      op,
		Message: fmt.Sprintf("file not found: %s", path),
	}
}

// NewColumnNotFoundError creates an error enumerating every missing column
// plus the full available-column list.
func NewColumnNotFoundError(op string, missing, available []string) *Error {
	return &Error{
		Kind:   KindColumnNotFound,
		Op:     op,
		Column: strings.Join(missing, ", "),
		Message: fmt.Sprintf("columns not found: %s (available: %s)",
			strings.Join(missing, ", "), strings.Join(available, ", ")),
	}
}

// NewTypeMismatchError creates an error for non-numeric data in a numeric
// operation.
func NewTypeMismatchError(op string, columns []string) *Error {
	return &Error{
		Kind:    KindTypeMismatch,
		Op:      op,
		Column:  strings.Join(columns, ", "),
		Message: fmt.Sprintf("columns must be numeric: %s", strings.Join(columns, ", ")),
	}
}

// NewValueCoercionError creates an error for a comparison value that cannot
// be coerced to the type the operation needs.
func NewValueCoercionError(op, column, value string) *Error {
	return &Error{
		Kind:    KindTypeMismatch,
		Op:      op,
		Column:  column,
		Message: fmt.Sprintf("cannot compare '%s' as number", value),
	}
}

// NewExpressionError creates an error for a failed derived-column
// expression, keeping the raw expression and the underlying cause.
func NewExpressionError(op, expression string, cause error) *Error {
	return &Error{
		Kind:    KindExpression,
		Op:      op,
		Message: fmt.Sprintf("evaluating expression '%s': %v", expression, cause),
		Cause:   cause,
	}
}

// NewInvalidArgumentError creates an error for an enum-like parameter
// outside its recognized set; the message enumerates the valid options.
func NewInvalidArgumentError(op, param, got string, valid []string) *Error {
	return &Error{
		Kind:    KindInvalidArgument,
		Op:      op,
		Message: fmt.Sprintf("invalid %s '%s' (use: %s)", param, got, strings.Join(valid, ", ")),
	}
}

// NewSchemaConflictError creates an error for combination with no common
// columns.
func NewSchemaConflictError(op, message string) *Error {
	return &Error{
		Kind:    KindSchemaConflict,
		Op:      op,
		Message: message,
	}
}

// NewParseError creates an error for undecodable file content.
func NewParseError(op, path string, cause error) *Error {
	return &Error{
		Kind:    KindParse,
		Op:      op,
		Message: fmt.Sprintf("parsing %s: %v", path, cause),
		Cause:   cause,
	}
}

// NewInternalError creates an error for internal operation failures.
func NewInternalError(op string, cause error) *Error {
	return &Error{
		Kind:    KindInternal,
		Op:      op,
		Message: cause.Error(),
		Cause:   cause,
	}
}
