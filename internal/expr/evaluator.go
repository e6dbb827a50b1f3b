package expr

import (
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// unaryFuncs are the single-argument numeric functions expressions may call.
var unaryFuncs = map[string]func(float64) float64{
	"abs":   math.Abs,
	"sqrt":  math.Sqrt,
	"log":   math.Log,
	"log10": math.Log10,
	"exp":   math.Exp,
	"round": math.Round,
	"floor": math.Floor,
	"ceil":  math.Ceil,
}

// binaryFuncs are the two-argument numeric functions.
var binaryFuncs = map[string]func(float64, float64) float64{
	"pow": math.Pow,
	"min": math.Min,
	"max": math.Max,
}

// Evaluator evaluates parsed expressions row-wise against Arrow arrays.
type Evaluator struct {
	mem memory.Allocator
}

// NewEvaluator creates a new expression evaluator.
func NewEvaluator(mem memory.Allocator) *Evaluator {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return &Evaluator{mem: mem}
}

// Evaluate computes the expression over the given columns, producing an
// array of rows elements. Column identifiers resolve only against the
// provided map.
func (e *Evaluator) Evaluate(expr Expr, columns map[string]arrow.Array, rows int) (arrow.Array, error) {
	switch ex := expr.(type) {
	case *ColumnExpr:
		arr, exists := columns[ex.name]
		if !exists {
			return nil, fmt.Errorf("unknown column %q", ex.name)
		}
		arr.Retain()
		return arr, nil
	case *LiteralExpr:
		return e.evaluateLiteral(ex, rows)
	case *UnaryExpr:
		return e.evaluateNegation(ex, columns, rows)
	case *BinaryExpr:
		return e.evaluateBinary(ex, columns, rows)
	case *FunctionExpr:
		return e.evaluateFunction(ex, columns, rows)
	default:
		return nil, fmt.Errorf("unsupported expression type: %T", expr)
	}
}

func (e *Evaluator) evaluateLiteral(expr *LiteralExpr, rows int) (arrow.Array, error) {
	switch val := expr.value.(type) {
	case string:
		builder := array.NewStringBuilder(e.mem)
		defer builder.Release()
		for i := 0; i < rows; i++ {
			builder.Append(val)
		}
		return builder.NewArray(), nil
	case int64:
		builder := array.NewInt64Builder(e.mem)
		defer builder.Release()
		for i := 0; i < rows; i++ {
			builder.Append(val)
		}
		return builder.NewArray(), nil
	case float64:
		builder := array.NewFloat64Builder(e.mem)
		defer builder.Release()
		for i := 0; i < rows; i++ {
			builder.Append(val)
		}
		return builder.NewArray(), nil
	default:
		return nil, fmt.Errorf("unsupported literal type: %T", val)
	}
}

func (e *Evaluator) evaluateNegation(expr *UnaryExpr, columns map[string]arrow.Array, rows int) (arrow.Array, error) {
	operand, err := e.Evaluate(expr.operand, columns, rows)
	if err != nil {
		return nil, err
	}
	defer operand.Release()

	switch arr := operand.(type) {
	case *array.Int64:
		builder := array.NewInt64Builder(e.mem)
		defer builder.Release()
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				builder.AppendNull()
				continue
			}
			builder.Append(-arr.Value(i))
		}
		return builder.NewArray(), nil
	case *array.Float64:
		builder := array.NewFloat64Builder(e.mem)
		defer builder.Release()
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				builder.AppendNull()
				continue
			}
			builder.Append(-arr.Value(i))
		}
		return builder.NewArray(), nil
	default:
		return nil, fmt.Errorf("cannot negate %s operand", operand.DataType())
	}
}

func (e *Evaluator) evaluateBinary(expr *BinaryExpr, columns map[string]arrow.Array, rows int) (arrow.Array, error) {
	left, err := e.Evaluate(expr.left, columns, rows)
	if err != nil {
		return nil, err
	}
	defer left.Release()

	right, err := e.Evaluate(expr.right, columns, rows)
	if err != nil {
		return nil, err
	}
	defer right.Release()

	if left.Len() != right.Len() {
		return nil, fmt.Errorf("operand length mismatch: %d vs %d", left.Len(), right.Len())
	}

	// String concatenation is the single non-numeric operation.
	if ls, lok := left.(*array.String); lok {
		rs, rok := right.(*array.String)
		if !rok || expr.op != OpAdd {
			return nil, fmt.Errorf("operator %s is not defined for text operands", expr.op)
		}
		return e.concatStrings(ls, rs), nil
	}
	if _, rok := right.(*array.String); rok {
		return nil, fmt.Errorf("cannot mix text and numeric operands with %s", expr.op)
	}

	// Division always produces float64; other operators keep int64 when
	// both sides are int64.
	li, lIsInt := left.(*array.Int64)
	ri, rIsInt := right.(*array.Int64)
	if lIsInt && rIsInt && expr.op != OpDiv {
		return e.evaluateInt64Arithmetic(li, ri, expr.op)
	}

	lf, err := e.toFloat64(left)
	if err != nil {
		return nil, err
	}
	defer lf.Release()
	rf, err := e.toFloat64(right)
	if err != nil {
		return nil, err
	}
	defer rf.Release()

	return e.evaluateFloat64Arithmetic(lf, rf, expr.op)
}

func (e *Evaluator) concatStrings(left, right *array.String) arrow.Array {
	builder := array.NewStringBuilder(e.mem)
	defer builder.Release()

	for i := 0; i < left.Len(); i++ {
		if left.IsNull(i) || right.IsNull(i) {
			builder.AppendNull()
			continue
		}
		builder.Append(left.Value(i) + right.Value(i))
	}
	return builder.NewArray()
}

func (e *Evaluator) evaluateInt64Arithmetic(left, right *array.Int64, op BinaryOp) (arrow.Array, error) {
	builder := array.NewInt64Builder(e.mem)
	defer builder.Release()

	for i := 0; i < left.Len(); i++ {
		if left.IsNull(i) || right.IsNull(i) {
			builder.AppendNull()
			continue
		}

		l := left.Value(i)
		r := right.Value(i)

		var result int64
		switch op {
		case OpAdd:
			result = l + r
		case OpSub:
			result = l - r
		case OpMul:
			result = l * r
		case OpMod:
			if r == 0 {
				builder.AppendNull()
				continue
			}
			result = l % r
		default:
			return nil, fmt.Errorf("unsupported integer operation: %s", op)
		}

		builder.Append(result)
	}

	return builder.NewArray(), nil
}

func (e *Evaluator) evaluateFloat64Arithmetic(left, right *array.Float64, op BinaryOp) (arrow.Array, error) {
	builder := array.NewFloat64Builder(e.mem)
	defer builder.Release()

	for i := 0; i < left.Len(); i++ {
		if left.IsNull(i) || right.IsNull(i) {
			builder.AppendNull()
			continue
		}

		l := left.Value(i)
		r := right.Value(i)

		var result float64
		switch op {
		case OpAdd:
			result = l + r
		case OpSub:
			result = l - r
		case OpMul:
			result = l * r
		case OpDiv:
			result = l / r // division by zero yields +/-Inf
		case OpMod:
			result = math.Mod(l, r)
		default:
			return nil, fmt.Errorf("unsupported arithmetic operation: %s", op)
		}

		builder.Append(result)
	}

	return builder.NewArray(), nil
}

func (e *Evaluator) evaluateFunction(expr *FunctionExpr, columns map[string]arrow.Array, rows int) (arrow.Array, error) {
	if fn, ok := unaryFuncs[expr.name]; ok {
		if len(expr.args) != 1 {
			return nil, fmt.Errorf("%s expects 1 argument, got %d", expr.name, len(expr.args))
		}
		arg, err := e.evaluateFloatArg(expr.args[0], columns, rows)
		if err != nil {
			return nil, err
		}
		defer arg.Release()

		builder := array.NewFloat64Builder(e.mem)
		defer builder.Release()
		for i := 0; i < arg.Len(); i++ {
			if arg.IsNull(i) {
				builder.AppendNull()
				continue
			}
			builder.Append(fn(arg.Value(i)))
		}
		return builder.NewArray(), nil
	}

	if fn, ok := binaryFuncs[expr.name]; ok {
		if len(expr.args) != 2 {
			return nil, fmt.Errorf("%s expects 2 arguments, got %d", expr.name, len(expr.args))
		}
		first, err := e.evaluateFloatArg(expr.args[0], columns, rows)
		if err != nil {
			return nil, err
		}
		defer first.Release()
		second, err := e.evaluateFloatArg(expr.args[1], columns, rows)
		if err != nil {
			return nil, err
		}
		defer second.Release()

		builder := array.NewFloat64Builder(e.mem)
		defer builder.Release()
		for i := 0; i < first.Len(); i++ {
			if first.IsNull(i) || second.IsNull(i) {
				builder.AppendNull()
				continue
			}
			builder.Append(fn(first.Value(i), second.Value(i)))
		}
		return builder.NewArray(), nil
	}

	return nil, fmt.Errorf("unknown function %q", expr.name)
}

func (e *Evaluator) evaluateFloatArg(arg Expr, columns map[string]arrow.Array, rows int) (*array.Float64, error) {
	arr, err := e.Evaluate(arg, columns, rows)
	if err != nil {
		return nil, err
	}
	defer arr.Release()
	return e.toFloat64(arr)
}

// toFloat64 converts an int64 or float64 array to float64, retaining a
// fresh reference the caller must release.
func (e *Evaluator) toFloat64(arr arrow.Array) (*array.Float64, error) {
	switch typed := arr.(type) {
	case *array.Float64:
		typed.Retain()
		return typed, nil
	case *array.Int64:
		builder := array.NewFloat64Builder(e.mem)
		defer builder.Release()
		for i := 0; i < typed.Len(); i++ {
			if typed.IsNull(i) {
				builder.AppendNull()
				continue
			}
			builder.Append(float64(typed.Value(i)))
		}
		return builder.NewArray().(*array.Float64), nil
	default:
		return nil, fmt.Errorf("expected numeric operand, got %s", arr.DataType())
	}
}
