// Package expr implements the restricted derived-column expression
// language: arithmetic, string literals and concatenation, bare column
// identifiers, and a fixed set of numeric functions. Identifiers bind only
// to table columns and the function table — expressions originate from
// LLM-generated text and must never reach ambient host symbols.
package expr

import (
	"fmt"
	"strconv"
)

// ExprType represents the type of expression node.
type ExprType int

const (
	ExprColumn ExprType = iota
	ExprLiteral
	ExprBinary
	ExprUnary
	ExprFunction
)

// Expr is one node of a parsed expression.
type Expr interface {
	Type() ExprType
	String() string
}

// ColumnExpr references a table column by name.
type ColumnExpr struct {
	name string
}

func (c *ColumnExpr) Type() ExprType { return ExprColumn }
func (c *ColumnExpr) String() string { return fmt.Sprintf("col(%s)", c.name) }
func (c *ColumnExpr) Name() string   { return c.name }

// LiteralExpr holds an int64, float64 or string constant.
type LiteralExpr struct {
	value any
}

func (l *LiteralExpr) Type() ExprType { return ExprLiteral }
func (l *LiteralExpr) String() string { return fmt.Sprintf("lit(%v)", l.value) }
func (l *LiteralExpr) Value() any     { return l.value }

// BinaryOp represents binary operations.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
)

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	default:
		return "?"
	}
}

// BinaryExpr applies op to two operands.
type BinaryExpr struct {
	left  Expr
	op    BinaryOp
	right Expr
}

func (b *BinaryExpr) Type() ExprType { return ExprBinary }
func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.left.String(), b.op, b.right.String())
}
func (b *BinaryExpr) Left() Expr  { return b.left }
func (b *BinaryExpr) Op() BinaryOp { return b.op }
func (b *BinaryExpr) Right() Expr { return b.right }

// UnaryExpr is arithmetic negation.
type UnaryExpr struct {
	operand Expr
}

func (u *UnaryExpr) Type() ExprType { return ExprUnary }
func (u *UnaryExpr) String() string { return fmt.Sprintf("(-%s)", u.operand.String()) }
func (u *UnaryExpr) Operand() Expr  { return u.operand }

// FunctionExpr calls one of the fixed numeric functions.
type FunctionExpr struct {
	name string
	args []Expr
}

func (f *FunctionExpr) Type() ExprType { return ExprFunction }
func (f *FunctionExpr) String() string { return fmt.Sprintf("func(%s)", f.name) }
func (f *FunctionExpr) Name() string   { return f.name }
func (f *FunctionExpr) Args() []Expr   { return f.args }

// Constructor functions

// Col creates a column reference.
func Col(name string) *ColumnExpr { return &ColumnExpr{name: name} }

// Lit creates a literal from an int64, float64 or string value.
func Lit(value any) *LiteralExpr { return &LiteralExpr{value: value} }

// Bin creates a binary operation node.
func Bin(left Expr, op BinaryOp, right Expr) *BinaryExpr {
	return &BinaryExpr{left: left, op: op, right: right}
}

// Neg creates a negation node.
func Neg(operand Expr) *UnaryExpr { return &UnaryExpr{operand: operand} }

// Call creates a function call node.
func Call(name string, args ...Expr) *FunctionExpr {
	return &FunctionExpr{name: name, args: args}
}

// numberLit parses a numeric token into an int64 or float64 literal.
func numberLit(text string) (*LiteralExpr, error) {
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return Lit(i), nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", text)
	}
	return Lit(f), nil
}
