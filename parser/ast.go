package parser

import (
	"github.com/shopspring/decimal"

	"nlcalc/currency"
	"nlcalc/unit"
)

// Ast is the parsed form of one input line.
type Ast interface{ ast() }

// EmptyLine is a blank or comment-only line.
type EmptyLine struct{}

// Assignment is "name = expr".
type Assignment struct {
	Name string
	Expr Expr
}

// ExprLine is a line holding a single expression.
type ExprLine struct {
	Expr Expr
}

func (EmptyLine) ast()  {}
func (Assignment) ast() {}
func (ExprLine) ast()   {}

// Expr is an expression node. The union is closed; evaluation switches
// exhaustively over these types.
type Expr interface{ expr() }

// NumberLit is a numeric literal.
type NumberLit struct {
	Value decimal.Decimal
}

// PercentLit is a percentage literal, stored as a fraction (20% is
// 0.20).
type PercentLit struct {
	Value decimal.Decimal
}

// CurrencyLit is a currency amount literal, from any of the three
// spellings: symbol-prefixed, symbol-suffixed, or code/alias-suffixed.
type CurrencyLit struct {
	Amount decimal.Decimal
	Code   currency.Code
}

// UnitLit is a number with a simple unit suffix.
type UnitLit struct {
	Amount decimal.Decimal
	Unit   unit.Unit
}

// CompoundLit is a number with a compound unit suffix, e.g. "100 km/h".
type CompoundLit struct {
	Amount decimal.Decimal
	Unit   unit.Compound
}

// VarRef is a variable reference.
type VarRef struct {
	Name string
}

// BinaryExpr is a binary operation.
type BinaryExpr struct {
	Op    Op
	Left  Expr
	Right Expr
}

// PercentOf is "N% of expr".
type PercentOf struct {
	Percent decimal.Decimal
	Value   Expr
}

// Convert is the "in"/"to" conversion pseudo-operator. Target is the
// bare unit or currency name on the right-hand side.
type Convert struct {
	Value  Expr
	Target string
}

// Call is a function call "name(args...)".
type Call struct {
	Name string
	Args []Expr
}

func (NumberLit) expr()   {}
func (PercentLit) expr()  {}
func (CurrencyLit) expr() {}
func (UnitLit) expr()     {}
func (CompoundLit) expr() {}
func (VarRef) expr()      {}
func (BinaryExpr) expr()  {}
func (PercentOf) expr()   {}
func (Convert) expr()     {}
func (Call) expr()        {}

// Op is a binary operator.
type Op int

const (
	OpAdd Op = iota
	OpSubtract
	OpMultiply
	OpDivide
	OpPower
)

func (op Op) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSubtract:
		return "-"
	case OpMultiply:
		return "*"
	case OpDivide:
		return "/"
	case OpPower:
		return "^"
	}
	return "?"
}
