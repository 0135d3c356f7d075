// Package value defines the result of evaluating a line: a closed
// tagged union over numbers, percentages, currency amounts, unit
// amounts, the empty value and errors. Values are immutable; every
// operation produces a new Value.
package value

import (
	"fmt"

	"github.com/shopspring/decimal"

	"nlcalc/currency"
	"nlcalc/unit"
)

// Kind discriminates the variants of Value.
type Kind int

const (
	KindEmpty Kind = iota
	KindNumber
	KindPercentage
	KindCurrency
	KindUnit
	KindCompoundUnit
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindNumber:
		return "number"
	case KindPercentage:
		return "percentage"
	case KindCurrency:
		return "currency"
	case KindUnit, KindCompoundUnit:
		return "unit"
	case KindError:
		return "error"
	}
	return "unknown"
}

// Value is a computed value with an optional currency or unit tag.
// The zero value is Empty.
type Value struct {
	kind   Kind
	amount decimal.Decimal
	code   currency.Code
	unit   unit.Unit
	comp   unit.Compound
	msg    string
}

// Num returns a plain number value.
func Num(n decimal.Decimal) Value {
	return Value{kind: KindNumber, amount: n}
}

// Pct returns a percentage value. The amount is the stored fraction,
// e.g. 0.20 for "20%".
func Pct(p decimal.Decimal) Value {
	return Value{kind: KindPercentage, amount: p}
}

// Currency returns a currency amount.
func Currency(amount decimal.Decimal, code currency.Code) Value {
	return Value{kind: KindCurrency, amount: amount, code: code}
}

// WithUnit returns an amount tagged with a simple unit. This is the
// form the parser produces.
func WithUnit(amount decimal.Decimal, u unit.Unit) Value {
	return Value{kind: KindUnit, amount: amount, unit: u}
}

// WithCompound returns an amount tagged with a compound unit. This is
// the form computed multiplication and division produce.
func WithCompound(amount decimal.Decimal, c unit.Compound) Value {
	return Value{kind: KindCompoundUnit, amount: amount, comp: c}
}

// Empty returns the empty value.
func Empty() Value {
	return Value{}
}

// Errorf returns an error value with a formatted message.
func Errorf(format string, args ...interface{}) Value {
	return Value{kind: KindError, msg: fmt.Sprintf(format, args...)}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// AsDecimal returns the numeric magnitude of the value, ignoring any
// currency or unit tag. The second result is false for Empty and
// Error values.
func (v Value) AsDecimal() (decimal.Decimal, bool) {
	switch v.kind {
	case KindEmpty, KindError:
		return decimal.Zero, false
	}
	return v.amount, true
}

// Code returns the currency tag; only meaningful for KindCurrency.
func (v Value) Code() currency.Code { return v.code }

// Unit returns the simple unit tag; only meaningful for KindUnit.
func (v Value) Unit() unit.Unit { return v.unit }

// Compound returns the compound unit tag; for KindUnit the simple
// unit is lifted.
func (v Value) Compound() unit.Compound {
	if v.kind == KindUnit {
		return v.unit.Compound()
	}
	return v.comp
}

// Message returns the error message; only meaningful for KindError.
func (v Value) Message() string { return v.msg }

// IsEmpty reports whether the value is Empty.
func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// IsError reports whether the value is an Error.
func (v Value) IsError() bool { return v.kind == KindError }

// HasUnit reports whether the value carries a simple or compound unit.
func (v Value) HasUnit() bool {
	return v.kind == KindUnit || v.kind == KindCompoundUnit
}

// WithScaledAmount returns a value with the same currency or unit tag
// but a different amount. Untagged kinds scale to a plain number.
func (v Value) WithScaledAmount(amount decimal.Decimal) Value {
	switch v.kind {
	case KindCurrency:
		return Currency(amount, v.code)
	case KindUnit:
		return WithUnit(amount, v.unit)
	case KindCompoundUnit:
		return WithCompound(amount, v.comp)
	}
	return Num(amount)
}

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return formatNumber(v.amount)
	case KindPercentage:
		return formatNumber(v.amount.Mul(decimal.NewFromInt(100))) + "%"
	case KindCurrency:
		amount := v.amount.StringFixed(2)
		if v.code.SymbolAfter() {
			return amount + v.code.Symbol()
		}
		return v.code.Symbol() + amount
	case KindUnit:
		return formatNumber(v.amount) + " " + v.unit.String()
	case KindCompoundUnit:
		return formatNumber(v.amount) + " " + v.comp.Symbol
	case KindError:
		return "Error: " + v.msg
	}
	return ""
}

// formatNumber rounds to at most two decimal places and drops the
// fractional part entirely when it rounds away.
func formatNumber(n decimal.Decimal) string {
	rounded := n.Round(2)
	if rounded.Equal(rounded.Truncate(0)) {
		return rounded.Truncate(0).String()
	}
	return rounded.StringFixed(2)
}
