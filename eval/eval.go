// Package eval computes a value.Value for each parsed expression. All
// failures are reported as error values rather than Go errors so that
// a bad line never aborts a session.
package eval

import (
	"math"

	"github.com/shopspring/decimal"

	"nlcalc/currency"
	"nlcalc/parser"
	"nlcalc/unit"
	"nlcalc/value"
)

// NamedValue is a variable binding in insertion order.
type NamedValue struct {
	Name  string
	Value value.Value
}

// Context carries the mutable evaluation state: variable bindings (in
// first-assignment order), the history of line results for zero-arg
// aggregates, and the exchange rate graph.
type Context struct {
	Rates   *currency.RateGraph
	History []value.Value

	vars  map[string]value.Value
	order []string
}

// NewContext returns a context with no variables and the offline
// default rates loaded.
func NewContext() *Context {
	g := currency.NewRateGraph()
	g.LoadDefaults()
	return &Context{Rates: g, vars: map[string]value.Value{}}
}

// SetVar binds a variable. First assignment fixes its position in the
// Variables listing; reassignment keeps it.
func (c *Context) SetVar(name string, v value.Value) {
	if _, ok := c.vars[name]; !ok {
		c.order = append(c.order, name)
	}
	c.vars[name] = v
}

// Var looks up a variable binding.
func (c *Context) Var(name string) (value.Value, bool) {
	v, ok := c.vars[name]
	return v, ok
}

// Variables returns all bindings in first-assignment order.
func (c *Context) Variables() []NamedValue {
	out := make([]NamedValue, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, NamedValue{Name: name, Value: c.vars[name]})
	}
	return out
}

// Clone returns an independent copy of the variable and history state.
// The rate graph is shared; expression evaluation never mutates it.
func (c *Context) Clone() *Context {
	vars := make(map[string]value.Value, len(c.vars))
	for k, v := range c.vars {
		vars[k] = v
	}
	return &Context{
		Rates:   c.Rates,
		History: append([]value.Value(nil), c.History...),
		vars:    vars,
		order:   append([]string(nil), c.order...),
	}
}

// Evaluate computes the value of an expression under the context.
func Evaluate(ctx *Context, e parser.Expr) value.Value {
	switch n := e.(type) {
	case parser.NumberLit:
		return value.Num(n.Value)
	case parser.PercentLit:
		return value.Pct(n.Value)
	case parser.CurrencyLit:
		return value.Currency(n.Amount, n.Code)
	case parser.UnitLit:
		return value.WithUnit(n.Amount, n.Unit)
	case parser.CompoundLit:
		return value.WithCompound(n.Amount, n.Unit)
	case parser.VarRef:
		v, ok := ctx.Var(n.Name)
		if !ok {
			return value.Errorf("Unknown variable: %s", n.Name)
		}
		return v
	case parser.BinaryExpr:
		left := Evaluate(ctx, n.Left)
		if left.IsError() {
			return left
		}
		right := Evaluate(ctx, n.Right)
		if right.IsError() {
			return right
		}
		return evalBinary(ctx, n.Op, left, right)
	case parser.PercentOf:
		v := Evaluate(ctx, n.Value)
		if v.IsError() {
			return v
		}
		amount, ok := v.AsDecimal()
		if !ok {
			return value.Errorf("Invalid operands")
		}
		return v.WithScaledAmount(amount.Mul(n.Percent))
	case parser.Convert:
		v := Evaluate(ctx, n.Value)
		if v.IsError() {
			return v
		}
		return evalConversion(ctx, v, n.Target)
	case parser.Call:
		return evalCall(ctx, n)
	}
	return value.Errorf("Invalid operands")
}

// Add combines two values with the full addition rules, including
// currency and unit conversion of the right operand.
func Add(ctx *Context, left, right value.Value) value.Value {
	if left.IsError() {
		return left
	}
	if right.IsError() {
		return right
	}
	return evalBinary(ctx, parser.OpAdd, left, right)
}

func evalBinary(ctx *Context, op parser.Op, left, right value.Value) value.Value {
	la, lok := left.AsDecimal()
	ra, rok := right.AsDecimal()
	if !lok || !rok {
		return value.Errorf("Invalid operands")
	}

	// "x + 10%" and "x - 10%" apply the percentage to x whenever x is
	// not itself a percentage.
	if right.Kind() == value.KindPercentage && left.Kind() != value.KindPercentage {
		switch op {
		case parser.OpAdd:
			return left.WithScaledAmount(la.Add(la.Mul(ra)))
		case parser.OpSubtract:
			return left.WithScaledAmount(la.Sub(la.Mul(ra)))
		}
	}

	switch op {
	case parser.OpAdd, parser.OpSubtract:
		return evalAddSub(ctx, op, left, right)
	case parser.OpMultiply:
		return evalMul(ctx, left, right)
	case parser.OpDivide:
		return evalDiv(ctx, left, right)
	case parser.OpPower:
		return evalPow(left, right)
	}
	return value.Errorf("Invalid operands")
}

// evalAddSub handles addition and subtraction. Same-family operands
// are converted into the left operand's currency or unit; a plain
// number adopts the tagged side's tag at face value; mixing currency
// with unit values is an error.
func evalAddSub(ctx *Context, op parser.Op, left, right value.Value) value.Value {
	la, _ := left.AsDecimal()
	ra, _ := right.AsDecimal()

	tagged := left
	lk, rk := left.Kind(), right.Kind()
	switch {
	case lk == value.KindCurrency && rk == value.KindCurrency:
		converted, ok := convertCurrency(ctx, ra, right.Code(), left.Code())
		if !ok {
			return value.Errorf("No exchange rate for %s to %s", right.Code(), left.Code())
		}
		ra = converted
	case left.HasUnit() && right.HasUnit():
		converted, ok := unit.ConvertCompound(ra, right.Compound(), left.Compound())
		if !ok {
			return value.Errorf("Cannot convert %s to %s", right.Compound().Symbol, left.Compound().Symbol)
		}
		ra = converted
	case isTagged(left) && isTagged(right):
		return value.Errorf("Cannot %s currency and unit values", opWord(op))
	case isTagged(right):
		tagged = right
	}

	res := la.Add(ra)
	if op == parser.OpSubtract {
		res = la.Sub(ra)
	}
	if lk == value.KindPercentage && rk == value.KindPercentage {
		return value.Pct(res)
	}
	return tagged.WithScaledAmount(res)
}

// isTagged reports whether the value carries a currency or unit tag.
func isTagged(v value.Value) bool {
	return v.Kind() == value.KindCurrency || v.HasUnit()
}

func opWord(op parser.Op) string {
	if op == parser.OpSubtract {
		return "subtract"
	}
	return "add"
}

func evalMul(ctx *Context, left, right value.Value) value.Value {
	la, _ := left.AsDecimal()
	ra, _ := right.AsDecimal()

	// A percentage factor scales the other side. A leading percentage
	// keeps the other side's tag ("50% * $80" is money); a trailing
	// one is a plain proportion.
	if left.Kind() == value.KindPercentage && right.Kind() != value.KindPercentage {
		return right.WithScaledAmount(la.Mul(ra))
	}
	if right.Kind() == value.KindPercentage && left.Kind() != value.KindPercentage {
		return value.Num(la.Mul(ra))
	}

	lk, rk := left.Kind(), right.Kind()
	switch {
	case lk == value.KindCurrency && rk == value.KindCurrency:
		// Two currency amounts multiply in the left operand's currency.
		converted, ok := convertCurrency(ctx, ra, right.Code(), left.Code())
		if !ok {
			return value.Errorf("No exchange rate for %s to %s", right.Code(), left.Code())
		}
		return value.Currency(la.Mul(converted), left.Code())
	case lk == value.KindCurrency:
		return value.Currency(la.Mul(ra), left.Code())
	case rk == value.KindCurrency:
		return value.Currency(la.Mul(ra), right.Code())
	case left.HasUnit() && right.HasUnit():
		return unitValue(la.Mul(ra), left.Compound().Mul(right.Compound()))
	case left.HasUnit():
		return left.WithScaledAmount(la.Mul(ra))
	case right.HasUnit():
		return right.WithScaledAmount(la.Mul(ra))
	}
	return left.WithScaledAmount(la.Mul(ra))
}

func evalDiv(ctx *Context, left, right value.Value) value.Value {
	la, _ := left.AsDecimal()
	ra, _ := right.AsDecimal()
	if ra.IsZero() {
		return value.Errorf("Division by zero")
	}

	lk, rk := left.Kind(), right.Kind()
	switch {
	case rk == value.KindPercentage && lk != value.KindPercentage:
		return value.Num(la.Div(ra))
	case lk == value.KindCurrency && rk == value.KindCurrency:
		// The ratio of two amounts is a plain number, after bringing
		// the divisor into the left operand's currency.
		converted, ok := convertCurrency(ctx, ra, right.Code(), left.Code())
		if !ok {
			return value.Errorf("No exchange rate for %s to %s", right.Code(), left.Code())
		}
		return value.Num(la.Div(converted))
	case lk == value.KindCurrency && rk == value.KindNumber:
		return value.Currency(la.Div(ra), left.Code())
	case lk == value.KindCurrency || rk == value.KindCurrency:
		return value.Errorf("Invalid operands")
	case left.HasUnit() && right.HasUnit():
		return unitValue(la.Div(ra), left.Compound().Div(right.Compound()))
	case left.HasUnit():
		return left.WithScaledAmount(la.Div(ra))
	case right.HasUnit():
		numerator := unit.Compound{Factor: decimal.NewFromInt(1), Symbol: "1"}
		return unitValue(la.Div(ra), numerator.Div(right.Compound()))
	}
	return left.WithScaledAmount(la.Div(ra))
}

func evalPow(left, right value.Value) value.Value {
	la, _ := left.AsDecimal()
	ra, _ := right.AsDecimal()

	// A percentage exponent raises the magnitude to the fraction and
	// always yields a plain number, whatever the base carried.
	if right.Kind() == value.KindPercentage {
		f := math.Pow(la.InexactFloat64(), ra.InexactFloat64())
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return value.Errorf("Invalid operands")
		}
		return value.Num(decimal.NewFromFloat(f))
	}
	if right.Kind() != value.KindNumber {
		return value.Errorf("Invalid operands")
	}

	if left.HasUnit() {
		if !ra.Equal(ra.Truncate(0)) {
			return value.Errorf("Invalid operands")
		}
		n := ra.IntPart()
		if n < 1 || n > 4 {
			return value.Errorf("Invalid operands")
		}
		comp := left.Compound().Pow(int8(n))
		amount := decimal.NewFromInt(1)
		for i := int64(0); i < n; i++ {
			amount = amount.Mul(la)
		}
		return unitValue(amount, comp)
	}
	if left.Kind() != value.KindNumber {
		return value.Errorf("Invalid operands")
	}

	f := math.Pow(la.InexactFloat64(), ra.InexactFloat64())
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return value.Errorf("Invalid operands")
	}
	// Integer exponents stay exact.
	if ra.Equal(ra.Truncate(0)) && ra.IntPart() >= 0 && ra.IntPart() <= 27 {
		return value.Num(la.Pow(ra))
	}
	return value.Num(decimal.NewFromFloat(f))
}

// unitValue wraps an amount in a compound unit, collapsing back to a
// plain number when all dimensions cancel (residual scale folded into
// the amount) and to a simple unit when the symbol matches one.
func unitValue(amount decimal.Decimal, comp unit.Compound) value.Value {
	if comp.Dims.IsZero() {
		return value.Num(amount.Mul(comp.Factor))
	}
	if u, ok := unit.Parse(comp.Symbol); ok && u.String() == comp.Symbol {
		return value.WithUnit(amount, u)
	}
	return value.WithCompound(amount, comp)
}

// convertCurrency converts an amount between currencies via the rate
// graph.
func convertCurrency(ctx *Context, amount decimal.Decimal, from, to currency.Code) (decimal.Decimal, bool) {
	rate, ok := ctx.Rates.Rate(from, to)
	if !ok {
		return decimal.Zero, false
	}
	return amount.Mul(rate), true
}

// evalConversion applies an "in"/"to" conversion. The target name is
// resolved against the currency registry first, then the unit
// registry; a plain number adopts the target tag at face value.
func evalConversion(ctx *Context, v value.Value, target string) value.Value {
	amount, ok := v.AsDecimal()
	if !ok {
		return value.Errorf("Invalid operands")
	}

	if code, found := currency.Parse(target); found {
		switch {
		case v.Kind() == value.KindCurrency:
			converted, ok := convertCurrency(ctx, amount, v.Code(), code)
			if !ok {
				return value.Errorf("No exchange rate for %s to %s", v.Code(), code)
			}
			return value.Currency(converted, code)
		case v.Kind() == value.KindNumber:
			return value.Currency(amount, code)
		}
		return value.Errorf("Cannot convert %s to %s", v.Kind(), code)
	}

	if comp, found := unit.ParseCompound(target); found {
		switch {
		case v.HasUnit():
			converted, ok := unit.ConvertCompound(amount, v.Compound(), comp)
			if !ok {
				return value.Errorf("Cannot convert %s to %s", v.Compound().Symbol, comp.Symbol)
			}
			return unitValue(converted, comp)
		case v.Kind() == value.KindNumber:
			return unitValue(amount, comp)
		}
		return value.Errorf("Cannot convert %s to %s", v.Kind(), comp.Symbol)
	}

	return value.Errorf("Unknown unit or currency: %s", target)
}
