package eval

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"nlcalc/parser"
	"nlcalc/value"
)

// evalCall dispatches a function call. Names are case-insensitive.
// Aggregates called with no arguments run over the session history.
func evalCall(ctx *Context, call parser.Call) value.Value {
	args := make([]value.Value, 0, len(call.Args))
	for _, a := range call.Args {
		v := Evaluate(ctx, a)
		if v.IsError() {
			return v
		}
		args = append(args, v)
	}

	name := strings.ToLower(call.Name)
	switch name {
	case "sum", "total":
		return sumValues(ctx, aggregateInput(ctx, args))
	case "avg", "average", "mean":
		vals := aggregateInput(ctx, args)
		if len(vals) == 0 {
			return value.Num(decimal.Zero)
		}
		total := sumValues(ctx, vals)
		amount, _ := total.AsDecimal()
		return total.WithScaledAmount(amount.Div(decimal.NewFromInt(int64(len(vals)))))
	case "min":
		return extremum(ctx, name, aggregateInput(ctx, args), func(cmp int) bool { return cmp < 0 })
	case "max":
		return extremum(ctx, name, aggregateInput(ctx, args), func(cmp int) bool { return cmp > 0 })
	case "abs":
		return mapAmount(name, args, func(d decimal.Decimal) (decimal.Decimal, bool) {
			return d.Abs(), true
		})
	case "round":
		return mapAmount(name, args, func(d decimal.Decimal) (decimal.Decimal, bool) {
			return d.Round(0), true
		})
	case "floor":
		return mapAmount(name, args, func(d decimal.Decimal) (decimal.Decimal, bool) {
			return d.Floor(), true
		})
	case "ceil":
		return mapAmount(name, args, func(d decimal.Decimal) (decimal.Decimal, bool) {
			return d.Ceil(), true
		})
	case "sqrt":
		if len(args) != 1 {
			return value.Errorf("Invalid operands")
		}
		amount, ok := args[0].AsDecimal()
		if !ok {
			return value.Errorf("Invalid operands")
		}
		if amount.IsNegative() {
			return value.Errorf("Cannot take sqrt of negative number")
		}
		return value.Num(decimal.NewFromFloat(math.Sqrt(amount.InexactFloat64())))
	}
	return value.Errorf("Unknown function: %s", call.Name)
}

// aggregateInput picks the operand set for an aggregate: explicit
// arguments if given, otherwise the computable values of the history.
func aggregateInput(ctx *Context, args []value.Value) []value.Value {
	if len(args) > 0 {
		return args
	}
	var vals []value.Value
	for _, v := range ctx.History {
		if _, ok := v.AsDecimal(); ok {
			vals = append(vals, v)
		}
	}
	return vals
}

// sumValues folds values with the addition rules, so mixed currencies
// convert into the first operand's currency. A value the accumulator
// cannot absorb (a unit amount against a currency total, say) is
// skipped rather than poisoning the whole sum. An empty input sums
// to 0.
func sumValues(ctx *Context, vals []value.Value) value.Value {
	if len(vals) == 0 {
		return value.Num(decimal.Zero)
	}
	acc := vals[0]
	for _, v := range vals[1:] {
		next := evalBinary(ctx, parser.OpAdd, acc, v)
		if next.IsError() {
			continue
		}
		acc = next
	}
	return acc
}

// extremum returns the smallest or largest value, comparing each
// candidate after conversion into the first value's currency or unit.
func extremum(ctx *Context, name string, vals []value.Value, better func(cmp int) bool) value.Value {
	if len(vals) == 0 {
		return value.Errorf("No values for %s", name)
	}
	best := vals[0]
	for _, v := range vals[1:] {
		// Subtraction normalizes v into best's tag family; the sign of
		// the difference is the comparison.
		diff := evalBinary(ctx, parser.OpSubtract, v, best)
		if diff.IsError() {
			return diff
		}
		amount, _ := diff.AsDecimal()
		if better(amount.Cmp(decimal.Zero)) {
			best = v
		}
	}
	return best
}

// mapAmount applies a numeric transform to a single argument,
// preserving its currency or unit tag.
func mapAmount(name string, args []value.Value, f func(decimal.Decimal) (decimal.Decimal, bool)) value.Value {
	if len(args) != 1 {
		return value.Errorf("Invalid operands")
	}
	amount, ok := args[0].AsDecimal()
	if !ok {
		return value.Errorf("Invalid operands")
	}
	out, ok := f(amount)
	if !ok {
		return value.Errorf("Invalid operands")
	}
	return args[0].WithScaledAmount(out)
}
