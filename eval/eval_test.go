package eval

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"nlcalc/parser"
	"nlcalc/value"
)

// evalLine parses and evaluates one expression line.
func evalLine(t *testing.T, ctx *Context, line string) value.Value {
	t.Helper()
	ast, err := parser.ParseExact(line)
	assert.NoError(t, err, "line %q", line)
	el, ok := ast.(parser.ExprLine)
	assert.True(t, ok, "line %q is not an expression", line)
	return Evaluate(ctx, el.Expr)
}

func TestEvaluate_Display(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"arithmetic", "2 + 3 * 4", "14"},
		{"division", "7 / 2", "3.50"},
		{"power", "2 ^ 10", "1024"},
		{"unary minus", "-5 + 3", "-2"},
		{"percent add", "100 + 10%", "110"},
		{"percent subtract", "110 - 10%", "99"},
		{"percent of", "20% of 150", "30"},
		{"percent of currency", "15% of $80", "$12.00"},
		{"percent times number", "50% * 80", "40"},
		{"trailing percent factor", "$80 * 50%", "40"},
		{"divide by percent", "100 / 10%", "1000"},
		{"percent exponent", "$100 ^ 10%", "1.58"},
		{"currency product", "$5 * $5", "$25.00"},
		{"cross currency product", "$2 * €46", "$100.00"},
		{"cross currency ratio", "$100 / €46", "2"},
		{"currency plus number", "$100 + 20", "$120.00"},
		{"currency times number", "$25 * 4", "$100.00"},
		{"number times currency", "3 * $25", "$75.00"},
		{"currency divided", "$100 / 4", "$25.00"},
		{"currency ratio", "$100 / $4", "25"},
		{"hours times rate", "45 h * 85 usd", "$3825.00"},
		{"unit plus unit", "1 km + 500 m", "1.50 km"},
		{"unit minus unit", "2 kg - 500 g", "1.50 kg"},
		{"unit times number", "5 km * 3", "15 km"},
		{"speed", "100 km / 2 h", "50 km/h"},
		{"area", "50 m * 1 m", "50 m²"},
		{"unit squared", "5 km ^ 2", "25 km²"},
		{"full cancellation", "10 km / 2 km", "5"},
		{"mixed cancellation scales", "1 km / 500 m", "2"},
		{"convert unit", "5 km in m", "5000 m"},
		{"convert temperature", "100 C to F", "212 F"},
		{"convert data", "1 GB in MB", "1024 MB"},
		{"convert speed", "36 km/h to m/s", "10 m/s"},
		{"number adopts unit", "100 in km", "100 km"},
		{"number adopts currency", "100 in usd", "$100.00"},
		{"currency conversion", "$100 in EUR", "€92.00"},
		{"currency conversion by alias", "$100 to euros", "€92.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := NewContext()
			got := evalLine(t, ctx, tt.line)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"division by zero", "5 / 0", "Error: Division by zero"},
		{"unit and currency", "$5 + 5 km", "Error: Cannot add currency and unit values"},
		{"incompatible units", "5 km + 5 kg", "Error: Cannot convert kg to km"},
		{"number divided by currency", "5 / $5", "Error: Invalid operands"},
		{"product without rate", "$5 * 5 CHF", "Error: No exchange rate for CHF to USD"},
		{"unknown variable", "nope + 1", "Error: Unknown variable: nope"},
		{"unknown function", "frobnicate(1)", "Error: Unknown function: frobnicate"},
		{"unknown conversion target", "5 in parsecs", "Error: Unknown unit or currency: parsecs"},
		{"unit to currency", "5 km in usd", "Error: Cannot convert unit to USD"},
		{"sqrt of negative", "sqrt(0 - 4)", "Error: Cannot take sqrt of negative number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := NewContext()
			got := evalLine(t, ctx, tt.line)
			assert.True(t, got.IsError(), "got %v", got)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestEvaluate_NoRate(t *testing.T) {
	ctx := NewContext()
	got := evalLine(t, ctx, "$5 in CHF")
	assert.Equal(t, "Error: No exchange rate for USD to CHF", got.String())
}

func TestEvaluate_TwoHopConversion(t *testing.T) {
	// EUR -> USD -> GBP via the default USD-base rates.
	ctx := NewContext()
	got := evalLine(t, ctx, "€92 in GBP")
	assert.Equal(t, value.KindCurrency, got.Kind())
	amount, _ := got.AsDecimal()
	// 92 / 0.92 * 0.79 = 79
	assert.True(t, amount.Sub(decimal.NewFromInt(79)).Abs().LessThan(decimal.RequireFromString("0.01")), "got %v", amount)
}

func TestEvaluate_Variables(t *testing.T) {
	ctx := NewContext()
	ctx.SetVar("tax", value.Pct(decimal.RequireFromString("0.08")))
	ctx.SetVar("price", value.Currency(decimal.NewFromInt(100), "USD"))

	got := evalLine(t, ctx, "price + tax")
	assert.Equal(t, "$108.00", got.String())

	got = evalLine(t, ctx, "3 tax")
	assert.Equal(t, "0.24", got.String())
}

func TestEvaluate_Functions(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"sum", "sum(1, 2, 3)", "6"},
		{"sum converts", "sum($10, €9.2)", "$20.00"},
		{"sum skips incompatible", "sum($10, 5 km, $20)", "$30.00"},
		{"avg", "avg(2, 4, 6)", "4"},
		{"min", "min(3, 1, 2)", "1"},
		{"max", "max(3 km, 5000 m)", "5000 m"},
		{"abs", "abs(0 - 5)", "5"},
		{"round", "round(2.6)", "3"},
		{"floor", "floor(2.6)", "2"},
		{"ceil", "ceil(2.2)", "3"},
		{"sqrt", "sqrt(16)", "4"},
		{"case insensitive", "SUM(1, 2)", "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := NewContext()
			got := evalLine(t, ctx, tt.line)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestEvaluate_AggregatesOverHistory(t *testing.T) {
	ctx := NewContext()
	ctx.History = []value.Value{
		value.Num(decimal.NewFromInt(10)),
		value.Num(decimal.NewFromInt(20)),
	}

	assert.Equal(t, "30", evalLine(t, ctx, "sum()").String())
	assert.Equal(t, "15", evalLine(t, ctx, "avg()").String())
	assert.Equal(t, "20", evalLine(t, ctx, "max()").String())
}

func TestEvaluate_EmptyAggregates(t *testing.T) {
	ctx := NewContext()
	assert.Equal(t, "0", evalLine(t, ctx, "sum()").String())
	assert.Equal(t, "0", evalLine(t, ctx, "avg()").String())
	assert.Equal(t, "Error: No values for min", evalLine(t, ctx, "min()").String())
}

func TestContext_VariableOrder(t *testing.T) {
	ctx := NewContext()
	ctx.SetVar("b", value.Num(decimal.NewFromInt(1)))
	ctx.SetVar("a", value.Num(decimal.NewFromInt(2)))
	ctx.SetVar("b", value.Num(decimal.NewFromInt(3)))

	vars := ctx.Variables()
	assert.Len(t, vars, 2)
	assert.Equal(t, "b", vars[0].Name)
	assert.Equal(t, "a", vars[1].Name)
	assert.Equal(t, "3", vars[0].Value.String())
}

func TestContext_CloneIsIndependent(t *testing.T) {
	ctx := NewContext()
	ctx.SetVar("x", value.Num(decimal.NewFromInt(1)))

	clone := ctx.Clone()
	clone.SetVar("x", value.Num(decimal.NewFromInt(99)))
	clone.SetVar("y", value.Num(decimal.NewFromInt(2)))

	got, ok := ctx.Var("x")
	assert.True(t, ok)
	assert.Equal(t, "1", got.String())
	_, ok = ctx.Var("y")
	assert.False(t, ok)
}
