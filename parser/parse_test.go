package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"nlcalc/unit"
)

var decimalComparer = cmp.Comparer(func(a, b decimal.Decimal) bool {
	return a.Equal(b)
})

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func num(s string) Expr { return NumberLit{Value: d(s)} }

func compound(name string) unit.Compound {
	c, ok := unit.ParseCompound(name)
	if !ok {
		panic("unknown compound " + name)
	}
	return c
}

func TestParseExact(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Ast
	}{
		{"empty", "", EmptyLine{}},
		{"comment", "# a comment", EmptyLine{}},
		{"slash comment", "// a comment", EmptyLine{}},
		{"number", "42", ExprLine{num("42")}},
		{"grouped number", "1,500.75", ExprLine{num("1500.75")}},
		{"space grouped number", "1 000 000", ExprLine{num("1000000")}},
		{
			"precedence",
			"2 + 3 * 4",
			ExprLine{BinaryExpr{OpAdd, num("2"), BinaryExpr{OpMultiply, num("3"), num("4")}}},
		},
		{
			"power is right associative",
			"2 ^ 3 ^ 2",
			ExprLine{BinaryExpr{OpPower, num("2"), BinaryExpr{OpPower, num("3"), num("2")}}},
		},
		{
			"parens",
			"(2 + 3) * 4",
			ExprLine{BinaryExpr{OpMultiply, BinaryExpr{OpAdd, num("2"), num("3")}, num("4")}},
		},
		{
			"unary minus",
			"-5",
			ExprLine{BinaryExpr{OpMultiply, num("-1"), num("5")}},
		},
		{"percent", "20%", ExprLine{PercentLit{Value: d("0.2")}}},
		{
			"percent of",
			"20% of 150",
			ExprLine{PercentOf{Percent: d("0.2"), Value: num("150")}},
		},
		{"symbol prefix", "$50", ExprLine{CurrencyLit{Amount: d("50"), Code: "USD"}}},
		{"symbol suffix", "50€", ExprLine{CurrencyLit{Amount: d("50"), Code: "EUR"}}},
		{"code suffix", "50 usd", ExprLine{CurrencyLit{Amount: d("50"), Code: "USD"}}},
		{"alias suffix", "30 euros", ExprLine{CurrencyLit{Amount: d("30"), Code: "EUR"}}},
		{"unit literal", "5 km", ExprLine{UnitLit{Amount: d("5"), Unit: "km"}}},
		{"unit alias", "45 hours", ExprLine{UnitLit{Amount: d("45"), Unit: "h"}}},
		{
			"compound literal",
			"100 km/h",
			ExprLine{CompoundLit{Amount: d("100"), Unit: compound("km/h")}},
		},
		{
			"compound alias literal",
			"50 m2",
			ExprLine{CompoundLit{Amount: d("50"), Unit: compound("m²")}},
		},
		{
			"slash after unit with number is division",
			"100 km / 2",
			ExprLine{BinaryExpr{OpDivide, UnitLit{Amount: d("100"), Unit: "km"}, num("2")}},
		},
		{
			"implicit multiplication",
			"3 tax",
			ExprLine{BinaryExpr{OpMultiply, num("3"), VarRef{Name: "tax"}}},
		},
		{
			"conversion",
			"5 km in m",
			ExprLine{Convert{Value: UnitLit{Amount: d("5"), Unit: "km"}, Target: "m"}},
		},
		{
			"conversion to compound",
			"10 m/s to km/h",
			ExprLine{Convert{Value: CompoundLit{Amount: d("10"), Unit: compound("m/s")}, Target: "km/h"}},
		},
		{
			"conversion binds loosest",
			"$50 to EUR + $50 to GBP",
			ExprLine{Convert{
				Value: BinaryExpr{
					OpAdd,
					Convert{Value: CurrencyLit{Amount: d("50"), Code: "USD"}, Target: "EUR"},
					CurrencyLit{Amount: d("50"), Code: "USD"},
				},
				Target: "GBP",
			}},
		},
		{"assignment", "x = 5", Assignment{Name: "x", Expr: num("5")}},
		{
			"assignment with expression",
			"price = $20 + 5%",
			Assignment{Name: "price", Expr: BinaryExpr{
				OpAdd,
				CurrencyLit{Amount: d("20"), Code: "USD"},
				PercentLit{Value: d("0.05")},
			}},
		},
		{"variable", "tax", ExprLine{VarRef{Name: "tax"}}},
		{"underscore variable", "_ + 5", ExprLine{BinaryExpr{OpAdd, VarRef{Name: "_"}, num("5")}}},
		{
			"call",
			"sum(1, 2)",
			ExprLine{Call{Name: "sum", Args: []Expr{num("1"), num("2")}}},
		},
		{"empty call", "total()", ExprLine{Call{Name: "total"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseExact(tt.in)
			assert.NoError(t, err)
			if diff := cmp.Diff(tt.want, got, decimalComparer); diff != "" {
				t.Errorf("ParseExact(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestParseExactErrors(t *testing.T) {
	for _, in := range []string{
		"2 +",
		"(2 + 3",
		"* 5",
		"sum(1,",
		"5 in",
		"note: 42",
	} {
		_, err := ParseExact(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestParseFuzzy(t *testing.T) {
	// Leading prose is discarded; the first grammatical suffix wins.
	got, err := Parse("lunch with friends 20% of 150")
	assert.NoError(t, err)
	want := Ast(ExprLine{PercentOf{Percent: d("0.2"), Value: num("150")}})
	if diff := cmp.Diff(want, got, decimalComparer); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	got, err = Parse("taxi ride $20")
	assert.NoError(t, err)
	want = ExprLine{CurrencyLit{Amount: d("20"), Code: "USD"}}
	if diff := cmp.Diff(want, got, decimalComparer); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFuzzy_RejectsBareTrailingWord(t *testing.T) {
	// "just some words" must not resolve to the variable "words".
	_, err := Parse("just some words")
	assert.ErrorIs(t, err, ErrUnparseable)
}

func TestParseFuzzy_WholeLineVariableSurvives(t *testing.T) {
	got, err := Parse("tax")
	assert.NoError(t, err)
	assert.Equal(t, ExprLine{VarRef{Name: "tax"}}, got)
}
