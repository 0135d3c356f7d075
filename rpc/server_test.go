package rpc

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"nlcalc/session"
	"nlcalc/value"
)

func TestFromValue(t *testing.T) {
	kmh := mustEval(t, "100 km/h")
	tests := []struct {
		name string
		v    value.Value
		want Result
	}{
		{
			"number",
			value.Num(decimal.RequireFromString("42.5")),
			Result{Type: "number", Value: "42.5", Display: "42.50"},
		},
		{
			"percentage",
			value.Pct(decimal.RequireFromString("0.2")),
			Result{Type: "percentage", Value: "0.2", Display: "20%"},
		},
		{
			"currency",
			value.Currency(decimal.NewFromInt(50), "USD"),
			Result{Type: "currency", Value: "50", Unit: "USD", Display: "$50.00"},
		},
		{
			"compound unit",
			kmh,
			Result{Type: "unit", Value: "100", Unit: "km/h", Display: "100 km/h"},
		},
		{
			"error",
			value.Errorf("Division by zero"),
			Result{Type: "error", Message: "Division by zero", Display: "Error: Division by zero"},
		},
		{
			"empty",
			value.Empty(),
			Result{Type: "empty", Display: ""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromValue(tt.v))
		})
	}
}

func mustEval(t *testing.T, line string) value.Value {
	t.Helper()
	res := session.New().Evaluate(line)
	assert.False(t, res.Value.IsError(), "line %q: %v", line, res.Value)
	return res.Value
}

func call(t *testing.T, s *Server, name string, params string) any {
	t.Helper()
	h := map[string]method{
		"eval":          s.eval,
		"eval_lines":    s.evalLines,
		"clear":         s.clear,
		"get_totals":    s.getTotals,
		"get_variables": s.getVariables,
	}
	got, err := h[name](context.Background(), json.RawMessage(params))
	assert.NoError(t, err)
	return got
}

func TestServer_Eval(t *testing.T) {
	s := NewServer(session.New(), nil)

	got := call(t, s, "eval", `{"line": "$100 in EUR"}`)
	assert.Equal(t, Result{Type: "currency", Value: "92", Unit: "EUR", Display: "€92.00"}, got)
}

func TestServer_EvalLinesRestartsSession(t *testing.T) {
	calc := session.New()
	calc.Evaluate("stale = 1")
	s := NewServer(calc, nil)

	got := call(t, s, "eval_lines", `{"lines": ["tax = 8%", "$100 + tax", "stale"]}`)
	results, ok := got.([]Result)
	assert.True(t, ok)
	assert.Len(t, results, 3)
	assert.Equal(t, "8%", results[0].Display)
	assert.Equal(t, "$108.00", results[1].Display)
	// The old session state is gone.
	assert.Equal(t, "error", results[2].Type)
}

func TestServer_Totals(t *testing.T) {
	calc := session.New()
	calc.Evaluate("4000 m")
	calc.Evaluate("2 km")
	s := NewServer(calc, nil)

	got := call(t, s, "get_totals", ``)
	results, ok := got.([]Result)
	assert.True(t, ok)
	assert.Len(t, results, 1)
	assert.Equal(t, "6 km", results[0].Display)
}

func TestServer_Variables(t *testing.T) {
	calc := session.New()
	calc.Evaluate("x = 5")
	s := NewServer(calc, nil)

	got := call(t, s, "get_variables", ``)
	results, ok := got.([]Variable)
	assert.True(t, ok)
	assert.Len(t, results, 1)
	assert.Equal(t, "x", results[0].Name)
	assert.Equal(t, "5", results[0].Display)
}

func TestServer_Clear(t *testing.T) {
	calc := session.New()
	calc.Evaluate("10")
	s := NewServer(calc, nil)

	_ = call(t, s, "clear", ``)
	assert.Empty(t, calc.Results())
}

func TestServer_EvalInvalidParams(t *testing.T) {
	s := NewServer(session.New(), nil)
	_, err := s.eval(context.Background(), json.RawMessage(`[1, 2]`))
	assert.Equal(t, errInvalidParams, err)
}

func TestServer_ReloadRatesWithoutSource(t *testing.T) {
	s := NewServer(session.New(), nil)
	_, err := s.reloadRates(context.Background(), nil)
	assert.Error(t, err)
}
