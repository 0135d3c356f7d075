package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Code
		ok   bool
	}{
		{"dollar symbol", "$", "USD", true},
		{"euro symbol", "€", "EUR", true},
		{"code", "GBP", "GBP", true},
		{"code lower", "gbp", "GBP", true},
		{"alias", "euros", "EUR", true},
		{"alias mixed case", "Dollars", "USD", true},
		{"crypto alias", "bitcoin", "BTC", true},
		{"crypto symbol", "₿", "BTC", true},
		{"ruble symbol", "₽", "RUB", true},
		{"unknown", "XYZ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestYenIsJapanese(t *testing.T) {
	// CNY shares the ¥ symbol; the table order makes JPY win.
	code, ok := Parse("¥")
	assert.True(t, ok)
	assert.Equal(t, Code("JPY"), code)
}

func TestSymbolPlacement(t *testing.T) {
	assert.False(t, Code("USD").SymbolAfter())
	assert.True(t, Code("RUB").SymbolAfter())
	assert.True(t, Code("PLN").SymbolAfter())
}

func TestSymbolsLongestFirst(t *testing.T) {
	symbols := Symbols()
	for i := 1; i < len(symbols); i++ {
		assert.GreaterOrEqual(t, len(symbols[i-1]), len(symbols[i]))
	}
}
