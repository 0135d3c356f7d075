// Package currency holds the fixed currency registry and the exchange
// rate graph. The registry is a closed table of fiat and crypto codes;
// parsing and display are table lookups, never heuristic.
//
// To add a new currency, add an entry to the currencies table.
package currency

import "strings"

// Code is an ISO 4217 currency code (or the conventional ticker for
// crypto assets), e.g. "USD" or "BTC".
type Code string

// Def is the registry metadata for a currency.
type Def struct {
	Code    Code
	Symbol  string
	Aliases []string
	// SymbolAfter places the symbol after the amount ("100₽" vs "$100").
	SymbolAfter bool
	Crypto      bool
	// PriceID is the external price API identifier for crypto assets.
	PriceID string
}

// currencies is the fixed registry, immutable for the life of the
// process. Parse resolves by table order, first match wins.
var currencies = []Def{
	// Fiat
	{Code: "USD", Symbol: "$", Aliases: []string{"$", "usd", "dollars"}},
	{Code: "EUR", Symbol: "€", Aliases: []string{"€", "eur", "euros"}},
	{Code: "GBP", Symbol: "£", Aliases: []string{"£", "gbp", "pounds"}},
	{Code: "JPY", Symbol: "¥", Aliases: []string{"¥", "jpy", "yen"}},
	{Code: "CHF", Symbol: "CHF", Aliases: []string{"chf", "francs"}},
	{Code: "CNY", Symbol: "¥", Aliases: []string{"cny", "rmb", "yuan"}},
	{Code: "CAD", Symbol: "C$", Aliases: []string{"cad"}},
	{Code: "AUD", Symbol: "A$", Aliases: []string{"aud"}},
	{Code: "INR", Symbol: "₹", Aliases: []string{"₹", "inr", "rupees"}},
	{Code: "KRW", Symbol: "₩", Aliases: []string{"₩", "krw", "won"}},
	{Code: "RUB", Symbol: "₽", Aliases: []string{"₽", "rub", "rubles"}, SymbolAfter: true},
	{Code: "ILS", Symbol: "₪", Aliases: []string{"₪", "ils", "shekels"}},
	{Code: "PLN", Symbol: "zł", Aliases: []string{"zł", "pln", "zloty"}, SymbolAfter: true},
	{Code: "UAH", Symbol: "₴", Aliases: []string{"₴", "uah", "hryvnia"}},
	// Crypto
	{Code: "BTC", Symbol: "₿", Aliases: []string{"₿", "btc", "bitcoin"}, Crypto: true, PriceID: "bitcoin"},
	{Code: "ETH", Symbol: "Ξ", Aliases: []string{"Ξ", "eth", "ethereum", "ether"}, Crypto: true, PriceID: "ethereum"},
	{Code: "SOL", Symbol: "◎", Aliases: []string{"◎", "sol", "solana"}, Crypto: true, PriceID: "solana"},
	{Code: "USDT", Symbol: "₮", Aliases: []string{"₮", "usdt", "tether"}, Crypto: true, PriceID: "tether"},
	{Code: "USDC", Symbol: "USDC", Aliases: []string{"usdc"}, Crypto: true, PriceID: "usd-coin"},
	{Code: "BNB", Symbol: "BNB", Aliases: []string{"bnb", "binance"}, Crypto: true, PriceID: "binancecoin"},
	{Code: "XRP", Symbol: "XRP", Aliases: []string{"xrp", "ripple"}, Crypto: true, PriceID: "ripple"},
	{Code: "ADA", Symbol: "₳", Aliases: []string{"₳", "ada", "cardano"}, Crypto: true, PriceID: "cardano"},
	{Code: "DOGE", Symbol: "Ð", Aliases: []string{"Ð", "doge", "dogecoin"}, Crypto: true, PriceID: "dogecoin"},
	{Code: "DOT", Symbol: "DOT", Aliases: []string{"dot", "polkadot"}, Crypto: true, PriceID: "polkadot"},
	{Code: "LTC", Symbol: "Ł", Aliases: []string{"Ł", "ltc", "litecoin"}, Crypto: true, PriceID: "litecoin"},
	{Code: "LINK", Symbol: "LINK", Aliases: []string{"link", "chainlink"}, Crypto: true, PriceID: "chainlink"},
	{Code: "AVAX", Symbol: "AVAX", Aliases: []string{"avax", "avalanche"}, Crypto: true, PriceID: "avalanche-2"},
	{Code: "MATIC", Symbol: "MATIC", Aliases: []string{"matic", "polygon"}, Crypto: true, PriceID: "polygon-ecosystem-token"},
	{Code: "TON", Symbol: "TON", Aliases: []string{"ton", "toncoin"}, Crypto: true, PriceID: "the-open-network"},
}

// Def returns the registry entry for c, or nil if c is not registered.
func (c Code) Def() *Def {
	for i := range currencies {
		if currencies[i].Code == c {
			return &currencies[i]
		}
	}
	return nil
}

// Symbol returns the display symbol for the currency.
func (c Code) Symbol() string { return c.Def().Symbol }

// SymbolAfter reports whether the symbol is placed after the amount.
func (c Code) SymbolAfter() bool { return c.Def().SymbolAfter }

// Crypto reports whether the currency is a crypto asset.
func (c Code) Crypto() bool { return c.Def().Crypto }

// PriceID returns the external price API identifier, empty for fiat.
func (c Code) PriceID() string { return c.Def().PriceID }

func (c Code) String() string { return string(c) }

// Parse matches a token against symbol, ISO code (case-insensitive) or
// alias list, first match in table order wins. The second result is
// false if the token matches nothing.
func Parse(s string) (Code, bool) {
	lower := strings.ToLower(s)
	for i := range currencies {
		d := &currencies[i]
		if d.Symbol == s || strings.EqualFold(string(d.Code), s) {
			return d.Code, true
		}
		for _, a := range d.Aliases {
			if a == lower || a == s {
				return d.Code, true
			}
		}
	}
	return "", false
}

// All returns the registry entries in table order.
func All() []Def {
	return currencies
}

// Symbols returns every registered display symbol, longest first, for
// lexers that need to match symbols greedily.
func Symbols() []string {
	out := make([]string, 0, len(currencies))
	for i := range currencies {
		out = append(out, currencies[i].Symbol)
	}
	// Insertion sort by descending length; the table is small.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && len(out[j]) > len(out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
