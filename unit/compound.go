package unit

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Compound is a unit with a scale factor and a dimension-exponent
// vector, supporting composition (e.g. km/h, m²). Factor and Offset
// convert to the canonical base representation the same way a simple
// unit does; composed units always carry a zero offset.
type Compound struct {
	Factor decimal.Decimal
	Offset decimal.Decimal
	Dims   Dimensions
	Symbol string
}

// named compound units. These provide parse targets ("5 km in km/h" is
// nonsense, but "100 km/h" and "x in m/s" are not) and preferred
// symbols when a computed unit lands on a well-known combination.
var compounds = []Compound{
	{Factor: decimal.NewFromInt(1), Offset: zero, Dims: Dimensions{Length: 1, Time: -1}, Symbol: "m/s"},
	{Factor: factor("1000").Div(factor("3600")), Offset: zero, Dims: Dimensions{Length: 1, Time: -1}, Symbol: "km/h"},
	{Factor: factor("1609.344").Div(factor("3600")), Offset: zero, Dims: Dimensions{Length: 1, Time: -1}, Symbol: "mph"},
	{Factor: decimal.NewFromInt(1), Offset: zero, Dims: Dimensions{Length: 2}, Symbol: "m²"},
	{Factor: factor("1000000"), Offset: zero, Dims: Dimensions{Length: 2}, Symbol: "km²"},
	{Factor: factor("0.0001"), Offset: zero, Dims: Dimensions{Length: 2}, Symbol: "cm²"},
	{Factor: factor("0.09290304"), Offset: zero, Dims: Dimensions{Length: 2}, Symbol: "ft²"},
}

var compoundAliases = map[string]string{
	"m/s":  "m/s",
	"mps":  "m/s",
	"km/h": "km/h",
	"kmh":  "km/h",
	"kph":  "km/h",
	"mph":  "mph",
	"mi/h": "mph",
	"m²":   "m²",
	"m2":   "m²",
	"sqm":  "m²",
	"km²":  "km²",
	"km2":  "km²",
	"cm²":  "cm²",
	"cm2":  "cm²",
	"ft²":  "ft²",
	"ft2":  "ft²",
	"sqft": "ft²",
}

// Compound lifts a simple unit into its compound representation.
func (u Unit) Compound() Compound {
	d := u.Def()
	return Compound{Factor: d.Factor, Offset: d.Offset, Dims: d.Type.dims(), Symbol: string(u)}
}

// ParseCompound resolves a unit name to a compound unit. Simple unit
// names resolve first, then named compounds (slash spellings like
// "km/h" included). The second result is false if the name is unknown.
func ParseCompound(s string) (Compound, bool) {
	if u, ok := Parse(s); ok {
		return u.Compound(), true
	}
	if sym, ok := compoundAliases[strings.ToLower(s)]; ok {
		for _, c := range compounds {
			if c.Symbol == sym {
				return c, true
			}
		}
	}
	return Compound{}, false
}

// Mul composes two compound units, combining dimensions and factors
// and resynthesizing a display symbol.
func (c Compound) Mul(o Compound) Compound {
	r := Compound{
		Factor: c.Factor.Mul(o.Factor),
		Offset: zero,
		Dims:   c.Dims.Mul(o.Dims),
	}
	r.Symbol = synthesizeSymbol(r, c.Symbol, o.Symbol, "·")
	return r
}

// Div composes c divided by o.
func (c Compound) Div(o Compound) Compound {
	r := Compound{
		Factor: c.Factor.Div(o.Factor),
		Offset: zero,
		Dims:   c.Dims.Div(o.Dims),
	}
	r.Symbol = synthesizeSymbol(r, c.Symbol, o.Symbol, "/")
	return r
}

// Pow raises a compound unit to an integer power.
func (c Compound) Pow(n int8) Compound {
	r := Compound{Factor: one, Offset: zero, Dims: c.Dims.Pow(n)}
	for i := int8(0); i < n; i++ {
		r.Factor = r.Factor.Mul(c.Factor)
	}
	r.Symbol = synthesizeSymbol(r, c.Symbol, c.Symbol, "·")
	return r
}

func (c Compound) String() string { return c.Symbol }

// ConvertCompound converts a value between two compound units. The
// second result is false iff the dimension vectors differ.
func ConvertCompound(v decimal.Decimal, from, to Compound) (decimal.Decimal, bool) {
	if from.Dims != to.Dims {
		return decimal.Zero, false
	}
	base := v.Add(from.Offset).Mul(from.Factor)
	return base.Div(to.Factor).Sub(to.Offset), true
}

// factorTolerance is the relative tolerance used when matching a
// computed factor against a registered unit (0.1%).
const factorTolerance = 0.001

// synthesizeSymbol prefers an exact registry match for the composed
// unit over a synthesized a·b / a/b / a² string.
func synthesizeSymbol(c Compound, left, right, op string) string {
	if sym, ok := registryMatch(c); ok {
		return sym
	}
	if op == "·" && left == right {
		return left + "²"
	}
	return left + op + right
}

// registryMatch scans simple units and named compounds for one with
// the same dimensions and a factor within tolerance.
func registryMatch(c Compound) (string, bool) {
	want := c.Factor.InexactFloat64()
	for i := range units {
		d := &units[i]
		if d.Type.dims() == c.Dims && d.Offset.IsZero() && closeEnough(d.Factor.InexactFloat64(), want) {
			return string(d.Unit), true
		}
	}
	for _, r := range compounds {
		if r.Dims == c.Dims && closeEnough(r.Factor.InexactFloat64(), want) {
			return r.Symbol, true
		}
	}
	return "", false
}

func closeEnough(have, want float64) bool {
	if have == want {
		return true
	}
	if have == 0 || want == 0 {
		return false
	}
	diff := have - want
	if diff < 0 {
		diff = -diff
	}
	ref := want
	if ref < 0 {
		ref = -ref
	}
	return diff/ref <= factorTolerance
}
