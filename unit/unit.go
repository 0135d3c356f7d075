// Package unit implements the physical unit registry and the
// dimensional algebra used to compose and convert quantities.
//
// To add a new unit, add an entry to the units table. Parsing, display
// and conversion pick it up automatically.
package unit

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Dimensions is an exponent vector over the base physical dimensions.
// Two quantities are addable only if their Dimensions are equal.
type Dimensions struct {
	Length      int8
	Mass        int8
	Time        int8
	Temperature int8
	Data        int8
}

// Zero is the dimensionless vector.
var Zero = Dimensions{}

// Mul adds exponents componentwise.
func (d Dimensions) Mul(o Dimensions) Dimensions {
	return Dimensions{
		Length:      d.Length + o.Length,
		Mass:        d.Mass + o.Mass,
		Time:        d.Time + o.Time,
		Temperature: d.Temperature + o.Temperature,
		Data:        d.Data + o.Data,
	}
}

// Div subtracts exponents componentwise.
func (d Dimensions) Div(o Dimensions) Dimensions {
	return Dimensions{
		Length:      d.Length - o.Length,
		Mass:        d.Mass - o.Mass,
		Time:        d.Time - o.Time,
		Temperature: d.Temperature - o.Temperature,
		Data:        d.Data - o.Data,
	}
}

// Pow scales all exponents by n.
func (d Dimensions) Pow(n int8) Dimensions {
	return Dimensions{
		Length:      d.Length * n,
		Mass:        d.Mass * n,
		Time:        d.Time * n,
		Temperature: d.Temperature * n,
		Data:        d.Data * n,
	}
}

// IsZero reports whether d is dimensionless.
func (d Dimensions) IsZero() bool {
	return d == Zero
}

// Type is a unit category. The ordering is the display ordering used
// when totals are grouped by type.
type Type int

const (
	TypeLength Type = iota
	TypeMass
	TypeTime
	TypeData
	TypeTemperature
)

func (t Type) String() string {
	switch t {
	case TypeLength:
		return "length"
	case TypeMass:
		return "mass"
	case TypeTime:
		return "time"
	case TypeData:
		return "data"
	case TypeTemperature:
		return "temperature"
	}
	return "unknown"
}

// dims returns the dimension vector for a base quantity of this type.
func (t Type) dims() Dimensions {
	switch t {
	case TypeLength:
		return Dimensions{Length: 1}
	case TypeMass:
		return Dimensions{Mass: 1}
	case TypeTime:
		return Dimensions{Time: 1}
	case TypeData:
		return Dimensions{Data: 1}
	case TypeTemperature:
		return Dimensions{Temperature: 1}
	}
	return Zero
}

// Unit is the canonical short name of a registered simple unit, e.g.
// "km" or "h". The zero value is not a valid unit.
type Unit string

// Def is the registry metadata for a simple unit. Factor and Offset
// convert a value to the base unit of its type via
// base = (value + offset) * factor. Only temperature units use a
// non-zero offset.
type Def struct {
	Unit    Unit
	Type    Type
	Factor  decimal.Decimal
	Offset  decimal.Decimal
	Aliases []string
}

var (
	one  = decimal.NewFromInt(1)
	zero = decimal.Zero

	// 5/9, the Fahrenheit scale factor.
	fahrenheitFactor = decimal.NewFromInt(5).Div(decimal.NewFromInt(9))
)

func factor(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// units is the fixed registry, seeded once and never mutated at
// runtime. Parse resolves names by table order.
var units = []Def{
	// Length (base: meter)
	{Unit: "km", Type: TypeLength, Factor: factor("1000"), Offset: zero, Aliases: []string{"km"}},
	{Unit: "m", Type: TypeLength, Factor: one, Offset: zero, Aliases: []string{"m"}},
	{Unit: "cm", Type: TypeLength, Factor: factor("0.01"), Offset: zero, Aliases: []string{"cm"}},
	{Unit: "mm", Type: TypeLength, Factor: factor("0.001"), Offset: zero, Aliases: []string{"mm"}},
	{Unit: "mi", Type: TypeLength, Factor: factor("1609.344"), Offset: zero, Aliases: []string{"mi", "mile", "miles"}},
	{Unit: "ft", Type: TypeLength, Factor: factor("0.3048"), Offset: zero, Aliases: []string{"ft", "foot", "feet"}},
	// "in" is reserved by the conversion grammar, so inches only parse
	// by their long names.
	{Unit: "in", Type: TypeLength, Factor: factor("0.0254"), Offset: zero, Aliases: []string{"inch", "inches"}},
	// Mass (base: gram)
	{Unit: "kg", Type: TypeMass, Factor: factor("1000"), Offset: zero, Aliases: []string{"kg"}},
	{Unit: "g", Type: TypeMass, Factor: one, Offset: zero, Aliases: []string{"g"}},
	{Unit: "mg", Type: TypeMass, Factor: factor("0.001"), Offset: zero, Aliases: []string{"mg"}},
	{Unit: "lb", Type: TypeMass, Factor: factor("453.592"), Offset: zero, Aliases: []string{"lb", "lbs", "pound", "pounds"}},
	{Unit: "oz", Type: TypeMass, Factor: factor("28.3495"), Offset: zero, Aliases: []string{"oz", "ounce", "ounces"}},
	// Time (base: second)
	{Unit: "mo", Type: TypeTime, Factor: factor("2629746"), Offset: zero, Aliases: []string{"mo", "month", "months"}},
	{Unit: "wk", Type: TypeTime, Factor: factor("604800"), Offset: zero, Aliases: []string{"wk", "week", "weeks"}},
	{Unit: "d", Type: TypeTime, Factor: factor("86400"), Offset: zero, Aliases: []string{"d", "day", "days"}},
	{Unit: "h", Type: TypeTime, Factor: factor("3600"), Offset: zero, Aliases: []string{"h", "hr", "hour", "hours"}},
	{Unit: "min", Type: TypeTime, Factor: factor("60"), Offset: zero, Aliases: []string{"min", "minute", "minutes"}},
	{Unit: "s", Type: TypeTime, Factor: one, Offset: zero, Aliases: []string{"s", "sec", "second", "seconds"}},
	// Data (base: byte)
	{Unit: "TB", Type: TypeData, Factor: factor("1099511627776"), Offset: zero, Aliases: []string{"tb"}},
	{Unit: "GB", Type: TypeData, Factor: factor("1073741824"), Offset: zero, Aliases: []string{"gb"}},
	{Unit: "MB", Type: TypeData, Factor: factor("1048576"), Offset: zero, Aliases: []string{"mb"}},
	{Unit: "KB", Type: TypeData, Factor: factor("1024"), Offset: zero, Aliases: []string{"kb"}},
	{Unit: "B", Type: TypeData, Factor: one, Offset: zero, Aliases: []string{"b", "byte", "bytes"}},
	// Temperature (base: Celsius)
	{Unit: "C", Type: TypeTemperature, Factor: one, Offset: zero, Aliases: []string{"c", "celsius"}},
	{Unit: "F", Type: TypeTemperature, Factor: fahrenheitFactor, Offset: factor("-32"), Aliases: []string{"f", "fahrenheit"}},
}

// Def returns the registry entry for u, or nil if u is not registered.
func (u Unit) Def() *Def {
	for i := range units {
		if units[i].Unit == u {
			return &units[i]
		}
	}
	return nil
}

// Type returns the unit category.
func (u Unit) Type() Type { return u.Def().Type }

// Dimensions returns the dimension vector of the unit.
func (u Unit) Dimensions() Dimensions { return u.Def().Type.dims() }

func (u Unit) String() string { return string(u) }

// Parse resolves a unit name against the registry, matching the short
// name case-insensitively or any alias in lowercase. The second result
// is false if the name is unknown.
func Parse(s string) (Unit, bool) {
	lower := strings.ToLower(s)
	for i := range units {
		d := &units[i]
		if strings.EqualFold(string(d.Unit), s) {
			return d.Unit, true
		}
		for _, a := range d.Aliases {
			if a == lower {
				return d.Unit, true
			}
		}
	}
	return "", false
}

// All returns the registry entries in table order.
func All() []Def {
	return units
}

// Convert converts a value between two simple units. The second result
// is false iff the units belong to different types.
func Convert(v decimal.Decimal, from, to Unit) (decimal.Decimal, bool) {
	fd, td := from.Def(), to.Def()
	if fd == nil || td == nil || fd.Type != td.Type {
		return decimal.Zero, false
	}
	base := v.Add(fd.Offset).Mul(fd.Factor)
	return base.Div(td.Factor).Sub(td.Offset), true
}
