package unit

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Unit
		ok   bool
	}{
		{"short name", "km", "km", true},
		{"short name upper", "KM", "km", true},
		{"alias", "miles", "mi", true},
		{"alias mixed case", "Hours", "h", true},
		{"inch long name", "inches", "in", true},
		{"data upper", "GB", "GB", true},
		{"data lower", "gb", "GB", true},
		{"unknown", "parsec", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name string
		v    string
		from Unit
		to   Unit
		want string
	}{
		{"km to m", "5", "km", "m", "5000"},
		{"m to km", "1500", "m", "km", "1.5"},
		{"hours to minutes", "2", "h", "min", "120"},
		{"gb to mb", "1", "GB", "MB", "1024"},
		{"celsius to fahrenheit", "100", "C", "F", "212"},
		{"fahrenheit to celsius", "32", "F", "C", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Convert(decimal.RequireFromString(tt.v), tt.from, tt.to)
			assert.True(t, ok)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %v", got)
		})
	}
}

func TestConvertKgToLb(t *testing.T) {
	got, ok := Convert(decimal.NewFromInt(1), "kg", "lb")
	assert.True(t, ok)
	want := decimal.RequireFromString("2.20462")
	assert.True(t, got.Sub(want).Abs().LessThan(decimal.RequireFromString("0.0001")), "got %v", got)
}

func TestConvertAcrossTypes(t *testing.T) {
	_, ok := Convert(decimal.NewFromInt(1), "km", "kg")
	assert.False(t, ok)
}

func TestConvertRoundTrip(t *testing.T) {
	v := decimal.RequireFromString("37.5")
	mid, ok := Convert(v, "C", "F")
	assert.True(t, ok)
	back, ok := Convert(mid, "F", "C")
	assert.True(t, ok)
	assert.True(t, v.Sub(back).Abs().LessThan(decimal.RequireFromString("0.0000001")), "got %v", back)
}

func TestDimensions(t *testing.T) {
	speed := Unit("km").Dimensions().Div(Unit("h").Dimensions())
	assert.Equal(t, Dimensions{Length: 1, Time: -1}, speed)

	area := Unit("m").Dimensions().Mul(Unit("m").Dimensions())
	assert.Equal(t, Dimensions{Length: 2}, area)

	assert.True(t, speed.Mul(Dimensions{Length: -1, Time: 1}).IsZero())
}
