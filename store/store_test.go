package store

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"nlcalc/eval"
	"nlcalc/value"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nlcalc.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestStore_RoundTrip(t *testing.T) {
	s := tempStore(t)

	vars := []eval.NamedValue{
		{Name: "tax", Value: value.Pct(d("0.08"))},
		{Name: "budget", Value: value.Currency(d("500"), "EUR")},
		{Name: "distance", Value: value.WithUnit(d("42.5"), "km")},
		{Name: "count", Value: value.Num(d("3"))},
	}
	assert.NoError(t, s.SaveVariables(vars))

	got, err := s.LoadVariables()
	assert.NoError(t, err)
	assert.Len(t, got, 4)

	// Order is preserved even though bolt iterates keys alphabetically.
	assert.Equal(t, "tax", got[0].Name)
	assert.Equal(t, "budget", got[1].Name)
	assert.Equal(t, "distance", got[2].Name)
	assert.Equal(t, "count", got[3].Name)

	assert.Equal(t, "8%", got[0].Value.String())
	assert.Equal(t, "€500.00", got[1].Value.String())
	assert.Equal(t, "42.50 km", got[2].Value.String())
	assert.Equal(t, "3", got[3].Value.String())
}

func TestStore_SaveReplaces(t *testing.T) {
	s := tempStore(t)

	assert.NoError(t, s.SaveVariables([]eval.NamedValue{
		{Name: "old", Value: value.Num(d("1"))},
	}))
	assert.NoError(t, s.SaveVariables([]eval.NamedValue{
		{Name: "new", Value: value.Num(d("2"))},
	}))

	got, err := s.LoadVariables()
	assert.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Name)
}

func TestStore_SkipsUnstorableValues(t *testing.T) {
	s := tempStore(t)

	assert.NoError(t, s.SaveVariables([]eval.NamedValue{
		{Name: "bad", Value: value.Errorf("boom")},
		{Name: "good", Value: value.Num(d("1"))},
	}))

	got, err := s.LoadVariables()
	assert.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "good", got[0].Name)
}

func TestStore_EmptyDatabase(t *testing.T) {
	s := tempStore(t)

	got, err := s.LoadVariables()
	assert.NoError(t, err)
	assert.Empty(t, got)
}
