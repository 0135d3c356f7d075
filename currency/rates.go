package currency

import (
	"github.com/shopspring/decimal"
)

// RateGraph is a mutable store of exchange rates keyed by ordered
// currency pair. Setting (A,B)=r also sets (B,A)=1/r unless r is zero.
// The graph is not transitively consistent; only explicitly set and
// explicitly reachable pairs resolve.
type RateGraph struct {
	edges map[Code]map[Code]decimal.Decimal
}

// NewRateGraph returns an empty rate graph.
func NewRateGraph() *RateGraph {
	return &RateGraph{edges: map[Code]map[Code]decimal.Decimal{}}
}

// SetRate records an exchange rate and its inverse.
func (g *RateGraph) SetRate(from, to Code, rate decimal.Decimal) {
	g.set(from, to, rate)
	if !rate.IsZero() {
		g.set(to, from, decimal.NewFromInt(1).Div(rate))
	}
}

func (g *RateGraph) set(from, to Code, rate decimal.Decimal) {
	m, ok := g.edges[from]
	if !ok {
		m = map[Code]decimal.Decimal{}
		g.edges[from] = m
	}
	m[to] = rate
}

// Rate resolves an exchange rate from one currency to another. The
// identity rate is returned when from == to; otherwise the graph is
// searched breadth-first over the known edges, accumulating the
// product of edge rates along the discovered path. This is a
// reachability search, not a best-path search: when several paths
// exist the first one found in BFS order wins. The second result is
// false iff to is unreachable from from.
func (g *RateGraph) Rate(from, to Code) (decimal.Decimal, bool) {
	if from == to {
		return decimal.NewFromInt(1), true
	}
	queue := []Code{from}
	acc := map[Code]decimal.Decimal{from: decimal.NewFromInt(1)}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == to {
			return acc[cur], true
		}
		for next, rate := range g.edges[cur] {
			if _, seen := acc[next]; seen {
				continue
			}
			acc[next] = acc[cur].Mul(rate)
			queue = append(queue, next)
		}
	}
	return decimal.Zero, false
}

// ApplyRaw absorbs a completed rate fetch. Fiat codes mean
// "1 USD = X units"; crypto codes mean "1 TOKEN = X USD". Unknown
// codes are skipped.
func (g *RateGraph) ApplyRaw(raw map[string]float64) {
	for code, rate := range raw {
		c, ok := Parse(code)
		if !ok || c == "USD" {
			continue
		}
		d := decimal.NewFromFloat(rate)
		if c.Crypto() {
			g.SetRate(c, "USD", d)
		} else {
			g.SetRate("USD", c, d)
		}
	}
}

// LoadDefaults seeds approximate USD-base rates so the engine works
// with no network and no cache.
func (g *RateGraph) LoadDefaults() {
	g.SetRate("USD", "EUR", decimal.RequireFromString("0.92"))
	g.SetRate("USD", "GBP", decimal.RequireFromString("0.79"))
	g.SetRate("USD", "JPY", decimal.RequireFromString("149.50"))
	g.SetRate("USD", "RUB", decimal.RequireFromString("92.0"))
	g.SetRate("USD", "ILS", decimal.RequireFromString("3.65"))
	g.SetRate("BTC", "USD", decimal.RequireFromString("60000"))
}
