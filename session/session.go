// Package session holds the line-by-line calculator state: evaluated
// results in order, variable bindings, and the running totals. A
// session is what both the REPL and the RPC server talk to.
package session

import (
	"regexp"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"nlcalc/currency"
	"nlcalc/eval"
	"nlcalc/parser"
	"nlcalc/unit"
	"nlcalc/value"
)

// LineResult is the outcome of evaluating one input line.
type LineResult struct {
	// Input is the raw line as given.
	Input string

	// Value is the computed result; empty for blank lines, an error
	// value for failed ones.
	Value value.Value

	// ContinuationSource marks a result that a later line folded into
	// itself by referencing "_" or "ans". Such results are excluded
	// from totals so the amount is not counted twice.
	ContinuationSource bool
}

// Service is the calculator session API.
type Service interface {
	// Evaluate runs one line and records the result.
	Evaluate(line string) LineResult

	// EvaluatePreview runs one line against the current state without
	// recording anything.
	EvaluatePreview(line string) LineResult

	// Clear drops all results and variables. Exchange rates survive.
	Clear()

	// Variables returns the bindings in first-assignment order.
	Variables() []eval.NamedValue

	// SetVariable binds a variable directly, bypassing the parser.
	// Used to restore persisted state.
	SetVariable(name string, v value.Value)

	// Results returns every recorded line result in order.
	Results() []LineResult

	// Sum folds the non-consumed results into one running total,
	// skipping values the total cannot absorb.
	Sum() value.Value

	// GroupedTotals returns one total per value family: currency (in
	// the last currency seen) and one per unit dimension (in the last
	// unit seen for it). Plain numbers are covered by Sum, not here.
	GroupedTotals() []value.Value

	// SetExchangeRate records a manual exchange rate and its inverse.
	SetExchangeRate(from, to currency.Code, rate decimal.Decimal)

	// ApplyRawRates absorbs a completed rate fetch.
	ApplyRawRates(raw map[string]float64)
}

// ansRef matches an explicit reference to the previous result.
var ansRef = regexp.MustCompile(`(?i)\b(_|ans)\b`)

type session struct {
	mu      sync.Mutex
	ctx     *eval.Context
	results []LineResult
}

// New constructs an empty session with the default offline rates.
func New() Service {
	return &session{ctx: eval.NewContext()}
}

func (s *session) Evaluate(line string) LineResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eval(line, true)
}

func (s *session) EvaluatePreview(line string) LineResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eval(line, false)
}

// eval parses and evaluates one line. When commit is true the result
// is recorded, assignments are applied, and any consumed previous
// result is marked.
func (s *session) eval(line string, commit bool) LineResult {
	scratch := s.scratch()
	res := LineResult{Input: line}
	var assign *parser.Assignment

	v, continued := s.tryContinuation(scratch, line)
	if continued {
		res.Value = v
	} else {
		ast, err := parser.Parse(line)
		if err != nil {
			res.Value = value.Errorf("%v", err)
			if commit {
				s.results = append(s.results, res)
			}
			return res
		}
		switch n := ast.(type) {
		case parser.EmptyLine:
			res.Value = value.Empty()
		case parser.Assignment:
			res.Value = eval.Evaluate(scratch, n.Expr)
			assign = &n
		case parser.ExprLine:
			res.Value = eval.Evaluate(scratch, n.Expr)
		}
	}

	if !commit {
		return res
	}
	if (continued || ansRef.MatchString(line)) && !res.Value.IsError() {
		s.markLastConsumed()
	}
	if assign != nil && !res.Value.IsError() {
		s.ctx.SetVar(assign.Name, res.Value)
	}
	s.results = append(s.results, res)
	return res
}

// tryContinuation applies a line like "- 5" or "in m" to the previous
// result by parsing it with "_" prepended. The rewrite counts only if
// the whole thing parses as one expression and evaluates cleanly;
// anything else falls back to parsing the line on its own.
func (s *session) tryContinuation(scratch *eval.Context, line string) (value.Value, bool) {
	if _, ok := s.lastValue(); !ok {
		return value.Empty(), false
	}
	if strings.TrimSpace(line) == "" {
		return value.Empty(), false
	}
	ast, err := parser.ParseExact("_ " + line)
	if err != nil {
		return value.Empty(), false
	}
	el, ok := ast.(parser.ExprLine)
	if !ok {
		return value.Empty(), false
	}
	v := eval.Evaluate(scratch, el.Expr)
	if v.IsError() {
		return value.Empty(), false
	}
	return v, true
}

// scratch clones the evaluation context and binds the pseudo
// variables: the previous result and the running total. Cloning keeps
// them out of the user-visible variable listing.
func (s *session) scratch() *eval.Context {
	scratch := s.ctx.Clone()
	scratch.History = s.totalValues()
	if last, ok := s.lastValue(); ok {
		for _, name := range []string{"_", "ans", "Ans", "ANS"} {
			scratch.SetVar(name, last)
		}
	}
	scratch.SetVar("total", s.sumLocked())
	return scratch
}

// lastValue returns the most recent computed result, skipping blank
// and failed lines.
func (s *session) lastValue() (value.Value, bool) {
	for i := len(s.results) - 1; i >= 0; i-- {
		v := s.results[i].Value
		if !v.IsEmpty() && !v.IsError() {
			return v, true
		}
	}
	return value.Empty(), false
}

func (s *session) markLastConsumed() {
	for i := len(s.results) - 1; i >= 0; i-- {
		v := s.results[i].Value
		if !v.IsEmpty() && !v.IsError() {
			s.results[i].ContinuationSource = true
			return
		}
	}
}

// totalValues returns the values that count toward totals: computed,
// not consumed by a continuation.
func (s *session) totalValues() []value.Value {
	var vals []value.Value
	for _, r := range s.results {
		if r.ContinuationSource || r.Value.IsEmpty() || r.Value.IsError() {
			continue
		}
		vals = append(vals, r.Value)
	}
	return vals
}

func (s *session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	rates := s.ctx.Rates
	s.ctx = eval.NewContext()
	s.ctx.Rates = rates
	s.results = nil
}

func (s *session) Variables() []eval.NamedValue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx.Variables()
}

func (s *session) SetVariable(name string, v value.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx.SetVar(name, v)
}

func (s *session) Results() []LineResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LineResult(nil), s.results...)
}

func (s *session) Sum() value.Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sumLocked()
}

// sumLocked folds the countable values into one total. A value the
// accumulator cannot absorb (a unit amount against a currency total,
// say) is skipped rather than poisoning the whole sum.
func (s *session) sumLocked() value.Value {
	acc := value.Num(decimal.Zero)
	first := true
	for _, v := range s.totalValues() {
		if first {
			acc = v
			first = false
			continue
		}
		next := eval.Add(s.ctx, acc, v)
		if next.IsError() {
			continue
		}
		acc = next
	}
	return acc
}

// GroupedTotals reports one currency total, expressed in the last
// currency the session saw, and one total per unit dimension in the
// last unit seen for it. Plain numbers belong to Sum, not here.
func (s *session) GroupedTotals() []value.Value {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		curVals    []value.Value
		curCode    currency.Code
		unitTotals []unitTotal
	)

	for _, v := range s.totalValues() {
		switch {
		case v.Kind() == value.KindCurrency:
			curVals = append(curVals, v)
			curCode = v.Code()
		case v.HasUnit():
			unitTotals = addUnitTotal(unitTotals, v)
		}
	}

	var out []value.Value
	if len(curVals) > 0 {
		total := decimal.Zero
		for _, v := range curVals {
			amount, _ := v.AsDecimal()
			if rate, ok := s.ctx.Rates.Rate(v.Code(), curCode); ok {
				total = total.Add(amount.Mul(rate))
			} else {
				// No rate: count the raw amount rather than dropping it.
				total = total.Add(amount)
			}
		}
		out = append(out, value.Currency(total, curCode))
	}
	sortUnitTotals(unitTotals)
	for _, t := range unitTotals {
		total := decimal.Zero
		for _, v := range t.vals {
			amount, _ := v.AsDecimal()
			if converted, ok := unit.ConvertCompound(amount, v.Compound(), t.comp); ok {
				total = total.Add(converted)
			}
		}
		if u, ok := unit.Parse(t.comp.Symbol); ok && u.String() == t.comp.Symbol {
			out = append(out, value.WithUnit(total, u))
		} else {
			out = append(out, value.WithCompound(total, t.comp))
		}
	}
	return out
}

// unitTotal collects the values of one dimension. comp tracks the last
// unit seen, which is the one the total is expressed in.
type unitTotal struct {
	comp unit.Compound
	vals []value.Value
}

func addUnitTotal(totals []unitTotal, v value.Value) []unitTotal {
	comp := v.Compound()
	for i := range totals {
		if totals[i].comp.Dims != comp.Dims {
			continue
		}
		totals[i].comp = comp
		totals[i].vals = append(totals[i].vals, v)
		return totals
	}
	return append(totals, unitTotal{comp: comp, vals: []value.Value{v}})
}

// sortUnitTotals orders the simple dimensions by their category
// (length, mass, time, data, temperature); computed dimensions keep
// first-seen order after them.
func sortUnitTotals(totals []unitTotal) {
	rank := func(d unit.Dimensions) int {
		for _, def := range unit.All() {
			if def.Unit.Dimensions() == d {
				return int(def.Type)
			}
		}
		return len(unit.All())
	}
	for i := 1; i < len(totals); i++ {
		for j := i; j > 0 && rank(totals[j].comp.Dims) < rank(totals[j-1].comp.Dims); j-- {
			totals[j], totals[j-1] = totals[j-1], totals[j]
		}
	}
}

func (s *session) SetExchangeRate(from, to currency.Code, rate decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx.Rates.SetRate(from, to, rate)
}

func (s *session) ApplyRawRates(raw map[string]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx.Rates.ApplyRaw(raw)
}
