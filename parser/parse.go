// Package parser turns one line of free-form input into an AST.
//
// The grammar is deliberately tolerant: unknown suffixes become
// implicit multiplications, and a line that fails to parse is retried
// on every suffix so that leading prose ("note: 20% of 150") is
// silently discarded.
package parser

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"nlcalc/currency"
	"nlcalc/unit"
)

// ErrUnparseable is returned when no suffix of the line is
// grammatical.
var ErrUnparseable = errors.New("could not understand line")

// ParseError describes a grammar violation at a token position.
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return "parse error at position " + strconv.Itoa(e.Pos) + ": " + e.Msg
}

// Parse parses a line, falling back to fuzzy-suffix recovery: if the
// full line fails, every non-empty character-offset suffix is retried
// left to right and the first successful parse wins. A suffix that
// reduces to a bare variable reference is rejected so that a trailing
// prose word cannot masquerade as a result.
func Parse(line string) (Ast, error) {
	ast, err := ParseExact(line)
	if err == nil {
		return ast, nil
	}
	runes := []rune(line)
	for i := 1; i < len(runes); i++ {
		suffix := string(runes[i:])
		if strings.TrimSpace(suffix) == "" {
			continue
		}
		a, err := ParseExact(suffix)
		if err != nil {
			continue
		}
		if isBareVariable(a) && strings.TrimSpace(suffix) != strings.TrimSpace(line) {
			continue
		}
		return a, nil
	}
	return nil, ErrUnparseable
}

// ParseExact parses the whole line with no fuzzy recovery.
func ParseExact(line string) (Ast, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "//") {
		return EmptyLine{}, nil
	}
	toks, err := lexAll(line)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}

	// Assignment requires "ident =" at the very start.
	if p.peek().kind == tokIdent && p.peekAt(1).kind == tokAssign {
		name := p.next().text
		p.next() // "="
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectEOF(); err != nil {
			return nil, err
		}
		return Assignment{Name: name, Expr: expr}, nil
	}

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectEOF(); err != nil {
		return nil, err
	}
	return ExprLine{Expr: expr}, nil
}

func isBareVariable(a Ast) bool {
	e, ok := a.(ExprLine)
	if !ok {
		return false
	}
	_, ok = e.Expr.(VarRef)
	return ok
}

type parser struct {
	toks []token
	i    int
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) peekAt(n int) token {
	if p.i+n >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[p.i+n]
}

func (p *parser) next() token {
	tok := p.toks[p.i]
	if tok.kind != tokEOF {
		p.i++
	}
	return tok
}

func (p *parser) expectEOF() error {
	if tok := p.peek(); tok.kind != tokEOF {
		return &ParseError{Pos: tok.pos, Msg: "unexpected " + strconv.Quote(tok.text)}
	}
	return nil
}

func (p *parser) fail(msg string) error {
	return &ParseError{Pos: p.peek().pos, Msg: msg}
}

func isKeyword(tok token, words ...string) bool {
	if tok.kind != tokIdent {
		return false
	}
	for _, w := range words {
		if strings.EqualFold(tok.text, w) {
			return true
		}
	}
	return false
}

// parseExpr parses the loosest precedence level: addition, subtraction
// and the "in"/"to" conversion pseudo-operator, all left-associative
// in one class. "$50 to EUR + $50 to GBP" therefore folds as
// (($50 to EUR) + $50) to GBP.
func (p *parser) parseExpr() (Expr, error) {
	left, err := p.parseMulDiv()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		switch {
		case tok.kind == tokOp && (tok.text == "+" || tok.text == "-"):
			p.next()
			right, err := p.parseMulDiv()
			if err != nil {
				return nil, err
			}
			op := OpAdd
			if tok.text == "-" {
				op = OpSubtract
			}
			left = BinaryExpr{Op: op, Left: left, Right: right}
		case isKeyword(tok, "in", "to"):
			p.next()
			target, err := p.parseTarget()
			if err != nil {
				return nil, err
			}
			left = Convert{Value: left, Target: target}
		default:
			return left, nil
		}
	}
}

// parseTarget parses the conversion target: a bare identifier,
// optionally a slash compound such as "km/h".
func (p *parser) parseTarget() (string, error) {
	tok := p.peek()
	if tok.kind != tokIdent {
		return "", p.fail("conversion target must be a unit or currency name")
	}
	p.next()
	name := tok.text
	if p.peek().kind == tokOp && p.peek().text == "/" && p.peekAt(1).kind == tokIdent {
		p.next()
		name += "/" + p.next().text
	}
	return name, nil
}

func (p *parser) parseMulDiv() (Expr, error) {
	left, err := p.parsePow()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokOp || (tok.text != "*" && tok.text != "/") {
			return left, nil
		}
		p.next()
		right, err := p.parsePow()
		if err != nil {
			return nil, err
		}
		op := OpMultiply
		if tok.text == "/" {
			op = OpDivide
		}
		left = BinaryExpr{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parsePow() (Expr, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind == tokOp && tok.text == "^" {
		p.next()
		right, err := p.parsePow() // right-associative
		if err != nil {
			return nil, err
		}
		return BinaryExpr{Op: OpPower, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *parser) parseOperand() (Expr, error) {
	tok := p.peek()
	switch tok.kind {
	case tokOp:
		if tok.text == "-" {
			p.next()
			operand, err := p.parseOperand()
			if err != nil {
				return nil, err
			}
			return BinaryExpr{
				Op:    OpMultiply,
				Left:  NumberLit{Value: decimal.NewFromInt(-1)},
				Right: operand,
			}, nil
		}
		return nil, p.fail("unexpected operator " + strconv.Quote(tok.text))
	case tokNumber:
		p.next()
		amount, err := decimal.NewFromString(tok.text)
		if err != nil {
			return nil, &ParseError{Pos: tok.pos, Msg: "bad number " + strconv.Quote(tok.text)}
		}
		return p.parseNumberSuffix(amount)
	case tokSymbol:
		p.next()
		code, ok := currency.Parse(tok.text)
		if !ok {
			return nil, &ParseError{Pos: tok.pos, Msg: "unknown currency symbol " + strconv.Quote(tok.text)}
		}
		num := p.peek()
		if num.kind != tokNumber {
			return nil, p.fail("expected amount after " + strconv.Quote(tok.text))
		}
		p.next()
		amount, err := decimal.NewFromString(num.text)
		if err != nil {
			return nil, &ParseError{Pos: num.pos, Msg: "bad number " + strconv.Quote(num.text)}
		}
		return CurrencyLit{Amount: amount, Code: code}, nil
	case tokIdent:
		if isKeyword(tok, "in", "to", "of") {
			return nil, p.fail("unexpected keyword " + strconv.Quote(tok.text))
		}
		p.next()
		if p.peek().kind == tokOpen {
			return p.parseCall(tok.text)
		}
		return VarRef{Name: tok.text}, nil
	case tokOpen:
		p.next()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokClose {
			return nil, p.fail("expected closing parenthesis")
		}
		p.next()
		return inner, nil
	}
	return nil, p.fail("expected an expression")
}

// parseNumberSuffix resolves what trails a numeric literal: a percent
// sign (possibly "N% of expr"), a currency symbol or code, a unit
// name, or an unknown word which becomes an implicit multiplication
// ("3 tax" parses as 3 * tax).
func (p *parser) parseNumberSuffix(amount decimal.Decimal) (Expr, error) {
	hundred := decimal.NewFromInt(100)
	tok := p.peek()
	switch tok.kind {
	case tokPercent:
		p.next()
		fraction := amount.Div(hundred)
		if isKeyword(p.peek(), "of") {
			p.next()
			val, err := p.parseOperand()
			if err != nil {
				return nil, err
			}
			return PercentOf{Percent: fraction, Value: val}, nil
		}
		return PercentLit{Value: fraction}, nil
	case tokSymbol:
		p.next()
		code, ok := currency.Parse(tok.text)
		if !ok {
			return nil, &ParseError{Pos: tok.pos, Msg: "unknown currency symbol " + strconv.Quote(tok.text)}
		}
		return CurrencyLit{Amount: amount, Code: code}, nil
	case tokIdent:
		if isKeyword(tok, "in", "to", "of") {
			return NumberLit{Value: amount}, nil
		}
		p.next()
		if code, ok := currency.Parse(tok.text); ok {
			return CurrencyLit{Amount: amount, Code: code}, nil
		}
		if u, ok := unit.Parse(tok.text); ok {
			// A slash compound such as "km/h" binds to the literal.
			if p.peek().kind == tokOp && p.peek().text == "/" && p.peekAt(1).kind == tokIdent {
				name := tok.text + "/" + p.peekAt(1).text
				if c, ok := unit.ParseCompound(name); ok {
					p.next()
					p.next()
					return CompoundLit{Amount: amount, Unit: c}, nil
				}
			}
			return UnitLit{Amount: amount, Unit: u}, nil
		}
		if c, ok := unit.ParseCompound(tok.text); ok {
			return CompoundLit{Amount: amount, Unit: c}, nil
		}
		return BinaryExpr{
			Op:    OpMultiply,
			Left:  NumberLit{Value: amount},
			Right: VarRef{Name: tok.text},
		}, nil
	}
	return NumberLit{Value: amount}, nil
}

func (p *parser) parseCall(name string) (Expr, error) {
	p.next() // "("
	call := Call{Name: name}
	if p.peek().kind == tokClose {
		p.next()
		return call, nil
	}
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		switch p.peek().kind {
		case tokComma:
			p.next()
		case tokClose:
			p.next()
			return call, nil
		default:
			return nil, p.fail("expected , or ) in argument list")
		}
	}
}
