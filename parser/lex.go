package parser

import (
	"strconv"
	"strings"
	"unicode"

	"nlcalc/currency"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokSymbol // currency symbol such as $ or €
	tokOp
	tokPercent
	tokOpen
	tokClose
	tokComma
	tokAssign
)

type token struct {
	kind tokenKind
	// text is the token content; for numbers the group separators are
	// already stripped.
	text string
	pos  int
}

// LexError indicates an input rune no token can start with.
type LexError struct {
	Pos  int
	Rune rune
}

func (e *LexError) Error() string {
	return "unexpected character " + strconv.QuoteRune(e.Rune) + " at position " + strconv.Itoa(e.Pos)
}

// symbols is the currency symbol table, longest first so that "C$"
// wins over "$".
var symbols = currency.Symbols()

type lexer struct {
	src []rune
	i   int
}

func lexAll(input string) ([]token, error) {
	l := &lexer{src: []rune(input)}
	var toks []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.kind == tokEOF {
			return toks, nil
		}
	}
}

func (l *lexer) next() (token, error) {
	for l.i < len(l.src) && unicode.IsSpace(l.src[l.i]) {
		l.i++
	}
	if l.i >= len(l.src) {
		return token{kind: tokEOF, pos: l.i}, nil
	}
	pos := l.i
	r := l.src[l.i]
	switch {
	case r >= '0' && r <= '9':
		return token{kind: tokNumber, text: l.scanNumber(), pos: pos}, nil
	case r == '%':
		l.i++
		return token{kind: tokPercent, text: "%", pos: pos}, nil
	case r == '+' || r == '-' || r == '*' || r == '/' || r == '^':
		l.i++
		return token{kind: tokOp, text: string(r), pos: pos}, nil
	case r == '(':
		l.i++
		return token{kind: tokOpen, text: "(", pos: pos}, nil
	case r == ')':
		l.i++
		return token{kind: tokClose, text: ")", pos: pos}, nil
	case r == ',':
		l.i++
		return token{kind: tokComma, text: ",", pos: pos}, nil
	case r == '=':
		l.i++
		return token{kind: tokAssign, text: "=", pos: pos}, nil
	}
	if sym, ok := l.scanSymbol(); ok {
		return token{kind: tokSymbol, text: sym, pos: pos}, nil
	}
	if r == '_' || unicode.IsLetter(r) {
		return token{kind: tokIdent, text: l.scanIdent(), pos: pos}, nil
	}
	return token{}, &LexError{Pos: pos, Rune: r}
}

// scanNumber consumes a decimal literal with optional "," or " "
// group separators (groups of exactly three digits). The returned
// text has separators stripped.
func (l *lexer) scanNumber() string {
	var b strings.Builder
	for l.i < len(l.src) && isDigit(l.src[l.i]) {
		b.WriteRune(l.src[l.i])
		l.i++
	}
	for l.i < len(l.src) && (l.src[l.i] == ',' || l.src[l.i] == ' ') && l.groupFollows() {
		l.i++ // separator
		for n := 0; n < 3; n++ {
			b.WriteRune(l.src[l.i])
			l.i++
		}
	}
	if l.i+1 < len(l.src) && l.src[l.i] == '.' && isDigit(l.src[l.i+1]) {
		b.WriteRune('.')
		l.i++
		for l.i < len(l.src) && isDigit(l.src[l.i]) {
			b.WriteRune(l.src[l.i])
			l.i++
		}
	}
	return b.String()
}

// groupFollows reports whether the separator at l.i is followed by
// exactly three digits (not four or more, which would be a new token).
func (l *lexer) groupFollows() bool {
	for n := 1; n <= 3; n++ {
		if l.i+n >= len(l.src) || !isDigit(l.src[l.i+n]) {
			return false
		}
	}
	return l.i+4 >= len(l.src) || !isDigit(l.src[l.i+4])
}

// scanSymbol matches a currency symbol at the current position.
// Letter-only symbols (CHF, zł) are left to the identifier path so
// they cannot shadow variables; they still resolve through the
// registry as suffixes.
func (l *lexer) scanSymbol() (string, bool) {
	for _, sym := range symbols {
		runes := []rune(sym)
		if !l.hasPrefix(runes) {
			continue
		}
		if lettersOnly(runes) && !l.digitAt(l.i+len(runes)) {
			continue
		}
		l.i += len(runes)
		return sym, true
	}
	return "", false
}

func (l *lexer) hasPrefix(runes []rune) bool {
	if l.i+len(runes) > len(l.src) {
		return false
	}
	for k, r := range runes {
		if l.src[l.i+k] != r {
			return false
		}
	}
	return true
}

func (l *lexer) digitAt(i int) bool {
	return i < len(l.src) && isDigit(l.src[i])
}

func (l *lexer) scanIdent() string {
	start := l.i
	for l.i < len(l.src) {
		r := l.src[l.i]
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			l.i++
			continue
		}
		break
	}
	return string(l.src[start:l.i])
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func lettersOnly(runes []rune) bool {
	for _, r := range runes {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
