package macro

import (
	"fmt"
	"strings"

	"github.com/teranos/ldcs/errors"
	"github.com/teranos/ldcs/ldcs/parser"
)

type tokenKind int

const (
	tokAtom     tokenKind = iota // [@]lowercase identifier
	tokVariable                  // uppercase-initial identifier, any length
	tokInt
	tokString
	tokOperator // = != <= >= < > + - * / \ ** & ? ^ ..
	tokPunct    // ( ) , . :-
)

func (k tokenKind) String() string {
	switch k {
	case tokAtom:
		return "atom"
	case tokVariable:
		return "variable"
	case tokInt:
		return "integer"
	case tokString:
		return "string"
	case tokOperator:
		return "operator"
	default:
		return "punctuation"
	}
}

type token struct {
	kind tokenKind
	text string
	rng  parser.Range
}

var operatorDigraphs = []string{"!=", "<=", ">=", "**", ".."}

const operatorMonographs = `=<>+-*/\&?^`

func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// tokenize splits a rule definition into tokens
func tokenize(source string) ([]token, error) {
	var tokens []token
	pt := parser.NewPositionTracker(source)
	i := 0

	emit := func(kind tokenKind, n int) {
		start := pt.Mark()
		pt.AdvanceBytes(n)
		tokens = append(tokens, token{kind: kind, text: source[i : i+n], rng: parser.Range{Start: start, End: pt.Mark()}})
		i += n
	}
	ident := func(from int) int {
		n := from
		for i+n < len(source) && isIdentChar(source[i+n]) {
			n++
		}
		return n
	}

	for i < len(source) {
		c := source[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			pt.AdvanceBytes(1)
			i++
		case c >= 'a' && c <= 'z':
			emit(tokAtom, ident(1))
		case c == '@' && i+1 < len(source) && source[i+1] >= 'a' && source[i+1] <= 'z':
			emit(tokAtom, ident(2))
		case c >= 'A' && c <= 'Z':
			emit(tokVariable, ident(1))
		case c >= '0' && c <= '9':
			n := 1
			for i+n < len(source) && source[i+n] >= '0' && source[i+n] <= '9' {
				n++
			}
			emit(tokInt, n)
		case c == '"':
			n := 1
			for ; i+n < len(source) && source[i+n] != '"'; n++ {
				if source[i+n] == '\\' {
					n++
				}
			}
			if i+n >= len(source) {
				return nil, lexError(source, pt, len(source)-i, "unterminated string")
			}
			emit(tokString, n+1)
		case c == ':' && i+1 < len(source) && source[i+1] == '-':
			emit(tokPunct, 2)
		default:
			if kind, n, ok := operatorAt(source[i:]); ok {
				emit(kind, n)
				continue
			}
			return nil, lexError(source, pt, 1, fmt.Sprintf("unexpected character %q", c))
		}
	}
	return tokens, nil
}

// operatorAt matches an operator or single-character punctuation at the start of s
func operatorAt(s string) (tokenKind, int, bool) {
	if len(s) >= 2 {
		for _, d := range operatorDigraphs {
			if s[:2] == d {
				return tokOperator, 2, true
			}
		}
	}
	switch c := s[0]; {
	case c == '(' || c == ')' || c == ',' || c == '.':
		return tokPunct, 1, true
	case strings.IndexByte(operatorMonographs, c) >= 0:
		return tokOperator, 1, true
	}
	return 0, 0, false
}

func lexError(source string, pt *parser.PositionTracker, width int, msg string) error {
	start := pt.Mark()
	pt.AdvanceBytes(width)
	return parser.NewParseError(parser.ErrorKindMacro, msg).
		WithRange(parser.Range{Start: start, End: pt.Mark()}).
		WithSource(source).
		WithUnderlying(errors.ErrMacroSyntax)
}
