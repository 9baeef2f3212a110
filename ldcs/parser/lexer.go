package parser

import (
	"fmt"
	"unicode/utf8"

	"github.com/teranos/ldcs/errors"
)

// TokenKind classifies a lexeme
type TokenKind int

const (
	TokenName     TokenKind = iota // lowercase-initial identifier
	TokenVariable                  // single uppercase letter
	TokenInt                       // decimal digits
	TokenString                    // double-quoted, escapes kept verbatim
	TokenCmpOp                     // = != <= >= < >
	TokenBinOp                     // .. ** + - * / \ & ? ^
	TokenPunct                     // ( ) [ ] , ; : :: . | ~ # $ ' !
)

func (k TokenKind) String() string {
	switch k {
	case TokenName:
		return "name"
	case TokenVariable:
		return "variable"
	case TokenInt:
		return "integer"
	case TokenString:
		return "string"
	case TokenCmpOp:
		return "comparison"
	case TokenBinOp:
		return "operator"
	default:
		return "punctuation"
	}
}

// Token is one lexeme with its source range
type Token struct {
	Kind  TokenKind
	Text  string
	Range Range
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q", t.Kind, t.Text)
}

// two-character lexemes, longest match first
var digraphs = map[string]TokenKind{
	"::": TokenPunct,
	"..": TokenBinOp,
	"**": TokenBinOp,
	"!=": TokenCmpOp,
	"<=": TokenCmpOp,
	">=": TokenCmpOp,
}

var monographs = map[byte]TokenKind{
	'(': TokenPunct, ')': TokenPunct, '[': TokenPunct, ']': TokenPunct,
	',': TokenPunct, ';': TokenPunct, ':': TokenPunct, '.': TokenPunct,
	'|': TokenPunct, '~': TokenPunct, '#': TokenPunct, '$': TokenPunct,
	'\'': TokenPunct, '!': TokenPunct,
	'=': TokenCmpOp, '<': TokenCmpOp, '>': TokenCmpOp,
	'+': TokenBinOp, '-': TokenBinOp, '*': TokenBinOp, '/': TokenBinOp,
	'\\': TokenBinOp, '&': TokenBinOp, '?': TokenBinOp, '^': TokenBinOp,
}

func isLower(c byte) bool { return c >= 'a' && c <= 'z' }
func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' }

func isNameChar(c byte) bool {
	return c == '_' || isLower(c) || isUpper(c) || isDigit(c)
}

// Tokenize splits command text into tokens, skipping whitespace
func Tokenize(source string) ([]Token, error) {
	var tokens []Token
	pt := NewPositionTracker(source)
	i := 0

	emit := func(kind TokenKind, n int) {
		start := pt.Mark()
		pt.AdvanceBytes(n)
		tokens = append(tokens, Token{
			Kind:  kind,
			Text:  source[i : i+n],
			Range: Range{Start: start, End: pt.Mark()},
		})
		i += n
	}

	for i < len(source) {
		c := source[i]
		switch {
		case isSpace(c):
			pt.AdvanceBytes(1)
			i++
		case isLower(c):
			n := 1
			for i+n < len(source) && isNameChar(source[i+n]) {
				n++
			}
			emit(TokenName, n)
		case isUpper(c):
			emit(TokenVariable, 1)
		case isDigit(c):
			n := 1
			for i+n < len(source) && isDigit(source[i+n]) {
				n++
			}
			emit(TokenInt, n)
		case c == '"':
			n, ok := scanString(source[i:])
			if !ok {
				start := pt.Mark()
				pt.AdvanceBytes(len(source) - i)
				return nil, NewParseError(ErrorKindLexer, "unterminated string").
					WithRange(Range{Start: start, End: pt.Mark()}).
					WithSource(source).
					WithUnderlying(errors.ErrSyntax)
			}
			emit(TokenString, n)
		default:
			if i+1 < len(source) {
				if kind, ok := digraphs[source[i:i+2]]; ok {
					emit(kind, 2)
					continue
				}
			}
			if kind, ok := monographs[c]; ok {
				emit(kind, 1)
				continue
			}
			r, size := utf8.DecodeRuneInString(source[i:])
			msg := fmt.Sprintf("unexpected character %q", r)
			if r == utf8.RuneError && size <= 1 {
				size = 1
				msg = fmt.Sprintf("invalid UTF-8 byte 0x%02x", c)
			}
			start := pt.Mark()
			pt.AdvanceBytes(size)
			return nil, NewParseError(ErrorKindLexer, msg).
				WithRange(Range{Start: start, End: pt.Mark()}).
				WithSource(source).
				WithUnderlying(errors.ErrSyntax)
		}
	}
	return tokens, nil
}

// scanString returns the byte length of a double-quoted string at the start of s
func scanString(s string) (int, bool) {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i + 1, true
		}
	}
	return 0, false
}
