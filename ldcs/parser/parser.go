// Package parser turns command text into an ast.Command.
//
// The grammar is ordered-choice recursive descent with backtracking. The
// final token selects the command family: '.' declarations, '?' queries,
// '!' goals. On failure the error reports the furthest token any
// alternative reached and what it expected there.
package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/teranos/ldcs/errors"
	"github.com/teranos/ldcs/ldcs/ast"
)

// Terminators end every command
const Terminators = ".?!"

type parser struct {
	tokens   []Token
	pos      int
	furthest int
	expected map[string]bool
}

// Parse parses one complete command, terminator included
func Parse(source string) (ast.Command, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, NewParseError(ErrorKindEOF, "empty command").
			WithSource(source).
			WithUnderlying(errors.ErrSyntax).
			WithSuggestion("write a declaration ending in '.', a query ending in '?', or a goal ending in '!'")
	}

	last := tokens[len(tokens)-1]
	if len(last.Text) != 1 || !strings.Contains(Terminators, last.Text) {
		return nil, NewParseError(ErrorKindEOF, "unexpected end of input").
			WithPosition(len(tokens), len(tokens)).
			WithToken(last).
			WithSource(source).
			WithExpected("'.'", "'?'", "'!'").
			WithUnderlying(errors.ErrSyntax)
	}

	p := &parser{tokens: tokens[:len(tokens)-1], expected: make(map[string]bool)}
	var alternatives []func() ast.Command
	switch last.Text {
	case ".":
		alternatives = []func() ast.Command{
			p.fluent, p.relation, p.exist, p.constraintAny,
			p.macroDefine, p.enum, p.define, p.reverseDefine, p.claim,
		}
	case "?":
		alternatives = []func() ast.Command{p.queryAny, p.query, p.clauseQuery}
	case "!":
		alternatives = []func() ast.Command{p.goalAny, p.goal}
	}

	for _, alt := range alternatives {
		p.pos = 0
		if cmd := alt(); cmd != nil && p.atEnd() {
			return cmd, nil
		}
		p.note("end of " + commandFamily(last.Text))
	}
	return nil, p.failure(source, last)
}

func commandFamily(terminator string) string {
	switch terminator {
	case "?":
		return "query"
	case "!":
		return "goal"
	default:
		return "declaration"
	}
}

// failure builds the diagnostic for the furthest position reached
func (p *parser) failure(source string, terminator Token) *ParseError {
	expected := make([]string, 0, len(p.expected))
	for e := range p.expected {
		expected = append(expected, e)
	}
	sort.Strings(expected)

	var perr *ParseError
	if p.furthest >= len(p.tokens) {
		perr = NewParseError(ErrorKindEOF, "unexpected end of input").WithToken(terminator)
	} else {
		tok := p.tokens[p.furthest]
		perr = NewParseError(ErrorKindSyntax, fmt.Sprintf("unexpected %s", tok)).WithToken(tok)
	}
	return perr.
		WithPosition(p.furthest, len(p.tokens)+1).
		WithSource(source).
		WithExpected(expected...).
		WithUnderlying(errors.ErrSyntax)
}

// Token helpers

func (p *parser) atEnd() bool {
	return p.pos >= len(p.tokens)
}

func (p *parser) peek() (Token, bool) {
	if p.atEnd() {
		return Token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) peekAt(offset int) (Token, bool) {
	if p.pos+offset >= len(p.tokens) {
		return Token{}, false
	}
	return p.tokens[p.pos+offset], true
}

// note records that desc would have been accepted at the current position
func (p *parser) note(desc string) {
	switch {
	case p.pos > p.furthest:
		p.furthest = p.pos
		p.expected = map[string]bool{desc: true}
	case p.pos == p.furthest:
		p.expected[desc] = true
	}
}

// accept consumes a token with the given text
func (p *parser) accept(text string) bool {
	if tok, ok := p.peek(); ok && tok.Text == text && tok.Kind != TokenString {
		p.pos++
		return true
	}
	p.note("'" + text + "'")
	return false
}

// acceptKind consumes a token of the given kind and returns its text
func (p *parser) acceptKind(kind TokenKind) (string, bool) {
	if tok, ok := p.peek(); ok && tok.Kind == kind {
		p.pos++
		return tok.Text, true
	}
	p.note(kind.String())
	return "", false
}

// keyword consumes '#' followed by the given name
func (p *parser) keyword(name string) bool {
	start := p.pos
	if p.accept("#") && p.accept(name) {
		return true
	}
	p.pos = start
	return false
}

// Commands

func (p *parser) fluent() ast.Command {
	if !p.keyword("fluent") {
		return nil
	}
	head := p.pred()
	if head == nil {
		return nil
	}
	return &ast.Fluent{Head: head, Cond: p.optionalClause()}
}

func (p *parser) relation() ast.Command {
	if !p.keyword("relation") {
		return nil
	}
	name, ok := p.acceptKind(TokenName)
	if !ok || !p.accept("(") {
		return nil
	}
	var params []ast.RParam
	for {
		bound, ok := p.acceptKind(TokenInt)
		if !ok {
			return nil
		}
		value := p.ldcs()
		if value == nil {
			return nil
		}
		params = append(params, ast.RParam{Bound: bound, Value: value})
		if !p.accept(",") {
			break
		}
	}
	if !p.accept(")") {
		return nil
	}
	return &ast.Relation{Name: name, Params: params}
}

func (p *parser) exist() ast.Command {
	if !p.keyword("some") {
		return nil
	}
	alts := p.alternatives()
	if alts == nil {
		return nil
	}
	return &ast.Exist{Alternatives: alts}
}

// alternatives parses "lams | lams ..."
func (p *parser) alternatives() [][]ast.Lam {
	first := p.lams()
	if first == nil {
		return nil
	}
	alts := [][]ast.Lam{first}
	for {
		save := p.pos
		if !p.accept("|") {
			break
		}
		next := p.lams()
		if next == nil {
			p.pos = save
			break
		}
		alts = append(alts, next)
	}
	return alts
}

func (p *parser) constraintAny() ast.Command {
	if !p.keyword("any") {
		return nil
	}
	start := p.pos
	if value := p.ldcs(); value != nil && p.atEnd() {
		return &ast.ConstraintAny{Value: value}
	}
	p.pos = start
	if cmp := p.cmpop(); cmp != nil {
		return &ast.ConstraintAny{Cmp: cmp}
	}
	return nil
}

func (p *parser) macroDefine() ast.Command {
	if !p.keyword("macro") {
		return nil
	}
	cmd := p.define()
	if cmd == nil {
		return nil
	}
	def := cmd.(*ast.Define)
	def.Macro = true
	return def
}

func (p *parser) enum() ast.Command {
	heads := p.lams()
	if heads == nil || !p.accept(":") || !p.keyword("some") {
		return nil
	}
	alts := p.alternatives()
	if alts == nil {
		return nil
	}
	return &ast.Enum{Heads: heads, Alternatives: alts}
}

func (p *parser) define() ast.Command {
	heads := p.defineHeads()
	if heads == nil || !p.accept(":") {
		return nil
	}
	value := p.ldcs()
	if value == nil {
		return nil
	}
	return &ast.Define{Heads: heads, Value: value}
}

func (p *parser) reverseDefine() ast.Command {
	value := p.ldcs()
	if value == nil || !p.accept("::") {
		return nil
	}
	heads := p.defineHeads()
	if heads == nil {
		return nil
	}
	return &ast.Define{Heads: heads, Value: value, Reverse: true}
}

// defineHeads parses one or more relation names or joins
func (p *parser) defineHeads() []ast.Lam {
	var heads []ast.Lam
	for {
		save := p.pos
		l := p.primary()
		if l == nil {
			p.pos = save
			break
		}
		switch l.(type) {
		case ast.Func, *ast.Join, *ast.MultiJoin:
			heads = append(heads, l)
			continue
		}
		p.pos = save
		p.note("relation name")
		break
	}
	return heads
}

func (p *parser) claim() ast.Command {
	head := p.term()
	if head == nil {
		return nil
	}
	return &ast.Claim{Head: head, Cond: p.optionalClause()}
}

// optionalClause parses "[: clause]", restoring position if the clause is absent
func (p *parser) optionalClause() *ast.Clause {
	save := p.pos
	if !p.accept(":") {
		return nil
	}
	cond := p.clause()
	if cond == nil {
		p.pos = save
	}
	return cond
}

func (p *parser) queryAny() ast.Command {
	if !p.keyword("any") {
		return nil
	}
	if value := p.ldcs(); value != nil {
		return &ast.QueryAny{Value: value}
	}
	return nil
}

func (p *parser) query() ast.Command {
	if value := p.ldcs(); value != nil {
		return &ast.Query{Value: value}
	}
	return nil
}

func (p *parser) clauseQuery() ast.Command {
	cond := p.clause()
	if cond == nil || len(cond.Terms) < 2 {
		return nil
	}
	vars := ast.Variables(cond)
	if len(vars) == 0 {
		p.note("variable to project")
		return nil
	}
	return &ast.ClauseQuery{Var: vars[0], Clause: cond}
}

func (p *parser) goalAny() ast.Command {
	if !p.keyword("any") {
		return nil
	}
	if value := p.ldcs(); value != nil {
		return &ast.GoalAny{Value: value}
	}
	return nil
}

func (p *parser) goal() ast.Command {
	if value := p.ldcs(); value != nil {
		return &ast.Goal{Value: value}
	}
	return nil
}
