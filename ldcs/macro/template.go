package macro

import (
	"fmt"
	"sort"
	"strings"

	"github.com/teranos/ldcs/errors"
	"github.com/teranos/ldcs/ldcs/parser"
)

// node is one value of a rule template
type node interface {
	render(e *expansion) string
}

// atomNode is "name" or "name(arg, ...)"
type atomNode struct {
	name string
	args []node
}

// varNode is a template variable, replaced on expansion
type varNode struct {
	name string
}

// literalNode is an integer or a quoted string
type literalNode struct {
	text string
}

// opNode is "a op b op c", rendered with single spaces
type opNode struct {
	operands  []node
	operators []string
}

func (n *atomNode) render(e *expansion) string {
	if len(n.args) == 0 {
		return n.name
	}
	args := make([]string, len(n.args))
	for i, a := range n.args {
		args[i] = unparen(a.render(e))
	}
	return n.name + "(" + strings.Join(args, ",") + ")"
}

func (n *varNode) render(e *expansion) string {
	value := e.lookup(n.name)
	if !isAlnum(value) {
		value = "(" + value + ")"
	}
	return value
}

func (n *literalNode) render(*expansion) string {
	return n.text
}

func (n *opNode) render(e *expansion) string {
	parts := []string{n.operands[0].render(e)}
	for i, op := range n.operators {
		parts = append(parts, op, n.operands[i+1].render(e))
	}
	return strings.Join(parts, " ")
}

func isAlnum(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isIdentChar(s[i]) || s[i] == '_' {
			return false
		}
	}
	return true
}

// unparen strips one pair of parentheses wrapping the whole string
func unparen(s string) string {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return s
	}
	depth := 0
	for i := 0; i < len(s)-1; i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 {
			return s
		}
	}
	return s[1 : len(s)-1]
}

// ruleParser parses "head(F, ...) :- lit, lit." definitions
type ruleParser struct {
	source   string
	tokens   []token
	pos      int
	furthest int
	expected map[string]bool
}

func (p *ruleParser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *ruleParser) note(desc string) {
	switch {
	case p.pos > p.furthest:
		p.furthest = p.pos
		p.expected = map[string]bool{desc: true}
	case p.pos == p.furthest:
		p.expected[desc] = true
	}
}

func (p *ruleParser) accept(text string) bool {
	if tok, ok := p.peek(); ok && tok.kind == tokPunct && tok.text == text {
		p.pos++
		return true
	}
	p.note("'" + text + "'")
	return false
}

func (p *ruleParser) fail() error {
	expected := make([]string, 0, len(p.expected))
	for e := range p.expected {
		expected = append(expected, e)
	}
	sort.Strings(expected)

	var perr *parser.ParseError
	if p.furthest >= len(p.tokens) {
		perr = parser.NewParseError(parser.ErrorKindMacro, "unexpected end of definition")
		if len(p.tokens) > 0 {
			last := p.tokens[len(p.tokens)-1]
			perr = perr.WithRange(parser.Range{Start: last.rng.End, End: last.rng.End})
		}
	} else {
		tok := p.tokens[p.furthest]
		perr = parser.NewParseError(parser.ErrorKindMacro, fmt.Sprintf("unexpected %s %q", tok.kind, tok.text)).
			WithRange(tok.rng)
	}
	return perr.
		WithPosition(p.furthest, len(p.tokens)).
		WithSource(p.source).
		WithExpected(expected...).
		WithUnderlying(errors.ErrMacroSyntax)
}

// rule parses a complete definition
func (p *ruleParser) rule() (name string, formals []node, body []node, ok bool) {
	tok, ok := p.peek()
	if !ok || tok.kind != tokAtom {
		p.note("macro name")
		return "", nil, nil, false
	}
	p.pos++
	name = tok.text

	if !p.accept("(") {
		return "", nil, nil, false
	}
	for {
		f := p.expr()
		if f == nil {
			return "", nil, nil, false
		}
		formals = append(formals, f)
		if !p.accept(",") {
			break
		}
	}
	if !p.accept(")") || !p.accept(":-") {
		return "", nil, nil, false
	}

	for {
		lit := p.literal()
		if lit == nil {
			return "", nil, nil, false
		}
		body = append(body, lit)
		if !p.accept(",") {
			break
		}
	}
	if !p.accept(".") {
		return "", nil, nil, false
	}
	if p.pos < len(p.tokens) {
		p.note("end of definition")
		return "", nil, nil, false
	}
	return name, formals, body, true
}

// literal is a predicate or an operator expression
func (p *ruleParser) literal() node {
	start := p.pos
	n := p.expr()
	if n == nil {
		return nil
	}
	switch n.(type) {
	case *atomNode, *opNode:
		return n
	}
	p.pos = start
	p.note("predicate")
	return nil
}

// expr parses "value (op value)*"
func (p *ruleParser) expr() node {
	first := p.value()
	if first == nil {
		return nil
	}
	op := &opNode{operands: []node{first}}
	for {
		tok, ok := p.peek()
		if !ok || tok.kind != tokOperator {
			p.note("operator")
			break
		}
		save := p.pos
		p.pos++
		next := p.value()
		if next == nil {
			p.pos = save
			break
		}
		op.operators = append(op.operators, tok.text)
		op.operands = append(op.operands, next)
	}
	if len(op.operators) == 0 {
		return first
	}
	return op
}

// value parses an atom with optional arguments, a variable, an integer, or a string
func (p *ruleParser) value() node {
	tok, ok := p.peek()
	if !ok {
		p.note("value")
		return nil
	}
	switch tok.kind {
	case tokVariable:
		p.pos++
		return &varNode{name: tok.text}
	case tokInt, tokString:
		p.pos++
		return &literalNode{text: tok.text}
	case tokAtom:
		p.pos++
		n := &atomNode{name: tok.text}
		if next, ok := p.peek(); !ok || next.text != "(" || next.kind != tokPunct {
			return n
		}
		p.pos++
		for {
			arg := p.expr()
			if arg == nil {
				return nil
			}
			n.args = append(n.args, arg)
			if !p.accept(",") {
				break
			}
		}
		if !p.accept(")") {
			return nil
		}
		return n
	}
	p.note("value")
	return nil
}
