package parser

import (
	"github.com/teranos/ldcs/ldcs/ast"
)

var aggregationOps = map[string]bool{"count": true, "sum": true, "min": true, "max": true, "set": true, "bag": true}

var superlativeOps = map[string]bool{"most": true, "each": true, "argmin": true, "argmax": true}

// ldcs parses "disj [: clause]"
func (p *parser) ldcs() *ast.LDCS {
	d := p.disj()
	if d == nil {
		return nil
	}
	return &ast.LDCS{Disj: d, Cond: p.optionalClause()}
}

// disj parses "conj | conj ..."
func (p *parser) disj() *ast.Disj {
	first := p.lams()
	if first == nil {
		return nil
	}
	d := &ast.Disj{Conjs: []*ast.Conj{{Lams: first}}}
	for {
		save := p.pos
		if !p.accept("|") {
			return d
		}
		next := p.lams()
		if next == nil {
			p.pos = save
			return d
		}
		d.Conjs = append(d.Conjs, &ast.Conj{Lams: next})
	}
}

// disjs parses "disj, disj ..."
func (p *parser) disjs() []*ast.Disj {
	first := p.disj()
	if first == nil {
		return nil
	}
	out := []*ast.Disj{first}
	for {
		save := p.pos
		if !p.accept(",") {
			return out
		}
		next := p.disj()
		if next == nil {
			p.pos = save
			return out
		}
		out = append(out, next)
	}
}

// lams parses one or more juxtaposed lams
func (p *parser) lams() []ast.Lam {
	var out []ast.Lam
	for {
		save := p.pos
		l := p.lam()
		if l == nil {
			p.pos = save
			return out
		}
		out = append(out, l)
	}
}

// lam parses a primary lam or a left-folded chain of arithmetic operators
func (p *parser) lam() ast.Lam {
	start := p.pos
	first := p.operand()
	if first == nil {
		p.pos = start
		return nil
	}

	expr := first
	var chain *ast.BinOp
	for {
		save := p.pos
		tok, ok := p.peek()
		if !ok || tok.Kind != TokenBinOp {
			p.note("operator")
			break
		}
		p.pos++
		right := p.operand()
		if right == nil {
			p.pos = save
			break
		}
		if chain != nil {
			expr = &ast.LamOperand{Lam: &ast.Unify{Expr: chain}}
		}
		chain = &ast.BinOp{Left: expr, Op: tok.Text, Right: right}
	}

	if chain != nil {
		return &ast.Unify{Expr: chain}
	}
	switch o := first.(type) {
	case *ast.LamOperand:
		return o.Lam
	case *ast.Negative:
		return &ast.Unify{Expr: o}
	}
	// a parenthesized expression alone is not a lam
	p.pos = start
	p.note("expression")
	return nil
}

// operand parses "(ldcs)", "(-operand)", or a primary lam
func (p *parser) operand() ast.Operand {
	start := p.pos
	if l := p.primary(); l != nil {
		return &ast.LamOperand{Lam: l}
	}
	p.pos = start

	if !p.accept("(") {
		return nil
	}
	if p.accept("-") {
		inner := p.operand()
		if inner != nil && p.accept(")") {
			return &ast.Negative{Operand: inner}
		}
		p.pos = start + 1
	}
	value := p.ldcs()
	if value == nil || !p.accept(")") {
		p.pos = start
		return nil
	}
	return &ast.Paren{Value: value}
}

// bracketed parses the operand of a comparison: "(ldcs)" or a full lam
func (p *parser) bracketed() ast.Operand {
	start := p.pos
	if l := p.lam(); l != nil {
		return &ast.LamOperand{Lam: l}
	}
	p.pos = start
	if p.accept("(") {
		if value := p.ldcs(); value != nil && p.accept(")") {
			return &ast.Paren{Value: value}
		}
	}
	p.pos = start
	return nil
}

// primary parses every lam that is not an operator chain
func (p *parser) primary() ast.Lam {
	tok, ok := p.peek()
	if !ok {
		p.note("expression")
		return nil
	}

	switch tok.Kind {
	case TokenVariable:
		p.pos++
		return &ast.Constant{Kind: ast.VarConstant, Text: tok.Text}
	case TokenInt:
		p.pos++
		return &ast.Constant{Kind: ast.IntConstant, Text: tok.Text}
	case TokenString:
		p.pos++
		return &ast.Constant{Kind: ast.StringConstant, Text: tok.Text}
	case TokenName:
		return p.named()
	}

	switch tok.Text {
	case "#":
		return p.hof()
	case "~":
		return p.neg()
	case "(":
		start := p.pos
		p.pos++
		if op, ok := p.acceptKind(TokenCmpOp); ok && p.accept(")") {
			if l := p.postfix(&ast.FuncOp{Op: op}); l != nil {
				return l
			}
		}
		p.pos = start
		return nil
	}
	p.note("expression")
	return nil
}

// named parses a lam starting with a relation name
func (p *parser) named() ast.Lam {
	start := p.pos
	name, ok := p.acceptKind(TokenName)
	if !ok {
		return nil
	}

	if next, ok := p.peek(); ok {
		switch next.Text {
		case "(":
			p.pos = start
			if pr := p.pred(); pr != nil {
				return &ast.Unify{Expr: pr}
			}
			return nil
		case "$":
			p.pos++
			inner := p.pos
			if pr := p.pred(); pr != nil {
				return &ast.Unify{Expr: &ast.Pred{Name: name, Compose: pr}}
			}
			p.pos = inner
			if f := p.function(); f != nil {
				if l := p.postfix(&ast.Compose{Name: name, Inner: f}); l != nil {
					return l
				}
			}
			p.pos = start
			return nil
		}
	}
	return p.postfix(&ast.FuncRef{Name: name})
}

// postfix applies flips and joins to a relation. A comparison relation
// is binary, so it is only accepted with a join supplying its second
// argument; the caller restores the position on nil.
func (p *parser) postfix(f ast.Func) ast.Lam {
	for p.accept("'") {
		f = &ast.Flip{Inner: f}
	}

	save := p.pos
	switch {
	case p.accept("."):
		if arg := p.primary(); arg != nil {
			return &ast.Join{Rel: f, Arg: arg}
		}
	case p.accept("["):
		if l := p.bracketJoin(f); l != nil {
			return l
		}
	}
	p.pos = save
	if isComparison(f) {
		p.note("'.' or '['")
		return nil
	}
	return f
}

// isComparison reports whether applying f ends in a comparison operator,
// through any flips and compositions
func isComparison(f ast.Func) bool {
	switch f := f.(type) {
	case *ast.FuncOp:
		return true
	case *ast.Flip:
		return isComparison(f.Inner)
	case *ast.Compose:
		return isComparison(f.Inner)
	}
	return false
}

// bracketJoin parses the rest of "rel[disj]" or "rel[tail, ...; head, ...]"
func (p *parser) bracketJoin(rel ast.Func) ast.Lam {
	tail := p.disjs()
	if tail == nil {
		return nil
	}
	var head []*ast.Disj
	semicolon := false
	if p.accept(";") {
		semicolon = true
		if head = p.disjs(); head == nil {
			return nil
		}
	}
	if !p.accept("]") {
		return nil
	}
	if len(tail) == 1 && !semicolon {
		return &ast.Join{Rel: rel, Arg: tail[0]}
	}
	if isComparison(rel) {
		// the placeholder plus two or more arguments
		return nil
	}
	return &ast.MultiJoin{Rel: rel, Tail: tail, Head: head}
}

// function parses a relation without joins: name, (op), name$func, func'
func (p *parser) function() ast.Func {
	start := p.pos
	tok, ok := p.peek()
	if !ok {
		p.note("relation")
		return nil
	}
	var f ast.Func
	switch {
	case tok.Kind == TokenName:
		p.pos++
		f = &ast.FuncRef{Name: tok.Text}
		if p.accept("$") {
			inner := p.function()
			if inner == nil {
				p.pos = start
				return nil
			}
			f = &ast.Compose{Name: tok.Text, Inner: inner}
		}
	case tok.Text == "(":
		p.pos++
		op, ok := p.acceptKind(TokenCmpOp)
		if !ok || !p.accept(")") {
			p.pos = start
			return nil
		}
		f = &ast.FuncOp{Op: op}
	default:
		p.note("relation")
		return nil
	}
	for p.accept("'") {
		f = &ast.Flip{Inner: f}
	}
	return f
}

// hof parses "#agg(e)", "#sup(rel, e)", "#enumerate(i, e)"
func (p *parser) hof() ast.Lam {
	start := p.pos
	if !p.accept("#") {
		return nil
	}
	op, ok := p.acceptKind(TokenName)
	if !ok || !p.accept("(") {
		p.pos = start
		return nil
	}

	var out ast.Lam
	switch {
	case aggregationOps[op]:
		if value := p.ldcs(); value != nil {
			out = &ast.Aggregation{Op: op, Value: value}
		}
	case superlativeOps[op]:
		rel := p.function()
		if rel != nil && p.accept(",") {
			if value := p.disj(); value != nil {
				out = &ast.Superlative{Op: op, Rel: rel, Value: value}
			}
		}
	case op == "enumerate":
		idx := p.disj()
		if idx != nil && p.accept(",") {
			if value := p.disj(); value != nil {
				out = &ast.Enumerate{Index: idx, Value: value}
			}
		}
	default:
		p.pos = start + 1
		p.note("aggregate or superlative")
	}

	if out == nil || !p.accept(")") {
		p.pos = start
		return nil
	}
	return out
}

// neg parses "~(ldcs)" or "~primary"
func (p *parser) neg() ast.Lam {
	start := p.pos
	if !p.accept("~") {
		return nil
	}
	inner := p.pos
	if l := p.primary(); l != nil {
		return &ast.Neg{Operand: ast.Single(l)}
	}
	p.pos = inner
	if p.accept("(") {
		if value := p.ldcs(); value != nil && p.accept(")") {
			return &ast.Neg{Operand: value}
		}
	}
	p.pos = start
	return nil
}

// pred parses "name(ldcs, ...)" or "name$pred"
func (p *parser) pred() *ast.Pred {
	start := p.pos
	name, ok := p.acceptKind(TokenName)
	if !ok {
		return nil
	}
	if p.accept("$") {
		inner := p.pred()
		if inner == nil {
			p.pos = start
			return nil
		}
		return &ast.Pred{Name: name, Compose: inner}
	}
	if !p.accept("(") {
		p.pos = start
		return nil
	}
	var args []*ast.LDCS
	for {
		arg := p.ldcs()
		if arg == nil {
			p.pos = start
			return nil
		}
		args = append(args, arg)
		if !p.accept(",") {
			break
		}
	}
	if !p.accept(")") {
		p.pos = start
		return nil
	}
	return &ast.Pred{Name: name, Args: args}
}

// clause parses "term, term ..."
func (p *parser) clause() *ast.Clause {
	first := p.term()
	if first == nil {
		return nil
	}
	c := &ast.Clause{Terms: []ast.Term{first}}
	for {
		save := p.pos
		if !p.accept(",") {
			return c
		}
		next := p.term()
		if next == nil {
			p.pos = save
			return c
		}
		c.Terms = append(c.Terms, next)
	}
}

// term parses a foreach, a comparison, or a predicate
func (p *parser) term() ast.Term {
	start := p.pos
	if p.keyword("each") {
		if p.accept("(") {
			lit := p.term()
			if lit != nil && p.accept(",") {
				cond := p.term()
				if cond != nil && p.accept(")") {
					return &ast.Foreach{Lit: lit, Cond: cond}
				}
			}
		}
		p.pos = start
		return nil
	}
	if cmp := p.cmpop(); cmp != nil {
		return cmp
	}
	p.pos = start
	if pr := p.pred(); pr != nil {
		return pr
	}
	p.pos = start
	return nil
}

// cmpop parses "bracketed CMP bracketed"
func (p *parser) cmpop() *ast.BinOp {
	start := p.pos
	left := p.bracketed()
	if left == nil {
		return nil
	}
	op, ok := p.acceptKind(TokenCmpOp)
	if !ok {
		p.pos = start
		return nil
	}
	right := p.bracketed()
	if right == nil {
		p.pos = start
		return nil
	}
	return &ast.BinOp{Left: left, Op: op, Right: right}
}
