package compiler

import (
	"strconv"
	"strings"

	"github.com/teranos/ldcs/errors"
	"github.com/teranos/ldcs/ldcs/ast"
	"github.com/teranos/ldcs/ldcs/gensym"
	"github.com/teranos/ldcs/ldcs/macro"
	"github.com/teranos/ldcs/ldcs/rules"
)

// userVarPrefix renames DSL variables so they never collide with generated symbols
const userVarPrefix = "Mu"

// evaluator walks one parse tree. Children are evaluated before their
// parent and in source order, which fixes the order symbols are issued.
type evaluator struct {
	gen    *gensym.Generator
	store  *rules.Store
	macros *macro.Table
}

// close turns a formula into a value. A bare equality with the placeholder
// closes to its right-hand side; anything else gets a fresh symbol.
func (e *evaluator) close(lam Open, cond string) Closed {
	sample := lam("_")
	if strings.HasPrefix(sample, "_ = ") &&
		!strings.Contains(sample, ", ") &&
		!strings.Contains(sample, "{") &&
		!strings.Contains(sample, "..") {
		x := sample[len("_ = "):]
		if !strings.HasPrefix(x, `"`) {
			x = strings.ReplaceAll(x, " ", "")
		}
		return Closed{Value: x, Body: cond}
	}
	x := e.gen.Symbol()
	return Closed{Value: x, Body: rules.Commas(lam(x), cond)}
}

func (e *evaluator) ldcs(n *ast.LDCS) Closed {
	lam := e.disj(n.Disj)
	cond := e.clause(n.Cond)
	return e.close(lam, cond)
}

func (e *evaluator) disj(n *ast.Disj) Open {
	conjs := make([]Open, len(n.Conjs))
	for i, c := range n.Conjs {
		conjs[i] = e.conj(c)
	}
	if len(conjs) == 1 {
		return conjs[0]
	}

	name := gensym.Disjunction.String() + strconv.Itoa(e.gen.Next(gensym.Disjunction))
	x := e.gen.Symbol()
	for _, lam := range conjs {
		e.store.Append(name + "(" + x + ") :- " + lam(x) + ".")
	}
	return func(x string) string { return name + "(" + x + ")" }
}

func (e *evaluator) conj(n *ast.Conj) Open {
	lams := make([]Open, len(n.Lams))
	for i, l := range n.Lams {
		lams[i] = e.lam(l)
	}
	if len(lams) == 1 {
		return lams[0]
	}
	return func(x string) string {
		parts := make([]string, len(lams))
		for i, lam := range lams {
			parts[i] = lam(x)
		}
		return strings.Join(parts, rules.BodySeparator)
	}
}

func (e *evaluator) lam(n ast.Lam) Open {
	switch n := n.(type) {
	case *ast.Disj:
		return e.disj(n)
	case *ast.Constant:
		c := constantText(n)
		return func(x string) string { return x + " = " + c }
	case ast.Func:
		return asOpen(e.function(n))
	case *ast.Join:
		return e.join(e.function(n.Rel), e.lam(n.Arg))
	case *ast.MultiJoin:
		return e.multiJoin(n)
	case *ast.Neg:
		return e.neg(n)
	case *ast.Aggregation:
		return e.aggregation(n.Op, e.ldcs(n.Value))
	case *ast.Superlative:
		return e.superlative(n)
	case *ast.Enumerate:
		return e.enumerate(n)
	case *ast.Unify:
		v := e.unifyOperand(n.Expr)
		return unify(v)
	}
	panic(errors.AssertionFailedf("unexpected lam %T", n))
}

func constantText(n *ast.Constant) string {
	if n.Kind == ast.VarConstant {
		return userVarPrefix + n.Text
	}
	return n.Text
}

func unify(v Closed) Open {
	return func(x string) string { return rules.Commas(v.Body, x+" = "+v.Value) }
}

// function evaluates a relation to a callable
func (e *evaluator) function(n ast.Func) Callable {
	switch n := n.(type) {
	case *ast.FuncRef:
		return &direct{name: n.Name, macros: e.macros, fresh: e.gen.Symbol, memo: make(map[string]string)}
	case *ast.FuncOp:
		return &operator{op: n.Op}
	case *ast.Compose:
		return &compose{name: n.Name, inner: e.function(n.Inner)}
	case *ast.Flip:
		return &flip{inner: e.function(n.Inner)}
	}
	panic(errors.AssertionFailedf("unexpected relation %T", n))
}

func (e *evaluator) join(rel Callable, lam Open) Open {
	y := e.close(lam, "")
	return func(x string) string { return rules.Commas(rel.Apply(x, y.Value), y.Body) }
}

// multiJoin places head arguments, reversed, before the placeholder and
// tail arguments after it
func (e *evaluator) multiJoin(n *ast.MultiJoin) Open {
	rel := e.function(n.Rel)
	tail := make([]Open, len(n.Tail))
	for i, d := range n.Tail {
		tail[i] = e.disj(d)
	}
	head := make([]Open, len(n.Head))
	for i, d := range n.Head {
		head[len(n.Head)-1-i] = e.disj(d)
	}

	var xs, zs, bodies []string
	for _, lam := range head {
		c := e.close(lam, "")
		xs = append(xs, c.Value)
		bodies = append(bodies, c.Body)
	}
	for _, lam := range tail {
		c := e.close(lam, "")
		zs = append(zs, c.Value)
		bodies = append(bodies, c.Body)
	}
	body := rules.Commas(bodies...)
	return func(y string) string {
		args := append(append(append([]string{}, xs...), y), zs...)
		return rules.Commas(rel.Apply(args...), body)
	}
}

// neg negates a single literal in place and lifts anything larger
func (e *evaluator) neg(n *ast.Neg) Open {
	lam := e.disj(n.Operand.Disj)
	cond := e.clause(n.Operand.Cond)
	if cond == "" && !strings.Contains(lam("_"), " ") {
		return func(x string) string { return "not " + lam(x) }
	}
	lifted := e.lift(e.close(lam, cond), gensym.Negation, true, true)
	return func(x string) string { return "not " + lifted(x) }
}

func (e *evaluator) aggregation(op string, c Closed) Open {
	value, body := c.Value, c.Body
	if strings.Contains(body, " ") {
		lifted := e.close(e.lift(c, gensym.Aggregation, true, false), "")
		value, body = lifted.Value, lifted.Body
	}

	switch op {
	case "count", "sum", "min", "max":
		if body != "" {
			return func(x string) string { return x + " = #" + op + " { " + value + " : " + body + " }" }
		}
		return func(x string) string { return x + " = #" + op + " { " + value + " }" }

	case "set", "bag":
		i := e.gen.Next(gensym.Gather)
		vars := contextVars(rules.Commas(value, body))
		closure := strings.Join(append([]string{strconv.Itoa(i)}, vars...), ",")
		f := func(x string) string { return op + "of((" + closure + ")," + x + ")" }

		context := ""
		if len(vars) > 0 {
			context = rules.ContextMarker(f("_"), "")
		}
		if op == "set" {
			e.store.Prepend("gather((" + closure + ")," + value + ") :- " + rules.Commas(body, context) + ".")
		} else {
			e.store.Prepend("gather((" + closure + "),(" + value + ",P0)) :- " +
				rules.Commas("proof(P0,"+body+")", context) + ".")
		}
		return f
	}
	panic(errors.AssertionFailedf("unknown aggregate %q", op))
}

func (e *evaluator) superlative(n *ast.Superlative) Open {
	rel := e.function(n.Rel)
	lam := e.disj(n.Value)

	y := e.gen.Symbol()
	if strings.Contains(lam(y), " ") {
		lam = e.lift(e.close(lam, ""), gensym.Superlative, false, false)
	}

	switch n.Op {
	case "most":
		return func(x string) string {
			return rel.Apply(x, y) + " : " + lam(y) + ", " + x + " != " + y + "; " + lam(x)
		}
	case "each":
		return func(x string) string { return rel.Apply(x, y) + " : " + lam(y) + ";" }
	case "argmin", "argmax":
		agg := e.aggregation(n.Op[len("arg"):], e.close(e.join(rel, lam), ""))
		return func(x string) string { return rules.Commas(agg(y), rel.Apply(y, x), lam(x)) }
	}
	panic(errors.AssertionFailedf("unknown superlative %q", n.Op))
}

func (e *evaluator) enumerate(n *ast.Enumerate) Open {
	idx := e.disj(n.Index)
	lam := e.disj(n.Value)

	i := strconv.Itoa(e.gen.Next(gensym.Gather))
	y := e.gen.Symbol()
	e.store.Append("gather(" + i + "," + y + ") :- " + lam(y) + ".")
	return func(x string) string { return "enumerate(" + i + "," + y + "," + x + "), " + idx(y) }
}

// clause joins the values and side conditions of its terms; "" when absent
func (e *evaluator) clause(n *ast.Clause) string {
	if n == nil {
		return ""
	}
	body := ""
	for _, t := range n.Terms {
		c := e.term(t)
		body = rules.Commas(body, c.Value, c.Body)
	}
	return body
}

func (e *evaluator) term(n ast.Term) Closed {
	switch n := n.(type) {
	case *ast.Pred:
		return e.pred(n)
	case *ast.BinOp:
		return e.binOp(n)
	case *ast.Foreach:
		lit := e.term(n.Lit)
		cond := e.term(n.Cond)
		return Closed{Value: rules.Commas(lit.Value, lit.Body) + " : " + rules.Commas(cond.Value, cond.Body) + ";"}
	}
	panic(errors.AssertionFailedf("unexpected term %T", n))
}

// pred builds "name(v1,...)". A bare relation name as a whole argument is
// a ground constant rather than a unary formula.
func (e *evaluator) pred(n *ast.Pred) Closed {
	if n.Compose != nil {
		inner := e.pred(n.Compose)
		return Closed{Value: n.Name + "(" + inner.Value + ")", Body: inner.Body}
	}
	if len(n.Args) == 0 {
		return Closed{Value: n.Name}
	}

	values := make([]string, len(n.Args))
	bodies := make([]string, len(n.Args))
	for i, arg := range n.Args {
		if l, ok := arg.AsSingle(); ok {
			if ref, ok := l.(*ast.FuncRef); ok {
				values[i] = ref.Name
				continue
			}
		}
		c := e.ldcs(arg)
		values[i], bodies[i] = c.Value, c.Body
	}
	return Closed{Value: n.Name + "(" + strings.Join(values, ",") + ")", Body: rules.Commas(bodies...)}
}

// binOp parenthesizes operands that are not plain names or numbers
func (e *evaluator) binOp(n *ast.BinOp) Closed {
	a := e.operand(n.Left)
	b := e.operand(n.Right)
	left, right := a.Value, b.Value
	if !isAlnum(left) {
		left = "(" + left + ")"
	}
	if !isAlnum(right) {
		right = "(" + right + ")"
	}
	return Closed{Value: left + " " + n.Op + " " + right, Body: rules.Commas(a.Body, b.Body)}
}

func (e *evaluator) negative(n *ast.Negative) Closed {
	c := e.operand(n.Operand)
	return Closed{Value: "-" + c.Value, Body: c.Body}
}

// operand evaluates one side of an operator to a value
func (e *evaluator) operand(n ast.Operand) Closed {
	switch n := n.(type) {
	case *ast.LamOperand:
		return e.close(e.lam(n.Lam), "")
	case *ast.Paren:
		return e.ldcs(n.Value)
	case *ast.Negative:
		return e.close(unify(e.negative(n)), "")
	}
	panic(errors.AssertionFailedf("unexpected operand %T", n))
}

// unifyOperand evaluates the expression of a unify lam
func (e *evaluator) unifyOperand(n ast.Operand) Closed {
	switch n := n.(type) {
	case *ast.Pred:
		return e.pred(n)
	case *ast.BinOp:
		return e.binOp(n)
	case *ast.Negative:
		return e.negative(n)
	}
	return e.operand(n)
}
