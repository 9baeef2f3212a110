package compiler

import (
	"strconv"
	"strings"

	"github.com/teranos/ldcs/errors"
	"github.com/teranos/ldcs/ldcs/ast"
	"github.com/teranos/ldcs/ldcs/gensym"
	"github.com/teranos/ldcs/ldcs/rules"
)

// Form names reported in Program.Form and in logs
const (
	FormFluent        = "fluent"
	FormEnum          = "enum"
	FormExist         = "exist"
	FormRelation      = "relation"
	FormConstraintAny = "constraint_any"
	FormQueryAny      = "query_any"
	FormGoalAny       = "goal_any"
	FormDefine        = "define"
	FormReverseDefine = "reverse_define"
	FormMacro         = "macro"
	FormClaim         = "claim"
	FormQuery         = "query"
	FormClauseQuery   = "clause_query"
	FormGoal          = "goal"
)

// FormOf names the command form of a parsed command
func FormOf(cmd ast.Command) string {
	switch c := cmd.(type) {
	case *ast.Fluent:
		return FormFluent
	case *ast.Enum:
		return FormEnum
	case *ast.Exist:
		return FormExist
	case *ast.Relation:
		return FormRelation
	case *ast.ConstraintAny:
		return FormConstraintAny
	case *ast.QueryAny:
		return FormQueryAny
	case *ast.GoalAny:
		return FormGoalAny
	case *ast.Define:
		switch {
		case c.Macro:
			return FormMacro
		case c.Reverse:
			return FormReverseDefine
		}
		return FormDefine
	case *ast.Claim:
		return FormClaim
	case *ast.Query:
		return FormQuery
	case *ast.ClauseQuery:
		return FormClauseQuery
	case *ast.Goal:
		return FormGoal
	}
	return "unknown"
}

// command evaluates a top-level command. Forms that produce a single
// leading rule return it without its terminating period; the others
// write their rules to the store directly and return "".
func (e *evaluator) command(cmd ast.Command) string {
	switch c := cmd.(type) {
	case *ast.Fluent:
		return e.fluent(c)
	case *ast.Enum:
		heads := e.lams(c.Heads)
		e.enum(heads, e.alternatives(c.Alternatives))
		return ""
	case *ast.Exist:
		e.enum(nil, e.alternatives(c.Alternatives))
		return ""
	case *ast.Relation:
		e.relation(c)
		return ""
	case *ast.ConstraintAny:
		e.constraintAny(c)
		return ""
	case *ast.QueryAny:
		e.store.Append("yes :- "+witness(e.ldcs(c.Value))+".", "no :- not yes.")
		return ""
	case *ast.GoalAny:
		return e.goalAny(e.ldcs(c.Value))
	case *ast.Define:
		e.define(c)
		return ""
	case *ast.Claim:
		head := e.term(c.Head)
		return head.Value + " :- " + rules.Commas(head.Body, e.clause(c.Cond))
	case *ast.Query:
		return headed("what", e.ldcs(c.Value))
	case *ast.ClauseQuery:
		body := e.clause(c.Clause)
		return headed("what", Closed{Value: userVarPrefix + c.Var, Body: body})
	case *ast.Goal:
		return headed("goal", e.ldcs(c.Value))
	}
	panic(errors.AssertionFailedf("unexpected command %T", cmd))
}

// headed builds "head(v) :- body", or the fact "head(v)" without a body
func headed(head string, v Closed) string {
	if v.Body == "" {
		return head + "(" + v.Value + ")"
	}
	return head + "(" + v.Value + ") :- " + v.Body
}

func (e *evaluator) lams(ls []ast.Lam) []Open {
	out := make([]Open, len(ls))
	for i, l := range ls {
		out[i] = e.lam(l)
	}
	return out
}

func (e *evaluator) alternatives(alts [][]ast.Lam) [][]Open {
	out := make([][]Open, len(alts))
	for i, alt := range alts {
		out[i] = e.lams(alt)
	}
	return out
}

// fluent makes a predicate hold at every time step where its conditions hold
func (e *evaluator) fluent(c *ast.Fluent) string {
	head := e.pred(c.Head)
	cond := e.clause(c.Cond)
	if cond != "" {
		var terms []string
		for _, term := range strings.Split(rules.Commas(head.Body, cond), rules.BodySeparator) {
			if strings.Contains(term, " ") {
				terms = append(terms, term)
			} else {
				terms = append(terms, "holds("+term+", Time)")
			}
		}
		rule := "holds(" + head.Value + ", Time) :- " + rules.Commas(terms...) + "."
		e.store.Append(
			rule,
			"#program step(t).",
			strings.ReplaceAll(rule, "Time", "now+t"),
			"#program base.",
		)
	}
	return head.Value + " :- holds(" + head.Value + ")"
}

// enum introduces one fresh object per alternative, described by its
// labels and satisfying every head and alternative formula
func (e *evaluator) enum(heads []Open, alternatives [][]Open) {
	for _, lams := range alternatives {
		name := gensym.Object.String() + strconv.Itoa(e.gen.Next(gensym.Object))

		var labels []string
		for _, lam := range lams {
			if label := lam(""); !strings.Contains(label, rules.BodySeparator) {
				labels = append(labels, strings.ReplaceAll(label, "()", ""))
			}
		}
		e.store.Describe(name, labels)

		for _, lam := range append(append([]Open{}, heads...), lams...) {
			e.store.Append(strings.Replace(lam(name), rules.BodySeparator, " :- ", 1) + ".")
		}
	}
}

// relation bounds, for each argument, how many tuples each value takes part in
func (e *evaluator) relation(c *ast.Relation) {
	params := make([]Closed, len(c.Params))
	symbols := make([]string, len(c.Params))
	for i, p := range c.Params {
		params[i] = e.ldcs(p.Value)
		symbols[i] = params[i].Value
	}
	atom := c.Name + "(" + rules.Commas(symbols...) + ")"

	for i, p := range c.Params {
		var others []string
		for j, q := range params {
			if j != i {
				others = append(others, q.Body)
			}
		}
		choice := "{ " + atom + " }"
		if cond := rules.Commas(others...); cond != "" {
			choice = "{ " + atom + " : " + cond + " }"
		}
		e.store.Append(choice + " = " + p.Bound + " :- " + params[i].Body + ".")
	}
}

// witness is the body establishing that a closed formula has a value. A
// compound value (an atom or a comparison) is itself a literal; a symbol
// or a number adds nothing.
func witness(v Closed) string {
	if strings.ContainsAny(v.Value, "( ") {
		return rules.Commas(v.Value, v.Body)
	}
	return v.Body
}

// constraintAny requires at least one witness in every model
func (e *evaluator) constraintAny(c *ast.ConstraintAny) {
	var body string
	if c.Cmp != nil {
		body = witness(e.binOp(c.Cmp))
	} else {
		body = witness(e.ldcs(c.Value))
	}
	name := gensym.Constraint.String() + strconv.Itoa(e.gen.Next(gensym.Constraint))
	e.store.Append(name+" :- "+body+".", ":- not "+name+".")
}

// goalAny chooses exactly one goal among the candidates. Bodies holding
// conditional literals are routed through a helper predicate first.
func (e *evaluator) goalAny(v Closed) string {
	if strings.Contains(v.Body, ";") {
		name := gensym.Goal.String() + strconv.Itoa(e.gen.Next(gensym.Goal))
		e.store.Append(name + "(" + v.Value + ") :- " + v.Body + ".")
		x := e.gen.Symbol()
		v = Closed{Value: x, Body: name + "(" + x + ")"}
	}
	if v.Body == "" {
		return "{ goal(" + v.Value + ") } = 1"
	}
	return "{ goal(" + v.Value + ") : " + v.Body + " } = 1"
}

// define emits "head(v) :- body." for each head, in head order, ahead of
// every rule generated while evaluating
func (e *evaluator) define(c *ast.Define) {
	var heads []Open
	var v Closed
	if c.Reverse {
		v = e.ldcs(c.Value)
		heads = e.lams(c.Heads)
	} else {
		heads = e.lams(c.Heads)
		v = e.ldcs(c.Value)
	}

	for i := len(heads) - 1; i >= 0; i-- {
		lhs := strings.Split(heads[i](v.Value), rules.BodySeparator)
		e.store.Prepend(lhs[0] + " :- " + rules.Commas(append(lhs[1:], v.Body)...) + ".")
	}
}
