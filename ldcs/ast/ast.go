// Package ast defines the parse tree of the command language.
//
// Nodes are built once by the parser and never mutated. Expression nodes
// fall into three families that the compiler evaluates differently:
//
//   - Lam: denotes a set of values (open formula, one free placeholder)
//   - Func: denotes an n-ary relation (a callable)
//   - Term: a clause literal (predicate, comparison, conditional literal)
package ast

// Command is a complete top-level statement
type Command interface {
	command()
}

// Lam is an expression evaluated to an open formula
type Lam interface {
	lam()
}

// Func is an expression evaluated to a callable. Every Func is also a Lam:
// in lam position it is applied to the placeholder alone.
type Func interface {
	Lam
	fn()
}

// Term is a literal inside a clause
type Term interface {
	term()
}

// Operand is one side of an arithmetic or comparison operator
type Operand interface {
	operand()
}

// Top-level commands

// Fluent is "#fluent p(...) [: clause]."
type Fluent struct {
	Head *Pred
	Cond *Clause
}

// Enum is "heads : #some alt | alt."
type Enum struct {
	Heads        []Lam
	Alternatives [][]Lam
}

// Exist is "#some alt | alt."
type Exist struct {
	Alternatives [][]Lam
}

// Relation is "#relation name(N e, ...)."
type Relation struct {
	Name   string
	Params []RParam
}

// RParam is one cardinality-bounded relation argument
type RParam struct {
	Bound string
	Value *LDCS
}

// ConstraintAny is "#any e." (Cmp set when e is a comparison)
type ConstraintAny struct {
	Value *LDCS
	Cmp   *BinOp
}

// QueryAny is "#any e?"
type QueryAny struct {
	Value *LDCS
}

// GoalAny is "#any e!"
type GoalAny struct {
	Value *LDCS
}

// Define is "heads : e." or "e :: heads." (Reverse) or "#macro heads : e." (Macro)
type Define struct {
	Heads   []Lam
	Value   *LDCS
	Reverse bool
	Macro   bool
}

// Claim is "term [: clause]."
type Claim struct {
	Head Term
	Cond *Clause
}

// Query is "e?"
type Query struct {
	Value *LDCS
}

// ClauseQuery is "lit, lit, ...?" projected on its first variable
type ClauseQuery struct {
	Var    string
	Clause *Clause
}

// Goal is "e!"
type Goal struct {
	Value *LDCS
}

// Expressions

// LDCS is a disjunction with optional side conditions: "d [: clause]"
type LDCS struct {
	Disj *Disj
	Cond *Clause
}

// Disj is "conj | conj ..."
type Disj struct {
	Conjs []*Conj
}

// Conj is a juxtaposition of lams sharing one placeholder
type Conj struct {
	Lams []Lam
}

// Clause is "term, term, ..."
type Clause struct {
	Terms []Term
}

// Pred is "name(e, ...)" or "name$pred"
type Pred struct {
	Name    string
	Args    []*LDCS
	Compose *Pred
}

// BinOp is "a op b" for arithmetic and comparison operators
type BinOp struct {
	Left  Operand
	Op    string
	Right Operand
}

// Negative is "(-a)"
type Negative struct {
	Operand Operand
}

// Foreach is "#each(lit, cond)"
type Foreach struct {
	Lit  Term
	Cond Term
}

// ConstantKind distinguishes literal leaves
type ConstantKind int

const (
	IntConstant ConstantKind = iota
	VarConstant
	StringConstant
)

// Constant is an integer, a variable, or a quoted string
type Constant struct {
	Kind ConstantKind
	Text string
}

// FuncRef is a bare relation name
type FuncRef struct {
	Name string
}

// FuncOp is a comparison operator used as a relation: "(<)"
type FuncOp struct {
	Op string
}

// Compose is "name$func"
type Compose struct {
	Name  string
	Inner Func
}

// Flip is "func'"
type Flip struct {
	Inner Func
}

// Join is "rel.lam" or "rel[disj]"
type Join struct {
	Rel Func
	Arg Lam
}

// MultiJoin is "rel[tail, ...; head, ...]"
type MultiJoin struct {
	Rel  Func
	Tail []*Disj
	Head []*Disj
}

// Neg is "~e"
type Neg struct {
	Operand *LDCS
}

// Aggregation is "#op(e)" with op in count, sum, min, max, set, bag
type Aggregation struct {
	Op    string
	Value *LDCS
}

// Superlative is "#op(rel, e)" with op in most, each, argmin, argmax
type Superlative struct {
	Op    string
	Rel   Func
	Value *Disj
}

// Enumerate is "#enumerate(index, e)"
type Enumerate struct {
	Index *Disj
	Value *Disj
}

// Unify is a predicate or operator expression used as a value: x = expr
type Unify struct {
	Expr Operand
}

// Paren is "(e)" in operand position
type Paren struct {
	Value *LDCS
}

// LamOperand wraps a lam in operand position
type LamOperand struct {
	Lam Lam
}

func (*Fluent) command()        {}
func (*Enum) command()          {}
func (*Exist) command()         {}
func (*Relation) command()      {}
func (*ConstraintAny) command() {}
func (*QueryAny) command()      {}
func (*GoalAny) command()       {}
func (*Define) command()        {}
func (*Claim) command()         {}
func (*Query) command()         {}
func (*ClauseQuery) command()   {}
func (*Goal) command()          {}

func (*Disj) lam()        {}
func (*Constant) lam()    {}
func (*FuncRef) lam()     {}
func (*FuncOp) lam()      {}
func (*Compose) lam()     {}
func (*Flip) lam()        {}
func (*Join) lam()        {}
func (*MultiJoin) lam()   {}
func (*Neg) lam()         {}
func (*Aggregation) lam() {}
func (*Superlative) lam() {}
func (*Enumerate) lam()   {}
func (*Unify) lam()       {}

func (*FuncRef) fn() {}
func (*FuncOp) fn()  {}
func (*Compose) fn() {}
func (*Flip) fn()    {}

func (*Pred) term()    {}
func (*BinOp) term()   {}
func (*Foreach) term() {}

func (*Pred) operand()       {}
func (*BinOp) operand()      {}
func (*Negative) operand()   {}
func (*Paren) operand()      {}
func (*LamOperand) operand() {}

// Single wraps one lam as a complete expression
func Single(l Lam) *LDCS {
	return &LDCS{Disj: &Disj{Conjs: []*Conj{{Lams: []Lam{l}}}}}
}

// AsSingle returns the only lam of an expression with no alternatives,
// no juxtaposition, and no side conditions
func (e *LDCS) AsSingle() (Lam, bool) {
	if e == nil || e.Cond != nil || e.Disj == nil || len(e.Disj.Conjs) != 1 {
		return nil, false
	}
	lams := e.Disj.Conjs[0].Lams
	if len(lams) != 1 {
		return nil, false
	}
	return lams[0], true
}
