package ast

// Variables returns the user variables of a node in source order, with repeats
func Variables(node interface{}) []string {
	var out []string
	walk(node, func(c *Constant) {
		if c.Kind == VarConstant {
			out = append(out, c.Text)
		}
	})
	return out
}

func walk(node interface{}, visit func(*Constant)) {
	switch n := node.(type) {
	case nil:
	case *LDCS:
		if n == nil {
			return
		}
		walk(n.Disj, visit)
		walk(n.Cond, visit)
	case *Disj:
		if n == nil {
			return
		}
		for _, c := range n.Conjs {
			for _, l := range c.Lams {
				walk(l, visit)
			}
		}
	case *Clause:
		if n == nil {
			return
		}
		for _, t := range n.Terms {
			walk(t, visit)
		}
	case *Pred:
		for _, a := range n.Args {
			walk(a, visit)
		}
		if n.Compose != nil {
			walk(n.Compose, visit)
		}
	case *BinOp:
		walk(n.Left, visit)
		walk(n.Right, visit)
	case *Negative:
		walk(n.Operand, visit)
	case *Foreach:
		walk(n.Lit, visit)
		walk(n.Cond, visit)
	case *Paren:
		walk(n.Value, visit)
	case *LamOperand:
		walk(n.Lam, visit)
	case *Constant:
		visit(n)
	case *Join:
		walk(n.Arg, visit)
	case *MultiJoin:
		for _, d := range n.Tail {
			walk(d, visit)
		}
		for _, d := range n.Head {
			walk(d, visit)
		}
	case *Neg:
		walk(n.Operand, visit)
	case *Aggregation:
		walk(n.Value, visit)
	case *Superlative:
		walk(n.Value, visit)
	case *Enumerate:
		walk(n.Index, visit)
		walk(n.Value, visit)
	case *Unify:
		walk(n.Expr, visit)
	}
}
