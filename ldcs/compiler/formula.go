package compiler

import (
	"strings"

	"github.com/teranos/ldcs/errors"
	"github.com/teranos/ldcs/ldcs/macro"
)

// Open is a formula with one free placeholder. Applying it to a symbol
// yields clause body text; the same symbol always yields the same text.
type Open func(x string) string

// Closed is the value an expression denotes plus the side conditions
// needed to establish it. An empty Body means none.
type Closed struct {
	Value string
	Body  string
}

// Callable is an n-ary relation
type Callable interface {
	Apply(args ...string) string
}

// asOpen uses a relation in formula position, applied to the placeholder alone
func asOpen(c Callable) Open {
	return func(x string) string { return c.Apply(x) }
}

// direct applies a named predicate, or expands a macro registered under
// the same name and arity
type direct struct {
	name   string
	macros *macro.Table
	fresh  func() string
	memo   map[string]string
}

func (d *direct) Apply(args ...string) string {
	m, ok := d.macros.Lookup(d.name, len(args))
	if !ok {
		return d.name + "(" + strings.Join(args, ",") + ")"
	}
	key := strings.Join(args, "\x00")
	if out, ok := d.memo[key]; ok {
		return out
	}
	out := m.Expand(args, d.fresh)
	d.memo[key] = out
	return out
}

// operator applies a comparison: "(<)" as a binary relation
type operator struct {
	op string
}

func (o *operator) Apply(args ...string) string {
	if len(args) != 2 {
		panic(errors.AssertionFailedf("operator %q applied to %d arguments", o.op, len(args)))
	}
	return args[0] + " " + o.op + " " + args[1]
}

// compose wraps the result of a relation in another name: "f$g"
type compose struct {
	name  string
	inner Callable
}

func (c *compose) Apply(args ...string) string {
	return c.name + "(" + c.inner.Apply(args...) + ")"
}

// flip reverses argument order: "r'"
type flip struct {
	inner Callable
}

func (f *flip) Apply(args ...string) string {
	reversed := make([]string, len(args))
	for i, a := range args {
		reversed[len(args)-1-i] = a
	}
	return f.inner.Apply(reversed...)
}

// isAlnum reports whether s is a non-empty run of ASCII letters and digits
func isAlnum(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

func isUpper(c byte) bool {
	return c >= 'A' && c <= 'Z'
}
