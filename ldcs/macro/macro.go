// Package macro records rule templates and instantiates them hygienically.
//
// A definition is a single clause "head(F1, ...) :- lit, lit." in a small
// rule grammar. Expanding it substitutes the formals by position and gives
// every other template variable a fresh symbol for that call site, so no
// two expansions share a generated variable. A formal that is not a
// variable turns into an equality obligation on the matching actual.
package macro

import (
	"fmt"
	"sort"
	"strings"

	"github.com/teranos/ldcs/errors"
)

// Signature identifies a macro by name and arity
type Signature struct {
	Name  string `json:"name"`
	Arity int    `json:"arity"`
}

// String returns "name/arity"
func (s Signature) String() string {
	return fmt.Sprintf("%s/%d", s.Name, s.Arity)
}

// Macro is one parsed definition
type Macro struct {
	Signature
	Source string

	formals []node
	body    []node
}

// Parse parses a definition without registering it
func Parse(definition string) (*Macro, error) {
	source := strings.TrimSpace(definition)
	tokens, err := tokenize(source)
	if err != nil {
		return nil, err
	}
	p := &ruleParser{source: source, tokens: tokens, expected: make(map[string]bool)}
	name, formals, body, ok := p.rule()
	if !ok {
		return nil, p.fail()
	}
	return &Macro{
		Signature: Signature{Name: name, Arity: len(formals)},
		Source:    source,
		formals:   formals,
		body:      body,
	}, nil
}

// Formals returns the rendered formal parameters
func (m *Macro) Formals() []string {
	out := make([]string, len(m.formals))
	e := &expansion{subst: map[string]string{}, fresh: identity}
	for i, f := range m.formals {
		out[i] = f.render(e)
	}
	return out
}

// identity renders template variables under their own names
func identity() string { return "" }

// Expand instantiates the template for one call site. fresh issues a new
// symbol each time it is called.
func (m *Macro) Expand(actuals []string, fresh func() string) string {
	if len(actuals) != len(m.formals) {
		panic(errors.AssertionFailedf("macro %s expanded with %d arguments", m.Signature, len(actuals)))
	}

	e := &expansion{subst: make(map[string]string, len(actuals)), fresh: fresh}
	var pending []int
	for i, f := range m.formals {
		if v, ok := f.(*varNode); ok {
			if _, bound := e.subst[v.name]; !bound {
				e.subst[v.name] = actuals[i]
				continue
			}
		}
		pending = append(pending, i)
	}

	lits := make([]string, 0, len(m.body)+len(pending))
	for _, lit := range m.body {
		lits = append(lits, lit.render(e))
	}
	for _, i := range pending {
		lits = append(lits, actuals[i]+" = "+unparen(m.formals[i].render(e)))
	}
	return strings.Join(lits, ", ")
}

// expansion is the substitution of one call site
type expansion struct {
	subst map[string]string
	fresh func() string
}

func (e *expansion) lookup(name string) string {
	if v, ok := e.subst[name]; ok {
		return v
	}
	v := e.fresh()
	if v == "" {
		return name
	}
	e.subst[name] = v
	return v
}

// Table maps signatures to definitions. It only grows; a redefinition
// replaces the previous template under the same signature.
type Table struct {
	macros map[Signature]*Macro
}

// NewTable returns an empty table
func NewTable() *Table {
	return &Table{macros: make(map[Signature]*Macro)}
}

// Register parses a definition and stores it. The returned bool is true
// when an earlier definition with the same signature was replaced.
func (t *Table) Register(definition string) (*Macro, bool, error) {
	m, err := Parse(definition)
	if err != nil {
		return nil, false, err
	}
	_, replaced := t.macros[m.Signature]
	t.macros[m.Signature] = m
	return m, replaced, nil
}

// Lookup finds the definition for a name and arity
func (t *Table) Lookup(name string, arity int) (*Macro, bool) {
	m, ok := t.macros[Signature{Name: name, Arity: arity}]
	return m, ok
}

// Get is Lookup returning errors.ErrUnknownMacro when absent
func (t *Table) Get(name string, arity int) (*Macro, error) {
	if m, ok := t.Lookup(name, arity); ok {
		return m, nil
	}
	return nil, errors.Wrapf(errors.ErrUnknownMacro, "%s/%d", name, arity)
}

// Signatures lists every registered signature sorted by name, then arity
func (t *Table) Signatures() []Signature {
	out := make([]Signature, 0, len(t.macros))
	for sig := range t.macros {
		out = append(out, sig)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Arity < out[j].Arity
	})
	return out
}

// Len returns the number of registered macros
func (t *Table) Len() int {
	return len(t.macros)
}
