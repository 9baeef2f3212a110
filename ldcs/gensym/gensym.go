// Package gensym issues fresh logic variables and per-category indices
// for synthesized predicate names.
//
// Symbols run A..Z, then X0, X1, ... Category indices start at 1 and
// increase strictly within a category until the generator is reset.
package gensym

import "fmt"

// Category names an independent counter
type Category int

const (
	Symbol Category = iota
	Disjunction
	Negation
	Aggregation
	Superlative
	Goal
	Constraint
	Gather
	Proof
	Object
)

var categoryNames = map[Category]string{
	Symbol:      "symbol",
	Disjunction: "disjunction",
	Negation:    "negation",
	Aggregation: "aggregation",
	Superlative: "superlative",
	Goal:        "goal",
	Constraint:  "constraint",
	Gather:      "gather",
	Proof:       "proof",
	Object:      "object",
}

// String returns the predicate prefix used for names in this category
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Generator is the CounterTable of one compiler. Not safe for concurrent use.
type Generator struct {
	counts map[Category]int
}

// New returns a generator with every counter at zero
func New() *Generator {
	return &Generator{counts: make(map[Category]int)}
}

// Next returns the next index of a category, starting at 1
func (g *Generator) Next(c Category) int {
	g.counts[c]++
	return g.counts[c]
}

// Peek returns the last index issued for a category (0 if none)
func (g *Generator) Peek(c Category) int {
	return g.counts[c]
}

// Symbol returns a fresh variable name
func (g *Generator) Symbol() string {
	return SymbolName(g.Next(Symbol) - 1)
}

// Reset zeroes every counter
func (g *Generator) Reset() {
	g.counts = make(map[Category]int)
}

// ResetSymbols zeroes only the symbol counter, keeping predicate indices
func (g *Generator) ResetSymbols() {
	delete(g.counts, Symbol)
}

// SymbolName maps the i-th issued symbol (0-based) to its name
func SymbolName(i int) string {
	if i < len(alphabet) {
		return alphabet[i : i+1]
	}
	return fmt.Sprintf("X%d", i-len(alphabet))
}
