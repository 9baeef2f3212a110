package rules

import (
	"strconv"
	"strings"

	"github.com/teranos/ldcs/ldcs/gensym"
)

// Proof builds the proof companion of an implication:
//
//	h :- a(X), X = @f(Y), X > 1.
//	proof(@proof(h,P1,P2),h) :- proof(P1,a(X)), X = @f(Y), P2 = eq(X,f(Y)), X > 1.
//
// ok is false for facts, directives, choice rules, and empty bodies.
func Proof(rule string, gen *gensym.Generator) (string, bool) {
	if strings.Contains(rule, "{") {
		return "", false
	}
	head, body, ok := SplitRule(rule)
	if !ok || strings.TrimSpace(body) == "" {
		return "", false
	}

	var terms, pvars []string
	for _, term := range strings.Split(body, BodySeparator) {
		switch {
		case strings.Contains(term, " = @"):
			v := "P" + strconv.Itoa(gen.Next(gensym.Proof))
			terms = append(terms, term, v+" = eq("+strings.ReplaceAll(term, " = @", ",")+")")
			pvars = append(pvars, v)
		case strings.Contains(term, " "):
			terms = append(terms, term)
		case strings.TrimSpace(term) != "":
			v := "P" + strconv.Itoa(gen.Next(gensym.Proof))
			terms = append(terms, "proof("+v+","+term+")")
			pvars = append(pvars, v)
		}
	}

	prf := strings.Join(append([]string{head}, pvars...), ",")
	return "proof(@proof(" + prf + ")," + head + ") :- " + Commas(terms...) + ".", true
}

// SynthesizeProofs appends a proof companion for every implication in the store
func (s *Store) SynthesizeProofs(gen *gensym.Generator) int {
	added := 0
	for _, rule := range s.Rules() {
		if p, ok := Proof(rule, gen); ok {
			s.Append(p)
			added++
		}
	}
	return added
}
