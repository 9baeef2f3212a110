// Package rules holds the generated clause text of one compile and the
// passes that repair it after evaluation: context expansion, proof
// synthesis, and serialization.
package rules

import "strings"

// BodySeparator joins the literals of a clause body
const BodySeparator = ", "

// Description labels a synthesized object for describe/2 facts
type Description struct {
	Name   string   `json:"name"`
	Labels []string `json:"labels"`
}

// Store is an ordered collection of clause text plus the describe table.
// Each rule ends in '.', directives included.
type Store struct {
	rules    []string
	describe []Description
}

// NewStore returns an empty store
func NewStore() *Store {
	return &Store{}
}

// Append adds rules at the end
func (s *Store) Append(rules ...string) {
	s.rules = append(s.rules, rules...)
}

// Prepend inserts one rule at the front
func (s *Store) Prepend(rule string) {
	s.rules = append([]string{rule}, s.rules...)
}

// Describe records a label for an object and appends its describe/2 fact
func (s *Store) Describe(name string, labels []string) {
	s.describe = append(s.describe, Description{Name: name, Labels: labels})
	s.Append("describe(" + name + ", " + strings.Join(labels, BodySeparator) + ").")
}

// Rules returns a copy of the rules in order
func (s *Store) Rules() []string {
	out := make([]string, len(s.rules))
	copy(out, s.rules)
	return out
}

// Descriptions returns the describe table in insertion order
func (s *Store) Descriptions() []Description {
	out := make([]Description, len(s.describe))
	copy(out, s.describe)
	return out
}

// Len returns the number of rules
func (s *Store) Len() int {
	return len(s.rules)
}

// Reset drops every rule and description
func (s *Store) Reset() {
	s.rules = nil
	s.describe = nil
}

// Commas joins the non-empty parts with ", "
func Commas(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, BodySeparator)
}

// SplitRule splits "head :- body." into head and body.
// ok is false for facts and directives.
func SplitRule(rule string) (head, body string, ok bool) {
	parts := strings.SplitN(strings.TrimSuffix(rule, "."), " :- ", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// Serialize joins rules with newlines and collapses the punctuation left
// behind by empty conditions and trailing conditional literals
func Serialize(rules []string) string {
	out := strings.Join(rules, "\n")
	out = strings.ReplaceAll(out, ";,", ";")
	out = strings.ReplaceAll(out, ";.", ".")
	out = strings.ReplaceAll(out, " :- .", ".")
	return out
}
