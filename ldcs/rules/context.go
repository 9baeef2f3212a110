package rules

import (
	"regexp"
	"strings"
)

const (
	contextMarker = "@context("

	// contextVarPrefix marks variables written by the user; generated symbols never carry it
	contextVarPrefix = "Mu"

	maxContextPasses = 64
)

// ContextMarker builds the deferred placeholder appended to a lifted rule body.
// call is the lifted predicate applied to "_"; ground is the subject symbol when
// range tests on it must be threaded through, otherwise empty.
func ContextMarker(call, ground string) string {
	if ground != "" {
		return contextMarker + ground + "," + call + ")"
	}
	return contextMarker + call + ")"
}

// findMarker locates the first @context(...) in a rule with balanced parentheses
func findMarker(rule string) (start, end int, args string, ok bool) {
	start = strings.Index(rule, contextMarker)
	if start < 0 {
		return 0, 0, "", false
	}
	depth := 0
	for i := start + len(contextMarker) - 1; i < len(rule); i++ {
		switch rule[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return start, i + 1, rule[start+len(contextMarker) : i], true
			}
		}
	}
	return 0, 0, "", false
}

// ExpandContexts resolves @context markers against the call sites of each
// lifted predicate and repeats until no rule changes. Markers with no call
// site are dropped once the rules are stable. Returns the number of passes.
func (s *Store) ExpandContexts() int {
	passes := 0
	for passes < maxContextPasses {
		passes++
		if !s.expandOnce() {
			break
		}
	}
	s.dropUnresolved()
	return passes
}

func (s *Store) expandOnce() bool {
	changed := false
	for i, rule := range s.rules {
		start, end, args, ok := findMarker(rule)
		if !ok {
			continue
		}
		marker := rule[start:end]

		pred, ground := args, ""
		if len(pred) > 1 && pred[1] == ',' {
			ground = pred[:1]
			pred = pred[2:]
		}

		template, err := regexp.Compile(strings.ReplaceAll(regexp.QuoteMeta(pred), "_", "([A-Z])"))
		if err != nil || template.NumSubexp() == 0 {
			continue
		}

		context, found := s.callSiteContext(i, template, pred, ground)
		if !found {
			continue
		}
		expanded := strings.ReplaceAll(rule, marker, Commas(context...))
		expanded = strings.ReplaceAll(expanded, ", .", ".")
		if expanded != rule {
			s.rules[i] = expanded
			changed = true
		}
	}
	return changed
}

// callSiteContext scans every other rule body for the first literal matching
// template and collects the sibling literals that belong in the lifted rule
func (s *Store) callSiteContext(self int, template *regexp.Regexp, pred, ground string) ([]string, bool) {
	for j, other := range s.rules {
		if j == self {
			continue
		}
		_, body, ok := SplitRule(other)
		if !ok {
			continue
		}
		terms := strings.Split(body, BodySeparator)
		for k, term := range terms {
			m := template.FindStringSubmatch(term)
			if m == nil {
				continue
			}
			headVar := m[1]
			mentions := regexp.MustCompile(`\b` + regexp.QuoteMeta(headVar) + `\b`)

			var context []string
			for l, t := range terms {
				if l == k {
					continue
				}
				if !mentions.MatchString(t) && strings.Contains(pred, contextVarPrefix) {
					context = append(context, t)
				} else if ground != "" && strings.Contains(t, "..") && strings.HasPrefix(t, headVar+" = ") {
					context = append(context, ground+t[len(headVar):])
				}
			}
			return context, true
		}
	}
	return nil, false
}

func (s *Store) dropUnresolved() {
	for i, rule := range s.rules {
		for {
			start, end, _, ok := findMarker(rule)
			if !ok {
				break
			}
			if strings.HasSuffix(rule[:start], BodySeparator) {
				start -= len(BodySeparator)
			}
			rule = rule[:start] + rule[end:]
		}
		s.rules[i] = rule
	}
}

// HasMarkers reports whether any rule still carries a deferred placeholder
func (s *Store) HasMarkers() bool {
	for _, rule := range s.rules {
		if strings.Contains(rule, contextMarker) {
			return true
		}
	}
	return false
}
