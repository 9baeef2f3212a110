package compiler

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/teranos/ldcs/ldcs/gensym"
	"github.com/teranos/ldcs/ldcs/rules"
)

// userVariable matches a DSL variable after renaming (X becomes MuX)
var userVariable = regexp.MustCompile(`Mu[A-Z]`)

// contextVars returns the sorted distinct user variables in text
func contextVars(text string) []string {
	seen := make(map[string]bool)
	var vars []string
	for _, v := range userVariable.FindAllString(text, -1) {
		if !seen[v] {
			seen[v] = true
			vars = append(vars, v)
		}
	}
	sort.Strings(vars)
	return vars
}

// lift promotes a closed formula to an auxiliary predicate of the given
// category and returns the predicate as a formula.
//
// With context on, user variables of the formula join the closure index in
// the predicate's first argument. Ground threading applies only when the
// subject is a generated symbol. Either one defers the rest of the body to
// an @context marker resolved after evaluation.
func (e *evaluator) lift(c Closed, cat gensym.Category, context, ground bool) Open {
	i := e.gen.Next(cat)

	var vars []string
	if context {
		vars = contextVars(rules.Commas(c.Value, c.Body))
	}
	if c.Value == "" || !isUpper(c.Value[0]) {
		ground = false
	}

	closure := strings.Join(append([]string{strconv.Itoa(i)}, vars...), ",")
	prefix := cat.String()
	f := func(x string) string {
		return prefix + "((" + closure + ")," + x + ")"
	}

	body := c.Body
	if len(vars) > 0 || ground {
		subject := ""
		if ground {
			subject = c.Value
		}
		body = rules.Commas(body, rules.ContextMarker(f("_"), subject))
	}
	if body != "" {
		e.store.Append(f(c.Value) + " :- " + body + ".")
	} else {
		e.store.Append(f(c.Value) + ".")
	}
	return f
}
