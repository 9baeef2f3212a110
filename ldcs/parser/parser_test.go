package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/ldcs/errors"
	"github.com/teranos/ldcs/ldcs/ast"
)

func TestTokenize(t *testing.T) {
	tokens, err := Tokenize(`rel[X; "a b"] :: f$g'. 1..3 != Y`)
	require.NoError(t, err)

	var texts []string
	for _, tok := range tokens {
		texts = append(texts, tok.Text)
	}
	assert.Equal(t, []string{
		"rel", "[", "X", ";", `"a b"`, "]", "::", "f", "$", "g", "'", ".",
		"1", "..", "3", "!=", "Y",
	}, texts)

	assert.Equal(t, TokenString, tokens[4].Kind)
	assert.Equal(t, TokenBinOp, tokens[13].Kind)
	assert.Equal(t, TokenCmpOp, tokens[15].Kind)
}

func TestTokenizePositions(t *testing.T) {
	tokens, err := Tokenize("a :\n  b(X).")
	require.NoError(t, err)
	require.Len(t, tokens, 7)

	b := tokens[2]
	assert.Equal(t, "b", b.Text)
	assert.Equal(t, 2, b.Range.Start.Line)
	assert.Equal(t, 2, b.Range.Start.Character)
	assert.Equal(t, 6, b.Range.Start.Offset)
}

func TestTokenizeErrors(t *testing.T) {
	_, err := Tokenize(`p("open).`)
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, ErrorKindLexer, perr.Kind)
	assert.True(t, errors.Is(err, errors.ErrSyntax))

	_, err = Tokenize("p(@x).")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected character")
}

func TestTokenizeInvalidUTF8(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"\xff?", "invalid UTF-8 byte 0xff"},
		{"p(\xc3).", "invalid UTF-8 byte 0xc3"},
		{"p(é).", `unexpected character 'é'`},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			_, err := Tokenize(tt.input)
			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, ErrorKindLexer, perr.Kind)
			assert.True(t, errors.Is(err, errors.ErrSyntax))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestVariablesAreSingleLetters(t *testing.T) {
	tokens, err := Tokenize("XY")
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, TokenVariable, tokens[0].Kind)
	assert.Equal(t, TokenVariable, tokens[1].Kind)
}

func TestParseCommandForms(t *testing.T) {
	tests := []struct {
		input string
		want  interface{}
	}{
		{"likes(tom,jerry).", &ast.Claim{}},
		{"likes(X,Y) : friend(X,Y).", &ast.Claim{}},
		{"person : human.", &ast.Define{}},
		{"#macro grand : parent.parent.", &ast.Define{}},
		{"human :: person mortal.", &ast.Define{}},
		{"ball : #some red | blue.", &ast.Enum{}},
		{"#some red ball | blue ball.", &ast.Exist{}},
		{"#fluent on(X,Y) : on(X,Y).", &ast.Fluent{}},
		{"#relation owns(1 person, 2 thing).", &ast.Relation{}},
		{"#any on(a).", &ast.ConstraintAny{}},
		{"#any X > 3.", &ast.ConstraintAny{}},
		{"#any on(a)?", &ast.QueryAny{}},
		{"#any a | b!", &ast.GoalAny{}},
		{"parent.tom?", &ast.Query{}},
		{"rel1(X,Y), rel2(Y,const)?", &ast.ClauseQuery{}},
		{"on.table!", &ast.Goal{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cmd, err := Parse(tt.input)
			require.NoError(t, err)
			assert.IsType(t, tt.want, cmd)
		})
	}
}

func TestParseDefineFlags(t *testing.T) {
	cmd, err := Parse("#macro grand : parent.parent.")
	require.NoError(t, err)
	def := cmd.(*ast.Define)
	assert.True(t, def.Macro)
	assert.False(t, def.Reverse)
	require.Len(t, def.Heads, 1)
	assert.Equal(t, &ast.FuncRef{Name: "grand"}, def.Heads[0])

	cmd, err = Parse("human :: person mortal.")
	require.NoError(t, err)
	def = cmd.(*ast.Define)
	assert.True(t, def.Reverse)
	assert.Len(t, def.Heads, 2)
}

func TestParseClauseQueryProjectsFirstVariable(t *testing.T) {
	cmd, err := Parse("rel1(X,Y), rel2(Y,const)?")
	require.NoError(t, err)
	q := cmd.(*ast.ClauseQuery)
	assert.Equal(t, "X", q.Var)
	assert.Len(t, q.Clause.Terms, 2)

	_, err = Parse("p(a), q(b)?")
	require.Error(t, err)
}

func TestParseJoins(t *testing.T) {
	cmd, err := Parse("parent.parent.tom?")
	require.NoError(t, err)
	lam, ok := cmd.(*ast.Query).Value.AsSingle()
	require.True(t, ok)
	outer := lam.(*ast.Join)
	assert.Equal(t, &ast.FuncRef{Name: "parent"}, outer.Rel)
	inner := outer.Arg.(*ast.Join)
	assert.Equal(t, &ast.FuncRef{Name: "tom"}, inner.Arg)

	cmd, err = Parse("between[1, 5; X]?")
	require.NoError(t, err)
	lam, _ = cmd.(*ast.Query).Value.AsSingle()
	mj := lam.(*ast.MultiJoin)
	assert.Len(t, mj.Tail, 2)
	assert.Len(t, mj.Head, 1)

	cmd, err = Parse("parent'[tom | bob]?")
	require.NoError(t, err)
	lam, _ = cmd.(*ast.Query).Value.AsSingle()
	join := lam.(*ast.Join)
	assert.IsType(t, &ast.Flip{}, join.Rel)
	assert.Len(t, join.Arg.(*ast.Disj).Conjs, 2)
}

func TestParseOperators(t *testing.T) {
	cmd, err := Parse("X + 1 * 2?")
	require.NoError(t, err)
	lam, _ := cmd.(*ast.Query).Value.AsSingle()
	outer := lam.(*ast.Unify).Expr.(*ast.BinOp)
	assert.Equal(t, "*", outer.Op)
	left := outer.Left.(*ast.LamOperand).Lam.(*ast.Unify).Expr.(*ast.BinOp)
	assert.Equal(t, "+", left.Op)

	cmd, err = Parse("(-X)?")
	require.NoError(t, err)
	lam, _ = cmd.(*ast.Query).Value.AsSingle()
	assert.IsType(t, &ast.Negative{}, lam.(*ast.Unify).Expr)

	cmd, err = Parse("(<).3?")
	require.NoError(t, err)
	lam, _ = cmd.(*ast.Query).Value.AsSingle()
	assert.Equal(t, &ast.FuncOp{Op: "<"}, lam.(*ast.Join).Rel)

	_, err = Parse("(a b)?")
	require.Error(t, err)
}

func TestParseComparisonRelationPositions(t *testing.T) {
	accepted := []struct {
		input string
		want  interface{}
	}{
		{"(<).3?", &ast.Join{}},
		{"(<)'[X]?", &ast.Join{}},
		{"f$(<).3?", &ast.Join{}},
		{"#most((<), person)?", &ast.Superlative{}},
	}
	for _, tt := range accepted {
		t.Run(tt.input, func(t *testing.T) {
			cmd, err := Parse(tt.input)
			require.NoError(t, err)
			lam, ok := cmd.(*ast.Query).Value.AsSingle()
			require.True(t, ok)
			assert.IsType(t, tt.want, lam)
		})
	}

	rejected := []string{
		"(<)?",
		"(<)'?",
		"f$(<)?",
		"~(<)?",
		"#some (<).",
		"#count((<))?",
		"(<)[a, b; c]?",
		"(<)[a; b]?",
	}
	for _, input := range rejected {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrSyntax))
		})
	}
}

func TestParseHigherOrder(t *testing.T) {
	tests := []struct {
		input string
		want  interface{}
	}{
		{"#count(holds)?", &ast.Aggregation{}},
		{"#set(parent.X)?", &ast.Aggregation{}},
		{"#most(taller, person)?", &ast.Superlative{}},
		{"#argmax(age', person)?", &ast.Superlative{}},
		{"#enumerate(index, block)?", &ast.Enumerate{}},
		{"~(lit1 lit2)?", &ast.Neg{}},
		{"~red?", &ast.Neg{}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cmd, err := Parse(tt.input)
			require.NoError(t, err)
			lam, ok := cmd.(*ast.Query).Value.AsSingle()
			require.True(t, ok)
			assert.IsType(t, tt.want, lam)
		})
	}
}

func TestParseClauseTerms(t *testing.T) {
	cmd, err := Parse("ok(X) : on(X,Y), Y != table, #each(on(Z,X), block(Z)).")
	require.NoError(t, err)
	claim := cmd.(*ast.Claim)
	require.Len(t, claim.Cond.Terms, 3)
	assert.IsType(t, &ast.Pred{}, claim.Cond.Terms[0])
	assert.IsType(t, &ast.BinOp{}, claim.Cond.Terms[1])
	assert.IsType(t, &ast.Foreach{}, claim.Cond.Terms[2])
}

func TestParseCompose(t *testing.T) {
	cmd, err := Parse("not$on(X,table).")
	require.NoError(t, err)
	pred := cmd.(*ast.Claim).Head.(*ast.Pred)
	assert.Equal(t, "not", pred.Name)
	require.NotNil(t, pred.Compose)
	assert.Equal(t, "on", pred.Compose.Name)

	cmd, err = Parse("f$g.X?")
	require.NoError(t, err)
	lam, _ := cmd.(*ast.Query).Value.AsSingle()
	join := lam.(*ast.Join)
	assert.Equal(t, &ast.Compose{Name: "f", Inner: &ast.FuncRef{Name: "g"}}, join.Rel)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		kind     ErrorKind
		contains string
	}{
		{"empty", "   ", ErrorKindEOF, "empty command"},
		{"missing terminator", "likes(tom,jerry)", ErrorKindEOF, "unexpected end of input"},
		{"unclosed paren", "likes(tom,jerry.", ErrorKindEOF, "unexpected end of input"},
		{"stray token", "likes(tom,,jerry).", ErrorKindSyntax, `unexpected punctuation ","`},
		{"bad keyword", "#frobnicate x.", ErrorKindSyntax, "unexpected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := Parse(tt.input)
			assert.Nil(t, cmd)
			require.Error(t, err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.kind, perr.Kind)
			assert.Contains(t, perr.Message, tt.contains)
			assert.True(t, errors.Is(err, errors.ErrSyntax))
		})
	}
}

func TestParseErrorReportsFurthestToken(t *testing.T) {
	_, err := Parse("likes(tom,,jerry).")
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	require.NotNil(t, perr.Token)
	assert.Equal(t, ",", perr.Token.Text)
	assert.Equal(t, 10, perr.Range.Start.Offset)
	assert.NotEmpty(t, perr.Expected)
}

func TestFormatError(t *testing.T) {
	_, err := Parse("likes(tom,,jerry).")
	var perr *ParseError
	require.True(t, errors.As(err, &perr))

	plain := perr.FormatError(ErrorContextPlain)
	assert.NotContains(t, plain, "\x1b[")
	assert.Contains(t, plain, "line 1, column 11")

	terminal := perr.FormatError(ErrorContextTerminal)
	assert.Contains(t, terminal, "likes(tom,,jerry).")
	assert.True(t, strings.Contains(terminal, "^"))
}
