package library

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/ldcs/errors"
	"github.com/teranos/ldcs/ldcs/compiler"
	"github.com/teranos/ldcs/ldcs/macro"
)

const familyMacros = `% family relations
person : human.

sibling(X,Y) :
    parent(Z,X),
    parent(Z,Y).
`

func newLoader(t *testing.T) (*Loader, *compiler.Compiler) {
	t.Helper()
	log := zaptest.NewLogger(t).Sugar()
	c := compiler.New(compiler.WithLogger(log), compiler.WithProofs(false), compiler.WithPersistCounters(true))
	return NewLoader(c, log), c
}

func writeLibrary(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadStatements(t *testing.T) {
	stmts, err := ReadStatements(strings.NewReader(familyMacros + "\nparent.tom?\n#any a | b!\n"))
	require.NoError(t, err)

	assert.Equal(t, []Statement{
		{Text: "person : human.", Line: 2},
		{Text: "sibling(X,Y) :parent(Z,X),parent(Z,Y).", Line: 4},
		{Text: "parent.tom?", Line: 8},
		{Text: "#any a | b!", Line: 9},
	}, stmts)
}

func TestReadStatements_Unterminated(t *testing.T) {
	_, err := ReadStatements(strings.NewReader("likes(tom,jerry).\nhates(tom,\n  spike)\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindMacros, KindOf("lib/macros.ldcs"))
	assert.Equal(t, KindMacros, KindOf("family_macros.ldcs"))
	assert.Equal(t, KindProgram, KindOf("lib/plans.ldcs"))
	assert.Equal(t, "macros", KindMacros.String())
}

func TestLoadMacros(t *testing.T) {
	l, c := newLoader(t)
	path := writeLibrary(t, t.TempDir(), "macros.ldcs", familyMacros)

	text, err := l.Load(path, KindMacros)
	require.NoError(t, err)
	assert.Empty(t, text)

	assert.Equal(t, []macro.Signature{
		{Name: "person", Arity: 1},
		{Name: "sibling", Arity: 2},
	}, c.Macros())

	out, err := c.Compile("sibling.tom?")
	require.NoError(t, err)
	assert.Equal(t, "what(C) :- parent(D,C), parent(D,A), tom(A).", out)
}

func TestLoadAll(t *testing.T) {
	l, _ := newLoader(t)
	dir := t.TempDir()
	macros := writeLibrary(t, dir, "macros.ldcs", familyMacros)
	program := writeLibrary(t, dir, "program.ldcs", "% facts\nhuman(socrates).\n\nmortal :\n  person.\n")

	text, err := l.LoadAll([]string{macros}, []string{program, "lib/prelude.lp"})
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"human(socrates).",
		"mortal(A) :- human(A).",
		`#include "lib/prelude.lp".`,
	}, "\n"), text)
}

func TestLoad_SyntaxErrorNamesLine(t *testing.T) {
	l, _ := newLoader(t)
	path := writeLibrary(t, t.TempDir(), "broken.ldcs", "likes(tom,jerry).\n\nlikes(tom,,jerry).\n")

	_, err := l.Load(path, KindProgram)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSyntax))
	assert.Contains(t, err.Error(), "broken.ldcs:3")
}

func TestLoad_UnsupportedFile(t *testing.T) {
	l, _ := newLoader(t)
	_, err := l.Load("facts.csv", KindProgram)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestLoad_MissingFile(t *testing.T) {
	l, _ := newLoader(t)
	_, err := l.Load(filepath.Join(t.TempDir(), "missing.ldcs"), KindProgram)
	require.Error(t, err)
	assert.True(t, os.IsNotExist(errors.UnwrapAll(err)))
}
