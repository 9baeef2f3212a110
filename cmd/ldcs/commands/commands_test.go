package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/ldcs/am"
	"github.com/teranos/ldcs/errors"
)

// isolate gives each test its own HOME, working directory and macro store
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "home"), 0755))
	t.Setenv("HOME", filepath.Join(dir, "home"))
	t.Setenv("LDCS_STORE_PATH", filepath.Join(dir, "ldcs.db"))
	t.Chdir(dir)

	am.Reset()
	t.Cleanup(am.Reset)

	compileFile, compileFormat, compileBare = "", "text", false
	require.NoError(t, CompileCmd.Flags().Set("no-proofs", "false"))
	configFormat, initForce = "toml", false
	return dir
}

func execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	t.Cleanup(func() {
		cmd.SetOut(nil)
		cmd.SetErr(nil)
		cmd.SetIn(nil)
		cmd.SetArgs(nil)
	})
	err := cmd.Execute()
	return out.String(), err
}

func TestCompile_Args(t *testing.T) {
	isolate(t)

	out, err := execute(t, CompileCmd, "", "--no-proofs", "rel1(X,Y), rel2(Y,const)?", "likes(tom,jerry).")
	require.NoError(t, err)
	assert.Equal(t, "what(MuX) :- rel1(MuX,MuY), rel2(MuY,const).\nlikes(tom,jerry).\n", out)
}

func TestCompile_Stdin(t *testing.T) {
	isolate(t)

	out, err := execute(t, CompileCmd, "% comment\n\nperson : human.\n", "--no-proofs")
	require.NoError(t, err)
	assert.Equal(t, "person(A) :- human(A).\n", out)
}

func TestCompile_JSONReportsRejectedCommands(t *testing.T) {
	isolate(t)

	out, err := execute(t, CompileCmd, "", "--format", "json", "--no-proofs", "red?", "likes(tom,,jerry).")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSyntax))

	var got compileOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Programs, 1)
	assert.Equal(t, "query", got.Programs[0].Form)
	assert.Equal(t, "what(A) :- red(A).", got.Programs[0].Text)
	require.Len(t, got.Errors, 1)
	assert.Contains(t, got.Errors[0], "line 2")
}

func TestCompile_PersistsCountersAcrossCommands(t *testing.T) {
	isolate(t)

	out, err := execute(t, CompileCmd, "", "--no-proofs", "#any a | b!", "#any c | d!")
	require.NoError(t, err)
	assert.Contains(t, out, "disjunction1(A) :- a(A).")
	assert.Contains(t, out, "disjunction2(A) :- c(A).")
}

func TestCompile_UnsupportedFormat(t *testing.T) {
	isolate(t)
	_, err := execute(t, CompileCmd, "", "--format", "xml", "red?")
	assert.Error(t, err)
}

func TestMacroAddThenCompile(t *testing.T) {
	isolate(t)

	_, err := execute(t, MacroCmd, "", "add", "grand(X,Y) :- parent(X,Z), parent(Z,Y).")
	require.NoError(t, err)
	_, err = execute(t, MacroCmd, "", "add", "person : human.")
	require.NoError(t, err)

	out, err := execute(t, MacroCmd, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "grand/2")
	assert.Contains(t, out, "person/1")

	am.Reset()
	out, err = execute(t, CompileCmd, "", "--no-proofs", "grand.tom?")
	require.NoError(t, err)
	assert.Equal(t, "what(C) :- parent(C,D), parent(D,A), tom(A).\n", out)

	_, err = execute(t, MacroCmd, "", "rm", "grand/2")
	require.NoError(t, err)
	_, err = execute(t, MacroCmd, "", "rm", "grand/2")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestMacroAdd_RejectsFact(t *testing.T) {
	isolate(t)
	_, err := execute(t, MacroCmd, "", "add", "likes(tom,jerry).")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defines no macro")
}

func TestMacroLoad(t *testing.T) {
	dir := isolate(t)
	lib := filepath.Join(dir, "macros.ldcs")
	require.NoError(t, os.WriteFile(lib, []byte("% kin\nperson : human.\n"), 0644))

	_, err := execute(t, MacroCmd, "", "load", lib)
	require.NoError(t, err)

	out, err := execute(t, MacroCmd, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "person/1")
	assert.Contains(t, out, "macros.ldcs")
}

func TestParseSignature(t *testing.T) {
	name, arity, err := parseSignature("grand/2")
	require.NoError(t, err)
	assert.Equal(t, "grand", name)
	assert.Equal(t, 2, arity)

	for _, bad := range []string{"grand", "/2", "grand/x", "grand/-1"} {
		_, _, err := parseSignature(bad)
		assert.Error(t, err, bad)
	}
}

func TestAmInitShowSet(t *testing.T) {
	dir := isolate(t)

	_, err := execute(t, AmCmd, "", "init")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, am.ConfigFileName))

	_, err = execute(t, AmCmd, "", "set", "compiler.proofs", "false")
	require.NoError(t, err)

	am.Reset()
	out, err := execute(t, AmCmd, "", "show", "--format", "json")
	require.NoError(t, err)

	var cfg am.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.False(t, cfg.Compiler.Proofs)
	assert.True(t, cfg.Compiler.PersistCounters)

	out, err = execute(t, AmCmd, "", "get", "compiler.proofs")
	require.NoError(t, err)
	assert.Equal(t, "false\n", out)

	_, err = execute(t, AmCmd, "", "get", "compiler.nothing")
	assert.True(t, errors.IsNotFoundError(err))
}
