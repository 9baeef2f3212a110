package commands

import (
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/ldcs/errors"
	"github.com/teranos/ldcs/ldcs/compiler"
	"github.com/teranos/ldcs/library"
	"github.com/teranos/ldcs/logger"
)

// MacroCmd manages the persistent macro store
var MacroCmd = &cobra.Command{
	Use:   "macro",
	Short: "Manage stored macros",
	Long: `Manage macros kept in the macro store (store.path in am.toml).

Stored macros are registered before every compile, so a relation defined
once expands inline in later commands.

Examples:
  ldcs macro add 'grand(X,Y) :- parent(X,Z), parent(Z,Y).'
  ldcs macro add 'sibling : brother | sister.'
  ldcs macro load lib/macros.ldcs
  ldcs macro list
  ldcs macro rm grand/2`,
}

var macroAddCmd = &cobra.Command{
	Use:   "add <definition>",
	Short: "Store a macro from a rule or a define command",
	Args:  cobra.ExactArgs(1),
	RunE:  runMacroAdd,
}

var macroListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored macros",
	Args:  cobra.NoArgs,
	RunE:  runMacroList,
}

var macroRmCmd = &cobra.Command{
	Use:   "rm <name/arity>",
	Short: "Remove a stored macro",
	Args:  cobra.ExactArgs(1),
	RunE:  runMacroRm,
}

var macroLoadCmd = &cobra.Command{
	Use:   "load <file.ldcs>",
	Short: "Store every macro a macro library defines",
	Args:  cobra.ExactArgs(1),
	RunE:  runMacroLoad,
}

func init() {
	MacroCmd.AddCommand(macroAddCmd)
	MacroCmd.AddCommand(macroListCmd)
	MacroCmd.AddCommand(macroRmCmd)
	MacroCmd.AddCommand(macroLoadCmd)
}

// macroDefinitions turns user input into rule definitions. A rule is
// taken as is; anything else is compiled as a define command.
func macroDefinitions(c *compiler.Compiler, input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if strings.Contains(input, ":-") {
		return []string{input}, nil
	}
	prog, err := c.CompileProgram(strings.TrimPrefix(input, "#macro "))
	if err != nil {
		return nil, err
	}
	defs := prog.MacroRules()
	if len(defs) == 0 {
		return nil, errors.WithHint(
			errors.Newf("%q defines no macro", input),
			"use a define such as 'grand : parent.parent.' or a rule 'grand(X,Y) :- parent(X,Z), parent(Z,Y).'")
	}
	return defs, nil
}

func runMacroAdd(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context(), sessionOptions{noProofs: true, needStore: true})
	if err != nil {
		return err
	}
	defer s.Close()

	defs, err := macroDefinitions(s.compiler, args[0])
	if err != nil {
		return err
	}
	for _, def := range defs {
		saved, err := s.store.Save(cmd.Context(), def, "cli")
		if err != nil {
			return err
		}
		pterm.Success.Printfln("stored %s", saved.Signature())
	}
	return nil
}

func runMacroList(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context(), sessionOptions{needStore: true})
	if err != nil {
		return err
	}
	defer s.Close()

	defs, err := s.store.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		pterm.Info.Println("no stored macros")
		return nil
	}

	data := pterm.TableData{{"MACRO", "ORIGIN", "DEFINITION"}}
	for _, d := range defs {
		data = append(data, []string{d.Signature().String(), d.Origin, d.Definition})
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(cmd.OutOrStdout()).WithData(data).Render()
}

func runMacroRm(cmd *cobra.Command, args []string) error {
	name, arity, err := parseSignature(args[0])
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context(), sessionOptions{needStore: true})
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.store.Delete(cmd.Context(), name, arity); err != nil {
		return err
	}
	pterm.Success.Printfln("removed %s/%d", name, arity)
	return nil
}

func runMacroLoad(cmd *cobra.Command, args []string) error {
	path := args[0]

	s, err := openSession(cmd.Context(), sessionOptions{noProofs: true, needStore: true})
	if err != nil {
		return err
	}
	defer s.Close()

	// a fresh compiler sees only this library's macros
	c := compiler.New(compiler.WithLogger(s.log.Named("compiler")), compiler.WithProofs(false), compiler.WithPersistCounters(true))
	if _, err := library.NewLoader(c, s.log.Named("library")).Load(path, library.KindMacros); err != nil {
		return err
	}

	for _, sig := range c.Macros() {
		m, err := c.Macro(sig.Name, sig.Arity)
		if err != nil {
			return err
		}
		if _, err := s.store.Save(cmd.Context(), m.Source, path); err != nil {
			return err
		}
	}
	logger.Infow("macro library stored", logger.FieldFile, path, logger.FieldCount, len(c.Macros()))
	pterm.Success.Printfln("stored %d macros from %s", len(c.Macros()), path)
	return nil
}

// parseSignature splits "name/arity"
func parseSignature(s string) (string, int, error) {
	i := strings.LastIndexByte(s, '/')
	if i <= 0 {
		return "", 0, errors.Newf("expected name/arity, got %q", s)
	}
	arity, err := strconv.Atoi(s[i+1:])
	if err != nil || arity < 0 {
		return "", 0, errors.Newf("invalid arity in %q", s)
	}
	return s[:i], arity, nil
}
