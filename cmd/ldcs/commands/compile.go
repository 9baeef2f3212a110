package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/ldcs/errors"
	"github.com/teranos/ldcs/ldcs/compiler"
	"github.com/teranos/ldcs/ldcs/parser"
	"github.com/teranos/ldcs/library"
)

// CompileCmd compiles commands to answer-set program text
var CompileCmd = &cobra.Command{
	Use:   "compile [command...]",
	Short: "Compile commands to clingo rules",
	Long: `Compile ldcs commands to answer-set program text.

Commands come from the arguments, from a file (-f), or from standard input,
one statement per line or spread over lines until '.', '?' or '!'.
Lines starting with '%' are comments.

Examples:
  ldcs compile 'parent.tom?'
  ldcs compile -f family.ldcs
  echo 'person : human.' | ldcs compile --no-proofs
  ldcs compile --format json 'ball : #some red | blue.'`,
	RunE: runCompile,
}

var (
	compileFile   string
	compileFormat string
	compileBare   bool
)

func init() {
	CompileCmd.Flags().StringVarP(&compileFile, "file", "f", "", "Read commands from a .ldcs file")
	CompileCmd.Flags().StringVar(&compileFormat, "format", "text", "Output format: text, json")
	CompileCmd.Flags().Bool("no-proofs", false, "Omit proof companion rules")
	CompileCmd.Flags().BoolVar(&compileBare, "bare", false, "Omit configured prelude libraries from the output")
}

// compileOutput is the JSON shape of one compile invocation
type compileOutput struct {
	Prelude  string              `json:"prelude,omitempty"`
	Programs []*compiler.Program `json:"programs"`
	Errors   []string            `json:"errors,omitempty"`
}

func runCompile(cmd *cobra.Command, args []string) error {
	if compileFormat != "text" && compileFormat != "json" {
		return errors.Newf("unsupported format: %s (supported: text, json)", compileFormat)
	}

	s, err := openSession(cmd.Context(), sessionOptions{noProofs: noProofsFlag(cmd)})
	if err != nil {
		return err
	}
	defer s.Close()

	stmts, err := readCommands(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	out := compileOutput{Programs: []*compiler.Program{}}
	if !compileBare {
		out.Prelude = s.prelude
	}
	failed := 0
	for _, st := range stmts {
		prog, err := s.compiler.CompileProgram(st.Text)
		if err != nil {
			failed++
			out.Errors = append(out.Errors, fmt.Sprintf("line %d: %s", st.Line, err.Error()))
			if compileFormat == "text" {
				printDiagnostic(cmd.ErrOrStderr(), st, err)
			}
			continue
		}
		out.Programs = append(out.Programs, prog)
	}

	w := cmd.OutOrStdout()
	if compileFormat == "json" {
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal output")
		}
		fmt.Fprintln(w, string(data))
	} else {
		if out.Prelude != "" {
			fmt.Fprintln(w, out.Prelude)
		}
		for _, prog := range out.Programs {
			fmt.Fprintln(w, prog.Text)
		}
	}

	if failed > 0 {
		return errors.Wrapf(errors.ErrSyntax, "%d of %d commands rejected", failed, len(stmts))
	}
	return nil
}

// readCommands collects statements from the file flag, the arguments, or stdin
func readCommands(stdin io.Reader, args []string) ([]library.Statement, error) {
	switch {
	case compileFile != "":
		f, err := os.Open(compileFile)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open %s", compileFile)
		}
		defer f.Close()
		return library.ReadStatements(f)

	case len(args) > 0:
		stmts := make([]library.Statement, len(args))
		for i, a := range args {
			stmts[i] = library.Statement{Text: strings.TrimSpace(a), Line: i + 1}
		}
		return stmts, nil
	}
	return library.ReadStatements(stdin)
}

// printDiagnostic writes a rejected command with its coloured parse error
func printDiagnostic(w io.Writer, st library.Statement, err error) {
	var perr *parser.ParseError
	if errors.As(err, &perr) {
		fmt.Fprintf(w, "%s %s\n%s\n", pterm.Gray(fmt.Sprintf("[%d]", st.Line)), st.Text, perr.FormatError(parser.ErrorContextTerminal))
		return
	}
	fmt.Fprintf(w, "%s %s: %v\n", pterm.Gray(fmt.Sprintf("[%d]", st.Line)), st.Text, err)
}
