// Package library loads .ldcs files: macro libraries whose defines become
// macros, and program libraries whose compiled rules are concatenated.
package library

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/ldcs/errors"
	"github.com/teranos/ldcs/ldcs/compiler"
	"github.com/teranos/ldcs/logger"
)

// Kind says what a library file contributes
type Kind int

const (
	KindProgram Kind = iota // Compiled rules are appended to the program
	KindMacros              // The leading rule of each statement becomes a macro
)

func (k Kind) String() string {
	if k == KindMacros {
		return "macros"
	}
	return "program"
}

// KindOf classifies a file by name: files named like "macros.ldcs" hold macros
func KindOf(path string) Kind {
	if strings.Contains(filepath.Base(path), "macros") {
		return KindMacros
	}
	return KindProgram
}

// Statement is one command and the line it starts on
type Statement struct {
	Text string
	Line int
}

// ReadStatements splits library text into commands. Blank lines and lines
// starting with '%' are skipped; a command continues across lines until
// one ends in '.', '?' or '!'.
func ReadStatements(r io.Reader) ([]Statement, error) {
	var stmts []Statement
	var current strings.Builder
	start := 0

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if current.Len() == 0 {
			if line == "" || line[0] == '%' {
				continue
			}
			start = lineNo
		}
		current.WriteString(line)
		if line != "" && strings.ContainsRune(".?!", rune(line[len(line)-1])) {
			stmts = append(stmts, Statement{Text: current.String(), Line: start})
			current.Reset()
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read library")
	}
	if current.Len() > 0 {
		return nil, errors.Newf("unterminated statement starting at line %d", start)
	}
	return stmts, nil
}

// Loader feeds library files through one compiler
type Loader struct {
	compiler *compiler.Compiler
	logger   *zap.SugaredLogger
}

// NewLoader creates a loader. A nil logger uses the "ldcs.library" component logger.
func NewLoader(c *compiler.Compiler, log *zap.SugaredLogger) *Loader {
	if log == nil {
		log = logger.ComponentLogger("ldcs.library")
	}
	return &Loader{compiler: c, logger: log}
}

// Load reads one file and returns the program text it contributes.
// ".lp" files are referenced with an #include directive; ".ldcs" files are
// compiled statement by statement. A statement that fails to compile
// aborts the file.
func (l *Loader) Load(path string, kind Kind) (string, error) {
	switch filepath.Ext(path) {
	case ".lp":
		return `#include "` + path + `".`, nil
	case ".ldcs":
	default:
		return "", errors.WithHint(
			errors.Newf("unsupported library file %s", path),
			"libraries are .ldcs command files or .lp programs")
	}

	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	stmts, err := ReadStatements(f)
	if err != nil {
		return "", errors.Wrap(err, path)
	}

	var out []string
	registered := 0
	for _, st := range stmts {
		prog, err := l.compiler.CompileProgram(st.Text)
		if err != nil {
			return "", errors.Wrapf(err, "%s:%d", path, st.Line)
		}

		if kind == KindProgram {
			out = append(out, prog.Text)
			continue
		}
		if len(prog.Rules) == 0 || !strings.Contains(prog.Rules[0], " :- ") {
			l.logger.Warnw("statement yields no macro",
				logger.FieldFile, path,
				logger.FieldLine, st.Line,
				logger.FieldCommand, st.Text)
			continue
		}
		if err := l.compiler.RegisterMacro(prog.Rules[0]); err != nil {
			return "", errors.Wrapf(err, "%s:%d", path, st.Line)
		}
		registered++
	}

	l.logger.Debugw("library loaded",
		logger.FieldFile, path,
		"kind", kind.String(),
		logger.FieldCount, len(stmts),
		"macros", registered)
	return strings.Join(out, "\n"), nil
}

// LoadAll loads macro libraries first, then program libraries, and
// returns the concatenated program text
func (l *Loader) LoadAll(macros, programs []string) (string, error) {
	for _, path := range macros {
		if _, err := l.Load(path, KindMacros); err != nil {
			return "", err
		}
	}

	var parts []string
	for _, path := range programs {
		text, err := l.Load(path, KindProgram)
		if err != nil {
			return "", err
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n"), nil
}
