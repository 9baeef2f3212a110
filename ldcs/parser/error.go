package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/pterm/pterm"
)

// ErrorContext indicates the environment where parser errors will be displayed
type ErrorContext string

const (
	// ErrorContextTerminal indicates errors will be displayed in terminal with ANSI colors
	ErrorContextTerminal ErrorContext = "terminal"
	// ErrorContextPlain indicates errors will be displayed without ANSI codes (JSON output, logs)
	ErrorContextPlain ErrorContext = "plain"
)

// ErrorSeverity indicates the severity level of a parser error
type ErrorSeverity string

const (
	SeverityError   ErrorSeverity = "error"
	SeverityWarning ErrorSeverity = "warning"
)

// ErrorKind categorizes parser errors for programmatic handling
type ErrorKind string

const (
	ErrorKindSyntax ErrorKind = "syntax" // Command rejected by the command grammar
	ErrorKindMacro  ErrorKind = "macro"  // Definition rejected by the rule grammar
	ErrorKindLexer  ErrorKind = "lexer"  // Character outside the token set
	ErrorKindEOF    ErrorKind = "eof"    // Input ended early
)

// ParseError represents a structured parser error with metadata
type ParseError struct {
	Err         error         // Underlying sentinel (errors.ErrSyntax or errors.ErrMacroSyntax)
	Kind        ErrorKind     // Error category
	Severity    ErrorSeverity // Error severity
	Message     string        // Human-readable message
	Source      string        // Text being parsed
	Position    int           // Token index where error occurred
	TokenCount  int           // Total tokens being parsed
	Token       *Token        // Token that caused the error (optional)
	Range       *Range        // Source range of the offending token (optional)
	Expected    []string      // Tokens or constructs that would have been accepted
	Suggestions []string      // Possible fixes
	Timestamp   time.Time     // When error occurred
}

// Error implements error interface
func (e *ParseError) Error() string {
	return e.FormatError(ErrorContextPlain)
}

// FormatError generates context-appropriate error message
func (e *ParseError) FormatError(ctx ErrorContext) string {
	if ctx == ErrorContextTerminal {
		return e.formatTerminalError()
	}
	return e.formatPlainError()
}

// formatPlainError creates concise error for logs and JSON output
func (e *ParseError) formatPlainError() string {
	msg := e.Message
	if e.Range != nil {
		msg += fmt.Sprintf(" (line %d, column %d)", e.Range.Start.Line, e.Range.Start.Character+1)
	} else if e.Position >= 0 && e.TokenCount > 0 {
		msg += fmt.Sprintf(" (at position %d/%d)", e.Position, e.TokenCount)
	}
	if len(e.Expected) > 0 {
		msg += fmt.Sprintf("; expected %s", strings.Join(e.Expected, ", "))
	}
	return msg
}

// formatTerminalError creates rich colored error with a caret under the offending token
func (e *ParseError) formatTerminalError() string {
	var baseMsg string
	switch e.Severity {
	case SeverityWarning:
		baseMsg = pterm.Yellow(e.Message)
	default:
		baseMsg = pterm.Red(e.Message)
	}

	context := ""
	if e.Range != nil && e.Source != "" {
		line := sourceLine(e.Source, e.Range.Start.Line)
		width := e.Range.End.Offset - e.Range.Start.Offset
		if width < 1 {
			width = 1
		}
		context += fmt.Sprintf("\n\n  %s\n  %s%s",
			line,
			strings.Repeat(" ", e.Range.Start.Character),
			pterm.LightRed(strings.Repeat("^", width)))
	}
	if e.Token != nil {
		context += fmt.Sprintf("\n  %s '%s'", pterm.Yellow("Token:"), e.Token.Text)
	}
	if len(e.Expected) > 0 {
		context += fmt.Sprintf("\n  %s %s", pterm.Yellow("Expected:"), strings.Join(e.Expected, ", "))
	}

	if len(e.Suggestions) > 0 {
		context += fmt.Sprintf("\n\n%s", pterm.Green("Suggestions:"))
		for _, suggestion := range e.Suggestions {
			context += fmt.Sprintf("\n  • %s", suggestion)
		}
	}

	return baseMsg + context
}

func sourceLine(source string, line int) string {
	lines := strings.Split(source, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// Unwrap for errors.Is/As compatibility
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Builder pattern for constructing ParseErrors

// NewParseError creates a new ParseError with the given kind and message
func NewParseError(kind ErrorKind, message string) *ParseError {
	return &ParseError{
		Kind:      kind,
		Severity:  SeverityError,
		Message:   message,
		Position:  -1,
		Timestamp: time.Now(),
	}
}

// WithPosition sets the token position where the error occurred
func (e *ParseError) WithPosition(pos int, total int) *ParseError {
	e.Position = pos
	e.TokenCount = total
	return e
}

// WithToken sets the token that caused the error and its range
func (e *ParseError) WithToken(token Token) *ParseError {
	e.Token = &token
	r := token.Range
	e.Range = &r
	return e
}

// WithRange sets the source range
func (e *ParseError) WithRange(r Range) *ParseError {
	e.Range = &r
	return e
}

// WithSource records the text being parsed for caret rendering
func (e *ParseError) WithSource(source string) *ParseError {
	e.Source = source
	return e
}

// WithExpected records what the grammar would have accepted
func (e *ParseError) WithExpected(expected ...string) *ParseError {
	e.Expected = append(e.Expected, expected...)
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *ParseError) WithSuggestion(suggestion string) *ParseError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithUnderlying sets the underlying error
func (e *ParseError) WithUnderlying(err error) *ParseError {
	e.Err = err
	return e
}
