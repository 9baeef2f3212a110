// Package errors provides error handling for ldcs.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints on syntax and configuration errors
//
// Usage:
//
//	// Wrap with context
//	if err := store.Save(def); err != nil {
//	    return errors.Wrap(err, "failed to persist macro")
//	}
//
//	// Check for a syntax rejection
//	if errors.Is(err, errors.ErrSyntax) {
//	    // report diagnostic, keep program unchanged
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is           = crdb.Is
	IsAny        = crdb.IsAny
	As           = crdb.As
	Unwrap       = crdb.Unwrap
	UnwrapAll    = crdb.UnwrapAll
	GetAllHints  = crdb.GetAllHints
	FlattenHints = crdb.FlattenHints
)

// Assertions and panics
var (
	AssertionFailedf   = crdb.AssertionFailedf
	IsAssertionFailure = crdb.IsAssertionFailure
)

// Sentinel errors for the compiler and its drivers.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrSyntax indicates command text was rejected by the command grammar
	ErrSyntax = New("syntax error")

	// ErrMacroSyntax indicates a macro definition was rejected by the rule grammar
	ErrMacroSyntax = New("macro syntax error")

	// ErrUnknownMacro indicates no macro is registered under a name/arity
	ErrUnknownMacro = New("unknown macro")

	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")

	// ErrInvalidConfig indicates configuration failed validation
	ErrInvalidConfig = New("invalid configuration")
)

// IsSyntaxError checks if an error is or wraps ErrSyntax or ErrMacroSyntax
func IsSyntaxError(err error) bool {
	return err != nil && IsAny(err, ErrSyntax, ErrMacroSyntax)
}

// IsNotFoundError checks if an error is or wraps ErrNotFound
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

// NewConfigError creates an invalid-config error with a formatted message
func NewConfigError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidConfig, Newf(format, args...).Error())
}
