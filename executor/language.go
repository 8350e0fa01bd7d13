// Package executor provides a language-agnostic code evaluation engine.
package executor

import (
	"context"
	"io"
)

// Language defines the interface for an interpreter backend.
// Implement this interface to add support for new languages.
type Language interface {
	// Name returns a unique identifier for this language (e.g., "starlark", "javascript").
	// Used as the registry key.
	Name() string

	// NewSession starts an interpreter whose state persists across Eval calls.
	NewSession() (LanguageSession, error)
}

// LanguageSession is one live interpreter.
type LanguageSession interface {
	// Eval runs code, writing printed output and the value of a trailing
	// expression to stdout. It must return promptly once ctx is done.
	Eval(ctx context.Context, code string, stdout io.Writer) error

	Close() error
}
