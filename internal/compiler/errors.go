package compiler

import (
	"errors"
	"fmt"

	"github.com/roach88/lispui/internal/lexer"
)

// Compile error codes (E200-E299).
const (
	ErrCodeSyntax    = "E201" // generated program is not executable
	ErrCodeNoBackend = "E202" // Build called without a backend
)

// Runtime error codes (E300-E399).
const (
	ErrCodeMissingFunc = "E301" // custom function or macro has no implementation
	ErrCodeFuncFailed  = "E302" // custom function or macro returned an error
	ErrCodeBackend     = "E303" // backend constructor returned an error
)

// SyntaxError is a structural problem recorded by Generate.
type SyntaxError struct {
	Pos     lexer.Pos
	Message string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// CompileError is returned by Build when a program cannot be executed.
// Err carries the underlying syntax errors.
type CompileError struct {
	Code    string
	Message string
	Pos     lexer.Pos
	Err     error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// RuntimeError is returned by Template.Execute when a call fails.
type RuntimeError struct {
	Code string
	Name string // function, macro or tag name
	Pos  lexer.Pos
	Err  error
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s at %s: %v", e.Code, e.Name, e.Pos, e.Err)
	}
	return fmt.Sprintf("[%s] %s at %s", e.Code, e.Name, e.Pos)
}

// Unwrap returns the underlying error.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsCompileError returns true if err is or wraps a CompileError.
func IsCompileError(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}

// IsRuntimeError returns true if err is or wraps a RuntimeError.
func IsRuntimeError(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re)
}

// newSyntaxCompileError folds recorded issues into one CompileError.
func newSyntaxCompileError(issues []*SyntaxError) *CompileError {
	errs := make([]error, len(issues))
	for i, issue := range issues {
		errs[i] = issue
	}
	return &CompileError{
		Code:    ErrCodeSyntax,
		Message: fmt.Sprintf("template has %d syntax error(s)", len(issues)),
		Pos:     issues[0].Pos,
		Err:     errors.Join(errs...),
	}
}
