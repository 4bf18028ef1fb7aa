package lexer

import (
	"errors"
	"fmt"
)

// ErrNotText is the sentinel wrapped by every ArgumentError.
var ErrNotText = errors.New("expression should be text")

// ArgumentError reports a tokenizer input that is not textual.
// It is fatal and never retried.
type ArgumentError struct {
	// Type is the Go type of the rejected value.
	Type string
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("tokenize: %s, got %s", ErrNotText, e.Type)
}

// Unwrap returns ErrNotText so errors.Is(err, ErrNotText) holds.
func (e *ArgumentError) Unwrap() error {
	return ErrNotText
}

// IsArgumentError returns true if err is or wraps an ArgumentError.
func IsArgumentError(err error) bool {
	var ae *ArgumentError
	return errors.As(err, &ae)
}
