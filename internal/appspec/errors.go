package appspec

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Load error codes (E001-E099).
const (
	ErrCodeGeneric     = "E001" // generic/unknown error
	ErrCodeScanError   = "E002" // directory scan error
	ErrCodeNoFiles     = "E003" // no CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
)

// App validation error codes (E100-E199).
const (
	ErrCodeTemplateMissing = "E101" // neither template nor template_file
	ErrCodeTemplateFile    = "E102" // template_file unreadable
	ErrCodeTemplateSyntax  = "E103" // template does not compile
	ErrCodeInvalidOp       = "E104" // unknown action op
	ErrCodeActionKey       = "E105" // action without key
	ErrCodeUnknownAction   = "E106" // template dispatches an undeclared action
	ErrCodeInvalidType     = "E107" // field has the wrong CUE type
)

// LoadError is an error that occurred while loading a specs directory.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// SpecError is a problem with one app definition.
type SpecError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *SpecError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Code maps the failing field to an error code.
func (e *SpecError) Code() string {
	switch e.Field {
	case "template":
		return ErrCodeTemplateMissing
	case "template_file":
		return ErrCodeTemplateFile
	case "actions.op":
		return ErrCodeInvalidOp
	case "actions.key":
		return ErrCodeActionKey
	case "cue":
		return ErrCodeBuildFailed
	default:
		return ErrCodeInvalidType
	}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &SpecError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
