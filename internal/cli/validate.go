package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/lispui/internal/appspec"
	"github.com/roach88/lispui/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Apps   int                        `json:"apps"`
	Errors []appspec.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <specs-dir>",
		Short: "Validate app specs and their templates",
		Long: `Validate every app in a CUE specs directory without mounting it.

Checks the CUE schema, that each template compiles, that action ops
are known, and that every action an event directive names is declared.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	result, err := ValidateSpecsDir(specsDir, formatter)
	if err != nil {
		return failWith(formatter, ExitCommandError, err)
	}
	if !result.Valid {
		return outputValidationErrors(formatter, result.Errors)
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Apps: result.Apps})
	}
	fmt.Fprintf(formatter.Writer, "✓ All %d app(s) valid\n", result.Apps)
	return nil
}

// ValidateSpecsDir validates all apps in a directory. err is set only
// when the directory cannot be loaded at all.
func ValidateSpecsDir(specsDir string, formatter *OutputFormatter) (ValidationResult, error) {
	loadResult, loadErrs := appspec.LoadDir(specsDir, appspec.LoadModeCollectAll)
	if loadResult == nil {
		return ValidationResult{}, errors.Join(loadErrs...)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, specsDir)

	var errs []appspec.ValidationError
	for _, err := range loadErrs {
		ve := appspec.ValidationError{Field: "load", Message: err.Error(), Code: errorCode(err)}
		var le *appspec.LoadError
		if errors.As(err, &le) {
			ve.Message = le.Message
			if le.Pos.IsValid() {
				ve.Line = le.Pos.Line()
			}
		}
		errs = append(errs, ve)
	}

	for _, app := range loadResult.Apps {
		formatter.VerboseLog("Validating app: %s", app.Name)
		errs = append(errs, appspec.Validate(app, compiler.Scope{})...)
	}

	return ValidationResult{Valid: len(errs) == 0, Apps: len(loadResult.Apps), Errors: errs}, nil
}

// outputValidationErrors outputs validation errors. Validation failures
// exit with code 1.
func outputValidationErrors(formatter *OutputFormatter, errs []appspec.ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.App != "" {
			fmt.Fprintf(formatter.Writer, "app %s", err.App)
			if err.Line > 0 {
				fmt.Fprintf(formatter.Writer, " line %d", err.Line)
			}
			fmt.Fprintln(formatter.Writer)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
