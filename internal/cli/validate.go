package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/patomic/internal/compiler"
	"github.com/roach88/patomic/internal/edn"
	"github.com/roach88/patomic/internal/errs"
	"github.com/roach88/patomic/internal/source"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Source string                     `json:"source"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file.edn | s3://bucket/key.edn | cue-dir>",
		Short: "Check an EDN body or a CUE schema without submitting it",
		Long: `Validate an EDN transaction body, local or in object storage, by
parsing it. Given a directory, validate the CUE schema in it instead and
report every problem found.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, location string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if info, err := os.Stat(location); err == nil && info.IsDir() {
		return validateSchemaDir(formatter, location)
	}

	body, err := source.NewOpener(opts.Config.Source()).Open(commandContext(cmd), location)
	if err != nil {
		return outputValidateError(formatter, ErrCodeNotFound, err.Error())
	}
	formatter.VerboseLog("Loaded %s", body.Source())

	if err := body.Validate(); err != nil {
		verr := compiler.ValidationError{
			Field:   body.Source(),
			Message: err.Error(),
			Code:    ErrCodeInvalidEDN,
		}
		var syntax *edn.SyntaxError
		if errs.As(err, &syntax) {
			verr.Line = lineOf(body.String(), syntax.Offset)
		}
		return outputValidationErrors(formatter, location, []compiler.ValidationError{verr})
	}
	return outputValidateSuccess(formatter, location)
}

func validateSchemaDir(formatter *OutputFormatter, dir string) error {
	loadResult, loadErrors := LoadSchema(dir, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputValidateError(formatter, ErrCodeGeneric, loadErrors[0].Error())
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, dir)

	var validationErrors []compiler.ValidationError
	for _, err := range loadErrors {
		var verr compiler.ValidationError
		var loadErr *LoadError
		switch {
		case errors.As(err, &verr):
			validationErrors = append(validationErrors, verr)
		case errors.As(err, &loadErr):
			validationErrors = append(validationErrors, compiler.ValidationError{
				Field:   "load",
				Message: loadErr.Message,
				Code:    loadErr.Code,
				Line:    lineOfPos(loadErr),
			})
		}
	}
	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, dir, validationErrors)
	}
	return outputValidateSuccess(formatter, dir)
}

// lineOf converts a byte offset into a 1-based line number.
func lineOf(text string, offset int) int {
	if offset > len(text) {
		offset = len(text)
	}
	return strings.Count(text[:offset], "\n") + 1
}

func lineOfPos(e *LoadError) int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, location string) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Source: location})
	}

	fmt.Fprintf(formatter.Writer, "✓ %s is valid\n", location)
	return nil
}

// outputValidateError outputs a single command-level error (exit code 2).
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors (exit code 1).
func outputValidationErrors(formatter *OutputFormatter, location string, verrs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:  false,
				Source: location,
				Errors: verrs,
			},
			Error: &CLIError{
				Code:    verrs[0].Code,
				Message: verrs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(verrs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range verrs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(verrs)))
}
