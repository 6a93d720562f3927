package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/spdxstore/internal/harness"
)

// ValidationError describes one scenario file that failed to load.
type ValidationError struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Files  int               `json:"files"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario.yaml|dir>",
		Short: "Validate scenario files without running them",
		Long: `Validate scenario files against the scenario schema.

Checks YAML syntax, the schema, and per-step required fields without
touching a store.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	files, err := findScenarioFiles(path, "")
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}
	if len(files) == 0 {
		_ = formatter.Error(ErrCodeGeneric, "no scenario files found in "+path, nil)
		return NewExitError(ExitCommandError, "no scenario files found in "+path)
	}

	result := ValidationResult{Valid: true, Files: len(files)}
	for _, file := range files {
		formatter.VerboseLog("Validating %s", file)
		if _, err := harness.LoadScenario(file); err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{File: file, Message: err.Error()})
		}
	}

	if result.Valid {
		if opts.Format == "json" {
			return formatter.Success(result)
		}
		fmt.Fprintf(formatter.Writer, "✓ %d scenario(s) valid\n", result.Files)
		return nil
	}

	if opts.Format == "json" {
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    ErrCodeScenario,
				Message: result.Errors[0].Message,
			},
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(formatter.Writer, "✗ Validation failed")
		fmt.Fprintln(formatter.Writer)
		for _, e := range result.Errors {
			fmt.Fprintf(formatter.Writer, "%s\n  %s\n\n", e.File, e.Message)
		}
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}
