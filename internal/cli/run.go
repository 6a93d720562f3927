package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/spdxstore/internal/harness"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Backend   string // memory | sqlite
	Database  string // sqlite file; empty means an in-memory database
	GoldenDir string // directory of <scenario name>.golden trace files
	Update    bool   // rewrite golden files instead of comparing
	Filter    string // glob on scenario file names
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// RunResult holds the overall result of a run.
type RunResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml|dir>",
		Short: "Run store scenarios",
		Long: `Run scenario files against a model store.

Each scenario runs on a fresh store. Step expectations and final-state
assertions are checked, and with --golden the step trace is compared
against <golden-dir>/<scenario name>.golden.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, unreadable scenarios, etc.)

Examples:
  spdxstore run ./scenarios
  spdxstore run ./scenarios/package_licenses.yaml --backend sqlite
  spdxstore run ./scenarios --golden ./golden --update`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Backend, "backend", BackendMemory, "store backend (memory|sqlite)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database file (sqlite backend, single scenario only)")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden", "", "directory of golden trace files")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenario files by glob pattern")

	return cmd
}

func runScenarios(opts *RunOptions, path string, cmd *cobra.Command) error {
	if !slices.Contains(ValidBackends, opts.Backend) {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("unknown backend %q: must be one of %v", opts.Backend, ValidBackends))
	}
	if opts.Update && opts.GoldenDir == "" {
		return NewExitError(ExitCommandError, "--update requires --golden")
	}

	files, err := findScenarioFiles(path, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}
	if opts.Database != "" && len(files) > 1 {
		return NewExitError(ExitCommandError, "--db can only be used with a single scenario")
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	defer func() { _ = logger.Sync() }()

	result := RunResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	for _, file := range files {
		res, err := runScenarioFile(opts, file, logger, cmd)
		if err != nil {
			return err
		}
		result.Scenarios = append(result.Scenarios, res)
		if res.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		if result.Total == 0 {
			fmt.Fprintln(w, "No scenarios found.")
			return nil
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// runScenarioFile runs one scenario. Scenario failures are reported in the
// result; the error return is for command errors.
func runScenarioFile(opts *RunOptions, file string, logger *zap.Logger, cmd *cobra.Command) (ScenarioResult, error) {
	w := cmd.OutOrStdout()
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return ScenarioResult{}, WrapExitError(ExitCommandError, fmt.Sprintf("invalid scenario %s", file), err)
	}

	st, closeStore, err := openBackend(opts.Backend, opts.Database, logger)
	if err != nil {
		return ScenarioResult{}, WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer closeStore()

	result, err := harness.Run(cmd.Context(), scenario,
		harness.WithStore(st),
		harness.WithLogger(logger.With(zap.String("scenario", scenario.Name))),
	)
	if err != nil {
		return ScenarioResult{}, WrapExitError(ExitCommandError, fmt.Sprintf("scenario %s aborted", scenario.Name), err)
	}

	res := ScenarioResult{Name: scenario.Name, File: file, Pass: result.Pass, Errors: result.Errors}

	var note string
	if opts.GoldenDir != "" {
		note, err = checkGolden(opts, scenario, result)
		if err != nil {
			res.Pass = false
			res.Errors = append(res.Errors, err.Error())
		}
	}

	if opts.Format != "json" {
		if res.Pass {
			fmt.Fprintf(w, "✓ %s\n", res.Name)
		} else {
			fmt.Fprintf(w, "✗ %s\n", res.Name)
			for _, e := range res.Errors {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
		if note != "" {
			fmt.Fprintf(w, "  %s\n", note)
		}
	}
	return res, nil
}

// checkGolden compares the run's trace with its golden file, or rewrites the
// file with --update. A missing golden file is not a failure.
func checkGolden(opts *RunOptions, scenario *harness.Scenario, result *harness.Result) (string, error) {
	trace, err := harness.MarshalTrace(scenario.Name, scenario.Document, result.Trace)
	if err != nil {
		return "", fmt.Errorf("failed to marshal trace: %w", err)
	}
	path := goldenFilePath(opts.GoldenDir, scenario.Name)

	if opts.Update {
		if err := os.MkdirAll(opts.GoldenDir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create golden directory: %w", err)
		}
		if err := os.WriteFile(path, trace, 0o644); err != nil {
			return "", fmt.Errorf("failed to update golden file: %w", err)
		}
		return "golden updated", nil
	}

	want, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "no golden file", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read golden file: %w", err)
	}
	if !bytes.Equal(bytes.TrimSpace(want), trace) {
		return "", fmt.Errorf("trace does not match golden file %s (run with --update to regenerate)", path)
	}
	return "", nil
}

func goldenFilePath(dir, scenarioName string) string {
	return filepath.Join(dir, scenarioName+".golden")
}

// findScenarioFiles returns path itself if it is a file, or every .yaml/.yml
// file below it, sorted.
func findScenarioFiles(path, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("scenario path not found: %s", path)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			matched, err := filepath.Match(filter, filepath.Base(p))
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}
