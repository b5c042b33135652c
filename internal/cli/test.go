package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/seqdb/internal/harness"
	"github.com/roach88/seqdb/internal/logging"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update    bool   // regenerate golden files
	Filter    string // scenario filter (glob pattern)
	GoldenDir string // directory of <scenario>.golden trace snapshots
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenario>...",
		Short: "Run store scenarios",
		Long: `Run YAML scenarios against a scratch store.

Each argument is a scenario file or a directory searched for .yaml and
.yml files. Every scenario runs in its own temporary data directory; the
configured data directory is never touched. With --golden-dir the trace
of each scenario is also compared against <golden-dir>/<name>.golden.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (missing paths, bad filter, etc.)

Examples:
  seqdb test ./scenarios
  seqdb test ./scenarios --filter "bulk_*"
  seqdb test ./scenarios --golden-dir ./golden --update
  seqdb test mark_and_lookup.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files (requires --golden-dir)")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern on the file name")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden-dir", "", "directory of golden trace snapshots")

	return cmd
}

func runTests(opts *TestOptions, args []string, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)

	if opts.Update && opts.GoldenDir == "" {
		return out.Fail(ExitCommandError, ErrCodeInvalidArg, "--update requires --golden-dir", nil)
	}
	if _, err := filepath.Match(opts.Filter, ""); err != nil {
		return out.Fail(ExitCommandError, ErrCodeInvalidArg, "invalid filter pattern", err)
	}

	var files []string
	for _, arg := range args {
		found, err := findScenarioFiles(arg, opts.Filter)
		if err != nil {
			return out.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("scenarios not found: %s", arg), err)
		}
		files = append(files, found...)
	}

	logger := zap.NewNop()
	if opts.Verbose {
		l, cleanup, err := logging.New(logging.Options{Level: "debug", Output: cmd.ErrOrStderr()})
		if err != nil {
			return out.Fail(ExitCommandError, ErrCodeConfig, "create logger", err)
		}
		defer cleanup()
		logger = l
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	for _, file := range files {
		sr := runScenario(cmd.Context(), opts, file, logger)
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if out.IsJSON() {
		return outputTestJSON(out, result)
	}
	return outputTestText(out, result)
}

// findScenarioFiles returns path itself when it is a file, or every YAML
// file below it when it is a directory. filter applies to directory
// entries only.
func findScenarioFiles(path, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(p), ext)
			if matched, _ := filepath.Match(filter, name); !matched {
				return nil
			}
		}

		files = append(files, p)
		return nil
	})
	return files, err
}

// runScenario loads and executes one scenario in a temporary directory.
func runScenario(ctx context.Context, opts *TestOptions, file string, logger *zap.Logger) ScenarioResult {
	sr := ScenarioResult{Name: filepath.Base(file), File: file}
	fail := func(format string, args ...any) ScenarioResult {
		sr.Errors = append(sr.Errors, fmt.Sprintf(format, args...))
		return sr
	}

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return fail("failed to load scenario: %v", err)
	}
	sr.Name = scenario.Name

	dir, err := os.MkdirTemp("", "seqdb-scenario-*")
	if err != nil {
		return fail("failed to create scratch directory: %v", err)
	}
	defer os.RemoveAll(dir)

	result, err := harness.Run(ctx, scenario, dir, harness.WithLogger(logger.With(zap.String("scenario", scenario.Name))))
	if err != nil {
		return fail("execution failed: %v", err)
	}
	sr.Errors = append(sr.Errors, result.Errors...)

	if opts.GoldenDir != "" {
		if err := checkGolden(opts, scenario.Name, result); err != nil {
			sr.Errors = append(sr.Errors, err.Error())
		}
	}

	sr.Pass = len(sr.Errors) == 0
	return sr
}

// checkGolden compares the trace of result with its golden file, or
// rewrites the file with --update. A missing golden file is not an error.
func checkGolden(opts *TestOptions, name string, result *harness.Result) error {
	data, err := harness.TraceSnapshot{ScenarioName: name, Trace: result.Trace}.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal trace: %w", err)
	}

	path := filepath.Join(opts.GoldenDir, name+".golden")
	if opts.Update {
		if err := os.MkdirAll(opts.GoldenDir, 0o755); err != nil {
			return fmt.Errorf("failed to create golden directory: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write golden file: %w", err)
		}
		return nil
	}

	golden, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read golden file: %w", err)
	}
	if !bytes.Equal(golden, data) {
		return fmt.Errorf("trace does not match %s (run with --update to regenerate)", path)
	}
	return nil
}

// outputTestJSON writes the result as one JSON response.
func outputTestJSON(out *OutputFormatter, result TestResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeTestFailed,
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	if err := json.NewEncoder(out.Writer).Encode(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		return markReported(NewExitError(ExitFailure, response.Error.Message))
	}
	return nil
}

// outputTestText writes one line per scenario and a summary.
func outputTestText(out *OutputFormatter, result TestResult) error {
	var buf strings.Builder
	for _, sr := range result.Scenarios {
		if sr.Pass {
			fmt.Fprintf(&buf, "✓ %s\n", sr.Name)
			continue
		}
		fmt.Fprintf(&buf, "✗ %s\n", sr.Name)
		for _, e := range sr.Errors {
			fmt.Fprintf(&buf, "  %s\n", e)
		}
	}
	fmt.Fprintf(&buf, "Test summary: %d passed, %d failed, %d total", result.Passed, result.Failed, result.Total)

	if err := out.Success(buf.String()); err != nil {
		return err
	}
	if result.Failed > 0 {
		return out.Fail(ExitFailure, ErrCodeTestFailed, fmt.Sprintf("%d scenario(s) failed", result.Failed), nil)
	}
	return nil
}
