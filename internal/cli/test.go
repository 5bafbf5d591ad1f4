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

	"github.com/roach88/tristore/internal/backend"
	"github.com/roach88/tristore/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update    bool     // regenerate golden files
	Filter    string   // scenario filter (glob pattern)
	Backends  []string // backends to run on; empty means every compiled-in kind
	GoldenDir string   // defaults to <scenarios-dir>/../golden
}

// ScenarioResult holds the result of one scenario on one backend.
type ScenarioResult struct {
	Name    string   `json:"name"`
	Backend string   `json:"backend"`
	Pass    bool     `json:"pass"`
	Errors  []string `json:"errors,omitempty"`
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
		Use:   "test <scenarios-dir>",
		Short: "Run conformance scenarios",
		Long: `Run YAML conformance scenarios against one or more backends.

Each scenario runs on a fresh store per backend. Expectations and
assertions are checked, and the trace is compared with the scenario's
golden file when one exists. Every backend shares the same golden file.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, unknown backend, etc.)

Examples:
  tristore test ./testdata/scenarios
  tristore test ./testdata/scenarios --backends sqlite,badger
  tristore test ./testdata/scenarios --filter "trav*" --update`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().StringSliceVar(&opts.Backends, "backends", nil, "backends to run on (default: all compiled in)")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden", "", "golden file directory")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	kinds, err := selectBackends(opts.Backends)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --backends", err)
	}

	goldenDir := opts.GoldenDir
	if goldenDir == "" {
		goldenDir = filepath.Join(filepath.Dir(filepath.Clean(scenariosDir)), "golden")
	}

	scenarioFiles, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	result := TestResult{Scenarios: []ScenarioResult{}}
	if len(scenarioFiles) == 0 {
		if opts.Format == "json" {
			return outputTestJSON(cmd, result)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	for _, scenarioFile := range scenarioFiles {
		for _, r := range runScenarioFile(opts, scenarioFile, goldenDir, kinds, cmd) {
			result.Scenarios = append(result.Scenarios, r)
			result.Total++
			if r.Pass {
				result.Passed++
			} else {
				result.Failed++
			}
		}
	}

	if opts.Format == "json" {
		return outputTestJSON(cmd, result)
	}
	return outputTestText(cmd, result)
}

// selectBackends validates names against the compiled-in kinds.
func selectBackends(names []string) ([]backend.Kind, error) {
	available := backend.Kinds()
	if len(names) == 0 {
		return available, nil
	}

	kinds := make([]backend.Kind, 0, len(names))
	for _, n := range names {
		k := backend.Kind(strings.TrimSpace(strings.ToLower(n)))
		if !slices.Contains(available, k) {
			return nil, fmt.Errorf("backend %q not available (compiled in: %v)", n, available)
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// findScenarioFiles finds all YAML scenario files in a directory, sorted.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	slices.Sort(files)
	return files, err
}

// runScenarioFile runs one scenario file on every selected backend.
func runScenarioFile(opts *TestOptions, scenarioFile, goldenDir string, kinds []backend.Kind, cmd *cobra.Command) []ScenarioResult {
	w := cmd.OutOrStdout()
	text := opts.Format != "json"

	scenario, err := harness.LoadScenario(scenarioFile)
	if err != nil {
		if text {
			fmt.Fprintf(w, "✗ %s\n", filepath.Base(scenarioFile))
			fmt.Fprintf(w, "  Load error: %v\n", err)
		}
		return []ScenarioResult{{
			Name:   filepath.Base(scenarioFile),
			Pass:   false,
			Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
		}}
	}

	goldenPath := filepath.Join(goldenDir, scenario.Name+".golden")
	updated := false

	var results []ScenarioResult
	for _, kind := range kinds {
		if !scenario.Runs(kind) {
			continue
		}
		r := ScenarioResult{Name: scenario.Name, Backend: string(kind)}
		r.Errors = runOnBackend(cmd, scenario, kind, goldenPath, opts.Update && !updated)
		if opts.Update {
			updated = true
		}
		r.Pass = len(r.Errors) == 0

		if text {
			if r.Pass {
				fmt.Fprintf(w, "✓ %s [%s]\n", r.Name, r.Backend)
			} else {
				fmt.Fprintf(w, "✗ %s [%s]\n", r.Name, r.Backend)
				for _, e := range r.Errors {
					fmt.Fprintf(w, "  %s\n", e)
				}
			}
		}
		results = append(results, r)
	}
	return results
}

// runOnBackend returns the failures of one run; nil means pass. With
// update, the trace is written as the new golden file instead of compared.
func runOnBackend(cmd *cobra.Command, scenario *harness.Scenario, kind backend.Kind, goldenPath string, update bool) []string {
	dir := ""
	if kind == backend.KindRocksDB {
		tmp, err := os.MkdirTemp("", "tristore-"+scenario.Name+"-")
		if err != nil {
			return []string{fmt.Sprintf("failed to create backend dir: %v", err)}
		}
		defer os.RemoveAll(tmp)
		dir = tmp
	}

	result, err := harness.Run(cmd.Context(), scenario, harness.BackendFor(kind, dir))
	if err != nil {
		return []string{fmt.Sprintf("execution failed: %v", err)}
	}
	errs := slices.Clone(result.Errors)

	current, err := harness.MarshalSnapshot(scenario.Name, result)
	if err != nil {
		return append(errs, fmt.Sprintf("failed to marshal trace: %v", err))
	}

	if update {
		if err := writeGoldenFile(goldenPath, current); err != nil {
			errs = append(errs, err.Error())
		}
		return errs
	}

	golden, err := os.ReadFile(goldenPath)
	switch {
	case os.IsNotExist(err):
		// No golden file: expectations and assertions only.
	case err != nil:
		errs = append(errs, fmt.Sprintf("failed to read golden file: %v", err))
	case !bytes.Equal(golden, current):
		errs = append(errs, "trace does not match golden file (run with --update to regenerate)")
	}
	return errs
}

func writeGoldenFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(cmd *cobra.Command, result TestResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    CodeTestFailed,
			Message: fmt.Sprintf("%d scenario run(s) failed", result.Failed),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		return &ExitError{Code: ExitFailure, Kind: CodeTestFailed, Message: response.Error.Message, Reported: true}
	}
	return nil
}

// outputTestText outputs the test summary as text.
func outputTestText(cmd *cobra.Command, result TestResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return &ExitError{Code: ExitFailure, Kind: CodeTestFailed, Message: fmt.Sprintf("%d scenario run(s) failed", result.Failed)}
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
