package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gambitlabs/gambit/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter string // scenario filter (glob pattern on the file stem)
}

// ScenarioResult holds the result of a single scenario run.
type ScenarioResult struct {
	Name   string   `json:"name"`
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
		Use:   "test <scenarios-dir>",
		Short: "Run scenario files",
		Long: `Run every YAML scenario in a directory through the live engine
and evaluate its assertions.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (directory not found)

Examples:
  gambit test ./scenarios
  gambit test ./scenarios --filter "caravan-*"
  gambit test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runScenarios(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	files, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}
	if len(files) == 0 {
		if opts.Format == "json" {
			return outputTestResult(opts, TestResult{Scenarios: []ScenarioResult{}}, cmd)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	for _, file := range files {
		sr := runOneScenario(file, opts, cmd)
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	return outputTestResult(opts, result, cmd)
}

// findScenarioFiles finds all YAML scenario files under a directory.
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

	return files, err
}

// runOneScenario loads and runs a single scenario file.
func runOneScenario(file string, opts *TestOptions, cmd *cobra.Command) ScenarioResult {
	w := cmd.OutOrStdout()

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		if opts.Format != "json" {
			fmt.Fprintf(w, "✗ %s\n", filepath.Base(file))
			fmt.Fprintf(w, "  Load error: %v\n", err)
		}
		return ScenarioResult{
			Name:   filepath.Base(file),
			Pass:   false,
			Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
		}
	}

	result, err := harness.Run(scenario)
	if err != nil {
		if opts.Format != "json" {
			fmt.Fprintf(w, "✗ %s\n", scenario.Name)
			fmt.Fprintf(w, "  Execution error: %v\n", err)
		}
		return ScenarioResult{
			Name:   scenario.Name,
			Pass:   false,
			Errors: []string{fmt.Sprintf("execution failed: %v", err)},
		}
	}

	if result.Pass {
		if opts.Format != "json" {
			fmt.Fprintf(w, "✓ %s\n", scenario.Name)
		}
		return ScenarioResult{Name: scenario.Name, Pass: true}
	}

	if opts.Format != "json" {
		fmt.Fprintf(w, "✗ %s\n", scenario.Name)
		for _, e := range result.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
	return ScenarioResult{
		Name:   scenario.Name,
		Pass:   false,
		Errors: result.Errors,
	}
}

// outputTestResult renders the summary and sets the exit code.
func outputTestResult(opts *TestOptions, result TestResult, cmd *cobra.Command) error {
	if opts.Format == "json" {
		response := CLIResponse{Status: "ok", Data: result}
		if result.Failed > 0 {
			response.Status = "error"
			response.Error = &CLIError{
				Code:    "E_SCENARIO_FAILED",
				Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
			}
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		if result.Failed > 0 {
			return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
		}
		return nil
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Scenario summary: %d passed, %d failed, %d total\n",
		result.Passed, result.Failed, result.Total)
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
