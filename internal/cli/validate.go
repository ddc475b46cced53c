package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gambitlabs/gambit/internal/games"
	"github.com/gambitlabs/gambit/internal/manifest"
)

// ManifestReport holds the check result for one manifest.
type ManifestReport struct {
	Manifest string   `json:"manifest"`
	Valid    bool     `json:"valid"`
	Problems []string `json:"problems,omitempty"`
}

// ValidationResult is the validate command's result payload.
type ValidationResult struct {
	Valid     bool             `json:"valid"`
	Manifests []ManifestReport `json:"manifests"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <manifest.cue>",
		Short: "Check CUE manifests against registered rule sets",
		Long: `Compile a CUE manifest file and check every game it declares
against the registered rule set of the same name.

The check compares player bounds, action names, and each action's
selection surface. Disagreements are reported one per line.

Exit codes:
  0 - All manifests agree with their rule sets
  1 - Compile errors or disagreements found
  2 - Command error (file not found)`,
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
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	manifests, err := manifest.LoadFile(path)
	if err != nil {
		var compileErr *manifest.CompileError
		if errors.As(err, &compileErr) {
			_ = formatter.Error("E_MANIFEST", compileErr.Error(), nil)
			return NewExitError(ExitFailure, compileErr.Error())
		}
		return WrapExitError(ExitCommandError, "failed to load manifest", err)
	}

	result := ValidationResult{Valid: true}
	for _, m := range manifests {
		formatter.VerboseLog("Checking manifest: %s", m.Name)
		report := ManifestReport{Manifest: m.Name}

		factory, ok := games.Lookup(m.Name)
		if !ok {
			report.Problems = []string{fmt.Sprintf("no game named %q is registered", m.Name)}
		} else {
			report.Problems = m.Check(factory())
		}
		report.Valid = len(report.Problems) == 0
		if !report.Valid {
			result.Valid = false
		}
		result.Manifests = append(result.Manifests, report)
	}

	return outputValidationResult(formatter, result)
}

func outputValidationResult(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		if result.Valid {
			return formatter.Success(result)
		}
		if err := formatter.Error("E_MANIFEST_MISMATCH", "manifest check failed", result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "manifest check failed")
	}

	w := formatter.Writer
	problems := 0
	for _, report := range result.Manifests {
		if report.Valid {
			fmt.Fprintf(w, "✓ %s matches its rule set\n", report.Manifest)
			continue
		}
		fmt.Fprintf(w, "✗ %s: %d problem(s)\n", report.Manifest, len(report.Problems))
		for _, p := range report.Problems {
			fmt.Fprintf(w, "  %s\n", p)
		}
		problems += len(report.Problems)
	}
	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("manifest check failed with %d problem(s)", problems))
	}
	return nil
}
