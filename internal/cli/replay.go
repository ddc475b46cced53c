package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gambitlabs/gambit/internal/games"
	"github.com/gambitlabs/gambit/internal/session"
	"github.com/gambitlabs/gambit/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	GameID   string
}

// ReplayCheck is the verification result for one stored checkpoint.
type ReplayCheck struct {
	Seq        int64  `json:"seq"`
	StoredID   string `json:"stored_id"`
	RestoredID string `json:"restored_id"`
	Match      bool   `json:"match"`
}

// ReplayReport is the replay command's result payload.
type ReplayReport struct {
	GameID     string        `json:"game_id"`
	Spec       string        `json:"spec"`
	Checks     []ReplayCheck `json:"checks"`
	Mismatches int           `json:"mismatches"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Verify stored checkpoints restore deterministically",
		Long: `Restore every checkpoint of a game from the database and recompute
its content-addressed ID.

A mismatch between the stored ID and the ID of the restored state
means restoration is not deterministic for that rule set.

Exit codes:
  0 - All checkpoints verified
  1 - One or more checkpoints did not match
  2 - Command error (database or game not found)

Example:
  gambit replay --db ./games.db --game 0191b2c4-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite checkpoint database (required)")
	cmd.Flags().StringVar(&opts.GameID, "game", "", "game ID to replay (required)")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("game")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	metas, err := st.ListCheckpoints(ctx, opts.GameID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list checkpoints", err)
	}
	if len(metas) == 0 {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("no checkpoints stored for game %q", opts.GameID))
	}

	factory, ok := games.Lookup(metas[0].Spec)
	if !ok {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("checkpoints reference unknown game %q", metas[0].Spec))
	}

	report := ReplayReport{GameID: opts.GameID, Spec: metas[0].Spec}
	for _, meta := range metas {
		snap, err := st.GetCheckpoint(ctx, meta.CheckpointID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("checkpoint %s disappeared during replay", meta.CheckpointID))
			}
			return WrapExitError(ExitCommandError, "failed to read checkpoint", err)
		}

		g, err := session.RestoreGame(factory(), snap)
		if err != nil {
			return WrapExitError(ExitFailure,
				fmt.Sprintf("failed to restore checkpoint at seq %d", meta.Seq), err)
		}
		restoredID, err := g.Snapshot().CheckpointID()
		if err != nil {
			return WrapExitError(ExitFailure, "failed to recompute checkpoint id", err)
		}

		check := ReplayCheck{
			Seq:        meta.Seq,
			StoredID:   meta.CheckpointID,
			RestoredID: restoredID,
			Match:      restoredID == meta.CheckpointID,
		}
		if !check.Match {
			report.Mismatches++
		}
		report.Checks = append(report.Checks, check)
	}

	return outputReplayReport(opts, report, cmd)
}

func outputReplayReport(opts *ReplayOptions, report ReplayReport, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if formatter.Format == "json" {
		if err := formatter.Success(report); err != nil {
			return err
		}
		if report.Mismatches > 0 {
			return NewExitError(ExitFailure,
				fmt.Sprintf("%d checkpoint(s) did not match", report.Mismatches))
		}
		return nil
	}

	w := cmd.OutOrStdout()
	for _, check := range report.Checks {
		if check.Match {
			fmt.Fprintf(w, "✓ seq %d  %s\n", check.Seq, check.StoredID)
		} else {
			fmt.Fprintf(w, "✗ seq %d  stored %s, restored %s\n",
				check.Seq, check.StoredID, check.RestoredID)
		}
	}
	if report.Mismatches > 0 {
		fmt.Fprintf(w, "\nReplay not deterministic: %d of %d checkpoint(s) mismatched\n",
			report.Mismatches, len(report.Checks))
		return NewExitError(ExitFailure,
			fmt.Sprintf("%d checkpoint(s) did not match", report.Mismatches))
	}
	fmt.Fprintf(w, "\nReplay deterministic: %d checkpoint(s) verified\n", len(report.Checks))
	return nil
}
