package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gambitlabs/gambit/internal/games"
	"github.com/gambitlabs/gambit/internal/session"
	"github.com/gambitlabs/gambit/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string

	// TokenGenerator allows overriding the game ID source (for testing).
	// If nil, defaults to UUIDv7Generator.
	TokenGenerator session.TokenGenerator
}

// RunReport is the run command's result payload.
type RunReport struct {
	GameID       string   `json:"game_id"`
	Spec         string   `json:"spec"`
	Players      []string `json:"players"`
	Moves        int      `json:"moves"`
	Complete     bool     `json:"complete"`
	Phase        string   `json:"phase,omitempty"`
	Winners      []int    `json:"winners,omitempty"`
	CheckpointID string   `json:"checkpoint_id"`
	Checkpoints  int      `json:"checkpoints,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <script.yaml>",
		Short: "Play a scripted game",
		Long: `Play a rule set from the catalog by applying a move script.

The script names the game, the players, and the moves to apply in
order. A rejected move stops the run. With --db, a checkpoint is
written to a SQLite database after setup and after every applied move,
so an interrupted game can be replayed or resumed later.

Examples:
  gambit run ./game.yaml
  gambit run ./game.yaml --db ./games.db
  gambit run ./game.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite checkpoint database")

	return cmd
}

func runScript(opts *RunOptions, scriptPath string, cmd *cobra.Command) error {
	logger := commandLogger(opts.RootOptions)

	script, err := LoadScript(scriptPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load script", err)
	}

	factory, ok := games.Lookup(script.Game)
	if !ok {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("unknown game %q (catalog: %s)", script.Game, strings.Join(games.Names(), ", ")))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var st *store.Store
	if opts.Database != "" {
		st, err = store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
	}

	gameOpts := []session.GameOption{session.WithLogger(logger)}
	if opts.TokenGenerator != nil {
		gameOpts = append(gameOpts, session.WithTokenGenerator(opts.TokenGenerator))
	}
	g, err := session.NewGame(factory(), script.Players, gameOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create game", err)
	}
	if _, err := g.Start(); err != nil {
		return WrapExitError(ExitFailure, "game failed to start", err)
	}

	checkpoints := 0
	save := func() error {
		if st == nil {
			return nil
		}
		id, err := st.WriteCheckpoint(ctx, g.Snapshot())
		if err != nil {
			return WrapExitError(ExitFailure, "failed to write checkpoint", err)
		}
		checkpoints++
		logger.Debug("checkpoint written", "game", g.ID(), "seq", g.Seq(), "checkpoint", id)
		return nil
	}
	if err := save(); err != nil {
		return err
	}

	for i, mv := range script.Moves {
		_, res, err := g.Submit(mv.Player, mv.Action, mv.Args)
		if err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("move %d failed", i+1), err)
		}
		if !res.Success {
			return NewExitError(ExitFailure,
				fmt.Sprintf("move %d: %s by seat %d rejected: %s",
					i+1, mv.Action, mv.Player, strings.Join(res.Errors, "; ")))
		}
		if err := save(); err != nil {
			return err
		}
	}

	final := g.State()
	checkpointID, err := g.Snapshot().CheckpointID()
	if err != nil {
		return WrapExitError(ExitFailure, "failed to compute checkpoint id", err)
	}

	report := RunReport{
		GameID:       g.ID(),
		Spec:         g.SpecName(),
		Players:      g.Players(),
		Moves:        final.Moves,
		Complete:     final.Complete,
		Phase:        final.Phase,
		Winners:      final.Winners,
		CheckpointID: checkpointID,
		Checkpoints:  checkpoints,
	}
	return outputRunReport(opts, report, cmd)
}

func outputRunReport(opts *RunOptions, report RunReport, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if formatter.Format == "json" {
		return formatter.Success(report)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Game %s (%s) with players %s\n",
		report.GameID, report.Spec, strings.Join(report.Players, ", "))
	fmt.Fprintf(w, "Applied %d move(s).\n", report.Moves)
	if report.Complete {
		fmt.Fprintf(w, "Status: complete, winners %v\n", report.Winners)
	} else if report.Phase != "" {
		fmt.Fprintf(w, "Status: awaiting input (phase %s)\n", report.Phase)
	} else {
		fmt.Fprintln(w, "Status: awaiting input")
	}
	fmt.Fprintf(w, "Checkpoint: %s\n", report.CheckpointID)
	if report.Checkpoints > 0 {
		fmt.Fprintf(w, "Saved %d checkpoint(s) to %s\n", report.Checkpoints, opts.Database)
	}
	return nil
}

// commandLogger builds the slog logger commands share. Verbose mode
// lowers the level to debug; output always goes to stderr so it never
// mixes with JSON on stdout.
func commandLogger(opts *RootOptions) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
