package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gambitlabs/gambit/internal/action"
	"github.com/gambitlabs/gambit/internal/games"
	"github.com/gambitlabs/gambit/internal/session"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Action string
	Player int
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <script.yaml>",
		Short: "Explain action availability at a game position",
		Long: `Play a script to a position, then explain why an action is or is
not available there.

The trace reports the action's predicate and, per selection slot, the
live choice count and the first blocker encountered. --player defaults
to the acting seat at the scripted position.

Examples:
  gambit trace ./game.yaml --action bid
  gambit trace ./game.yaml --action sell --player 1 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Action, "action", "", "action name to trace (required)")
	cmd.Flags().IntVar(&opts.Player, "player", -1, "seat to trace for (default: acting seat)")
	_ = cmd.MarkFlagRequired("action")

	return cmd
}

func runTrace(opts *TraceOptions, scriptPath string, cmd *cobra.Command) error {
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

	g, err := session.NewGame(factory(), script.Players, session.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create game", err)
	}
	if _, err := g.Start(); err != nil {
		return WrapExitError(ExitFailure, "game failed to start", err)
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
	}

	st := g.State()
	if st.Complete {
		return NewExitError(ExitFailure, "game is complete; nothing is available")
	}
	player := opts.Player
	if player < 0 {
		player = st.Player
	}
	if player < 0 {
		return NewExitError(ExitCommandError,
			"scripted position has no single acting seat; pass --player")
	}

	trace, err := g.TraceAction(player, opts.Action)
	if err != nil {
		return WrapExitError(ExitCommandError, "trace failed", err)
	}
	return outputTrace(opts, player, trace, cmd)
}

func outputTrace(opts *TraceOptions, player int, trace *action.AvailabilityTrace, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if formatter.Format == "json" {
		return formatter.Success(trace)
	}

	w := cmd.OutOrStdout()
	verdict := "available"
	if !trace.Available {
		verdict = "unavailable"
	}
	fmt.Fprintf(w, "Action %s for seat %d: %s\n", trace.Action, player, verdict)
	if trace.PredicateFailed {
		fmt.Fprintln(w, "  when-predicate failed")
		return nil
	}
	for _, sel := range trace.Selections {
		line := fmt.Sprintf("  %s (%s)", sel.Selection, sel.Kind)
		if sel.Optional {
			line += " optional"
		}
		if sel.Enumerable {
			line += fmt.Sprintf(", %d choice(s)", sel.ChoiceCount)
		}
		if sel.DependsOn != "" {
			line += fmt.Sprintf(", depends on %s", sel.DependsOn)
		}
		if sel.Searched {
			line += ", searched dependent chain"
		}
		fmt.Fprintln(w, line)
		if sel.Blocked {
			fmt.Fprintf(w, "    blocked: %s\n", sel.Reason)
		}
	}
	return nil
}
