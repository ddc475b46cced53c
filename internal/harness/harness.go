package harness

import (
	"fmt"
	"strings"

	"github.com/gambitlabs/gambit/internal/games"
	"github.com/gambitlabs/gambit/internal/session"
	"github.com/gambitlabs/gambit/internal/testutil"
)

// Run executes a scenario against a fresh instance of a catalog game.
//
// The returned error covers scenario-level problems: an unknown game,
// a spec the players do not fit, a fatal flow error. Move rejections
// and assertion failures land in the Result instead.
func Run(scenario *Scenario) (*Result, error) {
	factory, ok := games.Lookup(scenario.Game)
	if !ok {
		return nil, fmt.Errorf("unknown game %q (catalog: %s)",
			scenario.Game, strings.Join(games.Names(), ", "))
	}
	return RunSpec(scenario, factory())
}

// RunSpec executes a scenario against an explicit rule set. Tests use
// it to script games that are not in the catalog.
func RunSpec(scenario *Scenario, spec *session.Spec) (*Result, error) {
	g, err := session.NewGame(spec, scenario.Players,
		session.WithTokenGenerator(testutil.NewFixedTokenGenerator("scenario-"+scenario.Name)),
	)
	if err != nil {
		return nil, err
	}
	if _, err := g.Start(); err != nil {
		return nil, fmt.Errorf("start game: %w", err)
	}

	result := NewResult()
	result.game = g

	for i, mv := range scenario.Moves {
		st, res, err := g.Submit(mv.Player, mv.Action, cloneArgs(mv.Args))
		if err != nil {
			return nil, fmt.Errorf("move %d (%s): %w", i, mv.Action, err)
		}

		result.addMove(TraceEvent{
			Seq:     int64(i + 1),
			Player:  mv.Player,
			Action:  mv.Action,
			Args:    mv.Args,
			Success: res.Success,
			Errors:  res.Errors,
			Phase:   st.Phase,
		})
		checkExpectation(result, i, &mv, res.Success, res.Errors)
	}

	result.Final = g.State()
	evaluateAssertions(result, scenario, spec)
	return result, nil
}

// checkExpectation enforces a move's expect clause: moves succeed by
// default, and a rejected move must carry every expected message.
func checkExpectation(result *Result, index int, mv *MoveStep, success bool, errs []string) {
	if mv.Expect == nil || !mv.Expect.Rejected {
		if !success {
			result.AddError(fmt.Sprintf(
				"move %d: %s by seat %d rejected: %s",
				index, mv.Action, mv.Player, strings.Join(errs, "; ")))
		}
		return
	}
	if success {
		result.AddError(fmt.Sprintf(
			"move %d: expected %s to be rejected, but it was accepted", index, mv.Action))
		return
	}
	joined := strings.Join(errs, "; ")
	for _, want := range mv.Expect.Errors {
		if !strings.Contains(joined, want) {
			result.AddError(fmt.Sprintf(
				"move %d: rejection %q does not mention %q", index, joined, want))
		}
	}
}

// cloneArgs shields the scenario's args from in-place piece
// rehydration so the trace keeps the wire-level IDs.
func cloneArgs(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
	}
	return out
}
