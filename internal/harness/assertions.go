package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Jeffail/gabs/v2"

	"github.com/gambitlabs/gambit/internal/canon"
	"github.com/gambitlabs/gambit/internal/flow"
	"github.com/gambitlabs/gambit/internal/session"
)

// evaluateAssertions checks every assertion against the final state
// and the trace, recording each failure on the result. All assertions
// run; the first failure does not stop the rest.
func evaluateAssertions(result *Result, scenario *Scenario, spec *session.Spec) {
	stateJSON, err := json.Marshal(result.Final)
	if err != nil {
		result.AddError(fmt.Sprintf("serialize final state: %v", err))
		return
	}
	state, err := gabs.ParseJSON(stateJSON)
	if err != nil {
		result.AddError(fmt.Sprintf("parse final state: %v", err))
		return
	}

	for i, a := range scenario.Assertions {
		var err error
		switch a.Type {
		case AssertComplete:
			want := a.Equals.(bool)
			if result.Final.Complete != want {
				err = fmt.Errorf("complete is %v, expected %v", result.Final.Complete, want)
			}
		case AssertActingPlayer:
			if result.Final.Player != a.Player {
				err = fmt.Errorf("acting player is %d, expected %d", result.Final.Player, a.Player)
			}
		case AssertAvailableActions:
			if !stringSlicesEqual(result.Final.AvailableActions, a.Actions) {
				err = fmt.Errorf("available actions are %v, expected %v",
					result.Final.AvailableActions, a.Actions)
			}
		case AssertPhase:
			if result.Final.Phase != a.Phase {
				err = fmt.Errorf("phase is %q, expected %q", result.Final.Phase, a.Phase)
			}
		case AssertWinners:
			if !intSlicesEqual(result.Final.Winners, a.Winners) {
				err = fmt.Errorf("winners are %v, expected %v", result.Final.Winners, a.Winners)
			}
		case AssertStatePath:
			err = assertStatePath(state, a.Path, a.Equals)
		case AssertMoveCount:
			got := 0
			for _, ev := range result.Trace {
				if ev.Success && ev.Action == a.Action {
					got++
				}
			}
			if got != a.Count {
				err = fmt.Errorf("%d accepted %q moves, expected %d", got, a.Action, a.Count)
			}
		case AssertRoundTrip:
			err = assertRoundTrip(result, spec)
		}
		if err != nil {
			result.AddError(fmt.Sprintf("assertion %d (%s): %v", i, a.Type, err))
		}
	}
}

// assertStatePath resolves a path into the final state JSON and
// compares loosely, so YAML ints match JSON floats.
func assertStatePath(state *gabs.Container, path string, want any) error {
	got, err := statePathValue(state, path)
	if err != nil {
		return err
	}
	if !looseEqual(want, got) {
		return fmt.Errorf("value at %q is %v, expected %v", path, got, want)
	}
	return nil
}

func statePathValue(state *gabs.Container, path string) (any, error) {
	if strings.HasPrefix(path, "/") {
		sub, err := state.JSONPointer(path)
		if err != nil {
			return nil, fmt.Errorf("path %q not found in final state", path)
		}
		return sub.Data(), nil
	}
	if !state.ExistsP(path) {
		return nil, fmt.Errorf("path %q not found in final state", path)
	}
	return state.Path(path).Data(), nil
}

// assertRoundTrip snapshots the finished game, pushes the snapshot
// through JSON the way the store does, restores it, and requires the
// restored game to be canonically identical.
func assertRoundTrip(result *Result, spec *session.Spec) error {
	snap := result.game.Snapshot()
	wire, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("serialize snapshot: %w", err)
	}
	var back session.Snapshot
	if err := json.Unmarshal(wire, &back); err != nil {
		return fmt.Errorf("reload snapshot: %w", err)
	}
	restored, err := session.RestoreGame(spec, &back)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	wantID, err := snap.CheckpointID()
	if err != nil {
		return fmt.Errorf("checkpoint id: %w", err)
	}
	gotID, err := restored.Snapshot().CheckpointID()
	if err != nil {
		return fmt.Errorf("restored checkpoint id: %w", err)
	}
	if gotID != wantID {
		return fmt.Errorf("checkpoint id diverged after restore: %s != %s", gotID, wantID)
	}

	want, err := canonicalState(result.Final)
	if err != nil {
		return err
	}
	got, err := canonicalState(restored.State())
	if err != nil {
		return err
	}
	if !bytes.Equal(want, got) {
		return fmt.Errorf("restored state diverged:\n  before: %s\n  after:  %s", want, got)
	}
	return nil
}

func canonicalState(st *flow.State) ([]byte, error) {
	v, err := canon.Roundtrip(st)
	if err != nil {
		return nil, err
	}
	return canon.Marshal(v)
}

// looseEqual compares a YAML-sourced expectation against a JSON-
// sourced actual value: numbers by value, lists elementwise, maps by
// exact key set.
func looseEqual(want, got any) bool {
	if wn, ok := asNumber(want); ok {
		gn, ok := asNumber(got)
		return ok && wn == gn
	}
	switch w := want.(type) {
	case []any:
		g, ok := got.([]any)
		if !ok || len(g) != len(w) {
			return false
		}
		for i := range w {
			if !looseEqual(w[i], g[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		g, ok := got.(map[string]any)
		if !ok || len(g) != len(w) {
			return false
		}
		for k, wv := range w {
			gv, present := g[k]
			if !present || !looseEqual(wv, gv) {
				return false
			}
		}
		return true
	default:
		return want == got
	}
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func intSlicesEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
