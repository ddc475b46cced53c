package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/gambitlabs/gambit/internal/canon"
)

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden. The trace is serialized as
// canonical JSON so the comparison is byte-stable across runs and
// platforms.
//
// Regenerate golden files with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	data, err := marshalTrace(scenario, result)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
	return result, nil
}

// marshalTrace converts a run into the map shape canonical JSON
// accepts. Empty fields are omitted rather than serialized as null.
func marshalTrace(scenario *Scenario, result *Result) ([]byte, error) {
	events := make([]any, len(result.Trace))
	for i, ev := range result.Trace {
		m := map[string]any{
			"seq":     ev.Seq,
			"player":  ev.Player,
			"action":  ev.Action,
			"success": ev.Success,
		}
		if len(ev.Args) > 0 {
			m["args"] = ev.Args
		}
		if len(ev.Errors) > 0 {
			m["errors"] = stringsToAny(ev.Errors)
		}
		if ev.Phase != "" {
			m["phase"] = ev.Phase
		}
		events[i] = m
	}

	final := map[string]any{
		"complete": result.Final.Complete,
		"moves":    result.Final.Moves,
	}
	if result.Final.Phase != "" {
		final["phase"] = result.Final.Phase
	}
	if len(result.Final.Winners) > 0 {
		final["winners"] = intsToAny(result.Final.Winners)
	}

	return canon.Marshal(map[string]any{
		"scenario": scenario.Name,
		"game":     scenario.Game,
		"players":  stringsToAny(scenario.Players),
		"trace":    events,
		"final":    final,
	})
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func intsToAny(ns []int) []any {
	out := make([]any, len(ns))
	for i, n := range ns {
		out[i] = n
	}
	return out
}
