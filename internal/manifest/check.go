package manifest

import (
	"fmt"

	"github.com/gambitlabs/gambit/internal/action"
	"github.com/gambitlabs/gambit/internal/session"
)

// Check cross-verifies a manifest against the registered Spec it
// documents. Every mismatch is reported, not just the first; an empty
// slice means the two agree.
//
// Checked: player bounds, the action set (both directions), and per
// action the selection names, order, kinds, and optional flags.
// Prompts and choice options are advisory and not compared.
func (m *Manifest) Check(spec *session.Spec) []string {
	var problems []string
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if m.Name != spec.Name {
		report("manifest is %q but spec is %q", m.Name, spec.Name)
	}
	if m.MinPlayers != spec.MinPlayers || m.MaxPlayers != spec.MaxPlayers {
		report("player bounds differ: manifest [%d,%d], spec [%d,%d]",
			m.MinPlayers, m.MaxPlayers, spec.MinPlayers, spec.MaxPlayers)
	}

	specActions := make(map[string]*action.Definition, len(spec.Actions))
	for _, def := range spec.Actions {
		specActions[def.Name] = def
	}

	for _, am := range m.Actions {
		def, ok := specActions[am.Name]
		if !ok {
			report("manifest action %q is not implemented by the spec", am.Name)
			continue
		}
		delete(specActions, am.Name)
		checkAction(&am, def, report)
	}
	for name := range specActions {
		report("spec action %q is missing from the manifest", name)
	}
	return problems
}

func checkAction(am *ActionManifest, def *action.Definition, report func(string, ...any)) {
	if len(am.Selections) != len(def.Selections) {
		report("action %q: manifest has %d selections, spec has %d",
			am.Name, len(am.Selections), len(def.Selections))
		return
	}
	for i, sm := range am.Selections {
		sel := def.Selections[i]
		meta := action.MetaOf(sel)
		if sm.Name != meta.Name {
			report("action %q selection %d: manifest names it %q, spec %q",
				am.Name, i, sm.Name, meta.Name)
			continue
		}
		if kind := action.KindOf(sel); sm.Kind != kind {
			report("action %q selection %q: manifest kind %q, spec kind %q",
				am.Name, sm.Name, sm.Kind, kind)
		}
		if sm.Optional != meta.Optional {
			report("action %q selection %q: optional flag differs", am.Name, sm.Name)
		}
	}
}
