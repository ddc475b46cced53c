package session

import (
	"fmt"

	"github.com/gambitlabs/gambit/internal/action"
	"github.com/gambitlabs/gambit/internal/flow"
)

// Spec is a registered rule set: the action definitions, the flow
// definition, and the player-count bounds. Specs are immutable and
// shared across game instances.
type Spec struct {
	Name        string
	Description string

	MinPlayers int
	MaxPlayers int

	Actions []*action.Definition
	Flow    *flow.Definition
}

// Validate checks the spec for structural problems a game constructor
// would otherwise hit later: missing flow, bad player bounds,
// duplicate or unnamed actions, duplicate selection names.
func (s *Spec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("spec has no name")
	}
	if s.Flow == nil || s.Flow.Root == nil {
		return fmt.Errorf("spec %q has no flow definition", s.Name)
	}
	if s.MinPlayers < 1 {
		return fmt.Errorf("spec %q: min players must be at least 1", s.Name)
	}
	if s.MaxPlayers < s.MinPlayers {
		return fmt.Errorf("spec %q: max players %d below min players %d",
			s.Name, s.MaxPlayers, s.MinPlayers)
	}
	seen := make(map[string]bool, len(s.Actions))
	for _, def := range s.Actions {
		if def.Name == "" {
			return fmt.Errorf("spec %q: action with no name", s.Name)
		}
		if seen[def.Name] {
			return fmt.Errorf("spec %q: duplicate action %q", s.Name, def.Name)
		}
		seen[def.Name] = true

		sels := make(map[string]bool, len(def.Selections))
		for _, sel := range def.Selections {
			name := action.MetaOf(sel).Name
			if name == "" {
				return fmt.Errorf("spec %q: action %q has a selection with no name", s.Name, def.Name)
			}
			if sels[name] {
				return fmt.Errorf("spec %q: action %q has duplicate selection %q", s.Name, def.Name, name)
			}
			sels[name] = true
		}
	}
	return nil
}
