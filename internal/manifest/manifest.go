package manifest

import (
	"fmt"

	"cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Manifest is the compiled form of one game manifest.
type Manifest struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	MinPlayers  int              `json:"min_players"`
	MaxPlayers  int              `json:"max_players"`
	Actions     []ActionManifest `json:"actions"`
}

// ActionManifest describes one action's wire surface.
type ActionManifest struct {
	Name       string              `json:"name"`
	Prompt     string              `json:"prompt,omitempty"`
	Selections []SelectionManifest `json:"selections,omitempty"`
}

// SelectionManifest describes one selection slot.
type SelectionManifest struct {
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	Prompt    string   `json:"prompt,omitempty"`
	Optional  bool     `json:"optional,omitempty"`
	Options   []string `json:"options,omitempty"`
	PieceKind string   `json:"piece_kind,omitempty"`
	DependsOn string   `json:"depends_on,omitempty"`
	Min       int      `json:"min,omitempty"`
	Max       int      `json:"max,omitempty"`
}

// selection kinds accepted in manifests, matching action.KindOf.
var validKinds = map[string]bool{
	"choice":   true,
	"piece":    true,
	"pieceSet": true,
	"text":     true,
	"number":   true,
}

// Action returns the named action manifest, or nil.
func (m *Manifest) Action(name string) *ActionManifest {
	for i := range m.Actions {
		if m.Actions[i].Name == name {
			return &m.Actions[i]
		}
	}
	return nil
}

// CompileManifest parses a CUE value into a Manifest.
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
//
// The CUE value should be the game struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`game: coins: { ... }`)
//	m, err := CompileManifest(v.LookupPath(cue.ParsePath("game.coins")))
func CompileManifest(v cue.Value) (*Manifest, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	m := &Manifest{}

	// The manifest name is the struct label.
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		m.Name = labels[len(labels)-1].String()
	}

	if descVal := v.LookupPath(cue.ParsePath("description")); descVal.Exists() {
		desc, err := descVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		m.Description = desc
	}

	playersVal := v.LookupPath(cue.ParsePath("players"))
	if !playersVal.Exists() {
		return nil, &CompileError{
			Field:   "players",
			Message: "players bounds are required",
			Pos:     v.Pos(),
		}
	}
	var err error
	m.MinPlayers, err = intField(playersVal, "min")
	if err != nil {
		return nil, err
	}
	m.MaxPlayers, err = intField(playersVal, "max")
	if err != nil {
		return nil, err
	}
	if m.MinPlayers < 1 || m.MaxPlayers < m.MinPlayers {
		return nil, &CompileError{
			Field:   "players",
			Message: fmt.Sprintf("invalid player bounds [%d,%d]", m.MinPlayers, m.MaxPlayers),
			Pos:     playersVal.Pos(),
		}
	}

	m.Actions, err = parseActions(v)
	if err != nil {
		return nil, err
	}
	if len(m.Actions) == 0 {
		return nil, &CompileError{
			Field:   "action",
			Message: "at least one action is required",
			Pos:     v.Pos(),
		}
	}
	return m, nil
}

func parseActions(v cue.Value) ([]ActionManifest, error) {
	actionVal := v.LookupPath(cue.ParsePath("action"))
	if !actionVal.Exists() {
		return nil, nil
	}
	iter, err := actionVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var actions []ActionManifest
	for iter.Next() {
		a := ActionManifest{Name: iter.Label()}
		av := iter.Value()

		if pv := av.LookupPath(cue.ParsePath("prompt")); pv.Exists() {
			if a.Prompt, err = pv.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		if a.Selections, err = parseSelections(a.Name, av); err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, nil
}

func parseSelections(actionName string, av cue.Value) ([]SelectionManifest, error) {
	selVal := av.LookupPath(cue.ParsePath("selection"))
	if !selVal.Exists() {
		return nil, nil
	}
	iter, err := selVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	seen := make(map[string]bool)
	var sels []SelectionManifest
	for iter.Next() {
		s := SelectionManifest{Name: iter.Label()}
		sv := iter.Value()
		field := func(name string) string {
			return fmt.Sprintf("action.%s.selection.%s.%s", actionName, s.Name, name)
		}
		if seen[s.Name] {
			return nil, &CompileError{
				Field:   field(""),
				Message: "duplicate selection name",
				Pos:     sv.Pos(),
			}
		}
		seen[s.Name] = true

		kindVal := sv.LookupPath(cue.ParsePath("kind"))
		if !kindVal.Exists() {
			return nil, &CompileError{
				Field:   field("kind"),
				Message: "selection kind is required",
				Pos:     sv.Pos(),
			}
		}
		if s.Kind, err = kindVal.String(); err != nil {
			return nil, formatCUEError(err)
		}
		if !validKinds[s.Kind] {
			return nil, &CompileError{
				Field:   field("kind"),
				Message: fmt.Sprintf("unknown selection kind %q", s.Kind),
				Pos:     kindVal.Pos(),
			}
		}

		if pv := sv.LookupPath(cue.ParsePath("prompt")); pv.Exists() {
			if s.Prompt, err = pv.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		if ov := sv.LookupPath(cue.ParsePath("optional")); ov.Exists() {
			if s.Optional, err = ov.Bool(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		if dv := sv.LookupPath(cue.ParsePath("dependsOn")); dv.Exists() {
			if s.DependsOn, err = dv.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		if pk := sv.LookupPath(cue.ParsePath("pieceKind")); pk.Exists() {
			if s.PieceKind, err = pk.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		if opts := sv.LookupPath(cue.ParsePath("options")); opts.Exists() {
			optIter, err := opts.List()
			if err != nil {
				return nil, formatCUEError(err)
			}
			for optIter.Next() {
				opt, err := optIter.Value().String()
				if err != nil {
					return nil, formatCUEError(err)
				}
				s.Options = append(s.Options, opt)
			}
		}
		if mv := sv.LookupPath(cue.ParsePath("min")); mv.Exists() {
			if s.Min, err = cueInt(mv); err != nil {
				return nil, err
			}
		}
		if mv := sv.LookupPath(cue.ParsePath("max")); mv.Exists() {
			if s.Max, err = cueInt(mv); err != nil {
				return nil, err
			}
		}

		sels = append(sels, s)
	}
	return sels, nil
}

func intField(v cue.Value, name string) (int, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return 0, &CompileError{
			Field:   name,
			Message: fmt.Sprintf("%s is required", name),
			Pos:     v.Pos(),
		}
	}
	return cueInt(fv)
}

// cueInt reads an integer. Floats are rejected: manifests describe
// counts and bounds, which are always whole.
func cueInt(v cue.Value) (int, error) {
	n, err := v.Int64()
	if err != nil {
		return 0, &CompileError{
			Field:   "type",
			Message: "expected an integer",
			Pos:     v.Pos(),
		}
	}
	return int(n), nil
}

// CompileError represents a manifest compilation error with source
// position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	firstErr := errs[0]
	positions := cueerrors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
