package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one scripted conformance test.
type Scenario struct {
	// Name uniquely identifies this scenario; it also names the golden
	// file and pins the game token.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Game names a rule set in the built-in catalog.
	Game string `yaml:"game"`

	// Players lists the participant names in seat order.
	Players []string `yaml:"players"`

	// Moves is the scripted move list, applied in order.
	Moves []MoveStep `yaml:"moves"`

	// Assertions validate the final state and the move trace.
	Assertions []Assertion `yaml:"assertions"`
}

// MoveStep submits one complete move.
type MoveStep struct {
	// Player is the submitting seat.
	Player int `yaml:"player"`

	// Action is the action name.
	Action string `yaml:"action"`

	// Args maps selection names to values. Piece selections take piece
	// IDs; piece sets take ID lists.
	Args map[string]any `yaml:"args,omitempty"`

	// Expect, when set, inverts the default success requirement.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause marks a move as deliberately invalid.
type ExpectClause struct {
	// Rejected requires the move to fail without changing state.
	Rejected bool `yaml:"rejected"`

	// Errors are substrings that must each appear in the rejection
	// messages.
	Errors []string `yaml:"errors,omitempty"`
}

// Assertion validates one aspect of the finished run.
type Assertion struct {
	// Type selects the check:
	//   - "complete": the flow's completion flag equals the expected value
	//   - "acting_player": the awaited seat
	//   - "available_actions": the offered action names, in order
	//   - "phase": the active phase name
	//   - "winners": the final standings
	//   - "state_path": a path into the state JSON equals a value
	//   - "move_count": the action was accepted exactly N times
	//   - "round_trip": a snapshot restores to the identical state
	Type string `yaml:"type"`

	// Path addresses into the final state JSON (used by state_path).
	// Dotted gabs paths and JSON pointers both work; use a pointer
	// ("/position/vars/gold.0") when a key contains a dot.
	Path string `yaml:"path,omitempty"`

	// Equals is the expected value (used by state_path and complete).
	Equals any `yaml:"equals,omitempty"`

	// Player is the expected acting seat (used by acting_player).
	Player int `yaml:"player,omitempty"`

	// Actions are the expected offered actions (used by
	// available_actions).
	Actions []string `yaml:"actions,omitempty"`

	// Phase is the expected phase name (used by phase).
	Phase string `yaml:"phase,omitempty"`

	// Winners are the expected standings (used by winners).
	Winners []int `yaml:"winners,omitempty"`

	// Action and Count bound the trace (used by move_count).
	Action string `yaml:"action,omitempty"`
	Count  int    `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertComplete         = "complete"
	AssertActingPlayer     = "acting_player"
	AssertAvailableActions = "available_actions"
	AssertPhase            = "phase"
	AssertWinners          = "winners"
	AssertStatePath        = "state_path"
	AssertMoveCount        = "move_count"
	AssertRoundTrip        = "round_trip"
)

// LoadScenario reads and parses a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field validation, so
// a typo like "assertion:" for "assertions:" fails loudly.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Game == "" {
		return fmt.Errorf("game is required")
	}
	if len(s.Players) == 0 {
		return fmt.Errorf("players list is required and must be non-empty")
	}
	if len(s.Moves) == 0 {
		return fmt.Errorf("moves list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, mv := range s.Moves {
		if mv.Action == "" {
			return fmt.Errorf("moves[%d]: action is required", i)
		}
		if mv.Player < 0 || mv.Player >= len(s.Players) {
			return fmt.Errorf("moves[%d]: player %d is not a seat", i, mv.Player)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertComplete:
		if _, ok := a.Equals.(bool); !ok {
			return fmt.Errorf("assertions[%d]: complete needs a boolean equals", index)
		}
	case AssertActingPlayer, AssertRoundTrip:
		// No required fields.
	case AssertAvailableActions:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for available_actions", index)
		}
	case AssertPhase:
		if a.Phase == "" {
			return fmt.Errorf("assertions[%d]: phase is required", index)
		}
	case AssertWinners:
		if len(a.Winners) == 0 {
			return fmt.Errorf("assertions[%d]: winners list is required", index)
		}
	case AssertStatePath:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for state_path", index)
		}
		if a.Equals == nil {
			return fmt.Errorf("assertions[%d]: equals is required for state_path", index)
		}
	case AssertMoveCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for move_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
