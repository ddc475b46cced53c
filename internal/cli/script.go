package cli

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Script is a non-interactive play script: which rule set, who sits,
// and the moves to apply in order.
type Script struct {
	Game    string       `yaml:"game"`
	Players []string     `yaml:"players"`
	Moves   []ScriptMove `yaml:"moves"`
}

// ScriptMove is one complete move in a script. Args carry every
// selection value the action needs.
type ScriptMove struct {
	Player int            `yaml:"player"`
	Action string         `yaml:"action"`
	Args   map[string]any `yaml:"args"`
}

// LoadScript reads a play script from disk. Unknown YAML fields are
// rejected so typos surface as load errors.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return ParseScript(data)
}

// ParseScript parses and validates script YAML.
func ParseScript(data []byte) (*Script, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if err := validateScript(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

func validateScript(s *Script) error {
	if s.Game == "" {
		return fmt.Errorf("script: game is required")
	}
	if len(s.Players) == 0 {
		return fmt.Errorf("script: players list is required")
	}
	for i, mv := range s.Moves {
		if mv.Action == "" {
			return fmt.Errorf("script move %d: action is required", i+1)
		}
		if mv.Player < 0 || mv.Player >= len(s.Players) {
			return fmt.Errorf("script move %d: player %d is not a seat (have %d players)",
				i+1, mv.Player, len(s.Players))
		}
	}
	return nil
}
