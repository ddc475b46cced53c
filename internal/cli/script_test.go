package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validScriptYAML = `
game: coinrush
players: [alice, bob]
moves:
  - { player: 0, action: take, args: { coin: coin-1 } }
  - { player: 1, action: take, args: { coin: coin-2 } }
`

func TestParseScript(t *testing.T) {
	s, err := ParseScript([]byte(validScriptYAML))
	require.NoError(t, err)
	assert.Equal(t, "coinrush", s.Game)
	assert.Equal(t, []string{"alice", "bob"}, s.Players)
	require.Len(t, s.Moves, 2)
	assert.Equal(t, "take", s.Moves[0].Action)
	assert.Equal(t, map[string]any{"coin": "coin-1"}, s.Moves[0].Args)
}

func TestParseScriptRejectsUnknownFields(t *testing.T) {
	src := `
game: coinrush
players: [alice, bob]
movse:
  - { player: 0, action: take }
`
	_, err := ParseScript([]byte(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "movse")
}

func TestScriptValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Script)
		want   string
	}{
		{"missing game", func(s *Script) { s.Game = "" }, "game is required"},
		{"no players", func(s *Script) { s.Players = nil }, "players list is required"},
		{"move without action", func(s *Script) { s.Moves[0].Action = "" }, "action is required"},
		{"player out of range", func(s *Script) { s.Moves[1].Player = 7 }, "not a seat"},
		{"negative player", func(s *Script) { s.Moves[1].Player = -1 }, "not a seat"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := ParseScript([]byte(validScriptYAML))
			require.NoError(t, err)
			tc.mutate(s)
			err = validateScript(s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadScriptMissingFile(t *testing.T) {
	_, err := LoadScript("testdata/does_not_exist.yaml")
	require.Error(t, err)
}
