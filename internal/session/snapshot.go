package session

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/gambitlabs/gambit/internal/action"
	"github.com/gambitlabs/gambit/internal/canon"
	"github.com/gambitlabs/gambit/internal/flow"
	"github.com/gambitlabs/gambit/internal/game"
)

// Snapshot is the full durable state of one game: everything needed
// to rebuild a live Game given the original Spec. Plain data,
// JSON-serializable.
type Snapshot struct {
	GameID   string              `json:"game_id"`
	Spec     string              `json:"spec"`
	Seq      int64               `json:"seq"`
	Players  []string            `json:"players"`
	Current  int                 `json:"current"`
	Board    *game.BoardSnapshot `json:"board"`
	Position *flow.Position      `json:"position"`
}

// Snapshot captures the current durable state. Call while the game is
// suspended or complete; a snapshot taken mid-pending-action does not
// include the partially collected selections.
func (g *Game) Snapshot() *Snapshot {
	return &Snapshot{
		GameID:   g.id,
		Spec:     g.spec.Name,
		Seq:      g.seq,
		Players:  g.roster.Names(),
		Current:  g.roster.Current(),
		Board:    g.board.Snapshot(),
		Position: g.eng.GetPosition(),
	}
}

// CheckpointID computes the snapshot's content-addressed identity.
// Identical game states produce identical IDs across processes.
func (s *Snapshot) CheckpointID() (string, error) {
	v, err := canon.Roundtrip(s.Position)
	if err != nil {
		return "", fmt.Errorf("serialize position: %w", err)
	}
	pos, ok := v.(map[string]any)
	if !ok {
		return "", fmt.Errorf("position serialized to %T, expected object", v)
	}
	return canon.CheckpointID(s.GameID, s.Seq, pos)
}

// RestoreGame rebuilds a live game from a snapshot. The spec must be
// the same rule set the snapshot was taken under; the snapshot records
// only its name.
func RestoreGame(spec *Spec, snap *Snapshot, opts ...GameOption) (*Game, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if snap.Spec != spec.Name {
		return nil, fmt.Errorf("snapshot is for spec %q, not %q", snap.Spec, spec.Name)
	}
	if len(snap.Players) < spec.MinPlayers || len(snap.Players) > spec.MaxPlayers {
		return nil, fmt.Errorf("snapshot has %d players, spec %q takes %d-%d",
			len(snap.Players), spec.Name, spec.MinPlayers, spec.MaxPlayers)
	}

	cfg := gameConfig{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	board, err := game.RestoreBoard(snap.Board)
	if err != nil {
		return nil, fmt.Errorf("restore board: %w", err)
	}
	roster := game.NewRoster(snap.Players...)
	if err := roster.SetCurrent(snap.Current); err != nil {
		return nil, fmt.Errorf("restore roster: %w", err)
	}
	exec := action.NewExecutor(board, roster, spec.Actions, action.WithLogger(cfg.logger))
	eng := flow.New(spec.Flow, board, roster, exec, flow.WithLogger(cfg.logger))

	if err := eng.RestorePosition(snap.Position); err != nil {
		return nil, err
	}

	cfg.logger.Info("game restored", "game", snap.GameID, "spec", spec.Name, "seq", snap.Seq)
	return &Game{
		id:     snap.GameID,
		spec:   spec,
		board:  board,
		roster: roster,
		exec:   exec,
		eng:    eng,
		seq:    snap.Seq,
		logger: cfg.logger,
	}, nil
}
