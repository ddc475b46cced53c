package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gambitlabs/gambit/internal/session"
)

// ErrNotFound is returned when no checkpoint matches the query.
var ErrNotFound = errors.New("checkpoint not found")

// CheckpointMeta describes a stored checkpoint without its snapshot
// payload.
type CheckpointMeta struct {
	CheckpointID string `json:"checkpoint_id"`
	GameID       string `json:"game_id"`
	Spec         string `json:"spec"`
	Seq          int64  `json:"seq"`
	CreatedAt    string `json:"created_at"`
}

// WriteCheckpoint persists a snapshot and returns its content-addressed
// checkpoint ID. Writing a state that is already stored is a no-op and
// returns the same ID.
func (s *Store) WriteCheckpoint(ctx context.Context, snap *session.Snapshot) (string, error) {
	id, err := snap.CheckpointID()
	if err != nil {
		return "", fmt.Errorf("checkpoint id: %w", err)
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (checkpoint_id, game_id, spec, seq, snapshot)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (checkpoint_id) DO NOTHING`,
		id, snap.GameID, snap.Spec, snap.Seq, string(payload))
	if err != nil {
		return "", fmt.Errorf("write checkpoint: %w", err)
	}
	return id, nil
}

// LatestCheckpoint returns the highest-seq snapshot for a game, the
// point a crashed process resumes from.
func (s *Store) LatestCheckpoint(ctx context.Context, gameID string) (*session.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT snapshot FROM checkpoints
		WHERE game_id = ?
		ORDER BY seq DESC
		LIMIT 1`, gameID)
	return scanSnapshot(row)
}

// GetCheckpoint returns the snapshot stored under a checkpoint ID.
func (s *Store) GetCheckpoint(ctx context.Context, checkpointID string) (*session.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT snapshot FROM checkpoints
		WHERE checkpoint_id = ?`, checkpointID)
	return scanSnapshot(row)
}

func scanSnapshot(row *sql.Row) (*session.Snapshot, error) {
	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	var snap session.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// ListCheckpoints returns a game's checkpoints in seq order.
func (s *Store) ListCheckpoints(ctx context.Context, gameID string) ([]CheckpointMeta, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT checkpoint_id, game_id, spec, seq, created_at
		FROM checkpoints
		WHERE game_id = ?
		ORDER BY seq ASC`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer rows.Close()

	var out []CheckpointMeta
	for rows.Next() {
		var m CheckpointMeta
		if err := rows.Scan(&m.CheckpointID, &m.GameID, &m.Spec, &m.Seq, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListGames returns every game ID with at least one checkpoint,
// newest first by latest seq row.
func (s *Store) ListGames(ctx context.Context) ([]CheckpointMeta, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT checkpoint_id, game_id, spec, seq, created_at
		FROM checkpoints c
		WHERE seq = (SELECT MAX(seq) FROM checkpoints WHERE game_id = c.game_id)
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var out []CheckpointMeta
	for rows.Next() {
		var m CheckpointMeta
		if err := rows.Scan(&m.CheckpointID, &m.GameID, &m.Spec, &m.Seq, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// PruneCheckpoints deletes a game's checkpoints below the given seq,
// keeping the resume point small after long games. Returns the number
// of rows removed.
func (s *Store) PruneCheckpoints(ctx context.Context, gameID string, belowSeq int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM checkpoints
		WHERE game_id = ? AND seq < ?`, gameID, belowSeq)
	if err != nil {
		return 0, fmt.Errorf("prune checkpoints: %w", err)
	}
	return res.RowsAffected()
}
