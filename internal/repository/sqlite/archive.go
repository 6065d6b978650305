// Package sqlite keeps a local, append-only archive of serialized game
// states and generated maps in a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/freeeve/hexconquest/internal/model"
)

// Archive wraps the SQLite connection.
type Archive struct {
	conn *sqlx.DB
}

type stateRow struct {
	ID        int64     `db:"id"`
	GameID    string    `db:"game_id"`
	Turn      int       `db:"turn"`
	Fraction  int       `db:"fraction"`
	State     string    `db:"state"`
	CreatedBy string    `db:"created_by"`
	CreatedAt time.Time `db:"created_at"`
}

func (r stateRow) model() model.GameState {
	return model.GameState{
		ID:        fmt.Sprint(r.ID),
		GameID:    r.GameID,
		Turn:      r.Turn,
		Fraction:  r.Fraction,
		State:     json.RawMessage(r.State),
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt,
	}
}

// GeneratedMap is a map produced by the generator together with its
// opening state.
type GeneratedMap struct {
	ID        string    `db:"id"`
	Seed      int64     `db:"seed"`
	Size      string    `db:"size"`
	Width     int       `db:"width"`
	Height    int       `db:"height"`
	State     string    `db:"state"`
	CreatedAt time.Time `db:"created_at"`
}

// Open opens or creates the archive at path.
func Open(path string) (*Archive, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	// sqlite allows a single writer
	conn.SetMaxOpenConns(1)

	a := &Archive{conn: conn}
	if err := a.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate archive: %w", err)
	}
	return a, nil
}

func (a *Archive) Close() error {
	return a.conn.Close()
}

func (a *Archive) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS states (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		game_id TEXT NOT NULL,
		turn INTEGER NOT NULL,
		fraction INTEGER NOT NULL,
		state TEXT NOT NULL,
		created_by TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		UNIQUE (game_id, turn)
	);

	CREATE TABLE IF NOT EXISTS maps (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		size TEXT NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		state TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_states_game ON states(game_id);
	`
	_, err := a.conn.Exec(schema)
	return err
}

// Append stores s, replacing an earlier copy of the same turn.
func (a *Archive) Append(ctx context.Context, s model.GameState) error {
	createdAt := s.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := a.conn.NamedExecContext(ctx,
		`INSERT OR REPLACE INTO states (game_id, turn, fraction, state, created_by, created_at)
		 VALUES (:game_id, :turn, :fraction, :state, :created_by, :created_at)`,
		stateRow{
			GameID:    s.GameID,
			Turn:      s.Turn,
			Fraction:  s.Fraction,
			State:     string(s.State),
			CreatedBy: s.CreatedBy,
			CreatedAt: createdAt,
		})
	if err != nil {
		return fmt.Errorf("append state %s/%d: %w", s.GameID, s.Turn, err)
	}
	return nil
}

// States returns every archived state of a game in turn order.
func (a *Archive) States(ctx context.Context, gameID string) ([]model.GameState, error) {
	var rows []stateRow
	err := a.conn.SelectContext(ctx, &rows,
		`SELECT id, game_id, turn, fraction, state, created_by, created_at
		 FROM states WHERE game_id = ? ORDER BY turn`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list archived states: %w", err)
	}
	out := make([]model.GameState, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

// Latest returns the newest archived state of a game, or nil.
func (a *Archive) Latest(ctx context.Context, gameID string) (*model.GameState, error) {
	var r stateRow
	err := a.conn.GetContext(ctx, &r,
		`SELECT id, game_id, turn, fraction, state, created_by, created_at
		 FROM states WHERE game_id = ? ORDER BY turn DESC LIMIT 1`, gameID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest archived state: %w", err)
	}
	s := r.model()
	return &s, nil
}

// SaveMap stores a generated map and files its opening state as turn 0 of
// a game with the map's id.
func (a *Archive) SaveMap(ctx context.Context, m GeneratedMap) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	tx, err := a.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save map: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO maps (id, seed, size, width, height, state, created_at)
		 VALUES (:id, :seed, :size, :width, :height, :state, :created_at)`, m); err != nil {
		return fmt.Errorf("save map %s: %w", m.ID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO states (game_id, turn, fraction, state, created_at)
		 VALUES (?, 0, 1, ?, ?)`, m.ID, m.State, m.CreatedAt); err != nil {
		return fmt.Errorf("save map %s opening state: %w", m.ID, err)
	}
	return tx.Commit()
}

// Maps returns the generated maps, newest first.
func (a *Archive) Maps(ctx context.Context) ([]GeneratedMap, error) {
	var maps []GeneratedMap
	if err := a.conn.SelectContext(ctx, &maps,
		`SELECT id, seed, size, width, height, state, created_at FROM maps ORDER BY created_at DESC`); err != nil {
		return nil, fmt.Errorf("list maps: %w", err)
	}
	return maps, nil
}
