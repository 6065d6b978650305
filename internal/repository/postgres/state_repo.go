package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/freeeve/hexconquest/internal/model"
)

const stateColumns = `id, game_id, turn, fraction, state, COALESCE(created_by::text, ''), created_at`

// StateRepo keeps every serialized field a game has gone through.
type StateRepo struct {
	db *sql.DB
}

func NewStateRepo(db *sql.DB) *StateRepo {
	return &StateRepo{db: db}
}

func scanState(row rowScanner) (*model.GameState, error) {
	var s model.GameState
	var state []byte
	if err := row.Scan(&s.ID, &s.GameID, &s.Turn, &s.Fraction, &state, &s.CreatedBy, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.State = state
	return &s, nil
}

// Save inserts the state for its turn.
func (r *StateRepo) Save(ctx context.Context, s *model.GameState) (*model.GameState, error) {
	saved, err := scanState(r.db.QueryRowContext(ctx,
		`INSERT INTO game_states (game_id, turn, fraction, state, created_by)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+stateColumns,
		s.GameID, s.Turn, s.Fraction, []byte(s.State), nullStr(s.CreatedBy),
	))
	if err != nil {
		return nil, fmt.Errorf("save state: %w", err)
	}
	return saved, nil
}

// Latest returns the most recent state of a game.
func (r *StateRepo) Latest(ctx context.Context, gameID string) (*model.GameState, error) {
	s, err := scanState(r.db.QueryRowContext(ctx,
		`SELECT `+stateColumns+` FROM game_states WHERE game_id = $1
		 ORDER BY turn DESC LIMIT 1`, gameID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest state: %w", err)
	}
	return s, nil
}

// List returns every state of a game in turn order.
func (r *StateRepo) List(ctx context.Context, gameID string) ([]model.GameState, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+stateColumns+` FROM game_states WHERE game_id = $1 ORDER BY turn`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list states: %w", err)
	}
	defer rows.Close()

	var states []model.GameState
	for rows.Next() {
		s, err := scanState(rows)
		if err != nil {
			return nil, fmt.Errorf("scan state: %w", err)
		}
		states = append(states, *s)
	}
	return states, rows.Err()
}
