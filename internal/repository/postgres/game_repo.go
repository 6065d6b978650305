package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/freeeve/hexconquest/internal/model"
)

const gameColumns = `g.id, g.name, g.creator_id, g.status, g.map_size, g.turn,
	COALESCE(g.current_user_id::text, ''), COALESCE(g.winner::text, ''),
	g.created_at, g.updated_at, g.finished_at`

// GameRepo handles game and game_player database operations.
type GameRepo struct {
	db *sql.DB
}

func NewGameRepo(db *sql.DB) *GameRepo {
	return &GameRepo{db: db}
}

func scanGame(row rowScanner) (*model.Game, error) {
	var g model.Game
	err := row.Scan(&g.ID, &g.Name, &g.CreatorID, &g.Status, &g.MapSize, &g.Turn,
		&g.CurrentUserID, &g.Winner, &g.CreatedAt, &g.UpdatedAt, &g.FinishedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Create inserts the game and its players in one transaction.
func (r *GameRepo) Create(ctx context.Context, g *model.Game, players []model.GamePlayer) (*model.Game, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("create game: begin: %w", err)
	}
	defer tx.Rollback()

	created, err := scanGame(tx.QueryRowContext(ctx,
		`INSERT INTO games AS g (name, creator_id, status, map_size, current_user_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+gameColumns,
		g.Name, g.CreatorID, g.Status, g.MapSize, nullStr(g.CurrentUserID),
	))
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}

	for _, p := range players {
		var joined model.GamePlayer
		err := tx.QueryRowContext(ctx,
			`INSERT INTO game_players (game_id, user_id, fraction)
			 VALUES ($1, $2, $3)
			 RETURNING game_id, user_id, fraction, joined_at`,
			created.ID, p.UserID, p.Fraction,
		).Scan(&joined.GameID, &joined.UserID, &joined.Fraction, &joined.JoinedAt)
		if err != nil {
			return nil, fmt.Errorf("create game: add player %s: %w", p.UserID, err)
		}
		joined.DisplayName = p.DisplayName
		created.Players = append(created.Players, joined)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("create game: commit: %w", err)
	}
	return created, nil
}

// FindByID returns a game with its players.
func (r *GameRepo) FindByID(ctx context.Context, id string) (*model.Game, error) {
	g, err := scanGame(r.db.QueryRowContext(ctx,
		`SELECT `+gameColumns+` FROM games g WHERE g.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find game: %w", err)
	}
	if g.Players, err = r.ListPlayers(ctx, id); err != nil {
		return nil, err
	}
	return g, nil
}

func (r *GameRepo) ListByUser(ctx context.Context, userID, status string) ([]model.Game, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+gameColumns+`
		 FROM games g JOIN game_players gp ON g.id = gp.game_id
		 WHERE gp.user_id = $1 AND ($2 = '' OR g.status = $2)
		 ORDER BY g.updated_at DESC LIMIT 100`, userID, status)
	if err != nil {
		return nil, fmt.Errorf("list user games: %w", err)
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, *g)
	}
	return games, rows.Err()
}

// ListPlayers returns the players of a game by fraction.
func (r *GameRepo) ListPlayers(ctx context.Context, gameID string) ([]model.GamePlayer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT gp.game_id, gp.user_id, gp.fraction, u.display_name, gp.joined_at
		 FROM game_players gp JOIN users u ON u.id = gp.user_id
		 WHERE gp.game_id = $1 ORDER BY gp.fraction`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []model.GamePlayer
	for rows.Next() {
		var p model.GamePlayer
		if err := rows.Scan(&p.GameID, &p.UserID, &p.Fraction, &p.DisplayName, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// AdvanceTurn hands the game to nextUserID and returns the new turn number.
func (r *GameRepo) AdvanceTurn(ctx context.Context, gameID, nextUserID string) (int, error) {
	var turn int
	err := r.db.QueryRowContext(ctx,
		`UPDATE games SET turn = turn + 1, current_user_id = $2, updated_at = now()
		 WHERE id = $1 AND status = 'active'
		 RETURNING turn`, gameID, nextUserID,
	).Scan(&turn)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("advance turn %s: game not active", gameID)
	}
	if err != nil {
		return 0, fmt.Errorf("advance turn: %w", err)
	}
	return turn, nil
}

func (r *GameRepo) SetFinished(ctx context.Context, gameID, winner string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE games SET status = 'finished', winner = $2, current_user_id = NULL,
		        finished_at = now(), updated_at = now()
		 WHERE id = $1`, gameID, nullStr(winner))
	if err != nil {
		return fmt.Errorf("set game finished: %w", err)
	}
	return nil
}

// Delete removes a game; players, states and notifications cascade.
func (r *GameRepo) Delete(ctx context.Context, gameID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE id = $1`, gameID); err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	return nil
}
