package model

import (
	"encoding/json"
	"time"
)

// Game statuses.
const (
	GameActive   = "active"
	GameFinished = "finished"
)

// Notification kinds.
const (
	NotifyNewGame  = "new_game"
	NotifyYourTurn = "your_turn"
	NotifyGameOver = "game_over"
)

// User represents a registered user.
type User struct {
	ID          string    `json:"id"`
	Provider    string    `json:"provider"`
	ProviderID  string    `json:"provider_id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Game is a two-player match on one generated map.
type Game struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	CreatorID     string       `json:"creator_id"`
	Status        string       `json:"status"`
	MapSize       string       `json:"map_size"`
	Turn          int          `json:"turn"`
	CurrentUserID string       `json:"current_user_id,omitempty"`
	Winner        string       `json:"winner,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	FinishedAt    *time.Time   `json:"finished_at,omitempty"`
	Players       []GamePlayer `json:"players,omitempty"`
}

// PlayerFor returns the membership of userID, if any.
func (g *Game) PlayerFor(userID string) (GamePlayer, bool) {
	for _, p := range g.Players {
		if p.UserID == userID {
			return p, true
		}
	}
	return GamePlayer{}, false
}

// PlayerByFraction returns the player controlling fraction, if any.
func (g *Game) PlayerByFraction(fraction int) (GamePlayer, bool) {
	for _, p := range g.Players {
		if p.Fraction == fraction {
			return p, true
		}
	}
	return GamePlayer{}, false
}

// GamePlayer binds a user to the fraction they play.
type GamePlayer struct {
	GameID      string    `json:"game_id"`
	UserID      string    `json:"user_id"`
	Fraction    int       `json:"fraction"`
	DisplayName string    `json:"display_name,omitempty"`
	JoinedAt    time.Time `json:"joined_at"`
}

// GameState is one persisted serialized field, written at every turn end.
type GameState struct {
	ID        string          `json:"id"`
	GameID    string          `json:"game_id"`
	Turn      int             `json:"turn"`
	Fraction  int             `json:"fraction"`
	State     json.RawMessage `json:"state"`
	CreatedBy string          `json:"created_by,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Notification tells a user something happened in one of their games.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	GameID    string    `json:"game_id,omitempty"`
	Kind      string    `json:"kind"`
	Text      string    `json:"text"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
