package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/freeeve/hexconquest/internal/model"
)

// UserRepository defines user data operations.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByProviderID(ctx context.Context, provider, providerID string) (*model.User, error)
	Upsert(ctx context.Context, provider, providerID, displayName, avatarURL string) (*model.User, error)
	UpdateDisplayName(ctx context.Context, id, displayName string) error
	List(ctx context.Context) ([]model.User, error)
}

// GameRepository defines game and player data operations. Lookups return
// nil, nil when nothing matches.
type GameRepository interface {
	Create(ctx context.Context, g *model.Game, players []model.GamePlayer) (*model.Game, error)
	FindByID(ctx context.Context, id string) (*model.Game, error)
	// ListByUser returns the user's games; an empty status means any.
	ListByUser(ctx context.Context, userID, status string) ([]model.Game, error)
	ListPlayers(ctx context.Context, gameID string) ([]model.GamePlayer, error)
	AdvanceTurn(ctx context.Context, gameID, nextUserID string) (int, error)
	SetFinished(ctx context.Context, gameID, winner string) error
	Delete(ctx context.Context, gameID string) error
}

// StateRepository keeps the durable history of serialized fields.
type StateRepository interface {
	Save(ctx context.Context, s *model.GameState) (*model.GameState, error)
	Latest(ctx context.Context, gameID string) (*model.GameState, error)
	List(ctx context.Context, gameID string) ([]model.GameState, error)
}

// NotificationRepository defines notification data operations.
type NotificationRepository interface {
	Create(ctx context.Context, userID, gameID, kind, text string) (*model.Notification, error)
	ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]model.Notification, error)
	MarkRead(ctx context.Context, userID string, ids []string) (int64, error)
}

// GameCache holds the live serialized field of each game and guards the
// in-memory turn sessions (Redis).
type GameCache interface {
	// SetGameState stores state and bumps the game's version counter,
	// which it returns.
	SetGameState(ctx context.Context, gameID string, state json.RawMessage) (int64, error)
	// GetGameState returns nil state when nothing is cached.
	GetGameState(ctx context.Context, gameID string) (json.RawMessage, int64, error)
	StateVersion(ctx context.Context, gameID string) (int64, error)
	AcquireSession(ctx context.Context, gameID, owner string, ttl time.Duration) (bool, error)
	ReleaseSession(ctx context.Context, gameID, owner string) error
	DeleteGameData(ctx context.Context, gameID string) error
}

// StateArchive is an append-only local copy of every persisted state.
type StateArchive interface {
	Append(ctx context.Context, s model.GameState) error
}
