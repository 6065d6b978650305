package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/hexconquest/internal/model"
	"github.com/freeeve/hexconquest/internal/repository"
	"github.com/freeeve/hexconquest/pkg/hexgame"
)

var (
	ErrGameNotFound  = errors.New("game not found")
	ErrGameNotActive = errors.New("game is not active")
	ErrNotInGame     = errors.New("you are not in this game")
	ErrNotCreator    = errors.New("only the creator can delete the game")
	ErrGameStarted   = errors.New("game already has turns played")
	ErrSameOpponent  = errors.New("cannot challenge yourself")
	ErrUserNotFound  = errors.New("user not found")
	ErrStateNotFound = errors.New("game state not found")
)

// SessionCloser drops any in-memory turn session for a game.
type SessionCloser interface {
	CloseSession(ctx context.Context, gameID string)
}

// GameService handles game lifecycle operations.
type GameService struct {
	gameRepo  repository.GameRepository
	stateRepo repository.StateRepository
	userRepo  repository.UserRepository
	cache     repository.GameCache
	notifier  Notifier
	archive   repository.StateArchive // optional: local copy of every state
	sessions  SessionCloser           // optional: set when a TurnService runs in-process

	defaultSize hexgame.MapSize
	now         func() time.Time
}

// NewGameService creates a GameService.
func NewGameService(
	gameRepo repository.GameRepository,
	stateRepo repository.StateRepository,
	userRepo repository.UserRepository,
	cache repository.GameCache,
	notifier Notifier,
) *GameService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &GameService{
		gameRepo:    gameRepo,
		stateRepo:   stateRepo,
		userRepo:    userRepo,
		cache:       cache,
		notifier:    notifier,
		defaultSize: hexgame.MapSmall,
		now:         time.Now,
	}
}

// SetArchive configures the optional local state archive.
func (s *GameService) SetArchive(a repository.StateArchive) {
	s.archive = a
}

// SetSessionCloser lets resign and delete discard a half-played turn.
func (s *GameService) SetSessionCloser(c SessionCloser) {
	s.sessions = c
}

// SetDefaultMapSize sets the size used when CreateGame is given none.
func (s *GameService) SetDefaultMapSize(size hexgame.MapSize) {
	s.defaultSize = size
}

// CreateGame generates a map and starts a two-player game. The creator
// plays fraction 1 and moves first.
func (s *GameService) CreateGame(ctx context.Context, creatorID, opponentID, name, size string) (*model.Game, error) {
	if creatorID == opponentID {
		return nil, ErrSameOpponent
	}
	creator, err := s.userRepo.FindByID(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("find creator: %w", err)
	}
	opponent, err := s.userRepo.FindByID(ctx, opponentID)
	if err != nil {
		return nil, fmt.Errorf("find opponent: %w", err)
	}
	if creator == nil || opponent == nil {
		return nil, ErrUserNotFound
	}

	mapSize := s.defaultSize
	if size != "" {
		if mapSize, err = hexgame.ParseMapSize(size); err != nil {
			return nil, err
		}
	}

	now := s.now()
	seed := now.UnixNano()
	data := hexgame.GenerateMap(hexgame.MapConfig{Size: mapSize, Seed: seed, Fractions: 2})
	if name == "" {
		name = hexgame.GenerateGameName(now, hexgame.NewSplitMix32(uint32(seed)))
	}

	players := []model.GamePlayer{
		{UserID: creatorID, Fraction: 1, DisplayName: creator.DisplayName},
		{UserID: opponentID, Fraction: 2, DisplayName: opponent.DisplayName},
	}
	game, err := s.gameRepo.Create(ctx, &model.Game{
		Name:          name,
		CreatorID:     creatorID,
		Status:        model.GameActive,
		MapSize:       mapSize.String(),
		CurrentUserID: creatorID,
	}, players)
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	for i := range players {
		players[i].GameID = game.ID
	}
	game.Players = players

	raw, err := hexgame.EncodeGame(data.ToSerializedGame(uuid.NewString(), []string{creatorID, opponentID}))
	if err != nil {
		return nil, err
	}
	st, err := s.stateRepo.Save(ctx, &model.GameState{
		GameID:    game.ID,
		Turn:      0,
		Fraction:  1,
		State:     raw,
		CreatedBy: creatorID,
	})
	if err != nil {
		return nil, fmt.Errorf("save initial state: %w", err)
	}
	s.archiveState(ctx, st)
	if _, err := s.cache.SetGameState(ctx, game.ID, raw); err != nil {
		log.Warn().Err(err).Str("gameId", game.ID).Msg("Failed to cache initial state")
	}

	text := fmt.Sprintf("%s challenged you to %s", creator.DisplayName, name)
	if err := s.notifier.Notify(ctx, opponentID, game.ID, model.NotifyNewGame, text); err != nil {
		log.Warn().Err(err).Str("gameId", game.ID).Msg("Failed to notify opponent")
	}
	log.Info().Str("gameId", game.ID).Str("size", mapSize.String()).Int64("seed", seed).Msg("Game created")
	return game, nil
}

// GetGame returns a game with its players.
func (s *GameService) GetGame(ctx context.Context, gameID string) (*model.Game, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	return game, nil
}

// ListPlayers returns the players of a game ordered by fraction.
func (s *GameService) ListPlayers(ctx context.Context, gameID string) ([]model.GamePlayer, error) {
	game, err := s.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return game.Players, nil
}

// ListGames returns games by filter: "my" (default, any status), "active" or "finished".
func (s *GameService) ListGames(ctx context.Context, userID, filter string) ([]model.Game, error) {
	status := ""
	switch filter {
	case "active":
		status = model.GameActive
	case "finished":
		status = model.GameFinished
	}
	games, err := s.gameRepo.ListByUser(ctx, userID, status)
	if err != nil {
		return nil, err
	}
	if games == nil {
		games = []model.Game{}
	}
	return games, nil
}

// GetState returns the latest serialized field and its cache version.
// Redis is tried first; on a miss the durable state is loaded and re-cached.
func (s *GameService) GetState(ctx context.Context, gameID string) (json.RawMessage, int64, error) {
	state, version, err := s.cache.GetGameState(ctx, gameID)
	if err != nil {
		log.Warn().Err(err).Str("gameId", gameID).Msg("State cache read failed, falling back to Postgres")
	} else if state != nil {
		return state, version, nil
	}

	st, err := s.stateRepo.Latest(ctx, gameID)
	if err != nil {
		return nil, 0, fmt.Errorf("latest state: %w", err)
	}
	if st == nil {
		return nil, 0, ErrStateNotFound
	}
	version, err = s.cache.SetGameState(ctx, gameID, st.State)
	if err != nil {
		log.Warn().Err(err).Str("gameId", gameID).Msg("Failed to re-cache state")
		version = 0
	}
	return st.State, version, nil
}

// StateVersion returns the cache version clients poll to detect changes.
func (s *GameService) StateVersion(ctx context.Context, gameID string) (int64, error) {
	return s.cache.StateVersion(ctx, gameID)
}

// History returns every persisted turn state of a game in order.
func (s *GameService) History(ctx context.Context, gameID string) ([]model.GameState, error) {
	if _, err := s.GetGame(ctx, gameID); err != nil {
		return nil, err
	}
	states, err := s.stateRepo.List(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("list states: %w", err)
	}
	return states, nil
}

// Resign ends an active game in favour of the other player.
func (s *GameService) Resign(ctx context.Context, gameID, userID string) (*model.Game, error) {
	game, err := s.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.Status != model.GameActive {
		return nil, ErrGameNotActive
	}
	if _, ok := game.PlayerFor(userID); !ok {
		return nil, ErrNotInGame
	}

	var winner string
	for _, p := range game.Players {
		if p.UserID != userID {
			winner = p.UserID
			break
		}
	}
	if s.sessions != nil {
		s.sessions.CloseSession(ctx, gameID)
	}
	if err := s.gameRepo.SetFinished(ctx, gameID, winner); err != nil {
		return nil, fmt.Errorf("finish game: %w", err)
	}
	if winner != "" {
		if err := s.notifier.Notify(ctx, winner, gameID, model.NotifyGameOver, "Your opponent resigned "+game.Name); err != nil {
			log.Warn().Err(err).Str("gameId", gameID).Msg("Failed to notify winner")
		}
	}
	log.Info().Str("gameId", gameID).Str("userId", userID).Msg("Player resigned")
	return s.GetGame(ctx, gameID)
}

// DeleteGame removes a game nobody has moved in yet. Only the creator may.
func (s *GameService) DeleteGame(ctx context.Context, gameID, userID string) error {
	game, err := s.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game.CreatorID != userID {
		return ErrNotCreator
	}
	if game.Turn > 0 {
		return ErrGameStarted
	}
	if s.sessions != nil {
		s.sessions.CloseSession(ctx, gameID)
	}
	if err := s.gameRepo.Delete(ctx, gameID); err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	if err := s.cache.DeleteGameData(ctx, gameID); err != nil {
		log.Warn().Err(err).Str("gameId", gameID).Msg("Failed to clear cached game data")
	}
	return nil
}

func (s *GameService) archiveState(ctx context.Context, st *model.GameState) {
	if s.archive == nil || st == nil {
		return
	}
	if err := s.archive.Append(ctx, *st); err != nil {
		log.Warn().Err(err).Str("gameId", st.GameID).Int("turn", st.Turn).Msg("Failed to archive state")
	}
}
