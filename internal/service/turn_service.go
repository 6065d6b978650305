package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/hexconquest/internal/logger"
	"github.com/freeeve/hexconquest/internal/model"
	"github.com/freeeve/hexconquest/internal/repository"
	"github.com/freeeve/hexconquest/pkg/hexgame"
)

var (
	ErrNotYourTurn   = errors.New("it is not your turn")
	ErrGameBusy      = errors.New("game is being played on another server")
	ErrStateMismatch = errors.New("stored state does not match the game turn")
)

// session is the live field of the player whose turn it is. The undo
// history only exists here, so a session lives until the turn ends or it
// goes idle.
type session struct {
	fm       *hexgame.FieldManager
	userID   string
	fraction int
	turn     int
	lastUsed time.Time

	ended  bool // serialization hook fired
	winner int  // fraction reported by the win hook
	saved  *model.GameState
}

// TurnView is what a client needs to draw after a click.
type TurnView struct {
	GameID      string          `json:"game_id"`
	Consumed    bool            `json:"consumed"`
	State       string          `json:"state"`
	Fraction    int             `json:"fraction"`
	TurnEnded   bool            `json:"turn_ended"`
	Winner      string          `json:"winner,omitempty"`
	CanUndo     bool            `json:"can_undo"`
	Selected    *hexgame.Coord  `json:"selected,omitempty"`
	Highlighted []hexgame.Coord `json:"highlighted"`
	Overlay     *OverlayView    `json:"overlay,omitempty"`
	Version     int64           `json:"version"`
	Field       json.RawMessage `json:"field"`
}

// OverlayView summarises the economy of the selected province.
type OverlayView struct {
	Province     int    `json:"province"`
	Hexes        int    `json:"hexes"`
	Balance      int    `json:"balance"`
	Income       int    `json:"income"`
	NextFarmCost int    `json:"next_farm_cost"`
	Shown        bool   `json:"shown"`
	Unit         string `json:"unit,omitempty"`
	Building     string `json:"building,omitempty"`
}

// TurnService plays clicks against in-memory fields and persists each
// finished turn.
type TurnService struct {
	gameRepo  repository.GameRepository
	stateRepo repository.StateRepository
	cache     repository.GameCache
	notifier  Notifier
	archive   repository.StateArchive // optional

	owner    string
	leaseTTL time.Duration
	now      func() time.Time
	opts     []hexgame.Option

	mu       sync.Mutex
	sessions map[string]*session

	// gameLocks serializes clicks, turn ends and eviction per game.
	gameLocks sync.Map
}

// NewTurnService creates a TurnService. leaseTTL bounds how long this
// instance owns a game after its last click.
func NewTurnService(
	gameRepo repository.GameRepository,
	stateRepo repository.StateRepository,
	cache repository.GameCache,
	notifier Notifier,
	leaseTTL time.Duration,
) *TurnService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &TurnService{
		gameRepo:  gameRepo,
		stateRepo: stateRepo,
		cache:     cache,
		notifier:  notifier,
		owner:     uuid.NewString(),
		leaseTTL:  leaseTTL,
		now:       time.Now,
		sessions:  make(map[string]*session),
	}
}

// SetArchive configures the optional local state archive.
func (s *TurnService) SetArchive(a repository.StateArchive) {
	s.archive = a
}

// SetFieldOptions adds options to every field the service loads.
func (s *TurnService) SetFieldOptions(opts ...hexgame.Option) {
	s.opts = opts
}

func (s *TurnService) gameLock(gameID string) *sync.Mutex {
	v, _ := s.gameLocks.LoadOrStore(gameID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Click applies one input of the player whose turn it is.
func (s *TurnService) Click(ctx context.Context, gameID, userID string, c hexgame.Click) (*TurnView, error) {
	lock := s.gameLock(gameID)
	lock.Lock()
	defer lock.Unlock()

	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	if game.Status != model.GameActive {
		s.drop(ctx, gameID)
		return nil, ErrGameNotActive
	}
	player, ok := game.PlayerFor(userID)
	if !ok {
		return nil, ErrNotInGame
	}
	if game.CurrentUserID != userID {
		return nil, ErrNotYourTurn
	}

	owned, err := s.cache.AcquireSession(ctx, gameID, s.owner, s.leaseTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire session: %w", err)
	}
	if !owned {
		return nil, ErrGameBusy
	}

	sess, err := s.session(ctx, game, player)
	if err != nil {
		return nil, err
	}
	sess.lastUsed = s.now()

	// A turn whose save failed is retried before any new input.
	consumed := false
	if !sess.fm.TurnEnded() {
		consumed = sess.fm.HandleClick(c)
		sess.fm.Settle()
	}
	if sess.ended {
		return s.finishTurn(ctx, game, sess)
	}

	sg := sess.fm.Serialize()
	sg.ActiveFraction = sess.fraction
	sg.LastModifiedBy = userID
	raw, err := hexgame.EncodeGame(sg)
	if err != nil {
		return nil, err
	}
	version, err := s.cache.SetGameState(ctx, gameID, raw)
	if err != nil {
		log.Warn().Err(err).Str("gameId", gameID).Msg("Failed to cache live state")
	}
	v := s.view(game.ID, sess, raw, version)
	v.Consumed = consumed
	return v, nil
}

// Undo reverts the latest action of the current turn.
func (s *TurnService) Undo(ctx context.Context, gameID, userID string) (*TurnView, error) {
	return s.Click(ctx, gameID, userID, hexgame.Click{Kind: hexgame.ClickUndo})
}

// EndTurn closes the current turn and hands the field to the opponent.
func (s *TurnService) EndTurn(ctx context.Context, gameID, userID string) (*TurnView, error) {
	return s.Click(ctx, gameID, userID, hexgame.Click{Kind: hexgame.ClickEndTurn})
}

// session returns the live field for the current turn, loading the latest
// persisted state when there is none.
func (s *TurnService) session(ctx context.Context, game *model.Game, player model.GamePlayer) (*session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[game.ID]
	s.mu.Unlock()
	if ok && sess.turn == game.Turn && sess.userID == player.UserID {
		return sess, nil
	}

	st, err := s.stateRepo.Latest(ctx, game.ID)
	if err != nil {
		return nil, fmt.Errorf("latest state: %w", err)
	}
	if st == nil {
		return nil, ErrStateNotFound
	}
	if st.Turn != game.Turn || st.Fraction != player.Fraction {
		return nil, fmt.Errorf("state turn %d fraction %d, game turn %d fraction %d: %w",
			st.Turn, st.Fraction, game.Turn, player.Fraction, ErrStateMismatch)
	}
	sg, err := hexgame.DecodeGame(st.State)
	if err != nil {
		return nil, err
	}

	sess = &session{userID: player.UserID, fraction: player.Fraction, turn: game.Turn}
	opts := append([]hexgame.Option{
		hexgame.WithLogger(logger.ForGame(ctx, game.ID)),
		hexgame.WithSerializationHook(func() { sess.ended = true }),
		hexgame.WithWinHook(func(fraction int) { sess.winner = fraction }),
	}, s.opts...)
	if sess.fm, err = hexgame.NewFieldManager(sg, opts...); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[game.ID] = sess
	s.mu.Unlock()
	log.Debug().Str("gameId", game.ID).Int("turn", game.Turn).Int("fraction", player.Fraction).Msg("Turn session loaded")
	return sess, nil
}

// finishTurn persists an ended turn and passes it on. Each step that
// succeeded is remembered so a retry resumes where it failed.
func (s *TurnService) finishTurn(ctx context.Context, game *model.Game, sess *session) (*TurnView, error) {
	if sess.saved == nil {
		sg := sess.fm.Serialize()
		sg.LastModifiedBy = sess.userID
		raw, err := hexgame.EncodeGame(sg)
		if err != nil {
			return nil, err
		}
		st, err := s.stateRepo.Save(ctx, &model.GameState{
			GameID:    game.ID,
			Turn:      game.Turn + 1,
			Fraction:  sg.ActiveFraction,
			State:     raw,
			CreatedBy: sess.userID,
		})
		if err != nil {
			return nil, fmt.Errorf("save state: %w", err)
		}
		sess.saved = st
		if s.archive != nil {
			if err := s.archive.Append(ctx, *st); err != nil {
				log.Warn().Err(err).Str("gameId", game.ID).Int("turn", st.Turn).Msg("Failed to archive state")
			}
		}
	}

	winner := ""
	if sess.winner != 0 {
		if p, ok := game.PlayerByFraction(sess.winner); ok {
			winner = p.UserID
		}
		if err := s.gameRepo.SetFinished(ctx, game.ID, winner); err != nil {
			return nil, fmt.Errorf("finish game: %w", err)
		}
		for _, p := range game.Players {
			if p.UserID == winner {
				continue
			}
			if err := s.notifier.Notify(ctx, p.UserID, game.ID, model.NotifyGameOver, "You lost "+game.Name); err != nil {
				log.Warn().Err(err).Str("gameId", game.ID).Msg("Failed to notify loser")
			}
		}
		log.Info().Str("gameId", game.ID).Str("winner", winner).Int("turn", sess.saved.Turn).Msg("Game won")
	} else {
		next, ok := game.PlayerByFraction(sess.saved.Fraction)
		if !ok {
			return nil, fmt.Errorf("no player for fraction %d: %w", sess.saved.Fraction, ErrStateMismatch)
		}
		if _, err := s.gameRepo.AdvanceTurn(ctx, game.ID, next.UserID); err != nil {
			return nil, fmt.Errorf("advance turn: %w", err)
		}
		if err := s.notifier.Notify(ctx, next.UserID, game.ID, model.NotifyYourTurn, "Your turn in "+game.Name); err != nil {
			log.Warn().Err(err).Str("gameId", game.ID).Msg("Failed to notify next player")
		}
		log.Info().Str("gameId", game.ID).Int("turn", sess.saved.Turn).Str("next", next.UserID).Msg("Turn ended")
	}

	version, err := s.cache.SetGameState(ctx, game.ID, sess.saved.State)
	if err != nil {
		log.Warn().Err(err).Str("gameId", game.ID).Msg("Failed to cache turn state")
	}
	v := s.view(game.ID, sess, sess.saved.State, version)
	v.Consumed = true
	v.Winner = winner
	s.forget(ctx, game.ID)
	return v, nil
}

func (s *TurnService) view(gameID string, sess *session, raw json.RawMessage, version int64) *TurnView {
	fm := sess.fm
	v := &TurnView{
		GameID:      gameID,
		State:       fm.State().String(),
		Fraction:    sess.fraction,
		TurnEnded:   fm.TurnEnded(),
		CanUndo:     !fm.TurnEnded() && fm.History().HasActions(),
		Highlighted: []hexgame.Coord{},
		Version:     version,
		Field:       raw,
	}
	if h := fm.SelectedHex(); h != nil {
		c := h.Coord()
		v.Selected = &c
	}
	for _, h := range fm.HighlightedHexes() {
		v.Highlighted = append(v.Highlighted, h.Coord())
	}
	if o := fm.ActiveOverlay(); o != nil {
		hexes, _ := fm.HexCountOfActiveProvince()
		v.Overlay = &OverlayView{
			Province:     fm.ActiveProvinceIndex(),
			Hexes:        hexes,
			Balance:      o.Balance(),
			Income:       o.Income(),
			NextFarmCost: o.NextFarmCost(),
			Shown:        o.IsShown(),
		}
		if u := o.UnitToBeAdded(); u != hexgame.UnitNone {
			v.Overlay.Unit = u.String()
		}
		if b := o.BuildingToBeAdded(); b != hexgame.ObjNone {
			v.Overlay.Building = b.String()
		}
	}
	return v
}

// CloseSession drops the live field of a game and puts the last persisted
// state back in the cache.
func (s *TurnService) CloseSession(ctx context.Context, gameID string) {
	lock := s.gameLock(gameID)
	lock.Lock()
	defer lock.Unlock()
	s.drop(ctx, gameID)
}

// drop discards an unfinished turn. Callers hold the game lock.
func (s *TurnService) drop(ctx context.Context, gameID string) {
	s.mu.Lock()
	_, ok := s.sessions[gameID]
	s.mu.Unlock()
	if !ok {
		return
	}
	s.forget(ctx, gameID)

	st, err := s.stateRepo.Latest(ctx, gameID)
	if err != nil || st == nil {
		if err := s.cache.DeleteGameData(ctx, gameID); err != nil {
			log.Warn().Err(err).Str("gameId", gameID).Msg("Failed to clear live state")
		}
		return
	}
	if _, err := s.cache.SetGameState(ctx, gameID, st.State); err != nil {
		log.Warn().Err(err).Str("gameId", gameID).Msg("Failed to restore cached state")
	}
}

func (s *TurnService) forget(ctx context.Context, gameID string) {
	s.mu.Lock()
	delete(s.sessions, gameID)
	s.mu.Unlock()
	if err := s.cache.ReleaseSession(ctx, gameID, s.owner); err != nil {
		log.Warn().Err(err).Str("gameId", gameID).Msg("Failed to release session lease")
	}
}

// EvictIdle drops sessions untouched for longer than ttl and returns how
// many went.
func (s *TurnService) EvictIdle(ctx context.Context, ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)
	s.mu.Lock()
	var idle []string
	for id, sess := range s.sessions {
		if sess.lastUsed.Before(cutoff) {
			idle = append(idle, id)
		}
	}
	s.mu.Unlock()

	evicted := 0
	for _, id := range idle {
		lock := s.gameLock(id)
		lock.Lock()
		s.mu.Lock()
		sess, ok := s.sessions[id]
		stillIdle := ok && sess.lastUsed.Before(cutoff)
		s.mu.Unlock()
		if stillIdle {
			s.drop(ctx, id)
			evicted++
			log.Info().Str("gameId", id).Msg("Idle turn session evicted")
		}
		lock.Unlock()
	}
	return evicted
}

// SessionCount returns the number of live turn sessions.
func (s *TurnService) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
