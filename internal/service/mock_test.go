package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/freeeve/hexconquest/internal/model"
)

type mockGameRepo struct {
	mu         sync.Mutex
	games      map[string]*model.Game
	players    map[string][]model.GamePlayer
	advanceErr error
}

func newMockGameRepo() *mockGameRepo {
	return &mockGameRepo{
		games:   make(map[string]*model.Game),
		players: make(map[string][]model.GamePlayer),
	}
}

func (m *mockGameRepo) Create(_ context.Context, g *model.Game, players []model.GamePlayer) (*model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *g
	cp.ID = fmt.Sprintf("game-%d", len(m.games)+1)
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.games[cp.ID] = &cp
	for _, p := range players {
		p.GameID = cp.ID
		m.players[cp.ID] = append(m.players[cp.ID], p)
	}
	out := cp
	return &out, nil
}

func (m *mockGameRepo) FindByID(_ context.Context, id string) (*model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	cp.Players = append([]model.GamePlayer(nil), m.players[id]...)
	return &cp, nil
}

func (m *mockGameRepo) ListByUser(_ context.Context, userID, status string) ([]model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Game
	for id, players := range m.players {
		for _, p := range players {
			g := m.games[id]
			if p.UserID == userID && (status == "" || g.Status == status) {
				result = append(result, *g)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockGameRepo) ListPlayers(_ context.Context, gameID string) ([]model.GamePlayer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.GamePlayer(nil), m.players[gameID]...), nil
}

func (m *mockGameRepo) AdvanceTurn(_ context.Context, gameID, nextUserID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.advanceErr != nil {
		return 0, m.advanceErr
	}
	g, ok := m.games[gameID]
	if !ok || g.Status != model.GameActive {
		return 0, errors.New("game not active")
	}
	g.Turn++
	g.CurrentUserID = nextUserID
	return g.Turn, nil
}

func (m *mockGameRepo) SetFinished(_ context.Context, gameID, winner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return errors.New("game not found")
	}
	now := time.Now()
	g.Status = model.GameFinished
	g.Winner = winner
	g.CurrentUserID = ""
	g.FinishedAt = &now
	return nil
}

func (m *mockGameRepo) Delete(_ context.Context, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.games, gameID)
	delete(m.players, gameID)
	return nil
}

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo(names ...string) *mockUserRepo {
	m := &mockUserRepo{users: make(map[string]*model.User)}
	for _, n := range names {
		m.users[n] = &model.User{ID: n, Provider: "dev", ProviderID: n, DisplayName: "Player " + n}
	}
	return m
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) FindByProviderID(_ context.Context, provider, providerID string) (*model.User, error) {
	for _, u := range m.users {
		if u.Provider == provider && u.ProviderID == providerID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) Upsert(_ context.Context, provider, providerID, displayName, avatarURL string) (*model.User, error) {
	id := provider + "-" + providerID
	u := &model.User{ID: id, Provider: provider, ProviderID: providerID, DisplayName: displayName, AvatarURL: avatarURL}
	m.users[id] = u
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) UpdateDisplayName(_ context.Context, id, displayName string) error {
	if u, ok := m.users[id]; ok {
		u.DisplayName = displayName
	}
	return nil
}

func (m *mockUserRepo) List(_ context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type mockStateRepo struct {
	mu      sync.Mutex
	states  map[string][]model.GameState
	saveErr error
	saves   int
}

func newMockStateRepo() *mockStateRepo {
	return &mockStateRepo{states: make(map[string][]model.GameState)}
}

func (m *mockStateRepo) Save(_ context.Context, s *model.GameState) (*model.GameState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	for _, existing := range m.states[s.GameID] {
		if existing.Turn == s.Turn {
			return nil, fmt.Errorf("duplicate turn %d", s.Turn)
		}
	}
	cp := *s
	cp.ID = fmt.Sprintf("state-%s-%d", s.GameID, s.Turn)
	cp.CreatedAt = time.Now()
	m.states[s.GameID] = append(m.states[s.GameID], cp)
	out := cp
	return &out, nil
}

func (m *mockStateRepo) Latest(_ context.Context, gameID string) (*model.GameState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ss := m.states[gameID]
	if len(ss) == 0 {
		return nil, nil
	}
	cp := ss[len(ss)-1]
	return &cp, nil
}

func (m *mockStateRepo) List(_ context.Context, gameID string) ([]model.GameState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.GameState(nil), m.states[gameID]...), nil
}

type mockNotificationRepo struct {
	mu    sync.Mutex
	items []model.Notification
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) Create(_ context.Context, userID, gameID, kind, text string) (*model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := model.Notification{
		ID:        fmt.Sprintf("n-%d", len(m.items)+1),
		UserID:    userID,
		GameID:    gameID,
		Kind:      kind,
		Text:      text,
		CreatedAt: time.Now(),
	}
	m.items = append(m.items, n)
	return &n, nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool) ([]model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Notification
	for i := len(m.items) - 1; i >= 0; i-- {
		n := m.items[i]
		if n.UserID == userID && (!unreadOnly || !n.Read) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, userID string, ids []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var n int64
	for i := range m.items {
		if m.items[i].UserID == userID && want[m.items[i].ID] && !m.items[i].Read {
			m.items[i].Read = true
			n++
		}
	}
	return n, nil
}

func (m *mockNotificationRepo) kinds(userID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, n := range m.items {
		if n.UserID == userID {
			out = append(out, n.Kind)
		}
	}
	return out
}

type mockCache struct {
	mu       sync.Mutex
	states   map[string]json.RawMessage
	versions map[string]int64
	owners   map[string]string
	getErr   error
}

func newMockCache() *mockCache {
	return &mockCache{
		states:   make(map[string]json.RawMessage),
		versions: make(map[string]int64),
		owners:   make(map[string]string),
	}
}

func (m *mockCache) SetGameState(_ context.Context, gameID string, state json.RawMessage) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[gameID] = state
	m.versions[gameID]++
	return m.versions[gameID], nil
}

func (m *mockCache) GetGameState(_ context.Context, gameID string) (json.RawMessage, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, 0, m.getErr
	}
	return m.states[gameID], m.versions[gameID], nil
}

func (m *mockCache) StateVersion(_ context.Context, gameID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.versions[gameID], nil
}

func (m *mockCache) AcquireSession(_ context.Context, gameID, owner string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.owners[gameID]; ok && cur != owner {
		return false, nil
	}
	m.owners[gameID] = owner
	return true, nil
}

func (m *mockCache) ReleaseSession(_ context.Context, gameID, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owners[gameID] == owner {
		delete(m.owners, gameID)
	}
	return nil
}

func (m *mockCache) DeleteGameData(_ context.Context, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, gameID)
	delete(m.versions, gameID)
	delete(m.owners, gameID)
	return nil
}

func (m *mockCache) owner(gameID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.owners[gameID]
}

type mockArchive struct {
	mu     sync.Mutex
	states []model.GameState
}

func (m *mockArchive) Append(_ context.Context, s model.GameState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = append(m.states, s)
	return nil
}
