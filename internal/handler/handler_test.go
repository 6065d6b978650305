package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/freeeve/hexconquest/internal/auth"
	"github.com/freeeve/hexconquest/internal/model"
	"github.com/freeeve/hexconquest/internal/service"
)

// --- Mock Repositories ---

type mockUserRepo struct {
	users map[string]*model.User
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) add(id, name string) {
	m.users[id] = &model.User{ID: id, Provider: "dev", ProviderID: id, DisplayName: name}
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (m *mockUserRepo) FindByProviderID(_ context.Context, provider, providerID string) (*model.User, error) {
	for _, u := range m.users {
		if u.Provider == provider && u.ProviderID == providerID {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) Upsert(_ context.Context, provider, providerID, displayName, avatarURL string) (*model.User, error) {
	for _, u := range m.users {
		if u.Provider == provider && u.ProviderID == providerID {
			u.DisplayName = displayName
			return u, nil
		}
	}
	m.seq++
	u := &model.User{
		ID:          fmt.Sprintf("user-%d", m.seq),
		Provider:    provider,
		ProviderID:  providerID,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *mockUserRepo) UpdateDisplayName(_ context.Context, id, displayName string) error {
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user not found")
	}
	u.DisplayName = displayName
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

type mockGameRepo struct {
	games   map[string]*model.Game
	players map[string][]model.GamePlayer
}

func newMockGameRepo() *mockGameRepo {
	return &mockGameRepo{
		games:   make(map[string]*model.Game),
		players: make(map[string][]model.GamePlayer),
	}
}

func (m *mockGameRepo) Create(_ context.Context, g *model.Game, players []model.GamePlayer) (*model.Game, error) {
	cp := *g
	cp.ID = fmt.Sprintf("game-%d", len(m.games)+1)
	cp.CreatedAt = time.Now()
	m.games[cp.ID] = &cp
	for _, p := range players {
		p.GameID = cp.ID
		m.players[cp.ID] = append(m.players[cp.ID], p)
	}
	out := cp
	return &out, nil
}

func (m *mockGameRepo) FindByID(_ context.Context, id string) (*model.Game, error) {
	g, ok := m.games[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	cp.Players = m.players[id]
	return &cp, nil
}

func (m *mockGameRepo) ListByUser(_ context.Context, userID, status string) ([]model.Game, error) {
	var result []model.Game
	for gameID, players := range m.players {
		for _, p := range players {
			if g := m.games[gameID]; p.UserID == userID && (status == "" || g.Status == status) {
				result = append(result, *g)
			}
		}
	}
	return result, nil
}

func (m *mockGameRepo) ListPlayers(_ context.Context, gameID string) ([]model.GamePlayer, error) {
	return m.players[gameID], nil
}

func (m *mockGameRepo) AdvanceTurn(_ context.Context, gameID, nextUserID string) (int, error) {
	g := m.games[gameID]
	g.Turn++
	g.CurrentUserID = nextUserID
	return g.Turn, nil
}

func (m *mockGameRepo) SetFinished(_ context.Context, gameID, winner string) error {
	g := m.games[gameID]
	g.Status = model.GameFinished
	g.Winner = winner
	return nil
}

func (m *mockGameRepo) Delete(_ context.Context, gameID string) error {
	delete(m.games, gameID)
	delete(m.players, gameID)
	return nil
}

type mockStateRepo struct {
	states map[string][]model.GameState
}

func newMockStateRepo() *mockStateRepo {
	return &mockStateRepo{states: make(map[string][]model.GameState)}
}

func (m *mockStateRepo) Save(_ context.Context, s *model.GameState) (*model.GameState, error) {
	cp := *s
	cp.ID = fmt.Sprintf("%s-%d", s.GameID, s.Turn)
	m.states[s.GameID] = append(m.states[s.GameID], cp)
	return &cp, nil
}

func (m *mockStateRepo) Latest(_ context.Context, gameID string) (*model.GameState, error) {
	ss := m.states[gameID]
	if len(ss) == 0 {
		return nil, nil
	}
	cp := ss[len(ss)-1]
	return &cp, nil
}

func (m *mockStateRepo) List(_ context.Context, gameID string) ([]model.GameState, error) {
	return m.states[gameID], nil
}

type mockNotificationRepo struct {
	items []model.Notification
}

func (m *mockNotificationRepo) Create(_ context.Context, userID, gameID, kind, text string) (*model.Notification, error) {
	n := model.Notification{ID: fmt.Sprintf("n-%d", len(m.items)+1), UserID: userID, GameID: gameID, Kind: kind, Text: text}
	m.items = append(m.items, n)
	return &n, nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool) ([]model.Notification, error) {
	var out []model.Notification
	for _, n := range m.items {
		if n.UserID == userID && (!unreadOnly || !n.Read) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, userID string, ids []string) (int64, error) {
	var count int64
	for i := range m.items {
		for _, id := range ids {
			if m.items[i].ID == id && m.items[i].UserID == userID && !m.items[i].Read {
				m.items[i].Read = true
				count++
			}
		}
	}
	return count, nil
}

type mockCache struct {
	mu       sync.Mutex
	states   map[string]json.RawMessage
	versions map[string]int64
}

func newMockCache() *mockCache {
	return &mockCache{states: make(map[string]json.RawMessage), versions: make(map[string]int64)}
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
	return m.states[gameID], m.versions[gameID], nil
}

func (m *mockCache) StateVersion(_ context.Context, gameID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.versions[gameID], nil
}

func (m *mockCache) AcquireSession(context.Context, string, string, time.Duration) (bool, error) {
	return true, nil
}

func (m *mockCache) ReleaseSession(context.Context, string, string) error { return nil }

func (m *mockCache) DeleteGameData(_ context.Context, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, gameID)
	delete(m.versions, gameID)
	return nil
}

// --- Helpers ---

func reqWithUserID(method, path string, body string, userID string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	ctx := auth.WithUserID(req.Context(), userID)
	return req.WithContext(ctx)
}

type apiEnv struct {
	users *mockUserRepo
	games *mockGameRepo
	notes *mockNotificationRepo
	cache *mockCache
	mux   *http.ServeMux
}

func newAPIEnv() *apiEnv {
	e := &apiEnv{
		users: newMockUserRepo(),
		games: newMockGameRepo(),
		notes: &mockNotificationRepo{},
		cache: newMockCache(),
	}
	e.users.add("alice", "Alice")
	e.users.add("bob", "Bob")
	states := newMockStateRepo()
	noteSvc := service.NewNotificationService(e.notes)
	gameSvc := service.NewGameService(e.games, states, e.users, e.cache, noteSvc)
	turnSvc := service.NewTurnService(e.games, states, e.cache, noteSvc, time.Minute)
	gameSvc.SetSessionCloser(turnSvc)
	e.mux = APIRoutes(
		NewUserHandler(e.users),
		NewGameHandler(gameSvc),
		NewTurnHandler(turnSvc),
		NewNotificationHandler(noteSvc),
	)
	return e
}

func (e *apiEnv) do(method, path, body, userID string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, reqWithUserID(method, path, body, userID))
	return rec
}

func (e *apiEnv) createGame(t *testing.T) model.Game {
	t.Helper()
	rec := e.do(http.MethodPost, "/games", `{"opponent_id":"bob","name":"Duel"}`, "alice")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create game: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var game model.Game
	if err := json.Unmarshal(rec.Body.Bytes(), &game); err != nil {
		t.Fatalf("decode game: %v", err)
	}
	return game
}

// --- User Handler Tests ---

func TestGetMe(t *testing.T) {
	repo := newMockUserRepo()
	repo.add("user-1", "Alice")
	h := NewUserHandler(repo)

	req := reqWithUserID(http.MethodGet, "/users/me", "", "user-1")
	rec := httptest.NewRecorder()
	h.GetMe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var user model.User
	json.Unmarshal(rec.Body.Bytes(), &user)
	if user.DisplayName != "Alice" {
		t.Errorf("expected Alice, got %s", user.DisplayName)
	}
}

func TestGetMeNotFound(t *testing.T) {
	h := NewUserHandler(newMockUserRepo())

	req := reqWithUserID(http.MethodGet, "/users/me", "", "nonexistent")
	rec := httptest.NewRecorder()
	h.GetMe(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestUpdateMe(t *testing.T) {
	repo := newMockUserRepo()
	repo.add("user-1", "Alice")
	h := NewUserHandler(repo)

	req := reqWithUserID(http.MethodPatch, "/users/me", `{"display_name":"  Bob "}`, "user-1")
	rec := httptest.NewRecorder()
	h.UpdateMe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var user model.User
	json.Unmarshal(rec.Body.Bytes(), &user)
	if user.DisplayName != "Bob" {
		t.Errorf("expected Bob, got %q", user.DisplayName)
	}
}

func TestUpdateMeRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty name", `{"display_name":""}`},
		{"blank name", `{"display_name":"   "}`},
		{"too long", `{"display_name":"` + strings.Repeat("x", maxDisplayName+1) + `"}`},
		{"invalid json", "not json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockUserRepo()
			repo.add("user-1", "Alice")
			h := NewUserHandler(repo)

			rec := httptest.NewRecorder()
			h.UpdateMe(rec, reqWithUserID(http.MethodPatch, "/users/me", tt.body, "user-1"))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestListUsers(t *testing.T) {
	e := newAPIEnv()
	rec := e.do(http.MethodGet, "/users", "", "alice")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var users []model.User
	json.Unmarshal(rec.Body.Bytes(), &users)
	if len(users) != 2 {
		t.Errorf("expected 2 users, got %d", len(users))
	}
}

// --- Game Handler Tests ---

func TestCreateGame(t *testing.T) {
	e := newAPIEnv()
	game := e.createGame(t)
	if game.Name != "Duel" || game.CurrentUserID != "alice" || len(game.Players) != 2 {
		t.Errorf("unexpected game: %+v", game)
	}
}

func TestCreateGameRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing opponent", `{"name":"x"}`, http.StatusBadRequest},
		{"self", `{"opponent_id":"alice"}`, http.StatusBadRequest},
		{"unknown opponent", `{"opponent_id":"carol"}`, http.StatusNotFound},
		{"bad size", `{"opponent_id":"bob","map_size":"huge"}`, http.StatusBadRequest},
		{"invalid json", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newAPIEnv()
			rec := e.do(http.MethodPost, "/games", tt.body, "alice")
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestListGamesEmpty(t *testing.T) {
	e := newAPIEnv()
	rec := e.do(http.MethodGet, "/games?filter=active", "", "alice")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("expected [], got %s", body)
	}
}

func TestGetGameNotFound(t *testing.T) {
	e := newAPIEnv()
	rec := e.do(http.MethodGet, "/games/nonexistent", "", "alice")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestGetStateETag(t *testing.T) {
	e := newAPIEnv()
	game := e.createGame(t)
	path := "/games/" + game.ID + "/state"

	rec := e.do(http.MethodGet, path, "", "bob")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	tag := rec.Header().Get("ETag")
	if tag != `"1"` {
		t.Fatalf("expected ETag \"1\", got %q", tag)
	}
	var sg struct {
		FWidth         int `json:"fWidth"`
		ActiveFraction int `json:"activeFraction"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sg); err != nil || sg.FWidth == 0 || sg.ActiveFraction != 1 {
		t.Errorf("unexpected state body: %+v (%v)", sg, err)
	}

	req := reqWithUserID(http.MethodGet, path, "", "bob")
	req.Header.Set("If-None-Match", tag)
	rec = httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotModified {
		t.Errorf("expected 304, got %d", rec.Code)
	}

	rec = e.do(http.MethodGet, "/games/"+game.ID+"/version", "", "bob")
	if !strings.Contains(rec.Body.String(), `"version":1`) {
		t.Errorf("unexpected version body %s", rec.Body.String())
	}
}

func TestClicksAndTurnOrder(t *testing.T) {
	e := newAPIEnv()
	game := e.createGame(t)
	path := "/games/" + game.ID + "/clicks"

	rec := e.do(http.MethodPost, path, `{"kind":"end_turn"}`, "bob")
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for out-of-turn click, got %d", rec.Code)
	}
	rec = e.do(http.MethodPost, path, `{"kind":"teleport"}`, "alice")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown kind, got %d", rec.Code)
	}
	rec = e.do(http.MethodPost, path, `{"kind":"hex","col":0,"row":0}`, "alice")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = e.do(http.MethodPost, path, `{"kind":"end_turn"}`, "alice")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var view service.TurnView
	json.Unmarshal(rec.Body.Bytes(), &view)
	if !view.TurnEnded {
		t.Errorf("expected turn ended, got %+v", view)
	}

	rec = e.do(http.MethodGet, "/games/"+game.ID, "", "alice")
	var got model.Game
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Turn != 1 || got.CurrentUserID != "bob" {
		t.Errorf("expected bob to move on turn 1, got %d/%s", got.Turn, got.CurrentUserID)
	}

	rec = e.do(http.MethodGet, "/games/"+game.ID+"/history", "", "alice")
	var history []model.GameState
	json.Unmarshal(rec.Body.Bytes(), &history)
	if len(history) != 2 {
		t.Errorf("expected 2 states, got %d", len(history))
	}
}

func TestResignAndDelete(t *testing.T) {
	e := newAPIEnv()
	game := e.createGame(t)

	if rec := e.do(http.MethodDelete, "/games/"+game.ID, "", "bob"); rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 deleting another's game, got %d", rec.Code)
	}
	if rec := e.do(http.MethodPost, "/games/"+game.ID+"/resign", "", "carol"); rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for outsider resign, got %d", rec.Code)
	}
	rec := e.do(http.MethodPost, "/games/"+game.ID+"/resign", "", "bob")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got model.Game
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Status != model.GameFinished || got.Winner != "alice" {
		t.Errorf("expected alice to win, got %s/%s", got.Status, got.Winner)
	}

	if rec := e.do(http.MethodDelete, "/games/"+game.ID, "", "alice"); rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if rec := e.do(http.MethodGet, "/games/"+game.ID+"/players", "", "alice"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
}

// --- Notification Handler Tests ---

func TestNotifications(t *testing.T) {
	e := newAPIEnv()
	e.createGame(t)

	rec := e.do(http.MethodGet, "/notifications?unread=true", "", "bob")
	var ns []model.Notification
	json.Unmarshal(rec.Body.Bytes(), &ns)
	if len(ns) != 1 || ns[0].Kind != model.NotifyNewGame {
		t.Fatalf("expected one new_game notification, got %+v", ns)
	}

	rec = e.do(http.MethodPost, "/notifications/read", `{"ids":["`+ns[0].ID+`"]}`, "bob")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"updated":1`) {
		t.Errorf("unexpected mark read response %d %s", rec.Code, rec.Body.String())
	}
	rec = e.do(http.MethodGet, "/notifications?unread=true", "", "bob")
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("expected no unread notifications, got %s", body)
	}

	if rec := e.do(http.MethodPost, "/notifications/read", `{"ids":[]}`, "bob"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty ids, got %d", rec.Code)
	}
}

// --- Auth Handler Tests ---

func TestRefreshTokenValid(t *testing.T) {
	jwtMgr := auth.NewJWTManager("test-secret")
	repo := newMockUserRepo()
	repo.add("user-1", "Alice")
	h := NewAuthHandler(nil, jwtMgr, repo, false)

	refresh, _ := jwtMgr.GenerateRefreshToken("user-1")
	body := fmt.Sprintf(`{"refresh_token":"%s"}`, refresh)
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.RefreshToken(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var tokens auth.TokenPair
	json.Unmarshal(rec.Body.Bytes(), &tokens)
	if tokens.AccessToken == "" {
		t.Error("expected non-empty access token")
	}
}

func TestRefreshTokenRejects(t *testing.T) {
	jwtMgr := auth.NewJWTManager("test-secret")
	access, _ := jwtMgr.GenerateAccessToken("user-1")
	orphan, _ := jwtMgr.GenerateRefreshToken("ghost")

	tests := []struct {
		name string
		body string
		want int
	}{
		{"garbage", `{"refresh_token":"invalid"}`, http.StatusUnauthorized},
		{"access token", `{"refresh_token":"` + access + `"}`, http.StatusUnauthorized},
		{"deleted user", `{"refresh_token":"` + orphan + `"}`, http.StatusUnauthorized},
		{"bad body", "not json", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockUserRepo()
			repo.add("user-1", "Alice")
			h := NewAuthHandler(nil, jwtMgr, repo, false)

			rec := httptest.NewRecorder()
			h.RefreshToken(rec, httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(tt.body)))
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestDevLogin(t *testing.T) {
	jwtMgr := auth.NewJWTManager("test-secret")
	repo := newMockUserRepo()

	rec := httptest.NewRecorder()
	NewAuthHandler(nil, jwtMgr, repo, false).DevLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/dev?name=Zed", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 outside dev mode, got %d", rec.Code)
	}

	h := NewAuthHandler(nil, jwtMgr, repo, true)
	rec = httptest.NewRecorder()
	h.DevLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/dev?name=Zed", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	u, _ := repo.FindByProviderID(context.Background(), "dev", "dev-zed")
	if u == nil || u.DisplayName != "Zed" {
		t.Errorf("expected dev user Zed, got %+v", u)
	}

	rec = httptest.NewRecorder()
	h.DevLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/dev", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without name, got %d", rec.Code)
	}
}

func TestGoogleLoginUnconfigured(t *testing.T) {
	h := NewAuthHandler(auth.NewGoogleOAuth("", "", ""), auth.NewJWTManager("s"), newMockUserRepo(), false)
	rec := httptest.NewRecorder()
	h.GoogleLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/google/login", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestGoogleLoginRedirects(t *testing.T) {
	h := NewAuthHandler(auth.NewGoogleOAuth("id", "secret", "http://localhost/cb"), auth.NewJWTManager("s"), newMockUserRepo(), true)
	rec := httptest.NewRecorder()
	h.GoogleLogin(rec, httptest.NewRequest(http.MethodGet, "/auth/google/login", nil))
	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected 307, got %d", rec.Code)
	}
	if len(rec.Result().Cookies()) != 1 {
		t.Error("expected a state cookie")
	}

	rec = httptest.NewRecorder()
	h.GoogleCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=x&state=forged", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for forged state, got %d", rec.Code)
	}
}
