package handler

import (
	"net/http"
	"strconv"

	"github.com/freeeve/hexconquest/internal/auth"
	"github.com/freeeve/hexconquest/internal/service"
)

// GameHandler handles game lifecycle and state endpoints.
type GameHandler struct {
	gameSvc *service.GameService
}

// NewGameHandler creates a GameHandler.
func NewGameHandler(gameSvc *service.GameService) *GameHandler {
	return &GameHandler{gameSvc: gameSvc}
}

// CreateGame handles POST /api/v1/games
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	var req struct {
		OpponentID string `json:"opponent_id"`
		Name       string `json:"name,omitempty"`
		MapSize    string `json:"map_size,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OpponentID == "" {
		writeError(w, http.StatusBadRequest, "opponent_id is required")
		return
	}

	game, err := h.gameSvc.CreateGame(r.Context(), userID, req.OpponentID, req.Name, req.MapSize)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, game)
}

// ListGames handles GET /api/v1/games?filter=my|active|finished
func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	games, err := h.gameSvc.ListGames(r.Context(), userID, r.URL.Query().Get("filter"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// GetGame handles GET /api/v1/games/{id}
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	game, err := h.gameSvc.GetGame(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// DeleteGame handles DELETE /api/v1/games/{id}
func (h *GameHandler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if err := h.gameSvc.DeleteGame(r.Context(), r.PathValue("id"), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Resign handles POST /api/v1/games/{id}/resign
func (h *GameHandler) Resign(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	game, err := h.gameSvc.Resign(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// GetState handles GET /api/v1/games/{id}/state. The ETag is the cache
// version, so pollers can send If-None-Match and get a 304.
func (h *GameHandler) GetState(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	if match := r.Header.Get("If-None-Match"); match != "" {
		if v, err := h.gameSvc.StateVersion(r.Context(), gameID); err == nil && v > 0 && match == etag(v) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	state, version, err := h.gameSvc.GetState(r.Context(), gameID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if version > 0 {
		w.Header().Set("ETag", etag(version))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(state)
}

// GetVersion handles GET /api/v1/games/{id}/version
func (h *GameHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	v, err := h.gameSvc.StateVersion(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"version": v})
}

// ListPlayers handles GET /api/v1/games/{id}/players
func (h *GameHandler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.gameSvc.ListPlayers(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, players)
}

// History handles GET /api/v1/games/{id}/history
func (h *GameHandler) History(w http.ResponseWriter, r *http.Request) {
	states, err := h.gameSvc.History(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, states)
}

func etag(version int64) string {
	return `"` + strconv.FormatInt(version, 10) + `"`
}
