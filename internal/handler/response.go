package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/hexconquest/internal/service"
	"github.com/freeeve/hexconquest/pkg/hexgame"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Error encoding response")
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads and decodes JSON from a request body.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

var errorStatus = []struct {
	err    error
	status int
}{
	{service.ErrGameNotFound, http.StatusNotFound},
	{service.ErrUserNotFound, http.StatusNotFound},
	{service.ErrStateNotFound, http.StatusNotFound},
	{service.ErrNotInGame, http.StatusForbidden},
	{service.ErrNotCreator, http.StatusForbidden},
	{service.ErrNotYourTurn, http.StatusConflict},
	{service.ErrGameNotActive, http.StatusConflict},
	{service.ErrGameStarted, http.StatusConflict},
	{service.ErrGameBusy, http.StatusConflict},
	{service.ErrSameOpponent, http.StatusBadRequest},
	{service.ErrNoNotifications, http.StatusBadRequest},
	{hexgame.ErrUnknownMapSize, http.StatusBadRequest},
	{hexgame.ErrUnknownClick, http.StatusBadRequest},
}

// writeServiceError maps service sentinel errors to status codes. Anything
// unknown is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			writeError(w, e.status, e.err.Error())
			return
		}
	}
	log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}
