package handler

import (
	"net/http"

	"github.com/freeeve/hexconquest/internal/auth"
	"github.com/freeeve/hexconquest/internal/service"
	"github.com/freeeve/hexconquest/pkg/hexgame"
)

// TurnHandler feeds player input into the turn engine.
type TurnHandler struct {
	turnSvc *service.TurnService
}

// NewTurnHandler creates a TurnHandler.
func NewTurnHandler(turnSvc *service.TurnService) *TurnHandler {
	return &TurnHandler{turnSvc: turnSvc}
}

// Click handles POST /api/v1/games/{id}/clicks with a body such as
// {"kind":"hex","col":1,"row":2} or {"kind":"end_turn"}.
func (h *TurnHandler) Click(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	var req struct {
		Kind string `json:"kind"`
		Col  int    `json:"col"`
		Row  int    `json:"row"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	kind, err := hexgame.ParseClickKind(req.Kind)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	view, err := h.turnSvc.Click(r.Context(), r.PathValue("id"), userID, hexgame.Click{Kind: kind, Col: req.Col, Row: req.Row})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
