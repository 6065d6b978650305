package handler

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/hexconquest/internal/auth"
	"github.com/freeeve/hexconquest/internal/repository"
)

// AuthHandler handles OAuth2 login flows and token refresh.
type AuthHandler struct {
	google       *auth.OAuthProvider
	jwtMgr       *auth.JWTManager
	userRepo     repository.UserRepository
	devMode      bool
	secureCookie bool
}

// NewAuthHandler creates an AuthHandler. Dev logins are only served when
// devMode is set.
func NewAuthHandler(google *auth.OAuthProvider, jwtMgr *auth.JWTManager, userRepo repository.UserRepository, devMode bool) *AuthHandler {
	return &AuthHandler{google: google, jwtMgr: jwtMgr, userRepo: userRepo, devMode: devMode, secureCookie: !devMode}
}

// GoogleLogin redirects to Google's OAuth2 consent screen.
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.google == nil || !h.google.Configured() {
		writeError(w, http.StatusServiceUnavailable, "google sign-in is not configured")
		return
	}
	state := auth.IssueState(w, h.secureCookie)
	http.Redirect(w, r, h.google.LoginURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallback handles the OAuth2 callback from Google.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.google == nil || !h.google.Configured() {
		writeError(w, http.StatusServiceUnavailable, "google sign-in is not configured")
		return
	}
	if err := auth.CheckState(w, r); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing code parameter")
		return
	}

	info, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		log.Warn().Err(err).Msg("Google exchange failed")
		writeError(w, http.StatusUnauthorized, "oauth exchange failed")
		return
	}

	user, err := h.userRepo.Upsert(r.Context(), "google", info.ID, info.Name, info.Picture)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upsert Google user")
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	h.writeTokens(w, user.ID)
}

// RefreshToken exchanges a refresh token for a new token pair.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims, err := h.jwtMgr.ValidateToken(req.RefreshToken, auth.KindRefresh)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	user, err := h.userRepo.FindByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "user no longer exists")
		return
	}
	h.writeTokens(w, user.ID)
}

// DevLogin upserts a named test user and returns a token pair.
func (h *AuthHandler) DevLogin(w http.ResponseWriter, r *http.Request) {
	if !h.devMode {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing name parameter")
		return
	}

	user, err := h.userRepo.Upsert(r.Context(), "dev", "dev-"+strings.ToLower(name), name, "")
	if err != nil {
		log.Error().Err(err).Str("name", name).Msg("Failed to upsert dev user")
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	h.writeTokens(w, user.ID)
}

func (h *AuthHandler) writeTokens(w http.ResponseWriter, userID string) {
	tokens, err := h.jwtMgr.GenerateTokenPair(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate tokens")
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}
