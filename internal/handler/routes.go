package handler

import "net/http"

// APIRoutes registers the authenticated /api/v1 endpoints. Paths are
// relative to the prefix.
func APIRoutes(users *UserHandler, games *GameHandler, turns *TurnHandler, notes *NotificationHandler) *http.ServeMux {
	api := http.NewServeMux()
	api.HandleFunc("GET /users", users.ListUsers)
	api.HandleFunc("GET /users/me", users.GetMe)
	api.HandleFunc("PATCH /users/me", users.UpdateMe)
	api.HandleFunc("GET /users/{id}", users.GetUser)

	api.HandleFunc("POST /games", games.CreateGame)
	api.HandleFunc("GET /games", games.ListGames)
	api.HandleFunc("GET /games/{id}", games.GetGame)
	api.HandleFunc("DELETE /games/{id}", games.DeleteGame)
	api.HandleFunc("POST /games/{id}/resign", games.Resign)
	api.HandleFunc("GET /games/{id}/state", games.GetState)
	api.HandleFunc("GET /games/{id}/version", games.GetVersion)
	api.HandleFunc("GET /games/{id}/players", games.ListPlayers)
	api.HandleFunc("GET /games/{id}/history", games.History)
	api.HandleFunc("POST /games/{id}/clicks", turns.Click)

	api.HandleFunc("GET /notifications", notes.List)
	api.HandleFunc("POST /notifications/read", notes.MarkRead)
	return api
}
