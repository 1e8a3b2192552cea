package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/tournax/internal/web/templates/pages"
)

// PlayerHandler handles player profile pages
type PlayerHandler struct {
	clients ClientFactory
	logger  *slog.Logger
}

// NewPlayerHandler creates a new PlayerHandler
func NewPlayerHandler(clients ClientFactory, logger *slog.Logger) *PlayerHandler {
	return &PlayerHandler{clients: clients, logger: logger}
}

// View renders a player's profile, rating history, statistics and matches
func (h *PlayerHandler) View(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		renderError(w, r, http.StatusNotFound, "Not found.")
		return
	}

	client, err := backend(h.clients, r)
	if err != nil {
		handleBackendError(w, r, h.logger, err)
		return
	}
	defer client.Close()

	ctx := r.Context()
	profile, err := client.GetUser(ctx, id)
	if err != nil {
		handleBackendError(w, r, h.logger, err)
		return
	}
	elo, err := client.EloHistory(ctx, id)
	if err != nil {
		handleBackendError(w, r, h.logger, err)
		return
	}
	stats, err := client.PlayerStats(ctx, id)
	if err != nil {
		handleBackendError(w, r, h.logger, err)
		return
	}
	matches, err := client.PlayerMatches(ctx, id)
	if err != nil {
		handleBackendError(w, r, h.logger, err)
		return
	}

	render(w, r, pages.Player(pages.PlayerData{
		PageData: pageData(r, profile.Username),
		Profile:  *profile,
		Elo:      elo,
		Stats:    stats,
		Matches:  matches,
	}))
}
