package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mcoot/tournax/internal/model"
	webmw "github.com/mcoot/tournax/internal/web/middleware"
	"github.com/mcoot/tournax/internal/web/templates/pages"
)

// MatchHandler handles match pages and score entry
type MatchHandler struct {
	clients ClientFactory
	logger  *slog.Logger
}

// NewMatchHandler creates a new MatchHandler
func NewMatchHandler(clients ClientFactory, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{clients: clients, logger: logger}
}

// View renders one match, with the score form for admins
func (h *MatchHandler) View(w http.ResponseWriter, r *http.Request) {
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

	match, err := client.GetMatch(r.Context(), id)
	if err != nil {
		handleBackendError(w, r, h.logger, err)
		return
	}

	render(w, r, pages.Match(pages.MatchData{
		PageData: pageData(r, "Match"),
		Match:    *match,
		CanEdit:  isAdmin(r),
	}))
}

// Score records a match result
func (h *MatchHandler) Score(w http.ResponseWriter, r *http.Request) {
	if !isAdmin(r) {
		renderError(w, r, http.StatusForbidden, "You are not allowed to do that.")
		return
	}
	id, ok := pathID(r)
	if !ok {
		renderError(w, r, http.StatusNotFound, "Not found.")
		return
	}
	if err := r.ParseForm(); err != nil {
		renderError(w, r, http.StatusBadRequest, "Invalid form data")
		return
	}

	result := model.MatchResult{
		ID:          id,
		Status:      model.MatchCompleted,
		KOByPlayer1: r.FormValue("koByPlayer1") == "true",
		KOByPlayer2: r.FormValue("koByPlayer2") == "true",
	}
	fields := []struct {
		name string
		dst  *int
	}{
		{"player1Score", &result.Player1Score},
		{"player2Score", &result.Player2Score},
		{"durationInMinutes", &result.DurationInMinutes},
		{"punchesPlayer1", &result.PunchesPlayer1},
		{"punchesPlayer2", &result.PunchesPlayer2},
		{"dodgesPlayer1", &result.DodgesPlayer1},
		{"dodgesPlayer2", &result.DodgesPlayer2},
	}
	for _, f := range fields {
		v, err := atoiOrZero(r.FormValue(f.name))
		if err != nil {
			renderError(w, r, http.StatusBadRequest, f.name+" must be a number")
			return
		}
		*f.dst = v
	}

	client, err := backend(h.clients, r)
	if err != nil {
		handleBackendError(w, r, h.logger, err)
		return
	}
	defer client.Close()

	if _, err := client.UpdateMatchScore(r.Context(), result); err != nil {
		handleBackendError(w, r, h.logger, err)
		return
	}

	webmw.SetFlash(w, "success", "Result recorded")
	http.Redirect(w, r, fmt.Sprintf("/dashboard/list/matches/%d", id), http.StatusSeeOther)
}
