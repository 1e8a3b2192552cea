package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mcoot/tournax/internal/model"
	webmw "github.com/mcoot/tournax/internal/web/middleware"
	"github.com/mcoot/tournax/internal/web/templates/pages"
)

// TournamentHandler handles tournament pages
type TournamentHandler struct {
	clients ClientFactory
	logger  *slog.Logger
}

// NewTournamentHandler creates a new TournamentHandler
func NewTournamentHandler(clients ClientFactory, logger *slog.Logger) *TournamentHandler {
	return &TournamentHandler{clients: clients, logger: logger}
}

func isAdmin(r *http.Request) bool {
	user := webmw.GetUser(r.Context())
	return user != nil && user.Role.IsAdmin()
}

// List renders all tournaments
func (h *TournamentHandler) List(w http.ResponseWriter, r *http.Request) {
	client, err := backend(h.clients, r)
	if err != nil {
		handleBackendError(w, r, h.logger, err)
		return
	}
	defer client.Close()

	tournaments, err := client.ListTournaments(r.Context())
	if err != nil {
		handleBackendError(w, r, h.logger, err)
		return
	}

	render(w, r, pages.TournamentList(pages.TournamentListData{
		PageData:    pageData(r, "Tournaments"),
		Tournaments: tournaments,
		CanCreate:   isAdmin(r),
	}))
}

// View renders one tournament
func (h *TournamentHandler) View(w http.ResponseWriter, r *http.Request) {
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

	tournament, err := client.GetTournament(r.Context(), id)
	if err != nil {
		handleBackendError(w, r, h.logger, err)
		return
	}

	render(w, r, pages.Tournament(pages.TournamentData{
		PageData:   pageData(r, tournament.Name),
		Tournament: *tournament,
		CanEdit:    isAdmin(r),
	}))
}

// New renders the create form
func (h *TournamentHandler) New(w http.ResponseWriter, r *http.Request) {
	if !isAdmin(r) {
		renderError(w, r, http.StatusForbidden, "You are not allowed to do that.")
		return
	}
	render(w, r, pages.TournamentForm(pages.TournamentFormData{
		PageData: pageData(r, "Create tournament"),
		Input:    model.TournamentInput{Format: model.FormatSwiss},
	}))
}

// Create handles the create form submission
func (h *TournamentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !isAdmin(r) {
		renderError(w, r, http.StatusForbidden, "You are not allowed to do that.")
		return
	}

	in, formErr := parseTournamentForm(r, true)
	if formErr != "" {
		h.renderForm(w, r, 0, in, formErr)
		return
	}

	client, err := backend(h.clients, r)
	if err != nil {
		handleBackendError(w, r, h.logger, err)
		return
	}
	defer client.Close()

	created, err := client.CreateTournament(r.Context(), in)
	if err != nil {
		handleBackendError(w, r, h.logger, err)
		return
	}

	webmw.SetFlash(w, "success", "Tournament created")
	http.Redirect(w, r, fmt.Sprintf("/dashboard/list/tournaments/%d", created.ID), http.StatusSeeOther)
}

// Edit renders the edit form pre-filled with the current values
func (h *TournamentHandler) Edit(w http.ResponseWriter, r *http.Request) {
	if !isAdmin(r) {
		renderError(w, r, http.StatusForbidden, "You are not allowed to do that.")
		return
	}
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

	t, err := client.GetTournament(r.Context(), id)
	if err != nil {
		handleBackendError(w, r, h.logger, err)
		return
	}

	h.renderForm(w, r, id, model.TournamentInput{
		Name:         t.Name,
		StartDate:    t.StartDate,
		Location:     t.Location,
		MinEloRating: t.MinEloRating,
		MaxEloRating: t.MaxEloRating,
		Description:  t.Description,
	}, "")
}

// Update handles the edit form submission
func (h *TournamentHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !isAdmin(r) {
		renderError(w, r, http.StatusForbidden, "You are not allowed to do that.")
		return
	}
	id, ok := pathID(r)
	if !ok {
		renderError(w, r, http.StatusNotFound, "Not found.")
		return
	}

	in, formErr := parseTournamentForm(r, false)
	if formErr != "" {
		h.renderForm(w, r, id, in, formErr)
		return
	}

	client, err := backend(h.clients, r)
	if err != nil {
		handleBackendError(w, r, h.logger, err)
		return
	}
	defer client.Close()

	if _, err := client.UpdateTournament(r.Context(), id, in); err != nil {
		handleBackendError(w, r, h.logger, err)
		return
	}

	webmw.SetFlash(w, "success", "Tournament updated")
	http.Redirect(w, r, fmt.Sprintf("/dashboard/list/tournaments/%d", id), http.StatusSeeOther)
}

func (h *TournamentHandler) renderForm(w http.ResponseWriter, r *http.Request, id int64, in model.TournamentInput, formErr string) {
	title := "Create tournament"
	if id != 0 {
		title = "Edit tournament"
	}
	render(w, r, pages.TournamentForm(pages.TournamentFormData{
		PageData: pageData(r, title),
		ID:       id,
		Input:    in,
		Error:    formErr,
	}))
}

// parseTournamentForm reads the form fields. Only presence and shape are
// checked here; the backend owns tournament rules.
func parseTournamentForm(r *http.Request, withFormat bool) (model.TournamentInput, string) {
	var in model.TournamentInput
	if err := r.ParseForm(); err != nil {
		return in, "Invalid form data"
	}

	in.Name = strings.TrimSpace(r.FormValue("name"))
	in.Location = strings.TrimSpace(r.FormValue("location"))
	in.Description = strings.TrimSpace(r.FormValue("description"))

	if in.Name == "" || in.Location == "" {
		return in, "Name and location are required"
	}

	if v := r.FormValue("startDate"); v != "" {
		start, err := time.Parse("2006-01-02", v)
		if err != nil {
			return in, "Start date must be a date"
		}
		in.StartDate = start
	}

	var err error
	if in.MinEloRating, err = atoiOrZero(r.FormValue("minEloRating")); err != nil {
		return in, "Minimum Elo must be a number"
	}
	if in.MaxEloRating, err = atoiOrZero(r.FormValue("maxEloRating")); err != nil {
		return in, "Maximum Elo must be a number"
	}

	if withFormat {
		in.Format = model.TournamentFormat(r.FormValue("format"))
		if !in.Format.Valid() {
			return in, "Unknown tournament format"
		}
	}

	return in, ""
}

func atoiOrZero(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
