package handler

import (
	"log/slog"
	"net/http"
	"net/url"

	webmw "github.com/mcoot/tournax/internal/web/middleware"
	"github.com/mcoot/tournax/internal/web/templates/pages"
)

// HomeHandler handles the landing page and the signed-in dashboard
type HomeHandler struct {
	clients ClientFactory
	logger  *slog.Logger
}

// NewHomeHandler creates a new HomeHandler
func NewHomeHandler(clients ClientFactory, logger *slog.Logger) *HomeHandler {
	return &HomeHandler{clients: clients, logger: logger}
}

// Home renders the public landing page
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	render(w, r, pages.Home(pages.HomeData{PageData: pageData(r, "Home")}))
}

// Dashboard renders the signed-in landing page
func (h *HomeHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
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

	render(w, r, pages.Dashboard(pages.DashboardData{
		PageData:    pageData(r, "Dashboard"),
		Tournaments: tournaments,
	}))
}

// Profile redirects to the signed-in user's player page
func (h *HomeHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user := webmw.GetUser(r.Context())
	if user == nil {
		http.Redirect(w, r, webmw.LoginRedirect(r), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/dashboard/list/users/"+url.PathEscape(string(user.ID)), http.StatusSeeOther)
}
