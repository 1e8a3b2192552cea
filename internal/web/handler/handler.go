package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/gorilla/mux"

	"github.com/mcoot/tournax/internal/apiclient"
	"github.com/mcoot/tournax/internal/middleware"
	"github.com/mcoot/tournax/internal/model"
	webmw "github.com/mcoot/tournax/internal/web/middleware"
	"github.com/mcoot/tournax/internal/web/templates/layout"
	"github.com/mcoot/tournax/internal/web/templates/pages"
)

// ClientFactory returns a backend client bound to store. Callers Close it.
type ClientFactory func(store apiclient.SessionSource) *apiclient.Client

// backend returns a client bound to the request's session store
func backend(clients ClientFactory, r *http.Request) (*apiclient.Client, error) {
	store := middleware.GetStore(r.Context())
	if store == nil {
		return nil, model.ErrSessionNotReady
	}
	return clients(store), nil
}

func pageData(r *http.Request, title string) layout.PageData {
	return layout.PageData{
		Title: title,
		User:  webmw.GetUser(r.Context()),
		Flash: webmw.GetFlash(r.Context()),
	}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil && id > 0
}

func render(w http.ResponseWriter, r *http.Request, page templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(r.Context(), w); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// handleBackendError turns a failed backend call into a response. A rejected
// token has already invalidated the session, so the user is sent to sign in.
func handleBackendError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	if errors.Is(err, model.ErrTokenRejected) {
		webmw.SetFlash(w, "info", "Your session has expired. Please sign in again.")
		http.Redirect(w, r, webmw.LoginRedirect(r), http.StatusSeeOther)
		return
	}

	status := http.StatusBadGateway
	message := "The tournament service is unavailable. Please try again later."

	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusNotFound:
			status, message = http.StatusNotFound, "Not found."
		case http.StatusForbidden:
			status, message = http.StatusForbidden, "You are not allowed to do that."
		case http.StatusBadRequest:
			status, message = http.StatusBadRequest, apiErr.Message
		}
	}
	if status == http.StatusBadGateway {
		logger.Warn("backend call failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}

	renderError(w, r, status, message)
}

func renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = pages.Error(pages.ErrorData{
		PageData: pageData(r, "Error"),
		Message:  message,
	}).Render(r.Context(), w)
}
