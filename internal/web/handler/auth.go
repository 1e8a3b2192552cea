package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mcoot/tournax/internal/middleware"
	"github.com/mcoot/tournax/internal/model"
	webmw "github.com/mcoot/tournax/internal/web/middleware"
	"github.com/mcoot/tournax/internal/web/templates/pages"
)

// AuthHandler handles sign-in and sign-out
type AuthHandler struct {
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(logger *slog.Logger) *AuthHandler {
	return &AuthHandler{logger: logger}
}

// LoginPage renders the login page
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"))
	if webmw.GetUser(r.Context()) != nil {
		// Already signed in
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}

	data := pages.LoginData{
		PageData: pageData(r, "Login"),
		Next:     r.URL.Query().Get("next"),
	}
	render(w, r, pages.Login(data))
}

// Login handles login form submission
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLoginError(w, r, "Invalid form data", "", "")
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	next := r.FormValue("next")

	if username == "" || password == "" {
		h.renderLoginError(w, r, "Username and password are required", username, next)
		return
	}

	store := middleware.GetStore(r.Context())
	if store == nil {
		h.renderLoginError(w, r, "Your browser session could not be established", username, next)
		return
	}

	sess, err := store.Login(r.Context(), model.Credentials{Username: username, Password: password})
	if err != nil {
		if errors.Is(err, model.ErrAuthTransport) {
			h.logger.Warn("login failed: backend unavailable", slog.String("error", err.Error()))
		}
		// Rejections and transport failures look the same to the user
		h.renderLoginError(w, r, "Invalid username or password", username, next)
		return
	}

	webmw.SetFlash(w, "success", "Welcome back, "+sess.User.Username+"!")
	http.Redirect(w, r, safeNext(next), http.StatusSeeOther)
}

// Logout ends the session of the browser context
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if store := middleware.GetStore(r.Context()); store != nil {
		store.Logout(r.Context())
	}

	webmw.SetFlash(w, "info", "You have been logged out")
	http.Redirect(w, r, webmw.LoginPath, http.StatusSeeOther)
}

func (h *AuthHandler) renderLoginError(w http.ResponseWriter, r *http.Request, errorMsg, username, next string) {
	data := pages.LoginData{
		PageData: pageData(r, "Login"),
		Username: username,
		Error:    errorMsg,
		Next:     next,
	}
	render(w, r, pages.Login(data))
}

// safeNext only allows local redirect targets
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/dashboard"
	}
	return next
}
