package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mcoot/tournax/internal/guard"
	"github.com/mcoot/tournax/internal/middleware"
	"github.com/mcoot/tournax/internal/model"
	"github.com/mcoot/tournax/internal/web/templates/layout"
	"github.com/mcoot/tournax/internal/web/templates/pages"
)

// LoginPath is where unauthenticated navigations are sent
const LoginPath = "/login"

// GetUser returns the signed-in user of the request's browser context
// Returns nil while the session is loading or when signed out
func GetUser(ctx context.Context) *model.AuthenticatedUser {
	store := middleware.GetStore(ctx)
	if store == nil {
		return nil
	}
	return store.Snapshot().User()
}

// RequireSession returns middleware that gates a page on the session status.
// Each navigation mounts a fresh guard: loading shows a self-refreshing
// placeholder, signed-out visitors are redirected to the login page.
func RequireSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store := middleware.GetStore(r.Context())
			if store == nil {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}

			g := guard.New(LoginRedirect(r))
			switch d := g.Observe(store.Snapshot()); d.Kind {
			case guard.Render:
				next.ServeHTTP(w, r)
			case guard.Placeholder:
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.Header().Set("Cache-Control", "no-store")
				if err := pages.Loading(layout.PageData{Title: "Loading"}).Render(r.Context(), w); err != nil {
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			case guard.Redirect:
				http.Redirect(w, r, d.Location, http.StatusSeeOther)
			}
		})
	}
}

// LoginRedirect returns the login URL that brings the user back to r after signing in
func LoginRedirect(r *http.Request) string {
	if r.Method != http.MethodGet {
		return LoginPath
	}
	return LoginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
}
