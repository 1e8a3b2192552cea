package middleware

import (
	"context"
	"net/http"

	"github.com/mcoot/tournax/internal/api/apierr"
	"github.com/mcoot/tournax/internal/middleware"
	"github.com/mcoot/tournax/internal/model"
)

type contextKey string

const sessionContextKey contextKey = "session"

// RequireSession rejects requests whose browser context has no live session.
// A context that is still loading gets 503 with Retry-After rather than 401.
func RequireSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store := middleware.GetStore(r.Context())
			if store == nil {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			session, err := store.RequireSession()
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession returns the session attached by RequireSession
func GetSession(ctx context.Context) *model.Session {
	session, _ := ctx.Value(sessionContextKey).(*model.Session)
	return session
}
