package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/tournax/internal/dependencies/random"
	"github.com/mcoot/tournax/internal/session"
)

// Cookie names shared by the web frontend and its JSON endpoints
const (
	ContextCookieName = "tournax.context"
	SessionCookieName = "tournax.session-token"
)

type browserContextKey struct{}

// CookieConfig controls the attributes of the cookies set by BrowserContext
type CookieConfig struct {
	Secure bool
	// SessionMaxAge is the lifetime of the session token cookie
	SessionMaxAge time.Duration
	// ContextMaxAge is the lifetime of the browser context cookie
	ContextMaxAge time.Duration
}

// BrowserContextConfig configures the BrowserContext middleware
type BrowserContextConfig struct {
	Registry *session.Registry
	Random   random.Random
	Cookies  CookieConfig
	// RestoreWait bounds how long the first request of a new context waits for
	// session restoration before it is served with the store still Loading.
	RestoreWait time.Duration
	Logger      *slog.Logger
}

// GetBrowserContext returns the browser context attached by BrowserContext, or nil
func GetBrowserContext(ctx context.Context) *session.BrowserContext {
	bc, _ := ctx.Value(browserContextKey{}).(*session.BrowserContext)
	return bc
}

// GetStore returns the session store of the request's browser context, or nil
func GetStore(ctx context.Context) *session.Store {
	if bc := GetBrowserContext(ctx); bc != nil {
		return bc.Store
	}
	return nil
}

// BrowserContext attaches the browser's session state to each request.
//
// The context id cookie selects (or creates) a per-browser session store. A
// new store is seeded with the session token cookie and restored in the
// background. An existing store is reconciled with the cookie first, so a
// dropped, expired or logged out token never keeps a context signed in.
// Before the response headers are written the session token cookie is
// brought in line with the persisted token.
func BrowserContext(cfg BrowserContextConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(ContextCookieName); err == nil && random.ValidContextID(c.Value) {
				id = c.Value
			}
			newID := id == ""
			if newID {
				id = cfg.Random.ContextID()
			}

			presented := ""
			if c, err := r.Cookie(SessionCookieName); err == nil {
				presented = c.Value
			}

			bc, created := cfg.Registry.Acquire(id)
			if !created && bc.Reconcile(r.Context(), presented) {
				bc, created = cfg.Registry.Replace(id), true
			}
			if created {
				bc.Persister.Seed(presented)
				waitForRestore(bc.StartRestore(r.Context()), cfg.RestoreWait)
			}

			rw := NewResponseWriter(w)
			if newID {
				http.SetCookie(rw, cfg.contextCookie(id))
			}
			rw.BeforeWrite(func(h http.Header) {
				token := bc.Persister.Token()
				if token == presented {
					return
				}
				cookie := cfg.sessionCookie(token)
				h.Add("Set-Cookie", cookie.String())
			})

			AddLogAttrs(r.Context(),
				slog.String("browser_context", id),
				slog.String("session", bc.Store.Snapshot().Status.String()),
			)

			ctx := context.WithValue(r.Context(), browserContextKey{}, bc)
			next.ServeHTTP(rw, r.WithContext(ctx))
			rw.Finish()
		})
	}
}

func waitForRestore(done <-chan struct{}, wait time.Duration) {
	if wait <= 0 {
		return
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
	}
}

func (cfg BrowserContextConfig) contextCookie(id string) *http.Cookie {
	return &http.Cookie{
		Name:     ContextCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(cfg.Cookies.ContextMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// sessionCookie sets token, or expires the cookie when token is empty
func (cfg BrowserContextConfig) sessionCookie(token string) *http.Cookie {
	c := &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cfg.Cookies.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if token == "" {
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
	}
	return c
}
