package web_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/tournax/internal/dependencies/clock"
	"github.com/mcoot/tournax/internal/factory"
	"github.com/mcoot/tournax/internal/middleware"
	"github.com/mcoot/tournax/internal/model"
	"github.com/mcoot/tournax/internal/storage"
	"github.com/mcoot/tournax/internal/storage/memory"
)

func TestLoginPage(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/login")
	assert.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsElement(t, doc, "#login-form")
	assertContainsElement(t, doc, "a.login")
	assertNotContainsElement(t, doc, ".login-error")

	// Every visitor gets a browser context
	assert.Contains(t, ts.cookies.cookies, middleware.ContextCookieName)
	assert.False(t, ts.cookies.hasSession())
}

func TestLogin(t *testing.T) {
	ts := newWebTestServer(t)

	form := url.Values{"username": {"alice"}, "password": {"secret"}}
	rr := ts.post("/login", form)

	// Should redirect to the dashboard
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/dashboard", rr.Header().Get("Location"))
	assert.True(t, ts.cookies.hasSession())

	rr = ts.followRedirect(rr)
	assert.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "nav .username", "alice")
	assertContainsText(t, doc, "nav .role", "Player")
	assertContainsText(t, doc, ".welcome-name", "alice")
	assertContainsText(t, doc, ".flash", "Welcome back, alice!")
}

func TestLoginInvalidCredentials(t *testing.T) {
	ts := newWebTestServer(t)

	form := url.Values{"username": {"alice"}, "password": {"wrong"}}
	rr := ts.post("/login", form)

	// Should re-render login page with error (200 status, not redirect)
	assert.Equal(t, http.StatusOK, rr.Code)

	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, ".login-error", "Invalid username or password")
	val, _ := doc.Find("#username").Attr("value")
	assert.Equal(t, "alice", val)

	// Session should NOT be set
	assert.False(t, ts.cookies.hasSession())
}

func TestLoginBackendUnavailable(t *testing.T) {
	ts := newWebTestServer(t)
	ts.backend.SetLoginStatus(http.StatusServiceUnavailable)

	form := url.Values{"username": {"alice"}, "password": {"secret"}}
	rr := ts.post("/login", form)

	// Indistinguishable from a rejection
	assert.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, ".login-error", "Invalid username or password")
	assert.False(t, ts.cookies.hasSession())
}

func TestLoginRequiresFields(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.post("/login", url.Values{"username": {"alice"}})
	assert.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, ".login-error", "required")

	// No login request reached the backend
	_, ok := ts.backend.LastRequest("/api/auth/login")
	assert.False(t, ok)
}

func TestLoginRedirectsToNext(t *testing.T) {
	ts := newWebTestServer(t)

	form := url.Values{"username": {"alice"}, "password": {"secret"}, "next": {"/dashboard/list/tournaments"}}
	rr := ts.post("/login", form)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/dashboard/list/tournaments", rr.Header().Get("Location"))
}

func TestLoginIgnoresExternalNext(t *testing.T) {
	ts := newWebTestServer(t)

	form := url.Values{"username": {"alice"}, "password": {"secret"}, "next": {"//evil.example.com/"}}
	rr := ts.post("/login", form)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/dashboard", rr.Header().Get("Location"))
}

func TestLoginPageWhenSignedIn(t *testing.T) {
	ts := newWebTestServer(t)
	ts.login("alice", "secret")

	rr := ts.get("/login")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/dashboard", rr.Header().Get("Location"))
}

func TestReloginReplacesSession(t *testing.T) {
	ts := newWebTestServer(t)
	ts.login("alice", "secret")
	first := ts.cookies.sessionToken()

	ts.login("root", "hunter2")
	second := ts.cookies.sessionToken()
	assert.NotEqual(t, first, second)

	rr := ts.get("/dashboard")
	require.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, "nav .username", "root")

	req, ok := ts.backend.LastRequest("/api/tournament")
	require.True(t, ok)
	assert.Equal(t, "Bearer "+second, req.Authorization)
}

func TestLogout(t *testing.T) {
	ts := newWebTestServer(t)
	ts.login("alice", "secret")

	rr := ts.post("/logout", nil)

	// Should redirect to the login page
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))

	// Session should be cleared
	assert.False(t, ts.cookies.hasSession())

	rr = ts.followRedirect(rr)
	doc := parseHTML(rr.Body)
	assertContainsElement(t, doc, "#login-form")
	assertContainsText(t, doc, ".flash", "logged out")

	// Protected pages are gone
	rr = ts.get("/dashboard")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login?next=%2Fdashboard", rr.Header().Get("Location"))
}

func TestProtectedPageRedirectsWhenSignedOut(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/dashboard/list/tournaments")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login?next=%2Fdashboard%2Flist%2Ftournaments", rr.Header().Get("Location"))

	// The guard never lets a request through to the backend
	assert.Empty(t, ts.backend.Requests())
}

func TestSessionRestoredAfterContextEviction(t *testing.T) {
	ts := newWebTestServer(t)
	ts.login("alice", "secret")
	token := ts.cookies.sessionToken()

	ts.cookies.forgetContext()

	rr := ts.get("/dashboard")
	require.Equal(t, http.StatusOK, rr.Code)
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, ".welcome-name", "alice")
	assert.Equal(t, token, ts.cookies.sessionToken())
	assert.Equal(t, 2, ts.app.Registry.Len())
}

func TestExpiredSessionIsNotRestored(t *testing.T) {
	ts := newWebTestServer(t)
	ts.login("alice", "secret")

	ts.cookies.forgetContext()
	ts.app.MockClock.Advance(2 * time.Hour)

	rr := ts.get("/dashboard")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login?next=%2Fdashboard", rr.Header().Get("Location"))
	assert.False(t, ts.cookies.hasSession())
}

func TestSessionEndsWhenTokenExpiresMidContext(t *testing.T) {
	ts := newWebTestServer(t)
	ts.login("alice", "secret")

	rr := ts.get("/dashboard")
	require.Equal(t, http.StatusOK, rr.Code)

	// The context stays live while the token's exp passes
	ts.app.MockClock.Advance(2 * time.Hour)

	rr = ts.get("/dashboard")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login?next=%2Fdashboard", rr.Header().Get("Location"))
	assert.True(t, expiresSession(rr))
	assert.False(t, ts.cookies.hasSession())
}

func TestDroppedSessionCookieEndsSession(t *testing.T) {
	ts := newWebTestServer(t)
	ts.login("alice", "secret")
	token := ts.cookies.sessionToken()

	ts.cookies.dropSession()

	rr := ts.get("/dashboard")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login?next=%2Fdashboard", rr.Header().Get("Location"))
	assert.False(t, ts.cookies.hasSession(), "dropped token must not be set again")

	// The token is gone from the cache, so replaying it does not sign back in
	ts.cookies.setSession(token)
	rr = ts.get("/dashboard")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.True(t, expiresSession(rr))
}

func TestLogoutOnAnotherInstanceEndsSession(t *testing.T) {
	ts := newWebTestServer(t)
	ts.login("alice", "secret")
	token := ts.cookies.sessionToken()

	rr := ts.get("/dashboard")
	require.Equal(t, http.StatusOK, rr.Code)

	other := ts.sibling()
	rr = other.get("/dashboard")
	require.Equal(t, http.StatusOK, rr.Code, "sibling restores from the shared cache")

	rr = other.post("/logout", nil)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	require.False(t, ts.cookies.hasSession())

	rr = ts.get("/dashboard")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login?next=%2Fdashboard", rr.Header().Get("Location"))
	assert.False(t, ts.cookies.hasSession())

	// A copy of the old cookie is refused by the first instance too
	ts.cookies.setSession(token)
	rr = ts.get("/dashboard")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.True(t, expiresSession(rr))
}

func TestStaleCookieReplayAfterRemoteLogout(t *testing.T) {
	ts := newWebTestServer(t)
	ts.login("alice", "secret")
	token := ts.cookies.sessionToken()

	// Another instance removes the session from the shared cache
	require.NoError(t, ts.app.Storage.DeleteSession(context.Background(), token))

	rr := ts.get("/dashboard")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.True(t, expiresSession(rr))
	assert.False(t, ts.cookies.hasSession())
}

func TestRejectedTokenRedirectsToLogin(t *testing.T) {
	ts := newWebTestServer(t)
	ts.login("alice", "secret")
	ts.backend.Revoke(ts.cookies.sessionToken())

	rr := ts.get("/dashboard/list/tournaments")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login?next=%2Fdashboard%2Flist%2Ftournaments", rr.Header().Get("Location"))
	assert.False(t, ts.cookies.hasSession())

	rr = ts.followRedirect(rr)
	doc := parseHTML(rr.Body)
	assertContainsText(t, doc, ".flash", "session has expired")
	next, _ := doc.Find("input[name='next']").Attr("value")
	assert.Equal(t, "/dashboard/list/tournaments", next)

	// Signing in again sends the user back with the new token
	form := url.Values{"username": {"alice"}, "password": {"secret"}, "next": {next}}
	rr = ts.post("/login", form)
	assert.Equal(t, "/dashboard/list/tournaments", rr.Header().Get("Location"))

	rr = ts.followRedirect(rr)
	assert.Equal(t, http.StatusOK, rr.Code)
	req, ok := ts.backend.LastRequest("/api/tournament")
	require.True(t, ok)
	assert.Equal(t, "Bearer "+ts.cookies.sessionToken(), req.Authorization)
}

// blockingStorage holds every lookup until released
type blockingStorage struct {
	storage.Storage
	release chan struct{}
}

func (s *blockingStorage) GetSession(ctx context.Context, token string) (*model.Session, error) {
	select {
	case <-s.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.Storage.GetSession(ctx, token)
}

func TestLoadingPlaceholder(t *testing.T) {
	blocked := &blockingStorage{Storage: memory.New(clock.New()), release: make(chan struct{})}
	ts := newWebTestServerWith(t, factory.TestConfig{Storage: blocked, RestoreWait: -1})
	ts.cookies.cookies[middleware.SessionCookieName] = &http.Cookie{Name: middleware.SessionCookieName, Value: "stale"}

	rr := ts.get("/dashboard")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))

	doc := parseHTML(rr.Body)
	assertContainsElement(t, doc, "#loading")
	assertContainsElement(t, doc, "meta[http-equiv='refresh']")
	assertNotContainsElement(t, doc, "#dashboard")
	assert.Empty(t, ts.backend.Requests())

	// Restoration finishes: the unknown token resolves to signed out
	close(blocked.release)
	bc, ok := ts.app.Registry.Lookup(ts.cookies.cookies[middleware.ContextCookieName].Value)
	require.True(t, ok)
	<-bc.StartRestore(t.Context())

	rr = ts.get("/dashboard")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login?next=%2Fdashboard", rr.Header().Get("Location"))
	assert.False(t, ts.cookies.hasSession())
}
