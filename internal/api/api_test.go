package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/tournax/internal/api/apierr"
	"github.com/mcoot/tournax/internal/api/response"
	"github.com/mcoot/tournax/internal/dependencies/clock"
	"github.com/mcoot/tournax/internal/factory"
	"github.com/mcoot/tournax/internal/middleware"
	"github.com/mcoot/tournax/internal/model"
	"github.com/mcoot/tournax/internal/storage"
	"github.com/mcoot/tournax/internal/storage/memory"
	"github.com/mcoot/tournax/internal/testutil"
)

// testServer drives the combined handler the way a single browser would
type testServer struct {
	t       *testing.T
	handler http.Handler
	app     *factory.TestApp
	backend *testutil.Backend
	cookies map[string]*http.Cookie
}

func newTestServer(t *testing.T, cfg factory.TestConfig) *testServer {
	t.Helper()

	backend := testutil.NewBackend(t)
	backend.AddUser("alice", "secret", model.RolePlayer)

	cfg.BackendURL = backend.URL()
	app := factory.NewTestApp(cfg)

	return &testServer{
		t:       t,
		handler: app.Handler(),
		app:     app,
		backend: backend,
		cookies: make(map[string]*http.Cookie),
	}
}

func (ts *testServer) request(method, path string, body any) *httptest.ResponseRecorder {
	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&reqBody).Encode(body))
	}

	req := httptest.NewRequest(method, path, &reqBody)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range ts.cookies {
		req.AddCookie(c)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	for _, c := range rr.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(ts.cookies, c.Name)
		} else {
			ts.cookies[c.Name] = c
		}
	}
	return rr
}

func (ts *testServer) login() *httptest.ResponseRecorder {
	ts.t.Helper()
	rr := ts.request(http.MethodPost, "/api/session", map[string]string{"username": "alice", "password": "secret"})
	require.Equal(ts.t, http.StatusOK, rr.Code, rr.Body.String())
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t, factory.TestConfig{})

	rr := ts.request(http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	resp := decode[response.HealthResponse](t, rr)
	assert.Equal(t, "ok", resp.Status)
	// Health checks never create a browser context
	assert.Equal(t, 0, resp.Contexts)
	assert.Empty(t, ts.cookies)
}

func TestSessionStartsUnauthenticated(t *testing.T) {
	ts := newTestServer(t, factory.TestConfig{})

	rr := ts.request(http.MethodGet, "/api/session", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decode[response.SessionResponse](t, rr)
	assert.Equal(t, "unauthenticated", resp.Status)
	assert.Nil(t, resp.User)
	assert.Contains(t, ts.cookies, middleware.ContextCookieName)
	assert.NotContains(t, ts.cookies, middleware.SessionCookieName)
}

func TestLoginAuthenticatesContext(t *testing.T) {
	ts := newTestServer(t, factory.TestConfig{})

	rr := ts.login()
	resp := decode[response.SessionResponse](t, rr)
	assert.Equal(t, "authenticated", resp.Status)
	require.NotNil(t, resp.User)
	assert.Equal(t, "alice", resp.User.Username)
	assert.Equal(t, "Player", resp.User.Role)
	assert.NotNil(t, resp.ExpiresAt)
	assert.NotContains(t, rr.Body.String(), "token")

	require.Contains(t, ts.cookies, middleware.SessionCookieName)
	assert.True(t, ts.cookies[middleware.SessionCookieName].HttpOnly)

	rr = ts.request(http.MethodGet, "/api/session", nil)
	assert.Equal(t, "authenticated", decode[response.SessionResponse](t, rr).Status)
}

func TestLoginInvalidCredentials(t *testing.T) {
	ts := newTestServer(t, factory.TestConfig{})

	rr := ts.request(http.MethodPost, "/api/session", map[string]string{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeInvalidCredentials, decode[apierr.ErrorResponse](t, rr).Error.Code)
	assert.NotContains(t, ts.cookies, middleware.SessionCookieName)

	rr = ts.request(http.MethodGet, "/api/session", nil)
	assert.Equal(t, "unauthenticated", decode[response.SessionResponse](t, rr).Status)
}

func TestLoginBackendFailure(t *testing.T) {
	ts := newTestServer(t, factory.TestConfig{})
	ts.backend.SetLoginStatus(http.StatusInternalServerError)

	rr := ts.request(http.MethodPost, "/api/session", map[string]string{"username": "alice", "password": "secret"})
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, apierr.CodeAuthUnavailable, decode[apierr.ErrorResponse](t, rr).Error.Code)
}

func TestLoginValidation(t *testing.T) {
	ts := newTestServer(t, factory.TestConfig{})

	tests := []struct {
		name string
		body any
	}{
		{"missing username", map[string]string{"password": "secret"}},
		{"missing password", map[string]string{"username": "alice"}},
		{"not an object", "alice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.request(http.MethodPost, "/api/session", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, apierr.CodeInvalidRequest, decode[apierr.ErrorResponse](t, rr).Error.Code)
		})
	}

	// No login was attempted
	_, ok := ts.backend.LastRequest("/api/auth/login")
	assert.False(t, ok)
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t, factory.TestConfig{})
	ts.login()

	rr := ts.request(http.MethodDelete, "/api/session", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.NotContains(t, ts.cookies, middleware.SessionCookieName)

	rr = ts.request(http.MethodGet, "/api/session", nil)
	assert.Equal(t, "unauthenticated", decode[response.SessionResponse](t, rr).Status)
}

func TestProfileRequiresSession(t *testing.T) {
	ts := newTestServer(t, factory.TestConfig{})

	rr := ts.request(http.MethodGet, "/api/session/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeUnauthorized, decode[apierr.ErrorResponse](t, rr).Error.Code)
}

func TestProfileUsesSessionToken(t *testing.T) {
	ts := newTestServer(t, factory.TestConfig{})
	ts.login()

	rr := ts.request(http.MethodGet, "/api/session/profile", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	profile := decode[model.UserProfile](t, rr)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, "alice@example.com", profile.Email)

	req, ok := ts.backend.LastRequest("/api/user/")
	require.True(t, ok)
	assert.Equal(t, "Bearer "+ts.cookies[middleware.SessionCookieName].Value, req.Authorization)
}

func TestProfileWithRevokedTokenSignsOut(t *testing.T) {
	ts := newTestServer(t, factory.TestConfig{})
	ts.login()
	ts.backend.Revoke(ts.cookies[middleware.SessionCookieName].Value)

	rr := ts.request(http.MethodGet, "/api/session/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeTokenRejected, decode[apierr.ErrorResponse](t, rr).Error.Code)
	assert.NotContains(t, ts.cookies, middleware.SessionCookieName)

	rr = ts.request(http.MethodGet, "/api/session", nil)
	assert.Equal(t, "unauthenticated", decode[response.SessionResponse](t, rr).Status)
}

func TestSessionRestoredInNewContext(t *testing.T) {
	ts := newTestServer(t, factory.TestConfig{})
	ts.login()

	// The frontend forgets the context; the browser still holds the token
	delete(ts.cookies, middleware.ContextCookieName)

	rr := ts.request(http.MethodGet, "/api/session", nil)
	resp := decode[response.SessionResponse](t, rr)
	assert.Equal(t, "authenticated", resp.Status)
	require.NotNil(t, resp.User)
	assert.Equal(t, "alice", resp.User.Username)
	assert.Equal(t, 2, ts.app.Registry.Len())
}

func TestExpiredSessionIsNotRestored(t *testing.T) {
	ts := newTestServer(t, factory.TestConfig{})
	ts.login()

	delete(ts.cookies, middleware.ContextCookieName)
	ts.app.MockClock.Advance(2 * time.Hour)

	rr := ts.request(http.MethodGet, "/api/session", nil)
	assert.Equal(t, "unauthenticated", decode[response.SessionResponse](t, rr).Status)
	assert.NotContains(t, ts.cookies, middleware.SessionCookieName)
}

func TestUnknownTokenCookieIsCleared(t *testing.T) {
	ts := newTestServer(t, factory.TestConfig{})
	ts.cookies[middleware.SessionCookieName] = &http.Cookie{Name: middleware.SessionCookieName, Value: "forged"}

	rr := ts.request(http.MethodGet, "/api/session", nil)
	assert.Equal(t, "unauthenticated", decode[response.SessionResponse](t, rr).Status)
	assert.NotContains(t, ts.cookies, middleware.SessionCookieName)
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

func TestProfileWhileLoading(t *testing.T) {
	blocked := &blockingStorage{Storage: memory.New(clock.New()), release: make(chan struct{})}
	t.Cleanup(func() { close(blocked.release) })

	ts := newTestServer(t, factory.TestConfig{Storage: blocked, RestoreWait: -1})
	ts.cookies[middleware.SessionCookieName] = &http.Cookie{Name: middleware.SessionCookieName, Value: "pending"}

	rr := ts.request(http.MethodGet, "/api/session/profile", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
	assert.Equal(t, apierr.CodeSessionNotReady, decode[apierr.ErrorResponse](t, rr).Error.Code)

	rr = ts.request(http.MethodGet, "/api/session", nil)
	assert.Equal(t, "loading", decode[response.SessionResponse](t, rr).Status)

	// Nothing reached the backend
	_, ok := ts.backend.LastRequest("/api/user/")
	assert.False(t, ok)
}
