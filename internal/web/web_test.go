package web_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/tournax/internal/factory"
	"github.com/mcoot/tournax/internal/middleware"
	"github.com/mcoot/tournax/internal/model"
	"github.com/mcoot/tournax/internal/testutil"
)

// webTestServer provides a test server for web interface testing
type webTestServer struct {
	t       *testing.T
	handler http.Handler
	app     *factory.TestApp
	backend *testutil.Backend
	cookies *cookieJar
}

// newWebTestServer creates a new test server with all dependencies wired
// against a fake backend that knows a player "alice" and an admin "root"
func newWebTestServer(t *testing.T) *webTestServer {
	return newWebTestServerWith(t, factory.TestConfig{})
}

func newWebTestServerWith(t *testing.T, cfg factory.TestConfig) *webTestServer {
	t.Helper()

	backend := testutil.NewBackend(t)
	backend.AddUser("alice", "secret", model.RolePlayer)
	backend.AddUser("root", "hunter2", model.RoleAdmin)

	cfg.BackendURL = backend.URL()
	app := factory.NewTestApp(cfg)

	return &webTestServer{
		t:       t,
		handler: app.Handler(),
		app:     app,
		backend: backend,
		cookies: newCookieJar(),
	}
}

// sibling returns a second frontend instance sharing this one's session cache
// and backend. Both instances see the same browser cookies.
func (ts *webTestServer) sibling() *webTestServer {
	ts.t.Helper()
	app := factory.NewTestApp(factory.TestConfig{
		BackendURL: ts.backend.URL(),
		Storage:    ts.app.Storage,
	})
	return &webTestServer{
		t:       ts.t,
		handler: app.Handler(),
		app:     app,
		backend: ts.backend,
		cookies: ts.cookies,
	}
}

// request makes an HTTP request and returns the response
func (ts *webTestServer) request(method, path string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	// Add cookies from jar
	ts.cookies.addTo(req)

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	// Extract Set-Cookie headers into jar
	ts.cookies.extract(rr)

	return rr
}

// get makes a GET request
func (ts *webTestServer) get(path string) *httptest.ResponseRecorder {
	return ts.request(http.MethodGet, path, nil)
}

// post makes a POST request with form data
func (ts *webTestServer) post(path string, form url.Values) *httptest.ResponseRecorder {
	return ts.request(http.MethodPost, path, form)
}

// parseHTML parses the response body as HTML
func parseHTML(r io.Reader) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		panic(err)
	}
	return doc
}

// cookieJar maintains cookies across requests (like a browser would)
type cookieJar struct {
	cookies map[string]*http.Cookie
}

func newCookieJar() *cookieJar {
	return &cookieJar{
		cookies: make(map[string]*http.Cookie),
	}
}

// addTo adds all cookies to the request
func (j *cookieJar) addTo(req *http.Request) {
	for _, cookie := range j.cookies {
		req.AddCookie(cookie)
	}
}

// extract extracts Set-Cookie headers from response
func (j *cookieJar) extract(rr *httptest.ResponseRecorder) {
	for _, cookie := range rr.Result().Cookies() {
		if cookie.MaxAge < 0 {
			// Cookie being deleted
			delete(j.cookies, cookie.Name)
		} else {
			j.cookies[cookie.Name] = cookie
		}
	}
}

// hasSession returns true if the session token cookie is set
func (j *cookieJar) hasSession() bool {
	_, ok := j.cookies[middleware.SessionCookieName]
	return ok
}

// sessionToken returns the session token cookie value
func (j *cookieJar) sessionToken() string {
	if c, ok := j.cookies[middleware.SessionCookieName]; ok {
		return c.Value
	}
	return ""
}

// setSession presents token as the session cookie, as a replayed or
// restored cookie would
func (j *cookieJar) setSession(token string) {
	j.cookies[middleware.SessionCookieName] = &http.Cookie{Name: middleware.SessionCookieName, Value: token}
}

// dropSession removes the session cookie without telling the server
func (j *cookieJar) dropSession() {
	delete(j.cookies, middleware.SessionCookieName)
}

// expiresSession reports whether rr tells the browser to delete the session cookie
func expiresSession(rr *httptest.ResponseRecorder) bool {
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == middleware.SessionCookieName && cookie.MaxAge < 0 {
			return true
		}
	}
	return false
}

// forgetContext drops the browser context cookie, as a browser restart would
// when the frontend has evicted the context
func (j *cookieJar) forgetContext() {
	delete(j.cookies, middleware.ContextCookieName)
}

// Helper functions for common test operations

// login signs in through the login form
func (ts *webTestServer) login(username, password string) {
	ts.t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	rr := ts.post("/login", form)
	require.Equal(ts.t, http.StatusSeeOther, rr.Code, "Expected redirect after login")
	require.True(ts.t, ts.cookies.hasSession(), "Expected session cookie to be set")
}

// followRedirect follows a redirect and returns the response
func (ts *webTestServer) followRedirect(rr *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	ts.t.Helper()
	location := rr.Header().Get("Location")
	require.NotEmpty(ts.t, location, "Expected Location header for redirect")
	return ts.get(location)
}

// Assertion helpers

// assertContainsElement asserts that the document contains an element matching the selector
func assertContainsElement(t *testing.T, doc *goquery.Document, selector string) {
	t.Helper()
	if doc.Find(selector).Length() == 0 {
		t.Errorf("Expected to find element matching %q, but none found", selector)
	}
}

// assertNotContainsElement asserts that the document does not contain an element matching the selector
func assertNotContainsElement(t *testing.T, doc *goquery.Document, selector string) {
	t.Helper()
	if doc.Find(selector).Length() > 0 {
		t.Errorf("Expected NOT to find element matching %q, but found %d", selector, doc.Find(selector).Length())
	}
}

// assertContainsText asserts that the element matching the selector contains the text
func assertContainsText(t *testing.T, doc *goquery.Document, selector, text string) {
	t.Helper()
	el := doc.Find(selector)
	if el.Length() == 0 {
		t.Errorf("Expected to find element matching %q, but none found", selector)
		return
	}
	if !strings.Contains(el.Text(), text) {
		t.Errorf("Expected element %q to contain %q, but got %q", selector, text, el.Text())
	}
}
