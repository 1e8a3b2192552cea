package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mcoot/tournax/internal/model"
)

// RecordedRequest captures what the fake backend received
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
}

type backendUser struct {
	id       int64
	username string
	password string
	email    string
	userType string
}

// Backend is an in-process fake of the tournament backend.
// It issues HS256 JWTs on login and rejects protected calls with 401 unless
// they carry a valid, unrevoked bearer token.
type Backend struct {
	t      *testing.T
	server *httptest.Server
	secret []byte

	mu          sync.Mutex
	users       map[string]*backendUser
	revoked     map[string]bool
	requests    []RecordedRequest
	tournaments map[int64]model.Tournament
	matches     map[int64]model.Match
	nextID      int64
	loginStatus int
	tokenTTL    time.Duration
}

// NewBackend starts a fake backend that is closed when the test ends
func NewBackend(t *testing.T) *Backend {
	t.Helper()

	b := &Backend{
		t:           t,
		secret:      []byte("test-secret"),
		users:       make(map[string]*backendUser),
		revoked:     make(map[string]bool),
		tournaments: make(map[int64]model.Tournament),
		matches:     make(map[int64]model.Match),
		nextID:      100,
		tokenTTL:    time.Hour,
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/auth/login", b.login).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(b.requireBearer)
	api.HandleFunc("/user/{id}", b.getUser).Methods(http.MethodGet)
	api.HandleFunc("/tournament", b.listTournaments).Methods(http.MethodGet)
	api.HandleFunc("/tournament", b.createTournament).Methods(http.MethodPost)
	api.HandleFunc("/tournament/match", b.updateMatch).Methods(http.MethodPut)
	api.HandleFunc("/tournament/match/{id}", b.getMatch).Methods(http.MethodGet)
	api.HandleFunc("/tournament/{id}", b.getTournament).Methods(http.MethodGet)
	api.HandleFunc("/tournament/{id}", b.updateTournament).Methods(http.MethodPut)
	api.HandleFunc("/match/player/{id}", b.playerMatches).Methods(http.MethodGet)
	api.HandleFunc("/elo-records/player/{id}", b.eloRecords).Methods(http.MethodGet)
	api.HandleFunc("/player-stats/player/{id}", b.playerStats).Methods(http.MethodGet)

	b.server = httptest.NewServer(b.record(r))
	t.Cleanup(b.server.Close)
	return b
}

// URL returns the backend base URL
func (b *Backend) URL() string {
	return b.server.URL
}

// AddUser registers a user the backend will accept at login and returns its id
func (b *Backend) AddUser(username, password string, role model.Role) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.users[username] = &backendUser{
		id:       b.nextID,
		username: username,
		password: password,
		email:    username + "@example.com",
		userType: role.WireValue(),
	}
	return b.nextID
}

// AddTournament seeds a tournament and returns it with its assigned id
func (b *Backend) AddTournament(t model.Tournament) model.Tournament {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	t.ID = b.nextID
	b.tournaments[t.ID] = t
	return t
}

// AddMatch seeds a match and returns it with its assigned id
func (b *Backend) AddMatch(m model.Match) model.Match {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	m.ID = b.nextID
	b.matches[m.ID] = m
	return m
}

// Match returns the stored state of a match
func (b *Backend) Match(id int64) (model.Match, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.matches[id]
	return m, ok
}

// SetLoginStatus forces the login endpoint to answer with status (0 restores normal behavior)
func (b *Backend) SetLoginStatus(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loginStatus = status
}

// SetTokenTTL changes the lifetime of tokens issued from now on
func (b *Backend) SetTokenTTL(ttl time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokenTTL = ttl
}

// Revoke makes the backend reject a previously issued token
func (b *Backend) Revoke(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[token] = true
}

// Requests returns the requests received so far
func (b *Backend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]RecordedRequest, len(b.requests))
	copy(out, b.requests)
	return out
}

// LastRequest returns the most recent request whose path starts with prefix
func (b *Backend) LastRequest(prefix string) (RecordedRequest, bool) {
	reqs := b.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if strings.HasPrefix(reqs[i].Path, prefix) {
			return reqs[i], true
		}
	}
	return RecordedRequest{}, false
}

// IssueToken signs a token for username expiring at exp
func (b *Backend) IssueToken(username string, exp time.Time) string {
	b.t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
	if err != nil {
		b.t.Fatalf("sign token: %v", err)
	}
	return token
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
		})
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad request"})
		return
	}

	b.mu.Lock()
	status := b.loginStatus
	user, ok := b.users[req.Username]
	ttl := b.tokenTTL
	b.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}
	if !ok || user.password != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"id":       user.id,
			"username": user.username,
			"email":    user.email,
			"userType": user.userType,
		},
		"jwt": b.IssueToken(user.username, time.Now().Add(ttl)),
	})
}

func (b *Backend) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		b.mu.Lock()
		revoked := b.revoked[raw]
		b.mu.Unlock()
		if revoked {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		_, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
			return b.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (b *Backend) getUser(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range b.users {
		if u.id == id {
			writeJSON(w, http.StatusOK, model.UserProfile{
				ID:       u.id,
				Username: u.username,
				Email:    u.email,
				UserType: u.userType,
			})
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (b *Backend) listTournaments(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Tournament, 0, len(b.tournaments))
	for _, t := range b.tournaments {
		out = append(out, t)
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) getTournament(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tournaments[pathID(r)]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (b *Backend) createTournament(w http.ResponseWriter, r *http.Request) {
	var in model.TournamentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	t := b.AddTournament(model.Tournament{
		Name:         in.Name,
		StartDate:    in.StartDate,
		Location:     in.Location,
		MinEloRating: in.MinEloRating,
		MaxEloRating: in.MaxEloRating,
		Format:       in.Format,
		Description:  in.Description,
	})
	writeJSON(w, http.StatusCreated, t)
}

func (b *Backend) updateTournament(w http.ResponseWriter, r *http.Request) {
	var in model.TournamentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tournaments[pathID(r)]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	t.Name = in.Name
	t.StartDate = in.StartDate
	t.Location = in.Location
	t.MinEloRating = in.MinEloRating
	t.MaxEloRating = in.MaxEloRating
	t.Description = in.Description
	b.tournaments[t.ID] = t
	writeJSON(w, http.StatusOK, t)
}

func (b *Backend) getMatch(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.matches[pathID(r)]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (b *Backend) updateMatch(w http.ResponseWriter, r *http.Request) {
	var in model.MatchResult
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.matches[in.ID]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	m.Status = in.Status
	m.Player1Score = in.Player1Score
	m.Player2Score = in.Player2Score
	b.matches[m.ID] = m
	writeJSON(w, http.StatusOK, m)
}

func (b *Backend) playerMatches(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Match, 0)
	for _, m := range b.matches {
		if m.Player1.ID == id || m.Player2.ID == id {
			out = append(out, m)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) eloRecords(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, []model.EloRecord{
		{ID: 1, OldRating: 1200, NewRating: 1216, Change: 16},
	})
}

func (b *Backend) playerStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, []model.PlayerStats{
		{ID: pathID(r), Punches: 42, KOs: 3, Dodges: 17},
	})
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
