package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/mcoot/tournax/internal/api/middleware"
	"github.com/mcoot/tournax/internal/api/response"
	"github.com/mcoot/tournax/internal/apiclient"
	sharedmw "github.com/mcoot/tournax/internal/middleware"
	"github.com/mcoot/tournax/internal/model"
)

// ClientFactory builds a backend client bound to a session store
type ClientFactory func(store apiclient.SessionSource) *apiclient.Client

// LoginRequest is the body of POST /api/session
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionHandler exposes the browser context's session as JSON
type SessionHandler struct {
	clients ClientFactory
	logger  *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(clients ClientFactory, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		clients: clients,
		logger:  logger,
	}
}

// Get handles GET /api/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	store := sharedmw.GetStore(r.Context())
	if store == nil {
		WriteError(w, NewUnauthorizedError())
		return
	}

	response.JSON(w, http.StatusOK, response.SessionResponseFromState(store.Snapshot()))
}

// Login handles POST /api/session
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	store := sharedmw.GetStore(r.Context())
	if store == nil {
		WriteError(w, NewUnauthorizedError())
		return
	}

	if _, err := store.Login(r.Context(), model.Credentials{Username: req.Username, Password: req.Password}); err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionResponseFromState(store.Snapshot()))
}

// Logout handles DELETE /api/session
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if store := sharedmw.GetStore(r.Context()); store != nil {
		store.Logout(r.Context())
	}
	response.NoContent(w)
}

// Profile handles GET /api/session/profile.
// It fetches the signed-in user's backend record with the session's token.
func (h *SessionHandler) Profile(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	id, err := strconv.ParseInt(string(session.User.ID), 10, 64)
	if err != nil {
		WriteError(w, NewInvalidRequestError("user id is not numeric"))
		return
	}

	client := h.clients(sharedmw.GetStore(r.Context()))
	defer client.Close()

	profile, err := client.GetUser(r.Context(), id)
	if err != nil {
		h.logger.Warn("profile lookup failed",
			slog.String("user_id", string(session.User.ID)),
			slog.String("error", err.Error()),
		)
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, profile)
}
