package response

import (
	"time"

	"github.com/mcoot/tournax/internal/model"
)

// UserResponse is the public view of an authenticated user
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// SessionResponse describes the session of the caller's browser context.
// The token itself is never exposed.
type SessionResponse struct {
	Status    string        `json:"status"`
	User      *UserResponse `json:"user,omitempty"`
	ExpiresAt *time.Time    `json:"expires_at,omitempty"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status   string `json:"status"`
	Contexts int    `json:"contexts"`
}

// UserResponseFromModel converts an AuthenticatedUser
func UserResponseFromModel(u model.AuthenticatedUser) *UserResponse {
	return &UserResponse{
		ID:       string(u.ID),
		Username: u.Username,
		Email:    u.Email,
		Role:     string(u.Role),
	}
}

// SessionResponseFromState converts a store snapshot
func SessionResponseFromState(state model.State) SessionResponse {
	resp := SessionResponse{Status: state.Status.String()}
	if state.Status != model.StatusAuthenticated || state.Session == nil {
		return resp
	}
	resp.User = UserResponseFromModel(state.Session.User)
	if !state.Session.ExpiresAt.IsZero() {
		exp := state.Session.ExpiresAt
		resp.ExpiresAt = &exp
	}
	return resp
}
