package model

import "fmt"

// UserID identifies a user on the tournament backend
type UserID string

// Role is the authorization role of an authenticated user
type Role string

const (
	RoleAdmin  Role = "Admin"
	RolePlayer Role = "Player"
)

// Backend wire values for Role
const (
	wireRoleAdmin = "ROLE_ADMIN"
	wireRoleUser  = "ROLE_USER"
)

// ParseRole converts a backend user type into a Role
func ParseRole(userType string) (Role, error) {
	switch userType {
	case wireRoleAdmin, string(RoleAdmin):
		return RoleAdmin, nil
	case wireRoleUser, string(RolePlayer):
		return RolePlayer, nil
	default:
		return "", fmt.Errorf("%w: unknown user type %q", ErrMalformedSession, userType)
	}
}

// WireValue returns the backend representation of the role
func (r Role) WireValue() string {
	if r == RoleAdmin {
		return wireRoleAdmin
	}
	return wireRoleUser
}

// IsAdmin reports whether the role may manage tournaments
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// Credentials is a username/password pair submitted for a single login attempt.
// It is never persisted.
type Credentials struct {
	Username string
	Password string
}

// AuthenticatedUser is the identity issued by the backend on a successful login
type AuthenticatedUser struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// Validate checks that all required fields are present
func (u AuthenticatedUser) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("%w: missing user id", ErrMalformedSession)
	}
	if u.Username == "" {
		return fmt.Errorf("%w: missing username", ErrMalformedSession)
	}
	if u.Role != RoleAdmin && u.Role != RolePlayer {
		return fmt.Errorf("%w: invalid role %q", ErrMalformedSession, u.Role)
	}
	return nil
}
