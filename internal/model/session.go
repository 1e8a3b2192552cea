package model

import (
	"fmt"
	"time"
)

// SessionStatus describes how far session resolution has progressed
type SessionStatus int

const (
	StatusLoading SessionStatus = iota
	StatusAuthenticated
	StatusUnauthenticated
)

// String returns the lowercase name used in JSON and logs
func (s SessionStatus) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler
func (s SessionStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Session is the authenticated identity plus the bearer token for one browser context.
// Sessions are values; a new login produces a new Session rather than mutating one.
type Session struct {
	User      AuthenticatedUser `json:"user"`
	Token     string            `json:"token"`
	IssuedAt  time.Time         `json:"issued_at"`
	ExpiresAt time.Time         `json:"expires_at,omitzero"` // zero when the token carries no exp claim
}

// Validate rejects sessions missing any required field
func (s Session) Validate() error {
	if s.Token == "" {
		return fmt.Errorf("%w: missing token", ErrMalformedSession)
	}
	return s.User.Validate()
}

// ExpiredAt reports whether the session has expired at the given time
func (s Session) ExpiredAt(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// State is a consistent snapshot of a session store.
// Session is non-nil if and only if Status is StatusAuthenticated.
type State struct {
	Status  SessionStatus
	Session *Session
}

// Token returns the live bearer token, or "" when not authenticated
func (s State) Token() string {
	if s.Status != StatusAuthenticated || s.Session == nil {
		return ""
	}
	return s.Session.Token
}

// User returns the authenticated user, or nil when not authenticated
func (s State) User() *AuthenticatedUser {
	if s.Status != StatusAuthenticated || s.Session == nil {
		return nil
	}
	u := s.Session.User
	return &u
}
