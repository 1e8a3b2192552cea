package model

import "errors"

// Common errors used across the application
var (
	// Authentication errors
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrAuthTransport         = errors.New("authentication transport failure")
	ErrMalformedAuthResponse = errors.New("malformed authentication response")

	// Session errors
	ErrTokenRejected      = errors.New("session token rejected")
	ErrSessionNotReady    = errors.New("session not ready")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrNoPersistedSession = errors.New("no persisted session")
	ErrSessionExpired     = errors.New("session expired")
	ErrMalformedSession   = errors.New("malformed session")

	// Session cache errors
	ErrSessionNotFound = errors.New("session not found")
)
