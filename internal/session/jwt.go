package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpiry returns the exp claim of a JWT, or the zero time when the token
// is opaque or carries no exp. The signature is not checked; only the backend
// can verify it.
func tokenExpiry(token string) time.Time {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
