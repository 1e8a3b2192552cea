package storage

import (
	"context"
	"encoding/hex"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/mcoot/tournax/internal/model"
)

// Storage defines the interface for the server-side session cache.
// Entries are keyed by a fingerprint of the bearer token, never by the raw token.
type Storage interface {
	// SaveSession records an issued session. A ttl of zero applies the
	// implementation default (no expiry for memory, Config.SessionTTL for redis).
	SaveSession(ctx context.Context, session *model.Session, ttl time.Duration) error
	// GetSession returns the session for a token, or model.ErrSessionNotFound
	GetSession(ctx context.Context, token string) (*model.Session, error)
	// DeleteSession removes the session for a token. Deleting a missing session is not an error.
	DeleteSession(ctx context.Context, token string) error
}

// Fingerprint returns the hex-encoded BLAKE2b-256 digest of a token
func Fingerprint(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// EffectiveTTL caps ttl so an entry never outlives the token it describes.
// Returns a negative duration when the session has already expired.
func EffectiveTTL(session *model.Session, ttl time.Duration, now time.Time) time.Duration {
	if session.ExpiresAt.IsZero() {
		return ttl
	}
	remaining := session.ExpiresAt.Sub(now)
	if remaining <= 0 {
		return -1
	}
	if ttl == 0 || remaining < ttl {
		return remaining
	}
	return ttl
}
