package random

import (
	"github.com/google/uuid"
)

// Random provides identifier generation that can be mocked for testing
type Random interface {
	// ContextID returns a new, unguessable browser context identifier
	ContextID() string
}

// UUIDRandom implements Random using random (v4) UUIDs
type UUIDRandom struct{}

// New creates a new UUIDRandom
func New() *UUIDRandom {
	return &UUIDRandom{}
}

// ContextID returns a random UUID string
func (r *UUIDRandom) ContextID() string {
	return uuid.NewString()
}

// ValidContextID reports whether id has the shape produced by ContextID.
// Cookies carrying anything else are discarded and a fresh context is issued.
func ValidContextID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}
