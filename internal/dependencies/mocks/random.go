package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/tournax/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing.
// It hands out deterministic UUID-shaped context ids.
type MockRandom struct {
	mu   sync.Mutex
	next int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// ContextID returns the next deterministic id
func (r *MockRandom) ContextID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", r.next)
}
