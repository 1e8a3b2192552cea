package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mcoot/tournax/internal/dependencies/clock"
	"github.com/mcoot/tournax/internal/model"
	"github.com/mcoot/tournax/internal/storage"
)

type entry struct {
	session   model.Session
	expiresAt time.Time // zero means no expiry
}

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu    sync.RWMutex
	clock clock.Clock

	sessions map[string]entry
}

// New creates a new in-memory storage instance
func New(clk clock.Clock) *Storage {
	return &Storage{
		clock:    clk,
		sessions: make(map[string]entry),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) SaveSession(ctx context.Context, session *model.Session, ttl time.Duration) error {
	now := s.clock.Now()
	ttl = storage.EffectiveTTL(session, ttl, now)
	key := storage.Fingerprint(session.Token)

	s.mu.Lock()
	defer s.mu.Unlock()

	if ttl < 0 {
		delete(s.sessions, key)
		return nil
	}

	e := entry{session: *session}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	s.sessions[key] = e
	return nil
}

func (s *Storage) GetSession(ctx context.Context, token string) (*model.Session, error) {
	key := storage.Fingerprint(token)

	s.mu.RLock()
	e, ok := s.sessions[key]
	s.mu.RUnlock()

	if !ok {
		return nil, model.ErrSessionNotFound
	}
	if !e.expiresAt.IsZero() && !s.clock.Now().Before(e.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, key)
		s.mu.Unlock()
		return nil, model.ErrSessionNotFound
	}

	session := e.session
	return &session, nil
}

func (s *Storage) DeleteSession(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, storage.Fingerprint(token))
	return nil
}

// Len returns the number of cached sessions, including expired ones not yet evicted
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
