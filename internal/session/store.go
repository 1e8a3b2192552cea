// Package session owns the authenticated session of a browser context.
//
// A Store is the single writer of the session and its status. Readers take
// consistent snapshots without blocking; writers are serialized and observers
// are notified after each commit, outside the lock, in commit order.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mcoot/tournax/internal/dependencies/clock"
	"github.com/mcoot/tournax/internal/model"
	"github.com/mcoot/tournax/internal/services/auth"
)

// Authenticator exchanges credentials for an identity and token
type Authenticator interface {
	Authenticate(ctx context.Context, creds model.Credentials) (*auth.Result, error)
}

// Persister durably stores the session of one browser context
type Persister interface {
	// Load returns model.ErrNoPersistedSession when nothing is stored
	Load(ctx context.Context) (*model.Session, error)
	Save(ctx context.Context, session *model.Session) error
	Clear(ctx context.Context) error
}

// Store holds the session state of one browser context
type Store struct {
	authenticator Authenticator
	persister     Persister
	clock         clock.Clock
	logger        *slog.Logger

	state atomic.Pointer[model.State]

	mu          sync.Mutex // guards writes, subscribers and the notification queue
	subscribers map[int]func(model.State)
	nextSubID   int
	pending     []model.State
	dispatching bool
}

// New creates a Store in the Loading state
func New(authenticator Authenticator, persister Persister, clk clock.Clock, logger *slog.Logger) *Store {
	s := &Store{
		authenticator: authenticator,
		persister:     persister,
		clock:         clk,
		logger:        logger,
		subscribers:   make(map[int]func(model.State)),
	}
	s.state.Store(&model.State{Status: model.StatusLoading})
	return s
}

// Snapshot returns the current state. It never blocks on I/O.
func (s *Store) Snapshot() model.State {
	return *s.state.Load()
}

// RequireSession returns the live session, model.ErrSessionNotReady while the
// status is still being resolved, or model.ErrNotAuthenticated.
func (s *Store) RequireSession() (*model.Session, error) {
	st := s.Snapshot()
	switch st.Status {
	case model.StatusLoading:
		return nil, model.ErrSessionNotReady
	case model.StatusAuthenticated:
		sess := *st.Session
		return &sess, nil
	default:
		return nil, model.ErrNotAuthenticated
	}
}

// Login authenticates the credentials and replaces any existing session with
// a new one. On failure an existing session is left untouched and a Loading
// store resolves to Unauthenticated.
func (s *Store) Login(ctx context.Context, creds model.Credentials) (model.Session, error) {
	result, err := s.authenticator.Authenticate(ctx, creds)
	if err != nil {
		s.mu.Lock()
		if s.Snapshot().Status == model.StatusLoading {
			s.commit(model.State{Status: model.StatusUnauthenticated})
		}
		s.mu.Unlock()
		s.flush()
		return model.Session{}, err
	}

	sess := &model.Session{
		User:      result.User,
		Token:     result.Token,
		IssuedAt:  s.clock.Now(),
		ExpiresAt: tokenExpiry(result.Token),
	}

	s.mu.Lock()
	if err := s.persister.Save(ctx, sess); err != nil {
		s.logger.Error("failed to persist session",
			slog.String("user_id", string(sess.User.ID)),
			slog.String("error", err.Error()),
		)
	}
	s.commit(model.State{Status: model.StatusAuthenticated, Session: sess})
	s.mu.Unlock()
	s.flush()

	s.logger.Info("session established",
		slog.String("user_id", string(sess.User.ID)),
		slog.String("role", string(sess.User.Role)),
	)
	return *sess, nil
}

// Restore resolves a Loading store from persisted state. Stores that already
// left Loading are returned unchanged. Invalid or expired persisted sessions
// are cleared; a session that could not be read is left in place.
func (s *Store) Restore(ctx context.Context) model.State {
	s.mu.Lock()
	if s.Snapshot().Status != model.StatusLoading {
		s.mu.Unlock()
		return s.Snapshot()
	}

	next := model.State{Status: model.StatusUnauthenticated}
	sess, err := s.loadValid(ctx)
	switch {
	case err == nil:
		next = model.State{Status: model.StatusAuthenticated, Session: sess}
	case errors.Is(err, model.ErrNoPersistedSession):
	case errors.Is(err, model.ErrMalformedSession), errors.Is(err, model.ErrSessionExpired):
		s.logger.Info("discarding persisted session", slog.String("reason", err.Error()))
		if err := s.persister.Clear(ctx); err != nil {
			s.logger.Error("failed to clear persisted session", slog.String("error", err.Error()))
		}
	default:
		// Storage failure: the persisted session may still be valid, keep it.
		s.logger.Warn("could not load persisted session", slog.String("error", err.Error()))
	}
	s.commit(next)
	s.mu.Unlock()
	s.flush()

	return next
}

func (s *Store) loadValid(ctx context.Context) (*model.Session, error) {
	sess, err := s.persister.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	if sess.ExpiresAt.IsZero() {
		sess.ExpiresAt = tokenExpiry(sess.Token)
	}
	if sess.ExpiredAt(s.clock.Now()) {
		return nil, model.ErrSessionExpired
	}
	return sess, nil
}

// Logout ends the session and clears persisted state. It is idempotent.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	if err := s.persister.Clear(ctx); err != nil {
		s.logger.Error("failed to clear persisted session", slog.String("error", err.Error()))
	}
	if s.Snapshot().Status != model.StatusUnauthenticated {
		s.commit(model.State{Status: model.StatusUnauthenticated})
	}
	s.mu.Unlock()
	s.flush()
}

// ExpireIfDue ends the live session through Invalidate once its token has
// expired, and reports whether it did.
func (s *Store) ExpireIfDue(ctx context.Context) bool {
	st := s.Snapshot()
	if st.Status != model.StatusAuthenticated || !st.Session.ExpiredAt(s.clock.Now()) {
		return false
	}
	return s.Invalidate(ctx, st.Session.Token)
}

// Invalidate ends the session after token was rejected by the backend or
// found stale. Any token other than the live one is ignored.
func (s *Store) Invalidate(ctx context.Context, token string) bool {
	s.mu.Lock()
	live := s.Snapshot().Token()
	if live == "" || live != token {
		s.mu.Unlock()
		return false
	}
	if err := s.persister.Clear(ctx); err != nil {
		s.logger.Error("failed to clear persisted session", slog.String("error", err.Error()))
	}
	s.commit(model.State{Status: model.StatusUnauthenticated})
	s.mu.Unlock()
	s.flush()

	s.logger.Info("session invalidated")
	return true
}

// Subscribe registers fn to be called with every committed state. The
// returned function removes the subscription and may be called more than once.
func (s *Store) Subscribe(fn func(model.State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
		})
	}
}

// commit publishes next. Callers hold s.mu and call flush after unlocking.
func (s *Store) commit(next model.State) {
	s.state.Store(&next)
	s.pending = append(s.pending, next)
}

// flush delivers queued notifications. Writes made by a subscriber are
// queued and delivered by the goroutine already dispatching, preserving order.
func (s *Store) flush() {
	s.mu.Lock()
	if s.dispatching {
		s.mu.Unlock()
		return
	}
	s.dispatching = true
	for len(s.pending) > 0 {
		batch := s.pending
		s.pending = nil
		subs := make([]func(model.State), 0, len(s.subscribers))
		for _, fn := range s.subscribers {
			subs = append(subs, fn)
		}
		s.mu.Unlock()

		for _, st := range batch {
			for _, fn := range subs {
				fn(st)
			}
		}

		s.mu.Lock()
	}
	s.dispatching = false
	s.mu.Unlock()
}
