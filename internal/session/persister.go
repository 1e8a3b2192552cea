package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mcoot/tournax/internal/model"
	"github.com/mcoot/tournax/internal/storage"
)

// CachePersister keeps sessions in a server-side cache keyed by token.
// The browser only holds the token (in a cookie); Token reports the value the
// cookie should carry after the last write.
type CachePersister struct {
	cache  storage.Storage
	ttl    time.Duration
	logger *slog.Logger

	mu     sync.Mutex
	token  string
	seeded string
}

// NewCachePersister creates a persister over cache. A zero ttl applies the
// cache default.
func NewCachePersister(cache storage.Storage, ttl time.Duration, logger *slog.Logger) *CachePersister {
	return &CachePersister{cache: cache, ttl: ttl, logger: logger}
}

// Seed sets the token presented by the browser, before the first Load
func (p *CachePersister) Seed(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = token
	p.seeded = token
}

// Seeded returns the token the browser presented when the persister was seeded
func (p *CachePersister) Seeded() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seeded
}

// Token returns the currently persisted token, or "" when cleared
func (p *CachePersister) Token() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.token
}

func (p *CachePersister) Load(ctx context.Context) (*model.Session, error) {
	token := p.Token()
	if token == "" {
		return nil, model.ErrNoPersistedSession
	}

	sess, err := p.cache.GetSession(ctx, token)
	if errors.Is(err, model.ErrSessionNotFound) {
		// The browser still presents a token the cache no longer knows.
		return nil, fmt.Errorf("%w: unknown token", model.ErrMalformedSession)
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Holds reports whether the cache still has a session for the current token.
// Cache failures count as held; only a confirmed miss ends a session.
func (p *CachePersister) Holds(ctx context.Context) bool {
	token := p.Token()
	if token == "" {
		return false
	}
	_, err := p.cache.GetSession(ctx, token)
	if err != nil && !errors.Is(err, model.ErrSessionNotFound) {
		p.logger.Warn("session cache lookup failed", slog.String("error", err.Error()))
		return true
	}
	return err == nil
}

func (p *CachePersister) Save(ctx context.Context, session *model.Session) error {
	p.mu.Lock()
	previous := p.token
	p.token = session.Token
	p.mu.Unlock()

	if previous != "" && previous != session.Token {
		if err := p.cache.DeleteSession(ctx, previous); err != nil {
			p.logger.Warn("failed to drop replaced session from cache", slog.String("error", err.Error()))
		}
	}
	return p.cache.SaveSession(ctx, session, p.ttl)
}

func (p *CachePersister) Clear(ctx context.Context) error {
	p.mu.Lock()
	token := p.token
	p.token = ""
	p.mu.Unlock()

	if token == "" {
		return nil
	}
	return p.cache.DeleteSession(ctx, token)
}

// FilePersister stores the session as JSON in a single file readable only by
// the owner.
type FilePersister struct {
	path string
}

// NewFilePersister creates a persister writing to path
func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

// Path returns the session file location
func (p *FilePersister) Path() string {
	return p.path
}

func (p *FilePersister) Load(_ context.Context) (*model.Session, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.ErrNoPersistedSession
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrMalformedSession, err)
	}
	return &sess, nil
}

func (p *FilePersister) Save(_ context.Context, session *model.Session) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p.path)
}

func (p *FilePersister) Clear(_ context.Context) error {
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
