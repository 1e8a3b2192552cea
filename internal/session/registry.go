package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/tournax/internal/dependencies/clock"
	"github.com/mcoot/tournax/internal/model"
)

// BrowserContext is the session state the web frontend keeps for one browser
type BrowserContext struct {
	ID        string
	Store     *Store
	Persister *CachePersister

	restoreOnce sync.Once
	restored    chan struct{}
	lastSeen    time.Time
}

// StartRestore resolves the store in the background, at most once per context.
// The returned channel is closed when restoration has finished.
func (bc *BrowserContext) StartRestore(ctx context.Context) <-chan struct{} {
	bc.restoreOnce.Do(func() {
		ctx = context.WithoutCancel(ctx)
		go func() {
			defer close(bc.restored)
			bc.Store.Restore(ctx)
		}()
	})
	return bc.restored
}

// Reconcile checks an existing context against the session token cookie the
// browser presented. The live session is ended when the browser no longer
// holds its token, the token has expired, or the shared cache dropped it.
// It reports whether the context must be rebuilt and restored from presented.
func (bc *BrowserContext) Reconcile(ctx context.Context, presented string) (rebuild bool) {
	st := bc.Store.Snapshot()
	switch st.Status {
	case model.StatusLoading:
		return false
	case model.StatusUnauthenticated:
		// A token this context already resolved is not retried.
		return presented != "" && presented != bc.Persister.Seeded()
	}

	live := st.Token()
	if presented != live {
		bc.Store.Invalidate(ctx, live)
		return presented != ""
	}
	if !bc.Store.ExpireIfDue(ctx) && !bc.Persister.Holds(ctx) {
		bc.Store.Invalidate(ctx, live)
	}
	return false
}

// ContextFactory builds the store and persister of a new browser context
type ContextFactory func(contextID string) (*Store, *CachePersister)

// Registry maps browser context ids to their session state
type Registry struct {
	newContext ContextFactory
	clock      clock.Clock
	idleTTL    time.Duration
	logger     *slog.Logger

	mu       sync.Mutex
	contexts map[string]*BrowserContext
}

// NewRegistry creates a registry. Contexts unused for idleTTL are evicted by Sweep.
func NewRegistry(newContext ContextFactory, clk clock.Clock, idleTTL time.Duration, logger *slog.Logger) *Registry {
	return &Registry{
		newContext: newContext,
		clock:      clk,
		idleTTL:    idleTTL,
		logger:     logger,
		contexts:   make(map[string]*BrowserContext),
	}
}

// Acquire returns the context for id, creating it if needed. created reports
// whether the context is new, in which case its store is still Loading.
func (r *Registry) Acquire(id string) (bc *BrowserContext, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	if bc, ok := r.contexts[id]; ok {
		bc.lastSeen = now
		return bc, false
	}

	return r.create(id, now), true
}

// Replace discards the context for id and returns a new one in the Loading state
func (r *Registry) Replace(id string) *BrowserContext {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.create(id, r.clock.Now())
}

func (r *Registry) create(id string, now time.Time) *BrowserContext {
	store, persister := r.newContext(id)
	bc := &BrowserContext{
		ID:        id,
		Store:     store,
		Persister: persister,
		restored:  make(chan struct{}),
		lastSeen:  now,
	}
	r.contexts[id] = bc
	return bc
}

// Lookup returns the context for id without creating or touching it
func (r *Registry) Lookup(id string) (*BrowserContext, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bc, ok := r.contexts[id]
	return bc, ok
}

// Len returns the number of live contexts
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.contexts)
}

// Sweep evicts contexts idle for longer than the idle TTL and returns how
// many were removed. Persisted sessions survive eviction.
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.clock.Now().Add(-r.idleTTL)
	removed := 0
	for id, bc := range r.contexts {
		if bc.lastSeen.Before(cutoff) {
			delete(r.contexts, id)
			removed++
		}
	}
	if removed > 0 {
		r.logger.Debug("evicted idle browser contexts", slog.Int("count", removed))
	}
	return removed
}

// Run sweeps at interval until ctx is cancelled
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
