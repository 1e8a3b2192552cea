// Package guard decides what a protected view shows for a session status.
//
// A Guard is mounted for the lifetime of a view. While the status is loading
// it asks for a placeholder, once authenticated it renders, and each time the
// session becomes unauthenticated it asks for exactly one redirect to the
// login path. Further observations of the same unauthenticated state are
// Pending: the redirect is already under way.
package guard

import (
	"sync"

	"github.com/mcoot/tournax/internal/model"
)

// Kind enumerates guard decisions
type Kind int

const (
	Placeholder Kind = iota
	Render
	Redirect
	Pending
)

func (k Kind) String() string {
	switch k {
	case Placeholder:
		return "placeholder"
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	case Pending:
		return "pending"
	}
	return "unknown"
}

// Decision is the outcome of one observation
type Decision struct {
	Kind Kind
	// Location is set for Redirect
	Location string
}

// Source is the view of a session store a guard watches
type Source interface {
	Snapshot() model.State
	Subscribe(fn func(model.State)) (unsubscribe func())
}

// Guard is the per-view state machine
type Guard struct {
	loginPath string

	mu         sync.Mutex
	redirected bool
}

// New creates a guard redirecting to loginPath
func New(loginPath string) *Guard {
	return &Guard{loginPath: loginPath}
}

// Observe feeds one session state through the guard
func (g *Guard) Observe(st model.State) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch st.Status {
	case model.StatusAuthenticated:
		g.redirected = false
		return Decision{Kind: Render}
	case model.StatusUnauthenticated:
		if g.redirected {
			return Decision{Kind: Pending}
		}
		g.redirected = true
		return Decision{Kind: Redirect, Location: g.loginPath}
	default:
		g.redirected = false
		return Decision{Kind: Placeholder}
	}
}

// Watch evaluates the current state and every later change, passing each
// decision to fn. It keeps running until stop is called.
func (g *Guard) Watch(src Source, fn func(Decision)) (stop func()) {
	return g.WatchStates(src, func(_ model.State, d Decision) { fn(d) })
}

// WatchStates is Watch, also passing the state each decision was made from
func (g *Guard) WatchStates(src Source, fn func(model.State, Decision)) (stop func()) {
	unsubscribe := src.Subscribe(func(st model.State) {
		fn(st, g.Observe(st))
	})
	st := src.Snapshot()
	fn(st, g.Observe(st))
	return unsubscribe
}
