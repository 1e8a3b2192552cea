package guard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/tournax/internal/dependencies/mocks"
	"github.com/mcoot/tournax/internal/model"
	"github.com/mcoot/tournax/internal/services/auth"
	"github.com/mcoot/tournax/internal/session"
	"github.com/mcoot/tournax/internal/storage/memory"
	"github.com/mcoot/tournax/internal/testutil"
)

var (
	loading         = model.State{Status: model.StatusLoading}
	unauthenticated = model.State{Status: model.StatusUnauthenticated}
	authenticated   = model.State{
		Status: model.StatusAuthenticated,
		Session: &model.Session{
			Token: "tok",
			User:  model.AuthenticatedUser{ID: "1", Username: "alice", Role: model.RolePlayer},
		},
	}
)

func TestObserveLoadingShowsPlaceholder(t *testing.T) {
	g := New("/login")
	assert.Equal(t, Decision{Kind: Placeholder}, g.Observe(loading))
	assert.Equal(t, Decision{Kind: Placeholder}, g.Observe(loading))
}

func TestObserveAuthenticatedRenders(t *testing.T) {
	g := New("/login")
	assert.Equal(t, Decision{Kind: Render}, g.Observe(authenticated))
}

func TestObserveUnauthenticatedRedirectsOnce(t *testing.T) {
	g := New("/login")

	assert.Equal(t, Decision{Kind: Redirect, Location: "/login"}, g.Observe(unauthenticated))
	assert.Equal(t, Decision{Kind: Pending}, g.Observe(unauthenticated))
	assert.Equal(t, Decision{Kind: Pending}, g.Observe(unauthenticated))
}

func TestObserveRedirectsAgainAfterNewTransition(t *testing.T) {
	g := New("/login")

	assert.Equal(t, Redirect, g.Observe(unauthenticated).Kind)
	assert.Equal(t, Render, g.Observe(authenticated).Kind)
	assert.Equal(t, Redirect, g.Observe(unauthenticated).Kind)
}

func TestObserveLoadingToUnauthenticated(t *testing.T) {
	g := New("/login")

	assert.Equal(t, Placeholder, g.Observe(loading).Kind)
	assert.Equal(t, Redirect, g.Observe(unauthenticated).Kind)
}

type stubAuthenticator struct{ token string }

func (a stubAuthenticator) Authenticate(context.Context, model.Credentials) (*auth.Result, error) {
	return &auth.Result{
		User:  model.AuthenticatedUser{ID: "1", Username: "alice", Role: model.RolePlayer},
		Token: a.token,
	}, nil
}

func TestWatchIsReentrant(t *testing.T) {
	ctx := context.Background()
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	store := session.New(stubAuthenticator{token: "tok"}, session.NewCachePersister(memory.New(clk), 0, testutil.NopLogger()), clk, testutil.NopLogger())

	var decisions []Kind
	stop := New("/login").Watch(store, func(d Decision) { decisions = append(decisions, d.Kind) })

	store.Restore(ctx)
	_, err := store.Login(ctx, model.Credentials{Username: "alice", Password: "x"})
	require.NoError(t, err)
	store.Invalidate(ctx, "tok")
	store.Logout(ctx)
	_, err = store.Login(ctx, model.Credentials{Username: "alice", Password: "x"})
	require.NoError(t, err)
	store.Logout(ctx)

	stop()
	_, _ = store.Login(ctx, model.Credentials{Username: "alice", Password: "x"})

	assert.Equal(t, []Kind{Placeholder, Redirect, Render, Redirect, Render, Redirect}, decisions)
}

// lateSource reports a fixed snapshot while pushing newer states to subscribers
type lateSource struct {
	snapshot model.State
	fns      []func(model.State)
}

func (s *lateSource) Snapshot() model.State { return s.snapshot }

func (s *lateSource) Subscribe(fn func(model.State)) func() {
	s.fns = append(s.fns, fn)
	return func() {}
}

func (s *lateSource) push(st model.State) {
	for _, fn := range s.fns {
		fn(st)
	}
}

func TestWatchStatesPassesCommittedState(t *testing.T) {
	bob := model.State{
		Status:  model.StatusAuthenticated,
		Session: &model.Session{Token: "tok-2", User: model.AuthenticatedUser{ID: "2", Username: "bob"}},
	}
	src := &lateSource{snapshot: authenticated}

	var users []string
	var kinds []Kind
	New("/login").WatchStates(src, func(st model.State, d Decision) {
		kinds = append(kinds, d.Kind)
		if user := st.User(); user != nil {
			users = append(users, user.Username)
		}
	})
	src.push(bob)
	src.push(unauthenticated)

	assert.Equal(t, []string{"alice", "bob"}, users)
	assert.Equal(t, []Kind{Render, Render, Redirect}, kinds)
}
