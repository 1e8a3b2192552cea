package factory

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tournax/internal/model"
	redisstorage "github.com/mcoot/tournax/internal/storage/redis"
	"github.com/mcoot/tournax/internal/testutil"
)

func TestNewRejectsUnknownStorage(t *testing.T) {
	_, err := New(Config{StorageType: "postgres"})
	assert.Error(t, err)
}

func TestNewRedisRequiresConfig(t *testing.T) {
	_, err := New(Config{StorageType: StorageTypeRedis})
	assert.ErrorContains(t, err, "RedisConfig")
}

func TestNewWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := redisstorage.DefaultConfig()
	cfg.URL = "redis://" + mr.Addr()

	app, err := New(Config{StorageType: StorageTypeRedis, RedisConfig: &cfg})
	require.NoError(t, err)
	assert.NoError(t, app.Close())
}

type IntegrationSuite struct {
	suite.Suite
	backend *testutil.Backend
	app     *TestApp
	ctx     context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.backend = testutil.NewBackend(s.T())
	s.backend.AddUser("alice", "secret", model.RolePlayer)
	s.app = NewTestApp(TestConfig{BackendURL: s.backend.URL()})
	s.ctx = context.Background()
}

func (s *IntegrationSuite) login(contextID string) string {
	bc, created := s.app.Registry.Acquire(contextID)
	s.Require().True(created)
	<-bc.StartRestore(s.ctx)

	sess, err := bc.Store.Login(s.ctx, model.Credentials{Username: "alice", Password: "secret"})
	s.Require().NoError(err)
	return sess.Token
}

// Test: a session issued in one browser context is restorable from its token
func (s *IntegrationSuite) TestSessionSurvivesNewContext() {
	token := s.login(s.app.MockRandom.ContextID())

	cached, err := s.app.Storage.GetSession(s.ctx, token)
	s.Require().NoError(err)
	s.Equal("alice", cached.User.Username)

	// Same browser after the frontend forgot its context
	bc, created := s.app.Registry.Acquire(s.app.MockRandom.ContextID())
	s.Require().True(created)
	bc.Persister.Seed(token)
	<-bc.StartRestore(s.ctx)

	state := bc.Store.Snapshot()
	s.Equal(model.StatusAuthenticated, state.Status)
	s.Equal(token, state.Token())
}

// Test: backend calls carry the current session token
func (s *IntegrationSuite) TestClientUsesSessionToken() {
	id := s.app.MockRandom.ContextID()
	token := s.login(id)
	bc, _ := s.app.Registry.Lookup(id)

	client := s.app.NewClient(bc.Store)
	defer client.Close()

	_, err := client.ListTournaments(s.ctx)
	s.Require().NoError(err)

	req, ok := s.backend.LastRequest("/api/tournament")
	s.Require().True(ok)
	s.Equal("Bearer "+token, req.Authorization)
}

// Test: a revoked token signs the context out and drops it from the cache
func (s *IntegrationSuite) TestRevokedTokenSignsOut() {
	id := s.app.MockRandom.ContextID()
	token := s.login(id)
	bc, _ := s.app.Registry.Lookup(id)
	s.backend.Revoke(token)

	client := s.app.NewClient(bc.Store)
	defer client.Close()

	_, err := client.ListTournaments(s.ctx)
	s.ErrorIs(err, model.ErrTokenRejected)
	s.Equal(model.StatusUnauthenticated, bc.Store.Snapshot().Status)

	_, err = s.app.Storage.GetSession(s.ctx, token)
	s.ErrorIs(err, model.ErrSessionNotFound)
}

// Test: logout clears the cached session
func (s *IntegrationSuite) TestLogoutClearsCache() {
	id := s.app.MockRandom.ContextID()
	token := s.login(id)
	bc, _ := s.app.Registry.Lookup(id)

	bc.Store.Logout(s.ctx)

	_, err := s.app.Storage.GetSession(s.ctx, token)
	s.ErrorIs(err, model.ErrSessionNotFound)
	s.Empty(bc.Persister.Token())
}

// Test: idle browser contexts are swept, active ones kept
func (s *IntegrationSuite) TestIdleContextsAreSwept() {
	idle := s.app.MockRandom.ContextID()
	active := s.app.MockRandom.ContextID()
	s.app.Registry.Acquire(idle)
	s.app.Registry.Acquire(active)

	s.app.MockClock.Advance(45 * time.Minute)
	s.app.Registry.Acquire(active)
	s.app.MockClock.Advance(30 * time.Minute)

	s.Equal(1, s.app.Registry.Sweep())
	_, ok := s.app.Registry.Lookup(idle)
	s.False(ok)
	_, ok = s.app.Registry.Lookup(active)
	s.True(ok)
}
