package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tournax/internal/dependencies/mocks"
	"github.com/mcoot/tournax/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	clock   *mocks.MockClock
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.SessionTTL = time.Hour

	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.storage = NewWithClient(client, cfg, s.clock)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) session(token string) *model.Session {
	return &model.Session{
		User: model.AuthenticatedUser{
			ID:       "7",
			Username: "bob",
			Email:    "bob@example.com",
			Role:     model.RolePlayer,
		},
		Token:    token,
		IssuedAt: s.clock.Now(),
	}
}

func (s *StorageSuite) TestSaveAndGetSession() {
	err := s.storage.SaveSession(s.ctx, s.session("tok-1"), 0)
	s.Require().NoError(err)

	got, err := s.storage.GetSession(s.ctx, "tok-1")
	s.Require().NoError(err)
	s.Equal("tok-1", got.Token)
	s.Equal(model.UserID("7"), got.User.ID)
	s.Equal(model.RolePlayer, got.User.Role)
}

func (s *StorageSuite) TestGetSessionNotFound() {
	_, err := s.storage.GetSession(s.ctx, "missing")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StorageSuite) TestDeleteSession() {
	_ = s.storage.SaveSession(s.ctx, s.session("tok-1"), 0)

	s.Require().NoError(s.storage.DeleteSession(s.ctx, "tok-1"))

	_, err := s.storage.GetSession(s.ctx, "tok-1")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StorageSuite) TestKeysNeverContainRawToken() {
	_ = s.storage.SaveSession(s.ctx, s.session("super-secret-token"), 0)

	for _, key := range s.mini.Keys() {
		s.NotContains(key, "super-secret-token")
		s.Contains(key, "tournax:session:")
	}
}

func (s *StorageSuite) TestDefaultTTLApplied() {
	_ = s.storage.SaveSession(s.ctx, s.session("tok-1"), 0)

	s.Equal(time.Hour, s.mini.TTL(sessionKey("tok-1")))
}

func (s *StorageSuite) TestTokenExpiryCapsTTL() {
	session := s.session("tok-1")
	session.ExpiresAt = s.clock.Now().Add(5 * time.Minute)
	_ = s.storage.SaveSession(s.ctx, session, 0)

	s.Equal(5*time.Minute, s.mini.TTL(sessionKey("tok-1")))

	s.mini.FastForward(5 * time.Minute)
	_, err := s.storage.GetSession(s.ctx, "tok-1")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StorageSuite) TestSavingExpiredSessionRemovesIt() {
	_ = s.storage.SaveSession(s.ctx, s.session("tok-1"), 0)

	expired := s.session("tok-1")
	expired.ExpiresAt = s.clock.Now().Add(-time.Minute)
	s.Require().NoError(s.storage.SaveSession(s.ctx, expired, 0))

	s.False(s.mini.Exists(sessionKey("tok-1")))
}
