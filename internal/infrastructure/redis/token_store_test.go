package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/esign/internal/config"
	"github.com/turtacn/esign/internal/domain/models"
	"github.com/turtacn/esign/internal/domain/service"
	"github.com/turtacn/esign/pkg/logger"
)

type TokenStoreTestSuite struct {
	suite.Suite
	mr     *miniredis.Miniredis
	client *redis.Client
	store  service.TokenStore
	ctx    context.Context
}

func (s *TokenStoreTestSuite) SetupTest() {
	var err error
	s.mr, err = miniredis.Run()
	s.Require().NoError(err)

	s.client = redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	s.store = NewTokenStore(s.client, "test:token:")
	s.ctx = context.Background()
}

func (s *TokenStoreTestSuite) TearDownTest() {
	_ = s.client.Close()
	s.mr.Close()
}

func TestTokenStoreTestSuite(t *testing.T) {
	suite.Run(t, new(TokenStoreTestSuite))
}

func (s *TokenStoreTestSuite) TestSaveAndLoad() {
	expiresAt := time.Now().Add(time.Hour).Truncate(time.Millisecond)
	token := &models.AccessToken{AppID: "app-1", Value: "tok-1", RefreshToken: "rt-1", ExpiresAt: expiresAt}

	s.Require().NoError(s.store.Save(s.ctx, token))
	s.True(s.mr.Exists("test:token:app-1"))

	ttl := s.mr.TTL("test:token:app-1")
	s.Greater(ttl, 59*time.Minute)
	s.LessOrEqual(ttl, time.Hour)

	loaded, err := s.store.Load(s.ctx, "app-1")
	s.Require().NoError(err)
	s.Require().NotNil(loaded)
	s.Equal("tok-1", loaded.Value)
	s.Equal("rt-1", loaded.RefreshToken)
	s.True(expiresAt.Equal(loaded.ExpiresAt))
}

func (s *TokenStoreTestSuite) TestLoadMiss() {
	loaded, err := s.store.Load(s.ctx, "nobody")
	s.NoError(err)
	s.Nil(loaded)
}

func (s *TokenStoreTestSuite) TestEntryExpiresWithToken() {
	token := &models.AccessToken{AppID: "app-1", Value: "tok-1", ExpiresAt: time.Now().Add(time.Minute)}
	s.Require().NoError(s.store.Save(s.ctx, token))

	s.mr.FastForward(2 * time.Minute)

	loaded, err := s.store.Load(s.ctx, "app-1")
	s.NoError(err)
	s.Nil(loaded)
}

func (s *TokenStoreTestSuite) TestSaveExpiredTokenIsSkipped() {
	token := &models.AccessToken{AppID: "app-1", Value: "tok-1", ExpiresAt: time.Now().Add(-time.Minute)}
	s.Require().NoError(s.store.Save(s.ctx, token))
	s.False(s.mr.Exists("test:token:app-1"))
}

func (s *TokenStoreTestSuite) TestCorruptEntryIsMiss() {
	s.Require().NoError(s.mr.Set("test:token:app-1", "{not json"))
	loaded, err := s.store.Load(s.ctx, "app-1")
	s.NoError(err)
	s.Nil(loaded)
}

func (s *TokenStoreTestSuite) TestDelete() {
	token := &models.AccessToken{AppID: "app-1", Value: "tok-1", ExpiresAt: time.Now().Add(time.Hour)}
	s.Require().NoError(s.store.Save(s.ctx, token))
	s.Require().NoError(s.store.Delete(s.ctx, "app-1"))
	s.False(s.mr.Exists("test:token:app-1"))
}

func (s *TokenStoreTestSuite) TestLoadError() {
	s.mr.SetError("LOADING")
	_, err := s.store.Load(s.ctx, "app-1")
	s.Error(err)
}

func (s *TokenStoreTestSuite) TestNewClient() {
	client, err := NewClient(s.ctx, &config.RedisConfig{Address: s.mr.Addr(), PoolSize: 2}, logger.NewNoopLogger())
	s.Require().NoError(err)
	defer client.Close()

	_, err = NewClient(s.ctx, &config.RedisConfig{}, logger.NewNoopLogger())
	s.Error(err)
}
