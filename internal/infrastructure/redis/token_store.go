package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/esign/internal/domain/models"
	"github.com/turtacn/esign/internal/domain/service"
	"github.com/turtacn/esign/pkg/constants"
)

type tokenStore struct {
	rdb    redis.Cmdable
	prefix string
	now    func() time.Time
}

// NewTokenStore shares access tokens between processes. Entries expire with the token.
func NewTokenStore(rdb redis.Cmdable, prefix string) service.TokenStore {
	if prefix == "" {
		prefix = constants.DefaultTokenKeyPrefix
	}
	return &tokenStore{rdb: rdb, prefix: prefix, now: time.Now}
}

func (s *tokenStore) key(appID string) string { return fmt.Sprintf("%s%s", s.prefix, appID) }

func (s *tokenStore) Load(ctx context.Context, appID string) (*models.AccessToken, error) {
	raw, err := s.rdb.Get(ctx, s.key(appID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var token models.AccessToken
	if err := json.Unmarshal(raw, &token); err != nil {
		// A corrupt entry is a miss; the next Save overwrites it.
		return nil, nil
	}
	return &token, nil
}

func (s *tokenStore) Save(ctx context.Context, token *models.AccessToken) error {
	ttl := token.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(token.AppID), raw, ttl).Err()
}

func (s *tokenStore) Delete(ctx context.Context, appID string) error {
	return s.rdb.Del(ctx, s.key(appID)).Err()
}
