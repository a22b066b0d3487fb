// Package token caches and refreshes the bearer token of an app id.
package token

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/esign/internal/domain/models"
	"github.com/turtacn/esign/internal/domain/service"
	"github.com/turtacn/esign/pkg/constants"
	"github.com/turtacn/esign/pkg/errors"
	"github.com/turtacn/esign/pkg/logger"
)

// Manager is the credential of one app id: its secret plus a cached bearer token.
// Lookups go to an in-process cache, then the optional shared store, then the token
// endpoint. Concurrent refreshes of the same app id share a single fetch.
type Manager struct {
	appID   string
	secret  string
	fetcher service.TokenFetcher
	store   service.TokenStore
	local   *cache.Cache
	group   singleflight.Group
	skew    time.Duration
	metrics service.Metrics
	logger  logger.Logger
	now     func() time.Time
}

// Option customizes a Manager.
type Option func(*Manager)

// WithStore shares tokens through store.
func WithStore(store service.TokenStore) Option {
	return func(m *Manager) { m.store = store }
}

// WithRefreshSkew treats tokens as expired skew before their real expiry.
func WithRefreshSkew(skew time.Duration) Option {
	return func(m *Manager) { m.skew = skew }
}

// WithMetrics records token endpoint fetches.
func WithMetrics(metrics service.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates the credential for appID.
func NewManager(appID, secret string, fetcher service.TokenFetcher, opts ...Option) *Manager {
	m := &Manager{
		appID:   appID,
		secret:  secret,
		fetcher: fetcher,
		local:   cache.New(constants.DefaultTokenTTL, 10*time.Minute),
		skew:    constants.DefaultTokenRefreshSkew,
		metrics: service.NewNoopMetrics(),
		logger:  logger.NewNoopLogger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AppID returns the application identifier.
func (m *Manager) AppID() string { return m.appID }

// Secret returns the signing secret.
func (m *Manager) Secret() string { return m.secret }

// Token returns the bearer token value.
func (m *Manager) Token(ctx context.Context, forceRefresh bool) (string, error) {
	token, err := m.AccessToken(ctx, forceRefresh)
	if err != nil {
		return "", err
	}
	return token.Value, nil
}

// AccessToken returns the full token record. forceRefresh skips both caches and
// rewrites them with the fetched token.
func (m *Manager) AccessToken(ctx context.Context, forceRefresh bool) (*models.AccessToken, error) {
	if !forceRefresh {
		if v, ok := m.local.Get(m.appID); ok {
			return v.(*models.AccessToken), nil
		}
	}

	key := "load"
	if forceRefresh {
		key = "refresh"
	}
	ch := m.group.DoChan(key, func() (interface{}, error) {
		// Detached so one caller's cancellation does not fail the callers sharing the fetch.
		return m.load(context.WithoutCancel(ctx), forceRefresh)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.AccessToken), nil
	}
}

// Invalidate drops the cached token from both caches.
func (m *Manager) Invalidate(ctx context.Context) error {
	m.local.Delete(m.appID)
	if m.store == nil {
		return nil
	}
	return m.store.Delete(ctx, m.appID)
}

func (m *Manager) load(ctx context.Context, forceRefresh bool) (*models.AccessToken, error) {
	if !forceRefresh {
		if v, ok := m.local.Get(m.appID); ok {
			return v.(*models.AccessToken), nil
		}
		if token := m.loadShared(ctx); token != nil {
			m.cacheLocal(token)
			return token, nil
		}
	}
	return m.refresh(ctx)
}

func (m *Manager) loadShared(ctx context.Context) *models.AccessToken {
	if m.store == nil {
		return nil
	}
	token, err := m.store.Load(ctx, m.appID)
	if err != nil {
		m.logger.Warn(ctx, "Shared token store unavailable, fetching a new token", logger.Fields{
			"app_id": m.appID,
			"error":  err.Error(),
		})
		return nil
	}
	if token.IsExpired(m.now(), m.skew) {
		return nil
	}
	return token
}

func (m *Manager) refresh(ctx context.Context) (*models.AccessToken, error) {
	start := m.now()
	token, err := m.fetcher.FetchToken(ctx, m.appID, m.secret)
	m.metrics.RecordTokenRefresh(err == nil, time.Since(start))
	if err != nil {
		m.logger.Error(ctx, "Failed to fetch access token", err, logger.Fields{"app_id": m.appID})
		if errors.IsTokenError(err) {
			return nil, err
		}
		return nil, errors.ErrToken(m.appID, err)
	}
	if token.AppID == "" {
		token.AppID = m.appID
	}

	m.cacheLocal(token)
	if m.store != nil {
		if err := m.store.Save(ctx, token); err != nil {
			m.logger.Warn(ctx, "Failed to share access token", logger.Fields{
				"app_id": m.appID,
				"error":  err.Error(),
			})
		}
	}

	m.logger.Info(ctx, "Access token refreshed", logger.Fields{
		"app_id":     m.appID,
		"expires_at": token.ExpiresAt,
	})
	return token, nil
}

func (m *Manager) cacheLocal(token *models.AccessToken) {
	if ttl := token.TTL(m.now(), m.skew); ttl > 0 {
		m.local.Set(m.appID, token, ttl)
		return
	}
	m.local.Delete(m.appID)
}

var _ service.TokenSource = (*Manager)(nil)
