package service

import (
	"context"

	"github.com/turtacn/esign/internal/domain/models"
)

//go:generate mockery --name Transport --output mocks --outpkg mocks
// Transport performs one HTTP exchange per call. Implementations return an error only
// when no response was received; non-2xx statuses come back as a Response.
// Transport 对每次调用执行一次 HTTP 交换。
type Transport interface {
	Get(ctx context.Context, req *models.SignableRequest) (*models.Response, error)
	Post(ctx context.Context, req *models.SignableRequest) (*models.Response, error)
	Put(ctx context.Context, req *models.SignableRequest) (*models.Response, error)
	Delete(ctx context.Context, req *models.SignableRequest) (*models.Response, error)
}

//go:generate mockery --name TokenSource --output mocks --outpkg mocks
// TokenSource is the credential the pipeline signs with and refreshes on expiry.
// TokenSource 是流水线用于签名并在过期时刷新的凭据。
type TokenSource interface {
	// AppID returns the application identifier.
	AppID() string

	// Secret returns the signing secret. It is never sent over the wire.
	Secret() string

	// Token returns the cached bearer token, fetching a new one when the cache is empty
	// or forceRefresh is set. Concurrent callers share a single fetch.
	// Token 返回缓存的令牌；缓存为空或 forceRefresh 时获取新令牌。
	Token(ctx context.Context, forceRefresh bool) (string, error)
}

//go:generate mockery --name TokenFetcher --output mocks --outpkg mocks
// TokenFetcher obtains a new token from the remote token endpoint.
type TokenFetcher interface {
	FetchToken(ctx context.Context, appID, secret string) (*models.AccessToken, error)
}

// TokenStore shares tokens between processes. Load returns (nil, nil) on a miss.
// TokenStore 在多个进程之间共享令牌。
type TokenStore interface {
	Load(ctx context.Context, appID string) (*models.AccessToken, error)
	Save(ctx context.Context, token *models.AccessToken) error
	Delete(ctx context.Context, appID string) error
}

//go:generate mockery --name SecretProvider --output mocks --outpkg mocks
// SecretProvider resolves the signing secret of an app id.
type SecretProvider interface {
	GetSecret(ctx context.Context, appID string) (string, error)
}
