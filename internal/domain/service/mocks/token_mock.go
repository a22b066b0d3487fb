package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/turtacn/esign/internal/domain/models"
)

// MockTokenSource is a mock implementation of service.TokenSource
type MockTokenSource struct {
	mock.Mock
}

func (m *MockTokenSource) AppID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockTokenSource) Secret() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockTokenSource) Token(ctx context.Context, forceRefresh bool) (string, error) {
	args := m.Called(ctx, forceRefresh)
	return args.String(0), args.Error(1)
}

// MockTokenFetcher is a mock implementation of service.TokenFetcher
type MockTokenFetcher struct {
	mock.Mock
}

func (m *MockTokenFetcher) FetchToken(ctx context.Context, appID, secret string) (*models.AccessToken, error) {
	args := m.Called(ctx, appID, secret)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccessToken), args.Error(1)
}

// MockSecretProvider is a mock implementation of service.SecretProvider
type MockSecretProvider struct {
	mock.Mock
}

func (m *MockSecretProvider) GetSecret(ctx context.Context, appID string) (string, error) {
	args := m.Called(ctx, appID)
	return args.String(0), args.Error(1)
}
