package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/turtacn/esign/internal/domain/models"
)

// MockTransport is a mock implementation of service.Transport
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) result(args mock.Arguments) (*models.Response, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Response), args.Error(1)
}

func (m *MockTransport) Get(ctx context.Context, req *models.SignableRequest) (*models.Response, error) {
	return m.result(m.Called(ctx, req))
}

func (m *MockTransport) Post(ctx context.Context, req *models.SignableRequest) (*models.Response, error) {
	return m.result(m.Called(ctx, req))
}

func (m *MockTransport) Put(ctx context.Context, req *models.SignableRequest) (*models.Response, error) {
	return m.result(m.Called(ctx, req))
}

func (m *MockTransport) Delete(ctx context.Context, req *models.SignableRequest) (*models.Response, error) {
	return m.result(m.Called(ctx, req))
}
