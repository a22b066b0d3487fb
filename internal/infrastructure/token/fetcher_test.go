package token

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/esign/internal/domain/models"
	"github.com/turtacn/esign/internal/domain/service/mocks"
	"github.com/turtacn/esign/internal/infrastructure/crypto"
	"github.com/turtacn/esign/pkg/constants"
	"github.com/turtacn/esign/pkg/errors"
)

func TestHTTPFetcher_FetchToken(t *testing.T) {
	transport := new(mocks.MockTransport)
	var sent *models.SignableRequest
	transport.On("Get", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(*models.SignableRequest) }).
		Return(&models.Response{
			StatusCode: http.StatusOK,
			Body:       []byte(`{"code":0,"message":"成功","data":{"token":"tok-1","expiresIn":"1800000000000","refreshToken":"rt-1"}}`),
		}, nil).Once()

	fetcher := NewHTTPFetcher(transport)
	fetcher.now = func() time.Time { return time.UnixMilli(1700000000000) }

	token, err := fetcher.FetchToken(context.Background(), "app-1", "secret-1")
	require.NoError(t, err)
	assert.Equal(t, "app-1", token.AppID)
	assert.Equal(t, "tok-1", token.Value)
	assert.Equal(t, "rt-1", token.RefreshToken)
	assert.Equal(t, int64(1800000000000), token.ExpiresAt.UnixMilli())
	assert.Equal(t, int64(1700000000000), token.FetchedAt.UnixMilli())

	require.NotNil(t, sent)
	assert.Equal(t, "/v1/oauth2/access_token?appId=app-1&grantType=client_credentials", sent.URL)
	assert.Equal(t, "{}", sent.Header.Get(constants.HeaderContentMD5))
	plaintext := crypto.CanonicalString(models.MethodGet, "{}", sent.URL)
	assert.True(t, crypto.Verify(sent.Header.Get(constants.HeaderSignature), plaintext, "secret-1"))
	for _, values := range sent.Header {
		for _, v := range values {
			assert.NotContains(t, v, "secret-1")
		}
	}
}

func TestHTTPFetcher_Errors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		check func(t *testing.T, err error)
	}{
		{
			name: "domain error",
			body: `{"code":1435203,"message":"app not found"}`,
			check: func(t *testing.T, err error) {
				assert.True(t, errors.IsDomainError(err))
			},
		},
		{
			name: "empty body",
			body: ``,
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "empty body")
			},
		},
		{
			name: "missing token",
			body: `{"code":0,"data":{"expiresIn":"1800000000000"}}`,
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "no token")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(mocks.MockTransport)
			transport.On("Get", mock.Anything, mock.Anything).
				Return(&models.Response{StatusCode: http.StatusOK, Body: []byte(tt.body)}, nil).Once()

			_, err := NewHTTPFetcher(transport).FetchToken(context.Background(), "app-1", "secret-1")
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestParseExpiry(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"millisecond timestamp string", `"1700007200000"`, time.UnixMilli(1700007200000)},
		{"millisecond timestamp number", `1700007200000`, time.UnixMilli(1700007200000)},
		{"seconds from now", `7200`, now.Add(2 * time.Hour)},
		{"missing", ``, now.Add(constants.DefaultTokenTTL)},
		{"garbage", `"soon"`, now.Add(constants.DefaultTokenTTL)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(parseExpiry(json.RawMessage(tt.raw), now)))
		})
	}
}
