package token

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/turtacn/esign/internal/decoder"
	"github.com/turtacn/esign/internal/domain/models"
	"github.com/turtacn/esign/internal/domain/service"
	"github.com/turtacn/esign/internal/infrastructure/crypto"
	"github.com/turtacn/esign/pkg/constants"
)

// tokenData is the data payload of the token endpoint.
type tokenData struct {
	Token        string          `json:"token"`
	ExpiresIn    json.RawMessage `json:"expiresIn"`
	RefreshToken string          `json:"refreshToken"`
}

// HTTPFetcher obtains tokens from the open API token endpoint. The request is signed
// like any other call; the secret itself is never sent.
type HTTPFetcher struct {
	transport service.Transport
	now       func() time.Time
}

// NewHTTPFetcher creates a fetcher over transport.
func NewHTTPFetcher(transport service.Transport) *HTTPFetcher {
	return &HTTPFetcher{transport: transport, now: time.Now}
}

// FetchToken requests a client_credentials token for appID.
func (f *HTTPFetcher) FetchToken(ctx context.Context, appID, secret string) (*models.AccessToken, error) {
	query := url.Values{}
	query.Set("appId", appID)
	query.Set("grantType", constants.GrantTypeClientCredentials)

	now := f.now()
	req := models.NewSignableRequest(models.MethodGet, constants.PathAccessToken+"?"+query.Encode(), nil)
	crypto.SignRequest(req, appID, secret, now)

	resp, err := f.transport.Get(ctx, req)
	if err != nil {
		return nil, err
	}
	result, err := decoder.DecodeResponse(resp)
	if err != nil {
		return nil, err
	}
	if result.IsNoContent() {
		return nil, fmt.Errorf("token endpoint returned an empty body (status %d)", resp.StatusCode)
	}

	var data tokenData
	if err := result.Data().Unmarshal(&data); err != nil {
		return nil, fmt.Errorf("malformed token payload: %w", err)
	}
	if data.Token == "" {
		return nil, fmt.Errorf("token endpoint returned no token")
	}

	return &models.AccessToken{
		AppID:        appID,
		Value:        data.Token,
		RefreshToken: data.RefreshToken,
		ExpiresAt:    parseExpiry(data.ExpiresIn, now),
		FetchedAt:    now,
	}, nil
}

// parseExpiry accepts expiresIn as a string or number. Values that look like a Unix
// millisecond timestamp are absolute; smaller positive values are seconds from now.
func parseExpiry(raw json.RawMessage, now time.Time) time.Time {
	s := string(bytes.Trim(bytes.TrimSpace(raw), `"`))
	n, err := strconv.ParseInt(s, 10, 64)
	switch {
	case err != nil || n <= 0:
		return now.Add(constants.DefaultTokenTTL)
	case n >= 1e12:
		return time.UnixMilli(n)
	default:
		return now.Add(time.Duration(n) * time.Second)
	}
}

var _ service.TokenFetcher = (*HTTPFetcher)(nil)
