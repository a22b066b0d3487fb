// Package models defines the value types that flow through the esign request pipeline.
package models

import "time"

// AccessToken is a bearer token issued for an app id.
// AccessToken 是为应用 ID 颁发的访问令牌。
type AccessToken struct {
	// AppID identifies the application the token was issued to.
	// AppID 标识令牌所属的应用。
	AppID string `json:"app_id"`

	// Value is the bearer token sent in X-Tsign-Open-Token.
	// Value 是在 X-Tsign-Open-Token 中发送的令牌。
	Value string `json:"token"`

	// RefreshToken is returned by the token endpoint and kept for completeness.
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresAt is when the remote service stops accepting the token.
	// ExpiresAt 是远端服务停止接受该令牌的时间。
	ExpiresAt time.Time `json:"expires_at"`

	// FetchedAt is when the token was obtained from the token endpoint.
	FetchedAt time.Time `json:"fetched_at"`
}

// IsExpired reports whether the token is unusable at now, treating skew as already expired.
func (t *AccessToken) IsExpired(now time.Time, skew time.Duration) bool {
	if t == nil || t.Value == "" {
		return true
	}
	return !now.Add(skew).Before(t.ExpiresAt)
}

// TTL is how long the token may still be cached at now.
func (t *AccessToken) TTL(now time.Time, skew time.Duration) time.Duration {
	if t.IsExpired(now, skew) {
		return 0
	}
	return t.ExpiresAt.Sub(now) - skew
}
