package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/esign/internal/domain/models"
)

func TestIsTokenExpired(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"invalid token", `{"code":40001,"message":"token invalid"}`, true},
		{"expired token", `{"code":42001,"message":"token expired"}`, true},
		{"upper case marker", `{"CODE":"40001"}`, true},
		{"success", `{"code":0,"data":{"ok":true}}`, false},
		{"other domain error", `{"code":1435002,"message":"bad template"}`, false},
		{"digits without marker", `{"errno":40001}`, false},
		{"empty", ``, false},
		{"loose match in message", `{"code":1,"message":"order 400012 not found"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTokenExpired([]byte(tt.body)))
		})
	}
}

func TestRetryPolicy_ShouldRetry(t *testing.T) {
	policy := NewRetryPolicy(2)
	expired := &models.Response{StatusCode: 200, Body: []byte(`{"code":40001}`)}

	assert.True(t, policy.ShouldRetry(expired, 1))
	assert.True(t, policy.ShouldRetry(expired, 2))
	assert.False(t, policy.ShouldRetry(expired, 3))
	assert.False(t, policy.ShouldRetry(nil, 1))
	assert.False(t, policy.ShouldRetry(&models.Response{StatusCode: 200}, 1))

	assert.False(t, NewRetryPolicy(0).ShouldRetry(expired, 1))
}
