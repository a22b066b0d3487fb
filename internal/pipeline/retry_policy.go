package pipeline

import (
	"bytes"
	"strconv"

	"github.com/turtacn/esign/internal/domain/models"
	"github.com/turtacn/esign/pkg/constants"
)

var (
	codeMarker    = []byte("code")
	expiredTokens = [][]byte{
		[]byte(strconv.Itoa(constants.CodeTokenInvalid)),
		[]byte(strconv.Itoa(constants.CodeTokenExpired)),
	}
)

// IsTokenExpired reports whether a raw response body looks like a token rejection: it
// mentions "code" (any case) and contains 40001 or 42001 anywhere. This is a textual
// check, not a parse; an unrelated message containing those digits matches too.
func IsTokenExpired(body []byte) bool {
	if len(body) == 0 {
		return false
	}
	if !bytes.Contains(bytes.ToLower(body), codeMarker) {
		return false
	}
	for _, code := range expiredTokens {
		if bytes.Contains(body, code) {
			return true
		}
	}
	return false
}

// RetryPolicy decides whether an attempt is followed by a refresh-and-resubmit.
type RetryPolicy struct {
	maxAttempts int
	matches     func([]byte) bool
}

// NewRetryPolicy creates a policy that retries while attempt <= maxAttempts.
func NewRetryPolicy(maxAttempts int) *RetryPolicy {
	return &RetryPolicy{maxAttempts: maxAttempts, matches: IsTokenExpired}
}

// MaxAttempts returns the retry bound.
func (p *RetryPolicy) MaxAttempts() int { return p.maxAttempts }

// ShouldRetry reports whether attempt n, which produced resp, must be retried.
func (p *RetryPolicy) ShouldRetry(resp *models.Response, attempt int) bool {
	if resp == nil || attempt > p.maxAttempts {
		return false
	}
	return p.matches(resp.Body)
}
