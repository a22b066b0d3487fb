package pipeline

import (
	"context"

	"github.com/turtacn/esign/internal/domain/service"
	"github.com/turtacn/esign/pkg/constants"
	"github.com/turtacn/esign/pkg/errors"
	"github.com/turtacn/esign/pkg/logger"
)

// RetryStage refreshes the access token and resubmits when a response rejects the
// current token.
type RetryStage struct {
	tokens  service.TokenSource
	policy  *RetryPolicy
	metrics service.Metrics
	logger  logger.Logger
}

// NewRetryStage creates the retry stage.
func NewRetryStage(tokens service.TokenSource, policy *RetryPolicy, metrics service.Metrics, log logger.Logger) *RetryStage {
	return &RetryStage{tokens: tokens, policy: policy, metrics: metrics, logger: log}
}

func (s *RetryStage) Name() string { return "retry" }

func (s *RetryStage) Before(context.Context, *Call) error { return nil }

// After leaves transport errors and non-matching responses alone. A refresh failure
// ends the call.
func (s *RetryStage) After(ctx context.Context, call *Call) error {
	if call.Err != nil || !s.policy.ShouldRetry(call.Response, call.Attempt) {
		return nil
	}

	token, err := s.tokens.Token(ctx, true)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if errors.IsTokenError(err) {
			return err
		}
		return errors.ErrToken(s.tokens.AppID(), err)
	}

	call.Pending.Header.Set(constants.HeaderAppID, s.tokens.AppID())
	call.Pending.Header.Set(constants.HeaderToken, token)
	call.Pending.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)

	s.logger.ForContext(ctx).Debug(ctx, "Retry with refreshed token", logger.Fields{
		"attempt":      call.Attempt,
		"max_attempts": s.policy.MaxAttempts(),
		"token":        token,
	})
	call.Resubmit()
	return nil
}
