package pipeline

import (
	"context"

	"github.com/turtacn/esign/pkg/constants"
	"github.com/turtacn/esign/pkg/logger"
)

// LoggingStage writes each attempt's request and response to the debug log. It never
// returns an error and recovers from logger panics.
type LoggingStage struct {
	logger logger.Logger
}

// NewLoggingStage creates the logging stage.
func NewLoggingStage(log logger.Logger) *LoggingStage {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &LoggingStage{logger: log}
}

func (s *LoggingStage) Name() string { return "log" }

func (s *LoggingStage) Before(ctx context.Context, call *Call) error {
	defer swallow()
	req := call.Pending
	s.logger.ForContext(ctx).Debug(ctx, "Request", logger.Fields{
		"method":  string(req.Method),
		"url":     req.URL,
		"options": map[string]interface{}{"attempt": call.Attempt, "max_attempts": call.MaxAttempts},
		"headers": logger.RedactHeaders(req.Header),
	})
	return nil
}

func (s *LoggingStage) After(ctx context.Context, call *Call) error {
	defer swallow()
	log := s.logger.ForContext(ctx)
	if call.Err != nil {
		log.Debug(ctx, "Request failed", logger.Fields{
			"attempt": call.Attempt,
			"error":   call.Err.Error(),
		})
		return nil
	}

	fields := logger.Fields{"attempt": call.Attempt}
	if call.Outgoing != nil {
		fields["headers"] = logger.RedactHeaders(call.Outgoing.Header)
	}
	if call.Response != nil {
		fields["status"] = call.Response.StatusCode
		fields["body"] = truncate(call.Response.Body, constants.LogBodyLimit)
	}
	log.Debug(ctx, "Response", fields)
	return nil
}

func swallow() {
	_ = recover()
}

func truncate(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "...(truncated)"
}
