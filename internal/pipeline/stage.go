// Package pipeline executes a signable request through the fixed logging, retry and
// authentication stages and hands the final response back to the caller.
package pipeline

import (
	"context"
	"time"

	"github.com/turtacn/esign/internal/domain/models"
	"github.com/turtacn/esign/internal/domain/service"
	"github.com/turtacn/esign/internal/infrastructure/crypto"
	"github.com/turtacn/esign/pkg/constants"
	"github.com/turtacn/esign/pkg/errors"
	"github.com/turtacn/esign/pkg/logger"
)

// Stage is one step wrapped around every transport call. Before hooks run in pipeline
// order ahead of the call; After hooks run in reverse order once a response (or a
// transport error) is available.
type Stage interface {
	Name() string
	Before(ctx context.Context, call *Call) error
	After(ctx context.Context, call *Call) error
}

// Call is the state of one logical call as it moves through the stages.
type Call struct {
	// Pending is the request as the caller built it plus any headers added by retries.
	// It is never signed directly.
	Pending *models.SignableRequest

	// Outgoing is the signed copy sent in the current attempt.
	Outgoing *models.SignableRequest

	// Response is the transport result of the current attempt.
	Response *models.Response

	// Err is the transport error of the current attempt, if any.
	Err error

	// Attempt starts at 1.
	Attempt int

	MaxAttempts int

	resubmit bool
}

// Resubmit asks the runner to issue another attempt once the After hooks finish.
func (c *Call) Resubmit() { c.resubmit = true }

// Resubmitting reports whether a stage asked for another attempt.
func (c *Call) Resubmitting() bool { return c.resubmit }

// Config holds the per-pipeline settings.
type Config struct {
	// MaxAttempts bounds token-refresh retries. A call makes at most MaxAttempts+1
	// transport calls. Zero disables retries; negative values count by magnitude.
	MaxAttempts int
}

// DefaultConfig returns the default pipeline settings.
func DefaultConfig() Config {
	return Config{MaxAttempts: constants.DefaultMaxAttempts}
}

// Option customizes a Runner.
type Option func(*Runner)

// WithLogger sets the logger used by the logging and retry stages.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m service.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithClock overrides the signing clock.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// Runner drives a call through the log, retry and auth stages in that fixed order.
type Runner struct {
	cfg       Config
	transport service.Transport
	tokens    service.TokenSource
	logger    logger.Logger
	metrics   service.Metrics
	now       func() time.Time
	stages    []Stage
}

// NewRunner builds a runner over transport, signing with tokens.
func NewRunner(cfg Config, transport service.Transport, tokens service.TokenSource, opts ...Option) *Runner {
	if cfg.MaxAttempts < 0 {
		cfg.MaxAttempts = -cfg.MaxAttempts
	}
	r := &Runner{
		cfg:       cfg,
		transport: transport,
		tokens:    tokens,
		logger:    logger.NewNoopLogger(),
		metrics:   service.NewNoopMetrics(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.stages = []Stage{
		NewLoggingStage(r.logger),
		NewRetryStage(tokens, NewRetryPolicy(cfg.MaxAttempts), r.metrics, r.logger),
		NewAuthStage(tokens, r.now),
	}
	return r
}

// Stages returns the stage names in execution order.
func (r *Runner) Stages() []string {
	names := make([]string, 0, len(r.stages))
	for _, s := range r.stages {
		names = append(names, s.Name())
	}
	return names
}

// Execute sends req and returns the final response. The body is encoded once; every
// attempt signs and sends the same bytes. A non-nil error means no usable response:
// encoding, transport, token refresh or cancellation failures.
func (r *Runner) Execute(ctx context.Context, req *models.SignableRequest) (*models.Response, error) {
	pending := req.Clone()
	if pending.Method.HasBody() {
		payload, err := crypto.EncodeBody(req.Body)
		if err != nil {
			return nil, err
		}
		pending.Payload = payload
	} else {
		pending.Payload = nil
	}

	call := &Call{Pending: pending, MaxAttempts: r.cfg.MaxAttempts}
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		call.Attempt = attempt
		call.Outgoing = nil
		call.Response = nil
		call.Err = nil
		call.resubmit = false

		for _, stage := range r.stages {
			if err := stage.Before(ctx, call); err != nil {
				return nil, err
			}
		}
		if call.Outgoing == nil {
			call.Outgoing = call.Pending.Clone()
		}

		r.metrics.RecordAttempt(string(call.Outgoing.Method))
		call.Response, call.Err = r.dispatch(ctx, call.Outgoing)

		for i := len(r.stages) - 1; i >= 0; i-- {
			if err := r.stages[i].After(ctx, call); err != nil {
				return nil, err
			}
		}

		if call.Err != nil {
			return nil, call.Err
		}
		if !call.resubmit {
			return call.Response, nil
		}
		r.metrics.RecordRetry(string(call.Outgoing.Method))
	}
}

func (r *Runner) dispatch(ctx context.Context, req *models.SignableRequest) (*models.Response, error) {
	var (
		resp *models.Response
		err  error
	)
	switch req.Method {
	case models.MethodGet:
		resp, err = r.transport.Get(ctx, req)
	case models.MethodPost:
		resp, err = r.transport.Post(ctx, req)
	case models.MethodPut:
		resp, err = r.transport.Put(ctx, req)
	case models.MethodDelete:
		resp, err = r.transport.Delete(ctx, req)
	default:
		return nil, errors.ErrInvalidRequest("unsupported method " + string(req.Method))
	}
	if err != nil {
		if _, ok := errors.AsESignError(err); !ok {
			err = errors.ErrTransport(string(req.Method), req.URL, err)
		}
		return nil, err
	}
	if resp == nil {
		resp = &models.Response{}
	}
	return resp, nil
}
