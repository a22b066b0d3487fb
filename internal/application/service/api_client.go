// Package service provides the application-level client and the endpoint services built on it.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/esign/internal/application/dto"
	"github.com/turtacn/esign/internal/decoder"
	"github.com/turtacn/esign/internal/domain/models"
	domainService "github.com/turtacn/esign/internal/domain/service"
	"github.com/turtacn/esign/internal/infrastructure/monitoring"
	"github.com/turtacn/esign/internal/pipeline"
	"github.com/turtacn/esign/pkg/constants"
	"github.com/turtacn/esign/pkg/errors"
	"github.com/turtacn/esign/pkg/logger"
	"github.com/turtacn/esign/pkg/utils"
)

// APIClient runs logical calls through the request pipeline and decodes the result.
type APIClient struct {
	runner  *pipeline.Runner
	tracer  *monitoring.TracingManager
	metrics domainService.Metrics
	logger  logger.Logger
}

// ClientOption customizes an APIClient.
type ClientOption func(*APIClient)

// WithTracer opens a span per logical call.
func WithTracer(tracer *monitoring.TracingManager) ClientOption {
	return func(c *APIClient) { c.tracer = tracer }
}

// WithClientMetrics records call outcomes.
func WithClientMetrics(metrics domainService.Metrics) ClientOption {
	return func(c *APIClient) { c.metrics = metrics }
}

// WithClientLogger sets the logger.
func WithClientLogger(l logger.Logger) ClientOption {
	return func(c *APIClient) { c.logger = l }
}

// NewAPIClient creates a client over runner.
func NewAPIClient(runner *pipeline.Runner, opts ...ClientOption) *APIClient {
	c := &APIClient{
		runner:  runner,
		metrics: domainService.NewNoopMetrics(),
		logger:  logger.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call sends (method, url, body) and returns the data payload or models.NoContent.
// url is the path plus query relative to the configured base URL.
func (c *APIClient) Call(ctx context.Context, method models.Method, url string, body interface{}) (*models.Result, error) {
	return c.execute(ctx, "call", models.NewSignableRequest(method, url, body))
}

// Get sends a GET request.
func (c *APIClient) Get(ctx context.Context, url string) (*models.Result, error) {
	return c.Call(ctx, models.MethodGet, url, nil)
}

// Post sends a POST request with a JSON body.
func (c *APIClient) Post(ctx context.Context, url string, body interface{}) (*models.Result, error) {
	return c.Call(ctx, models.MethodPost, url, body)
}

// Put sends a PUT request with a JSON body.
func (c *APIClient) Put(ctx context.Context, url string, body interface{}) (*models.Result, error) {
	return c.Call(ctx, models.MethodPut, url, body)
}

// Delete sends a DELETE request.
func (c *APIClient) Delete(ctx context.Context, url string) (*models.Result, error) {
	return c.Call(ctx, models.MethodDelete, url, nil)
}

// Do validates and sends a known endpoint.
func (c *APIClient) Do(ctx context.Context, ep dto.Endpoint) (*models.Result, error) {
	if err := utils.ValidateStruct(ep); err != nil {
		return nil, err
	}
	return c.execute(ctx, ep.Operation(), ep.Build())
}

func (c *APIClient) execute(ctx context.Context, operation string, req *models.SignableRequest) (*models.Result, error) {
	requestID := uuid.NewString()
	ctx = context.WithValue(ctx, constants.ContextKeyRequestID, requestID)

	ctx, span := c.tracer.StartSpan(ctx, "esign."+operation, map[string]interface{}{
		"http.method": string(req.Method),
		"http.url":    req.URL,
		"request_id":  requestID,
	})
	defer span.End()
	if traceID := monitoring.GetTraceID(ctx); traceID != "" {
		ctx = context.WithValue(ctx, constants.ContextKeyTraceID, traceID)
	}

	start := time.Now()
	result, err := c.send(ctx, req)
	duration := time.Since(start)

	outcome := "success"
	switch de, ok := errors.AsDomainError(err); {
	case err == nil:
	case ok:
		outcome = "domain_error"
		c.metrics.RecordDomainError(de.ResponseCode())
	default:
		outcome = "error"
	}
	c.metrics.RecordCall(operation, string(req.Method), outcome, duration)

	fields := logger.Fields{
		"operation":   operation,
		"method":      string(req.Method),
		"url":         req.URL,
		"duration_ms": duration.Milliseconds(),
	}
	if err != nil {
		c.tracer.RecordError(ctx, err)
		c.logger.Warn(ctx, "esign call failed", logger.Fields{"error": err.Error()}, fields)
		return nil, err
	}
	c.logger.Debug(ctx, "esign call succeeded", fields)
	return result, nil
}

func (c *APIClient) send(ctx context.Context, req *models.SignableRequest) (*models.Result, error) {
	resp, err := c.runner.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	return decoder.DecodeResponse(resp)
}
