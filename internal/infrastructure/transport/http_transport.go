// Package transport sends signed requests over HTTP.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"go.opentelemetry.io/otel/propagation"

	"github.com/turtacn/esign/internal/domain/models"
	"github.com/turtacn/esign/internal/domain/service"
	"github.com/turtacn/esign/internal/infrastructure/monitoring"
	"github.com/turtacn/esign/pkg/constants"
	"github.com/turtacn/esign/pkg/errors"
)

// HTTPTransport resolves request URLs against a base URL and performs one HTTP
// exchange per call. Non-2xx statuses are returned as responses, not errors.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
}

// Option customizes an HTTPTransport.
type Option func(*HTTPTransport)

// WithHTTPClient replaces the pooled client.
func WithHTTPClient(client *http.Client) Option {
	return func(t *HTTPTransport) { t.client = client }
}

// New creates a transport with a pooled client and the given timeout.
func New(baseURL string, timeout time.Duration, opts ...Option) *HTTPTransport {
	client := cleanhttp.DefaultPooledClient()
	if timeout <= 0 {
		timeout = constants.DefaultRequestTimeout
	}
	client.Timeout = timeout

	t := &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// BaseURL returns the URL every request path is resolved against.
func (t *HTTPTransport) BaseURL() string { return t.baseURL }

func (t *HTTPTransport) Get(ctx context.Context, req *models.SignableRequest) (*models.Response, error) {
	return t.do(ctx, http.MethodGet, req)
}

func (t *HTTPTransport) Post(ctx context.Context, req *models.SignableRequest) (*models.Response, error) {
	return t.do(ctx, http.MethodPost, req)
}

func (t *HTTPTransport) Put(ctx context.Context, req *models.SignableRequest) (*models.Response, error) {
	return t.do(ctx, http.MethodPut, req)
}

func (t *HTTPTransport) Delete(ctx context.Context, req *models.SignableRequest) (*models.Response, error) {
	return t.do(ctx, http.MethodDelete, req)
}

func (t *HTTPTransport) do(ctx context.Context, method string, req *models.SignableRequest) (*models.Response, error) {
	target := t.resolve(req.URL)

	var body io.Reader
	if len(req.Payload) > 0 {
		body = bytes.NewReader(req.Payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, errors.ErrTransport(method, target, err)
	}
	for name, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}
	if requestID, ok := ctx.Value(constants.ContextKeyRequestID).(string); ok && requestID != "" {
		httpReq.Header.Set(constants.HeaderRequestID, requestID)
	}
	monitoring.InjectTraceContext(ctx, propagation.HeaderCarrier(httpReq.Header))

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, errors.ErrTransport(method, target, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, constants.MaxResponseBodyBytes+1))
	if err != nil {
		return nil, errors.ErrTransport(method, target, err)
	}
	if len(data) > constants.MaxResponseBodyBytes {
		return nil, errors.ErrTransport(method, target,
			fmt.Errorf("response body exceeds %d bytes", constants.MaxResponseBodyBytes))
	}

	return &models.Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}, nil
}

func (t *HTTPTransport) resolve(url string) string {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	if !strings.HasPrefix(url, "/") {
		url = "/" + url
	}
	return t.baseURL + url
}

var _ service.Transport = (*HTTPTransport)(nil)
