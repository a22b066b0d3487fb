package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/turtacn/esign/internal/domain/models"
	"github.com/turtacn/esign/internal/domain/service/mocks"
	"github.com/turtacn/esign/internal/infrastructure/crypto"
	"github.com/turtacn/esign/internal/infrastructure/monitoring"
	"github.com/turtacn/esign/internal/pipeline"
	"github.com/turtacn/esign/pkg/constants"
	"github.com/turtacn/esign/pkg/errors"
	"github.com/turtacn/esign/pkg/logger"
)

type clientFixture struct {
	transport *mocks.MockTransport
	tokens    *mocks.MockTokenSource
	metrics   *monitoring.Metrics
	recorder  *tracetest.SpanRecorder
	client    *APIClient
	sent      []*models.SignableRequest
}

func newClientFixture(t *testing.T) *clientFixture {
	t.Helper()
	f := &clientFixture{
		transport: new(mocks.MockTransport),
		tokens:    new(mocks.MockTokenSource),
		metrics:   monitoring.NewMetrics(prometheus.NewRegistry()),
		recorder:  tracetest.NewSpanRecorder(),
	}
	f.tokens.On("AppID").Return("app-1")
	f.tokens.On("Secret").Return("secret-1")

	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(f.recorder))
	tracer := monitoring.NewTracingManagerWithProvider(provider, logger.NewNoopLogger())

	runner := pipeline.NewRunner(pipeline.DefaultConfig(), f.transport, f.tokens, pipeline.WithMetrics(f.metrics))
	f.client = NewAPIClient(runner,
		WithTracer(tracer),
		WithClientMetrics(f.metrics),
		WithClientLogger(logger.NewNoopLogger()),
	)
	return f
}

func (f *clientFixture) respond(method string, bodies ...string) {
	for _, body := range bodies {
		f.transport.On(method, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				f.sent = append(f.sent, args.Get(1).(*models.SignableRequest))
			}).
			Return(&models.Response{StatusCode: http.StatusOK, Body: []byte(body)}, nil).Once()
	}
}

func TestFileService_CreateByTemplateID(t *testing.T) {
	f := newClientFixture(t)
	f.respond("Post", `{"code":0,"message":"成功","data":{"fileId":"f1"}}`)

	data, err := NewFileService(f.client).CreateByTemplateID(context.Background(), "tpl1", "doc", []map[string]interface{}{{"a": 1}})
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, map[string]interface{}{"fileId": "f1"}, data.All())

	require.Len(t, f.sent, 1)
	req := f.sent[0]
	assert.Equal(t, "/v1/files/createByTemplate", req.URL)
	assert.Equal(t, `{"name":"doc","templateId":"tpl1","simpleFormFields":[{"a":1}]}`, string(req.Payload))
	assert.Equal(t, "Zjc3YzVlYmRkYmUxNjg5MmNjYzM4NmQ3YWZmNGQ1YTg=", req.Header.Get(constants.HeaderContentMD5))
	for _, h := range []string{constants.HeaderAppID, constants.HeaderAuthMode, constants.HeaderTimestamp, constants.HeaderAccept, constants.HeaderContentType, constants.HeaderSignature} {
		assert.NotEmpty(t, req.Header.Get(h), h)
	}
	plaintext := crypto.CanonicalString(models.MethodPost, "Zjc3YzVlYmRkYmUxNjg5MmNjYzM4NmQ3YWZmNGQ1YTg=", "/v1/files/createByTemplate")
	assert.True(t, crypto.Verify(req.Header.Get(constants.HeaderSignature), plaintext, "secret-1"))

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.CallRequests.WithLabelValues("files.create_by_template", "POST", "success")))

	spans := f.recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "esign.files.create_by_template", spans[0].Name())
}

func TestSignFlowService_ExpiredTokenIsRefreshedOnce(t *testing.T) {
	f := newClientFixture(t)
	f.respond("Get", `{"code":40001,"message":"token expired"}`, `{"code":0,"data":{"ok":true}}`)
	f.tokens.On("Token", mock.Anything, true).Return("fresh", nil).Once()

	data, err := NewSignFlowService(f.client).QuerySigners(context.Background(), "flow-1")
	require.NoError(t, err)
	assert.Equal(t, true, data.Get("ok"))

	f.tokens.AssertNumberOfCalls(t, "Token", 1)
	require.Len(t, f.sent, 2)
	assert.Equal(t, "/v1/signflows/flow-1/signers", f.sent[1].URL)
	assert.Equal(t, "fresh", f.sent[1].Header.Get(constants.HeaderToken))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Retries.WithLabelValues("GET")))
	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.Attempts.WithLabelValues("GET")))
}

func TestSignFlowService_RetriesExhausted(t *testing.T) {
	f := newClientFixture(t)
	expired := `{"code":40001,"message":"token expired"}`
	f.respond("Get", expired, expired, expired)
	f.tokens.On("Token", mock.Anything, true).Return("fresh", nil)

	_, err := NewSignFlowService(f.client).GetVoucher(context.Background(), "flow-1")
	require.Error(t, err)

	de, ok := errors.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, 40001, de.ResponseCode())
	assert.Equal(t, "token expired", de.Message())

	f.transport.AssertNumberOfCalls(t, "Get", constants.DefaultMaxAttempts+1)
	f.tokens.AssertNumberOfCalls(t, "Token", constants.DefaultMaxAttempts)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.DomainErrors.WithLabelValues("40001")))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.CallRequests.WithLabelValues("signflows.voucher", "GET", "domain_error")))
}

func TestAPIClient_Verbs(t *testing.T) {
	f := newClientFixture(t)
	f.respond("Get", `{"code":0,"data":{"v":"get"}}`)
	f.respond("Post", `{"code":0,"data":{"v":"post"}}`)
	f.respond("Put", `{"code":0,"data":{"v":"put"}}`)
	f.respond("Delete", ``)
	ctx := context.Background()

	res, err := f.client.Get(ctx, "/v1/x?y=1")
	require.NoError(t, err)
	assert.Equal(t, "get", res.Data().GetString("v"))

	res, err = f.client.Post(ctx, "/v1/x", map[string]string{"a": "b"})
	require.NoError(t, err)
	assert.Equal(t, "post", res.Data().GetString("v"))

	res, err = f.client.Put(ctx, "/v1/x", map[string]string{"a": "b"})
	require.NoError(t, err)
	assert.Equal(t, "put", res.Data().GetString("v"))

	res, err = f.client.Delete(ctx, "/v1/x")
	require.NoError(t, err)
	assert.True(t, res.IsNoContent())
}

func TestAPIClient_NoContentFromService(t *testing.T) {
	f := newClientFixture(t)
	f.respond("Get", ``)

	data, err := NewSignFlowService(f.client).GetVoucher(context.Background(), "flow-1")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestAPIClient_InvalidEndpoint(t *testing.T) {
	f := newClientFixture(t)

	_, err := NewFileService(f.client).CreateByTemplateID(context.Background(), "", "doc", nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, constants.ErrCodeInvalidRequest))
	f.transport.AssertNotCalled(t, "Post", mock.Anything, mock.Anything)
}

func TestAPIClient_RequestIDReachesTransport(t *testing.T) {
	f := newClientFixture(t)
	var requestID string
	f.transport.On("Get", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			requestID, _ = args.Get(0).(context.Context).Value(constants.ContextKeyRequestID).(string)
		}).
		Return(&models.Response{StatusCode: http.StatusOK, Body: []byte(`{"code":0}`)}, nil).Once()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := f.client.Get(ctx, "/v1/x")
	require.NoError(t, err)
	assert.Len(t, requestID, 36)
}
