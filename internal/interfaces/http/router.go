// Package http serves the open-API sandbox used for local development and end-to-end tests.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/turtacn/esign/internal/config"
	"github.com/turtacn/esign/internal/domain/service"
	"github.com/turtacn/esign/internal/infrastructure/crypto"
	"github.com/turtacn/esign/internal/infrastructure/monitoring"
	"github.com/turtacn/esign/internal/infrastructure/ratelimit"
	"github.com/turtacn/esign/internal/interfaces/http/handlers"
	"github.com/turtacn/esign/internal/interfaces/http/middleware"
	"github.com/turtacn/esign/pkg/constants"
	"github.com/turtacn/esign/pkg/logger"
)

const (
	sandboxIssuer   = "esign-sandbox"
	fileRetention   = 24 * time.Hour
	shutdownTimeout = 30 * time.Second
)

// Router HTTP 路由器
type Router struct {
	engine   *gin.Engine
	config   *config.SandboxConfig
	logger   logger.Logger
	secrets  service.SecretProvider
	metrics  *monitoring.Metrics
	gatherer prometheus.Gatherer
	tracer   trace.Tracer
	checks   map[string]handlers.HealthCheck

	tokens  *crypto.JWTManager
	revoked *cache.Cache

	healthHandler   *handlers.HealthHandler
	tokenHandler    *handlers.TokenHandler
	fileHandler     *handlers.FileHandler
	signFlowHandler *handlers.SignFlowHandler

	server *http.Server
}

// Option configures a Router.
type Option func(*Router)

// WithMetrics records request metrics and serves gatherer on /metrics.
func WithMetrics(metrics *monitoring.Metrics, gatherer prometheus.Gatherer) Option {
	return func(r *Router) {
		r.metrics = metrics
		r.gatherer = gatherer
	}
}

// WithTracer traces requests with tracer instead of the global provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Router) { r.tracer = tracer }
}

// WithHealthCheck adds a named check to /health.
func WithHealthCheck(name string, check handlers.HealthCheck) Option {
	return func(r *Router) { r.checks[name] = check }
}

// NewRouter 创建路由器. secrets resolves the signing secret of each calling app.
func NewRouter(cfg *config.SandboxConfig, secrets service.SecretProvider, log logger.Logger, opts ...Option) *Router {
	gin.SetMode(gin.ReleaseMode)

	r := &Router{
		engine:   gin.New(),
		config:   cfg,
		logger:   log,
		secrets:  secrets,
		gatherer: prometheus.DefaultGatherer,
		tracer:   otel.Tracer("github.com/turtacn/esign/sandbox"),
		checks:   make(map[string]handlers.HealthCheck),
		tokens:   crypto.NewJWTManager(cfg.SigningKey, sandboxIssuer),
		revoked:  cache.New(constants.DefaultTokenTTL, 10*time.Minute),
	}
	r.checks["apps"] = func(context.Context) error {
		if len(cfg.Apps) == 0 {
			return errors.New("no apps configured")
		}
		return nil
	}
	for _, opt := range opts {
		opt(r)
	}

	r.healthHandler = handlers.NewHealthHandler(r.checks, log)
	r.tokenHandler = handlers.NewTokenHandler(r.tokens, r.revoked, cfg.TokenTTL, log)
	r.fileHandler = handlers.NewFileHandler(cache.New(fileRetention, time.Hour), log)
	r.signFlowHandler = handlers.NewSignFlowHandler(log)

	r.setupRoutes()
	r.server = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r.engine,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	return r
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	r.engine.Use(
		middleware.Recovery(r.logger),
		middleware.RequestID(),
		middleware.Tracing(r.tracer),
		middleware.Metrics(r.metrics),
		middleware.Logging(r.logger),
	)

	r.engine.GET("/health", r.healthHandler.HealthCheck)
	r.engine.GET("/live", r.healthHandler.LivenessCheck)
	r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))

	if r.config.EnablePprof {
		pprof.Register(r.engine)
	}

	signed := r.engine.Group("", middleware.RequireSignature(r.secrets, r.logger))
	{
		signed.GET(constants.PathAccessToken, r.tokenHandler.IssueToken)
		signed.POST("/v1/oauth2/revoke", r.tokenHandler.RevokeToken)
	}

	api := signed.Group("")
	if r.config.RateLimitRPS > 0 {
		api.Use(middleware.RateLimit(ratelimit.NewPool(r.config.RateLimitRPS, r.config.RateBurst), r.logger))
	}
	if r.config.RequireToken {
		api.Use(middleware.RequireToken(r.tokens, r.revoked, r.logger))
	}
	{
		api.POST(constants.PathCreateByTemplate, r.fileHandler.CreateByTemplate)
		api.GET("/v1/signflows/:flowId/signers", r.signFlowHandler.Signers)
		api.GET("/api/v2/signflows/:flowId/getVoucher", r.signFlowHandler.Voucher)
	}

	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    http.StatusNotFound,
			"message": "the requested resource was not found",
		})
	})
}

// Engine exposes the handler, e.g. for httptest servers.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// Start 启动 HTTP 服务器. It blocks until the server stops.
func (r *Router) Start() error {
	r.logger.Info(context.Background(), "Starting sandbox server", logger.Fields{
		"address":       r.server.Addr,
		"require_token": r.config.RequireToken,
		"apps":          len(r.config.Apps),
	})

	if err := r.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("sandbox server failed: %w", err)
	}
	return nil
}

// Stop 停止 HTTP 服务器
func (r *Router) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	r.logger.Info(ctx, "Stopping sandbox server...")
	if err := r.server.Shutdown(ctx); err != nil {
		r.logger.Error(ctx, "Server forced to shutdown", err)
		return err
	}
	r.logger.Info(ctx, "Sandbox server stopped")
	return nil
}
