// Package esign is the public entry point for calling the e-signature open API from Go.
//
// A Client wires the request pipeline (logging, token retry, signing), the access token
// manager and the endpoint services from a single configuration:
//
//	cfg, err := config.LoadConfig("", log)
//	client, err := esign.New(ctx, cfg)
//	defer client.Close(ctx)
//	data, err := client.Files.CreateByTemplateID(ctx, templateID, "contract.pdf", fields)
package esign

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/turtacn/esign/internal/application/service"
	"github.com/turtacn/esign/internal/config"
	"github.com/turtacn/esign/internal/infrastructure/kms"
	"github.com/turtacn/esign/internal/infrastructure/monitoring"
	"github.com/turtacn/esign/internal/infrastructure/redis"
	"github.com/turtacn/esign/internal/infrastructure/token"
	"github.com/turtacn/esign/internal/infrastructure/transport"
	"github.com/turtacn/esign/internal/pipeline"
	"github.com/turtacn/esign/pkg/constants"
	"github.com/turtacn/esign/pkg/errors"
	"github.com/turtacn/esign/pkg/logger"
)

// Client is a ready-to-use open API client.
type Client struct {
	API       *service.APIClient
	Files     *service.FileService
	SignFlows *service.SignFlowService
	Tokens    *token.Manager
	Logger    logger.Logger
	Metrics   *monitoring.Metrics
	// Gatherer exposes the client metrics when they live in the client's own registry.
	// It is nil when WithRegisterer was given a registerer that cannot be gathered.
	Gatherer prometheus.Gatherer

	tracing *monitoring.TracingManager
	rdb     *goredis.Client
}

type options struct {
	logger     logger.Logger
	registerer prometheus.Registerer
	httpClient *http.Client
	secrets    SecretProvider
}

// SecretProvider resolves the signing secret of an app id.
type SecretProvider interface {
	GetSecret(ctx context.Context, appID string) (string, error)
}

// Option customizes New.
type Option func(*options)

// WithLogger replaces the zap logger built from cfg.Log.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRegisterer registers the client metrics with reg instead of a registry private to
// the client. Sharing one reg between two clients panics on duplicate registration.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithHTTPClient replaces the pooled HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithSecretProvider resolves the app secret from p regardless of credential.secret_source.
func WithSecretProvider(p SecretProvider) Option {
	return func(o *options) { o.secrets = p }
}

// New builds a Client from cfg. It resolves the app secret (inline or from Vault) and
// connects to Redis when the shared token store is configured.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	log := o.logger
	if log == nil {
		var err error
		log, err = monitoring.NewZapLogger(&cfg.Log)
		if err != nil {
			return nil, errors.ErrConfig("failed to create logger").WithCause(err)
		}
	}

	secret, err := resolveSecret(ctx, cfg, o.secrets, log)
	if err != nil {
		return nil, err
	}

	tracing, err := monitoring.NewTracingManager(&cfg.Tracing, log)
	if err != nil {
		return nil, errors.ErrConfig("failed to initialize tracing").WithCause(err)
	}

	reg := o.registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	c := &Client{
		Logger:  log,
		Metrics: monitoring.NewMetrics(reg),
		tracing: tracing,
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		c.Gatherer = g
	}

	var transportOpts []transport.Option
	if o.httpClient != nil {
		transportOpts = append(transportOpts, transport.WithHTTPClient(o.httpClient))
	}
	tr := transport.New(cfg.Client.BaseURL, cfg.Client.Timeout, transportOpts...)

	tokenOpts := []token.Option{
		token.WithRefreshSkew(cfg.Token.RefreshSkew),
		token.WithMetrics(c.Metrics),
		token.WithLogger(log),
	}
	if constants.TokenStoreKind(cfg.Token.Store) == constants.TokenStoreRedis {
		c.rdb, err = redis.NewClient(ctx, &cfg.Redis, log)
		if err != nil {
			if shutdownErr := tracing.Shutdown(ctx); shutdownErr != nil {
				log.Warn(ctx, "Failed to shutdown tracing", logger.Fields{"error": shutdownErr.Error()})
			}
			return nil, errors.ErrConfig("failed to connect to the token store").WithCause(err)
		}
		tokenOpts = append(tokenOpts, token.WithStore(redis.NewTokenStore(c.rdb, cfg.Token.KeyPrefix)))
	}
	c.Tokens = token.NewManager(cfg.Credential.AppID, secret, token.NewHTTPFetcher(tr), tokenOpts...)

	runner := pipeline.NewRunner(
		pipeline.Config{MaxAttempts: cfg.Client.MaxAttempts},
		tr,
		c.Tokens,
		pipeline.WithLogger(log),
		pipeline.WithMetrics(c.Metrics),
	)
	c.API = service.NewAPIClient(runner,
		service.WithTracer(tracing),
		service.WithClientMetrics(c.Metrics),
		service.WithClientLogger(log),
	)
	c.Files = service.NewFileService(c.API)
	c.SignFlows = service.NewSignFlowService(c.API)

	log.Info(ctx, "esign client ready", logger.Fields{
		"base_url":     cfg.Client.BaseURL,
		"app_id":       cfg.Credential.AppID,
		"max_attempts": cfg.Client.MaxAttempts,
		"token_store":  cfg.Token.Store,
	})
	return c, nil
}

func resolveSecret(ctx context.Context, cfg *config.Config, override SecretProvider, log logger.Logger) (string, error) {
	if override != nil {
		return override.GetSecret(ctx, cfg.Credential.AppID)
	}
	if constants.SecretSource(cfg.Credential.SecretSource) != constants.SecretSourceVault {
		return cfg.Credential.Secret, nil
	}

	vc, err := kms.NewVaultClient(&cfg.Vault)
	if err != nil {
		return "", errors.ErrSecret(cfg.Credential.AppID, err)
	}
	return kms.NewVaultSecretProvider(&cfg.Vault, vc, log).GetSecret(ctx, cfg.Credential.AppID)
}

// Close flushes traces and releases the Redis connection.
func (c *Client) Close(ctx context.Context) error {
	var firstErr error
	if err := c.tracing.Shutdown(ctx); err != nil {
		firstErr = err
	}
	if c.rdb != nil {
		if err := c.rdb.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close redis: %w", err)
		}
	}
	return firstErr
}
