package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/turtacn/esign/pkg/constants"
	"github.com/turtacn/esign/pkg/errors"
)

// Config holds the application's configuration.
type Config struct {
	Client     ClientConfig     `mapstructure:"client"`
	Credential CredentialConfig `mapstructure:"credential"`
	Token      TokenConfig      `mapstructure:"token"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Vault      VaultConfig      `mapstructure:"vault"`
	Log        LogConfig        `mapstructure:"log"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
	Sandbox    SandboxConfig    `mapstructure:"sandbox"`
}

// ClientConfig controls outbound calls. MaxAttempts is the number of token-refresh
// retries allowed after the first attempt.
type ClientConfig struct {
	BaseURL     string        `mapstructure:"base_url" validate:"required,url"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gte=0"`
	MaxAttempts int           `mapstructure:"max_attempts" validate:"gte=0,lte=10"`
}

type CredentialConfig struct {
	AppID        string `mapstructure:"app_id" validate:"required"`
	Secret       string `mapstructure:"secret" validate:"required_if=SecretSource config"`
	SecretSource string `mapstructure:"secret_source" validate:"oneof=config vault"`
}

type TokenConfig struct {
	Store       string        `mapstructure:"store" validate:"oneof=memory redis"`
	RefreshSkew time.Duration `mapstructure:"refresh_skew" validate:"gte=0"`
	KeyPrefix   string        `mapstructure:"key_prefix"`
}

type RedisConfig struct {
	Address      string `mapstructure:"address"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

type VaultConfig struct {
	Address    string `mapstructure:"address"`
	Token      string `mapstructure:"token"`
	MountPath  string `mapstructure:"mount_path"`
	SecretPath string `mapstructure:"secret_path"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format" validate:"omitempty,oneof=json console"`
	OutputPath string `mapstructure:"output_path"`
}

type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	ServiceName    string  `mapstructure:"service_name"`
	Environment    string  `mapstructure:"environment"`
	SamplingRate   float64 `mapstructure:"sampling_rate" validate:"gte=0,lte=1"`
}

// SandboxConfig configures the local open-API emulator. Apps maps app id to secret.
// A zero RateLimitRPS disables throttling.
type SandboxConfig struct {
	Host         string            `mapstructure:"host"`
	Port         int               `mapstructure:"port" validate:"gte=0,lte=65535"`
	RequireToken bool              `mapstructure:"require_token"`
	TokenTTL     time.Duration     `mapstructure:"token_ttl" validate:"gte=0"`
	SigningKey   string            `mapstructure:"signing_key" validate:"required"`
	EnablePprof  bool              `mapstructure:"enable_pprof"`
	RateLimitRPS float64           `mapstructure:"rate_limit_rps" validate:"gte=0"`
	RateBurst    int               `mapstructure:"rate_limit_burst" validate:"gte=0"`
	Apps         map[string]string `mapstructure:"apps" validate:"required,min=1,dive,required"`
}

// Addr returns the sandbox listen address.
func (s SandboxConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

var validate = validator.New()

// Validate checks the client-facing sections. The sandbox section is checked by the
// sandbox itself since the client never reads it.
func (c *Config) Validate() error {
	for _, section := range []interface{}{&c.Client, &c.Credential, &c.Token, &c.Log, &c.Tracing} {
		if err := validate.Struct(section); err != nil {
			return errors.ErrConfig(err.Error()).WithCause(err)
		}
	}
	if constants.SecretSource(c.Credential.SecretSource) == constants.SecretSourceVault && c.Vault.Address == "" {
		return errors.ErrConfig("vault.address is required when credential.secret_source is vault")
	}
	if constants.TokenStoreKind(c.Token.Store) == constants.TokenStoreRedis && c.Redis.Address == "" {
		return errors.ErrConfig("redis.address is required when token.store is redis")
	}
	if c.Tracing.Enabled && c.Tracing.JaegerEndpoint == "" {
		return errors.ErrConfig("tracing.jaeger_endpoint is required when tracing is enabled")
	}
	return nil
}

// ValidateSandbox checks the sections the sandbox server reads.
func (c *Config) ValidateSandbox() error {
	for _, section := range []interface{}{&c.Sandbox, &c.Log, &c.Tracing} {
		if err := validate.Struct(section); err != nil {
			return errors.ErrConfig(err.Error()).WithCause(err)
		}
	}
	return nil
}
