package config

import (
	"context"
	"strings"

	"github.com/spf13/viper"

	"github.com/turtacn/esign/pkg/constants"
	"github.com/turtacn/esign/pkg/errors"
	"github.com/turtacn/esign/pkg/logger"
)

// EnvPrefix is prepended to every environment override, e.g. ESIGN_CLIENT_BASE_URL.
const EnvPrefix = "ESIGN"

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("client.base_url", "https://smlopenapi.esign.cn")
	v.SetDefault("client.timeout", constants.DefaultRequestTimeout)
	v.SetDefault("client.max_attempts", constants.DefaultMaxAttempts)

	v.SetDefault("credential.app_id", "")
	v.SetDefault("credential.secret", "")
	v.SetDefault("credential.secret_source", string(constants.SecretSourceConfig))

	v.SetDefault("token.store", string(constants.TokenStoreMemory))
	v.SetDefault("token.refresh_skew", constants.DefaultTokenRefreshSkew)
	v.SetDefault("token.key_prefix", constants.DefaultTokenKeyPrefix)

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.mount_path", "secret")
	v.SetDefault("vault.secret_path", "esign/apps")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.jaeger_endpoint", "")
	v.SetDefault("tracing.service_name", "esign-client")
	v.SetDefault("tracing.environment", "development")
	v.SetDefault("tracing.sampling_rate", 1.0)

	v.SetDefault("sandbox.host", "127.0.0.1")
	v.SetDefault("sandbox.port", 8089)
	v.SetDefault("sandbox.require_token", false)
	v.SetDefault("sandbox.token_ttl", constants.DefaultTokenTTL)
	v.SetDefault("sandbox.signing_key", "sandbox-signing-key")
	v.SetDefault("sandbox.rate_limit_rps", 0)
	v.SetDefault("sandbox.rate_limit_burst", 10)
}

// LoadConfig loads the client configuration from file and environment variables.
// configFile may be empty, in which case config.yaml is searched in /etc/esign and ".".
func LoadConfig(configFile string, log logger.Logger) (*Config, error) {
	cfg, err := load(configFile, log)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadSandboxConfig loads the same sources as LoadConfig but only validates the
// sections the sandbox reads.
func LoadSandboxConfig(configFile string, log logger.Logger) (*Config, error) {
	cfg, err := load(configFile, log)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateSandbox(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load(configFile string, log logger.Logger) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/esign/")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.ErrConfig("failed to read config file").WithCause(err)
		}
		log.Debug(context.Background(), "no config file found, using defaults and environment")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.ErrConfig("failed to unmarshal config").WithCause(err)
	}
	return &cfg, nil
}
