// Package kms resolves application signing secrets from configuration or HashiCorp Vault.
package kms

import (
	"context"
	"fmt"
	"path"
	"time"

	vault "github.com/hashicorp/vault/api"
	"github.com/patrickmn/go-cache"

	"github.com/turtacn/esign/internal/config"
	"github.com/turtacn/esign/internal/domain/service"
	"github.com/turtacn/esign/pkg/errors"
	"github.com/turtacn/esign/pkg/logger"
)

// secretField is the KV field holding the app secret.
const secretField = "secret"

// StaticSecretProvider serves secrets held in configuration.
type StaticSecretProvider struct {
	secrets map[string]string
}

// NewStaticSecretProvider creates a provider over a fixed app id to secret map.
func NewStaticSecretProvider(secrets map[string]string) *StaticSecretProvider {
	return &StaticSecretProvider{secrets: secrets}
}

// GetSecret returns the configured secret of appID.
func (p *StaticSecretProvider) GetSecret(_ context.Context, appID string) (string, error) {
	secret, ok := p.secrets[appID]
	if !ok || secret == "" {
		return "", errors.ErrSecret(appID, fmt.Errorf("no secret configured"))
	}
	return secret, nil
}

// VaultSecretProvider reads secrets from a KV v2 mount at <secret_path>/<appID>.
// Secrets are cached in memory for a short time.
type VaultSecretProvider struct {
	client *vault.Client
	mount  string
	path   string
	cache  *cache.Cache
	logger logger.Logger
}

// NewVaultClient creates a Vault API client from cfg.
func NewVaultClient(cfg *config.VaultConfig) (*vault.Client, error) {
	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address
	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if cfg.Token != "" {
		client.SetToken(cfg.Token)
	}
	return client, nil
}

// NewVaultSecretProvider creates a Vault-backed provider.
func NewVaultSecretProvider(cfg *config.VaultConfig, client *vault.Client, log logger.Logger) *VaultSecretProvider {
	mount := cfg.MountPath
	if mount == "" {
		mount = "secret"
	}
	return &VaultSecretProvider{
		client: client,
		mount:  mount,
		path:   cfg.SecretPath,
		cache:  cache.New(5*time.Minute, 10*time.Minute),
		logger: log,
	}
}

// GetSecret returns the secret of appID.
func (p *VaultSecretProvider) GetSecret(ctx context.Context, appID string) (string, error) {
	if secret, ok := p.cache.Get(appID); ok {
		return secret.(string), nil
	}

	secretPath := path.Join(p.path, appID)
	kv, err := p.client.KVv2(p.mount).Get(ctx, secretPath)
	if err != nil {
		p.logger.Error(ctx, "failed to read app secret from Vault", err, logger.Fields{
			"mount": p.mount,
			"path":  secretPath,
		})
		return "", errors.ErrSecret(appID, err)
	}

	secret, ok := kv.Data[secretField].(string)
	if !ok || secret == "" {
		return "", errors.ErrSecret(appID, fmt.Errorf("field %q missing at %s/%s", secretField, p.mount, secretPath))
	}

	p.cache.SetDefault(appID, secret)
	return secret, nil
}

var (
	_ service.SecretProvider = (*StaticSecretProvider)(nil)
	_ service.SecretProvider = (*VaultSecretProvider)(nil)
)
