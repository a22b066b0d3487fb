package kms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/esign/internal/config"
	"github.com/turtacn/esign/pkg/constants"
	"github.com/turtacn/esign/pkg/errors"
	"github.com/turtacn/esign/pkg/logger"
)

func TestStaticSecretProvider(t *testing.T) {
	provider := NewStaticSecretProvider(map[string]string{"app-1": "secret-1", "app-2": ""})

	secret, err := provider.GetSecret(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, "secret-1", secret)

	for _, appID := range []string{"app-2", "unknown"} {
		_, err = provider.GetSecret(context.Background(), appID)
		assert.True(t, errors.HasCode(err, constants.ErrCodeSecret))
	}
}

func TestVaultSecretProvider_GetSecret(t *testing.T) {
	var reads atomic.Int32

	// Mock Vault Server
	vaultMux := http.NewServeMux()
	vaultMux.HandleFunc("/v1/kv/data/esign/apps/app-1", func(w http.ResponseWriter, r *http.Request) {
		reads.Add(1)
		assert.Equal(t, "root-token", r.Header.Get("X-Vault-Token"))
		secretData := map[string]interface{}{
			"data": map[string]interface{}{"secret": "vault-secret"},
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": secretData})
	})
	vaultMux.HandleFunc("/v1/kv/data/esign/apps/app-2", func(w http.ResponseWriter, r *http.Request) {
		secretData := map[string]interface{}{
			"data": map[string]interface{}{"other": "value"},
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": secretData})
	})
	vaultServer := httptest.NewServer(vaultMux)
	defer vaultServer.Close()

	cfg := &config.VaultConfig{
		Address:    vaultServer.URL,
		Token:      "root-token",
		MountPath:  "kv",
		SecretPath: "esign/apps",
	}
	client, err := NewVaultClient(cfg)
	require.NoError(t, err)
	provider := NewVaultSecretProvider(cfg, client, logger.NewNoopLogger())

	t.Run("read and cache", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			secret, err := provider.GetSecret(context.Background(), "app-1")
			require.NoError(t, err)
			assert.Equal(t, "vault-secret", secret)
		}
		assert.Equal(t, int32(1), reads.Load())
	})

	t.Run("missing field", func(t *testing.T) {
		_, err := provider.GetSecret(context.Background(), "app-2")
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, constants.ErrCodeSecret))
	})

	t.Run("missing secret", func(t *testing.T) {
		_, err := provider.GetSecret(context.Background(), "app-3")
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, constants.ErrCodeSecret))
	})
}
